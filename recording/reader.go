package recording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strconv"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
)

// QueryParams encapsulates the optional parts of a table query.
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword.
	Where string

	// Args holds the arguments for the placeholders in Where.
	Args []any

	// Limit is the maximum number of records to return, 0 for no limit.
	Limit int

	// Offset is the number of records to skip.
	Offset int

	// OrderBy specifies sorting, without the "ORDER BY" keywords.
	OrderBy string
}

// A Reader reads recorded runs back from a database.
type Reader interface {
	// MapTable establishes a mapping between a table and a record struct
	// type. The mapping is required before querying the table.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns all mapped tables.
	ListTables() []string

	// Query reads records from a table. It returns the records of the
	// requested page and the total count of matching rows.
	Query(ctx context.Context, tableName string, params QueryParams) (
		records []any,
		totalCount int,
		err error,
	)

	// Close closes the database.
	Close() error
}

// NewSQLiteReader opens a Reader over a recorded SQLite database file.
func NewSQLiteReader(dbFilename string) Reader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return &sqliteReader{
		DB:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

type sqliteReader struct {
	*sql.DB

	typeMap map[string]reflect.Type
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.typeMap[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	tables := make([]string, 0, len(r.typeMap))
	for name := range r.typeMap {
		tables = append(tables, name)
	}

	return tables
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (records []any, totalCount int, err error) {
	structType, ok := r.typeMap[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	totalCount, err = r.countRows(ctx, tableName, params)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.QueryContext(ctx,
		buildSelect(tableName, params), params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		entry := reflect.New(structType).Elem()

		fields := make([]any, structType.NumField())
		for i := range fields {
			fields[i] = entry.Field(i).Addr().Interface()
		}

		if err := rows.Scan(fields...); err != nil {
			return nil, 0, err
		}

		records = append(records, entry.Interface())
	}

	return records, totalCount, rows.Err()
}

func (r *sqliteReader) countRows(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (int, error) {
	query := "SELECT COUNT(*) FROM " + tableName
	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	count := 0
	err := r.QueryRowContext(ctx, query, params.Args...).Scan(&count)

	return count, err
}

func buildSelect(tableName string, params QueryParams) string {
	query := "SELECT * FROM " + tableName

	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(params.Limit)

		if params.Offset > 0 {
			query += " OFFSET " + strconv.Itoa(params.Offset)
		}
	}

	return query
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}
