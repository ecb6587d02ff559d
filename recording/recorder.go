// Package recording persists completed control cycles and run metadata,
// and exports recorded runs to CSV and JSON.
package recording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A Recorder stores flat record structs into tables.
type Recorder interface {
	// CreateTable creates a new table shaped after the sample entry.
	CreateTable(tableName string, sampleEntry any)

	// Insert buffers a record for a table that already exists.
	Insert(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered records into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

// NewSQLiteRecorder creates a Recorder backed by a SQLite database at
// path + ".sqlite3". An empty path picks a generated name.
func NewSQLiteRecorder(path string) Recorder {
	w := &sqliteRecorder{
		dbPath:    path,
		batchSize: 1024,
		tables:    make(map[string]*table),
	}

	w.init()

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	structType reflect.Type
	entries    []any
}

type sqliteRecorder struct {
	*sql.DB

	dbPath     string
	tables     map[string]*table
	batchSize  int
	entryCount int
}

func (w *sqliteRecorder) init() {
	if w.dbPath == "" {
		w.dbPath = "signalsim_run_" + xid.New().String()
	}

	filename := w.dbPath + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Recording run into %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	w.DB = db
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	types := reflect.TypeOf(entry)

	for i := 0; i < types.NumField(); i++ {
		field := types.Field(i)

		if !isAllowedKind(field.Type.Kind()) {
			return errors.New(
				"record field " + field.Name + " has an unsupported type")
		}
	}

	return nil
}

func (w *sqliteRecorder) CreateTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	names := structs.Names(sampleEntry)
	fields := strings.Join(names, ", \n\t")

	createTableSQL := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`
	w.mustExecute(createTableSQL)

	w.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
		entries:    []any{},
	}
}

func (w *sqliteRecorder) Insert(tableName string, entry any) {
	tb, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != tb.structType {
		panic(fmt.Sprintf("table %s stores %s records",
			tableName, tb.structType.Name()))
	}

	tb.entries = append(tb.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		w.Flush()
	}
}

func (w *sqliteRecorder) ListTables() []string {
	tables := make([]string, 0, len(w.tables))
	for name := range w.tables {
		tables = append(tables, name)
	}

	return tables
}

func (w *sqliteRecorder) Flush() {
	if w.entryCount == 0 {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	for tableName, tb := range w.tables {
		if len(tb.entries) == 0 {
			continue
		}

		w.flushTable(tableName, tb)
		tb.entries = nil
	}

	w.entryCount = 0
}

func (w *sqliteRecorder) flushTable(tableName string, tb *table) {
	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", tb.structType.NumField()), ", ")

	stmt, err := w.Prepare(
		"INSERT INTO " + tableName + " VALUES (" + placeholders + ")")
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, entry := range tb.entries {
		_, err := stmt.Exec(structs.Values(entry)...)
		if err != nil {
			panic(err)
		}
	}
}

func (w *sqliteRecorder) Close() error {
	w.Flush()

	return w.DB.Close()
}

func (w *sqliteRecorder) mustExecute(query string) sql.Result {
	res, err := w.Exec(query)
	if err != nil {
		panic(query + " -> " + err.Error())
	}

	return res
}
