package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// QueryParams selects and orders the rows returned by a query.
type QueryParams struct {
	// Where is a condition without the WHERE keyword, e.g. "What = ?".
	Where string
	Args  []any

	// OrderBy is a column list without the ORDER BY keywords.
	OrderBy string

	// Limit of zero returns every row. Offset is ignored without a limit.
	Limit  int
	Offset int
}

func (p QueryParams) filterClause() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

func (p QueryParams) pageClause() string {
	var b strings.Builder

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY " + p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", p.Limit, max(p.Offset, 0))
	}

	return b.String()
}

// DataReader reads back the tables written by a DataRecorder.
type DataReader interface {
	// MapTable tells the reader which struct the rows of a table are decoded
	// into. A table must be mapped before it is queried.
	MapTable(tableName string, sampleEntry any)

	// StoredTables lists the tables that exist in the database.
	StoredTables(ctx context.Context) ([]string, error)

	// Count returns the number of rows that match params.Where.
	Count(ctx context.Context, tableName string, params QueryParams) (int, error)

	// Query returns the matching rows as pointers to the mapped struct,
	// together with the number of rows that match params.Where regardless of
	// the limit.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

// rowMapping ties the columns of a table to the fields of a struct.
type rowMapping struct {
	structType reflect.Type
	fieldIndex map[string]int
}

func newRowMapping(sampleEntry any) rowMapping {
	t := reflect.TypeOf(sampleEntry)
	m := rowMapping{
		structType: t,
		fieldIndex: make(map[string]int, t.NumField()),
	}

	for i := 0; i < t.NumField(); i++ {
		m.fieldIndex[t.Field(i).Name] = i
	}

	return m
}

// scanTargets returns the destinations for one row. Columns without a field
// are scanned into throwaway values.
func (m rowMapping) scanTargets(columns []string, row reflect.Value) []any {
	targets := make([]any, len(columns))

	for i, col := range columns {
		idx, ok := m.fieldIndex[col]
		if !ok {
			targets[i] = new(any)
			continue
		}

		targets[i] = row.Field(idx).Addr().Interface()
	}

	return targets
}

type sqliteReader struct {
	*sql.DB

	mappings map[string]rowMapping
}

// NewReader opens an existing SQLite file for reading.
func NewReader(dbFilename string) (DataReader, error) {
	_, err := os.Stat(dbFilename)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, err
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a new DataReader with a given database
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:       db,
		mappings: make(map[string]rowMapping),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.mappings[tableName] = newRowMapping(sampleEntry)
}

func (r *sqliteReader) StoredTables(ctx context.Context) ([]string, error) {
	rows, err := r.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string

		err = rows.Scan(&name)
		if err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (r *sqliteReader) Count(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (int, error) {
	var n int

	err := r.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+params.filterClause(),
		params.Args...,
	).Scan(&n)

	return n, err
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	mapping, ok := r.mappings[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	total, err := r.Count(ctx, tableName, params)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.QueryContext(ctx,
		"SELECT * FROM "+tableName+params.filterClause()+params.pageClause(),
		params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, 0, err
	}

	var results []any

	for rows.Next() {
		entry := reflect.New(mapping.structType)

		err = rows.Scan(mapping.scanTargets(columns, entry.Elem())...)
		if err != nil {
			return nil, 0, err
		}

		results = append(results, entry.Interface())
	}

	return results, total, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}
