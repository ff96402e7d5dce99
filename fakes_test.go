package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// recordingExec is a schemaExecutor that records statements and answers
// QueryRow from a canned function.
type recordingExec struct {
	execs    []string
	queryRow func(sql string, args []any) pgx.Row
	execErr  error
}

func (e *recordingExec) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if e.execErr != nil {
		return pgconn.CommandTag{}, e.execErr
	}
	e.execs = append(e.execs, sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (e *recordingExec) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (e *recordingExec) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if e.queryRow == nil {
		return scanRow{err: pgx.ErrNoRows}
	}
	return e.queryRow(sql, args)
}

// scanRow assigns vals to Scan destinations in order.
type scanRow struct {
	vals []any
	err  error
}

func (r scanRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *bool:
			*p = r.vals[i].(bool)
		case **string:
			if s, ok := r.vals[i].(string); ok {
				*p = &s
			} else {
				*p = nil
			}
		default:
			return fmt.Errorf("unsupported scan destination %T", d)
		}
	}
	return nil
}

// memSource is an in-memory Source. Query ignores SQL and serves rows filtered
// by the last id argument so keyset paging can be exercised.
type memSource struct {
	mu       sync.Mutex
	tables   map[string]*TableSchema
	rows     map[string][]Row
	listErr  error
	pingErr  error
	queries  []string
	block    chan struct{} // when set, ListTables waits on it
	entered  chan struct{}
	closed   bool
	lastArgs []any
}

func newMemSource() *memSource {
	return &memSource{tables: map[string]*TableSchema{}, rows: map[string][]Row{}}
}

func (s *memSource) addTable(schema *TableSchema, rows ...Row) {
	s.tables[schema.Table] = schema
	s.rows[schema.Table] = rows
}

func (s *memSource) Name() string { return "MySQL" }

func (s *memSource) Ping(context.Context) error { return s.pingErr }

func (s *memSource) ListTables(ctx context.Context) ([]string, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.listErr != nil {
		return nil, s.listErr
	}
	return slices.Sorted(maps.Keys(s.tables)), nil
}

func (s *memSource) TableSchema(_ context.Context, table string) (*TableSchema, error) {
	ts, ok := s.tables[table]
	if !ok {
		return nil, &IntrospectionError{Table: table, Err: errors.New("no such table")}
	}
	return ts, nil
}

// Query expects the table name as the last FROM token written by extractQuery
// with memSource quoting, which is the bare name.
func (s *memSource) Query(_ context.Context, query string, args ...any) ([]Row, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.lastArgs = args
	s.mu.Unlock()

	var table string
	if _, err := fmt.Sscanf(query, "SELECT * FROM %s", &table); err != nil {
		return nil, err
	}
	var afterID int64 = -1
	if len(args) > 0 {
		if id, ok := args[len(args)-1].(int64); ok {
			afterID = id
		}
	}
	var out []Row
	for _, r := range s.rows[table] {
		if id, ok := r["id"].(int64); ok && id <= afterID {
			continue
		}
		out = append(out, maps.Clone(r))
	}
	if len(out) > maxBatchRows {
		out = out[:maxBatchRows]
	}
	return out, nil
}

func (s *memSource) QuoteIdentifier(name string) string { return name }

func (s *memSource) WatermarkArg(t time.Time) any { return t.UTC().Format(time.RFC3339) }

func (s *memSource) Close() error {
	s.closed = true
	return nil
}

// memTarget is an in-memory Target keyed by id, applying the same column
// filtering and coercion as the PostgreSQL target.
type memTarget struct {
	mu        sync.Mutex
	types     map[string]map[string]string // table -> column -> data_type
	rows      map[string]map[any]Row
	anon      map[string][]Row
	failOn    map[string]error
	existsErr error
	pingErr   error
	closed    bool
}

func newMemTarget() *memTarget {
	return &memTarget{
		types:  map[string]map[string]string{},
		rows:   map[string]map[any]Row{},
		anon:   map[string][]Row{},
		failOn: map[string]error{},
	}
}

func (t *memTarget) addTable(table string, types map[string]string) {
	t.types[table] = types
	t.rows[table] = map[any]Row{}
}

func (t *memTarget) Ping(context.Context) error { return t.pingErr }

func (t *memTarget) Close() { t.closed = true }

func (t *memTarget) TableExists(_ context.Context, table string) (bool, error) {
	if t.existsErr != nil {
		return false, t.existsErr
	}
	_, ok := t.types[table]
	return ok, nil
}

func (t *memTarget) UpsertRow(_ context.Context, table string, row Row) error {
	return t.write(table, row, true)
}

func (t *memTarget) InsertRow(_ context.Context, table string, row Row) error {
	return t.write(table, row, false)
}

func (t *memTarget) write(table string, row Row, upsert bool) error {
	if err := t.failOn[table]; err != nil {
		return err
	}
	cols, vals, _, err := prepareRow(table, row, t.types[table])
	if err != nil {
		return err
	}
	stored := Row{}
	for i, c := range cols {
		stored[c] = vals[i]
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !upsert {
		t.anon[table] = append(t.anon[table], stored)
		return nil
	}
	t.rows[table][stored["id"]] = stored
	return nil
}

func (t *memTarget) count(table string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows[table]) + len(t.anon[table])
}
