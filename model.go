package main

import (
	"slices"
	"time"
)

// ColumnInfo is one source column as read from the catalog.
type ColumnInfo struct {
	Name          string
	Type          string // raw declared type, e.g. "tinyint(1)", "varchar(255)"
	Nullable      bool
	Default       *string
	AutoIncrement bool
}

// IndexInfo is a secondary index or the primary key of a source table.
type IndexInfo struct {
	Name    string
	Columns []string // ordered by position in the index
	Unique  bool
}

// TableSchema holds the introspected definition of a single source table.
// It is rebuilt on every introspection and never cached.
type TableSchema struct {
	Table      string
	Columns    []ColumnInfo
	PrimaryKey []string
	Indexes    []IndexInfo // non-primary indexes
}

// HasColumn reports whether the table has a column with the given name.
func (s *TableSchema) HasColumn(name string) bool {
	return s.Column(name) != nil
}

// Column returns the named column or nil.
func (s *TableSchema) Column(name string) *ColumnInfo {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i]
		}
	}
	return nil
}

// Row is an untyped record keyed by column name.
type Row map[string]any

// ReplicationStatus is the cumulative state of the replicator across runs.
type ReplicationStatus struct {
	LastSyncTime          *time.Time `json:"lastSyncTime"`
	TotalRecordsProcessed int64      `json:"totalRecordsProcessed"`
	ErrorsCount           int64      `json:"errorsCount"`
	TablesProcessed       []string   `json:"tablesProcessed"`
	LastRunID             string     `json:"lastRunId,omitempty"`
	Running               bool       `json:"running"`
}

func (s ReplicationStatus) clone() ReplicationStatus {
	out := s
	if s.LastSyncTime != nil {
		t := *s.LastSyncTime
		out.LastSyncTime = &t
	}
	out.TablesProcessed = slices.Clone(s.TablesProcessed)
	if out.TablesProcessed == nil {
		out.TablesProcessed = []string{}
	}
	return out
}

func (s *ReplicationStatus) markProcessed(table string) {
	i, found := slices.BinarySearch(s.TablesProcessed, table)
	if found {
		return
	}
	s.TablesProcessed = slices.Insert(s.TablesProcessed, i, table)
}

func (s *ReplicationStatus) hasProcessed(table string) bool {
	_, found := slices.BinarySearch(s.TablesProcessed, table)
	return found
}
