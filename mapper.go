package main

import (
	"maps"
	"slices"
)

// Mapper translates source identifiers to target identifiers and decides
// which fields are dropped. It is immutable once built.
type Mapper struct {
	tables    map[string]string
	columns   map[string]string
	skip      map[string]struct{}
	tableSkip map[string]map[string]struct{}
}

// NewMapper copies cfg so later changes to it do not leak into the mapper.
func NewMapper(cfg MappingConfig) *Mapper {
	m := &Mapper{
		tables:    maps.Clone(cfg.Tables),
		columns:   maps.Clone(cfg.Columns),
		skip:      toSet(cfg.SkipFields),
		tableSkip: make(map[string]map[string]struct{}, len(cfg.TableSkipFields)),
	}
	if m.tables == nil {
		m.tables = map[string]string{}
	}
	if m.columns == nil {
		m.columns = map[string]string{}
	}
	for table, fields := range cfg.TableSkipFields {
		m.tableSkip[table] = toSet(fields)
	}
	return m
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// MapTable returns the target table for a source table.
// ok is false for unmapped tables, which callers skip.
func (m *Mapper) MapTable(source string) (target string, ok bool) {
	target, ok = m.tables[source]
	return target, ok
}

// MapColumn returns the target column name, which is the source name unless remapped.
func (m *Mapper) MapColumn(source string) string {
	if target, ok := m.columns[source]; ok {
		return target
	}
	return source
}

// ShouldSkipField reports whether field is dropped when replicating sourceTable.
func (m *Mapper) ShouldSkipField(field, sourceTable string) bool {
	if _, ok := m.skip[field]; ok {
		return true
	}
	target, ok := m.tables[sourceTable]
	if !ok {
		return false
	}
	_, ok = m.tableSkip[target][field]
	return ok
}

// SourceTables lists mapped source tables in sorted order.
func (m *Mapper) SourceTables() []string {
	return slices.Sorted(maps.Keys(m.tables))
}

// TargetTables lists the distinct mapped target tables in sorted order.
func (m *Mapper) TargetTables() []string {
	return slices.Compact(slices.Sorted(maps.Values(m.tables)))
}
