package main

import (
	"fmt"
	"slices"
	"strings"
)

// migration is the generated DDL for one target table.
type migration struct {
	Up       string
	Down     string
	Warnings []string
}

// generateMigration renders CREATE TABLE and index DDL for targetTable from the
// introspected source schema. Skipped fields are left out and column names are
// mapped the same way rows are.
func generateMigration(schema *TableSchema, targetTable string, mapper *Mapper, pgSchema string) migration {
	var m migration
	qualified := pgQualified(pgSchema, targetTable)

	var clauses []string
	emitted := map[string]bool{} // target column names
	serialPK := false

	for _, col := range schema.Columns {
		if mapper.ShouldSkipField(col.Name, schema.Table) {
			continue
		}
		name := mapper.MapColumn(col.Name)
		emitted[name] = true

		if col.AutoIncrement && col.Name == "id" {
			serial := "SERIAL"
			if baseType(col.Type) == "bigint" {
				serial = "BIGSERIAL"
			}
			clauses = append(clauses, fmt.Sprintf("%s %s PRIMARY KEY", pgIdent(name), serial))
			serialPK = true
			continue
		}

		if !isKnownSourceType(col.Type) {
			m.Warnings = append(m.Warnings, fmt.Sprintf("%s.%s: unknown type %q mapped to %s",
				schema.Table, col.Name, col.Type, fallbackTargetType))
		}
		clause := pgIdent(name) + " " + mapSourceTypeToTargetType(col.Type, col.Name)
		if !col.Nullable && col.Name != "id" {
			clause += " NOT NULL"
		}
		if !col.AutoIncrement {
			if expr, ok := simplifyDefaultValue(col.Default, col.Type); ok {
				clause += " DEFAULT " + expr
			}
		}
		clauses = append(clauses, clause)
	}

	for _, ts := range []string{"created_at", "updated_at"} {
		if !emitted[ts] {
			clauses = append(clauses, fmt.Sprintf("%s timestamptz NOT NULL DEFAULT %s", ts, nowDefault))
			emitted[ts] = true
		}
	}

	if !serialPK && len(schema.PrimaryKey) > 0 {
		if pk, ok := mappedColumns(schema.PrimaryKey, schema.Table, mapper); ok {
			clauses = append(clauses, fmt.Sprintf("PRIMARY KEY (%s)", quotedColumnList(pk)))
		} else {
			m.Warnings = append(m.Warnings, fmt.Sprintf("%s: primary key uses skipped fields, omitted", schema.Table))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- %s -> %s\n", schema.Table, targetTable)
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", qualified)
	for i, c := range clauses {
		b.WriteString("  ")
		b.WriteString(c)
		if i < len(clauses)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(");\n")

	for _, idx := range schema.Indexes {
		cols, ok := mappedColumns(idx.Columns, schema.Table, mapper)
		if !ok || len(cols) == 0 {
			m.Warnings = append(m.Warnings, fmt.Sprintf("%s: index %s has no replicable columns, skipped", schema.Table, idx.Name))
			continue
		}
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		idxName := fmt.Sprintf("%s_%s", targetTable, strings.ToLower(idx.Name))
		fmt.Fprintf(&b, "CREATE %sINDEX IF NOT EXISTS %s ON %s (%s);\n",
			unique, pgIdent(idxName), qualified, quotedColumnList(cols))
	}

	m.Up = b.String()
	m.Down = fmt.Sprintf("DROP TABLE IF EXISTS %s;\n", qualified)
	return m
}

// mappedColumns maps index or key columns to target names. ok is false when
// any of them is a skipped field.
func mappedColumns(cols []string, sourceTable string, mapper *Mapper) ([]string, bool) {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if mapper.ShouldSkipField(c, sourceTable) {
			return nil, false
		}
		out = append(out, mapper.MapColumn(c))
	}
	return out, !slices.Contains(out, "")
}

// targetColumnTypes returns the generated PostgreSQL type of each replicated column.
func targetColumnTypes(schema *TableSchema, mapper *Mapper) map[string]string {
	types := make(map[string]string, len(schema.Columns))
	for _, col := range schema.Columns {
		if mapper.ShouldSkipField(col.Name, schema.Table) {
			continue
		}
		types[mapper.MapColumn(col.Name)] = mapSourceTypeToTargetType(col.Type, col.Name)
	}
	return types
}
