package main

import (
	"encoding/base64"
	"time"
)

// isoTimeLayout renders timestamps in UTC with millisecond precision.
const isoTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Converter turns source rows into target rows.
type Converter struct {
	mapper *Mapper
}

func NewConverter(m *Mapper) *Converter {
	return &Converter{mapper: m}
}

// ConvertRow drops denylisted fields, renames the rest and converts values.
// It accepts any row shape and always returns exactly one row.
func (c *Converter) ConvertRow(row Row, sourceTable string) Row {
	out := make(Row, len(row))
	for field, val := range row {
		if c.mapper.ShouldSkipField(field, sourceTable) {
			continue
		}
		out[c.mapper.MapColumn(field)] = convertValue(val)
	}
	return out
}

// ConvertRows applies ConvertRow to every row.
func (c *Converter) ConvertRows(rows []Row, sourceTable string) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = c.ConvertRow(r, sourceTable)
	}
	return out
}

func convertValue(val any) any {
	switch v := val.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return v.UTC().Format(isoTimeLayout)
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		return v.UTC().Format(isoTimeLayout)
	case bool:
		return v
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	default:
		return val
	}
}
