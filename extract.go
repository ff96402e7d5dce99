package main

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// maxBatchRows caps every extraction.
const maxBatchRows = 1000

// extractOptions narrows one extraction call.
type extractOptions struct {
	Watermark *time.Time // nil pulls everything
	AfterID   any        // keyset cursor; only used when the table has an id column
	Limit     int        // 0 or anything above maxBatchRows means maxBatchRows
}

// extractQuery builds the SELECT for one table. With a watermark the filter
// prefers an updated-type column, then created_at, then none at all.
// Rows are ordered by id when the table has one; otherwise order is undefined.
func extractQuery(src Source, schema *TableSchema, opts extractOptions) (string, []any) {
	limit := opts.Limit
	if limit <= 0 || limit > maxBatchRows {
		limit = maxBatchRows
	}
	q := src.QuoteIdentifier
	hasID := schema.HasColumn("id")

	var conds []string
	var args []any
	if opts.Watermark != nil {
		updatedCol := ""
		for _, name := range []string{"updated_at", "modified_at"} {
			if schema.HasColumn(name) {
				updatedCol = name
				break
			}
		}
		hasCreated := schema.HasColumn("created_at")
		wm := src.WatermarkArg(*opts.Watermark)

		switch {
		case updatedCol != "" && hasCreated:
			conds = append(conds, fmt.Sprintf("(%s > ? OR %s > ?)", q(updatedCol), q("created_at")))
			args = append(args, wm, wm)
		case updatedCol != "":
			conds = append(conds, fmt.Sprintf("%s > ?", q(updatedCol)))
			args = append(args, wm)
		case hasCreated:
			conds = append(conds, fmt.Sprintf("%s > ?", q("created_at")))
			args = append(args, wm)
		}
	}
	if hasID && opts.AfterID != nil {
		conds = append(conds, fmt.Sprintf("%s > ?", q("id")))
		args = append(args, opts.AfterID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s", q(schema.Table))
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	if hasID {
		fmt.Fprintf(&b, " ORDER BY %s ASC", q("id"))
	}
	fmt.Fprintf(&b, " LIMIT %d", limit)
	return b.String(), args
}

// extract pulls one batch of at most maxBatchRows rows from a source table.
func extract(ctx context.Context, src Source, schema *TableSchema, opts extractOptions) ([]Row, error) {
	query, args := extractQuery(src, schema, opts)
	rows, err := src.Query(ctx, query, args...)
	if err != nil {
		return nil, &ExtractionError{Table: schema.Table, Err: err}
	}
	if len(rows) > maxBatchRows {
		rows = rows[:maxBatchRows]
	}
	return rows, nil
}
