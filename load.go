package main

import (
	"context"
	"errors"
)

// loadRows writes rows one at a time: rows carrying an id are upserted, the
// rest are inserted. It returns the number of rows written before any failure.
func loadRows(ctx context.Context, dst Target, table string, rows []Row) (int, error) {
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		var err error
		if _, hasID := row["id"]; hasID {
			err = dst.UpsertRow(ctx, table, row)
		} else {
			err = dst.InsertRow(ctx, table, row)
		}
		if err != nil {
			var convErr *ConversionError
			if errors.As(err, &convErr) {
				return i, err
			}
			return i, &LoadError{Table: table, Err: err}
		}
	}
	return len(rows), nil
}
