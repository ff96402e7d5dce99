package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRowsUpsertsByID(t *testing.T) {
	dst := newMemTarget()
	dst.addTable("genres", map[string]string{"id": "integer", "name": "text"})
	ctx := context.Background()

	rows := []Row{{"id": int64(1), "name": "rock"}, {"id": int64(2), "name": "jazz"}}
	n, err := loadRows(ctx, dst, "genres", rows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// same ids again: updated in place
	n, err = loadRows(ctx, dst, "genres", []Row{{"id": int64(1), "name": "metal"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, dst.count("genres"))
	assert.Equal(t, "metal", dst.rows["genres"][int64(1)]["name"])
}

func TestLoadRowsInsertsWithoutID(t *testing.T) {
	dst := newMemTarget()
	dst.addTable("settings", map[string]string{"key": "text"})

	_, err := loadRows(context.Background(), dst, "settings", []Row{{"key": "a"}, {"key": "a"}})
	require.NoError(t, err)
	assert.Len(t, dst.anon["settings"], 2)
}

func TestLoadRowsErrors(t *testing.T) {
	dst := newMemTarget()
	dst.addTable("genres", map[string]string{"id": "integer", "is_active": "boolean"})
	dst.addTable("tags", map[string]string{"id": "integer"})
	dst.failOn["tags"] = errors.New("duplicate key")
	ctx := context.Background()

	n, err := loadRows(ctx, dst, "genres", []Row{{"id": int64(1)}, {"id": int64(2), "is_active": "maybe"}})
	assert.Equal(t, 1, n)
	var ce *ConversionError
	assert.ErrorAs(t, err, &ce)

	_, err = loadRows(ctx, dst, "tags", []Row{{"id": int64(1)}})
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "tags", le.Table)
}

func TestLoadRowsStopsOnCancel(t *testing.T) {
	dst := newMemTarget()
	dst.addTable("genres", map[string]string{"id": "integer"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := loadRows(ctx, dst, "genres", []Row{{"id": int64(1)}})
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, context.Canceled)
}
