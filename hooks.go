package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// applySeeds runs every *_seed.sql file in dir in name order. {{schema}} in a
// file is replaced with pgSchema. A seed whose table already holds rows is
// skipped so replicated data is never truncated.
func applySeeds(ctx context.Context, exec schemaExecutor, dir, pgSchema string, log *slog.Logger) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seeds dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), "_seed.sql") {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)
	if len(files) == 0 {
		return nil
	}
	log.Info(fmt.Sprintf("  running seeds (%d files)...", len(files)))

	for _, f := range files {
		if table := seedTable(f); table != "" {
			var empty bool
			q := fmt.Sprintf("SELECT NOT EXISTS (SELECT 1 FROM %s)", pgQualified(pgSchema, table))
			if err := exec.QueryRow(ctx, q).Scan(&empty); err != nil {
				return fmt.Errorf("seed %s: %w", f, err)
			}
			if !empty {
				log.Info(fmt.Sprintf("    %s: table %s has data, skipped", f, table))
				continue
			}
		}
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return fmt.Errorf("seed %s: %w", f, err)
		}
		sql := strings.ReplaceAll(string(data), "{{schema}}", pgSchema)
		stmts := splitStatements(sql)

		log.Debug(fmt.Sprintf("    %s: %d statements", f, len(stmts)))
		for i, stmt := range stmts {
			if _, err := exec.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("seed %s: statement %d: %w\nSQL: %s", f, i+1, err, stmt)
			}
		}
	}
	return nil
}

// splitStatements splits SQL text on semicolons. Semicolons inside single-quoted
// strings or double-quoted identifiers do not split, and "--" line comments
// are dropped. Empty statements are skipped.
func splitStatements(sql string) []string {
	var stmts []string
	var current strings.Builder
	var quote byte // 0, '\'' or '"'

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			stmts = append(stmts, s)
		}
		current.Reset()
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote == 0 && c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
			current.WriteByte(c)
		case quote != 0 && c == quote:
			// doubled quote is an escape
			if i+1 < len(sql) && sql[i+1] == quote {
				current.WriteByte(c)
				current.WriteByte(c)
				i++
			} else {
				quote = 0
				current.WriteByte(c)
			}
		case quote == 0 && c == ';':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()
	return stmts
}
