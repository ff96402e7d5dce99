package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

const versionLayout = "20060102150405"

// Generator writes migration and seed files derived from the live source schema.
type Generator struct {
	mapper    *Mapper
	converter *Converter
	cfg       GenerateConfig
	pgSchema  string
	log       *slog.Logger
	progress  io.Writer // nil disables the progress bar
	now       func() time.Time
}

func NewGenerator(mapper *Mapper, cfg GenerateConfig, pgSchema string, log *slog.Logger) *Generator {
	if log == nil {
		log = discardLogger()
	}
	return &Generator{
		mapper:    mapper,
		converter: NewConverter(mapper),
		cfg:       cfg,
		pgSchema:  pgSchema,
		log:       log,
		now:       time.Now,
	}
}

// generateReport summarizes one generate pass.
type generateReport struct {
	Migrations []string // written files
	Seeds      []string
	Skipped    []string // tables that already had a migration
	Failed     []string // tables whose introspection or seed failed
}

// Run generates files for every mapped source table. A table that cannot be
// introspected is logged and skipped; the remaining tables still run.
func (g *Generator) Run(ctx context.Context, src Source) (*generateReport, error) {
	for _, dir := range []string{g.cfg.MigrationsDir, g.cfg.SeedsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	all, err := src.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	var tables []string
	for _, t := range all {
		if _, ok := g.mapper.MapTable(t); ok {
			tables = append(tables, t)
		}
	}
	g.log.Info(fmt.Sprintf("generating files for %d mapped tables", len(tables)),
		slog.String("migrations_dir", g.cfg.MigrationsDir),
		slog.String("seeds_dir", g.cfg.SeedsDir))

	var bar *progressbar.ProgressBar
	if g.progress != nil {
		bar = progressbar.NewOptions(len(tables),
			progressbar.OptionSetWriter(g.progress),
			progressbar.OptionSetDescription("generating"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	report := &generateReport{}
	stamp := g.now().UTC().Format(versionLayout)
	seq := 0
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if bar != nil {
			bar.Describe(table)
		}
		seq++
		g.generateTable(ctx, src, table, fmt.Sprintf("%s%03d", stamp, seq), stamp, report)
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	g.log.Info("generation finished",
		slog.Int("migrations", len(report.Migrations)),
		slog.Int("seeds", len(report.Seeds)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}

func (g *Generator) generateTable(ctx context.Context, src Source, table, version, stamp string, report *generateReport) {
	target, _ := g.mapper.MapTable(table)
	log := g.log.With(slog.String("table", table), slog.String("target", target))

	schema, err := src.TableSchema(ctx, table)
	if err != nil {
		log.Error("introspection failed, skipping table", slog.Any("error", err))
		report.Failed = append(report.Failed, table)
		return
	}

	existing, err := findMigration(g.cfg.MigrationsDir, target)
	if err != nil {
		log.Error("scan migrations", slog.Any("error", err))
		report.Failed = append(report.Failed, table)
		return
	}
	if existing != "" {
		log.Debug("migration exists", slog.String("file", existing))
		report.Skipped = append(report.Skipped, table)
	} else {
		m := generateMigration(schema, target, g.mapper, g.pgSchema)
		for _, w := range m.Warnings {
			log.Warn(w)
		}
		base := filepath.Join(g.cfg.MigrationsDir, fmt.Sprintf("%s_create_%s", version, target))
		if err := writeFile(base+".up.sql", m.Up); err != nil {
			log.Error("write migration", slog.Any("error", err))
			report.Failed = append(report.Failed, table)
			return
		}
		if err := writeFile(base+".down.sql", m.Down); err != nil {
			log.Error("write migration", slog.Any("error", err))
			report.Failed = append(report.Failed, table)
			return
		}
		report.Migrations = append(report.Migrations, base+".up.sql")
	}

	rows, err := extract(ctx, src, schema, extractOptions{Limit: g.cfg.SeedRows})
	if err != nil {
		log.Error("read sample rows", slog.Any("error", err))
		report.Failed = append(report.Failed, table)
		return
	}
	if len(rows) == 0 {
		return
	}
	seed, err := generateSeed(table, target, g.converter.ConvertRows(rows, table),
		targetColumnTypes(schema, g.mapper), g.pgSchema, g.cfg.SeedRows)
	if err != nil {
		log.Error("render seed", slog.Any("error", err))
		report.Failed = append(report.Failed, table)
		return
	}
	if err := removeSeeds(g.cfg.SeedsDir, target); err != nil {
		log.Warn("remove old seeds", slog.Any("error", err))
	}
	path := filepath.Join(g.cfg.SeedsDir, fmt.Sprintf("%s_%s_seed.sql", stamp, target))
	if err := writeFile(path, seed); err != nil {
		log.Error("write seed", slog.Any("error", err))
		report.Failed = append(report.Failed, table)
		return
	}
	report.Seeds = append(report.Seeds, path)
	log.Info(fmt.Sprintf("  %s -> %s", table, target), slog.Int("seed_rows", len(rows)))
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// findMigration returns the existing up migration that creates table, if any.
func findMigration(dir, table string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if migrationTable(e.Name()) == table {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", nil
}

// migrationTable extracts the table from "<version>_create_<table>.up.sql".
func migrationTable(name string) string {
	rest, ok := strings.CutSuffix(name, ".up.sql")
	if !ok {
		return ""
	}
	version, table, ok := strings.Cut(rest, "_create_")
	if !ok || !isDigits(version) {
		return ""
	}
	return table
}

// seedTable extracts the table from "<stamp>_<table>_seed.sql".
func seedTable(name string) string {
	rest, ok := strings.CutSuffix(name, "_seed.sql")
	if !ok {
		return ""
	}
	stamp, table, ok := strings.Cut(rest, "_")
	if !ok || !isDigits(stamp) {
		return ""
	}
	return table
}

func removeSeeds(dir, table string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if seedTable(e.Name()) == table {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
