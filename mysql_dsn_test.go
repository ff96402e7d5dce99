package main

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
)

func TestMySQLDSNFromConfig_ExplicitDSN(t *testing.T) {
	dsn, dbName, err := mysqlDSNFromConfig(SourceConfig{DSN: "root:root@tcp(127.0.0.1:3306)/example_db"})
	if err != nil {
		t.Fatalf("mysqlDSNFromConfig() error: %v", err)
	}
	if dbName != "example_db" {
		t.Errorf("dbName = %q, want example_db", dbName)
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN(%q) error: %v", dsn, err)
	}
	if !cfg.ParseTime || !cfg.InterpolateParams || cfg.Loc != time.UTC {
		t.Errorf("read options not applied: %+v", cfg)
	}
}

func TestMySQLDSNFromConfig_Fields(t *testing.T) {
	dsn, dbName, err := mysqlDSNFromConfig(SourceConfig{
		Host:     "legacy.internal",
		Port:     3307,
		User:     "reader",
		Password: "p@ss",
		Database: "sabercon",
		Charset:  "utf8mb4",
		TLS:      true,
	})
	if err != nil {
		t.Fatalf("mysqlDSNFromConfig() error: %v", err)
	}
	if dbName != "sabercon" {
		t.Errorf("dbName = %q, want sabercon", dbName)
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN(%q) error: %v", dsn, err)
	}
	if cfg.Addr != "legacy.internal:3307" || cfg.User != "reader" || cfg.Passwd != "p@ss" {
		t.Errorf("connection fields = %s@%s", cfg.User, cfg.Addr)
	}
	if cfg.TLSConfig != "skip-verify" {
		t.Errorf("TLSConfig = %q, want skip-verify", cfg.TLSConfig)
	}
	if !strings.Contains(dsn, "charset=utf8mb4") {
		t.Errorf("dsn %q missing charset", dsn)
	}
}

func TestMySQLDSNFromConfig_Errors(t *testing.T) {
	for _, src := range []SourceConfig{
		{DSN: "user:pass@tcp(host:3306)/"},
		{DSN: "://bad-dsn"},
		{Host: "h", Port: 3306},
	} {
		if _, _, err := mysqlDSNFromConfig(src); err == nil {
			t.Errorf("mysqlDSNFromConfig(%+v) expected error", src)
		}
	}
}

func TestMySQLQuoteIdentifier(t *testing.T) {
	got := mysqlDialect{}.quote("my`table")
	want := "`my``table`"
	if got != want {
		t.Errorf("quote() = %q, want %q", got, want)
	}
}

func TestMySQLWatermarkArgIsUTC(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	got, ok := mysqlDialect{}.watermarkArg(ts).(time.Time)
	if !ok {
		t.Fatalf("watermarkArg() returned %T", got)
	}
	if got.Location() != time.UTC || !got.Equal(ts) {
		t.Errorf("watermarkArg() = %v", got)
	}
}

func TestGroupIndexRows(t *testing.T) {
	rows := []mysqlIndexRow{
		{IndexName: "PRIMARY", ColumnName: nullString("id"), NonUnique: 0},
		{IndexName: "idx_name_city", ColumnName: nullString("name"), NonUnique: 1},
		{IndexName: "idx_name_city", ColumnName: nullString("city"), NonUnique: 1},
		{IndexName: "uniq_code", ColumnName: nullString("code"), NonUnique: 0},
		{IndexName: "fn_idx", NonUnique: 1},
	}
	got := groupIndexRows(rows)
	if len(got) != 4 {
		t.Fatalf("groupIndexRows() returned %d indexes, want 4", len(got))
	}
	if got[0].Name != "PRIMARY" || !got[0].Unique {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Name != "idx_name_city" || got[1].Unique || strings.Join(got[1].Columns, ",") != "name,city" {
		t.Errorf("got[1] = %+v", got[1])
	}
	if got[2].Name != "uniq_code" || !got[2].Unique {
		t.Errorf("got[2] = %+v", got[2])
	}
	if len(got[3].Columns) != 0 {
		t.Errorf("functional index columns = %v, want none", got[3].Columns)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
