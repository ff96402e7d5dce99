package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// mysqlDSNFromConfig builds the source DSN from an explicit DSN or from the
// discrete connection fields, then applies the read options replication relies on.
// It also returns the database name used for INFORMATION_SCHEMA queries.
func mysqlDSNFromConfig(src SourceConfig) (dsn, dbName string, err error) {
	var cfg *mysql.Config
	if src.DSN != "" {
		cfg, err = mysql.ParseDSN(src.DSN)
		if err != nil {
			return "", "", fmt.Errorf("parse mysql dsn: %w", err)
		}
	} else {
		cfg = mysql.NewConfig()
		cfg.User = src.User
		cfg.Passwd = src.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(src.Host, strconv.Itoa(src.Port))
		cfg.DBName = src.Database
		if src.Charset != "" {
			cfg.Params = map[string]string{"charset": src.Charset}
		}
	}
	if cfg.DBName == "" {
		return "", "", fmt.Errorf("mysql dsn: database name is required")
	}

	cfg.ParseTime = true
	cfg.InterpolateParams = true
	cfg.Loc = time.UTC
	if src.TLS && cfg.TLSConfig == "" {
		// legacy source serves a self-signed certificate
		cfg.TLSConfig = "skip-verify"
	}
	return cfg.FormatDSN(), cfg.DBName, nil
}
