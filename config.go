package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config is the resolved runtime configuration: environment first, then the
// optional TOML file on top.
type Config struct {
	Source      SourceConfig      `toml:"source"`
	Target      TargetConfig      `toml:"target"`
	Replication ReplicationConfig `toml:"replication"`
	Generate    GenerateConfig    `toml:"generate"`
	Mapping     MappingConfig     `toml:"mapping"`

	Log LogConfig `toml:"-"`

	// configDir resolves relative paths; the working directory without a file.
	configDir string
}

// SourceConfig identifies the source engine. DSN wins over the discrete fields.
type SourceConfig struct {
	Type     string `toml:"type"` // "mysql" or "sqlite"
	DSN      string `toml:"dsn"`  // MySQL DSN or SQLite file path
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"-"`
	Database string `toml:"database"`
	TLS      bool   `toml:"tls"`
	Charset  string `toml:"charset"`
}

// TargetConfig describes the PostgreSQL side. DSN wins over the discrete fields.
type TargetConfig struct {
	DSN      string `toml:"dsn"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"-"`
	Database string `toml:"database"`
	SSL      bool   `toml:"ssl"`
	Schema   string `toml:"schema"`
}

type ReplicationConfig struct {
	BatchSize int    `toml:"batch_size"`
	Schedule  string `toml:"schedule"`
	StateFile string `toml:"state_file"`
	MaxPages  int    `toml:"max_pages"`
}

type GenerateConfig struct {
	MigrationsDir string `toml:"migrations_dir"`
	SeedsDir      string `toml:"seeds_dir"`
	SeedRows      int    `toml:"seed_rows"`
}

type LogConfig struct {
	Format string
	Level  slog.Level
}

// envSettings is read from the process environment (and .env).
type envSettings struct {
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"portal_sabercon"`
	DBSSL       string `envconfig:"DB_SSL"`
	DBSchema    string `envconfig:"DB_SCHEMA" default:"public"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	SourceType    string `envconfig:"SOURCE_TYPE" default:"mysql"`
	MySQLDSN      string `envconfig:"MYSQL_DSN"`
	MySQLHost     string `envconfig:"MYSQL_HOST" default:"localhost"`
	MySQLPort     int    `envconfig:"MYSQL_PORT" default:"3306"`
	MySQLUser     string `envconfig:"MYSQL_USER" default:"root"`
	MySQLPassword string `envconfig:"MYSQL_PASSWORD"`
	MySQLDatabase string `envconfig:"MYSQL_DATABASE"`
	MySQLTLS      bool   `envconfig:"MYSQL_TLS" default:"false"`
	SQLitePath    string `envconfig:"SQLITE_PATH"`

	LogFormat string     `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  slog.Level `envconfig:"LOG_LEVEL" default:"info"`
}

const (
	defaultSchedule  = "*/2 * * * *"
	defaultStateFile = ".pgrelay/state.json"
	defaultSeedRows  = 100
)

// loadConfig merges .env, the environment and an optional TOML file.
// An empty path skips the file; a missing envFile is ignored.
func loadConfig(path, envFile string) (*Config, error) {
	if envFile != "" {
		// existing environment variables are never overridden
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var env envSettings
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg := configFromEnv(env)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if unknown := md.Undecoded(); len(unknown) > 0 {
			keys := make([]string, len(unknown))
			for i, k := range unknown {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		cfg.configDir = filepath.Dir(absPath)
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.configDir = wd
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configFromEnv(env envSettings) Config {
	cfg := Config{
		Source: SourceConfig{
			Type:     env.SourceType,
			DSN:      env.MySQLDSN,
			Host:     env.MySQLHost,
			Port:     env.MySQLPort,
			User:     env.MySQLUser,
			Password: env.MySQLPassword,
			Database: env.MySQLDatabase,
			TLS:      env.MySQLTLS,
			Charset:  "utf8mb4",
		},
		Target: TargetConfig{
			DSN:      env.PostgresDSN,
			Host:     env.DBHost,
			Port:     env.DBPort,
			User:     env.DBUser,
			Password: env.DBPassword,
			Database: env.DBName,
			SSL:      env.DBSSL == "true",
			Schema:   env.DBSchema,
		},
		Replication: ReplicationConfig{
			BatchSize: maxBatchRows,
			Schedule:  defaultSchedule,
			StateFile: defaultStateFile,
		},
		Generate: GenerateConfig{
			MigrationsDir: "migrations",
			SeedsDir:      "seeds",
			SeedRows:      defaultSeedRows,
		},
		Log: LogConfig{Format: env.LogFormat, Level: env.LogLevel},
	}
	if env.SourceType == "sqlite" {
		cfg.Source.DSN = env.SQLitePath
	}
	return cfg
}

// applyDefaults fills unset values and validates the result.
func (c *Config) applyDefaults() error {
	defaults := defaultMappingConfig()
	if len(c.Mapping.Tables) == 0 {
		c.Mapping.Tables = defaults.Tables
	}
	if len(c.Mapping.Columns) == 0 {
		c.Mapping.Columns = defaults.Columns
	}
	if len(c.Mapping.SkipFields) == 0 {
		c.Mapping.SkipFields = defaults.SkipFields
	}
	if len(c.Mapping.TableSkipFields) == 0 {
		c.Mapping.TableSkipFields = defaults.TableSkipFields
	}

	switch c.Source.Type {
	case "mysql":
		if c.Source.Charset == "" {
			c.Source.Charset = "utf8mb4"
		}
	case "sqlite":
		if c.Source.DSN != "" && !strings.HasPrefix(c.Source.DSN, "file:") && c.Source.DSN != ":memory:" {
			c.Source.DSN = c.resolvePath(c.Source.DSN)
		}
	default:
		return fmt.Errorf("source.type must be one of: mysql, sqlite")
	}

	c.Target.Schema = strings.TrimSpace(c.Target.Schema)
	if c.Target.Schema == "" {
		return fmt.Errorf("target.schema is required")
	}

	if c.Replication.BatchSize <= 0 {
		c.Replication.BatchSize = maxBatchRows
	}
	if c.Replication.BatchSize > maxBatchRows {
		return fmt.Errorf("replication.batch_size must be between 1 and %d", maxBatchRows)
	}
	if c.Replication.MaxPages < 0 {
		return fmt.Errorf("replication.max_pages must be >= 0")
	}
	if c.Replication.Schedule == "" {
		c.Replication.Schedule = defaultSchedule
	}
	if _, err := cron.ParseStandard(c.Replication.Schedule); err != nil {
		return fmt.Errorf("replication.schedule: %w", err)
	}
	if c.Replication.StateFile == "" {
		c.Replication.StateFile = defaultStateFile
	}
	c.Replication.StateFile = c.resolvePath(c.Replication.StateFile)

	if c.Generate.SeedRows <= 0 {
		c.Generate.SeedRows = defaultSeedRows
	}
	if c.Generate.MigrationsDir == "" {
		c.Generate.MigrationsDir = "migrations"
	}
	if c.Generate.SeedsDir == "" {
		c.Generate.SeedsDir = "seeds"
	}
	c.Generate.MigrationsDir = c.resolvePath(c.Generate.MigrationsDir)
	c.Generate.SeedsDir = c.resolvePath(c.Generate.SeedsDir)

	switch c.Log.Format {
	case "", "text":
		c.Log.Format = "text"
	case "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be one of: text, json")
	}
	return nil
}

// requireConnections checks the settings needed to reach both databases.
func (c *Config) requireConnections() error {
	switch c.Source.Type {
	case "mysql":
		if c.Source.DSN == "" && c.Source.Database == "" {
			return fmt.Errorf("source: MYSQL_DSN or MYSQL_DATABASE is required")
		}
	case "sqlite":
		if c.Source.DSN == "" {
			return fmt.Errorf("source.dsn (or SQLITE_PATH) is required for sqlite sources")
		}
	}
	if c.Target.DSN == "" && c.Target.Database == "" {
		return fmt.Errorf("target: POSTGRES_DSN or DB_NAME is required")
	}
	return nil
}

// resolvePath resolves a path relative to the config file directory.
func (c *Config) resolvePath(p string) string {
	if filepath.IsAbs(p) || c.configDir == "" {
		return p
	}
	return filepath.Join(c.configDir, p)
}

// targetDSN returns the PostgreSQL connection string.
func (c *Config) targetDSN() string {
	if c.Target.DSN != "" {
		return c.Target.DSN
	}
	sslMode := "disable"
	if c.Target.SSL {
		sslMode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Target.User, c.Target.Password),
		Host:     net.JoinHostPort(c.Target.Host, strconv.Itoa(c.Target.Port)),
		Path:     "/" + c.Target.Database,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}
