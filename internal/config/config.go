// Package config reads the schemac command configuration from a TOML file.
//
//	if_not_exists = true
//	schema_name = "app"
//	format = "golang-migrate"
//
//	[exec]
//	dsn = "postgres://localhost/app?sslmode=disable"
//	batch = true
//	slow_threshold = "2s"
//
//	[log]
//	level = "debug"
//	format = "json"
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/syssam/schemac/compiler"
	"github.com/syssam/schemac/dialect/sql/migrate"
)

// FormatSQL writes the batch as one plain SQL script.
const FormatSQL = "sql"

// Config holds every setting of a schemac run.
type Config struct {
	IfNotExists   bool   `toml:"if_not_exists"`
	NoDrop        bool   `toml:"no_drop"`
	NoCreate      bool   `toml:"no_create"`
	SchemaName    string `toml:"schema_name"`
	ReservedWords bool   `toml:"reserved_words"`
	StrictIndexes bool   `toml:"strict_indexes"`
	// Format is "sql" or a migration directory format.
	Format string `toml:"format"`
	// Version stamps atlas migration files.
	Version string `toml:"version"`
	Exec    Exec   `toml:"exec"`
	Log     Log    `toml:"log"`
}

// Exec configures running the batch against a database.
type Exec struct {
	DSN           string        `toml:"dsn"`
	Batch         bool          `toml:"batch"`
	Tx            bool          `toml:"tx"`
	SlowThreshold time.Duration `toml:"slow_threshold"`
}

// Log configures the command logger.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Format: FormatSQL,
		Exec:   Exec{SlowThreshold: time.Second},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Load reads the file at path over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return nil, fmt.Errorf("config: %s: unknown keys %s", path, strings.Join(names, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if c.NoDrop && c.NoCreate {
		return fmt.Errorf("no_drop and no_create leave nothing to emit")
	}
	if c.Format != FormatSQL {
		if _, err := migrate.ParseFormat(c.Format); err != nil {
			return err
		}
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Exec.SlowThreshold < 0 {
		return fmt.Errorf("negative slow_threshold %s", c.Exec.SlowThreshold)
	}
	return nil
}

// CompileOptions translates the configuration into compiler options.
func (c *Config) CompileOptions() []compiler.Option {
	opts := []compiler.Option{
		compiler.WithDrop(!c.NoDrop),
		compiler.WithCreate(!c.NoCreate),
		compiler.WithIfNotExists(c.IfNotExists),
		compiler.WithReservedWordCheck(c.ReservedWords),
		compiler.WithStrictIndexes(c.StrictIndexes),
	}
	if c.SchemaName != "" {
		opts = append(opts, compiler.WithSchemaName(c.SchemaName))
	}
	return opts
}

// MigrationOptions translates the configuration into migration writer
// options.
func (c *Config) MigrationOptions() []migrate.Option {
	if c.Version == "" {
		return nil
	}
	return []migrate.Option{migrate.WithVersion(c.Version)}
}

// Logger builds the logger described by the configuration.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}
