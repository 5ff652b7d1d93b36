// Command schemac compiles a schema document into the DDL of one SQL vendor.
//
//	schemac [flags] <vendor> <dest-dir> <schema-file>
//	schemac decompile [flags] <vendor> <dsn>
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/syssam/schemac/compiler"
	"github.com/syssam/schemac/compiler/load"
	"github.com/syssam/schemac/dialect"
	"github.com/syssam/schemac/dialect/sql"
	"github.com/syssam/schemac/dialect/sql/migrate"
	"github.com/syssam/schemac/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// flags holds the command-line values of the root command. Flags that
// were set override the configuration file.
type flags struct {
	config      string
	ifNotExists bool
	noDrop      bool
	format      string
	exec        string
	batch       bool
	watch       bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "schemac <vendor> <dest-dir> <schema-file>",
		Short: "Compile a schema document into SQL DDL",
		Long: `schemac compiles a vendor-neutral schema document into the ordered DROP and
CREATE statements of one SQL vendor and writes them to <dest-dir>/<schema-name>.sql,
or to a migration directory with --format.

Vendors: mysql, mariadb, postgres, oracle, db2, derby, sqlite.`,
		Args: cobra.ExactArgs(3),
		RunE: f.run,
	}
	fs := cmd.Flags()
	fs.StringVar(&f.config, "config", "", "TOML configuration file")
	fs.BoolVar(&f.ifNotExists, "if-not-exists", false, "guard creates against existing objects")
	fs.BoolVar(&f.noDrop, "no-drop", false, "omit the drop phase")
	fs.StringVar(&f.format, "format", config.FormatSQL, "output format: sql, atlas, golang-migrate, goose, flyway or dbmate")
	fs.StringVar(&f.exec, "exec", "", "run the statements against this DSN")
	fs.BoolVar(&f.batch, "batch", false, "with --exec, send statements in as few round trips as possible")
	fs.BoolVar(&f.watch, "watch", false, "recompile when the schema file changes")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level")
	cmd.AddCommand(newDecompileCmd())
	return cmd
}

// settings merges the configuration file and the flags that were set.
func (f *flags) settings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return nil, err
		}
	}
	fs := cmd.Flags()
	if fs.Changed("if-not-exists") {
		cfg.IfNotExists = f.ifNotExists
	}
	if fs.Changed("no-drop") {
		cfg.NoDrop = f.noDrop
	}
	if fs.Changed("format") {
		cfg.Format = f.format
	}
	if fs.Changed("exec") {
		cfg.Exec.DSN = f.exec
	}
	if fs.Changed("batch") {
		cfg.Exec.Batch = f.batch
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *flags) run(cmd *cobra.Command, args []string) error {
	v, err := dialect.Parse(args[0])
	if err != nil {
		return err
	}
	cfg, err := f.settings(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	j := &job{vendor: v, dest: args[1], file: args[2], cfg: cfg, log: logger}
	ctx := cmd.Context()
	if !f.watch {
		return j.run(ctx)
	}
	if err := j.run(ctx); err != nil {
		logger.Error("compile failed", "err", err)
	}
	return j.watch(ctx)
}

// job compiles one schema file for one vendor.
type job struct {
	vendor dialect.Vendor
	dest   string
	file   string
	cfg    *config.Config
	log    *slog.Logger
}

func (j *job) run(ctx context.Context) error {
	s, err := load.Load(j.file)
	if err != nil {
		return err
	}
	res, err := compiler.Compile(ctx, s, j.vendor, j.cfg.CompileOptions()...)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		j.log.Warn("degraded", "table", w.Table, "object", w.Object, "msg", w.Message)
	}
	files, err := j.write(s.Name, res)
	if err != nil {
		return err
	}
	j.log.Info("compiled", "schema", s.Name, "vendor", string(j.vendor), "statements", len(res.Statements), "files", files)
	if j.cfg.Exec.DSN == "" {
		return nil
	}
	return j.exec(ctx, res)
}

func (j *job) write(name string, res *compiler.Result) ([]string, error) {
	if j.cfg.Format == config.FormatSQL {
		if err := os.MkdirAll(j.dest, 0o755); err != nil {
			return nil, err
		}
		path := filepath.Join(j.dest, name+".sql")
		if err := os.WriteFile(path, []byte(res.Script()), 0o644); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}
	format, err := migrate.ParseFormat(j.cfg.Format)
	if err != nil {
		return nil, err
	}
	return migrate.Write(j.dest, name, res.Statements, format, j.cfg.MigrationOptions()...)
}

func (j *job) exec(ctx context.Context, res *compiler.Result) error {
	dsn := j.cfg.Exec.DSN
	if j.cfg.Exec.Batch && (j.vendor == dialect.MySQL || j.vendor == dialect.MariaDB) {
		var err error
		if dsn, err = multiStatements(dsn); err != nil {
			return err
		}
	}
	drv, err := sql.Open(j.vendor, dsn)
	if err != nil {
		return err
	}
	report, err := sql.Exec(ctx, drv, res.Statements,
		sql.WithBatch(j.cfg.Exec.Batch),
		sql.WithTx(j.cfg.Exec.Tx),
		sql.WithLogger(j.log),
		sql.WithSlowStatement(j.cfg.Exec.SlowThreshold),
	)
	if err != nil {
		return errors.Join(err, drv.Close())
	}
	j.log.Info("executed", "run", report.RunID, "executed", report.Executed, "skipped", report.Skipped, "stats", report.Stats.String())
	return drv.Close()
}

// multiStatements enables multi-statement round trips in a MySQL DSN.
func multiStatements(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MultiStatements = true
	return cfg.FormatDSN(), nil
}
