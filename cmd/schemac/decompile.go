package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/compiler/load"
	"github.com/syssam/schemac/decompiler"
	"github.com/syssam/schemac/decompiler/catalog"
	"github.com/syssam/schemac/dialect"
	"github.com/syssam/schemac/schema"
)

func newDecompileCmd() *cobra.Command {
	var out, namespace string
	cmd := &cobra.Command{
		Use:   "decompile <vendor> <dsn>",
		Short: "Rebuild a schema document from a live database",
		Long: `decompile reads the catalog of a database and prints the schema document
that compiles back into it. Supported vendors: sqlite, mysql, mariadb, postgres.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := dialect.Parse(args[0])
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			s, err := decompile(cmd.Context(), v, args[1], namespace)
			if err != nil {
				return err
			}
			buf, err := load.MarshalSchema(s)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(buf)
				return err
			}
			return os.WriteFile(out, buf, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the document to this file instead of stdout")
	cmd.Flags().StringVarP(&namespace, "schema", "s", "", "PostgreSQL schema to read (default public)")
	return cmd
}

// decompile connects to dsn and reads its catalog.
func decompile(ctx context.Context, v dialect.Vendor, dsn, namespace string) (*schema.Schema, error) {
	d, err := decompiler.New(v)
	if err != nil {
		return nil, err
	}
	switch v {
	case dialect.SQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		s, err := d.Decompile(ctx, catalog.NewSQLite(db))
		if err != nil {
			return nil, errors.Join(err, db.Close())
		}
		s.Name = sqliteName(dsn)
		return s, db.Close()
	case dialect.MySQL, dialect.MariaDB:
		name, err := catalog.MySQLSchema(dsn)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}
		s, err := d.Decompile(ctx, catalog.NewMySQL(db, name))
		if err != nil {
			return nil, errors.Join(err, db.Close())
		}
		s.Name = name
		return s, db.Close()
	case dialect.Postgres:
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		defer conn.Close(ctx)
		s, err := d.Decompile(ctx, catalog.NewPostgres(conn, namespace))
		if err != nil {
			return nil, err
		}
		s.Name = conn.Config().Database
		return s, nil
	}
	return nil, schemac.NewVendorUnsupportedError(string(v), "decompile from a connection")
}

// sqliteName names a schema after its database file.
func sqliteName(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
