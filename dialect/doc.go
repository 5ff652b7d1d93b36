// Package dialect describes the SQL vendors schemac targets.
//
// # Supported Dialects
//
//   - MySQL, MariaDB
//   - Postgres: PostgreSQL
//   - Oracle
//   - DB2
//   - Derby: Apache Derby
//   - SQLite
//
// A Vendor is selected from this closed set with Parse; unknown names are a
// configuration error. Describe returns the Descriptor holding the vendor's
// identifier, literal and size rules, shared by the compiler and decompiler.
//
// # Driver Interface
//
// The package also defines the minimal execution interfaces implemented by
// dialect/sql:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver wrapper and statement batch execution
//   - dialect/sql/migrate: versioned migration directory output
package dialect
