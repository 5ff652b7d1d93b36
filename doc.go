// Package schemac compiles vendor-neutral relational schemas into ordered DDL
// statement batches for MySQL/MariaDB, PostgreSQL, Oracle, DB2, Derby and
// SQLite, and decompiles live database catalogs back into schemas.
//
// The root package holds the types shared by every stage: statements, the
// warning diagnostics of a compile run and the error taxonomy. The pipeline
// itself lives in the compiler package:
//
//	res, err := compiler.Compile(ctx, s, dialect.Postgres)
//	if err != nil {
//	    return err
//	}
//	for _, w := range res.Warnings.Warnings {
//	    slog.Warn("degraded", "warning", w)
//	}
package schemac
