// Package sql runs compiled statement batches against a database/sql
// connection.
//
// Driver wraps a *sql.DB for one vendor and implements dialect.Driver. Exec
// sends statements in the order the compiler produced them:
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//	report, err := sql.Exec(ctx, drv, result.Statements,
//	    sql.WithBatch(true),
//	    sql.WithSlowStatement(2*time.Second),
//	)
//
// # Execution Modes
//
// By default every statement is its own round trip. WithBatch joins runs of
// unguarded statements into one script, which MySQL, MariaDB, PostgreSQL and
// SQLite accept; MySQL additionally needs multiStatements=true in the DSN.
// Statements carrying a Guard are preceded by their catalog probe and run
// alone, so both modes observe the same order.
//
// # Logging and Statistics
//
// Each run gets a UUID that tags its log records. Statements are logged at
// Debug and round trips above the slow threshold at Warn. StatsDriver counts
// statements, probes, errors and slow round trips; Exec returns its snapshot
// in the Report.
//
// The database/sql drivers are not imported here. Programs link the ones
// they need:
//
//	import (
//	    _ "github.com/go-sql-driver/mysql"
//	    _ "github.com/lib/pq"
//	    _ "modernc.org/sqlite"
//	)
package sql
