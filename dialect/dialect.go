package dialect

import (
	"context"
	"database/sql/driver"
	"strings"

	"github.com/syssam/schemac"
)

// Vendor identifies a target SQL dialect.
type Vendor string

// Supported vendors.
const (
	MySQL    Vendor = "mysql"
	MariaDB  Vendor = "mariadb"
	Postgres Vendor = "postgres"
	Oracle   Vendor = "oracle"
	DB2      Vendor = "db2"
	Derby    Vendor = "derby"
	SQLite   Vendor = "sqlite"
)

var aliases = map[string]Vendor{
	"mysql":      MySQL,
	"mariadb":    MariaDB,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pg":         Postgres,
	"oracle":     Oracle,
	"db2":        DB2,
	"derby":      Derby,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
}

// Vendors returns all supported vendors in a stable order.
func Vendors() []Vendor {
	return []Vendor{MySQL, MariaDB, Postgres, Oracle, DB2, Derby, SQLite}
}

// Parse returns the vendor for name, matched case-insensitively and
// accepting common aliases.
func Parse(name string) (Vendor, error) {
	if v, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return v, nil
	}
	return "", schemac.NewVendorUnsupportedError(name, "")
}

// Valid reports whether v is a member of the supported set.
func (v Vendor) Valid() bool {
	for _, s := range Vendors() {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the vendor name.
func (v Vendor) String() string { return string(v) }

// ExecQuerier wraps the two database operations used by the execution layer.
type ExecQuerier interface {
	// Exec executes a query that does not return records.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for executing
// statement batches against a database.
type Driver interface {
	ExecQuerier
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx is a transaction that statements can run in.
type Tx interface {
	ExecQuerier
	driver.Tx
}
