package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/dialect"
)

// driverNames maps vendors to the database/sql driver names registered by
// the drivers the CLI links in.
var driverNames = map[dialect.Vendor]string{
	dialect.MySQL:    "mysql",
	dialect.MariaDB:  "mysql",
	dialect.Postgres: "postgres",
	dialect.SQLite:   "sqlite",
}

// DriverName returns the database/sql driver name used to reach v.
func DriverName(v dialect.Vendor) (string, error) {
	name, ok := driverNames[v]
	if !ok {
		return "", schemac.NewVendorUnsupportedError(string(v), "execute")
	}
	return name, nil
}

// Driver is a dialect.Driver implementation for SQL based databases.
type Driver struct {
	Conn
	vendor dialect.Vendor
}

// NewDriver creates a new Driver with the given Conn and vendor.
func NewDriver(v dialect.Vendor, c Conn) *Driver {
	return &Driver{vendor: v, Conn: c}
}

// Open opens a database of vendor v with the driver DriverName returns.
func Open(v dialect.Vendor, source string) (*Driver, error) {
	name, err := DriverName(v)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(v, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(v dialect.Vendor, db *sql.DB) *Driver {
	return NewDriver(v, Conn{db})
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Vendor returns the vendor the driver talks to.
func (d Driver) Vendor() dialect.Vendor { return d.vendor }

// Dialect implements the dialect.Driver interface.
func (d Driver) Dialect() string { return string(d.vendor) }

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{Conn: Conn{tx}, Tx: tx}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx interface.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
}

// Exec implements the dialect.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	switch v := v.(type) {
	case nil:
		if _, err := c.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := c.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	rows, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	return nil
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// exists reports whether a query returned at least one row and closes rows.
func exists(rows *Rows) (bool, error) {
	found := rows.Next()
	return found, errors.Join(rows.Err(), rows.Close())
}
