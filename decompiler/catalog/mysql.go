package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL reads the catalog of one MySQL or MariaDB database from
// information_schema.
type MySQL struct {
	db     Querier
	schema string
}

// NewMySQL returns a reader for the tables of the named database.
func NewMySQL(db Querier, schema string) *MySQL {
	return &MySQL{db: db, schema: schema}
}

// MySQLSchema returns the database name selected by a DSN.
func MySQLSchema(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("catalog: parse dsn: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("catalog: dsn %q selects no database", cfg.FormatDSN())
	}
	return cfg.DBName, nil
}

var _ Reader = (*MySQL)(nil)

// collect runs query and scans every row with scan.
func collect[T any](ctx context.Context, db Querier, scan func(*sql.Rows) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanString(rows *sql.Rows) (string, error) {
	var s string
	err := rows.Scan(&s)
	return s, err
}

func (r *MySQL) Tables(ctx context.Context) ([]string, error) {
	names, err := collect(ctx, r.db, scanString, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`, r.schema)
	if err != nil {
		return nil, fmt.Errorf("catalog: list tables: %w", err)
	}
	return names, nil
}

// Columns returns the columns of table. TINYINT(1) is reported as BOOLEAN,
// the type MySQL substitutes for it.
func (r *MySQL) Columns(ctx context.Context, table string) ([]Column, error) {
	cols, err := collect(ctx, r.db, func(rows *sql.Rows) (Column, error) {
		var (
			c                 Column
			dataType, colType string
			size, scale       int64
			dflt              sql.NullString
			nullable, extra   string
		)
		if err := rows.Scan(&c.Name, &dataType, &colType, &size, &scale, &dflt, &nullable, &extra); err != nil {
			return c, err
		}
		c.TypeName = strings.ToUpper(dataType)
		c.Size, c.Scale = int(size), int(scale)
		c.Nullable = nullable == "YES"
		if dflt.Valid {
			c.Default = &dflt.String
		}
		extra = strings.ToLower(extra)
		c.AutoIncrement = strings.Contains(extra, "auto_increment")
		c.OnUpdateNow = strings.Contains(extra, "on update current_timestamp")
		switch {
		case strings.EqualFold(colType, "tinyint(1)"):
			c.TypeName = "BOOLEAN"
		case c.TypeName == "ENUM":
			c.EnumValues = enumLabels(colType)
		}
		return c, nil
	}, `
		SELECT column_name, data_type, column_type,
			COALESCE(character_maximum_length, numeric_precision, 0),
			COALESCE(numeric_scale, 0),
			column_default, is_nullable, extra
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, r.schema, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: columns of %s: %w", table, err)
	}
	return cols, nil
}

func (r *MySQL) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	pk, err := collect(ctx, r.db, scanString, `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`, r.schema, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: primary key of %s: %w", table, err)
	}
	return pk, nil
}

func scanKeyColumn(rows *sql.Rows) (KeyColumn, error) {
	var k KeyColumn
	err := rows.Scan(&k.Constraint, &k.Column, &k.Ordinal)
	return k, err
}

func (r *MySQL) UniqueConstraints(ctx context.Context, table string) ([]KeyColumn, error) {
	keys, err := collect(ctx, r.db, scanKeyColumn, `
		SELECT k.constraint_name, k.column_name, k.ordinal_position
		FROM information_schema.table_constraints c
		JOIN information_schema.key_column_usage k
			ON k.constraint_schema = c.constraint_schema
			AND k.constraint_name = c.constraint_name
			AND k.table_name = c.table_name
		WHERE c.table_schema = ? AND c.table_name = ? AND c.constraint_type = 'UNIQUE'
		ORDER BY k.constraint_name, k.ordinal_position`, r.schema, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: unique constraints of %s: %w", table, err)
	}
	return keys, nil
}

// Indexes skips the indexes MySQL creates for the primary key, unique
// constraints and foreign keys.
func (r *MySQL) Indexes(ctx context.Context, table string) ([]IndexColumn, error) {
	idx, err := collect(ctx, r.db, func(rows *sql.Rows) (IndexColumn, error) {
		var (
			c         IndexColumn
			nonUnique int
		)
		if err := rows.Scan(&c.Index, &c.Column, &c.Ordinal, &nonUnique, &c.Kind); err != nil {
			return c, err
		}
		c.Unique = nonUnique == 0
		c.Kind = strings.ToLower(c.Kind)
		return c, nil
	}, `
		SELECT index_name, column_name, seq_in_index, non_unique, index_type
		FROM information_schema.statistics
		WHERE table_schema = ? AND table_name = ? AND index_name <> 'PRIMARY'
			AND index_name NOT IN (
				SELECT constraint_name
				FROM information_schema.table_constraints
				WHERE table_schema = ? AND table_name = ?
					AND constraint_type IN ('UNIQUE', 'FOREIGN KEY')
			)
		ORDER BY index_name, seq_in_index`, r.schema, table, r.schema, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: indexes of %s: %w", table, err)
	}
	return idx, nil
}

func (r *MySQL) ImportedKeys(ctx context.Context, table string) ([]ImportedKey, error) {
	keys, err := collect(ctx, r.db, func(rows *sql.Rows) (ImportedKey, error) {
		var (
			k                  ImportedKey
			onUpdate, onDelete string
		)
		if err := rows.Scan(&k.Name, &k.Column, &k.RefTable, &k.RefColumn, &k.Ordinal, &onUpdate, &onDelete); err != nil {
			return k, err
		}
		var err error
		if k.UpdateRule, err = ParseRule(onUpdate); err != nil {
			return k, err
		}
		k.DeleteRule, err = ParseRule(onDelete)
		return k, err
	}, `
		SELECT k.constraint_name, k.column_name, k.referenced_table_name, k.referenced_column_name,
			k.ordinal_position, r.update_rule, r.delete_rule
		FROM information_schema.key_column_usage k
		JOIN information_schema.referential_constraints r
			ON r.constraint_schema = k.constraint_schema
			AND r.constraint_name = k.constraint_name
			AND r.table_name = k.table_name
		WHERE k.table_schema = ? AND k.table_name = ?
		ORDER BY k.constraint_name, k.ordinal_position`, r.schema, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: foreign keys of %s: %w", table, err)
	}
	return keys, nil
}

func (r *MySQL) Checks(ctx context.Context, table string) ([]Check, error) {
	checks, err := collect(ctx, r.db, func(rows *sql.Rows) (Check, error) {
		var c Check
		err := rows.Scan(&c.Name, &c.Clause)
		return c, err
	}, `
		SELECT c.constraint_name, c.check_clause
		FROM information_schema.check_constraints c
		JOIN information_schema.table_constraints t
			ON t.constraint_schema = c.constraint_schema
			AND t.constraint_name = c.constraint_name
		WHERE t.table_schema = ? AND t.table_name = ? AND t.constraint_type = 'CHECK'
		ORDER BY c.constraint_name`, r.schema, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: checks of %s: %w", table, err)
	}
	return checks, nil
}
