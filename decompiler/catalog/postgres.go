package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// PgxQuerier is the query method of *pgx.Conn and *pgxpool.Pool.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres reads the catalog of one PostgreSQL schema from
// information_schema and pg_catalog.
type Postgres struct {
	conn   PgxQuerier
	schema string
}

// NewPostgres returns a reader for the tables of the named schema. An empty
// name reads "public".
func NewPostgres(conn PgxQuerier, schema string) *Postgres {
	if schema == "" {
		schema = "public"
	}
	return &Postgres{conn: conn, schema: schema}
}

var _ Reader = (*Postgres)(nil)

// query runs sql with the schema and table arguments and collects its rows.
func query[T any](ctx context.Context, r *Postgres, fn pgx.RowToFunc[T], sql string, args ...any) ([]T, error) {
	rows, err := r.conn.Query(ctx, sql, append([]any{r.schema}, args...)...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, fn)
}

func (r *Postgres) Tables(ctx context.Context) ([]string, error) {
	names, err := query(ctx, r, pgx.RowTo[string], `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list tables: %w", err)
	}
	return names, nil
}

// Columns returns the columns of table. A column drawing its default from a
// sequence, or declared as an identity, is reported as auto-increment.
func (r *Postgres) Columns(ctx context.Context, table string) ([]Column, error) {
	cols, err := query(ctx, r, func(row pgx.CollectableRow) (Column, error) {
		var (
			c        Column
			dataType string
			udt      string
			identity bool
		)
		if err := row.Scan(&c.Name, &dataType, &udt, &c.Size, &c.Scale, &c.Default, &c.Nullable, &identity, &c.EnumValues); err != nil {
			return c, err
		}
		c.TypeName = strings.ToUpper(dataType)
		if c.TypeName == "USER-DEFINED" {
			c.UserType = udt
		}
		c.AutoIncrement = identity || c.Default != nil && strings.HasPrefix(*c.Default, "nextval(")
		if len(c.EnumValues) == 0 {
			c.EnumValues = nil
		}
		return c, nil
	}, `
		SELECT c.column_name, c.data_type, c.udt_name,
			COALESCE(c.character_maximum_length, c.numeric_precision, 0)::int,
			COALESCE(c.numeric_scale, 0)::int,
			c.column_default,
			c.is_nullable = 'YES',
			c.is_identity = 'YES',
			COALESCE((
				SELECT array_agg(e.enumlabel::text ORDER BY e.enumsortorder)
				FROM pg_type t
				JOIN pg_enum e ON e.enumtypid = t.oid
				JOIN pg_namespace n ON n.oid = t.typnamespace
				WHERE t.typname = c.udt_name AND n.nspname = c.udt_schema
			), '{}')
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: columns of %s: %w", table, err)
	}
	return cols, nil
}

// constraintColumns selects the columns of the table's constraints of one
// type, in key order.
const constraintColumns = `
	SELECT c.conname, a.attname, k.ord::int
	FROM pg_constraint c
	JOIN pg_class t ON t.oid = c.conrelid
	JOIN pg_namespace n ON n.oid = t.relnamespace
	CROSS JOIN LATERAL unnest(c.conkey) WITH ORDINALITY AS k(attnum, ord)
	JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
	WHERE n.nspname = $1 AND t.relname = $2 AND c.contype::text = $3
	ORDER BY c.conname, k.ord`

func rowToKeyColumn(row pgx.CollectableRow) (KeyColumn, error) {
	var k KeyColumn
	err := row.Scan(&k.Constraint, &k.Column, &k.Ordinal)
	return k, err
}

func (r *Postgres) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	keys, err := query(ctx, r, rowToKeyColumn, constraintColumns, table, "p")
	if err != nil {
		return nil, fmt.Errorf("catalog: primary key of %s: %w", table, err)
	}
	pk := make([]string, len(keys))
	for i, k := range keys {
		pk[i] = k.Column
	}
	return pk, nil
}

func (r *Postgres) UniqueConstraints(ctx context.Context, table string) ([]KeyColumn, error) {
	keys, err := query(ctx, r, rowToKeyColumn, constraintColumns, table, "u")
	if err != nil {
		return nil, fmt.Errorf("catalog: unique constraints of %s: %w", table, err)
	}
	return keys, nil
}

// Indexes skips indexes backing a constraint.
func (r *Postgres) Indexes(ctx context.Context, table string) ([]IndexColumn, error) {
	idx, err := query(ctx, r, func(row pgx.CollectableRow) (IndexColumn, error) {
		var c IndexColumn
		err := row.Scan(&c.Index, &c.Column, &c.Ordinal, &c.Unique, &c.Kind)
		return c, err
	}, `
		SELECT i.relname, a.attname, k.ord::int, x.indisunique, am.amname
		FROM pg_index x
		JOIN pg_class t ON t.oid = x.indrelid
		JOIN pg_class i ON i.oid = x.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_am am ON am.oid = i.relam
		CROSS JOIN LATERAL unnest(x.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1 AND t.relname = $2 AND NOT x.indisprimary
			AND NOT EXISTS (SELECT 1 FROM pg_constraint c WHERE c.conindid = x.indexrelid)
		ORDER BY i.relname, k.ord`, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: indexes of %s: %w", table, err)
	}
	return idx, nil
}

// pgRule maps pg_constraint action codes.
var pgRule = map[string]int{
	"a": RuleNoAction,
	"r": RuleRestrict,
	"c": RuleCascade,
	"n": RuleSetNull,
	"d": RuleSetDefault,
}

func (r *Postgres) ImportedKeys(ctx context.Context, table string) ([]ImportedKey, error) {
	keys, err := query(ctx, r, func(row pgx.CollectableRow) (ImportedKey, error) {
		var (
			k                  ImportedKey
			onUpdate, onDelete string
		)
		if err := row.Scan(&k.Name, &k.Column, &k.RefTable, &k.RefColumn, &k.Ordinal, &onUpdate, &onDelete); err != nil {
			return k, err
		}
		var ok bool
		if k.UpdateRule, ok = pgRule[onUpdate]; !ok {
			return k, fmt.Errorf("catalog: unknown referential action %q", onUpdate)
		}
		if k.DeleteRule, ok = pgRule[onDelete]; !ok {
			return k, fmt.Errorf("catalog: unknown referential action %q", onDelete)
		}
		return k, nil
	}, `
		SELECT c.conname, a.attname, rt.relname, ra.attname, k.ord::int,
			c.confupdtype::text, c.confdeltype::text
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class rt ON rt.oid = c.confrelid
		CROSS JOIN LATERAL unnest(c.conkey, c.confkey) WITH ORDINALITY AS k(attnum, refnum, ord)
		JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
		JOIN pg_attribute ra ON ra.attrelid = c.confrelid AND ra.attnum = k.refnum
		WHERE n.nspname = $1 AND t.relname = $2 AND c.contype = 'f'
		ORDER BY c.conname, k.ord`, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: foreign keys of %s: %w", table, err)
	}
	return keys, nil
}

// Checks returns the check clauses as pg_get_constraintdef renders them,
// without the CHECK keyword.
func (r *Postgres) Checks(ctx context.Context, table string) ([]Check, error) {
	checks, err := query(ctx, r, func(row pgx.CollectableRow) (Check, error) {
		var c Check
		if err := row.Scan(&c.Name, &c.Clause); err != nil {
			return c, err
		}
		c.Clause = strings.TrimSuffix(strings.TrimSpace(c.Clause), " NOT VALID")
		c.Clause = strings.TrimSpace(strings.TrimPrefix(c.Clause, "CHECK"))
		return c, nil
	}, `
		SELECT c.conname, pg_get_constraintdef(c.oid)
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1 AND t.relname = $2 AND c.contype = 'c'
		ORDER BY c.conname`, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: checks of %s: %w", table, err)
	}
	return checks, nil
}
