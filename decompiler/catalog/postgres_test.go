package catalog_test

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemac/decompiler/catalog"
)

// fakeRows serves fixed rows through the pgx.Rows interface.
type fakeRows struct {
	rows [][]any
	i    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.i-1], nil }

func (r *fakeRows) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.i-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan %d values into %d destinations", len(row), len(dest))
	}
	for i, d := range dest {
		v := reflect.ValueOf(d).Elem()
		if row[i] == nil {
			v.SetZero()
			continue
		}
		v.Set(reflect.ValueOf(row[i]))
	}
	return nil
}

// fakeConn answers each query with the rows of the first matching handler.
type fakeConn struct {
	handlers []func(sql string, args []any) ([][]any, bool)
}

func (c *fakeConn) on(match string, rows ...[]any) {
	c.handlers = append(c.handlers, func(sql string, _ []any) ([][]any, bool) {
		return rows, strings.Contains(sql, match)
	})
}

func (c *fakeConn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	for _, h := range c.handlers {
		if rows, ok := h(sql, args); ok {
			return &fakeRows{rows: rows}, nil
		}
	}
	return nil, fmt.Errorf("unexpected query %q", sql)
}

func ptr(s string) *string { return &s }

func TestPostgresReader(t *testing.T) {
	conn := &fakeConn{}
	conn.on("FROM information_schema.tables", []any{"orders"}, []any{"users"})
	conn.on("FROM information_schema.columns",
		[]any{"id", "integer", "int4", 32, 0, ptr(`nextval('"users_id_seq"'::regclass)`), false, false, []string{}},
		[]any{"status", "USER-DEFINED", "status", 0, 0, ptr("'active'::status"), true, false, []string{"active", "disabled"}},
		[]any{"email", "character varying", "varchar", 255, 0, nil, false, false, []string{}},
	)
	conn.handlers = append(conn.handlers, func(sql string, args []any) ([][]any, bool) {
		if !strings.Contains(sql, "contype::text = $3") {
			return nil, false
		}
		if args[2] == "p" {
			return [][]any{{"pk_users_id", "id", 1}}, true
		}
		return [][]any{{"uq_users_email", "email", 1}}, true
	})
	conn.on("FROM pg_index", []any{"idx_users_status", "status", 1, false, "hash"})
	conn.on("contype = 'f'", []any{"fk_users_org", "org_id", "orgs", "id", 1, "a", "c"})
	conn.on("pg_get_constraintdef", []any{"ck_users_id", "CHECK ((id >= 1)) NOT VALID"})

	ctx := context.Background()
	r := catalog.NewPostgres(conn, "")

	tables, err := r.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)

	cols, err := r.Columns(ctx, "users")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.True(t, cols[0].AutoIncrement)
	assert.Equal(t, "INTEGER", cols[0].TypeName)
	assert.Nil(t, cols[0].EnumValues)
	assert.Equal(t, "status", cols[1].UserType)
	assert.Equal(t, []string{"active", "disabled"}, cols[1].EnumValues)
	assert.True(t, cols[1].Nullable)
	assert.Equal(t, catalog.Column{Name: "email", TypeName: "CHARACTER VARYING", Size: 255}, cols[2])

	pk, err := r.PrimaryKey(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, pk)

	uniques, err := r.UniqueConstraints(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []catalog.KeyColumn{{Constraint: "uq_users_email", Column: "email", Ordinal: 1}}, uniques)

	idx, err := r.Indexes(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []catalog.IndexColumn{{Index: "idx_users_status", Column: "status", Ordinal: 1, Kind: "hash"}}, idx)

	keys, err := r.ImportedKeys(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []catalog.ImportedKey{{
		Name: "fk_users_org", Column: "org_id", RefTable: "orgs", RefColumn: "id", Ordinal: 1,
		UpdateRule: catalog.RuleNoAction, DeleteRule: catalog.RuleCascade,
	}}, keys)

	checks, err := r.Checks(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Check{{Name: "ck_users_id", Clause: "((id >= 1))"}}, checks)
}

func TestPostgresUnknownRule(t *testing.T) {
	conn := &fakeConn{}
	conn.on("contype = 'f'", []any{"fk", "a", "b", "id", 1, "x", "a"})
	_, err := catalog.NewPostgres(conn, "app").ImportedKeys(context.Background(), "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown referential action "x"`)
}
