package decompiler_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/compiler"
	"github.com/syssam/schemac/decompiler"
	"github.com/syssam/schemac/decompiler/catalog"
	"github.com/syssam/schemac/dialect"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

// fakeReader serves a fixed catalog of one table.
type fakeReader struct {
	table   string
	columns []catalog.Column
	pk      []string
	uniques []catalog.KeyColumn
	indexes []catalog.IndexColumn
	keys    []catalog.ImportedKey
	checks  []catalog.Check
}

func (r *fakeReader) Tables(context.Context) ([]string, error) { return []string{r.table}, nil }
func (r *fakeReader) Columns(context.Context, string) ([]catalog.Column, error) {
	return r.columns, nil
}
func (r *fakeReader) PrimaryKey(context.Context, string) ([]string, error) { return r.pk, nil }
func (r *fakeReader) UniqueConstraints(context.Context, string) ([]catalog.KeyColumn, error) {
	return r.uniques, nil
}
func (r *fakeReader) Indexes(context.Context, string) ([]catalog.IndexColumn, error) {
	return r.indexes, nil
}
func (r *fakeReader) ImportedKeys(context.Context, string) ([]catalog.ImportedKey, error) {
	return r.keys, nil
}
func (r *fakeReader) Checks(context.Context, string) ([]catalog.Check, error) { return r.checks, nil }

func ptr(s string) *string { return &s }

func decompile(t *testing.T, v dialect.Vendor, r catalog.Reader) (*schema.Schema, error) {
	t.Helper()
	d, err := decompiler.New(v)
	require.NoError(t, err)
	return d.Decompile(context.Background(), r)
}

func TestNew(t *testing.T) {
	for _, v := range dialect.Vendors() {
		_, err := decompiler.New(v)
		assert.NoError(t, err, v)
	}
	_, err := decompiler.New("informix")
	assert.True(t, schemac.IsVendorUnsupported(err))
}

func TestDecompileMySQL(t *testing.T) {
	r := &fakeReader{
		table: "orders",
		columns: []catalog.Column{
			{Name: "id", TypeName: "BIGINT", AutoIncrement: true},
			{Name: "user_id", TypeName: "INT"},
			{Name: "status", TypeName: "ENUM", EnumValues: []string{"new", "paid"}, Default: ptr("new")},
			{Name: "total", TypeName: "DECIMAL", Size: 10, Scale: 2, Nullable: true},
			{Name: "token", TypeName: "VARBINARY", Size: 16, Default: ptr("uuid_to_bin(uuid())")},
			{Name: "updated_at", TypeName: "DATETIME", Default: ptr("CURRENT_TIMESTAMP"), OnUpdateNow: true},
		},
		pk:      []string{"id"},
		uniques: []catalog.KeyColumn{{Constraint: "uq_token", Column: "token", Ordinal: 1}},
		indexes: []catalog.IndexColumn{
			{Index: "ix_user_status", Column: "status", Ordinal: 2, Kind: "btree"},
			{Index: "ix_user_status", Column: "user_id", Ordinal: 1, Kind: "btree"},
		},
		keys: []catalog.ImportedKey{
			{Name: "fk_user", Column: "user_id", RefTable: "users", RefColumn: "id", Ordinal: 1, UpdateRule: catalog.RuleNoAction, DeleteRule: catalog.RuleCascade},
		},
		checks: []catalog.Check{
			{Name: "ck_total", Clause: "((`total` >= 0) and (`total` <= 5000))"},
			{Name: "ck_user", Clause: "(`user_id` <> 0)"},
		},
	}
	s, err := decompile(t, dialect.MySQL, r)
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)
	tbl := s.Tables[0]
	assert.Equal(t, []string{"id"}, tbl.PrimaryKeyColumns())

	id := tbl.Column("id")
	assert.Equal(t, field.AutoIncrement, id.Generate)
	assert.True(t, id.NotNull)

	status := tbl.Column("status")
	assert.Equal(t, field.Enum("new", "paid"), status.Type)
	assert.Equal(t, "new", *status.Default)

	total := tbl.Column("total").Type.(*field.DecimalType)
	assert.Equal(t, "0", total.Min.String())
	assert.Equal(t, "5000", total.Max.String())
	assert.False(t, tbl.Column("total").NotNull)

	token := tbl.Column("token")
	assert.Equal(t, field.UUID, token.Generate)
	assert.True(t, token.Unique)
	assert.Equal(t, field.UpdateTimestamp, tbl.Column("updated_at").Generate)
	assert.Equal(t, schema.Compare("user_id", schema.Ne, "0"), tbl.Column("user_id").Check)

	require.Len(t, tbl.Indexes, 1)
	assert.Equal(t, &schema.Index{Name: "ix_user_status", Columns: []string{"user_id", "status"}, Kind: index.BTree}, tbl.Indexes[0])
	require.Len(t, tbl.ForeignKeys, 1)
	assert.Equal(t, &schema.ForeignKey{
		Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}, OnDelete: schema.Cascade,
	}, tbl.ForeignKeys[0])
}

func TestDecompilePostgresEnum(t *testing.T) {
	r := &fakeReader{
		table: "users",
		columns: []catalog.Column{
			{Name: "id", TypeName: "INTEGER", AutoIncrement: true, Default: ptr("nextval('users_id_seq'::regclass)")},
			{Name: "mood", TypeName: "USER-DEFINED", UserType: "mood", EnumValues: []string{"happy", "sad"}},
			{Name: "level", TypeName: "SMALLINT"},
		},
		pk: []string{"id"},
		checks: []catalog.Check{
			{Name: "ck_level_min", Clause: "((level >= '-128'::integer))"},
			{Name: "ck_level_max", Clause: "((level <= 127))"},
		},
	}
	s, err := decompile(t, dialect.Postgres, r)
	require.NoError(t, err)
	assert.Equal(t, []*schema.EnumTemplate{{Name: "mood", Values: []string{"happy", "sad"}}}, s.Enums)
	tbl := s.Tables[0]
	assert.Equal(t, field.EnumOf("mood"), tbl.Column("mood").Type)
	assert.Equal(t, field.Integer(field.Tinyint), tbl.Column("level").Type, "a width range narrows the type")
	assert.Empty(t, tbl.Checks)
}

func TestDecompileOracle(t *testing.T) {
	r := &fakeReader{
		table: "ACCOUNTS",
		columns: []catalog.Column{
			{Name: "ID", TypeName: "NUMBER", Size: 10},
			{Name: "ACTIVE", TypeName: "NUMBER", Size: 1, Default: ptr("1")},
			{Name: "CODE", TypeName: "VARCHAR2", Size: 2},
			{Name: "MixedCase", TypeName: "CLOB", Nullable: true},
		},
		pk: []string{"ID"},
		checks: []catalog.Check{
			{Name: "CK_ID_MIN", Clause: `"ID" >= -2147483648`},
			{Name: "CK_ID_MAX", Clause: `"ID" <= 2147483647`},
			{Name: "CK_ACTIVE", Clause: `"ACTIVE" IN (0, 1)`},
			{Name: "CK_CODE", Clause: `"CODE" IN ('EU', 'US')`},
		},
	}
	s, err := decompile(t, dialect.Oracle, r)
	require.NoError(t, err)
	tbl := s.Tables[0]
	assert.Equal(t, "accounts", tbl.Name)
	assert.Equal(t, []string{"id", "active", "code", "MixedCase"}, []string{
		tbl.Columns[0].Name, tbl.Columns[1].Name, tbl.Columns[2].Name, tbl.Columns[3].Name,
	})
	assert.Equal(t, field.Integer(field.Int), tbl.Column("id").Type)
	assert.Equal(t, field.Boolean(), tbl.Column("active").Type)
	assert.Equal(t, "true", *tbl.Column("active").Default)
	assert.Equal(t, field.Enum("EU", "US"), tbl.Column("code").Type)
	assert.Nil(t, tbl.Column("code").Check)
}

func TestDecompileTableCheck(t *testing.T) {
	r := &fakeReader{
		table: "items",
		columns: []catalog.Column{
			{Name: "qty", TypeName: "INTEGER"},
		},
		checks: []catalog.Check{
			{Name: "ck_qty", Clause: `"qty" = 1 OR "qty" = 5`},
			{Name: "", Clause: `"qty" <> 3 AND "qty" <> 4`},
		},
	}
	s, err := decompile(t, dialect.SQLite, r)
	require.NoError(t, err)
	tbl := s.Tables[0]
	require.Len(t, tbl.Checks, 2)
	assert.Equal(t, &schema.Check{
		Name: "ck_qty",
		Expr: schema.AnyOf(schema.Compare("qty", schema.Eq, "1"), schema.Compare("qty", schema.Eq, "5")),
	}, tbl.Checks[0])
	assert.Equal(t, schema.Compare("qty", schema.Ne, "3"), tbl.Column("qty").Check)
	assert.Equal(t, &schema.Check{Expr: schema.Compare("qty", schema.Ne, "4")}, tbl.Checks[1])
}

func TestDecompileErrors(t *testing.T) {
	cols := []catalog.Column{{Name: "a", TypeName: "INTEGER"}, {Name: "b", TypeName: "INTEGER"}}
	tests := []struct {
		name  string
		r     *fakeReader
		check func(error) bool
	}{
		{
			name:  "UnknownType",
			r:     &fakeReader{table: "t", columns: []catalog.Column{{Name: "a", TypeName: "GEOMETRY"}}},
			check: schemac.IsUnsupportedFeature,
		},
		{
			name: "CompositeUnique",
			r: &fakeReader{table: "t", columns: cols, uniques: []catalog.KeyColumn{
				{Constraint: "uq", Column: "a", Ordinal: 1}, {Constraint: "uq", Column: "b", Ordinal: 2},
			}},
			check: schemac.IsUnsupportedFeature,
		},
		{
			name: "CompositeForeignKey",
			r: &fakeReader{table: "t", columns: cols, keys: []catalog.ImportedKey{
				{Name: "fk", Column: "a", RefTable: "u", RefColumn: "x", Ordinal: 1},
				{Name: "fk", Column: "b", RefTable: "u", RefColumn: "y", Ordinal: 2},
			}},
			check: schemac.IsUnsupportedFeature,
		},
		{
			name:  "CompositeCheck",
			r:     &fakeReader{table: "t", columns: cols, checks: []catalog.Check{{Name: "ck", Clause: `"a" < 1 OR "b" < 1`}}},
			check: schemac.IsUnsupportedFeature,
		},
		{
			name:  "UnparsableCheck",
			r:     &fakeReader{table: "t", columns: cols, checks: []catalog.Check{{Name: "ck", Clause: `"a" IS NOT NULL`}}},
			check: schemac.IsUnsupportedFeature,
		},
		{
			name: "InconsistentIndex",
			r: &fakeReader{table: "t", columns: cols, indexes: []catalog.IndexColumn{
				{Index: "ix", Column: "a", Ordinal: 1, Unique: true},
				{Index: "ix", Column: "b", Ordinal: 2},
			}},
			check: schemac.IsInconsistentIndex,
		},
		{
			name:  "GenerationOnWrongType",
			r:     &fakeReader{table: "t", columns: []catalog.Column{{Name: "a", TypeName: "DATE", Default: ptr("uuid()")}}},
			check: schemac.IsUnsupportedFeature,
		},
		{
			name:  "UnknownPrimaryKeyColumn",
			r:     &fakeReader{table: "t", columns: cols, pk: []string{"z"}},
			check: schemac.IsSchemaValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decompile(t, dialect.SQLite, tt.r)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	users := &schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			{Name: "id", Type: field.Integer(field.Int), NotNull: true, Generate: field.AutoIncrement},
			{Name: "email", Type: field.Char(64), NotNull: true, Unique: true},
			{Name: "kind", Type: field.Enum("a", "b"), NotNull: true, Default: ptr("a")},
			{Name: "age", Type: field.Integer(field.Smallint).Range(0, 150)},
			{Name: "active", Type: field.Boolean(), NotNull: true, Default: ptr("true")},
			{Name: "created_at", Type: field.Datetime(), NotNull: true, Generate: field.Timestamp},
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
	}
	orders := &schema.Table{
		Name: "orders",
		Columns: []*schema.Column{
			{Name: "id", Type: field.Integer(field.Int), NotNull: true, Generate: field.AutoIncrement},
			{Name: "user_id", Type: field.Integer(field.Int), NotNull: true},
			{Name: "qty", Type: field.Integer(field.Int), NotNull: true, Check: schema.Compare("qty", schema.Gt, "0")},
			{Name: "note", Type: field.Clob()},
		},
		PrimaryKey:  &schema.PrimaryKey{Columns: []string{"id"}},
		ForeignKeys: []*schema.ForeignKey{{Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}, OnDelete: schema.Cascade}},
		Indexes:     []*schema.Index{{Name: "ix_orders_user", Columns: []string{"user_id"}}},
	}
	res, err := compiler.Compile(ctx, &schema.Schema{Tables: []*schema.Table{orders, users}}, dialect.SQLite)
	require.NoError(t, err)

	db, err := sql.Open("sqlite", "file:roundtrip?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	for _, stmt := range res.Statements {
		_, err := db.ExecContext(ctx, stmt.SQL)
		require.NoError(t, err, stmt.SQL)
	}

	d, err := decompiler.New(dialect.SQLite)
	require.NoError(t, err)
	got, err := d.Decompile(ctx, catalog.NewSQLite(db))
	require.NoError(t, err)
	require.Len(t, got.Tables, 2)

	// Catalog order is alphabetical.
	gotOrders, gotUsers := got.Table("orders"), got.Table("users")
	require.NotNil(t, gotOrders)
	require.NotNil(t, gotUsers)
	for _, want := range []*schema.Table{users, orders} {
		tbl := got.Table(want.Name)
		assert.Equal(t, want.PrimaryKeyColumns(), tbl.PrimaryKeyColumns(), want.Name)
		require.Len(t, tbl.Columns, len(want.Columns), want.Name)
		for i, c := range want.Columns {
			g := tbl.Columns[i]
			assert.Equal(t, c.Name, g.Name)
			assert.Equal(t, c.Type, g.Type, c.Name)
			assert.Equal(t, c.NotNull, g.NotNull, c.Name)
			assert.Equal(t, c.Default, g.Default, c.Name)
			assert.Equal(t, c.Generate, g.Generate, c.Name)
			assert.Equal(t, c.Unique, g.Unique, c.Name)
			assert.Equal(t, c.Check, g.Check, c.Name)
		}
	}
	require.Len(t, gotOrders.ForeignKeys, 1)
	fk := gotOrders.ForeignKeys[0]
	assert.Equal(t, []string{"user_id"}, fk.Columns)
	assert.Equal(t, "users", fk.RefTable)
	assert.Equal(t, schema.Cascade, fk.OnDelete)
	require.Len(t, gotOrders.Indexes, 1)
	assert.Equal(t, "ix_orders_user", gotOrders.Indexes[0].Name)

	again, err := compiler.Compile(ctx, got, dialect.SQLite)
	require.NoError(t, err)
	assert.Len(t, again.Tables, 2)
}
