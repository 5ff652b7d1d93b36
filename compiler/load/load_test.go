package load_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemac/compiler"
	"github.com/syssam/schemac/compiler/load"
	"github.com/syssam/schemac/dialect"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

func columnNames(t *schema.Table) []string {
	var out []string
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

func TestLoad(t *testing.T) {
	s, err := load.Load(filepath.Join("testdata", "shop.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "shop", s.Name, "named after the file")
	require.Len(t, s.Tables, 3)
	require.Len(t, s.Enums, 1)

	entity := s.Table("entity")
	assert.True(t, entity.Abstract)
	assert.Equal(t, []string{"id", "created_at", "updated_at"}, columnNames(entity))
	assert.Equal(t, []string{"id"}, entity.PrimaryKeyColumns())

	users := s.Table("users")
	assert.Equal(t, "entity", users.Extends)
	score := users.Column("score").Type.(*field.DecimalType)
	assert.Equal(t, 5, score.Precision)
	assert.True(t, score.Max.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, field.UUID, users.Column("avatar").Generate)
	assert.Equal(t, "status", users.Column("status").Type.(*field.EnumType).Template)

	orders := s.Table("orders")
	assert.Equal(t, []string{"id", "user_id", "qty", "kind"}, columnNames(orders))
	assert.Equal(t, index.Hash, orders.Column("user_id").Index.Kind)
	qty := orders.Column("qty")
	assert.Equal(t, int64(1), *qty.Type.(*field.IntegerType).Min)
	assert.Equal(t, &schema.Predicate{Column: "qty", Op: schema.Lte, Values: []string{"100"}}, qty.Check)
	require.Len(t, orders.Checks, 1)
	assert.Equal(t, schema.AnyOf(
		schema.Compare("kind", schema.Eq, "retail"),
		schema.Compare("qty", schema.Gte, "10"),
	), orders.Checks[0].Expr)
	fk := orders.ForeignKeys[0]
	assert.Equal(t, schema.Cascade, fk.OnDelete)
	assert.Equal(t, schema.NoRule, fk.OnUpdate)
	require.Len(t, orders.Triggers, 1)
	assert.Equal(t, schema.After, orders.Triggers[0].Timing)
	assert.Equal(t, []schema.TriggerEvent{schema.OnInsert, schema.OnUpdate}, orders.Triggers[0].Events)
}

func TestLoadCompiles(t *testing.T) {
	s, err := load.Load(filepath.Join("testdata", "shop.yaml"))
	require.NoError(t, err)
	for _, v := range dialect.Vendors() {
		t.Run(string(v), func(t *testing.T) {
			res, err := compiler.Compile(context.Background(), s, v)
			require.NoError(t, err)
			require.Len(t, res.Tables, 2)
			assert.Equal(t, "users", res.Tables[0].Table)
			assert.Equal(t, "orders", res.Tables[1].Table)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s, err := load.Load(filepath.Join("testdata", "shop.yaml"))
	require.NoError(t, err)
	buf, err := load.MarshalSchema(s)
	require.NoError(t, err)
	assert.Contains(t, string(buf), "name: shop")
	assert.NotContains(t, string(buf), "mixins", "mixins are expanded")

	again, err := load.UnmarshalSchema(buf)
	require.NoError(t, err)
	buf2, err := load.MarshalSchema(again)
	require.NoError(t, err)
	assert.Equal(t, string(buf), string(buf2))

	path := filepath.Join(t.TempDir(), "copy.yaml")
	require.NoError(t, load.Write(path, s))
	copied, err := load.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shop", copied.Name)
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"UnknownKey", "tables:\n  - name: t\n    colums: []\n", "colums"},
		{"UnknownType", "tables:\n  - name: t\n    columns: [{name: a, type: uuid}]\n", `unknown type "uuid"`},
		{"MissingType", "tables:\n  - name: t\n    columns: [{name: a}]\n", "missing type"},
		{"BadBound", "tables:\n  - name: t\n    columns: [{name: a, type: int, min: x}]\n", `invalid bound "x"`},
		{"BadGenerate", "tables:\n  - name: t\n    columns: [{name: a, type: int, generate: sequence}]\n", "sequence"},
		{"BadRule", "tables:\n  - name: t\n    foreign_keys: [{columns: [a], references: {table: u, columns: [id]}, on_delete: wipe}]\n", "wipe"},
		{"BadMixin", "tables:\n  - name: t\n    mixins: [versioned]\n", "versioned"},
		{"BadEvent", "tables:\n  - name: t\n    triggers: [{name: tr, events: [select], body: x}]\n", "select"},
		{"CompositeColumnCheck", "tables:\n  - name: t\n    columns: [{name: a, type: int, check: {and: [{op: gt, value: '0'}, {op: lt, value: '9'}]}}]\n", "single predicate"},
		{"MixedExpr", "tables:\n  - name: t\n    checks: [{expr: {column: a, op: gt, value: '0', or: [{column: a, op: lt, value: '1'}]}}]\n", "exactly one"},
		{"Arity", "tables:\n  - name: t\n    checks: [{expr: {column: a, op: gt, values: ['0', '1']}}]\n", "exactly one value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load.UnmarshalSchema([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestInPredicate(t *testing.T) {
	doc := "tables:\n  - name: t\n    columns: [{name: a, type: char, length: 1, check: {op: in, values: [x, y]}}]\n"
	s, err := load.UnmarshalSchema([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, s.Tables[0].Column("a").Check.Values)
}
