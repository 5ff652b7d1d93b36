package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

func col(name string, t field.Type) *schema.Column {
	return &schema.Column{Name: name, Type: t}
}

func names(cols []*schema.Column) []string {
	var out []string
	for _, c := range cols {
		out = append(out, c.Name)
	}
	return out
}

func TestFlatten(t *testing.T) {
	base := &schema.Table{
		Name:     "base",
		Abstract: true,
		Columns: []*schema.Column{
			{Name: "id", Type: field.Integer(field.Int), NotNull: true},
			col("name", field.Char(100)),
			col("status", field.Enum("on", "off")),
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
		Indexes:    []*schema.Index{{Name: "idx_base_name", Columns: []string{"name"}}},
	}
	child := &schema.Table{
		Name:    "child",
		Extends: "base",
		Columns: []*schema.Column{col("email", field.Char(255))},
		Indexes: []*schema.Index{{Columns: []string{"name"}, Unique: true}},
	}
	s := &schema.Schema{Tables: []*schema.Table{base, child}}

	flat, err := schema.Flatten(s)
	require.NoError(t, err)
	require.Len(t, flat.Tables, 1)
	c := flat.Tables[0]
	assert.Equal(t, "child", c.Name)
	assert.Empty(t, c.Extends)
	assert.Equal(t, []string{"id", "name", "email"}, names(c.Columns))
	assert.Equal(t, []string{"id"}, c.PrimaryKeyColumns())
	require.Len(t, c.Indexes, 1, "descendant index over the same columns wins")
	assert.True(t, c.Indexes[0].Unique)

	e := c.Column("status").Type.(*field.EnumType)
	assert.Equal(t, "base", e.DeclaringTable)

	// Input untouched.
	assert.Equal(t, "base", s.Tables[1].Extends)
	assert.Len(t, s.Tables[1].Columns, 1)
	assert.Empty(t, base.Columns[2].Type.(*field.EnumType).DeclaringTable)
}

func TestFlattenChain(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		{Name: "c", Extends: "b", Columns: []*schema.Column{col("z", field.Date())}},
		{Name: "b", Extends: "a", Abstract: true, Columns: []*schema.Column{col("y", field.Date())}},
		{Name: "a", Columns: []*schema.Column{col("x", field.Date())}},
	}}
	flat, err := schema.Flatten(s)
	require.NoError(t, err)
	require.Len(t, flat.Tables, 2)
	assert.Equal(t, []string{"x", "y", "z"}, names(flat.Table("c").Columns))
	assert.Equal(t, []string{"x"}, names(flat.Table("a").Columns))
}

func TestFlattenErrors(t *testing.T) {
	t.Run("UnknownAncestor", func(t *testing.T) {
		s := &schema.Schema{Tables: []*schema.Table{{Name: "child", Extends: "ghost"}}}
		_, err := schema.Flatten(s)
		require.Error(t, err)
		var ve *schemac.SchemaValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, schemac.KindUnknownAncestor, ve.Kind)
		assert.Equal(t, "child", ve.Table)
	})
	t.Run("Cycle", func(t *testing.T) {
		s := &schema.Schema{Tables: []*schema.Table{
			{Name: "a", Extends: "b"},
			{Name: "b", Extends: "a"},
		}}
		_, err := schema.Flatten(s)
		require.True(t, schemac.IsCycle(err))
		assert.Contains(t, err.Error(), "a -> b -> a")
	})
}

func fk(cols []string, ref string, refCols []string) *schema.ForeignKey {
	return &schema.ForeignKey{Columns: cols, RefTable: ref, RefColumns: refCols}
}

func TestOrder(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		{Name: "order_items", ForeignKeys: []*schema.ForeignKey{
			fk([]string{"order_id"}, "orders", []string{"id"}),
			fk([]string{"product_id"}, "products", []string{"id"}),
		}},
		{Name: "orders", ForeignKeys: []*schema.ForeignKey{fk([]string{"user_id"}, "users", []string{"id"})}},
		{Name: "users", ForeignKeys: []*schema.ForeignKey{fk([]string{"manager_id"}, "users", []string{"id"})}},
		{Name: "products"},
		{Name: "audit"},
	}}
	order, err := schema.Order(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "users", "orders", "products", "order_items"}, order)

	require.NoError(t, schema.Sort(s))
	var got []string
	for _, tb := range s.Tables {
		got = append(got, tb.Name)
	}
	assert.Equal(t, order, got)
}

func TestOrderExtraEdges(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{{Name: "a"}, {Name: "b"}}}
	order, err := schema.Order(s, schema.Edge{From: "a", To: "b"}, schema.Edge{From: "a", To: "gone"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestOrderCycle(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		{Name: "a", ForeignKeys: []*schema.ForeignKey{fk([]string{"b_id"}, "b", []string{"id"})}},
		{Name: "b", ForeignKeys: []*schema.ForeignKey{fk([]string{"c_id"}, "c", []string{"id"})}},
		{Name: "c", ForeignKeys: []*schema.ForeignKey{fk([]string{"a_id"}, "a", []string{"id"})}},
	}}
	_, err := schema.Order(s)
	require.Error(t, err)
	assert.True(t, schemac.IsCycle(err))
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
}

func TestOrderUnknownReference(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		{Name: "a", ForeignKeys: []*schema.ForeignKey{fk([]string{"x"}, "missing", []string{"id"})}},
	}}
	_, err := schema.Order(s)
	var ve *schemac.SchemaValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, schemac.KindUnknownReference, ve.Kind)
}

func TestHasKey(t *testing.T) {
	tb := &schema.Table{
		Name: "t",
		Columns: []*schema.Column{
			col("id", field.Integer(field.Int)),
			{Name: "code", Type: field.Char(10), Unique: true},
			{Name: "slug", Type: field.Char(10), Index: &schema.ColumnIndex{Kind: index.Hash}},
			col("a", field.Integer(field.Int)),
			col("b", field.Integer(field.Int)),
			col("c", field.Integer(field.Int)),
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
		Uniques:    []*schema.Unique{{Columns: []string{"a", "b"}}},
	}
	assert.True(t, tb.HasKey([]string{"id"}))
	assert.True(t, tb.HasKey([]string{"code"}))
	assert.True(t, tb.HasKey([]string{"slug"}))
	assert.True(t, tb.HasKey([]string{"b", "a"}))
	assert.False(t, tb.HasKey([]string{"c"}))
	assert.False(t, tb.HasKey([]string{"a"}))
}

func TestParseChangeRule(t *testing.T) {
	tests := map[string]schema.ChangeRule{
		"cascade":     schema.Cascade,
		"set_null":    schema.SetNull,
		"SET NULL":    schema.SetNull,
		"restrict":    schema.Restrict,
		"set-default": schema.SetDefault,
		"none":        schema.NoRule,
		"":            schema.NoRule,
		"no action":   schema.NoRule,
	}
	for in, want := range tests {
		got, err := schema.ParseChangeRule(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := schema.ParseChangeRule("explode")
	assert.Error(t, err)
}

func TestCheckExpr(t *testing.T) {
	e := schema.AllOf(
		schema.Compare("a", schema.Gte, "0"),
		schema.AnyOf(schema.Compare("b", schema.Eq, "x"), schema.Compare("a", schema.Lt, "9")),
	)
	assert.Equal(t, []string{"a", "b"}, schema.ExprColumns(e))
	l, ok := e.(*schema.Logical)
	require.True(t, ok)
	assert.Equal(t, schema.And, l.Op)

	c := schema.CloneExpr(e).(*schema.Logical)
	c.Left.(*schema.Predicate).Values[0] = "5"
	assert.Equal(t, "0", l.Left.(*schema.Predicate).Operand())

	op, err := schema.ParseOp(">=")
	require.NoError(t, err)
	assert.Equal(t, schema.Gte, op)
	op, err = schema.ParseOp("ne")
	require.NoError(t, err)
	assert.Equal(t, "<>", op.SQL())
	_, err = schema.ParseOp("~")
	assert.Error(t, err)
}
