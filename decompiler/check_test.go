package decompiler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
)

func TestParseCheck(t *testing.T) {
	tests := []struct {
		name   string
		rules  vendorRules
		clause string
		want   schema.CheckExpr
	}{
		{
			name:   "SQLite",
			rules:  sqliteRules{},
			clause: `"qty" >= 1`,
			want:   schema.Compare("qty", schema.Gte, "1"),
		},
		{
			name:   "MySQLBackquotes",
			rules:  mysqlRules{},
			clause: "(`qty` <= 100)",
			want:   schema.Compare("qty", schema.Lte, "100"),
		},
		{
			name:   "Reversed",
			rules:  sqliteRules{},
			clause: `0 < "qty"`,
			want:   schema.Compare("qty", schema.Gt, "0"),
		},
		{
			name:   "Negative",
			rules:  sqliteRules{},
			clause: `"delta" >= -128`,
			want:   schema.Compare("delta", schema.Gte, "-128"),
		},
		{
			name:   "InList",
			rules:  sqliteRules{},
			clause: `"kind" IN ('a', 'b')`,
			want:   &schema.Predicate{Column: "kind", Op: schema.In, Values: []string{"a", "b"}},
		},
		{
			name:   "PostgresAny",
			rules:  postgresRules{},
			clause: `(((kind)::text = ANY ((ARRAY['a'::character varying, 'b'::character varying])::text[])))`,
			want:   &schema.Predicate{Column: "kind", Op: schema.In, Values: []string{"a", "b"}},
		},
		{
			name:   "PostgresCast",
			rules:  postgresRules{},
			clause: `((price >= (0)::numeric))`,
			want:   schema.Compare("price", schema.Gte, "0"),
		},
		{
			name:   "PostgresNegativeCast",
			rules:  postgresRules{},
			clause: `((delta >= '-128'::integer))`,
			want:   schema.Compare("delta", schema.Gte, "-128"),
		},
		{
			name:   "OracleDate",
			rules:  oracleRules{},
			clause: `"DAY" > DATE '2020-01-01'`,
			want:   schema.Compare("DAY", schema.Gt, "2020-01-01"),
		},
		{
			name:   "Conjunction",
			rules:  sqliteRules{},
			clause: `"qty" > 0 AND "qty" <> 7`,
			want:   schema.AllOf(schema.Compare("qty", schema.Gt, "0"), schema.Compare("qty", schema.Ne, "7")),
		},
		{
			name:   "Disjunction",
			rules:  sqliteRules{},
			clause: `"kind" = 'retail' OR ("qty" >= 10)`,
			want:   schema.AnyOf(schema.Compare("kind", schema.Eq, "retail"), schema.Compare("qty", schema.Gte, "10")),
		},
	}
	cp := newCheckParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cp.parse(tt.rules.checkClause(tt.clause))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCheckUnsupported(t *testing.T) {
	cp := newCheckParser()
	for _, clause := range []string{
		`"a" IS NOT NULL`,
		`"a" + 1 > 2`,
		`"a" NOT IN (1, 2)`,
		`length("a") > 2`,
		`"a" >`,
	} {
		_, err := cp.parse(clause)
		assert.Error(t, err, clause)
	}
}

func TestConjuncts(t *testing.T) {
	a, b, c := schema.Compare("a", schema.Eq, "1"), schema.Compare("b", schema.Eq, "2"), schema.Compare("c", schema.Eq, "3")
	assert.Equal(t, []schema.CheckExpr{a, b, c}, conjuncts(schema.AllOf(a, b, c)))
	or := schema.AnyOf(a, b)
	assert.Equal(t, []schema.CheckExpr{or, c}, conjuncts(schema.AllOf(or, c)))
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestApplyBounds(t *testing.T) {
	t.Run("IntegerWidthOnly", func(t *testing.T) {
		c := &schema.Column{Type: field.Integer(field.Int)}
		applyBounds(c, &bounds{lo: dec("-2147483648"), hi: dec("2147483647")})
		assert.Equal(t, field.Integer(field.Int), c.Type)
	})
	t.Run("IntegerNarrows", func(t *testing.T) {
		c := &schema.Column{Type: field.Integer(field.Smallint)}
		applyBounds(c, &bounds{lo: dec("-128"), hi: dec("127")})
		assert.Equal(t, field.Integer(field.Tinyint), c.Type)
	})
	t.Run("IntegerRange", func(t *testing.T) {
		c := &schema.Column{Type: field.Integer(field.Smallint)}
		applyBounds(c, &bounds{lo: dec("0"), hi: dec("32767")})
		typ := c.Type.(*field.IntegerType)
		assert.Equal(t, field.Smallint, typ.Width)
		assert.Equal(t, int64(0), *typ.Min)
		assert.Nil(t, typ.Max, "the width maximum is implied")
	})
	t.Run("DecimalLimit", func(t *testing.T) {
		c := &schema.Column{Type: field.Decimal(5, 2)}
		applyBounds(c, &bounds{lo: dec("0"), hi: dec("999.99")})
		typ := c.Type.(*field.DecimalType)
		assert.True(t, typ.Min.Equal(decimal.Zero))
		assert.Nil(t, typ.Max)
	})
	t.Run("Double", func(t *testing.T) {
		c := &schema.Column{Type: field.Double()}
		applyBounds(c, &bounds{hi: dec("1.5")})
		typ := c.Type.(*field.DoubleType)
		assert.Nil(t, typ.Min)
		assert.Equal(t, 1.5, *typ.Max)
	})
}

func TestIsBoolList(t *testing.T) {
	assert.True(t, isBoolList([]string{"0", "1"}))
	assert.True(t, isBoolList([]string{"TRUE", "FALSE"}))
	assert.False(t, isBoolList([]string{"1"}))
	assert.False(t, isBoolList([]string{"0", "2"}))
}
