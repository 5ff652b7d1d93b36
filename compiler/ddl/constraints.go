package ddl

import (
	"fmt"
	"strings"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
)

func (g *generator) CompileConstraints(t *schema.Table) ([]string, error) {
	var out []string
	out = append(out, g.uniques(t)...)
	checks, err := g.checks(t)
	if err != nil {
		return nil, err
	}
	out = append(out, checks...)
	if pk := g.primaryKey(t); pk != "" {
		out = append(out, pk)
	}
	return append(out, g.foreignKeys(t)...), nil
}

func (g *generator) constraint(name, body string) string {
	return "CONSTRAINT " + g.q(name) + " " + body
}

func (g *generator) uniques(t *schema.Table) []string {
	var (
		out  []string
		seen [][]string
	)
	add := func(cols []string) {
		for _, s := range seen {
			if strings.Join(s, "\x00") == strings.Join(cols, "\x00") {
				return
			}
		}
		seen = append(seen, cols)
		out = append(out, g.constraint(g.env.Names.Unique(t.Name, cols), "UNIQUE ("+g.desc.QuoteIdents(cols)+")"))
	}
	for _, c := range t.Columns {
		if c.Unique {
			add([]string{c.Name})
		}
	}
	for _, u := range t.Uniques {
		add(u.Columns)
	}
	return out
}

func (g *generator) primaryKey(t *schema.Table) string {
	if t.PrimaryKey == nil || len(t.PrimaryKey.Columns) == 0 {
		return ""
	}
	if c := autoIncrementColumn(t); c != nil && g.be.autoIncrement(g, t, c).inlinePK {
		return ""
	}
	body := "PRIMARY KEY (" + g.desc.QuoteIdents(t.PrimaryKey.Columns) + ")" + g.be.primaryKeySuffix(t.PrimaryKey.Kind)
	return g.constraint(g.env.Names.PrimaryKey(t.Name, t.PrimaryKey.Columns), body)
}

func (g *generator) foreignKeys(t *schema.Table) []string {
	var out []string
	for _, fk := range t.ForeignKeys {
		var b strings.Builder
		fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s (%s)",
			g.desc.QuoteIdents(fk.Columns), g.qt(fk.RefTable), g.desc.QuoteIdents(fk.RefColumns))
		name := g.env.Names.ForeignKey(t.Name, fk.Columns)
		for _, r := range []struct {
			onUpdate bool
			rule     schema.ChangeRule
		}{{false, fk.OnDelete}, {true, fk.OnUpdate}} {
			if r.rule == schema.NoRule {
				continue
			}
			clause := "ON DELETE"
			if r.onUpdate {
				clause = "ON UPDATE"
			}
			if !g.be.changeRule(r.onUpdate, r.rule) {
				g.warn(t.Name, name, "%s %s is not supported; using the database default", clause, r.rule)
				continue
			}
			fmt.Fprintf(&b, " %s %s", clause, r.rule)
		}
		out = append(out, g.constraint(name, b.String()))
	}
	return out
}

// checks renders, in order: bounds synthesized from each column's type and
// MIN/MAX, each column's inline check, then the table's checks.
// A check repeating an earlier one under the same name is emitted once;
// different checks sharing a name get a numeric suffix.
func (g *generator) checks(t *schema.Table) ([]string, error) {
	var (
		out    []string
		scope  = g.env.Names.Scope()
		bodies = make(map[string]string)
	)
	add := func(name, body string) {
		if b, ok := bodies[name]; ok && b == body {
			return
		}
		name = scope.Claim(name)
		bodies[name] = body
		out = append(out, g.constraint(name, body))
	}
	bound := func(c *schema.Column, op schema.Op, operand, rendered string) {
		add(g.env.Names.Bound(t.Name, c.Name, op, operand), "CHECK ("+rendered+")")
	}
	cmp := func(c *schema.Column, op schema.Op, v string) {
		bound(c, op, v, g.q(c.Name)+" "+op.SQL()+" "+v)
	}
	for _, c := range t.Columns {
		if isAutoIncrement(c) && !g.be.boundsOnAutoIncrement() {
			if lo, hi := numericBounds(c); lo != "" || hi != "" {
				g.warn(t.Name, c.Name, "MIN/MAX cannot be enforced on an auto-increment column")
			}
		} else {
			lo, hi := numericBounds(c)
			if lo == "" || hi == "" {
				wlo, whi := g.implicitBounds(c)
				if lo == "" {
					lo = wlo
				}
				if hi == "" {
					hi = whi
				}
			}
			if lo != "" {
				cmp(c, schema.Gte, lo)
			}
			if hi != "" {
				cmp(c, schema.Lte, hi)
			}
		}
		switch c.Type.(type) {
		case *field.EnumType:
			if !g.be.nativeEnum() {
				vals, err := g.enumValues(t, c)
				if err != nil {
					return nil, err
				}
				bound(c, schema.In, "", g.in(c, vals))
			}
		case *field.BooleanType:
			if !g.be.nativeBool() {
				bound(c, schema.In, "", g.q(c.Name)+" IN ("+g.desc.False+", "+g.desc.True+")")
			}
		}
		if c.Check != nil {
			p := *c.Check
			p.Column = c.Name
			bound(c, p.Op, p.Operand(), g.predicate(t, &p))
		}
	}
	for _, ck := range t.Checks {
		if ck.Expr == nil {
			return nil, schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, t.Name, "", "empty check %q", ck.Name)
		}
		rendered := g.expr(t, ck.Expr, false)
		name := ck.Name
		if name == "" {
			name = g.env.Names.Check(t.Name, rendered)
		}
		add(name, "CHECK ("+rendered+")")
	}
	return out, nil
}

// implicitBounds returns the range checks a vendor needs because it stores
// the type in a wider column.
func (g *generator) implicitBounds(c *schema.Column) (string, string) {
	switch typ := c.Type.(type) {
	case *field.IntegerType:
		if g.be.widthCheck(typ.Width) {
			lo, hi := typ.Width.Bounds()
			return fmt.Sprint(lo), fmt.Sprint(hi)
		}
	case *field.DecimalType:
		if !g.be.enforcesPrecision() {
			lim := DecimalLimit(typ.Precision, typ.Scale)
			return lim.Neg().String(), lim.String()
		}
	}
	return "", ""
}

// numericBounds returns the declared MIN and MAX of a numeric column.
func numericBounds(c *schema.Column) (lo, hi string) {
	switch typ := c.Type.(type) {
	case *field.IntegerType:
		if typ.Min != nil {
			lo = fmt.Sprint(*typ.Min)
		}
		if typ.Max != nil {
			hi = fmt.Sprint(*typ.Max)
		}
	case *field.FloatType:
		lo, hi = floatBound(typ.Min), floatBound(typ.Max)
	case *field.DoubleType:
		lo, hi = floatBound(typ.Min), floatBound(typ.Max)
	case *field.DecimalType:
		if typ.Min != nil {
			lo = typ.Min.String()
		}
		if typ.Max != nil {
			hi = typ.Max.String()
		}
	}
	return lo, hi
}

func floatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}

func (g *generator) in(c *schema.Column, values []string) string {
	lits := make([]string, len(values))
	for i, v := range values {
		lits[i] = g.operand(c, v)
	}
	return g.q(c.Name) + " IN (" + strings.Join(lits, ", ") + ")"
}

func (g *generator) predicate(t *schema.Table, p *schema.Predicate) string {
	c := t.Column(p.Column)
	if p.Op == schema.In {
		return g.in(&schema.Column{Name: p.Column, Type: typeOf(c)}, p.Values)
	}
	return g.q(p.Column) + " " + p.Op.SQL() + " " + g.operand(c, p.Operand())
}

func typeOf(c *schema.Column) field.Type {
	if c == nil {
		return field.Clob()
	}
	return c.Type
}

// expr renders a check tree. Nested logical nodes are parenthesized.
func (g *generator) expr(t *schema.Table, e schema.CheckExpr, nested bool) string {
	switch e := e.(type) {
	case *schema.Predicate:
		return g.predicate(t, e)
	case *schema.Logical:
		s := g.expr(t, e.Left, true) + " " + e.Op.String() + " " + g.expr(t, e.Right, true)
		if nested {
			return "(" + s + ")"
		}
		return s
	}
	return ""
}
