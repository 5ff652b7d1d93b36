package ddl

import (
	"strconv"
	"strings"

	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
)

func (g *generator) CompileColumn(t *schema.Table, c *schema.Column) (string, error) {
	typ, err := g.be.columnType(g, t, c)
	if err != nil {
		return "", err
	}
	if err := ValidateDefault(g.env.Schema, t, c); err != nil {
		return "", err
	}
	var def, suffix string
	switch {
	case isAutoIncrement(c):
		ai := g.be.autoIncrement(g, t, c)
		for _, n := range ai.notes {
			g.warn(t.Name, c.Name, "%s", n)
		}
		if ai.typ != "" {
			typ = ai.typ
		}
		def, suffix = ai.def, ai.suffix
		if ai.zero() && c.Default != nil {
			def, err = g.literal(t, c, *c.Default)
		}
	case c.Generate != field.GenerateNone:
		gdef, gsuffix, ok := g.be.generated(g, t, c)
		if !ok {
			if c.Generate.OnUpdate() {
				g.warn(t.Name, c.Name, "%s generation is maintained by the application", c.Generate)
			} else {
				g.warn(t.Name, c.Name, "%s generation has no column default; values are generated by the application", c.Generate)
			}
		}
		def, suffix = gdef, gsuffix
		if c.Default != nil {
			if def != "" {
				g.warn(t.Name, c.Name, "DEFAULT %s is replaced by %s generation", *c.Default, c.Generate)
			} else {
				def, err = g.literal(t, c, *c.Default)
			}
		}
	case c.Default != nil:
		def, err = g.literal(t, c, *c.Default)
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(g.q(c.Name))
	b.WriteString(" ")
	b.WriteString(typ)
	if def != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(def)
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if suffix != "" {
		b.WriteString(" ")
		b.WriteString(suffix)
	}
	return b.String(), nil
}

// literal renders a validated DEFAULT value for column c.
func (g *generator) literal(t *schema.Table, c *schema.Column, v string) (string, error) {
	switch c.Type.(type) {
	case *field.IntegerType, *field.FloatType, *field.DoubleType, *field.DecimalType:
		return strings.TrimSpace(v), nil
	case *field.BooleanType:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return "", err
		}
		return g.desc.Bool(b), nil
	case *field.BinaryType, *field.BlobType:
		return g.be.binary(strings.ToLower(v)), nil
	case *field.DateType:
		return g.desc.Date(v), nil
	case *field.TimeType:
		return g.timeLiteral(v), nil
	case *field.DatetimeType:
		if strings.EqualFold(v, CurrentTimestamp) {
			return g.be.now(), nil
		}
		return g.desc.Timestamp(v), nil
	default:
		return g.desc.String(v), nil
	}
}

// timeLiteral renders a time of day. Vendors without a TIME type store it in
// a DATE and need a conversion.
func (g *generator) timeLiteral(v string) string {
	if _, ok := g.be.(oracleBackend); ok {
		return "TO_DATE(" + g.desc.String(v) + ", 'HH24:MI:SS')"
	}
	return g.desc.Time(v)
}

// operand renders a check operand as a literal of column c's type.
func (g *generator) operand(c *schema.Column, v string) string {
	if c == nil {
		return g.desc.String(v)
	}
	switch c.Type.(type) {
	case *field.IntegerType, *field.FloatType, *field.DoubleType, *field.DecimalType:
		return strings.TrimSpace(v)
	case *field.BooleanType:
		if b, err := strconv.ParseBool(v); err == nil {
			return g.desc.Bool(b)
		}
	case *field.DateType:
		return g.desc.Date(v)
	case *field.TimeType:
		return g.timeLiteral(v)
	case *field.DatetimeType:
		return g.desc.Timestamp(v)
	}
	return g.desc.String(v)
}
