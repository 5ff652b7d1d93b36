package ddl

import (
	"fmt"
	"strings"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
)

// charType renders a bounded character type, degrading to the vendor's
// character large object above the maximum length.
func charType(g *generator, t *schema.Table, c *schema.Column, ct *field.CharType, varchar, clob string) string {
	if max := g.desc.MaxCharLength; max > 0 && ct.Length > max {
		g.warn(t.Name, c.Name, "length %d exceeds the maximum %d; using %s", ct.Length, max, clob)
		return clob
	}
	return fmt.Sprintf("%s(%d)", varchar, ct.Length)
}

// decimalType renders a DECIMAL type. A precision beyond the vendor maximum
// cannot be degraded without losing digits and is fatal.
func decimalType(g *generator, t *schema.Table, c *schema.Column, dt *field.DecimalType, name string) (string, error) {
	if max := g.desc.MaxDecimalPrecision; max > 0 && dt.Precision > max {
		return "", schemac.NewUnsupportedFeatureError(string(g.desc.Vendor), t.Name, c.Name,
			fmt.Sprintf("decimal precision %d (maximum %d)", dt.Precision, max))
	}
	return fmt.Sprintf("%s(%d,%d)", name, dt.Precision, dt.Scale), nil
}

func unknownType(g *generator, t *schema.Table, c *schema.Column) error {
	return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, t.Name, c.Name,
		"column type %T is not supported by %s", c.Type, g.desc.Vendor)
}

// perEvent emits one trigger per declared event, suffixing the name with
// the event when a trigger has several.
func perEvent(t *schema.Table, render func(name string, tr *schema.Trigger, ev schema.TriggerEvent) string) []schemac.Statement {
	var out []schemac.Statement
	for _, tr := range t.Triggers {
		for _, ev := range tr.Events {
			name := tr.Name
			if len(tr.Events) > 1 {
				name += "_" + strings.ToLower(string(ev))
			}
			out = append(out, schemac.CreateStmt(render(name, tr, ev)))
		}
	}
	return out
}

// events joins trigger events with OR.
func events(tr *schema.Trigger) string {
	parts := make([]string, len(tr.Events))
	for i, ev := range tr.Events {
		parts[i] = string(ev)
	}
	return strings.Join(parts, " OR ")
}

// statementBody terminates the last statement of a trigger body.
func statementBody(body string) string {
	body = strings.TrimSpace(body)
	if !strings.HasSuffix(body, ";") {
		body += ";"
	}
	return body
}

// identityOptions renders the START WITH / MINVALUE / MAXVALUE options shared
// by sequences and identity columns.
func identityOptions(c *schema.Column, sep string, withBounds bool) string {
	var opts []string
	if start, ok := startValue(c); ok {
		opts = append(opts, fmt.Sprintf("START WITH %d", start))
	}
	if it, ok := c.Type.(*field.IntegerType); ok && withBounds {
		if it.Min != nil {
			opts = append(opts, fmt.Sprintf("MINVALUE %d", *it.Min))
		}
		if it.Max != nil {
			opts = append(opts, fmt.Sprintf("MAXVALUE %d", *it.Max))
		}
	}
	return strings.Join(opts, sep)
}

// plsqlGuard wraps a statement in a PL/SQL block ignoring one SQLCODE.
func plsqlGuard(sql string, code int) string {
	return fmt.Sprintf("BEGIN\n  EXECUTE IMMEDIATE '%s';\nEXCEPTION\n  WHEN OTHERS THEN\n    IF SQLCODE != %d THEN\n      RAISE;\n    END IF;\nEND;",
		strings.ReplaceAll(sql, "'", "''"), code)
}
