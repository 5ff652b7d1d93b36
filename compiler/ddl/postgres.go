package ddl

import (
	"fmt"
	"strings"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

// postgresBackend targets PostgreSQL. Enums become native types and
// auto-increment columns draw from a sequence.
type postgresBackend struct{}

func (postgresBackend) columnType(g *generator, t *schema.Table, c *schema.Column) (string, error) {
	switch typ := c.Type.(type) {
	case *field.CharType:
		return charType(g, t, c, typ, "VARCHAR", "TEXT"), nil
	case *field.BinaryType, *field.BlobType:
		return "BYTEA", nil
	case *field.ClobType:
		return "TEXT", nil
	case *field.BooleanType:
		return "BOOLEAN", nil
	case *field.IntegerType:
		switch typ.Width {
		case field.Tinyint, field.Smallint:
			return "SMALLINT", nil
		case field.Bigint:
			return "BIGINT", nil
		}
		return "INTEGER", nil
	case *field.FloatType:
		return "REAL", nil
	case *field.DoubleType:
		return "DOUBLE PRECISION", nil
	case *field.DecimalType:
		return decimalType(g, t, c, typ, "NUMERIC")
	case *field.DateType:
		return "DATE", nil
	case *field.TimeType:
		return "TIME", nil
	case *field.DatetimeType:
		return "TIMESTAMP", nil
	case *field.EnumType:
		if _, err := g.enumValues(t, c); err != nil {
			return "", err
		}
		return g.qt(g.enumTypeName(t, c)), nil
	}
	return "", unknownType(g, t, c)
}

func (postgresBackend) autoIncrement(g *generator, t *schema.Table, c *schema.Column) autoInc {
	seq := g.qt(g.env.Names.Sequence(t.Name, c.Name))
	return autoInc{def: "nextval(" + g.desc.String(seq) + ")"}
}

func (postgresBackend) generated(_ *generator, _ *schema.Table, c *schema.Column) (string, string, bool) {
	switch c.Generate {
	case field.UUID:
		if _, ok := c.Type.(*field.BinaryType); ok {
			return "decode(replace(gen_random_uuid()::text, '-', ''), 'hex')", "", true
		}
		return "gen_random_uuid()::text", "", true
	case field.EpochSeconds:
		return "EXTRACT(EPOCH FROM CURRENT_TIMESTAMP)::bigint", "", true
	case field.EpochMillis:
		return "(EXTRACT(EPOCH FROM CURRENT_TIMESTAMP) * 1000)::bigint", "", true
	case field.Timestamp:
		return "CURRENT_TIMESTAMP", "", true
	case field.UpdateTimestamp:
		// Set on insert; updates are left to the application.
		return "CURRENT_TIMESTAMP", "", false
	}
	return "", "", false
}

func (postgresBackend) binary(hex string) string      { return `'\x` + hex + `'` }
func (postgresBackend) now() string                   { return "CURRENT_TIMESTAMP" }
func (postgresBackend) nativeEnum() bool              { return true }
func (postgresBackend) nativeBool() bool              { return true }
func (postgresBackend) widthCheck(w field.Width) bool { return w == field.Tinyint }
func (postgresBackend) enforcesPrecision() bool       { return true }
func (postgresBackend) boundsOnAutoIncrement() bool   { return true }

func (postgresBackend) changeRule(bool, schema.ChangeRule) bool { return true }

// indexKind keeps hash indexes on single columns only. PostgreSQL hash
// indexes can be neither unique nor composite.
func (postgresBackend) indexKind(kind index.Kind, unique bool, columns int) indexFit {
	switch {
	case kind != index.Hash:
		return exact(kind, unique)
	case columns > 1:
		return indexFit{kind: kind, unique: unique, drop: true, reason: "composite hash indexes are not supported; index dropped"}
	case unique:
		return indexFit{kind: kind, reason: "unique hash indexes are not supported; uniqueness dropped"}
	}
	return exact(kind, unique)
}

func (postgresBackend) createIndex(g *generator, unique bool, name string, kind index.Kind, table string, columns []string) string {
	if kind == index.Hash {
		return "CREATE INDEX " + g.q(name) + " ON " + g.qt(table) + " USING HASH (" + g.desc.QuoteIdents(columns) + ")"
	}
	return createIndexSQL(g, unique, name, table, columns)
}

func (postgresBackend) primaryKeySuffix(index.Kind) string { return "" }

func (postgresBackend) createGuarded(g *generator, table, body string) schemac.Statement {
	return schemac.CreateStmt("CREATE TABLE IF NOT EXISTS " + g.qt(table) + " " + body)
}

func (postgresBackend) dropGuarded(g *generator, table string) schemac.Statement {
	return schemac.DropStmt("DROP TABLE IF EXISTS " + g.qt(table))
}

// types creates the sequence of the auto-increment column and the enum types
// of the table. An enum type shared through a template is created once per
// run.
func (postgresBackend) types(g *generator, t *schema.Table) ([]schemac.Statement, error) {
	var out []schemac.Statement
	if c := autoIncrementColumn(t); c != nil {
		create := "CREATE SEQUENCE "
		if g.env.IfNotExists {
			create += "IF NOT EXISTS "
		}
		sql := create + g.qt(g.env.Names.Sequence(t.Name, c.Name))
		if opts := identityOptions(c, " ", true); opts != "" {
			sql += " " + opts
		}
		out = append(out, schemac.CreateStmt(sql))
	}
	for _, c := range enumColumns(t) {
		name := g.enumTypeName(t, c)
		if !once(g.env.created, name) {
			continue
		}
		vals, err := g.enumValues(t, c)
		if err != nil {
			return nil, err
		}
		lits := make([]string, len(vals))
		for i, v := range vals {
			lits[i] = g.desc.String(v)
		}
		sql := "CREATE TYPE " + g.qt(name) + " AS ENUM (" + strings.Join(lits, ", ") + ")"
		if g.env.IfNotExists {
			sql = "DO $$ BEGIN\n  " + sql + ";\nEXCEPTION\n  WHEN duplicate_object THEN NULL;\nEND $$"
		}
		out = append(out, schemac.CreateStmt(sql))
	}
	return out, nil
}

func (postgresBackend) dropTypes(g *generator, t *schema.Table) []schemac.Statement {
	var out []schemac.Statement
	if c := autoIncrementColumn(t); c != nil {
		out = append(out, schemac.DropStmt("DROP SEQUENCE IF EXISTS "+g.qt(g.env.Names.Sequence(t.Name, c.Name))))
	}
	for _, c := range enumColumns(t) {
		if name := g.enumTypeName(t, c); once(g.env.dropped, name) {
			out = append(out, schemac.DropStmt("DROP TYPE IF EXISTS "+g.qt(name)))
		}
	}
	for _, tr := range t.Triggers {
		out = append(out, schemac.DropStmt("DROP FUNCTION IF EXISTS "+g.qt(tr.Name+"_fn")+"()"))
	}
	return out
}

// triggers wraps each trigger body in a plpgsql function.
func (postgresBackend) triggers(g *generator, t *schema.Table) ([]schemac.Statement, error) {
	var out []schemac.Statement
	for _, tr := range t.Triggers {
		fn := g.qt(tr.Name + "_fn")
		body := statementBody(tr.Body)
		if !strings.Contains(strings.ToUpper(body), "RETURN") {
			ret := "NEW"
			if len(tr.Events) == 1 && tr.Events[0] == schema.OnDelete {
				ret = "OLD"
			}
			body += "\n  RETURN " + ret + ";"
		}
		out = append(out,
			schemac.CreateStmt(fmt.Sprintf("CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$\nBEGIN\n  %s\nEND;\n$$ LANGUAGE plpgsql", fn, body)),
			schemac.CreateStmt(fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW EXECUTE FUNCTION %s()",
				g.q(tr.Name), tr.Timing, events(tr), g.qt(t.Name), fn)),
		)
	}
	return out, nil
}

func (postgresBackend) postCreate(*generator, *schema.Table) ([]schemac.Statement, error) {
	return nil, nil
}

func (postgresBackend) truncate(g *generator, table string) string {
	return "TRUNCATE TABLE " + g.qt(table)
}

func (postgresBackend) createSchema(g *generator, name string) (string, bool) {
	return "CREATE SCHEMA IF NOT EXISTS " + g.q(name), true
}
