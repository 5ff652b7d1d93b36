package ddl

import (
	"fmt"
	"slices"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

// sqliteBackend targets SQLite. Column types only set an affinity, so widths
// and precision are enforced with checks.
type sqliteBackend struct{}

func (sqliteBackend) columnType(g *generator, t *schema.Table, c *schema.Column) (string, error) {
	switch typ := c.Type.(type) {
	case *field.CharType:
		return charType(g, t, c, typ, "VARCHAR", "CLOB"), nil
	case *field.BinaryType, *field.BlobType:
		return "BLOB", nil
	case *field.ClobType:
		return "CLOB", nil
	case *field.BooleanType:
		return "BOOLEAN", nil
	case *field.IntegerType:
		return map[field.Width]string{
			field.Tinyint: "TINYINT", field.Smallint: "SMALLINT", field.Int: "INTEGER", field.Bigint: "BIGINT",
		}[typ.Width], nil
	case *field.FloatType:
		return "FLOAT", nil
	case *field.DoubleType:
		return "DOUBLE", nil
	case *field.DecimalType:
		return decimalType(g, t, c, typ, "DECIMAL")
	case *field.DateType:
		return "DATE", nil
	case *field.TimeType:
		return "TIME", nil
	case *field.DatetimeType:
		return "DATETIME", nil
	case *field.EnumType:
		vals, err := g.enumValues(t, c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("VARCHAR(%d)", maxLen(vals)), nil
	}
	return "", unknownType(g, t, c)
}

// autoIncrement aliases the rowid, which requires the column to be the sole
// primary key column. Otherwise the column is emitted without generation.
func (sqliteBackend) autoIncrement(_ *generator, t *schema.Table, c *schema.Column) autoInc {
	if t.PrimaryKey == nil || !slices.Equal(t.PrimaryKey.Columns, []string{c.Name}) {
		return autoInc{notes: []string{"AUTOINCREMENT requires the column to be the sole primary key; values are not generated"}}
	}
	ai := autoInc{typ: "INTEGER", suffix: "PRIMARY KEY AUTOINCREMENT", inlinePK: true}
	if start, ok := startValue(c); ok {
		ai.notes = append(ai.notes, fmt.Sprintf("AUTOINCREMENT cannot start at %d; the first value is 1", start))
	}
	return ai
}

func (sqliteBackend) generated(_ *generator, _ *schema.Table, c *schema.Column) (string, string, bool) {
	switch c.Generate {
	case field.UUID:
		if _, ok := c.Type.(*field.BinaryType); ok {
			return "(randomblob(16))", "", true
		}
		return "(lower(hex(randomblob(16))))", "", true
	case field.EpochSeconds:
		return "(CAST(strftime('%s', 'now') AS INTEGER))", "", true
	case field.EpochMillis:
		return "(CAST((julianday('now') - 2440587.5) * 86400000 AS INTEGER))", "", true
	case field.Timestamp:
		return "CURRENT_TIMESTAMP", "", true
	case field.UpdateTimestamp:
		return "CURRENT_TIMESTAMP", "", false
	}
	return "", "", false
}

func (sqliteBackend) binary(hex string) string           { return "X'" + hex + "'" }
func (sqliteBackend) now() string                        { return "CURRENT_TIMESTAMP" }
func (sqliteBackend) nativeEnum() bool                   { return false }
func (sqliteBackend) nativeBool() bool                   { return true }
func (sqliteBackend) widthCheck(w field.Width) bool      { return w != field.Bigint }
func (sqliteBackend) enforcesPrecision() bool            { return false }
func (sqliteBackend) boundsOnAutoIncrement() bool        { return true }
func (sqliteBackend) primaryKeySuffix(index.Kind) string { return "" }

func (sqliteBackend) changeRule(bool, schema.ChangeRule) bool { return true }

func (sqliteBackend) indexKind(kind index.Kind, unique bool, _ int) indexFit {
	return btreeOnly(kind, unique)
}

func (sqliteBackend) createIndex(g *generator, unique bool, name string, _ index.Kind, table string, columns []string) string {
	return createIndexSQL(g, unique, name, table, columns)
}

func (sqliteBackend) createGuarded(g *generator, table, body string) schemac.Statement {
	return schemac.CreateStmt("CREATE TABLE IF NOT EXISTS " + g.qt(table) + " " + body)
}

func (sqliteBackend) dropGuarded(g *generator, table string) schemac.Statement {
	return schemac.DropStmt("DROP TABLE IF EXISTS " + g.qt(table))
}

func (sqliteBackend) types(*generator, *schema.Table) ([]schemac.Statement, error) { return nil, nil }
func (sqliteBackend) dropTypes(*generator, *schema.Table) []schemac.Statement      { return nil }

func (sqliteBackend) triggers(g *generator, t *schema.Table) ([]schemac.Statement, error) {
	return perEvent(t, func(name string, tr *schema.Trigger, ev schema.TriggerEvent) string {
		return fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW\nBEGIN\n  %s\nEND",
			g.q(name), tr.Timing, ev, g.qt(t.Name), statementBody(tr.Body))
	}), nil
}

func (sqliteBackend) postCreate(*generator, *schema.Table) ([]schemac.Statement, error) {
	return nil, nil
}

func (sqliteBackend) truncate(g *generator, table string) string {
	return "DELETE FROM " + g.qt(table)
}

func (sqliteBackend) createSchema(*generator, string) (string, bool) { return "", false }
