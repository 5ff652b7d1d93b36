package ddl

import (
	"fmt"
	"strings"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

// SQLSTATEs swallowed by DB2 existence guards.
const (
	db2AlreadyExists = "42710"
	db2Undefined     = "42704"
)

// db2Backend targets DB2 LUW.
type db2Backend struct{}

func (db2Backend) columnType(g *generator, t *schema.Table, c *schema.Column) (string, error) {
	return ibmColumnType(g, t, c, "SMALLINT")
}

// ibmColumnType maps column types for DB2 and Derby, which differ only in
// the boolean type.
func ibmColumnType(g *generator, t *schema.Table, c *schema.Column, boolean string) (string, error) {
	switch typ := c.Type.(type) {
	case *field.CharType:
		return charType(g, t, c, typ, "VARCHAR", "CLOB"), nil
	case *field.BinaryType:
		return fmt.Sprintf("VARCHAR(%d) FOR BIT DATA", typ.Length), nil
	case *field.BlobType:
		return "BLOB", nil
	case *field.ClobType:
		return "CLOB", nil
	case *field.BooleanType:
		return boolean, nil
	case *field.IntegerType:
		return ibmInteger(typ.Width), nil
	case *field.FloatType:
		return "REAL", nil
	case *field.DoubleType:
		return "DOUBLE", nil
	case *field.DecimalType:
		return decimalType(g, t, c, typ, "DECIMAL")
	case *field.DateType:
		return "DATE", nil
	case *field.TimeType:
		return "TIME", nil
	case *field.DatetimeType:
		return "TIMESTAMP", nil
	case *field.EnumType:
		vals, err := g.enumValues(t, c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("VARCHAR(%d)", maxLen(vals)), nil
	}
	return "", unknownType(g, t, c)
}

func ibmInteger(w field.Width) string {
	switch w {
	case field.Tinyint, field.Smallint:
		return "SMALLINT"
	case field.Bigint:
		return "BIGINT"
	}
	return "INTEGER"
}

func (db2Backend) autoIncrement(_ *generator, _ *schema.Table, c *schema.Column) autoInc {
	suffix := "GENERATED BY DEFAULT AS IDENTITY"
	if opts := identityOptions(c, ", ", true); opts != "" {
		suffix += " (" + opts + ")"
	}
	return autoInc{suffix: suffix}
}

// generated covers only what DB2 accepts as a column default: constants
// and special registers.
func (db2Backend) generated(_ *generator, _ *schema.Table, c *schema.Column) (string, string, bool) {
	switch c.Generate {
	case field.Timestamp:
		return "CURRENT TIMESTAMP", "", true
	case field.UpdateTimestamp:
		return "CURRENT TIMESTAMP", "", false
	}
	return "", "", false
}

func (db2Backend) binary(hex string) string           { return "X'" + hex + "'" }
func (db2Backend) now() string                        { return "CURRENT TIMESTAMP" }
func (db2Backend) nativeEnum() bool                   { return false }
func (db2Backend) nativeBool() bool                   { return false }
func (db2Backend) widthCheck(w field.Width) bool      { return w == field.Tinyint }
func (db2Backend) enforcesPrecision() bool            { return true }
func (db2Backend) boundsOnAutoIncrement() bool        { return true }
func (db2Backend) primaryKeySuffix(index.Kind) string { return "" }

func (db2Backend) changeRule(onUpdate bool, r schema.ChangeRule) bool {
	return ibmChangeRule(onUpdate, r)
}

// ibmChangeRule reports the rules DB2 and Derby accept: ON UPDATE only takes
// RESTRICT and NO ACTION, ON DELETE has no SET DEFAULT.
func ibmChangeRule(onUpdate bool, r schema.ChangeRule) bool {
	if onUpdate {
		return r == schema.Restrict
	}
	return r != schema.SetDefault
}

func (db2Backend) indexKind(kind index.Kind, unique bool, _ int) indexFit {
	return btreeOnly(kind, unique)
}

func (db2Backend) createIndex(g *generator, unique bool, name string, _ index.Kind, table string, columns []string) string {
	return createIndexSQL(g, unique, name, table, columns)
}

func (db2Backend) createGuarded(g *generator, table, body string) schemac.Statement {
	return schemac.CreateStmt(db2Guard("CREATE TABLE "+g.qt(table)+" "+body, db2AlreadyExists))
}

func (db2Backend) dropGuarded(g *generator, table string) schemac.Statement {
	return schemac.DropStmt(db2Guard("DROP TABLE "+g.qt(table), db2Undefined))
}

// db2Guard runs sql in a compound statement that continues past sqlstate.
func db2Guard(sql, sqlstate string) string {
	return fmt.Sprintf("BEGIN\n  DECLARE CONTINUE HANDLER FOR SQLSTATE '%s' BEGIN END;\n  EXECUTE IMMEDIATE '%s';\nEND",
		sqlstate, strings.ReplaceAll(sql, "'", "''"))
}

func (db2Backend) types(*generator, *schema.Table) ([]schemac.Statement, error) { return nil, nil }
func (db2Backend) dropTypes(*generator, *schema.Table) []schemac.Statement      { return nil }

func (db2Backend) triggers(g *generator, t *schema.Table) ([]schemac.Statement, error) {
	return ibmTriggers(g, t), nil
}

// ibmTriggers emits one trigger per event with the transition variable of
// the event, NEW AS N or OLD AS O.
func ibmTriggers(g *generator, t *schema.Table) []schemac.Statement {
	return perEvent(t, func(name string, tr *schema.Trigger, ev schema.TriggerEvent) string {
		timing := string(tr.Timing)
		if tr.Timing == schema.Before {
			timing = "NO CASCADE BEFORE"
		}
		ref := "REFERENCING NEW AS N"
		if ev == schema.OnDelete {
			ref = "REFERENCING OLD AS O"
		}
		return fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s %s FOR EACH ROW %s",
			g.qt(name), timing, ev, g.qt(t.Name), ref, strings.TrimSuffix(strings.TrimSpace(tr.Body), ";"))
	})
}

func (db2Backend) postCreate(*generator, *schema.Table) ([]schemac.Statement, error) {
	return nil, nil
}

func (db2Backend) truncate(g *generator, table string) string {
	return "TRUNCATE TABLE " + g.qt(table) + " IMMEDIATE"
}

func (db2Backend) createSchema(g *generator, name string) (string, bool) {
	return "CREATE SCHEMA " + g.q(name), true
}
