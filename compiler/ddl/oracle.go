package ddl

import (
	"fmt"
	"strings"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

// Oracle error codes ignored by existence guards.
const (
	oraNameInUse  = -955
	oraNoTable    = -942
	oraNoSequence = -2289
)

const oracleMaxRawLength = 2000

// oracleBackend targets Oracle. Auto-increment columns are filled by a
// sequence and a BEFORE INSERT trigger.
type oracleBackend struct{}

func (oracleBackend) columnType(g *generator, t *schema.Table, c *schema.Column) (string, error) {
	switch typ := c.Type.(type) {
	case *field.CharType:
		return charType(g, t, c, typ, "VARCHAR2", "CLOB"), nil
	case *field.BinaryType:
		if typ.Length > oracleMaxRawLength {
			g.warn(t.Name, c.Name, "length %d exceeds the maximum %d; using BLOB", typ.Length, oracleMaxRawLength)
			return "BLOB", nil
		}
		return fmt.Sprintf("RAW(%d)", typ.Length), nil
	case *field.BlobType:
		return "BLOB", nil
	case *field.ClobType:
		return "CLOB", nil
	case *field.BooleanType:
		return "NUMBER(1)", nil
	case *field.IntegerType:
		return map[field.Width]string{
			field.Tinyint: "NUMBER(3)", field.Smallint: "NUMBER(5)", field.Int: "NUMBER(10)", field.Bigint: "NUMBER(19)",
		}[typ.Width], nil
	case *field.FloatType:
		return "BINARY_FLOAT", nil
	case *field.DoubleType:
		return "BINARY_DOUBLE", nil
	case *field.DecimalType:
		return decimalType(g, t, c, typ, "NUMBER")
	case *field.DateType:
		return "DATE", nil
	case *field.TimeType:
		g.warn(t.Name, c.Name, "TIME is stored as DATE")
		return "DATE", nil
	case *field.DatetimeType:
		return "TIMESTAMP", nil
	case *field.EnumType:
		vals, err := g.enumValues(t, c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("VARCHAR2(%d)", maxLen(vals)), nil
	}
	return "", unknownType(g, t, c)
}

func (oracleBackend) autoIncrement(*generator, *schema.Table, *schema.Column) autoInc {
	return autoInc{external: true}
}

func (oracleBackend) generated(_ *generator, _ *schema.Table, c *schema.Column) (string, string, bool) {
	const epoch = "(CAST(SYS_EXTRACT_UTC(SYSTIMESTAMP) AS DATE) - DATE '1970-01-01')"
	switch c.Generate {
	case field.UUID:
		if _, ok := c.Type.(*field.BinaryType); ok {
			return "SYS_GUID()", "", true
		}
		return "RAWTOHEX(SYS_GUID())", "", true
	case field.EpochSeconds:
		return epoch + " * 86400", "", true
	case field.EpochMillis:
		return epoch + " * 86400000", "", true
	case field.Timestamp:
		return "SYSTIMESTAMP", "", true
	case field.UpdateTimestamp:
		return "SYSTIMESTAMP", "", false
	}
	return "", "", false
}

func (oracleBackend) binary(hex string) string           { return "HEXTORAW('" + hex + "')" }
func (oracleBackend) now() string                        { return "SYSTIMESTAMP" }
func (oracleBackend) nativeEnum() bool                   { return false }
func (oracleBackend) nativeBool() bool                   { return false }
func (oracleBackend) widthCheck(field.Width) bool        { return true }
func (oracleBackend) enforcesPrecision() bool            { return true }
func (oracleBackend) boundsOnAutoIncrement() bool        { return true }
func (oracleBackend) primaryKeySuffix(index.Kind) string { return "" }

// Oracle has no ON UPDATE clause and only two ON DELETE actions.
func (oracleBackend) changeRule(onUpdate bool, r schema.ChangeRule) bool {
	return !onUpdate && (r == schema.Cascade || r == schema.SetNull)
}

func (oracleBackend) indexKind(kind index.Kind, unique bool, _ int) indexFit {
	return btreeOnly(kind, unique)
}

func (oracleBackend) createIndex(g *generator, unique bool, name string, _ index.Kind, table string, columns []string) string {
	return createIndexSQL(g, unique, name, table, columns)
}

func (oracleBackend) createGuarded(g *generator, table, body string) schemac.Statement {
	return schemac.CreateStmt(plsqlGuard("CREATE TABLE "+g.qt(table)+" "+body, oraNameInUse))
}

func (oracleBackend) dropGuarded(g *generator, table string) schemac.Statement {
	return schemac.DropStmt(plsqlGuard("DROP TABLE "+g.qt(table), oraNoTable))
}

func (oracleBackend) types(g *generator, t *schema.Table) ([]schemac.Statement, error) {
	c := autoIncrementColumn(t)
	if c == nil {
		return nil, nil
	}
	sql := "CREATE SEQUENCE " + g.qt(g.env.Names.Sequence(t.Name, c.Name))
	if opts := identityOptions(c, " ", true); opts != "" {
		sql += " " + opts
	}
	if g.env.IfNotExists {
		sql = plsqlGuard(sql, oraNameInUse)
	}
	return []schemac.Statement{schemac.CreateStmt(sql)}, nil
}

func (oracleBackend) dropTypes(g *generator, t *schema.Table) []schemac.Statement {
	c := autoIncrementColumn(t)
	if c == nil {
		return nil
	}
	sql := "DROP SEQUENCE " + g.qt(g.env.Names.Sequence(t.Name, c.Name))
	return []schemac.Statement{schemac.DropStmt(plsqlGuard(sql, oraNoSequence))}
}

// triggers emits the sequence trigger of the auto-increment column, which
// only fires when the inserted value is NULL, then the declared triggers.
func (oracleBackend) triggers(g *generator, t *schema.Table) ([]schemac.Statement, error) {
	var out []schemac.Statement
	if c := autoIncrementColumn(t); c != nil {
		col := g.q(c.Name)
		out = append(out, schemac.CreateStmt(fmt.Sprintf(
			"CREATE OR REPLACE TRIGGER %s BEFORE INSERT ON %s FOR EACH ROW WHEN (new.%s IS NULL)\nBEGIN\n  SELECT %s.NEXTVAL INTO :new.%s FROM dual;\nEND;",
			g.qt(g.env.Names.Trigger(t.Name, c.Name, "trg")), g.qt(t.Name), col,
			g.qt(g.env.Names.Sequence(t.Name, c.Name)), col)))
	}
	for _, tr := range t.Triggers {
		body := statementBody(tr.Body)
		if !strings.HasPrefix(strings.ToUpper(body), "BEGIN") {
			body = "BEGIN\n  " + body + "\nEND;"
		}
		out = append(out, schemac.CreateStmt(fmt.Sprintf("CREATE OR REPLACE TRIGGER %s %s %s ON %s FOR EACH ROW\n%s",
			g.qt(tr.Name), tr.Timing, events(tr), g.qt(t.Name), body)))
	}
	return out, nil
}

func (oracleBackend) postCreate(*generator, *schema.Table) ([]schemac.Statement, error) {
	return nil, nil
}

func (oracleBackend) truncate(g *generator, table string) string {
	return "TRUNCATE TABLE " + g.qt(table)
}

func (oracleBackend) createSchema(g *generator, name string) (string, bool) {
	return "CREATE SCHEMA AUTHORIZATION " + g.q(name), true
}
