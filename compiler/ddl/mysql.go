package ddl

import (
	"fmt"
	"strings"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

// mysqlBackend targets MySQL and MariaDB.
type mysqlBackend struct{}

func (mysqlBackend) columnType(g *generator, t *schema.Table, c *schema.Column) (string, error) {
	switch typ := c.Type.(type) {
	case *field.CharType:
		return charType(g, t, c, typ, "VARCHAR", "LONGTEXT"), nil
	case *field.BinaryType:
		return fmt.Sprintf("VARBINARY(%d)", typ.Length), nil
	case *field.BlobType:
		return "LONGBLOB", nil
	case *field.ClobType:
		return "LONGTEXT", nil
	case *field.BooleanType:
		return "BOOLEAN", nil
	case *field.IntegerType:
		return map[field.Width]string{
			field.Tinyint: "TINYINT", field.Smallint: "SMALLINT", field.Int: "INT", field.Bigint: "BIGINT",
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
		lits := make([]string, len(vals))
		for i, v := range vals {
			lits[i] = g.desc.String(v)
		}
		return "ENUM(" + strings.Join(lits, ", ") + ")", nil
	}
	return "", unknownType(g, t, c)
}

func (mysqlBackend) autoIncrement(*generator, *schema.Table, *schema.Column) autoInc {
	return autoInc{suffix: "AUTO_INCREMENT"}
}

func (mysqlBackend) generated(_ *generator, _ *schema.Table, c *schema.Column) (string, string, bool) {
	switch c.Generate {
	case field.UUID:
		if _, ok := c.Type.(*field.BinaryType); ok {
			return "(UUID_TO_BIN(UUID()))", "", true
		}
		return "(UUID())", "", true
	case field.EpochSeconds:
		return "(UNIX_TIMESTAMP())", "", true
	case field.EpochMillis:
		return "(FLOOR(UNIX_TIMESTAMP(NOW(3)) * 1000))", "", true
	case field.Timestamp:
		return "CURRENT_TIMESTAMP", "", true
	case field.UpdateTimestamp:
		return "CURRENT_TIMESTAMP", "ON UPDATE CURRENT_TIMESTAMP", true
	}
	return "", "", false
}

func (mysqlBackend) binary(hex string) string    { return "X'" + hex + "'" }
func (mysqlBackend) now() string                 { return "CURRENT_TIMESTAMP" }
func (mysqlBackend) nativeEnum() bool            { return true }
func (mysqlBackend) nativeBool() bool            { return true }
func (mysqlBackend) widthCheck(field.Width) bool { return false }
func (mysqlBackend) enforcesPrecision() bool     { return true }
func (mysqlBackend) boundsOnAutoIncrement() bool { return false }

// InnoDB parses but rejects SET DEFAULT.
func (mysqlBackend) changeRule(_ bool, r schema.ChangeRule) bool {
	return r != schema.SetDefault
}

func (mysqlBackend) indexKind(kind index.Kind, unique bool, _ int) indexFit {
	return exact(kind, unique)
}

func (mysqlBackend) createIndex(g *generator, unique bool, name string, kind index.Kind, table string, columns []string) string {
	return createIndexSQL(g, unique, name, table, columns) + mysqlBackend{}.primaryKeySuffix(kind)
}

func (mysqlBackend) primaryKeySuffix(kind index.Kind) string {
	if kind == index.Hash {
		return " USING HASH"
	}
	return ""
}

func (mysqlBackend) createGuarded(g *generator, table, body string) schemac.Statement {
	return schemac.CreateStmt("CREATE TABLE IF NOT EXISTS " + g.qt(table) + " " + body)
}

func (mysqlBackend) dropGuarded(g *generator, table string) schemac.Statement {
	return schemac.DropStmt("DROP TABLE IF EXISTS " + g.qt(table))
}

func (mysqlBackend) types(*generator, *schema.Table) ([]schemac.Statement, error) { return nil, nil }
func (mysqlBackend) dropTypes(*generator, *schema.Table) []schemac.Statement      { return nil }

func (mysqlBackend) triggers(g *generator, t *schema.Table) ([]schemac.Statement, error) {
	return perEvent(t, func(name string, tr *schema.Trigger, ev schema.TriggerEvent) string {
		return fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW %s",
			g.q(name), tr.Timing, ev, g.qt(t.Name), strings.TrimSuffix(strings.TrimSpace(tr.Body), ";"))
	}), nil
}

// postCreate sets the AUTO_INCREMENT start value, which MySQL cannot take in
// the column definition.
func (mysqlBackend) postCreate(g *generator, t *schema.Table) ([]schemac.Statement, error) {
	c := autoIncrementColumn(t)
	if c == nil {
		return nil, nil
	}
	start, ok := startValue(c)
	if !ok {
		return nil, nil
	}
	if c.Default != nil {
		g.warn(t.Name, c.Name, "DEFAULT %s is only used as the AUTO_INCREMENT start value", *c.Default)
	}
	return []schemac.Statement{
		schemac.CreateStmt(fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d", g.qt(t.Name), start)),
	}, nil
}

func (mysqlBackend) truncate(g *generator, table string) string {
	return "TRUNCATE TABLE " + g.qt(table)
}

func (mysqlBackend) createSchema(g *generator, name string) (string, bool) {
	return "CREATE DATABASE IF NOT EXISTS " + g.q(name), true
}
