package ddl

import (
	"strconv"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

// Derby catalog probes backing existence guards.
const (
	derbyTableProbe       = "SELECT 1 FROM SYS.SYSTABLES WHERE TABLENAME = ?"
	derbySchemaTableProbe = "SELECT 1 FROM SYS.SYSTABLES t JOIN SYS.SYSSCHEMAS s ON t.SCHEMAID = s.SCHEMAID WHERE t.TABLENAME = ? AND s.SCHEMANAME = ?"
)

// derbyBackend targets Apache Derby. Types and rules follow DB2; existence
// guards can only be expressed as catalog probes.
type derbyBackend struct{}

func (derbyBackend) columnType(g *generator, t *schema.Table, c *schema.Column) (string, error) {
	return ibmColumnType(g, t, c, "BOOLEAN")
}

// autoIncrement renders a Derby identity, which has no MINVALUE or MAXVALUE.
func (derbyBackend) autoIncrement(_ *generator, _ *schema.Table, c *schema.Column) autoInc {
	start, ok := startValue(c)
	if !ok {
		start = 1
	}
	ai := autoInc{suffix: "GENERATED BY DEFAULT AS IDENTITY (START WITH " + strconv.FormatInt(start, 10) + ", INCREMENT BY 1)"}
	if it := c.Type.(*field.IntegerType); it.Max != nil {
		ai.notes = []string{"identity columns cannot be capped; MAX is enforced by a check only"}
	}
	return ai
}

func (derbyBackend) generated(_ *generator, _ *schema.Table, c *schema.Column) (string, string, bool) {
	switch c.Generate {
	case field.Timestamp:
		return "CURRENT_TIMESTAMP", "", true
	case field.UpdateTimestamp:
		return "CURRENT_TIMESTAMP", "", false
	}
	return "", "", false
}

func (derbyBackend) binary(hex string) string           { return "X'" + hex + "'" }
func (derbyBackend) now() string                        { return "CURRENT_TIMESTAMP" }
func (derbyBackend) nativeEnum() bool                   { return false }
func (derbyBackend) nativeBool() bool                   { return true }
func (derbyBackend) widthCheck(w field.Width) bool      { return w == field.Tinyint }
func (derbyBackend) enforcesPrecision() bool            { return true }
func (derbyBackend) boundsOnAutoIncrement() bool        { return true }
func (derbyBackend) primaryKeySuffix(index.Kind) string { return "" }

func (derbyBackend) changeRule(onUpdate bool, r schema.ChangeRule) bool {
	return ibmChangeRule(onUpdate, r)
}

func (derbyBackend) indexKind(kind index.Kind, unique bool, _ int) indexFit {
	return btreeOnly(kind, unique)
}

func (derbyBackend) createIndex(g *generator, unique bool, name string, _ index.Kind, table string, columns []string) string {
	return createIndexSQL(g, unique, name, table, columns)
}

func (derbyBackend) createGuarded(g *generator, table, body string) schemac.Statement {
	stmt := schemac.CreateStmt("CREATE TABLE " + g.qt(table) + " " + body)
	stmt.Guard = derbyProbe(g, table, false)
	return stmt
}

func (derbyBackend) dropGuarded(g *generator, table string) schemac.Statement {
	stmt := schemac.DropStmt("DROP TABLE " + g.qt(table))
	stmt.Guard = derbyProbe(g, table, true)
	return stmt
}

// derbyProbe looks the table up by its catalog spelling.
func derbyProbe(g *generator, table string, exists bool) *schemac.Guard {
	if ns := g.namespace(); ns != "" {
		return &schemac.Guard{
			Query:  derbySchemaTableProbe,
			Args:   []any{g.desc.CatalogName(table), g.desc.CatalogName(ns)},
			Exists: exists,
		}
	}
	return &schemac.Guard{Query: derbyTableProbe, Args: []any{g.desc.CatalogName(table)}, Exists: exists}
}

func (derbyBackend) types(*generator, *schema.Table) ([]schemac.Statement, error) { return nil, nil }
func (derbyBackend) dropTypes(*generator, *schema.Table) []schemac.Statement      { return nil }

func (derbyBackend) triggers(g *generator, t *schema.Table) ([]schemac.Statement, error) {
	return ibmTriggers(g, t), nil
}

func (derbyBackend) postCreate(*generator, *schema.Table) ([]schemac.Statement, error) {
	return nil, nil
}

func (derbyBackend) truncate(g *generator, table string) string {
	return "TRUNCATE TABLE " + g.qt(table)
}

func (derbyBackend) createSchema(g *generator, name string) (string, bool) {
	return "CREATE SCHEMA " + g.q(name), true
}
