package ddl

import (
	"strconv"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

// backend holds what differs between vendors. Implementations are flat
// values; shared behavior lives on generator and in free functions.
type backend interface {
	// columnType renders the type clause of c.
	columnType(g *generator, t *schema.Table, c *schema.Column) (string, error)
	// autoIncrement renders an auto-increment column. A zero autoInc means
	// the column is emitted as a plain column. It records no warnings; they
	// are returned in notes.
	autoIncrement(g *generator, t *schema.Table, c *schema.Column) autoInc
	// generated returns the DEFAULT expression and column suffix of a
	// non auto-increment generation policy.
	generated(g *generator, t *schema.Table, c *schema.Column) (def, suffix string, ok bool)
	// binary renders a hex string as a binary literal.
	binary(hex string) string
	// now is the current timestamp expression.
	now() string

	nativeEnum() bool
	nativeBool() bool
	// widthCheck reports whether an integer width needs a synthesized range
	// check because the vendor maps it to a wider type.
	widthCheck(w field.Width) bool
	// enforcesPrecision reports whether DECIMAL precision is enforced by the
	// column type itself.
	enforcesPrecision() bool
	// boundsOnAutoIncrement reports whether CHECKs may reference an
	// auto-increment column.
	boundsOnAutoIncrement() bool
	// changeRule reports whether the rule can be expressed.
	changeRule(onUpdate bool, r schema.ChangeRule) bool
	// indexKind adjusts an index definition to what the vendor supports.
	indexKind(kind index.Kind, unique bool, columns int) indexFit
	createIndex(g *generator, unique bool, name string, kind index.Kind, table string, columns []string) string
	primaryKeySuffix(kind index.Kind) string

	createGuarded(g *generator, table, body string) schemac.Statement
	dropGuarded(g *generator, table string) schemac.Statement
	types(g *generator, t *schema.Table) ([]schemac.Statement, error)
	dropTypes(g *generator, t *schema.Table) []schemac.Statement
	triggers(g *generator, t *schema.Table) ([]schemac.Statement, error)
	postCreate(g *generator, t *schema.Table) ([]schemac.Statement, error)
	truncate(g *generator, table string) string
	createSchema(g *generator, name string) (string, bool)
}

// autoInc is the rendering of an auto-increment column.
type autoInc struct {
	// typ replaces the column type clause when set.
	typ string
	// def is the DEFAULT expression.
	def string
	// suffix follows the NOT NULL clause.
	suffix string
	// inlinePK reports that the suffix declares the primary key, so no
	// table-level PRIMARY KEY clause is emitted.
	inlinePK bool
	// external reports that values are assigned outside the column
	// definition, by a sequence trigger.
	external bool
	// notes are the degradations of the rendering.
	notes []string
}

func (a autoInc) zero() bool {
	return a.typ == "" && a.def == "" && a.suffix == "" && !a.inlinePK && !a.external
}

// indexFit is an index definition adjusted to a vendor.
type indexFit struct {
	kind   index.Kind
	unique bool
	// drop reports that the index cannot be created at all.
	drop bool
	// reason explains a degradation; empty when the definition is unchanged.
	reason string
}

// exact returns the definition unchanged.
func exact(kind index.Kind, unique bool) indexFit {
	return indexFit{kind: kind, unique: unique}
}

// btreeOnly degrades hash indexes to btree.
func btreeOnly(kind index.Kind, unique bool) indexFit {
	if kind == index.Hash {
		return indexFit{kind: index.BTree, unique: unique, reason: "hash indexes are not supported; using btree"}
	}
	return exact(kind, unique)
}

// isAutoIncrement reports whether c is an auto-increment integer column.
func isAutoIncrement(c *schema.Column) bool {
	_, ok := c.Type.(*field.IntegerType)
	return ok && c.Generate == field.AutoIncrement
}

// startValue returns the first value of an auto-increment column: its
// DEFAULT, else its MIN.
func startValue(c *schema.Column) (int64, bool) {
	if c.Default != nil {
		if v, err := strconv.ParseInt(*c.Default, 10, 64); err == nil {
			return v, true
		}
	}
	if it, ok := c.Type.(*field.IntegerType); ok && it.Min != nil {
		return *it.Min, true
	}
	return 0, false
}

// autoIncrementColumn returns the auto-increment column of t, if any.
func autoIncrementColumn(t *schema.Table) *schema.Column {
	for _, c := range t.Columns {
		if isAutoIncrement(c) {
			return c
		}
	}
	return nil
}

// enumColumns returns the enum-typed columns of t.
func enumColumns(t *schema.Table) []*schema.Column {
	var cols []*schema.Column
	for _, c := range t.Columns {
		if _, ok := c.Type.(*field.EnumType); ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// enumTypeName returns the name of the native type of an enum column: the
// template name, or a name derived from the declaring table.
func (g *generator) enumTypeName(t *schema.Table, c *schema.Column) string {
	e := c.Type.(*field.EnumType)
	if e.Template != "" {
		return e.Template
	}
	decl := e.DeclaringTable
	if decl == "" {
		decl = t.Name
	}
	return g.env.Names.EnumType(decl, c.Name)
}

// enumValues resolves the values of an enum column.
func (g *generator) enumValues(t *schema.Table, c *schema.Column) ([]string, error) {
	e := c.Type.(*field.EnumType)
	if g.env.Schema == nil {
		if e.Template != "" {
			return nil, schemac.NewSchemaValidationError(schemac.KindUnknownReference, t.Name, c.Name,
				"unknown enum template %q", e.Template)
		}
		return e.Values, nil
	}
	vals, err := g.env.Schema.EnumValues(e)
	if err != nil {
		return nil, schemac.NewSchemaValidationError(schemac.KindUnknownReference, t.Name, c.Name, "%v", err)
	}
	return vals, nil
}

// maxLen returns the length of the longest value.
func maxLen(values []string) int {
	n := 1
	for _, v := range values {
		if l := len([]rune(v)); l > n {
			n = l
		}
	}
	return n
}

var (
	_ backend = mysqlBackend{}
	_ backend = postgresBackend{}
	_ backend = oracleBackend{}
	_ backend = db2Backend{}
	_ backend = derbyBackend{}
	_ backend = sqliteBackend{}
)
