// Package ddl turns flattened, ordered schema tables into vendor DDL.
//
// Generator is the per-vendor contract. Each vendor is a flat backend value
// supplying its type names, auto-increment strategy, existence guards and
// index restrictions; the shared generator drives them and validates every
// DEFAULT before it is emitted. Constructs a vendor cannot express exactly
// are degraded and reported as warnings in the run's Diagnostics.
package ddl

import (
	"strings"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/compiler/naming"
	"github.com/syssam/schemac/dialect"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/index"
)

// Generator compiles tables into statements for one vendor.
type Generator interface {
	// Vendor returns the target vendor.
	Vendor() dialect.Vendor
	// Descriptor returns the vendor's literal and identifier rules.
	Descriptor() *dialect.Descriptor
	// CompileColumn renders a column definition.
	CompileColumn(t *schema.Table, c *schema.Column) (string, error)
	// CompileConstraints renders the table's UNIQUE, CHECK, PRIMARY KEY and
	// FOREIGN KEY clauses, in that order.
	CompileConstraints(t *schema.Table) ([]string, error)
	// CompileIndexes returns one CREATE INDEX per distinct indexed column set.
	CompileIndexes(t *schema.Table) ([]schemac.Statement, error)
	// CompileTypes returns the auxiliary objects created before the table.
	CompileTypes(t *schema.Table) ([]schemac.Statement, error)
	// DropTypes returns the statements dropping the auxiliary objects.
	DropTypes(t *schema.Table) []schemac.Statement
	// CompileTriggers returns the table's triggers, declared and generated.
	CompileTriggers(t *schema.Table) ([]schemac.Statement, error)
	// PostCreate returns statements altering the table after creation.
	PostCreate(t *schema.Table) ([]schemac.Statement, error)
	// CreateTable returns the CREATE TABLE statement.
	CreateTable(t *schema.Table) (schemac.Statement, error)
	// CreateTableIfNotExists returns an existence-guarded CREATE TABLE.
	CreateTableIfNotExists(t *schema.Table) (schemac.Statement, error)
	// DropTable returns the DROP TABLE statement.
	DropTable(table string) schemac.Statement
	// DropTableIfExists returns an existence-guarded DROP TABLE.
	DropTableIfExists(table string) schemac.Statement
	// CreateIndex returns a CREATE INDEX statement, or false when the vendor
	// cannot express the index at all.
	CreateIndex(unique bool, name string, kind index.Kind, table string, columns []string) (schemac.Statement, bool)
	// Truncate returns a statement removing all rows of table.
	Truncate(table string) schemac.Statement
	// CreateSchema returns the statement creating the namespace, or false
	// when the vendor has none.
	CreateSchema(name string) (schemac.Statement, bool)
}

// Env is the state of one compile run shared by its generator.
type Env struct {
	// Schema is the flattened schema being compiled. It resolves enum
	// templates.
	Schema *schema.Schema
	Names  *naming.Context
	Diag   *schemac.Diagnostics
	// Namespace qualifies table and type names when set.
	Namespace string
	// StrictIndexes turns index degradations into errors.
	StrictIndexes bool
	// IfNotExists guards the auxiliary objects of CompileTypes.
	IfNotExists bool

	created map[string]bool
	dropped map[string]bool
}

// NewEnv returns the environment of one compile run.
func NewEnv(s *schema.Schema, names *naming.Context) *Env {
	return &Env{
		Schema:  s,
		Names:   names,
		Diag:    &schemac.Diagnostics{},
		created: make(map[string]bool),
		dropped: make(map[string]bool),
	}
}

// once reports whether key is seen for the first time in set.
func once(set map[string]bool, key string) bool {
	if set[key] {
		return false
	}
	set[key] = true
	return true
}

// New returns the generator of vendor v bound to env.
func New(v dialect.Vendor, env *Env) (Generator, error) {
	desc, err := dialect.Describe(v)
	if err != nil {
		return nil, err
	}
	var be backend
	switch v {
	case dialect.MySQL, dialect.MariaDB:
		be = mysqlBackend{}
	case dialect.Postgres:
		be = postgresBackend{}
	case dialect.Oracle:
		be = oracleBackend{}
	case dialect.DB2:
		be = db2Backend{}
	case dialect.Derby:
		be = derbyBackend{}
	case dialect.SQLite:
		be = sqliteBackend{}
	default:
		return nil, schemac.NewVendorUnsupportedError(string(v), "compile")
	}
	if env.Names == nil {
		env.Names = naming.NewContext(desc.MaxIdentifier)
	}
	return &generator{desc: desc, env: env, be: be}, nil
}

// generator implements Generator on top of a vendor backend.
type generator struct {
	desc *dialect.Descriptor
	env  *Env
	be   backend
}

func (g *generator) Vendor() dialect.Vendor          { return g.desc.Vendor }
func (g *generator) Descriptor() *dialect.Descriptor { return g.desc }

func (g *generator) warn(table, object, format string, args ...any) {
	g.env.Diag.Warnf(string(g.desc.Vendor), table, object, format, args...)
}

// q quotes an identifier.
func (g *generator) q(ident string) string { return g.desc.QuoteIdent(ident) }

// qt returns the quoted, schema-qualified table name.
func (g *generator) qt(table string) string {
	if ns := g.namespace(); ns != "" {
		return g.q(ns) + "." + g.q(table)
	}
	return g.q(table)
}

func (g *generator) namespace() string {
	if g.desc.Vendor == dialect.SQLite {
		return ""
	}
	return g.env.Namespace
}

func (g *generator) CreateTable(t *schema.Table) (schemac.Statement, error) {
	body, err := g.tableBody(t)
	if err != nil {
		return schemac.Statement{}, err
	}
	return schemac.CreateStmt("CREATE TABLE " + g.qt(t.Name) + " " + body), nil
}

func (g *generator) CreateTableIfNotExists(t *schema.Table) (schemac.Statement, error) {
	body, err := g.tableBody(t)
	if err != nil {
		return schemac.Statement{}, err
	}
	return g.be.createGuarded(g, t.Name, body), nil
}

func (g *generator) DropTable(table string) schemac.Statement {
	return schemac.DropStmt("DROP TABLE " + g.qt(table))
}

func (g *generator) DropTableIfExists(table string) schemac.Statement {
	return g.be.dropGuarded(g, table)
}

func (g *generator) Truncate(table string) schemac.Statement {
	return schemac.DropStmt(g.be.truncate(g, table))
}

func (g *generator) CreateSchema(name string) (schemac.Statement, bool) {
	sql, ok := g.be.createSchema(g, name)
	if !ok {
		g.warn("", name, "schemas are not supported; tables are created in the default namespace")
		return schemac.Statement{}, false
	}
	return schemac.CreateStmt(sql), true
}

func (g *generator) CompileTypes(t *schema.Table) ([]schemac.Statement, error) {
	return g.be.types(g, t)
}

func (g *generator) DropTypes(t *schema.Table) []schemac.Statement {
	return g.be.dropTypes(g, t)
}

func (g *generator) CompileTriggers(t *schema.Table) ([]schemac.Statement, error) {
	return g.be.triggers(g, t)
}

func (g *generator) PostCreate(t *schema.Table) ([]schemac.Statement, error) {
	return g.be.postCreate(g, t)
}

// tableBody renders the parenthesized column and constraint list.
func (g *generator) tableBody(t *schema.Table) (string, error) {
	var defs []string
	for _, c := range t.Columns {
		def, err := g.CompileColumn(t, c)
		if err != nil {
			return "", err
		}
		defs = append(defs, def)
	}
	cons, err := g.CompileConstraints(t)
	if err != nil {
		return "", err
	}
	defs = append(defs, cons...)
	return "(\n  " + strings.Join(defs, ",\n  ") + "\n)", nil
}
