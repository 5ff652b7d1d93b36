package ddl

import (
	"slices"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/index"
)

// indexDef is an index after inline and table-level declarations over the
// same column set were merged.
type indexDef struct {
	name    string
	columns []string
	kind    index.Kind
	unique  bool
}

// mergedIndexes collects inline column indexes and table indexes. Indexes
// over the same ordered column set collapse into one; the table-level
// declaration provides name and kind, uniqueness is kept if either is unique.
func mergedIndexes(t *schema.Table) []*indexDef {
	var defs []*indexDef
	find := func(cols []string) *indexDef {
		for _, d := range defs {
			if slices.Equal(d.columns, cols) {
				return d
			}
		}
		return nil
	}
	for _, c := range t.Columns {
		if c.Index == nil {
			continue
		}
		cols := []string{c.Name}
		if d := find(cols); d != nil {
			d.unique = d.unique || c.Index.Unique
			continue
		}
		defs = append(defs, &indexDef{columns: cols, kind: c.Index.Kind, unique: c.Index.Unique})
	}
	for _, i := range t.Indexes {
		if d := find(i.Columns); d != nil {
			d.unique = d.unique || i.Unique
			d.kind = i.Kind
			if i.Name != "" {
				d.name = i.Name
			}
			continue
		}
		defs = append(defs, &indexDef{name: i.Name, columns: slices.Clone(i.Columns), kind: i.Kind, unique: i.Unique})
	}
	return defs
}

func (g *generator) CompileIndexes(t *schema.Table) ([]schemac.Statement, error) {
	var out []schemac.Statement
	for _, d := range mergedIndexes(t) {
		for _, col := range d.columns {
			if t.Column(col) == nil {
				return nil, schemac.NewSchemaValidationError(schemac.KindUnknownReference, t.Name, col, "index references unknown column")
			}
		}
		name := d.name
		if name == "" {
			name = g.env.Names.Index(t.Name, d.columns)
		} else {
			name = g.env.Names.Reserve(name)
		}
		if g.env.StrictIndexes {
			if fit := g.be.indexKind(d.kind, d.unique, len(d.columns)); fit.reason != "" {
				return nil, schemac.NewUnsupportedFeatureError(string(g.desc.Vendor), t.Name, name, fit.reason)
			}
		}
		if stmt, ok := g.CreateIndex(d.unique, name, d.kind, t.Name, d.columns); ok {
			out = append(out, stmt)
		}
	}
	return out, nil
}

func (g *generator) CreateIndex(unique bool, name string, kind index.Kind, table string, columns []string) (schemac.Statement, bool) {
	fit := g.be.indexKind(kind, unique, len(columns))
	if fit.reason != "" {
		g.warn(table, name, "%s", fit.reason)
	}
	if fit.drop {
		return schemac.Statement{}, false
	}
	return schemac.CreateStmt(g.be.createIndex(g, fit.unique, name, fit.kind, table, columns)), true
}

// createIndexSQL is the common CREATE [UNIQUE] INDEX form.
func createIndexSQL(g *generator, unique bool, name, table string, columns []string) string {
	kw := "CREATE INDEX "
	if unique {
		kw = "CREATE UNIQUE INDEX "
	}
	return kw + g.q(name) + " ON " + g.qt(table) + " (" + g.desc.QuoteIdents(columns) + ")"
}
