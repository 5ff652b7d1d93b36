// Package decompiler rebuilds a schema model from the catalog metadata of a
// live database.
//
// Decompilation is the inverse of compilation for the features a catalog
// reports: column types, nullability, literal and generated defaults, the
// primary key, single-column unique constraints, indexes, single-column
// foreign keys and check constraints. Checks the compiler derives from types
// (integer width ranges, decimal limits, enumeration lists) fold back into
// the column types.
package decompiler

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/decompiler/catalog"
	"github.com/syssam/schemac/dialect"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

// Decompiler reads the catalog of one vendor. It is safe for concurrent use.
type Decompiler struct {
	vendor dialect.Vendor
	desc   *dialect.Descriptor
	rules  vendorRules
}

// vendorRules holds what differs between vendors when reading a catalog.
type vendorRules interface {
	// columnType maps a native column type, or returns nil.
	columnType(c catalog.Column) field.Type
	// checkClause rewrites a check clause into the form the check parser
	// reads.
	checkClause(clause string) string
}

var rules = map[dialect.Vendor]vendorRules{
	dialect.MySQL:    mysqlRules{},
	dialect.MariaDB:  mysqlRules{},
	dialect.Postgres: postgresRules{},
	dialect.Oracle:   oracleRules{},
	dialect.DB2:      ibmRules{},
	dialect.Derby:    ibmRules{},
	dialect.SQLite:   sqliteRules{},
}

// New returns a decompiler for v.
func New(v dialect.Vendor) (*Decompiler, error) {
	desc, err := dialect.Describe(v)
	if err != nil {
		return nil, err
	}
	r, ok := rules[v]
	if !ok {
		return nil, schemac.NewVendorUnsupportedError(string(v), "decompile")
	}
	return &Decompiler{vendor: v, desc: desc, rules: r}, nil
}

// Decompile reads every table r lists and returns them in catalog order.
// Constraints the model cannot express, such as composite unique or foreign
// keys, fail with an UnsupportedFeatureError rather than being dropped.
func (d *Decompiler) Decompile(ctx context.Context, r catalog.Reader) (*schema.Schema, error) {
	names, err := r.Tables(ctx)
	if err != nil {
		return nil, err
	}
	x := &run{Decompiler: d, reader: r, checks: newCheckParser(), schema: &schema.Schema{}}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := x.table(ctx, name)
		if err != nil {
			return nil, err
		}
		x.schema.Tables = append(x.schema.Tables, t)
	}
	return x.schema, nil
}

// run is the state of one Decompile call.
type run struct {
	*Decompiler
	reader catalog.Reader
	checks *checkParser
	schema *schema.Schema
}

func (x *run) name(ident string) string {
	return x.desc.SchemaName(ident)
}

func (x *run) table(ctx context.Context, name string) (*schema.Table, error) {
	t := &schema.Table{Name: x.name(name)}
	cols, err := x.reader.Columns(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		col, err := x.column(t, c)
		if err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, col)
	}
	pk, err := x.reader.PrimaryKey(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := x.primaryKey(t, pk); err != nil {
		return nil, err
	}
	uniques, err := x.reader.UniqueConstraints(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := x.uniques(t, uniques); err != nil {
		return nil, err
	}
	idx, err := x.reader.Indexes(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := x.indexes(t, idx); err != nil {
		return nil, err
	}
	fks, err := x.reader.ImportedKeys(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := x.foreignKeys(t, fks); err != nil {
		return nil, err
	}
	checks, err := x.reader.Checks(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := x.applyChecks(t, checks); err != nil {
		return nil, err
	}
	return t, nil
}

func (x *run) column(t *schema.Table, c catalog.Column) (*schema.Column, error) {
	name := x.name(c.Name)
	typ := x.rules.columnType(c)
	if typ == nil {
		return nil, schemac.NewUnsupportedFeatureError(string(x.vendor), t.Name, name, "native type "+c.TypeName)
	}
	if e, ok := typ.(*field.EnumType); ok && e.Template != "" && x.schema.Enum(e.Template) == nil {
		x.schema.Enums = append(x.schema.Enums, &schema.EnumTemplate{Name: e.Template, Values: slices.Clone(c.EnumValues)})
	}
	col := &schema.Column{Name: name, Type: typ, NotNull: !c.Nullable}
	switch {
	case c.AutoIncrement:
		col.Generate = field.AutoIncrement
	case c.Default != nil:
		v, gen, ok := decodeDefault(*c.Default, typ)
		switch {
		case !ok:
		case gen != field.GenerateNone:
			col.Generate = gen
		default:
			col.Default = &v
		}
	}
	if c.OnUpdateNow && col.Default == nil && (col.Generate == field.Timestamp || col.Generate == field.GenerateNone) {
		col.Generate = field.UpdateTimestamp
	}
	if !col.Generate.Allowed(typ) {
		feature := "generated value on " + typ.Name()
		if c.Default != nil {
			feature = fmt.Sprintf("default expression %q", *c.Default)
		}
		return nil, schemac.NewUnsupportedFeatureError(string(x.vendor), t.Name, name, feature)
	}
	return col, nil
}

func (x *run) primaryKey(t *schema.Table, pk []string) error {
	if len(pk) == 0 {
		return nil
	}
	t.PrimaryKey = &schema.PrimaryKey{}
	for _, name := range pk {
		c := t.Column(x.name(name))
		if c == nil {
			return schemac.NewSchemaValidationError(schemac.KindUnknownReference, t.Name, name, "primary key references an unknown column")
		}
		c.NotNull = true
		t.PrimaryKey.Columns = append(t.PrimaryKey.Columns, c.Name)
	}
	return nil
}

func (x *run) uniques(t *schema.Table, keys []catalog.KeyColumn) error {
	groups := group(keys, func(k catalog.KeyColumn) string { return k.Constraint }, func(k catalog.KeyColumn) int { return k.Ordinal })
	for _, g := range groups {
		if len(g) > 1 {
			return schemac.NewUnsupportedCompositeError(string(x.vendor), t.Name, x.name(g[0].Constraint), "unique")
		}
		c := t.Column(x.name(g[0].Column))
		if c == nil {
			return schemac.NewSchemaValidationError(schemac.KindUnknownReference, t.Name, g[0].Column, "unique constraint %q references an unknown column", g[0].Constraint)
		}
		c.Unique = true
	}
	return nil
}

// indexes groups index columns by index name. Every row of an index must
// agree on uniqueness and kind.
func (x *run) indexes(t *schema.Table, cols []catalog.IndexColumn) error {
	groups := group(cols, func(c catalog.IndexColumn) string { return c.Index }, func(c catalog.IndexColumn) int { return c.Ordinal })
	for _, g := range groups {
		first := g[0]
		idx := &schema.Index{Name: x.name(first.Index), Unique: first.Unique, Kind: indexKind(first.Kind)}
		for _, c := range g {
			switch {
			case c.Unique != first.Unique:
				return schemac.NewInconsistentIndexError(t.Name, idx.Name, "columns disagree on uniqueness")
			case indexKind(c.Kind) != idx.Kind:
				return schemac.NewInconsistentIndexError(t.Name, idx.Name, fmt.Sprintf("columns disagree on kind (%s, %s)", first.Kind, c.Kind))
			}
			idx.Columns = append(idx.Columns, x.name(c.Column))
		}
		t.Indexes = append(t.Indexes, idx)
	}
	return nil
}

func indexKind(s string) index.Kind {
	if k, err := index.ParseKind(s); err == nil {
		return k
	}
	return index.BTree
}

var changeRules = map[int]schema.ChangeRule{
	catalog.RuleCascade:    schema.Cascade,
	catalog.RuleRestrict:   schema.Restrict,
	catalog.RuleSetNull:    schema.SetNull,
	catalog.RuleNoAction:   schema.NoRule,
	catalog.RuleSetDefault: schema.SetDefault,
}

func (x *run) foreignKeys(t *schema.Table, keys []catalog.ImportedKey) error {
	groups := group(keys, func(k catalog.ImportedKey) string { return k.Name }, func(k catalog.ImportedKey) int { return k.Ordinal })
	for _, g := range groups {
		k := g[0]
		if len(g) > 1 {
			return schemac.NewUnsupportedCompositeError(string(x.vendor), t.Name, x.name(k.Name), "foreign key")
		}
		onUpdate, ok := changeRules[k.UpdateRule]
		if !ok {
			return fmt.Errorf("schemac: foreign key %q of %s: unknown update rule %d", k.Name, t.Name, k.UpdateRule)
		}
		onDelete, ok := changeRules[k.DeleteRule]
		if !ok {
			return fmt.Errorf("schemac: foreign key %q of %s: unknown delete rule %d", k.Name, t.Name, k.DeleteRule)
		}
		t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKey{
			Columns:    []string{x.name(k.Column)},
			RefTable:   x.name(k.RefTable),
			RefColumns: []string{x.name(k.RefColumn)},
			OnDelete:   onDelete,
			OnUpdate:   onUpdate,
		})
	}
	return nil
}

// group splits rows by key, keeping the first-seen order of keys, and sorts
// each group by ordinal.
func group[T any](rows []T, key func(T) string, ordinal func(T) int) [][]T {
	var (
		order []string
		byKey = make(map[string][]T)
	)
	for _, r := range rows {
		k := key(r)
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], r)
	}
	out := make([][]T, 0, len(order))
	for _, k := range order {
		g := byKey[k]
		slices.SortStableFunc(g, func(a, b T) int { return cmp.Compare(ordinal(a), ordinal(b)) })
		out = append(out, g)
	}
	return out
}
