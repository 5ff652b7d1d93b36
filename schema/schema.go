package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
)

// Schema is an ordered list of tables plus the enumeration templates they
// reference.
type Schema struct {
	// Name is the optional namespace the tables are created in.
	Name   string
	Tables []*Table
	Enums  []*EnumTemplate
}

// EnumTemplate is a named enumeration shared by several columns.
type EnumTemplate struct {
	Name   string
	Values []string
}

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Enum returns the enumeration template with the given name, or nil.
func (s *Schema) Enum(name string) *EnumTemplate {
	for _, e := range s.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// EnumValues returns the values of an enumeration type, resolving templates.
func (s *Schema) EnumValues(e *field.EnumType) ([]string, error) {
	if e.Template == "" {
		return e.Values, nil
	}
	tpl := s.Enum(e.Template)
	if tpl == nil {
		return nil, fmt.Errorf("schema: unknown enum template %q", e.Template)
	}
	return tpl.Values, nil
}

// Table is a relational table definition.
type Table struct {
	Name string
	// Abstract tables are inheritance templates and are never materialized.
	Abstract bool
	// Skip excludes the table from drop and create emission.
	Skip bool
	// Extends names the ancestor table, if any.
	Extends     string
	Columns     []*Column
	PrimaryKey  *PrimaryKey
	Uniques     []*Unique
	Checks      []*Check
	ForeignKeys []*ForeignKey
	Indexes     []*Index
	Triggers    []*Trigger
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// PrimaryKeyColumns returns the primary key column names, or nil.
func (t *Table) PrimaryKeyColumns() []string {
	if t.PrimaryKey == nil {
		return nil
	}
	return t.PrimaryKey.Columns
}

// HasKey reports whether the column set is covered by the primary key, a
// unique constraint or an index of t. Column order does not matter.
func (t *Table) HasKey(columns []string) bool {
	if t.PrimaryKey != nil && sameSet(t.PrimaryKey.Columns, columns) {
		return true
	}
	for _, u := range t.Uniques {
		if sameSet(u.Columns, columns) {
			return true
		}
	}
	for _, i := range t.Indexes {
		if sameSet(i.Columns, columns) {
			return true
		}
	}
	if len(columns) == 1 {
		if c := t.Column(columns[0]); c != nil && (c.Unique || c.Index != nil) {
			return true
		}
	}
	return false
}

// Column is a typed table column. Columns are nullable unless NotNull is set.
type Column struct {
	Name     string
	Type     field.Type
	NotNull  bool
	Default  *string
	Generate field.Generate
	// Check is an optional single-column check on this column. Its Column
	// field may be empty.
	Check *Predicate
	// Unique marks a single-column unique constraint.
	Unique bool
	// Index declares an inline single-column index.
	Index *ColumnIndex
}

// ColumnIndex is an index declared inline on one column.
type ColumnIndex struct {
	Kind   index.Kind
	Unique bool
}

// PrimaryKey lists the primary key columns in order.
type PrimaryKey struct {
	Columns []string
	// Kind is a hint for vendors that let the key's index kind be chosen.
	Kind index.Kind
}

// Unique is a unique constraint over a column set.
type Unique struct {
	Columns []string
}

// Check is a named table-level check constraint. An empty name is derived
// from the predicate.
type Check struct {
	Name string
	Expr CheckExpr
}

// ForeignKey references a column set of another table. A single column on
// each side makes it unary; more makes it composite.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   ChangeRule
	OnUpdate   ChangeRule
}

// Index is an explicit table index.
type Index struct {
	Name    string
	Columns []string
	Kind    index.Kind
	Unique  bool
}

// ChangeRule is a foreign key ON DELETE / ON UPDATE behavior.
type ChangeRule string

// Change rules. NoRule emits no clause and leaves the database default.
const (
	NoRule     ChangeRule = ""
	Cascade    ChangeRule = "CASCADE"
	Restrict   ChangeRule = "RESTRICT"
	SetNull    ChangeRule = "SET NULL"
	SetDefault ChangeRule = "SET DEFAULT"
)

// ParseChangeRule parses a change rule, accepting "set_null" style spellings
// and "none"/"no action" for NoRule.
func ParseChangeRule(s string) (ChangeRule, error) {
	norm := strings.ToUpper(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s)))
	switch ChangeRule(norm) {
	case Cascade, Restrict, SetNull, SetDefault:
		return ChangeRule(norm), nil
	}
	switch norm {
	case "", "NONE", "NO ACTION":
		return NoRule, nil
	}
	return NoRule, fmt.Errorf("schema: unknown change rule %q", s)
}

// TriggerTiming is when a trigger fires relative to its event.
type TriggerTiming string

// Trigger timings.
const (
	Before TriggerTiming = "BEFORE"
	After  TriggerTiming = "AFTER"
)

// TriggerEvent is a row event a trigger fires on.
type TriggerEvent string

// Trigger events.
const (
	OnInsert TriggerEvent = "INSERT"
	OnUpdate TriggerEvent = "UPDATE"
	OnDelete TriggerEvent = "DELETE"
)

// Trigger is a row-level trigger. Body holds the vendor's trigger statements
// and is emitted verbatim inside the vendor's trigger syntax.
type Trigger struct {
	Name   string
	Timing TriggerTiming
	Events []TriggerEvent
	Body   string
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	c := &Schema{Name: s.Name}
	for _, t := range s.Tables {
		c.Tables = append(c.Tables, t.Clone())
	}
	for _, e := range s.Enums {
		c.Enums = append(c.Enums, &EnumTemplate{Name: e.Name, Values: slices.Clone(e.Values)})
	}
	return c
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{Name: t.Name, Abstract: t.Abstract, Skip: t.Skip, Extends: t.Extends}
	for _, col := range t.Columns {
		c.Columns = append(c.Columns, col.Clone())
	}
	if t.PrimaryKey != nil {
		c.PrimaryKey = &PrimaryKey{Columns: slices.Clone(t.PrimaryKey.Columns), Kind: t.PrimaryKey.Kind}
	}
	for _, u := range t.Uniques {
		c.Uniques = append(c.Uniques, &Unique{Columns: slices.Clone(u.Columns)})
	}
	for _, ck := range t.Checks {
		c.Checks = append(c.Checks, &Check{Name: ck.Name, Expr: CloneExpr(ck.Expr)})
	}
	for _, fk := range t.ForeignKeys {
		f := *fk
		f.Columns, f.RefColumns = slices.Clone(fk.Columns), slices.Clone(fk.RefColumns)
		c.ForeignKeys = append(c.ForeignKeys, &f)
	}
	for _, i := range t.Indexes {
		idx := *i
		idx.Columns = slices.Clone(i.Columns)
		c.Indexes = append(c.Indexes, &idx)
	}
	for _, tr := range t.Triggers {
		trg := *tr
		trg.Events = slices.Clone(tr.Events)
		c.Triggers = append(c.Triggers, &trg)
	}
	return c
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	n := *c
	n.Type = field.Clone(c.Type)
	if c.Default != nil {
		d := *c.Default
		n.Default = &d
	}
	if c.Check != nil {
		p := *c.Check
		p.Values = slices.Clone(c.Check.Values)
		n.Check = &p
	}
	if c.Index != nil {
		i := *c.Index
		n.Index = &i
	}
	return &n
}
