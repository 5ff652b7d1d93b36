package load

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
	"github.com/syssam/schemac/schema/index"
	"github.com/syssam/schemac/schema/mixin"
)

// Schema is the document form of a schema.Schema.
type Schema struct {
	Name   string   `yaml:"name,omitempty"`
	Enums  []*Enum  `yaml:"enums,omitempty"`
	Tables []*Table `yaml:"tables"`
}

// Enum is a named enumeration template.
type Enum struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// Table is the document form of a schema.Table.
type Table struct {
	Name        string        `yaml:"name"`
	Abstract    bool          `yaml:"abstract,omitempty"`
	Skip        bool          `yaml:"skip,omitempty"`
	Extends     string        `yaml:"extends,omitempty"`
	Mixins      []string      `yaml:"mixins,omitempty"`
	Columns     []*Column     `yaml:"columns,omitempty"`
	PrimaryKey  *PrimaryKey   `yaml:"primary_key,omitempty"`
	Uniques     [][]string    `yaml:"uniques,omitempty"`
	Checks      []*Check      `yaml:"checks,omitempty"`
	ForeignKeys []*ForeignKey `yaml:"foreign_keys,omitempty"`
	Indexes     []*Index      `yaml:"indexes,omitempty"`
	Triggers    []*Trigger    `yaml:"triggers,omitempty"`
}

// Column is the document form of a schema.Column. Type names a field type:
// char, binary, blob, clob, boolean, tinyint, smallint, int, bigint, float,
// double, decimal, date, time, datetime or enum. Min and Max are strings so
// decimals keep their exact value.
type Column struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Length    int      `yaml:"length,omitempty"`
	Precision int      `yaml:"precision,omitempty"`
	Scale     int      `yaml:"scale,omitempty"`
	Min       *string  `yaml:"min,omitempty"`
	Max       *string  `yaml:"max,omitempty"`
	Values    []string `yaml:"values,omitempty"`
	Template  string   `yaml:"template,omitempty"`
	NotNull   bool     `yaml:"not_null,omitempty"`
	Default   *string  `yaml:"default,omitempty"`
	Generate  string   `yaml:"generate,omitempty"`
	Unique    bool     `yaml:"unique,omitempty"`
	Index     *Index   `yaml:"index,omitempty"`
	Check     *Expr    `yaml:"check,omitempty"`
}

// PrimaryKey lists the key columns.
type PrimaryKey struct {
	Columns []string `yaml:"columns"`
	Kind    string   `yaml:"kind,omitempty"`
}

// Check is a named table check.
type Check struct {
	Name string `yaml:"name,omitempty"`
	Expr *Expr  `yaml:"expr"`
}

// Expr is a check expression node: a predicate when Op is set, otherwise an
// AND or OR of its children.
type Expr struct {
	Column string   `yaml:"column,omitempty"`
	Op     string   `yaml:"op,omitempty"`
	Value  *string  `yaml:"value,omitempty"`
	Values []string `yaml:"values,omitempty"`
	And    []*Expr  `yaml:"and,omitempty"`
	Or     []*Expr  `yaml:"or,omitempty"`
}

// ForeignKey references a column set of another table.
type ForeignKey struct {
	Columns    []string   `yaml:"columns"`
	References *Reference `yaml:"references"`
	OnDelete   string     `yaml:"on_delete,omitempty"`
	OnUpdate   string     `yaml:"on_update,omitempty"`
}

// Reference is the referenced side of a foreign key.
type Reference struct {
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
}

// Index is an explicit index, or an inline column index when Columns is
// empty.
type Index struct {
	Name    string   `yaml:"name,omitempty"`
	Columns []string `yaml:"columns,omitempty"`
	Kind    string   `yaml:"kind,omitempty"`
	Unique  bool     `yaml:"unique,omitempty"`
}

// Trigger is a row-level trigger.
type Trigger struct {
	Name   string   `yaml:"name"`
	Timing string   `yaml:"timing,omitempty"`
	Events []string `yaml:"events"`
	Body   string   `yaml:"body"`
}

// Build converts the document into a schema graph.
func (s *Schema) Build() (*schema.Schema, error) {
	out := &schema.Schema{Name: s.Name}
	for _, e := range s.Enums {
		out.Enums = append(out.Enums, &schema.EnumTemplate{Name: e.Name, Values: e.Values})
	}
	for _, t := range s.Tables {
		nt, err := t.build()
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Name, err)
		}
		out.Tables = append(out.Tables, nt)
	}
	return out, nil
}

func (t *Table) build() (*schema.Table, error) {
	nt := &schema.Table{
		Name:     t.Name,
		Abstract: t.Abstract,
		Skip:     t.Skip,
		Extends:  t.Extends,
	}
	for _, c := range t.Columns {
		nc, err := c.build()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		nt.Columns = append(nt.Columns, nc)
	}
	if pk := t.PrimaryKey; pk != nil {
		kind, err := index.ParseKind(pk.Kind)
		if err != nil {
			return nil, fmt.Errorf("primary key: %w", err)
		}
		nt.PrimaryKey = &schema.PrimaryKey{Columns: pk.Columns, Kind: kind}
	}
	for _, u := range t.Uniques {
		nt.Uniques = append(nt.Uniques, &schema.Unique{Columns: u})
	}
	for _, ck := range t.Checks {
		expr, err := ck.Expr.build("")
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", ck.Name, err)
		}
		nt.Checks = append(nt.Checks, &schema.Check{Name: ck.Name, Expr: expr})
	}
	for _, fk := range t.ForeignKeys {
		nfk, err := fk.build()
		if err != nil {
			return nil, fmt.Errorf("foreign key (%s): %w", strings.Join(fk.Columns, ", "), err)
		}
		nt.ForeignKeys = append(nt.ForeignKeys, nfk)
	}
	for _, i := range t.Indexes {
		kind, err := index.ParseKind(i.Kind)
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", i.Name, err)
		}
		nt.Indexes = append(nt.Indexes, &schema.Index{Name: i.Name, Columns: i.Columns, Kind: kind, Unique: i.Unique})
	}
	for _, tr := range t.Triggers {
		ntr, err := tr.build()
		if err != nil {
			return nil, fmt.Errorf("trigger %q: %w", tr.Name, err)
		}
		nt.Triggers = append(nt.Triggers, ntr)
	}
	var mixins []mixin.Mixin
	for _, name := range t.Mixins {
		m, err := mixin.Lookup(name)
		if err != nil {
			return nil, err
		}
		mixins = append(mixins, m)
	}
	mixin.Apply(nt, mixins...)
	return nt, nil
}

func (c *Column) build() (*schema.Column, error) {
	typ, err := c.fieldType()
	if err != nil {
		return nil, err
	}
	gen, err := field.ParseGenerate(c.Generate)
	if err != nil {
		return nil, err
	}
	nc := &schema.Column{
		Name:     c.Name,
		Type:     typ,
		NotNull:  c.NotNull,
		Default:  c.Default,
		Generate: gen,
		Unique:   c.Unique,
	}
	if c.Index != nil {
		kind, err := index.ParseKind(c.Index.Kind)
		if err != nil {
			return nil, err
		}
		nc.Index = &schema.ColumnIndex{Kind: kind, Unique: c.Index.Unique}
	}
	if c.Check != nil {
		expr, err := c.Check.build(c.Name)
		if err != nil {
			return nil, fmt.Errorf("check: %w", err)
		}
		p, ok := expr.(*schema.Predicate)
		if !ok {
			return nil, fmt.Errorf("check: a column check must be a single predicate")
		}
		nc.Check = p
	}
	return nc, nil
}

func (c *Column) fieldType() (field.Type, error) {
	switch name := strings.ToLower(c.Type); name {
	case "char", "varchar", "string":
		return field.Char(c.Length), nil
	case "binary", "varbinary":
		return field.Binary(c.Length), nil
	case "blob":
		return field.Blob(), nil
	case "clob", "text":
		return field.Clob(), nil
	case "boolean", "bool":
		return field.Boolean(), nil
	case "tinyint", "smallint", "int", "bigint":
		w, err := field.ParseWidth(name)
		if err != nil {
			return nil, err
		}
		t := field.Integer(w)
		if t.Min, err = parseOpt(c.Min, parseInt); err != nil {
			return nil, err
		}
		if t.Max, err = parseOpt(c.Max, parseInt); err != nil {
			return nil, err
		}
		return t, nil
	case "float", "double":
		lo, err := parseOpt(c.Min, parseFloat)
		if err != nil {
			return nil, err
		}
		hi, err := parseOpt(c.Max, parseFloat)
		if err != nil {
			return nil, err
		}
		if name == "float" {
			return &field.FloatType{Min: lo, Max: hi}, nil
		}
		return &field.DoubleType{Min: lo, Max: hi}, nil
	case "decimal", "numeric":
		t := field.Decimal(c.Precision, c.Scale)
		var err error
		if t.Min, err = parseOpt(c.Min, decimal.NewFromString); err != nil {
			return nil, err
		}
		if t.Max, err = parseOpt(c.Max, decimal.NewFromString); err != nil {
			return nil, err
		}
		return t, nil
	case "date":
		return field.Date(), nil
	case "time":
		return field.Time(), nil
	case "datetime", "timestamp":
		return field.Datetime(), nil
	case "enum":
		if c.Template != "" {
			return field.EnumOf(c.Template), nil
		}
		return field.Enum(c.Values...), nil
	case "":
		return nil, fmt.Errorf("missing type")
	}
	return nil, fmt.Errorf("unknown type %q", c.Type)
}

func parseInt(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseOpt[T any](s *string, parse func(string) (T, error)) (*T, error) {
	if s == nil {
		return nil, nil
	}
	v, err := parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("invalid bound %q: %w", *s, err)
	}
	return &v, nil
}

// build converts the expression. column is the default predicate column
// used by column checks.
func (e *Expr) build(column string) (schema.CheckExpr, error) {
	if e == nil {
		return nil, fmt.Errorf("empty expression")
	}
	switch {
	case len(e.And) > 0 && len(e.Or) > 0, e.Op != "" && (len(e.And) > 0 || len(e.Or) > 0):
		return nil, fmt.Errorf("expression must be exactly one of a predicate, and, or")
	case len(e.And) > 0:
		return e.fold(column, e.And, schema.AllOf)
	case len(e.Or) > 0:
		return e.fold(column, e.Or, schema.AnyOf)
	}
	op, err := schema.ParseOp(e.Op)
	if err != nil {
		return nil, err
	}
	col := e.Column
	if col == "" {
		col = column
	}
	if col == "" {
		return nil, fmt.Errorf("predicate without a column")
	}
	values := e.Values
	if e.Value != nil {
		values = append([]string{*e.Value}, values...)
	}
	if len(values) == 0 || (op != schema.In && len(values) > 1) {
		return nil, fmt.Errorf("%s predicate on %q takes %s", op, col, arity(op))
	}
	return &schema.Predicate{Column: col, Op: op, Values: values}, nil
}

func arity(op schema.Op) string {
	if op == schema.In {
		return "one or more values"
	}
	return "exactly one value"
}

func (e *Expr) fold(column string, children []*Expr, join func(...schema.CheckExpr) schema.CheckExpr) (schema.CheckExpr, error) {
	exprs := make([]schema.CheckExpr, 0, len(children))
	for _, c := range children {
		x, err := c.build(column)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, x)
	}
	return join(exprs...), nil
}

func (fk *ForeignKey) build() (*schema.ForeignKey, error) {
	if fk.References == nil {
		return nil, fmt.Errorf("missing references")
	}
	onDelete, err := schema.ParseChangeRule(fk.OnDelete)
	if err != nil {
		return nil, err
	}
	onUpdate, err := schema.ParseChangeRule(fk.OnUpdate)
	if err != nil {
		return nil, err
	}
	return &schema.ForeignKey{
		Columns:    fk.Columns,
		RefTable:   fk.References.Table,
		RefColumns: fk.References.Columns,
		OnDelete:   onDelete,
		OnUpdate:   onUpdate,
	}, nil
}

func (tr *Trigger) build() (*schema.Trigger, error) {
	timing := schema.TriggerTiming(strings.ToUpper(tr.Timing))
	switch timing {
	case "":
		timing = schema.Before
	case schema.Before, schema.After:
	default:
		return nil, fmt.Errorf("unknown timing %q", tr.Timing)
	}
	nt := &schema.Trigger{Name: tr.Name, Timing: timing, Body: tr.Body}
	for _, ev := range tr.Events {
		e := schema.TriggerEvent(strings.ToUpper(ev))
		switch e {
		case schema.OnInsert, schema.OnUpdate, schema.OnDelete:
		default:
			return nil, fmt.Errorf("unknown event %q", ev)
		}
		nt.Events = append(nt.Events, e)
	}
	return nt, nil
}

// NewSchema returns the document form of s.
func NewSchema(s *schema.Schema) *Schema {
	doc := &Schema{Name: s.Name}
	for _, e := range s.Enums {
		doc.Enums = append(doc.Enums, &Enum{Name: e.Name, Values: e.Values})
	}
	for _, t := range s.Tables {
		doc.Tables = append(doc.Tables, NewTable(t))
	}
	return doc
}

// NewTable returns the document form of t.
func NewTable(t *schema.Table) *Table {
	doc := &Table{Name: t.Name, Abstract: t.Abstract, Skip: t.Skip, Extends: t.Extends}
	for _, c := range t.Columns {
		doc.Columns = append(doc.Columns, NewColumn(c))
	}
	if pk := t.PrimaryKey; pk != nil {
		doc.PrimaryKey = &PrimaryKey{Columns: pk.Columns, Kind: kindName(pk.Kind)}
	}
	for _, u := range t.Uniques {
		doc.Uniques = append(doc.Uniques, u.Columns)
	}
	for _, ck := range t.Checks {
		doc.Checks = append(doc.Checks, &Check{Name: ck.Name, Expr: newExpr(ck.Expr)})
	}
	for _, fk := range t.ForeignKeys {
		doc.ForeignKeys = append(doc.ForeignKeys, &ForeignKey{
			Columns:    fk.Columns,
			References: &Reference{Table: fk.RefTable, Columns: fk.RefColumns},
			OnDelete:   ruleName(fk.OnDelete),
			OnUpdate:   ruleName(fk.OnUpdate),
		})
	}
	for _, i := range t.Indexes {
		doc.Indexes = append(doc.Indexes, &Index{Name: i.Name, Columns: i.Columns, Kind: kindName(i.Kind), Unique: i.Unique})
	}
	for _, tr := range t.Triggers {
		nt := &Trigger{Name: tr.Name, Timing: strings.ToLower(string(tr.Timing)), Body: tr.Body}
		for _, ev := range tr.Events {
			nt.Events = append(nt.Events, strings.ToLower(string(ev)))
		}
		doc.Triggers = append(doc.Triggers, nt)
	}
	return doc
}

// NewColumn returns the document form of c.
func NewColumn(c *schema.Column) *Column {
	doc := &Column{
		Name:     c.Name,
		NotNull:  c.NotNull,
		Default:  c.Default,
		Generate: c.Generate.String(),
		Unique:   c.Unique,
	}
	switch t := c.Type.(type) {
	case *field.CharType:
		doc.Type, doc.Length = "char", t.Length
	case *field.BinaryType:
		doc.Type, doc.Length = "binary", t.Length
	case *field.BlobType:
		doc.Type = "blob"
	case *field.ClobType:
		doc.Type = "clob"
	case *field.BooleanType:
		doc.Type = "boolean"
	case *field.IntegerType:
		doc.Type = t.Width.String()
		doc.Min, doc.Max = formatOpt(t.Min, formatInt), formatOpt(t.Max, formatInt)
	case *field.FloatType:
		doc.Type = "float"
		doc.Min, doc.Max = formatOpt(t.Min, formatFloat), formatOpt(t.Max, formatFloat)
	case *field.DoubleType:
		doc.Type = "double"
		doc.Min, doc.Max = formatOpt(t.Min, formatFloat), formatOpt(t.Max, formatFloat)
	case *field.DecimalType:
		doc.Type, doc.Precision, doc.Scale = "decimal", t.Precision, t.Scale
		fixed := func(d decimal.Decimal) string { return d.StringFixed(int32(t.Scale)) }
		doc.Min, doc.Max = formatOpt(t.Min, fixed), formatOpt(t.Max, fixed)
	case *field.DateType:
		doc.Type = "date"
	case *field.TimeType:
		doc.Type = "time"
	case *field.DatetimeType:
		doc.Type = "datetime"
	case *field.EnumType:
		doc.Type, doc.Values, doc.Template = "enum", t.Values, t.Template
	}
	if c.Index != nil {
		doc.Index = &Index{Kind: kindName(c.Index.Kind), Unique: c.Index.Unique}
	}
	if c.Check != nil {
		e := newExpr(c.Check)
		if e.Column == c.Name {
			e.Column = ""
		}
		doc.Check = e
	}
	return doc
}

func newExpr(e schema.CheckExpr) *Expr {
	switch e := e.(type) {
	case *schema.Predicate:
		x := &Expr{Column: e.Column, Op: e.Op.Mnemonic()}
		if e.Op == schema.In {
			x.Values = e.Values
		} else {
			v := e.Operand()
			x.Value = &v
		}
		return x
	case *schema.Logical:
		// Flatten left-folded chains of the same operator.
		var children []*Expr
		var walk func(schema.CheckExpr)
		walk = func(n schema.CheckExpr) {
			if l, ok := n.(*schema.Logical); ok && l.Op == e.Op {
				walk(l.Left)
				walk(l.Right)
				return
			}
			children = append(children, newExpr(n))
		}
		walk(e)
		if e.Op == schema.Or {
			return &Expr{Or: children}
		}
		return &Expr{And: children}
	}
	return nil
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func formatOpt[T any](v *T, format func(T) string) *string {
	if v == nil {
		return nil
	}
	s := format(*v)
	return &s
}

func kindName(k index.Kind) string {
	if k == index.BTree {
		return ""
	}
	return k.String()
}

func ruleName(r schema.ChangeRule) string {
	return strings.ToLower(strings.ReplaceAll(string(r), " ", "_"))
}
