package schema

import (
	"slices"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema/field"
)

// Flatten resolves single-table inheritance. It returns a new schema in which
// every table carries its ancestors' columns, keys, checks, foreign keys and
// indexes, abstract tables are removed and no table extends another. The
// input schema is not modified.
func Flatten(s *Schema) (*Schema, error) {
	f := &flattener{
		src:      s,
		done:     make(map[string]*Table, len(s.Tables)),
		visiting: make(map[string]bool),
	}
	out := &Schema{Name: s.Name}
	for _, e := range s.Enums {
		out.Enums = append(out.Enums, &EnumTemplate{Name: e.Name, Values: slices.Clone(e.Values)})
	}
	for _, t := range s.Tables {
		ft, err := f.flatten(t.Name, nil)
		if err != nil {
			return nil, err
		}
		if !t.Abstract {
			out.Tables = append(out.Tables, ft.Clone())
		}
	}
	return out, nil
}

type flattener struct {
	src      *Schema
	done     map[string]*Table
	visiting map[string]bool
}

func (f *flattener) flatten(name string, path []string) (*Table, error) {
	if t, ok := f.done[name]; ok {
		return t, nil
	}
	path = append(path, name)
	if f.visiting[name] {
		return nil, schemac.NewCycleError(cyclePath(path))
	}
	src := f.src.Table(name)
	if src == nil {
		return nil, schemac.NewSchemaValidationError(schemac.KindUnknownAncestor, path[len(path)-2], "",
			"extends unknown table %q", name)
	}
	f.visiting[name] = true
	defer delete(f.visiting, name)

	t := src.Clone()
	for _, c := range t.Columns {
		if e, ok := c.Type.(*field.EnumType); ok && e.DeclaringTable == "" {
			e.DeclaringTable = t.Name
		}
	}
	if t.Extends != "" {
		anc, err := f.flatten(t.Extends, path)
		if err != nil {
			return nil, err
		}
		inherit(t, anc.Clone())
		t.Extends = ""
	}
	f.done[name] = t
	return t, nil
}

// cyclePath trims path to the cycle that closes at its last element.
func cyclePath(path []string) []string {
	last := path[len(path)-1]
	i := slices.Index(path, last)
	return slices.Clone(path[i:])
}

// inherit merges ancestor definitions into t. Definitions already declared by
// t take precedence over identical ancestor ones.
func inherit(t, anc *Table) {
	var cols []*Column
	for _, c := range anc.Columns {
		if t.Column(c.Name) == nil {
			cols = append(cols, c)
		}
	}
	t.Columns = append(cols, t.Columns...)

	if t.PrimaryKey == nil {
		t.PrimaryKey = anc.PrimaryKey
	}
	var uniques []*Unique
	for _, u := range anc.Uniques {
		if !slices.ContainsFunc(t.Uniques, func(o *Unique) bool { return sameSet(o.Columns, u.Columns) }) {
			uniques = append(uniques, u)
		}
	}
	t.Uniques = append(uniques, t.Uniques...)

	var indexes []*Index
	for _, i := range anc.Indexes {
		if !slices.ContainsFunc(t.Indexes, func(o *Index) bool { return sameSet(o.Columns, i.Columns) }) {
			i.Name = ""
			indexes = append(indexes, i)
		}
	}
	t.Indexes = append(indexes, t.Indexes...)

	var fks []*ForeignKey
	for _, fk := range anc.ForeignKeys {
		if !slices.ContainsFunc(t.ForeignKeys, func(o *ForeignKey) bool { return slices.Equal(o.Columns, fk.Columns) }) {
			fks = append(fks, fk)
		}
	}
	t.ForeignKeys = append(fks, t.ForeignKeys...)

	var checks []*Check
	for _, c := range anc.Checks {
		if c.Name == "" || !slices.ContainsFunc(t.Checks, func(o *Check) bool { return o.Name == c.Name }) {
			c.Name = ""
			checks = append(checks, c)
		}
	}
	t.Checks = append(checks, t.Checks...)
}
