package schema

import (
	"slices"

	"github.com/syssam/schemac"
)

// Edge is a dependency of table From on table To.
type Edge struct {
	From, To string
}

// Dependencies returns the inheritance and foreign key edges of s.
// Self-references are not dependencies.
func Dependencies(s *Schema) []Edge {
	edges := InheritanceEdges(s)
	for _, t := range s.Tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable != t.Name {
				edges = append(edges, Edge{From: t.Name, To: fk.RefTable})
			}
		}
	}
	return edges
}

// InheritanceEdges returns the extends edges of s.
func InheritanceEdges(s *Schema) []Edge {
	var edges []Edge
	for _, t := range s.Tables {
		if t.Extends != "" && t.Extends != t.Name {
			edges = append(edges, Edge{From: t.Name, To: t.Extends})
		}
	}
	return edges
}

// Order returns the table names of s in dependency order: every table comes
// after the tables it depends on. Extra edges, such as the inheritance edges
// of the schema s was flattened from, are added to those of s; extra edges
// naming tables absent from s are ignored. Tables without a relative order
// are visited by name, ascending.
func Order(s *Schema, extra ...Edge) ([]string, error) {
	deps := make(map[string][]string, len(s.Tables))
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
		deps[t.Name] = nil
	}
	for _, e := range Dependencies(s) {
		if _, ok := deps[e.To]; !ok {
			return nil, schemac.NewSchemaValidationError(schemac.KindUnknownReference, e.From, "",
				"references unknown table %q", e.To)
		}
		deps[e.From] = append(deps[e.From], e.To)
	}
	for _, e := range extra {
		_, from := deps[e.From]
		_, to := deps[e.To]
		if from && to && e.From != e.To {
			deps[e.From] = append(deps[e.From], e.To)
		}
	}
	slices.Sort(names)
	for n := range deps {
		slices.Sort(deps[n])
		deps[n] = slices.Compact(deps[n])
	}

	const (
		white = iota
		gray
		black
	)
	var (
		color = make(map[string]int, len(names))
		stack []string
		order = make([]string, 0, len(names))
	)
	var visit func(string) error
	visit = func(n string) error {
		color[n] = gray
		stack = append(stack, n)
		for _, d := range deps[n] {
			switch color[d] {
			case gray:
				i := slices.Index(stack, d)
				path := append(slices.Clone(stack[i:]), d)
				return schemac.NewCycleError(path)
			case white:
				if err := visit(d); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		order = append(order, n)
		return nil
	}
	for _, n := range names {
		if color[n] == white {
			if err := visit(n); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// Sort reorders the tables of s in place into dependency order.
func Sort(s *Schema, extra ...Edge) error {
	order, err := Order(s, extra...)
	if err != nil {
		return err
	}
	pos := make(map[string]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	slices.SortStableFunc(s.Tables, func(a, b *Table) int { return pos[a.Name] - pos[b.Name] })
	return nil
}
