package compiler

import "github.com/syssam/schemac"

// TableSet holds the statements compiled for one table.
type TableSet struct {
	Table string
	// Skip marks an externally managed table. Its set is empty; the table
	// only took part in dependency ordering.
	Skip        bool
	CreateTypes []schemac.Statement
	CreateTable schemac.Statement
	Indexes     []schemac.Statement
	PostCreate  []schemac.Statement
	Triggers    []schemac.Statement
	DropTable   schemac.Statement
	DropTypes   []schemac.Statement
}

// Order assembles table sets given in dependency order into one batch: the
// drop phase followed by the create phase.
func Order(sets []*TableSet, preamble ...schemac.Statement) []schemac.Statement {
	return append(DropPhase(sets), CreatePhase(sets, preamble...)...)
}

// DropPhase returns the table drops in reverse dependency order followed by
// the type drops in dependency order.
func DropPhase(sets []*TableSet) []schemac.Statement {
	var out []schemac.Statement
	for i := len(sets) - 1; i >= 0; i-- {
		if !sets[i].Skip {
			out = append(out, sets[i].DropTable)
		}
	}
	for _, s := range sets {
		if !s.Skip {
			out = append(out, s.DropTypes...)
		}
	}
	return out
}

// CreatePhase returns the preamble, then for each table in dependency order
// its types, the table, its indexes, post-create alterations and triggers.
func CreatePhase(sets []*TableSet, preamble ...schemac.Statement) []schemac.Statement {
	out := append([]schemac.Statement(nil), preamble...)
	for _, s := range sets {
		if s.Skip {
			continue
		}
		out = append(out, s.CreateTypes...)
		out = append(out, s.CreateTable)
		out = append(out, s.Indexes...)
		out = append(out, s.PostCreate...)
		out = append(out, s.Triggers...)
	}
	return out
}
