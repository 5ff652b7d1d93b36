package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Op is a comparison operator of a check predicate.
type Op int

// Comparison operators.
const (
	Eq Op = iota
	Ne
	Lt
	Lte
	Gt
	Gte
	In
)

var ops = [...]struct{ sql, mnemonic string }{
	Eq:  {"=", "eq"},
	Ne:  {"<>", "ne"},
	Lt:  {"<", "lt"},
	Lte: {"<=", "lte"},
	Gt:  {">", "gt"},
	Gte: {">=", "gte"},
	In:  {"IN", "in"},
}

// SQL returns the operator token.
func (o Op) SQL() string { return ops[o].sql }

// Mnemonic returns the short name used in constraint names.
func (o Op) Mnemonic() string { return ops[o].mnemonic }

func (o Op) String() string { return o.Mnemonic() }

// ParseOp parses an operator given either as its SQL token or its mnemonic.
func ParseOp(s string) (Op, error) {
	s = strings.TrimSpace(s)
	for i, o := range ops {
		if strings.EqualFold(o.sql, s) || strings.EqualFold(o.mnemonic, s) {
			return Op(i), nil
		}
	}
	if s == "!=" {
		return Ne, nil
	}
	return 0, fmt.Errorf("schema: unknown check operator %q", s)
}

// LogicOp joins two check expressions.
type LogicOp int

// Logical operators.
const (
	And LogicOp = iota
	Or
)

func (o LogicOp) String() string {
	if o == Or {
		return "OR"
	}
	return "AND"
}

// CheckExpr is a check predicate tree: a *Predicate leaf or a *Logical node.
type CheckExpr interface {
	checkExpr()
}

// Predicate compares a column against literal operands. Values holds one
// operand except for In.
type Predicate struct {
	Column string
	Op     Op
	Values []string
}

// Logical joins two expressions with AND or OR.
type Logical struct {
	Op          LogicOp
	Left, Right CheckExpr
}

func (*Predicate) checkExpr() {}
func (*Logical) checkExpr()   {}

// Operand returns the first operand.
func (p *Predicate) Operand() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[0]
}

// Compare returns a single-operand predicate.
func Compare(column string, op Op, value string) *Predicate {
	return &Predicate{Column: column, Op: op, Values: []string{value}}
}

// AllOf folds expressions left to right with AND.
func AllOf(exprs ...CheckExpr) CheckExpr { return fold(And, exprs) }

// AnyOf folds expressions left to right with OR.
func AnyOf(exprs ...CheckExpr) CheckExpr { return fold(Or, exprs) }

func fold(op LogicOp, exprs []CheckExpr) CheckExpr {
	if len(exprs) == 0 {
		return nil
	}
	e := exprs[0]
	for _, r := range exprs[1:] {
		e = &Logical{Op: op, Left: e, Right: r}
	}
	return e
}

// ExprColumns returns the distinct columns referenced by e in first-use order.
func ExprColumns(e CheckExpr) []string {
	var cols []string
	var walk func(CheckExpr)
	walk = func(e CheckExpr) {
		switch e := e.(type) {
		case *Predicate:
			if !slices.Contains(cols, e.Column) {
				cols = append(cols, e.Column)
			}
		case *Logical:
			walk(e.Left)
			walk(e.Right)
		}
	}
	walk(e)
	return cols
}

// CloneExpr returns a deep copy of e.
func CloneExpr(e CheckExpr) CheckExpr {
	switch e := e.(type) {
	case *Predicate:
		return &Predicate{Column: e.Column, Op: e.Op, Values: slices.Clone(e.Values)}
	case *Logical:
		return &Logical{Op: e.Op, Left: CloneExpr(e.Left), Right: CloneExpr(e.Right)}
	}
	return nil
}
