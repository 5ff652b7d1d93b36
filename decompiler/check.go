package decompiler

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/mysql"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	"github.com/pingcap/tidb/pkg/parser/test_driver"
	"github.com/shopspring/decimal"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/compiler/ddl"
	"github.com/syssam/schemac/decompiler/catalog"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
)

// checkParser parses check clauses as SQL expressions. Double quotes delimit
// identifiers.
type checkParser struct {
	p *parser.Parser
}

func newCheckParser() *checkParser {
	p := parser.New()
	p.SetSQLMode(mysql.ModeANSIQuotes)
	return &checkParser{p: p}
}

var errUnsupportedExpr = errors.New("unsupported expression")

// parse returns the check tree of a clause.
func (cp *checkParser) parse(clause string) (schema.CheckExpr, error) {
	stmts, _, err := cp.p.ParseSQL("SELECT " + clause)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, errUnsupportedExpr
	}
	sel, ok := stmts[0].(*ast.SelectStmt)
	if !ok || sel.Fields == nil || len(sel.Fields.Fields) != 1 {
		return nil, errUnsupportedExpr
	}
	return toExpr(sel.Fields.Fields[0].Expr)
}

var (
	compareOps = map[opcode.Op]schema.Op{
		opcode.EQ: schema.Eq,
		opcode.NE: schema.Ne,
		opcode.LT: schema.Lt,
		opcode.LE: schema.Lte,
		opcode.GT: schema.Gt,
		opcode.GE: schema.Gte,
	}
	// flipped is the operator with its operands swapped.
	flipped = map[schema.Op]schema.Op{
		schema.Eq:  schema.Eq,
		schema.Ne:  schema.Ne,
		schema.Lt:  schema.Gt,
		schema.Lte: schema.Gte,
		schema.Gt:  schema.Lt,
		schema.Gte: schema.Lte,
	}
)

func toExpr(n ast.ExprNode) (schema.CheckExpr, error) {
	switch n := n.(type) {
	case *ast.ParenthesesExpr:
		return toExpr(n.Expr)
	case *ast.BinaryOperationExpr:
		switch n.Op {
		case opcode.LogicAnd, opcode.LogicOr:
			l, err := toExpr(n.L)
			if err != nil {
				return nil, err
			}
			r, err := toExpr(n.R)
			if err != nil {
				return nil, err
			}
			op := schema.And
			if n.Op == opcode.LogicOr {
				op = schema.Or
			}
			return &schema.Logical{Op: op, Left: l, Right: r}, nil
		}
		op, ok := compareOps[n.Op]
		if !ok {
			return nil, fmt.Errorf("%w: operator %s", errUnsupportedExpr, n.Op)
		}
		if col, ok := columnOf(n.L); ok {
			if v, ok := literal(n.R); ok {
				return schema.Compare(col, op, v), nil
			}
		}
		if col, ok := columnOf(n.R); ok {
			if v, ok := literal(n.L); ok {
				return schema.Compare(col, flipped[op], v), nil
			}
		}
		return nil, fmt.Errorf("%w: comparison is not column against literal", errUnsupportedExpr)
	case *ast.PatternInExpr:
		col, ok := columnOf(n.Expr)
		if !ok || n.Not || n.Sel != nil {
			return nil, fmt.Errorf("%w: IN", errUnsupportedExpr)
		}
		p := &schema.Predicate{Column: col, Op: schema.In}
		for _, item := range n.List {
			v, ok := literal(item)
			if !ok {
				return nil, fmt.Errorf("%w: IN list item", errUnsupportedExpr)
			}
			p.Values = append(p.Values, v)
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %T", errUnsupportedExpr, n)
}

func columnOf(n ast.ExprNode) (string, bool) {
	switch n := n.(type) {
	case *ast.ParenthesesExpr:
		return columnOf(n.Expr)
	case *ast.ColumnNameExpr:
		return n.Name.Name.O, true
	}
	return "", false
}

// literal returns the text of a constant. Typed temporal literals and
// TO_DATE calls yield their string argument.
func literal(n ast.ExprNode) (string, bool) {
	switch n := n.(type) {
	case *ast.ParenthesesExpr:
		return literal(n.Expr)
	case *test_driver.ValueExpr:
		switch v := n.GetValue().(type) {
		case nil:
			return "", false
		case string:
			return v, true
		case []byte:
			return string(v), true
		case fmt.Stringer:
			return v.String(), true
		default:
			return fmt.Sprint(v), true
		}
	case *ast.UnaryOperationExpr:
		s, ok := literal(n.V)
		switch {
		case !ok:
			return "", false
		case n.Op == opcode.Plus:
			return s, true
		case n.Op == opcode.Minus && strings.HasPrefix(s, "-"):
			return s[1:], true
		case n.Op == opcode.Minus:
			return "-" + s, true
		}
	case *ast.FuncCallExpr:
		switch n.FnName.L {
		case "dateliteral", "timeliteral", "timestampliteral", "to_date", "to_timestamp":
			if len(n.Args) > 0 {
				return literal(n.Args[0])
			}
		}
	}
	return "", false
}

// conjuncts splits a tree on its top-level ANDs.
func conjuncts(e schema.CheckExpr) []schema.CheckExpr {
	if l, ok := e.(*schema.Logical); ok && l.Op == schema.And {
		return append(conjuncts(l.Left), conjuncts(l.Right)...)
	}
	return []schema.CheckExpr{e}
}

// renameColumns maps every predicate column through name.
func renameColumns(e schema.CheckExpr, name func(string) string) {
	switch e := e.(type) {
	case *schema.Predicate:
		e.Column = name(e.Column)
	case *schema.Logical:
		renameColumns(e.Left, name)
		renameColumns(e.Right, name)
	}
}

// bounds is the tightest inclusive range seen for one numeric column.
type bounds struct {
	lo, hi *decimal.Decimal
}

func (b *bounds) add(op schema.Op, v decimal.Decimal) {
	switch op {
	case schema.Gte:
		if b.lo == nil || v.GreaterThan(*b.lo) {
			b.lo = &v
		}
	case schema.Lte:
		if b.hi == nil || v.LessThan(*b.hi) {
			b.hi = &v
		}
	}
}

// applyChecks folds the check constraints of t into the table. Each clause
// is split on AND; every conjunct must reference a single column.
//
// Conjuncts are mapped as follows: >= and <= on numeric columns become type
// bounds, IN on a character column becomes an enumeration, IN (0, 1) on an
// integer column becomes a boolean, and the remaining predicates become
// column checks. Disjunctions stay table checks.
func (x *run) applyChecks(t *schema.Table, checks []catalog.Check) error {
	ranges := make(map[*schema.Column]*bounds)
	for _, ck := range checks {
		name := x.name(ck.Name)
		expr, err := x.checks.parse(x.rules.checkClause(ck.Clause))
		if err != nil {
			return schemac.NewUnsupportedFeatureError(string(x.vendor), t.Name, name, fmt.Sprintf("check clause %q", ck.Clause))
		}
		renameColumns(expr, x.name)
		for _, conj := range conjuncts(expr) {
			cols := schema.ExprColumns(conj)
			if len(cols) != 1 {
				return schemac.NewUnsupportedCompositeError(string(x.vendor), t.Name, name, "check")
			}
			c := t.Column(cols[0])
			if c == nil {
				return schemac.NewSchemaValidationError(schemac.KindUnknownReference, t.Name, cols[0], "check %q references an unknown column", name)
			}
			p, ok := conj.(*schema.Predicate)
			if !ok {
				t.Checks = append(t.Checks, &schema.Check{Name: name, Expr: conj})
				name = ""
				continue
			}
			if b, ok := boundOf(c, p); ok {
				r := ranges[c]
				if r == nil {
					r = &bounds{}
					ranges[c] = r
				}
				r.add(p.Op, b)
				continue
			}
			if foldIn(c, p) {
				continue
			}
			if c.Check == nil {
				c.Check = p
				continue
			}
			t.Checks = append(t.Checks, &schema.Check{Expr: p})
		}
	}
	for _, c := range t.Columns {
		if r, ok := ranges[c]; ok {
			applyBounds(c, r)
		}
	}
	return nil
}

// boundOf returns the operand of an inclusive range predicate on a numeric
// column.
func boundOf(c *schema.Column, p *schema.Predicate) (decimal.Decimal, bool) {
	if p.Op != schema.Gte && p.Op != schema.Lte {
		return decimal.Decimal{}, false
	}
	switch c.Type.(type) {
	case *field.IntegerType, *field.FloatType, *field.DoubleType, *field.DecimalType:
	default:
		return decimal.Decimal{}, false
	}
	v, err := decimal.NewFromString(strings.TrimSpace(p.Operand()))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return v, true
}

// foldIn turns an IN list into the column type it encodes. It reports
// whether the predicate was consumed.
func foldIn(c *schema.Column, p *schema.Predicate) bool {
	if p.Op != schema.In {
		return false
	}
	switch c.Type.(type) {
	case *field.CharType:
		c.Type = field.Enum(p.Values...)
		return true
	case *field.IntegerType:
		if isBoolList(p.Values) {
			c.Type = field.Boolean()
			return true
		}
	case *field.BooleanType:
		return isBoolList(p.Values)
	}
	return false
}

func isBoolList(values []string) bool {
	set := make([]string, 0, len(values))
	for _, v := range values {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false":
			set = append(set, "0")
		case "1", "true":
			set = append(set, "1")
		default:
			return false
		}
	}
	slices.Sort(set)
	return slices.Equal(slices.Compact(set), []string{"0", "1"})
}

// integer widths from narrowest to widest.
var widths = []field.Width{field.Tinyint, field.Smallint, field.Int, field.Bigint}

// applyBounds moves a range onto the column type, dropping the parts implied
// by the type itself. An integer range matching a narrower width narrows the
// column.
func applyBounds(c *schema.Column, r *bounds) {
	switch typ := c.Type.(type) {
	case *field.IntegerType:
		if r.lo != nil && r.hi != nil {
			for _, w := range widths {
				lo, hi := w.Bounds()
				if r.lo.Equal(decimal.NewFromInt(lo)) && r.hi.Equal(decimal.NewFromInt(hi)) {
					typ.Width = w
					return
				}
				if w == typ.Width {
					break
				}
			}
		}
		lo, hi := typ.Width.Bounds()
		if r.lo != nil && r.lo.GreaterThan(decimal.NewFromInt(lo)) {
			v := r.lo.Ceil().IntPart()
			typ.Min = &v
		}
		if r.hi != nil && r.hi.LessThan(decimal.NewFromInt(hi)) {
			v := r.hi.Floor().IntPart()
			typ.Max = &v
		}
	case *field.DecimalType:
		lim := ddl.DecimalLimit(typ.Precision, typ.Scale)
		if r.lo != nil && r.lo.GreaterThan(lim.Neg()) {
			typ.Min = r.lo
		}
		if r.hi != nil && r.hi.LessThan(lim) {
			typ.Max = r.hi
		}
	case *field.FloatType:
		typ.Min, typ.Max = floatBound(r.lo), floatBound(r.hi)
	case *field.DoubleType:
		typ.Min, typ.Max = floatBound(r.lo), floatBound(r.hi)
	}
}

func floatBound(v *decimal.Decimal) *float64 {
	if v == nil {
		return nil
	}
	f, _ := v.Float64()
	return &f
}
