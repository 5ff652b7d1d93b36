// Package naming generates deterministic constraint, index and auxiliary
// object names.
//
// Names have the form <prefix>_<table>_<columns-or-hash>. A Context is owned
// by one compile run: it tracks index names already handed out and appends a
// numeric suffix on collision. Contexts are never shared between runs.
package naming

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/syssam/schemac/schema"
)

// Name prefixes.
const (
	PrimaryKeyPrefix = "pk"
	ForeignKeyPrefix = "fk"
	UniquePrefix     = "uq"
	CheckPrefix      = "ck"
	IndexPrefix      = "idx"
)

// Context names the objects of one compile run.
type Context struct {
	// MaxLen is the longest identifier the target accepts; 0 is unbounded.
	MaxLen int
	used   map[string]int
}

// NewContext returns an empty naming context.
func NewContext(maxLen int) *Context {
	return &Context{MaxLen: maxLen, used: make(map[string]int)}
}

// PrimaryKey names the primary key of table.
func (c *Context) PrimaryKey(table string, columns []string) string {
	return c.fit(join(PrimaryKeyPrefix, table, columns...))
}

// ForeignKey names a foreign key over columns of table.
func (c *Context) ForeignKey(table string, columns []string) string {
	return c.fit(join(ForeignKeyPrefix, table, columns...))
}

// Unique names a unique constraint over columns of table.
func (c *Context) Unique(table string, columns []string) string {
	return c.fit(join(UniquePrefix, table, columns...))
}

// Bound names a single-operator check on column, encoding the operator and
// operand: ck_items_qty_gte_0.
func (c *Context) Bound(table, column string, op schema.Op, operand string) string {
	name := join(CheckPrefix, table, column, op.Mnemonic())
	if operand != "" {
		name += "_" + Operand(operand)
	}
	return c.fit(name)
}

// Check names a free-form check by a content hash of the table name and the
// rendered predicate.
func (c *Context) Check(table, predicate string) string {
	return c.fit(join(CheckPrefix, table, Hash(table, predicate)))
}

// Index names an index over columns of table. Repeated names within the run
// get an increasing numeric suffix.
func (c *Context) Index(table string, columns []string) string {
	return c.Reserve(c.fit(join(IndexPrefix, table, columns...)))
}

// Reserve records name as used and returns it, or the first free
// name_<n> if it was already taken.
func (c *Context) Reserve(name string) string {
	n, taken := c.used[name]
	if !taken {
		c.used[name] = 0
		return name
	}
	for {
		n++
		cand := c.fit(name + "_" + strconv.Itoa(n))
		if _, ok := c.used[cand]; !ok {
			c.used[name] = n
			c.used[cand] = 0
			return cand
		}
	}
}

// Scope holds the constraint names already used on one table.
type Scope struct {
	ctx  *Context
	used map[string]bool
}

// Scope returns an empty constraint name scope.
func (c *Context) Scope() *Scope {
	return &Scope{ctx: c, used: make(map[string]bool)}
}

// Claim returns name, or the first free name_<n> when name is taken.
func (s *Scope) Claim(name string) string {
	cand := name
	for n := 1; s.used[cand]; n++ {
		cand = s.ctx.fit(name + "_" + strconv.Itoa(n))
	}
	s.used[cand] = true
	return cand
}

// Sequence names the sequence backing an auto-increment column.
func (c *Context) Sequence(table, column string) string {
	return c.fit(join(segment(table), segment(column), "seq"))
}

// Trigger names a generated trigger of table.column.
func (c *Context) Trigger(table, column, suffix string) string {
	return c.fit(join(segment(table), segment(column), suffix))
}

// EnumType names the native type of an enumeration declared on table.column.
func (c *Context) EnumType(table, column string) string {
	return c.fit(join(segment(table), segment(column), "enum"))
}

// fit shortens names longer than MaxLen to a prefix of the name followed by
// a hash of the whole name.
func (c *Context) fit(name string) string {
	if c.MaxLen <= 0 || len(name) <= c.MaxLen {
		return name
	}
	h := Hash(name)
	keep := c.MaxLen - len(h) - 1
	if keep < 1 {
		return h[:c.MaxLen]
	}
	return strings.TrimRight(name[:keep], "_") + "_" + h
}

// Hash returns a short stable hex hash of the given parts.
func Hash(parts ...string) string {
	h, err := hashstructure.Hash(parts, hashstructure.FormatV2, nil)
	if err != nil {
		// A string slice always hashes.
		panic(err)
	}
	return fmt.Sprintf("%08x", uint32(h^(h>>32)))
}

// Operand renders a check operand as a name segment: "-1.5" becomes "m1_5".
func Operand(v string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(v) {
		switch {
		case r == '-':
			b.WriteString("m")
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func join(prefix, table string, rest ...string) string {
	parts := []string{prefix, segment(table)}
	for _, r := range rest {
		parts = append(parts, segment(r))
	}
	return strings.Join(parts, "_")
}

// segment lower-snake-cases identifiers written in camel case.
func segment(s string) string {
	if strings.IndexFunc(s, unicode.IsUpper) >= 0 {
		return inflect.Underscore(s)
	}
	return s
}
