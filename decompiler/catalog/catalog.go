// Package catalog reads table metadata from a live database in the shape of
// standard catalog introspection.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Reader enumerates the catalog metadata of one namespace. Every method is
// issued per table, in the order the decompiler needs it.
type Reader interface {
	// Tables returns the base table names, sorted.
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]Column, error)
	// PrimaryKey returns the key columns in key order.
	PrimaryKey(ctx context.Context, table string) ([]string, error)
	UniqueConstraints(ctx context.Context, table string) ([]KeyColumn, error)
	// Indexes returns the columns of the indexes that back neither the
	// primary key nor a unique constraint.
	Indexes(ctx context.Context, table string) ([]IndexColumn, error)
	ImportedKeys(ctx context.Context, table string) ([]ImportedKey, error)
	Checks(ctx context.Context, table string) ([]Check, error)
}

// Column describes one column.
type Column struct {
	Name string
	// TypeName is the native type name without size, e.g. "VARCHAR".
	TypeName string
	// Size is the character length, byte length or numeric precision.
	Size  int
	Scale int
	// Default is the default expression as the catalog reports it.
	Default       *string
	Nullable      bool
	AutoIncrement bool
	// OnUpdateNow marks a column the database sets to the current time on
	// every update.
	OnUpdateNow bool
	// EnumValues holds the labels of a native enumeration type.
	EnumValues []string
	// UserType names the user-defined type of the column, if any.
	UserType string
}

// KeyColumn is one column of a named constraint.
type KeyColumn struct {
	Constraint string
	Column     string
	Ordinal    int
}

// IndexColumn is one column of an index.
type IndexColumn struct {
	Index   string
	Column  string
	Ordinal int
	Unique  bool
	// Kind is the access method in lower case: "btree" or "hash".
	Kind string
}

// ImportedKey is one column pair of a foreign key.
type ImportedKey struct {
	Name       string
	Column     string
	RefTable   string
	RefColumn  string
	Ordinal    int
	UpdateRule int
	DeleteRule int
}

// Check is a check constraint as reported by the catalog.
type Check struct {
	Name   string
	Clause string
}

// Referential action codes, numbered as in JDBC DatabaseMetaData.
const (
	RuleCascade    = 0
	RuleRestrict   = 1
	RuleSetNull    = 2
	RuleNoAction   = 3
	RuleSetDefault = 4
)

// ParseRule maps a referential action name to its code.
func ParseRule(s string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CASCADE":
		return RuleCascade, nil
	case "RESTRICT":
		return RuleRestrict, nil
	case "SET NULL":
		return RuleSetNull, nil
	case "NO ACTION", "":
		return RuleNoAction, nil
	case "SET DEFAULT":
		return RuleSetDefault, nil
	}
	return 0, fmt.Errorf("catalog: unknown referential action %q", s)
}

// splitType splits a declared type such as "DECIMAL(10,2)" into its name,
// size and scale.
func splitType(decl string) (name string, size, scale int) {
	decl = strings.TrimSpace(decl)
	open := strings.IndexByte(decl, '(')
	if open < 0 {
		return strings.ToUpper(decl), 0, 0
	}
	name = strings.ToUpper(strings.TrimSpace(decl[:open]))
	args := decl[open+1:]
	if end := strings.IndexByte(args, ')'); end >= 0 {
		if rest := strings.TrimSpace(args[end+1:]); rest != "" {
			name += " " + strings.ToUpper(rest)
		}
		args = args[:end]
	}
	sz, sc, _ := strings.Cut(args, ",")
	size, _ = strconv.Atoi(strings.TrimSpace(sz))
	scale, _ = strconv.Atoi(strings.TrimSpace(sc))
	return name, size, scale
}

// enumLabels parses the quoted labels of a declaration such as
// "enum('a','b')".
func enumLabels(decl string) []string {
	open, end := strings.IndexByte(decl, '('), strings.LastIndexByte(decl, ')')
	if open < 0 || end < open {
		return nil
	}
	var (
		labels []string
		cur    strings.Builder
		quoted bool
	)
	body := decl[open+1 : end]
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case ch == '\'' && quoted && i+1 < len(body) && body[i+1] == '\'':
			cur.WriteByte('\'')
			i++
		case ch == '\'':
			if quoted {
				labels = append(labels, cur.String())
				cur.Reset()
			}
			quoted = !quoted
		case quoted:
			cur.WriteByte(ch)
		}
	}
	return labels
}
