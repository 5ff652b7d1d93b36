// Package index defines index kinds.
package index

import (
	"fmt"
	"strings"
)

// Kind is the access method of an index.
type Kind int

// Index kinds. The zero value is BTree.
const (
	BTree Kind = iota
	Hash
)

func (k Kind) String() string {
	switch k {
	case BTree:
		return "btree"
	case Hash:
		return "hash"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses an index kind. The empty string is BTree.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "btree":
		return BTree, nil
	case "hash":
		return Hash, nil
	}
	return BTree, fmt.Errorf("index: unknown kind %q", s)
}
