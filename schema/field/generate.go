package field

import (
	"fmt"
	"strings"
)

// Generate is a value generation policy applied on insert or update.
type Generate int

// Generation policies.
const (
	GenerateNone Generate = iota
	AutoIncrement
	UUID
	EpochSeconds
	EpochMillis
	Timestamp
	UpdateTimestamp
	IncrementOnUpdate
)

var generateNames = [...]string{
	GenerateNone:      "",
	AutoIncrement:     "autoincrement",
	UUID:              "uuid",
	EpochSeconds:      "epoch-seconds",
	EpochMillis:       "epoch-millis",
	Timestamp:         "timestamp",
	UpdateTimestamp:   "update-timestamp",
	IncrementOnUpdate: "increment-on-update",
}

func (g Generate) String() string {
	if g >= 0 && int(g) < len(generateNames) {
		return generateNames[g]
	}
	return fmt.Sprintf("Generate(%d)", int(g))
}

// OnUpdate reports whether the policy applies on update rather than insert.
func (g Generate) OnUpdate() bool {
	return g == UpdateTimestamp || g == IncrementOnUpdate
}

// ParseGenerate parses a policy name. The empty string is GenerateNone.
func ParseGenerate(s string) (Generate, error) {
	for i, n := range generateNames {
		if strings.EqualFold(n, s) {
			return Generate(i), nil
		}
	}
	return GenerateNone, fmt.Errorf("field: unknown generate policy %q", s)
}

// Allowed reports whether the policy applies to columns of type t.
func (g Generate) Allowed(t Type) bool {
	switch g {
	case GenerateNone:
		return true
	case AutoIncrement, EpochSeconds, EpochMillis, IncrementOnUpdate:
		_, ok := t.(*IntegerType)
		return ok
	case UUID:
		switch t.(type) {
		case *CharType, *BinaryType:
			return true
		}
	case Timestamp, UpdateTimestamp:
		_, ok := t.(*DatetimeType)
		return ok
	}
	return false
}
