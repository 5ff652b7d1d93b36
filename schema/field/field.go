package field

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Type is a column type. It is implemented only by the types in this package.
type Type interface {
	// Name returns a short, vendor-neutral description used in messages.
	Name() string
	sealed()
}

// Width is the storage width of an Integer.
type Width int

// Integer widths.
const (
	Int Width = iota
	Tinyint
	Smallint
	Bigint
)

var widthNames = [...]string{Int: "int", Tinyint: "tinyint", Smallint: "smallint", Bigint: "bigint"}

func (w Width) String() string {
	if w >= 0 && int(w) < len(widthNames) {
		return widthNames[w]
	}
	return fmt.Sprintf("Width(%d)", int(w))
}

// Bounds returns the smallest and largest value of the width.
func (w Width) Bounds() (int64, int64) {
	switch w {
	case Tinyint:
		return math.MinInt8, math.MaxInt8
	case Smallint:
		return math.MinInt16, math.MaxInt16
	case Bigint:
		return math.MinInt64, math.MaxInt64
	default:
		return math.MinInt32, math.MaxInt32
	}
}

// ParseWidth parses a width name.
func ParseWidth(s string) (Width, error) {
	for i, n := range widthNames {
		if strings.EqualFold(n, s) {
			return Width(i), nil
		}
	}
	return 0, fmt.Errorf("field: unknown integer width %q", s)
}

type (
	// CharType is a variable-length character string.
	CharType struct{ Length int }
	// BinaryType is a variable-length byte string.
	BinaryType struct{ Length int }
	// BlobType is a large binary object.
	BlobType struct{}
	// ClobType is a large character object.
	ClobType struct{}
	// BooleanType is a true/false value.
	BooleanType struct{}
	// IntegerType is an integer of the given width.
	IntegerType struct {
		Width    Width
		Min, Max *int64
	}
	// FloatType is a single precision floating point number.
	FloatType struct{ Min, Max *float64 }
	// DoubleType is a double precision floating point number.
	DoubleType struct{ Min, Max *float64 }
	// DecimalType is an exact numeric with fixed precision and scale.
	DecimalType struct {
		Precision, Scale int
		Min, Max         *decimal.Decimal
	}
	// DateType is a calendar date.
	DateType struct{}
	// TimeType is a time of day.
	TimeType struct{}
	// DatetimeType is a date and time of day.
	DatetimeType struct{}
	// EnumType is an enumeration, either inline or referencing a schema-level
	// template by name.
	EnumType struct {
		Values   []string
		Template string
		// DeclaringTable is the table whose declaration introduced the
		// enumeration. Inheritance copies keep the original declarer.
		DeclaringTable string
	}
)

func (*CharType) sealed()     {}
func (*BinaryType) sealed()   {}
func (*BlobType) sealed()     {}
func (*ClobType) sealed()     {}
func (*BooleanType) sealed()  {}
func (*IntegerType) sealed()  {}
func (*FloatType) sealed()    {}
func (*DoubleType) sealed()   {}
func (*DecimalType) sealed()  {}
func (*DateType) sealed()     {}
func (*TimeType) sealed()     {}
func (*DatetimeType) sealed() {}
func (*EnumType) sealed()     {}

func (t *CharType) Name() string   { return fmt.Sprintf("char(%d)", t.Length) }
func (t *BinaryType) Name() string { return fmt.Sprintf("binary(%d)", t.Length) }
func (*BlobType) Name() string     { return "blob" }
func (*ClobType) Name() string     { return "clob" }
func (*BooleanType) Name() string  { return "boolean" }
func (t *IntegerType) Name() string {
	return t.Width.String()
}
func (*FloatType) Name() string  { return "float" }
func (*DoubleType) Name() string { return "double" }
func (t *DecimalType) Name() string {
	return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
}
func (*DateType) Name() string     { return "date" }
func (*TimeType) Name() string     { return "time" }
func (*DatetimeType) Name() string { return "datetime" }
func (t *EnumType) Name() string {
	if t.Template != "" {
		return "enum " + t.Template
	}
	return "enum(" + strings.Join(t.Values, ",") + ")"
}

// Char returns a CHAR type of the given length.
func Char(length int) *CharType { return &CharType{Length: length} }

// Binary returns a BINARY type of the given length.
func Binary(length int) *BinaryType { return &BinaryType{Length: length} }

// Blob returns a BLOB type.
func Blob() *BlobType { return &BlobType{} }

// Clob returns a CLOB type.
func Clob() *ClobType { return &ClobType{} }

// Boolean returns a BOOLEAN type.
func Boolean() *BooleanType { return &BooleanType{} }

// Integer returns an integer type of width w.
func Integer(w Width) *IntegerType { return &IntegerType{Width: w} }

// Range sets the MIN and MAX bounds.
func (t *IntegerType) Range(lo, hi int64) *IntegerType {
	t.Min, t.Max = &lo, &hi
	return t
}

// Float returns a FLOAT type.
func Float() *FloatType { return &FloatType{} }

// Double returns a DOUBLE type.
func Double() *DoubleType { return &DoubleType{} }

// Decimal returns a DECIMAL type.
func Decimal(precision, scale int) *DecimalType {
	return &DecimalType{Precision: precision, Scale: scale}
}

// Date returns a DATE type.
func Date() *DateType { return &DateType{} }

// Time returns a TIME type.
func Time() *TimeType { return &TimeType{} }

// Datetime returns a DATETIME type.
func Datetime() *DatetimeType { return &DatetimeType{} }

// Enum returns an inline enumeration.
func Enum(values ...string) *EnumType { return &EnumType{Values: values} }

// EnumOf returns an enumeration referencing a schema-level template.
func EnumOf(template string) *EnumType { return &EnumType{Template: template} }

// Clone returns a deep copy of t.
func Clone(t Type) Type {
	switch t := t.(type) {
	case *CharType:
		c := *t
		return &c
	case *BinaryType:
		c := *t
		return &c
	case *BlobType:
		return &BlobType{}
	case *ClobType:
		return &ClobType{}
	case *BooleanType:
		return &BooleanType{}
	case *IntegerType:
		c := IntegerType{Width: t.Width, Min: clonePtr(t.Min), Max: clonePtr(t.Max)}
		return &c
	case *FloatType:
		return &FloatType{Min: clonePtr(t.Min), Max: clonePtr(t.Max)}
	case *DoubleType:
		return &DoubleType{Min: clonePtr(t.Min), Max: clonePtr(t.Max)}
	case *DecimalType:
		return &DecimalType{Precision: t.Precision, Scale: t.Scale, Min: clonePtr(t.Min), Max: clonePtr(t.Max)}
	case *DateType:
		return &DateType{}
	case *TimeType:
		return &TimeType{}
	case *DatetimeType:
		return &DatetimeType{}
	case *EnumType:
		return &EnumType{Values: append([]string(nil), t.Values...), Template: t.Template, DeclaringTable: t.DeclaringTable}
	default:
		return nil
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IsNumeric reports whether t is an integer, floating point or decimal type.
func IsNumeric(t Type) bool {
	switch t.(type) {
	case *IntegerType, *FloatType, *DoubleType, *DecimalType:
		return true
	}
	return false
}
