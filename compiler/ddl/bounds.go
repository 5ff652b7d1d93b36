package ddl

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
)

// Temporal layouts accepted in DEFAULT values.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DatetimeLayout = "2006-01-02 15:04:05"
)

// CurrentTimestamp is the DEFAULT value of a DATETIME column set to the
// insertion time.
const CurrentTimestamp = "CURRENT_TIMESTAMP"

// ValidateDefault checks the DEFAULT of c against the column's declared
// type, bounds, precision and length. It does not depend on the vendor.
func ValidateDefault(s *schema.Schema, t *schema.Table, c *schema.Column) error {
	if c.Default == nil {
		return nil
	}
	v := *c.Default
	violation := func(r schemac.ViolationReason, limit string, args ...any) error {
		if len(args) > 0 {
			limit = fmt.Sprintf(limit, args...)
		}
		return schemac.NewConstraintViolationError(r, t.Name, c.Name, v, limit)
	}
	switch typ := c.Type.(type) {
	case *field.IntegerType:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return violation(schemac.Malformed, "not an integer")
		}
		lo, hi := typ.Width.Bounds()
		switch {
		case typ.Min != nil && n < *typ.Min:
			return violation(schemac.OutOfRange, "min %d", *typ.Min)
		case typ.Max != nil && n > *typ.Max:
			return violation(schemac.OutOfRange, "max %d", *typ.Max)
		case n < lo || n > hi:
			return violation(schemac.OutOfRange, "%s range %d..%d", typ.Width, lo, hi)
		}
	case *field.FloatType:
		return checkFloat(v, typ.Min, typ.Max, violation)
	case *field.DoubleType:
		return checkFloat(v, typ.Min, typ.Max, violation)
	case *field.DecimalType:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return violation(schemac.Malformed, "not a decimal")
		}
		if intDigits, fracDigits := digits(d); intDigits > typ.Precision-typ.Scale || fracDigits > typ.Scale {
			return violation(schemac.Precision, "precision %d scale %d", typ.Precision, typ.Scale)
		}
		switch {
		case typ.Min != nil && d.LessThan(*typ.Min):
			return violation(schemac.OutOfRange, "min %s", typ.Min)
		case typ.Max != nil && d.GreaterThan(*typ.Max):
			return violation(schemac.OutOfRange, "max %s", typ.Max)
		}
	case *field.CharType:
		if n := utf8.RuneCountInString(v); n > typ.Length {
			return violation(schemac.TooLong, "length %d", typ.Length)
		}
	case *field.BinaryType:
		b, err := hex.DecodeString(v)
		if err != nil {
			return violation(schemac.Malformed, "not a hex string")
		}
		if len(b) > typ.Length {
			return violation(schemac.TooLong, "length %d", typ.Length)
		}
	case *field.BlobType:
		if _, err := hex.DecodeString(v); err != nil {
			return violation(schemac.Malformed, "not a hex string")
		}
	case *field.BooleanType:
		if _, err := strconv.ParseBool(v); err != nil {
			return violation(schemac.Malformed, "not a boolean")
		}
	case *field.DateType:
		if _, err := time.Parse(DateLayout, v); err != nil {
			return violation(schemac.Malformed, "layout %s", DateLayout)
		}
	case *field.TimeType:
		if _, err := time.Parse(TimeLayout, v); err != nil {
			return violation(schemac.Malformed, "layout %s", TimeLayout)
		}
	case *field.DatetimeType:
		if strings.EqualFold(v, CurrentTimestamp) {
			return nil
		}
		if _, err := time.Parse(DatetimeLayout, v); err != nil {
			return violation(schemac.Malformed, "layout %s", DatetimeLayout)
		}
	case *field.EnumType:
		values := typ.Values
		if s != nil {
			if vals, err := s.EnumValues(typ); err == nil {
				values = vals
			}
		}
		if !slices.Contains(values, v) {
			return violation(schemac.Malformed, "one of %s", strings.Join(values, ", "))
		}
	case *field.ClobType:
	}
	return nil
}

func checkFloat(v string, lo, hi *float64, violation func(schemac.ViolationReason, string, ...any) error) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return violation(schemac.Malformed, "not a number")
	}
	switch {
	case lo != nil && f < *lo:
		return violation(schemac.OutOfRange, "min %v", *lo)
	case hi != nil && f > *hi:
		return violation(schemac.OutOfRange, "max %v", *hi)
	}
	return nil
}

// digits returns the number of integer and fractional digits of d, ignoring
// leading zeros and trailing fractional zeros.
func digits(d decimal.Decimal) (int, int) {
	s := d.Abs().String()
	intPart, frac, _ := strings.Cut(s, ".")
	intPart = strings.TrimLeft(intPart, "0")
	frac = strings.TrimRight(frac, "0")
	return len(intPart), len(frac)
}

// DecimalLimit returns the largest magnitude a DECIMAL(precision, scale) holds.
func DecimalLimit(precision, scale int) decimal.Decimal {
	one := decimal.New(1, 0)
	return decimal.New(1, int32(precision-scale)).Sub(one.Shift(int32(-scale)))
}
