package decompiler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/syssam/schemac/compiler/ddl"
	"github.com/syssam/schemac/schema/field"
)

// trailingCast matches the casts PostgreSQL appends to default expressions.
var trailingCast = regexp.MustCompile(`(?i)(::[a-z_][a-z0-9_ ]*(\(\d+(,\s*\d+)?\))?(\[\])?)+$`)

// decodeDefault interprets a catalog default expression for a column of type
// typ. It returns either a literal value in model form or a generation
// policy. ok is false when the column has no default.
func decodeDefault(expr string, typ field.Type) (value string, gen field.Generate, ok bool) {
	v := unwrap(strings.TrimSpace(expr))
	if v == "" || strings.EqualFold(trailingCast.ReplaceAllString(v, ""), "NULL") {
		return "", field.GenerateNone, false
	}
	if !strings.HasPrefix(v, "'") {
		if g := generated(v); g != field.GenerateNone {
			return "", g, true
		}
	}
	v = unwrap(trailingCast.ReplaceAllString(v, ""))
	switch typ.(type) {
	case *field.BinaryType, *field.BlobType:
		return hexLiteral(v), field.GenerateNone, true
	case *field.BooleanType:
		if b, err := strconv.ParseBool(strings.ToLower(unquote(v))); err == nil {
			return strconv.FormatBool(b), field.GenerateNone, true
		}
	case *field.DatetimeType:
		if isNow(strings.ToLower(v)) {
			return ddl.CurrentTimestamp, field.GenerateNone, true
		}
	}
	return unquote(temporal(v)), field.GenerateNone, true
}

// generated recognizes the default expressions the compiler emits for
// generation policies. Millisecond forms are tested before second forms
// because they extend them.
func generated(v string) field.Generate {
	l := strings.ToLower(v)
	switch {
	case strings.Contains(l, "nextval("):
		return field.AutoIncrement
	case strings.Contains(l, "uuid(") || strings.Contains(l, "sys_guid(") || strings.Contains(l, "randomblob(16)") || strings.Contains(l, "gen_random_uuid"):
		return field.UUID
	case isEpoch(l) && (strings.Contains(l, "1000") || strings.Contains(l, "86400000")):
		return field.EpochMillis
	case isEpoch(l):
		return field.EpochSeconds
	case isNow(l):
		return field.Timestamp
	}
	return field.GenerateNone
}

// isEpoch matches expressions computing seconds since 1970. Typed literals
// such as TIMESTAMP '1970-01-01 00:00:00' carry no call and do not match.
func isEpoch(l string) bool {
	if !strings.Contains(l, "(") {
		return false
	}
	for _, s := range []string{"epoch", "unix_timestamp", "julianday", "strftime('%s'", "1970-01-01"} {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

func isNow(l string) bool {
	switch l {
	case "current_timestamp", "current timestamp", "now()", "systimestamp", "localtimestamp", "current_timestamp()":
		return true
	}
	return strings.HasPrefix(l, "current_timestamp(") || strings.HasPrefix(l, "systimestamp(")
}

// unwrap removes parentheses enclosing the whole expression.
func unwrap(v string) string {
	for len(v) >= 2 && v[0] == '(' && closing(v) == len(v)-1 {
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	return v
}

// closing returns the index of the parenthesis closing v[0].
func closing(v string) int {
	depth, quoted := 0, false
	for i := 0; i < len(v); i++ {
		switch {
		case v[i] == '\'':
			quoted = !quoted
		case quoted:
		case v[i] == '(':
			depth++
		case v[i] == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// unquote returns the content of a single-quoted literal, or v unchanged.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return v
}

// temporal strips the typed literal prefix or TO_DATE call around a
// date or time string.
func temporal(v string) string {
	upper := strings.ToUpper(v)
	for _, kw := range []string{"DATE ", "TIME ", "TIMESTAMP "} {
		if strings.HasPrefix(upper, kw) {
			return strings.TrimSpace(v[len(kw):])
		}
	}
	for _, fn := range []string{"TO_DATE(", "TO_TIMESTAMP("} {
		if strings.HasPrefix(upper, fn) && strings.HasSuffix(v, ")") {
			arg := v[len(fn) : len(v)-1]
			if end := strings.Index(arg[1:], "'"); strings.HasPrefix(arg, "'") && end >= 0 {
				return arg[:end+2]
			}
		}
	}
	return v
}

// hexLiteral decodes the binary literal spellings X'..', 0x.., '\x..' and
// HEXTORAW('..') into lower-case hex digits.
func hexLiteral(v string) string {
	upper := strings.ToUpper(v)
	switch {
	case strings.HasPrefix(upper, "HEXTORAW(") && strings.HasSuffix(v, ")"):
		v = unquote(strings.TrimSpace(v[len("HEXTORAW(") : len(v)-1]))
	case strings.HasPrefix(upper, "X'"):
		v = unquote(v[1:])
	case strings.HasPrefix(upper, "0X"):
		v = v[2:]
	default:
		v = strings.TrimPrefix(unquote(v), `\x`)
	}
	return strings.ToLower(v)
}
