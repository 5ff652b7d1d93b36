package dialect

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/schemac"
)

// Descriptor holds the literal, quoting and identifier rules of one vendor.
type Descriptor struct {
	Vendor Vendor
	// Quote is the identifier quote character; empty means identifiers are
	// emitted bare and folded by the database.
	Quote string
	// MaxIdentifier is the longest identifier the vendor accepts.
	MaxIdentifier int
	// UpperCatalog reports that bare identifiers are stored upper-cased in
	// the catalog.
	UpperCatalog bool
	// MaxCharLength is the longest CHAR/VARCHAR length; 0 means unbounded.
	MaxCharLength int
	// MaxDecimalPrecision is the largest DECIMAL precision; 0 means unbounded.
	MaxDecimalPrecision int
	// BackslashEscapes reports that backslash is an escape in string literals.
	BackslashEscapes bool
	// True and False are the boolean literals.
	True, False string
	// TypedTemporals reports that date/time literals need a type keyword
	// (DATE '2020-01-01').
	TypedTemporals bool

	reserved map[string]struct{}
}

var (
	upper = cases.Upper(language.Und)
	lower = cases.Lower(language.Und)
)

var descriptors = map[Vendor]*Descriptor{
	MySQL: {
		Vendor: MySQL, Quote: "`", MaxIdentifier: 64, MaxCharLength: 16383, MaxDecimalPrecision: 65,
		BackslashEscapes: true, True: "TRUE", False: "FALSE",
	},
	MariaDB: {
		Vendor: MariaDB, Quote: "`", MaxIdentifier: 64, MaxCharLength: 16383, MaxDecimalPrecision: 65,
		BackslashEscapes: true, True: "TRUE", False: "FALSE",
	},
	Postgres: {
		Vendor: Postgres, Quote: `"`, MaxIdentifier: 63, MaxCharLength: 10485760, MaxDecimalPrecision: 1000,
		True: "TRUE", False: "FALSE",
	},
	Oracle: {
		Vendor: Oracle, MaxIdentifier: 30, UpperCatalog: true, MaxCharLength: 4000, MaxDecimalPrecision: 38,
		True: "1", False: "0", TypedTemporals: true,
	},
	DB2: {
		Vendor: DB2, MaxIdentifier: 128, UpperCatalog: true, MaxCharLength: 32672, MaxDecimalPrecision: 31,
		True: "1", False: "0",
	},
	Derby: {
		Vendor: Derby, MaxIdentifier: 128, UpperCatalog: true, MaxCharLength: 32672, MaxDecimalPrecision: 31,
		True: "TRUE", False: "FALSE",
	},
	SQLite: {
		Vendor: SQLite, Quote: `"`, MaxIdentifier: 0, True: "1", False: "0",
	},
}

func init() {
	for v, d := range descriptors {
		d.reserved = reservedWords(v)
	}
}

// Describe returns the descriptor of v.
func Describe(v Vendor) (*Descriptor, error) {
	d, ok := descriptors[v]
	if !ok {
		return nil, schemac.NewVendorUnsupportedError(string(v), "describe")
	}
	return d, nil
}

// QuoteIdent quotes an identifier for use in a statement.
func (d *Descriptor) QuoteIdent(ident string) string {
	if d.Quote == "" {
		return ident
	}
	return d.Quote + strings.ReplaceAll(ident, d.Quote, d.Quote+d.Quote) + d.Quote
}

// QuoteIdents quotes every identifier and joins them with ", ".
func (d *Descriptor) QuoteIdents(idents []string) string {
	q := make([]string, len(idents))
	for i, s := range idents {
		q[i] = d.QuoteIdent(s)
	}
	return strings.Join(q, ", ")
}

// CatalogName folds an identifier the way the catalog stores it.
func (d *Descriptor) CatalogName(ident string) string {
	if d.UpperCatalog {
		return upper.String(ident)
	}
	return ident
}

// SchemaName maps a catalog identifier back to its schema spelling. Vendors
// that upper-case bare identifiers are lower-cased.
func (d *Descriptor) SchemaName(ident string) string {
	if d.UpperCatalog && ident == upper.String(ident) {
		return lower.String(ident)
	}
	return ident
}

// String returns s as a quoted string literal.
func (d *Descriptor) String(s string) string {
	if d.BackslashEscapes {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Bool returns the boolean literal for b.
func (d *Descriptor) Bool(b bool) string {
	if b {
		return d.True
	}
	return d.False
}

// Date returns a date literal.
func (d *Descriptor) Date(v string) string { return d.temporal("DATE", v) }

// Time returns a time literal.
func (d *Descriptor) Time(v string) string { return d.temporal("TIME", v) }

// Timestamp returns a timestamp literal.
func (d *Descriptor) Timestamp(v string) string { return d.temporal("TIMESTAMP", v) }

func (d *Descriptor) temporal(kw, v string) string {
	if d.TypedTemporals {
		return kw + " " + d.String(v)
	}
	return d.String(v)
}

// IsReserved reports whether ident is a reserved word of the vendor.
func (d *Descriptor) IsReserved(ident string) bool {
	_, ok := d.reserved[upper.String(ident)]
	return ok
}

// Terminate appends the statement terminator used when statements are
// written to a script.
func (d *Descriptor) Terminate(stmt schemac.Statement) string {
	sql := strings.TrimRight(stmt.SQL, " \n")
	if d.Vendor == Oracle && strings.HasSuffix(sql, "END;") {
		return sql + "\n/"
	}
	return sql + ";"
}

// Script joins statements into one newline-separated script.
func (d *Descriptor) Script(stmts []schemac.Statement) string {
	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(d.Terminate(s))
		b.WriteString("\n")
	}
	return b.String()
}
