package schemac

import (
	"fmt"
	"strings"
)

// Warning describes a construct that a dialect could not express exactly and
// was degraded to the closest safe form.
type Warning struct {
	Vendor  string
	Table   string
	Object  string
	Message string
}

func (w Warning) String() string {
	var b strings.Builder
	if w.Vendor != "" {
		b.WriteString(w.Vendor)
		b.WriteString(": ")
	}
	if w.Table != "" {
		b.WriteString(w.Table)
		if w.Object != "" {
			b.WriteString(".")
			b.WriteString(w.Object)
		}
		b.WriteString(": ")
	}
	b.WriteString(w.Message)
	return b.String()
}

// Diagnostics collects the warnings of one compile run.
type Diagnostics struct {
	Warnings []Warning
}

// Warnf records a warning.
func (d *Diagnostics) Warnf(vendor, table, object, format string, args ...any) {
	d.Warnings = append(d.Warnings, Warning{
		Vendor:  vendor,
		Table:   table,
		Object:  object,
		Message: fmt.Sprintf(format, args...),
	})
}

// HasWarnings returns true if there are any warnings.
func (d *Diagnostics) HasWarnings() bool {
	return d != nil && len(d.Warnings) > 0
}

// String returns a human-readable summary of the diagnostics.
func (d *Diagnostics) String() string {
	if !d.HasWarnings() {
		return "No issues found"
	}
	var sb strings.Builder
	sb.WriteString("Warnings:\n")
	for _, w := range d.Warnings {
		sb.WriteString("  - ")
		sb.WriteString(w.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
