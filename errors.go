package schemac

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors. Every typed error below matches exactly one of
// them through errors.Is.
var (
	// ErrInvalidSchema is returned when a schema is structurally invalid.
	ErrInvalidSchema = errors.New("schemac: invalid schema")

	// ErrConstraintViolation is returned when a column DEFAULT violates the
	// column's declared bounds.
	ErrConstraintViolation = errors.New("schemac: constraint violation")

	// ErrUnsupportedFeature is returned when a dialect cannot express or
	// report a construct and degrading is not possible.
	ErrUnsupportedFeature = errors.New("schemac: unsupported feature")

	// ErrVendorUnsupported is returned for operations on a dialect that has
	// no registered implementation.
	ErrVendorUnsupported = errors.New("schemac: vendor unsupported")

	// ErrInconsistentIndex is returned by the decompiler when the columns of
	// one index disagree on its kind or uniqueness.
	ErrInconsistentIndex = errors.New("schemac: inconsistent index definition")
)

// ValidationKind classifies a SchemaValidationError.
type ValidationKind int

// Validation kinds.
const (
	KindInvalidDefinition ValidationKind = iota
	KindCycle
	KindMissingPrimaryKey
	KindNullablePrimaryKey
	KindDuplicateTable
	KindDuplicateColumn
	KindUnknownAncestor
	KindUnknownReference
	KindUnindexedReference
	KindReservedWord
)

var kindNames = [...]string{
	KindInvalidDefinition:  "invalid definition",
	KindCycle:              "dependency cycle",
	KindMissingPrimaryKey:  "missing primary key column",
	KindNullablePrimaryKey: "nullable primary key column",
	KindDuplicateTable:     "duplicate table",
	KindDuplicateColumn:    "duplicate column",
	KindUnknownAncestor:    "unknown ancestor",
	KindUnknownReference:   "unknown reference",
	KindUnindexedReference: "unindexed reference",
	KindReservedWord:       "reserved word",
}

// String returns the kind name.
func (k ValidationKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ValidationKind(%d)", int(k))
}

// SchemaValidationError reports a structural schema problem. It is always
// fatal and is raised before any statement is emitted.
type SchemaValidationError struct {
	Kind    ValidationKind
	Table   string
	Column  string
	Message string
	// Path is the dependency cycle for KindCycle errors, first table repeated
	// at the end.
	Path []string
}

// Error returns the error string.
func (e *SchemaValidationError) Error() string {
	var b strings.Builder
	b.WriteString("schemac: ")
	b.WriteString(e.Kind.String())
	if len(e.Path) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Path, " -> "))
	}
	switch {
	case e.Table != "" && e.Column != "":
		fmt.Fprintf(&b, " (%s.%s)", e.Table, e.Column)
	case e.Table != "":
		fmt.Fprintf(&b, " (%s)", e.Table)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target error matches ErrInvalidSchema.
func (e *SchemaValidationError) Is(err error) bool {
	return err == ErrInvalidSchema
}

// NewSchemaValidationError returns a SchemaValidationError for the given table.
func NewSchemaValidationError(kind ValidationKind, table, column, format string, args ...any) *SchemaValidationError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &SchemaValidationError{Kind: kind, Table: table, Column: column, Message: msg}
}

// NewCycleError returns a SchemaValidationError describing a dependency cycle.
// The path must repeat its first element at the end.
func NewCycleError(path []string) *SchemaValidationError {
	return &SchemaValidationError{Kind: KindCycle, Path: path}
}

// IsSchemaValidation returns true if the error is a SchemaValidationError.
func IsSchemaValidation(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaValidationError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidSchema)
}

// IsCycle returns true if the error is a dependency cycle error.
func IsCycle(err error) bool {
	var e *SchemaValidationError
	return errors.As(err, &e) && e.Kind == KindCycle
}

// ViolationReason tells which bound a DEFAULT value violates.
type ViolationReason int

// Violation reasons.
const (
	// OutOfRange is a value below MIN, above MAX or outside the type width.
	OutOfRange ViolationReason = iota
	// TooLong is a CHAR/BINARY value longer than its declared LENGTH.
	TooLong
	// Precision is a DECIMAL value with more digits than PRECISION/SCALE allow.
	Precision
	// Malformed is a value that cannot be parsed as the column type.
	Malformed
)

// String returns the reason name.
func (r ViolationReason) String() string {
	switch r {
	case OutOfRange:
		return "default out of range"
	case TooLong:
		return "default too long"
	case Precision:
		return "default exceeds precision"
	case Malformed:
		return "malformed default"
	default:
		return fmt.Sprintf("ViolationReason(%d)", int(r))
	}
}

// ConstraintViolationError reports a DEFAULT value that violates the declared
// bounds of its column. It is fatal and scoped to the column.
type ConstraintViolationError struct {
	Reason ViolationReason
	Table  string
	Column string
	Value  string
	// Limit describes the violated bound, e.g. "max 100".
	Limit string
}

// Error returns the error string.
func (e *ConstraintViolationError) Error() string {
	msg := fmt.Sprintf("schemac: %s: %s.%s default %q", e.Reason, e.Table, e.Column, e.Value)
	if e.Limit != "" {
		msg += " (" + e.Limit + ")"
	}
	return msg
}

// Is reports whether the target error matches ErrConstraintViolation.
func (e *ConstraintViolationError) Is(err error) bool {
	return err == ErrConstraintViolation
}

// NewConstraintViolationError returns a new ConstraintViolationError.
func NewConstraintViolationError(reason ViolationReason, table, column, value, limit string) *ConstraintViolationError {
	return &ConstraintViolationError{Reason: reason, Table: table, Column: column, Value: value, Limit: limit}
}

// IsConstraintViolation returns true if the error is a ConstraintViolationError.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	var e *ConstraintViolationError
	return errors.As(err, &e) || errors.Is(err, ErrConstraintViolation)
}

// UnsupportedFeatureError is the fatal form of an unsupported construct:
// decompiling a constraint the catalog cannot report unambiguously, or
// compiling a size beyond a dialect maximum. Degradable constructs are
// reported as warnings instead.
type UnsupportedFeatureError struct {
	Vendor  string
	Table   string
	Object  string
	Feature string
}

// Error returns the error string.
func (e *UnsupportedFeatureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schemac: %s: unsupported %s", e.Vendor, e.Feature)
	if e.Table != "" {
		fmt.Fprintf(&b, " on table %q", e.Table)
	}
	if e.Object != "" {
		fmt.Fprintf(&b, " (%s)", e.Object)
	}
	return b.String()
}

// Is reports whether the target error matches ErrUnsupportedFeature.
func (e *UnsupportedFeatureError) Is(err error) bool {
	return err == ErrUnsupportedFeature
}

// NewUnsupportedFeatureError returns a new UnsupportedFeatureError.
func NewUnsupportedFeatureError(vendor, table, object, feature string) *UnsupportedFeatureError {
	return &UnsupportedFeatureError{Vendor: vendor, Table: table, Object: object, Feature: feature}
}

// NewUnsupportedCompositeError returns the error raised when a composite
// constraint cannot be decompiled.
func NewUnsupportedCompositeError(vendor, table, constraint, kind string) *UnsupportedFeatureError {
	return &UnsupportedFeatureError{Vendor: vendor, Table: table, Object: constraint, Feature: "composite " + kind}
}

// IsUnsupportedFeature returns true if the error is an UnsupportedFeatureError.
func IsUnsupportedFeature(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedFeatureError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedFeature)
}

// InconsistentIndexError reports an index whose columns disagree on kind or
// uniqueness in the catalog.
type InconsistentIndexError struct {
	Table   string
	Index   string
	Message string
}

// Error returns the error string.
func (e *InconsistentIndexError) Error() string {
	return fmt.Sprintf("schemac: inconsistent index %q on table %q: %s", e.Index, e.Table, e.Message)
}

// Is reports whether the target error matches ErrInconsistentIndex.
func (e *InconsistentIndexError) Is(err error) bool {
	return err == ErrInconsistentIndex
}

// NewInconsistentIndexError returns a new InconsistentIndexError.
func NewInconsistentIndexError(table, index, message string) *InconsistentIndexError {
	return &InconsistentIndexError{Table: table, Index: index, Message: message}
}

// IsInconsistentIndex returns true if the error is an InconsistentIndexError.
func IsInconsistentIndex(err error) bool {
	if err == nil {
		return false
	}
	var e *InconsistentIndexError
	return errors.As(err, &e) || errors.Is(err, ErrInconsistentIndex)
}

// VendorUnsupportedError is returned when an operation is requested for a
// dialect without an implementation.
type VendorUnsupportedError struct {
	Vendor    string
	Operation string
}

// Error returns the error string.
func (e *VendorUnsupportedError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("schemac: %s is not supported for vendor %q", e.Operation, e.Vendor)
	}
	return fmt.Sprintf("schemac: unsupported vendor %q", e.Vendor)
}

// Is reports whether the target error matches ErrVendorUnsupported.
func (e *VendorUnsupportedError) Is(err error) bool {
	return err == ErrVendorUnsupported
}

// NewVendorUnsupportedError returns a new VendorUnsupportedError.
func NewVendorUnsupportedError(vendor, operation string) *VendorUnsupportedError {
	return &VendorUnsupportedError{Vendor: vendor, Operation: operation}
}

// IsVendorUnsupported returns true if the error is a VendorUnsupportedError.
func IsVendorUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var e *VendorUnsupportedError
	return errors.As(err, &e) || errors.Is(err, ErrVendorUnsupported)
}
