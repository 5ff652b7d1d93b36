// Package field defines the closed set of column types.
//
// Every column carries exactly one Type. The set is sealed: only the types in
// this package implement it, so a type switch over Type that handles each of
// them is exhaustive.
//
//	field.Char(255)            // VARCHAR(255)
//	field.Integer(field.Int)   // 32-bit integer
//	field.Decimal(10, 2)       // DECIMAL(10,2)
//	field.Enum("a", "b")       // inline enumeration
//	field.EnumOf("status")     // schema-level enumeration template
//
// Numeric types carry optional MIN/MAX bounds which the compiler turns into
// CHECK constraints and uses to validate DEFAULT values.
package field
