package compiler

import (
	"strings"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/dialect"
	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
)

// validateStructure checks the declared schema before flattening: names must
// be present and unique.
func validateStructure(s *schema.Schema) error {
	tables := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if strings.TrimSpace(t.Name) == "" {
			return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, "", "", "table without a name")
		}
		if tables[t.Name] {
			return schemac.NewSchemaValidationError(schemac.KindDuplicateTable, t.Name, "", "")
		}
		tables[t.Name] = true
		columns := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			if strings.TrimSpace(c.Name) == "" {
				return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, t.Name, "", "column without a name")
			}
			if columns[c.Name] {
				return schemac.NewSchemaValidationError(schemac.KindDuplicateColumn, t.Name, c.Name, "")
			}
			columns[c.Name] = true
		}
	}
	enums := make(map[string]bool, len(s.Enums))
	for _, e := range s.Enums {
		if enums[e.Name] {
			return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, "", "", "duplicate enum template %q", e.Name)
		}
		if len(e.Values) == 0 {
			return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, "", "", "enum template %q has no values", e.Name)
		}
		enums[e.Name] = true
	}
	return nil
}

// validator checks a flattened, ordered schema against one vendor.
type validator struct {
	schema   *schema.Schema
	desc     *dialect.Descriptor
	reserved bool
}

func (v *validator) validate() error {
	for _, t := range v.schema.Tables {
		if err := v.table(t); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) table(t *schema.Table) error {
	if err := v.name(t.Name, ""); err != nil {
		return err
	}
	autoInc := 0
	for _, c := range t.Columns {
		if err := v.name(t.Name, c.Name); err != nil {
			return err
		}
		if err := v.column(t, c); err != nil {
			return err
		}
		if c.Generate == field.AutoIncrement {
			autoInc++
		}
	}
	if autoInc > 1 {
		return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, t.Name, "", "more than one auto-increment column")
	}
	if pk := t.PrimaryKey; pk != nil {
		if len(pk.Columns) == 0 {
			return schemac.NewSchemaValidationError(schemac.KindMissingPrimaryKey, t.Name, "", "primary key without columns")
		}
		for _, name := range pk.Columns {
			c := t.Column(name)
			if c == nil {
				return schemac.NewSchemaValidationError(schemac.KindMissingPrimaryKey, t.Name, name, "")
			}
			if !c.NotNull {
				return schemac.NewSchemaValidationError(schemac.KindNullablePrimaryKey, t.Name, name, "")
			}
		}
	}
	for _, u := range t.Uniques {
		if err := v.columns(t, u.Columns, "unique constraint"); err != nil {
			return err
		}
	}
	for _, i := range t.Indexes {
		if err := v.columns(t, i.Columns, "index"); err != nil {
			return err
		}
	}
	for _, ck := range t.Checks {
		if ck.Expr == nil {
			return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, t.Name, "", "empty check %q", ck.Name)
		}
		if err := v.columns(t, schema.ExprColumns(ck.Expr), "check"); err != nil {
			return err
		}
	}
	for _, fk := range t.ForeignKeys {
		if err := v.foreignKey(t, fk); err != nil {
			return err
		}
	}
	for _, tr := range t.Triggers {
		if tr.Name == "" || len(tr.Events) == 0 || strings.TrimSpace(tr.Body) == "" {
			return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, t.Name, "", "trigger %q needs a name, events and a body", tr.Name)
		}
	}
	return nil
}

// column checks the type facets and generation policy of c.
func (v *validator) column(t *schema.Table, c *schema.Column) error {
	invalid := func(format string, args ...any) error {
		return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, t.Name, c.Name, format, args...)
	}
	switch typ := c.Type.(type) {
	case nil:
		return invalid("column without a type")
	case *field.CharType:
		if typ.Length <= 0 {
			return invalid("length must be positive, got %d", typ.Length)
		}
	case *field.BinaryType:
		if typ.Length <= 0 {
			return invalid("length must be positive, got %d", typ.Length)
		}
	case *field.IntegerType:
		if typ.Min != nil && typ.Max != nil && *typ.Min > *typ.Max {
			return invalid("min %d exceeds max %d", *typ.Min, *typ.Max)
		}
	case *field.FloatType:
		if typ.Min != nil && typ.Max != nil && *typ.Min > *typ.Max {
			return invalid("min %v exceeds max %v", *typ.Min, *typ.Max)
		}
	case *field.DoubleType:
		if typ.Min != nil && typ.Max != nil && *typ.Min > *typ.Max {
			return invalid("min %v exceeds max %v", *typ.Min, *typ.Max)
		}
	case *field.DecimalType:
		if typ.Precision <= 0 || typ.Scale < 0 || typ.Scale > typ.Precision {
			return invalid("invalid precision %d and scale %d", typ.Precision, typ.Scale)
		}
		if typ.Min != nil && typ.Max != nil && typ.Min.GreaterThan(*typ.Max) {
			return invalid("min %s exceeds max %s", typ.Min, typ.Max)
		}
	case *field.EnumType:
		if typ.Template != "" {
			if v.schema.Enum(typ.Template) == nil {
				return schemac.NewSchemaValidationError(schemac.KindUnknownReference, t.Name, c.Name, "unknown enum template %q", typ.Template)
			}
		} else if len(typ.Values) == 0 {
			return invalid("enum without values")
		}
	}
	if !c.Generate.Allowed(c.Type) {
		return invalid("%s generation does not apply to %s", c.Generate, c.Type.Name())
	}
	if c.Check != nil && c.Check.Column != "" && c.Check.Column != c.Name {
		return invalid("column check references column %q", c.Check.Column)
	}
	return nil
}

func (v *validator) columns(t *schema.Table, cols []string, what string) error {
	if len(cols) == 0 {
		return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, t.Name, "", "%s without columns", what)
	}
	for _, name := range cols {
		if t.Column(name) == nil {
			return schemac.NewSchemaValidationError(schemac.KindUnknownReference, t.Name, name, "%s references unknown column", what)
		}
	}
	return nil
}

// foreignKey checks that both column lists exist and that the referenced
// columns carry a key on the referenced table.
func (v *validator) foreignKey(t *schema.Table, fk *schema.ForeignKey) error {
	if err := v.columns(t, fk.Columns, "foreign key"); err != nil {
		return err
	}
	ref := v.schema.Table(fk.RefTable)
	if ref == nil {
		return schemac.NewSchemaValidationError(schemac.KindUnknownReference, t.Name, strings.Join(fk.Columns, ","),
			"references unknown table %q", fk.RefTable)
	}
	if len(fk.RefColumns) != len(fk.Columns) {
		return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, t.Name, strings.Join(fk.Columns, ","),
			"references %d columns of %q with %d columns", len(fk.RefColumns), fk.RefTable, len(fk.Columns))
	}
	for _, name := range fk.RefColumns {
		if ref.Column(name) == nil {
			return schemac.NewSchemaValidationError(schemac.KindUnknownReference, t.Name, strings.Join(fk.Columns, ","),
				"references unknown column %s.%s", fk.RefTable, name)
		}
	}
	if !ref.HasKey(fk.RefColumns) {
		return schemac.NewSchemaValidationError(schemac.KindUnindexedReference, t.Name, strings.Join(fk.Columns, ","),
			"%s(%s) has no primary key, unique constraint or index", fk.RefTable, strings.Join(fk.RefColumns, ", "))
	}
	if fk.OnDelete == schema.SetNull || fk.OnUpdate == schema.SetNull {
		for _, name := range fk.Columns {
			if c := t.Column(name); c.NotNull {
				return schemac.NewSchemaValidationError(schemac.KindInvalidDefinition, t.Name, name, "SET NULL on a NOT NULL column")
			}
		}
	}
	return nil
}

// name rejects reserved words when the check is enabled.
func (v *validator) name(table, column string) error {
	if !v.reserved {
		return nil
	}
	ident := table
	if column != "" {
		ident = column
	}
	if v.desc.IsReserved(ident) {
		return schemac.NewSchemaValidationError(schemac.KindReservedWord, table, column, "%q is reserved by %s", ident, v.desc.Vendor)
	}
	return nil
}

