package mixin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/syssam/schemac/schema"
	"github.com/syssam/schemac/schema/field"
)

// Mixin is a reusable set of columns and indexes merged into a table.
type Mixin interface {
	Columns() []*schema.Column
	Indexes() []*schema.Index
	// PrimaryKey returns the key the mixin contributes, or nil.
	PrimaryKey() *schema.PrimaryKey
}

// Schema is the default implementation for the Mixin interface.
// It should be embedded in all custom mixin definitions.
//
// Example:
//
//	type Audit struct {
//	    mixin.Schema
//	}
//
//	func (Audit) Columns() []*schema.Column {
//	    return []*schema.Column{
//	        {Name: "created_by", Type: field.Char(64)},
//	    }
//	}
type Schema struct{}

// Columns returns the columns of the mixin.
func (Schema) Columns() []*schema.Column { return nil }

// Indexes returns the indexes of the mixin.
func (Schema) Indexes() []*schema.Index { return nil }

// PrimaryKey returns the primary key of the mixin.
func (Schema) PrimaryKey() *schema.PrimaryKey { return nil }

var _ Mixin = (*Schema)(nil)

// =============================================================================
// Built-in Mixins
// =============================================================================

// ID adds an auto-increment bigint id column and makes it the primary key.
type ID struct {
	Schema
}

// Columns returns the id column.
func (ID) Columns() []*schema.Column {
	return []*schema.Column{
		{Name: "id", Type: field.Integer(field.Bigint), NotNull: true, Generate: field.AutoIncrement},
	}
}

// PrimaryKey returns the id key.
func (ID) PrimaryKey() *schema.PrimaryKey {
	return &schema.PrimaryKey{Columns: []string{"id"}}
}

// Time adds created_at and updated_at timestamp columns. created_at is set
// on insert, updated_at on insert and on every update.
type Time struct {
	Schema
}

// Columns returns the time tracking columns.
func (Time) Columns() []*schema.Column {
	return append(CreateTime{}.Columns(), UpdateTime{}.Columns()...)
}

// CreateTime adds only the created_at column.
type CreateTime struct {
	Schema
}

// Columns returns the created_at column.
func (CreateTime) Columns() []*schema.Column {
	return []*schema.Column{
		{Name: "created_at", Type: field.Datetime(), NotNull: true, Generate: field.Timestamp},
	}
}

// UpdateTime adds only the updated_at column.
type UpdateTime struct {
	Schema
}

// Columns returns the updated_at column.
func (UpdateTime) Columns() []*schema.Column {
	return []*schema.Column{
		{Name: "updated_at", Type: field.Datetime(), NotNull: true, Generate: field.UpdateTimestamp},
	}
}

// SoftDelete adds a nullable deleted_at column. A non-null value marks the
// row as deleted.
type SoftDelete struct {
	Schema
}

// Columns returns the soft delete column.
func (SoftDelete) Columns() []*schema.Column {
	return []*schema.Column{{Name: "deleted_at", Type: field.Datetime()}}
}

// TimeSoftDelete combines Time and SoftDelete.
type TimeSoftDelete struct {
	Schema
}

// Columns returns all timestamp and soft delete columns.
func (TimeSoftDelete) Columns() []*schema.Column {
	return append(Time{}.Columns(), SoftDelete{}.Columns()...)
}

// TenantID adds an indexed tenant_id column for multi-tenant tables.
type TenantID struct {
	Schema
}

// Columns returns the tenant column.
func (TenantID) Columns() []*schema.Column {
	return []*schema.Column{{Name: "tenant_id", Type: field.Char(64), NotNull: true}}
}

// Indexes returns the tenant index.
func (TenantID) Indexes() []*schema.Index {
	return []*schema.Index{{Columns: []string{"tenant_id"}}}
}

var builtin = map[string]Mixin{
	"id":               ID{},
	"time":             Time{},
	"create-time":      CreateTime{},
	"update-time":      UpdateTime{},
	"soft-delete":      SoftDelete{},
	"time-soft-delete": TimeSoftDelete{},
	"tenant-id":        TenantID{},
}

// Lookup returns the built-in mixin registered under name. Underscores and
// case are ignored.
func Lookup(name string) (Mixin, error) {
	m, ok := builtin[strings.ToLower(strings.ReplaceAll(name, "_", "-"))]
	if !ok {
		return nil, fmt.Errorf("mixin: unknown mixin %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return m, nil
}

// Names returns the names of the built-in mixins, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply merges mixins into t in order. Mixin columns are placed before the
// table's own columns; a column the table declares itself wins over a mixin
// column of the same name. A mixin primary key is used only when t has none.
func Apply(t *schema.Table, mixins ...Mixin) {
	var cols []*schema.Column
	seen := make(map[string]bool)
	for _, m := range mixins {
		for _, c := range m.Columns() {
			if seen[c.Name] || t.Column(c.Name) != nil {
				continue
			}
			seen[c.Name] = true
			cols = append(cols, c)
		}
		if t.PrimaryKey == nil {
			t.PrimaryKey = m.PrimaryKey()
		}
		t.Indexes = append(t.Indexes, m.Indexes()...)
	}
	t.Columns = append(cols, t.Columns...)
}
