// Package mixin provides reusable column sets for table definitions.
//
// A mixin contributes columns, indexes and optionally a primary key. Apply
// merges mixins into a table; schema documents name them under a table's
// mixins key.
//
// # Built-in Mixins
//
//	mixin.ID{}             // id bigint auto-increment primary key
//	mixin.Time{}           // created_at, updated_at
//	mixin.CreateTime{}     // created_at
//	mixin.UpdateTime{}     // updated_at
//	mixin.SoftDelete{}     // deleted_at
//	mixin.TimeSoftDelete{} // created_at, updated_at, deleted_at
//	mixin.TenantID{}       // tenant_id with an index
//
// # Mixin Order
//
// Mixins are applied in the order they are listed and their columns come
// before the table's own. A column declared by the table overrides a mixin
// column with the same name.
//
//	t := &schema.Table{Name: "users", Columns: cols}
//	mixin.Apply(t, mixin.ID{}, mixin.Time{})
//	// id, created_at, updated_at, cols...
package mixin
