// Package schema is the vendor-neutral schema model.
//
// A Schema is an ordered list of tables. Tables own typed columns (see the
// field package), a primary key, unique and check constraints, foreign keys,
// indexes and triggers. Tables may extend another table; Flatten resolves
// that inheritance into independent tables, and Sort orders tables so that
// every referenced table precedes its referencers:
//
//	flat, err := schema.Flatten(s)
//	if err != nil {
//	    return err
//	}
//	if err := schema.Sort(flat, schema.InheritanceEdges(s)...); err != nil {
//	    return err
//	}
//
// Schemas are plain values. Flatten never modifies its input and Sort only
// reorders the table list.
package schema
