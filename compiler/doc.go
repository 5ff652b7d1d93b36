// Package compiler turns a schema into an ordered batch of DDL statements.
//
// Compile runs the pipeline for one vendor: structural validation,
// inheritance flattening, dependency ordering, semantic validation, per-table
// compilation through compiler/ddl, and ordering of the per-table statement
// sets into a drop phase and a create phase.
//
//	res, err := compiler.Compile(ctx, s, dialect.Postgres, compiler.WithIfNotExists(true))
//	if err != nil {
//		return err
//	}
//	fmt.Print(res.Script())
//
// Constructs the vendor cannot express exactly are degraded and listed in
// Result.Warnings. Validation errors abort the run before any statement is
// returned.
package compiler
