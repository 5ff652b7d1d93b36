package compiler

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/compiler/ddl"
	"github.com/syssam/schemac/compiler/naming"
	"github.com/syssam/schemac/dialect"
	"github.com/syssam/schemac/schema"
)

// Result is the output of one compile run.
type Result struct {
	Vendor dialect.Vendor
	// Schema is the flattened schema in dependency order.
	Schema *schema.Schema
	// Statements is the full ordered batch: the drop phase, then the create
	// phase.
	Statements []schemac.Statement
	// Tables holds the statements of every table in dependency order.
	Tables []*TableSet
	// Warnings lists the constructs that were degraded.
	Warnings []schemac.Warning

	drops, creates []schemac.Statement
}

// Script renders the batch with the vendor's statement terminators.
func (r *Result) Script() string {
	desc, err := dialect.Describe(r.Vendor)
	if err != nil {
		return ""
	}
	return desc.Script(r.Statements)
}

// Diagnostics returns the warnings of the run.
func (r *Result) Diagnostics() *schemac.Diagnostics {
	return &schemac.Diagnostics{Warnings: r.Warnings}
}

// Compile flattens s, orders its tables by dependency, validates it and
// compiles it into one statement batch for vendor v. s is not modified.
func Compile(ctx context.Context, s *schema.Schema, v dialect.Vendor, opts ...Option) (*Result, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	desc, err := dialect.Describe(v)
	if err != nil {
		return nil, err
	}
	if err := validateStructure(s); err != nil {
		return nil, err
	}
	flat, err := schema.Flatten(s)
	if err != nil {
		return nil, err
	}
	if err := schema.Sort(flat, schema.InheritanceEdges(s)...); err != nil {
		return nil, err
	}
	if err := (&validator{schema: flat, desc: desc, reserved: o.ReservedWordCheck}).validate(); err != nil {
		return nil, err
	}

	env := ddl.NewEnv(flat, naming.NewContext(desc.MaxIdentifier))
	env.Namespace = o.SchemaName
	env.StrictIndexes = o.StrictIndexes
	env.IfNotExists = o.IfNotExists
	g, err := ddl.New(v, env)
	if err != nil {
		return nil, err
	}
	res := &Result{Vendor: v, Schema: flat}
	for _, t := range flat.Tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set, err := compileTable(g, t, o)
		if err != nil {
			return nil, err
		}
		res.Tables = append(res.Tables, set)
	}
	var preamble []schemac.Statement
	if o.Create && o.SchemaName != "" {
		if stmt, ok := g.CreateSchema(o.SchemaName); ok {
			preamble = append(preamble, stmt)
		}
	}
	if o.Drop {
		res.drops = DropPhase(res.Tables)
	}
	if o.Create {
		res.creates = CreatePhase(res.Tables, preamble...)
	}
	res.Statements = append(append(res.Statements, res.drops...), res.creates...)
	res.Warnings = env.Diag.Warnings
	return res, nil
}

// compileTable computes the statement set of t. Skipped tables get an empty
// set.
func compileTable(g ddl.Generator, t *schema.Table, o *Options) (*TableSet, error) {
	set := &TableSet{Table: t.Name, Skip: t.Skip}
	if t.Skip {
		return set, nil
	}
	var err error
	if set.CreateTypes, err = g.CompileTypes(t); err != nil {
		return nil, err
	}
	if o.IfNotExists {
		set.CreateTable, err = g.CreateTableIfNotExists(t)
	} else {
		set.CreateTable, err = g.CreateTable(t)
	}
	if err != nil {
		return nil, err
	}
	if set.Indexes, err = g.CompileIndexes(t); err != nil {
		return nil, err
	}
	if set.PostCreate, err = g.PostCreate(t); err != nil {
		return nil, err
	}
	if set.Triggers, err = g.CompileTriggers(t); err != nil {
		return nil, err
	}
	set.DropTable = g.DropTableIfExists(t.Name)
	set.DropTypes = g.DropTypes(t)
	return set, nil
}

// CompileAll compiles independent schemas concurrently. Each run has its own
// naming context; results are returned in the order of schemas.
func CompileAll(ctx context.Context, schemas []*schema.Schema, v dialect.Vendor, opts ...Option) ([]*Result, error) {
	results := make([]*Result, len(schemas))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range schemas {
		eg.Go(func() error {
			res, err := Compile(ctx, s, v, opts...)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Merge orders the batches of several results: the drop phases in reverse
// result order, then the create phases in result order.
func Merge(results ...*Result) []schemac.Statement {
	var out []schemac.Statement
	for i := len(results) - 1; i >= 0; i-- {
		out = append(out, results[i].drops...)
	}
	for _, r := range results {
		out = append(out, r.creates...)
	}
	return out
}
