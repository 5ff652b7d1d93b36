package compiler

import (
	"strings"
)

// Options controls one compile run.
type Options struct {
	// Drop emits the drop phase.
	Drop bool
	// Create emits the create phase.
	Create bool
	// IfNotExists guards creates against existing objects.
	IfNotExists bool
	// SchemaName overrides the schema's namespace. Tables are qualified with
	// it and a CREATE SCHEMA statement opens the create phase.
	SchemaName string
	// ReservedWordCheck rejects table and column names reserved by the
	// target vendor.
	ReservedWordCheck bool
	// StrictIndexes turns index degradations into errors.
	StrictIndexes bool
}

// Option configures a compile run.
type Option func(*Options) error

func defaultOptions() *Options {
	return &Options{Drop: true, Create: true}
}

// WithDrop enables or disables the drop phase.
func WithDrop(drop bool) Option {
	return func(o *Options) error {
		o.Drop = drop
		return nil
	}
}

// WithCreate enables or disables the create phase.
func WithCreate(create bool) Option {
	return func(o *Options) error {
		o.Create = create
		return nil
	}
}

// WithIfNotExists emits existence-guarded creates.
func WithIfNotExists(enabled bool) Option {
	return func(o *Options) error {
		o.IfNotExists = enabled
		return nil
	}
}

// WithSchemaName sets the namespace tables are created in.
func WithSchemaName(name string) Option {
	return func(o *Options) error {
		if strings.TrimSpace(name) == "" {
			return NewConfigError("SchemaName", nil, "schema name cannot be empty")
		}
		o.SchemaName = name
		return nil
	}
}

// WithReservedWordCheck enables the reserved word check.
func WithReservedWordCheck(enabled bool) Option {
	return func(o *Options) error {
		o.ReservedWordCheck = enabled
		return nil
	}
}

// WithStrictIndexes fails the compile when an index cannot be expressed
// exactly instead of degrading it.
func WithStrictIndexes(enabled bool) Option {
	return func(o *Options) error {
		o.StrictIndexes = enabled
		return nil
	}
}

func buildOptions(opts []Option) (*Options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if !o.Drop && !o.Create {
		return nil, NewConfigError("Drop/Create", nil, "at least one of the drop and create phases must be enabled")
	}
	return o, nil
}
