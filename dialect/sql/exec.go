package sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/dialect"
)

// batchVendors can run several statements in one Exec call. MySQL also needs
// multiStatements=true in its DSN.
var batchVendors = map[dialect.Vendor]bool{
	dialect.MySQL:    true,
	dialect.MariaDB:  true,
	dialect.Postgres: true,
	dialect.SQLite:   true,
}

type execConfig struct {
	batch  bool
	tx     bool
	slow   time.Duration
	logger *slog.Logger
}

// ExecOption configures Exec.
type ExecOption func(*execConfig)

// WithBatch sends runs of unguarded statements in one round trip.
func WithBatch(enabled bool) ExecOption {
	return func(c *execConfig) { c.batch = enabled }
}

// WithTx runs all statements in one transaction, rolled back on the first
// failure. Only vendors with transactional DDL undo anything.
func WithTx(enabled bool) ExecOption {
	return func(c *execConfig) { c.tx = enabled }
}

// WithLogger sets the logger statements are logged to. Default is
// slog.Default().
func WithLogger(l *slog.Logger) ExecOption {
	return func(c *execConfig) { c.logger = l }
}

// WithSlowStatement sets the duration above which a round trip is logged as
// slow.
func WithSlowStatement(d time.Duration) ExecOption {
	return func(c *execConfig) { c.slow = d }
}

// Report summarizes one Exec run.
type Report struct {
	// RunID tags the run's log records.
	RunID string
	// Executed counts the statements sent to the database.
	Executed int
	// Skipped counts guarded statements whose probe did not match.
	Skipped int
	// Stats holds the round-trip statistics of the run.
	Stats StatsSnapshot
}

// ExecError reports the statement a run stopped at.
type ExecError struct {
	// Index is the position of the failing statement. For a batched round
	// trip it is the position of the first statement in the batch.
	Index int
	SQL   string
	Err   error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	return fmt.Sprintf("dialect/sql: statement %d: %v", e.Index, e.Err)
}

// Unwrap returns the driver error.
func (e *ExecError) Unwrap() error { return e.Err }

// Exec runs stmts against drv in the given order. Guarded statements run
// only when their probe matches. With WithBatch, consecutive unguarded
// statements share one round trip; a guarded statement closes the current
// batch, so order is the same in both modes.
func Exec(ctx context.Context, drv *Driver, stmts []schemac.Statement, opts ...ExecOption) (*Report, error) {
	cfg := &execConfig{slow: time.Second, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.batch && !batchVendors[drv.Vendor()] {
		return nil, schemac.NewVendorUnsupportedError(drv.Dialect(), "batch execution")
	}
	desc, err := dialect.Describe(drv.Vendor())
	if err != nil {
		return nil, err
	}
	r := &runner{
		desc:   desc,
		batch:  cfg.batch,
		report: &Report{RunID: uuid.NewString()},
	}
	r.log = cfg.logger.With("run", r.report.RunID, "vendor", drv.Dialect())
	sd := NewStatsDriver(drv,
		WithSlowThreshold(cfg.slow),
		WithSlowHook(func(ctx context.Context, query string, d time.Duration) {
			r.log.WarnContext(ctx, "slow statement", "duration", d, "sql", query)
		}),
	)
	r.log.DebugContext(ctx, "exec start", "statements", len(stmts), "batch", cfg.batch, "tx", cfg.tx)
	if !cfg.tx {
		r.eq = sd
		err = r.run(ctx, stmts)
	} else {
		err = r.runTx(ctx, sd, stmts)
	}
	r.report.Stats = sd.ExecStats().Snapshot()
	if err != nil {
		return r.report, err
	}
	r.log.DebugContext(ctx, "exec done", "executed", r.report.Executed, "skipped", r.report.Skipped, "stats", r.report.Stats.String())
	return r.report, nil
}

// runner is the state of one Exec call.
type runner struct {
	eq      dialect.ExecQuerier
	desc    *dialect.Descriptor
	batch   bool
	log     *slog.Logger
	report  *Report
	pending []int
	stmts   []schemac.Statement
}

func (r *runner) runTx(ctx context.Context, sd *StatsDriver, stmts []schemac.Statement) error {
	tx, err := sd.Tx(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: begin: %w", err)
	}
	r.eq = tx
	if err := r.run(ctx, stmts); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dialect/sql: commit: %w", err)
	}
	return nil
}

func (r *runner) run(ctx context.Context, stmts []schemac.Statement) error {
	r.stmts = stmts
	for i, st := range stmts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if st.Guard == nil {
			if r.batch {
				r.pending = append(r.pending, i)
				continue
			}
			if err := r.exec(ctx, i); err != nil {
				return err
			}
			continue
		}
		if err := r.flush(ctx); err != nil {
			return err
		}
		ok, err := r.probe(ctx, i)
		if err != nil {
			return err
		}
		if !ok {
			r.report.Skipped++
			r.log.DebugContext(ctx, "skip statement", "index", i, "kind", st.Kind.String(), "sql", st.SQL)
			continue
		}
		if err := r.exec(ctx, i); err != nil {
			return err
		}
	}
	return r.flush(ctx)
}

// probe evaluates the guard of statement i.
func (r *runner) probe(ctx context.Context, i int) (bool, error) {
	g := r.stmts[i].Guard
	args := g.Args
	if args == nil {
		args = []any{}
	}
	var rows Rows
	if err := r.eq.Query(ctx, g.Query, args, &rows); err != nil {
		return false, &ExecError{Index: i, SQL: g.Query, Err: err}
	}
	found, err := exists(&rows)
	if err != nil {
		return false, &ExecError{Index: i, SQL: g.Query, Err: err}
	}
	return found == g.Exists, nil
}

func (r *runner) exec(ctx context.Context, i int) error {
	st := r.stmts[i]
	r.log.DebugContext(ctx, "exec statement", "index", i, "kind", st.Kind.String(), "sql", st.SQL)
	if err := r.eq.Exec(ctx, st.SQL, []any{}, nil); err != nil {
		return &ExecError{Index: i, SQL: st.SQL, Err: err}
	}
	r.report.Executed++
	return nil
}

// flush sends the pending statements as one script.
func (r *runner) flush(ctx context.Context) error {
	switch len(r.pending) {
	case 0:
		return nil
	case 1:
		i := r.pending[0]
		r.pending = r.pending[:0]
		return r.exec(ctx, i)
	}
	batch := make([]schemac.Statement, len(r.pending))
	for j, i := range r.pending {
		batch[j] = r.stmts[i]
	}
	first := r.pending[0]
	r.pending = r.pending[:0]
	script := strings.TrimSuffix(r.desc.Script(batch), "\n")
	r.log.DebugContext(ctx, "exec batch", "index", first, "statements", len(batch), "sql", script)
	if err := r.eq.Exec(ctx, script, []any{}, nil); err != nil {
		return &ExecError{Index: first, SQL: script, Err: err}
	}
	r.report.Executed += len(batch)
	return nil
}
