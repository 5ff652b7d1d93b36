package sql

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/schemac/dialect"
)

// ExecStats holds statement execution statistics.
type ExecStats struct {
	// Statements is the number of DDL round trips sent.
	Statements atomic.Int64
	// Probes is the number of guard queries evaluated.
	Probes atomic.Int64
	// TotalDuration is the total time spent in the database, in nanoseconds.
	TotalDuration atomic.Int64
	// Slow is the count of round trips exceeding the slow threshold.
	Slow atomic.Int64
	// Errors is the count of failed round trips.
	Errors atomic.Int64
}

// Snapshot returns a snapshot of the current statistics.
func (s *ExecStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Statements:    s.Statements.Load(),
		Probes:        s.Probes.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		Slow:          s.Slow.Load(),
		Errors:        s.Errors.Load(),
	}
}

// StatsSnapshot is a point-in-time snapshot of execution statistics.
type StatsSnapshot struct {
	Statements    int64
	Probes        int64
	TotalDuration time.Duration
	Slow          int64
	Errors        int64
}

// Avg returns the average round-trip duration.
func (s StatsSnapshot) Avg() time.Duration {
	total := s.Statements + s.Probes
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"statements=%d probes=%d duration=%s avg=%s slow=%d errors=%d",
		s.Statements, s.Probes, s.TotalDuration, s.Avg(), s.Slow, s.Errors,
	)
}

// SlowHook is called when a round trip exceeds the slow threshold.
type SlowHook func(ctx context.Context, query string, duration time.Duration)

// StatsDriver wraps a Driver with execution statistics.
type StatsDriver struct {
	*Driver
	stats         *ExecStats
	slowThreshold time.Duration
	slowHook      SlowHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a round trip counts as
// slow. Default is 1s.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowHook sets a callback for slow round trips.
func WithSlowHook(hook SlowHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// NewStatsDriver wraps a Driver with statistics collection.
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &ExecStats{},
		slowThreshold: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExecStats returns the collected statistics.
func (d *StatsDriver) ExecStats() *ExecStats {
	return d.stats
}

// SlowThreshold returns the current slow threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query runs a guard probe and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, start, err, true)
	return err
}

// Exec runs a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, start, err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, start time.Time, err error, probe bool) {
	duration := time.Since(start)
	if probe {
		d.stats.Probes.Add(1)
	} else {
		d.stats.Statements.Add(1)
	}
	d.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.Slow.Add(1)
		if hook != nil {
			hook(ctx, query, duration)
		}
	}
}

// Tx starts a transaction that also records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query runs a guard probe within the transaction and records statistics.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, start, err, true)
	return err
}

// Exec runs a statement within the transaction and records statistics.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, start, err, false)
	return err
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
)
