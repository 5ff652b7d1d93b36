// Package migrate writes a compiled statement batch as one versioned
// migration in the layout of a migration tool, using atlas's formatters and
// directory checksum.
package migrate

import (
	"fmt"
	"os"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/sqltool"

	"github.com/syssam/schemac"
)

// Format names a migration directory layout.
type Format string

// Supported formats.
const (
	Atlas         Format = "atlas"
	GolangMigrate Format = "golang-migrate"
	Goose         Format = "goose"
	Flyway        Format = "flyway"
	DBMate        Format = "dbmate"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{Atlas, GolangMigrate, Goose, Flyway, DBMate}
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("schemac: unknown migration format %q", s)
}

// layout opens the directory of a format and returns its formatter.
func (f Format) layout(path string) (migrate.Dir, migrate.Formatter, error) {
	switch f {
	case Atlas:
		d, err := migrate.NewLocalDir(path)
		return d, migrate.DefaultFormatter, err
	case GolangMigrate:
		d, err := sqltool.NewGolangMigrateDir(path)
		return d, sqltool.GolangMigrateFormatter, err
	case Goose:
		d, err := sqltool.NewGooseDir(path)
		return d, sqltool.GooseFormatter, err
	case Flyway:
		d, err := sqltool.NewFlywayDir(path)
		return d, sqltool.FlywayFormatter, err
	case DBMate:
		d, err := sqltool.NewDBMateDir(path)
		return d, sqltool.DBMateFormatter, err
	}
	return nil, nil, fmt.Errorf("schemac: unknown migration format %q", string(f))
}

// reversible reports whether the format has a down section.
func (f Format) reversible() bool { return f != Atlas }

type writer struct {
	version string
}

// Option configures Write.
type Option func(*writer) error

// WithVersion sets the version of an atlas migration file. Other formats
// always stamp the current time.
func WithVersion(v string) Option {
	return func(w *writer) error {
		if err := migrate.CheckVersion(v); err != nil {
			return fmt.Errorf("schemac: migration version: %w", err)
		}
		w.version = v
		return nil
	}
}

// Write renders stmts as one migration called name in the directory at
// path, creating it if needed, and refreshes the atlas.sum checksum file.
// It returns the names of the files written.
//
// Atlas migrations hold the batch as is. Formats with a down section put
// the create statements in the up migration and the drop statements, in
// batch order, in the down migration.
func Write(path, name string, stmts []schemac.Statement, f Format, opts ...Option) ([]string, error) {
	w := &writer{}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	plan, err := w.plan(name, stmts, f)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("schemac: migration dir: %w", err)
	}
	dir, fmtr, err := f.layout(path)
	if err != nil {
		return nil, err
	}
	files, err := fmtr.Format(plan)
	if err != nil {
		return nil, fmt.Errorf("schemac: format migration: %w", err)
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		if err := dir.WriteFile(file.Name(), file.Bytes()); err != nil {
			return nil, fmt.Errorf("schemac: write migration: %w", err)
		}
		names = append(names, file.Name())
	}
	sum, err := dir.Checksum()
	if err != nil {
		return nil, fmt.Errorf("schemac: migration checksum: %w", err)
	}
	if err := migrate.WriteSumFile(dir, sum); err != nil {
		return nil, fmt.Errorf("schemac: write %s: %w", migrate.HashFileName, err)
	}
	return names, nil
}

func (w *writer) plan(name string, stmts []schemac.Statement, f Format) (*migrate.Plan, error) {
	plan := &migrate.Plan{Version: w.version, Name: name}
	var (
		creates []*migrate.Change
		drops   []string
	)
	for i, st := range stmts {
		if st.Guard != nil {
			return nil, fmt.Errorf("schemac: statement %d depends on a catalog probe and cannot be written to a migration", i)
		}
		if isBlock(st.SQL) {
			if f.reversible() {
				return nil, fmt.Errorf("schemac: %s migrations cannot delimit the PL/SQL block of statement %d", f, i)
			}
			plan.Delimiter = "\n/"
		}
		switch {
		case f.reversible() && st.Kind == schemac.Drop:
			drops = append(drops, st.SQL)
		default:
			creates = append(creates, &migrate.Change{Cmd: st.SQL})
		}
	}
	if len(creates) == 0 {
		// Nothing to reverse: the drops are the migration.
		for _, d := range drops {
			creates = append(creates, &migrate.Change{Cmd: d})
		}
		drops = nil
	}
	if len(drops) > 0 {
		// Only the first change carries a reverse: the whole drop phase.
		creates[0].Reverse = drops
		plan.Reversible = true
	}
	plan.Changes = creates
	return plan, nil
}

// isBlock reports whether sql is a PL/SQL block, which ends with its own
// terminator.
func isBlock(sql string) bool {
	return strings.HasSuffix(strings.TrimRight(sql, " \n"), "END;")
}
