package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Querier is the database/sql query method the SQL readers need. *sql.DB,
// *sql.Conn and *sql.Tx satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLite reads the catalog of a SQLite database through PRAGMA statements
// and the table SQL kept in sqlite_master.
type SQLite struct {
	db Querier
}

// NewSQLite returns a SQLite catalog reader.
func NewSQLite(db Querier) *SQLite {
	return &SQLite{db: db}
}

var _ Reader = (*SQLite)(nil)

// Tables returns the user tables.
func (r *SQLite) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("catalog: list tables: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// tableSQL returns the CREATE TABLE statement of table.
func (r *SQLite) tableSQL(ctx context.Context, table string) (string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	var stmt sql.NullString
	if rows.Next() {
		if err := rows.Scan(&stmt); err != nil {
			return "", err
		}
	}
	return stmt.String, rows.Err()
}

type sqliteColumn struct {
	name, decl string
	notNull    bool
	dflt       sql.NullString
	pk         int
}

func (r *SQLite) tableInfo(ctx context.Context, table string) ([]sqliteColumn, error) {
	rows, err := r.db.QueryContext(ctx, "PRAGMA table_info("+quote(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []sqliteColumn
	for rows.Next() {
		var (
			cid     int
			c       sqliteColumn
			notNull int
		)
		if err := rows.Scan(&cid, &c.name, &c.decl, &notNull, &c.dflt, &c.pk); err != nil {
			return nil, err
		}
		c.notNull = notNull != 0
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// Columns returns the columns of table. An INTEGER primary key declared
// AUTOINCREMENT is reported as auto-increment.
func (r *SQLite) Columns(ctx context.Context, table string) ([]Column, error) {
	info, err := r.tableInfo(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: columns of %s: %w", table, err)
	}
	stmt, err := r.tableSQL(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: columns of %s: %w", table, err)
	}
	autoinc := strings.Contains(strings.ToUpper(stmt), "AUTOINCREMENT")
	out := make([]Column, 0, len(info))
	for _, c := range info {
		name, size, scale := splitType(c.decl)
		col := Column{
			Name:     c.name,
			TypeName: name,
			Size:     size,
			Scale:    scale,
			Nullable: !c.notNull && c.pk == 0,
		}
		if c.dflt.Valid {
			col.Default = &c.dflt.String
		}
		if autoinc && c.pk == 1 && name == "INTEGER" {
			col.AutoIncrement = true
		}
		out = append(out, col)
	}
	return out, nil
}

// PrimaryKey returns the key columns ordered by their key position.
func (r *SQLite) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	info, err := r.tableInfo(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: primary key of %s: %w", table, err)
	}
	sort.SliceStable(info, func(i, j int) bool { return info[i].pk < info[j].pk })
	var pk []string
	for _, c := range info {
		if c.pk > 0 {
			pk = append(pk, c.name)
		}
	}
	return pk, nil
}

type sqliteIndex struct {
	name   string
	unique bool
	origin string
}

func (r *SQLite) indexList(ctx context.Context, table string) ([]sqliteIndex, error) {
	rows, err := r.db.QueryContext(ctx, "PRAGMA index_list("+quote(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []sqliteIndex
	for rows.Next() {
		var (
			seq, unique, partial int
			idx                  sqliteIndex
		)
		if err := rows.Scan(&seq, &idx.name, &unique, &idx.origin, &partial); err != nil {
			return nil, err
		}
		idx.unique = unique == 1
		out = append(out, idx)
	}
	return out, rows.Err()
}

func (r *SQLite) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "PRAGMA index_info("+quote(index)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}

// indexes returns the indexes of table created with the given origin:
// "u" for unique constraints, "c" for CREATE INDEX.
func (r *SQLite) indexes(ctx context.Context, table, origin string) ([]sqliteIndex, [][]string, error) {
	list, err := r.indexList(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	var (
		idxs []sqliteIndex
		cols [][]string
	)
	for _, idx := range list {
		if idx.origin != origin {
			continue
		}
		c, err := r.indexColumns(ctx, idx.name)
		if err != nil {
			return nil, nil, err
		}
		idxs = append(idxs, idx)
		cols = append(cols, c)
	}
	return idxs, cols, nil
}

// UniqueConstraints returns the columns of the table's UNIQUE constraints.
// SQLite keeps no constraint names; the backing index name is used.
func (r *SQLite) UniqueConstraints(ctx context.Context, table string) ([]KeyColumn, error) {
	idxs, cols, err := r.indexes(ctx, table, "u")
	if err != nil {
		return nil, fmt.Errorf("catalog: unique constraints of %s: %w", table, err)
	}
	var out []KeyColumn
	for i, idx := range idxs {
		for j, c := range cols[i] {
			out = append(out, KeyColumn{Constraint: idx.name, Column: c, Ordinal: j + 1})
		}
	}
	return out, nil
}

// Indexes returns the columns of explicitly created indexes.
func (r *SQLite) Indexes(ctx context.Context, table string) ([]IndexColumn, error) {
	idxs, cols, err := r.indexes(ctx, table, "c")
	if err != nil {
		return nil, fmt.Errorf("catalog: indexes of %s: %w", table, err)
	}
	var out []IndexColumn
	for i, idx := range idxs {
		for j, c := range cols[i] {
			out = append(out, IndexColumn{Index: idx.name, Column: c, Ordinal: j + 1, Unique: idx.unique, Kind: "btree"})
		}
	}
	return out, nil
}

// ImportedKeys returns the foreign key columns. SQLite keeps no constraint
// names; keys are named by their catalog id.
func (r *SQLite) ImportedKeys(ctx context.Context, table string) ([]ImportedKey, error) {
	rows, err := r.db.QueryContext(ctx, "PRAGMA foreign_key_list("+quote(table)+")")
	if err != nil {
		return nil, fmt.Errorf("catalog: foreign keys of %s: %w", table, err)
	}
	defer rows.Close()
	var out []ImportedKey
	for rows.Next() {
		var (
			id, seq            int
			ref, from          string
			onUpdate, onDelete string
			match              string
			to                 sql.NullString
		)
		if err := rows.Scan(&id, &seq, &ref, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		k := ImportedKey{
			Name:      "fk" + strconv.Itoa(id),
			Column:    from,
			RefTable:  ref,
			RefColumn: to.String,
			Ordinal:   seq + 1,
		}
		if k.UpdateRule, err = ParseRule(onUpdate); err != nil {
			return nil, err
		}
		if k.DeleteRule, err = ParseRule(onDelete); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Checks returns the CHECK constraints found in the table SQL.
func (r *SQLite) Checks(ctx context.Context, table string) ([]Check, error) {
	stmt, err := r.tableSQL(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("catalog: checks of %s: %w", table, err)
	}
	return ScanChecks(stmt), nil
}

// ScanChecks extracts the CHECK clauses of a CREATE TABLE statement with
// the name of their CONSTRAINT, if any.
func ScanChecks(stmt string) []Check {
	var (
		out   []Check
		upper = strings.ToUpper(stmt)
	)
	for i := 0; i < len(stmt); {
		at := indexWord(upper[i:], "CHECK")
		if at < 0 {
			break
		}
		at += i
		open := at + len("CHECK")
		for open < len(stmt) && stmt[open] == ' ' {
			open++
		}
		if open >= len(stmt) || stmt[open] != '(' {
			i = at + len("CHECK")
			continue
		}
		end := closingParen(stmt, open)
		if end < 0 {
			break
		}
		out = append(out, Check{Name: constraintName(stmt[:at]), Clause: strings.TrimSpace(stmt[open+1 : end])})
		i = end + 1
	}
	return out
}

// indexWord finds word in s at identifier boundaries.
func indexWord(s, word string) int {
	for off := 0; ; {
		i := strings.Index(s[off:], word)
		if i < 0 {
			return -1
		}
		i += off
		before := i == 0 || !isIdent(s[i-1])
		after := i+len(word) == len(s) || !isIdent(s[i+len(word)])
		if before && after {
			return i
		}
		off = i + len(word)
	}
}

func isIdent(b byte) bool {
	return b == '_' || b == '"' || b >= '0' && b <= '9' || b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

// closingParen returns the index of the parenthesis closing the one at
// open, skipping quoted text.
func closingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\'', '"', '`':
			q := s[i]
			for i++; i < len(s) && s[i] != q; i++ {
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// constraintName returns the name of a "CONSTRAINT name" clause ending s.
func constraintName(s string) string {
	fields := strings.Fields(s)
	if n := len(fields); n >= 2 && strings.EqualFold(fields[n-2], "CONSTRAINT") {
		return unquote(fields[n-1])
	}
	return ""
}

func unquote(ident string) string {
	if len(ident) >= 2 {
		switch ident[0] {
		case '"', '`', '[':
			return strings.ReplaceAll(ident[1:len(ident)-1], `""`, `"`)
		}
	}
	return ident
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
