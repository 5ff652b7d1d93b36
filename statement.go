package schemac

// StatementKind tags a Statement as creating or dropping an object.
type StatementKind int

// Statement kinds.
const (
	Create StatementKind = iota
	Drop
)

func (k StatementKind) String() string {
	if k == Drop {
		return "drop"
	}
	return "create"
}

// Guard is a catalog probe evaluated before its statement runs, for dialects
// with no native IF [NOT] EXISTS form. The statement runs only when the probe
// returning a row equals Exists.
type Guard struct {
	Query  string
	Args   []any
	Exists bool
}

// Statement is one emitted DDL statement. SQL carries no trailing statement
// terminator except where the terminator is part of the syntax (PL/SQL blocks).
type Statement struct {
	Kind  StatementKind
	SQL   string
	Guard *Guard
}

// CreateStmt returns a Create statement.
func CreateStmt(sql string) Statement { return Statement{Kind: Create, SQL: sql} }

// DropStmt returns a Drop statement.
func DropStmt(sql string) Statement { return Statement{Kind: Drop, SQL: sql} }
