package dialect

// Words reserved by every supported vendor.
var coreReserved = []string{
	"ADD", "ALL", "ALTER", "AND", "ANY", "AS", "ASC", "BETWEEN", "BY", "CASE", "CHECK", "COLUMN",
	"CONSTRAINT", "CREATE", "CROSS", "DEFAULT", "DELETE", "DESC", "DISTINCT", "DROP", "ELSE",
	"EXISTS", "FOREIGN", "FROM", "GRANT", "GROUP", "HAVING", "IN", "INDEX", "INNER", "INSERT",
	"INTO", "IS", "JOIN", "LEFT", "LIKE", "NOT", "NULL", "ON", "OR", "ORDER", "PRIMARY",
	"REFERENCES", "RIGHT", "SELECT", "SET", "TABLE", "THEN", "TO", "UNION", "UNIQUE", "UPDATE",
	"VALUES", "WHEN", "WHERE", "WITH",
}

var vendorReserved = map[Vendor][]string{
	MySQL:    {"AUTO_INCREMENT", "DATABASE", "DUAL", "INTERVAL", "KEY", "KEYS", "LIMIT", "RANGE", "READ", "RLIKE", "USAGE"},
	MariaDB:  {"AUTO_INCREMENT", "DATABASE", "DUAL", "INTERVAL", "KEY", "KEYS", "LIMIT", "RANGE", "READ", "RLIKE", "USAGE"},
	Postgres: {"ANALYSE", "ANALYZE", "ARRAY", "DO", "LIMIT", "OFFSET", "RETURNING", "USER", "VARIADIC", "WINDOW"},
	Oracle: {
		"ACCESS", "AUDIT", "CLUSTER", "COMMENT", "COMPRESS", "DATE", "EXCLUSIVE", "FILE", "LEVEL",
		"LOCK", "MODE", "NUMBER", "ROWID", "ROWNUM", "SESSION", "SIZE", "SYSDATE", "UID", "USER",
	},
	DB2:    {"CURRENT", "FETCH", "IMMEDIATE", "SEQUENCE", "USER"},
	Derby:  {"CURRENT", "FETCH", "USER"},
	SQLite: {"AUTOINCREMENT", "LIMIT", "OFFSET", "PRAGMA", "VACUUM"},
}

func reservedWords(v Vendor) map[string]struct{} {
	m := make(map[string]struct{}, len(coreReserved)+len(vendorReserved[v]))
	for _, w := range coreReserved {
		m[w] = struct{}{}
	}
	for _, w := range vendorReserved[v] {
		m[w] = struct{}{}
	}
	return m
}
