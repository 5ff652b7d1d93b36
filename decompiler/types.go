package decompiler

import (
	"regexp"
	"strings"

	"github.com/syssam/schemac/decompiler/catalog"
	"github.com/syssam/schemac/schema/field"
)

// charOf maps a character column. Unsized columns are character large
// objects.
func charOf(c catalog.Column) field.Type {
	if c.Size <= 0 {
		return field.Clob()
	}
	return field.Char(c.Size)
}

func binaryOf(c catalog.Column) field.Type {
	if c.Size <= 0 {
		return field.Blob()
	}
	return field.Binary(c.Size)
}

// decimalOf maps an exact numeric column. A column without a declared
// precision has no model type.
func decimalOf(c catalog.Column) field.Type {
	if c.Size <= 0 {
		return nil
	}
	return field.Decimal(c.Size, c.Scale)
}

type mysqlRules struct{}

func (mysqlRules) columnType(c catalog.Column) field.Type {
	switch c.TypeName {
	case "TINYINT":
		return field.Integer(field.Tinyint)
	case "SMALLINT":
		return field.Integer(field.Smallint)
	case "MEDIUMINT", "INT", "INTEGER":
		return field.Integer(field.Int)
	case "BIGINT":
		return field.Integer(field.Bigint)
	case "BOOLEAN", "BOOL":
		return field.Boolean()
	case "FLOAT":
		return field.Float()
	case "DOUBLE", "REAL":
		return field.Double()
	case "DECIMAL", "NUMERIC":
		return decimalOf(c)
	case "CHAR", "VARCHAR":
		return charOf(c)
	case "TINYTEXT", "TEXT", "MEDIUMTEXT", "LONGTEXT":
		return field.Clob()
	case "BINARY", "VARBINARY":
		return binaryOf(c)
	case "TINYBLOB", "BLOB", "MEDIUMBLOB", "LONGBLOB":
		return field.Blob()
	case "DATE":
		return field.Date()
	case "TIME":
		return field.Time()
	case "DATETIME", "TIMESTAMP":
		return field.Datetime()
	case "ENUM":
		if len(c.EnumValues) > 0 {
			return field.Enum(c.EnumValues...)
		}
	}
	return nil
}

func (mysqlRules) checkClause(clause string) string { return clause }

type postgresRules struct{}

func (postgresRules) columnType(c catalog.Column) field.Type {
	switch c.TypeName {
	case "SMALLINT", "INT2":
		return field.Integer(field.Smallint)
	case "INTEGER", "INT", "INT4":
		return field.Integer(field.Int)
	case "BIGINT", "INT8":
		return field.Integer(field.Bigint)
	case "BOOLEAN", "BOOL":
		return field.Boolean()
	case "REAL", "FLOAT4":
		return field.Float()
	case "DOUBLE PRECISION", "FLOAT8":
		return field.Double()
	case "NUMERIC", "DECIMAL":
		return decimalOf(c)
	case "CHARACTER VARYING", "VARCHAR", "CHARACTER", "CHAR":
		return charOf(c)
	case "TEXT":
		return field.Clob()
	case "BYTEA":
		// bytea carries no length.
		return field.Blob()
	case "DATE":
		return field.Date()
	case "TIME", "TIME WITHOUT TIME ZONE", "TIME WITH TIME ZONE":
		return field.Time()
	case "TIMESTAMP", "TIMESTAMP WITHOUT TIME ZONE", "TIMESTAMP WITH TIME ZONE":
		return field.Datetime()
	case "USER-DEFINED":
		if c.UserType != "" && len(c.EnumValues) > 0 {
			return field.EnumOf(c.UserType)
		}
	}
	return nil
}

var (
	pgCast = regexp.MustCompile(`::(character varying|double precision|timestamp without time zone|time without time zone|[a-z_][a-z0-9_]*)(\[\])?`)
	pgAny  = regexp.MustCompile(`=\s*ANY\s*\(\s*\(?\s*ARRAY\[(.*?)\]\s*\)?\s*\)`)
)

// checkClause drops the casts pg_get_constraintdef adds and turns
// "= ANY (ARRAY[...])" back into an IN list.
func (postgresRules) checkClause(clause string) string {
	clause = pgCast.ReplaceAllString(clause, "")
	return pgAny.ReplaceAllString(clause, "IN ($1)")
}

type oracleRules struct{}

func (oracleRules) columnType(c catalog.Column) field.Type {
	switch c.TypeName {
	case "NUMBER":
		if c.Scale > 0 {
			return decimalOf(c)
		}
		switch c.Size {
		case 1:
			return field.Boolean()
		case 3:
			return field.Integer(field.Tinyint)
		case 5:
			return field.Integer(field.Smallint)
		case 10:
			return field.Integer(field.Int)
		case 19:
			return field.Integer(field.Bigint)
		}
		return decimalOf(c)
	case "BINARY_FLOAT":
		return field.Float()
	case "BINARY_DOUBLE", "FLOAT":
		return field.Double()
	case "VARCHAR2", "NVARCHAR2", "VARCHAR", "CHAR", "NCHAR":
		return charOf(c)
	case "CLOB", "NCLOB":
		return field.Clob()
	case "RAW":
		return binaryOf(c)
	case "BLOB":
		return field.Blob()
	case "DATE":
		return field.Date()
	}
	if strings.HasPrefix(c.TypeName, "TIMESTAMP") {
		return field.Datetime()
	}
	return nil
}

func (oracleRules) checkClause(clause string) string { return clause }

// ibmRules covers DB2 and Derby, which share their type names.
type ibmRules struct{}

func (ibmRules) columnType(c catalog.Column) field.Type {
	switch c.TypeName {
	case "SMALLINT":
		return field.Integer(field.Smallint)
	case "INTEGER", "INT":
		return field.Integer(field.Int)
	case "BIGINT":
		return field.Integer(field.Bigint)
	case "BOOLEAN":
		return field.Boolean()
	case "REAL":
		return field.Float()
	case "DOUBLE", "DOUBLE PRECISION", "FLOAT":
		return field.Double()
	case "DECIMAL", "DEC", "NUMERIC":
		return decimalOf(c)
	case "VARCHAR", "CHAR", "CHARACTER", "CHARACTER VARYING":
		return charOf(c)
	case "VARCHAR FOR BIT DATA", "CHAR FOR BIT DATA", "VARBINARY", "BINARY":
		return binaryOf(c)
	case "CLOB":
		return field.Clob()
	case "BLOB":
		return field.Blob()
	case "DATE":
		return field.Date()
	case "TIME":
		return field.Time()
	case "TIMESTAMP":
		return field.Datetime()
	}
	return nil
}

func (ibmRules) checkClause(clause string) string { return clause }

// sqliteRules maps the declared type names the compiler writes. SQLite keeps
// declarations verbatim, so BLOB stands for both binary kinds.
type sqliteRules struct{}

func (sqliteRules) columnType(c catalog.Column) field.Type {
	switch c.TypeName {
	case "TINYINT":
		return field.Integer(field.Tinyint)
	case "SMALLINT":
		return field.Integer(field.Smallint)
	case "INTEGER", "INT", "MEDIUMINT":
		return field.Integer(field.Int)
	case "BIGINT":
		return field.Integer(field.Bigint)
	case "BOOLEAN":
		return field.Boolean()
	case "FLOAT":
		return field.Float()
	case "DOUBLE", "REAL", "DOUBLE PRECISION":
		return field.Double()
	case "DECIMAL", "NUMERIC":
		return decimalOf(c)
	case "VARCHAR", "CHAR", "CHARACTER", "NVARCHAR", "TEXT":
		return charOf(c)
	case "CLOB":
		return field.Clob()
	case "BLOB":
		return field.Blob()
	case "DATE":
		return field.Date()
	case "TIME":
		return field.Time()
	case "DATETIME", "TIMESTAMP":
		return field.Datetime()
	}
	return nil
}

func (sqliteRules) checkClause(clause string) string { return clause }
