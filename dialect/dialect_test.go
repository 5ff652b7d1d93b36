package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/dialect"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want dialect.Vendor
	}{
		{"mysql", dialect.MySQL},
		{"MariaDB", dialect.MariaDB},
		{"postgresql", dialect.Postgres},
		{" PG ", dialect.Postgres},
		{"oracle", dialect.Oracle},
		{"db2", dialect.DB2},
		{"derby", dialect.Derby},
		{"sqlite3", dialect.SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := dialect.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.True(t, v.Valid())
		})
	}

	_, err := dialect.Parse("sybase")
	require.Error(t, err)
	assert.True(t, schemac.IsVendorUnsupported(err))
	assert.False(t, dialect.Vendor("sybase").Valid())
}

func TestDescribe(t *testing.T) {
	for _, v := range dialect.Vendors() {
		d, err := dialect.Describe(v)
		require.NoError(t, err, v)
		assert.Equal(t, v, d.Vendor)
	}
	_, err := dialect.Describe("informix")
	assert.True(t, schemac.IsVendorUnsupported(err))
}

func TestDescriptorLiterals(t *testing.T) {
	my, _ := dialect.Describe(dialect.MySQL)
	pg, _ := dialect.Describe(dialect.Postgres)
	ora, _ := dialect.Describe(dialect.Oracle)

	assert.Equal(t, "`users`", my.QuoteIdent("users"))
	assert.Equal(t, `"a""b"`, pg.QuoteIdent(`a"b`))
	assert.Equal(t, "users", ora.QuoteIdent("users"))
	assert.Equal(t, "`a`, `b`", my.QuoteIdents([]string{"a", "b"}))

	assert.Equal(t, `'it''s \\ ok'`, my.String(`it's \ ok`))
	assert.Equal(t, `'it''s \ ok'`, pg.String(`it's \ ok`))

	assert.Equal(t, "DATE '2020-01-02'", ora.Date("2020-01-02"))
	assert.Equal(t, "'2020-01-02'", pg.Date("2020-01-02"))
	assert.Equal(t, "1", ora.Bool(true))
	assert.Equal(t, "FALSE", pg.Bool(false))

	assert.Equal(t, "USERS", ora.CatalogName("users"))
	assert.Equal(t, "users", pg.CatalogName("users"))
	assert.Equal(t, "users", ora.SchemaName("USERS"))
	assert.Equal(t, "MixedCase", ora.SchemaName("MixedCase"))
}

func TestReserved(t *testing.T) {
	ora, _ := dialect.Describe(dialect.Oracle)
	pg, _ := dialect.Describe(dialect.Postgres)
	assert.True(t, ora.IsReserved("date"))
	assert.False(t, pg.IsReserved("date"))
	assert.True(t, pg.IsReserved("select"))
	assert.False(t, pg.IsReserved("email"))
}

func TestScript(t *testing.T) {
	ora, _ := dialect.Describe(dialect.Oracle)
	script := ora.Script([]schemac.Statement{
		schemac.CreateStmt("CREATE TABLE t (a NUMBER(10))"),
		schemac.CreateStmt("BEGIN\n  NULL;\nEND;"),
	})
	assert.Equal(t, "CREATE TABLE t (a NUMBER(10));\nBEGIN\n  NULL;\nEND;\n/\n", script)
}
