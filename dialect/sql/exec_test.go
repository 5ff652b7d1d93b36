package sql

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/schemac"
	"github.com/syssam/schemac/dialect"
)

func mockDriver(t *testing.T, v dialect.Vendor) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return OpenDB(v, db), mock
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

var stmts = []schemac.Statement{
	schemac.DropStmt(`DROP TABLE IF EXISTS "orders"`),
	schemac.DropStmt(`DROP TABLE IF EXISTS "users"`),
	schemac.CreateStmt(`CREATE TABLE "users" ("id" INTEGER NOT NULL)`),
	schemac.CreateStmt(`CREATE TABLE "orders" ("id" INTEGER NOT NULL)`),
}

func TestExecOneByOne(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	for _, st := range stmts {
		mock.ExpectExec(st.SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	report, err := Exec(context.Background(), drv, stmts, WithLogger(quiet()))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 4, report.Executed)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, int64(4), report.Stats.Statements)
	assert.NotEmpty(t, report.RunID)
}

func TestExecBatch(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	mock.ExpectExec(`DROP TABLE IF EXISTS "orders";
DROP TABLE IF EXISTS "users";
CREATE TABLE "users" ("id" INTEGER NOT NULL);
CREATE TABLE "orders" ("id" INTEGER NOT NULL);`).WillReturnResult(sqlmock.NewResult(0, 0))
	report, err := Exec(context.Background(), drv, stmts, WithBatch(true), WithLogger(quiet()))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 4, report.Executed)
	assert.Equal(t, int64(1), report.Stats.Statements)
}

func TestExecGuards(t *testing.T) {
	guarded := []schemac.Statement{
		{Kind: schemac.Drop, SQL: "DROP TABLE t", Guard: &schemac.Guard{Query: "SELECT 1 FROM catalog WHERE name = ?", Args: []any{"T"}, Exists: true}},
		{Kind: schemac.Create, SQL: "CREATE SEQUENCE s"},
		{Kind: schemac.Create, SQL: "CREATE TABLE t (id INTEGER)", Guard: &schemac.Guard{Query: "SELECT 1 FROM catalog WHERE name = ?", Args: []any{"T"}, Exists: false}},
	}

	t.Run("Run", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.MySQL)
		mock.ExpectQuery("SELECT 1 FROM catalog WHERE name = ?").WithArgs("T").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectExec("DROP TABLE t").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE SEQUENCE s").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM catalog WHERE name = ?").WithArgs("T").WillReturnRows(sqlmock.NewRows([]string{"1"}))
		mock.ExpectExec("CREATE TABLE t (id INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))
		report, err := Exec(context.Background(), drv, guarded, WithLogger(quiet()))
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, 3, report.Executed)
		assert.Equal(t, int64(2), report.Stats.Probes)
	})

	t.Run("Skip", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.MySQL)
		mock.ExpectQuery("SELECT 1 FROM catalog WHERE name = ?").WithArgs("T").WillReturnRows(sqlmock.NewRows([]string{"1"}))
		mock.ExpectExec("CREATE SEQUENCE s").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM catalog WHERE name = ?").WithArgs("T").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		report, err := Exec(context.Background(), drv, guarded, WithLogger(quiet()))
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, 1, report.Executed)
		assert.Equal(t, 2, report.Skipped)
	})

	t.Run("BatchSplitsAtGuards", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.MySQL)
		mixed := []schemac.Statement{
			schemac.CreateStmt("CREATE TABLE a (id INT)"),
			schemac.CreateStmt("CREATE TABLE b (id INT)"),
			guarded[2],
			schemac.CreateStmt("CREATE INDEX i ON a (id)"),
		}
		mock.ExpectExec("CREATE TABLE a (id INT);\nCREATE TABLE b (id INT);").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM catalog WHERE name = ?").WithArgs("T").WillReturnRows(sqlmock.NewRows([]string{"1"}))
		mock.ExpectExec("CREATE TABLE t (id INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE INDEX i ON a (id)").WillReturnResult(sqlmock.NewResult(0, 0))
		report, err := Exec(context.Background(), drv, mixed, WithBatch(true), WithLogger(quiet()))
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, 4, report.Executed)
	})
}

func TestExecError(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	cause := errors.New(`relation "users" already exists`)
	mock.ExpectExec(stmts[0].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(stmts[1].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(stmts[2].SQL).WillReturnError(cause)
	report, err := Exec(context.Background(), drv, stmts, WithLogger(quiet()))
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	var ee *ExecError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.Index)
	assert.Equal(t, stmts[2].SQL, ee.SQL)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 2, report.Executed)
	assert.Equal(t, int64(1), report.Stats.Errors)
}

func TestExecTx(t *testing.T) {
	t.Run("Commit", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		mock.ExpectBegin()
		for _, st := range stmts {
			mock.ExpectExec(st.SQL).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit()
		_, err := Exec(context.Background(), drv, stmts, WithTx(true), WithLogger(quiet()))
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		mock.ExpectBegin()
		mock.ExpectExec(stmts[0].SQL).WillReturnError(errors.New("boom"))
		mock.ExpectRollback()
		_, err := Exec(context.Background(), drv, stmts, WithTx(true), WithLogger(quiet()))
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExecBatchUnsupported(t *testing.T) {
	drv, _ := mockDriver(t, dialect.Oracle)
	_, err := Exec(context.Background(), drv, stmts, WithBatch(true))
	require.Error(t, err)
	assert.True(t, schemac.IsVendorUnsupported(err))
}

func TestExecCanceled(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Exec(ctx, drv, stmts, WithLogger(quiet()))
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecLogs(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	mock.ExpectExec(stmts[0].SQL).WillDelayFor(20 * time.Millisecond).WillReturnResult(sqlmock.NewResult(0, 0))
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	report, err := Exec(context.Background(), drv, stmts[:1], WithLogger(logger), WithSlowStatement(time.Millisecond))
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "run="+report.RunID)
	assert.Contains(t, out, "exec statement")
	assert.Contains(t, out, "slow statement")
	assert.Equal(t, int64(1), report.Stats.Slow)
}

func TestExecSQLiteBatch(t *testing.T) {
	db, err := sql.Open("sqlite", "file:execbatch?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	drv := OpenDB(dialect.SQLite, db)
	batch := []schemac.Statement{
		schemac.CreateStmt(`CREATE TABLE "users" ("id" INTEGER PRIMARY KEY)`),
		schemac.CreateStmt(`CREATE TABLE "orders" ("id" INTEGER PRIMARY KEY, "user_id" INTEGER REFERENCES "users" ("id"))`),
		schemac.CreateStmt(`CREATE INDEX "ix_orders_user" ON "orders" ("user_id")`),
	}
	report, err := Exec(context.Background(), drv, batch, WithBatch(true), WithLogger(quiet()))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Executed)

	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE name IN ('users', 'orders', 'ix_orders_user')`).Scan(&n))
	assert.Equal(t, 3, n)
}
