package migrate

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/dmitrijs2005/ontop/internal/server/models"
	"github.com/dmitrijs2005/ontop/internal/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedSource creates an embedded store with one user and two tasks and
// returns a raw handle on it.
func seedSource(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ontop.db")

	g, err := store.Open(ctx, store.Options{SQLitePath: path}, logging.Discard())
	require.NoError(t, err)
	u, err := g.RegisterUser(ctx, &models.User{Email: "alice@example.com", PasswordHash: "hash", DisplayName: "Alice"})
	require.NoError(t, err)
	require.NoError(t, g.SaveTasks(ctx, u.ID, []models.Task{{Title: "one", Completed: true}, {Title: "two"}}))
	require.NoError(t, g.Close())

	db, err := store.OpenEmbeddedDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTarget(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func insertRe(table string) string {
	return regexp.QuoteMeta("INSERT INTO "+table+" (") + ".*" + regexp.QuoteMeta("ON CONFLICT (id) DO NOTHING")
}

func setvalRe(table string) string {
	return regexp.QuoteMeta("SELECT setval(pg_get_serial_sequence('" + table + "', 'id')")
}

func TestRun_CopiesTablesInOrder(t *testing.T) {
	src := seedSource(t)
	dst, mock := newTarget(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertRe("users")).
		WithArgs(int64(1), "alice@example.com", "hash", "Alice", false,
			sqlmock.AnyArg(), sqlmock.AnyArg(), int64(0), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(setvalRe("users")).WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectBegin()
	mock.ExpectExec(insertRe("user_tasks")).
		WithArgs(sqlmock.AnyArg(), int64(1), int64(0), "one", "", "", "medium", "personal", true,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Already present on the target.
	mock.ExpectExec(insertRe("user_tasks")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(setvalRe("user_tasks")).WillReturnResult(sqlmock.NewResult(0, 1))

	for _, table := range []string{"user_fitness", "user_finances"} {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectExec(setvalRe(table)).WillReturnResult(sqlmock.NewResult(0, 1))
	}

	report, err := New(src, dst, logging.Discard()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Tables, 4)

	assert.Equal(t, TableReport{Table: "users", Read: 1, Inserted: 1}, report.Tables[0])
	assert.Equal(t, TableReport{Table: "user_tasks", Read: 2, Inserted: 1}, report.Tables[1])
	assert.Equal(t, TableReport{Table: "user_fitness"}, report.Tables[2])
	assert.Contains(t, report.String(), "user_tasks: read 2, inserted 1, skipped 1")
	require.NoError(t, mock.ExpectationsWereMet())
}

// setvalFullRe matches the whole sequence reset, pinning that the value is
// taken from the target table's MAX(id) and is_called is set when rows exist.
func setvalFullRe(table string) string {
	return "^" + regexp.QuoteMeta("SELECT setval(pg_get_serial_sequence('"+table+"', 'id'), "+
		"COALESCE((SELECT MAX(id) FROM "+table+"), 1), "+
		"(SELECT MAX(id) FROM "+table+") IS NOT NULL)") + "$"
}

// expectRun queues the statements of one full run over the seeded source;
// every insert reports affected rows.
func expectRun(mock sqlmock.Sqlmock, affected int64) {
	rows := map[string]int{"users": 1, "user_tasks": 2}
	for _, table := range []string{"users", "user_tasks", "user_fitness", "user_finances"} {
		mock.ExpectBegin()
		for i := 0; i < rows[table]; i++ {
			mock.ExpectExec(insertRe(table)).WillReturnResult(sqlmock.NewResult(0, affected))
		}
		mock.ExpectCommit()
		mock.ExpectExec(setvalFullRe(table)).WillReturnResult(sqlmock.NewResult(0, 1))
	}
}

func TestRun_SecondRunInsertsNothing(t *testing.T) {
	src := seedSource(t)
	dst, mock := newTarget(t)
	m := New(src, dst, logging.Discard())

	expectRun(mock, 1)
	first, err := m.Run(context.Background())
	require.NoError(t, err)

	expectRun(mock, 0)
	second, err := m.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, first.Tables, 4)
	require.Len(t, second.Tables, 4)
	for i := range first.Tables {
		assert.Equal(t, first.Tables[i].Table, second.Tables[i].Table)
		assert.Equal(t, first.Tables[i].Read, second.Tables[i].Read)
		assert.Equal(t, first.Tables[i].Read, first.Tables[i].Inserted)
		assert.Zero(t, second.Tables[i].Inserted)
	}
	assert.Contains(t, second.String(), "user_tasks: read 2, inserted 0, skipped 2")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_StopsAtFirstFailedTable(t *testing.T) {
	src := seedSource(t)
	dst, mock := newTarget(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertRe("users")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(setvalRe("users")).WillReturnResult(sqlmock.NewResult(0, 1))

	boom := errors.New("relation does not exist")
	mock.ExpectBegin()
	mock.ExpectExec(insertRe("user_tasks")).WillReturnError(boom)
	mock.ExpectRollback()

	report, err := New(src, dst, logging.Discard()).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "migrate user_tasks")

	require.Len(t, report.Tables, 1)
	assert.Equal(t, "users", report.Tables[0].Table)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertRow(t *testing.T) {
	tbl := Table{
		Name:    "x",
		Columns: []string{"id", "flag", "doc", "name"},
		Bools:   map[string]bool{"flag": true},
		Docs:    map[string]string{"doc": "[]"},
	}

	row := convertRow(tbl, []any{int64(1), int64(1), nil, []byte("n")})
	assert.Equal(t, []any{int64(1), true, "[]", "n"}, row)

	row = convertRow(tbl, []any{int64(2), int64(0), `[{"a":1}]`, "m"})
	assert.Equal(t, []any{int64(2), false, `[{"a":1}]`, "m"}, row)

	row = convertRow(tbl, []any{int64(3), "true", "  ", nil})
	assert.Equal(t, []any{int64(3), true, "[]", nil}, row)
}

func TestOptionsFromEnv(t *testing.T) {
	env := map[string]string{
		"SQLITE_PATH": "/data/ontop.db",
		"DB_HOST":     "db.internal",
		"DB_PORT":     "6543",
		"DB_USER":     "app",
		"DB_PASSWORD": "secret",
	}
	path, opts, err := OptionsFromEnv(func(k string) string { return env[k] })
	require.NoError(t, err)
	assert.Equal(t, "/data/ontop.db", path)
	assert.Equal(t, "db.internal", opts.Host)
	assert.Equal(t, 6543, opts.Port)
	assert.Equal(t, "ontop", opts.Name)
	assert.Equal(t, "disable", opts.SSLMode)

	_, _, err = OptionsFromEnv(func(string) string { return "" })
	assert.Error(t, err)

	env["DB_PORT"] = "x"
	_, _, err = OptionsFromEnv(func(k string) string { return env[k] })
	assert.Error(t, err)
}
