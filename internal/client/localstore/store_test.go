package localstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", []byte{0x01, 0x02}))

	v, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, v)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	s := openStore(t)

	v, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("old")))
	require.NoError(t, s.Set(ctx, "k", []byte("new")))

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func TestJSONRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	type user struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}

	var got user
	ok, err := s.GetJSON(ctx, KeyUser, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetJSON(ctx, KeyUser, user{ID: 7, Email: "alice@example.com"}))
	ok, err = s.GetJSON(ctx, KeyUser, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, user{ID: 7, Email: "alice@example.com"}, got)
}

func TestGetJSON_CorruptValue(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyTasks, []byte("{not json")))
	var v []any
	_, err := s.GetJSON(ctx, KeyTasks, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode kv[tasks]")
}

func TestDeleteKeys_And_List(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, k := range []string{KeyAuthToken, KeyUser, KeyTasks, KeyFitness, KeySyncQueue} {
		require.NoError(t, s.Set(ctx, k, []byte(`"x"`)))
	}
	require.NoError(t, s.DeleteKeys(ctx, DomainKeys...))

	m, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, m, 3)
	assert.Contains(t, m, KeySyncQueue)
	assert.NotContains(t, m, KeyTasks)

	require.NoError(t, s.Clear(ctx))
	m, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SetJSON(ctx, KeyAuthToken, "tok"))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	var tok string
	ok, err := s.GetJSON(ctx, KeyAuthToken, &tok)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	_, err = Open(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations error")
}

func TestRepository_DBErrorWrapped(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.db.Close())

	_, err := s.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get kv[k]")
	require.ErrorContains(t, s.Set(ctx, "k", []byte("v")), "failed to set kv[k]")
	require.ErrorContains(t, s.Delete(ctx, "k"), "failed to delete kv[k]")
	require.ErrorContains(t, s.Clear(ctx), "failed to clear kv")
	_, err = s.List(ctx)
	require.ErrorContains(t, err, "failed to list kv")
}

func TestOpen_MigrationOutputGoesToLogger(t *testing.T) {
	orig := migrationLogger
	t.Cleanup(func() { migrationLogger = orig })

	var buf bytes.Buffer
	SetMigrationLogger(logging.New(&buf, "text", "debug"))

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.Contains(t, buf.String(), "00001_kv.sql")
	assert.Contains(t, buf.String(), "module=migrations")
}
