package kv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestSQLite(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestSQLite_GetMissing(t *testing.T) {
	s := openTestSQLite(t)

	v, ok, err := s.Get(context.Background(), "submissions:farmer")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSQLite_SetOverwrites(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "one"))
	require.NoError(t, s.Set(ctx, "k", "two"))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", v)
}

func TestSQLite_LargeValue(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	big := strings.Repeat("x", 4<<20)
	require.NoError(t, s.Set(ctx, "big", big))

	v, _, err := s.Get(ctx, "big")
	require.NoError(t, err)
	assert.Equal(t, len(big), len(v))
}

func TestSQLite_DurableAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "submissions:aggregator", `[{"name":"Acme"}]`))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := s2.Get(ctx, "submissions:aggregator")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"name":"Acme"}]`, v)
}

func TestSQLite_Keys(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	for _, k := range []string{"submissions:farmer", "other:settings", "submissions:aggregator"} {
		require.NoError(t, s.Set(ctx, k, "[]"))
	}

	keys, err := s.Keys(ctx, "submissions:")
	require.NoError(t, err)
	assert.Equal(t, []string{"submissions:aggregator", "submissions:farmer"}, keys)

	none, err := s.Keys(ctx, "missing:")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestSQLite_ClosedErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Set(context.Background(), "k", "v")
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	s := &SQLite{}
	assert.NoError(t, s.Close())
}

var _ Medium = (*SQLite)(nil)
var _ Lister = (*SQLite)(nil)
