package ledger

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordbot/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/redis"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newFileLedger(t *testing.T, path string) *Ledger {
	t.Helper()
	l := New(NewFileStore(path))
	_, err := l.Load(context.Background())
	require.NoError(t, err)
	return l
}

type failingStore struct {
	words   []string
	err     error
	readErr error
}

func (f *failingStore) Name() string                                   { return "failing" }
func (f *failingStore) ReadAll(context.Context) ([]string, error)      { return f.words, f.readErr }
func (f *failingStore) Persist(context.Context, string, []string) error { return f.err }
func (f *failingStore) Ping(context.Context) error                     { return f.err }
func (f *failingStore) Close() error                                   { return nil }

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, open func() Store) {
	t.Helper()
	ctx := context.Background()

	first := New(open())
	loaded, err := first.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, first.Record(ctx, "x"))
	require.NoError(t, first.Record(ctx, "y"))
	require.NoError(t, first.Record(ctx, "y"))
	assert.Equal(t, 2, first.Size())
	assert.True(t, first.Contains("x"))
	require.NoError(t, first.Ping(ctx))

	second := New(open())
	loaded, err = second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, NewSet("x", "y"), loaded)
	assert.Equal(t, []string{"x", "y"}, second.Words())
}

// ---------------------------------------------------------------------------
// File store
// ---------------------------------------------------------------------------

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postedWords.txt")
	exerciseStore(t, func() Store { return NewFileStore(path) })

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\ny\n", string(data))
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	l := newFileLedger(t, filepath.Join(t.TempDir(), "nested", "none.txt"))
	assert.Zero(t, l.Size())
	assert.False(t, l.Contains("anything"))
}

func TestFileStoreIdempotentRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.txt")
	l := newFileLedger(t, path)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, "alpha"))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, l.Record(ctx, "alpha"))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileStoreReloadDeduplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.txt")
	require.NoError(t, os.WriteFile(path, []byte("b\nd\n\nb\n  d  \nd"), 0o644))

	l := newFileLedger(t, path)
	assert.Equal(t, []string{"b", "d"}, l.Words())
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "ledger.txt")
	l := newFileLedger(t, path)
	require.NoError(t, l.Record(context.Background(), "word"))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStoreUnreadable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	l := New(NewFileStore(filepath.Join(blocker, "ledger.txt")))
	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}

// ---------------------------------------------------------------------------
// Failure semantics
// ---------------------------------------------------------------------------

func TestRecordFailureKeepsWordInMemory(t *testing.T) {
	cause := errors.New("disk full")
	l := New(&failingStore{err: cause})
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	err = l.Record(context.Background(), "zephyr")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "zephyr")
	assert.True(t, l.Contains("zephyr"))
}

func TestLoadFailureKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	l := New(&failingStore{readErr: cause})
	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "loading failing ledger")
}

func TestRecordRejectsEmptyWord(t *testing.T) {
	l := New(&failingStore{})
	assert.ErrorIs(t, l.Record(context.Background(), "  "), apperrors.ErrPersistence)
}

// ---------------------------------------------------------------------------
// Redis store
// ---------------------------------------------------------------------------

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	exerciseStore(t, func() Store {
		client, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { client.Close() })
		return NewRedisStore(client, "wordbot:posted")
	})

	members, err := mr.Members("wordbot:posted")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, members)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	l := New(NewRedisStore(client, "k"))
	mr.Close()
	_, err = l.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}

// ---------------------------------------------------------------------------
// SQL stores
// ---------------------------------------------------------------------------

func TestRedisStoreResendsFailedWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	store := NewRedisStore(client, "posted")
	l := New(store)
	defer l.Close()
	ctx := context.Background()

	mr.SetError("READONLY replica")
	require.ErrorIs(t, l.Record(ctx, "lost"), apperrors.ErrPersistence)
	assert.Equal(t, 1, store.pending.len())

	mr.SetError("")
	require.NoError(t, l.Record(ctx, "next"))
	assert.Zero(t, store.pending.len())
	members, err := mr.Members("posted")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lost", "next"}, members)
}

func TestSQLiteStoreResendsFailedWrite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "wordbot.db"))
	require.NoError(t, err)
	store, err := NewSQLStore(context.Background(), db, SQLite)
	require.NoError(t, err)
	l := New(store)
	defer l.Close()
	ctx := context.Background()

	_, err = db.Exec(`ALTER TABLE posted_words RENAME TO posted_words_moved`)
	require.NoError(t, err)
	require.ErrorIs(t, l.Record(ctx, "lost"), apperrors.ErrPersistence)

	_, err = db.Exec(`ALTER TABLE posted_words_moved RENAME TO posted_words`)
	require.NoError(t, err)
	require.NoError(t, l.Record(ctx, "next"))

	words, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lost", "next"}, words)
	assert.Zero(t, store.pending.len())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordbot.db")
	exerciseStore(t, func() Store {
		db, err := OpenSQLite(path)
		require.NoError(t, err)
		s, err := NewSQLStore(context.Background(), db, SQLite)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skipping: TEST_POSTGRES_DSN not set")
	}
	db, err := postgres.Open(config.PostgresConfig{DSN: dsn, MaxOpenConns: 2})
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	_, err = db.Exec(`DROP TABLE IF EXISTS posted_words`)
	require.NoError(t, err)
	db.Close()

	exerciseStore(t, func() Store {
		db, err := postgres.Open(config.PostgresConfig{DSN: dsn, MaxOpenConns: 2})
		require.NoError(t, err)
		s, err := NewSQLStore(context.Background(), db, Postgres)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpenFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.txt")
	require.NoError(t, os.WriteFile(path, []byte("b\nd\n"), 0o644))

	cfg := &config.Config{Ledger: config.LedgerConfig{Backend: config.BackendFile, Path: path}}
	l, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, "file", l.Backend())
	assert.Equal(t, 2, l.Size())
}

func TestOpenRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	_, err := mr.SAdd("posted", "a", "b")
	require.NoError(t, err)

	cfg := &config.Config{
		Ledger: config.LedgerConfig{Backend: config.BackendRedis, RedisKey: "posted"},
		Redis:  config.RedisConfig{Addr: mr.Addr()},
	}
	l, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, []string{"a", "b"}, l.Words())
}

func TestOpenUnreachableRedisKeepsCause(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &config.Config{
		Ledger: config.LedgerConfig{Backend: config.BackendRedis, RedisKey: "posted"},
		Redis:  config.RedisConfig{Addr: addr},
	}
	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	var opErr *net.OpError
	assert.ErrorAs(t, err, &opErr)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Ledger: config.LedgerConfig{Backend: "tape"}})
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}
