package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordbot/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/redis"
)

// Open builds the store selected by cfg.Ledger.Backend and loads it.
// Connection and load failures wrap ErrPersistence.
func Open(ctx context.Context, cfg *config.Config) (*Ledger, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrPersistence, err, "opening %s ledger", cfg.Ledger.Backend)
	}
	l := New(store)
	if _, err := l.Load(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return l, nil
}

func openStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Ledger.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.Ledger.Path), nil
	case config.BackendRedis:
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.Ledger.RedisKey), nil
	case config.BackendPostgres:
		db, err := postgres.Open(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return newSQLStoreOrClose(ctx, db, Postgres)
	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.Ledger.SQLitePath)
		if err != nil {
			return nil, err
		}
		return newSQLStoreOrClose(ctx, db, SQLite)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Ledger.Backend)
	}
}

// OpenSQLite opens a single-connection SQLite database at path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_synchronous=FULL")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func newSQLStoreOrClose(ctx context.Context, db *sql.DB, d Dialect) (Store, error) {
	s, err := NewSQLStore(ctx, db, d)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
