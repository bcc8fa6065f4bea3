package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Dialect carries the statements that differ between SQL engines.
type Dialect struct {
	Name   string
	Schema string
	Insert string
}

var (
	Postgres = Dialect{
		Name: "postgres",
		Schema: `CREATE TABLE IF NOT EXISTS posted_words (
	word      TEXT PRIMARY KEY,
	posted_at TIMESTAMPTZ NOT NULL
)`,
		Insert: `INSERT INTO posted_words (word, posted_at) VALUES ($1, $2) ON CONFLICT (word) DO NOTHING`,
	}
	SQLite = Dialect{
		Name: "sqlite",
		Schema: `CREATE TABLE IF NOT EXISTS posted_words (
	word      TEXT PRIMARY KEY,
	posted_at TIMESTAMP NOT NULL
)`,
		Insert: `INSERT INTO posted_words (word, posted_at) VALUES (?, ?) ON CONFLICT (word) DO NOTHING`,
	}
)

// SQLStore keeps one row per posted word. Persist inserts the new word plus
// any word whose earlier insert failed, in one transaction.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	pending pending
}

// NewSQLStore creates the posted_words table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, dialect.Schema); err != nil {
		return nil, fmt.Errorf("creating posted_words table: %w", err)
	}
	return &SQLStore{db: db, dialect: dialect, now: time.Now}, nil
}

func (s *SQLStore) Name() string { return s.dialect.Name }

func (s *SQLStore) ReadAll(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT word FROM posted_words`)
	if err != nil {
		return nil, fmt.Errorf("querying posted_words: %w", err)
	}
	defer rows.Close()
	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scanning posted word: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posted_words: %w", err)
	}
	return words, nil
}

func (s *SQLStore) Persist(ctx context.Context, word string, _ []string) error {
	batch := s.pending.with(word)
	err := s.insert(ctx, batch)
	s.pending.settle(batch, err)
	return err
}

func (s *SQLStore) insert(ctx context.Context, words []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()
	at := s.now().UTC()
	for _, w := range words {
		if _, err := tx.ExecContext(ctx, s.dialect.Insert, w, at); err != nil {
			return fmt.Errorf("inserting posted word %q: %w", w, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing posted words: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
