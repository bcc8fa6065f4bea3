// Package ledger keeps the durable record of words that have already been
// posted. A Ledger holds the in-memory set and delegates durability to a
// Store: a rewritten text file, a Redis set or a SQL table.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordbot/pkg/errors"
)

// Store is the durable backing of a Ledger.
type Store interface {
	// Name identifies the backend in logs and health reports.
	Name() string
	// ReadAll returns every persisted word. A store that has never been
	// written returns an empty slice and no error.
	ReadAll(ctx context.Context) ([]string, error)
	// Persist makes word durable. all is the complete set including word,
	// for stores that rewrite everything.
	Persist(ctx context.Context, word string, all []string) error
	Ping(ctx context.Context) error
	Close() error
}

// Set is an unordered set of words.
type Set map[string]struct{}

// NewSet builds a Set from words.
func NewSet(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(word string) bool {
	_, ok := s[word]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Ledger is an append-only set of posted words backed by a Store.
type Ledger struct {
	store  Store
	mu     sync.RWMutex
	words  Set
	logger *slog.Logger
}

// New wraps store. Call Load before using the ledger.
func New(store Store) *Ledger {
	return &Ledger{
		store:  store,
		words:  make(Set),
		logger: slog.Default().With("component", "ledger", "backend", store.Name()),
	}
}

// Load reads the persisted words, replacing the in-memory set, and returns a
// copy of it. Duplicate and blank entries in the store are ignored.
func (l *Ledger) Load(ctx context.Context) (Set, error) {
	raw, err := l.store.ReadAll(ctx)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrPersistence, err, "loading %s ledger", l.store.Name())
	}
	words := make(Set, len(raw))
	for _, w := range raw {
		if w = corpus.Normalize(w); w != "" {
			words[w] = struct{}{}
		}
	}
	l.mu.Lock()
	l.words = words
	l.mu.Unlock()
	l.logger.Info("ledger loaded", "words", len(words))

	out := make(Set, len(words))
	for w := range words {
		out[w] = struct{}{}
	}
	return out, nil
}

// Contains reports whether word has been recorded.
func (l *Ledger) Contains(word string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.words.Has(corpus.Normalize(word))
}

// Record adds word to the set and persists it before returning. Recording a
// word twice is harmless. A failed write is retried by the next successful
// one on every backend: the file store rewrites the whole set and the Redis
// and SQL stores resend unconfirmed words. On failure the in-memory set keeps
// the word but durability is unknown; the error wraps ErrPersistence.
func (l *Ledger) Record(ctx context.Context, word string) error {
	word = corpus.Normalize(word)
	if word == "" {
		return apperrors.New(apperrors.ErrPersistence, "cannot record an empty word")
	}
	l.mu.Lock()
	l.words[word] = struct{}{}
	all := l.words.Sorted()
	l.mu.Unlock()

	if err := l.store.Persist(ctx, word, all); err != nil {
		l.logger.Error("ledger write failed", "word", word, "error", err)
		return apperrors.ForWord(apperrors.ErrPersistence, word, fmt.Errorf("persisting to %s: %w", l.store.Name(), err))
	}
	l.logger.Debug("word recorded", "word", word, "size", len(all))
	return nil
}

// Size returns the number of recorded words.
func (l *Ledger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.words)
}

// Words returns the recorded words in lexical order.
func (l *Ledger) Words() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.words.Sorted()
}

// Backend names the store.
func (l *Ledger) Backend() string {
	return l.store.Name()
}

// Ping checks the store is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

// Close releases the store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
