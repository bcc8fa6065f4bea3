// Package selector draws unposted words uniformly at random without
// replacement.
//
// The selector keeps a working copy of the corpus split in two regions:
// partition[:active] holds every word not yet posted and partition[active:]
// holds every posted word. A draw picks an index in the head region, swaps
// that word to the boundary and shrinks the head by one, so each draw is O(1)
// and the unposted words stay contiguous. The partition is rebuilt from the
// corpus and ledger on every start and is never persisted.
package selector

import (
	"math/rand/v2"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordbot/pkg/errors"
)

// Selector owns the selection partition.
type Selector struct {
	mu        sync.Mutex
	partition []string
	active    int
	rng       *rand.Rand
}

// New partitions words so that every word for which posted returns true
// sits in the tail. A nil rng selects a randomly seeded PCG source.
//
// The head size is counted from the corpus itself rather than derived from
// the ledger size, so ledger entries that are not in the corpus (for example
// after a word list change) do not shrink the pool.
func New(words []string, posted func(word string) bool, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	partition := make([]string, len(words))
	copy(partition, words)

	head := 0
	for i, w := range partition {
		if posted(w) {
			continue
		}
		partition[head], partition[i] = partition[i], partition[head]
		head++
	}
	return &Selector{
		partition: partition,
		active:    head,
		rng:       rng,
	}
}

// Draw returns a word that has not been drawn or posted before and moves it
// into the posted region. It does not persist anything; callers record the
// word in the ledger. When no word remains it returns an error wrapping
// ErrExhausted.
func (s *Selector) Draw() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == 0 {
		return "", apperrors.Newf(apperrors.ErrExhausted, "all %d words have been posted", len(s.partition))
	}
	i := s.rng.IntN(s.active)
	last := s.active - 1
	word := s.partition[i]
	s.partition[i], s.partition[last] = s.partition[last], s.partition[i]
	s.active = last
	return word, nil
}

// Remaining returns the number of words still available.
func (s *Selector) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Posted returns the number of corpus words in the posted region.
func (s *Selector) Posted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.partition) - s.active
}

// Len returns the corpus size.
func (s *Selector) Len() int {
	return len(s.partition)
}

// Active returns a copy of the unposted region, in partition order.
func (s *Selector) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, s.active)
	copy(out, s.partition[:s.active])
	return out
}

// Drawn returns a copy of the posted region, in partition order.
func (s *Selector) Drawn() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.partition)-s.active)
	copy(out, s.partition[s.active:])
	return out
}
