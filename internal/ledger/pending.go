package ledger

import "sync"

// pending holds words whose write has not been confirmed by a store that
// only sends the new word. They ride along with the next write until one
// succeeds.
type pending struct {
	mu    sync.Mutex
	words Set
}

// with returns word plus every unconfirmed word.
func (p *pending) with(word string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []string{word}
	for w := range p.words {
		if w != word {
			out = append(out, w)
		}
	}
	return out
}

// settle clears batch after a successful write or keeps it after a failure.
func (p *pending) settle(batch []string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.words == nil {
		p.words = make(Set)
	}
	for _, w := range batch {
		if err != nil {
			p.words[w] = struct{}{}
		} else {
			delete(p.words, w)
		}
	}
}

func (p *pending) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.words)
}
