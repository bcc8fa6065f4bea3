// Package corpus loads the immutable list of words eligible for posting.
package corpus

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

//go:embed words.txt
var builtin []byte

// Corpus is an ordered, duplicate-free word list. It is never mutated after
// Load returns.
type Corpus struct {
	words  []string
	source string
}

// Load reads a newline-delimited word list from path. An empty path selects
// the list compiled into the binary.
func Load(path string) (*Corpus, error) {
	if path == "" {
		return Parse(bytes.NewReader(builtin), "builtin")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word list %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads one word per line from r. Lines are trimmed and NFC
// normalised; blank lines and repeats are dropped, keeping first occurrence.
func Parse(r io.Reader, source string) (*Corpus, error) {
	seen := make(map[string]struct{})
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w := Normalize(scanner.Text())
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word list %s: %w", source, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list %s is empty", source)
	}
	return &Corpus{words: words, source: source}, nil
}

// New builds a corpus from an in-memory slice, applying the same cleanup as
// Parse.
func New(words ...string) *Corpus {
	c, err := Parse(strings.NewReader(strings.Join(words, "\n")), "inline")
	if err != nil {
		return &Corpus{source: "inline"}
	}
	return c
}

// Normalize is the canonical form shared by the corpus and every ledger, so
// equality checks agree across both.
func Normalize(word string) string {
	return norm.NFC.String(strings.TrimSpace(word))
}

// Len returns the number of words.
func (c *Corpus) Len() int { return len(c.words) }

// Source names where the corpus came from.
func (c *Corpus) Source() string { return c.source }

// Words returns a copy of the word list in load order.
func (c *Corpus) Words() []string {
	out := make([]string, len(c.words))
	copy(out, c.words)
	return out
}
