// internal/words/words.go
//
// Word bank for the compound word game.
//
// Responsibilities:
//   - Hold the ordered catalog of compound words (word = first + second segment).
//   - Pick a random word for a difficulty, or the deterministic word of a day.
//   - Answer case-insensitive lookups: whole words, segments, definitions.
//
// The catalog order is significant: DailyWord indexes into it, so the same
// catalog and date always give the same word.

package words

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrNoWordsAvailable is returned when a selection has nothing to pick from.
var ErrNoWordsAvailable = errors.New("no words available")

// ErrUnknownDifficulty is returned by ParseDifficulty for unrecognized input.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty tiers a catalog entry belongs to.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists the tiers from easiest to hardest.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty maps a case-insensitive name to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

func (d Difficulty) String() string { return string(d) }

// CompoundWord is one immutable catalog entry.
type CompoundWord struct {
	Word          string     `json:"word" toml:"word"`
	FirstSegment  string     `json:"firstSegment" toml:"first"`
	SecondSegment string     `json:"secondSegment" toml:"second"`
	Difficulty    Difficulty `json:"difficulty" toml:"difficulty"`
	Definition    string     `json:"definition,omitempty" toml:"definition"`
}

// validate enforces Word == FirstSegment + SecondSegment (case-insensitive).
func (w CompoundWord) validate() error {
	if w.Word == "" || w.FirstSegment == "" || w.SecondSegment == "" {
		return fmt.Errorf("word %q: empty word or segment", w.Word)
	}
	if !strings.EqualFold(w.Word, w.FirstSegment+w.SecondSegment) {
		return fmt.Errorf("word %q: segments %q+%q do not form the word", w.Word, w.FirstSegment, w.SecondSegment)
	}
	if !w.Difficulty.Valid() {
		return fmt.Errorf("word %q: %w %q", w.Word, ErrUnknownDifficulty, w.Difficulty)
	}
	return nil
}

// Source is the randomness a Bank draws from. *math/rand.Rand satisfies it,
// which lets tests pass a seeded generator.
type Source interface {
	Intn(n int) int
}

// CryptoSource draws uniformly from crypto/rand.
type CryptoSource struct{}

// Intn returns a value in [0, n). It panics if n <= 0, like math/rand.
func (CryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("words: invalid argument to Intn")
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("words: crypto/rand: %v", err))
	}
	return int(nBig.Int64())
}

// Bank is a read-only view over an ordered catalog.
type Bank struct {
	words    []CompoundWord
	wordSet  map[string]int      // lowercase word -> catalog index
	segments map[string]struct{} // lowercase first and second segments
	rnd      Source
}

// Option configures a Bank.
type Option func(*Bank)

// WithSource sets the random source used by RandomWord.
func WithSource(src Source) Option {
	return func(b *Bank) {
		if src != nil {
			b.rnd = src
		}
	}
}

// NewBank validates the catalog and builds the lookup sets.
// The slice is copied; later changes to it do not affect the Bank.
func NewBank(catalog []CompoundWord, opts ...Option) (*Bank, error) {
	b := &Bank{
		words:    make([]CompoundWord, 0, len(catalog)),
		wordSet:  make(map[string]int, len(catalog)),
		segments: make(map[string]struct{}, 2*len(catalog)),
		rnd:      CryptoSource{},
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, w := range catalog {
		if err := w.validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(w.Word)
		if _, dup := b.wordSet[key]; dup {
			return nil, fmt.Errorf("word %q: duplicate catalog entry", w.Word)
		}
		b.wordSet[key] = len(b.words)
		b.segments[strings.ToLower(w.FirstSegment)] = struct{}{}
		b.segments[strings.ToLower(w.SecondSegment)] = struct{}{}
		b.words = append(b.words, w)
	}
	return b, nil
}

// Len returns the catalog size.
func (b *Bank) Len() int { return len(b.words) }

// All returns a copy of the catalog in order.
func (b *Bank) All() []CompoundWord {
	return append([]CompoundWord(nil), b.words...)
}

// WordsByDifficulty returns the entries of one tier, in catalog order.
func (b *Bank) WordsByDifficulty(d Difficulty) []CompoundWord {
	var out []CompoundWord
	for _, w := range b.words {
		if w.Difficulty == d {
			out = append(out, w)
		}
	}
	return out
}

// RandomWord picks uniformly among the entries of difficulty d.
func (b *Bank) RandomWord(d Difficulty) (CompoundWord, error) {
	pool := b.WordsByDifficulty(d)
	if len(pool) == 0 {
		return CompoundWord{}, fmt.Errorf("%w for difficulty %q", ErrNoWordsAvailable, d)
	}
	return pool[b.rnd.Intn(len(pool))], nil
}

// ValidateWord reports whether guess is a whole catalog word.
func (b *Bank) ValidateWord(guess string) bool {
	_, ok := b.wordSet[strings.ToLower(guess)]
	return ok
}

// ValidateFirstSegment reports whether guess matches target, ignoring case.
func (b *Bank) ValidateFirstSegment(guess, target string) bool {
	return strings.EqualFold(guess, target)
}

// IsValidSegment reports whether segment is the first or second segment of
// any catalog entry.
func (b *Bank) IsValidSegment(segment string) bool {
	_, ok := b.segments[strings.ToLower(segment)]
	return ok
}

// Definition looks up the definition of a whole word.
// ok is false when the word is unknown or has no definition.
func (b *Bank) Definition(word string) (def string, ok bool) {
	i, found := b.wordSet[strings.ToLower(word)]
	if !found || b.words[i].Definition == "" {
		return "", false
	}
	return b.words[i].Definition, true
}
