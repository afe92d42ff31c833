package game

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Evaluate scores guess against target letter by letter, ignoring case.
//
// Pass 1 marks exact matches correct and consumes those target positions.
// Pass 2 walks the remaining guess letters left to right and marks each one
// present if an unconsumed target position holds the same letter (consuming
// the leftmost such position), absent otherwise. A letter is therefore never
// credited more often than it occurs in the target.
func Evaluate(guess, target string) ([]LetterStatus, error) {
	g := []rune(strings.ToLower(guess))
	t := []rune(strings.ToLower(target))
	if len(g) != len(t) {
		return nil, fmt.Errorf("%w: got %d letters, want %d", ErrInvalidLength, len(g), len(t))
	}

	out := make([]LetterStatus, len(g))
	consumed := make([]bool, len(t))

	for i := range g {
		if g[i] == t[i] {
			out[i] = StatusCorrect
			consumed[i] = true
		}
	}

	for i := range g {
		if out[i] == StatusCorrect {
			continue
		}
		out[i] = StatusAbsent
		for j := range t {
			if !consumed[j] && t[j] == g[i] {
				out[i] = StatusPresent
				consumed[j] = true
				break
			}
		}
	}
	return out, nil
}

// IsCorrect reports whether every position is correct.
func IsCorrect(positions []LetterStatus) bool {
	if len(positions) == 0 {
		return false
	}
	for _, p := range positions {
		if p != StatusCorrect {
			return false
		}
	}
	return true
}

// runeLen counts letters the way Evaluate does.
func runeLen(s string) int { return utf8.RuneCountInString(s) }
