package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/jvanhorsen/Twixie/internal/words"
)

// Tile is one board cell.
type Tile struct {
	Letter string       `json:"letter,omitempty"`
	Status LetterStatus `json:"status"`
	// Ghost marks a first-segment letter carried over from an earlier guess
	// into the empty input row during phase 1.
	Ghost bool `json:"ghost,omitempty"`
}

// Board lays the state out as rows x len(TargetWord) tiles: evaluated guesses
// first, then the input row while playing, then empty rows.
func Board(s State, rows int) [][]Tile {
	width := runeLen(s.TargetWord)
	board := make([][]Tile, rows)
	for r := range board {
		row := make([]Tile, width)
		for c := range row {
			row[c].Status = StatusEmpty
		}
		switch {
		case r < len(s.Guesses):
			letters := []rune(s.Guesses[r])
			var marks []LetterStatus
			if r < len(s.Evaluations) {
				marks = s.Evaluations[r].Positions
			}
			for c := 0; c < len(letters) && c < width; c++ {
				row[c].Letter = string(letters[c])
				if c < len(marks) {
					row[c].Status = marks[c]
				}
			}
		case r == len(s.Guesses) && s.Status == Playing:
			typed := []rune(s.CurrentGuess)
			for c := 0; c < len(typed) && c < width; c++ {
				row[c].Letter = string(typed[c])
			}
			if s.Phase == PhaseFirstSegment {
				fillGhosts(s, row, len(typed))
			}
		}
		board[r] = row
	}
	return board
}

// fillGhosts shows first-segment letters already found by earlier guesses
// in the untyped part of the input row.
func fillGhosts(s State, row []Tile, typed int) {
	seg := []rune(s.FirstSegment)
	for c := typed; c < len(seg) && c < len(row); c++ {
		for _, g := range s.Guesses {
			gr := []rune(g)
			if c < len(gr) && gr[c] == seg[c] {
				row[c] = Tile{Letter: string(seg[c]), Status: StatusCorrect, Ghost: true}
				break
			}
		}
	}
}

// KeyboardLetters returns the best status seen for every guessed letter.
// correct beats present beats absent.
func KeyboardLetters(s State) map[string]LetterStatus {
	rank := map[LetterStatus]int{StatusAbsent: 1, StatusPresent: 2, StatusCorrect: 3}
	out := make(map[string]LetterStatus)
	for i, g := range s.Guesses {
		if i >= len(s.Evaluations) {
			break
		}
		marks := s.Evaluations[i].Positions
		for j, r := range []rune(g) {
			if j >= len(marks) {
				break
			}
			k := string(r)
			if rank[marks[j]] > rank[out[k]] {
				out[k] = marks[j]
			}
		}
	}
	return out
}

// FormatDuration renders d as m:ss.
func FormatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

var difficultyEmoji = map[words.Difficulty]string{
	words.Easy:   "😊",
	words.Medium: "😎",
	words.Hard:   "🤯",
}

var shareSquares = map[LetterStatus]string{
	StatusCorrect: "🟩",
	StatusPresent: "🟨",
	StatusAbsent:  "⬛",
}

// ShareText is a spoiler-free summary of a finished game.
func ShareText(s State, includeTime bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Twixie %s\n", difficultyEmoji[s.Difficulty])
	fmt.Fprintf(&b, "Difficulty: %s\n", strings.ToUpper(string(s.Difficulty)))
	fmt.Fprintf(&b, "Guesses: %d\n", len(s.Guesses))
	if includeTime {
		t := ""
		if !s.EndTime.IsZero() {
			t = FormatDuration(s.Elapsed(s.EndTime))
		}
		fmt.Fprintf(&b, "Time: %s\n", t)
	}
	fmt.Fprintf(&b, "Hints Used: %d\n\n", s.HintsUsed())

	for i, e := range s.Evaluations {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, p := range e.Positions {
			b.WriteString(shareSquares[p])
		}
	}
	return b.String()
}
