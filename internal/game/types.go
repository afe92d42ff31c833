// internal/game/types.go
//
// Core type definitions for the compound word game engine.
// Defines:
//   - LetterStatus: per-letter result of a guess.
//   - Phase, Status, Mode, HintType: session enums.
//   - State: the whole-value snapshot of one session.
//   - GuessResult, Hint: results handed back to callers.

package game

import (
	"time"

	"github.com/jvanhorsen/Twixie/internal/words"
)

// LetterStatus is the evaluation of a single letter.
type LetterStatus string

const (
	StatusCorrect LetterStatus = "correct" // right letter, right position
	StatusPresent LetterStatus = "present" // letter elsewhere in the target
	StatusAbsent  LetterStatus = "absent"
	StatusEmpty   LetterStatus = "empty" // board cell with nothing evaluated
)

// Phase of a session: 1 guesses the first segment, 2 the whole word.
type Phase int

const (
	PhaseFirstSegment Phase = 1
	PhaseFullWord     Phase = 2
)

// Status of a session.
type Status string

const (
	Playing Status = "playing"
	Won     Status = "won"
	Lost    Status = "lost"
)

// Terminal reports whether no further guesses are accepted.
func (s Status) Terminal() bool { return s == Won || s == Lost }

// Mode selects how the target word is chosen.
type Mode string

const (
	ModeDaily   Mode = "daily"
	ModeEndless Mode = "endless"
)

// HintType is the kind of hint a player asks for.
type HintType string

const (
	HintLetter     HintType = "letter"
	HintDefinition HintType = "definition"
)

// DifficultySettings are the per-tier knobs.
type DifficultySettings struct {
	MaxHints        int
	RevealedLetters int
	Multiplier      float64
}

var difficultySettings = map[words.Difficulty]DifficultySettings{
	words.Easy:   {MaxHints: 3, RevealedLetters: 2, Multiplier: 1},
	words.Medium: {MaxHints: 2, RevealedLetters: 3, Multiplier: 1.5},
	words.Hard:   {MaxHints: 1, RevealedLetters: 4, Multiplier: 2},
}

// SettingsFor returns the settings of d. Unknown tiers get the easy settings.
func SettingsFor(d words.Difficulty) DifficultySettings {
	if s, ok := difficultySettings[d]; ok {
		return s
	}
	return difficultySettings[words.Easy]
}

// DefaultMaxGuesses is the total number of guesses allowed across both phases.
const DefaultMaxGuesses = 6

// State is one immutable snapshot of a session. The session never edits a
// State in place; every mutation produces a new value.
type State struct {
	Mode           Mode             `json:"mode"`
	Phase          Phase            `json:"currentPhase"`
	TargetWord     string           `json:"targetWord"`
	FirstSegment   string           `json:"firstSegment"`
	SecondSegment  string           `json:"secondSegment"`
	Guesses        []string         `json:"guesses"`
	Evaluations    []Evaluation     `json:"evaluations"`
	CurrentGuess   string           `json:"currentGuess"`
	Status         Status           `json:"status"`
	Difficulty     words.Difficulty `json:"difficulty"`
	HintsRemaining int              `json:"hintsRemaining"`
	StartTime      time.Time        `json:"startTime"`
	EndTime        time.Time        `json:"endTime,omitempty"`
	Score          int              `json:"score"`
}

// Evaluation is the recorded outcome of one accepted guess.
type Evaluation struct {
	Phase     Phase          `json:"phase"`
	Positions []LetterStatus `json:"positions"`
}

// Target returns the string the current phase is guessed against.
func (s State) Target() string {
	if s.Phase == PhaseFirstSegment {
		return s.FirstSegment
	}
	return s.TargetWord
}

// ExpectedLength is the guess length accepted in the current phase.
func (s State) ExpectedLength() int {
	return len([]rune(s.Target()))
}

// HintsUsed is how many hints were spent so far.
func (s State) HintsUsed() int {
	used := SettingsFor(s.Difficulty).MaxHints - s.HintsRemaining
	if used < 0 {
		return 0
	}
	return used
}

// Elapsed is the play time: up to EndTime when set, otherwise up to now.
func (s State) Elapsed(now time.Time) time.Duration {
	end := now
	if !s.EndTime.IsZero() {
		end = s.EndTime
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}

// clone deep-copies the slices so callers never alias session internals.
func (s State) clone() State {
	out := s
	out.Guesses = append([]string(nil), s.Guesses...)
	out.Evaluations = make([]Evaluation, len(s.Evaluations))
	for i, e := range s.Evaluations {
		out.Evaluations[i] = Evaluation{Phase: e.Phase, Positions: append([]LetterStatus(nil), e.Positions...)}
	}
	return out
}

// GuessResult is returned by Session.MakeGuess.
type GuessResult struct {
	Correct   bool           `json:"correct"`
	Positions []LetterStatus `json:"positions"`
	Phase     Phase          `json:"phase"`    // phase after the guess
	Advanced  bool           `json:"advanced"` // phase 1 was completed by this guess
	Status    Status         `json:"status"`
	Score     int            `json:"score"`
}

// Hint is what Session.UseHint reveals.
type Hint struct {
	Type       HintType `json:"type"`
	Letter     string   `json:"letter,omitempty"`
	Position   int      `json:"position"`
	Definition string   `json:"definition,omitempty"`
}
