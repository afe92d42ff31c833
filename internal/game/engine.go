// internal/game/engine.go
//
// Session state machine for a single compound word game.
// Responsibilities:
//   - Start a session from the word bank (daily or random by difficulty).
//   - Validate, evaluate and apply guesses; advance phase 1 → 2.
//   - Track state transitions: playing → won/lost.
//   - Hand out hints and edit the bounded input buffer.
//   - Report finished games to a StatsRecorder.
//
// Notes:
//   - A Session is not safe for concurrent use; callers serialize access.
//   - The current State is replaced as a whole on every mutation, so a State
//     obtained from State() never changes underneath the caller.

package game

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jvanhorsen/Twixie/internal/words"
)

// NoDefinition is the definition hint text for words without one.
const NoDefinition = "No definition available"

// StatsRecorder receives every finished game.
type StatsRecorder interface {
	Record(won bool, score int, elapsed time.Duration)
}

// Session owns at most one game at a time.
type Session struct {
	bank       *words.Bank
	rnd        words.Source
	now        func() time.Time
	recorder   StatsRecorder
	maxGuesses int
	logger     zerolog.Logger

	state *State // nil until Start
}

// Option configures a Session.
type Option func(*Session)

// WithSource sets the random source for hint positions.
func WithSource(src words.Source) Option {
	return func(s *Session) {
		if src != nil {
			s.rnd = src
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRecorder sets where finished games are reported.
func WithRecorder(r StatsRecorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithMaxGuesses overrides the total guess cap (both phases together).
func WithMaxGuesses(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxGuesses = n
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates an idle session over bank.
func NewSession(bank *words.Bank, opts ...Option) *Session {
	s := &Session{
		bank:       bank,
		rnd:        words.CryptoSource{},
		now:        time.Now,
		maxGuesses: DefaultMaxGuesses,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxGuesses is the total guess cap.
func (s *Session) MaxGuesses() int { return s.maxGuesses }

// State returns a copy of the current state; ok is false before Start.
func (s *Session) State() (State, bool) {
	if s.state == nil {
		return State{}, false
	}
	return s.state.clone(), true
}

// Active reports whether a game is in progress.
func (s *Session) Active() bool {
	return s.state != nil && s.state.Status == Playing
}

// Start begins a new game. Daily mode plays the word of the current UTC day
// with that word's difficulty; endless mode draws a random word of d.
func (s *Session) Start(mode Mode, d words.Difficulty) error {
	var (
		w   words.CompoundWord
		err error
	)
	switch mode {
	case ModeDaily:
		w, err = s.bank.DailyWord(s.now())
	case ModeEndless, "":
		mode = ModeEndless
		w, err = s.bank.RandomWord(d)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return err
	}
	s.StartWith(w, mode)
	return nil
}

// StartWith begins a new game on a fixed word.
func (s *Session) StartWith(w words.CompoundWord, mode Mode) {
	s.state = &State{
		Mode:           mode,
		Phase:          PhaseFirstSegment,
		TargetWord:     strings.ToLower(w.Word),
		FirstSegment:   strings.ToLower(w.FirstSegment),
		SecondSegment:  strings.ToLower(w.SecondSegment),
		Guesses:        []string{},
		Evaluations:    []Evaluation{},
		Status:         Playing,
		Difficulty:     w.Difficulty,
		HintsRemaining: SettingsFor(w.Difficulty).MaxHints,
		StartTime:      s.now(),
	}
	s.logger.Debug().Str("mode", string(mode)).Str("difficulty", string(w.Difficulty)).Msg("game started")
}

// Restore resumes a previously saved state.
func (s *Session) Restore(st State) {
	c := st.clone()
	s.state = &c
}

// Reset drops the current game.
func (s *Session) Reset() { s.state = nil }

// MakeGuess validates and applies a guess for the current phase.
//
// Validation rules (no mutation when any fails):
//   - A game must be in progress.
//   - Length must match the phase target (first segment, then whole word).
//   - In phase 2 the guess must be a catalog word.
//
// State transitions:
//   - Phase 1 fully correct → phase 2 (guesses keep accumulating).
//   - Phase 2 fully correct → won.
//   - Otherwise, reaching the guess cap → lost.
func (s *Session) MakeGuess(text string) (GuessResult, error) {
	if s.state == nil {
		return GuessResult{}, ErrGameNotStarted
	}
	cur := *s.state
	if cur.Status.Terminal() {
		return GuessResult{}, ErrGameOver
	}

	guess := strings.ToLower(strings.TrimSpace(text))
	if n, want := runeLen(guess), cur.ExpectedLength(); n != want {
		return GuessResult{}, fmt.Errorf("%w: got %d letters, want %d", ErrInvalidLength, n, want)
	}
	if cur.Phase == PhaseFullWord && !s.bank.ValidateWord(guess) {
		return GuessResult{}, fmt.Errorf("%w: %q", ErrInvalidWord, guess)
	}

	positions, err := Evaluate(guess, cur.Target())
	if err != nil {
		return GuessResult{}, err
	}

	next := cur.clone()
	next.Guesses = append(next.Guesses, guess)
	next.Evaluations = append(next.Evaluations, Evaluation{Phase: cur.Phase, Positions: positions})
	next.CurrentGuess = ""

	res := GuessResult{
		Correct:   IsCorrect(positions),
		Positions: append([]LetterStatus(nil), positions...),
	}

	switch {
	case cur.Phase == PhaseFirstSegment && prefixCorrect(positions, runeLen(cur.FirstSegment)):
		next.Phase = PhaseFullWord
		res.Advanced = true
	case cur.Phase == PhaseFullWord && res.Correct:
		next.Status = Won
	}
	if next.Status == Playing && len(next.Guesses) >= s.maxGuesses {
		next.Status = Lost
	}

	if next.Status.Terminal() {
		next.EndTime = s.now()
		if next.Status == Won {
			next.Score = CalculateScore(next.Elapsed(next.EndTime), next.HintsUsed(), next.Difficulty, len(next.Guesses))
		}
	}

	s.state = &next
	res.Phase = next.Phase
	res.Status = next.Status
	res.Score = next.Score

	if next.Status.Terminal() {
		s.logger.Info().
			Str("status", string(next.Status)).
			Int("guesses", len(next.Guesses)).
			Int("score", next.Score).
			Msg("game finished")
		if s.recorder != nil {
			s.recorder.Record(next.Status == Won, next.Score, next.Elapsed(next.EndTime))
		}
	}
	return res, nil
}

// prefixCorrect reports whether the first n positions are all correct.
func prefixCorrect(positions []LetterStatus, n int) bool {
	if n == 0 || n > len(positions) {
		return false
	}
	return IsCorrect(positions[:n])
}

// UseHint spends one hint. ok is false, and nothing is spent, when no game
// is in progress, no hints remain, or (for letter hints) every position of
// the input buffer already holds the right letter.
func (s *Session) UseHint(t HintType) (Hint, bool) {
	if s.state == nil || s.state.Status.Terminal() || s.state.HintsRemaining <= 0 {
		return Hint{}, false
	}
	cur := *s.state

	var h Hint
	switch t {
	case HintDefinition:
		def, ok := s.bank.Definition(cur.TargetWord)
		if !ok {
			def = NoDefinition
		}
		h = Hint{Type: HintDefinition, Position: -1, Definition: def}
	case HintLetter:
		target := []rune(cur.Target())
		typed := []rune(cur.CurrentGuess)
		var open []int
		for i, r := range target {
			if i < len(typed) && unicode.ToLower(typed[i]) == unicode.ToLower(r) {
				continue
			}
			open = append(open, i)
		}
		if len(open) == 0 {
			return Hint{}, false
		}
		pos := open[s.rnd.Intn(len(open))]
		h = Hint{Type: HintLetter, Letter: string(target[pos]), Position: pos}
	default:
		return Hint{}, false
	}

	next := cur.clone()
	next.HintsRemaining--
	s.state = &next
	return h, true
}

// AppendLetter adds a letter to the input buffer. Non-letters and input
// beyond the phase length are ignored.
func (s *Session) AppendLetter(r rune) error {
	if s.state == nil {
		return ErrGameNotStarted
	}
	if s.state.Status.Terminal() {
		return ErrGameOver
	}
	if !unicode.IsLetter(r) || runeLen(s.state.CurrentGuess) >= s.state.ExpectedLength() {
		return nil
	}
	next := s.state.clone()
	next.CurrentGuess += string(unicode.ToLower(r))
	s.state = &next
	return nil
}

// Backspace removes the last letter of the input buffer, if any.
func (s *Session) Backspace() error {
	if s.state == nil {
		return ErrGameNotStarted
	}
	if s.state.Status.Terminal() {
		return ErrGameOver
	}
	buf := []rune(s.state.CurrentGuess)
	if len(buf) == 0 {
		return nil
	}
	next := s.state.clone()
	next.CurrentGuess = string(buf[:len(buf)-1])
	s.state = &next
	return nil
}

// Submit guesses the input buffer.
func (s *Session) Submit() (GuessResult, error) {
	if s.state == nil {
		return GuessResult{}, ErrGameNotStarted
	}
	return s.MakeGuess(s.state.CurrentGuess)
}
