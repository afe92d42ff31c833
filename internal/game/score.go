package game

import (
	"math"
	"time"

	"github.com/jvanhorsen/Twixie/internal/words"
)

const (
	baseScore     = 1000
	maxTimeBonus  = 1000
	maxGuessBonus = 500
	hintCost      = 100
)

// CalculateScore rewards speed, few guesses and few hints, scaled by the
// difficulty multiplier and floored at zero:
//
//	floor((1000 + timeBonus + guessBonus - 100*hints) * multiplier)
//
// where timeBonus = max(0, 1000 - 10*seconds) and
// guessBonus = max(0, 500 - 50*guesses).
func CalculateScore(elapsed time.Duration, hintsUsed int, d words.Difficulty, guesses int) int {
	seconds := int(elapsed / time.Second)
	if elapsed < 0 {
		seconds = 0
	}
	timeBonus := max(0, maxTimeBonus-seconds*10)
	guessBonus := max(0, maxGuessBonus-guesses*50)
	hintPenalty := hintsUsed * hintCost

	raw := float64(baseScore+timeBonus+guessBonus-hintPenalty) * SettingsFor(d).Multiplier
	return max(0, int(math.Floor(raw)))
}
