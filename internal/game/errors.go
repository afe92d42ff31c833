package game

import (
	"errors"

	"github.com/jvanhorsen/Twixie/internal/words"
)

// Errors surfaced to callers. None of them leaves a mutation behind.
var (
	ErrInvalidLength    = errors.New("guess length does not match the target")
	ErrInvalidWord      = errors.New("not a recognized word")
	ErrGameNotStarted   = errors.New("game not started")
	ErrGameOver         = errors.New("game is over")
	ErrNoWordsAvailable = words.ErrNoWordsAvailable
)
