// internal/daily/daily.go
//
// Daily challenge bookkeeping: one result per user per UTC date.
// The word of the day itself comes from words.Bank.DailyWord.

package daily

import (
	"time"

	"github.com/jvanhorsen/Twixie/internal/words"
)

// Result is a user's daily game. Finished is false while the game that
// reserved the date is still open (or was abandoned).
type Result struct {
	UserID    string `json:"userId"`
	Date      string `json:"date"` // YYYY-MM-DD (UTC)
	Word      string `json:"-"`
	Finished  bool   `json:"finished"`
	Completed bool   `json:"completed"`
	Score     int    `json:"score"`
	Attempts  int    `json:"attempts"`
	ElapsedMs int64  `json:"elapsedMs"`
	HintsUsed int    `json:"hintsUsed"`
}

// LBRow is one leaderboard line.
type LBRow struct {
	UserID    string `json:"userId"`
	Username  string `json:"username,omitempty"`
	Score     int    `json:"score"`
	Attempts  int    `json:"attempts"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Today returns the date key of t.
func Today(t time.Time) string { return words.DateKey(t) }
