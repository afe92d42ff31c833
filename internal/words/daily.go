package words

import (
	"fmt"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DailyHash is the base-31 polynomial rolling hash of key, accumulated with
// 32-bit signed wraparound (the same value as Java's String.hashCode for
// ASCII input).
func DailyHash(key string) int32 {
	var h int32
	for i := 0; i < len(key); i++ {
		h = h*31 + int32(key[i])
	}
	return h
}

// DailyIndex maps a date key to a catalog index: abs(hash) mod n.
// The absolute value is taken in 64 bits so math.MinInt32 stays positive.
func DailyIndex(key string, n int) int {
	if n <= 0 {
		return 0
	}
	h := int64(DailyHash(key))
	if h < 0 {
		h = -h
	}
	return int(h % int64(n))
}

// DailyWord returns the word of the UTC day containing t.
func (b *Bank) DailyWord(t time.Time) (CompoundWord, error) {
	return b.DailyWordFor(DateKey(t))
}

// DailyWordFor returns the word for an ISO date key.
func (b *Bank) DailyWordFor(key string) (CompoundWord, error) {
	if len(b.words) == 0 {
		return CompoundWord{}, fmt.Errorf("%w for daily %s", ErrNoWordsAvailable, key)
	}
	return b.words[DailyIndex(key, len(b.words))], nil
}
