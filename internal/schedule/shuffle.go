package schedule

import "github.com/zeebo/xxh3"

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// LCG is the linear-congruential stream behind every seeded shuffle.
// Not suitable for anything security related.
type LCG struct {
	state int64
}

func NewLCG(seed int64) *LCG {
	s := seed % lcgModulus
	if s < 0 {
		s += lcgModulus
	}
	return &LCG{state: s}
}

// Next returns a draw in [0, 1).
func (l *LCG) Next() float64 {
	l.state = (l.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(l.state) / lcgModulus
}

// Intn returns a draw in [0, n).
func (l *LCG) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	i := int(l.Next() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// MonthSeed is the conventional shuffle seed for a calendar month.
func MonthSeed(year, month int) int64 {
	return int64(year*100 + month)
}

// DaySeed salts a month seed for per-day sub-shuffling.
func DaySeed(year, month, day int) int64 {
	return MonthSeed(year, month)*100 + int64(day)
}

// TieBreakSeed derives a per-item seed so tied bins are chosen differently
// for different items but identically across runs.
func TieBreakSeed(seed int64, itemID string) int64 {
	return seed + int64(xxh3.HashString(itemID)%lcgModulus)
}

// Shuffle returns a Fisher-Yates permutation of items driven by seed.
// The input slice is left untouched.
func Shuffle[T any](items []T, seed int64) []T {
	out := make([]T, len(items))
	copy(out, items)

	rng := NewLCG(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
