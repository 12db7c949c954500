package schedule

import "sort"

// Item is one weighted unit to place.
type Item struct {
	ID     string
	Weight int
}

// Bin accumulates items. Weight may start above zero when the bin already
// carries content that must stay where it is.
type Bin struct {
	Key    string
	Weight int
	Items  []Item
}

// Options controls ordering and tie-breaking.
type Options struct {
	// Seed feeds the pre-sort shuffle.
	Seed int64
	// TieBreak picks pseudo-randomly among equally light bins, keyed by
	// TieBreakSeed(Seed, item.ID). When false the lowest index wins.
	TieBreak bool
}

// Balance places every item in the currently lightest bin, heaviest items
// first (LPT greedy). Bins are modified in place and returned.
// With no bins nothing is placed.
func Balance(items []Item, bins []Bin, opts Options) []Bin {
	if len(bins) == 0 || len(items) == 0 {
		return bins
	}

	ordered := Shuffle(items, opts.Seed)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Weight > ordered[j].Weight
	})

	tied := make([]int, 0, len(bins))
	for _, it := range ordered {
		tied = lightest(bins, tied[:0])

		idx := tied[0]
		if opts.TieBreak && len(tied) > 1 {
			idx = tied[NewLCG(TieBreakSeed(opts.Seed, it.ID)).Intn(len(tied))]
		}

		bins[idx].Items = append(bins[idx].Items, it)
		bins[idx].Weight += it.Weight
	}
	return bins
}

func lightest(bins []Bin, dst []int) []int {
	minW := bins[0].Weight
	for _, b := range bins[1:] {
		if b.Weight < minW {
			minW = b.Weight
		}
	}
	for i, b := range bins {
		if b.Weight == minW {
			dst = append(dst, i)
		}
	}
	return dst
}

// Spread returns max-min bin weight.
func Spread(bins []Bin) int {
	if len(bins) == 0 {
		return 0
	}
	lo, hi := bins[0].Weight, bins[0].Weight
	for _, b := range bins[1:] {
		lo = min(lo, b.Weight)
		hi = max(hi, b.Weight)
	}
	return hi - lo
}
