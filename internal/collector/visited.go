package collector

import "github.com/bits-and-blooms/bloom/v3"

// visitedSet is an exact string set with a bloom filter in front. A bloom
// miss answers "not visited" without touching the map; a hit is confirmed
// against the map, so false positives never drop a player or a match.
type visitedSet struct {
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

func newVisitedSet(expected uint) *visitedSet {
	return &visitedSet{
		filter: bloom.NewWithEstimates(expected, 0.001),
		exact:  make(map[string]struct{}),
	}
}

func (v *visitedSet) Has(id string) bool {
	if !v.filter.TestString(id) {
		return false
	}
	_, ok := v.exact[id]
	return ok
}

// Add marks id visited and reports whether it was new.
func (v *visitedSet) Add(id string) bool {
	if v.Has(id) {
		return false
	}
	v.filter.AddString(id)
	v.exact[id] = struct{}{}
	return true
}

func (v *visitedSet) Len() int { return len(v.exact) }
