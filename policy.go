package bvgraph

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// ReferencePolicy decides which window entries get a full cost evaluation
// for the current list. Shortlisting trades compression for encode speed;
// every policy produces decodable output because the final choice is always
// made on exact bit costs.
type ReferencePolicy interface {
	// Shortlist filters the eligible reference deltas. ref returns the
	// window list at a given delta. The returned deltas must be a subset of
	// eligible.
	Shortlist(curr []uint64, ref func(delta int) []uint64, eligible []int) []int
}

// ExhaustivePolicy evaluates every eligible window entry. Slowest encode,
// best compression; this is the default.
type ExhaustivePolicy struct{}

func (ExhaustivePolicy) Shortlist(_ []uint64, _ func(int) []uint64, eligible []int) []int {
	return eligible
}

// GreedyPolicy ranks window entries by the size of their intersection with
// the current list and keeps only the TopK best, so encode time stays
// bounded on wide windows. Intersections are computed on bitmaps of the
// successor sets.
type GreedyPolicy struct {
	// TopK is the number of candidates kept. Zero means 3.
	TopK int
}

func (p GreedyPolicy) Shortlist(curr []uint64, ref func(delta int) []uint64, eligible []int) []int {
	k := p.TopK
	if k <= 0 {
		k = 3
	}
	if len(eligible) <= k {
		return eligible
	}

	cb := roaring64.New()
	cb.AddMany(curr)

	type scored struct {
		delta int
		inter uint64
	}
	scores := make([]scored, 0, len(eligible))
	for _, delta := range eligible {
		rb := roaring64.New()
		rb.AddMany(ref(delta))
		scores = append(scores, scored{delta: delta, inter: roaring64.And(cb, rb).GetCardinality()})
	}
	// Largest intersection first; ties go to the nearer reference.
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].inter != scores[j].inter {
			return scores[i].inter > scores[j].inter
		}
		return scores[i].delta < scores[j].delta
	})

	out := make([]int, 0, k)
	for _, s := range scores[:k] {
		if s.inter == 0 {
			continue
		}
		out = append(out, s.delta)
	}
	sort.Ints(out)
	return out
}
