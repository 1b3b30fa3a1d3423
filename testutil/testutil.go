// Package testutil provides in-memory adjacency fixtures for tests and
// benchmarks: hand-built arc lists and random graphs with the power-law
// outdegree shape the codec is tuned for.
//
// This package is intended for use in tests and benchmarks only.
package testutil

import (
	"math"
	"math/rand"
	"sort"
)

// AdjGraph is an in-memory adjacency list implementing the codec's Source
// interface.
type AdjGraph struct {
	succ [][]uint64
}

// NewAdjGraph returns an empty graph on n nodes.
func NewAdjGraph(n uint64) *AdjGraph {
	return &AdjGraph{succ: make([][]uint64, n)}
}

// FromArcs builds a graph on n nodes from an arc list. Duplicate arcs are
// collapsed; successor lists come out sorted.
func FromArcs(n uint64, arcs [][2]uint64) *AdjGraph {
	g := NewAdjGraph(n)
	for _, a := range arcs {
		g.succ[a[0]] = append(g.succ[a[0]], a[1])
	}
	for v := range g.succ {
		g.succ[v] = dedupSorted(g.succ[v])
	}
	return g
}

// FromLists builds a graph directly from per-node successor lists, which
// must already be strictly increasing.
func FromLists(lists [][]uint64) *AdjGraph {
	return &AdjGraph{succ: lists}
}

// NumNodes implements Source.
func (g *AdjGraph) NumNodes() uint64 { return uint64(len(g.succ)) }

// Successors implements Source.
func (g *AdjGraph) Successors(v uint64) []uint64 { return g.succ[v] }

// NumArcs returns the total arc count.
func (g *AdjGraph) NumArcs() uint64 {
	var m uint64
	for _, s := range g.succ {
		m += uint64(len(s))
	}
	return m
}

// Arcs flattens the graph back into a sorted arc list.
func (g *AdjGraph) Arcs() [][2]uint64 {
	var out [][2]uint64
	for v, s := range g.succ {
		for _, w := range s {
			out = append(out, [2]uint64{uint64(v), w})
		}
	}
	return out
}

// RandomPowerLaw generates a graph on n nodes whose outdegrees follow a
// power law with the given exponent (typically 2..3), scaled so the total
// arc count lands near targetArcs. Successors mix locality (targets near
// the source) with uniform noise, mimicking the structure of web graphs.
func RandomPowerLaw(rng *rand.Rand, n, targetArcs uint64, exponent float64) *AdjGraph {
	g := NewAdjGraph(n)
	if n == 0 {
		return g
	}

	// Draw raw degrees from the Pareto tail, then rescale to the target.
	raw := make([]float64, n)
	var sum float64
	for i := range raw {
		u := rng.Float64()
		raw[i] = math.Pow(1-u, -1/(exponent-1))
		sum += raw[i]
	}
	scale := float64(targetArcs) / sum

	for v := uint64(0); v < n; v++ {
		d := uint64(raw[v] * scale)
		if d >= n {
			d = n - 1
		}
		set := make(map[uint64]struct{}, d)
		for uint64(len(set)) < d {
			var w uint64
			if rng.Intn(4) > 0 {
				// Local arc: small signed displacement from v.
				disp := int64(rng.NormFloat64() * 32)
				t := int64(v) + disp
				if t < 0 || t >= int64(n) {
					continue
				}
				w = uint64(t)
			} else {
				w = uint64(rng.Int63n(int64(n)))
			}
			set[w] = struct{}{}
		}
		list := make([]uint64, 0, len(set))
		for w := range set {
			list = append(list, w)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		g.succ[v] = list
	}
	return g
}

func dedupSorted(s []uint64) []uint64 {
	if len(s) == 0 {
		return s
	}
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
