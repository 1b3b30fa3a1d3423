// Package ef implements the Elias-Fano representation of monotone sequences
// used as the codec's random-access offset index: it maps a node id to the
// bit offset of its record in constant time with o(N) overhead beyond the
// information-theoretic minimum.
//
// A sequence of n values bounded by u is split per value into l = log2(u/n)
// low bits, stored packed, and a high part stored as a gap-coded bit vector
// of n ones. Get(i) is a select-1 on the high bits, answered through a
// sampled jump table, plus one packed-array read.
package ef

import (
	"fmt"
	"math/bits"
)

// jumpStep is the select sampling rate: the jump table stores the position
// of every jumpStep-th one bit of the high vector.
const jumpStep = 64

// Index is an immutable Elias-Fano encoded monotone sequence.
type Index struct {
	n     uint64 // number of values
	u     uint64 // strict upper bound on the values
	l     uint   // low bits per value
	lower []uint64
	upper []uint64
	jump  []uint64
}

// FromValues builds an index over a monotone non-decreasing sequence.
// The sequence must be non-empty.
func FromValues(values []uint64) (*Index, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("ef: empty sequence")
	}
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return nil, fmt.Errorf("ef: sequence not monotone at %d", i)
		}
	}
	n := uint64(len(values))
	u := values[n-1] + 1

	var l uint
	if u/n > 0 {
		l = uint(bits.Len64(u/n) - 1)
	}
	lowMask := uint64(1)<<l - 1

	ix := &Index{
		n:     n,
		u:     u,
		l:     l,
		lower: make([]uint64, (n*uint64(l)+63)/64+1),
		upper: make([]uint64, (n+(u>>l)+63)/64+1),
	}
	for i, v := range values {
		if l > 0 {
			setBits(ix.lower, uint64(i)*uint64(l), l, v&lowMask)
		}
		ix.upper[(v>>l+uint64(i))/64] |= 1 << ((v>>l + uint64(i)) % 64)
	}
	ix.buildJump()
	return ix, nil
}

// buildJump records the position of every jumpStep-th one of the high
// vector in a single scan.
func (ix *Index) buildJump() {
	ix.jump = make([]uint64, (ix.n+jumpStep-1)/jumpStep)
	var ones, next uint64
	for w, word := range ix.upper {
		c := uint64(bits.OnesCount64(word))
		for next < ix.n && next < ones+c {
			rank := uint(next - ones)
			ix.jump[next/jumpStep] = uint64(w)*64 + uint64(selectWord(word, rank))
			next += jumpStep
		}
		ones += c
	}
}

// Len returns the number of values in the sequence.
func (ix *Index) Len() uint64 { return ix.n }

// Get returns the i-th value. i must be < Len.
func (ix *Index) Get(i uint64) uint64 {
	// Select the i-th one of the high vector starting from the nearest
	// jump sample.
	pos := ix.jump[i/jumpStep]
	rank := uint(i % jumpStep)

	w := pos / 64
	word := ix.upper[w] >> (pos % 64) << (pos % 64) // clear bits before pos
	for {
		c := uint(bits.OnesCount64(word))
		if rank < c {
			pos = w*64 + uint64(selectWord(word, rank))
			break
		}
		rank -= c
		w++
		word = ix.upper[w]
	}
	high := pos - i

	var low uint64
	if ix.l > 0 {
		low = getBits(ix.lower, i*uint64(ix.l), ix.l)
	}
	return high<<ix.l | low
}

// selectWord returns the position of the rank-th (0-based) set bit of w.
func selectWord(w uint64, rank uint) uint {
	for ; rank > 0; rank-- {
		w &= w - 1 // clear lowest set bit
	}
	return uint(bits.TrailingZeros64(w))
}

// setBits writes the low width bits of v at bit offset off.
func setBits(words []uint64, off uint64, width uint, v uint64) {
	w := off / 64
	sh := off % 64
	words[w] |= v << sh
	if sh+uint64(width) > 64 {
		words[w+1] |= v >> (64 - sh)
	}
}

// getBits reads width bits at bit offset off.
func getBits(words []uint64, off uint64, width uint) uint64 {
	w := off / 64
	sh := off % 64
	v := words[w] >> sh
	if sh+uint64(width) > 64 {
		v |= words[w+1] << (64 - sh)
	}
	return v & (uint64(1)<<width - 1)
}
