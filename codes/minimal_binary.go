package codes

import "github.com/hupe1980/bvgraph/bitstream"

// Minimal binary (truncated binary) coding of a value v in [0, max).
// Optimal for uniform distributions; when max is a power of two it reduces
// to plain binary. The zeta code uses it inside buckets.

// LenMinimalBinary returns the encoded length of v over a universe of max
// values.
func LenMinimalBinary(v, max uint64) int {
	l := log2Floor(max)
	limit := uint64(1)<<(l+1) - max
	if v < limit {
		return int(l)
	}
	return int(l) + 1
}

// WriteMinimalBinary writes v in [0, max) using a minimal binary code.
func WriteMinimalBinary(w *bitstream.Writer, v, max uint64) error {
	l := log2Floor(max)
	limit := uint64(1)<<(l+1) - max
	if v < limit {
		return w.WriteBits(v, l)
	}
	// Write the l-bit prefix and the last bit separately, so the reader's
	// l-bit read sees the same prefix in both bit orders.
	x := v + limit
	if err := w.WriteBits(x>>1, l); err != nil {
		return err
	}
	return w.WriteBits(x&1, 1)
}

// ReadMinimalBinary reads a value previously written by WriteMinimalBinary
// with the same max.
func ReadMinimalBinary(r *bitstream.Reader, max uint64) (uint64, error) {
	l := log2Floor(max)
	limit := uint64(1)<<(l+1) - max
	v, err := r.ReadBits(l)
	if err != nil {
		return 0, err
	}
	if v < limit {
		return v, nil
	}
	b, err := r.ReadBits(1)
	if err != nil {
		return 0, err
	}
	return (v<<1 | b) - limit, nil
}
