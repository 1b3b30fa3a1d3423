package bvgraph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bvgraph/bitstream"
)

func TestZigzag(t *testing.T) {
	for _, tc := range []struct {
		signed   int64
		unsigned uint64
	}{
		{0, 0}, {-1, 1}, {1, 2}, {-2, 3}, {2, 4}, {-64, 127}, {1 << 40, 1 << 41},
	} {
		assert.Equal(t, tc.unsigned, int2nat(tc.signed), "int2nat(%d)", tc.signed)
		assert.Equal(t, tc.signed, nat2int(tc.unsigned), "nat2int(%d)", tc.unsigned)
	}
	for v := int64(-1000); v <= 1000; v++ {
		require.Equal(t, v, nat2int(int2nat(v)))
	}
}

func TestRecordBuilderNoRef(t *testing.T) {
	var rb recordBuilder
	rb.build([]uint64{0, 1, 2, 5, 7, 8, 9}, nil, 2)
	assert.Equal(t, 7, rb.degree)
	assert.Empty(t, rb.blocks)
	assert.Equal(t, []uint64{0, 1, 2, 5, 7, 8, 9}, rb.extras)
	assert.Equal(t, []uint64{0, 7}, rb.leftInterval)
	assert.Equal(t, []uint64{3, 3}, rb.lenInterval)
	assert.Equal(t, []uint64{5}, rb.residuals)
}

func TestRecordBuilderFullCopy(t *testing.T) {
	// Reference fully contained in the current list: no blocks at all, the
	// implicit trailing copy block covers everything.
	var rb recordBuilder
	rb.build([]uint64{10, 11, 12, 13, 14, 20}, []uint64{10, 11, 12, 13, 14}, 4)
	assert.Equal(t, 6, rb.degree)
	assert.Empty(t, rb.blocks)
	assert.Equal(t, []uint64{20}, rb.extras)
	assert.Equal(t, []uint64{20}, rb.residuals)
}

func TestRecordBuilderSkipBlocks(t *testing.T) {
	var rb recordBuilder
	rb.build([]uint64{10, 12}, []uint64{10, 11, 12}, 4)
	// First block biased by one: true lengths are copy 1, skip 1, implicit
	// trailing copy.
	assert.Equal(t, []uint64{2, 1}, rb.blocks)
	assert.Empty(t, rb.extras)
	assert.Empty(t, rb.residuals)
}

func TestRecordRoundTripThroughDecoder(t *testing.T) {
	cs := defaultCodeSet()
	const minInterval = 4
	const n = 1 << 20

	cases := []struct {
		v    uint64
		curr []uint64
		ref  []uint64
		refD int
	}{
		{v: 0, curr: []uint64{3, 4, 5, 6, 7, 100}, refD: 0},
		{v: 5, curr: []uint64{0, 1, 9, 10, 11, 12}, refD: 0},
		{v: 9, curr: []uint64{1, 2, 5, 9, 300}, ref: []uint64{1, 2, 3, 5, 200, 300}, refD: 2},
		{v: 77, curr: []uint64{70, 71, 72, 73, 80, 81, 82, 83, 99}, refD: 0},
		{v: 4, curr: nil, refD: 0},
	}
	for _, tc := range cases {
		var rb recordBuilder
		var ref []uint64
		if tc.refD > 0 {
			ref = tc.ref
		}
		rb.build(tc.curr, ref, minInterval)

		var buf bytes.Buffer
		w := bitstream.NewWriter(&buf, bitstream.BigEndian)
		require.NoError(t, rb.write(w, cs, tc.v, tc.refD, minInterval))
		wantBits := rb.bitLen(cs, tc.v, tc.refD, minInterval)
		require.Equal(t, wantBits, w.Written(), "bitLen must match write")
		require.NoError(t, w.Flush())

		dec := &decoder{
			r:           bitstream.NewReader(buf.Bytes(), bitstream.BigEndian),
			cs:          cs,
			n:           n,
			window:      7,
			minInterval: minInterval,
		}
		got, err := dec.readList(tc.v, func(uint64) ([]uint64, error) { return tc.ref, nil }, nil)
		require.NoError(t, err)
		if len(tc.curr) == 0 {
			require.Empty(t, got)
		} else {
			require.Equal(t, tc.curr, got)
		}
		require.Equal(t, wantBits, dec.r.Position(), "decoder must consume the exact record")
	}
}

func TestCompressorRejectsUnsorted(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewCompressor(&buf, 0)
	require.NoError(t, err)
	_, err = c.Push([]uint64{3, 3})
	require.Error(t, err)
	_, err = c.Push([]uint64{5, 4})
	require.Error(t, err)
}

func TestCompressorRejectsBadOptions(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewCompressor(&buf, 0, WithMinIntervalLength(1))
	require.Error(t, err)
	_, err = NewCompressor(&buf, 0, WithWindow(-1))
	require.Error(t, err)
}

func TestDecoderChainGuards(t *testing.T) {
	cs := defaultCodeSet()
	// Hand-craft a record for node 1 that references delta 2 (> v).
	var buf bytes.Buffer
	w := bitstream.NewWriter(&buf, bitstream.BigEndian)
	require.NoError(t, cs.outdegree.Write(w, 1)) // degree
	require.NoError(t, cs.reference.Write(w, 2)) // impossible delta
	require.NoError(t, w.Flush())

	dec := &decoder{
		r:           bitstream.NewReader(buf.Bytes(), bitstream.BigEndian),
		cs:          cs,
		n:           100,
		window:      7,
		minInterval: 4,
	}
	_, err := dec.readList(1, func(uint64) ([]uint64, error) { return nil, nil }, nil)
	require.ErrorIs(t, err, ErrCorruptChain)
}

func TestDecoderCopyBlockOverflow(t *testing.T) {
	cs := defaultCodeSet()
	// Record for node 9 referencing delta 2, with a second block length so
	// large that idx+b+1 wraps around uint64. The decoder must reject it as
	// a corrupt record, not panic on a reversed slice expression.
	var buf bytes.Buffer
	w := bitstream.NewWriter(&buf, bitstream.BigEndian)
	require.NoError(t, cs.outdegree.Write(w, 6)) // degree
	require.NoError(t, cs.reference.Write(w, 2))
	require.NoError(t, cs.block.Write(w, 3))       // block count
	require.NoError(t, cs.block.Write(w, 5))       // first block, verbatim
	require.NoError(t, cs.block.Write(w, 1<<64-2)) // wraps idx+b+1 to 4
	require.NoError(t, cs.block.Write(w, 0))       // never reached
	require.NoError(t, w.Flush())

	ref := []uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	dec := &decoder{
		r:           bitstream.NewReader(buf.Bytes(), bitstream.BigEndian),
		cs:          cs,
		n:           100,
		window:      7,
		minInterval: 4,
	}
	_, err := dec.readList(9, func(uint64) ([]uint64, error) { return ref, nil }, nil)
	require.ErrorIs(t, err, ErrCorruptOrder)
}

func TestDecoderOrderGuards(t *testing.T) {
	cs := defaultCodeSet()
	// Record for node 0 with one residual that lands outside [0, n).
	var buf bytes.Buffer
	w := bitstream.NewWriter(&buf, bitstream.BigEndian)
	require.NoError(t, cs.outdegree.Write(w, 1))
	require.NoError(t, cs.reference.Write(w, 0))
	require.NoError(t, cs.interval.Write(w, 0))          // no intervals
	require.NoError(t, cs.residual.Write(w, int2nat(9))) // successor 9
	require.NoError(t, w.Flush())

	dec := &decoder{
		r:           bitstream.NewReader(buf.Bytes(), bitstream.BigEndian),
		cs:          cs,
		n:           5, // 9 is out of range
		window:      7,
		minInterval: 4,
	}
	_, err := dec.readList(0, func(uint64) ([]uint64, error) { return nil, nil }, nil)
	require.ErrorIs(t, err, ErrCorruptOrder)
}

func TestPolicyShortlist(t *testing.T) {
	curr := []uint64{1, 2, 3, 4, 5}
	window := map[int][]uint64{
		1: {9, 10},
		2: {1, 2, 3},
		3: {1, 2, 3, 4, 5},
		4: {100},
		5: {2, 3},
	}
	ref := func(d int) []uint64 { return window[d] }
	eligible := []int{1, 2, 3, 4, 5}

	assert.Equal(t, eligible, ExhaustivePolicy{}.Shortlist(curr, ref, eligible))

	got := GreedyPolicy{TopK: 2}.Shortlist(curr, ref, eligible)
	assert.Equal(t, []int{2, 3}, got, "two largest intersections")

	// Fewer eligible than TopK: pass through untouched.
	assert.Equal(t, []int{1, 4}, GreedyPolicy{TopK: 3}.Shortlist(curr, ref, []int{1, 4}))
}
