package bvgraph

import (
	"fmt"
	"io"

	"github.com/hupe1980/bvgraph/bitstream"
)

// Compressor encodes successor lists into a graph bitstream. Lists must be
// pushed for every node in id order, empty lists included.
//
// The compressor keeps a ring of the last Window materialized lists
// together with their chain depths; for each pushed list it evaluates the
// candidate references the policy shortlists, estimates the exact bit cost
// of each via the codes' Len, and emits the cheapest record.
type Compressor struct {
	w    *bitstream.Writer
	opts CompressionOptions

	ring      [][]uint64 // window+1 slots of previously pushed lists
	refCounts []int      // chain depth per slot
	scratch   []recordBuilder

	start uint64 // first node of this compressor (parallel ranges)
	curr  uint64
	arcs  uint64
	refs  uint64 // records that chose a nonzero reference
}

// NewCompressor returns a compressor writing to w. startNode is nonzero
// only for partitioned builds, where each range starts with an empty
// window.
func NewCompressor(w io.Writer, startNode uint64, opts ...Option) (*Compressor, error) {
	o := defaultCompressionOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newCompressor(w, startNode, o)
}

func newCompressor(w io.Writer, startNode uint64, o CompressionOptions) (*Compressor, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	c := &Compressor{
		w:         bitstream.NewWriter(w, o.Order),
		opts:      o,
		ring:      make([][]uint64, o.Window+1),
		refCounts: make([]int, o.Window+1),
		scratch:   make([]recordBuilder, o.Window+1),
		start:     startNode,
		curr:      startNode,
	}
	return c, nil
}

// Written returns the number of bits emitted so far.
func (c *Compressor) Written() uint64 { return c.w.Written() }

// Arcs returns the number of arcs pushed so far.
func (c *Compressor) Arcs() uint64 { return c.arcs }

// refShare returns the fraction of records that used a reference.
func (c *Compressor) refShare() float64 {
	if c.curr == c.start {
		return 0
	}
	return float64(c.refs) / float64(c.curr-c.start)
}

// Push encodes the successor list of the next node and returns the record
// length in bits. successors must be strictly increasing.
func (c *Compressor) Push(successors []uint64) (uint64, error) {
	for i := 1; i < len(successors); i++ {
		if successors[i] <= successors[i-1] {
			return 0, fmt.Errorf("bvgraph: node %d: successors not strictly increasing", c.curr)
		}
	}
	v := c.curr
	slot := int(v % uint64(len(c.ring)))
	c.ring[slot] = append(c.ring[slot][:0], successors...)
	curr := c.ring[slot]
	c.arcs += uint64(len(curr))

	minInterval := c.opts.MinIntervalLength

	// Baseline: no reference.
	rb := &c.scratch[0]
	rb.build(curr, nil, minInterval)

	if c.opts.Window == 0 {
		before := c.w.Written()
		if err := rb.write(c.w, c.opts.codes, v, -1, minInterval); err != nil {
			return 0, err
		}
		c.curr++
		return c.w.Written() - before, nil
	}

	bestDelta := 0
	bestCount := 0
	minBits := rb.bitLen(c.opts.codes, v, 0, minInterval)

	for _, delta := range c.candidates(v, curr) {
		ref := v - uint64(delta)
		refSlot := int(ref % uint64(len(c.ring)))
		rb := &c.scratch[delta]
		rb.build(curr, c.ring[refSlot], minInterval)
		// A biased first block of 1 is a zero-length leading copy run;
		// such candidates are never emitted.
		if len(rb.blocks) > 0 && rb.blocks[0] == 1 {
			continue
		}
		bits := rb.bitLen(c.opts.codes, v, delta, minInterval)
		// Strict comparison keeps the nearest reference on ties.
		if bits < minBits {
			minBits = bits
			bestDelta = delta
			bestCount = c.refCounts[refSlot] + 1
		}
	}

	before := c.w.Written()
	if err := c.scratch[bestDelta].write(c.w, c.opts.codes, v, bestDelta, minInterval); err != nil {
		return 0, err
	}
	written := c.w.Written() - before
	if written != minBits {
		return 0, fmt.Errorf("bvgraph: node %d: estimated %d bits, wrote %d", v, minBits, written)
	}
	c.refCounts[slot] = bestCount
	if bestDelta != 0 {
		c.refs++
	}
	c.curr++
	return written, nil
}

// candidates returns the reference deltas to evaluate: those inside the
// window whose chain depth leaves room for one more hop and whose list is
// nonempty, filtered through the policy.
func (c *Compressor) candidates(v uint64, curr []uint64) []int {
	span := uint64(c.opts.Window)
	if avail := v - c.start; avail < span {
		span = avail
	}
	eligible := make([]int, 0, span)
	for delta := 1; delta <= int(span); delta++ {
		refSlot := int((v - uint64(delta)) % uint64(len(c.ring)))
		if c.refCounts[refSlot] >= c.opts.MaxRefCount {
			continue
		}
		if len(c.ring[refSlot]) == 0 {
			continue
		}
		eligible = append(eligible, delta)
	}
	return c.opts.Policy.Shortlist(curr, c.refList(v), eligible)
}

func (c *Compressor) refList(v uint64) func(delta int) []uint64 {
	return func(delta int) []uint64 {
		return c.ring[int((v-uint64(delta))%uint64(len(c.ring)))]
	}
}

// Flush zero-pads the stream to a word boundary. No records may be pushed
// afterwards.
func (c *Compressor) Flush() error { return c.w.Flush() }
