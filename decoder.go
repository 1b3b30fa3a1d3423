package bvgraph

import (
	"fmt"

	"github.com/hupe1980/bvgraph/bitstream"
)

// int2nat maps a signed delta onto the naturals: v >= 0 -> 2v, v < 0 -> -2v-1.
// The first interval endpoint and the first residual are the only signed
// values in the format; they may lie below the source node.
func int2nat(v int64) uint64 {
	if v >= 0 {
		return uint64(v) << 1
	}
	return uint64(-v)<<1 - 1
}

// nat2int inverts int2nat.
func nat2int(u uint64) int64 {
	if u&1 == 0 {
		return int64(u >> 1)
	}
	return -int64(u>>1) - 1
}

// refResolver returns the successor list of an earlier node for copying.
// The sequential iterator answers from its window; random access re-enters
// the bitstream through the offset index.
type refResolver func(ref uint64) ([]uint64, error)

// decoder parses one successor record at the current position of its reader.
type decoder struct {
	r           *bitstream.Reader
	cs          codeSet
	n           uint64
	window      int
	minInterval int
}

// outdegree reads only the first field of the record.
func (d *decoder) outdegree() (uint64, error) {
	return d.cs.outdegree.Read(d.r)
}

// readList decodes the full successor list of node v, appending to buf
// (which is reset first) and returning it. resolve is consulted only when
// the record copies from a reference.
func (d *decoder) readList(v uint64, resolve refResolver, buf []uint64) ([]uint64, error) {
	buf = buf[:0]

	degree, err := d.outdegree()
	if err != nil {
		return nil, err
	}
	if degree == 0 {
		return buf, nil
	}
	if degree > d.n {
		return nil, fmt.Errorf("%w: node %d outdegree %d exceeds node count", ErrCorruptOrder, v, degree)
	}

	var refDelta uint64
	if d.window != 0 {
		if refDelta, err = d.cs.reference.Read(d.r); err != nil {
			return nil, err
		}
	}

	var copied []uint64
	if refDelta != 0 {
		if refDelta > v || refDelta > uint64(d.window) {
			return nil, fmt.Errorf("%w: node %d references delta %d", ErrCorruptChain, v, refDelta)
		}
		refList, err := resolve(v - refDelta)
		if err != nil {
			return nil, err
		}
		if copied, err = d.readCopied(refList); err != nil {
			return nil, err
		}
	}
	if uint64(len(copied)) > degree {
		return nil, fmt.Errorf("%w: node %d copies %d of %d successors", ErrCorruptOrder, v, len(copied), degree)
	}

	var intervals []uint64
	left := degree - uint64(len(copied))
	if left > 0 && d.minInterval != 0 {
		if intervals, err = d.readIntervals(v, left); err != nil {
			return nil, err
		}
		left -= uint64(len(intervals))
	}

	var residuals []uint64
	if left > 0 {
		if residuals, err = d.readResiduals(v, left); err != nil {
			return nil, err
		}
	}

	out, err := d.merge(v, buf, copied, intervals, residuals)
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) != degree {
		return nil, fmt.Errorf("%w: node %d decoded %d of %d successors", ErrCorruptOrder, v, len(out), degree)
	}
	return out, nil
}

// readCopied parses the copy-block run lengths and extracts the copied
// successors of the reference list. Blocks at even index are copy blocks;
// the implicit trailing block extends to the end of the reference list.
func (d *decoder) readCopied(refList []uint64) ([]uint64, error) {
	nb, err := d.cs.block.Read(d.r)
	if err != nil {
		return nil, err
	}
	if nb == 0 {
		return refList, nil
	}

	out := make([]uint64, 0, len(refList))
	// The first length is stored verbatim (the encoder biases it by one so
	// all lengths go through the same minus-one write); the rest biased.
	idx, err := d.cs.block.Read(d.r)
	if err != nil {
		return nil, err
	}
	if idx > uint64(len(refList)) {
		return nil, fmt.Errorf("%w: copy block overruns reference list", ErrCorruptOrder)
	}
	out = append(out, refList[:idx]...)

	for i := uint64(1); i < nb; i++ {
		b, err := d.cs.block.Read(d.r)
		if err != nil {
			return nil, err
		}
		// Compare against the remaining capacity instead of computing
		// idx+b+1 first: b comes straight off the stream and the addition
		// could wrap past len(refList).
		if b >= uint64(len(refList))-idx {
			return nil, fmt.Errorf("%w: copy block overruns reference list", ErrCorruptOrder)
		}
		end := idx + b + 1
		if i%2 == 0 {
			out = append(out, refList[idx:end]...)
		}
		idx = end
	}
	if nb%2 == 0 {
		out = append(out, refList[idx:]...)
	}
	return out, nil
}

// readIntervals parses the interval runs and expands them. budget is the
// number of successors the record still owes; expansion beyond it means a
// corrupt record, checked before allocating.
func (d *decoder) readIntervals(v, budget uint64) ([]uint64, error) {
	ni, err := d.cs.interval.Read(d.r)
	if err != nil {
		return nil, err
	}
	if ni == 0 {
		return nil, nil
	}

	var out []uint64
	first, err := d.cs.interval.Read(d.r)
	if err != nil {
		return nil, err
	}
	start := int64(v) + nat2int(first)
	if start < 0 {
		return nil, fmt.Errorf("%w: negative interval start for node %d", ErrCorruptOrder, v)
	}
	cur := uint64(start)
	for i := uint64(0); i < ni; i++ {
		if i > 0 {
			gap, err := d.cs.interval.Read(d.r)
			if err != nil {
				return nil, err
			}
			cur += gap + 1
		}
		length, err := d.cs.interval.Read(d.r)
		if err != nil {
			return nil, err
		}
		length += uint64(d.minInterval)
		if length > budget-uint64(len(out)) {
			return nil, fmt.Errorf("%w: node %d interval overflow", ErrCorruptOrder, v)
		}
		for j := uint64(0); j < length; j++ {
			out = append(out, cur)
			cur++
		}
	}
	return out, nil
}

// readResiduals parses count gap-coded residuals.
func (d *decoder) readResiduals(v, count uint64) ([]uint64, error) {
	out := make([]uint64, 0, count)
	first, err := d.cs.residual.Read(d.r)
	if err != nil {
		return nil, err
	}
	res := int64(v) + nat2int(first)
	if res < 0 {
		return nil, fmt.Errorf("%w: negative first residual for node %d", ErrCorruptOrder, v)
	}
	prev := uint64(res)
	out = append(out, prev)
	for i := uint64(1); i < count; i++ {
		gap, err := d.cs.residual.Read(d.r)
		if err != nil {
			return nil, err
		}
		prev += gap + 1
		out = append(out, prev)
	}
	return out, nil
}

// merge folds the three sorted sub-streams into buf, enforcing the strictly
// increasing order and [0, N) bounds of a well-formed successor list.
func (d *decoder) merge(v uint64, buf, copied, intervals, residuals []uint64) ([]uint64, error) {
	streams := [3][]uint64{copied, intervals, residuals}
	var idx [3]int
	for {
		best, bestStream := ^uint64(0), -1
		for s, stream := range streams {
			if idx[s] < len(stream) && stream[idx[s]] < best {
				best = stream[idx[s]]
				bestStream = s
			}
		}
		if bestStream < 0 {
			break
		}
		idx[bestStream]++
		if best >= d.n {
			return nil, fmt.Errorf("%w: node %d successor %d out of [0, %d)", ErrCorruptOrder, v, best, d.n)
		}
		if len(buf) > 0 && buf[len(buf)-1] >= best {
			return nil, fmt.Errorf("%w: node %d successors not strictly increasing", ErrCorruptOrder, v)
		}
		buf = append(buf, best)
	}
	return buf, nil
}
