package bvgraph

import (
	"github.com/hupe1980/bvgraph/bitstream"
	"github.com/hupe1980/bvgraph/codes"
)

// recordBuilder computes the copy blocks, intervals and residuals of one
// record against one candidate reference. The compressor keeps one builder
// per window slot so candidate evaluations reuse their allocations.
type recordBuilder struct {
	degree       int
	blocks       []uint64
	extras       []uint64
	leftInterval []uint64
	lenInterval  []uint64
	residuals    []uint64
}

func (rb *recordBuilder) clear() {
	rb.degree = 0
	rb.blocks = rb.blocks[:0]
	rb.extras = rb.extras[:0]
	rb.leftInterval = rb.leftInterval[:0]
	rb.lenInterval = rb.lenInterval[:0]
	rb.residuals = rb.residuals[:0]
}

// build prepares the record for curr differentially against ref (nil for no
// reference).
func (rb *recordBuilder) build(curr, ref []uint64, minInterval int) {
	rb.clear()
	rb.degree = len(curr)
	if rb.degree == 0 {
		return
	}
	if ref != nil {
		rb.diff(curr, ref)
	} else {
		rb.extras = append(rb.extras, curr...)
	}
	if len(rb.extras) > 0 {
		if minInterval != 0 {
			rb.intervalize(minInterval)
		} else {
			rb.residuals = append(rb.residuals, rb.extras...)
		}
	}
}

// diff computes the alternating copy/skip block lengths of curr against ref
// and collects the successors not covered into extras. The trailing block
// is implicit, and the first block length is biased by one so that every
// block can be written as length-1.
func (rb *recordBuilder) diff(curr, ref []uint64) {
	j, k := 0, 0 // cursors into curr and ref
	blockLen := uint64(0)
	copying := true

	for j < len(curr) && k < len(ref) {
		if copying {
			switch {
			case curr[j] > ref[k]:
				// Trespassed the reference element, stop copying.
				rb.blocks = append(rb.blocks, blockLen)
				copying = false
				blockLen = 0
			case curr[j] < ref[k]:
				rb.extras = append(rb.extras, curr[j])
				j++
			default:
				j++
				k++
				blockLen++
			}
		} else {
			switch {
			case curr[j] > ref[k]:
				k++
				blockLen++
			case curr[j] < ref[k]:
				rb.extras = append(rb.extras, curr[j])
				j++
			default:
				rb.blocks = append(rb.blocks, blockLen)
				copying = true
				blockLen = 0
			}
		}
	}
	// The last block is implicit unless we were copying and stopped short
	// of the end of the reference list.
	if copying && k < len(ref) {
		rb.blocks = append(rb.blocks, blockLen)
	}
	for ; j < len(curr); j++ {
		rb.extras = append(rb.extras, curr[j])
	}
	if len(rb.blocks) > 0 {
		rb.blocks[0]++
	}
}

// intervalize extracts maximal runs of consecutive integers of length at
// least minInterval from extras, leaving the rest as residuals.
func (rb *recordBuilder) intervalize(minInterval int) {
	ext := rb.extras
	for i := 0; i < len(ext); {
		j := 0
		if i < len(ext)-1 && ext[i]+1 == ext[i+1] {
			j++
			for i+j < len(ext)-1 && ext[i+j]+1 == ext[i+j+1] {
				j++
			}
			j++
			if j >= minInterval {
				rb.leftInterval = append(rb.leftInterval, ext[i])
				rb.lenInterval = append(rb.lenInterval, uint64(j))
				i += j - 1
			}
		}
		if j < minInterval {
			rb.residuals = append(rb.residuals, ext[i])
		}
		i++
	}
}

// recordSink receives the coded fields of a record. Emitting through a sink
// keeps the real write and the cost estimate in lockstep by construction.
type recordSink interface {
	put(c codes.Code, v uint64) error
}

type writerSink struct {
	w *bitstream.Writer
}

func (s writerSink) put(c codes.Code, v uint64) error { return c.Write(s.w, v) }

type lenSink struct {
	bits uint64
}

func (s *lenSink) put(c codes.Code, v uint64) error {
	s.bits += uint64(c.Len(v))
	return nil
}

// emit serializes the built record. refDelta is the chosen reference delta,
// or -1 when the window is zero and the reference field is absent.
func (rb *recordBuilder) emit(sink recordSink, cs codeSet, v uint64, refDelta int, minInterval int) error {
	if err := sink.put(cs.outdegree, uint64(rb.degree)); err != nil {
		return err
	}
	if rb.degree == 0 {
		return nil
	}
	if refDelta >= 0 {
		if err := sink.put(cs.reference, uint64(refDelta)); err != nil {
			return err
		}
		if refDelta != 0 {
			if err := sink.put(cs.block, uint64(len(rb.blocks))); err != nil {
				return err
			}
			for _, b := range rb.blocks {
				if err := sink.put(cs.block, b-1); err != nil {
					return err
				}
			}
		}
	}
	if len(rb.extras) > 0 && minInterval != 0 {
		if err := sink.put(cs.interval, uint64(len(rb.leftInterval))); err != nil {
			return err
		}
		if len(rb.leftInterval) > 0 {
			if err := sink.put(cs.interval, int2nat(int64(rb.leftInterval[0])-int64(v))); err != nil {
				return err
			}
			if err := sink.put(cs.interval, rb.lenInterval[0]-uint64(minInterval)); err != nil {
				return err
			}
			prev := rb.leftInterval[0] + rb.lenInterval[0]
			for i := 1; i < len(rb.leftInterval); i++ {
				if err := sink.put(cs.interval, rb.leftInterval[i]-prev-1); err != nil {
					return err
				}
				if err := sink.put(cs.interval, rb.lenInterval[i]-uint64(minInterval)); err != nil {
					return err
				}
				prev = rb.leftInterval[i] + rb.lenInterval[i]
			}
		}
	}
	if len(rb.residuals) > 0 {
		if err := sink.put(cs.residual, int2nat(int64(rb.residuals[0])-int64(v))); err != nil {
			return err
		}
		for i := 1; i < len(rb.residuals); i++ {
			if err := sink.put(cs.residual, rb.residuals[i]-rb.residuals[i-1]-1); err != nil {
				return err
			}
		}
	}
	return nil
}

// write emits the record to the bitstream.
func (rb *recordBuilder) write(w *bitstream.Writer, cs codeSet, v uint64, refDelta int, minInterval int) error {
	return rb.emit(writerSink{w: w}, cs, v, refDelta, minInterval)
}

// bitLen returns the exact encoded length of the record in bits.
func (rb *recordBuilder) bitLen(cs codeSet, v uint64, refDelta int, minInterval int) uint64 {
	var s lenSink
	_ = rb.emit(&s, cs, v, refDelta, minInterval)
	return s.bits
}
