package bitstream

import (
	"encoding/binary"
	"io"
)

// Writer appends bits to an io.Writer, buffering one word at a time.
//
// The stream grows word by word; Flush zero-pads the final partial word so
// the on-disk artifact is always a whole number of words. A Writer must
// produce exactly the bit sequence a Reader with the same order reads back.
type Writer struct {
	w       io.Writer
	order   Order
	cur     uint64 // partially filled word
	fill    uint   // bits used in cur
	written uint64 // bits accepted so far, excluding flush padding
	scratch [WordBytes]byte
}

// NewWriter returns a writer emitting a stream with the given bit order.
func NewWriter(w io.Writer, order Order) *Writer {
	return &Writer{w: w, order: order}
}

// Order reports the bit order of the stream.
func (w *Writer) Order() Order { return w.order }

// Written returns the number of bits written so far, not counting the
// zero padding appended by Flush.
func (w *Writer) Written() uint64 { return w.written }

func (w *Writer) flushWord() error {
	if w.order == BigEndian {
		binary.BigEndian.PutUint64(w.scratch[:], w.cur)
	} else {
		binary.LittleEndian.PutUint64(w.scratch[:], w.cur)
	}
	w.cur = 0
	w.fill = 0
	_, err := w.w.Write(w.scratch[:])
	return err
}

// WriteBits appends the low k bits of v, 0 <= k <= 64. In a big-endian
// stream the most significant of the k bits is written first; in a
// little-endian stream the least significant.
func (w *Writer) WriteBits(v uint64, k uint) error {
	if k == 0 {
		return nil
	}
	v &= mask(k)
	free := WordBits - w.fill
	if w.order == BigEndian {
		if k <= free {
			w.cur |= v << (free - k)
			w.fill += k
		} else {
			w.cur |= v >> (k - free)
			w.fill = WordBits
			if err := w.flushWord(); err != nil {
				return err
			}
			rest := k - free
			w.cur = (v & mask(rest)) << (WordBits - rest)
			w.fill = rest
		}
	} else {
		if k <= free {
			w.cur |= v << w.fill
			w.fill += k
		} else {
			w.cur |= v << w.fill
			w.fill = WordBits
			if err := w.flushWord(); err != nil {
				return err
			}
			w.cur = v >> free
			w.fill = k - free
		}
	}
	if w.fill == WordBits {
		if err := w.flushWord(); err != nil {
			return err
		}
	}
	w.written += uint64(k)
	return nil
}

// WriteUnary appends n zero bits followed by a one bit.
func (w *Writer) WriteUnary(n uint64) error {
	for n >= WordBits {
		if err := w.WriteBits(0, WordBits); err != nil {
			return err
		}
		n -= WordBits
	}
	// The terminating one must be the last bit in big-endian order and the
	// highest of the k written bits in little-endian order.
	if w.order == BigEndian {
		return w.WriteBits(1, uint(n)+1)
	}
	return w.WriteBits(1<<uint(n), uint(n)+1)
}

// Flush zero-pads the current word to a word boundary and writes it out.
// Writing may continue after a Flush only if the stream was already
// word-aligned; callers flush exactly once, when the stream is complete.
func (w *Writer) Flush() error {
	if w.fill == 0 {
		return nil
	}
	return w.flushWord()
}

// CopyBits transfers n bits from r to w, preserving their order.
func (w *Writer) CopyBits(r *Reader, n uint64) error {
	for n >= WordBits {
		v, err := r.ReadBits(WordBits)
		if err != nil {
			return err
		}
		if err := w.WriteBits(v, WordBits); err != nil {
			return err
		}
		n -= WordBits
	}
	if n > 0 {
		v, err := r.ReadBits(uint(n))
		if err != nil {
			return err
		}
		if err := w.WriteBits(v, uint(n)); err != nil {
			return err
		}
	}
	return nil
}
