package codes

import (
	"errors"
	"math/bits"

	"github.com/hupe1980/bvgraph/bitstream"
)

// ErrValueOverflow is returned when a decoded length field implies a value
// that cannot fit in 64 bits; it only arises on corrupt streams.
var ErrValueOverflow = errors.New("codes: decoded value overflows 64 bits")

// log2Floor returns floor(log2(x)) for x > 0.
func log2Floor(x uint64) uint {
	return uint(63 - bits.LeadingZeros64(x))
}

// Unary encodes n as n zero bits followed by a one bit.
type Unary struct{}

func (Unary) Name() string { return "unary" }

func (Unary) Read(r *bitstream.Reader) (uint64, error) { return r.ReadUnary() }

func (Unary) Write(w *bitstream.Writer, v uint64) error { return w.WriteUnary(v) }

func (Unary) Len(v uint64) int { return int(v) + 1 }

// Gamma is the Elias gamma code: unary length followed by the binary
// representation of n+1 with its leading one elided.
type Gamma struct{}

func (Gamma) Name() string { return "gamma" }

func (Gamma) Read(r *bitstream.Reader) (uint64, error) {
	h, err := r.ReadUnary()
	if err != nil {
		return 0, err
	}
	if h > 63 {
		return 0, ErrValueOverflow
	}
	low, err := r.ReadBits(uint(h))
	if err != nil {
		return 0, err
	}
	return (uint64(1)<<h | low) - 1, nil
}

func (Gamma) Write(w *bitstream.Writer, v uint64) error {
	x := v + 1
	h := log2Floor(x)
	if err := w.WriteUnary(uint64(h)); err != nil {
		return err
	}
	return w.WriteBits(x, h)
}

func (Gamma) Len(v uint64) int {
	return 2*int(log2Floor(v+1)) + 1
}

// Delta is the Elias delta code: the length field of gamma is itself
// gamma-coded.
type Delta struct{}

func (Delta) Name() string { return "delta" }

func (Delta) Read(r *bitstream.Reader) (uint64, error) {
	h, err := (Gamma{}).Read(r)
	if err != nil {
		return 0, err
	}
	if h > 63 {
		return 0, ErrValueOverflow
	}
	low, err := r.ReadBits(uint(h))
	if err != nil {
		return 0, err
	}
	return (uint64(1)<<h | low) - 1, nil
}

func (Delta) Write(w *bitstream.Writer, v uint64) error {
	x := v + 1
	h := log2Floor(x)
	if err := (Gamma{}).Write(w, uint64(h)); err != nil {
		return err
	}
	return w.WriteBits(x, h)
}

func (Delta) Len(v uint64) int {
	h := log2Floor(v + 1)
	return (Gamma{}).Len(uint64(h)) + int(h)
}

// Zeta is the zeta_k code of Boldi and Vigna, tuned for power laws with
// exponent around 1 + 1/k. It partitions the positive integers into buckets
// of doubling width k: the bucket index goes in unary, the position within
// the bucket in minimal binary.
type Zeta struct {
	K uint
}

func (c Zeta) Name() string { return "zeta" + itoa(c.K) }

// bucket returns the lower bound 2^(h*k) of bucket h and the number of
// values it spans. The span saturates when the bucket upper bound would not
// fit in 64 bits.
func (c Zeta) bucket(h uint) (lo, span uint64) {
	lo = uint64(1) << (h * c.K)
	if (h+1)*c.K >= 64 {
		span = -lo // 2^64 - lo, wrapping
	} else {
		span = uint64(1)<<((h+1)*c.K) - lo
	}
	return lo, span
}

func (c Zeta) Read(r *bitstream.Reader) (uint64, error) {
	h, err := r.ReadUnary()
	if err != nil {
		return 0, err
	}
	if h > 63 || uint(h)*c.K > 63 {
		return 0, ErrValueOverflow
	}
	lo, span := c.bucket(uint(h))
	m, err := ReadMinimalBinary(r, span)
	if err != nil {
		return 0, err
	}
	return lo + m - 1, nil
}

func (c Zeta) Write(w *bitstream.Writer, v uint64) error {
	x := v + 1
	h := log2Floor(x) / c.K
	if err := w.WriteUnary(uint64(h)); err != nil {
		return err
	}
	lo, span := c.bucket(h)
	return WriteMinimalBinary(w, x-lo, span)
}

func (c Zeta) Len(v uint64) int {
	x := v + 1
	h := log2Floor(x) / c.K
	lo, span := c.bucket(h)
	return int(h) + 1 + LenMinimalBinary(x-lo, span)
}

// Pi is the pi_k code: buckets of fixed width 2^k, bucket index in unary,
// position within the bucket in plain binary.
type Pi struct {
	K uint
}

func (c Pi) Name() string { return "pi" + itoa(c.K) }

func (c Pi) Read(r *bitstream.Reader) (uint64, error) {
	q, err := r.ReadUnary()
	if err != nil {
		return 0, err
	}
	low, err := r.ReadBits(c.K)
	if err != nil {
		return 0, err
	}
	return q<<c.K | low, nil
}

func (c Pi) Write(w *bitstream.Writer, v uint64) error {
	if err := w.WriteUnary(v >> c.K); err != nil {
		return err
	}
	return w.WriteBits(v, c.K)
}

func (c Pi) Len(v uint64) int {
	return int(v>>c.K) + 1 + int(c.K)
}

// ExpGolomb is the exponential Golomb code of order k: the quotient n/2^k
// goes in gamma, the remainder in k plain bits. Order 0 coincides with
// gamma.
type ExpGolomb struct {
	K uint
}

func (c ExpGolomb) Name() string { return "golomb" + itoa(c.K) }

func (c ExpGolomb) Read(r *bitstream.Reader) (uint64, error) {
	q, err := (Gamma{}).Read(r)
	if err != nil {
		return 0, err
	}
	low, err := r.ReadBits(c.K)
	if err != nil {
		return 0, err
	}
	return q<<c.K | low, nil
}

func (c ExpGolomb) Write(w *bitstream.Writer, v uint64) error {
	if err := (Gamma{}).Write(w, v>>c.K); err != nil {
		return err
	}
	return w.WriteBits(v, c.K)
}

func (c ExpGolomb) Len(v uint64) int {
	return (Gamma{}).Len(v>>c.K) + int(c.K)
}

func itoa(k uint) string {
	return string([]byte{'0' + byte(k)})
}
