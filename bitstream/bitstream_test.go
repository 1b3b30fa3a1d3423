package bitstream

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var orders = []Order{BigEndian, LittleEndian}

func TestParseOrder(t *testing.T) {
	for _, o := range orders {
		got, err := ParseOrder(o.String())
		require.NoError(t, err)
		require.Equal(t, o, got)
	}
	_, err := ParseOrder("MIDDLE")
	require.Error(t, err)
}

func TestWriteReadBits(t *testing.T) {
	for _, order := range orders {
		t.Run(order.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, order)

			type chunk struct {
				v uint64
				k uint
			}
			rng := rand.New(rand.NewSource(42))
			var chunks []chunk
			for i := 0; i < 1000; i++ {
				k := uint(rng.Intn(64) + 1)
				chunks = append(chunks, chunk{v: rng.Uint64() & mask(k), k: k})
			}

			var totalBits uint64
			for _, c := range chunks {
				require.NoError(t, w.WriteBits(c.v, c.k))
				totalBits += uint64(c.k)
			}
			require.Equal(t, totalBits, w.Written())
			require.NoError(t, w.Flush())
			require.Zero(t, buf.Len()%WordBytes)

			r := NewReader(buf.Bytes(), order)
			for i, c := range chunks {
				got, err := r.ReadBits(c.k)
				require.NoError(t, err)
				require.Equal(t, c.v, got, "chunk %d width %d", i, c.k)
			}
			require.Equal(t, totalBits, r.Position())
		})
	}
}

func TestWriteReadUnary(t *testing.T) {
	for _, order := range orders {
		t.Run(order.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, order)

			values := []uint64{0, 1, 2, 3, 7, 31, 63, 64, 65, 100, 200, 0, 1}
			for _, v := range values {
				require.NoError(t, w.WriteUnary(v))
			}
			require.NoError(t, w.Flush())

			r := NewReader(buf.Bytes(), order)
			for _, v := range values {
				got, err := r.ReadUnary()
				require.NoError(t, err)
				require.Equal(t, v, got)
			}
		})
	}
}

func TestWordBoundaryCrossing(t *testing.T) {
	// Writes of width 33 never align with the word width, so every other
	// write spans a boundary.
	for _, order := range orders {
		var buf bytes.Buffer
		w := NewWriter(&buf, order)
		for i := uint64(0); i < 100; i++ {
			if err := w.WriteBits(i, 33); err != nil {
				t.Fatal(err)
			}
		}
		if err := w.Flush(); err != nil {
			t.Fatal(err)
		}
		r := NewReader(buf.Bytes(), order)
		for i := uint64(0); i < 100; i++ {
			got, err := r.ReadBits(33)
			if err != nil {
				t.Fatal(err)
			}
			if got != i {
				t.Fatalf("order %s: read %d, want %d", order, got, i)
			}
		}
	}
}

func TestSeekAndSkip(t *testing.T) {
	for _, order := range orders {
		var buf bytes.Buffer
		w := NewWriter(&buf, order)
		for i := uint64(0); i < 64; i++ {
			require.NoError(t, w.WriteBits(i, 17))
		}
		require.NoError(t, w.Flush())

		r := NewReader(buf.Bytes(), order)
		r.Seek(17 * 10)
		got, err := r.ReadBits(17)
		require.NoError(t, err)
		require.EqualValues(t, 10, got)

		r.SkipBits(17 * 3)
		got, err = r.ReadBits(17)
		require.NoError(t, err)
		require.EqualValues(t, 14, got)

		r.Seek(0)
		got, err = r.ReadBits(17)
		require.NoError(t, err)
		require.EqualValues(t, 0, got)
	}
}

func TestTruncated(t *testing.T) {
	for _, order := range orders {
		r := NewReader(make([]byte, 8), order)
		_, err := r.ReadBits(64)
		require.NoError(t, err)
		_, err = r.ReadBits(1)
		require.ErrorIs(t, err, ErrTruncated)

		// A run of zeros with no terminator must not read past the end.
		r = NewReader(make([]byte, 16), order)
		_, err = r.ReadUnary()
		require.ErrorIs(t, err, ErrTruncated)
	}
}

func TestCopyBits(t *testing.T) {
	for _, order := range orders {
		var src bytes.Buffer
		w := NewWriter(&src, order)
		for i := uint64(0); i < 50; i++ {
			require.NoError(t, w.WriteBits(i*i, 21))
		}
		require.NoError(t, w.Flush())

		// Copy at an unaligned split point.
		r := NewReader(src.Bytes(), order)
		var dst bytes.Buffer
		cw := NewWriter(&dst, order)
		require.NoError(t, cw.CopyBits(r, 21*50))
		require.NoError(t, cw.Flush())

		cr := NewReader(dst.Bytes(), order)
		for i := uint64(0); i < 50; i++ {
			got, err := cr.ReadBits(21)
			require.NoError(t, err)
			require.Equal(t, i*i&mask(21), got)
		}
	}
}

func TestReaderClone(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, BigEndian)
	require.NoError(t, w.WriteBits(0xdead, 16))
	require.NoError(t, w.WriteBits(0xbeef, 16))
	require.NoError(t, w.Flush())

	r := NewReader(buf.Bytes(), BigEndian)
	_, err := r.ReadBits(16)
	require.NoError(t, err)

	c := r.Clone()
	got, err := c.ReadBits(16)
	require.NoError(t, err)
	require.EqualValues(t, 0xbeef, got)

	// Advancing the clone must not move the original cursor.
	require.EqualValues(t, 16, r.Position())
}

func BenchmarkReadUnary(b *testing.B) {
	var buf bytes.Buffer
	w := NewWriter(&buf, BigEndian)
	for i := 0; i < 4096; i++ {
		_ = w.WriteUnary(uint64(i % 17))
	}
	_ = w.Flush()
	data := buf.Bytes()

	b.ReportAllocs()
	r := NewReader(data, BigEndian)
	b.ResetTimer()
	for b.Loop() {
		r.Seek(0)
		for i := 0; i < 4096; i++ {
			if _, err := r.ReadUnary(); err != nil {
				b.Fatal(err)
			}
		}
	}
}
