package ef

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromValuesAndGet(t *testing.T) {
	cases := [][]uint64{
		{0},
		{0, 0, 0},
		{5},
		{0, 1, 2, 3, 4, 5},
		{0, 0, 7, 7, 7, 100, 1000, 1000, 123456},
		{42, 42, 43, 1 << 40},
	}
	for _, values := range cases {
		ix, err := FromValues(values)
		require.NoError(t, err)
		require.EqualValues(t, len(values), ix.Len())
		for i, want := range values {
			assert.Equal(t, want, ix.Get(uint64(i)), "values %v index %d", values, i)
		}
	}
}

func TestFromValuesRejects(t *testing.T) {
	_, err := FromValues(nil)
	require.Error(t, err)

	_, err = FromValues([]uint64{3, 2})
	require.Error(t, err)
}

func TestRandomMonotone(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for _, n := range []int{1, 2, 63, 64, 65, 1000, 10000} {
		values := make([]uint64, n)
		for i := range values {
			values[i] = uint64(rng.Int63n(1 << 30))
		}
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

		ix, err := FromValues(values)
		require.NoError(t, err)
		for i, want := range values {
			require.Equal(t, want, ix.Get(uint64(i)), "n=%d i=%d", n, i)
		}
	}
}

func TestDenseSequence(t *testing.T) {
	// All-distinct consecutive values exercise the high-vector select across
	// many jump samples.
	values := make([]uint64, 5000)
	for i := range values {
		values[i] = uint64(i) * 3
	}
	ix, err := FromValues(values)
	require.NoError(t, err)
	for i, want := range values {
		require.Equal(t, want, ix.Get(uint64(i)))
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	values := make([]uint64, 2000)
	var acc uint64
	for i := range values {
		acc += uint64(rng.Intn(500))
		values[i] = acc
	}
	ix, err := FromValues(values)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := ix.WriteTo(&buf)
	require.NoError(t, err)
	require.EqualValues(t, buf.Len(), n)

	got, err := Read(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, ix.Len(), got.Len())
	for i := range values {
		require.Equal(t, values[i], got.Get(uint64(i)))
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read([]byte{1, 2, 3})
	require.Error(t, err)

	values := []uint64{1, 2, 3}
	ix, _ := FromValues(values)
	var buf bytes.Buffer
	_, err = ix.WriteTo(&buf)
	require.NoError(t, err)

	bad := append([]byte{}, buf.Bytes()...)
	bad[0] ^= 0xFF
	_, err = Read(bad)
	require.ErrorIs(t, err, ErrInvalidMagic)

	bad = append([]byte{}, buf.Bytes()...)
	bad[4] = 99
	_, err = Read(bad)
	require.ErrorIs(t, err, ErrInvalidVersion)

	_, err = Read(buf.Bytes()[:buf.Len()-8])
	require.Error(t, err)
}

func BenchmarkGet(b *testing.B) {
	values := make([]uint64, 1<<16)
	var acc uint64
	rng := rand.New(rand.NewSource(1))
	for i := range values {
		acc += uint64(rng.Intn(100))
		values[i] = acc
	}
	ix, err := FromValues(values)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	var sink uint64
	for b.Loop() {
		sink += ix.Get(uint64(sink) % ix.Len())
	}
	_ = sink
}
