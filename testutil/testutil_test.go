package testutil

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromArcs(t *testing.T) {
	g := FromArcs(4, [][2]uint64{{1, 3}, {1, 0}, {1, 3}, {3, 2}})
	assert.EqualValues(t, 4, g.NumNodes())
	assert.Equal(t, []uint64{0, 3}, g.Successors(1))
	assert.Equal(t, []uint64{2}, g.Successors(3))
	assert.Empty(t, g.Successors(0))
	assert.EqualValues(t, 3, g.NumArcs())
}

func TestArcsRoundTrip(t *testing.T) {
	arcs := [][2]uint64{{0, 1}, {1, 2}, {2, 0}}
	g := FromArcs(3, arcs)
	assert.Equal(t, arcs, g.Arcs())
}

func TestRandomPowerLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := RandomPowerLaw(rng, 1000, 10_000, 2.2)
	require.EqualValues(t, 1000, g.NumNodes())

	m := g.NumArcs()
	assert.Greater(t, m, uint64(2000), "arc count far below target")

	for v := uint64(0); v < g.NumNodes(); v++ {
		s := g.Successors(v)
		for i := 1; i < len(s); i++ {
			require.Less(t, s[i-1], s[i], "node %d not strictly increasing", v)
		}
		for _, w := range s {
			require.Less(t, w, g.NumNodes())
		}
	}
}
