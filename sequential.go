package bvgraph

import (
	"fmt"

	"github.com/hupe1980/bvgraph/bitstream"
	"github.com/hupe1980/bvgraph/internal/mmap"
)

// NodeIterator walks the graph sequentially, visiting nodes 0..N-1 in order
// without consulting the offset index. It owns a ring of the last W decoded
// lists so reference resolution is a slice lookup.
//
// The slice returned by Successors is valid only until the next call to
// Next; it aliases the ring.
type NodeIterator struct {
	dec    *decoder
	ring   [][]uint64 // window+1 slots, indexed by node id modulo len
	n      uint64
	next   uint64
	cur    uint64
	window int
	err    error
}

// Nodes returns a sequential iterator over all nodes and their successor
// lists. Isolated nodes are reported with an empty list. The iterator is
// independent of any other cursor on the graph.
func (g *Graph) Nodes() *NodeIterator {
	// A front-to-back scan; tell the kernel.
	_ = g.graphFile.Advise(mmap.AccessSequential)

	r := bitstream.NewReader(g.data, g.order)
	return &NodeIterator{
		dec:    g.newDecoder(r),
		ring:   make([][]uint64, g.window+1),
		n:      g.n,
		window: g.window,
	}
}

// Next advances to the next node. It returns false when the iteration is
// exhausted or an error occurred; check Err after the loop.
func (it *NodeIterator) Next() bool {
	if it.err != nil || it.next >= it.n {
		return false
	}
	v := it.next
	slot := int(v % uint64(len(it.ring)))

	list, err := it.dec.readList(v, it.resolve, it.ring[slot])
	if err != nil {
		it.err = fmt.Errorf("bvgraph: node %d: %w", v, err)
		return false
	}
	it.ring[slot] = list
	it.cur = v
	it.next++
	return true
}

// resolve answers a reference lookup from the ring. readList has already
// bounded the delta by the window, so the slot still holds the list of ref.
func (it *NodeIterator) resolve(ref uint64) ([]uint64, error) {
	return it.ring[int(ref%uint64(len(it.ring)))], nil
}

// Node returns the id of the current node.
func (it *NodeIterator) Node() uint64 { return it.cur }

// Successors returns the successor list of the current node. The slice is
// only valid until the next call to Next.
func (it *NodeIterator) Successors() []uint64 {
	return it.ring[int(it.cur%uint64(len(it.ring)))]
}

// Outdegree returns the outdegree of the current node.
func (it *NodeIterator) Outdegree() uint64 {
	return uint64(len(it.Successors()))
}

// Position returns the bit position of the cursor, which after a call to
// Next is the start of the next record. BuildOffsets rebuilds the offsets
// artifact from it.
func (it *NodeIterator) Position() uint64 { return it.dec.r.Position() }

// Err returns the first error encountered by Next.
func (it *NodeIterator) Err() error { return it.err }
