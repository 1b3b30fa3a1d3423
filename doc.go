// Package bvgraph reads and writes compressed directed graphs in the
// reference/interval/residual format used for very large web-like graphs.
//
// A compressed graph is an immutable set of artifacts sharing one basename:
// the record bitstream (.graph), the compression parameters (.properties),
// the gap-coded record offsets (.offsets) and an optional succinct offset
// index (.ef) enabling random access.
//
// # Reading
//
//	g, _ := bvgraph.Load("enwiki-2024")
//	defer g.Close()
//
//	// Random access (requires the .ef index):
//	succ, _ := g.Successors(42)
//	d, _ := g.Outdegree(42)
//
//	// Sequential iteration (no index needed):
//	it := g.Nodes()
//	for it.Next() {
//	    process(it.Node(), it.Successors())
//	}
//	if err := it.Err(); err != nil { ... }
//
// # Writing
//
//	stats, _ := bvgraph.Store("out", src,
//	    bvgraph.WithWindow(7),
//	    bvgraph.WithMaxRefCount(3),
//	)
//	_ = bvgraph.BuildEF("out")
//
// Large inputs compress faster with StoreParallel, which encodes contiguous
// node ranges concurrently and concatenates the partial bitstreams.
//
// The codec exploits the regularities of web-like graphs: similar successor
// lists between nearby nodes (reference compression), runs of consecutive
// successors (intervals) and small gaps between the rest (gap-coded
// residuals), each field through a configurable instantaneous code.
package bvgraph
