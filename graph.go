package bvgraph

import (
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/bvgraph/bitstream"
	"github.com/hupe1980/bvgraph/ef"
	"github.com/hupe1980/bvgraph/internal/mmap"
	"github.com/hupe1980/bvgraph/properties"
)

// Artifact file suffixes of a compressed graph, sharing one basename.
const (
	GraphSuffix      = ".graph"
	PropertiesSuffix = ".properties"
	OffsetsSuffix    = ".offsets"
	EFSuffix         = ".ef"
)

// Graph is an immutable compressed graph opened for reading.
//
// The backing artifacts are memory-mapped and shared: random-access queries
// and any number of sequential iterators take independent cursors over the
// same mapping. A Graph is safe for concurrent readers; each iterator is
// single-cursor and must not be shared.
type Graph struct {
	basename string
	n        uint64
	m        uint64

	window      int
	maxRef      int
	minInterval int
	order       bitstream.Order
	cs          codeSet

	props     *properties.Properties
	data      []byte
	graphFile *mmap.File
	index     *ef.Index
	efFile    *mmap.File
}

// LoadOption customizes Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	expectOrder *bitstream.Order
	skipEF      bool
}

// WithExpectedOrder makes Load fail with ErrEndiannessMismatch unless the
// graph was produced with the given bit order.
func WithExpectedOrder(order bitstream.Order) LoadOption {
	return func(c *loadConfig) { c.expectOrder = &order }
}

// WithoutRandomAccess skips loading the .ef offset index even when present;
// the graph supports only sequential iteration.
func WithoutRandomAccess() LoadOption {
	return func(c *loadConfig) { c.skipEF = true }
}

// Load opens the compressed graph with the given basename: it reads
// BASENAME.properties, maps BASENAME.graph, and, when present, maps the
// BASENAME.ef offset index enabling random access.
func Load(basename string, opts ...LoadOption) (*Graph, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	props, err := properties.Load(basename + PropertiesSuffix)
	if err != nil {
		return nil, err
	}

	g := &Graph{basename: basename, props: props}
	if err := g.applyProperties(); err != nil {
		return nil, err
	}
	if cfg.expectOrder != nil && g.order != *cfg.expectOrder {
		return nil, fmt.Errorf("%w: graph is %s, expected %s", ErrEndiannessMismatch, g.order, *cfg.expectOrder)
	}

	g.graphFile, err = mmap.Open(basename + GraphSuffix)
	if err != nil {
		return nil, err
	}
	g.data = g.graphFile.Data()

	if !cfg.skipEF {
		if err := g.loadEF(); err != nil {
			g.graphFile.Close()
			return nil, err
		}
	}
	return g, nil
}

func (g *Graph) applyProperties() error {
	version, err := g.props.Uint("version")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadProperty, err)
	}
	if version != FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	if g.n, err = g.props.Uint("nodes"); err != nil {
		return fmt.Errorf("%w: %v", ErrBadProperty, err)
	}
	// arcs is informational; tolerate its absence.
	g.m, _ = g.props.Uint("arcs")

	for _, f := range []struct {
		key string
		dst *int
	}{
		{"windowsize", &g.window},
		{"maxrefcount", &g.maxRef},
		{"minintervallength", &g.minInterval},
	} {
		v, err := g.props.Uint(f.key)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadProperty, err)
		}
		*f.dst = int(v)
	}
	if g.minInterval < 2 {
		return fmt.Errorf("%w: minintervallength %d below 2", ErrBadProperty, g.minInterval)
	}

	endianness, ok := g.props.Get("endianness")
	if !ok {
		return fmt.Errorf("%w: missing key %q", ErrBadProperty, "endianness")
	}
	if g.order, err = bitstream.ParseOrder(endianness); err != nil {
		return fmt.Errorf("%w: %v", ErrBadProperty, err)
	}

	flags, ok := g.props.Get("compressionflags")
	if !ok {
		return fmt.Errorf("%w: missing key %q", ErrBadProperty, "compressionflags")
	}
	g.cs, err = parseFlags(flags)
	return err
}

func (g *Graph) loadEF() error {
	f, err := mmap.Open(g.basename + EFSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return nil // sequential-only
	}
	if err != nil {
		return err
	}
	index, err := ef.Read(f.Data())
	if err != nil {
		f.Close()
		return err
	}
	if index.Len() != g.n+1 {
		f.Close()
		return fmt.Errorf("bvgraph: offset index has %d entries, want %d", index.Len(), g.n+1)
	}
	g.efFile = f
	g.index = index
	// Queries through the index jump around the mapping.
	_ = g.graphFile.Advise(mmap.AccessRandom)
	return nil
}

// NumNodes returns N.
func (g *Graph) NumNodes() uint64 { return g.n }

// NumArcs returns M as declared by the properties artifact.
func (g *Graph) NumArcs() uint64 { return g.m }

// Properties returns the raw properties block, including any unknown keys
// the producer wrote.
func (g *Graph) Properties() *properties.Properties { return g.props }

// HasRandomAccess reports whether the .ef offset index was loaded.
func (g *Graph) HasRandomAccess() bool { return g.index != nil }

func (g *Graph) newDecoder(r *bitstream.Reader) *decoder {
	return &decoder{
		r:           r,
		cs:          g.cs,
		n:           g.n,
		window:      g.window,
		minInterval: g.minInterval,
	}
}

// Outdegree returns the outdegree of v without decoding the full record.
func (g *Graph) Outdegree(v uint64) (uint64, error) {
	if v >= g.n {
		return 0, fmt.Errorf("%w: %d >= %d", ErrNodeOutOfRange, v, g.n)
	}
	if g.index == nil {
		return 0, ErrNoRandomAccess
	}
	r := bitstream.NewReader(g.data, g.order)
	r.Seek(g.index.Get(v))
	return g.newDecoder(r).outdegree()
}

// Successors returns the sorted successor list of v by random access.
// The returned slice is owned by the caller.
func (g *Graph) Successors(v uint64) ([]uint64, error) {
	if v >= g.n {
		return nil, fmt.Errorf("%w: %d >= %d", ErrNodeOutOfRange, v, g.n)
	}
	if g.index == nil {
		return nil, ErrNoRandomAccess
	}
	return g.successors(v, 0, nil)
}

// successors decodes the record of v, walking the reference chain with a
// fresh cursor per hop. depth counts the hops taken so far.
func (g *Graph) successors(v uint64, depth int, buf []uint64) ([]uint64, error) {
	r := bitstream.NewReader(g.data, g.order)
	r.Seek(g.index.Get(v))
	dec := g.newDecoder(r)
	return dec.readList(v, func(ref uint64) ([]uint64, error) {
		if depth+1 > g.maxRef {
			return nil, fmt.Errorf("%w: chain deeper than %d at node %d", ErrCorruptChain, g.maxRef, v)
		}
		return g.successors(ref, depth+1, nil)
	}, buf)
}

// Close unmaps the graph artifacts. Iterators and slices handed out by the
// graph become invalid.
func (g *Graph) Close() error {
	err := g.graphFile.Close()
	if cerr := g.efFile.Close(); cerr != nil && err == nil {
		err = cerr
	}
	g.data = nil
	g.index = nil
	return err
}
