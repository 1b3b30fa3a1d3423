package bvgraph

import (
	"bufio"
	"fmt"
	"os"

	"github.com/hupe1980/bvgraph/properties"
)

// Source supplies the adjacency being compressed: the node count and, for
// every node in [0, NumNodes), its strictly increasing successor list.
// Isolated nodes return an empty list.
type Source interface {
	NumNodes() uint64
	Successors(v uint64) []uint64
}

// Stats summarizes a finished compression.
type Stats struct {
	Nodes       uint64
	Arcs        uint64
	Bits        uint64
	BitsPerLink float64
	RefShare    float64
}

// Store compresses src into BASENAME.graph, BASENAME.offsets and
// BASENAME.properties. The optional .ef index is built separately with
// BuildEF. On error partial files are left behind; the caller is expected
// to delete them.
//
// Two Store calls with identical options and identical input produce
// byte-identical .graph and .offsets artifacts.
func Store(basename string, src Source, opts ...Option) (*Stats, error) {
	o := defaultCompressionOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	logger := o.Logger.WithBasename(basename)

	n := src.NumNodes()
	f, err := os.Create(basename + GraphSuffix)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 1<<20)

	comp, err := newCompressor(bw, 0, o)
	if err != nil {
		f.Close()
		return nil, err
	}

	offs := make([]uint64, 1, n+1)
	for v := uint64(0); v < n; v++ {
		if _, err := comp.Push(src.Successors(v)); err != nil {
			f.Close()
			return nil, err
		}
		offs = append(offs, comp.Written())
		if v > 0 && v%10_000_000 == 0 {
			logger.Info("compressing", "node", v, "of", n, "bits", comp.Written())
		}
	}
	if err := comp.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	if err := writeOffsetsFile(basename+OffsetsSuffix, offs, o); err != nil {
		return nil, err
	}

	stats := &Stats{
		Nodes:    n,
		Arcs:     comp.Arcs(),
		Bits:     comp.Written(),
		RefShare: comp.refShare(),
	}
	if stats.Arcs > 0 {
		stats.BitsPerLink = float64(stats.Bits) / float64(stats.Arcs)
	}
	if err := writeProperties(basename, stats, o); err != nil {
		return nil, err
	}

	logger.Info("graph stored",
		"nodes", stats.Nodes,
		"arcs", stats.Arcs,
		"bits", stats.Bits,
		"bitsperlink", stats.BitsPerLink,
	)
	return stats, nil
}

func writeProperties(basename string, stats *Stats, o CompressionOptions) error {
	p := properties.New()
	p.SetUint("nodes", stats.Nodes)
	p.SetUint("arcs", stats.Arcs)
	p.SetUint("windowsize", uint64(o.Window))
	p.SetUint("maxrefcount", uint64(o.MaxRefCount))
	p.SetUint("minintervallength", uint64(o.MinIntervalLength))
	p.Set("compressionflags", o.codes.flags())
	p.Set("endianness", o.Order.String())
	p.SetUint("version", FormatVersion)
	p.Set("bitsperlink", fmt.Sprintf("%.3f", stats.BitsPerLink))
	p.Set("avgref", fmt.Sprintf("%.3f", stats.RefShare))
	return p.Store(basename + PropertiesSuffix)
}
