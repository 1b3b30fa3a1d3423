package bvgraph

import (
	"bufio"
	"fmt"
	"os"

	"github.com/hupe1980/bvgraph/bitstream"
	"github.com/hupe1980/bvgraph/ef"
	"github.com/hupe1980/bvgraph/internal/mmap"
	"github.com/hupe1980/bvgraph/properties"
)

// The .offsets artifact is itself a bit stream: N+1 offset-code values,
// O[0] followed by the gaps O[v+1]-O[v]. It is consumed once, either by
// BuildEF to produce the random-access index or by tools that only scan.

func writeOffsetsFile(path string, offs []uint64, o CompressionOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	w := bitstream.NewWriter(bw, o.Order)

	prev := uint64(0)
	for i, off := range offs {
		gap := off - prev
		if i == 0 {
			gap = off // O[0], zero by construction
		}
		if err := o.codes.offset.Write(w, gap); err != nil {
			f.Close()
			return err
		}
		prev = off
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readOffsets recovers the monotone offset sequence (N+1 entries) from the
// gap-coded .offsets artifact.
func readOffsets(data []byte, count uint64, o bitstream.Order, cs codeSet) ([]uint64, error) {
	r := bitstream.NewReader(data, o)
	offs := make([]uint64, 0, count)
	var acc uint64
	for i := uint64(0); i < count; i++ {
		gap, err := cs.offset.Read(r)
		if err != nil {
			return nil, err
		}
		acc += gap
		offs = append(offs, acc)
	}
	return offs, nil
}

// loadParams reads the properties artifact of basename and returns the
// decode parameters without touching the bitstreams.
func loadParams(basename string) (*Graph, error) {
	props, err := properties.Load(basename + PropertiesSuffix)
	if err != nil {
		return nil, err
	}
	g := &Graph{basename: basename, props: props}
	if err := g.applyProperties(); err != nil {
		return nil, err
	}
	return g, nil
}

// BuildEF reads BASENAME.offsets and writes BASENAME.ef, the succinct
// monotone index that random access needs. It is the inverse of the
// gap-coded writer: one sequential pass recovering the sequence, then the
// Elias-Fano build.
func BuildEF(basename string) error {
	g, err := loadParams(basename)
	if err != nil {
		return err
	}
	f, err := mmap.Open(basename + OffsetsSuffix)
	if err != nil {
		return err
	}
	defer f.Close()

	offs, err := readOffsets(f.Data(), g.n+1, g.order, g.cs)
	if err != nil {
		return fmt.Errorf("bvgraph: reading offsets: %w", err)
	}
	index, err := ef.FromValues(offs)
	if err != nil {
		return err
	}
	return index.Store(basename + EFSuffix)
}

// BuildOffsets regenerates BASENAME.offsets from the graph bitstream by a
// sequential decode, recording the bit position after every record.
func BuildOffsets(basename string) error {
	g, err := Load(basename, WithoutRandomAccess())
	if err != nil {
		return err
	}
	defer g.Close()

	offs := make([]uint64, 1, g.n+1)
	it := g.Nodes()
	for it.Next() {
		offs = append(offs, it.Position())
	}
	if err := it.Err(); err != nil {
		return err
	}
	o := defaultCompressionOptions()
	o.Order = g.order
	o.codes = g.cs
	return writeOffsetsFile(basename+OffsetsSuffix, offs, o)
}
