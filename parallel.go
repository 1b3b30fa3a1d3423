package bvgraph

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/bvgraph/bitstream"
)

// StoreParallel compresses src like Store, but partitions the nodes into
// one contiguous range per worker. Each worker encodes its range into a
// zstd-compressed temporary stream; a final single-threaded concatenation
// splices the partial bitstreams in node order and rewrites the offsets to
// absolute positions.
//
// Reference windows do not cross range boundaries: the encoder at the start
// of each range sees an empty window, which costs a small, measured amount
// of compression. Output is deterministic for a fixed worker count.
func StoreParallel(ctx context.Context, basename string, src Source, workers int, opts ...Option) (*Stats, error) {
	o := defaultCompressionOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := src.NumNodes()
	if workers > 1 && uint64(workers) > n {
		workers = int(max(n, 1))
	}
	logger := o.Logger.WithBasename(basename)
	logger.Info("parallel compression", "nodes", n, "workers", workers)

	chunk := (n + uint64(workers) - 1) / uint64(workers)
	if chunk == 0 {
		chunk = 1
	}

	type part struct {
		path string
		bits uint64
		arcs uint64
		refs uint64
		offs []uint64 // record end positions relative to the range start
	}
	parts := make([]part, workers)

	tmpDir, err := os.MkdirTemp(filepath.Dir(basename), ".bvgraph-tmp-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		lo := uint64(i) * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			p := &parts[i]
			p.path = filepath.Join(tmpDir, fmt.Sprintf("part-%06d", i))
			f, err := os.Create(p.path)
			if err != nil {
				return err
			}
			zw, err := zstd.NewWriter(f)
			if err != nil {
				f.Close()
				return err
			}
			comp, err := newCompressor(zw, lo, o)
			if err != nil {
				f.Close()
				return err
			}
			p.offs = make([]uint64, 0, hi-lo)
			for v := lo; v < hi; v++ {
				if v%(1<<16) == 0 {
					if err := gctx.Err(); err != nil {
						f.Close()
						return err
					}
				}
				if _, err := comp.Push(src.Successors(v)); err != nil {
					f.Close()
					return err
				}
				p.offs = append(p.offs, comp.Written())
			}
			p.bits = comp.Written()
			p.arcs = comp.Arcs()
			p.refs = comp.refs
			if err := comp.Flush(); err != nil {
				f.Close()
				return err
			}
			if err := zw.Close(); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Concatenation: splice the partial streams at bit granularity and make
	// the offsets absolute.
	f, err := os.Create(basename + GraphSuffix)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	w := bitstream.NewWriter(bw, o.Order)

	stats := &Stats{Nodes: n}
	var refs uint64
	offs := make([]uint64, 1, n+1)
	var base uint64
	for i := range parts {
		p := &parts[i]
		if p.path == "" {
			continue
		}
		data, err := readZstdFile(p.path)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := w.CopyBits(bitstream.NewReader(data, o.Order), p.bits); err != nil {
			f.Close()
			return nil, err
		}
		for _, off := range p.offs {
			offs = append(offs, base+off)
		}
		base += p.bits
		stats.Arcs += p.arcs
		refs += p.refs
	}
	if err := w.Flush(); err != nil {
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

	stats.Bits = base
	if stats.Arcs > 0 {
		stats.BitsPerLink = float64(stats.Bits) / float64(stats.Arcs)
	}
	if n > 0 {
		stats.RefShare = float64(refs) / float64(n)
	}

	if err := writeOffsetsFile(basename+OffsetsSuffix, offs, o); err != nil {
		return nil, err
	}
	if err := writeProperties(basename, stats, o); err != nil {
		return nil, err
	}
	logger.Info("graph stored", "nodes", stats.Nodes, "arcs", stats.Arcs, "bits", stats.Bits)
	return stats, nil
}

func readZstdFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
