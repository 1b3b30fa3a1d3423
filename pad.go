package bvgraph

import (
	"os"

	"github.com/hupe1980/bvgraph/bitstream"
)

// Pad extends the file at path with zero bytes so its length is a whole
// number of stream words, the precondition for mapping it on platforms that
// read word-at-a-time. Artifacts produced by this codec are already padded;
// Pad exists for graphs produced by toolchains that emit byte-aligned
// files.
func Pad(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	rem := fi.Size() % bitstream.WordBytes
	if rem != 0 {
		if _, err := f.Write(make([]byte, bitstream.WordBytes-rem)); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}
