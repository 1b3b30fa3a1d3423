//go:build !unix

package mmap

import (
	"io"
	"os"
)

// Fallback for platforms without a usable mmap: read the whole file into
// memory. Correct, not zero-copy.

func osMap(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

func osUnmap([]byte) error { return nil }

func osAdvise([]byte, AccessPattern) error { return nil }
