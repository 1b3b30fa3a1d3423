// Package mmap provides read-only memory mapping of the codec's on-disk
// artifacts. The .graph bitstream and the .ef index are immutable after
// open, so a shared read-only mapping is safe to alias across any number of
// reader cursors.
package mmap

import (
	"errors"
	"fmt"
	"os"
)

// AccessPattern hints the kernel about how a mapping will be touched.
type AccessPattern int

const (
	// AccessDefault applies no specific advice.
	AccessDefault AccessPattern = iota
	// AccessSequential expects a front-to-back scan (sequential iteration).
	AccessSequential
	// AccessRandom expects scattered reads (random-access queries).
	AccessRandom
)

// ErrClosed is returned when accessing a closed mapping.
var ErrClosed = errors.New("mmap: mapping is closed")

// File is a read-only memory-mapped file.
//
// Data aliases the mapped region; slices derived from it become invalid
// after Close.
type File struct {
	data []byte
	f    *os.File
}

// Open maps the file at path read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		// Mapping a zero-length file is an error on most platforms; an
		// empty artifact is still a valid (empty) stream.
		return &File{f: f}, nil
	}
	data, err := osMap(f, int(size))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &File{data: data, f: f}, nil
}

// Data returns the mapped bytes. The slice is valid until Close.
func (m *File) Data() []byte {
	if m == nil {
		return nil
	}
	return m.data
}

// Advise hints the kernel about the expected access pattern. The hint is
// advisory: on platforms without madvise it is a no-op, and an EINVAL
// refusal is ignored; other failures are returned.
func (m *File) Advise(pattern AccessPattern) error {
	if m == nil || m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// Close unmaps the region and closes the file.
func (m *File) Close() error {
	if m == nil {
		return nil
	}
	var err error
	if m.data != nil {
		err = osUnmap(m.data)
		m.data = nil
	}
	if m.f != nil {
		if cerr := m.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		m.f = nil
	}
	return err
}
