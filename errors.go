package bvgraph

import (
	"errors"

	"github.com/hupe1980/bvgraph/bitstream"
)

// Error kinds surfaced at the codec boundary. Callers match them with
// errors.Is; wrapped causes (file paths, offending values) travel in the
// message.
var (
	// ErrTruncated is returned when a read runs past the end of a bitstream.
	ErrTruncated = bitstream.ErrTruncated

	// ErrBadProperty is returned when the properties artifact is missing a
	// required key or a value does not parse.
	ErrBadProperty = errors.New("bvgraph: bad property")

	// ErrUnsupportedVersion is returned when the properties version is not
	// recognized.
	ErrUnsupportedVersion = errors.New("bvgraph: unsupported version")

	// ErrEndiannessMismatch is returned when the producer endianness differs
	// from the one the caller demanded at open.
	ErrEndiannessMismatch = errors.New("bvgraph: endianness mismatch")

	// ErrUnknownCode is returned when compressionflags names a code this
	// reader does not implement.
	ErrUnknownCode = errors.New("bvgraph: unknown code")

	// ErrCorruptOrder is returned when decoded successors are non-increasing
	// or fall outside [0, N).
	ErrCorruptOrder = errors.New("bvgraph: corrupt successor order")

	// ErrCorruptChain is returned when a reference delta exceeds the node id
	// or the reference chain exceeds maxrefcount.
	ErrCorruptChain = errors.New("bvgraph: corrupt reference chain")

	// ErrNodeOutOfRange is returned by random access for v >= NumNodes.
	ErrNodeOutOfRange = errors.New("bvgraph: node out of range")

	// ErrNoRandomAccess is returned by random access when the graph was
	// opened without its .ef offset index.
	ErrNoRandomAccess = errors.New("bvgraph: random access requires the .ef offset index")
)
