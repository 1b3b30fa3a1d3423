package ef

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"unsafe"
)

const (
	// MagicNumber identifies .ef index files (ASCII "BVEF").
	MagicNumber = 0x42564546
	// FormatVersion is the current .ef file format version.
	FormatVersion = 1
)

var (
	ErrInvalidMagic   = errors.New("ef: invalid magic number")
	ErrInvalidVersion = errors.New("ef: unsupported format version")
)

// header is the fixed-size prefix of a serialized index. All fields are
// little-endian; the word payload follows immediately and is 8-byte aligned
// relative to the start of the file.
type header struct {
	Magic    uint32
	Version  uint32
	N        uint64
	U        uint64
	L        uint64
	LowerLen uint64
	UpperLen uint64
	JumpLen  uint64
}

const headerSize = int(unsafe.Sizeof(header{}))

// WriteTo serializes the index.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	h := header{
		Magic:    MagicNumber,
		Version:  FormatVersion,
		N:        ix.n,
		U:        ix.u,
		L:        uint64(ix.l),
		LowerLen: uint64(len(ix.lower)),
		UpperLen: uint64(len(ix.upper)),
		JumpLen:  uint64(len(ix.jump)),
	}
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return 0, err
	}
	written := int64(headerSize)
	for _, words := range [][]uint64{ix.lower, ix.upper, ix.jump} {
		for _, word := range words {
			if err := binary.Write(bw, binary.LittleEndian, word); err != nil {
				return written, err
			}
			written += 8
		}
	}
	return written, bw.Flush()
}

// Store writes the index to path.
func (ix *Index) Store(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := ix.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses a serialized index from data, which is typically a read-only
// memory mapping. When data is 8-byte aligned and the host is
// little-endian the word arrays alias it zero-copy and remain valid only
// while the mapping is open; otherwise they are copied.
func Read(data []byte) (*Index, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("ef: short header: %d bytes", len(data))
	}
	var h header
	h.Magic = binary.LittleEndian.Uint32(data[0:])
	h.Version = binary.LittleEndian.Uint32(data[4:])
	h.N = binary.LittleEndian.Uint64(data[8:])
	h.U = binary.LittleEndian.Uint64(data[16:])
	h.L = binary.LittleEndian.Uint64(data[24:])
	h.LowerLen = binary.LittleEndian.Uint64(data[32:])
	h.UpperLen = binary.LittleEndian.Uint64(data[40:])
	h.JumpLen = binary.LittleEndian.Uint64(data[48:])

	if h.Magic != MagicNumber {
		return nil, ErrInvalidMagic
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}

	words := h.LowerLen + h.UpperLen + h.JumpLen
	need := headerSize + int(words)*8
	if len(data) < need {
		return nil, fmt.Errorf("ef: truncated: have %d bytes, need %d", len(data), need)
	}

	payload := wordsView(data[headerSize : headerSize+int(words)*8])
	ix := &Index{
		n:     h.N,
		u:     h.U,
		l:     uint(h.L),
		lower: payload[:h.LowerLen],
		upper: payload[h.LowerLen : h.LowerLen+h.UpperLen],
		jump:  payload[h.LowerLen+h.UpperLen:],
	}
	return ix, nil
}

// wordsView reinterprets little-endian payload bytes as a []uint64,
// zero-copy when alignment allows.
func wordsView(b []byte) []uint64 {
	if len(b) == 0 {
		return nil
	}
	if uintptr(unsafe.Pointer(&b[0]))%8 == 0 && littleEndianHost() {
		return unsafe.Slice((*uint64)(unsafe.Pointer(&b[0])), len(b)/8)
	}
	out := make([]uint64, len(b)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return out
}

func littleEndianHost() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}
