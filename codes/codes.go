// Package codes implements the instantaneous (prefix-free) integer codes the
// graph codec chooses from: unary, Elias gamma and delta, zeta with parameter
// k, pi with parameter k, and exponential Golomb. Plain binary is available
// directly on the bit stream (bitstream.ReadBits/WriteBits) and minimal
// binary is exposed as helper functions since it needs an upper bound rather
// than standing alone as a field code.
//
// Codec selection is a breaking-change boundary: the properties artifact
// stores one stable code name per field role, and a reader that does not
// recognize a name must refuse to open the graph.
package codes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/bvgraph/bitstream"
)

// Code encodes and decodes non-negative integers on a bit stream.
//
// Read and Write must agree bit for bit, and Len(v) must equal the number of
// bits Write(v) emits; the compressor's cost estimator relies on it.
type Code interface {
	// Name returns the stable identifier stored in the properties artifact.
	Name() string
	Read(r *bitstream.Reader) (uint64, error)
	Write(w *bitstream.Writer, v uint64) error
	// Len returns the encoded length of v in bits.
	Len(v uint64) int
}

// ByName returns a built-in code by its stable name: "unary", "gamma",
// "delta", "zeta1".."zeta7", "pi1".."pi7", "golomb0".."golomb7".
func ByName(name string) (Code, bool) {
	switch name {
	case "unary":
		return Unary{}, true
	case "gamma":
		return Gamma{}, true
	case "delta":
		return Delta{}, true
	}
	for prefix, build := range map[string]func(k uint) (Code, bool){
		"zeta": func(k uint) (Code, bool) {
			if k < 1 || k > 7 {
				return nil, false
			}
			return Zeta{K: k}, true
		},
		"pi": func(k uint) (Code, bool) {
			if k < 1 || k > 7 {
				return nil, false
			}
			return Pi{K: k}, true
		},
		"golomb": func(k uint) (Code, bool) {
			if k > 7 {
				return nil, false
			}
			return ExpGolomb{K: k}, true
		},
	} {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			k, err := strconv.ParseUint(rest, 10, 8)
			if err != nil {
				return nil, false
			}
			return build(uint(k))
		}
	}
	return nil, false
}

// MustByName is a helper for tests and option defaults.
func MustByName(name string) Code {
	c, ok := ByName(name)
	if !ok {
		panic(fmt.Sprintf("codes: unknown code %q", name))
	}
	return c
}
