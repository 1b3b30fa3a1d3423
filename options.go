package bvgraph

import (
	"fmt"
	"strings"

	"github.com/hupe1980/bvgraph/bitstream"
	"github.com/hupe1980/bvgraph/codes"
)

// FormatVersion is the bitstream format version this codec reads and writes.
const FormatVersion = 1

// Default compression parameters. They are the sweet spot for web-like
// graphs and match the values the properties artifact carries when a graph
// is produced with no options.
const (
	DefaultWindow            = 7
	DefaultMaxRefCount       = 3
	DefaultMinIntervalLength = 4
)

// codeSet holds the code chosen for each of the six field roles.
type codeSet struct {
	outdegree codes.Code
	reference codes.Code
	block     codes.Code
	interval  codes.Code
	residual  codes.Code
	offset    codes.Code
}

func defaultCodeSet() codeSet {
	return codeSet{
		outdegree: codes.Gamma{},
		reference: codes.Unary{},
		block:     codes.Gamma{},
		interval:  codes.Gamma{},
		residual:  codes.Zeta{K: 3},
		offset:    codes.Gamma{},
	}
}

// flags renders the compressionflags property value:
// outdegree:reference:block:interval:residual:offset.
func (cs codeSet) flags() string {
	return strings.Join([]string{
		cs.outdegree.Name(), cs.reference.Name(), cs.block.Name(),
		cs.interval.Name(), cs.residual.Name(), cs.offset.Name(),
	}, ":")
}

func parseFlags(s string) (codeSet, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return codeSet{}, fmt.Errorf("%w: compressionflags needs 6 codes, got %d", ErrBadProperty, len(parts))
	}
	var cs codeSet
	for i, dst := range []*codes.Code{
		&cs.outdegree, &cs.reference, &cs.block, &cs.interval, &cs.residual, &cs.offset,
	} {
		c, ok := codes.ByName(parts[i])
		if !ok {
			return codeSet{}, fmt.Errorf("%w: %q", ErrUnknownCode, parts[i])
		}
		*dst = c
	}
	return cs, nil
}

// CompressionOptions are the immutable parameters of a compressed graph.
// They are fixed at creation and travel in the properties artifact.
type CompressionOptions struct {
	// Window is the maximum lookback, in node ids, for reference
	// compression. Zero disables references.
	Window int
	// MaxRefCount bounds the reference-chain depth a decoder has to walk.
	MaxRefCount int
	// MinIntervalLength is the minimum run length encoded as an interval.
	// Must be at least 2.
	MinIntervalLength int
	// Order is the bit order of the produced streams.
	Order bitstream.Order
	// Policy selects which window entries get a full cost evaluation.
	Policy ReferencePolicy
	// Logger receives build progress. Defaults to NoopLogger.
	Logger *Logger

	codes codeSet
}

func defaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		Window:            DefaultWindow,
		MaxRefCount:       DefaultMaxRefCount,
		MinIntervalLength: DefaultMinIntervalLength,
		Order:             bitstream.BigEndian,
		Policy:            ExhaustivePolicy{},
		Logger:            NoopLogger(),
		codes:             defaultCodeSet(),
	}
}

func (o *CompressionOptions) validate() error {
	if o.Window < 0 {
		return fmt.Errorf("bvgraph: negative window %d", o.Window)
	}
	if o.MaxRefCount < 0 {
		return fmt.Errorf("bvgraph: negative maxrefcount %d", o.MaxRefCount)
	}
	if o.MinIntervalLength < 2 {
		return fmt.Errorf("bvgraph: minintervallength %d below 2", o.MinIntervalLength)
	}
	return nil
}

// Option customizes compression.
type Option func(*CompressionOptions)

// WithWindow sets the reference window size. Zero disables references.
func WithWindow(w int) Option {
	return func(o *CompressionOptions) { o.Window = w }
}

// WithMaxRefCount bounds the reference-chain depth.
func WithMaxRefCount(c int) Option {
	return func(o *CompressionOptions) { o.MaxRefCount = c }
}

// WithMinIntervalLength sets the minimum run length stored as an interval.
func WithMinIntervalLength(l int) Option {
	return func(o *CompressionOptions) { o.MinIntervalLength = l }
}

// WithOrder sets the bit order of the produced streams.
func WithOrder(order bitstream.Order) Option {
	return func(o *CompressionOptions) { o.Order = order }
}

// WithPolicy sets the reference-selection policy.
func WithPolicy(p ReferencePolicy) Option {
	return func(o *CompressionOptions) { o.Policy = p }
}

// WithLogger sets the build logger.
func WithLogger(l *Logger) Option {
	return func(o *CompressionOptions) { o.Logger = l }
}

// WithCodes selects the codes for the six field roles by name, in the
// compressionflags order outdegree:reference:block:interval:residual:offset.
// Unknown names panic; they are programmer errors, unlike unknown names in a
// properties file which surface as ErrUnknownCode at open.
func WithCodes(flags string) Option {
	return func(o *CompressionOptions) {
		cs, err := parseFlags(flags)
		if err != nil {
			panic(err)
		}
		o.codes = cs
	}
}
