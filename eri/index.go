// Package eri implements the r-index over the extended Burrows-Wheeler
// transform of a multiset of circular strings.  The index is built once
// from producer streams, is immutable afterwards and answers count and
// locate queries for a pattern; locate reports every text position whose
// circular rotation starts with the pattern, including occurrences that
// wrap across a string boundary.
package eri

import (
	"github.com/circseq/erindex/encoding/pfp"
	"github.com/circseq/erindex/pred"
	"github.com/circseq/erindex/rle"
	"github.com/pkg/errors"
)

// Index is the queryable eBWT r-index.  Safe for concurrent readers once
// built or loaded.
type Index struct {
	bwt   *rle.EBWT
	phi   *pred.Pred
	b     uint64
	first bool
}

// Options configures Build.
type Options struct {
	// BlockSize is the runs-per-sample block size of the main bitvector;
	// it trades bitvector size against scan length.  0 means 1.
	BlockSize uint64
	// First declares that the producer sampled the first rotation of
	// every string, enabling the fast Φ path.
	First bool
}

// Build constructs an Index from validated producer streams.
func Build(s *pfp.Streams, opts Options) (*Index, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	b := opts.BlockSize
	if b == 0 {
		b = 1
	}
	builder, err := rle.NewBuilder(b)
	if err != nil {
		return nil, err
	}
	for i, c := range s.Heads {
		if err := builder.Append(c, s.Lens[i]); err != nil {
			return nil, errors.Wrapf(err, "eri: run %d", i)
		}
	}
	bwt, err := builder.Finish()
	if err != nil {
		return nil, err
	}
	if got := s.Onsets[len(s.Onsets)-1]; got != bwt.Size() {
		return nil, errors.Errorf("eri: string offsets cover %d positions, eBWT has %d", got, bwt.Size())
	}
	phi, err := pred.New(s.SamplesFirst, s.SamplesLast, s.Onsets, opts.First)
	if err != nil {
		return nil, err
	}
	return &Index{bwt: bwt, phi: phi, b: b, first: opts.First}, nil
}

// Size returns the eBWT length n.
func (idx *Index) Size() uint64 { return idx.bwt.Size() }

// NumRuns returns the number of eBWT runs R.
func (idx *Index) NumRuns() uint64 { return idx.bwt.NumRuns() }

// FirstSampled reports whether the index was built with first-rotation
// sampling.
func (idx *Index) FirstSampled() bool { return idx.first }

// Range is a closed interval of eBWT positions.  A range with Hi < Lo is
// empty.
type Range struct {
	Lo, Hi uint64
}

var emptyRange = Range{Lo: 1, Hi: 0}

// Empty reports whether the range holds no positions.
func (r Range) Empty() bool { return r.Hi < r.Lo }

// Len returns the number of positions in the range.
func (r Range) Len() uint64 {
	if r.Empty() {
		return 0
	}
	return r.Hi - r.Lo + 1
}

// LF maps rn to the range of its extensions by character c, the
// last-to-first step restricted to c.  The result is empty when c does not
// occur inside rn.
func (idx *Index) LF(rn Range, c byte) Range {
	if c >= 128 || idx.bwt.C(int(c)) >= idx.bwt.C(int(c)+1) {
		return emptyRange
	}
	before := idx.bwt.Rank(rn.Lo, c)
	inside := idx.bwt.Rank(rn.Hi+1, c) - before
	if inside == 0 {
		return emptyRange
	}
	lo := idx.bwt.C(int(c)) + before
	return Range{Lo: lo, Hi: lo + inside - 1}
}

// Count runs a backward search for p and returns the matching eBWT range.
// The number of circular occurrences of p is the range length.
func (idx *Index) Count(p []byte) Range {
	if len(p) == 0 {
		return emptyRange
	}
	rng := Range{Lo: 0, Hi: idx.bwt.Size() - 1}
	for i := len(p) - 1; i >= 0 && !rng.Empty(); i-- {
		rng = idx.LF(rng, p[i])
	}
	return rng
}
