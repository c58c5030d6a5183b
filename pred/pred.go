// Package pred implements the predecessor structure over sampled
// generalized conjugate array positions.  It stores the text positions of
// the first character of every eBWT run (sorted in text order), the string
// start offsets, the end-of-run samples indexed by run rank and the
// mapping from text-ordered first samples back to their runs.  Together
// these answer the circular predecessor query behind the Φ step.
package pred

import (
	"fmt"
	"io"
	"sort"

	"github.com/circseq/erindex/sdvec"
	"github.com/pkg/errors"
)

// Pred is the immutable predecessor structure.
type Pred struct {
	pred        *sdvec.Vector // run-first samples, one bit per sample, text order
	delim       *sdvec.Vector // string start offsets plus the sentinel n
	samplesLast sdvec.IntVector
	firstToRun  sdvec.IntVector
}

// MissingSampleError reports a string whose range holds no run-first
// sample, which makes Φ undefined for occurrences in that string.
type MissingSampleError struct {
	Str   int  // 1-based string number
	First bool // true when first-rotation sampling was requested
}

func (e *MissingSampleError) Error() string {
	if e.First {
		return fmt.Sprintf("pred: start offset of string %d is not sampled", e.Str)
	}
	return fmt.Sprintf("pred: sample missing in string %d (duplicate strings?); rebuild with first-rotation sampling", e.Str)
}

// New builds a Pred from the producer samples.  samplesFirst and
// samplesLast hold, per run in eBWT order, the text positions of the run's
// first and last characters.  onsets holds the string start offsets
// followed by the sentinel n, strictly increasing.  When first is set the
// builder requires every string start to be sampled instead of the
// at-least-one-sample-per-string check.
func New(samplesFirst, samplesLast, onsets []uint64, first bool) (*Pred, error) {
	if len(samplesFirst) != len(samplesLast) {
		return nil, errors.Errorf("pred: %d first samples vs %d last samples", len(samplesFirst), len(samplesLast))
	}
	if len(onsets) < 2 {
		return nil, errors.New("pred: need at least one string offset and the sentinel")
	}
	r := len(samplesFirst)
	if r == 0 {
		return nil, errors.New("pred: no samples")
	}
	n := onsets[len(onsets)-1]

	p := &Pred{}
	var err error
	if p.delim, err = sdvec.New(onsets, n+1); err != nil {
		return nil, errors.Wrap(err, "pred: string offsets")
	}

	indices := make([]int, r)
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		return samplesFirst[indices[a]] < samplesFirst[indices[b]]
	})

	p.firstToRun = sdvec.NewIntVector(r, sdvec.BitWidth(uint64(r)))
	sorted := make([]uint64, r)
	for k, run := range indices {
		p.firstToRun.Set(k, uint64(run))
		sorted[k] = samplesFirst[run]
	}
	if p.pred, err = sdvec.New(sorted, n); err != nil {
		return nil, errors.Wrap(err, "pred: first samples")
	}

	if err := p.validate(first); err != nil {
		return nil, err
	}

	p.samplesLast = sdvec.NewIntVector(r, sdvec.BitWidth(n))
	for i, s := range samplesLast {
		p.samplesLast.Set(i, s)
	}
	return p, nil
}

func (p *Pred) validate(first bool) error {
	ns := p.delim.Rank1(p.delim.Size()) - 1
	if first {
		for i := uint64(0); i < ns; i++ {
			if !p.pred.At(p.delim.Select1(i)) {
				return &MissingSampleError{Str: int(i) + 1, First: true}
			}
		}
		return nil
	}
	prev := uint64(0)
	for i := uint64(1); i <= ns; i++ {
		rnk := p.pred.Rank1(p.delim.Select1(i))
		if rnk == prev {
			return &MissingSampleError{Str: int(i)}
		}
		prev = rnk
	}
	return nil
}

// NumSamples returns the number of sampled runs R.
func (p *Pred) NumSamples() uint64 { return uint64(p.samplesLast.Len()) }

// NextStartPos returns the position where the string containing i ends,
// equivalently where the next string begins.
func (p *Pred) NextStartPos(i uint64) uint64 {
	return p.delim.Select1(p.delim.Rank1(i + 1))
}

// CurrStartPos returns the start offset of the string containing i.
func (p *Pred) CurrStartPos(i uint64) uint64 {
	return p.delim.Select1(p.delim.Rank1(i+1) - 1)
}

// SampleLast returns the text position of the last character of run r.
func (p *Pred) SampleLast(r uint64) uint64 { return p.samplesLast.Get(int(r)) }

// FirstToRun returns the run whose first-character position is the k-th
// sample in text order.
func (p *Pred) FirstToRun(k uint64) uint64 { return p.firstToRun.Get(int(k)) }

// Select returns the text position of the k-th sample in text order.
func (p *Pred) Select(k uint64) uint64 { return p.pred.Select1(k) }

// Predecessor is the result of a circular predecessor query.  When Wrapped
// is false the predecessor sample lies in the same string as the query
// position and only Rank and Pos are meaningful.  When Wrapped is true the
// query wrapped past the string start: Pos is the last sample before the
// end of the string, StrStart its start offset and StrEnd its last text
// position.
type Predecessor struct {
	Rank     uint64
	Pos      uint64
	Wrapped  bool
	StrStart uint64
	StrEnd   uint64
}

// CircularPredecessor returns the rank and position of the predecessor
// sample of text position i, wrapping within the containing circular
// string when no sample lies at or before i.
func (p *Pred) CircularPredecessor(i uint64) Predecessor {
	q := p.pred.Rank1(i + 1)
	if q == 0 {
		// No sample at or before i anywhere, so i precedes the first
		// sample of the first string.  Wrap to that string's end.
		last := p.delim.Select1(1)
		q = p.pred.Rank1(last)
		return Predecessor{Rank: q - 1, Pos: p.pred.Select1(q - 1), Wrapped: true, StrStart: 0, StrEnd: last - 1}
	}
	pos := p.pred.Select1(q - 1)
	strID := p.delim.Rank1(i + 1)
	start := p.delim.Select1(strID - 1)
	if pos >= start {
		return Predecessor{Rank: q - 1, Pos: pos}
	}
	// The nearest sample belongs to an earlier string; wrap to the end of
	// the current one.
	last := p.delim.Select1(strID)
	q = p.pred.Rank1(last)
	return Predecessor{Rank: q - 1, Pos: p.pred.Select1(q - 1), Wrapped: true, StrStart: start, StrEnd: last - 1}
}

// CircularPredecessorFirst is the fast path valid only when every string
// start is sampled: the predecessor of i is simply the last sample at or
// before it.
func (p *Pred) CircularPredecessorFirst(i uint64) uint64 {
	return p.pred.Rank1(i+1) - 1
}

// Serialize writes the structure to w.
func (p *Pred) Serialize(w io.Writer) error {
	if err := p.pred.Serialize(w); err != nil {
		return errors.Wrap(err, "pred: first samples")
	}
	if err := p.delim.Serialize(w); err != nil {
		return errors.Wrap(err, "pred: string offsets")
	}
	if err := p.samplesLast.Serialize(w); err != nil {
		return errors.Wrap(err, "pred: last samples")
	}
	return errors.Wrap(p.firstToRun.Serialize(w), "pred: first-to-run")
}

// Load reads a Pred previously written by Serialize.
func Load(r io.Reader) (*Pred, error) {
	p := &Pred{}
	var err error
	if p.pred, err = sdvec.Load(r); err != nil {
		return nil, errors.Wrap(err, "pred: first samples")
	}
	if p.delim, err = sdvec.Load(r); err != nil {
		return nil, errors.Wrap(err, "pred: string offsets")
	}
	if p.samplesLast, err = sdvec.LoadIntVector(r); err != nil {
		return nil, errors.Wrap(err, "pred: last samples")
	}
	if p.firstToRun, err = sdvec.LoadIntVector(r); err != nil {
		return nil, errors.Wrap(err, "pred: first-to-run")
	}
	return p, nil
}
