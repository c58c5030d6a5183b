// Package rle implements the run-length encoded extended BWT.  The
// structure stores one bit per sampled run block in eBWT-position space, a
// per-character bitvector marking the last column position of every run of
// that character, a wavelet matrix over the run-head string and the
// cumulative character count table.  Rank, select and access over the full
// eBWT are answered from those parts alone; run lengths are never stored
// explicitly.
package rle

import (
	"encoding/binary"
	"io"

	"github.com/circseq/erindex/sdvec"
	"github.com/circseq/erindex/wavelet"
	"github.com/pkg/errors"
)

// alphabet is the size of the cumulative count table.  Run heads are
// ASCII; the two top code points are reserved by upstream producers.
const alphabet = 128

// EBWT is the immutable run-length eBWT.
type EBWT struct {
	n uint64 // eBWT length
	r uint64 // number of runs
	b uint64 // runs per main_bv sample block
	// c[k] is the number of characters < k in the text; c[alphabet] == n.
	c      [alphabet + 1]uint64
	main   *sdvec.Vector
	letter [alphabet]*sdvec.Vector
	heads  *wavelet.Matrix
}

// Builder accumulates runs and finalizes them into an EBWT.
type Builder struct {
	b           uint64
	counts      [alphabet]uint64
	onsetMain   []uint64
	onsetLetter [alphabet][]uint64
	heads       []byte
	n           uint64
	r           uint64
}

// NewBuilder returns a Builder with the given main bitvector block size.
func NewBuilder(blockSize uint64) (*Builder, error) {
	if blockSize == 0 {
		return nil, errors.New("rle: block size must be positive")
	}
	return &Builder{b: blockSize}, nil
}

// Append adds one run of character c with the given length.
func (bl *Builder) Append(c byte, length uint64) error {
	if c >= alphabet {
		return errors.Errorf("rle: run head %d out of range", c)
	}
	if length == 0 {
		return errors.New("rle: empty run")
	}
	if length > 1 {
		bl.counts[c] += length - 1
		bl.n += length - 1
	}
	bl.onsetLetter[c] = append(bl.onsetLetter[c], bl.counts[c])
	if bl.r%bl.b == bl.b-1 {
		bl.onsetMain = append(bl.onsetMain, bl.n)
	}
	bl.n++
	bl.counts[c]++
	bl.r++
	bl.heads = append(bl.heads, c)
	return nil
}

// Finish freezes the accumulated runs into an EBWT.  The Builder must not
// be reused afterwards.
func (bl *Builder) Finish() (*EBWT, error) {
	if bl.r == 0 {
		return nil, errors.New("rle: no runs")
	}
	e := &EBWT{n: bl.n, r: bl.r, b: bl.b}
	var err error
	if e.main, err = sdvec.New(bl.onsetMain, bl.n); err != nil {
		return nil, errors.Wrap(err, "rle: main bitvector")
	}
	for c := 0; c < alphabet; c++ {
		if bl.counts[c] == 0 {
			continue
		}
		if e.letter[c], err = sdvec.New(bl.onsetLetter[c], bl.counts[c]); err != nil {
			return nil, errors.Wrapf(err, "rle: letter bitvector %d", c)
		}
	}
	for c := 1; c <= alphabet; c++ {
		e.c[c] = e.c[c-1] + bl.counts[c-1]
	}
	if e.heads, err = wavelet.New(bl.heads); err != nil {
		return nil, errors.Wrap(err, "rle: run heads")
	}
	return e, nil
}

// Size returns the eBWT length n.
func (e *EBWT) Size() uint64 { return e.n }

// NumRuns returns the number of equal-letter runs R.
func (e *EBWT) NumRuns() uint64 { return e.r }

// BlockSize returns the runs-per-sample block size B.
func (e *EBWT) BlockSize() uint64 { return e.b }

// C returns the number of text characters strictly smaller than c.  The
// domain is [0, 128]; C(128) equals the eBWT length.
func (e *EBWT) C(c int) uint64 { return e.c[c] }

// RunAt returns the length of the i-th run.
func (e *EBWT) RunAt(i uint64) uint64 {
	c := e.heads.Access(i)
	return e.letter[c].Gap(e.heads.Rank(i, c))
}

// Head returns the character of the i-th run.
func (e *EBWT) Head(i uint64) byte { return e.heads.Access(i) }

// RunOf returns the run containing eBWT position i and the last eBWT
// position of that run.
func (e *EBWT) RunOf(i uint64) (run, last uint64) {
	lastBlock := e.main.Rank1(i)
	run = lastBlock * e.b
	pos := uint64(0)
	if lastBlock > 0 {
		pos = e.main.Select1(lastBlock-1) + 1
	}
	for pos < i {
		pos += e.RunAt(run)
		run++
	}
	if pos > i {
		run--
	} else {
		pos += e.RunAt(run)
	}
	return run, pos - 1
}

// RunOfPosition returns the run containing eBWT position i.
func (e *EBWT) RunOfPosition(i uint64) uint64 {
	lastBlock := e.main.Rank1(i)
	run := lastBlock * e.b
	pos := uint64(0)
	if lastBlock > 0 {
		pos = e.main.Select1(lastBlock-1) + 1
	}
	for pos < i {
		pos += e.RunAt(run)
		run++
	}
	if pos > i {
		run--
	}
	return run
}

// At returns the eBWT character at position i.
func (e *EBWT) At(i uint64) byte {
	run, _ := e.RunOf(i)
	return e.heads.Access(run)
}

// Rank returns the number of occurrences of c strictly before eBWT
// position i.
func (e *EBWT) Rank(i uint64, c byte) uint64 {
	if c >= alphabet || e.letter[c] == nil {
		return 0
	}
	if i == e.n {
		return e.letter[c].Size()
	}
	lastBlock := e.main.Rank1(i)
	run := lastBlock * e.b
	pos := uint64(0)
	if lastBlock > 0 {
		pos = e.main.Select1(lastBlock-1) + 1
	}
	// dist tracks the offset of i inside the run that finally contains it.
	dist := i - pos
	for pos < i {
		pos += e.RunAt(run)
		run++
		if pos <= i {
			dist = i - pos
		}
	}
	if pos > i {
		run--
	}
	rk := e.heads.Rank(run, c)
	var tail uint64
	if e.heads.Access(run) == c {
		tail = dist
	}
	if rk == 0 {
		return tail
	}
	return e.letter[c].Select1(rk-1) + 1 + tail
}

// Select returns the eBWT position of the i-th occurrence of c, 0-indexed.
func (e *EBWT) Select(i uint64, c byte) uint64 {
	j := e.letter[c].Rank1(i)
	before := i
	if j > 0 {
		before = i - (e.letter[c].Select1(j-1) + 1)
	}
	r := e.heads.Select(j, c)
	k := uint64(0)
	if r/e.b > 0 {
		k = e.main.Select1(r/e.b-1) + 1
	}
	for t := (r / e.b) * e.b; t < r; t++ {
		k += e.RunAt(t)
	}
	return k + before
}

// Serialize writes the structure to w: the scalar counters, the cumulative
// count table, the main bitvector, the list of present characters, each
// per-character bitvector and finally the run-head wavelet matrix.
func (e *EBWT) Serialize(w io.Writer) error {
	for _, x := range []uint64{e.n, e.r, e.b} {
		if err := binary.Write(w, binary.LittleEndian, x); err != nil {
			return errors.Wrap(err, "rle: header")
		}
	}
	if err := binary.Write(w, binary.LittleEndian, e.c[:alphabet]); err != nil {
		return errors.Wrap(err, "rle: C table")
	}
	if err := e.main.Serialize(w); err != nil {
		return err
	}
	var present []byte
	for c := 0; c < alphabet; c++ {
		if e.letter[c] != nil {
			present = append(present, byte(c))
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(present))); err != nil {
		return err
	}
	if _, err := w.Write(present); err != nil {
		return err
	}
	for _, c := range present {
		if err := e.letter[c].Serialize(w); err != nil {
			return errors.Wrapf(err, "rle: letter bitvector %d", c)
		}
	}
	return e.heads.Serialize(w)
}

// Load reads an EBWT previously written by Serialize.
func Load(r io.Reader) (*EBWT, error) {
	e := &EBWT{}
	for _, p := range []*uint64{&e.n, &e.r, &e.b} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, errors.Wrap(err, "rle: header")
		}
	}
	if err := binary.Read(r, binary.LittleEndian, e.c[:alphabet]); err != nil {
		return nil, errors.Wrap(err, "rle: C table")
	}
	e.c[alphabet] = e.n
	var err error
	if e.main, err = sdvec.Load(r); err != nil {
		return nil, err
	}
	var nchar uint32
	if err := binary.Read(r, binary.LittleEndian, &nchar); err != nil {
		return nil, err
	}
	present := make([]byte, nchar)
	if _, err := io.ReadFull(r, present); err != nil {
		return nil, err
	}
	for _, c := range present {
		if c >= alphabet {
			return nil, errors.Errorf("rle: present character %d out of range", c)
		}
		if e.letter[c], err = sdvec.Load(r); err != nil {
			return nil, errors.Wrapf(err, "rle: letter bitvector %d", c)
		}
	}
	if e.heads, err = wavelet.Load(r); err != nil {
		return nil, err
	}
	return e, nil
}
