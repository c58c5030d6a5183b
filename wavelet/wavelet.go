// Package wavelet implements a wavelet matrix over byte sequences drawn
// from a 7-bit alphabet.  It answers access, rank and select in O(log σ)
// bitvector operations and is used to index the run-head string of the
// run-length eBWT.
package wavelet

import (
	"encoding/binary"
	"io"

	"github.com/hillbig/rsdic"
	"github.com/pkg/errors"
)

// levels is fixed: run heads are ASCII and the cumulative count table of
// the eBWT has 128 entries.
const levels = 7

// Matrix is an immutable wavelet matrix.
type Matrix struct {
	n  uint64
	bv [levels]*rsdic.RSDic
	zc [levels]uint64 // zeros per level
}

func bitOf(c byte, level int) bool {
	return (c>>(levels-1-uint(level)))&1 == 1
}

// New builds a Matrix from seq.  Every byte must be < 128.
func New(seq []byte) (*Matrix, error) {
	m := &Matrix{n: uint64(len(seq))}
	cur := make([]byte, len(seq))
	copy(cur, seq)
	next := make([]byte, len(seq))
	for l := 0; l < levels; l++ {
		m.bv[l] = rsdic.New()
		nz := 0
		for _, c := range cur {
			if c >= 128 {
				return nil, errors.Errorf("wavelet: symbol %d out of range", c)
			}
			if !bitOf(c, l) {
				nz++
			}
		}
		m.zc[l] = uint64(nz)
		z, o := 0, nz
		for _, c := range cur {
			if bitOf(c, l) {
				m.bv[l].PushBack(true)
				next[o] = c
				o++
			} else {
				m.bv[l].PushBack(false)
				next[z] = c
				z++
			}
		}
		cur, next = next, cur
	}
	return m, nil
}

// Len returns the sequence length.
func (m *Matrix) Len() uint64 { return m.n }

// Access returns the i-th symbol of the original sequence.
func (m *Matrix) Access(i uint64) byte {
	var c byte
	for l := 0; l < levels; l++ {
		if m.bv[l].Bit(i) {
			c = c<<1 | 1
			i = m.zc[l] + m.bv[l].Rank(i, true)
		} else {
			c = c << 1
			i = m.bv[l].Rank(i, false)
		}
	}
	return c
}

// Rank returns the number of occurrences of c in the prefix [0, i).
func (m *Matrix) Rank(i uint64, c byte) uint64 {
	p, e := uint64(0), i
	for l := 0; l < levels; l++ {
		if bitOf(c, l) {
			p = m.zc[l] + m.bv[l].Rank(p, true)
			e = m.zc[l] + m.bv[l].Rank(e, true)
		} else {
			p = m.bv[l].Rank(p, false)
			e = m.bv[l].Rank(e, false)
		}
	}
	return e - p
}

// Select returns the position of the k-th occurrence of c, 0-indexed.  It
// must not be called with k >= Rank(Len(), c).
func (m *Matrix) Select(k uint64, c byte) uint64 {
	// Walk down to find the start of c's block at the deepest level.
	p := uint64(0)
	for l := 0; l < levels; l++ {
		if bitOf(c, l) {
			p = m.zc[l] + m.bv[l].Rank(p, true)
		} else {
			p = m.bv[l].Rank(p, false)
		}
	}
	// Walk back up mapping the k-th slot of the block to its position.
	pos := p + k
	for l := levels - 1; l >= 0; l-- {
		if bitOf(c, l) {
			pos = m.bv[l].Select(pos-m.zc[l], true)
		} else {
			pos = m.bv[l].Select(pos, false)
		}
	}
	return pos
}

// Serialize writes the matrix to w.
func (m *Matrix) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, m.n); err != nil {
		return errors.Wrap(err, "wavelet: length")
	}
	for l := 0; l < levels; l++ {
		if err := binary.Write(w, binary.LittleEndian, m.zc[l]); err != nil {
			return err
		}
		buf, err := m.bv[l].MarshalBinary()
		if err != nil {
			return errors.Wrapf(err, "wavelet: level %d", l)
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(len(buf))); err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a Matrix previously written by Serialize.
func Load(r io.Reader) (*Matrix, error) {
	m := &Matrix{}
	if err := binary.Read(r, binary.LittleEndian, &m.n); err != nil {
		return nil, errors.Wrap(err, "wavelet: length")
	}
	for l := 0; l < levels; l++ {
		if err := binary.Read(r, binary.LittleEndian, &m.zc[l]); err != nil {
			return nil, err
		}
		var blen uint64
		if err := binary.Read(r, binary.LittleEndian, &blen); err != nil {
			return nil, err
		}
		if blen > 1<<40 {
			return nil, errors.Errorf("wavelet: implausible payload size %d", blen)
		}
		buf := make([]byte, blen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrapf(err, "wavelet: level %d", l)
		}
		m.bv[l] = rsdic.New()
		if err := m.bv[l].UnmarshalBinary(buf); err != nil {
			return nil, errors.Wrapf(err, "wavelet: level %d", l)
		}
	}
	return m, nil
}
