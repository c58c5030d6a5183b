// Package sdvec implements an Elias-Fano compressed bitvector with
// constant-ish time rank and select, plus a fixed-width packed integer
// vector.  A Vector represents a strictly increasing sequence of one
// positions within a universe [0, u).  The high halves of the positions are
// kept in unary inside a rank/select dictionary, the low halves in a packed
// array, which keeps the structure within O(m log(u/m)) bits for m ones.
package sdvec

import (
	"encoding/binary"
	"io"
	"math/bits"

	"github.com/hillbig/rsdic"
	"github.com/pkg/errors"
)

// Vector is an immutable Elias-Fano bitvector.  The zero value is an empty
// vector of universe 0; build real ones with New.
type Vector struct {
	u        uint64 // universe size
	m        uint64 // number of ones
	lowWidth uint
	low      IntVector
	high     *rsdic.RSDic
	zeros    uint64 // zeros in the high vector, i.e. the top bucket index
}

// New builds a Vector from a strictly increasing sequence of one positions
// and a universe size.  Every position must be < universe.
func New(ones []uint64, universe uint64) (*Vector, error) {
	v := &Vector{u: universe, m: uint64(len(ones))}
	if v.m == 0 {
		return v, nil
	}
	if ones[len(ones)-1] >= universe {
		return nil, errors.Errorf("sdvec: position %d outside universe %d", ones[len(ones)-1], universe)
	}
	if universe/v.m >= 2 {
		v.lowWidth = uint(bits.Len64(universe/v.m)) - 1
	}
	v.low = NewIntVector(len(ones), v.lowWidth)
	v.high = rsdic.New()
	cur := uint64(0)
	for i, pos := range ones {
		if i > 0 && pos <= ones[i-1] {
			return nil, errors.Errorf("sdvec: positions not strictly increasing at index %d", i)
		}
		h := pos >> v.lowWidth
		for cur < h+uint64(i) {
			v.high.PushBack(false)
			cur++
		}
		v.high.PushBack(true)
		cur++
		v.low.Set(i, pos&v.lowMask())
	}
	v.zeros = cur - v.m
	return v, nil
}

func (v *Vector) lowMask() uint64 {
	if v.lowWidth == 0 {
		return 0
	}
	return (uint64(1) << v.lowWidth) - 1
}

// Size returns the universe size u.
func (v *Vector) Size() uint64 { return v.u }

// Ones returns the number of one bits.
func (v *Vector) Ones() uint64 { return v.m }

// onesBelowBucket returns the number of ones whose high part is < h.
func (v *Vector) onesBelowBucket(h uint64) uint64 {
	if h == 0 {
		return 0
	}
	if h > v.zeros {
		return v.m
	}
	return v.high.Select(h-1, false) + 1 - h
}

// Rank1 returns the number of ones strictly below position i.  The domain
// is [0, u].
func (v *Vector) Rank1(i uint64) uint64 {
	if v.m == 0 || i == 0 {
		return 0
	}
	h := i >> v.lowWidth
	lo := v.onesBelowBucket(h)
	hi := v.onesBelowBucket(h + 1)
	target := i & v.lowMask()
	// Low halves within one bucket are sorted; count those below target.
	for lo < hi {
		mid := (lo + hi) / 2
		if v.low.Get(int(mid)) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Select1 returns the position of the i-th one, 0-indexed.  It must not be
// called with i >= Ones().
func (v *Vector) Select1(i uint64) uint64 {
	p := v.high.Select(i, true)
	return (p-i)<<v.lowWidth | v.low.Get(int(i))
}

// At reports whether position i holds a one.
func (v *Vector) At(i uint64) bool {
	return v.Rank1(i+1) > v.Rank1(i)
}

// Gap returns the distance between consecutive ones: Select1(i)-Select1(i-1)
// for i > 0, and Select1(0)+1 for i == 0.
func (v *Vector) Gap(i uint64) uint64 {
	if i == 0 {
		return v.Select1(0) + 1
	}
	return v.Select1(i) - v.Select1(i-1)
}

// Serialize writes the vector to w: universe, popcount, low width, packed
// low bits, then the high-bits dictionary.  All integers little-endian.
func (v *Vector) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, v.u); err != nil {
		return errors.Wrap(err, "sdvec: universe")
	}
	if err := binary.Write(w, binary.LittleEndian, v.m); err != nil {
		return errors.Wrap(err, "sdvec: popcount")
	}
	if v.m == 0 {
		return nil
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(v.lowWidth)); err != nil {
		return err
	}
	if err := v.low.Serialize(w); err != nil {
		return err
	}
	buf, err := v.high.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "sdvec: high bits")
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(buf))); err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Load reads a Vector previously written by Serialize.  The returned vector
// is immediately usable for rank and select.
func Load(r io.Reader) (*Vector, error) {
	v := &Vector{}
	if err := binary.Read(r, binary.LittleEndian, &v.u); err != nil {
		return nil, errors.Wrap(err, "sdvec: universe")
	}
	if err := binary.Read(r, binary.LittleEndian, &v.m); err != nil {
		return nil, errors.Wrap(err, "sdvec: popcount")
	}
	if v.m == 0 {
		return v, nil
	}
	var w8 uint8
	if err := binary.Read(r, binary.LittleEndian, &w8); err != nil {
		return nil, err
	}
	v.lowWidth = uint(w8)
	var err error
	if v.low, err = LoadIntVector(r); err != nil {
		return nil, err
	}
	var blen uint64
	if err := binary.Read(r, binary.LittleEndian, &blen); err != nil {
		return nil, err
	}
	if blen > 1<<40 {
		return nil, errors.Errorf("sdvec: implausible payload size %d", blen)
	}
	buf := make([]byte, blen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "sdvec: high bits")
	}
	v.high = rsdic.New()
	if err := v.high.UnmarshalBinary(buf); err != nil {
		return nil, errors.Wrap(err, "sdvec: high bits")
	}
	v.zeros = v.high.ZeroNum()
	return v, nil
}
