package sdvec

import (
	"encoding/binary"
	"io"
	"math/bits"

	"github.com/pkg/errors"
)

// IntVector is a fixed-width packed vector of unsigned integers.  Width may
// be 0 (every entry reads back as 0) up to 64 bits.
type IntVector struct {
	n     int
	width uint
	data  []uint64
}

// BitWidth returns the number of bits needed to store x, at least 1.
func BitWidth(x uint64) uint {
	if x == 0 {
		return 1
	}
	return uint(bits.Len64(x))
}

// NewIntVector allocates a zeroed vector of n entries of the given width.
func NewIntVector(n int, width uint) IntVector {
	words := (uint64(n)*uint64(width) + 63) / 64
	return IntVector{n: n, width: width, data: make([]uint64, words)}
}

// Len returns the number of entries.
func (v IntVector) Len() int { return v.n }

// Width returns the per-entry width in bits.
func (v IntVector) Width() uint { return v.width }

func (v IntVector) mask() uint64 {
	if v.width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << v.width) - 1
}

// Get returns the i-th entry.
func (v IntVector) Get(i int) uint64 {
	if v.width == 0 {
		return 0
	}
	off := uint64(i) * uint64(v.width)
	word, sh := off>>6, uint(off&63)
	x := v.data[word] >> sh
	if sh+v.width > 64 {
		x |= v.data[word+1] << (64 - sh)
	}
	return x & v.mask()
}

// Set stores x in the i-th entry.  Bits of x above the vector width are
// dropped.
func (v *IntVector) Set(i int, x uint64) {
	if v.width == 0 {
		return
	}
	x &= v.mask()
	off := uint64(i) * uint64(v.width)
	word, sh := off>>6, uint(off&63)
	v.data[word] &^= v.mask() << sh
	v.data[word] |= x << sh
	if sh+v.width > 64 {
		spill := 64 - sh
		v.data[word+1] &^= v.mask() >> spill
		v.data[word+1] |= x >> spill
	}
}

// Serialize writes the vector: entry count, width, then the packed words.
func (v IntVector) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(v.n)); err != nil {
		return errors.Wrap(err, "intvec: length")
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(v.width)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, v.data)
}

// LoadIntVector reads a vector previously written by Serialize.
func LoadIntVector(r io.Reader) (IntVector, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return IntVector{}, errors.Wrap(err, "intvec: length")
	}
	if n > 1<<40 {
		return IntVector{}, errors.Errorf("intvec: implausible length %d", n)
	}
	var w8 uint8
	if err := binary.Read(r, binary.LittleEndian, &w8); err != nil {
		return IntVector{}, err
	}
	v := NewIntVector(int(n), uint(w8))
	if err := binary.Read(r, binary.LittleEndian, v.data); err != nil {
		return IntVector{}, errors.Wrap(err, "intvec: payload")
	}
	return v, nil
}
