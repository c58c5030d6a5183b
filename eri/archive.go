package eri

import (
	"encoding/binary"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/circseq/erindex/pred"
	"github.com/circseq/erindex/rle"
	"github.com/pkg/errors"
)

// eriMagic opens every archive: "ERIX", a format version byte and three
// fixed bytes.
var eriMagic = []byte{'E', 'R', 'I', 'X', 0x01, 0x9d, 0x3a, 0x61}

const flagFirstSampled = 1 << 0

// ErrBadArchive is returned by Load for truncated, corrupt or
// version-mismatched archives.
var ErrBadArchive = errors.New("eri: bad archive")

// Serialize writes the index archive to w: the magic, a flags byte, the
// block size, the run-length eBWT, the predecessor structure and a
// seahash-64 checksum of everything after the magic.  The output
// round-trips byte-identically through Load on the same platform.
func (idx *Index) Serialize(w io.Writer) error {
	if _, err := w.Write(eriMagic); err != nil {
		return errors.Wrap(err, "eri: magic")
	}
	h := seahash.New()
	mw := io.MultiWriter(w, h)
	var flags uint8
	if idx.first {
		flags |= flagFirstSampled
	}
	if err := binary.Write(mw, binary.LittleEndian, flags); err != nil {
		return errors.Wrap(err, "eri: flags")
	}
	if err := binary.Write(mw, binary.LittleEndian, idx.b); err != nil {
		return errors.Wrap(err, "eri: block size")
	}
	if err := idx.bwt.Serialize(mw); err != nil {
		return err
	}
	if err := idx.phi.Serialize(mw); err != nil {
		return err
	}
	return errors.Wrap(binary.Write(w, binary.LittleEndian, h.Sum64()), "eri: checksum")
}

// Load reads an archive previously written by Serialize.  The returned
// index is immediately queryable.
func Load(r io.Reader) (*Index, error) {
	magic := make([]byte, len(eriMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, errors.Wrap(ErrBadArchive, "short magic")
	}
	for i, b := range eriMagic {
		if magic[i] != b {
			return nil, errors.Wrap(ErrBadArchive, "magic mismatch")
		}
	}
	h := seahash.New()
	tr := io.TeeReader(r, h)
	idx := &Index{}
	var flags uint8
	if err := binary.Read(tr, binary.LittleEndian, &flags); err != nil {
		return nil, errors.Wrap(ErrBadArchive, "flags")
	}
	idx.first = flags&flagFirstSampled != 0
	if err := binary.Read(tr, binary.LittleEndian, &idx.b); err != nil {
		return nil, errors.Wrap(ErrBadArchive, "block size")
	}
	var err error
	if idx.bwt, err = rle.Load(tr); err != nil {
		return nil, errors.Wrapf(ErrBadArchive, "eBWT: %v", err)
	}
	if idx.phi, err = pred.Load(tr); err != nil {
		return nil, errors.Wrapf(ErrBadArchive, "predecessor: %v", err)
	}
	sum := h.Sum64()
	var want uint64
	if err := binary.Read(r, binary.LittleEndian, &want); err != nil {
		return nil, errors.Wrap(ErrBadArchive, "checksum")
	}
	if sum != want {
		return nil, errors.Wrap(ErrBadArchive, "checksum mismatch")
	}
	return idx, nil
}
