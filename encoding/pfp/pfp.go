// Package pfp reads and writes the construction byproducts of the eBWT
// producer: for a basename <base> the files <base>.head (run-head bytes),
// <base>.len (run lengths), <base>.ssam / <base>.esam (text positions of
// the first/last character of each run) and <base>.spos (string start
// offsets followed by a sentinel equal to the total length).
//
// Integers are little-endian and either 4 or 5 bytes wide; a 5-byte width
// signals an upstream prefix-free-parse producer.  A 5-byte integer is the
// low-order five bytes of the value as a little-endian uint64.
package pfp

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Supported integer widths in bytes.
const (
	Width4 = 4
	Width5 = 5
)

// Streams holds the five producer streams of one build, fully decoded.
type Streams struct {
	Heads        []byte   // run heads, one per run
	Lens         []uint64 // run lengths
	SamplesFirst []uint64 // text position of the first character of each run
	SamplesLast  []uint64 // text position of the last character of each run
	Onsets       []uint64 // string start offsets plus the sentinel n
}

// FormatError describes a malformed producer file.
type FormatError struct {
	File   string
	Kind   string // "missing", "size", "order", "mismatch"
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("pfp: %s: %s: %s", e.File, e.Kind, e.Detail)
}

// ReadInts decodes a whole file of fixed-width little-endian unsigned
// integers.
func ReadInts(path string, width int) ([]uint64, error) {
	if width != Width4 && width != Width5 {
		return nil, errors.Errorf("pfp: unsupported integer width %d", width)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &FormatError{File: path, Kind: "missing", Detail: err.Error()}
	}
	if len(raw)%width != 0 {
		return nil, &FormatError{File: path, Kind: "size",
			Detail: fmt.Sprintf("%d bytes is not a multiple of width %d", len(raw), width)}
	}
	out := make([]uint64, len(raw)/width)
	for i := range out {
		var x uint64
		for b := width - 1; b >= 0; b-- {
			x = x<<8 | uint64(raw[i*width+b])
		}
		out[i] = x
	}
	return out, nil
}

// WriteInts encodes vals as fixed-width little-endian unsigned integers.
// Values that do not fit the width are rejected.
func WriteInts(w io.Writer, vals []uint64, width int) error {
	if width != Width4 && width != Width5 {
		return errors.Errorf("pfp: unsupported integer width %d", width)
	}
	buf := make([]byte, width)
	for _, x := range vals {
		if width < 8 && x>>(uint(width)*8) != 0 {
			return errors.Errorf("pfp: value %d does not fit %d bytes", x, width)
		}
		for b := 0; b < width; b++ {
			buf[b] = byte(x >> (8 * uint(b)))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// ReadStreams reads and validates the five producer files for base.
func ReadStreams(base string, width int) (*Streams, error) {
	heads, err := os.ReadFile(base + ".head")
	if err != nil {
		return nil, &FormatError{File: base + ".head", Kind: "missing", Detail: err.Error()}
	}
	s := &Streams{Heads: heads}
	if s.Lens, err = ReadInts(base+".len", width); err != nil {
		return nil, err
	}
	if s.SamplesFirst, err = ReadInts(base+".ssam", width); err != nil {
		return nil, err
	}
	if s.SamplesLast, err = ReadInts(base+".esam", width); err != nil {
		return nil, err
	}
	if s.Onsets, err = ReadInts(base+".spos", width); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		if fe, ok := err.(*FormatError); ok && fe.File != "" {
			fe.File = base + fe.File
		}
		return nil, err
	}
	return s, nil
}

// Validate checks the cross-stream invariants: equal run counts, a
// strictly increasing offset stream and a sentinel matching the total run
// length.
func (s *Streams) Validate() error {
	r := len(s.Heads)
	if r == 0 {
		return &FormatError{File: ".head", Kind: "size", Detail: "no runs"}
	}
	if len(s.Lens) != r {
		return &FormatError{File: ".len", Kind: "mismatch",
			Detail: fmt.Sprintf("%d lengths for %d heads", len(s.Lens), r)}
	}
	if len(s.SamplesFirst) != r {
		return &FormatError{File: ".ssam", Kind: "mismatch",
			Detail: fmt.Sprintf("%d samples for %d runs", len(s.SamplesFirst), r)}
	}
	if len(s.SamplesLast) != r {
		return &FormatError{File: ".esam", Kind: "mismatch",
			Detail: fmt.Sprintf("%d samples for %d runs", len(s.SamplesLast), r)}
	}
	if len(s.Onsets) < 2 {
		return &FormatError{File: ".spos", Kind: "size", Detail: "need one offset and the sentinel"}
	}
	for i := 1; i < len(s.Onsets); i++ {
		if s.Onsets[i] <= s.Onsets[i-1] {
			return &FormatError{File: ".spos", Kind: "order",
				Detail: fmt.Sprintf("offset %d (%d) not above its predecessor (%d)", i, s.Onsets[i], s.Onsets[i-1])}
		}
	}
	var n uint64
	for _, l := range s.Lens {
		n += l
	}
	if s.Onsets[len(s.Onsets)-1] != n {
		return &FormatError{File: ".spos", Kind: "mismatch",
			Detail: fmt.Sprintf("sentinel %d does not match total run length %d", s.Onsets[len(s.Onsets)-1], n)}
	}
	return nil
}

// WriteStreams writes the five producer files for base.
func (s *Streams) WriteStreams(base string, width int) error {
	if err := os.WriteFile(base+".head", s.Heads, 0644); err != nil {
		return errors.Wrap(err, "pfp: heads")
	}
	write := func(suffix string, vals []uint64) error {
		f, err := os.Create(base + suffix)
		if err != nil {
			return err
		}
		if err := WriteInts(f, vals, width); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	if err := write(".len", s.Lens); err != nil {
		return errors.Wrap(err, "pfp: lengths")
	}
	if err := write(".ssam", s.SamplesFirst); err != nil {
		return errors.Wrap(err, "pfp: first samples")
	}
	if err := write(".esam", s.SamplesLast); err != nil {
		return errors.Wrap(err, "pfp: last samples")
	}
	return errors.Wrap(write(".spos", s.Onsets), "pfp: string offsets")
}
