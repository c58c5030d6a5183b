// Package occ writes and reads the query result files: per-pattern
// occurrence counts (.noccEBWT, uint32), per-pattern search times
// (.timeEBWT, float32 milliseconds), packed occurrence positions (.occ,
// five low-order bytes per position) and the run summary (.stats, five
// float64 values).  All numbers are little-endian.
package occ

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// posBytes is the packed width of one occurrence position.
const posBytes = 5

// Stats is the fixed five-field query summary.
type Stats struct {
	TotalOcc     float64
	AvgOcc       float64
	TotalMs      float64
	MsPerPattern float64
	MsPerOcc     float64
}

// WriteCounts writes one uint32 occurrence count per pattern.
func WriteCounts(w io.Writer, counts []uint32) error {
	return errors.Wrap(binary.Write(w, binary.LittleEndian, counts), "occ: counts")
}

// ReadCounts reads n uint32 occurrence counts.
func ReadCounts(r io.Reader, n int) ([]uint32, error) {
	out := make([]uint32, n)
	return out, errors.Wrap(binary.Read(r, binary.LittleEndian, out), "occ: counts")
}

// WriteTimes writes one float32 duration in milliseconds per pattern.
func WriteTimes(w io.Writer, ms []float32) error {
	return errors.Wrap(binary.Write(w, binary.LittleEndian, ms), "occ: times")
}

// WritePositions appends positions packed to five low-order bytes each.
// Positions above 2^40 do not occur for in-memory collections.
func WritePositions(w io.Writer, pos []uint64) error {
	buf := make([]byte, posBytes)
	for _, p := range pos {
		for b := 0; b < posBytes; b++ {
			buf[b] = byte(p >> (8 * uint(b)))
		}
		if _, err := w.Write(buf); err != nil {
			return errors.Wrap(err, "occ: positions")
		}
	}
	return nil
}

// ReadPositions decodes a whole packed position stream.
func ReadPositions(r io.Reader) ([]uint64, error) {
	var out []uint64
	buf := make([]byte, posBytes)
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "occ: positions")
		}
		var p uint64
		for b := posBytes - 1; b >= 0; b-- {
			p = p<<8 | uint64(buf[b])
		}
		out = append(out, p)
	}
}

// WriteStats writes the five-field summary.
func WriteStats(w io.Writer, s Stats) error {
	vals := []float64{s.TotalOcc, s.AvgOcc, s.TotalMs, s.MsPerPattern, s.MsPerOcc}
	return errors.Wrap(binary.Write(w, binary.LittleEndian, vals), "occ: stats")
}

// ReadStats reads a summary previously written by WriteStats.
func ReadStats(r io.Reader) (Stats, error) {
	vals := make([]float64, 5)
	if err := binary.Read(r, binary.LittleEndian, vals); err != nil {
		return Stats{}, errors.Wrap(err, "occ: stats")
	}
	return Stats{TotalOcc: vals[0], AvgOcc: vals[1], TotalMs: vals[2], MsPerPattern: vals[3], MsPerOcc: vals[4]}, nil
}
