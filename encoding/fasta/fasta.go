// Package fasta reads FASTA-formatted sequence collections and pattern
// files.  Sequences may span multiple lines; empty lines are skipped; a
// record name is the text after '>' up to the first space.  Files ending
// in .gz are decompressed transparently.
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Record is one named sequence.
type Record struct {
	Name string
	Seq  []byte
}

// Read parses all records from r.
func Read(r io.Reader) ([]Record, error) {
	var recs []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			name := string(line[1:])
			if i := strings.IndexByte(name, ' '); i >= 0 {
				name = name[:i]
			}
			recs = append(recs, Record{Name: name})
			continue
		}
		if len(recs) == 0 {
			return nil, errors.New("fasta: sequence data before the first header")
		}
		recs[len(recs)-1].Seq = append(recs[len(recs)-1].Seq, line...)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "fasta: read")
	}
	return recs, nil
}

// Open opens path for reading, decompressing gzip transparently when the
// name ends in .gz.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "fasta: %s", path)
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipReadCloser) Close() error {
	if err := g.gz.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

// ReadFile parses all records from the named file.
func ReadFile(path string) ([]Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	recs, err := Read(r)
	if err != nil {
		return nil, errors.Wrapf(err, "fasta: %s", path)
	}
	return recs, nil
}

// Sequences strips the names off recs.
func Sequences(recs []Record) [][]byte {
	seqs := make([][]byte, len(recs))
	for i := range recs {
		seqs[i] = recs[i].Seq
	}
	return seqs
}

// WritePatterns writes one two-line FASTA entry per pattern.
func WritePatterns(w io.Writer, patterns [][]byte) error {
	bw := bufio.NewWriter(w)
	for i, p := range patterns {
		fmt.Fprintf(bw, ">pattern_%d\n", i)
		bw.Write(p)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
