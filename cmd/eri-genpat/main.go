package main

// eri-genpat extracts random patterns from a FASTA collection and writes
// them as a two-line-per-entry FASTA pattern file.  With -circular the
// extracted substrings may wrap past the end of their sequence, matching
// the circular semantics of the index.

import (
	"flag"
	"math/rand"
	"os"

	"github.com/circseq/erindex/encoding/fasta"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
)

var (
	length   = flag.Int("l", 20, "Pattern length")
	number   = flag.Int("n", 100, "Number of patterns to extract")
	output   = flag.String("o", "", "Output pattern file; defaults to <input>.pat")
	circular = flag.Bool("circular", false, "Also extract patterns wrapping past sequence ends")
	seed     = flag.Int64("seed", 261222, "Random seed")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 || *length <= 0 || *number <= 0 {
		log.Fatalf("usage: eri-genpat [options] <input.fasta>")
	}
	input := flag.Arg(0)
	if *output == "" {
		*output = input + ".pat"
	}

	recs, err := fasta.ReadFile(input)
	if err != nil {
		log.Fatalf("eri-genpat: %v", err)
	}
	seqs := fasta.Sequences(recs)
	var pool [][]byte
	for _, s := range seqs {
		if *circular || len(s) >= *length {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		log.Fatalf("eri-genpat: no sequence can hold a pattern of length %d", *length)
	}

	rng := rand.New(rand.NewSource(*seed))
	patterns := make([][]byte, *number)
	for i := range patterns {
		s := pool[rng.Intn(len(pool))]
		p := make([]byte, *length)
		if *circular {
			t := rng.Intn(len(s))
			for j := range p {
				p[j] = s[(t+j)%len(s)]
			}
		} else {
			t := rng.Intn(len(s) - *length + 1)
			copy(p, s[t:t+*length])
		}
		patterns[i] = p
	}

	out, err := os.Create(*output)
	if err != nil {
		log.Fatalf("eri-genpat: %v", err)
	}
	if err := fasta.WritePatterns(out, patterns); err != nil {
		log.Fatalf("eri-genpat: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("eri-genpat: %v", err)
	}
	log.Printf("wrote %d patterns of length %d to %s", len(patterns), *length, *output)
}
