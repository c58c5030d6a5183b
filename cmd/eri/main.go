package main

// See doc.go for documentation.

import (
	"flag"
	"os"
	"time"

	"github.com/circseq/erindex/ebwtgen"
	"github.com/circseq/erindex/encoding/fasta"
	"github.com/circseq/erindex/encoding/occ"
	"github.com/circseq/erindex/encoding/pfp"
	"github.com/circseq/erindex/eri"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
)

var (
	build     = flag.Bool("c", false, "Construct and store the eBWT r-index")
	queryMode = flag.Int("q", -1, "Query mode: 0 count, 1 count+emit, 2 locate, 3 locate+emit")
	blockSize = flag.Int("b", 1, "Main bitvector block size (runs per sample)")
	first     = flag.Bool("f", false, "First-rotation sampling mode")
	width     = flag.Int("w", 5, "Producer integer width in bytes (4 or 5)")
	patPath   = flag.String("p", "", "Pattern file path; defaults to <basename>.pat")
	outBase   = flag.String("o", "", "Basename for the output files; defaults to <basename>")
	verbose   = flag.Bool("v", false, "Verbose mode")
	check     = flag.Bool("d", false, "Verify locate output against the input FASTA (debug only)")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("usage: eri [options] <basename>; run with -help for options")
	}
	base := flag.Arg(0)
	if *outBase == "" {
		*outBase = base
	}
	if *patPath == "" {
		*patPath = base + ".pat"
	}

	switch {
	case *build:
		runBuild(base)
	case *check:
		runCheck(base)
	case *queryMode >= 0 && *queryMode <= 3:
		runQuery(base)
	default:
		log.Fatalf("select a mode: -c, -d or -q {0,1,2,3}")
	}
}

func buildOptions() eri.Options {
	return eri.Options{BlockSize: uint64(*blockSize), First: *first}
}

func runBuild(base string) {
	var streams *pfp.Streams
	if _, err := os.Stat(base + ".head"); os.IsNotExist(err) {
		// No producer streams; fall back to the reference constructor
		// reading the collection itself.  Viable for small inputs only.
		recs, err := fasta.ReadFile(base)
		if err != nil {
			log.Fatalf("eri: no producer streams and no FASTA input: %v", err)
		}
		if *verbose {
			log.Printf("reference eBWT construction of %d sequences", len(recs))
		}
		gen, err := ebwtgen.Transform(fasta.Sequences(recs), *first)
		if err != nil {
			log.Fatalf("eri: %v", err)
		}
		streams = &gen.Streams
	} else {
		var err error
		if streams, err = pfp.ReadStreams(base, *width); err != nil {
			log.Fatalf("eri: %v", err)
		}
	}
	if *verbose {
		log.Printf("(1/3) computing the run-length eBWT, block size %d", *blockSize)
		log.Printf("(2/3) computing the predecessor structure")
	}
	idx, err := eri.Build(streams, buildOptions())
	if err != nil {
		log.Fatalf("eri: %v", err)
	}
	if *verbose {
		log.Printf("(3/3) serializing: n=%d runs=%d", idx.Size(), idx.NumRuns())
	}
	out, err := os.Create(base + ".eri")
	if err != nil {
		log.Fatalf("eri: %v", err)
	}
	if err := idx.Serialize(out); err != nil {
		log.Fatalf("eri: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("eri: %v", err)
	}
}

func loadIndex(base string) *eri.Index {
	in, err := os.Open(base + ".eri")
	if err != nil {
		log.Fatalf("eri: %v", err)
	}
	defer in.Close()
	start := time.Now()
	idx, err := eri.Load(in)
	if err != nil {
		log.Fatalf("eri: %v", err)
	}
	if *verbose {
		log.Printf("loaded index in %v: n=%d runs=%d first-sampled=%v",
			time.Since(start), idx.Size(), idx.NumRuns(), idx.FirstSampled())
	}
	return idx
}

func readPatterns() [][]byte {
	recs, err := fasta.ReadFile(*patPath)
	if err != nil {
		log.Fatalf("eri: %v", err)
	}
	return fasta.Sequences(recs)
}

func runQuery(base string) {
	idx := loadIndex(base)
	patterns := readPatterns()
	if *verbose {
		log.Printf("searching %d patterns from %s", len(patterns), *patPath)
	}

	locating := *queryMode >= 2
	counts := make([]uint32, len(patterns))
	times := make([]float32, len(patterns))
	var positions []uint64
	var totalOcc uint64

	start := time.Now()
	for i, p := range patterns {
		pstart := time.Now()
		if locating {
			pos := idx.Locate(p)
			counts[i] = uint32(len(pos))
			if *queryMode == 3 {
				positions = append(positions, pos...)
			}
		} else {
			counts[i] = uint32(idx.Count(p).Len())
		}
		times[i] = float32(time.Since(pstart).Seconds() * 1000)
		totalOcc += uint64(counts[i])
	}
	totalMs := time.Since(start).Seconds() * 1000

	if *queryMode == 1 {
		writeFile(*outBase+".noccEBWT", func(f *os.File) error { return occ.WriteCounts(f, counts) })
		writeFile(*outBase+".timeEBWT", func(f *os.File) error { return occ.WriteTimes(f, times) })
	}
	if *queryMode == 3 {
		writeFile(*outBase+".occ", func(f *os.File) error { return occ.WritePositions(f, positions) })
	}
	stats := occ.Stats{
		TotalOcc: float64(totalOcc),
		TotalMs:  totalMs,
	}
	if len(patterns) > 0 {
		stats.AvgOcc = stats.TotalOcc / float64(len(patterns))
		stats.MsPerPattern = totalMs / float64(len(patterns))
	}
	if totalOcc > 0 {
		stats.MsPerOcc = totalMs / float64(totalOcc)
	}
	writeFile(*outBase+".stats", func(f *os.File) error { return occ.WriteStats(f, stats) })

	log.Printf("%d patterns, %d occurrences, %.3f ms total", len(patterns), totalOcc, totalMs)
}

func runCheck(base string) {
	idx := loadIndex(base)
	recs, err := fasta.ReadFile(base)
	if err != nil {
		log.Fatalf("eri: %v", err)
	}
	patterns := readPatterns()
	if err := idx.Verify(fasta.Sequences(recs), patterns); err != nil {
		log.Fatalf("eri: %v", err)
	}
	log.Printf("verified %d patterns: everything's fine", len(patterns))
}

func writeFile(path string, fn func(*os.File) error) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("eri: %v", err)
	}
	if err := fn(f); err != nil {
		log.Fatalf("eri: %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("eri: %s: %v", path, err)
	}
}
