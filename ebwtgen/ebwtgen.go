// Package ebwtgen computes the extended BWT of a small in-memory string
// collection by sorting the circular rotations of every string in
// ω-order, and derives the producer streams consumed by the index builder:
// run heads, run lengths, first/last gCA samples per run and string start
// offsets.  Large-scale construction belongs to the external
// prefix-free-parse producer; this package serves reference builds, the
// debug verifier and the tests.
package ebwtgen

import (
	"sort"

	"github.com/circseq/erindex/encoding/pfp"
	"github.com/pkg/errors"
)

// Streams is the decoded producer output for one collection.
type Streams struct {
	pfp.Streams
	N uint64
	// Degenerate is set when two rotations compare equal in ω-order
	// (duplicate strings, shared conjugate classes or non-primitive
	// strings).  Such collections index fine for counting but the
	// sampled locate machinery gives no per-row guarantees on them.
	Degenerate bool
}

type rotation struct {
	s, t int
}

// Transform computes the eBWT streams of seqs.  When first is set a run
// boundary is forced at every string's first rotation so that each start
// offset carries a gCA sample, which the fast Φ path requires.
func Transform(seqs [][]byte, first bool) (*Streams, error) {
	if len(seqs) == 0 {
		return nil, errors.New("ebwtgen: empty collection")
	}
	offsets := make([]uint64, len(seqs)+1)
	for i, s := range seqs {
		if len(s) == 0 {
			return nil, errors.Errorf("ebwtgen: string %d is empty", i)
		}
		for _, c := range s {
			if c >= 128 {
				return nil, errors.Errorf("ebwtgen: string %d holds byte %d outside the 7-bit alphabet", i, c)
			}
		}
		offsets[i+1] = offsets[i] + uint64(len(s))
	}
	n := offsets[len(seqs)]

	rots := make([]rotation, 0, n)
	for s := range seqs {
		for t := range seqs[s] {
			rots = append(rots, rotation{s: s, t: t})
		}
	}
	out := &Streams{N: n}
	// ω-order: compare the infinite periodic words; len(a)+len(b)
	// characters decide or prove equality.  Ties order by string, then
	// start, and mark the collection degenerate.
	sort.Slice(rots, func(i, j int) bool {
		a, b := rots[i], rots[j]
		sa, sb := seqs[a.s], seqs[b.s]
		for k := 0; k < len(sa)+len(sb); k++ {
			ca := sa[(a.t+k)%len(sa)]
			cb := sb[(b.t+k)%len(sb)]
			if ca != cb {
				return ca < cb
			}
		}
		out.Degenerate = true
		if a.s != b.s {
			return a.s < b.s
		}
		return a.t < b.t
	})

	gca := func(r rotation) uint64 { return offsets[r.s] + uint64(r.t) }
	ebwtChar := func(r rotation) byte {
		s := seqs[r.s]
		return s[(r.t+len(s)-1)%len(s)]
	}

	runStart := 0
	flush := func(end int) {
		out.Heads = append(out.Heads, ebwtChar(rots[runStart]))
		out.Lens = append(out.Lens, uint64(end-runStart))
		out.SamplesFirst = append(out.SamplesFirst, gca(rots[runStart]))
		out.SamplesLast = append(out.SamplesLast, gca(rots[end-1]))
		runStart = end
	}
	for i := 1; i < len(rots); i++ {
		if ebwtChar(rots[i]) != ebwtChar(rots[i-1]) || (first && rots[i].t == 0) {
			flush(i)
		}
	}
	flush(len(rots))

	out.Onsets = append([]uint64{}, offsets...)
	return out, nil
}

// NaiveLocate returns, sorted, every text position whose circular rotation
// starts with pat.  It is the brute-force oracle the index is tested
// against.
func NaiveLocate(seqs [][]byte, pat []byte) []uint64 {
	if len(pat) == 0 {
		return nil
	}
	var out []uint64
	off := uint64(0)
	for _, s := range seqs {
	next:
		for t := range s {
			for j := range pat {
				if pat[j] != s[(t+j)%len(s)] {
					continue next
				}
			}
			out = append(out, off+uint64(t))
		}
		off += uint64(len(s))
	}
	return out
}
