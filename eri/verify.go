package eri

import (
	"github.com/pkg/errors"
)

// matches reports whether pat occurs at local offset t of seq, reading
// circularly past the end of seq.
func matches(seq, pat []byte, t int) bool {
	for j := range pat {
		if pat[j] != seq[(t+j)%len(seq)] {
			return false
		}
	}
	return true
}

// Verify locates every pattern against the index and checks the output
// against the original collection: occurrences must be distinct, each must
// match its pattern modulo the circular string boundary, and one further
// predecessor step must not yield a match (the located set is maximal).
// It is the debug-mode counterpart of Locate; it finds the string of every
// occurrence by a linear scan over the collection; use it on small inputs
// only.
func (idx *Index) Verify(seqs [][]byte, patterns [][]byte) error {
	offsets := make([]uint64, len(seqs)+1)
	for i, s := range seqs {
		offsets[i+1] = offsets[i] + uint64(len(s))
	}
	if offsets[len(seqs)] != idx.Size() {
		return errors.Errorf("eri: collection length %d does not match index length %d", offsets[len(seqs)], idx.Size())
	}
	local := func(pos uint64) (int, int) {
		s := 0
		for offsets[s+1] <= pos {
			s++
		}
		return s, int(pos - offsets[s])
	}
	for pi, pat := range patterns {
		occ := idx.Locate(pat)
		if len(occ) == 0 {
			continue
		}
		seen := make(map[uint64]bool, len(occ))
		for _, pos := range occ {
			if seen[pos] {
				return errors.Errorf("eri: pattern %d: duplicate occurrence %d", pi, pos)
			}
			seen[pos] = true
			s, t := local(pos)
			if !matches(seqs[s], pat, t) {
				return errors.Errorf("eri: pattern %d: position %d is not an occurrence", pi, pos)
			}
		}
		if uint64(len(occ)) == idx.Size() {
			// Every rotation matches; there is nothing beyond the
			// interval to check.
			continue
		}
		var beyond uint64
		if idx.first {
			beyond = idx.PhiFirst(occ[len(occ)-1])
		} else {
			beyond = idx.Phi(occ[len(occ)-1])
		}
		s, t := local(beyond)
		if matches(seqs[s], pat, t) {
			return errors.Errorf("eri: pattern %d: interval extends past %d", pi, beyond)
		}
	}
	return nil
}
