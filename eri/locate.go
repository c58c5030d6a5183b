package eri

// CountAndToehold runs the backward search for p while carrying one live
// gCA sample: the text position corresponding to the last row (Hi) of the
// current range.  It returns the final range together with that sample, from which
// Phi materializes every remaining occurrence.
func (idx *Index) CountAndToehold(p []byte) (Range, uint64) {
	k := idx.phi.SampleLast(idx.bwt.NumRuns() - 1)
	ks := idx.phi.CurrStartPos(k)
	if len(p) == 0 {
		return emptyRange, k
	}
	rng := Range{Lo: 0, Hi: idx.bwt.Size() - 1}
	for i := len(p) - 1; i >= 0 && !rng.Empty(); i-- {
		c := p[i]
		next := idx.LF(rng, c)
		if !next.Empty() {
			if idx.bwt.At(rng.Hi) == c {
				// The occurrence at the last row extends: step it one
				// position back in its circular string.
				if k > ks {
					k--
				} else {
					k = idx.phi.NextStartPos(k) - 1
				}
			} else {
				// Jump to the last c in the range.  It ends a run, so
				// its gCA value is sampled.
				rk := idx.bwt.Rank(rng.Hi, c) - 1
				j := idx.bwt.Select(rk, c)
				run := idx.bwt.RunOfPosition(j)
				k = idx.phi.SampleLast(run)
				ks = idx.phi.CurrStartPos(k)
				if k != ks {
					k--
				} else {
					k = idx.phi.NextStartPos(k) - 1
				}
			}
		}
		rng = next
	}
	return rng, k
}

// Phi returns the predecessor of i in generalized conjugate array order,
// restricted to the circular string containing it.
func (idx *Index) Phi(i uint64) uint64 {
	pq := idx.phi.CircularPredecessor(i)
	var delta uint64
	if pq.Pos <= i {
		delta = i - pq.Pos
	} else {
		delta = (i - pq.StrStart) + (pq.StrEnd - pq.Pos + 1)
	}
	return idx.phiStep(pq.Rank, delta)
}

// PhiFirst is the fast Phi path, valid only when every string start was
// sampled at build time.
func (idx *Index) PhiFirst(i uint64) uint64 {
	jr := idx.phi.CircularPredecessorFirst(i)
	return idx.phiStep(jr, i-idx.phi.Select(jr))
}

func (idx *Index) phiStep(jr, delta uint64) uint64 {
	run := idx.phi.FirstToRun(jr)
	var prev uint64
	if run == 0 {
		// The predecessor sample opens the first eBWT run; its gCA
		// predecessor is the sample closing the last one.
		prev = idx.phi.SampleLast(idx.bwt.NumRuns() - 1)
	} else {
		prev = idx.phi.SampleLast(run - 1)
	}
	next := idx.phi.NextStartPos(prev)
	if prev+delta < next {
		return prev + delta
	}
	return idx.phi.CurrStartPos(prev) + (prev+delta)%next
}

// Occurrences is a non-restartable iterator over the occurrences of one
// pattern, produced newest-sample first.
type Occurrences struct {
	idx     *Index
	k       uint64
	left    uint64
	started bool
}

// Occurrences starts a locate query for p.  The iterator yields exactly
// Count(p) positions.
func (idx *Index) Occurrences(p []byte) *Occurrences {
	rng, k := idx.CountAndToehold(p)
	return &Occurrences{idx: idx, k: k, left: rng.Len()}
}

// Next returns the next occurrence, or false when the query is exhausted.
func (o *Occurrences) Next() (uint64, bool) {
	if o.left == 0 {
		return 0, false
	}
	o.left--
	if !o.started {
		o.started = true
		return o.k, true
	}
	if o.idx.first {
		o.k = o.idx.PhiFirst(o.k)
	} else {
		o.k = o.idx.Phi(o.k)
	}
	return o.k, true
}

// Locate returns every text position whose circular rotation starts with
// p.  The result is unordered; it is nil when there is no occurrence.
func (idx *Index) Locate(p []byte) []uint64 {
	it := idx.Occurrences(p)
	var out []uint64
	for {
		pos, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, pos)
	}
}
