package pred

import (
	"bytes"
	"sort"
	"testing"

	"github.com/circseq/erindex/ebwtgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, seqs []string, first bool) (*Pred, *ebwtgen.Streams) {
	t.Helper()
	coll := make([][]byte, len(seqs))
	for i, s := range seqs {
		coll[i] = []byte(s)
	}
	gen, err := ebwtgen.Transform(coll, first)
	require.NoError(t, err)
	p, err := New(gen.SamplesFirst, gen.SamplesLast, gen.Onsets, first)
	require.NoError(t, err)
	return p, gen
}

func TestStartPositions(t *testing.T) {
	p, _ := build(t, []string{"ACGT", "TTAG", "CC"}, false)
	starts := []uint64{0, 4, 8}
	ends := []uint64{4, 8, 10}
	for i := uint64(0); i < 10; i++ {
		s := 0
		for s+1 < len(starts) && starts[s+1] <= i {
			s++
		}
		assert.Equal(t, starts[s], p.CurrStartPos(i), "current start of %d", i)
		assert.Equal(t, ends[s], p.NextStartPos(i), "next start of %d", i)
	}
}

func TestSampleAccessors(t *testing.T) {
	p, gen := build(t, []string{"ACGT", "TTAG"}, false)
	r := len(gen.SamplesFirst)
	require.Equal(t, uint64(r), p.NumSamples())
	for i, s := range gen.SamplesLast {
		assert.Equal(t, s, p.SampleLast(uint64(i)))
	}
	sorted := append([]uint64{}, gen.SamplesFirst...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for k, pos := range sorted {
		assert.Equal(t, pos, p.Select(uint64(k)))
		assert.Equal(t, pos, gen.SamplesFirst[p.FirstToRun(uint64(k))],
			"first-to-run must map the %d-th sample back to its run", k)
	}
}

// naivePredecessor mirrors the circular predecessor contract: the largest
// sample at or before i within i's string, else (wrapping) the largest
// sample after i within the same string.
func naivePredecessor(samples []uint64, starts, ends []uint64, i uint64) (pos uint64, wrapped bool) {
	s := 0
	for s+1 < len(starts) && starts[s+1] <= i {
		s++
	}
	best, found := uint64(0), false
	for _, x := range samples {
		if x >= starts[s] && x <= i && (!found || x > best) {
			best, found = x, true
		}
	}
	if found {
		return best, false
	}
	for _, x := range samples {
		if x > i && x < ends[s] && (!found || x > best) {
			best, found = x, true
		}
	}
	return best, true
}

func TestCircularPredecessor(t *testing.T) {
	seqs := []string{"BANANA", "ANANAS", "CACAO"}
	p, gen := build(t, seqs, false)
	starts := []uint64{0, 6, 12}
	ends := []uint64{6, 12, 17}
	sorted := append([]uint64{}, gen.SamplesFirst...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i := uint64(0); i < 17; i++ {
		want, wantWrapped := naivePredecessor(gen.SamplesFirst, starts, ends, i)
		got := p.CircularPredecessor(i)
		assert.Equal(t, want, got.Pos, "predecessor of %d", i)
		assert.Equal(t, wantWrapped, got.Wrapped, "wrap flag of %d", i)
		assert.Equal(t, want, sorted[got.Rank], "rank of predecessor of %d", i)
		if got.Wrapped {
			s := 0
			for s+1 < len(starts) && starts[s+1] <= i {
				s++
			}
			assert.Equal(t, starts[s], got.StrStart)
			assert.Equal(t, ends[s]-1, got.StrEnd)
		}
	}
}

func TestCircularPredecessorFirst(t *testing.T) {
	p, gen := build(t, []string{"BANANA", "ANANAS"}, true)
	sorted := append([]uint64{}, gen.SamplesFirst...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i := uint64(0); i < 12; i++ {
		jr := p.CircularPredecessorFirst(i)
		pos := p.Select(jr)
		assert.True(t, pos <= i, "fast predecessor of %d must not wrap", i)
		for _, x := range sorted {
			if x > pos && x <= i {
				t.Fatalf("sample %d between predecessor %d and query %d", x, pos, i)
			}
		}
	}
}

func TestMissingSampleDefaultMode(t *testing.T) {
	// Duplicate strings share every conjugate class, so the tie-break
	// assigns every run-first sample to the first string and the second
	// string ends up with none.
	coll := [][]byte{[]byte("ACGT"), []byte("ACGT")}
	gen, err := ebwtgen.Transform(coll, false)
	require.NoError(t, err)
	require.True(t, gen.Degenerate)
	_, err = New(gen.SamplesFirst, gen.SamplesLast, gen.Onsets, false)
	require.Error(t, err)
	mse, ok := err.(*MissingSampleError)
	require.True(t, ok, "want MissingSampleError, got %v", err)
	assert.Equal(t, 2, mse.Str)
	assert.False(t, mse.First)
}

func TestMissingSampleFirstMode(t *testing.T) {
	// The eBWT of BAA is B·AA; only positions 1 and 2 open runs, so the
	// string start is unsampled unless construction forces a boundary.
	coll := [][]byte{[]byte("BAA")}
	gen, err := ebwtgen.Transform(coll, false)
	require.NoError(t, err)
	_, err = New(gen.SamplesFirst, gen.SamplesLast, gen.Onsets, false)
	require.NoError(t, err, "default validation accepts BAA")
	_, err = New(gen.SamplesFirst, gen.SamplesLast, gen.Onsets, true)
	mse, ok := err.(*MissingSampleError)
	require.True(t, ok, "want MissingSampleError, got %v", err)
	assert.Equal(t, 1, mse.Str)
	assert.True(t, mse.First)

	gen, err = ebwtgen.Transform(coll, true)
	require.NoError(t, err)
	_, err = New(gen.SamplesFirst, gen.SamplesLast, gen.Onsets, true)
	assert.NoError(t, err, "forced first-rotation boundary makes the start sampled")
}

func TestBuildErrors(t *testing.T) {
	_, err := New([]uint64{1}, []uint64{1, 2}, []uint64{0, 3}, false)
	assert.Error(t, err, "sample count mismatch")
	_, err = New(nil, nil, []uint64{0, 3}, false)
	assert.Error(t, err, "no samples")
	_, err = New([]uint64{1}, []uint64{1}, []uint64{0}, false)
	assert.Error(t, err, "missing sentinel")
}

func TestRoundTrip(t *testing.T) {
	p, _ := build(t, []string{"BANANA", "ANANAS"}, false)
	var buf bytes.Buffer
	require.NoError(t, p.Serialize(&buf))
	first := append([]byte{}, buf.Bytes()...)

	q, err := Load(&buf)
	require.NoError(t, err)
	require.Equal(t, p.NumSamples(), q.NumSamples())
	for i := uint64(0); i < 12; i++ {
		assert.Equal(t, p.CircularPredecessor(i), q.CircularPredecessor(i))
		assert.Equal(t, p.NextStartPos(i), q.NextStartPos(i))
		assert.Equal(t, p.CurrStartPos(i), q.CurrStartPos(i))
	}
	for k := uint64(0); k < p.NumSamples(); k++ {
		assert.Equal(t, p.Select(k), q.Select(k))
		assert.Equal(t, p.FirstToRun(k), q.FirstToRun(k))
		assert.Equal(t, p.SampleLast(k), q.SampleLast(k))
	}

	var buf2 bytes.Buffer
	require.NoError(t, q.Serialize(&buf2))
	assert.Equal(t, first, buf2.Bytes())
}
