package ebwtgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqs(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func TestTransformSingleString(t *testing.T) {
	// Rotations of ACGT sort to ACGT, CGTA, GTAC, TACG; the eBWT reads
	// off the preceding characters: TACG, one run each.
	gen, err := Transform(seqs("ACGT"), false)
	require.NoError(t, err)
	assert.False(t, gen.Degenerate)
	assert.Equal(t, []byte("TACG"), gen.Heads)
	assert.Equal(t, []uint64{1, 1, 1, 1}, gen.Lens)
	assert.Equal(t, []uint64{0, 1, 2, 3}, gen.SamplesFirst)
	assert.Equal(t, []uint64{0, 1, 2, 3}, gen.SamplesLast)
	assert.Equal(t, []uint64{0, 4}, gen.Onsets)
	assert.Equal(t, uint64(4), gen.N)
}

func TestTransformSingleRun(t *testing.T) {
	gen, err := Transform(seqs("AAAA"), false)
	require.NoError(t, err)
	assert.True(t, gen.Degenerate, "equal rotations must be flagged")
	assert.Equal(t, []byte("A"), gen.Heads)
	assert.Equal(t, []uint64{4}, gen.Lens)
	assert.Equal(t, uint64(4), gen.Lens[0])
}

func TestTransformInvariants(t *testing.T) {
	gen, err := Transform(seqs("BANANA", "ANANAS"), false)
	require.NoError(t, err)
	assert.False(t, gen.Degenerate)
	require.NoError(t, gen.Validate())

	var n uint64
	for _, l := range gen.Lens {
		n += l
	}
	assert.Equal(t, gen.N, n, "run lengths must cover the text")
	for i := 1; i < len(gen.Heads); i++ {
		assert.NotEqual(t, gen.Heads[i-1], gen.Heads[i], "runs must be maximal")
	}
	// gCA samples are text positions; the first samples of the runs are
	// distinct across runs.
	seen := make(map[uint64]bool)
	for i := range gen.SamplesFirst {
		assert.False(t, seen[gen.SamplesFirst[i]])
		seen[gen.SamplesFirst[i]] = true
		assert.Less(t, gen.SamplesFirst[i], n)
		assert.Less(t, gen.SamplesLast[i], n)
	}
}

func TestTransformFirstForcesBoundaries(t *testing.T) {
	gen, err := Transform(seqs("BAA"), true)
	require.NoError(t, err)
	found := false
	for _, s := range gen.SamplesFirst {
		if s == 0 {
			found = true
		}
	}
	assert.True(t, found, "first mode must sample the string start")
	var n uint64
	for _, l := range gen.Lens {
		n += l
	}
	assert.Equal(t, uint64(3), n)
}

func TestTransformSharedConjugates(t *testing.T) {
	gen, err := Transform(seqs("ACGT", "GTAC"), false)
	require.NoError(t, err)
	assert.True(t, gen.Degenerate, "shared conjugate classes are degenerate")
}

func TestTransformErrors(t *testing.T) {
	_, err := Transform(nil, false)
	assert.Error(t, err)
	_, err = Transform(seqs("ACGT", ""), false)
	assert.Error(t, err)
	_, err = Transform([][]byte{{'A', 200}}, false)
	assert.Error(t, err)
}

func TestNaiveLocate(t *testing.T) {
	coll := seqs("BANANA", "ANANAS")
	assert.Equal(t, []uint64{1, 3, 6, 8}, NaiveLocate(coll, []byte("ANA")))
	assert.Equal(t, []uint64{0}, NaiveLocate(coll, []byte("BAN")))
	// Wrap past the end of BANANA: "ABA" reads A(5)·B(0)·A(1).
	assert.Equal(t, []uint64{5}, NaiveLocate(coll, []byte("ABA")))
	assert.Nil(t, NaiveLocate(coll, []byte("XYZ")))
	assert.Nil(t, NaiveLocate(coll, nil))
	// Patterns longer than a string can still occur circularly.
	assert.Equal(t, []uint64{1}, NaiveLocate(seqs("AT"), []byte("TAT")))
}
