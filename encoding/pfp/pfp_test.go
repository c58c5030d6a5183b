package pfp

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntsRoundTrip(t *testing.T) {
	vals := []uint64{0, 1, 255, 256, 1<<32 - 1, 7, 1 << 39}
	for _, width := range []int{Width4, Width5} {
		in := vals
		if width == Width4 {
			in = vals[:5]
		}
		var buf bytes.Buffer
		require.NoError(t, WriteInts(&buf, in, width))
		assert.Equal(t, len(in)*width, buf.Len())

		dir := t.TempDir()
		path := filepath.Join(dir, "ints")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
		got, err := ReadInts(path, width)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestWriteIntsRejectsOverflow(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteInts(&buf, []uint64{1 << 32}, Width4))
	assert.Error(t, WriteInts(&buf, []uint64{1 << 40}, Width5))
	assert.Error(t, WriteInts(&buf, []uint64{1}, 3))
}

func TestReadIntsBadSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ints")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3, 4, 5, 6}, 0644))
	_, err := ReadInts(path, Width4)
	require.Error(t, err)
	fe, ok := err.(*FormatError)
	require.True(t, ok)
	assert.Equal(t, "size", fe.Kind)

	_, err = ReadInts(filepath.Join(dir, "absent"), Width4)
	fe, ok = err.(*FormatError)
	require.True(t, ok)
	assert.Equal(t, "missing", fe.Kind)
}

func sample() *Streams {
	return &Streams{
		Heads:        []byte("TACG"),
		Lens:         []uint64{1, 1, 1, 1},
		SamplesFirst: []uint64{0, 1, 2, 3},
		SamplesLast:  []uint64{0, 1, 2, 3},
		Onsets:       []uint64{0, 4},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, sample().Validate())

	s := sample()
	s.Lens = s.Lens[:3]
	err := s.Validate()
	require.Error(t, err)
	assert.Equal(t, "mismatch", err.(*FormatError).Kind)

	s = sample()
	s.Onsets = []uint64{0, 3, 3, 4}
	err = s.Validate()
	require.Error(t, err)
	assert.Equal(t, "order", err.(*FormatError).Kind)

	s = sample()
	s.Onsets = []uint64{0, 5}
	err = s.Validate()
	require.Error(t, err)
	assert.Equal(t, "mismatch", err.(*FormatError).Kind)

	s = sample()
	s.Heads = nil
	s.Lens = nil
	s.SamplesFirst = nil
	s.SamplesLast = nil
	assert.Error(t, s.Validate())
}

func TestStreamsFileRoundTrip(t *testing.T) {
	base := filepath.Join(t.TempDir(), "coll")
	s := sample()
	require.NoError(t, s.WriteStreams(base, Width5))

	got, err := ReadStreams(base, Width5)
	require.NoError(t, err)
	assert.Equal(t, s.Heads, got.Heads)
	assert.Equal(t, s.Lens, got.Lens)
	assert.Equal(t, s.SamplesFirst, got.SamplesFirst)
	assert.Equal(t, s.SamplesLast, got.SamplesLast)
	assert.Equal(t, s.Onsets, got.Onsets)
}

func TestReadStreamsMissingFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "coll")
	s := sample()
	require.NoError(t, s.WriteStreams(base, Width5))
	require.NoError(t, os.Remove(base+".esam"))
	_, err := ReadStreams(base, Width5)
	require.Error(t, err)
	assert.Equal(t, "missing", err.(*FormatError).Kind)
}
