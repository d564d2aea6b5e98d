package far

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_SizeAndReadAt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(10), src.Size())

	buf := make([]byte, 4)
	n, err := src.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(buf))
}

func TestReadFull_Bounds(t *testing.T) {
	t.Parallel()

	src := NewMemorySource([]byte("0123456789"))

	got, err := readFull(src, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, "23456", string(got))

	// Exactly to the end is fine.
	got, err = readFull(src, 8, 2)
	require.NoError(t, err)
	assert.Equal(t, "89", string(got))

	_, err = readFull(src, 8, 3)
	require.ErrorIs(t, err, ErrOutOfBounds)

	_, err = readFull(src, -1, 2)
	require.ErrorIs(t, err, ErrOutOfBounds)
}
