package far

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFile struct {
	name string
	data []byte
}

// buildArchive assembles a FAR v1 archive in memory: header, the file
// contents concatenated, then the manifest at the end.
func buildArchive(t *testing.T, files []testFile) []byte {
	t.Helper()

	offsets := make([]uint32, len(files))
	off := uint32(headerSize)
	for i, f := range files {
		offsets[i] = off
		off += uint32(len(f.data))
	}

	var buf bytes.Buffer
	buf.WriteString(Signature)
	binary.Write(&buf, binary.LittleEndian, uint32(SupportedVersion))
	binary.Write(&buf, binary.LittleEndian, off) // manifest offset

	for _, f := range files {
		buf.Write(f.data)
	}

	binary.Write(&buf, binary.LittleEndian, uint32(len(files)))
	for i, f := range files {
		binary.Write(&buf, binary.LittleEndian, uint32(len(f.data)))
		binary.Write(&buf, binary.LittleEndian, uint32(len(f.data)))
		binary.Write(&buf, binary.LittleEndian, offsets[i])
		binary.Write(&buf, binary.LittleEndian, uint32(len(f.name)))
		buf.WriteString(f.name)
	}

	return buf.Bytes()
}

func TestNew_DecodesManifestInOrder(t *testing.T) {
	t.Parallel()

	files := []testFile{
		{"ui/a.bmp", []byte("aaaa")},
		{"ui/b.bmp", []byte("bb")},
		{"sounds/c.wav", bytes.Repeat([]byte{0x42}, 100)},
	}
	data := buildArchive(t, files)

	a, err := New(NewMemorySource(data))
	require.NoError(t, err)

	assert.Equal(t, uint32(SupportedVersion), a.Version())
	assert.Equal(t, int64(len(data)), a.Size())

	entries := a.Entries()
	require.Len(t, entries, len(files))
	for i, f := range files {
		assert.Equal(t, f.name, entries[i].Name)
		assert.Equal(t, uint32(len(f.data)), entries[i].Length)

		got, err := a.Extract(entries[i])
		require.NoError(t, err)
		assert.Equal(t, f.data, got)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []testFile{{"x.bmp", []byte("payload")}})
	a, err := New(NewMemorySource(data))
	require.NoError(t, err)

	e := a.Entries()[0]
	first, err := a.Extract(e)
	require.NoError(t, err)
	second, err := a.Extract(e)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int(e.Length), len(first))
}

func TestExtract_Concurrent(t *testing.T) {
	t.Parallel()

	files := []testFile{
		{"a", bytes.Repeat([]byte{'a'}, 1000)},
		{"b", bytes.Repeat([]byte{'b'}, 2000)},
		{"c", bytes.Repeat([]byte{'c'}, 3000)},
	}
	data := buildArchive(t, files)
	a, err := New(NewMemorySource(data))
	require.NoError(t, err)

	const workers = 8
	results := make([][][]byte, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, e := range a.Entries() {
				got, err := a.Extract(e)
				if err != nil {
					errs[w] = err
					return
				}
				results[w] = append(results[w], got)
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		require.NoError(t, errs[w])
		require.Len(t, results[w], len(files))
		for i, f := range files {
			assert.Equal(t, f.data, results[w][i])
		}
	}
}

func TestNew_DuplicateNamesPreserved(t *testing.T) {
	t.Parallel()

	files := []testFile{
		{"same.bmp", []byte("one")},
		{"same.bmp", []byte("two")},
	}
	a, err := New(NewMemorySource(buildArchive(t, files)))
	require.NoError(t, err)

	entries := a.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].Name, entries[1].Name)

	first, err := a.Extract(entries[0])
	require.NoError(t, err)
	second, err := a.Extract(entries[1])
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), first)
	assert.Equal(t, []byte("two"), second)
}

func TestNew_InvalidSignature(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []testFile{{"a", []byte("aa")}})
	copy(data, "NOT!aFAR")

	a, err := New(NewMemorySource(data))
	require.ErrorIs(t, err, ErrInvalidSignature)
	assert.Nil(t, a)
}

func TestNew_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []testFile{{"a", []byte("aa")}})
	binary.LittleEndian.PutUint32(data[8:], 2)

	_, err := New(NewMemorySource(data))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestNew_TooSmallForHeader(t *testing.T) {
	t.Parallel()

	_, err := New(NewMemorySource([]byte("FAR!byAZ")))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestNew_CorruptManifestPointer(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []testFile{{"a", []byte("aa")}})
	binary.LittleEndian.PutUint32(data[12:], uint32(len(data)))

	_, err := New(NewMemorySource(data))
	require.ErrorIs(t, err, ErrCorruptTrailer)
}

func TestNew_DeclaredCountExceedsManifest(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []testFile{
		{"a.bmp", []byte("aaaa")},
		{"b.bmp", []byte("bb")},
	})
	manifestOffset := binary.LittleEndian.Uint32(data[12:])
	binary.LittleEndian.PutUint32(data[manifestOffset:], 3)

	_, err := New(NewMemorySource(data))
	require.ErrorIs(t, err, ErrTruncatedManifest)
}

func TestNew_ManifestCutShort(t *testing.T) {
	t.Parallel()

	// Long names keep the declared-count sanity check satisfied so the
	// truncation is hit mid-decode, on the missing third record.
	data := buildArchive(t, []testFile{
		{"a/very/long/entry/name/one.bmp", []byte("aaaa")},
		{"a/very/long/entry/name/two.bmp", []byte("bb")},
	})
	manifestOffset := binary.LittleEndian.Uint32(data[12:])
	binary.LittleEndian.PutUint32(data[manifestOffset:], 3)

	_, err := New(NewMemorySource(data))
	require.ErrorIs(t, err, ErrTruncatedManifest)
}

func TestNew_NameCutShortBySize(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []testFile{{"a.bmp", []byte("aaaa")}})

	_, err := New(NewMemorySource(data[:len(data)-1]))
	require.ErrorIs(t, err, ErrTruncatedManifest)
}

func TestNew_EntryOutOfBounds(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []testFile{{"a.bmp", []byte("aaaa")}})
	manifestOffset := binary.LittleEndian.Uint32(data[12:])
	// First record's length fields are right after the entry count.
	binary.LittleEndian.PutUint32(data[manifestOffset+4:], uint32(len(data)))

	_, err := New(NewMemorySource(data))
	require.ErrorIs(t, err, ErrEntryOutOfBounds)
}

func TestNew_InvalidEntryName(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []testFile{{string([]byte{0xff, 0xfe, 0xfd}), []byte("aaaa")}})

	_, err := New(NewMemorySource(data))
	require.ErrorIs(t, err, ErrInvalidEntryName)
}

func TestExtract_OutOfBoundsEntry(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []testFile{{"a", []byte("aa")}})
	a, err := New(NewMemorySource(data))
	require.NoError(t, err)

	// A synthetic entry past the end of the source, as if the file
	// shrank after open.
	_, err = a.Extract(Entry{Name: "ghost", Offset: uint32(len(data)), Length: 10})
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestOpen_FromFile(t *testing.T) {
	t.Parallel()

	files := []testFile{
		{"ui/menu.bmp", bytes.Repeat([]byte{0x10, 0x20}, 72)},
		{"ui/icon.bmp", []byte("icon data")},
	}
	path := filepath.Join(t.TempDir(), "ui.far")
	require.NoError(t, os.WriteFile(path, buildArchive(t, files), 0o644))

	a, err := Open(path)
	require.NoError(t, err)

	entries := a.Entries()
	require.Len(t, entries, 2)
	got, err := a.Extract(entries[0])
	require.NoError(t, err)
	assert.Equal(t, files[0].data, got)

	require.NoError(t, a.Close())
}

func TestOpen_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "nope.far"))
	require.Error(t, err)
}
