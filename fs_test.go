package narc

import (
	"io"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSConformance(t *testing.T) {
	t.Parallel()
	a := New()
	require.NoError(t, a.AddFile("b.txt", []byte("bee")))
	require.NoError(t, a.AddFile("a.txt", []byte("ay")))
	require.NoError(t, a.AddFile("dir/nested/deep.bin", []byte{0, 1, 2}))
	require.NoError(t, a.AddFile("dir/c.txt", []byte("sea")))
	_, err := a.AddDirectory("empty")
	require.NoError(t, err)

	require.NoError(t, fstest.TestFS(a.FS(),
		"a.txt", "b.txt", "dir/c.txt", "dir/nested/deep.bin", "empty"))
}

func TestFSReadDirSorted(t *testing.T) {
	t.Parallel()
	a := New()
	require.NoError(t, a.AddFile("zz", nil))
	require.NoError(t, a.AddFile("aa/x", nil))
	require.NoError(t, a.AddFile("mm", nil))

	entries, err := fs.ReadDir(a.FS(), ".")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"aa", "mm", "zz"}, names)
	assert.True(t, entries[0].IsDir())
	assert.False(t, entries[1].IsDir())
}

func TestFSReadFile(t *testing.T) {
	t.Parallel()
	a := New()
	require.NoError(t, a.AddFile("dir/f", []byte("content")))
	fsys := a.FS()

	got, err := fs.ReadFile(fsys, "dir/f")
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))

	// Callers get a copy.
	got[0] = 'X'
	again, err := fs.ReadFile(fsys, "dir/f")
	require.NoError(t, err)
	assert.Equal(t, "content", string(again))

	_, err = fs.ReadFile(fsys, "dir")
	require.ErrorIs(t, err, ErrIsDir)

	_, err = fs.ReadFile(fsys, "missing")
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = fs.ReadFile(fsys, "/dir/f")
	require.ErrorIs(t, err, fs.ErrInvalid)
}

func TestFSStat(t *testing.T) {
	t.Parallel()
	a := New()
	require.NoError(t, a.AddFile("dir/f", []byte("12345")))
	fsys := a.FS()

	info, err := fs.Stat(fsys, "dir/f")
	require.NoError(t, err)
	assert.Equal(t, "f", info.Name())
	assert.Equal(t, int64(5), info.Size())
	assert.False(t, info.IsDir())
	assert.Equal(t, fs.FileMode(0o444), info.Mode())

	info, err = fs.Stat(fsys, ".")
	require.NoError(t, err)
	assert.Equal(t, ".", info.Name())
	assert.True(t, info.IsDir())
}

func TestFSOpenDirPaged(t *testing.T) {
	t.Parallel()
	a := New()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, a.AddFile(name, nil))
	}

	f, err := a.FS().Open(".")
	require.NoError(t, err)
	defer f.Close()
	dir, ok := f.(fs.ReadDirFile)
	require.True(t, ok)

	first, err := dir.ReadDir(2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].Name())
	assert.Equal(t, "b", first[1].Name())

	rest, err := dir.ReadDir(2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].Name())

	_, err = dir.ReadDir(1)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFSDuplicateNames(t *testing.T) {
	t.Parallel()
	a := New()
	require.NoError(t, a.Root.Append(NewFile("dup", []byte("first"))))
	require.NoError(t, a.Root.Append(NewFile("dup", []byte("second"))))

	entries, err := fs.ReadDir(a.FS(), ".")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, err := fs.ReadFile(a.FS(), "dup")
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
}
