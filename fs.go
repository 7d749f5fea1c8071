package narc

import (
	"bytes"
	"io"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/meigma/narc/internal/pathutil"
)

// treeFS is a read-only io/fs view of a directory tree.
//
// Directory listings are sorted by name. Where a directory holds several
// children with the same name only the first is visible, matching Lookup.
// Children whose names are not valid io/fs path elements are hidden.
type treeFS struct {
	root *Dir
}

// Interface compliance.
var (
	_ fs.FS         = (*treeFS)(nil)
	_ fs.StatFS     = (*treeFS)(nil)
	_ fs.ReadFileFS = (*treeFS)(nil)
	_ fs.ReadDirFS  = (*treeFS)(nil)
)

func (t *treeFS) lookup(op, name string) (Node, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	n, ok := t.root.Lookup(pathutil.FromFS(name))
	if !ok {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return n, nil
}

// Open implements fs.FS.
func (t *treeFS) Open(name string) (fs.File, error) {
	n, err := t.lookup("open", name)
	if err != nil {
		return nil, err
	}
	switch n := n.(type) {
	case *File:
		return &openFile{info: newInfo(n, name), r: bytes.NewReader(n.content)}, nil
	case *Dir:
		return &openDir{dir: n, info: newInfo(n, name)}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
}

// Stat implements fs.StatFS.
func (t *treeFS) Stat(name string) (fs.FileInfo, error) {
	n, err := t.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	return newInfo(n, name), nil
}

// ReadFile implements fs.ReadFileFS. The returned slice is a copy.
func (t *treeFS) ReadFile(name string) ([]byte, error) {
	n, err := t.lookup("readfile", name)
	if err != nil {
		return nil, err
	}
	f, ok := n.(*File)
	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: ErrIsDir}
	}
	return bytes.Clone(f.content), nil
}

// ReadDir implements fs.ReadDirFS.
func (t *treeFS) ReadDir(name string) ([]fs.DirEntry, error) {
	n, err := t.lookup("readdir", name)
	if err != nil {
		return nil, err
	}
	d, ok := n.(*Dir)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrNotDir}
	}
	return dirEntries(d), nil
}

// dirEntries lists the visible children of d sorted by name.
func dirEntries(d *Dir) []fs.DirEntry {
	seen := make(map[string]bool, len(d.children))
	entries := make([]fs.DirEntry, 0, len(d.children))
	for _, c := range d.children {
		name := c.Name()
		if seen[name] || !fs.ValidPath(name) || name == "." || strings.Contains(name, "/") {
			continue
		}
		seen[name] = true
		entries = append(entries, fs.FileInfoToDirEntry(newInfo(c, name)))
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries
}

// info implements fs.FileInfo for tree nodes.
type info struct {
	name string
	size int64
	dir  bool
}

func newInfo(n Node, name string) *info {
	fi := &info{name: pathutil.Base(name)}
	switch n := n.(type) {
	case *File:
		fi.size = int64(len(n.content))
	case *Dir:
		fi.dir = true
	}
	return fi
}

func (fi *info) Name() string       { return fi.name }
func (fi *info) Size() int64        { return fi.size }
func (fi *info) ModTime() time.Time { return time.Time{} }
func (fi *info) IsDir() bool        { return fi.dir }
func (fi *info) Sys() any           { return nil }

func (fi *info) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

// openFile implements fs.File over file content.
type openFile struct {
	info *info
	r    *bytes.Reader
}

func (f *openFile) Stat() (fs.FileInfo, error)                { return f.info, nil }
func (f *openFile) Read(p []byte) (int, error)                { return f.r.Read(p) }
func (f *openFile) ReadAt(p []byte, off int64) (int, error)   { return f.r.ReadAt(p, off) }
func (f *openFile) Seek(off int64, whence int) (int64, error) { return f.r.Seek(off, whence) }
func (f *openFile) Close() error                              { return nil }

// openDir implements fs.ReadDirFile.
type openDir struct {
	dir     *Dir
	info    *info
	entries []fs.DirEntry
	read    bool
}

func (d *openDir) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *openDir) Close() error               { return nil }

func (d *openDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: fs.ErrInvalid}
}

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.read {
		d.entries = dirEntries(d.dir)
		d.read = true
	}
	if n <= 0 {
		out := d.entries
		d.entries = nil
		return out, nil
	}
	if len(d.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(d.entries))
	out := d.entries[:n:n]
	d.entries = d.entries[n:]
	return out, nil
}
