package narc

import (
	"io/fs"
	"iter"

	"github.com/meigma/narc/internal/pathutil"
)

// Lookup resolves a slash-separated path relative to d, matching each
// segment exactly against child names. The empty path resolves to d.
func (d *Dir) Lookup(path string) (Node, bool) {
	var cur Node = d
	for _, seg := range pathutil.Split(path) {
		dir, ok := cur.(*Dir)
		if !ok {
			return nil, false
		}
		child, ok := dir.Child(seg)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

func (d *Dir) findFile(path string) (*File, bool) {
	n, ok := d.Lookup(path)
	if !ok {
		return nil, false
	}
	f, ok := n.(*File)
	return f, ok
}

func (d *Dir) findDir(path string) (*Dir, bool) {
	n, ok := d.Lookup(path)
	if !ok {
		return nil, false
	}
	dir, ok := n.(*Dir)
	return dir, ok
}

// GetFile returns the content of the file at path. It fails with
// ErrNotFound if any segment is missing or the path names a directory.
// The returned slice is shared with the tree.
func (d *Dir) GetFile(path string) ([]byte, error) {
	f, ok := d.findFile(path)
	if !ok {
		return nil, &fs.PathError{Op: "getfile", Path: path, Err: ErrNotFound}
	}
	return f.content, nil
}

// AddFile writes data at path.
//
// An existing file keeps its identity and only its content changes.
// Otherwise every missing intermediate directory is created in order and the
// new file is appended to its parent. The path is validated before anything
// is created.
func (d *Dir) AddFile(path string, data []byte) error {
	segs, err := splitPath(path)
	if err != nil {
		return &fs.PathError{Op: "addfile", Path: path, Err: err}
	}

	parent, err := d.mkdirAll(segs[:len(segs)-1])
	if err != nil {
		return &fs.PathError{Op: "addfile", Path: path, Err: err}
	}

	name := segs[len(segs)-1]
	if existing, ok := parent.Child(name); ok {
		f, ok := existing.(*File)
		if !ok {
			return &fs.PathError{Op: "addfile", Path: path, Err: ErrIsDir}
		}
		f.content = data
		return nil
	}
	parent.appendChild(NewFile(name, data))
	return nil
}

// AddDirectory creates the directory at path and any missing parents, and
// returns it. An existing directory is returned unchanged.
func (d *Dir) AddDirectory(path string) (*Dir, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, &fs.PathError{Op: "adddir", Path: path, Err: err}
	}
	dir, err := d.mkdirAll(segs)
	if err != nil {
		return nil, &fs.PathError{Op: "adddir", Path: path, Err: err}
	}
	return dir, nil
}

// mkdirAll walks segs from d, creating missing directories. When an existing
// file blocks the walk, nothing is created.
func (d *Dir) mkdirAll(segs []string) (*Dir, error) {
	cur := d
	for i, seg := range segs {
		child, ok := cur.Child(seg)
		if !ok {
			for _, name := range segs[i:] {
				next := NewDir(name)
				cur.appendChild(next)
				cur = next
			}
			return cur, nil
		}
		next, ok := child.(*Dir)
		if !ok {
			return nil, ErrNotDir
		}
		cur = next
	}
	return cur, nil
}

// RemoveFile detaches the file at path and reports whether it existed.
func (d *Dir) RemoveFile(path string) bool {
	f, ok := d.findFile(path)
	if !ok || f.parent == nil {
		return false
	}
	return f.parent.Remove(f)
}

// RemoveDirectory detaches the directory at path.
//
// It returns false if the directory does not exist, is d itself, or is not
// empty and recursive is false. With recursive set, descendants are
// detached depth-first (files before subdirectories, each subdirectory after
// its own contents) before the directory itself.
func (d *Dir) RemoveDirectory(path string, recursive bool) bool {
	dir, ok := d.findDir(path)
	if !ok || dir == d || dir.parent == nil {
		return false
	}
	if dir.HasChildren() && !recursive {
		return false
	}
	detachAll(dir)
	return dir.parent.Remove(dir)
}

func detachAll(dir *Dir) {
	for _, f := range dir.Files() {
		dir.Remove(f)
	}
	for _, sub := range dir.Dirs() {
		detachAll(sub)
		dir.Remove(sub)
	}
}

// ListDirectoryTree lists directory paths depth-first in pre-order,
// starting with the directory at path itself. A trailing slash on path is
// tolerated. Paths are relative to d; d itself is listed as "". A missing
// path yields nil.
func (d *Dir) ListDirectoryTree(path string) []string {
	start := pathutil.TrimTrailing(path)
	dir, ok := d.findDir(start)
	if !ok {
		return nil
	}

	var out []string
	var walk func(dir *Dir, rel string)
	walk = func(dir *Dir, rel string) {
		out = append(out, rel)
		for _, sub := range dir.Dirs() {
			walk(sub, pathutil.Join(rel, sub.name))
		}
	}
	walk(dir, start)
	return out
}

// DirectoryContents returns the direct children of the directory at path
// keyed by name. When names repeat, the first child wins.
func (d *Dir) DirectoryContents(path string) (map[string]Node, error) {
	dir, ok := d.findDir(path)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: ErrNotFound}
	}
	out := make(map[string]Node, len(dir.children))
	for _, c := range dir.children {
		if _, dup := out[c.Name()]; !dup {
			out[c.Name()] = c
		}
	}
	return out, nil
}

// ContentOrder iterates files in payload order: a directory's own files in
// insertion order, then each subdirectory recursively in insertion order.
// Paths are relative to d.
func (d *Dir) ContentOrder() iter.Seq2[string, *File] {
	return func(yield func(string, *File) bool) {
		walkContent(d, "", yield)
	}
}

func walkContent(d *Dir, prefix string, yield func(string, *File) bool) bool {
	for _, f := range d.Files() {
		if !yield(pathutil.Join(prefix, f.name), f) {
			return false
		}
	}
	for _, sub := range d.Dirs() {
		if !walkContent(sub, pathutil.Join(prefix, sub.name), yield) {
			return false
		}
	}
	return true
}

// NameOrder iterates every descendant depth-first, visiting children in
// insertion order with files and directories interleaved. Paths are
// relative to d.
func (d *Dir) NameOrder() iter.Seq2[string, Node] {
	return func(yield func(string, Node) bool) {
		walkNames(d, "", yield)
	}
}

func walkNames(d *Dir, prefix string, yield func(string, Node) bool) bool {
	for _, c := range d.children {
		p := pathutil.Join(prefix, c.Name())
		if !yield(p, c) {
			return false
		}
		if sub, ok := c.(*Dir); ok {
			if !walkNames(sub, p, yield) {
				return false
			}
		}
	}
	return true
}

// countTree returns the number of files and directories below d, not
// counting d.
func countTree(d *Dir) (files, dirs int) {
	for _, c := range d.children {
		switch n := c.(type) {
		case *File:
			files++
		case *Dir:
			f, sub := countTree(n)
			files += f
			dirs += sub + 1
		}
	}
	return files, dirs
}
