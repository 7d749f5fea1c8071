package narc

import (
	"encoding/binary"
	"io/fs"
	"iter"

	"github.com/cespare/xxhash/v2"
)

// Archive is a decoded container: header fields plus the directory tree.
//
// An Archive is not safe for concurrent mutation.
type Archive struct {
	// ByteOrder is binary.LittleEndian or binary.BigEndian.
	ByteOrder binary.ByteOrder
	Version   uint16
	// Reserved0 is stored verbatim; it conventionally holds the header
	// length (16).
	Reserved0 uint16
	// Reserved1 is stored verbatim; it conventionally holds the section
	// count (3).
	Reserved1 uint16
	Root      *Dir
	// Nameless archives carry no name table entries. Their files are
	// addressed by content-table index.
	Nameless bool

	hasAlignment bool
}

// ArchiveOption configures an Archive created with New.
type ArchiveOption func(*Archive)

// WithByteOrder sets the byte order (default: little-endian).
func WithByteOrder(order binary.ByteOrder) ArchiveOption {
	return func(a *Archive) {
		a.ByteOrder = order
	}
}

// WithVersion sets the header version (default: DefaultVersion).
func WithVersion(v uint16) ArchiveOption {
	return func(a *Archive) {
		a.Version = v
	}
}

// WithNameless marks the archive as nameless.
func WithNameless(nameless bool) ArchiveOption {
	return func(a *Archive) {
		a.Nameless = nameless
	}
}

// WithAlignment enables 128-byte alignment of payload entries.
func WithAlignment(enabled bool) ArchiveOption {
	return func(a *Archive) {
		a.hasAlignment = enabled
	}
}

// New returns an empty named archive with default header fields.
func New(opts ...ArchiveOption) *Archive {
	a := &Archive{
		ByteOrder: binary.LittleEndian,
		Version:   DefaultVersion,
		Reserved0: defaultHeaderLength,
		Reserved1: defaultSectionCount,
		Root:      NewDir(""),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HasAlignment reports whether payload entries are 128-byte aligned. It is
// inferred by Decode and otherwise fixed at construction.
func (a *Archive) HasAlignment() bool { return a.hasAlignment }

// GetFile returns the content of the file at path.
func (a *Archive) GetFile(path string) ([]byte, error) { return a.Root.GetFile(path) }

// AddFile writes data at path, creating parent directories as needed.
func (a *Archive) AddFile(path string, data []byte) error { return a.Root.AddFile(path, data) }

// AddDirectory creates the directory at path and any missing parents.
func (a *Archive) AddDirectory(path string) (*Dir, error) { return a.Root.AddDirectory(path) }

// RemoveFile detaches the file at path.
func (a *Archive) RemoveFile(path string) bool { return a.Root.RemoveFile(path) }

// RemoveDirectory detaches the directory at path.
func (a *Archive) RemoveDirectory(path string, recursive bool) bool {
	return a.Root.RemoveDirectory(path, recursive)
}

// ListDirectoryTree lists directory paths below path in pre-order.
func (a *Archive) ListDirectoryTree(path string) []string { return a.Root.ListDirectoryTree(path) }

// DirectoryContents returns the direct children of the directory at path.
func (a *Archive) DirectoryContents(path string) (map[string]Node, error) {
	return a.Root.DirectoryContents(path)
}

// FileCount returns the number of files in the tree.
func (a *Archive) FileCount() int {
	files, _ := countTree(a.Root)
	return files
}

// DirCount returns the number of directories in the tree, including the root.
func (a *Archive) DirCount() int {
	_, dirs := countTree(a.Root)
	return dirs + 1
}

// Files iterates (path, content) pairs in payload order.
func (a *Archive) Files() iter.Seq2[string, []byte] {
	return func(yield func(string, []byte) bool) {
		for p, f := range a.Root.ContentOrder() {
			if !yield(p, f.content) {
				return
			}
		}
	}
}

// Flatten returns a map from full path to content. When a path repeats, the
// first file in payload order wins. The content slices are shared with the tree.
func (a *Archive) Flatten() map[string][]byte {
	out := make(map[string][]byte, a.FileCount())
	for p, data := range a.Files() {
		if _, dup := out[p]; !dup {
			out[p] = data
		}
	}
	return out
}

// Fingerprint hashes the tree structure in name order followed by every
// payload in content order. Two archives with the same fingerprint hold
// structurally equal trees. Header fields are not included.
func (a *Archive) Fingerprint() uint64 {
	h := xxhash.New()
	var lenBuf [8]byte
	writeField := func(kind byte, b []byte) {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(b)))
		_, _ = h.Write([]byte{kind})
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(b)
	}
	for p, n := range a.Root.NameOrder() {
		kind := byte('f')
		if _, ok := n.(*Dir); ok {
			kind = 'd'
		}
		writeField(kind, []byte(p))
	}
	for _, f := range a.Root.ContentOrder() {
		writeField('c', f.content)
	}
	return h.Sum64()
}

// FS returns a read-only io/fs view of the tree.
func (a *Archive) FS() fs.FS { return &treeFS{root: a.Root} }
