package narc

import (
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
)

// MaxNameLen is the longest name, in bytes, the name table can store.
const MaxNameLen = 0x7F

// Node is an entry in an archive tree. The only implementations are *Dir
// and *File.
type Node interface {
	// Name returns the entry name. The root's name is empty.
	Name() string
	// Parent returns the directory holding this node, or nil for the root
	// and for detached nodes.
	Parent() *Dir
	// Path returns the slash-separated path from the root, or "" for the root.
	Path() string

	base() *nodeBase
}

type nodeBase struct {
	name   string
	parent *Dir
}

func (n *nodeBase) Name() string { return n.name }
func (n *nodeBase) Parent() *Dir { return n.parent }
func (n *nodeBase) base() *nodeBase { return n }

func (n *nodeBase) Path() string {
	if n.parent == nil {
		return ""
	}
	parts := []string{n.name}
	for p := n.parent; p != nil && p.parent != nil; p = p.parent {
		parts = append(parts, p.name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// Dir is a directory node. Its children keep insertion order, which decides
// both the name-table layout and the payload order of an encoded archive.
type Dir struct {
	nodeBase
	children []Node
}

// File is a file node holding opaque content.
type File struct {
	nodeBase
	content []byte
}

// Interface compliance.
var (
	_ Node = (*Dir)(nil)
	_ Node = (*File)(nil)
)

// NewDir returns a detached, empty directory.
func NewDir(name string) *Dir {
	return &Dir{nodeBase: nodeBase{name: name}}
}

// NewFile returns a detached file with the given content.
func NewFile(name string, content []byte) *File {
	return &File{nodeBase: nodeBase{name: name}, content: content}
}

// Content returns the file content. The slice is shared with the node.
func (f *File) Content() []byte { return f.content }

// SetContent replaces the file content.
func (f *File) SetContent(content []byte) { f.content = content }

// Size returns the content length in bytes.
func (f *File) Size() int { return len(f.content) }

// Digest returns the sha256 digest of the content.
func (f *File) Digest() digest.Digest { return digest.FromBytes(f.content) }

// Children returns a copy of the direct children in insertion order.
func (d *Dir) Children() []Node { return slices.Clone(d.children) }

// Len returns the number of direct children.
func (d *Dir) Len() int { return len(d.children) }

// HasChildren reports whether d has any direct children.
func (d *Dir) HasChildren() bool { return len(d.children) > 0 }

// Files returns the direct file children in insertion order.
func (d *Dir) Files() []*File {
	var out []*File
	for _, c := range d.children {
		if f, ok := c.(*File); ok {
			out = append(out, f)
		}
	}
	return out
}

// Dirs returns the direct directory children in insertion order.
func (d *Dir) Dirs() []*Dir {
	var out []*Dir
	for _, c := range d.children {
		if sub, ok := c.(*Dir); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Child returns the first direct child with the given name.
func (d *Dir) Child(name string) (Node, bool) {
	for _, c := range d.children {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Append attaches n as the last child of d. A node that already has a
// parent is moved. It fails with ErrCycle if n is d or one of its ancestors.
func (d *Dir) Append(n Node) error {
	if sub, ok := n.(*Dir); ok {
		for p := d; p != nil; p = p.parent {
			if p == sub {
				return ErrCycle
			}
		}
	}
	if old := n.base().parent; old != nil {
		old.Remove(n)
	}
	d.appendChild(n)
	return nil
}

// appendChild attaches a detached node without checks.
func (d *Dir) appendChild(n Node) {
	n.base().parent = d
	d.children = append(d.children, n)
}

// Remove detaches n from d by identity and reports whether it was a child.
func (d *Dir) Remove(n Node) bool {
	i := slices.Index(d.children, n)
	if i < 0 {
		return false
	}
	d.children = slices.Delete(d.children, i, i+1)
	n.base().parent = nil
	return true
}
