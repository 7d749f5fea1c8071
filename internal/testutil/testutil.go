// Package testutil builds fixtures for archive tests: hand-assembled
// container bytes that do not go through the encoder, and host directory
// trees for pack and extract tests.
package testutil

import (
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// Dir is one directory index entry.
type Dir struct {
	NameOffset  uint32
	FilesBefore uint16
	Child       uint16
}

// Raw describes an encoded archive field by field. Build lays it out with
// correct section lengths unless a length is overridden.
type Raw struct {
	Order     binary.ByteOrder // default little-endian
	Version   uint16           // default 0x0100
	Reserved0 uint16
	Reserved1 uint16

	// Spans are content-table pairs relative to the payload data.
	Spans [][2]uint32
	// Dirs is the directory index; Names follows it in the name table.
	Dirs  []Dir
	Names []byte
	// Payload is the payload section data.
	Payload []byte

	// Optional overrides for section length fields.
	ContentLen *uint32
	NamesLen   *uint32
}

// Build assembles the archive bytes.
func (r Raw) Build(tb testing.TB) []byte {
	tb.Helper()

	var order binary.ByteOrder = binary.LittleEndian
	if r.Order != nil {
		order = r.Order
	}
	u16 := func(buf []byte, v uint16) []byte {
		buf = append(buf, 0, 0)
		order.PutUint16(buf[len(buf)-2:], v)
		return buf
	}
	u32 := func(buf []byte, v uint32) []byte {
		buf = append(buf, 0, 0, 0, 0)
		order.PutUint32(buf[len(buf)-4:], v)
		return buf
	}
	version := r.Version
	if version == 0 {
		version = 0x0100
	}

	var buf []byte
	buf = append(buf, "NARC"...)
	buf = u16(buf, 0xFFFE)
	buf = u16(buf, version)
	totalAt := len(buf)
	buf = u32(buf, 0)
	buf = u16(buf, r.Reserved0)
	buf = u16(buf, r.Reserved1)

	buf = append(buf, "BTAF"...)
	contentLen := uint32(len(r.Spans)*8 + 12) //nolint:gosec // test fixture
	if r.ContentLen != nil {
		contentLen = *r.ContentLen
	}
	buf = u32(buf, contentLen)
	buf = u32(buf, uint32(len(r.Spans))) //nolint:gosec // test fixture
	for _, s := range r.Spans {
		buf = u32(buf, s[0])
		buf = u32(buf, s[1])
	}

	namesAt := len(buf)
	buf = append(buf, "BTNF"...)
	buf = u32(buf, 0)
	for _, d := range r.Dirs {
		buf = u32(buf, d.NameOffset)
		buf = u16(buf, d.FilesBefore)
		buf = u16(buf, d.Child)
	}
	buf = append(buf, r.Names...)
	namesLen := uint32(len(buf) - namesAt) //nolint:gosec // test fixture
	if r.NamesLen != nil {
		namesLen = *r.NamesLen
	}
	order.PutUint32(buf[namesAt+4:], namesLen)

	buf = append(buf, "GMIF"...)
	buf = u32(buf, uint32(len(r.Payload)+8)) //nolint:gosec // test fixture
	buf = append(buf, r.Payload...)

	order.PutUint32(buf[totalAt:], uint32(len(buf))) //nolint:gosec // test fixture
	return buf
}

// Names builds a name list.
type Names []byte

// File appends a file entry.
func (n Names) File(name string) Names {
	n = append(n, byte(len(name)))
	return append(n, name...)
}

// Dir appends a directory entry with the given ID byte.
func (n Names) Dir(name string, id byte) Names {
	n = append(n, 0x80|byte(len(name)))
	n = append(n, name...)
	return append(n, id, 0xF0)
}

// End appends the list terminator.
func (n Names) End() Names {
	return append(n, 0)
}

// Uint32 returns a pointer to v, for Raw length overrides.
func Uint32(v uint32) *uint32 { return &v }

// WriteTree creates files under root. Keys are slash-separated paths; a key
// ending in "/" creates an empty directory.
func WriteTree(tb testing.TB, root string, files map[string]string) {
	tb.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			if err := os.MkdirAll(p, 0o755); err != nil {
				tb.Fatalf("mkdir %s: %v", p, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			tb.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			tb.Fatalf("write %s: %v", p, err)
		}
	}
}

// ReadTree returns the regular files under root keyed by slash-separated
// relative path, and empty directories keyed with a trailing "/".
func ReadTree(tb testing.TB, root string) map[string]string {
	tb.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			entries, err := os.ReadDir(p)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				out[rel+"/"] = ""
			}
			return nil
		}
		data, err := os.ReadFile(p) //nolint:gosec // test helper
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	if err != nil {
		tb.Fatalf("walk %s: %v", root, err)
	}
	return out
}
