// Package narc reads and writes NARC containers, the hierarchical archive
// format used by Nintendo DS and 3DS titles, and models their contents as an
// ordered directory tree.
//
// An encoded container has a 16-byte header followed by three sections:
//   - BTAF: the content table, one (start, end) pair per file
//   - BTNF: the name table, a directory index plus length-prefixed name lists
//   - GMIF: the payload, file contents in content order
//
// Content order visits a directory's own files before its subdirectories,
// recursively. Name order interleaves files and directories in insertion
// order. Both orders are derived from the same tree, so building a tree with
// the same insertions always yields the same bytes.
//
// # Quick Start
//
// Decode, edit and re-encode an archive:
//
//	a, err := narc.Decode(data)
//	if err != nil {
//	    return err
//	}
//	if err := a.AddFile("a/b/c.bin", payload); err != nil {
//	    return err
//	}
//	out, err := narc.Encode(a)
//
// Read through io/fs:
//
//	content, err := fs.ReadFile(a.FS(), "a/b/c.bin")
//
// # Nameless archives
//
// Some archives carry no names at all. Decode exposes their files as root
// files named by content-table index ("0", "1", ...) and sets
// [Archive.Nameless]; Encode then writes an empty name table.
//
// # Alignment
//
// When [Archive.HasAlignment] is set, the payload section and every payload
// entry start on an absolute 128-byte boundary. Decode infers the flag from
// gaps in the content table.
package narc
