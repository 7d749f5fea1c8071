package narc

import (
	"encoding/binary"
)

// Layout describes the structural tables of an encoded archive.
type Layout struct {
	ByteOrder   binary.ByteOrder
	Version     uint16
	TotalLength uint32
	Reserved0   uint16
	Reserved1   uint16

	// Sections lists the content table, name table and payload in stream order.
	Sections []Section
	// Content holds the content-table entries in table order.
	Content []Span
	// Dirs holds the directory index entries in slot order.
	Dirs []DirRecord
	// Names holds the name entries in the order they were read.
	Names []NameRecord
}

// Section locates one section in the stream.
type Section struct {
	Tag    string
	Offset int
	Length uint32
}

// Span is a content-table entry relative to the start of the payload data.
type Span struct {
	Start uint32
	End   uint32
}

// Len returns the entry size in bytes.
func (s Span) Len() uint32 { return s.End - s.Start }

// DirRecord is one directory index entry.
type DirRecord struct {
	Slot        int
	Path        string
	NameOffset  uint32
	FilesBefore uint16
	ChildField  uint16
}

// NameRecord is one name-list entry.
type NameRecord struct {
	// Slot is the slot of the directory whose list holds the entry.
	Slot  int
	Name  string
	IsDir bool
	// ID is the directory ID byte; zero for files.
	ID uint8
}

// Inspect parses the header and tables of an encoded archive without
// reading payload content or checking the tables against each other.
func Inspect(data []byte, opts ...DecodeOption) (*Layout, error) {
	d := newDecoder(data, opts)
	d.layout = &Layout{}

	a := &Archive{Root: NewDir("")}
	if err := d.readHeader(a); err != nil {
		return nil, err
	}
	if err := d.readContentTable(); err != nil {
		return nil, err
	}
	if err := d.readNameTable(a.Root); err != nil {
		return nil, err
	}
	if _, err := d.readPayloadHeader(); err != nil {
		return nil, err
	}
	return d.layout, nil
}

// Section returns the section with the given tag.
func (l *Layout) Section(tag string) (Section, bool) {
	for _, s := range l.Sections {
		if s.Tag == tag {
			return s, true
		}
	}
	return Section{}, false
}

// Aligned reports whether the content table implies 128-byte alignment.
func (l *Layout) Aligned() bool {
	for i := 1; i < len(l.Content); i++ {
		if l.Content[i-1].End != l.Content[i].Start {
			return true
		}
	}
	return false
}
