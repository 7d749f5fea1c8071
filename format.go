package narc

// Container layout constants.
const (
	magic = "NARC"

	tagContent = "BTAF"
	tagNames   = "BTNF"
	tagPayload = "GMIF"

	// headerSize is the fixed header length; the content table follows it.
	headerSize = 16

	// sectionHeaderSize covers a section tag and its u32 length.
	sectionHeaderSize = 8

	// contentEntrySize is one (start, end) pair in the content table.
	contentEntrySize = 8

	// dirEntrySize is one directory index entry in the name table.
	dirEntrySize = 8

	// Alignment is the boundary, in absolute stream bytes, that payload
	// entries and the payload section start on when alignment is enabled.
	Alignment = 128

	// dirFlag marks a directory entry in a name list; the low seven bits
	// hold the name length.
	dirFlag = 0x80

	// dirMarker follows the ID byte of every directory name entry.
	dirMarker = 0xF0

	// noSubdirs is the child field of a non-root directory with no
	// subdirectories.
	noSubdirs = 0xF000

	// byteOrderMark is written as a u16 in the archive's byte order, so the
	// stream carries FE FF for little-endian and FF FE for big-endian.
	byteOrderMark = 0xFFFE

	// DefaultVersion is the header version of newly created archives.
	DefaultVersion = 0x0100

	defaultHeaderLength = 16
	defaultSectionCount = 3
)

// Identify reports whether data begins with the archive magic.
func Identify(data []byte) bool {
	return len(data) >= len(magic) && string(data[:len(magic)]) == magic
}
