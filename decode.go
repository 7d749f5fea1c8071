package narc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/meigma/narc/internal/binio"
)

// DecodeOption configures Decode and Inspect.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	logger   *slog.Logger
	maxFiles int
}

// DecodeWithLogger sets a logger for section-level debug output.
func DecodeWithLogger(logger *slog.Logger) DecodeOption {
	return func(c *decodeConfig) {
		c.logger = logger
	}
}

// DecodeWithMaxFiles limits the number of content-table entries accepted.
// By default only the input size bounds the count: every entry must fit in
// the data. A limit of 0 restores the default.
func DecodeWithMaxFiles(limit int) DecodeOption {
	return func(c *decodeConfig) {
		c.maxFiles = limit
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (c *decodeConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// span is one content-table entry, relative to the payload data base.
type span struct {
	start, end uint32
}

// decoder holds the state of a single Decode or Inspect call.
type decoder struct {
	cfg    decodeConfig
	data   []byte
	order  binary.ByteOrder
	layout *Layout // optional; filled when inspecting

	spans      []span
	namesOff   int
	payloadOff int

	// name table state
	base    int
	nameEnd int
	slots   int // number of slots that fit in the section
	cursor  int // next unclaimed slot
}

// Decode parses an encoded archive.
//
// Payload bytes are copied, so the returned Archive does not alias data.
// On failure no partial result is returned; format errors are *FormatError
// values that match ErrFormat.
func Decode(data []byte, opts ...DecodeOption) (*Archive, error) {
	d := newDecoder(data, opts)

	a := &Archive{Root: NewDir("")}
	if err := d.readHeader(a); err != nil {
		return nil, err
	}
	if err := d.readContentTable(); err != nil {
		return nil, err
	}
	a.hasAlignment = inferAlignment(d.spans)

	if err := d.readNameTable(a.Root); err != nil {
		return nil, err
	}
	a.Nameless = !a.Root.HasChildren()

	if err := d.readPayload(a); err != nil {
		return nil, err
	}

	d.cfg.log().Debug("decoded archive",
		"files", len(d.spans),
		"directories", d.cursor,
		"nameless", a.Nameless,
		"aligned", a.hasAlignment)
	return a, nil
}

func newDecoder(data []byte, opts []DecodeOption) *decoder {
	d := &decoder{
		data: data,
	}
	for _, opt := range opts {
		opt(&d.cfg)
	}
	return d
}

// fail wraps err as a FormatError. Short reads become ErrTruncated.
func fail(section string, off int, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = ErrTruncated
	}
	return &FormatError{Section: section, Offset: off, Err: err}
}

func (d *decoder) reader(off int) (*binio.Reader, error) {
	return binio.NewReader(d.data, d.order).At(off)
}

// expectTag checks the four-byte tag at off.
func (d *decoder) expectTag(section string, off int) error {
	if off < 0 || off+4 > len(d.data) {
		return fail(section, off, ErrTruncated)
	}
	if string(d.data[off:off+4]) != section {
		return fail(section, off, ErrBadMagic)
	}
	return nil
}

func (d *decoder) readHeader(a *Archive) error {
	const section = "header"
	if len(d.data) < headerSize {
		if !Identify(d.data) {
			return fail(section, 0, ErrBadMagic)
		}
		return fail(section, 0, ErrTruncated)
	}
	if !Identify(d.data) {
		return fail(section, 0, ErrBadMagic)
	}

	switch {
	case d.data[4] == 0xFE && d.data[5] == 0xFF:
		d.order = binary.LittleEndian
	case d.data[4] == 0xFF && d.data[5] == 0xFE:
		d.order = binary.BigEndian
	default:
		return fail(section, 4, fmt.Errorf("%w: %02x %02x", ErrBadByteOrder, d.data[4], d.data[5]))
	}
	a.ByteOrder = d.order

	a.Version = d.order.Uint16(d.data[6:8])
	total := d.order.Uint32(d.data[8:12])
	a.Reserved0 = d.order.Uint16(d.data[12:14])
	a.Reserved1 = d.order.Uint16(d.data[14:16])

	if d.layout != nil {
		d.layout.ByteOrder = d.order
		d.layout.Version = a.Version
		d.layout.TotalLength = total
		d.layout.Reserved0 = a.Reserved0
		d.layout.Reserved1 = a.Reserved1
	}
	d.cfg.log().Debug("read header",
		"byte_order", d.order.String(),
		"version", a.Version,
		"length", total)
	return nil
}

func (d *decoder) readContentTable() error {
	const off = headerSize
	if err := d.expectTag(tagContent, off); err != nil {
		return err
	}
	r, err := d.reader(off + 4)
	if err != nil {
		return fail(tagContent, off, err)
	}
	length, err := r.Uint32()
	if err != nil {
		return fail(tagContent, r.Pos(), err)
	}
	count, err := r.Uint32()
	if err != nil {
		return fail(tagContent, r.Pos(), err)
	}
	if d.cfg.maxFiles > 0 && uint64(count) > uint64(d.cfg.maxFiles) {
		return fail(tagContent, off+8, fmt.Errorf("%w: %d entries, limit %d", ErrTooManyFiles, count, d.cfg.maxFiles))
	}
	if uint64(count)*contentEntrySize > uint64(r.Remaining()) {
		return fail(tagContent, r.Pos(), ErrTruncated)
	}

	d.spans = make([]span, count)
	for i := range d.spans {
		pos := r.Pos()
		start, err := r.Uint32()
		if err != nil {
			return fail(tagContent, pos, err)
		}
		end, err := r.Uint32()
		if err != nil {
			return fail(tagContent, pos, err)
		}
		if end < start {
			return fail(tagContent, pos, fmt.Errorf("%w: entry %d ends at 0x%x before it starts at 0x%x", ErrInconsistent, i, end, start))
		}
		d.spans[i] = span{start: start, end: end}
	}

	next := uint64(off) + uint64(length)
	if next > uint64(len(d.data)) {
		return fail(tagContent, off+4, ErrTruncated)
	}
	d.namesOff = int(next)

	if d.layout != nil {
		d.layout.Sections = append(d.layout.Sections, Section{Tag: tagContent, Offset: off, Length: length})
		for _, s := range d.spans {
			d.layout.Content = append(d.layout.Content, Span{Start: s.start, End: s.end})
		}
	}
	d.cfg.log().Debug("read content table", "offset", off, "length", length, "entries", count)
	return nil
}

// inferAlignment reports whether any entry does not start where the
// previous one ended.
func inferAlignment(spans []span) bool {
	for i := 1; i < len(spans); i++ {
		if spans[i-1].end != spans[i].start {
			return true
		}
	}
	return false
}

func (d *decoder) readNameTable(root *Dir) error {
	off := d.namesOff
	if err := d.expectTag(tagNames, off); err != nil {
		return err
	}
	r, err := d.reader(off + 4)
	if err != nil {
		return fail(tagNames, off, err)
	}
	length, err := r.Uint32()
	if err != nil {
		return fail(tagNames, r.Pos(), err)
	}
	end := uint64(off) + uint64(length)
	if end > uint64(len(d.data)) {
		return fail(tagNames, off+4, ErrTruncated)
	}

	d.base = off + sectionHeaderSize
	d.nameEnd = int(end)
	d.payloadOff = int(end)
	if d.nameEnd < d.base {
		return fail(tagNames, off+4, fmt.Errorf("%w: section length %d", ErrInconsistent, length))
	}
	// Upper bound until the root entry narrows it in readDir.
	d.slots = (d.nameEnd - d.base) / dirEntrySize

	if d.layout != nil {
		d.layout.Sections = append(d.layout.Sections, Section{Tag: tagNames, Offset: off, Length: length})
	}
	if err := d.readDir(root); err != nil {
		return err
	}
	d.cfg.log().Debug("read name table", "offset", off, "length", length, "directories", d.cursor)
	return nil
}

// readDir claims the next directory slot for dir and reads its name list.
// Subdirectories are read as soon as their entry is seen, so slots are
// consumed parent first, then each child's subtree in name order.
func (d *decoder) readDir(dir *Dir) error {
	slot := d.cursor
	if slot >= d.slots {
		return fail(tagNames, d.base+slot*dirEntrySize, fmt.Errorf("%w: directory slot %d outside table", ErrInconsistent, slot))
	}
	d.cursor++

	entryOff := d.base + slot*dirEntrySize
	er, err := d.reader(entryOff)
	if err != nil {
		return fail(tagNames, entryOff, err)
	}
	listOff, err := er.Uint32()
	if err != nil {
		return fail(tagNames, entryOff, err)
	}
	filesBefore, err := er.Uint16()
	if err != nil {
		return fail(tagNames, entryOff, err)
	}
	childField, err := er.Uint16()
	if err != nil {
		return fail(tagNames, entryOff, err)
	}
	if d.layout != nil {
		d.layout.Dirs = append(d.layout.Dirs, DirRecord{
			Slot:        slot,
			Path:        dir.Path(),
			NameOffset:  listOff,
			FilesBefore: filesBefore,
			ChildField:  childField,
		})
	}

	// The index ends where the root's name list begins.
	if slot == 0 {
		d.slots = min(d.slots, int(listOff/dirEntrySize))
	}

	start := uint64(d.base) + uint64(listOff)
	if start >= uint64(d.nameEnd) {
		return fail(tagNames, entryOff, fmt.Errorf("%w: name list of slot %d outside section", ErrInconsistent, slot))
	}
	lr, err := binio.NewReader(d.data[:d.nameEnd], d.order).At(int(start))
	if err != nil {
		return fail(tagNames, int(start), err)
	}

	for {
		pos := lr.Pos()
		n, err := lr.Uint8()
		if err != nil {
			return fail(tagNames, pos, err)
		}
		if n == 0 {
			return nil
		}

		isDir := n&dirFlag != 0
		name, err := lr.Bytes(int(n &^ dirFlag))
		if err != nil {
			return fail(tagNames, pos, err)
		}
		if !isDir {
			dir.appendChild(NewFile(string(name), nil))
			d.recordName(slot, string(name), false, 0)
			continue
		}

		id, err := lr.Uint8()
		if err != nil {
			return fail(tagNames, pos, err)
		}
		if err := lr.Skip(1); err != nil {
			return fail(tagNames, pos, err)
		}
		d.recordName(slot, string(name), true, id)

		child := NewDir(string(name))
		dir.appendChild(child)
		if err := d.readDir(child); err != nil {
			return err
		}
	}
}

func (d *decoder) recordName(slot int, name string, isDir bool, id uint8) {
	if d.layout == nil {
		return
	}
	d.layout.Names = append(d.layout.Names, NameRecord{Slot: slot, Name: name, IsDir: isDir, ID: id})
}

// readPayloadHeader validates the payload section tag and returns the
// absolute offset that content-table entries are relative to.
func (d *decoder) readPayloadHeader() (int, error) {
	off := d.payloadOff
	if err := d.expectTag(tagPayload, off); err != nil {
		return 0, err
	}
	r, err := d.reader(off + 4)
	if err != nil {
		return 0, fail(tagPayload, off, err)
	}
	length, err := r.Uint32()
	if err != nil {
		return 0, fail(tagPayload, r.Pos(), err)
	}
	if d.layout != nil {
		d.layout.Sections = append(d.layout.Sections, Section{Tag: tagPayload, Offset: off, Length: length})
	}
	d.cfg.log().Debug("read payload header", "offset", off, "length", length)
	return off + sectionHeaderSize, nil
}

func (d *decoder) readPayload(a *Archive) error {
	dataBase, err := d.readPayloadHeader()
	if err != nil {
		return err
	}

	content := func(i int) ([]byte, error) {
		s := d.spans[i]
		start := uint64(dataBase) + uint64(s.start)
		end := uint64(dataBase) + uint64(s.end)
		if end > uint64(len(d.data)) {
			return nil, fail(tagPayload, d.payloadOff, fmt.Errorf("%w: entry %d spans 0x%x-0x%x", ErrTruncated, i, start, end))
		}
		return bytes.Clone(d.data[start:end]), nil
	}

	next := 0
	for p, f := range a.Root.ContentOrder() {
		if next >= len(d.spans) {
			return fail(tagPayload, d.payloadOff, fmt.Errorf("%w: no content entry for %q (%d entries)", ErrInconsistent, p, len(d.spans)))
		}
		data, err := content(next)
		if err != nil {
			return err
		}
		f.content = data
		next++
	}

	if next < len(d.spans) && !a.Nameless {
		return fail(tagPayload, d.payloadOff, fmt.Errorf("%w: %d content entries for %d named files", ErrInconsistent, len(d.spans), next))
	}
	for ; next < len(d.spans); next++ {
		data, err := content(next)
		if err != nil {
			return err
		}
		a.Root.appendChild(NewFile(strconv.Itoa(next), data))
	}
	return nil
}
