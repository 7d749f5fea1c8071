package narc

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/meigma/narc/internal/binio"
)

// EncodeOption configures Encode.
type EncodeOption func(*encodeConfig)

type encodeConfig struct {
	logger       *slog.Logger
	alignment    bool
	alignmentSet bool
}

// EncodeWithAlignment overrides the archive's alignment flag.
func EncodeWithAlignment(enabled bool) EncodeOption {
	return func(c *encodeConfig) {
		c.alignment = enabled
		c.alignmentSet = true
	}
}

// EncodeWithLogger sets a logger for debug output.
func EncodeWithLogger(logger *slog.Logger) EncodeOption {
	return func(c *encodeConfig) {
		c.logger = logger
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (c *encodeConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// dirSlot is a reserved directory index entry.
type dirSlot struct {
	nameOffset  binio.Site
	filesBefore binio.Site
	childField  binio.Site
}

// encoder holds the state of a single Encode call.
type encoder struct {
	w *binio.Writer

	base        int       // start of the directory index
	slots       []dirSlot // slots 1..n; the root entry is written directly
	cursor      int       // next unclaimed index into slots
	nextID      uint8     // last directory ID written
	filesBefore uint16    // files named so far
	pairs       []binio.Site
}

// Encode serializes a to the container format.
//
// Nameless archives write no names; every file in the tree, including those
// in subdirectories, is written to the payload in content order and decodes
// as a root file named by its index.
func Encode(a *Archive, opts ...EncodeOption) ([]byte, error) {
	var cfg encodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if a.Root == nil || a.ByteOrder == nil {
		// Zero-value archives encode as empty little-endian archives.
		zero := *a
		if zero.Root == nil {
			zero.Root = NewDir("")
		}
		if zero.ByteOrder == nil {
			zero.ByteOrder = binary.LittleEndian
		}
		a = &zero
	}
	aligned := a.hasAlignment
	if cfg.alignmentSet {
		aligned = cfg.alignment
	}

	if !a.Nameless {
		if err := validateTree(a.Root); err != nil {
			return nil, err
		}
	}

	var files []*File
	for _, f := range a.Root.ContentOrder() {
		files = append(files, f)
	}
	if uint64(len(files)) > math.MaxUint32/contentEntrySize {
		return nil, fmt.Errorf("%w: %d files", ErrTooLarge, len(files))
	}

	e := &encoder{w: binio.NewWriter(a.ByteOrder)}
	w := e.w

	// Header.
	w.WriteString(magic)
	w.Uint16(byteOrderMark)
	w.Uint16(a.Version)
	total := w.Reserve32()
	w.Uint16(a.Reserved0)
	w.Uint16(a.Reserved1)

	// Content table.
	w.WriteString(tagContent)
	w.Uint32(uint32(len(files))*contentEntrySize + 12) //nolint:gosec // bounded above
	w.Uint32(uint32(len(files)))                       //nolint:gosec // bounded above
	e.pairs = make([]binio.Site, 0, 2*len(files))
	for range files {
		e.pairs = append(e.pairs, w.Reserve32(), w.Reserve32())
	}

	// Name table.
	namesStart := w.Len()
	w.WriteString(tagNames)
	namesLen := w.Reserve32()
	e.base = w.Len()
	if a.Nameless {
		w.Uint32(4)
		w.Uint16(0)
		w.Uint16(1)
	} else {
		e.writeDirTable(a)
		e.writeNames(a.Root)
	}
	if aligned {
		w.Align(Alignment)
	}
	w.Set(namesLen, uint32(w.Len()-namesStart)) //nolint:gosec // bounded by the final size check

	// Payload.
	payloadStart := w.Len()
	w.WriteString(tagPayload)
	payloadLen := w.Reserve32()
	dataBase := w.Len()
	for i, f := range files {
		start := w.Len() - dataBase
		_, _ = w.Write(f.content)
		end := w.Len() - dataBase
		if uint64(w.Len()) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: payload exceeds 4 GiB", ErrTooLarge)
		}
		w.Set(e.pairs[2*i], uint32(start))  //nolint:gosec // bounded above
		w.Set(e.pairs[2*i+1], uint32(end)) //nolint:gosec // bounded above
		if aligned {
			w.Align(Alignment)
		}
	}
	if uint64(w.Len()) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, w.Len())
	}
	w.Set(payloadLen, uint32(w.Len()-payloadStart)) //nolint:gosec // bounded above
	w.Set(total, uint32(w.Len()))                   //nolint:gosec // bounded above

	out, err := w.Finish()
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	cfg.log().Debug("encoded archive",
		"files", len(files),
		"directories", len(e.slots)+1,
		"nameless", a.Nameless,
		"aligned", aligned,
		"bytes", len(out))
	return out, nil
}

// validateTree checks every name below root before anything is written.
func validateTree(root *Dir) error {
	for p, n := range root.NameOrder() {
		if err := ValidateName(n.Name()); err != nil {
			return fmt.Errorf("encode %q: %w", p, err)
		}
	}
	return nil
}

// writeDirTable writes the root entry and reserves one entry per
// subdirectory.
func (e *encoder) writeDirTable(a *Archive) {
	dirs := a.DirCount()
	e.w.Uint32(uint32(dirs * dirEntrySize)) //nolint:gosec // one entry per directory
	e.w.Uint16(0)
	e.w.Uint16(uint16(len(a.Root.Dirs()) + 1)) //nolint:gosec // wraps like the on-disk field
	e.slots = make([]dirSlot, dirs-1)
	for i := range e.slots {
		e.slots[i] = dirSlot{
			nameOffset:  e.w.Reserve32(),
			filesBefore: e.w.Reserve16(),
			childField:  e.w.Reserve16(),
		}
	}
}

// writeNames writes dir's name list, then for each subdirectory claims the
// next slot, fills it in and recurses. Directory IDs follow name-write order
// while slots follow depth-first order, so the two numberings differ once
// any subdirectory has children of its own.
func (e *encoder) writeNames(dir *Dir) {
	w := e.w
	for _, c := range dir.children {
		switch n := c.(type) {
		case *Dir:
			e.nextID++
			w.Uint8(dirFlag | uint8(len(n.name))) //nolint:gosec // validated against MaxNameLen
			w.WriteString(n.name)
			w.Uint8(e.nextID)
			w.Uint8(dirMarker)
		case *File:
			w.Uint8(uint8(len(n.name))) //nolint:gosec // validated against MaxNameLen
			w.WriteString(n.name)
			e.filesBefore++
		}
	}
	w.Uint8(0)

	for _, sub := range dir.Dirs() {
		slot := e.slots[e.cursor]
		e.cursor++
		w.Set(slot.nameOffset, uint32(w.Len()-e.base)) //nolint:gosec // bounded by Encode
		w.Set(slot.filesBefore, uint32(e.filesBefore))
		child := uint32(noSubdirs)
		if n := len(sub.Dirs()); n > 0 {
			child = uint32(uint16(n + 1)) //nolint:gosec // wraps like the on-disk field
		}
		w.Set(slot.childField, child)
		e.writeNames(sub)
	}
}
