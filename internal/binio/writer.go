package binio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnpatched is returned by Finish when a reserved field was never set.
var ErrUnpatched = errors.New("binio: reserved field was never patched")

// Kind is the width of a reserved field.
type Kind uint8

const (
	Kind16 Kind = 2
	Kind32 Kind = 4
)

// Site identifies a field reserved during the forward pass.
type Site struct {
	Offset int
	Kind   Kind
	id     int
}

type patch struct {
	site  Site
	value uint32
	set   bool
}

// Writer is a growable output buffer.
//
// Values that are unknown while writing forward (lengths, offsets) are
// reserved with Reserve16/Reserve32 and assigned later with Set. Assigned
// values are recorded, not written; Finish applies every recorded patch in a
// second pass and returns the final buffer.
type Writer struct {
	buf     []byte
	order   binary.ByteOrder
	patches []patch
}

// NewWriter returns an empty Writer encoding integers in order. A nil order
// means little-endian.
func NewWriter(order binary.ByteOrder) *Writer {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Writer{buf: make([]byte, 0, 1024), order: order}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Order returns the byte order used for integers.
func (w *Writer) Order() binary.ByteOrder { return w.order }

// Write appends p. It never fails.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// WriteString appends the bytes of s.
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, s...)
}

// Uint8 appends one byte.
func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

// Uint16 appends v in the writer's byte order.
func (w *Writer) Uint16(v uint16) {
	w.buf = append(w.buf, 0, 0)
	w.order.PutUint16(w.buf[len(w.buf)-2:], v)
}

// Uint32 appends v in the writer's byte order.
func (w *Writer) Uint32(v uint32) {
	w.buf = append(w.buf, 0, 0, 0, 0)
	w.order.PutUint32(w.buf[len(w.buf)-4:], v)
}

// Zero appends n zero bytes.
func (w *Writer) Zero(n int) {
	for range n {
		w.buf = append(w.buf, 0)
	}
}

// Align pads with zeros until the buffer length is a multiple of n.
func (w *Writer) Align(n int) {
	if n <= 1 {
		return
	}
	if rem := len(w.buf) % n; rem != 0 {
		w.Zero(n - rem)
	}
}

// Reserve16 reserves a 16-bit field at the current position.
func (w *Writer) Reserve16() Site { return w.reserve(Kind16) }

// Reserve32 reserves a 32-bit field at the current position.
func (w *Writer) Reserve32() Site { return w.reserve(Kind32) }

func (w *Writer) reserve(k Kind) Site {
	s := Site{Offset: len(w.buf), Kind: k, id: len(w.patches)}
	w.Zero(int(k))
	w.patches = append(w.patches, patch{site: s})
	return s
}

// Set records the value for a reserved site. Setting a site twice keeps the
// last value. Values wider than the site are truncated.
func (w *Writer) Set(s Site, v uint32) {
	if s.id < 0 || s.id >= len(w.patches) || w.patches[s.id].site != s {
		panic(fmt.Sprintf("binio: set on unreserved site at offset %d", s.Offset))
	}
	w.patches[s.id].value = v
	w.patches[s.id].set = true
}

// Finish applies all recorded patches and returns the buffer. The Writer
// must not be used afterwards.
func (w *Writer) Finish() ([]byte, error) {
	for _, p := range w.patches {
		if !p.set {
			return nil, fmt.Errorf("%w: offset %d", ErrUnpatched, p.site.Offset)
		}
		dst := w.buf[p.site.Offset : p.site.Offset+int(p.site.Kind)]
		switch p.site.Kind {
		case Kind16:
			w.order.PutUint16(dst, uint16(p.value)) //nolint:gosec // field width is part of the format
		case Kind32:
			w.order.PutUint32(dst, p.value)
		}
	}
	out := w.buf
	w.buf, w.patches = nil, nil
	return out, nil
}
