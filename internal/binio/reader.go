// Package binio provides the byte-level primitives used by the archive codec:
// a bounds-checked cursor over an input buffer and a growable output buffer
// whose unknown fields are reserved during the forward pass and patched
// before the buffer is handed out.
package binio

import (
	"encoding/binary"
	"io"
)

// Reader is a cursor over an in-memory buffer.
//
// Multi-byte integers are decoded with the reader's byte order, which may be
// switched at any point. Reads past the end of the buffer return
// io.ErrUnexpectedEOF and leave the position unchanged.
type Reader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte, order binary.ByteOrder) *Reader {
	return &Reader{data: data, order: order}
}

// At returns an independent Reader over the same buffer positioned at off.
// It is the equivalent of a temporary seek: moving the returned reader does
// not affect r.
func (r *Reader) At(off int) (*Reader, error) {
	if off < 0 || off > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	return &Reader{data: r.data, pos: off, order: r.order}, nil
}

// Limit returns a Reader over data[:end] at the current position.
// Reads that would cross end fail as if the buffer ended there.
func (r *Reader) Limit(end int) (*Reader, error) {
	if end < r.pos || end > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	return &Reader{data: r.data[:end], pos: r.pos, order: r.order}, nil
}

// Order returns the byte order used for multi-byte reads.
func (r *Reader) Order() binary.ByteOrder { return r.order }

// SetOrder switches the byte order used for subsequent reads.
func (r *Reader) SetOrder(order binary.ByteOrder) { r.order = order }

// Pos returns the current offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the size of the underlying buffer.
func (r *Reader) Len() int { return len(r.data) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Seek moves the cursor to the absolute offset off.
func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.data) {
		return io.ErrUnexpectedEOF
	}
	r.pos = off
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > r.Remaining() {
		return io.ErrUnexpectedEOF
	}
	r.pos += n
	return nil
}

// Bytes reads n bytes. The returned slice aliases the underlying buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, error) {
	if r.Remaining() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	return r.data[r.pos], nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.Peek()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

// Uint16 reads a 16-bit integer in the reader's byte order.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

// Uint32 reads a 32-bit integer in the reader's byte order.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}
