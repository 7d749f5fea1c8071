package binio

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_ByteOrderSwitch(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{0x01, 0x02, 0x01, 0x02}, binary.BigEndian)
	v, err := r.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v)

	r.SetOrder(binary.LittleEndian)
	v, err = r.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), v)
	assert.Equal(t, 0, r.Remaining())
}

func TestReader_ShortReads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		read func(*Reader) error
	}{
		{"uint8", func(r *Reader) error { _, err := r.Uint8(); return err }},
		{"uint16", func(r *Reader) error { _, err := r.Uint16(); return err }},
		{"uint32", func(r *Reader) error { _, err := r.Uint32(); return err }},
		{"bytes", func(r *Reader) error { _, err := r.Bytes(4); return err }},
		{"skip", func(r *Reader) error { return r.Skip(4) }},
		{"negative bytes", func(r *Reader) error { _, err := r.Bytes(-1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewReader([]byte{0xAA, 0xBB, 0xCC}, binary.LittleEndian)
			require.NoError(t, r.Skip(2))
			if tt.name == "uint8" {
				require.NoError(t, r.Skip(1))
			}
			err := tt.read(r)
			require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		})
	}
}

func TestReader_AtIsIndependent(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{1, 2, 3, 4}, binary.LittleEndian)
	sub, err := r.At(2)
	require.NoError(t, err)

	b, err := sub.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(3), b)
	assert.Equal(t, 0, r.Pos())

	_, err = r.At(5)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReader_Limit(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{1, 2, 3, 4}, binary.LittleEndian)
	lim, err := r.Limit(2)
	require.NoError(t, err)

	_, err = lim.Bytes(3)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	b, err := lim.Bytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)
}

func TestWriter_PatchesAppliedOnFinish(t *testing.T) {
	t.Parallel()

	w := NewWriter(binary.BigEndian)
	w.WriteString("HEAD")
	length := w.Reserve32()
	count := w.Reserve16()
	w.Uint8(0xFF)

	w.Set(count, 7)
	w.Set(length, uint32(w.Len()))

	out, err := w.Finish()
	require.NoError(t, err)
	assert.Equal(t, []byte{'H', 'E', 'A', 'D', 0, 0, 0, 11, 0, 7, 0xFF}, out)
}

func TestWriter_UnpatchedSiteFails(t *testing.T) {
	t.Parallel()

	w := NewWriter(binary.LittleEndian)
	w.Reserve32()
	_, err := w.Finish()
	require.ErrorIs(t, err, ErrUnpatched)
}

func TestWriter_Align(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		written int
		align   int
		want    int
	}{
		{"already aligned", 128, 128, 128},
		{"pads up", 129, 128, 256},
		{"empty", 0, 128, 0},
		{"align one", 5, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := NewWriter(binary.LittleEndian)
			w.Zero(tt.written)
			w.Align(tt.align)
			assert.Equal(t, tt.want, w.Len())
		})
	}
}

func TestWriter_LittleEndian(t *testing.T) {
	t.Parallel()

	w := NewWriter(binary.LittleEndian)
	w.Uint16(0xFFFE)
	w.Uint32(0x01020304)
	out, err := w.Finish()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFE, 0xFF, 0x04, 0x03, 0x02, 0x01}, out)
}

func TestWriter_ByteOrders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		order binary.ByteOrder
		want  []byte
	}{
		{"big endian", binary.BigEndian, []byte{0xFF, 0xFE, 0x01, 0x02, 0x03, 0x04, 0x00, 0x05}},
		{"little endian", binary.LittleEndian, []byte{0xFE, 0xFF, 0x04, 0x03, 0x02, 0x01, 0x05, 0x00}},
		{"nil defaults to little endian", nil, []byte{0xFE, 0xFF, 0x04, 0x03, 0x02, 0x01, 0x05, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := NewWriter(tt.order)
			w.Uint16(0xFFFE)
			w.Uint32(0x01020304)
			site := w.Reserve16()
			w.Set(site, 5)
			out, err := w.Finish()
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}
