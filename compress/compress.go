// Package compress wraps encoded archives in a zstd or lz4 frame and
// detects the frame again on the way back in.
//
// Archives are often distributed compressed. Unwrap recognizes both frame
// formats by their magic bytes and passes anything else through unchanged,
// so callers can feed it raw containers as well.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the frame format wrapped around an archive.
type Compression uint8

const (
	None Compression = iota
	Zstd
	LZ4
)

// DefaultMaxDecodedSize bounds the output of Unwrap (1 GiB).
const DefaultMaxDecodedSize = 1 << 30

var (
	// ErrUnknown is returned for unrecognized compression names or values.
	ErrUnknown = errors.New("compress: unknown compression")

	// ErrTooLarge is returned when decompressed data exceeds the configured limit.
	ErrTooLarge = errors.New("compress: decompressed data exceeds limit")
)

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// String returns the human-readable name of the compression algorithm.
func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// ParseCompression returns the Compression named s. The empty string means None.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return None, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknown, s)
	}
}

// Detect reports the frame format data starts with.
func Detect(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd
	case bytes.HasPrefix(data, lz4Magic):
		return LZ4
	default:
		return None
	}
}

// Option configures Unwrap.
type Option func(*config)

type config struct {
	maxDecodedSize int64
}

// WithMaxDecodedSize limits the decompressed size (default: DefaultMaxDecodedSize).
// Set limit to 0 to disable the limit.
func WithMaxDecodedSize(limit int64) Option {
	return func(c *config) {
		c.maxDecodedSize = limit
	}
}

// Wrap compresses data with c. None returns data unchanged.
func Wrap(data []byte, c Compression) ([]byte, error) {
	switch c {
	case None:
		return data, nil
	case Zstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	case LZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("write lz4 frame: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("close lz4 writer: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknown, c)
	}
}

// Unwrap decompresses data if it starts with a zstd or lz4 frame and
// reports which format was found. Other input is returned unchanged with None.
func Unwrap(data []byte, opts ...Option) ([]byte, Compression, error) {
	cfg := config{maxDecodedSize: DefaultMaxDecodedSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := Detect(data)
	switch c {
	case Zstd:
		dec, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, c, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer dec.Close()
		out, err := readLimited(dec, cfg.maxDecodedSize)
		if err != nil {
			return nil, c, fmt.Errorf("zstd: %w", err)
		}
		return out, c, nil
	case LZ4:
		out, err := readLimited(lz4.NewReader(bytes.NewReader(data)), cfg.maxDecodedSize)
		if err != nil {
			return nil, c, fmt.Errorf("lz4: %w", err)
		}
		return out, c, nil
	default:
		return data, None, nil
	}
}

// readLimited reads r to EOF, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return out, nil
}
