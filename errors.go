package narc

import (
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors for format failures. All of them match ErrFormat when
// returned from Decode or Inspect.
var (
	// ErrFormat is the base error for malformed archive data.
	ErrFormat = errors.New("narc: invalid archive")

	// ErrBadMagic is returned when a header or section tag does not match.
	ErrBadMagic = errors.New("narc: bad magic")

	// ErrBadByteOrder is returned when the byte-order mark is not recognized.
	ErrBadByteOrder = errors.New("narc: unknown byte order mark")

	// ErrTruncated is returned when the input ends before a required field.
	ErrTruncated = errors.New("narc: truncated data")

	// ErrInconsistent is returned when the tables disagree with each other.
	ErrInconsistent = errors.New("narc: inconsistent tables")

	// ErrTooManyFiles is returned when the content table exceeds the configured limit.
	ErrTooManyFiles = errors.New("narc: too many files")
)

// Sentinel errors for tree and encode failures.
var (
	// ErrNotFound is returned when a path does not resolve to the requested
	// node kind. It is fs.ErrNotExist so callers can test either.
	ErrNotFound = fs.ErrNotExist

	// ErrInvalidPath is returned for empty paths or paths with empty segments.
	ErrInvalidPath = errors.New("narc: invalid path")

	// ErrNotDir is returned when a path segment that must be a directory is a file.
	ErrNotDir = errors.New("narc: not a directory")

	// ErrIsDir is returned when a file operation targets a directory.
	ErrIsDir = errors.New("narc: is a directory")

	// ErrNameTooLong is returned for names longer than MaxNameLen bytes.
	ErrNameTooLong = errors.New("narc: name too long")

	// ErrInvalidName is returned for empty names below the root.
	ErrInvalidName = errors.New("narc: invalid name")

	// ErrCycle is returned when a directory would be attached beneath itself.
	ErrCycle = errors.New("narc: directory cannot contain itself")

	// ErrTooLarge is returned when an encoded archive would not fit the
	// format's 32-bit offsets.
	ErrTooLarge = errors.New("narc: archive too large")
)

// FormatError describes a decode failure in a specific section.
type FormatError struct {
	// Section is "header" or the four-character tag of the failing section.
	Section string
	// Offset is the absolute stream offset where the problem was detected.
	Offset int
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("narc: %s section at offset 0x%x: %v", e.Section, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is reports true for ErrFormat so that every FormatError can be matched
// without knowing its cause.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }
