package narc

import (
	"strings"

	"github.com/meigma/narc/internal/pathutil"
)

// NormalizePath converts a user-provided path to the form used by tree
// operations.
//
// It performs the following transformations:
//   - Strips leading slashes: "/a/b" → "a/b"
//   - Strips trailing slashes: "a/b/" → "a/b"
//   - Collapses consecutive slashes: "a//b" → "a/b"
//   - Converts "/" and "." to the root: "" (empty)
//
// Tree operations themselves match paths exactly; callers taking paths from
// users (the CLI, for example) normalise first.
func NormalizePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return ""
	}

	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return strings.Join(result, "/")
}

// ValidateName checks that name can be stored in the name table.
func ValidateName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}

// splitPath splits a path for creation, rejecting empty paths, empty
// segments and names that cannot be encoded.
func splitPath(path string) ([]string, error) {
	segs := pathutil.Split(path)
	if len(segs) == 0 {
		return nil, ErrInvalidPath
	}
	for _, s := range segs {
		if s == "" {
			return nil, ErrInvalidPath
		}
		if err := ValidateName(s); err != nil {
			return nil, err
		}
	}
	return segs, nil
}
