// Package pathutil provides path manipulation for slash-separated archive paths.
package pathutil

import "strings"

// Split breaks a slash-separated path into its segments.
// The empty path has no segments. Empty segments are preserved so callers
// can reject or fail to match them.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Join appends name to dir. An empty dir yields name unchanged.
func Join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// Base returns the last element of a slash-separated path.
// If path is empty or ".", it returns ".".
func Base(path string) string {
	if path == "" || path == "." {
		return "."
	}
	// Remove trailing slash if present
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// TrimTrailing removes trailing slashes.
func TrimTrailing(path string) string {
	return strings.TrimRight(path, "/")
}

// FromFS converts an io/fs path to an archive path. The fs root "." maps to
// the empty path.
func FromFS(name string) string {
	if name == "." {
		return ""
	}
	return name
}
