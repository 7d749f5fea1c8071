// Package fsio moves archives between memory and the host file system: it
// packs directory trees into archives, extracts archives into directories,
// and reads and writes whole archive files.
package fsio

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Stats reports what Pack or Extract did.
type Stats struct {
	// Files is the number of files added or written.
	Files int
	// Dirs is the number of directories added or created.
	Dirs int
	// Skipped counts excluded, non-regular or already existing entries.
	Skipped int
	// Bytes is the total size of the files counted in Files.
	Bytes uint64
}

// ReadArchive reads a whole archive file.
func ReadArchive(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return data, nil
}

// WriteArchive writes data to path through a temp file in the same
// directory, so a partially written archive is never visible at path.
func WriteArchive(path string, data []byte) error {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("write archive %s: %w", path, err)
	}
	defer root.Close()
	if err := writeRootAtomic(root, filepath.Base(path), data); err != nil {
		return fmt.Errorf("write archive %s: %w", path, err)
	}
	return nil
}

// writeRootAtomic writes data under root to a temp file beside rel, then
// renames it over rel.
func writeRootAtomic(root *os.Root, rel string, data []byte) error {
	tmp, tmpRel, err := createTempFile(root, filepath.Dir(rel), ".narc-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()         //nolint:errcheck // best-effort cleanup
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := root.Rename(tmpRel, rel); err != nil {
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", rel, err)
	}
	return nil
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
