package fsio

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/meigma/narc"
)

// Pack adds the contents of dir to a.
//
// The directory is walked in lexical order, so packing the same directory
// twice yields the same tree. Every directory is added explicitly, which
// keeps empty directories. Symbolic links and other non-regular files are
// skipped, as are entries matching the exclude patterns.
func Pack(ctx context.Context, dir string, a *narc.Archive, opts ...Option) (Stats, error) {
	cfg := newConfig(opts)
	var stats Stats

	root, err := os.OpenRoot(dir)
	if err != nil {
		return stats, fmt.Errorf("open source root %s: %w", dir, err)
	}
	defer root.Close()

	err = fs.WalkDir(root.FS(), ".", func(rel string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if shouldExclude(rel, cfg.exclude) {
			cfg.log().Debug("excluded", "path", rel)
			stats.Skipped++
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			if _, err := a.AddDirectory(rel); err != nil {
				return err
			}
			stats.Dirs++
			return nil
		case !d.Type().IsRegular():
			cfg.log().Debug("skipped non-regular file", "path", rel, "type", d.Type().String())
			stats.Skipped++
			return nil
		}

		data, err := root.ReadFile(rel)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		if err := a.AddFile(rel, data); err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += uint64(len(data))
		return nil
	})
	if err != nil {
		return stats, err
	}

	cfg.log().Info("packed directory",
		"dir", dir,
		"files", stats.Files,
		"dirs", stats.Dirs,
		"skipped", stats.Skipped,
		"bytes", stats.Bytes)
	return stats, nil
}

// shouldExclude reports whether the slash-separated relative path matches
// any exclusion pattern.
func shouldExclude(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if dirPattern, ok := strings.CutSuffix(pattern, "/"); ok {
			// A directory pattern matches any segment of the path.
			for part := range strings.SplitSeq(rel, "/") {
				if matched, _ := path.Match(dirPattern, part); matched || part == dirPattern {
					return true
				}
			}
			continue
		}
		if matched, err := path.Match(pattern, path.Base(rel)); err == nil && matched {
			return true
		}
		if strings.Contains(pattern, "/") {
			if matched, err := path.Match(pattern, rel); err == nil && matched {
				return true
			}
		}
	}
	return false
}
