package fsio

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/narc"
)

type extractJob struct {
	rel  string
	file *narc.File
}

// Extract writes the tree of a under dest, creating dest if needed.
//
// Every directory is created first, including empty ones. Files are then
// written concurrently, each through a temp file renamed into place. Existing
// files are skipped unless WithOverwrite is set. Where a directory holds
// several children with the same name only the first is extracted. Paths
// that are not local to dest are rejected before anything is written.
func Extract(ctx context.Context, a *narc.Archive, dest string, opts ...Option) (Stats, error) {
	cfg := newConfig(opts)
	var stats Stats

	var (
		dirs []string
		jobs []extractJob
		seen = make(map[string]bool)
	)
	for p, n := range a.Root.NameOrder() {
		if seen[p] {
			continue
		}
		seen[p] = true
		rel := filepath.FromSlash(p)
		if p == "." || !fs.ValidPath(p) || !filepath.IsLocal(rel) {
			return stats, &fs.PathError{Op: "extract", Path: p, Err: fs.ErrInvalid}
		}
		switch n := n.(type) {
		case *narc.Dir:
			dirs = append(dirs, rel)
		case *narc.File:
			jobs = append(jobs, extractJob{rel: rel, file: n})
		}
	}

	if err := os.MkdirAll(dest, 0o750); err != nil {
		return stats, fmt.Errorf("create destination %s: %w", dest, err)
	}
	root, err := os.OpenRoot(dest)
	if err != nil {
		return stats, fmt.Errorf("open destination root %s: %w", dest, err)
	}
	defer root.Close()

	for _, rel := range dirs {
		if err := root.MkdirAll(rel, 0o750); err != nil {
			return stats, fmt.Errorf("create directory %s: %w", rel, err)
		}
		stats.Dirs++
	}

	var written, skipped atomic.Int64
	var bytes atomic.Uint64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workerCount())
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !cfg.overwrite {
				if _, err := root.Lstat(job.rel); err == nil {
					cfg.log().Debug("skipped existing file", "path", job.rel)
					skipped.Add(1)
					return nil
				}
			}
			content := job.file.Content()
			if err := writeRootAtomic(root, job.rel, content); err != nil {
				return fmt.Errorf("extract %s: %w", job.rel, err)
			}
			written.Add(1)
			bytes.Add(uint64(len(content)))
			return nil
		})
	}
	err = g.Wait()

	stats.Files = int(written.Load())
	stats.Skipped = int(skipped.Load())
	stats.Bytes = bytes.Load()
	if err != nil {
		return stats, err
	}

	cfg.log().Info("extracted archive",
		"dest", dest,
		"files", stats.Files,
		"dirs", stats.Dirs,
		"skipped", stats.Skipped,
		"bytes", stats.Bytes)
	return stats, nil
}
