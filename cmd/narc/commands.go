package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meigma/narc"
	"github.com/meigma/narc/compress"
	"github.com/meigma/narc/internal/fsio"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <archive>",
		Short: "Print archive header fields and counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, c, err := a.load(args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "byte order:\t%s\n", archive.ByteOrder)
			fmt.Fprintf(w, "version:\t0x%04x\n", archive.Version)
			fmt.Fprintf(w, "reserved:\t%d %d\n", archive.Reserved0, archive.Reserved1)
			fmt.Fprintf(w, "nameless:\t%t\n", archive.Nameless)
			fmt.Fprintf(w, "aligned:\t%t\n", archive.HasAlignment())
			fmt.Fprintf(w, "files:\t%d\n", archive.FileCount())
			fmt.Fprintf(w, "directories:\t%d\n", archive.DirCount())
			fmt.Fprintf(w, "compression:\t%s\n", c)
			fmt.Fprintf(w, "fingerprint:\t%016x\n", archive.Fingerprint())
			return w.Flush()
		},
	}
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <archive>",
		Short: "Dump the raw section layout and tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := a.loadRaw(args[0])
			if err != nil {
				return err
			}
			layout, err := narc.Inspect(data, narc.DecodeWithLogger(a.logger))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "header\tbyte order %s\tversion 0x%04x\tlength %d\n",
				layout.ByteOrder, layout.Version, layout.TotalLength)
			for _, s := range layout.Sections {
				fmt.Fprintf(w, "section\t%s\toffset 0x%x\tlength %d\n", s.Tag, s.Offset, s.Length)
			}
			for i, s := range layout.Content {
				fmt.Fprintf(w, "content\t%d\t0x%x-0x%x\t%d bytes\n", i, s.Start, s.End, s.Len())
			}
			for _, d := range layout.Dirs {
				fmt.Fprintf(w, "dir\t%d\t/%s\tnames 0x%x\tfiles before %d\tchild 0x%04x\n",
					d.Slot, d.Path, d.NameOffset, d.FilesBefore, d.ChildField)
			}
			for _, n := range layout.Names {
				if n.IsDir {
					fmt.Fprintf(w, "name\t%d\t%s/\tid %d\n", n.Slot, n.Name, n.ID)
					continue
				}
				fmt.Fprintf(w, "name\t%d\t%s\t\n", n.Slot, n.Name)
			}
			fmt.Fprintf(w, "aligned\t%t\n", layout.Aligned())
			return w.Flush()
		},
	}
}

func newLsCmd(a *app) *cobra.Command {
	var withDigest bool
	cmd := &cobra.Command{
		Use:   "ls <archive> [path]",
		Short: "List archive contents in name order",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, _, err := a.load(args[0])
			if err != nil {
				return err
			}
			var start string
			if len(args) == 2 {
				start = narc.NormalizePath(args[1])
			}
			n, ok := archive.Root.Lookup(start)
			if !ok {
				return fmt.Errorf("ls %s: %w", start, narc.ErrNotFound)
			}

			out := cmd.OutOrStdout()
			dir, ok := n.(*narc.Dir)
			if !ok {
				return printEntry(out, start, n, withDigest)
			}
			for p, child := range dir.NameOrder() {
				if start != "" {
					p = start + "/" + p
				}
				if err := printEntry(out, p, child, withDigest); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withDigest, "digest", false, "print the sha256 digest of each file")
	return cmd
}

func printEntry(w io.Writer, p string, n narc.Node, withDigest bool) error {
	var err error
	switch n := n.(type) {
	case *narc.Dir:
		_, err = fmt.Fprintf(w, "%s/\n", p)
	case *narc.File:
		if withDigest {
			_, err = fmt.Fprintf(w, "%s\t%d\t%s\n", p, n.Size(), n.Digest())
		} else {
			_, err = fmt.Fprintf(w, "%s\t%d\n", p, n.Size())
		}
	}
	return err
}

func newCatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <archive> <path>",
		Short: "Write a file's contents to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, _, err := a.load(args[0])
			if err != nil {
				return err
			}
			data, err := archive.GetFile(narc.NormalizePath(args[1]))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newExtractCmd(a *app) *cobra.Command {
	var (
		overwrite bool
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "extract <archive> <dest>",
		Short: "Extract an archive into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, _, err := a.load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("overwrite") {
				a.cfg.Overwrite = overwrite
			}
			if cmd.Flags().Changed("workers") {
				a.cfg.Workers = workers
			}
			stats, err := fsio.Extract(cmd.Context(), archive, args[1], a.fsioOptions()...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "extracted %d files, %d directories, skipped %d\n",
				stats.Files, stats.Dirs, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing files")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel file writers (0 uses GOMAXPROCS)")
	return cmd
}

func newPackCmd(a *app) *cobra.Command {
	var (
		compression string
		aligned     bool
		nameless    bool
		exclude     []string
	)
	cmd := &cobra.Command{
		Use:   "pack <dir> <archive>",
		Short: "Pack a directory into a new archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.outputCompression(compression)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("alignment") {
				aligned = a.cfg.Alignment
			}
			archive := a.newArchive(aligned)
			archive.Nameless = nameless
			a.cfg.Exclude = append(a.cfg.Exclude, exclude...)

			stats, err := fsio.Pack(cmd.Context(), args[0], archive, a.fsioOptions()...)
			if err != nil {
				return err
			}
			if err := a.save(args[1], archive, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "packed %d files, %d directories, skipped %d\n",
				stats.Files, stats.Dirs, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&compression, "compression", "c", "", "output compression: none, zstd or lz4")
	cmd.Flags().BoolVar(&aligned, "alignment", false, "pad payload entries to 128 bytes")
	cmd.Flags().BoolVar(&nameless, "nameless", false, "omit the name table")
	cmd.Flags().StringSliceVarP(&exclude, "exclude", "x", nil, "additional exclude patterns")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var compression string
	cmd := &cobra.Command{
		Use:   "add <archive> <path> <host-file>",
		Short: "Add or replace a file, creating the archive if needed",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, c, err := a.loadOrCreate(args[0])
			if err != nil {
				return err
			}
			if compression != "" {
				if c, err = a.outputCompression(compression); err != nil {
					return err
				}
			}
			data, err := os.ReadFile(args[2]) //nolint:gosec // path is chosen by the user
			if err != nil {
				return err
			}
			p := narc.NormalizePath(args[1])
			if archive.Nameless && !indexName(archive, p) {
				a.logger.Warn("archive gains a name table", "path", p)
				archive.Nameless = false
			}
			if err := archive.AddFile(p, data); err != nil {
				return err
			}
			return a.save(args[0], archive, c)
		},
	}
	cmd.Flags().StringVarP(&compression, "compression", "c", "", "output compression: none, zstd or lz4")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "rm <archive> <path>",
		Short: "Remove a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, c, err := a.load(args[0])
			if err != nil {
				return err
			}
			p := narc.NormalizePath(args[1])
			n, ok := archive.Root.Lookup(p)
			if !ok || p == "" {
				return fmt.Errorf("rm %s: %w", args[1], narc.ErrNotFound)
			}
			switch n.(type) {
			case *narc.File:
				archive.RemoveFile(p)
			case *narc.Dir:
				if !archive.RemoveDirectory(p, recursive) {
					return fmt.Errorf("rm %s: directory not empty (use -r)", p)
				}
			}
			return a.save(args[0], archive, c)
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "remove directories and their contents")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <archive>",
		Short: "Check that an archive decodes and re-encodes to the same tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := a.loadRaw(args[0])
			if err != nil {
				return err
			}
			first, err := narc.Decode(data, narc.DecodeWithLogger(a.logger))
			if err != nil {
				return err
			}
			encoded, err := narc.Encode(first, narc.EncodeWithLogger(a.logger))
			if err != nil {
				return err
			}
			second, err := narc.Decode(encoded, narc.DecodeWithLogger(a.logger))
			if err != nil {
				return fmt.Errorf("re-decode: %w", err)
			}
			if first.Fingerprint() != second.Fingerprint() {
				return errors.New("verify: re-encoded archive decodes to a different tree")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok %016x (%d files, byte-identical: %t)\n",
				first.Fingerprint(), first.FileCount(), bytes.Equal(data, encoded))
			return nil
		},
	}
}

// loadOrCreate loads path, or returns a new archive when it does not exist.
func (a *app) loadOrCreate(path string) (*narc.Archive, compress.Compression, error) {
	if !fileExists(path) {
		c, err := a.outputCompression("")
		return a.newArchive(a.cfg.Alignment), c, err
	}
	return a.load(path)
}

// indexName reports whether p can be stored in a nameless archive: it
// replaces an existing root file or appends at the next index.
func indexName(archive *narc.Archive, p string) bool {
	if p == strconv.Itoa(archive.FileCount()) {
		return true
	}
	_, err := archive.GetFile(p)
	return err == nil && !strings.Contains(p, "/")
}
