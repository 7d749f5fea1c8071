package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meigma/narc"
	"github.com/meigma/narc/compress"
	"github.com/meigma/narc/internal/config"
	"github.com/meigma/narc/internal/fsio"
)

// app carries state shared by every command.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:          "narc",
		Short:        "Inspect, edit, pack and extract NARC archives",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "narc.yaml", "config file path")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newInfoCmd(a),
		newInspectCmd(a),
		newLsCmd(a),
		newCatCmd(a),
		newExtractCmd(a),
		newPackCmd(a),
		newAddCmd(a),
		newRmCmd(a),
		newVerifyCmd(a),
	)
	return cmd
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// load reads, unwraps and decodes the archive at path. It also returns the
// compression found on disk so edits can be written back the same way.
func (a *app) load(path string) (*narc.Archive, compress.Compression, error) {
	data, c, err := a.loadRaw(path)
	if err != nil {
		return nil, c, err
	}
	archive, err := narc.Decode(data, narc.DecodeWithLogger(a.logger))
	if err != nil {
		return nil, c, fmt.Errorf("decode %s: %w", path, err)
	}
	return archive, c, nil
}

// loadRaw reads and unwraps the archive at path without decoding it.
func (a *app) loadRaw(path string) ([]byte, compress.Compression, error) {
	data, err := fsio.ReadArchive(path)
	if err != nil {
		return nil, compress.None, err
	}
	data, c, err := compress.Unwrap(data)
	if err != nil {
		return nil, c, fmt.Errorf("unwrap %s: %w", path, err)
	}
	if c != compress.None {
		a.logger.Debug("unwrapped archive", "path", path, "compression", c.String())
	}
	return data, c, nil
}

// save encodes archive, wraps it with c and writes it atomically to path.
func (a *app) save(path string, archive *narc.Archive, c compress.Compression) error {
	data, err := narc.Encode(archive, narc.EncodeWithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data, err = compress.Wrap(data, c)
	if err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	if err := fsio.WriteArchive(path, data); err != nil {
		return err
	}
	a.logger.Info("wrote archive", "path", path, "bytes", len(data), "compression", c.String())
	return nil
}

// newArchive builds an empty archive from the configured defaults.
func (a *app) newArchive(aligned bool) *narc.Archive {
	order := binary.ByteOrder(binary.LittleEndian)
	if strings.EqualFold(a.cfg.ByteOrder, "big") {
		order = binary.BigEndian
	}
	return narc.New(
		narc.WithByteOrder(order),
		narc.WithVersion(a.cfg.Version),
		narc.WithAlignment(aligned),
	)
}

// outputCompression returns the configured compression, overridden by a
// non-empty flag value.
func (a *app) outputCompression(flag string) (compress.Compression, error) {
	if flag == "" {
		flag = a.cfg.Compression
	}
	return compress.ParseCompression(flag)
}

func (a *app) fsioOptions() []fsio.Option {
	return []fsio.Option{
		fsio.WithLogger(a.logger),
		fsio.WithExclude(a.cfg.Exclude...),
		fsio.WithWorkers(a.cfg.Workers),
		fsio.WithOverwrite(a.cfg.Overwrite),
	}
}

// fileExists reports whether path names an existing file.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
