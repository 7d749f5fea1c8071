package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/narc"
	"github.com/meigma/narc/compress"
	"github.com/meigma/narc/internal/testutil"
)

// run executes the root command with a config path that does not exist, so
// every test starts from the defaults.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestPackInspectExtract(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"a.txt":   "alpha",
		"d/b.bin": "beta",
		"e/":      "",
	}
	src := t.TempDir()
	testutil.WriteTree(t, src, files)
	archivePath := filepath.Join(t.TempDir(), "out.narc")

	out, err := run(t, "pack", src, archivePath, "--compression", "zstd")
	require.NoError(t, err)
	assert.Contains(t, out, "packed 2 files, 2 directories")

	raw, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, compress.Zstd, compress.Detect(raw))

	out, err = run(t, "info", archivePath)
	require.NoError(t, err)
	assert.Contains(t, out, "compression:  zstd")
	assert.Contains(t, out, "files:        2")

	out, err = run(t, "ls", archivePath)
	require.NoError(t, err)
	assert.Equal(t, "a.txt\t5\nd/\nd/b.bin\t4\ne/\n", out)

	out, err = run(t, "ls", archivePath, "/d/")
	require.NoError(t, err)
	assert.Equal(t, "d/b.bin\t4\n", out)

	out, err = run(t, "ls", "--digest", archivePath, "a.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "a.txt\t5\tsha256:"), out)

	out, err = run(t, "cat", archivePath, "d/b.bin")
	require.NoError(t, err)
	assert.Equal(t, "beta", out)

	out, err = run(t, "inspect", archivePath)
	require.NoError(t, err)
	assert.Contains(t, out, "BTAF")
	assert.Contains(t, out, "BTNF")
	assert.Contains(t, out, "GMIF")

	out, err = run(t, "verify", archivePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ok "), out)

	dest := filepath.Join(t.TempDir(), "extracted")
	_, err = run(t, "extract", archivePath, dest)
	require.NoError(t, err)
	assert.Equal(t, files, testutil.ReadTree(t, dest))
}

func TestAddAndRemove(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "new.narc")
	host := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(host, []byte("payload"), 0o600))

	_, err := run(t, "add", archivePath, "x/y.bin", host)
	require.NoError(t, err)
	_, err = run(t, "add", archivePath, "top.bin", host)
	require.NoError(t, err)

	out, err := run(t, "cat", archivePath, "x/y.bin")
	require.NoError(t, err)
	assert.Equal(t, "payload", out)

	_, err = run(t, "rm", archivePath, "x")
	require.Error(t, err, "non-empty directories need -r")

	_, err = run(t, "rm", "-r", archivePath, "x")
	require.NoError(t, err)
	_, err = run(t, "rm", archivePath, "top.bin")
	require.NoError(t, err)

	out, err = run(t, "ls", archivePath)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, "rm", archivePath, "missing")
	require.ErrorIs(t, err, narc.ErrNotFound)
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "a.narc")
	a := narc.New()
	require.NoError(t, a.AddFile("f", []byte("f")))
	data, err := narc.Encode(a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(archivePath, data, 0o600))

	garbage := filepath.Join(dir, "garbage.narc")
	require.NoError(t, os.WriteFile(garbage, []byte("not an archive"), 0o600))

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"cat missing file", []string{"cat", archivePath, "nope"}, narc.ErrNotFound},
		{"ls missing path", []string{"ls", archivePath, "nope"}, narc.ErrNotFound},
		{"decode garbage", []string{"info", garbage}, narc.ErrFormat},
		{"missing archive", []string{"info", filepath.Join(dir, "missing.narc")}, os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := run(t, tt.args...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAddToNamelessArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "nameless.narc")
	a := narc.New(narc.WithNameless(true))
	require.NoError(t, a.AddFile("0", []byte("x")))
	require.NoError(t, a.AddFile("1", []byte("y")))
	data, err := narc.Encode(a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(archivePath, data, 0o600))

	host := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(host, []byte("z"), 0o600))

	// The next index keeps the archive nameless.
	_, err = run(t, "add", archivePath, "2", host)
	require.NoError(t, err)
	out, err := run(t, "info", archivePath)
	require.NoError(t, err)
	assert.Contains(t, out, "nameless:     true")

	// A named path adds a name table instead of losing the name.
	_, err = run(t, "add", archivePath, "named/file.bin", host)
	require.NoError(t, err)
	out, err = run(t, "info", archivePath)
	require.NoError(t, err)
	assert.Contains(t, out, "nameless:     false")

	out, err = run(t, "cat", archivePath, "named/file.bin")
	require.NoError(t, err)
	assert.Equal(t, "z", out)
	out, err = run(t, "cat", archivePath, "1")
	require.NoError(t, err)
	assert.Equal(t, "y", out)
}
