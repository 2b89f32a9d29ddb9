package app

import (
	"bytes"
	"context"
	"encoding/binary"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecording(t *testing.T, dir string, n int) string {
	t.Helper()
	p := make([]byte, 0, n*8)
	for i := 0; i < n; i++ {
		phase := 2 * math.Pi * 0.25 * float64(i)
		p = binary.LittleEndian.AppendUint32(p, math.Float32bits(float32(0.5*math.Cos(phase))))
		p = binary.LittleEndian.AppendUint32(p, math.Float32bits(float32(0.5*math.Sin(phase))))
	}
	path := filepath.Join(dir, "beacon-f433.92e6-s2e6-t0.cfile")
	require.NoError(t, os.WriteFile(path, p, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var level slog.LevelVar
	cmd := NewRootCommand(slog.New(slog.NewTextHandler(io.Discard, nil)), &level)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, 10000)

	out, err := run(t, "info", path, "--db", filepath.Join(dir, "none.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "cf32")
	assert.Contains(t, out, "10,000")
	assert.Contains(t, out, "2 MHz")
	assert.Contains(t, out, "433.92 MHz")
	assert.Contains(t, out, "5ms")
}

func TestInvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, 1000)

	_, err := run(t, "info", path, "--theme", "neon")
	assert.ErrorContains(t, err, "invalid theme")

	_, err = run(t, "info", path, "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, 1000)
	config := filepath.Join(dir, "iqview.yaml")
	require.NoError(t, os.WriteFile(config, []byte("display:\n  theme: jungle\n"), 0o644))

	t.Setenv("IQVIEW_DISPLAY_THEME", "neon")
	_, err := run(t, "info", path, "--config", config)
	assert.ErrorContains(t, err, "neon")

	_, err = run(t, "info", path, "--config", config, "--theme", "marine")
	assert.NoError(t, err)
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, 1<<15)
	output := filepath.Join(dir, "view.png")

	_, err := run(t, "render", path, "-o", output,
		"--width", "64", "--derive", "amplitude", "--time-scale", "--select", "0:8192", "--segments", "4",
		"--db", filepath.Join(dir, "none.db"))
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 512+200, img.Bounds().Dy())
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, 4096)
	output := filepath.Join(dir, "out.f32")

	_, err := run(t, "export", path, "-o", output, "--select", "1000:2000", "--db", filepath.Join(dir, "none.db"))
	require.NoError(t, err)
	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.EqualValues(t, 1000*8, info.Size())

	_, err = run(t, "export", path, "-o", output, "--derive", "amplitude", "--stride", "4", "--db", filepath.Join(dir, "none.db"))
	require.NoError(t, err)
	info, err = os.Stat(output)
	require.NoError(t, err)
	assert.EqualValues(t, 1024*4, info.Size())

	_, err = run(t, "export", path, "--range", "everything")
	assert.Error(t, err)
}

func TestSymbolsCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, 4096)

	out, err := run(t, "symbols", path, "--select", "0:4000", "--segments", "4", "--db", filepath.Join(dir, "none.db"))
	require.NoError(t, err)
	assert.Equal(t, "0.500000, 0.500000, 0.500000, 0.500000\n", out)

	// The whole recording split in eight still reads inside the file.
	out, err = run(t, "symbols", path, "--select", "0:4096", "--segments", "8", "--db", filepath.Join(dir, "none.db"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), ", "), 8)

	_, err = run(t, "symbols", path, "--db", filepath.Join(dir, "none.db"))
	assert.Error(t, err)
}

func TestAnnotateCommands(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, 4096)
	db := filepath.Join(dir, "iqview.db")

	_, err := run(t, "annotate", "add", path, "--db", db, "--start", "100", "--length", "50", "--label", "sync", "--comment", "preamble")
	require.NoError(t, err)
	_, err = run(t, "annotate", "add", path, "--db", db, "--start", "3000", "--length", "500", "--label", "data")
	require.NoError(t, err)
	_, err = run(t, "annotate", "add", path, "--db", db, "--length", "0")
	assert.Error(t, err)

	out, err := run(t, "annotate", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = run(t, "annotate", "list", path, "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "sync")
	assert.Contains(t, lines[0], "preamble")
	assert.Contains(t, lines[1], "data")

	out, err = run(t, "annotate", "list", path, "--db", db, "--overlapping", "2000:4000")
	require.NoError(t, err)
	assert.NotContains(t, out, "sync")
	assert.Contains(t, out, "data")

	out, err = run(t, "info", path, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "sync: preamble")
}
