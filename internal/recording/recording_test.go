package recording

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

func TestParseFilename(t *testing.T) {
	freq, rate, ok := ParseFilename("/tmp/capture-f4.3392e8-s2e6-t20240101.cfile")
	require.True(t, ok)
	assert.Equal(t, 433.92e6, freq)
	assert.Equal(t, 2e6, rate)

	_, _, ok = ParseFilename("capture.cfile")
	assert.False(t, ok)
	_, _, ok = ParseFilename("x-fabc-s1-t.cfile")
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	rec, err := Describe("keyfob-f433920000-s1000000-t1.cfile", "")
	require.NoError(t, err)
	assert.Equal(t, sample.FormatCF32, rec.Format)
	assert.Equal(t, 433920000.0, rec.CenterFrequency)
	assert.Equal(t, 1e6, rec.SampleRate)

	rec, err = Describe("dump.cu8", "")
	require.NoError(t, err)
	assert.Equal(t, sample.FormatCU8, rec.Format)

	rec, err = Describe("dump.cu8", "cs16")
	require.NoError(t, err)
	assert.Equal(t, sample.FormatCS16, rec.Format)

	_, err = Describe("dump.cu8", "wav")
	assert.Error(t, err)
}

func TestDescribeSigMF(t *testing.T) {
	dir := t.TempDir()
	meta := `{
  "global": {"core:datatype": "ci16_le", "core:sample_rate": 2400000},
  "captures": [{"core:sample_start": 0, "core:frequency": 868000000}],
  "annotations": [
    {"core:sample_start": 100, "core:sample_count": 50, "core:label": "burst", "core:comment": "preamble"},
    {"core:sample_start": 400, "core:sample_count": 10, "core:freq_lower_edge": 867.9e6, "core:freq_upper_edge": 868.1e6}
  ]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rec.sigmf-meta"), []byte(meta), 0o644))

	rec, err := Describe(filepath.Join(dir, "rec.sigmf-data"), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rec.sigmf-data"), rec.Path)
	assert.Equal(t, sample.FormatCS16, rec.Format)
	assert.Equal(t, 2.4e6, rec.SampleRate)
	assert.Equal(t, 868e6, rec.CenterFrequency)
	require.Len(t, rec.Annotations, 2)

	assert.Equal(t, "burst: preamble", rec.Annotations[0].Tooltip())
	assert.False(t, rec.Annotations[0].HasFrequency())
	assert.True(t, rec.Annotations[1].HasFrequency())
	assert.Equal(t, sample.Range[int64]{Minimum: 400, Maximum: 410}, rec.Annotations[1].Range())
}
