package view

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

func TestColumnLattice(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for fft := MinFFTSize; fft <= MaxFFTSize; fft *= 2 {
		for zoom := 1; zoom <= fft; zoom *= 3 {
			m := NewMapper(fft, zoom)
			spc := m.SamplesPerColumn()
			require.GreaterOrEqual(t, spc, int64(1))
			require.Equal(t, int64(fft/zoom), spc)

			for i := 0; i < 100; i++ {
				s := rng.Int63n(1 << 40)
				lattice := m.ColumnToSample(m.SampleToColumn(s))
				assert.LessOrEqual(t, lattice, s)
				assert.Less(t, s, lattice+spc)
			}
		}
	}
}

func TestClamping(t *testing.T) {
	tests := []struct {
		in, expected int
	}{
		{0, 16}, {16, 16}, {17, 16}, {24, 16}, {25, 32}, {512, 512}, {700, 512}, {800, 1024}, {100000, 8192},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClampFFTSize(tt.in), "fft %d", tt.in)
	}

	assert.Equal(t, 1, ClampZoom(0, 512))
	assert.Equal(t, 512, ClampZoom(4096, 512))

	m := NewMapper(512, 4096)
	assert.Equal(t, 512, m.Zoom())
	assert.EqualValues(t, 1, m.SamplesPerColumn())
}

func TestScrollBounds(t *testing.T) {
	m := NewMapper(1024, 1)
	m.SetTotal(1_000_000)

	tests := []struct {
		width    int
		expected int64
	}{
		{width: 0, expected: 977},
		{width: 500, expected: 477},
		{width: 977, expected: 0},
		{width: 2000, expected: 0},
	}
	for _, tt := range tests {
		m.Resize(tt.width, 100)
		assert.Equal(t, tt.expected, m.ScrollMax(), "width %d", tt.width)
	}

	m.Resize(500, 100)
	m.ScrollTo(0)
	assert.Equal(t, sample.Range[int64]{Minimum: 0, Maximum: 500 * 1024}, m.ViewRange())

	m.ScrollTo(10_000)
	assert.EqualValues(t, 477, m.Scroll())
	assert.EqualValues(t, 1_000_000, m.ViewRange().Maximum)

	m.ScrollTo(-5)
	assert.Zero(t, m.Scroll())

	m.SetPlotsHeight(1500)
	assert.Equal(t, 1400, m.VerticalMax())
	m.SetPlotsHeight(50)
	assert.Zero(t, m.VerticalMax())
}

func TestFirstColumnShowsFirstFFT(t *testing.T) {
	m := NewMapper(1024, 1)
	m.SetTotal(1_000_000)
	m.Resize(1, 1)
	assert.Equal(t, sample.Range[int64]{Minimum: 0, Maximum: 1024}, m.ViewRange())
}

func TestKeyboardZoomKeepsCentre(t *testing.T) {
	m := NewMapper(1024, 1)
	m.SetTotal(100_000_000)
	m.Resize(400, 300)
	m.ScrollTo(5000)

	centre := m.ColumnToSample(m.Scroll() + 200)
	require.True(t, m.SetFFTAndZoom(1024, 4, TriggerKeyboard, 0))
	assert.EqualValues(t, 256, m.SamplesPerColumn())

	got := m.ColumnToSample(m.Scroll() + 200)
	assert.LessOrEqual(t, got, centre)
	assert.Less(t, centre, got+m.SamplesPerColumn())

	assert.False(t, m.SetFFTAndZoom(1024, 4, TriggerKeyboard, 0))
}

func TestWheelZoomKeepsPointer(t *testing.T) {
	m := NewMapper(512, 1)
	m.SetTotal(50_000_000)
	m.Resize(800, 300)
	m.ScrollTo(1234)

	under := m.ColumnToSample(m.Scroll() + 100)
	assert.False(t, m.WheelZoom(60, 100))
	require.True(t, m.WheelZoom(60, 100))
	assert.Equal(t, 2, m.Zoom())

	got := m.ColumnToSample(m.Scroll() + 100)
	assert.LessOrEqual(t, got, under)
	assert.Less(t, under, got+m.SamplesPerColumn())

	require.True(t, m.WheelZoom(-240, 100))
	assert.Equal(t, 1, m.Zoom())
}

func TestSelectionSurvivesZoom(t *testing.T) {
	m := NewMapper(1024, 1)
	m.SetTotal(10_000_000)
	m.Resize(600, 200)
	m.ScrollTo(2000)

	sel := m.ColumnsToSampleRange(sample.Range[int]{Minimum: 280, Maximum: 320})
	m.SetFFTAndZoom(1024, 2, TriggerKeyboard, 0)

	cols := m.SampleRangeToColumns(sel)
	assert.Equal(t, 260, cols.Minimum)
	assert.Equal(t, 340, cols.Maximum)
}
