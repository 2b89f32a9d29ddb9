package cursor

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/radio-inspector/internal/sample"
	"github.com/roman-kulish/radio-inspector/internal/view"
)

func ramp(n int) []float32 {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	return data
}

func TestExtractSymbolsMidpoints(t *testing.T) {
	src := sample.NewMemory(ramp(1000), 0)

	tests := []struct {
		name     string
		sel      sample.Range[int64]
		segments int
		want     []float32
	}{
		{"even", sample.Range[int64]{Minimum: 0, Maximum: 100}, 4, []float32{12, 37, 62, 87}},
		{"offset", sample.Range[int64]{Minimum: 200, Maximum: 230}, 3, []float32{205, 215, 225}},
		{"single", sample.Range[int64]{Minimum: 10, Maximum: 20}, 1, []float32{15}},
		{"fractional", sample.Range[int64]{Minimum: 0, Maximum: 10}, 3, []float32{1, 5, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractSymbols(src, tt.sel, tt.segments)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractSymbolsErrors(t *testing.T) {
	_, err := ExtractSymbols(sample.NewMemory([]complex64{1, 2}, 0), sample.Range[int64]{Maximum: 2}, 1)
	assert.ErrorIs(t, err, ErrNotScalar)

	scalar := sample.NewMemory(ramp(10), 0)
	_, err = ExtractSymbols(scalar, sample.Range[int64]{Minimum: 5, Maximum: 5}, 1)
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = ExtractSymbols(scalar, sample.Range[int64]{Minimum: 5, Maximum: 50}, 2)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSymbolSinks(t *testing.T) {
	symbols := []float32{1, -0.5, 0.25}

	var text bytes.Buffer
	require.NoError(t, WriteText(&text, symbols))
	assert.Equal(t, "1.000000, -0.500000, 0.250000\n", text.String())

	var raw bytes.Buffer
	require.NoError(t, WriteRaw(&raw, symbols))
	require.Equal(t, 12, raw.Len())
	assert.Equal(t, math.Float32bits(-0.5), binary.LittleEndian.Uint32(raw.Bytes()[4:]))
}

func TestMeasurement(t *testing.T) {
	m := Measurement{Samples: 2048, SampleRate: 8e6, Segments: 4}
	assert.InDelta(t, 256e-6, m.Period(), 1e-12)
	assert.InDelta(t, 3906.25, m.Rate(), 1e-6)
	assert.InDelta(t, 64e-6, m.SymbolPeriod(), 1e-12)
	assert.InDelta(t, 15625, m.SymbolRate(), 1e-6)
	assert.Contains(t, m.String(), "Rate: 3.906 kHz")
	assert.Contains(t, m.String(), "Symbol rate: 15.625 kBd")

	assert.Zero(t, Measurement{Samples: 10}.Rate())
}

func TestSelectorSegmentChange(t *testing.T) {
	s := NewSelector()
	s.SetSelected(sample.Range[int64]{Minimum: 1000, Maximum: 1400})
	s.SetSegments(4)
	assert.Equal(t, sample.Range[int64]{Minimum: 1000, Maximum: 2600}, s.Selected())

	// 4 segments of 400 samples; going down to 2 keeps the width.
	s.SetSegments(2)
	assert.Equal(t, sample.Range[int64]{Minimum: 1000, Maximum: 1800}, s.Selected())
	assert.EqualValues(t, 400, s.SamplesPerSegment())
}

func TestSelectorSurvivesZoom(t *testing.T) {
	m := view.NewMapper(512, 1)
	m.SetTotal(1 << 20)
	m.Resize(400, 300)

	s := NewSelector()
	s.Update(sample.Range[int]{Minimum: 120, Maximum: 80}, 2, m)
	assert.Equal(t, sample.Range[int64]{Minimum: 80 * 512, Maximum: 120 * 512}, s.Selected())
	assert.Equal(t, 2, s.Segments())

	m.SetFFTAndZoom(512, 2, view.TriggerKeyboard, 0)
	cols := s.Columns(m)
	assert.Equal(t, 80, cols.Length())
	assert.Equal(t, sample.Range[int64]{Minimum: 80 * 512, Maximum: 120 * 512}, m.ColumnsToSampleRange(cols))
}

func TestCursorsDrag(t *testing.T) {
	c := NewCursors()
	c.SetSelection(sample.Range[int]{Minimum: 100, Maximum: 50})
	assert.Equal(t, sample.Range[int]{Minimum: 50, Maximum: 100}, c.Selection())

	assert.False(t, c.Press(75))
	require.True(t, c.Press(97))
	assert.True(t, c.Move(120))
	assert.Equal(t, sample.Range[int]{Minimum: 50, Maximum: 120}, c.Selection())

	// Crossing the other edge swaps the held edge.
	assert.True(t, c.Move(20))
	assert.Equal(t, sample.Range[int]{Minimum: 20, Maximum: 50}, c.Selection())
	assert.True(t, c.Move(10))
	assert.Equal(t, sample.Range[int]{Minimum: 10, Maximum: 50}, c.Selection())
	assert.True(t, c.Release())
	assert.False(t, c.Move(30))
}

func TestCursorsFreeze(t *testing.T) {
	c := NewCursors()
	c.SetSelection(sample.Range[int]{Minimum: 10, Maximum: 40})
	c.SetSegments(3)
	assert.Equal(t, []int{20, 30}, c.Ticks())

	c.Freeze(true)
	assert.True(t, c.Frozen())
	assert.False(t, c.Press(10))
	assert.Equal(t, c.Selection(), c.Snapshot())

	c.Freeze(false)
	assert.True(t, c.Press(10))
}

func TestExportRange(t *testing.T) {
	sel := sample.Range[int64]{Minimum: 900, Maximum: 100}
	viewRange := sample.Range[int64]{Minimum: 50, Maximum: 500}

	r, err := ExportRange(RangeSelection, sel, viewRange, 600, true)
	require.NoError(t, err)
	assert.Equal(t, sample.Range[int64]{Minimum: 100, Maximum: 600}, r)

	_, err = ExportRange(RangeSelection, sel, viewRange, 600, false)
	assert.ErrorIs(t, err, ErrNoSelection)

	r, err = ExportRange(RangeView, sel, viewRange, 600, false)
	require.NoError(t, err)
	assert.Equal(t, viewRange, r)

	r, err = ExportRange(RangeFile, sel, viewRange, 600, false)
	require.NoError(t, err)
	assert.Equal(t, sample.Range[int64]{Maximum: 600}, r)
}

func complexRamp(n int) []complex64 {
	data := make([]complex64, n)
	for i := range data {
		data[i] = complex(float32(i), -float32(i))
	}
	return data
}

func decodeCF32(p []byte) []complex64 {
	out := make([]complex64, len(p)/8)
	for i := range out {
		re := math.Float32frombits(binary.LittleEndian.Uint32(p[i*8:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(p[i*8+4:]))
		out[i] = complex(re, im)
	}
	return out
}

func TestExportComplexRoundTrip(t *testing.T) {
	data := complexRamp(1000)
	src := sample.NewMemory(data, 0)

	var buf bytes.Buffer
	var progress []int64
	res, err := Export(context.Background(), src, sample.Range[int64]{Minimum: 10, Maximum: 810}, &buf, Options{
		Stride:    1,
		ChunkSize: 300,
		Progress:  func(done, total int64) { progress = append(progress, done) },
	})
	require.NoError(t, err)
	assert.False(t, res.Cancelled)
	assert.EqualValues(t, 800, res.Samples)
	assert.Equal(t, data[10:810], decodeCF32(buf.Bytes()))
	assert.Equal(t, []int64{300, 600, 800}, progress)
}

func TestExportStrideIsGlobal(t *testing.T) {
	src := sample.NewMemory(ramp(100), 0)

	var buf bytes.Buffer
	res, err := Export(context.Background(), src, sample.Range[int64]{Minimum: 3, Maximum: 40}, &buf, Options{
		Stride:    4,
		ChunkSize: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 10, res.Samples)

	got := make([]float32, buf.Len()/4)
	require.NoError(t, binary.Read(&buf, binary.LittleEndian, got))
	assert.Equal(t, []float32{3, 7, 11, 15, 19, 23, 27, 31, 35, 39}, got)
}

type cancelAfter struct {
	w      bytes.Buffer
	cancel context.CancelFunc
	writes int
	limit  int
}

func (c *cancelAfter) Write(p []byte) (int, error) {
	c.writes++
	if c.writes == c.limit {
		c.cancel()
	}
	return c.w.Write(p)
}

func TestExportCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := sample.NewMemory(complexRamp(1000), 0)
	w := &cancelAfter{cancel: cancel, limit: 2}
	res, err := Export(ctx, src, sample.Range[int64]{Maximum: 1000}, w, Options{Stride: 1, ChunkSize: 100})
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.EqualValues(t, 200, res.Samples)
	assert.Equal(t, 200*8, w.w.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestExportWriteFailure(t *testing.T) {
	src := sample.NewMemory(ramp(100), 0)
	_, err := Export(context.Background(), src, sample.Range[int64]{Minimum: 20, Maximum: 100}, failingWriter{}, Options{Stride: 1})

	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.EqualValues(t, 20, exportErr.Offset)
	assert.EqualError(t, exportErr.Err, "disk full")
}

func TestExportSkipsUnavailableChunks(t *testing.T) {
	src := sample.NewMemory(ramp(50), 0)

	var buf bytes.Buffer
	res, err := Export(context.Background(), src, sample.Range[int64]{Maximum: 100}, &buf, Options{Stride: 1, ChunkSize: 40})
	require.NoError(t, err)
	assert.EqualValues(t, 40, res.Samples)
	assert.Equal(t, 2, res.Skipped)
}
