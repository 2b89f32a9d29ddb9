package plots

import (
	"image"
	"image/color"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/radio-inspector/internal/sample"
	"github.com/roman-kulish/radio-inspector/internal/spectrogram"
	"github.com/roman-kulish/radio-inspector/internal/tuner"
)

func names(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestRegistryCompatibility(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{AmplitudePlot, FrequencyPlot, PhasePlot, IQPlot}, names(r.Compatible(sample.Complex)))
	assert.Equal(t, []string{ThresholdPlot}, names(r.Compatible(sample.Scalar)))

	complexSrc := sample.NewMemory([]complex64{1, 1i, -1}, 0)
	scalarSrc := sample.NewMemory([]float32{1, 2, 3}, 0)

	p, err := r.Create(AmplitudePlot, complexSrc)
	require.NoError(t, err)
	assert.Equal(t, sample.Scalar, p.Output().ElementType())

	_, err = r.Create(AmplitudePlot, scalarSrc)
	assert.ErrorIs(t, err, ErrIncompatible)
	_, err = r.Create(ThresholdPlot, complexSrc)
	assert.ErrorIs(t, err, ErrIncompatible)

	p, err = r.Create(IQPlot, complexSrc)
	require.NoError(t, err)
	assert.IsType(t, &IQTracePlot{}, p)
	assert.Same(t, complexSrc, p.Output())

	r.Register(sample.Scalar, "Custom", func(src sample.Source) (Plot, error) { return nil, nil })
	assert.Len(t, r.Compatible(sample.Scalar), 2)
}

func TestFrequencyDerived(t *testing.T) {
	const f = 0.1
	in := make([]complex64, 100)
	for i := range in {
		in[i] = complex64(cmplx.Exp(complex(0, 2*math.Pi*f*float64(i))))
	}
	d := NewFrequency(sample.NewMemory(in, 0))

	all, ok := d.Samples(0, 100)
	require.True(t, ok)
	assert.Zero(t, all[0])
	for _, v := range all[1:] {
		assert.InDelta(t, 2*f, v, 1e-4)
	}

	part, ok := d.Samples(40, 10)
	require.True(t, ok)
	assert.Equal(t, all[40:50], part)

	_, ok = d.Samples(95, 10)
	assert.False(t, ok)
}

func TestAmplitudeAndPhase(t *testing.T) {
	src := sample.NewMemory([]complex64{3 + 4i, -2, 1i}, 0)

	amp, ok := NewAmplitude(src).Samples(0, 3)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{5, 2, 1}, amp, 1e-6)

	phase, ok := NewPhase(src).Samples(1, 2)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{1, 0.5}, phase, 1e-6)
}

func TestThresholdDeterministic(t *testing.T) {
	n := 3*ThresholdBlock + 100
	in := make([]float32, n)
	for i := range in {
		in[i] = float32(i % 7)
		if i >= ThresholdBlock {
			in[i] += 100
		}
	}
	d := NewThreshold(sample.NewMemory(in, 0))

	all, ok := d.Samples(0, int64(n))
	require.True(t, ok)
	part, ok := d.Samples(ThresholdBlock-50, 100)
	require.True(t, ok)
	assert.Equal(t, all[ThresholdBlock-50:ThresholdBlock+50], part)

	assert.EqualValues(t, 1, all[6])
	assert.EqualValues(t, 0, all[0])
	// ThresholdBlock%7 == 4, so these hold 106 and 100 around a mean near 103.
	assert.EqualValues(t, 1, all[ThresholdBlock+2])
	assert.EqualValues(t, 0, all[ThresholdBlock+3])
}

func TestDerivedForwardsInvalidation(t *testing.T) {
	d := NewAmplitude(sample.NewMemory([]complex64{1}, 0))
	calls := 0
	d.Subscribe(sample.NewListener(func() { calls++ }))
	d.Invalidated()
	assert.Equal(t, 1, calls)
	assert.EqualValues(t, 1, d.RelativeBandwidth())
}

func TestTracePlotPaint(t *testing.T) {
	src := sample.NewMemory([]float32{0, 0, 1, 1, -1, 1}, 0)
	p := NewTracePlot(src, 11, -1, 1)
	dst := image.NewRGBA(image.Rect(0, 0, 3, 11))

	v := View{Range: sample.Range[int64]{Minimum: 0, Maximum: 6}, SamplesPerColumn: 2}
	for _, layer := range Layers {
		p.Paint(dst, dst.Bounds(), v, layer)
	}

	assert.Equal(t, traceColor, dst.RGBAAt(0, 5))
	assert.NotEqual(t, traceColor, dst.RGBAAt(0, 4))
	assert.Equal(t, traceColor, dst.RGBAAt(1, 0))
	assert.NotEqual(t, traceColor, dst.RGBAAt(1, 5))
	for y := 0; y <= 10; y++ {
		assert.Equal(t, traceColor, dst.RGBAAt(2, y), "y %d", y)
	}
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}, dst.RGBAAt(1, 8))
}

func TestSpectrogramPlotOutput(t *testing.T) {
	src := sample.NewMemory(make([]complex64, 2048), 0)
	engine := spectrogram.New(src)
	tu := tuner.New(src, 512)
	p := NewSpectrogramPlot(engine, tu)

	assert.Same(t, src, p.Output())
	engine.EnableTuner(true)
	assert.Same(t, tu, p.Output())
	assert.Equal(t, 512, p.Height())

	require.NoError(t, p.Close())
	assert.Zero(t, src.Subscribers())
}

func TestDerivedRebase(t *testing.T) {
	a := sample.NewMemory([]complex64{1, 1, 1}, 0)
	b := sample.NewMemory([]complex64{3, 4i, -2}, 0)

	d := NewAmplitude(a)
	assert.Same(t, a, d.Upstream())

	rebased, ok := d.Rebase(b)
	require.True(t, ok)
	scalar, ok := rebased.AsScalar()
	require.True(t, ok)
	got, ok := scalar.Samples(0, 3)
	require.True(t, ok)
	assert.Equal(t, []float32{3, 4, 2}, got)

	// The original keeps reading its own parent.
	got, ok = d.Samples(0, 3)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 1, 1}, got)

	_, ok = d.Rebase(sample.NewMemory([]float32{1}, 0))
	assert.False(t, ok)
}
