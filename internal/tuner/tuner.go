// Package tuner extracts a sub-band of a complex recording: the stream is
// mixed down by the passband centre and low-pass filtered to the passband
// width.
package tuner

import (
	"io"
	"log/slog"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/window"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

const (
	// MaxTaps bounds the filter length for very narrow passbands.
	MaxTaps = 4095

	minTaps       = 31
	maxTransition = 0.05
)

// WithLogger sets the logger for the tuner.
func WithLogger(logger *slog.Logger) func(t *Tuner) {
	return func(t *Tuner) {
		t.logger = logger
	}
}

// Tuner is a complex source equal to its parent translated by -centre and
// filtered to +/-deviation. Both are expressed in spectrogram bins at the
// current FFT size so overlays and the filter agree on the passband.
//
// The output keeps the parent's sample axis; the bandwidth reduction is
// reported through RelativeBandwidth for consumers that decimate.
type Tuner struct {
	sample.Notifier

	parent sample.Typed[complex64]

	fftSize   int
	centre    float64 // cycles per sample
	deviation float64 // cycles per sample
	taps      []float64

	moved  []func(deviation int)
	logger *slog.Logger
}

// New returns a tuner centred on DC with a deviation of fftSize/16 bins.
func New(parent sample.Typed[complex64], fftSize int, options ...func(t *Tuner)) *Tuner {
	if fftSize < 2 {
		fftSize = 2
	}
	t := &Tuner{
		parent:    parent,
		fftSize:   fftSize,
		deviation: 1.0 / 16,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(t)
	}
	t.design()
	return t
}

// Centre returns the passband centre in bins above DC.
func (t *Tuner) Centre() int {
	return int(math.Round(t.centre * float64(t.fftSize)))
}

// Deviation returns the passband half-width in bins.
func (t *Tuner) Deviation() int {
	return int(math.Round(t.deviation * float64(t.fftSize)))
}

func (t *Tuner) FFTSize() int {
	return t.fftSize
}

// Move sets the passband, clamping the centre to the Nyquist range and the
// deviation to [1, fftSize/2] bins. Subscribers and moved listeners are
// notified; the parent is not touched.
func (t *Tuner) Move(centre, deviation int) {
	half := t.fftSize / 2
	centre = max(-half, min(centre, half))
	deviation = max(1, min(deviation, half))

	t.centre = float64(centre) / float64(t.fftSize)
	t.deviation = float64(deviation) / float64(t.fftSize)
	t.design()

	t.logger.Debug("tuner moved", slog.Int("centre", centre), slog.Int("deviation", deviation))
	t.changed()
}

// SetFFTSize rescales the bin units. The passband keeps its frequency
// position and width, so the filter and the output are unchanged.
func (t *Tuner) SetFFTSize(n int) {
	if n < 2 || n == t.fftSize {
		return
	}
	t.fftSize = n
	for _, fn := range t.moved {
		fn(t.Deviation())
	}
}

// OnMoved registers fn to receive the passband half-width in bins whenever
// the passband or its units change.
func (t *Tuner) OnMoved(fn func(deviation int)) {
	t.moved = append(t.moved, fn)
}

// Taps returns the number of filter coefficients.
func (t *Tuner) Taps() int {
	return len(t.taps)
}

// Snapshot returns a tuner with the same passband and parent that is not
// affected by later Move calls.
func (t *Tuner) Snapshot() *Tuner {
	return &Tuner{
		parent:    t.parent,
		fftSize:   t.fftSize,
		centre:    t.centre,
		deviation: t.deviation,
		taps:      t.taps,
		logger:    t.logger,
	}
}

// Invalidated forwards parent invalidation downstream.
func (t *Tuner) Invalidated() {
	t.Invalidate()
}

func (t *Tuner) changed() {
	t.Invalidate()
	d := t.Deviation()
	for _, fn := range t.moved {
		fn(d)
	}
}

// design builds a Blackman-windowed sinc low-pass with unity gain at DC.
func (t *Tuner) design() {
	cutoff := t.deviation
	transition := min(cutoff, maxTransition)
	n := int(math.Ceil(5.5 / transition))
	n = max(minTaps, min(n, MaxTaps))
	if n%2 == 0 {
		n++
	}

	taps := make([]float64, n)
	half := n / 2
	for i := range taps {
		x := float64(i - half)
		if x == 0 {
			taps[i] = 2 * cutoff
			continue
		}
		taps[i] = math.Sin(2*math.Pi*cutoff*x) / (math.Pi * x)
	}
	window.Blackman(taps)

	var sum float64
	for _, v := range taps {
		sum += v
	}
	for i := range taps {
		taps[i] /= sum
	}
	t.taps = taps
}

func (t *Tuner) ElementType() sample.ElementType {
	return sample.Complex
}

func (t *Tuner) Count() int64 {
	return t.parent.Count()
}

func (t *Tuner) Rate() float64 {
	return t.parent.Rate()
}

// RelativeBandwidth is the passband width over the sample rate.
func (t *Tuner) RelativeBandwidth() float64 {
	return min(1, 2*t.deviation)
}

// Decimation is the stride matching the passband width.
func (t *Tuner) Decimation() int64 {
	return sample.Decimation(t)
}

func (t *Tuner) AsComplex() (sample.Typed[complex64], bool) {
	return t, true
}

func (t *Tuner) AsScalar() (sample.Typed[float32], bool) {
	return nil, false
}

// Samples mixes and filters [start, start+length). The mixer phase is derived
// from the absolute sample index and the filter is centred on each output
// sample, with zeros assumed outside the recording.
func (t *Tuner) Samples(start, length int64) ([]complex64, bool) {
	count := t.parent.Count()
	if !sample.InBounds(start, length, count) {
		return nil, false
	}
	if length == 0 {
		return []complex64{}, true
	}

	half := int64(len(t.taps) / 2)
	from := max(0, start-half)
	to := min(count, start+length+half)

	in, ok := t.parent.Samples(from, to-from)
	if !ok {
		return nil, false
	}

	// mixed[i] holds the translated sample at absolute index start-half+i.
	mixed := make([]complex128, length+2*half)
	for i, v := range in {
		n := from + int64(i)
		phase := -2 * math.Pi * math.Mod(t.centre*float64(n), 1)
		mixed[n-(start-half)] = complex128(v) * cmplx.Exp(complex(0, phase))
	}

	out := make([]complex64, length)
	for k := range out {
		var acc complex128
		seg := mixed[k : k+len(t.taps)]
		for j, c := range t.taps {
			acc += seg[j] * complex(c, 0)
		}
		out[k] = complex64(acc)
	}
	return out, true
}

// BandwidthHz converts a passband half-width in bins to the full passband
// width in Hz.
func BandwidthHz(deviation int, sampleRate float64, fftSize int) float64 {
	if fftSize <= 0 {
		return 0
	}
	return 2 * float64(deviation) * sampleRate / float64(fftSize)
}
