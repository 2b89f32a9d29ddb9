package plots

import (
	"math"
	"math/cmplx"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

// ThresholdBlock is the number of samples averaged to find the slicing level
// of a threshold plot.
const ThresholdBlock = 1 << 14

// Derived is a source computed sample by sample from a parent on the same
// sample axis.
type Derived[In, Out sample.Element] struct {
	sample.Notifier

	parent    sample.Typed[In]
	transform func(start, length int64) ([]Out, bool)
	rebuild   func(parent sample.Typed[In]) *Derived[In, Out]
}

// Rebaser is a derived source that can be built again over another parent.
type Rebaser interface {
	sample.Source
	Upstream() sample.Source
	Rebase(parent sample.Source) (sample.Source, bool)
}

func (d *Derived[In, Out]) Parent() sample.Typed[In] {
	return d.parent
}

// Upstream returns the parent as a plain source.
func (d *Derived[In, Out]) Upstream() sample.Source {
	return d.parent
}

// Rebase returns the same transform computed from parent. It fails when
// parent does not carry the input element type.
func (d *Derived[In, Out]) Rebase(parent sample.Source) (sample.Source, bool) {
	p, ok := parent.(sample.Typed[In])
	if !ok || d.rebuild == nil {
		return nil, false
	}
	return d.rebuild(p), true
}

// Invalidated forwards parent invalidation downstream.
func (d *Derived[In, Out]) Invalidated() {
	d.Invalidate()
}

func (d *Derived[In, Out]) ElementType() sample.ElementType {
	return sample.TypeOf[Out]()
}

func (d *Derived[In, Out]) Count() int64 {
	return d.parent.Count()
}

func (d *Derived[In, Out]) Rate() float64 {
	return d.parent.Rate()
}

func (d *Derived[In, Out]) RelativeBandwidth() float64 {
	return d.parent.RelativeBandwidth()
}

func (d *Derived[In, Out]) AsComplex() (sample.Typed[complex64], bool) {
	return sample.AsComplex[Out](d)
}

func (d *Derived[In, Out]) AsScalar() (sample.Typed[float32], bool) {
	return sample.AsScalar[Out](d)
}

func (d *Derived[In, Out]) Samples(start, length int64) ([]Out, bool) {
	if !sample.InBounds(start, length, d.parent.Count()) {
		return nil, false
	}
	return d.transform(start, length)
}

func pointwise[In, Out sample.Element](parent sample.Typed[In], fn func(In) Out) *Derived[In, Out] {
	return &Derived[In, Out]{
		parent: parent,
		transform: func(start, length int64) ([]Out, bool) {
			in, ok := parent.Samples(start, length)
			if !ok {
				return nil, false
			}
			out := make([]Out, len(in))
			for i, v := range in {
				out[i] = fn(v)
			}
			return out, true
		},
	}
}

// NewAmplitude returns |x|.
func NewAmplitude(parent sample.Typed[complex64]) *Derived[complex64, float32] {
	d := pointwise(parent, func(v complex64) float32 {
		return float32(cmplx.Abs(complex128(v)))
	})
	d.rebuild = NewAmplitude
	return d
}

// NewPhase returns arg(x)/pi, in [-1, 1].
func NewPhase(parent sample.Typed[complex64]) *Derived[complex64, float32] {
	d := pointwise(parent, func(v complex64) float32 {
		return float32(cmplx.Phase(complex128(v)) / math.Pi)
	})
	d.rebuild = NewPhase
	return d
}

// NewFrequency returns the instantaneous frequency arg(x[n]*conj(x[n-1]))/pi
// in half-cycles per sample. The first sample of the recording reads 0.
func NewFrequency(parent sample.Typed[complex64]) *Derived[complex64, float32] {
	d := &Derived[complex64, float32]{parent: parent, rebuild: NewFrequency}
	d.transform = func(start, length int64) ([]float32, bool) {
		from := max(0, start-1)
		in, ok := parent.Samples(from, start+length-from)
		if !ok {
			return nil, false
		}

		out := make([]float32, length)
		offset := start - from
		for i := range out {
			j := int64(i) + offset
			if j == 0 {
				continue
			}
			cur := complex128(in[j])
			prev := complex128(in[j-1])
			out[i] = float32(cmplx.Phase(cur*cmplx.Conj(prev)) / math.Pi)
		}
		return out, true
	}
	return d
}

// NewThreshold slices parent into 1 and 0 around the mean of the
// ThresholdBlock-aligned block holding each sample.
func NewThreshold(parent sample.Typed[float32]) *Derived[float32, float32] {
	d := &Derived[float32, float32]{parent: parent, rebuild: NewThreshold}
	d.transform = func(start, length int64) ([]float32, bool) {
		in, ok := parent.Samples(start, length)
		if !ok {
			return nil, false
		}

		out := make([]float32, length)
		block := int64(-1)
		var level float32
		for i, v := range in {
			if b := (start + int64(i)) / ThresholdBlock; b != block {
				block = b
				if level, ok = blockMean(parent, b); !ok {
					return nil, false
				}
			}
			if v >= level {
				out[i] = 1
			}
		}
		return out, true
	}
	return d
}

func blockMean(src sample.Typed[float32], block int64) (float32, bool) {
	start := block * ThresholdBlock
	length := min(int64(ThresholdBlock), src.Count()-start)
	in, ok := src.Samples(start, length)
	if !ok || len(in) == 0 {
		return 0, ok
	}
	var sum float64
	for _, v := range in {
		sum += float64(v)
	}
	return float32(sum / float64(len(in))), true
}
