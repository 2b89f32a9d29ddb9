package plots

import (
	"errors"
	"fmt"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

// ErrIncompatible is returned when a factory receives a source of the wrong
// element type.
var ErrIncompatible = errors.New("incompatible source")

// Factory builds a plot over src.
type Factory func(src sample.Source) (Plot, error)

// Entry is a registered derived plot.
type Entry struct {
	Input   sample.ElementType
	Name    string
	Factory Factory
}

// Registry maps element types to the plots accepting them.
type Registry struct {
	entries map[sample.ElementType][]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[sample.ElementType][]Entry)}
}

// Register appends an entry for input sources of type t.
func (r *Registry) Register(t sample.ElementType, name string, f Factory) {
	r.entries[t] = append(r.entries[t], Entry{Input: t, Name: name, Factory: f})
}

// Compatible returns the entries accepting sources of type t, in
// registration order.
func (r *Registry) Compatible(t sample.ElementType) []Entry {
	return append([]Entry(nil), r.entries[t]...)
}

// Create builds the plot registered as name for src.
func (r *Registry) Create(name string, src sample.Source) (Plot, error) {
	for _, e := range r.entries[src.ElementType()] {
		if e.Name == name {
			return e.Factory(src)
		}
	}
	return nil, fmt.Errorf("%w: no %q plot for %s sources", ErrIncompatible, name, src.ElementType())
}

const (
	AmplitudePlot = "Amplitude plot"
	FrequencyPlot = "Frequency plot"
	PhasePlot     = "Phase plot"
	IQPlot        = "IQ plot"
	ThresholdPlot = "Threshold plot"
)

// Default returns the registry of built-in derived plots.
func Default() *Registry {
	r := NewRegistry()

	r.Register(sample.Complex, AmplitudePlot, complexTrace(func(c sample.Typed[complex64]) sample.Typed[float32] {
		return NewAmplitude(c)
	}, 0, 1))
	r.Register(sample.Complex, FrequencyPlot, complexTrace(func(c sample.Typed[complex64]) sample.Typed[float32] {
		return NewFrequency(c)
	}, -1, 1))
	r.Register(sample.Complex, PhasePlot, complexTrace(func(c sample.Typed[complex64]) sample.Typed[float32] {
		return NewPhase(c)
	}, -1, 1))
	r.Register(sample.Complex, IQPlot, func(src sample.Source) (Plot, error) {
		c, ok := src.AsComplex()
		if !ok {
			return nil, ErrIncompatible
		}
		return NewIQTracePlot(c, DefaultTraceHeight), nil
	})

	r.Register(sample.Scalar, ThresholdPlot, func(src sample.Source) (Plot, error) {
		s, ok := src.AsScalar()
		if !ok {
			return nil, ErrIncompatible
		}
		return NewTracePlot(NewThreshold(s), DefaultTraceHeight, 0, 1), nil
	})

	return r
}

func complexTrace(derive func(sample.Typed[complex64]) sample.Typed[float32], lo, hi float32) Factory {
	return func(src sample.Source) (Plot, error) {
		c, ok := src.AsComplex()
		if !ok {
			return nil, ErrIncompatible
		}
		return NewTracePlot(derive(c), DefaultTraceHeight, lo, hi), nil
	}
}
