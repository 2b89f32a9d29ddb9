package session

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/roman-kulish/radio-inspector/internal/graph"
	"github.com/roman-kulish/radio-inspector/internal/recording"
	"github.com/roman-kulish/radio-inspector/internal/sample"
)

// Plots returns the number of plots on display, the spectrogram included.
func (s *Session) Plots() int {
	s.lock()
	defer s.unlock()

	return len(s.plots)
}

// PlotAt returns the index of the plot under viewport row y.
func (s *Session) PlotAt(y int) (int, bool) {
	s.lock()
	defer s.unlock()

	for i := range s.plots {
		r := s.plotRect(i)
		if y >= r.Min.Y && y < r.Max.Y {
			return i, true
		}
	}
	return 0, false
}

// output returns the source and the graph node derived plots of plot index
// are built on. Called with the lock held.
func (s *Session) output(index int) (sample.Source, graph.Handle, error) {
	if s.file == nil {
		return nil, graph.Handle{}, ErrNoFile
	}
	if index < 0 || index >= len(s.plots) {
		return nil, graph.Handle{}, fmt.Errorf("%w: %d", ErrPlotIndex, index)
	}

	node := s.plots[index].node
	if index == 0 {
		node = s.root
		if s.spectrogram.Engine().TunerEnabled() {
			node = s.tunerNode
		}
	}
	src, err := s.graph.Get(node)
	if err != nil {
		return nil, graph.Handle{}, err
	}
	return src, node, nil
}

// CompatiblePlots lists the names of the plots that can be derived from plot
// index.
func (s *Session) CompatiblePlots(index int) ([]string, error) {
	s.lock()
	defer s.unlock()

	src, _, err := s.output(index)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range s.registry.Compatible(src.ElementType()) {
		names = append(names, e.Name)
	}
	return names, nil
}

// AddDerivedPlot appends the plot registered as name, built on the output of
// plot index, and returns its index.
func (s *Session) AddDerivedPlot(index int, name string) (int, error) {
	s.lock()
	defer s.unlock()

	src, parent, err := s.output(index)
	if err != nil {
		return 0, err
	}
	p, err := s.registry.Create(name, src)
	if err != nil {
		return 0, err
	}

	var node graph.Handle
	if out := p.Output(); out == src {
		err = s.graph.Retain(parent)
		node = parent
	} else {
		node, err = s.graph.Add(out, parent)
	}
	if err != nil {
		_ = p.Close()
		return 0, fmt.Errorf("adding %s: %w", name, err)
	}

	s.plots = append(s.plots, plotEntry{plot: p, node: node})
	s.updatePlotsHeight()

	s.logger.Debug("plot added",
		slog.String("name", name),
		slog.Int("parent", index),
		slog.String("node", node.String()))
	return len(s.plots) - 1, nil
}

// RemovePlot closes plot index. Plots derived from it keep their inputs.
func (s *Session) RemovePlot(index int) error {
	s.lock()
	defer s.unlock()

	if s.file == nil {
		return ErrNoFile
	}
	if index == 0 {
		return ErrSpectrogramPlot
	}
	if index < 0 || index >= len(s.plots) {
		return fmt.Errorf("%w: %d", ErrPlotIndex, index)
	}

	e := s.plots[index]
	s.plots = append(s.plots[:index], s.plots[index+1:]...)
	s.updatePlotsHeight()

	if err := e.plot.Close(); err != nil {
		return fmt.Errorf("closing plot: %w", err)
	}
	return s.graph.Release(e.node)
}

// Nodes returns the number of live nodes in the processing graph.
func (s *Session) Nodes() int {
	s.lock()
	defer s.unlock()

	return s.graph.Len()
}

// EnableTuner toggles the tuner. While enabled the spectrogram shows its
// passband and plots derived from the spectrogram are built on its output.
func (s *Session) EnableTuner(enabled bool) {
	s.lock()
	defer s.unlock()

	if s.file != nil {
		s.spectrogram.Engine().EnableTuner(enabled)
	}
}

// MoveTuner places the passband at centre with a half-width of deviation,
// both in bins at the current FFT size.
func (s *Session) MoveTuner(centre, deviation int) {
	s.lock()
	defer s.unlock()

	if s.file != nil {
		s.tuner.Move(centre, deviation)
	}
}

// EnableAnnotations toggles the annotation overlay of the spectrogram.
func (s *Session) EnableAnnotations(enabled bool) {
	s.lock()
	defer s.unlock()

	if s.file != nil {
		s.spectrogram.Engine().EnableAnnotations(enabled)
	}
}

// AnnotationAt returns the annotation drawn under the viewport point pt.
func (s *Session) AnnotationAt(pt image.Point) (recording.Annotation, bool) {
	s.lock()
	defer s.unlock()

	if s.file == nil {
		return recording.Annotation{}, false
	}
	return s.spectrogram.Engine().AnnotationAt(pt, s.plotRect(0), s.mapper.ViewRange())
}

// Annotations returns the annotations of the open recording.
func (s *Session) Annotations() []recording.Annotation {
	s.lock()
	defer s.unlock()

	if s.rec == nil {
		return nil
	}
	return append([]recording.Annotation(nil), s.rec.Annotations...)
}
