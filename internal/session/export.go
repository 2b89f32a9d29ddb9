package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roman-kulish/radio-inspector/internal/cursor"
	"github.com/roman-kulish/radio-inspector/internal/plots"
	"github.com/roman-kulish/radio-inspector/internal/recording"
	"github.com/roman-kulish/radio-inspector/internal/sample"
)

// ErrNoProgram is returned when repeating a symbol feed that never ran.
var ErrNoProgram = errors.New("no program to repeat")

// lockedSource serialises reads with the session so that a source can be
// consumed on another goroutine.
type lockedSource[T sample.Element] struct {
	sample.Typed[T]
	mu *sync.Mutex
}

func locked(src sample.Source, mu *sync.Mutex) sample.Source {
	if c, ok := src.AsComplex(); ok {
		return &lockedSource[complex64]{Typed: c, mu: mu}
	}
	if f, ok := src.AsScalar(); ok {
		return &lockedSource[float32]{Typed: f, mu: mu}
	}
	return src
}

func (l *lockedSource[T]) Count() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Typed.Count()
}

func (l *lockedSource[T]) Rate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Typed.Rate()
}

func (l *lockedSource[T]) RelativeBandwidth() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Typed.RelativeBandwidth()
}

func (l *lockedSource[T]) Samples(start, length int64) ([]T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Typed.Samples(start, length)
}

func (l *lockedSource[T]) AsComplex() (sample.Typed[complex64], bool) {
	c, ok := any(l).(sample.Typed[complex64])
	return c, ok
}

func (l *lockedSource[T]) AsScalar() (sample.Typed[float32], bool) {
	f, ok := any(l).(sample.Typed[float32])
	return f, ok
}

// exportSource returns the source exported for plot index. Sources fed by
// the tuner are rebuilt over a snapshot of it so that moving the tuner does
// not affect a running export. Called with the lock held.
func (s *Session) exportSource(index int) (sample.Source, error) {
	src, _, err := s.output(index)
	if err != nil {
		return nil, err
	}
	return s.frozen(src), nil
}

func (s *Session) frozen(src sample.Source) sample.Source {
	if s.tuner != nil && src == sample.Source(s.tuner) {
		return s.tuner.Snapshot()
	}
	d, ok := src.(plots.Rebaser)
	if !ok {
		return src
	}
	parent := d.Upstream()
	snapshot := s.frozen(parent)
	if snapshot == parent {
		return src
	}
	if rebased, ok := d.Rebase(snapshot); ok {
		return rebased
	}
	return src
}

// Export writes the samples of plot index over the range of kind to w. It
// may be called from any goroutine and does not hold the session while
// waiting on w.
func (s *Session) Export(ctx context.Context, index int, kind cursor.RangeKind, w io.Writer, opts cursor.Options) (cursor.Result, error) {
	s.lock()
	src, err := s.exportSource(index)
	if err != nil {
		s.unlock()
		return cursor.Result{}, err
	}
	r, err := cursor.ExportRange(kind, s.selector.Selected(), s.mapper.ViewRange(), src.Count(), s.cursorsEnabled)
	if err != nil {
		s.unlock()
		return cursor.Result{}, err
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = s.cfg.Export.ChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	src = locked(src, &s.mu)
	s.unlock()

	opts.Logger.Info("exporting samples",
		slog.Int("plot", index),
		slog.Int64("start", r.Minimum),
		slog.Int64("end", r.Maximum),
		slog.String("type", src.ElementType().String()))
	return cursor.Export(ctx, src, r, w, opts)
}

// ExtractSymbols samples the output of plot index once per cursor segment.
func (s *Session) ExtractSymbols(index int) ([]float32, error) {
	s.lock()
	defer s.unlock()

	return s.extractSymbols(index)
}

func (s *Session) extractSymbols(index int) ([]float32, error) {
	if !s.cursorsEnabled {
		return nil, cursor.ErrNoSelection
	}
	src, _, err := s.output(index)
	if err != nil {
		return nil, err
	}
	return cursor.ExtractSymbols(src, s.selector.Selected(), s.selector.Segments())
}

// FeedSymbols extracts the symbols of plot index and writes them as text to
// the standard input of program, returning its combined output.
func (s *Session) FeedSymbols(ctx context.Context, index int, program string, args ...string) ([]byte, error) {
	s.lock()
	symbols, err := s.extractSymbols(index)
	if err == nil {
		s.lastProgram = append([]string{program}, args...)
	}
	s.unlock()

	if err != nil {
		return nil, err
	}
	return cursor.FeedProgram(ctx, symbols, program, args...)
}

// FeedLastProgram repeats the last FeedSymbols with the current selection.
func (s *Session) FeedLastProgram(ctx context.Context, index int) ([]byte, error) {
	s.lock()
	command := s.lastProgram
	s.unlock()

	if len(command) == 0 {
		return nil, ErrNoProgram
	}
	return s.FeedSymbols(ctx, index, command[0], command[1:]...)
}

// AddAnnotation adds a to the open recording and, when a store is
// configured, persists it.
func (s *Session) AddAnnotation(ctx context.Context, a recording.Annotation) error {
	s.lock()
	defer s.unlock()

	if s.file == nil {
		return ErrNoFile
	}
	if s.store != nil {
		var err error
		if s.rec.ID == 0 {
			r := *s.rec
			r.Annotations = append(append([]recording.Annotation(nil), s.rec.Annotations...), a)
			if _, err = s.store.SaveRecording(ctx, &r); err == nil {
				s.rec.ID = r.ID
				a = r.Annotations[len(r.Annotations)-1]
			}
		} else {
			_, err = s.store.StoreAnnotation(ctx, s.rec.ID, &a)
		}
		if err != nil {
			return fmt.Errorf("storing annotation: %w", err)
		}
	}

	s.rec.Annotations = append(s.rec.Annotations, a)
	s.spectrogram.Engine().SetAnnotations(s.rec.Annotations)
	return nil
}
