// Package session ties the sample graph, the spectrogram, the derived plots
// and the cursors together behind the operations a viewer front end drives.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roman-kulish/radio-inspector/internal/config"
	"github.com/roman-kulish/radio-inspector/internal/cursor"
	"github.com/roman-kulish/radio-inspector/internal/graph"
	"github.com/roman-kulish/radio-inspector/internal/plots"
	"github.com/roman-kulish/radio-inspector/internal/recording"
	"github.com/roman-kulish/radio-inspector/internal/render"
	"github.com/roman-kulish/radio-inspector/internal/sample"
	"github.com/roman-kulish/radio-inspector/internal/spectrogram"
	"github.com/roman-kulish/radio-inspector/internal/storage"
	"github.com/roman-kulish/radio-inspector/internal/tuner"
	"github.com/roman-kulish/radio-inspector/internal/view"
)

var (
	// ErrNoFile is returned by operations that need an open recording.
	ErrNoFile = errors.New("no recording open")

	// ErrPlotIndex is returned for a plot index outside the display.
	ErrPlotIndex = errors.New("plot index out of range")

	// ErrSpectrogramPlot is returned when removing the spectrogram plot.
	ErrSpectrogramPlot = errors.New("the spectrogram plot cannot be removed")
)

// WithLogger sets the logger for the session and everything it creates.
func WithLogger(logger *slog.Logger) func(s *Session) {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithStore persists annotations and recording metadata in store.
func WithStore(store storage.Store) func(s *Session) {
	return func(s *Session) {
		s.store = store
	}
}

// WithRegistry replaces the registry of derived plots.
func WithRegistry(registry *plots.Registry) func(s *Session) {
	return func(s *Session) {
		s.registry = registry
	}
}

type plotEntry struct {
	plot plots.Plot

	// node holds the graph reference of the plot output. The zero handle is
	// used for the spectrogram plot, whose output is owned by the session.
	node graph.Handle
}

// Session is one open recording and its display state. Every method is safe
// to call from any goroutine; observers run after the internal lock is
// released.
type Session struct {
	mu     sync.Mutex
	events []func()

	cfg      *config.Config
	logger   *slog.Logger
	store    storage.Store
	registry *plots.Registry

	graph    *graph.Graph
	mapper   *view.Mapper
	cursors  *cursor.Cursors
	selector *cursor.Selector

	settings spectrogram.Settings
	theme    spectrogram.ColorTheme

	cursorsEnabled   bool
	timeScaleEnabled bool
	timeScale        *render.TimeScale

	rec         *recording.Recording
	file        *sample.FileSource
	reload      *sample.Listener
	root        graph.Handle
	tuner       *tuner.Tuner
	tunerNode   graph.Handle
	spectrogram *plots.SpectrogramPlot
	plots       []plotEntry

	lastProgram []string

	timeSelection []func(cursor.Measurement)
	tunerMoved    []func(deviation int, bandwidthHz float64)
}

// New returns a session without a recording. cfg is expected to be
// validated; nil selects config.Defaults.
func New(cfg *config.Config, options ...func(s *Session)) *Session {
	if cfg == nil {
		cfg = config.Defaults()
	}
	s := &Session{
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		cursors:  cursor.NewCursors(),
		selector: cursor.NewSelector(),
		settings: cfg.Display.Settings(),
		theme:    spectrogram.ColorTheme(cfg.Display.Theme),
	}
	for _, option := range options {
		option(s)
	}
	if s.registry == nil {
		s.registry = plots.Default()
	}
	s.graph = graph.New(graph.WithLogger(s.logger))
	s.mapper = view.NewMapper(s.settings.FFTSize, s.settings.ZoomLevel)
	s.timeScaleEnabled = cfg.Display.TimeScale
	return s
}

func (s *Session) lock() {
	s.mu.Lock()
}

// unlock releases the lock and then runs the observers queued while it was
// held.
func (s *Session) unlock() {
	events := s.events
	s.events = nil
	s.mu.Unlock()

	for _, fn := range events {
		fn()
	}
}

func (s *Session) queue(fn func()) {
	s.events = append(s.events, fn)
}

// OpenFile opens the recording at path, replacing the current one. format
// overrides the format guessed from the file name when non-empty. Metadata
// found next to the file, in the file name or in the store fills in the
// sample rate, the centre frequency and the annotations; the configured
// display values are used for anything still unknown.
func (s *Session) OpenFile(ctx context.Context, path, format string) error {
	rec, err := recording.Describe(path, format)
	if err != nil {
		return fmt.Errorf("describing recording: %w", err)
	}
	if err = s.mergeStored(ctx, rec); err != nil {
		return err
	}
	if rec.SampleRate <= 0 {
		rec.SampleRate = s.cfg.Display.SampleRate
	}
	if rec.CenterFrequency == 0 {
		rec.CenterFrequency = s.cfg.Display.CenterFrequency
	}

	file, err := sample.OpenFile(rec.Path, rec.Format,
		sample.WithFileLogger(s.logger),
		sample.WithSampleRate(rec.SampleRate))
	if err != nil {
		return err
	}
	file.SetCenterFrequency(rec.CenterFrequency)

	s.lock()
	defer s.unlock()

	if err = s.closeFile(); err != nil {
		s.logger.Warn("closing previous recording", slog.String("error", err.Error()))
	}
	if err = s.attach(rec, file); err != nil {
		_ = file.Close()
		return err
	}

	s.logger.Info("recording opened",
		slog.String("path", rec.Path),
		slog.String("format", string(rec.Format)),
		slog.Int64("samples", file.Count()),
		slog.Float64("sampleRate", rec.SampleRate),
		slog.Int("annotations", len(rec.Annotations)))
	return nil
}

func (s *Session) mergeStored(ctx context.Context, rec *recording.Recording) error {
	if s.store == nil {
		return nil
	}
	stored, err := s.store.Recording(ctx, rec.Path)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("loading stored recording: %w", err)
	}

	rec.ID = stored.ID
	if rec.SampleRate <= 0 {
		rec.SampleRate = stored.SampleRate
	}
	if rec.CenterFrequency == 0 {
		rec.CenterFrequency = stored.CenterFrequency
	}
	rec.Annotations = mergeAnnotations(rec.Annotations, stored.Annotations)
	return nil
}

// mergeAnnotations appends the stored annotations not already present in
// the recording metadata.
func mergeAnnotations(own, stored []recording.Annotation) []recording.Annotation {
	type key struct {
		start, length int64
		label         string
	}
	seen := make(map[key]bool, len(own))
	for _, a := range own {
		seen[key{a.Start, a.Length, a.Label}] = true
	}
	for _, a := range stored {
		if !seen[key{a.Start, a.Length, a.Label}] {
			own = append(own, a)
		}
	}
	return own
}

// attach builds the graph of a freshly opened recording. Called with the
// lock held.
func (s *Session) attach(rec *recording.Recording, file *sample.FileSource) error {
	root, err := s.graph.Add(file)
	if err != nil {
		return fmt.Errorf("adding recording: %w", err)
	}

	tu := tuner.New(file, s.settings.FFTSize, tuner.WithLogger(s.logger))
	tu.OnMoved(func(deviation int) {
		bw := tuner.BandwidthHz(deviation, file.Rate(), tu.FFTSize())
		for _, fn := range s.tunerMoved {
			s.queue(func() { fn(deviation, bw) })
		}
	})
	tunerNode, err := s.graph.Add(tu, root)
	if err != nil {
		_ = s.graph.Release(root)
		return fmt.Errorf("adding tuner: %w", err)
	}

	engine := spectrogram.New(file,
		spectrogram.WithLogger(s.logger),
		spectrogram.WithTileWidth(s.cfg.Cache.TileWidth),
		spectrogram.WithCacheBudget(int64(s.cfg.Cache.Budget)),
		spectrogram.WithSettings(s.settings),
		spectrogram.WithTheme(s.theme))
	engine.SetCenterFrequency(rec.CenterFrequency)
	engine.SetAnnotations(rec.Annotations)
	engine.EnableAnnotations(s.cfg.Display.Annotations)

	s.rec = rec
	s.file = file
	s.root = root
	s.tuner = tu
	s.tunerNode = tunerNode
	s.spectrogram = plots.NewSpectrogramPlot(engine, tu)
	s.plots = []plotEntry{{plot: s.spectrogram}}

	s.reload = sample.NewListener(s.fileChanged)
	file.Subscribe(s.reload)

	s.mapper.SetTotal(file.Count())
	s.mapper.ScrollTo(0)
	s.mapper.VerticalScrollTo(0)
	s.updatePlotsHeight()
	s.updateView()
	return nil
}

// fileChanged follows a reload of the recording. It runs inside Reload, with
// the lock held.
func (s *Session) fileChanged() {
	s.mapper.SetTotal(s.file.Count())
	s.updateView()
}

// closeFile tears down the plots and the graph of the current recording.
// Called with the lock held.
func (s *Session) closeFile() error {
	if s.file == nil {
		return nil
	}

	var errs []error
	for i := len(s.plots) - 1; i > 0; i-- {
		errs = append(errs, s.plots[i].plot.Close(), s.graph.Release(s.plots[i].node))
	}
	errs = append(errs, s.spectrogram.Close())

	s.file.Unsubscribe(s.reload)
	errs = append(errs, s.graph.Release(s.tunerNode), s.graph.Release(s.root))

	s.rec = nil
	s.file = nil
	s.reload = nil
	s.tuner = nil
	s.spectrogram = nil
	s.plots = nil
	s.root = graph.Handle{}
	s.tunerNode = graph.Handle{}
	s.mapper.SetTotal(0)
	return errors.Join(errs...)
}

// Reload re-reads the recording after it grew on disk.
func (s *Session) Reload() error {
	s.lock()
	defer s.unlock()

	if s.file == nil {
		return ErrNoFile
	}
	return s.file.Reload()
}

// Close releases the recording and every resource of the session.
func (s *Session) Close() error {
	s.lock()
	defer s.unlock()

	err := s.closeFile()
	if s.timeScale != nil {
		err = errors.Join(err, s.timeScale.Close())
		s.timeScale = nil
	}
	return err
}

// Info describes the open recording.
type Info struct {
	Path            string
	Format          sample.Format
	Samples         int64
	SampleRate      float64
	CenterFrequency float64
	Duration        time.Duration
	Annotations     int
}

func (s *Session) Info() (Info, error) {
	s.lock()
	defer s.unlock()

	if s.file == nil {
		return Info{}, ErrNoFile
	}
	rate := s.file.Rate()
	return Info{
		Path:            s.file.Path(),
		Format:          s.file.Format(),
		Samples:         s.file.Count(),
		SampleRate:      rate,
		CenterFrequency: s.file.CenterFrequency(),
		Duration:        time.Duration(float64(s.file.Count()) * float64(time.Second) / rate),
		Annotations:     len(s.rec.Annotations),
	}, nil
}

// Stats returns the cache counters of the spectrogram.
func (s *Session) Stats() spectrogram.Stats {
	s.lock()
	defer s.unlock()

	if s.spectrogram == nil {
		return spectrogram.Stats{}
	}
	return s.spectrogram.Engine().Stats()
}

// SetSampleRate changes the rate used for time measurements and exports.
func (s *Session) SetSampleRate(rate float64) {
	s.lock()
	defer s.unlock()

	if s.file == nil || rate <= 0 {
		return
	}
	s.file.SetSampleRate(rate)
	s.rec.SampleRate = rate
	s.emitTimeSelection()
}

// SetCenterFrequency changes the RF frequency of the recording centre.
func (s *Session) SetCenterFrequency(hz float64) {
	s.lock()
	defer s.unlock()

	if s.file == nil {
		return
	}
	s.file.SetCenterFrequency(hz)
	s.rec.CenterFrequency = hz
	s.spectrogram.Engine().SetCenterFrequency(hz)
}

// OnTimeSelection registers fn to receive the measurement of the cursor
// selection whenever it changes.
func (s *Session) OnTimeSelection(fn func(cursor.Measurement)) {
	s.lock()
	defer s.unlock()

	s.timeSelection = append(s.timeSelection, fn)
}

// OnTunerMoved registers fn to receive the tuner half-width in bins and the
// passband width in Hz whenever the tuner moves.
func (s *Session) OnTunerMoved(fn func(deviation int, bandwidthHz float64)) {
	s.lock()
	defer s.unlock()

	s.tunerMoved = append(s.tunerMoved, fn)
}

func (s *Session) emitTimeSelection() {
	if !s.cursorsEnabled || s.file == nil {
		return
	}
	m := s.selector.Measurement(s.file.Rate())
	for _, fn := range s.timeSelection {
		s.queue(func() { fn(m) })
	}
}
