// Package spectrogram renders the short-time power spectrum of a complex
// stream. Columns are computed in tiles which are kept in two bounded LRU
// caches, one for power values and one for coloured images.
package spectrogram

import (
	"image"
	"image/draw"
	"io"
	"log/slog"
	"math"

	"github.com/roman-kulish/radio-inspector/internal/recording"
	"github.com/roman-kulish/radio-inspector/internal/sample"
	"github.com/roman-kulish/radio-inspector/internal/tuner"
	"github.com/roman-kulish/radio-inspector/internal/view"
)

const (
	// DefaultTileWidth is the number of columns per tile.
	DefaultTileWidth = 256

	// DefaultCacheBudget is the byte budget of each tile cache.
	DefaultCacheBudget = 40960 * 1024
)

// Settings is the render configuration. Every field is part of the tile key.
type Settings struct {
	FFTSize   int
	ZoomLevel int
	PowerMin  float64
	PowerMax  float64

	// Squelch blanks bins weaker than PowerMin+Squelch dB. 0 disables it.
	Squelch int
}

func DefaultSettings() Settings {
	return Settings{FFTSize: 512, ZoomLevel: 1, PowerMin: -100, PowerMax: 0}
}

// Clamp returns s with every field inside its valid range.
func (s Settings) Clamp() Settings {
	s.FFTSize = view.ClampFFTSize(s.FFTSize)
	s.ZoomLevel = view.ClampZoom(s.ZoomLevel, s.FFTSize)
	if s.PowerMax < s.PowerMin {
		s.PowerMin, s.PowerMax = s.PowerMax, s.PowerMin
	}
	s.Squelch = max(0, s.Squelch)
	return s
}

func (s Settings) SamplesPerColumn() int64 {
	return max(1, int64(s.FFTSize/s.ZoomLevel))
}

// Stats counts cache activity.
type Stats struct {
	Hits            int64
	Misses          int64
	ComputedColumns int64
	PowerTiles      int
	ImageTiles      int
}

type powerKey struct {
	source     sample.Identity
	generation uint64
	fftSize    int
	zoom       int
	tile       int64
}

type imageKey struct {
	powerKey
	powerMin float64
	powerMax float64
	squelch  int
	theme    ColorTheme
}

type identifier interface {
	Identity() sample.Identity
}

// WithLogger sets the logger for the engine.
func WithLogger(logger *slog.Logger) func(e *Engine) {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTileWidth sets the number of columns per tile.
func WithTileWidth(columns int) func(e *Engine) {
	return func(e *Engine) {
		if columns > 0 {
			e.tileWidth = columns
		}
	}
}

// WithCacheBudget sets the byte budget of each tile cache.
func WithCacheBudget(bytes int64) func(e *Engine) {
	return func(e *Engine) {
		if bytes > 0 {
			e.budget = bytes
		}
	}
}

// WithSettings sets the initial render configuration.
func WithSettings(s Settings) func(e *Engine) {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithTheme sets the colour theme.
func WithTheme(theme ColorTheme) func(e *Engine) {
	return func(e *Engine) {
		e.theme = theme
	}
}

// Engine computes and paints spectrogram tiles for a complex input.
type Engine struct {
	input    sample.Typed[complex64]
	settings Settings
	theme    ColorTheme

	tileWidth int
	budget    int64
	powers    *lru[powerKey, []float32]
	images    *lru[imageKey, *image.RGBA]

	colors     *ColorMapper
	analyzer   *analyzer
	generation uint64
	stats      Stats

	centreFrequency float64

	tuner     *tuner.Tuner
	showTuner bool

	annotations     []recording.Annotation
	showAnnotations bool

	logger *slog.Logger
}

// New returns an engine subscribed to input.
func New(input sample.Typed[complex64], options ...func(e *Engine)) *Engine {
	e := &Engine{
		input:     input,
		settings:  DefaultSettings(),
		theme:     DefaultTheme,
		tileWidth: DefaultTileWidth,
		budget:    DefaultCacheBudget,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(e)
	}

	e.settings = e.settings.Clamp()
	e.powers = newLRU[powerKey](e.budget, func(p []float32) int64 { return int64(len(p)) * 4 })
	e.images = newLRU[imageKey](e.budget, func(img *image.RGBA) int64 { return int64(len(img.Pix)) })
	e.colors = NewColorMapper(e.theme, e.settings.PowerMin, e.settings.PowerMax)
	e.theme = e.colors.Theme()
	e.analyzer = newAnalyzer(e.settings.FFTSize)

	input.Subscribe(e)
	return e
}

// Close detaches the engine from its input.
func (e *Engine) Close() error {
	e.input.Unsubscribe(e)
	e.clear()
	return nil
}

func (e *Engine) Input() sample.Typed[complex64] {
	return e.input
}

func (e *Engine) Settings() Settings {
	return e.settings
}

func (e *Engine) Theme() ColorTheme {
	return e.theme
}

func (e *Engine) Stats() Stats {
	s := e.stats
	s.PowerTiles = e.powers.len()
	s.ImageTiles = e.images.len()
	return s
}

// Height is the plot height in pixels, one row per bin.
func (e *Engine) Height() int {
	return e.settings.FFTSize
}

// Columns returns the number of columns holding at least one sample.
func (e *Engine) Columns() int64 {
	spc := e.settings.SamplesPerColumn()
	return (e.input.Count() + spc - 1) / spc
}

// Invalidated drops every tile after the input changed.
func (e *Engine) Invalidated() {
	e.generation++
	e.clear()
	e.logger.Debug("spectrogram input invalidated", slog.Uint64("generation", e.generation))
}

func (e *Engine) clear() {
	e.powers.clear()
	e.images.clear()
}

// SetSettings applies a new configuration and reports whether it differs from
// the current one. Any change clears the image tiles; FFT size and zoom
// changes clear the power tiles as well.
func (e *Engine) SetSettings(s Settings) bool {
	s = s.Clamp()
	old := e.settings
	if s == old {
		return false
	}
	e.settings = s

	if s.FFTSize != old.FFTSize || s.ZoomLevel != old.ZoomLevel {
		e.powers.clear()
		if s.FFTSize != old.FFTSize {
			e.analyzer = newAnalyzer(s.FFTSize)
		}
	}
	e.images.clear()
	e.colors.UpdateBounds(s.PowerMin, s.PowerMax)

	e.logger.Debug("spectrogram settings changed",
		slog.Int("fftSize", s.FFTSize),
		slog.Int("zoom", s.ZoomLevel),
		slog.Float64("powerMin", s.PowerMin),
		slog.Float64("powerMax", s.PowerMax),
		slog.Int("squelch", s.Squelch))
	return true
}

// SetTheme changes the colour ramp, clearing the image tiles.
func (e *Engine) SetTheme(theme ColorTheme) {
	if theme == e.theme || !ValidTheme(theme) {
		return
	}
	e.theme = theme
	e.colors = NewColorMapper(theme, e.settings.PowerMin, e.settings.PowerMax)
	e.images.clear()
}

func (e *Engine) powerKey(tile int64) powerKey {
	k := powerKey{
		generation: e.generation,
		fftSize:    e.settings.FFTSize,
		zoom:       e.settings.ZoomLevel,
		tile:       tile,
	}
	if id, ok := e.input.(identifier); ok {
		k.source = id.Identity()
	}
	return k
}

// powerTile returns tileWidth columns of fftSize bins, column-major. Columns
// past the last one are -Inf. Tail columns are zero padded.
func (e *Engine) powerTile(tile int64) ([]float32, bool) {
	key := e.powerKey(tile)
	if p, ok := e.powers.get(key); ok {
		return p, true
	}

	fft := int64(e.settings.FFTSize)
	spc := e.settings.SamplesPerColumn()
	tw := int64(e.tileWidth)
	count := e.input.Count()

	first := tile * tw
	cols := min(tw, e.Columns()-first)
	if cols <= 0 {
		return nil, false
	}

	start := first * spc
	end := min(count, (first+cols-1)*spc+fft)
	in, ok := e.input.Samples(start, end-start)
	if !ok {
		e.logger.Debug("tile unavailable", slog.Int64("tile", tile))
		return nil, false
	}

	out := make([]float32, tw*fft)
	for c := int64(0); c < cols; c++ {
		off := c * spc
		e.analyzer.power(out[c*fft:(c+1)*fft], in[off:min(off+fft, int64(len(in)))])
	}
	blank := float32(math.Inf(-1))
	for i := cols * fft; i < int64(len(out)); i++ {
		out[i] = blank
	}

	e.stats.ComputedColumns += cols
	e.powers.put(key, out)
	return out, true
}

func (e *Engine) imageTile(tile int64) (*image.RGBA, bool) {
	key := imageKey{
		powerKey: e.powerKey(tile),
		powerMin: e.settings.PowerMin,
		powerMax: e.settings.PowerMax,
		squelch:  e.settings.Squelch,
		theme:    e.theme,
	}
	if img, ok := e.images.get(key); ok {
		e.stats.Hits++
		return img, true
	}
	e.stats.Misses++

	powers, ok := e.powerTile(tile)
	if !ok {
		return nil, false
	}

	fft := e.settings.FFTSize
	floor := e.settings.PowerMin + float64(e.settings.Squelch)
	img := image.NewRGBA(image.Rect(0, 0, e.tileWidth, fft))
	for c := 0; c < e.tileWidth; c++ {
		column := powers[c*fft : (c+1)*fft]
		for row, p := range column {
			power := float64(p)
			if math.IsInf(power, -1) || (e.settings.Squelch > 0 && power < floor) {
				continue
			}
			px := e.colors.Color(power)
			i := img.PixOffset(c, row)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = px.R, px.G, px.B, px.A
		}
	}

	e.images.put(key, img)
	return img, true
}

// Paint draws the columns of viewRange into rect, starting at rect.Min. Only
// tiles missing from the cache are computed; unavailable tiles are skipped.
func (e *Engine) Paint(dst draw.Image, rect image.Rectangle, viewRange sample.Range[int64]) {
	if rect.Empty() || e.input.Count() == 0 {
		return
	}

	spc := e.settings.SamplesPerColumn()
	tw := int64(e.tileWidth)
	firstCol := viewRange.Minimum / spc
	lastCol := min(firstCol+int64(rect.Dx()), e.Columns())

	for col := firstCol; col < lastCol; {
		tile := col / tw
		tileStart := tile * tw
		tileEnd := min(tileStart+tw, lastCol)

		if img, ok := e.imageTile(tile); ok {
			r := image.Rect(
				rect.Min.X+int(col-firstCol), rect.Min.Y,
				rect.Min.X+int(tileEnd-firstCol), rect.Min.Y+e.settings.FFTSize,
			).Intersect(rect)
			draw.Draw(dst, r, img, image.Pt(int(col-tileStart), r.Min.Y-rect.Min.Y), draw.Over)
		}
		col = tileEnd
	}

	if e.showTuner && e.tuner != nil {
		e.paintTuner(dst, rect)
	}
	if e.showAnnotations {
		e.paintAnnotations(dst, rect, viewRange)
	}
}
