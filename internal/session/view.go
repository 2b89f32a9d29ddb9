package session

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/roman-kulish/radio-inspector/internal/plots"
	"github.com/roman-kulish/radio-inspector/internal/render"
	"github.com/roman-kulish/radio-inspector/internal/sample"
	"github.com/roman-kulish/radio-inspector/internal/spectrogram"
	"github.com/roman-kulish/radio-inspector/internal/view"
)

// Settings returns the current spectrogram settings.
func (s *Session) Settings() spectrogram.Settings {
	s.lock()
	defer s.unlock()

	return s.settings
}

// ViewRange returns the visible sample interval.
func (s *Session) ViewRange() sample.Range[int64] {
	s.lock()
	defer s.unlock()

	return s.mapper.ViewRange()
}

// SetFFTAndZoom changes the resolution keeping the centre of the viewport in
// place. Values are clamped to the supported range.
func (s *Session) SetFFTAndZoom(fftSize, zoom int) {
	s.lock()
	defer s.unlock()

	if s.mapper.SetFFTAndZoom(fftSize, zoom, view.TriggerKeyboard, 0) {
		s.applyResolution()
	}
}

// WheelZoom applies a wheel delta at column x of the viewport, keeping the
// sample under the pointer in place.
func (s *Session) WheelZoom(delta, x int) {
	s.lock()
	defer s.unlock()

	if s.mapper.WheelZoom(delta, x) {
		s.applyResolution()
	}
}

func (s *Session) applyResolution() {
	s.settings.FFTSize = s.mapper.FFTSize()
	s.settings.ZoomLevel = s.mapper.Zoom()
	if s.file == nil {
		return
	}
	s.spectrogram.Engine().SetSettings(s.settings)
	s.tuner.SetFFTSize(s.settings.FFTSize)
	s.updatePlotsHeight()
	s.updateView()
}

// SetPowerRange sets the dBFS values mapped to the ends of the colour ramp.
func (s *Session) SetPowerRange(lo, hi float64) {
	s.lock()
	defer s.unlock()

	if hi < lo {
		lo, hi = hi, lo
	}
	s.settings.PowerMin = lo
	s.settings.PowerMax = hi
	s.applySettings()
}

// SetSquelch sets the threshold, in dB above PowerMin, below which cells are
// blanked. 0 disables it.
func (s *Session) SetSquelch(db int) {
	s.lock()
	defer s.unlock()

	s.settings.Squelch = max(0, db)
	s.applySettings()
}

func (s *Session) applySettings() {
	if s.file != nil {
		s.spectrogram.Engine().SetSettings(s.settings)
	}
}

// SetTheme changes the colour ramp of the spectrogram.
func (s *Session) SetTheme(theme spectrogram.ColorTheme) error {
	s.lock()
	defer s.unlock()

	if !spectrogram.ValidTheme(theme) {
		return fmt.Errorf("invalid theme: %q", theme)
	}
	s.theme = theme
	if s.file != nil {
		s.spectrogram.Engine().SetTheme(theme)
	}
	return nil
}

// Resize sets the viewport size in pixels.
func (s *Session) Resize(width, height int) {
	s.lock()
	defer s.unlock()

	s.mapper.Resize(width, height)
	s.updateView()
}

// Scroll moves the viewport by dx columns.
func (s *Session) Scroll(dx int64) {
	s.lock()
	defer s.unlock()

	s.mapper.ScrollBy(dx)
	s.updateView()
}

// ScrollTo moves the viewport so that column x is at its left edge.
func (s *Session) ScrollTo(x int64) {
	s.lock()
	defer s.unlock()

	s.mapper.ScrollTo(x)
	s.updateView()
}

// ScrollToSample moves the viewport so that it starts at the column holding
// sample n.
func (s *Session) ScrollToSample(n int64) {
	s.lock()
	defer s.unlock()

	s.mapper.ScrollTo(s.mapper.SampleToColumn(n))
	s.updateView()
}

// VerticalScrollTo scrolls the plot stack to y pixels from its top.
func (s *Session) VerticalScrollTo(y int) {
	s.lock()
	defer s.unlock()

	s.mapper.VerticalScrollTo(y)
}

func (s *Session) updatePlotsHeight() {
	h := 0
	for _, e := range s.plots {
		h += e.plot.Height()
	}
	s.mapper.SetPlotsHeight(h)
}

// updateView re-projects the cursors after the viewport changed.
func (s *Session) updateView() {
	if s.cursorsEnabled {
		s.cursors.SetSelection(s.selector.Columns(s.mapper))
	}
}

// plotRect returns the strip of plot index, which may lie partly outside
// the viewport.
func (s *Session) plotRect(index int) image.Rectangle {
	y := -s.mapper.VerticalScroll()
	for _, e := range s.plots[:index] {
		y += e.plot.Height()
	}
	return image.Rect(0, y, s.mapper.Width(), y+s.plots[index].plot.Height())
}

// Bounds returns the viewport in pixels.
func (s *Session) Bounds() image.Rectangle {
	s.lock()
	defer s.unlock()

	return image.Rect(0, 0, s.mapper.Width(), s.mapper.Height())
}

// ContentBounds returns the area covered by the plots when the viewport is
// as wide as now and tall enough for every plot.
func (s *Session) ContentBounds() image.Rectangle {
	s.lock()
	defer s.unlock()

	h := 0
	for _, e := range s.plots {
		h += e.plot.Height()
	}
	return image.Rect(0, 0, s.mapper.Width(), h)
}

// Paint draws the viewport into dst: every plot layer by layer, then the
// cursors and the time scale.
func (s *Session) Paint(dst draw.Image) error {
	s.lock()
	defer s.unlock()

	bounds := image.Rect(0, 0, s.mapper.Width(), s.mapper.Height())
	draw.Draw(dst, bounds, image.Black, image.Point{}, draw.Src)
	if s.file == nil {
		return nil
	}

	v := plots.View{Range: s.mapper.ViewRange(), SamplesPerColumn: s.mapper.SamplesPerColumn()}
	for _, layer := range plots.Layers {
		for i, e := range s.plots {
			rect := s.plotRect(i)
			if rect.Intersect(bounds).Empty() {
				continue
			}
			e.plot.Paint(dst, rect, v, layer)
		}
	}

	if s.cursorsEnabled {
		s.cursors.Paint(dst, bounds)
	}
	if s.timeScaleEnabled {
		if s.timeScale == nil {
			ts, err := render.NewTimeScale()
			if err != nil {
				return fmt.Errorf("creating time scale: %w", err)
			}
			s.timeScale = ts
		}
		if err := s.timeScale.Paint(dst, bounds, v.Range, s.file.Rate(), v.SamplesPerColumn); err != nil {
			return fmt.Errorf("painting time scale: %w", err)
		}
	}
	return nil
}

// EnableTimeScale toggles the time axis drawn over the plots.
func (s *Session) EnableTimeScale(enabled bool) {
	s.lock()
	defer s.unlock()

	s.timeScaleEnabled = enabled
}

// ClickTime returns the time in seconds of column x of the viewport.
func (s *Session) ClickTime(x int) float64 {
	s.lock()
	defer s.unlock()

	if s.file == nil {
		return 0
	}
	n := s.mapper.ColumnToSample(int64(x)) + s.mapper.ViewRange().Minimum
	return float64(n) / s.file.Rate()
}
