package spectrogram

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/roman-kulish/radio-inspector/internal/recording"
	"github.com/roman-kulish/radio-inspector/internal/sample"
	"github.com/roman-kulish/radio-inspector/internal/tuner"
)

var (
	tunerBand       = image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x30})
	tunerCentre     = image.NewUniform(color.NRGBA{R: 0xff, G: 0x40, B: 0x40, A: 0xc0})
	annotationColor = image.NewUniform(color.NRGBA{R: 0xff, G: 0xd0, B: 0x00, A: 0xff})
)

// AttachTuner sets the tuner whose passband is drawn over the spectrogram.
func (e *Engine) AttachTuner(t *tuner.Tuner) {
	e.tuner = t
}

// EnableTuner toggles the passband overlay. The tile caches are untouched.
func (e *Engine) EnableTuner(enabled bool) {
	e.showTuner = enabled
}

func (e *Engine) TunerEnabled() bool {
	return e.showTuner && e.tuner != nil
}

// TunerRows returns the rows covered by the passband and its centre row at
// the current FFT size.
func (e *Engine) TunerRows() (band sample.Range[int], centre int) {
	fft := e.settings.FFTSize
	scale := float64(fft) / float64(e.tuner.FFTSize())
	c := int(math.Round(float64(e.tuner.Centre()) * scale))
	d := max(1, int(math.Round(float64(e.tuner.Deviation())*scale)))

	band = sample.Range[int]{Minimum: BinToRow(c+d, fft), Maximum: BinToRow(c-d, fft) + 1}
	return band.Clamp(0, fft), BinToRow(c, fft)
}

func (e *Engine) paintTuner(dst draw.Image, rect image.Rectangle) {
	band, centre := e.TunerRows()
	r := image.Rect(rect.Min.X, rect.Min.Y+band.Minimum, rect.Max.X, rect.Min.Y+band.Maximum).Intersect(rect)
	draw.Draw(dst, r, tunerBand, image.Point{}, draw.Over)

	line := image.Rect(rect.Min.X, rect.Min.Y+centre, rect.Max.X, rect.Min.Y+centre+1).Intersect(rect)
	draw.Draw(dst, line, tunerCentre, image.Point{}, draw.Over)
}

// SetCenterFrequency sets the RF frequency of bin 0 used by the frequency
// axis and by annotation frequency edges.
func (e *Engine) SetCenterFrequency(hz float64) {
	e.centreFrequency = hz
}

// RowToFrequency returns the frequency in Hz displayed on row.
func (e *Engine) RowToFrequency(row int) float64 {
	fft := e.settings.FFTSize
	return e.centreFrequency + float64(RowToBin(row, fft))*e.input.Rate()/float64(fft)
}

// FrequencyToRow returns the row displaying hz.
func (e *Engine) FrequencyToRow(hz float64) int {
	fft := e.settings.FFTSize
	bin := int(math.Round((hz - e.centreFrequency) * float64(fft) / e.input.Rate()))
	return BinToRow(bin, fft)
}

// SetAnnotations replaces the annotation overlay regions.
func (e *Engine) SetAnnotations(annotations []recording.Annotation) {
	e.annotations = annotations
}

func (e *Engine) Annotations() []recording.Annotation {
	return e.annotations
}

// EnableAnnotations toggles the annotation overlay. The tile caches are
// untouched.
func (e *Engine) EnableAnnotations(enabled bool) {
	e.showAnnotations = enabled
}

func (e *Engine) AnnotationsEnabled() bool {
	return e.showAnnotations
}

// AnnotationRect returns the screen rectangle of a for a plot painted into
// rect showing viewRange.
func (e *Engine) AnnotationRect(a recording.Annotation, rect image.Rectangle, viewRange sample.Range[int64]) image.Rectangle {
	spc := e.settings.SamplesPerColumn()
	first := viewRange.Minimum / spc
	x0 := rect.Min.X + int(a.Start/spc-first)
	x1 := rect.Min.X + int((a.Start+a.Length)/spc-first)

	y0, y1 := rect.Min.Y, rect.Min.Y+e.settings.FFTSize
	if a.HasFrequency() {
		y0 = rect.Min.Y + e.FrequencyToRow(a.FreqUpper)
		y1 = rect.Min.Y + e.FrequencyToRow(a.FreqLower) + 1
	}
	return image.Rect(x0, y0, max(x1, x0+1), max(y1, y0+1))
}

// VisibleAnnotations returns the annotations intersecting rect together with
// their screen rectangles, in overlay order.
func (e *Engine) VisibleAnnotations(rect image.Rectangle, viewRange sample.Range[int64]) ([]recording.Annotation, []image.Rectangle) {
	var (
		visible []recording.Annotation
		rects   []image.Rectangle
	)
	for _, a := range e.annotations {
		r := e.AnnotationRect(a, rect, viewRange)
		if r.Overlaps(rect) {
			visible = append(visible, a)
			rects = append(rects, r)
		}
	}
	return visible, rects
}

func (e *Engine) paintAnnotations(dst draw.Image, rect image.Rectangle, viewRange sample.Range[int64]) {
	_, rects := e.VisibleAnnotations(rect, viewRange)
	for _, r := range rects {
		for _, edge := range []image.Rectangle{
			image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
			image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
			image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
			image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
		} {
			draw.Draw(dst, edge.Intersect(rect), annotationColor, image.Point{}, draw.Over)
		}
	}
}

// AnnotationAt returns the topmost annotation under pt when the overlay is
// enabled. It is used for tooltips.
func (e *Engine) AnnotationAt(pt image.Point, rect image.Rectangle, viewRange sample.Range[int64]) (recording.Annotation, bool) {
	if !e.showAnnotations {
		return recording.Annotation{}, false
	}
	visible, rects := e.VisibleAnnotations(rect, viewRange)
	for i := len(visible) - 1; i >= 0; i-- {
		if pt.In(rects[i]) {
			return visible[i], true
		}
	}
	return recording.Annotation{}, false
}
