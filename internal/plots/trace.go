package plots

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

// DefaultTraceHeight is the height of a derived trace plot.
const DefaultTraceHeight = 200

var (
	traceBackground = image.NewUniform(color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff})
	traceColor      = color.RGBA{R: 0x00, G: 0xd0, B: 0xff, A: 0xff}
	quadratureColor = color.RGBA{R: 0xff, G: 0x60, B: 0x60, A: 0xff}
)

// TracePlot draws the per-column envelope of a scalar source.
type TracePlot struct {
	src    sample.Typed[float32]
	height int
	lo, hi float32
	color  color.RGBA
}

// NewTracePlot plots src with values in [lo, hi] spanning the strip height.
func NewTracePlot(src sample.Typed[float32], height int, lo, hi float32) *TracePlot {
	return &TracePlot{src: src, height: height, lo: lo, hi: hi, color: traceColor}
}

func (p *TracePlot) Output() sample.Source {
	return p.src
}

func (p *TracePlot) Height() int {
	return p.height
}

func (p *TracePlot) Close() error {
	return nil
}

func (p *TracePlot) Paint(dst draw.Image, rect image.Rectangle, v View, layer Layer) {
	switch layer {
	case LayerBack:
		draw.Draw(dst, rect, traceBackground, image.Point{}, draw.Src)
	case LayerMid:
		paintTrace(dst, rect, v, p.src, p.lo, p.hi, p.color)
	}
}

// IQTracePlot draws the in-phase and quadrature components of a complex source.
type IQTracePlot struct {
	src    sample.Typed[complex64]
	height int
}

func NewIQTracePlot(src sample.Typed[complex64], height int) *IQTracePlot {
	return &IQTracePlot{src: src, height: height}
}

// Output is the complex source itself.
func (p *IQTracePlot) Output() sample.Source {
	return p.src
}

func (p *IQTracePlot) Height() int {
	return p.height
}

func (p *IQTracePlot) Close() error {
	return nil
}

func (p *IQTracePlot) Paint(dst draw.Image, rect image.Rectangle, v View, layer Layer) {
	switch layer {
	case LayerBack:
		draw.Draw(dst, rect, traceBackground, image.Point{}, draw.Src)
	case LayerMid:
		paintTrace(dst, rect, v, pointwise(p.src, func(c complex64) float32 { return real(c) }), -1, 1, traceColor)
		paintTrace(dst, rect, v, pointwise(p.src, func(c complex64) float32 { return imag(c) }), -1, 1, quadratureColor)
	}
}

// paintTrace draws, for every column, a vertical span from the minimum to the
// maximum sample of that column.
func paintTrace(dst draw.Image, rect image.Rectangle, v View, src sample.Typed[float32], lo, hi float32, c color.RGBA) {
	if rect.Empty() || v.Range.Empty() || hi <= lo {
		return
	}
	data, ok := src.Samples(v.Range.Minimum, v.Range.Length())
	if !ok {
		return
	}

	spc := max(1, v.SamplesPerColumn)
	h := rect.Dy() - 1
	toY := func(value float32) int {
		f := (min(hi, max(lo, value)) - lo) / (hi - lo)
		return rect.Min.Y + h - int(f*float32(h)+0.5)
	}

	for x := 0; x < rect.Dx(); x++ {
		from := int64(x) * spc
		if from >= int64(len(data)) {
			break
		}
		column := data[from:min(from+spc, int64(len(data)))]
		lowest, highest := column[0], column[0]
		for _, s := range column[1:] {
			lowest = min(lowest, s)
			highest = max(highest, s)
		}
		for y := toY(highest); y <= toY(lowest); y++ {
			dst.Set(rect.Min.X+x, y, c)
		}
	}
}
