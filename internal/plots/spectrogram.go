package plots

import (
	"image"
	"image/draw"

	"github.com/roman-kulish/radio-inspector/internal/sample"
	"github.com/roman-kulish/radio-inspector/internal/spectrogram"
	"github.com/roman-kulish/radio-inspector/internal/tuner"
)

// SpectrogramPlot is the first plot of the display. Its output is the tuner
// when the tuner is enabled and the raw input otherwise.
type SpectrogramPlot struct {
	engine *spectrogram.Engine
	tuner  *tuner.Tuner
}

// NewSpectrogramPlot wraps engine; tu may be nil.
func NewSpectrogramPlot(engine *spectrogram.Engine, tu *tuner.Tuner) *SpectrogramPlot {
	if tu != nil {
		engine.AttachTuner(tu)
	}
	return &SpectrogramPlot{engine: engine, tuner: tu}
}

func (p *SpectrogramPlot) Engine() *spectrogram.Engine {
	return p.engine
}

func (p *SpectrogramPlot) Tuner() *tuner.Tuner {
	return p.tuner
}

func (p *SpectrogramPlot) Output() sample.Source {
	if p.tuner != nil && p.engine.TunerEnabled() {
		return p.tuner
	}
	return p.engine.Input()
}

func (p *SpectrogramPlot) Height() int {
	return p.engine.Height()
}

func (p *SpectrogramPlot) Close() error {
	return p.engine.Close()
}

func (p *SpectrogramPlot) Paint(dst draw.Image, rect image.Rectangle, v View, layer Layer) {
	if layer == LayerMid {
		p.engine.Paint(dst, rect, v.Range)
	}
}
