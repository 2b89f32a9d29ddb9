package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

const (
	dpi      = 72.0
	fontSize = 12.0

	// PixelsPerTick is the minimum horizontal room for one labelled tick.
	PixelsPerTick = 80

	majorTickHeight = 30
	minorTickHeight = 10
	labelBaseline   = 25
)

// Tick is one time-scale mark in viewport columns.
type Tick struct {
	Column  int
	Seconds float64
	Major   bool
}

// Label returns the tick time in seconds with microsecond precision.
func (t Tick) Label() string {
	return fmt.Sprintf("%.06f", t.Seconds)
}

// TimeTicks lays out the major and minor ticks for viewRange at rate, for a
// viewport of width columns of samplesPerColumn samples each. Major ticks are
// 10^floor(log10(duration/maxTicks))*10 seconds apart, minor ticks a tenth
// of that.
func TimeTicks(viewRange sample.Range[int64], rate float64, width int, samplesPerColumn int64) []Tick {
	if rate <= 0 || samplesPerColumn <= 0 {
		return nil
	}
	start := float64(viewRange.Minimum) / rate
	stop := float64(viewRange.Maximum) / rate
	duration := stop - start
	maxTicks := width / PixelsPerTick
	if duration <= 0 || maxTicks <= 0 {
		return nil
	}

	step := 10 * math.Pow(10, math.Floor(math.Log10(duration/float64(maxTicks))))

	var ticks []Tick
	layout := func(step float64, major bool) {
		tick := math.Floor(start/step) * step
		for ; tick <= stop; tick += step {
			s := int64(tick * rate)
			ticks = append(ticks, Tick{
				Column:  int((s - viewRange.Minimum) / samplesPerColumn),
				Seconds: tick,
				Major:   major,
			})
		}
	}
	layout(step, true)
	layout(step/10, false)
	return ticks
}

// TimeScale draws the time ticks and their labels over a view.
type TimeScale struct {
	context *freetype.Context
	face    font.Face
	color   color.Color
}

func NewTimeScale() (*TimeScale, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.White)

	return &TimeScale{
		context: ctx,
		face: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
		color: color.White,
	}, nil
}

func (ts *TimeScale) Close() error {
	if ts.face != nil {
		return ts.face.Close()
	}
	return nil
}

// Paint draws the ticks of viewRange into rect.
func (ts *TimeScale) Paint(dst draw.Image, rect image.Rectangle, viewRange sample.Range[int64], rate float64, samplesPerColumn int64) error {
	ts.context.SetClip(rect)
	ts.context.SetDst(dst)

	for _, tick := range TimeTicks(viewRange, rate, rect.Dx(), samplesPerColumn) {
		x := rect.Min.X + tick.Column
		height := minorTickHeight
		if tick.Major {
			height = majorTickHeight
		}
		for y := rect.Min.Y; y < rect.Min.Y+height && y < rect.Max.Y; y++ {
			dst.Set(x, y, ts.color)
		}
		if !tick.Major {
			continue
		}

		pt := freetype.Pt(x+2, rect.Min.Y+labelBaseline)
		if _, err := ts.context.DrawString(tick.Label(), pt); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

// DrawLabel draws text with its baseline at pt.
func (ts *TimeScale) DrawLabel(dst draw.Image, clip image.Rectangle, pt image.Point, text string) error {
	ts.context.SetClip(clip)
	ts.context.SetDst(dst)
	if _, err := ts.context.DrawString(text, freetype.Pt(pt.X, pt.Y)); err != nil {
		return fmt.Errorf("drawing label: %w", err)
	}
	return nil
}

// MeasureString returns the advance width of text in pixels.
func (ts *TimeScale) MeasureString(text string) int {
	return font.MeasureString(ts.face, text).Round()
}
