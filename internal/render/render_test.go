package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

func majors(ticks []Tick) []Tick {
	var out []Tick
	for _, t := range ticks {
		if t.Major {
			out = append(out, t)
		}
	}
	return out
}

func TestTimeTicks(t *testing.T) {
	// 10 s on 500 columns: at most 6 labels, so 10 s apart with 1 s minor ticks.
	ticks := TimeTicks(sample.Range[int64]{Maximum: 10_000}, 1000, 500, 20)
	major := majors(ticks)
	require.Len(t, major, 2)
	assert.Equal(t, Tick{Column: 0, Seconds: 0, Major: true}, major[0])
	assert.Equal(t, Tick{Column: 500, Seconds: 10, Major: true}, major[1])
	assert.Equal(t, "10.000000", major[1].Label())

	minor := ticks[len(major):]
	require.Len(t, minor, 11)
	assert.Equal(t, 50, minor[1].Column)
	assert.False(t, minor[1].Major)
}

func TestTimeTicksOffsetView(t *testing.T) {
	view := sample.Range[int64]{Minimum: 1_500_000, Maximum: 2_300_000}
	major := majors(TimeTicks(view, 8e6, 600, 1000))
	require.NotEmpty(t, major)
	// The first tick can start left of the view.
	assert.LessOrEqual(t, major[0].Seconds, 1_500_000/8e6)
	for _, tick := range major {
		assert.Equal(t, int((int64(tick.Seconds*8e6)-view.Minimum)/1000), tick.Column)
	}
}

func TestTimeTicksDegenerate(t *testing.T) {
	assert.Empty(t, TimeTicks(sample.Range[int64]{}, 8e6, 800, 1))
	assert.Empty(t, TimeTicks(sample.Range[int64]{Maximum: 100}, 8e6, 40, 1))
	assert.Empty(t, TimeTicks(sample.Range[int64]{Maximum: 100}, 0, 800, 1))
}

func TestTimeScalePaint(t *testing.T) {
	ts, err := NewTimeScale()
	require.NoError(t, err)
	defer ts.Close()

	dst := image.NewRGBA(image.Rect(0, 0, 300, 40))
	require.NoError(t, ts.Paint(dst, dst.Bounds(), sample.Range[int64]{Maximum: 400_000}, 8e6, 1000))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, dst.RGBAAt(0, 29))
	assert.Greater(t, ts.MeasureString("0.000000"), 0)
}

func TestImageFormats(t *testing.T) {
	f, err := ParseImageFormat("JPG")
	require.NoError(t, err)
	assert.Equal(t, ImageJPEG, f)
	_, err = ParseImageFormat("bmp")
	assert.Error(t, err)

	assert.Equal(t, ImageJPEG, ImageFormatFromFilename("out.jpeg"))
	assert.Equal(t, ImagePNG, ImageFormatFromFilename("out"))

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	require.NoError(t, Encode(&buf, img, ImagePNG))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestHz(t *testing.T) {
	assert.Equal(t, "2.4 MHz", Hz(2.4e6))
	assert.Equal(t, "500 Hz", Hz(500))
}
