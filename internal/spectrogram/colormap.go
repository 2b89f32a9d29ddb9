package spectrogram

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme names a power-to-colour ramp.
type ColorTheme string

const (
	DefaultTheme   ColorTheme = "default"   // violet through red, dark at the floor
	ClassicTheme   ColorTheme = "classic"   // blue to red
	GrayscaleTheme ColorTheme = "grayscale" // black to white
	JungleTheme    ColorTheme = "jungle"    // dark green to yellow
	ThermalTheme   ColorTheme = "thermal"   // black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // deep blue to cyan to white

	// ColorMapSize is the number of precomputed ramp entries.
	ColorMapSize = 256
)

var themes = map[ColorTheme]func(p float64) colorful.Color{
	DefaultTheme: func(p float64) colorful.Color {
		return colorful.Hsv((1-p)*300, 1, math.Min(1, 0.15+p*1.2))
	},
	ClassicTheme: func(p float64) colorful.Color {
		return colorful.Hsv(240-p*240, 0.9+p*0.1, math.Pow(p, 0.7))
	},
	GrayscaleTheme: func(p float64) colorful.Color {
		v := math.Pow(p, 0.7)
		return colorful.Color{R: v, G: v, B: v}
	},
	JungleTheme: func(p float64) colorful.Color {
		return colorful.Hsv(120-p*60, 1, 0.3+math.Pow(p, 0.6)*0.7)
	},
	ThermalTheme: func(p float64) colorful.Color {
		switch {
		case p < 1.0/3:
			return colorful.Color{R: p * 3}
		case p < 2.0/3:
			return colorful.Color{R: 1, G: (p - 1.0/3) * 3}
		default:
			return colorful.Color{R: 1, G: 1, B: (p - 2.0/3) * 3}
		}
	},
	MarineTheme: func(p float64) colorful.Color {
		return colorful.Hsv(240-p*60, 1-p*0.8, 0.3+math.Pow(p, 0.6)*0.7)
	},
}

// ValidTheme reports whether name is a known theme.
func ValidTheme(name ColorTheme) bool {
	_, ok := themes[name]
	return ok
}

// ColorMapper maps power in dB onto a fixed colour ramp.
type ColorMapper struct {
	colors    [ColorMapSize]color.RGBA
	theme     ColorTheme
	powerMin  float64
	powerSpan float64
}

// NewColorMapper builds the ramp for theme, falling back to DefaultTheme.
func NewColorMapper(theme ColorTheme, powerMin, powerMax float64) *ColorMapper {
	ramp, ok := themes[theme]
	if !ok {
		theme, ramp = DefaultTheme, themes[DefaultTheme]
	}

	cm := &ColorMapper{theme: theme}
	for i := range cm.colors {
		r, g, b := ramp(float64(i) / (ColorMapSize - 1)).Clamped().RGB255()
		cm.colors[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	cm.UpdateBounds(powerMin, powerMax)
	return cm
}

// UpdateBounds changes the power range mapped onto the ramp.
func (cm *ColorMapper) UpdateBounds(powerMin, powerMax float64) {
	cm.powerMin = powerMin
	cm.powerSpan = powerMax - powerMin
}

func (cm *ColorMapper) Theme() ColorTheme {
	return cm.theme
}

// Color returns the ramp colour for power, clamped to the ramp ends.
func (cm *ColorMapper) Color(power float64) color.RGBA {
	if cm.powerSpan <= 0 {
		if power >= cm.powerMin {
			return cm.colors[ColorMapSize-1]
		}
		return cm.colors[0]
	}

	index := int((power - cm.powerMin) / cm.powerSpan * (ColorMapSize - 1))
	if index < 0 || math.IsNaN(power) {
		return cm.colors[0]
	}
	if index >= ColorMapSize {
		return cm.colors[ColorMapSize-1]
	}
	return cm.colors[index]
}
