// Package plots holds the drawable plots of the viewer and the registry of
// plots that can be derived from a source of a given element type.
package plots

import (
	"image"
	"image/draw"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

// Layer orders the draw calls of one repaint.
type Layer int

const (
	LayerBack Layer = iota
	LayerMid
	LayerFront
)

// Layers lists the layers in paint order.
var Layers = []Layer{LayerBack, LayerMid, LayerFront}

// View is the visible portion of the recording.
type View struct {
	Range            sample.Range[int64]
	SamplesPerColumn int64
}

// Plot is one horizontal strip of the display.
type Plot interface {
	// Output is the source other plots can be derived from.
	Output() sample.Source

	// Height is the strip height in pixels.
	Height() int

	Paint(dst draw.Image, rect image.Rectangle, v View, layer Layer)

	Close() error
}
