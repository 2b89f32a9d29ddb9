// Package cursor implements the time selection cursors, the measurements
// derived from them, symbol extraction and sample export.
package cursor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/roman-kulish/radio-inspector/internal/sample"
	"github.com/roman-kulish/radio-inspector/internal/view"
)

// GrabTolerance is how close, in columns, a press has to land to grab a
// cursor.
const GrabTolerance = 5

var (
	cursorColor  = image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	segmentColor = image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x60})
	bandColor    = image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x18})
)

type edge int

const (
	noEdge edge = iota
	minEdge
	maxEdge
)

// Cursors is the pair of vertical cursors in viewport columns together with
// the number of segments the selection is divided into.
type Cursors struct {
	selection sample.Range[int]
	segments  int
	frozen    bool
	snapshot  sample.Range[int]
	dragging  edge
}

func NewCursors() *Cursors {
	return &Cursors{segments: 1}
}

func (c *Cursors) Selection() sample.Range[int] {
	return c.selection
}

// SetSelection places the cursors, normalising the order of the edges.
func (c *Cursors) SetSelection(r sample.Range[int]) {
	c.selection = r.Normalized()
}

func (c *Cursors) Segments() int {
	return c.segments
}

// SetSegments sets the segment count, at least 1.
func (c *Cursors) SetSegments(n int) {
	c.segments = max(1, n)
}

// Freeze stops the cursors from following the mouse and snapshots the
// current selection.
func (c *Cursors) Freeze(frozen bool) {
	c.frozen = frozen
	c.dragging = noEdge
	if frozen {
		c.snapshot = c.selection
	}
}

func (c *Cursors) Frozen() bool {
	return c.frozen
}

// Snapshot returns the selection captured by the last Freeze(true).
func (c *Cursors) Snapshot() sample.Range[int] {
	return c.snapshot
}

// Press starts dragging the edge nearest to x when it is within
// GrabTolerance. It reports whether an edge was grabbed.
func (c *Cursors) Press(x int) bool {
	if c.frozen {
		return false
	}
	dMin := abs(x - c.selection.Minimum)
	dMax := abs(x - c.selection.Maximum)
	switch {
	case dMin <= GrabTolerance && dMin <= dMax:
		c.dragging = minEdge
	case dMax <= GrabTolerance:
		c.dragging = maxEdge
	default:
		c.dragging = noEdge
	}
	return c.dragging != noEdge
}

// Move drags the grabbed edge to x and reports whether the selection changed.
// Dragging an edge past the other one swaps which edge is held.
func (c *Cursors) Move(x int) bool {
	if c.dragging == noEdge || c.frozen {
		return false
	}
	old := c.selection
	if c.dragging == minEdge {
		c.selection.Minimum = x
	} else {
		c.selection.Maximum = x
	}
	if c.selection.Minimum > c.selection.Maximum {
		c.selection = c.selection.Normalized()
		if c.dragging == minEdge {
			c.dragging = maxEdge
		} else {
			c.dragging = minEdge
		}
	}
	return c.selection != old
}

// Release ends a drag.
func (c *Cursors) Release() bool {
	grabbed := c.dragging != noEdge
	c.dragging = noEdge
	return grabbed
}

// Ticks returns the columns of the inner segment boundaries.
func (c *Cursors) Ticks() []int {
	ticks := make([]int, 0, c.segments-1)
	width := float64(c.selection.Length())
	for i := 1; i < c.segments; i++ {
		ticks = append(ticks, c.selection.Minimum+int(width*float64(i)/float64(c.segments)))
	}
	return ticks
}

// Paint draws the cursors and segment boundaries into rect, column 0 being
// rect.Min.X.
func (c *Cursors) Paint(dst draw.Image, rect image.Rectangle) {
	line := func(x int, src image.Image) {
		x += rect.Min.X
		draw.Draw(dst, image.Rect(x, rect.Min.Y, x+1, rect.Max.Y).Intersect(rect), src, image.Point{}, draw.Over)
	}

	band := image.Rect(rect.Min.X+c.selection.Minimum, rect.Min.Y, rect.Min.X+c.selection.Maximum, rect.Max.Y)
	draw.Draw(dst, band.Intersect(rect), bandColor, image.Point{}, draw.Over)
	for _, x := range c.Ticks() {
		line(x, segmentColor)
	}
	line(c.selection.Minimum, cursorColor)
	line(c.selection.Maximum, cursorColor)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Selector keeps the cursor selection in sample space so it survives zoom
// and scroll changes.
type Selector struct {
	selected sample.Range[int64]
	segments int
}

func NewSelector() *Selector {
	return &Selector{segments: 1}
}

// Update recomputes the selected samples from viewport columns.
func (s *Selector) Update(cols sample.Range[int], segments int, m *view.Mapper) {
	s.selected = m.ColumnsToSampleRange(cols.Normalized())
	s.segments = max(1, segments)
}

func (s *Selector) Selected() sample.Range[int64] {
	return s.selected
}

// SetSelected replaces the selected samples.
func (s *Selector) SetSelected(r sample.Range[int64]) {
	s.selected = r.Normalized()
}

func (s *Selector) Segments() int {
	return s.segments
}

// SamplesPerSegment is the selection length divided by the segment count.
func (s *Selector) SamplesPerSegment() int64 {
	return s.selected.Length() / int64(s.segments)
}

// SetSegments changes the segment count keeping the selection start and the
// segment width, so the end moves by the difference times the width.
func (s *Selector) SetSegments(n int) {
	n = max(1, n)
	s.selected.Maximum += int64(n-s.segments) * s.SamplesPerSegment()
	s.segments = n
}

// Columns projects the selection into viewport columns.
func (s *Selector) Columns(m *view.Mapper) sample.Range[int] {
	return m.SampleRangeToColumns(s.selected)
}

// Measurement returns the timing of the selection at rate.
func (s *Selector) Measurement(rate float64) Measurement {
	return Measurement{Samples: s.selected.Length(), SampleRate: rate, Segments: s.segments}
}
