// Package view maps between absolute sample indices and screen columns and
// owns the scroll position of the viewport.
package view

import (
	"math/bits"

	"github.com/roman-kulish/radio-inspector/internal/sample"
)

const (
	MinFFTSize = 16
	MaxFFTSize = 8192

	// SingleStep and PageStep are the keyboard scroll increments in columns.
	SingleStep = 10
	PageStep   = 100

	// WheelStep is the wheel delta of one notch.
	WheelStep = 120
)

// Trigger selects the zoom anchor.
type Trigger int

const (
	// TriggerKeyboard anchors zoom changes on the viewport centre.
	TriggerKeyboard Trigger = iota

	// TriggerWheel anchors zoom changes on the column under the pointer.
	TriggerWheel
)

// ClampFFTSize returns the power of two in [MinFFTSize, MaxFFTSize] nearest
// to n, rounding down between two candidates.
func ClampFFTSize(n int) int {
	if n <= MinFFTSize {
		return MinFFTSize
	}
	if n >= MaxFFTSize {
		return MaxFFTSize
	}
	lower := 1 << (bits.Len(uint(n)) - 1)
	if n-lower > 2*lower-n {
		return 2 * lower
	}
	return lower
}

// ClampZoom limits zoom to [1, fftSize].
func ClampZoom(zoom, fftSize int) int {
	return max(1, min(zoom, fftSize))
}

// Mapper converts between samples and columns for a given FFT size and zoom
// level and tracks the visible window.
type Mapper struct {
	fftSize int
	zoom    int

	total  int64
	width  int // viewport width in columns
	height int // viewport height in pixels

	plotsHeight int
	scroll      int64
	vscroll     int

	wheel int
}

// NewMapper returns a mapper with clamped FFT size and zoom.
func NewMapper(fftSize, zoom int) *Mapper {
	m := &Mapper{}
	m.fftSize = ClampFFTSize(fftSize)
	m.zoom = ClampZoom(zoom, m.fftSize)
	return m
}

func (m *Mapper) FFTSize() int {
	return m.fftSize
}

func (m *Mapper) Zoom() int {
	return m.zoom
}

// SamplesPerColumn is fftSize/zoom, never below 1.
func (m *Mapper) SamplesPerColumn() int64 {
	return max(1, int64(m.fftSize/m.zoom))
}

func (m *Mapper) SampleToColumn(s int64) int64 {
	return s / m.SamplesPerColumn()
}

func (m *Mapper) ColumnToSample(c int64) int64 {
	return c * m.SamplesPerColumn()
}

// Columns returns the number of columns holding at least one sample.
func (m *Mapper) Columns() int64 {
	spc := m.SamplesPerColumn()
	return (m.total + spc - 1) / spc
}

func (m *Mapper) Total() int64 {
	return m.total
}

// SetTotal updates the sample count and reclamps the scroll position.
func (m *Mapper) SetTotal(n int64) {
	m.total = max(0, n)
	m.clampScroll()
}

// Resize sets the viewport size.
func (m *Mapper) Resize(width, height int) {
	m.width = max(0, width)
	m.height = max(0, height)
	m.clampScroll()
}

func (m *Mapper) Width() int {
	return m.width
}

func (m *Mapper) Height() int {
	return m.height
}

// SetPlotsHeight sets the sum of all plot heights.
func (m *Mapper) SetPlotsHeight(h int) {
	m.plotsHeight = max(0, h)
	m.clampScroll()
}

// ScrollMax is the largest horizontal scroll offset in columns.
func (m *Mapper) ScrollMax() int64 {
	return max(0, m.Columns()-int64(m.width))
}

// VerticalMax is the largest vertical scroll offset in pixels.
func (m *Mapper) VerticalMax() int {
	return max(0, m.plotsHeight-m.height)
}

func (m *Mapper) Scroll() int64 {
	return m.scroll
}

func (m *Mapper) VerticalScroll() int {
	return m.vscroll
}

func (m *Mapper) ScrollTo(c int64) {
	m.scroll = c
	m.clampScroll()
}

func (m *Mapper) ScrollBy(dc int64) {
	m.ScrollTo(m.scroll + dc)
}

func (m *Mapper) VerticalScrollTo(y int) {
	m.vscroll = y
	m.clampScroll()
}

func (m *Mapper) clampScroll() {
	m.scroll = max(0, min(m.scroll, m.ScrollMax()))
	m.vscroll = max(0, min(m.vscroll, m.VerticalMax()))
}

// ViewRange returns the visible sample interval.
func (m *Mapper) ViewRange() sample.Range[int64] {
	start := m.ColumnToSample(m.scroll)
	end := min(start+m.ColumnToSample(int64(m.width)), m.total)
	return sample.Range[int64]{Minimum: min(start, end), Maximum: end}
}

// SetFFTAndZoom changes the resolution. The sample at the anchor column
// (viewport centre, or pointerX for wheel zoom) stays at the same screen
// position. It reports whether anything changed.
func (m *Mapper) SetFFTAndZoom(fftSize, zoom int, trigger Trigger, pointerX int) bool {
	fftSize = ClampFFTSize(fftSize)
	zoom = ClampZoom(zoom, fftSize)
	if fftSize == m.fftSize && zoom == m.zoom {
		return false
	}

	pos := m.width / 2
	if trigger == TriggerWheel {
		pos = max(0, min(pointerX, m.width))
	}
	anchor := m.ColumnToSample(m.scroll + int64(pos))

	m.fftSize = fftSize
	m.zoom = zoom
	m.scroll = m.SampleToColumn(anchor) - int64(pos)
	m.clampScroll()
	return true
}

// Wheel accumulates a wheel delta and returns the number of whole notches,
// positive for zooming in.
func (m *Mapper) Wheel(delta int) int {
	m.wheel += delta
	steps := m.wheel / WheelStep
	m.wheel -= steps * WheelStep
	return steps
}

// WheelZoom applies a wheel delta at pointerX, doubling or halving the zoom
// level per notch.
func (m *Mapper) WheelZoom(delta, pointerX int) bool {
	steps := m.Wheel(delta)
	if steps == 0 {
		return false
	}
	zoom := m.zoom
	for ; steps > 0 && zoom < m.fftSize; steps-- {
		zoom *= 2
	}
	for ; steps < 0 && zoom > 1; steps++ {
		zoom /= 2
	}
	return m.SetFFTAndZoom(m.fftSize, zoom, TriggerWheel, pointerX)
}

// SampleRangeToColumns projects a sample range into viewport-relative columns.
func (m *Mapper) SampleRangeToColumns(r sample.Range[int64]) sample.Range[int] {
	return sample.Range[int]{
		Minimum: int(m.SampleToColumn(r.Minimum) - m.scroll),
		Maximum: int(m.SampleToColumn(r.Maximum) - m.scroll),
	}
}

// ColumnsToSampleRange projects viewport-relative columns into samples.
func (m *Mapper) ColumnsToSampleRange(r sample.Range[int]) sample.Range[int64] {
	return sample.Range[int64]{
		Minimum: m.ColumnToSample(int64(r.Minimum) + m.scroll),
		Maximum: m.ColumnToSample(int64(r.Maximum) + m.scroll),
	}
}
