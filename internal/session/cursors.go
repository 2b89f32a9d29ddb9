package session

import (
	"github.com/roman-kulish/radio-inspector/internal/cursor"
	"github.com/roman-kulish/radio-inspector/internal/sample"
)

// EnableCursors shows or hides the time cursors. When shown, a previous
// selection keeps its width and is moved to a third of the viewport;
// otherwise the middle third is selected.
func (s *Session) EnableCursors(enabled bool) {
	s.lock()
	defer s.unlock()

	s.cursorsEnabled = enabled
	if !enabled {
		return
	}

	width := s.mapper.Width()
	margin := width / 3
	sel := s.selector.Columns(s.mapper)
	if s.selector.Selected().Empty() {
		sel = sample.Range[int]{Minimum: margin, Maximum: width - margin}
	} else {
		sel = sample.Range[int]{Minimum: margin, Maximum: margin + sel.Length()}
	}
	s.cursors.SetSelection(sel)
	s.cursorsMoved()
}

func (s *Session) CursorsEnabled() bool {
	s.lock()
	defer s.unlock()

	return s.cursorsEnabled
}

// FreezeCursors stops the cursors from following the pointer.
func (s *Session) FreezeCursors(frozen bool) {
	s.lock()
	defer s.unlock()

	s.cursors.Freeze(frozen)
}

// SetCursorSegments divides the selection into n segments keeping its start
// and the segment width.
func (s *Session) SetCursorSegments(n int) {
	s.lock()
	defer s.unlock()

	n = max(1, n)
	s.selector.SetSegments(n)
	s.cursors.SetSegments(n)
	s.updateView()
	s.emitTimeSelection()
}

// MoveCursors selects the samples of sel.
func (s *Session) MoveCursors(sel sample.Range[int64]) {
	s.lock()
	defer s.unlock()

	s.selector.SetSelected(sel)
	s.updateView()
	s.emitTimeSelection()
}

// Selection returns the selected samples and the number of segments.
func (s *Session) Selection() (sample.Range[int64], int) {
	s.lock()
	defer s.unlock()

	return s.selector.Selected(), s.selector.Segments()
}

// Measurement returns the timing of the current selection.
func (s *Session) Measurement() cursor.Measurement {
	s.lock()
	defer s.unlock()

	if s.file == nil {
		return cursor.Measurement{}
	}
	return s.selector.Measurement(s.file.Rate())
}

// PointerPress starts dragging the cursor near column x and reports whether
// one was grabbed.
func (s *Session) PointerPress(x int) bool {
	s.lock()
	defer s.unlock()

	return s.cursorsEnabled && s.cursors.Press(x)
}

// PointerMove drags the grabbed cursor to column x.
func (s *Session) PointerMove(x int) bool {
	s.lock()
	defer s.unlock()

	if !s.cursorsEnabled || !s.cursors.Move(x) {
		return false
	}
	s.cursorsMoved()
	return true
}

// PointerRelease ends a cursor drag.
func (s *Session) PointerRelease() bool {
	s.lock()
	defer s.unlock()

	return s.cursors.Release()
}

// cursorsMoved stores the cursor columns in sample space and notifies the
// time selection observers.
func (s *Session) cursorsMoved() {
	s.selector.Update(s.cursors.Selection(), s.cursors.Segments(), s.mapper)
	s.emitTimeSelection()
}
