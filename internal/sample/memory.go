package sample

import "slices"

// Memory is a source backed by a slice. It is used for synthetic signals and
// for extracted selections.
type Memory[T Element] struct {
	Notifier

	data []T
	rate float64
}

// NewMemory returns a source over a copy of data.
func NewMemory[T Element](data []T, rate float64) *Memory[T] {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Memory[T]{data: slices.Clone(data), rate: rate}
}

// Append grows the source and notifies subscribers.
func (m *Memory[T]) Append(data ...T) {
	m.data = append(m.data, data...)
	m.Invalidate()
}

func (m *Memory[T]) ElementType() ElementType {
	return TypeOf[T]()
}

func (m *Memory[T]) Count() int64 {
	return int64(len(m.data))
}

func (m *Memory[T]) Rate() float64 {
	return m.rate
}

func (m *Memory[T]) SetSampleRate(rate float64) {
	if rate > 0 {
		m.rate = rate
	}
}

func (m *Memory[T]) RelativeBandwidth() float64 {
	return 1
}

func (m *Memory[T]) AsComplex() (Typed[complex64], bool) {
	return AsComplex[T](m)
}

func (m *Memory[T]) AsScalar() (Typed[float32], bool) {
	return AsScalar[T](m)
}

func (m *Memory[T]) Samples(start, length int64) ([]T, bool) {
	if !InBounds(start, length, m.Count()) {
		return nil, false
	}
	return slices.Clone(m.data[start : start+length]), true
}
