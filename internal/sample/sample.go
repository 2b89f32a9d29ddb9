// Package sample defines the typed, randomly addressable sample streams that
// make up the processing graph, together with the file decoders producing the
// leaf streams.
package sample

import "fmt"

// ElementType tags the kind of value a Source produces.
type ElementType int

const (
	// Complex sources produce complex64 samples (an I/Q pair of float32).
	Complex ElementType = iota

	// Scalar sources produce real float32 samples.
	Scalar
)

func (t ElementType) String() string {
	switch t {
	case Complex:
		return "complex32"
	case Scalar:
		return "scalar32"
	default:
		return fmt.Sprintf("ElementType(%d)", int(t))
	}
}

// Element is the set of sample value types a Typed source can carry.
type Element interface {
	complex64 | float32
}

// TypeOf returns the ElementType matching the type parameter.
func TypeOf[T Element]() ElementType {
	var zero T
	if _, ok := any(zero).(complex64); ok {
		return Complex
	}
	return Scalar
}

// Source is a node of the processing graph. Samples are obtained through one
// of the capability queries, which return the typed view matching ElementType.
type Source interface {
	// ElementType reports which capability query succeeds.
	ElementType() ElementType

	// Count returns the total number of samples. It only grows, and only as
	// a result of a reload of the backing file.
	Count() int64

	// Rate returns the sample rate in Hz.
	Rate() float64

	// RelativeBandwidth is the ratio of this node's useful bandwidth to the
	// sample rate of the recording, 1 unless a decimating tuner is upstream.
	RelativeBandwidth() float64

	Subscribe(s Subscriber)
	Unsubscribe(s Subscriber)

	AsComplex() (Typed[complex64], bool)
	AsScalar() (Typed[float32], bool)
}

// Typed is a Source with access to its samples.
type Typed[T Element] interface {
	Source

	// Samples returns length samples starting at start. The second result is
	// false when the range cannot be produced, which callers treat as "skip"
	// rather than as a failure. Values are deterministic per index and the
	// returned buffer belongs to the caller.
	Samples(start, length int64) ([]T, bool)
}

// Decimation returns the stride matching the relative bandwidth of src, at
// least 1.
func Decimation(src Source) int64 {
	rb := src.RelativeBandwidth()
	if rb <= 0 || rb >= 1 {
		return 1
	}
	d := int64(1/rb + 0.5)
	if d < 1 {
		return 1
	}
	return d
}

// capabilities implements the capability queries for a generic node.
func capabilities[T Element](s Typed[T]) (Typed[complex64], Typed[float32]) {
	c, _ := any(s).(Typed[complex64])
	f, _ := any(s).(Typed[float32])
	return c, f
}

// AsComplex is a helper for generic node implementations.
func AsComplex[T Element](s Typed[T]) (Typed[complex64], bool) {
	c, _ := capabilities(s)
	return c, c != nil
}

// AsScalar is a helper for generic node implementations.
func AsScalar[T Element](s Typed[T]) (Typed[float32], bool) {
	_, f := capabilities(s)
	return f, f != nil
}

// InBounds reports whether [start, start+length) lies inside [0, count).
func InBounds(start, length, count int64) bool {
	return start >= 0 && length >= 0 && start <= count && length <= count-start
}
