package sample

// Range is a half-open interval [Minimum, Maximum).
type Range[T ~int | ~int64] struct {
	Minimum T
	Maximum T
}

func (r Range[T]) Length() T {
	return r.Maximum - r.Minimum
}

func (r Range[T]) Empty() bool {
	return r.Maximum <= r.Minimum
}

func (r Range[T]) Contains(v T) bool {
	return v >= r.Minimum && v < r.Maximum
}

// Normalized returns the range with Minimum <= Maximum.
func (r Range[T]) Normalized() Range[T] {
	if r.Minimum > r.Maximum {
		return Range[T]{Minimum: r.Maximum, Maximum: r.Minimum}
	}
	return r
}

// Clamp limits both ends of the range to [lo, hi].
func (r Range[T]) Clamp(lo, hi T) Range[T] {
	return Range[T]{Minimum: clamp(r.Minimum, lo, hi), Maximum: clamp(r.Maximum, lo, hi)}
}

func clamp[T ~int | ~int64](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
