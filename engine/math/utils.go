package math

import "golang.org/x/exp/constraints"

const (
	/** @brief An approximate representation of PI. */
	Pi float32 = 3.14159265358979323846
	/** @brief An approximate representation of PI multiplied by 2. */
	TwoPi float32 = 2.0 * Pi
)

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Clamp constrains v to the inclusive range [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return Max(lo, Min(v, hi))
}
