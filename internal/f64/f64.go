package f64

import "math"

// Tol is the absolute tolerance used when comparing expected rewards.
const Tol = 1e-9

// ScalUnitary is
//
//	for i := range x {
//		x[i] *= alpha
//	}
func ScalUnitary(alpha float64, x []float64) {
	for i := range x {
		x[i] *= alpha
	}
}

// Sum is
//
//	var sum float64
//	for i := range x {
//		sum += x[i]
//	}
func Sum(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum
}

// Dot is
//
//	var sum float64
//	for i, v := range x {
//		sum += y[i] * v
//	}
func Dot(x, y []float64) float64 {
	var sum float64
	for i, v := range x {
		sum += y[i] * v
	}
	return sum
}

// Normalize scales x in place to sum to one and reports whether it could.
// A vector with non-positive total is left untouched.
func Normalize(x []float64) bool {
	total := Sum(x)
	if total <= 0 {
		return false
	}

	ScalUnitary(1.0/total, x)
	return true
}

// ArgMax returns every index whose value is within Tol of the maximum.
// It returns nil for an empty slice.
func ArgMax(x []float64) []int {
	if len(x) == 0 {
		return nil
	}

	best := math.Inf(-1)
	for _, v := range x {
		if v > best {
			best = v
		}
	}

	var result []int
	for i, v := range x {
		if v == best || math.Abs(v-best) <= Tol {
			result = append(result, i)
		}
	}

	return result
}
