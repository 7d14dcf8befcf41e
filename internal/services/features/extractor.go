package features

import "math"

// RateOfChange computes percent changes r_t = (v_t / v_{t-1} - 1) * 100.
// It returns a slice of length len(values)-1, or nil if insufficient data.
// A zero previous value yields NaN for that step.
func RateOfChange(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			out = append(out, math.NaN())
			continue
		}
		out = append(out, (values[i]/prev-1)*100)
	}
	return out
}

// finite drops NaN and infinite entries.
func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// Mean is the arithmetic mean of the finite values; NaN when there are none.
func Mean(xs []float64) float64 {
	xs = finite(xs)
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev is the sample standard deviation (ddof=1) of the finite values.
// Fewer than two values yields NaN.
func StdDev(xs []float64) float64 {
	v := Variance(xs)
	if math.IsNaN(v) {
		return v
	}
	return math.Sqrt(v)
}

// Variance is the sample variance (ddof=1) of the finite values.
func Variance(xs []float64) float64 {
	xs = finite(xs)
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(n-1)
}

// Covariance is the sample covariance (ddof=1) of two equally long slices.
// Pairs where either side is not finite are dropped.
func Covariance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.NaN()
	}
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(b))
	for i := range a {
		if isFinite(a[i]) && isFinite(b[i]) {
			xs = append(xs, a[i])
			ys = append(ys, b[i])
		}
	}
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}
	mx, my := Mean(xs), Mean(ys)
	s := 0.0
	for i := range xs {
		s += (xs[i] - mx) * (ys[i] - my)
	}
	return s / float64(n-1)
}

// Round2 rounds half away from zero to two decimals, preserving NaN.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.Round(x*100) / 100
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
