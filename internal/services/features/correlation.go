package features

import (
	"math"
	"sort"
	"time"

	"catalytics/internal/domain/models"
	"catalytics/pkg/util"
)

// Align joins two series on their UTC calendar day and returns the paired values
// in ascending date order. Within one series a later point for the same day wins.
func Align(a, b models.Series) (dates []time.Time, xs, ys []float64) {
	left := byDay(a)
	right := byDay(b)
	for day := range left {
		if _, ok := right[day]; ok {
			dates = append(dates, day)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	xs = make([]float64, len(dates))
	ys = make([]float64, len(dates))
	for i, d := range dates {
		xs[i] = left[d]
		ys[i] = right[d]
	}
	return dates, xs, ys
}

func byDay(s models.Series) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(s))
	for _, p := range s {
		out[util.Day(p.Date)] = p.Value
	}
	return out
}

// RollingCorrelation is the Pearson correlation of the last window aligned points.
// It is undefined when the overlap is shorter than window, when window < 2, or
// when either side has no variance inside the window.
func RollingCorrelation(a, b models.Series, window int) models.Correlation {
	if window < 2 {
		return models.Correlation{}
	}
	_, xs, ys := Align(a, b)
	if len(xs) < window {
		return models.Correlation{}
	}
	return Pearson(xs[len(xs)-window:], ys[len(ys)-window:])
}

// Pearson computes the correlation coefficient of two equally long samples.
func Pearson(xs, ys []float64) models.Correlation {
	if len(xs) != len(ys) || len(xs) < 2 {
		return models.Correlation{}
	}
	n := float64(len(xs))
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n
	var sxy, sxx, syy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return models.Correlation{}
	}
	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return models.Correlation{}
	}
	return models.Correlation{Value: math.Max(-1, math.Min(1, r)), Defined: true}
}
