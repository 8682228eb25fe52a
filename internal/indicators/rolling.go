package indicators

import "math"

// Rolling-window helpers over parallel float slices. Missing values are
// represented as NaN throughout; the contract layer converts NaN to "absent"
// at IndicatorSet construction, so nothing here needs to special-case output.

var nan = math.NaN()

// shift returns x moved n places right, front-filled with NaN
func shift(x []float64, n int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < n {
			out[i] = nan
			continue
		}
		out[i] = x[i-n]
	}
	return out
}

// pctChange returns x[i]/x[i-n] - 1
func pctChange(x []float64, n int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < n || x[i-n] == 0 {
			out[i] = nan
			continue
		}
		out[i] = x[i]/x[i-n] - 1
	}
	return out
}

// diff returns x[i] - x[i-1], NaN at index 0
func diff(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i == 0 {
			out[i] = nan
			continue
		}
		out[i] = x[i] - x[i-1]
	}
	return out
}

// rollingMean is the w-window arithmetic mean; NaN until the window fills and
// whenever the window contains a NaN
func rollingMean(x []float64, w int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < w-1 {
			out[i] = nan
			continue
		}
		sum := 0.0
		ok := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(x[j]) {
				ok = false
				break
			}
			sum += x[j]
		}
		if !ok {
			out[i] = nan
			continue
		}
		out[i] = sum / float64(w)
	}
	return out
}

// rollingStd is the w-window sample standard deviation (ddof=1)
func rollingStd(x []float64, w int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < w-1 || w < 2 {
			out[i] = nan
			continue
		}
		sum := 0.0
		ok := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(x[j]) {
				ok = false
				break
			}
			sum += x[j]
		}
		if !ok {
			out[i] = nan
			continue
		}
		mean := sum / float64(w)
		ss := 0.0
		for j := i - w + 1; j <= i; j++ {
			d := x[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(w-1))
	}
	return out
}

// rollingMax is the w-window maximum
func rollingMax(x []float64, w int) []float64 {
	return rollingExtreme(x, w, func(a, b float64) bool { return b > a })
}

// rollingMin is the w-window minimum
func rollingMin(x []float64, w int) []float64 {
	return rollingExtreme(x, w, func(a, b float64) bool { return b < a })
}

func rollingExtreme(x []float64, w int, better func(cur, cand float64) bool) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		if i < w-1 {
			out[i] = nan
			continue
		}
		best := x[i-w+1]
		ok := !math.IsNaN(best)
		for j := i - w + 2; j <= i && ok; j++ {
			if math.IsNaN(x[j]) {
				ok = false
				break
			}
			if better(best, x[j]) {
				best = x[j]
			}
		}
		if !ok {
			out[i] = nan
			continue
		}
		out[i] = best
	}
	return out
}

// ema is the exponentially weighted mean with alpha = 2/(span+1), seeded at
// the first value (recursive form, no adjustment)
func ema(x []float64, span int) []float64 {
	out := make([]float64, len(x))
	alpha := 2.0 / (float64(span) + 1.0)
	prev := nan
	for i, v := range x {
		if math.IsNaN(prev) {
			prev = v
			out[i] = v
			continue
		}
		if math.IsNaN(v) {
			out[i] = prev
			continue
		}
		prev = alpha*v + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// elementwise binary ops, NaN-propagating

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i] - b[i]
	}
	return out
}

// div returns a/b with a zero denominator resolving to NaN, never ±Inf
func div(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		if b[i] == 0 {
			out[i] = nan
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}
