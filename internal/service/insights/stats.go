package insights

import (
	"math"
	"sort"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the sample standard deviation.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// pearson returns the correlation coefficient of two equally long series,
// or 0 when either one is constant.
func pearson(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

// series holds samples newest first.
type series []core.MetricSample

func newSeries(samples []core.MetricSample) series {
	s := append(series(nil), samples...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].At.After(s[j].At) })
	return s
}

func (s series) values() []float64 {
	out := make([]float64, len(s))
	for i, sm := range s {
		out[i] = sm.Value
	}
	return out
}

// window returns s[from:to] clipped to the series length.
func (s series) window(from, to int) series {
	if from > len(s) {
		from = len(s)
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}

func (s series) since(t time.Time) series {
	var out series
	for _, sm := range s {
		if !sm.At.Before(t) {
			out = append(out, sm)
		}
	}
	return out
}

func (s series) latest() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].At
}

func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func isWeekend(t time.Time) bool {
	switch t.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}
