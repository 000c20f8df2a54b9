package hypothesis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// rankAverage assigns 1-based ranks to xs, giving tied values the mean of the
// ranks they span. It also returns the sizes of every tie group (size > 1).
func rankAverage(xs []float64) (ranks []float64, ties []int) {
	n := len(xs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return xs[order[a]] < xs[order[b]] })

	ranks = make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && xs[order[j]] == xs[order[i]] {
			j++
		}
		// positions i..j-1 share ranks i+1..j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		if j-i > 1 {
			ties = append(ties, j-i)
		}
		i = j
	}
	return ranks, ties
}

// tieSum returns sum(t^3 - t) over tie group sizes
func tieSum(ties []int) float64 {
	var s float64
	for _, t := range ties {
		ft := float64(t)
		s += ft*ft*ft - ft
	}
	return s
}

// tieCorrection is 1 - sum(t^3 - t)/(n^3 - n), the factor rank statistics
// are divided by when ties are present.
func tieCorrection(ties []int, n int) float64 {
	if n < 2 {
		return 1
	}
	fn := float64(n)
	return 1 - tieSum(ties)/(fn*fn*fn-fn)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	s := make([]float64, n)
	copy(s, xs)
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// trimBoth sorts xs and removes int(proportion*n) values from each end
func trimBoth(xs []float64, proportion float64) []float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	cut := int(proportion * float64(len(s)))
	if 2*cut >= len(s) {
		return s[:0]
	}
	return s[cut : len(s)-cut]
}
