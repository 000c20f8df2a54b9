package profiling

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"edakit/internal/errors"
)

// Summary holds descriptive statistics of one numeric column
type Summary struct {
	Count    int       `json:"count"`
	Missing  int       `json:"missing"`
	Mean     float64   `json:"mean"`
	StdDev   float64   `json:"std_dev"`
	Min      float64   `json:"min"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	Max      float64   `json:"max"`
	Modes    []float64 `json:"modes"`
	Skewness float64   `json:"skewness"`
	Kurtosis float64   `json:"kurtosis"` // excess kurtosis
}

// Mode returns the smallest mode, NaN when there is none
func (s Summary) Mode() float64 {
	if len(s.Modes) == 0 {
		return math.NaN()
	}
	return s.Modes[0]
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Describe computes the summary of values. NaN entries count as missing and
// are excluded from every statistic.
func (da *DistributionAnalyzer) Describe(values []float64) (Summary, error) {
	data := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}

	summary := Summary{Count: len(data), Missing: len(values) - len(data)}
	if len(data) == 0 {
		return summary, errors.InvalidInput("no observed values to describe")
	}

	var err error
	if summary.Mean, err = stats.Mean(data); err != nil {
		return summary, err
	}
	if len(data) > 1 {
		if summary.StdDev, err = stats.StandardDeviationSample(data); err != nil {
			return summary, err
		}
	} else {
		summary.StdDev = math.NaN()
	}
	if summary.Min, err = stats.Min(data); err != nil {
		return summary, err
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return summary, err
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return summary, err
	}

	sorted := Sorted(data)
	summary.Q1 = Quantile(sorted, 0.25)
	summary.Q3 = Quantile(sorted, 0.75)

	modes, err := stats.Mode(data)
	if err != nil {
		return summary, err
	}
	if len(modes) == 0 {
		// every value occurs once, so every value is a mode
		modes = uniqueSorted(sorted)
	}
	summary.Modes = modes

	summary.Skewness = calculateSkewness(data, summary.Mean)
	summary.Kurtosis = calculateKurtosis(data, summary.Mean)

	return summary, nil
}

// Sorted returns an ascending copy of data
func Sorted(data []float64) []float64 {
	cp := make([]float64, len(data))
	copy(cp, data)
	sort.Float64s(cp)
	return cp
}

// Quantile returns the p-quantile (0 <= p <= 1) of ascending data by linear
// interpolation between the order statistics at rank p*(n-1). Empty input
// yields NaN.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	rank := p * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	weight := rank - float64(lower)
	if upper >= n {
		return sorted[lower]
	}
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func uniqueSorted(sorted []float64) []float64 {
	out := make([]float64, 0, len(sorted))
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// centralMoments returns the second, third and fourth population central moments
func centralMoments(data []float64, mean float64) (m2, m3, m4 float64) {
	n := float64(len(data))
	for _, x := range data {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	return m2 / n, m3 / n, m4 / n
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean float64) float64 {
	n := float64(len(data))
	if n < 3 {
		return math.NaN()
	}
	m2, m3, _ := centralMoments(data, mean)
	if m2 == 0 {
		return 0
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}

// calculateKurtosis computes bias-corrected sample excess kurtosis
func calculateKurtosis(data []float64, mean float64) float64 {
	n := float64(len(data))
	if n < 4 {
		return math.NaN()
	}
	m2, _, m4 := centralMoments(data, mean)
	if m2 == 0 {
		return 0
	}
	g2 := m4/(m2*m2) - 3
	return ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3))
}
