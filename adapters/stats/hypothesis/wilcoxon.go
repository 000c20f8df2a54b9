package hypothesis

import (
	stderrors "errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"edakit/domain/dataset"
	"edakit/domain/stats"
)

// ErrAllZeroDifferences is returned when every paired difference is zero
var ErrAllZeroDifferences = stderrors.New("all paired differences are zero")

// wilcoxonExactMax is the largest sample size for which the exact null
// distribution is enumerated.
const wilcoxonExactMax = 50

// WilcoxonTest is the Wilcoxon signed-rank test on two paired columns.
// Zero differences are discarded. Without zeros or ties and for n <= 50 the
// p-value is exact; otherwise a tie-corrected normal approximation is used.
type WilcoxonTest struct{}

// NewWilcoxonTest creates a new Wilcoxon signed-rank test
func NewWilcoxonTest() *WilcoxonTest {
	return &WilcoxonTest{}
}

func (t *WilcoxonTest) Kind() stats.TestKind { return stats.TestWilcoxon }

func (t *WilcoxonTest) Description() string {
	return "Wilcoxon signed-rank test for two paired columns"
}

func (t *WilcoxonTest) Run(tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	samples, err := pairedSamples(tbl, t.Kind(), 2, 2)
	if err != nil {
		return nil, err
	}

	stat, p, n, err := signedRank(samples[0].values, samples[1].values, opts.Alternative)
	if err != nil {
		return nil, procedureError(t.Kind(), err)
	}

	r := stats.NewTestResult(t.Kind(), names(samples), stat, p, opts.Alpha)
	r.N = []int{n, n}
	return []stats.TestResult{r}, nil
}

// Wilcoxon runs the signed-rank test on a two-column paired table
func Wilcoxon(tbl *dataset.Table, opts Options) (stats.TestResult, error) {
	return single(NewWilcoxonTest().Run(tbl, opts))
}

// signedRank returns the statistic (min(R+, R-) for two-sided, R+
// otherwise), its p-value and the number of non-zero differences.
func signedRank(x, y []float64, alt stats.Alternative) (float64, float64, int, error) {
	d := make([]float64, 0, len(x))
	zeros := 0
	for i := range x {
		if diff := x[i] - y[i]; diff != 0 {
			d = append(d, diff)
		} else {
			zeros++
		}
	}
	n := len(d)
	if n == 0 {
		return math.NaN(), math.NaN(), 0, ErrAllZeroDifferences
	}

	abs := make([]float64, n)
	for i, v := range d {
		abs[i] = math.Abs(v)
	}
	ranks, ties := rankAverage(abs)

	var rPlus, rMinus float64
	for i, v := range d {
		if v > 0 {
			rPlus += ranks[i]
		} else {
			rMinus += ranks[i]
		}
	}

	stat := rPlus
	if alt == stats.TwoSided {
		stat = math.Min(rPlus, rMinus)
	}

	if zeros == 0 && len(ties) == 0 && n <= wilcoxonExactMax {
		return stat, signedRankExactP(n, stat, alt), n, nil
	}

	fn := float64(n)
	mu := fn * (fn + 1) / 4
	se := math.Sqrt(fn*(fn+1)*(2*fn+1)/24 - tieSum(ties)/48)
	z := (stat - mu) / se
	var p float64
	switch alt {
	case stats.Greater:
		p = distuv.UnitNormal.Survival(z)
	case stats.Less:
		p = distuv.UnitNormal.CDF(z)
	default:
		p = 2 * distuv.UnitNormal.Survival(math.Abs(z))
	}
	return stat, math.Min(p, 1), n, nil
}

// signedRankExactP enumerates the null distribution of R+ for n untied,
// non-zero differences.
func signedRankExactP(n int, stat float64, alt stats.Alternative) float64 {
	maxSum := n * (n + 1) / 2
	// counts[s] = number of sign assignments with R+ = s
	counts := make([]float64, maxSum+1)
	counts[0] = 1
	for k := 1; k <= n; k++ {
		for s := maxSum; s >= k; s-- {
			counts[s] += counts[s-k]
		}
	}
	total := math.Pow(2, float64(n))

	// ranks are integers when there are no ties
	r := int(math.Round(stat))
	var le, ge float64
	for s := 0; s <= maxSum; s++ {
		if s <= r {
			le += counts[s]
		}
		if s >= r {
			ge += counts[s]
		}
	}

	switch alt {
	case stats.Greater:
		return ge / total
	case stats.Less:
		return le / total
	default:
		return math.Min(2*le/total, 1)
	}
}
