package hypothesis

import (
	stderrors "errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"edakit/domain/dataset"
	"edakit/domain/stats"
)

// ErrAllIdentical is returned by rank tests when every value is tied
var ErrAllIdentical = stderrors.New("all values are identical")

// KruskalTest is the Kruskal-Wallis H test across two or more independent
// columns, corrected for ties.
type KruskalTest struct{}

// NewKruskalTest creates a new Kruskal-Wallis test
func NewKruskalTest() *KruskalTest {
	return &KruskalTest{}
}

func (t *KruskalTest) Kind() stats.TestKind { return stats.TestKruskal }

func (t *KruskalTest) Description() string {
	return "Kruskal-Wallis H test across two or more independent columns"
}

func (t *KruskalTest) Run(tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	samples, err := independentSamples(tbl, t.Kind(), 2, 0)
	if err != nil {
		return nil, err
	}
	if err := requireObservations(t.Kind(), samples, 1); err != nil {
		return nil, err
	}

	h, err := kruskalH(samples)
	if err != nil {
		return nil, procedureError(t.Kind(), err)
	}
	df := float64(len(samples) - 1)

	r := stats.NewTestResult(t.Kind(), names(samples), h, chiSquaredSurvival(h, df), opts.Alpha)
	r.N = sizes(samples)
	r.DoF = []float64{df}
	return []stats.TestResult{r}, nil
}

// Kruskal runs the Kruskal-Wallis test across the columns of tbl
func Kruskal(tbl *dataset.Table, opts Options) (stats.TestResult, error) {
	return single(NewKruskalTest().Run(tbl, opts))
}

func kruskalH(samples []sample) (float64, error) {
	var pooled []float64
	for _, s := range samples {
		pooled = append(pooled, s.values...)
	}
	n := len(pooled)
	ranks, ties := rankAverage(pooled)

	corr := tieCorrection(ties, n)
	if corr == 0 {
		return math.NaN(), ErrAllIdentical
	}

	var ssbn float64
	offset := 0
	for _, s := range samples {
		var rankSum float64
		for j := range s.values {
			rankSum += ranks[offset+j]
		}
		offset += len(s.values)
		ssbn += rankSum * rankSum / float64(len(s.values))
	}

	fn := float64(n)
	h := 12/(fn*(fn+1))*ssbn - 3*(fn+1)
	return h / corr, nil
}

// chiSquaredSurvival is P(X > x) for a chi-squared variable with k degrees of freedom
func chiSquaredSurvival(x, k float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	return distuv.ChiSquared{K: k}.Survival(x)
}
