package hypothesis

import (
	"math"

	"edakit/domain/dataset"
	"edakit/domain/stats"
	"edakit/internal/errors"
)

// FriedmanTest is the Friedman rank test for three or more paired columns.
// Each row is a block ranked across the columns; ties within a row get
// average ranks and the statistic is tie corrected.
type FriedmanTest struct{}

// NewFriedmanTest creates a new Friedman test
func NewFriedmanTest() *FriedmanTest {
	return &FriedmanTest{}
}

func (t *FriedmanTest) Kind() stats.TestKind { return stats.TestFriedman }

func (t *FriedmanTest) Description() string {
	return "Friedman test for three or more paired columns"
}

func (t *FriedmanTest) Run(tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	samples, err := pairedSamples(tbl, t.Kind(), 3, 0)
	if err != nil {
		return nil, err
	}
	if len(samples[0].values) < 1 {
		return nil, errors.Newf(errors.CodeInvalidArgument, "%s needs at least one complete row", t.Kind())
	}

	chi2, err := friedmanChiSquare(samples)
	if err != nil {
		return nil, procedureError(t.Kind(), err)
	}
	df := float64(len(samples) - 1)

	r := stats.NewTestResult(t.Kind(), names(samples), chi2, chiSquaredSurvival(chi2, df), opts.Alpha)
	r.N = sizes(samples)
	r.DoF = []float64{df}
	return []stats.TestResult{r}, nil
}

// Friedman runs the Friedman test across the columns of tbl
func Friedman(tbl *dataset.Table, opts Options) (stats.TestResult, error) {
	return single(NewFriedmanTest().Run(tbl, opts))
}

func friedmanChiSquare(samples []sample) (float64, error) {
	k := len(samples)
	n := len(samples[0].values)

	rankSums := make([]float64, k)
	row := make([]float64, k)
	var tieTotal float64
	for r := 0; r < n; r++ {
		for c := 0; c < k; c++ {
			row[c] = samples[c].values[r]
		}
		ranks, ties := rankAverage(row)
		for c, rk := range ranks {
			rankSums[c] += rk
		}
		tieTotal += tieSum(ties)
	}

	fk, fn := float64(k), float64(n)
	corr := 1 - tieTotal/(fn*fk*(fk*fk-1))
	if corr == 0 {
		return math.NaN(), ErrAllIdentical
	}

	var ssbn float64
	for _, s := range rankSums {
		ssbn += s * s
	}
	chi2 := 12/(fk*fn*(fk+1))*ssbn - 3*fn*(fk+1)
	return chi2 / corr, nil
}
