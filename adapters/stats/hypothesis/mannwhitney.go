package hypothesis

import (
	mstats "github.com/aclements/go-moremath/stats"

	"edakit/domain/dataset"
	"edakit/domain/stats"
)

// MannWhitneyTest is the Mann-Whitney U rank-sum test on two independent
// columns.
type MannWhitneyTest struct{}

// NewMannWhitneyTest creates a new Mann-Whitney U test
func NewMannWhitneyTest() *MannWhitneyTest {
	return &MannWhitneyTest{}
}

func (t *MannWhitneyTest) Kind() stats.TestKind { return stats.TestMannWhitneyU }

func (t *MannWhitneyTest) Description() string {
	return "Mann-Whitney U test for two independent columns"
}

func (t *MannWhitneyTest) Run(tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	samples, err := independentSamples(tbl, t.Kind(), 2, 2)
	if err != nil {
		return nil, err
	}
	if err := requireObservations(t.Kind(), samples, 1); err != nil {
		return nil, err
	}

	res, err := mstats.MannWhitneyUTest(samples[0].values, samples[1].values, locationHypothesis(opts.Alternative))
	if err != nil {
		return nil, procedureError(t.Kind(), err)
	}

	r := stats.NewTestResult(t.Kind(), names(samples), res.U, res.P, opts.Alpha)
	r.N = []int{res.N1, res.N2}
	return []stats.TestResult{r}, nil
}

// MannWhitneyU runs the Mann-Whitney U test on a two-column table
func MannWhitneyU(tbl *dataset.Table, opts Options) (stats.TestResult, error) {
	return single(NewMannWhitneyTest().Run(tbl, opts))
}
