package hypothesis

import (
	mstats "github.com/aclements/go-moremath/stats"

	"edakit/domain/dataset"
	"edakit/domain/stats"
)

func locationHypothesis(alt stats.Alternative) mstats.LocationHypothesis {
	switch alt {
	case stats.Less:
		return mstats.LocationLess
	case stats.Greater:
		return mstats.LocationGreater
	default:
		return mstats.LocationDiffers
	}
}

// TTestInd compares the means of two independent samples. Student's pooled
// test when variances are assumed equal, Welch's test otherwise.
type TTestInd struct{}

// NewTTestInd creates a new independent samples t-test
func NewTTestInd() *TTestInd {
	return &TTestInd{}
}

func (t *TTestInd) Kind() stats.TestKind { return stats.TestTTestInd }

func (t *TTestInd) Description() string {
	return "t-test for the means of two independent columns (Student or Welch)"
}

func (t *TTestInd) Run(tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	samples, err := independentSamples(tbl, t.Kind(), 2, 2)
	if err != nil {
		return nil, err
	}

	x1 := mstats.Sample{Xs: samples[0].values}
	x2 := mstats.Sample{Xs: samples[1].values}
	alt := locationHypothesis(opts.Alternative)

	var res *mstats.TTestResult
	if opts.EqualVariances {
		res, err = mstats.TwoSampleTTest(x1, x2, alt)
	} else {
		res, err = mstats.TwoSampleWelchTTest(x1, x2, alt)
	}
	if err != nil {
		return nil, procedureError(t.Kind(), err)
	}

	r := stats.NewTestResult(t.Kind(), names(samples), res.T, res.P, opts.Alpha)
	r.N = sizes(samples)
	r.DoF = []float64{res.DoF}
	return []stats.TestResult{r}, nil
}

// TTestIndependent runs the independent samples t-test on a two-column table
func TTestIndependent(tbl *dataset.Table, opts Options) (stats.TestResult, error) {
	return single(NewTTestInd().Run(tbl, opts))
}

// TTestRel compares the means of two paired samples
type TTestRel struct{}

// NewTTestRel creates a new paired samples t-test
func NewTTestRel() *TTestRel {
	return &TTestRel{}
}

func (t *TTestRel) Kind() stats.TestKind { return stats.TestTTestRel }

func (t *TTestRel) Description() string {
	return "t-test for the mean difference of two paired columns"
}

func (t *TTestRel) Run(tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	samples, err := pairedSamples(tbl, t.Kind(), 2, 2)
	if err != nil {
		return nil, err
	}

	res, err := mstats.PairedTTest(samples[0].values, samples[1].values, 0, locationHypothesis(opts.Alternative))
	if err != nil {
		return nil, procedureError(t.Kind(), err)
	}

	r := stats.NewTestResult(t.Kind(), names(samples), res.T, res.P, opts.Alpha)
	r.N = sizes(samples)
	r.DoF = []float64{res.DoF}
	return []stats.TestResult{r}, nil
}

// TTestPaired runs the paired samples t-test on a two-column table
func TTestPaired(tbl *dataset.Table, opts Options) (stats.TestResult, error) {
	return single(NewTTestRel().Run(tbl, opts))
}
