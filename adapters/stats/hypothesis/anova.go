package hypothesis

import (
	"edakit/domain/dataset"
	"edakit/domain/stats"
)

// ANOVATest is the one-way analysis of variance across two or more columns
type ANOVATest struct{}

// NewANOVATest creates a new one-way ANOVA
func NewANOVATest() *ANOVATest {
	return &ANOVATest{}
}

func (t *ANOVATest) Kind() stats.TestKind { return stats.TestANOVA }

func (t *ANOVATest) Description() string {
	return "one-way ANOVA for equal means across two or more columns"
}

func (t *ANOVATest) Run(tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
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

	groups := make([][]float64, len(samples))
	for i, s := range samples {
		groups[i] = s.values
	}
	f, df1, df2 := oneWayF(groups)

	r := stats.NewTestResult(t.Kind(), names(samples), f, fSurvival(f, df1, df2), opts.Alpha)
	r.N = sizes(samples)
	r.DoF = []float64{df1, df2}
	return []stats.TestResult{r}, nil
}

// OneWayANOVA runs the one-way ANOVA across the columns of tbl
func OneWayANOVA(tbl *dataset.Table, opts Options) (stats.TestResult, error) {
	return single(NewANOVATest().Run(tbl, opts))
}
