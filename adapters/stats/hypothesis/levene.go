package hypothesis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"edakit/domain/dataset"
	"edakit/domain/stats"
	"edakit/internal/errors"
)

// LeveneTest checks whether two or more samples have equal variances.
// With a median center it is the Brown-Forsythe variant; the trimmed center
// trims the samples themselves before measuring deviations.
type LeveneTest struct{}

// NewLeveneTest creates a new Levene test
func NewLeveneTest() *LeveneTest {
	return &LeveneTest{}
}

func (t *LeveneTest) Kind() stats.TestKind { return stats.TestLevene }

func (t *LeveneTest) Description() string {
	return "Levene test for equal variances across two or more columns"
}

func (t *LeveneTest) Run(tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
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
	var centerOf func([]float64) float64
	switch opts.Center {
	case stats.CenterMean, "":
		centerOf = mean
		for i, s := range samples {
			groups[i] = s.values
		}
	case stats.CenterMedian:
		centerOf = median
		for i, s := range samples {
			groups[i] = s.values
		}
	case stats.CenterTrimmed:
		centerOf = mean
		for i, s := range samples {
			groups[i] = trimBoth(s.values, opts.TrimProportion)
			if len(groups[i]) == 0 {
				return nil, errors.Newf(errors.CodeInvalidArgument,
					"%s: trimming leaves %q empty", t.Kind(), s.name)
			}
		}
	default:
		return nil, errors.Newf(errors.CodeInvalidArgument, "unknown center %q", opts.Center)
	}

	// Z_ij = |Y_ij - center_i|
	z := make([][]float64, len(groups))
	for i, g := range groups {
		c := centerOf(g)
		z[i] = make([]float64, len(g))
		for j, y := range g {
			z[i][j] = math.Abs(y - c)
		}
	}

	w, df1, df2 := oneWayF(z)
	p := fSurvival(w, df1, df2)

	r := stats.NewTestResult(t.Kind(), names(samples), w, p, opts.Alpha)
	r.N = make([]int, len(groups))
	for i, g := range groups {
		r.N[i] = len(g)
	}
	r.DoF = []float64{df1, df2}
	return []stats.TestResult{r}, nil
}

// Levene runs the Levene test across the columns of tbl
func Levene(tbl *dataset.Table, opts Options) (stats.TestResult, error) {
	return single(NewLeveneTest().Run(tbl, opts))
}

// ShapiroLevene runs Shapiro-Wilk on every column and then Levene across them
func ShapiroLevene(tbl *dataset.Table, opts Options) (stats.Battery, error) {
	normality, err := Shapiro(tbl, opts)
	if err != nil {
		return stats.Battery{}, err
	}
	variance, err := Levene(tbl, opts)
	if err != nil {
		return stats.Battery{}, err
	}
	return stats.Battery{Normality: normality, Variance: variance}, nil
}

// oneWayF returns the one-way ANOVA F ratio of groups with its degrees of
// freedom. F is +Inf when groups differ but have no spread within, NaN when
// every value is identical.
func oneWayF(groups [][]float64) (f, dfBetween, dfWithin float64) {
	var total float64
	var n int
	for _, g := range groups {
		for _, v := range g {
			total += v
		}
		n += len(g)
	}
	grand := total / float64(n)

	var ssb, ssw float64
	for _, g := range groups {
		m := mean(g)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}

	k := float64(len(groups))
	dfBetween = k - 1
	dfWithin = float64(n) - k
	switch {
	case ssw == 0 && ssb == 0:
		return math.NaN(), dfBetween, dfWithin
	case ssw == 0:
		return math.Inf(1), dfBetween, dfWithin
	}
	return (ssb / dfBetween) / (ssw / dfWithin), dfBetween, dfWithin
}

// fSurvival is P(F > f) for an F(d1, d2) variable
func fSurvival(f, d1, d2 float64) float64 {
	switch {
	case math.IsNaN(f) || d2 <= 0:
		return math.NaN()
	case math.IsInf(f, 1):
		return 0
	}
	return distuv.F{D1: d1, D2: d2}.Survival(f)
}

func single(results []stats.TestResult, err error) (stats.TestResult, error) {
	if err != nil {
		return stats.TestResult{}, err
	}
	if len(results) != 1 {
		return stats.TestResult{}, errors.InternalError("expected a single test result")
	}
	return results[0], nil
}
