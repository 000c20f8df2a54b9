package hypothesis

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"edakit/domain/dataset"
	"edakit/domain/stats"
	"edakit/internal/errors"
)

func numericTable(t *testing.T, cols map[string][]float64, order ...string) *dataset.Table {
	t.Helper()
	columns := make([]*dataset.Column, 0, len(order))
	for _, name := range order {
		columns = append(columns, dataset.NewNumericColumn(name, cols[name]))
	}
	tbl, err := dataset.NewTable(columns...)
	require.NoError(t, err)
	return tbl
}

func twoGroups(t *testing.T) *dataset.Table {
	return numericTable(t, map[string][]float64{
		"a": {1, 2, 3, 4, 5},
		"b": {2, 4, 6, 8, 10},
	}, "a", "b")
}

func threeGroups(t *testing.T) *dataset.Table {
	return numericTable(t, map[string][]float64{
		"a": {1, 2, 3},
		"b": {4, 5, 6},
		"c": {7, 8, 9},
	}, "a", "b", "c")
}

func TestShapiro_KnownSample(t *testing.T) {
	// Shapiro & Wilk (1965) weights example
	tbl := numericTable(t, map[string][]float64{
		"weight": {148, 154, 158, 160, 161, 162, 166, 170, 182, 195, 236},
	}, "weight")

	results, err := Shapiro(tbl, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.InDelta(t, 0.78881, r.Statistic, 1e-4)
	assert.InDelta(t, 0.006704, r.PValue, 1e-4)
	assert.True(t, r.Rejected)
	assert.Equal(t, "weight does not follow a normal distribution", r.Verdict())
}

func TestShapiro_ExactThreePoints(t *testing.T) {
	tbl := numericTable(t, map[string][]float64{
		"even":   {1, 2, 3},
		"skewed": {1, 2, 4},
	}, "even", "skewed")

	results, err := Shapiro(tbl, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.InDelta(t, 1.0, results[0].Statistic, 1e-12)
	assert.InDelta(t, 1.0, results[0].PValue, 1e-9)
	assert.InDelta(t, 0.9642857142857, results[1].Statistic, 1e-9)
	assert.InDelta(t, 0.6368868450, results[1].PValue, 1e-6)
	assert.Equal(t, "skewed follows a normal distribution", results[1].Verdict())
}

func TestShapiro_MtcarsMPG(t *testing.T) {
	mpg := []float64{
		21.0, 21.0, 22.8, 21.4, 18.7, 18.1, 14.3, 24.4, 22.8, 19.2, 17.8,
		16.4, 17.3, 15.2, 10.4, 10.4, 14.7, 32.4, 30.4, 33.9, 21.5, 15.5,
		15.2, 13.3, 19.2, 27.3, 26.0, 30.4, 15.8, 19.7, 15.0, 21.4,
	}
	results, err := Shapiro(numericTable(t, map[string][]float64{"mpg": mpg}, "mpg"), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.InDelta(t, 0.94756, results[0].Statistic, 1e-5)
	assert.InDelta(t, 0.1229, results[0].PValue, 1e-4)
	assert.Equal(t, []int{32}, results[0].N)
	assert.False(t, results[0].Rejected)
}

func TestShapiro_NormalScoresLookNormal(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = distuv.UnitNormal.Quantile((float64(i) + 0.5) / 40)
	}
	values = append(values, math.NaN())

	results, err := Shapiro(numericTable(t, map[string][]float64{"z": values}, "z"), DefaultOptions())
	require.NoError(t, err)
	assert.Greater(t, results[0].Statistic, 0.99)
	assert.False(t, results[0].Rejected)
	assert.Equal(t, []int{40}, results[0].N)
}

func TestShapiro_Errors(t *testing.T) {
	_, err := Shapiro(numericTable(t, map[string][]float64{"x": {1, 2}}, "x"), DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))

	_, err = Shapiro(numericTable(t, map[string][]float64{"x": {4, 4, 4, 4}}, "x"), DefaultOptions())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrZeroRange))
}

func TestLevene(t *testing.T) {
	r, err := Levene(twoGroups(t), DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, 28.8/14, r.Statistic, 1e-12)
	assert.Equal(t, []float64{1, 8}, r.DoF)
	assert.InDelta(t, distuv.F{D1: 1, D2: 8}.Survival(28.8/14), r.PValue, 1e-12)
	assert.Equal(t, "Variances are equal", r.Verdict())
}

func leveneGroups(t *testing.T) *dataset.Table {
	return numericTable(t, map[string][]float64{
		"a": {8.88, 9.12, 9.04, 8.98, 9.00, 9.08, 9.01, 8.85, 9.06, 8.99},
		"b": {8.88, 8.95, 9.29, 9.44, 9.15, 9.58, 8.36, 9.18, 8.67, 9.05},
		"c": {8.95, 9.12, 8.95, 8.85, 9.03, 8.84, 9.07, 8.98, 8.86, 8.98},
	}, "a", "b", "c")
}

func TestLevene_Centers(t *testing.T) {
	tests := []struct {
		name      string
		center    stats.Center
		trim      float64
		statistic float64
		pValue    float64
	}{
		{"median", stats.CenterMedian, 0.05, 7.584952754501659, 0.002431505967249681},
		{"mean", stats.CenterMean, 0.05, 7.905194483442053, 0.001983795817472742},
		// 5% of ten values trims nothing
		{"trimmed default", stats.CenterTrimmed, 0.05, 7.905194483442053, 0.001983795817472742},
		{"trimmed one each end", stats.CenterTrimmed, 0.1, 7.019618834080703, 0.004628910477287775},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Center = tt.center
			opts.TrimProportion = tt.trim
			r, err := Levene(leveneGroups(t), opts)
			require.NoError(t, err)
			assert.InDelta(t, tt.statistic, r.Statistic, 1e-9)
			assert.InDelta(t, tt.pValue, r.PValue, 1e-9)
			assert.Equal(t, []float64{2, 27}, r.DoF)
			assert.True(t, r.Rejected)
		})
	}

	opts := DefaultOptions()
	opts.Center = "mode"
	_, err := Levene(leveneGroups(t), opts)
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
}

func TestLevene_NeedsTwoColumns(t *testing.T) {
	_, err := Levene(numericTable(t, map[string][]float64{"a": {1, 2, 3}}, "a"), DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
}

func TestShapiroLevene(t *testing.T) {
	battery, err := ShapiroLevene(twoGroups(t), DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, battery.Normality, 2)
	assert.Equal(t, stats.TestLevene, battery.Variance.Test)
}

func TestTTestIndependent_Student(t *testing.T) {
	r, err := TTestIndependent(twoGroups(t), DefaultOptions())
	require.NoError(t, err)

	tStat := -3 / math.Sqrt(2.5)
	assert.InDelta(t, tStat, r.Statistic, 1e-9)
	assert.InDelta(t, 8, r.DoF[0], 1e-9)
	want := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: 8}.CDF(tStat)
	assert.InDelta(t, want, r.PValue, 1e-9)
	assert.Equal(t, []int{5, 5}, r.N)
}

func TestTTestIndependent_Welch(t *testing.T) {
	opts := DefaultOptions()
	opts.EqualVariances = false

	r, err := TTestIndependent(twoGroups(t), opts)
	require.NoError(t, err)
	assert.InDelta(t, -3/math.Sqrt(2.5), r.Statistic, 1e-9)
	assert.InDelta(t, 6.25/1.0625, r.DoF[0], 1e-9)
}

func TestTTestIndependent_OneSided(t *testing.T) {
	opts := DefaultOptions()
	opts.Alternative = stats.Less
	less, err := TTestIndependent(twoGroups(t), opts)
	require.NoError(t, err)

	opts.Alternative = stats.Greater
	greater, err := TTestIndependent(twoGroups(t), opts)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, less.PValue+greater.PValue, 1e-9)
	assert.Less(t, less.PValue, greater.PValue)
}

func TestTTestIndependent_EqualMeansFailsToReject(t *testing.T) {
	tbl := numericTable(t, map[string][]float64{
		"a": {1, 2, 3, 4},
		"b": {4, 3, 2, 1},
	}, "a", "b")

	r, err := TTestIndependent(tbl, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r.PValue, 1e-9)
	assert.Equal(t, "Fails to reject the null hypothesis", r.Verdict())
}

func TestTTestIndependent_WrongWidth(t *testing.T) {
	_, err := TTestIndependent(threeGroups(t), DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
}

func TestTTestPaired(t *testing.T) {
	r, err := TTestPaired(twoGroups(t), DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, -3/(math.Sqrt(2.5)/math.Sqrt(5)), r.Statistic, 1e-9)
	assert.InDelta(t, 4, r.DoF[0], 1e-9)
	assert.True(t, r.Rejected)
}

func TestTTestPaired_DropsIncompleteRows(t *testing.T) {
	nan := math.NaN()
	tbl := numericTable(t, map[string][]float64{
		"before": {1, 2, nan, 4, 5, 6},
		"after":  {2, 4, 6, 8, 10, nan},
	}, "before", "after")

	r, err := TTestPaired(tbl, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4}, r.N)
}

func TestTTestPaired_UnequalLengths(t *testing.T) {
	tbl := numericTable(t, map[string][]float64{
		"before": {1, 2, 3},
		"after":  {1, 2},
	}, "before", "after")

	_, err := TTestPaired(tbl, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
}

func TestOneWayANOVA(t *testing.T) {
	r, err := OneWayANOVA(threeGroups(t), DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, 12.0, r.Statistic, 1e-12)
	assert.Equal(t, []float64{2, 6}, r.DoF)
	// F(2, 6) survival is (1 + 2x/6)^-3
	assert.InDelta(t, 1.0/125, r.PValue, 1e-9)
	assert.Equal(t, "Rejects the null hypothesis", r.Verdict())
}

func TestOneWayANOVA_Degenerate(t *testing.T) {
	same := numericTable(t, map[string][]float64{
		"a": {2, 2},
		"b": {2, 2},
	}, "a", "b")
	r, err := OneWayANOVA(same, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(r.Statistic))
	assert.True(t, math.IsNaN(r.PValue))

	separated := numericTable(t, map[string][]float64{
		"a": {1, 1},
		"b": {2, 2},
	}, "a", "b")
	r, err = OneWayANOVA(separated, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, math.IsInf(r.Statistic, 1))
	assert.Equal(t, 0.0, r.PValue)
}

func TestKruskal(t *testing.T) {
	r, err := Kruskal(threeGroups(t), DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, 7.2, r.Statistic, 1e-9)
	// chi-squared with 2 dof: survival is exp(-x/2)
	assert.InDelta(t, math.Exp(-3.6), r.PValue, 1e-9)
}

func TestKruskal_TieCorrection(t *testing.T) {
	tbl := numericTable(t, map[string][]float64{
		"a": {1, 1, 2},
		"b": {2, 3, 3},
	}, "a", "b")

	r, err := Kruskal(tbl, DefaultOptions())
	require.NoError(t, err)
	// ranks: a = 1.5, 1.5, 3.5 (sum 6.5); b = 3.5, 5.5, 5.5 (sum 14.5)
	h := 12.0/42*(6.5*6.5/3+14.5*14.5/3) - 21
	corr := 1 - 18.0/210
	assert.InDelta(t, h/corr, r.Statistic, 1e-9)
}

func TestKruskal_AllIdentical(t *testing.T) {
	tbl := numericTable(t, map[string][]float64{
		"a": {5, 5},
		"b": {5, 5},
	}, "a", "b")
	_, err := Kruskal(tbl, DefaultOptions())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrAllIdentical))
}

func TestFriedman(t *testing.T) {
	tbl := numericTable(t, map[string][]float64{
		"low":  {1, 2, 3, 1},
		"mid":  {5, 6, 7, 4},
		"high": {9, 9, 8, 10},
	}, "low", "mid", "high")

	r, err := Friedman(tbl, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 8.0, r.Statistic, 1e-9)
	assert.InDelta(t, math.Exp(-4), r.PValue, 1e-9)
	assert.Equal(t, []float64{2}, r.DoF)
}

func TestFriedman_NeedsThreeColumns(t *testing.T) {
	_, err := Friedman(twoGroups(t), DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
}

func wilcoxonTable(t *testing.T) *dataset.Table {
	// differences x - y: 1, 2, -3, 4, 5, 6
	return numericTable(t, map[string][]float64{
		"x": {11, 12, 7, 14, 15, 16},
		"y": {10, 10, 10, 10, 10, 10},
	}, "x", "y")
}

func TestWilcoxon_Exact(t *testing.T) {
	r, err := Wilcoxon(wilcoxonTable(t), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3.0, r.Statistic)
	assert.InDelta(t, 10.0/64, r.PValue, 1e-12)
	assert.Equal(t, []int{6, 6}, r.N)

	opts := DefaultOptions()
	opts.Alternative = stats.Greater
	r, err = Wilcoxon(wilcoxonTable(t), opts)
	require.NoError(t, err)
	assert.Equal(t, 18.0, r.Statistic)
	assert.InDelta(t, 5.0/64, r.PValue, 1e-12)

	opts.Alternative = stats.Less
	r, err = Wilcoxon(wilcoxonTable(t), opts)
	require.NoError(t, err)
	assert.InDelta(t, 61.0/64, r.PValue, 1e-12)
}

func TestWilcoxon_NormalApproximationWithTies(t *testing.T) {
	tbl := numericTable(t, map[string][]float64{
		"x": {2, 3, 4, 4, 6, 7, 9, 10},
		"y": {1, 1, 1, 1, 1, 1, 1, 1},
	}, "x", "y")

	r, err := Wilcoxon(tbl, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Statistic)
	assert.Less(t, r.PValue, 0.05)
}

func TestWilcoxon_ZeroDifferencesUseNormalApproximation(t *testing.T) {
	// differences 0, 1, 2, 3, 4, 5: the zero is dropped and n = 5
	tbl := numericTable(t, map[string][]float64{
		"x": {10, 11, 12, 13, 14, 15},
		"y": {10, 10, 10, 10, 10, 10},
	}, "x", "y")

	r, err := Wilcoxon(tbl, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Statistic)
	assert.Equal(t, []int{5, 5}, r.N)

	// z = (0 - 7.5) / sqrt(5*6*11/24)
	z := 7.5 / math.Sqrt(13.75)
	assert.InDelta(t, 2*distuv.UnitNormal.Survival(z), r.PValue, 1e-12)
	assert.InDelta(t, 0.0431, r.PValue, 1e-4)
	assert.True(t, r.Rejected)
}

func TestWilcoxon_AllZero(t *testing.T) {
	tbl := numericTable(t, map[string][]float64{
		"x": {1, 2, 3},
		"y": {1, 2, 3},
	}, "x", "y")
	_, err := Wilcoxon(tbl, DefaultOptions())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrAllZeroDifferences))
}

func TestMannWhitneyU(t *testing.T) {
	tbl := numericTable(t, map[string][]float64{
		"a": {1, 2, 3},
		"b": {4, 5, 6},
	}, "a", "b")

	r, err := MannWhitneyU(tbl, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0.1, r.PValue, 1e-9)
	assert.Equal(t, []int{3, 3}, r.N)
	assert.Equal(t, "Fails to reject the null hypothesis", r.Verdict())
}

func TestCategoricalColumnRejected(t *testing.T) {
	tbl := dataset.MustTable(
		dataset.NewNumericColumn("a", []float64{1, 2, 3}),
		dataset.NewCategoricalColumn("b", []string{"x", "y", "z"}),
	)
	_, err := MannWhitneyU(tbl, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestInvalidAlpha(t *testing.T) {
	opts := DefaultOptions()
	opts.Alpha = 0
	_, err := Kruskal(threeGroups(t), opts)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.GetCode(err))
}

func TestEngine(t *testing.T) {
	e := NewEngine()
	assert.Len(t, e.List(), 9)

	results, err := e.Run(stats.TestANOVA, threeGroups(t), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, stats.TestANOVA, results[0].Test)

	_, err = e.Run("chi_square", threeGroups(t), DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestRankAverage(t *testing.T) {
	ranks, ties := rankAverage([]float64{10, 20, 10, 30, 20, 20})
	assert.Equal(t, []float64{1.5, 4, 1.5, 6, 4, 4}, ranks)
	assert.ElementsMatch(t, []int{2, 3}, ties)
	assert.InDelta(t, 1-(6.0+24.0)/210, tieCorrection(ties, 6), 1e-12)
}

func findRun(t *testing.T, kind string, tbl *dataset.Table) (stats.TestResult, error) {
	t.Helper()
	results, err := NewEngine().Run(stats.TestKind(kind), tbl, DefaultOptions())
	if err != nil {
		return stats.TestResult{}, err
	}
	require.Len(t, results, 1)
	return results[0], nil
}
