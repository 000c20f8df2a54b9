package stats

import (
	"fmt"
	"strings"
)

// FrequencyMode tells the frequency table builder what a column holds
type FrequencyMode int

const (
	// ModeRaw: the column holds raw observations to be grouped and counted.
	ModeRaw FrequencyMode = iota
	// ModeCounts: the column already holds absolute frequencies.
	ModeCounts
)

func (m FrequencyMode) String() string {
	if m == ModeCounts {
		return "counts"
	}
	return "raw"
}

// Alternative is the alternative hypothesis of a location test
type Alternative string

const (
	TwoSided Alternative = "two-sided"
	Less     Alternative = "less"
	Greater  Alternative = "greater"
)

// ParseAlternative accepts two-sided|less|greater
func ParseAlternative(s string) (Alternative, error) {
	switch Alternative(strings.ToLower(strings.TrimSpace(s))) {
	case TwoSided, "":
		return TwoSided, nil
	case Less:
		return Less, nil
	case Greater:
		return Greater, nil
	}
	return "", fmt.Errorf("unknown alternative %q (want two-sided, less or greater)", s)
}

// Center is the location statistic Levene's test measures deviations from
type Center string

const (
	CenterMean    Center = "mean"
	CenterMedian  Center = "median"
	CenterTrimmed Center = "trimmed"
)

// ParseCenter accepts mean|median|trimmed
func ParseCenter(s string) (Center, error) {
	switch Center(strings.ToLower(strings.TrimSpace(s))) {
	case CenterMean, "":
		return CenterMean, nil
	case CenterMedian:
		return CenterMedian, nil
	case CenterTrimmed:
		return CenterTrimmed, nil
	}
	return "", fmt.Errorf("unknown center %q (want mean, median or trimmed)", s)
}

// TestKind names a hypothesis test
type TestKind string

const (
	TestShapiro      TestKind = "shapiro"
	TestLevene       TestKind = "levene"
	TestTTestInd     TestKind = "ttest_ind"
	TestTTestRel     TestKind = "ttest_rel"
	TestANOVA        TestKind = "anova"
	TestWilcoxon     TestKind = "wilcoxon"
	TestMannWhitneyU TestKind = "mannwhitneyu"
	TestFriedman     TestKind = "friedman"
	TestKruskal      TestKind = "kruskal"
)

// Title is the heading printed above a result
func (k TestKind) Title() string {
	switch k {
	case TestShapiro:
		return "Shapiro-Wilk test"
	case TestLevene:
		return "Levene test"
	case TestTTestInd:
		return "Independent samples t-test"
	case TestTTestRel:
		return "Paired samples t-test"
	case TestANOVA:
		return "One-way ANOVA"
	case TestWilcoxon:
		return "Wilcoxon signed-rank test"
	case TestMannWhitneyU:
		return "Mann-Whitney U test"
	case TestFriedman:
		return "Friedman test"
	case TestKruskal:
		return "Kruskal-Wallis test"
	}
	return string(k)
}

// TestResult is the outcome of one hypothesis test. It carries no
// formatting; Verdict renders the conclusion.
type TestResult struct {
	Test      TestKind `json:"test"`
	Columns   []string `json:"columns"`
	Statistic float64  `json:"statistic"`
	PValue    float64  `json:"p_value"`
	Alpha     float64  `json:"alpha"`
	// Rejected is true when PValue <= Alpha
	Rejected bool  `json:"rejected"`
	N        []int `json:"n"`
	// DoF is set for tests with a reference distribution parameter (t, F, chi-squared)
	DoF []float64 `json:"dof,omitempty"`
}

// NewTestResult fills Rejected from p and alpha
func NewTestResult(kind TestKind, columns []string, statistic, p, alpha float64) TestResult {
	return TestResult{
		Test:      kind,
		Columns:   columns,
		Statistic: statistic,
		PValue:    p,
		Alpha:     alpha,
		Rejected:  !(p > alpha),
	}
}

// Verdict renders the conclusion in words
func (r TestResult) Verdict() string {
	switch r.Test {
	case TestShapiro:
		name := strings.Join(r.Columns, ", ")
		if r.Rejected {
			return name + " does not follow a normal distribution"
		}
		return name + " follows a normal distribution"
	case TestLevene:
		if r.Rejected {
			return "At least one variance differs"
		}
		return "Variances are equal"
	}
	if r.Rejected {
		return "Rejects the null hypothesis"
	}
	return "Fails to reject the null hypothesis"
}

// Battery groups results produced by one combined call
type Battery struct {
	Normality []TestResult `json:"normality"`
	Variance  TestResult   `json:"variance"`
}

// Bounds are the IQR outlier fences of a sample
type Bounds struct {
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Multiplier float64 `json:"multiplier"`
}

// Contains reports whether v lies within the fences, bounds inclusive
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}
