// Package hypothesis wraps classical hypothesis tests behind a uniform
// table-in, result-out interface. Missing values are excluded before a test
// runs: per column for independent samples, per row for paired samples.
package hypothesis

import (
	"fmt"
	"math"
	"sort"

	"edakit/domain/dataset"
	"edakit/domain/stats"
	"edakit/internal/config"
	"edakit/internal/errors"
)

// DefaultTrimProportion is cut from each end of a sample for Levene's
// trimmed center.
const DefaultTrimProportion = 0.05

// Options are the knobs shared by the test wrappers. A test ignores the
// options that do not apply to it.
type Options struct {
	Alpha          float64
	Alternative    stats.Alternative
	EqualVariances bool
	Center         stats.Center
	TrimProportion float64
}

// DefaultOptions: alpha 0.05, two-sided, equal variances, mean center.
func DefaultOptions() Options {
	return Options{
		Alpha:          config.DefaultAlpha,
		Alternative:    stats.TwoSided,
		EqualVariances: true,
		Center:         stats.CenterMean,
		TrimProportion: DefaultTrimProportion,
	}
}

func (o Options) validate() error {
	if !(o.Alpha > 0 && o.Alpha < 1) {
		return errors.Newf(errors.CodeInvalidArgument, "alpha must be in (0, 1), got %v", o.Alpha)
	}
	switch o.Alternative {
	case stats.TwoSided, stats.Less, stats.Greater:
	default:
		return errors.Newf(errors.CodeInvalidArgument, "unknown alternative %q", o.Alternative)
	}
	return nil
}

// Test is one hypothesis test procedure
type Test interface {
	Kind() stats.TestKind
	Description() string
	Run(tbl *dataset.Table, opts Options) ([]stats.TestResult, error)
}

// Engine dispatches tests by kind
type Engine struct {
	tests []Test
}

// NewEngine registers every available test
func NewEngine() *Engine {
	return &Engine{
		tests: []Test{
			NewShapiroTest(),
			NewLeveneTest(),
			NewTTestInd(),
			NewTTestRel(),
			NewANOVATest(),
			NewWilcoxonTest(),
			NewMannWhitneyTest(),
			NewFriedmanTest(),
			NewKruskalTest(),
		},
	}
}

// Run executes the test named kind
func (e *Engine) Run(kind stats.TestKind, tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
	t, ok := e.Lookup(kind)
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("test %q", kind))
	}
	return t.Run(tbl, opts)
}

// Lookup finds a registered test
func (e *Engine) Lookup(kind stats.TestKind) (Test, bool) {
	for _, t := range e.tests {
		if t.Kind() == kind {
			return t, true
		}
	}
	return nil, false
}

// List returns the registered tests sorted by kind
func (e *Engine) List() []Test {
	out := make([]Test, len(e.tests))
	copy(out, e.tests)
	sort.Slice(out, func(i, j int) bool { return out[i].Kind() < out[j].Kind() })
	return out
}

// sample is one column with its missing values removed
type sample struct {
	name   string
	values []float64
}

func sizes(samples []sample) []int {
	n := make([]int, len(samples))
	for i, s := range samples {
		n[i] = len(s.values)
	}
	return n
}

func names(samples []sample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.name
	}
	return out
}

func rawColumns(tbl *dataset.Table, kind stats.TestKind) ([]string, [][]float64, error) {
	if tbl == nil || tbl.Width() == 0 {
		return nil, nil, errors.Newf(errors.CodeInvalidArgument, "%s: no columns given", kind)
	}
	labels := tbl.Names()
	raw := make([][]float64, len(labels))
	for i, name := range labels {
		values, err := tbl.Numeric(name)
		if err != nil {
			return nil, nil, err
		}
		raw[i] = values
	}
	return labels, raw, nil
}

func checkWidth(kind stats.TestKind, got, minCols, maxCols int) error {
	switch {
	case minCols == maxCols && got != minCols:
		return errors.Newf(errors.CodeInvalidArgument, "%s needs exactly %d columns, got %d", kind, minCols, got)
	case got < minCols:
		return errors.Newf(errors.CodeInvalidArgument, "%s needs at least %d columns, got %d", kind, minCols, got)
	case maxCols > 0 && got > maxCols:
		return errors.Newf(errors.CodeInvalidArgument, "%s takes at most %d columns, got %d", kind, maxCols, got)
	}
	return nil
}

// independentSamples drops missing values column by column
func independentSamples(tbl *dataset.Table, kind stats.TestKind, minCols, maxCols int) ([]sample, error) {
	labels, raw, err := rawColumns(tbl, kind)
	if err != nil {
		return nil, err
	}
	if err := checkWidth(kind, len(labels), minCols, maxCols); err != nil {
		return nil, err
	}
	out := make([]sample, len(labels))
	for i := range labels {
		observed := make([]float64, 0, len(raw[i]))
		for _, v := range raw[i] {
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		out[i] = sample{name: labels[i], values: observed}
	}
	return out, nil
}

// pairedSamples requires equal column lengths and drops every row that has
// a missing value in any column.
func pairedSamples(tbl *dataset.Table, kind stats.TestKind, minCols, maxCols int) ([]sample, error) {
	labels, raw, err := rawColumns(tbl, kind)
	if err != nil {
		return nil, err
	}
	if err := checkWidth(kind, len(labels), minCols, maxCols); err != nil {
		return nil, err
	}
	n := len(raw[0])
	for i := 1; i < len(raw); i++ {
		if len(raw[i]) != n {
			return nil, errors.Newf(errors.CodeInvalidArgument,
				"%s needs paired columns of equal length: %q has %d rows, %q has %d",
				kind, labels[0], n, labels[i], len(raw[i]))
		}
	}

	out := make([]sample, len(labels))
	for i := range labels {
		out[i] = sample{name: labels[i], values: make([]float64, 0, n)}
	}
rows:
	for r := 0; r < n; r++ {
		for i := range raw {
			if math.IsNaN(raw[i][r]) {
				continue rows
			}
		}
		for i := range raw {
			out[i].values = append(out[i].values, raw[i][r])
		}
	}
	return out, nil
}

func requireObservations(kind stats.TestKind, samples []sample, minObs int) error {
	for _, s := range samples {
		if len(s.values) < minObs {
			return errors.Newf(errors.CodeInvalidArgument,
				"%s needs at least %d observations in %q, got %d", kind, minObs, s.name, len(s.values))
		}
	}
	return nil
}

// procedureError marks a failure reported by the statistical routine itself
func procedureError(kind stats.TestKind, err error) error {
	return &errors.AppError{
		Code:    errors.CodeInvalidArgument,
		Message: fmt.Sprintf("%s failed", kind),
		Cause:   err,
	}
}
