// Package frequency builds frequency distribution tables from a column of a
// dataset.
package frequency

import (
	"math"
	"sort"
	"strconv"

	"edakit/domain/dataset"
	"edakit/domain/stats"
	"edakit/internal/errors"
)

// Output column labels
const (
	ColFrequency                   = "frequency"
	ColRelativeFrequency           = "relative_frequency"
	ColCumulativeFrequency         = "cumulative_frequency"
	ColCumulativeRelativeFrequency = "cumulative_relative_frequency"
)

// Distribution is a frequency distribution table. All slices are aligned
// with Index.
type Distribution struct {
	Source     string
	Mode       stats.FrequencyMode
	Index      []string
	Frequency  []float64
	Relative   []float64
	Cumulative []float64
	// CumulativeRelative ends at 1 for complete data
	CumulativeRelative []float64
}

// Len returns the number of rows
func (d *Distribution) Len() int { return len(d.Index) }

// Total returns the sum of the absolute frequencies, missing entries skipped
func (d *Distribution) Total() float64 {
	return nanSum(d.Frequency)
}

// Table returns the distribution as a four-column dataset table indexed by
// the distinct values (or input rows in counts mode).
func (d *Distribution) Table() *dataset.Table {
	t := dataset.MustTable(
		dataset.NewNumericColumn(ColFrequency, d.Frequency),
		dataset.NewNumericColumn(ColRelativeFrequency, d.Relative),
		dataset.NewNumericColumn(ColCumulativeFrequency, d.Cumulative),
		dataset.NewNumericColumn(ColCumulativeRelativeFrequency, d.CumulativeRelative),
	)
	t.Index = d.Index
	return t
}

// Build computes the frequency table of column in tbl.
//
// In ModeRaw the column's distinct non-missing values are counted and
// ordered ascending. In ModeCounts the column's values are taken as the
// absolute frequencies in their existing order.
func Build(tbl *dataset.Table, column string, mode stats.FrequencyMode) (*Distribution, error) {
	col, err := tbl.Column(column)
	if err != nil {
		return nil, err
	}

	d := &Distribution{Source: column, Mode: mode}

	switch mode {
	case stats.ModeCounts:
		if col.Kind() != dataset.Numeric {
			return nil, errors.Newf(errors.CodeInvalidInput,
				"column %q holds %s values and cannot be used as frequencies", column, col.Kind())
		}
		d.Frequency = make([]float64, col.Len())
		copy(d.Frequency, col.Floats())
		d.Index = make([]string, col.Len())
		for i := range d.Index {
			d.Index[i] = tbl.RowLabel(i)
		}
	case stats.ModeRaw:
		if col.Kind() == dataset.Numeric {
			d.Index, d.Frequency = countNumeric(col.Floats())
		} else {
			d.Index, d.Frequency = countLabels(col.Labels())
		}
	default:
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown frequency mode %d", int(mode))
	}

	d.accumulate()
	return d, nil
}

// accumulate fills the relative and running-sum columns. Missing
// frequencies are skipped by the sums and stay NaN in their own row.
func (d *Distribution) accumulate() {
	n := len(d.Frequency)
	d.Relative = make([]float64, n)
	d.Cumulative = make([]float64, n)
	d.CumulativeRelative = make([]float64, n)

	total := nanSum(d.Frequency)
	var runFreq, runRel float64
	for i, f := range d.Frequency {
		if math.IsNaN(f) {
			d.Relative[i] = math.NaN()
			d.Cumulative[i] = math.NaN()
			d.CumulativeRelative[i] = math.NaN()
			continue
		}
		rel := f / total
		runFreq += f
		runRel += rel
		d.Relative[i] = rel
		d.Cumulative[i] = runFreq
		d.CumulativeRelative[i] = runRel
	}
}

func countNumeric(values []float64) ([]string, []float64) {
	counts := make(map[float64]int)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v == 0 {
			v = 0 // fold -0 into 0
		}
		counts[v]++
	}

	keys := make([]float64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	index := make([]string, len(keys))
	freq := make([]float64, len(keys))
	for i, k := range keys {
		index[i] = strconv.FormatFloat(k, 'g', -1, 64)
		freq[i] = float64(counts[k])
	}
	return index, freq
}

func countLabels(values []string) ([]string, []float64) {
	counts := make(map[string]int)
	for _, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	freq := make([]float64, len(keys))
	for i, k := range keys {
		freq[i] = float64(counts[k])
	}
	return keys, freq
}

func nanSum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		if !math.IsNaN(x) {
			s += x
		}
	}
	return s
}
