// Package outliers trims values outside the interquartile-range fences of a
// sample.
//
// Filtering is not idempotent in general: the quartiles of the filtered
// output are usually tighter than those of the input, so a second pass may
// remove further values.
package outliers

import (
	"math"

	"edakit/domain/dataset"
	"edakit/domain/stats"
	"edakit/internal/profiling"
)

// Filtered is the subsequence of a sample that lies within its fences.
// Positions[i] is the index of Values[i] in the input.
type Filtered struct {
	Values    []float64
	Positions []int
	Bounds    stats.Bounds
}

// Removed returns how many inputs were dropped, missing values included
func (f Filtered) Removed(inputLen int) int {
	return inputLen - len(f.Values)
}

// ComputeBounds derives the fences Q1 - m*IQR and Q3 + m*IQR. Missing values
// are ignored; an empty sample gives NaN bounds.
func ComputeBounds(values []float64, multiplier float64) stats.Bounds {
	observed := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	sorted := profiling.Sorted(observed)

	q1 := profiling.Quantile(sorted, 0.25)
	q3 := profiling.Quantile(sorted, 0.75)
	iqr := q3 - q1

	return stats.Bounds{
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		Lower:      q1 - multiplier*iqr,
		Upper:      q3 + multiplier*iqr,
		Multiplier: multiplier,
	}
}

// Filter keeps the values with lower <= v <= upper, in input order. Missing
// values never satisfy the comparison and are dropped.
func Filter(values []float64, multiplier float64) Filtered {
	b := ComputeBounds(values, multiplier)
	out := Filtered{
		Values:    make([]float64, 0, len(values)),
		Positions: make([]int, 0, len(values)),
		Bounds:    b,
	}
	for i, v := range values {
		if b.Contains(v) {
			out.Values = append(out.Values, v)
			out.Positions = append(out.Positions, i)
		}
	}
	return out
}

// FilterColumn filters a numeric column of tbl
func FilterColumn(tbl *dataset.Table, column string, multiplier float64) (Filtered, error) {
	values, err := tbl.Numeric(column)
	if err != nil {
		return Filtered{}, err
	}
	return Filter(values, multiplier), nil
}
