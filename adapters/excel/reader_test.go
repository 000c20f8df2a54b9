package excel

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"edakit/domain/dataset"
	"edakit/internal/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"id", "score", "group"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"r1", 1.5, "a"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"r2", 2, "b"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"r3", nil, "a"}))

	_, err := f.NewSheet("counts")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("counts", "A1", &[]interface{}{"size", "n"}))
	require.NoError(t, f.SetSheetRow("counts", "A2", &[]interface{}{"S", 4}))
	require.NoError(t, f.SetSheetRow("counts", "A3", &[]interface{}{"M", 7}))

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadTable_CSV(t *testing.T) {
	path := writeCSV(t, "x,label,y\n1,a,2.5\n2,,NA\n3,c,4\n")

	tbl, err := NewDataReader(path).ReadTable(dataset.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "label", "y"}, tbl.Names())

	x, err := tbl.Column("x")
	require.NoError(t, err)
	assert.Equal(t, dataset.Numeric, x.Kind())
	assert.Equal(t, []float64{1, 2, 3}, x.Floats())

	label, err := tbl.Column("label")
	require.NoError(t, err)
	assert.Equal(t, dataset.Categorical, label.Kind())
	assert.Equal(t, []string{"a", "", "c"}, label.Labels())
	assert.Equal(t, 1, label.Missing())

	y, err := tbl.Numeric("y")
	require.NoError(t, err)
	assert.Equal(t, 2.5, y[0])
	assert.True(t, math.IsNaN(y[1]))
}

func TestReadTable_CSVShortRowsAndIndex(t *testing.T) {
	path := writeCSV(t, "name,v\nalpha,1\nbeta\ngamma,3\n")

	tbl, err := NewDataReader(path).ReadTable(dataset.ReadOptions{IndexColumn: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, tbl.Names())
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, tbl.Index)

	v, err := tbl.Numeric("v")
	require.NoError(t, err)
	require.Len(t, v, 3)
	assert.True(t, math.IsNaN(v[1]))
}

func TestReadTable_XLSX(t *testing.T) {
	path := writeWorkbook(t)

	tbl, err := NewDataReader(path).ReadTable(dataset.ReadOptions{IndexColumn: "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"score", "group"}, tbl.Names())
	assert.Equal(t, []string{"r1", "r2", "r3"}, tbl.Index)

	score, err := tbl.Numeric("score")
	require.NoError(t, err)
	require.Len(t, score, 3)
	assert.Equal(t, 1.5, score[0])
	assert.Equal(t, 2.0, score[1])
	assert.True(t, math.IsNaN(score[2]))

	counts, err := NewDataReader(path).ReadTable(dataset.ReadOptions{Sheet: "counts"})
	require.NoError(t, err)
	n, err := counts.Numeric("n")
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 7}, n)
}

func TestReadTable_XLSXFormattedNumbers(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"income", "share"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{1234, 0.25}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{5678, 0.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{91011, 0.125}))

	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	require.NoError(t, err)
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "A2", "A4", thousands))
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B4", percent))

	path := filepath.Join(t.TempDir(), "formatted.xlsx")
	require.NoError(t, f.SaveAs(path))

	tbl, err := NewDataReader(path).ReadTable(dataset.ReadOptions{})
	require.NoError(t, err)

	income, err := tbl.Numeric("income")
	require.NoError(t, err)
	assert.Equal(t, []float64{1234, 5678, 91011}, income)

	share, err := tbl.Numeric("share")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.5, 0.125}, share)
}

func TestReadTable_Errors(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "missing.csv")).ReadTable(dataset.ReadOptions{})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	path := writeWorkbook(t)
	_, err = NewDataReader(path).ReadTable(dataset.ReadOptions{Sheet: "nope"})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = NewDataReader(path).ReadTable(dataset.ReadOptions{IndexColumn: "nope"})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	dup := writeCSV(t, "a,a\n1,2\n")
	_, err = NewDataReader(dup).ReadTable(dataset.ReadOptions{})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	empty := writeCSV(t, "")
	_, err = NewDataReader(empty).ReadTable(dataset.ReadOptions{})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want dataset.Kind
	}{
		{"all numbers", []string{"1", "2e3", "-0.5"}, dataset.Numeric},
		{"numbers and missing", []string{"1", "", "null", "N/A"}, dataset.Numeric},
		{"all missing", []string{"", "NaN"}, dataset.Numeric},
		{"mixed", []string{"1", "two"}, dataset.Categorical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferColumn(tt.name, tt.raw).Kind())
		})
	}
}
