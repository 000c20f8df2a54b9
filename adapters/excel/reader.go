package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"edakit/domain/dataset"
	"edakit/internal"
	"edakit/internal/errors"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: internal.NewNopLogger()}
}

// WithLogger sets the logger used for read diagnostics
func (r *DataReader) WithLogger(logger *internal.Logger) *DataReader {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// ReadTable reads the file into a dataset.Table. The first row holds the
// column names. A column is numeric when every non-missing cell parses as a
// number; otherwise it is categorical.
func (r *DataReader) ReadTable(opts dataset.ReadOptions) (*dataset.Table, error) {
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows(opts.Sheet)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file has no header row", strings.ToUpper(r.fileType)))
	}

	return r.buildTable(rows, opts)
}

// readExcelRows reads the named sheet, or the first sheet when name is empty
func (r *DataReader) readExcelRows(sheet string) ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.IOError("failed to open Excel file", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.NotFound(fmt.Sprintf("sheet %q", sheet))
	}

	// raw values, so number formats like "#,##0" do not turn numbers into text
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to read sheet %s", sheet), err)
	}
	r.logger.Debug("[DataReader] %s read in %.2fms (%d rows)",
		sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readCSVRows reads every record; rows may have differing lengths
func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.IOError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	startTime := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.IOError("failed to read CSV file", err)
	}
	r.logger.Debug("[DataReader] CSV file read in %.2fms (%d rows)",
		float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// buildTable turns raw string rows into typed columns
func (r *DataReader) buildTable(rows [][]string, opts dataset.ReadOptions) (*dataset.Table, error) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
	}
	body := rows[1:]

	cell := func(row []string, j int) string {
		if j < len(row) {
			return strings.TrimSpace(row[j])
		}
		return ""
	}

	indexCol := -1
	if opts.IndexColumn != "" {
		for j, h := range headers {
			if h == opts.IndexColumn {
				indexCol = j
				break
			}
		}
		if indexCol < 0 {
			return nil, errors.NotFound(fmt.Sprintf("index column %q", opts.IndexColumn))
		}
	}

	tbl, err := dataset.NewTable()
	if err != nil {
		return nil, err
	}
	if indexCol >= 0 {
		tbl.Index = make([]string, len(body))
		for i, row := range body {
			tbl.Index[i] = cell(row, indexCol)
		}
	}

	for j, name := range headers {
		if j == indexCol {
			continue
		}
		raw := make([]string, len(body))
		for i, row := range body {
			raw[i] = cell(row, j)
		}
		col := inferColumn(name, raw)
		r.logger.Trace("[DataReader] column %q: %s, %d missing", name, col.Kind(), col.Missing())
		if err := tbl.AddColumn(col); err != nil {
			return nil, errors.Wrapf(err, "failed to load column %q", name)
		}
	}

	r.logger.Debug("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), tbl.Width(), len(body))
	return tbl, nil
}

// inferColumn types raw as numeric when every non-missing cell is a number
func inferColumn(name string, raw []string) *dataset.Column {
	floats := make([]float64, len(raw))
	numeric := true
	for i, s := range raw {
		if isMissing(s) {
			floats[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			numeric = false
			break
		}
		floats[i] = v
	}
	if numeric {
		return dataset.NewNumericColumn(name, floats)
	}

	labels := make([]string, len(raw))
	for i, s := range raw {
		if !isMissing(s) {
			labels[i] = s
		}
	}
	return dataset.NewCategoricalColumn(name, labels)
}

func isMissing(s string) bool {
	if s == "" {
		return true
	}
	_, ok := missingTokens[strings.ToLower(s)]
	return ok
}
