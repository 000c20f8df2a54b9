package dataset

// ReadOptions select what part of a source becomes the table
type ReadOptions struct {
	Sheet       string // spreadsheet sources only; empty means the first sheet
	IndexColumn string // column whose values label the rows; empty for none
}
