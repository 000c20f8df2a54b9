package ports

import "edakit/domain/dataset"

// TableReader loads one dataset source into a table
type TableReader interface {
	ReadTable(opts dataset.ReadOptions) (*dataset.Table, error)
}

// TableReaderFactory opens a reader for the source at path
type TableReaderFactory func(path string) TableReader
