// Package grid defines the storage contract the ordering core reads and
// writes through. A grid is a named rectangular range of loosely typed
// cells; the spreadsheet adapter and the local sqlite adapter both satisfy
// these interfaces.
package grid

import (
	"context"
	"errors"
)

// Dimension selects the major dimension of a snapshot read.
type Dimension string

const (
	DimensionRows    Dimension = "ROWS"
	DimensionColumns Dimension = "COLUMNS"
)

// ErrSheetNotFound reports that the named sheet (or its range) does not
// exist in the backing store. Adapters map their own "bad range" class of
// failure to this sentinel so the core can distinguish it from transport
// faults.
var ErrSheetNotFound = errors.New("sheet not found")

// Reader provides whole-sheet snapshot reads of unformatted values.
type Reader interface {
	ReadSheet(ctx context.Context, sheet string, dimension Dimension) ([][]Value, error)
}

// Writer provides the two mutations the ordering core performs: a
// single-cell overwrite and a row append. AppendRow rows may contain empty
// cells, which must be preserved so column alignment survives the write.
type Writer interface {
	UpdateCell(ctx context.Context, sheet string, rowIndex int, columnIndex int, value Value) error
	AppendRow(ctx context.Context, sheet string, startRowIndex int, row []Value) error
}

// ReadWriter combines snapshot reads with cell-level writes.
type ReadWriter interface {
	Reader
	Writer
}
