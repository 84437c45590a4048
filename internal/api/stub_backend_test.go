package api

import (
	"context"
	"fmt"

	"github.com/MarkoPoloResearchLab/farmstand/pkg/grid"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/orders"
	"go.uber.org/zap"
)

const (
	openLedgerTitle = "Orders"
	usersSheet      = "Users"
	locationsSheet  = "Locations"
	ashleyEmail     = "ashley@friskygirlfarm.com"
	ellenEmail      = "ellen@friskygirlfarm.com"

	juneLedgerID = int64(1201)
	juneTitle    = "Orders 6-12"
	juneClosedAt = "2023-06-12T17:00:00Z"
	julyLedgerID = int64(1202)
	julyTitle    = "Orders 7-10"
	julyClosedAt = "2023-07-10T17:00:00Z"
)

type cellWrite struct {
	sheet       string
	rowIndex    int
	columnIndex int
	value       grid.Value
}

type rowAppend struct {
	sheet         string
	startRowIndex int
	row           []grid.Value
}

// fakeBackend is an in-memory ledgerStore. Ledger sheets are held
// columns-major, directory sheets rows-major, matching how each consumer
// asks for them.
type fakeBackend struct {
	columnsBySheet map[string][][]grid.Value
	rowsBySheet    map[string][][]grid.Value

	closed          []orders.ClosedLedger
	identityColumns map[int64][]string
	titles          map[int64]string

	updates []cellWrite
	appends []rowAppend
}

func (backend *fakeBackend) ReadSheet(_ context.Context, sheet string, dimension grid.Dimension) ([][]grid.Value, error) {
	source := backend.columnsBySheet
	if dimension == grid.DimensionRows {
		source = backend.rowsBySheet
	}
	lines, ok := source[sheet]
	if !ok {
		return nil, grid.ErrSheetNotFound
	}
	return lines, nil
}

func (backend *fakeBackend) UpdateCell(_ context.Context, sheet string, rowIndex int, columnIndex int, value grid.Value) error {
	backend.updates = append(backend.updates, cellWrite{sheet: sheet, rowIndex: rowIndex, columnIndex: columnIndex, value: value})
	return nil
}

func (backend *fakeBackend) AppendRow(_ context.Context, sheet string, startRowIndex int, row []grid.Value) error {
	backend.appends = append(backend.appends, rowAppend{sheet: sheet, startRowIndex: startRowIndex, row: row})
	return nil
}

func (backend *fakeBackend) ListClosedLedgers(_ context.Context) ([]orders.ClosedLedger, error) {
	return backend.closed, nil
}

func (backend *fakeBackend) ReadIdentityColumns(_ context.Context, ledgerIDs []int64) (map[int64][]string, error) {
	columns := make(map[int64][]string, len(ledgerIDs))
	for _, ledgerID := range ledgerIDs {
		if identities, ok := backend.identityColumns[ledgerID]; ok {
			columns[ledgerID] = identities
		}
	}
	return columns, nil
}

func (backend *fakeBackend) ResolveLedger(_ context.Context, ledgerID int64) (string, error) {
	title, ok := backend.titles[ledgerID]
	if !ok {
		return "", orders.ErrLedgerNotFound
	}
	return title, nil
}

func rawLine(cells ...any) []grid.Value {
	column := make([]grid.Value, 0, len(cells))
	for _, cell := range cells {
		column = append(column, grid.FromRaw(cell))
	}
	return column
}

// newFakeBackend builds the standing fixture: an open ledger where ashley
// has 1 lettuce (available 2) and no kale (available 1), one closed June
// ledger both members took part in, and a July ledger only ellen joined.
func newFakeBackend() *fakeBackend {
	openLedger := [][]grid.Value{
		rawLine(nil, nil, nil, nil, nil, ellenEmail, ashleyEmail),
		rawLine("Lettuce", 0.15, "http://lettuce.com/image.jpg", 5, 4, 3, 1),
		rawLine("Kale", 0.85, "http://kale.com/image.jpg", 3, 2, 2, nil),
	}
	juneLedger := [][]grid.Value{
		rawLine(nil, nil, nil, nil, nil, ellenEmail, ashleyEmail),
		rawLine("Lettuce", 0.15, "http://lettuce.com/image.jpg", 5, 3, 2, 1),
	}
	return &fakeBackend{
		columnsBySheet: map[string][][]grid.Value{
			openLedgerTitle: openLedger,
			juneTitle:       juneLedger,
		},
		rowsBySheet: map[string][][]grid.Value{
			usersSheet: {
				rawLine("Email", "Name", "Location", "Balance"),
				rawLine(ashleyEmail, "Ashley Wilson", "Wallingford", 35.0),
				rawLine(ellenEmail, "Ellen Scheffer", "Lake City", 45.0),
			},
			locationsSheet: {
				rawLine("Name", "Day", "Time", "Pickup instructions"),
				rawLine("Wallingford", "Saturday", "9:00-12:00", "On the porch in the blue cooler."),
				rawLine("Lake City", "Sunday", "10:00-14:00", "Side gate, shelf by the garage."),
			},
		},
		closed: []orders.ClosedLedger{
			{ID: juneLedgerID, Title: juneTitle, ClosedAt: juneClosedAt},
			{ID: julyLedgerID, Title: julyTitle, ClosedAt: julyClosedAt},
		},
		identityColumns: map[int64][]string{
			juneLedgerID: {ellenEmail, ashleyEmail},
			julyLedgerID: {ellenEmail},
		},
		titles: map[int64]string{
			juneLedgerID: juneTitle,
			julyLedgerID: julyTitle,
		},
	}
}

func newOperationLoggerForTest() *zapOperationLogger {
	return newZapOperationLogger(zap.NewNop())
}

func describeWrites(backend *fakeBackend) string {
	return fmt.Sprintf("updates=%v appends=%v", backend.updates, backend.appends)
}
