package orders

import (
	"context"
	"testing"

	"github.com/MarkoPoloResearchLab/farmstand/pkg/grid"
)

const (
	openTitle     = "Orders"
	ashleyEmail   = "ashley@friskygirlfarm.com"
	ellenEmail    = "ellen@friskygirlfarm.com"
	herbEmail     = "herb@friskygirlfarm.com"
	lettuceImage  = "http://lettuce.com/image.jpg"
	kaleImage     = "http://kale.com/image.jpg"
	greensImage   = "http://spicy-greens.com/image.jpg"
	lettuceColumn = ProductID(1)
	kaleColumn    = ProductID(2)
	greensColumn  = ProductID(3)
)

type cellUpdate struct {
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

// stubGrid is an in-memory grid.ReadWriter recording writes.
type stubGrid struct {
	columns    map[string][][]grid.Value
	readErr    error
	updateErr  error
	appendErr  error
	readSheets []string
	updates    []cellUpdate
	appends    []rowAppend
}

func newStubGrid() *stubGrid {
	return &stubGrid{columns: make(map[string][][]grid.Value)}
}

func (stub *stubGrid) ReadSheet(_ context.Context, sheet string, _ grid.Dimension) ([][]grid.Value, error) {
	stub.readSheets = append(stub.readSheets, sheet)
	if stub.readErr != nil {
		return nil, stub.readErr
	}
	columns, ok := stub.columns[sheet]
	if !ok {
		return nil, grid.ErrSheetNotFound
	}
	return columns, nil
}

func (stub *stubGrid) UpdateCell(_ context.Context, sheet string, rowIndex int, columnIndex int, value grid.Value) error {
	if stub.updateErr != nil {
		return stub.updateErr
	}
	stub.updates = append(stub.updates, cellUpdate{sheet: sheet, rowIndex: rowIndex, columnIndex: columnIndex, value: value})
	return nil
}

func (stub *stubGrid) AppendRow(_ context.Context, sheet string, startRowIndex int, row []grid.Value) error {
	if stub.appendErr != nil {
		return stub.appendErr
	}
	stub.appends = append(stub.appends, rowAppend{sheet: sheet, startRowIndex: startRowIndex, row: row})
	return nil
}

// stubHistory is an in-memory orders.History and orders.LedgerResolver.
type stubHistory struct {
	closed          []ClosedLedger
	listErr         error
	identityColumns map[int64][]string
	readErr         error
	readCalls       int
	titles          map[int64]string
}

func (stub *stubHistory) ListClosedLedgers(context.Context) ([]ClosedLedger, error) {
	if stub.listErr != nil {
		return nil, stub.listErr
	}
	return stub.closed, nil
}

func (stub *stubHistory) ReadIdentityColumns(_ context.Context, ledgerIDs []int64) (map[int64][]string, error) {
	stub.readCalls++
	if stub.readErr != nil {
		return nil, stub.readErr
	}
	columns := make(map[int64][]string, len(ledgerIDs))
	for _, ledgerID := range ledgerIDs {
		if column, ok := stub.identityColumns[ledgerID]; ok {
			columns[ledgerID] = column
		}
	}
	return columns, nil
}

func (stub *stubHistory) ResolveLedger(_ context.Context, ledgerID int64) (string, error) {
	title, ok := stub.titles[ledgerID]
	if !ok {
		return "", ErrLedgerNotFound
	}
	return title, nil
}

// weekColumns builds a ledger grid in columns-major order: three products
// with the given limits, ellen and ashley holding the given quantities.
// A nil quantity slot stays blank.
func weekColumns(limits [3]any, ellen [3]any, ashley [3]any) [][]grid.Value {
	identityColumn := []any{nil, nil, nil, nil, nil, ellenEmail, ashleyEmail}
	names := []any{"Lettuce", "Kale", "Spicy Greens"}
	prices := []any{0.15, 0.85, 3.0}
	images := []any{lettuceImage, kaleImage, greensImage}

	columns := [][]grid.Value{rawColumn(identityColumn)}
	for productIndex := 0; productIndex < 3; productIndex++ {
		total := sumQuantities(ellen[productIndex], ashley[productIndex])
		columns = append(columns, rawColumn([]any{
			names[productIndex],
			prices[productIndex],
			images[productIndex],
			limits[productIndex],
			total,
			ellen[productIndex],
			ashley[productIndex],
		}))
	}
	return columns
}

func rawColumn(cells []any) []grid.Value {
	column := make([]grid.Value, 0, len(cells))
	for _, cell := range cells {
		column = append(column, grid.FromRaw(cell))
	}
	return column
}

func sumQuantities(quantities ...any) int {
	total := 0
	for _, quantity := range quantities {
		if number, ok := quantity.(int); ok {
			total += number
		}
	}
	return total
}

func mustNewService(test *testing.T, store *stubGrid, history *stubHistory) *Service {
	test.Helper()
	if history == nil {
		history = &stubHistory{}
	}
	service, err := NewService(store, history, history, openTitle)
	if err != nil {
		test.Fatalf("NewService: %v", err)
	}
	return service
}

func mustIdentity(test *testing.T, raw string) Identity {
	test.Helper()
	identity, err := NewIdentity(raw)
	if err != nil {
		test.Fatalf("NewIdentity(%q): %v", raw, err)
	}
	return identity
}
