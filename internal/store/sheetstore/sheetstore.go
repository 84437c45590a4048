// Package sheetstore adapts one Google spreadsheet to the grid, history,
// and ledger-resolution contracts of the ordering core. The spreadsheet is
// the system of record; every sheet is a named 2D range and closed weekly
// ledgers are tagged with sheet-scoped developer metadata.
package sheetstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MarkoPoloResearchLab/farmstand/pkg/grid"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/orders"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

const (
	// closedMarkerKey is the developer-metadata key stamped on a ledger
	// sheet when its week closes. The value is the closure timestamp.
	closedMarkerKey = "orderSheet"

	valueRenderUnformatted = "UNFORMATTED_VALUE"
	valueInputRaw          = "RAW"
	metadataLocationSheet  = "SHEET"

	closedLedgerFields  = "sheets.properties.sheetId,sheets.properties.title,sheets.developerMetadata.metadataKey,sheets.developerMetadata.metadataValue"
	resolveLedgerFields = "sheets.properties,sheets.developerMetadata"
)

// Store reads and writes one spreadsheet through the Sheets API.
type Store struct {
	service       *sheets.Service
	spreadsheetID string
}

// New builds a Store with an authenticated Sheets client.
func New(ctx context.Context, spreadsheetID string, credentialsFile string) (*Store, error) {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return NewWithService(service, spreadsheetID), nil
}

// NewWithService wraps an existing Sheets client; used by tests and by
// callers that manage credentials themselves.
func NewWithService(service *sheets.Service, spreadsheetID string) *Store {
	return &Store{service: service, spreadsheetID: spreadsheetID}
}

// ReadSheet returns the whole sheet as unformatted values in the requested
// major dimension. A bad-range failure maps to grid.ErrSheetNotFound.
func (store *Store) ReadSheet(ctx context.Context, sheet string, dimension grid.Dimension) ([][]grid.Value, error) {
	response, err := store.service.Spreadsheets.Values.Get(store.spreadsheetID, sheet).
		MajorDimension(string(dimension)).
		ValueRenderOption(valueRenderUnformatted).
		Context(ctx).
		Do()
	if err != nil {
		if isBadRange(err) {
			return nil, fmt.Errorf("%w: %s", grid.ErrSheetNotFound, sheet)
		}
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	values := make([][]grid.Value, 0, len(response.Values))
	for _, rawLine := range response.Values {
		line := make([]grid.Value, 0, len(rawLine))
		for _, rawCell := range rawLine {
			line = append(line, grid.FromRaw(rawCell))
		}
		values = append(values, line)
	}
	return values, nil
}

// UpdateCell overwrites a single cell.
func (store *Store) UpdateCell(ctx context.Context, sheet string, rowIndex int, columnIndex int, value grid.Value) error {
	valueRange := &sheets.ValueRange{Values: [][]any{{value.Raw()}}}
	_, err := store.service.Spreadsheets.Values.Update(store.spreadsheetID, cellRange(sheet, rowIndex, columnIndex), valueRange).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update cell %s: %w", cellRange(sheet, rowIndex, columnIndex), err)
	}
	return nil
}

// AppendRow appends one row below the anchor. Empty cells marshal as null
// so the written row keeps its column alignment without forcing zeros into
// untouched columns.
func (store *Store) AppendRow(ctx context.Context, sheet string, startRowIndex int, row []grid.Value) error {
	rawRow := make([]any, len(row))
	for columnIndex, cell := range row {
		rawRow[columnIndex] = cell.Raw()
	}
	valueRange := &sheets.ValueRange{Values: [][]any{rawRow}}
	_, err := store.service.Spreadsheets.Values.Append(store.spreadsheetID, rowRange(sheet, startRowIndex), valueRange).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", sheet, err)
	}
	return nil
}

// ListClosedLedgers returns every sheet carrying the closed-ledger marker.
func (store *Store) ListClosedLedgers(ctx context.Context) ([]orders.ClosedLedger, error) {
	request := &sheets.GetSpreadsheetByDataFilterRequest{
		DataFilters: []*sheets.DataFilter{{
			DeveloperMetadataLookup: &sheets.DeveloperMetadataLookup{
				MetadataKey: closedMarkerKey,
				MetadataLocation: &sheets.DeveloperMetadataLocation{
					LocationType: metadataLocationSheet,
				},
			},
		}},
	}
	response, err := store.service.Spreadsheets.GetByDataFilter(store.spreadsheetID, request).
		Fields(closedLedgerFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list closed ledgers: %w", err)
	}

	closed := make([]orders.ClosedLedger, 0, len(response.Sheets))
	for _, sheet := range response.Sheets {
		if sheet.Properties == nil {
			continue
		}
		// When the metadata lookup matches nothing the API answers with
		// every sheet, so require the marker explicitly.
		marker, ok := findMarker(sheet.DeveloperMetadata)
		if !ok {
			continue
		}
		closed = append(closed, orders.ClosedLedger{
			ID:       sheet.Properties.SheetId,
			Title:    sheet.Properties.Title,
			ClosedAt: marker,
		})
	}
	return closed, nil
}

// ReadIdentityColumns batch-reads the identity column of each requested
// ledger, restricted to the user-row region.
func (store *Store) ReadIdentityColumns(ctx context.Context, ledgerIDs []int64) (map[int64][]string, error) {
	dataFilters := make([]*sheets.DataFilter, 0, len(ledgerIDs))
	for _, ledgerID := range ledgerIDs {
		dataFilters = append(dataFilters, &sheets.DataFilter{
			GridRange: &sheets.GridRange{
				SheetId:          ledgerID,
				StartRowIndex:    int64(orders.FirstUserRow),
				StartColumnIndex: 0,
				EndColumnIndex:   1,
				ForceSendFields:  []string{"SheetId", "StartColumnIndex"},
			},
		})
	}
	request := &sheets.BatchGetValuesByDataFilterRequest{
		DataFilters:    dataFilters,
		MajorDimension: string(grid.DimensionColumns),
	}
	response, err := store.service.Spreadsheets.Values.BatchGetByDataFilter(store.spreadsheetID, request).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read identity columns: %w", err)
	}

	columns := make(map[int64][]string, len(ledgerIDs))
	for _, matched := range response.ValueRanges {
		if len(matched.DataFilters) == 0 || matched.DataFilters[0].GridRange == nil {
			continue
		}
		ledgerID := matched.DataFilters[0].GridRange.SheetId
		columns[ledgerID] = identityColumn(matched.ValueRange)
	}
	return columns, nil
}

// ResolveLedger maps a sheet id to its title, verifying the closed-ledger
// marker.
func (store *Store) ResolveLedger(ctx context.Context, ledgerID int64) (string, error) {
	request := &sheets.GetSpreadsheetByDataFilterRequest{
		DataFilters: []*sheets.DataFilter{{
			GridRange: &sheets.GridRange{
				SheetId:         ledgerID,
				ForceSendFields: []string{"SheetId"},
			},
		}},
	}
	response, err := store.service.Spreadsheets.GetByDataFilter(store.spreadsheetID, request).
		Fields(resolveLedgerFields).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("resolve ledger %d: %w", ledgerID, err)
	}
	if len(response.Sheets) == 0 || response.Sheets[0].Properties == nil {
		return "", orders.ErrLedgerNotFound
	}
	if _, ok := findMarker(response.Sheets[0].DeveloperMetadata); !ok {
		return "", orders.ErrLedgerNotFound
	}
	return response.Sheets[0].Properties.Title, nil
}

func findMarker(metadata []*sheets.DeveloperMetadata) (string, bool) {
	for _, entry := range metadata {
		if entry != nil && entry.MetadataKey == closedMarkerKey {
			return entry.MetadataValue, true
		}
	}
	return "", false
}

func identityColumn(valueRange *sheets.ValueRange) []string {
	// A ledger with no user rows comes back with Values missing entirely
	// rather than as an empty array.
	if valueRange == nil || len(valueRange.Values) == 0 {
		return nil
	}
	column := make([]string, 0, len(valueRange.Values[0]))
	for _, rawCell := range valueRange.Values[0] {
		column = append(column, grid.FromRaw(rawCell).String())
	}
	return column
}

// isBadRange detects the Sheets API failure for a range that does not
// exist (HTTP 400 on the values endpoints).
func isBadRange(err error) bool {
	var apiError *googleapi.Error
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.Code == http.StatusBadRequest
}
