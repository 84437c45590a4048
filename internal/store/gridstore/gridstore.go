// Package gridstore is a sqlite-backed grid for single-process runs: the
// same contracts as the spreadsheet adapter, persisted locally so the full
// stack can run without Google credentials. It is a development aid, not a
// deployment target.
package gridstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarkoPoloResearchLab/farmstand/pkg/grid"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/orders"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const closedMarkerKey = "orderSheet"

// Store implements grid.ReadWriter, orders.History, and
// orders.LedgerResolver on a gorm database.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open grid store: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// New wraps an existing gorm database and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (store *Store) migrate() error {
	if err := store.db.AutoMigrate(&SheetInfo{}, &Cell{}); err != nil {
		return fmt.Errorf("migrate grid store: %w", err)
	}
	return nil
}

// CreateSheet registers a named sheet with its stable id.
func (store *Store) CreateSheet(ctx context.Context, title string, sheetID int64) error {
	info := SheetInfo{Title: title, SheetID: sheetID}
	if err := store.db.WithContext(ctx).Create(&info).Error; err != nil {
		return fmt.Errorf("create sheet %s: %w", title, err)
	}
	return nil
}

// RenameSheet retitles a sheet, moving its cells along. Used when a week
// opens ("Orders") or closes (dated title).
func (store *Store) RenameSheet(ctx context.Context, oldTitle string, newTitle string) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		result := transaction.Model(&SheetInfo{}).Where("title = ?", oldTitle).Update("title", newTitle)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", grid.ErrSheetNotFound, oldTitle)
		}
		return transaction.Model(&Cell{}).Where("sheet = ?", oldTitle).Update("sheet", newTitle).Error
	})
}

// TagClosed stamps the closed-ledger marker on a sheet.
func (store *Store) TagClosed(ctx context.Context, title string, closedAt string) error {
	result := store.db.WithContext(ctx).Model(&SheetInfo{}).Where("title = ?", title).
		Updates(map[string]any{"marker_key": closedMarkerKey, "marker_value": closedAt})
	if result.Error != nil {
		return fmt.Errorf("tag sheet %s: %w", title, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", grid.ErrSheetNotFound, title)
	}
	return nil
}

// ReadSheet reassembles the sheet's cells into a rectangular snapshot and
// returns it in the requested major dimension, trailing blanks trimmed per
// line the way the spreadsheet API does.
func (store *Store) ReadSheet(ctx context.Context, sheet string, dimension grid.Dimension) ([][]grid.Value, error) {
	if err := store.requireSheet(ctx, sheet); err != nil {
		return nil, err
	}
	var cells []Cell
	if err := store.db.WithContext(ctx).Where("sheet = ?", sheet).Find(&cells).Error; err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	height, width := 0, 0
	for _, cell := range cells {
		if cell.RowIndex+1 > height {
			height = cell.RowIndex + 1
		}
		if cell.ColumnIndex+1 > width {
			width = cell.ColumnIndex + 1
		}
	}
	rows := make([][]grid.Value, height)
	for rowIndex := range rows {
		rows[rowIndex] = make([]grid.Value, width)
		for columnIndex := range rows[rowIndex] {
			rows[rowIndex][columnIndex] = grid.Empty()
		}
	}
	for _, cell := range cells {
		rows[cell.RowIndex][cell.ColumnIndex] = cellValue(cell)
	}

	if dimension == grid.DimensionColumns {
		columns := make([][]grid.Value, width)
		for columnIndex := 0; columnIndex < width; columnIndex++ {
			column := make([]grid.Value, height)
			for rowIndex := 0; rowIndex < height; rowIndex++ {
				column[rowIndex] = rows[rowIndex][columnIndex]
			}
			columns[columnIndex] = trimTrailingEmpty(column)
		}
		return columns, nil
	}
	trimmed := make([][]grid.Value, len(rows))
	for rowIndex, row := range rows {
		trimmed[rowIndex] = trimTrailingEmpty(row)
	}
	return trimmed, nil
}

// UpdateCell overwrites one cell; writing an empty value deletes it.
func (store *Store) UpdateCell(ctx context.Context, sheet string, rowIndex int, columnIndex int, value grid.Value) error {
	if err := store.requireSheet(ctx, sheet); err != nil {
		return err
	}
	database := store.db.WithContext(ctx)
	if value.IsEmpty() {
		return database.Delete(&Cell{}, "sheet = ? AND row_index = ? AND column_index = ?", sheet, rowIndex, columnIndex).Error
	}
	cell := newCell(sheet, rowIndex, columnIndex, value)
	return database.Save(&cell).Error
}

// AppendRow writes the row into the first free row at or below the anchor.
func (store *Store) AppendRow(ctx context.Context, sheet string, startRowIndex int, row []grid.Value) error {
	if err := store.requireSheet(ctx, sheet); err != nil {
		return err
	}
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		var lastRow struct{ Last *int }
		err := transaction.Model(&Cell{}).
			Select("max(row_index) as last").
			Where("sheet = ?", sheet).
			Scan(&lastRow).Error
		if err != nil {
			return fmt.Errorf("append row to %s: %w", sheet, err)
		}
		rowIndex := startRowIndex
		if lastRow.Last != nil && *lastRow.Last+1 > rowIndex {
			rowIndex = *lastRow.Last + 1
		}
		for columnIndex, value := range row {
			if value.IsEmpty() {
				continue
			}
			cell := newCell(sheet, rowIndex, columnIndex, value)
			if err := transaction.Create(&cell).Error; err != nil {
				return fmt.Errorf("append row to %s: %w", sheet, err)
			}
		}
		return nil
	})
}

// ListClosedLedgers returns every sheet carrying the closed-ledger marker.
func (store *Store) ListClosedLedgers(ctx context.Context) ([]orders.ClosedLedger, error) {
	var infos []SheetInfo
	err := store.db.WithContext(ctx).Where("marker_key = ?", closedMarkerKey).Find(&infos).Error
	if err != nil {
		return nil, fmt.Errorf("list closed ledgers: %w", err)
	}
	closed := make([]orders.ClosedLedger, 0, len(infos))
	for _, info := range infos {
		closed = append(closed, orders.ClosedLedger{
			ID:       info.SheetID,
			Title:    info.Title,
			ClosedAt: info.MarkerValue,
		})
	}
	return closed, nil
}

// ReadIdentityColumns reads column 0 of each requested ledger, user rows
// only.
func (store *Store) ReadIdentityColumns(ctx context.Context, ledgerIDs []int64) (map[int64][]string, error) {
	columns := make(map[int64][]string, len(ledgerIDs))
	for _, ledgerID := range ledgerIDs {
		var info SheetInfo
		err := store.db.WithContext(ctx).Where("sheet_id = ?", ledgerID).First(&info).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read identity column %d: %w", ledgerID, err)
		}
		var cells []Cell
		err = store.db.WithContext(ctx).
			Where("sheet = ? AND column_index = 0 AND row_index >= ?", info.Title, orders.FirstUserRow).
			Order("row_index").
			Find(&cells).Error
		if err != nil {
			return nil, fmt.Errorf("read identity column %d: %w", ledgerID, err)
		}
		column := make([]string, 0, len(cells))
		for _, cell := range cells {
			column = append(column, cellValue(cell).String())
		}
		columns[ledgerID] = column
	}
	return columns, nil
}

// ResolveLedger maps a sheet id to its title, verifying the marker.
func (store *Store) ResolveLedger(ctx context.Context, ledgerID int64) (string, error) {
	var info SheetInfo
	err := store.db.WithContext(ctx).Where("sheet_id = ?", ledgerID).First(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", orders.ErrLedgerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve ledger %d: %w", ledgerID, err)
	}
	if info.MarkerKey != closedMarkerKey {
		return "", orders.ErrLedgerNotFound
	}
	return info.Title, nil
}

func (store *Store) requireSheet(ctx context.Context, sheet string) error {
	var count int64
	err := store.db.WithContext(ctx).Model(&SheetInfo{}).Where("title = ?", sheet).Count(&count).Error
	if err != nil {
		return fmt.Errorf("lookup sheet %s: %w", sheet, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", grid.ErrSheetNotFound, sheet)
	}
	return nil
}

func newCell(sheet string, rowIndex int, columnIndex int, value grid.Value) Cell {
	cell := Cell{Sheet: sheet, RowIndex: rowIndex, ColumnIndex: columnIndex}
	if number, ok := value.Float(); ok {
		cell.Kind = cellKindNumber
		cell.Number = number
		return cell
	}
	cell.Kind = cellKindText
	cell.Text = value.String()
	return cell
}

func cellValue(cell Cell) grid.Value {
	if cell.Kind == cellKindNumber {
		return grid.Number(cell.Number)
	}
	return grid.Text(cell.Text)
}

func trimTrailingEmpty(line []grid.Value) []grid.Value {
	end := len(line)
	for end > 0 && line[end-1].IsEmpty() {
		end--
	}
	return line[:end]
}
