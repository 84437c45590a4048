// Package seed creates a local grid store populated with a sample week so
// the API can be exercised end to end without a spreadsheet.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/farmstand/internal/store/gridstore"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/grid"
)

const (
	openLedgerTitle  = "Orders"
	usersSheetTitle  = "Users"
	locationsTitle   = "Locations"
	pastLedgerTitle  = "Orders 6-12"
	usersSheetID     = 1
	locationsSheetID = 2
	openLedgerID     = 3
	pastLedgerID     = 4
)

// Run builds the sample store at path.
func Run(ctx context.Context, path string) error {
	store, err := gridstore.Open(path)
	if err != nil {
		return err
	}

	if err := seedUsers(ctx, store); err != nil {
		return err
	}
	if err := seedLocations(ctx, store); err != nil {
		return err
	}
	if err := seedLedger(ctx, store, openLedgerTitle, openLedgerID); err != nil {
		return err
	}
	if err := seedLedger(ctx, store, pastLedgerTitle, pastLedgerID); err != nil {
		return err
	}
	closedAt := time.Now().UTC().AddDate(0, 0, -7).Format(time.RFC3339)
	if err := store.TagClosed(ctx, pastLedgerTitle, closedAt); err != nil {
		return err
	}
	return nil
}

func seedUsers(ctx context.Context, store *gridstore.Store) error {
	if err := store.CreateSheet(ctx, usersSheetTitle, usersSheetID); err != nil {
		return err
	}
	rows := [][]any{
		{"Email", "Name", "Location", "Balance"},
		{"ashley@friskygirlfarm.com", "Ashley Wilson", "Wallingford", 35.0},
		{"ellen@friskygirlfarm.com", "Ellen Scheffer", "Lake City", 45.0},
	}
	return writeRows(ctx, store, usersSheetTitle, 0, rows)
}

func seedLocations(ctx context.Context, store *gridstore.Store) error {
	if err := store.CreateSheet(ctx, locationsTitle, locationsSheetID); err != nil {
		return err
	}
	rows := [][]any{
		{"Name", "Day", "Time", "Pickup instructions"},
		{"Wallingford", "Saturday", "9:00-12:00", "On the porch in the blue cooler."},
		{"Lake City", "Sunday", "10:00-14:00", "Side gate, shelf by the garage."},
	}
	return writeRows(ctx, store, locationsTitle, 0, rows)
}

func seedLedger(ctx context.Context, store *gridstore.Store, title string, sheetID int64) error {
	if err := store.CreateSheet(ctx, title, sheetID); err != nil {
		return err
	}
	rows := [][]any{
		{"", "Lettuce", "Kale", "Spicy Greens"},
		{"", 0.15, 0.85, 3.0},
		{"", "http://lettuce.com/image.jpg", "http://kale.com/image.jpg", "http://spicy-greens.com/image.jpg"},
		{"", 7, 3, 5},
		{"", 4, 2, 1},
		{"ellen@friskygirlfarm.com", 3, 2, 0},
		{"ashley@friskygirlfarm.com", 1, nil, 1},
	}
	return writeRows(ctx, store, title, 0, rows)
}

func writeRows(ctx context.Context, store *gridstore.Store, sheet string, startRowIndex int, rows [][]any) error {
	for rowOffset, row := range rows {
		for columnIndex, rawCell := range row {
			value := grid.FromRaw(rawCell)
			if value.IsEmpty() {
				continue
			}
			if err := store.UpdateCell(ctx, sheet, startRowIndex+rowOffset, columnIndex, value); err != nil {
				return fmt.Errorf("seed %s row %d: %w", sheet, startRowIndex+rowOffset, err)
			}
		}
	}
	return nil
}
