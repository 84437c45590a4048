// Package directory resolves member identities to profile records and
// lists pickup locations. The directory is read-only from the platform's
// perspective; balances are maintained by operator processes.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/farmstand/pkg/grid"
	"github.com/shopspring/decimal"
)

// Domain-level error values returned by the directory.
var (
	ErrUnknownUser            = errors.New("unknown user")
	ErrInvalidDirectoryConfig = errors.New("invalid directory config")
)

// Columns of the directory sheet. Trailing columns exist for operator
// bookkeeping and are ignored.
const (
	columnEmail    = 0
	columnName     = 1
	columnLocation = 2
	columnBalance  = 3
)

// Columns of the locations sheet.
const (
	columnLocationName       = 0
	columnPickupInstructions = 3
)

// User is one member profile.
type User struct {
	Email    string
	Name     string
	Location string
	Balance  decimal.Decimal
}

// Location is a pickup location and its member-facing instructions.
type Location struct {
	Name               string
	PickupInstructions string
}

// Service reads the directory and locations sheets through a grid reader.
type Service struct {
	store          grid.Reader
	usersSheet     string
	locationsSheet string
}

// NewService wires a directory Service.
func NewService(store grid.Reader, usersSheet string, locationsSheet string) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: grid store dependency is nil", ErrInvalidDirectoryConfig)
	}
	if usersSheet == "" {
		return nil, fmt.Errorf("%w: users sheet name is empty", ErrInvalidDirectoryConfig)
	}
	if locationsSheet == "" {
		return nil, fmt.Errorf("%w: locations sheet name is empty", ErrInvalidDirectoryConfig)
	}
	return &Service{store: store, usersSheet: usersSheet, locationsSheet: locationsSheet}, nil
}

// GetUser resolves one identity, returning ErrUnknownUser when absent.
func (service *Service) GetUser(ctx context.Context, identity string) (User, error) {
	users, err := service.GetUsers(ctx, []string{identity})
	if err != nil {
		return User{}, err
	}
	if len(users) == 0 {
		return User{}, ErrUnknownUser
	}
	return users[0], nil
}

// GetUsers resolves identities to profiles. Identities that are not found
// are omitted, not errors. Both the queries and the stored cells are
// trimmed before comparing, so stray whitespace on either side cannot hide
// a member.
func (service *Service) GetUsers(ctx context.Context, identities []string) ([]User, error) {
	wanted := make(map[string]struct{}, len(identities))
	for _, identity := range identities {
		wanted[strings.TrimSpace(identity)] = struct{}{}
	}

	rows, err := service.store.ReadSheet(ctx, service.usersSheet, grid.DimensionRows)
	if err != nil {
		return nil, err
	}

	users := []User{}
	for rowIndex, row := range rows {
		if rowIndex == 0 {
			// Header row.
			continue
		}
		email := strings.TrimSpace(cellAt(row, columnEmail).String())
		if email == "" {
			continue
		}
		if _, ok := wanted[email]; !ok {
			continue
		}
		users = append(users, User{
			Email:    email,
			Name:     cellAt(row, columnName).String(),
			Location: cellAt(row, columnLocation).String(),
			Balance:  balanceAt(row),
		})
	}
	return users, nil
}

// Locations lists the pickup locations.
func (service *Service) Locations(ctx context.Context) ([]Location, error) {
	rows, err := service.store.ReadSheet(ctx, service.locationsSheet, grid.DimensionRows)
	if err != nil {
		return nil, err
	}
	locations := []Location{}
	for rowIndex, row := range rows {
		if rowIndex == 0 {
			continue
		}
		name := cellAt(row, columnLocationName).String()
		if name == "" {
			continue
		}
		locations = append(locations, Location{
			Name:               name,
			PickupInstructions: cellAt(row, columnPickupInstructions).String(),
		})
	}
	return locations, nil
}

func cellAt(row []grid.Value, columnIndex int) grid.Value {
	if columnIndex < 0 || columnIndex >= len(row) {
		return grid.Empty()
	}
	return row[columnIndex]
}

func balanceAt(row []grid.Value) decimal.Decimal {
	cell := cellAt(row, columnBalance)
	if number, ok := cell.Float(); ok {
		return decimal.NewFromFloat(number)
	}
	if parsed, err := decimal.NewFromString(cell.String()); err == nil {
		return parsed
	}
	return decimal.Zero
}
