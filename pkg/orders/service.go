package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarkoPoloResearchLab/farmstand/pkg/grid"
)

const (
	operationGetForUser      = "get_for_user"
	operationSetOrdered      = "set_ordered"
	operationUsersWithOrders = "users_with_orders"
	operationListPastOrders  = "list_past_orders"

	operationStatusOK    = "ok"
	operationStatusError = "error"
)

// Service contains the ordering domain logic over a grid store.
//
// The service itself performs no locking: two concurrent SetOrdered calls
// for the same identity can both observe the missing row and both append.
// Callers must serialize mutations per identity; the HTTP layer ships a
// reference serialization queue for single-process deployments.
type Service struct {
	store     grid.ReadWriter
	history   History
	resolver  LedgerResolver
	openTitle string
	logger    OperationLogger
}

// NewService wires a Service. The open title names the sheet of the single
// ledger currently accepting orders.
func NewService(store grid.ReadWriter, history History, resolver LedgerResolver, openTitle string, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: grid store dependency is nil", ErrInvalidServiceConfig)
	}
	if history == nil {
		return nil, fmt.Errorf("%w: history dependency is nil", ErrInvalidServiceConfig)
	}
	if resolver == nil {
		return nil, fmt.Errorf("%w: ledger resolver dependency is nil", ErrInvalidServiceConfig)
	}
	if openTitle == "" {
		return nil, fmt.Errorf("%w: open ledger title is empty", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, history: history, resolver: resolver, openTitle: openTitle}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// OpenLedgerTitle returns the configured title of the open ledger.
func (service *Service) OpenLedgerTitle() string {
	return service.openTitle
}

// GetForUser reads the ledger named by ref and projects it for the
// identity. A missing sheet means "ordering closed" only for the current
// ledger; a missing historical ledger propagates unchanged.
func (service *Service) GetForUser(ctx context.Context, ref LedgerRef, identity Identity) (View, error) {
	view, operationError := service.readView(ctx, ref, identity)
	service.logOperation(ctx, OperationLog{
		Operation: operationGetForUser,
		Identity:  identity,
		Ledger:    ref.Title(service.openTitle),
		Error:     operationError,
	})
	return view, operationError
}

// SetOrdered applies one quantity change for the identity against the open
// ledger and returns the resulting view. Validation failures reject before
// any write reaches storage.
func (service *Service) SetOrdered(ctx context.Context, identity Identity, productID ProductID, quantity int) (View, error) {
	view, operationError := service.setOrdered(ctx, identity, productID, quantity)
	service.logOperation(ctx, OperationLog{
		Operation: operationSetOrdered,
		Identity:  identity,
		Ledger:    service.openTitle,
		ProductID: productID,
		Quantity:  quantity,
		Error:     operationError,
	})
	return view, operationError
}

func (service *Service) setOrdered(ctx context.Context, identity Identity, productID ProductID, quantity int) (View, error) {
	if quantity < 0 {
		return View{}, ErrNegativeQuantity
	}

	// Always re-read; a cached view would widen the race window.
	view, err := service.readView(ctx, CurrentLedger(), identity)
	if err != nil {
		return View{}, err
	}

	product, ok := view.Products[productID]
	if !ok {
		return View{}, ErrProductNotFound
	}
	if product.Available != UnlimitedAvailable && quantity > product.Available {
		return View{}, QuantityNotAvailableError{Available: product.Available}
	}

	if view.UserRowIndex != NoUserRow {
		rowIndex := FirstUserRow + view.UserRowIndex
		if err := service.store.UpdateCell(ctx, service.openTitle, rowIndex, int(productID), grid.Number(float64(quantity))); err != nil {
			return View{}, err
		}
	} else {
		row := make([]grid.Value, int(productID)+1)
		for columnIndex := range row {
			row[columnIndex] = grid.Empty()
		}
		row[0] = grid.Text(identity.String())
		row[productID] = grid.Number(float64(quantity))
		if err := service.store.AppendRow(ctx, service.openTitle, FirstUserRow, row); err != nil {
			return View{}, err
		}
	}

	product.Ordered = quantity
	view.Products[productID] = product
	return view, nil
}

// UsersWithOrders returns the identities that hold a non-zero quantity of
// any product in the ledger named by ref.
func (service *Service) UsersWithOrders(ctx context.Context, ref LedgerRef) ([]string, error) {
	snapshot, operationError := service.readSnapshot(ctx, ref)
	var identities []string
	if operationError == nil {
		for rowOffset, identity := range snapshot.Identities() {
			if identity != "" && snapshot.HasAnyOrder(rowOffset) {
				identities = append(identities, identity)
			}
		}
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationUsersWithOrders,
		Ledger:    ref.Title(service.openTitle),
		Error:     operationError,
	})
	return identities, operationError
}

// HistoricalRef resolves a closed ledger id to a ref usable with
// GetForUser. Unknown or untagged ids return ErrLedgerNotFound.
func (service *Service) HistoricalRef(ctx context.Context, ledgerID int64) (LedgerRef, error) {
	title, err := service.resolver.ResolveLedger(ctx, ledgerID)
	if err != nil {
		return LedgerRef{}, err
	}
	return HistoricalLedger(title), nil
}

func (service *Service) readView(ctx context.Context, ref LedgerRef, identity Identity) (View, error) {
	snapshot, err := service.readSnapshot(ctx, ref)
	if err != nil {
		return View{}, err
	}
	return snapshot.ViewFor(identity)
}

func (service *Service) readSnapshot(ctx context.Context, ref LedgerRef) (*Snapshot, error) {
	columns, err := service.store.ReadSheet(ctx, ref.Title(service.openTitle), grid.DimensionColumns)
	if err != nil {
		if errors.Is(err, grid.ErrSheetNotFound) && ref.IsCurrent() {
			return nil, ErrOrdersNotOpen
		}
		return nil, err
	}
	return ParseSnapshot(columns)
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}
