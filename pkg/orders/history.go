package orders

import (
	"context"
	"fmt"
	"time"
)

// ListPastOrders returns the closed ledgers the identity participated in.
// The result is unsorted; presentation order is the caller's concern.
func (service *Service) ListPastOrders(ctx context.Context, identity Identity) ([]PastOrder, error) {
	pastOrders, operationError := service.listPastOrders(ctx, identity)
	service.logOperation(ctx, OperationLog{
		Operation: operationListPastOrders,
		Identity:  identity,
		Error:     operationError,
	})
	return pastOrders, operationError
}

func (service *Service) listPastOrders(ctx context.Context, identity Identity) ([]PastOrder, error) {
	candidates, err := service.history.ListClosedLedgers(ctx)
	if err != nil {
		return nil, err
	}

	// The marker should never be on the open ledger, but do not assume
	// storage upholds that.
	closed := make([]ClosedLedger, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Title == service.openTitle {
			continue
		}
		closed = append(closed, candidate)
	}
	if len(closed) == 0 {
		return []PastOrder{}, nil
	}

	closedAt := make(map[int64]time.Time, len(closed))
	ledgerIDs := make([]int64, 0, len(closed))
	for _, candidate := range closed {
		parsed, parseErr := time.Parse(time.RFC3339, candidate.ClosedAt)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: ledger %d has unparseable closed marker %q", ErrMalformedLedger, candidate.ID, candidate.ClosedAt)
		}
		closedAt[candidate.ID] = parsed
		ledgerIDs = append(ledgerIDs, candidate.ID)
	}

	identityColumns, err := service.history.ReadIdentityColumns(ctx, ledgerIDs)
	if err != nil {
		return nil, err
	}

	pastOrders := []PastOrder{}
	for _, ledgerID := range ledgerIDs {
		// A ledger whose column came back empty just means the identity
		// never ordered there.
		if !containsIdentity(identityColumns[ledgerID], identity) {
			continue
		}
		pastOrders = append(pastOrders, PastOrder{ID: ledgerID, Date: closedAt[ledgerID]})
	}
	return pastOrders, nil
}

func containsIdentity(column []string, identity Identity) bool {
	for _, stored := range column {
		if stored == identity.String() {
			return true
		}
	}
	return false
}
