package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductID identifies a product within one ledger. It is the product's
// column index (the identity column is 0, so ids start at 1) and stays
// stable for the lifetime of the ledger even when products are hidden.
type ProductID int

// Identity is the key a member is known by throughout the ledger and the
// directory (an email address).
type Identity struct {
	value string
}

// NewIdentity validates and normalizes an identity.
func NewIdentity(raw string) (Identity, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Identity{}, fmt.Errorf("%w: empty value", ErrInvalidIdentity)
	}
	return Identity{value: trimmed}, nil
}

// String returns the normalized identity.
func (identity Identity) String() string {
	return identity.value
}

// LedgerRef names the ledger a call operates on: the single open ledger or
// a historical one addressed by its sheet title. Passing the ref explicitly
// replaces the implicit "sheet named Orders" convention.
type LedgerRef struct {
	title   string
	current bool
}

// CurrentLedger refers to the week currently accepting orders.
func CurrentLedger() LedgerRef {
	return LedgerRef{current: true}
}

// HistoricalLedger refers to a closed week by its sheet title.
func HistoricalLedger(title string) LedgerRef {
	return LedgerRef{title: title}
}

// IsCurrent reports whether the ref addresses the open ledger.
func (ref LedgerRef) IsCurrent() bool {
	return ref.current
}

// Title resolves the sheet title for the ref given the configured open
// ledger title.
func (ref LedgerRef) Title(openTitle string) string {
	if ref.current {
		return openTitle
	}
	return ref.title
}

// Product is one product as seen by a particular identity.
type Product struct {
	Name     string
	ImageURL string
	Price    decimal.Decimal
	// Available is the total quantity this identity could set their own
	// order to without exceeding the limit, or UnlimitedAvailable when the
	// product carries no limit.
	Available int
	// Ordered is the quantity this identity currently holds.
	Ordered int
}

// UnlimitedAvailable is the sentinel Available value for products without
// a limit.
const UnlimitedAvailable = -1

// View is the per-identity projection of one ledger.
type View struct {
	// Products maps product id to the identity's view of the product.
	// Hidden products (limit blank or zero) never appear.
	Products map[ProductID]Product
	// UserRowIndex is the zero-based offset of the identity's row within
	// the user-row block, or NoUserRow when the identity has not ordered
	// yet.
	UserRowIndex int
}

// NoUserRow marks an identity with no row in the ledger.
const NoUserRow = -1

// PastOrder identifies a closed ledger an identity participated in.
type PastOrder struct {
	ID   int64
	Date time.Time
}

// ClosedLedger is a candidate historical ledger as reported by storage:
// the stable sheet id, the sheet title, and the closure marker value (an
// RFC 3339 timestamp recorded when the week closed).
type ClosedLedger struct {
	ID       int64
	Title    string
	ClosedAt string
}

// History lists closed ledgers and reads their identity columns. Both
// calls are read-only; ReadIdentityColumns must restrict itself to the
// user-row region (header rows skipped) and is issued as one batch.
type History interface {
	ListClosedLedgers(ctx context.Context) ([]ClosedLedger, error)
	ReadIdentityColumns(ctx context.Context, ledgerIDs []int64) (map[int64][]string, error)
}

// LedgerResolver resolves a closed ledger's stable id to its sheet title,
// verifying the closed-ledger marker. Unknown or untagged ids return
// ErrLedgerNotFound.
type LedgerResolver interface {
	ResolveLedger(ctx context.Context, ledgerID int64) (string, error)
}
