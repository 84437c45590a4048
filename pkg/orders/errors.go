package orders

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the ordering core.
var (
	ErrOrdersNotOpen        = errors.New("orders not open")
	ErrNegativeQuantity     = errors.New("negative quantity")
	ErrProductNotFound      = errors.New("product not found")
	ErrQuantityNotAvailable = errors.New("quantity not available")
	ErrLedgerNotFound       = errors.New("ledger not found")
	ErrMalformedLedger      = errors.New("malformed ledger")
	ErrInvalidIdentity      = errors.New("invalid identity")
	ErrInvalidServiceConfig = errors.New("invalid service config")
)

// QuantityNotAvailableError rejects a mutation that would push a product
// past its limit. Available carries the ceiling the caller could still set
// their order to, so clients can self-correct.
type QuantityNotAvailableError struct {
	Available int
}

// Error returns the formatted error message.
func (quantityError QuantityNotAvailableError) Error() string {
	return fmt.Sprintf("%v: at most %d available", ErrQuantityNotAvailable, quantityError.Available)
}

// Is matches the ErrQuantityNotAvailable sentinel so callers can use
// errors.Is without losing the ceiling.
func (quantityError QuantityNotAvailableError) Is(target error) bool {
	return target == ErrQuantityNotAvailable
}
