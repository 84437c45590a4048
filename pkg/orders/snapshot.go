package orders

import (
	"fmt"

	"github.com/MarkoPoloResearchLab/farmstand/pkg/grid"
	"github.com/shopspring/decimal"
)

// Semantic rows of a ledger grid. The layout is a compatibility contract
// with existing stored data and must not change.
const (
	rowNames  = 0
	rowPrices = 1
	rowImages = 2
	rowLimits = 3
	rowTotals = 4
	// FirstUserRow is the zero-based grid row of the first user order row.
	FirstUserRow = 5
)

// Snapshot is one ledger grid parsed into typed accessors. It is built
// once per read and is immutable; all index arithmetic against the
// semantic layout lives here.
type Snapshot struct {
	columns    [][]grid.Value
	identities []string
}

// ParseSnapshot wraps a columns-major grid read. The grid must contain the
// five header rows; anything shorter is a malformed ledger.
func ParseSnapshot(columns [][]grid.Value) (*Snapshot, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrMalformedLedger)
	}
	height := 0
	for _, column := range columns {
		if len(column) > height {
			height = len(column)
		}
	}
	if height < FirstUserRow {
		return nil, fmt.Errorf("%w: expected %d header rows, got %d", ErrMalformedLedger, FirstUserRow, height)
	}
	identityColumn := columns[0]
	identities := make([]string, 0)
	for rowIndex := FirstUserRow; rowIndex < len(identityColumn); rowIndex++ {
		identities = append(identities, identityColumn[rowIndex].String())
	}
	return &Snapshot{columns: columns, identities: identities}, nil
}

// UserRowIndex returns the zero-based offset of the identity within the
// user-row block, or NoUserRow. Identities compare exactly; normalization
// is the directory's job.
func (snapshot *Snapshot) UserRowIndex(identity Identity) int {
	for rowOffset, stored := range snapshot.identities {
		if stored == identity.String() {
			return rowOffset
		}
	}
	return NoUserRow
}

// ViewFor projects the snapshot for one identity. Products whose limit
// cell is blank or zero are hidden entirely. A limit below the unlimited
// sentinel, or a non-numeric limit, is authoring-time corruption and fails
// the whole read.
func (snapshot *Snapshot) ViewFor(identity Identity) (View, error) {
	userRowIndex := snapshot.UserRowIndex(identity)
	products := make(map[ProductID]Product)
	for columnIndex := 1; columnIndex < len(snapshot.columns); columnIndex++ {
		column := snapshot.columns[columnIndex]
		limitCell := cellAt(column, rowLimits)
		if limitCell.IsEmpty() {
			continue
		}
		limit, ok := limitCell.Int()
		if !ok {
			return View{}, fmt.Errorf("%w: product column %d has non-integer limit %q", ErrMalformedLedger, columnIndex, limitCell.String())
		}
		if limit == 0 {
			continue
		}
		if limit < UnlimitedAvailable {
			return View{}, fmt.Errorf("%w: product column %d has limit %d below the unlimited sentinel", ErrMalformedLedger, columnIndex, limit)
		}

		ordered := 0
		if userRowIndex != NoUserRow {
			ordered = quantityAt(column, FirstUserRow+userRowIndex)
		}

		available := UnlimitedAvailable
		if limit > 0 {
			// The limit minus the grid total is the additional quantity the
			// identity could order; adding back their current order turns it
			// into the total they could set their order to.
			available = limit - snapshot.totalOrdered(columnIndex) + ordered
		}

		products[ProductID(columnIndex)] = Product{
			Name:      cellAt(column, rowNames).String(),
			ImageURL:  cellAt(column, rowImages).String(),
			Price:     priceAt(column),
			Available: available,
			Ordered:   ordered,
		}
	}
	return View{Products: products, UserRowIndex: userRowIndex}, nil
}

// totalOrdered recomputes the ordered total for a product from the user
// rows. The totals row in the grid is advisory and never trusted.
func (snapshot *Snapshot) totalOrdered(columnIndex int) int {
	column := snapshot.columns[columnIndex]
	total := 0
	for rowIndex := FirstUserRow; rowIndex < len(column); rowIndex++ {
		total += quantityAt(column, rowIndex)
	}
	return total
}

// Identities returns the user identities in ledger row order, including
// blank cells for structural rows.
func (snapshot *Snapshot) Identities() []string {
	return append([]string(nil), snapshot.identities...)
}

// HasAnyOrder reports whether the user row at the given offset holds a
// non-zero quantity in any column.
func (snapshot *Snapshot) HasAnyOrder(rowOffset int) bool {
	for columnIndex := 1; columnIndex < len(snapshot.columns); columnIndex++ {
		if quantityAt(snapshot.columns[columnIndex], FirstUserRow+rowOffset) > 0 {
			return true
		}
	}
	return false
}

func cellAt(column []grid.Value, rowIndex int) grid.Value {
	if rowIndex < 0 || rowIndex >= len(column) {
		return grid.Empty()
	}
	return column[rowIndex]
}

// quantityAt reads an order quantity, treating blank and unreadable cells
// as zero. Quantity cells are member-entered and tolerated loosely.
func quantityAt(column []grid.Value, rowIndex int) int {
	quantity, ok := cellAt(column, rowIndex).IntOrZero()
	if !ok {
		return 0
	}
	return quantity
}

func priceAt(column []grid.Value) decimal.Decimal {
	cell := cellAt(column, rowPrices)
	if number, ok := cell.Float(); ok {
		return decimal.NewFromFloat(number)
	}
	if cell.IsEmpty() {
		return decimal.Zero
	}
	if parsed, err := decimal.NewFromString(cell.String()); err == nil {
		return parsed
	}
	return decimal.Zero
}
