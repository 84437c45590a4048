package grid

import (
	"fmt"
	"math"
)

// Value is one loosely typed grid cell: a string, a number, or empty.
// Spreadsheet reads surface cells as untyped JSON values; Value wraps the
// raw cell once so the rest of the code goes through typed accessors
// instead of repeated type switches.
type Value struct {
	raw any
}

// Empty returns the empty cell.
func Empty() Value {
	return Value{}
}

// Text wraps a string cell.
func Text(value string) Value {
	return Value{raw: value}
}

// Number wraps a numeric cell.
func Number(value float64) Value {
	return Value{raw: value}
}

// FromRaw wraps a raw cell as returned by a storage adapter. Integer types
// are widened to float64 so every numeric cell behaves the same.
func FromRaw(raw any) Value {
	switch typed := raw.(type) {
	case nil:
		return Value{}
	case string:
		if typed == "" {
			return Value{}
		}
		return Value{raw: typed}
	case float64:
		return Value{raw: typed}
	case float32:
		return Value{raw: float64(typed)}
	case int:
		return Value{raw: float64(typed)}
	case int64:
		return Value{raw: float64(typed)}
	default:
		return Value{raw: fmt.Sprintf("%v", typed)}
	}
}

// IsEmpty reports whether the cell is blank.
func (value Value) IsEmpty() bool {
	return value.raw == nil
}

// String returns the cell as text. Numeric cells format with %v; empty
// cells return "".
func (value Value) String() string {
	switch typed := value.raw.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprintf("%v", typed)
	}
}

// Float returns the numeric cell value. The second return is false for
// empty and textual cells.
func (value Value) Float() (float64, bool) {
	number, ok := value.raw.(float64)
	return number, ok
}

// Int returns the cell as an integer. Non-integral numbers report false.
func (value Value) Int() (int, bool) {
	number, ok := value.raw.(float64)
	if !ok {
		return 0, false
	}
	rounded := math.Round(number)
	if rounded != number {
		return 0, false
	}
	return int(rounded), true
}

// IntOrZero reads the cell as an integer, treating blank as zero. The
// second return is false only for cells that hold something other than a
// whole number.
func (value Value) IntOrZero() (int, bool) {
	if value.IsEmpty() {
		return 0, true
	}
	return value.Int()
}

// Raw exposes the underlying cell for adapters that marshal values back to
// their wire format. Empty cells return nil.
func (value Value) Raw() any {
	return value.raw
}
