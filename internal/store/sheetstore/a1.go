package sheetstore

import "fmt"

const columnLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// columnName converts a zero-based column index to its A1-notation column
// letters (0 -> A, 25 -> Z, 26 -> AA).
func columnName(columnIndex int) string {
	index := columnIndex + 1
	name := ""
	for index > 0 {
		remainder := (index - 1) % 26
		name = string(columnLetters[remainder]) + name
		index = (index - remainder - 1) / 26
	}
	return name
}

// cellRange builds the A1 range for a single cell from zero-based indexes.
func cellRange(sheet string, rowIndex int, columnIndex int) string {
	return fmt.Sprintf("%s!%s%d", sheet, columnName(columnIndex), rowIndex+1)
}

// rowRange builds the A1 anchor for an append starting at the given
// zero-based row.
func rowRange(sheet string, rowIndex int) string {
	return fmt.Sprintf("%s!A%d", sheet, rowIndex+1)
}
