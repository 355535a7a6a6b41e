package grid

import (
	"fmt"
	"strconv"
)

// MaxColumns is the number of single-letter columns, A through Z. Column A
// holds identities, so at most MaxColumns-1 dates fit in one grid.
const MaxColumns = 26

// ColumnToLetter maps a 0-based column index to its letter: 0 is A (the
// identity column), 1 is B (the first date). Indexes past Z report
// ErrCapacityExceeded; there is no multi-letter addressing.
func ColumnToLetter(index int) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("column index %d is negative", index)
	}
	if index >= MaxColumns {
		return "", fmt.Errorf("column index %d past Z: %w", index, ErrCapacityExceeded)
	}
	return string(rune('A' + index)), nil
}

// LetterToColumn is the inverse of ColumnToLetter.
func LetterToColumn(letter string) (int, error) {
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return 0, fmt.Errorf("invalid column letter %q", letter)
	}
	return int(letter[0] - 'A'), nil
}

// CellName joins a column letter and a 1-based row, e.g. ("B", 2) -> "B2".
func CellName(column string, row int) string {
	return column + strconv.Itoa(row)
}
