package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

type dimension string

const (
	dimensionRows    dimension = "ROWS"
	dimensionColumns dimension = "COLUMNS"
)

// RAW keeps dates and times as the exact strings written, so a header read
// back compares equal to the one computed locally.
const valueInputOption = "RAW"

// appendRange is where new identities go; Sheets appends below the table it
// finds in column A.
const appendRange = "A:A"

// rowFromRange extracts the first row number from an A1 range such as
// "Roster!A7" or "'Sign in'!A7:A7".
func rowFromRange(rng string) (int, error) {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	if i := strings.Index(rng, ":"); i >= 0 {
		rng = rng[:i]
	}
	digits := strings.TrimLeft(rng, "ABCDEFGHIJKLMNOPQRSTUVWXYZ$")
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return 0, fmt.Errorf("no row in range %q", rng)
	}
	return row, nil
}
