// Package grid treats a spreadsheet as a sparse attendance table: identities
// down column A, dates across row 1, check-in times where they meet.
package grid

import "context"

// Grid is the remote store. Every call is synchronous and blocks until the
// backend answers; failures wrap ErrRemoteUnavailable. Implementations never
// retry.
type Grid interface {
	// ReadRow returns the first row of rng, trailing empty cells omitted.
	ReadRow(ctx context.Context, rng string) ([]interface{}, error)
	// ReadColumn returns the first column of rng, trailing empty cells omitted.
	ReadColumn(ctx context.Context, rng string) ([]interface{}, error)
	WriteCell(ctx context.Context, addr string, value interface{}) error
	// AppendRow writes value below the last used row of column A and reports
	// the 1-based row it landed on.
	AppendRow(ctx context.Context, value interface{}) (int, error)
}

const (
	HeaderLabel = "Email"
	HeaderCell  = "A1"

	FirstIdentityRow = 2
	LastIdentityRow  = 1000
	IdentityRange    = "A2:A1000"

	// DateRange skips A1, which always holds HeaderLabel.
	DateRange = "B1:Z1"

	// DateLayout renders header dates, e.g. 3/17/23.
	DateLayout = "1/2/06"
)

// Cell is a single cell value as last seen. Present is false for an empty cell.
type Cell struct {
	Value   string
	Present bool
}
