package grid

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"muster/pkg/cache"
)

// Index resolves identities to rows and dates to columns, growing the grid
// when a key is unseen. Reads go through the caches; appends update them so
// later lookups in the same session skip the remote read.
type Index struct {
	grid   Grid
	cells  *cache.Cache[Cell]
	ranges *cache.Cache[[]string]

	// appendMu serializes check-then-append so one process never appends the
	// same identity or date twice.
	appendMu sync.Mutex
}

func NewIndex(g Grid) *Index {
	return &Index{
		grid:   g,
		cells:  cache.New[Cell](),
		ranges: cache.New[[]string](),
	}
}

// Reset forgets everything cached about the grid.
func (idx *Index) Reset() {
	idx.cells.Reset()
	idx.ranges.Reset()
}

// CacheStats sums hits and misses of the cell and range caches.
func (idx *Index) CacheStats() cache.Stats {
	c, r := idx.cells.Stats(), idx.ranges.Stats()
	return cache.Stats{Hits: c.Hits + r.Hits, Misses: c.Misses + r.Misses}
}

// Header returns A1.
func (idx *Index) Header(ctx context.Context) (Cell, error) {
	return idx.cells.GetOrLoad(HeaderCell, func() (Cell, error) {
		vals, err := idx.grid.ReadRow(ctx, HeaderCell)
		if err != nil {
			return Cell{}, err
		}
		if len(vals) == 0 {
			return Cell{}, nil
		}
		s := cellString(vals[0])
		return Cell{Value: s, Present: s != ""}, nil
	})
}

// EnsureHeader writes HeaderLabel into A1 unless it is already there.
func (idx *Index) EnsureHeader(ctx context.Context) error {
	h, err := idx.Header(ctx)
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if h.Present && h.Value == HeaderLabel {
		return nil
	}
	log.WithField("found", h.Value).Debug("writing grid header")
	if err := idx.grid.WriteCell(ctx, HeaderCell, HeaderLabel); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	idx.cells.Put(HeaderCell, Cell{Value: HeaderLabel, Present: true})
	return nil
}

// Identities returns column A from row 2 down, in row order.
func (idx *Index) Identities(ctx context.Context) ([]string, error) {
	return idx.ranges.GetOrLoad(IdentityRange, func() ([]string, error) {
		vals, err := idx.grid.ReadColumn(ctx, IdentityRange)
		if err != nil {
			return nil, err
		}
		return cellStrings(vals), nil
	})
}

// RowFor returns the row holding identity, if any.
func (idx *Index) RowFor(ctx context.Context, identity string) (int, bool, error) {
	ids, err := idx.Identities(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("read identities: %w", err)
	}
	row, ok := rowOf(ids, identity)
	return row, ok, nil
}

// EnsureRow returns the row for identity, appending one when it is new.
func (idx *Index) EnsureRow(ctx context.Context, identity string) (int, error) {
	idx.appendMu.Lock()
	defer idx.appendMu.Unlock()

	ids, err := idx.Identities(ctx)
	if err != nil {
		return 0, fmt.Errorf("read identities: %w", err)
	}
	if row, ok := rowOf(ids, identity); ok {
		return row, nil
	}

	want := len(ids) + FirstIdentityRow
	if want > LastIdentityRow {
		return 0, fmt.Errorf("no row left for %q: %w", identity, ErrCapacityExceeded)
	}
	row, err := idx.grid.AppendRow(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("append identity %q: %w", identity, err)
	}
	if row != want {
		idx.ranges.Delete(IdentityRange)
		return 0, fmt.Errorf("identity %q landed on row %d, expected %d: %w", identity, row, want, ErrMalformedGridState)
	}

	updated := append(append(make([]string, 0, len(ids)+1), ids...), identity)
	idx.ranges.Put(IdentityRange, updated)
	log.WithFields(log.Fields{"identity": identity, "row": row}).Debug("appended identity row")
	return row, nil
}

// Dates returns the header dates from column B rightwards.
func (idx *Index) Dates(ctx context.Context) ([]string, error) {
	return idx.ranges.GetOrLoad(DateRange, func() ([]string, error) {
		vals, err := idx.grid.ReadRow(ctx, DateRange)
		if err != nil {
			return nil, err
		}
		return cellStrings(vals), nil
	})
}

// ColumnFor returns the column letter whose header is date, if any.
func (idx *Index) ColumnFor(ctx context.Context, date string) (string, bool, error) {
	dates, err := idx.Dates(ctx)
	if err != nil {
		return "", false, fmt.Errorf("read dates: %w", err)
	}
	i := indexOf(dates, date)
	if i < 0 {
		return "", false, nil
	}
	letter, err := ColumnToLetter(i + 1)
	if err != nil {
		return "", false, err
	}
	return letter, true, nil
}

// EnsureColumn returns the column for day, appending a header cell right of
// the last one when day is new. Dates must arrive in chronological order.
func (idx *Index) EnsureColumn(ctx context.Context, day time.Time) (string, error) {
	idx.appendMu.Lock()
	defer idx.appendMu.Unlock()

	date := day.Format(DateLayout)
	dates, err := idx.Dates(ctx)
	if err != nil {
		return "", fmt.Errorf("read dates: %w", err)
	}
	if i := indexOf(dates, date); i >= 0 {
		return ColumnToLetter(i + 1)
	}
	if err := checkHeaderOrder(dates, day); err != nil {
		return "", err
	}

	letter, err := ColumnToLetter(len(dates) + 1)
	if err != nil {
		return "", fmt.Errorf("no column left for %s: %w", date, err)
	}
	if err := idx.grid.WriteCell(ctx, CellName(letter, 1), date); err != nil {
		return "", fmt.Errorf("append date %s: %w", date, err)
	}

	updated := append(append(make([]string, 0, len(dates)+1), dates...), date)
	idx.ranges.Put(DateRange, updated)
	log.WithFields(log.Fields{"date": date, "column": letter}).Debug("appended date column")
	return letter, nil
}

// WriteCell writes value at addr and caches it.
func (idx *Index) WriteCell(ctx context.Context, addr, value string) error {
	if err := idx.grid.WriteCell(ctx, addr, value); err != nil {
		return fmt.Errorf("write %s: %w", addr, err)
	}
	idx.cells.Put(addr, Cell{Value: value, Present: value != ""})
	return nil
}

// checkHeaderOrder verifies the header has no gaps and that its last date is
// strictly before day, so appending day keeps the row chronological.
func checkHeaderOrder(dates []string, day time.Time) error {
	for i, d := range dates {
		if d == "" {
			letter, _ := ColumnToLetter(i + 1)
			return fmt.Errorf("empty header cell %s1 before last date: %w", letter, ErrMalformedGridState)
		}
	}
	if len(dates) == 0 {
		return nil
	}
	last := dates[len(dates)-1]
	prev, err := time.ParseInLocation(DateLayout, last, day.Location())
	if err != nil {
		return fmt.Errorf("last header %q is not a date: %w", last, ErrMalformedGridState)
	}
	today := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	if !prev.Before(today) {
		return fmt.Errorf("last header %s is not before %s: %w", last, day.Format(DateLayout), ErrMalformedGridState)
	}
	return nil
}

func rowOf(ids []string, identity string) (int, bool) {
	for i, id := range ids {
		if strings.EqualFold(strings.TrimSpace(id), identity) {
			return i + FirstIdentityRow, true
		}
	}
	return 0, false
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if strings.TrimSpace(v) == want {
			return i
		}
	}
	return -1
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func cellStrings(vals []interface{}) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = cellString(v)
	}
	return out
}
