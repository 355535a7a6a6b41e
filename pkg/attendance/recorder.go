// Package attendance records check-ins: one row per identity, one column per
// day, the check-in time where they meet.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"muster/pkg/grid"
)

// TimeLayout renders check-in times, e.g. 09:30:00 AM.
const TimeLayout = "03:04:05 PM"

// ErrNoGrid is returned by Mark before any grid id has been configured.
var ErrNoGrid = errors.New("no grid configured")

// Opener connects to the grid named by id.
type Opener func(ctx context.Context, id string) (grid.Grid, error)

// Entry describes a committed check-in.
type Entry struct {
	Identity string
	Row      int
	Column   string
	Cell     string
	Date     string
	Time     string
}

type Recorder struct {
	// mu is held for reading during Mark and for writing while the grid is
	// swapped, so a grid change never lands mid-mark.
	mu     sync.RWMutex
	open   Opener
	gridID string
	grid   grid.Grid
	index  *grid.Index

	loc *time.Location
	now func() time.Time
}

type Option func(*Recorder)

// WithLocation sets the time zone used to pick today's column.
func WithLocation(loc *time.Location) Option {
	return func(r *Recorder) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder returns a Recorder for gridID. An empty gridID leaves the
// recorder unconfigured until SetGridID is called.
func NewRecorder(ctx context.Context, open Opener, gridID string, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		open: open,
		loc:  time.Local,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if gridID == "" {
		return r, nil
	}
	if err := r.SetGridID(ctx, gridID); err != nil {
		return nil, err
	}
	return r, nil
}

// Normalize case-folds an identity.
func Normalize(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// GridID returns the grid currently marked against.
func (r *Recorder) GridID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gridID
}

// SetGridID points the recorder at another grid and drops everything cached
// about the previous one. Setting the current id again only clears the cache.
// A replaced grid that holds resources (an open workbook) is closed.
func (r *Recorder) SetGridID(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("grid id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id == r.gridID && r.index != nil {
		r.index.Reset()
		log.WithField("grid", id).Debug("grid cache reset")
		return nil
	}
	g, err := r.open(ctx, id)
	if err != nil {
		return fmt.Errorf("open grid %q: %w", id, err)
	}
	if c, ok := r.grid.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.WithField("grid", r.gridID).WithError(err).Warn("closing previous grid")
		}
	}
	r.gridID = id
	r.grid = g
	r.index = grid.NewIndex(g)
	log.WithField("grid", id).Info("grid selected")
	return nil
}

// Mark records identity as present now. It ensures, in order, the header
// cell, the identity's row and today's column, then writes the time. A
// repeated mark on the same day overwrites the time. On error nothing past
// the returned MarkError's State was done, and Mark may simply be called again.
func (r *Recorder) Mark(ctx context.Context, identity string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id := Normalize(identity)
	entry := Entry{Identity: id}
	state := Uninitialized
	logger := log.WithFields(log.Fields{"identity": id, "grid": r.gridID})

	fail := func(err error) (Entry, error) {
		logger.WithField("state", state).WithError(err).Warn("mark failed")
		return entry, &MarkError{Identity: id, State: state, Err: err}
	}
	advance := func(next State) {
		state = next
		logger.WithField("state", state).Debug("mark step")
	}

	if id == "" {
		return fail(ErrInvalidIdentity)
	}
	if r.index == nil {
		return fail(ErrNoGrid)
	}

	// One clock reading for both date and time keeps them consistent across midnight.
	now := r.now().In(r.loc)
	entry.Date = now.Format(grid.DateLayout)
	entry.Time = now.Format(TimeLayout)

	if err := r.index.EnsureHeader(ctx); err != nil {
		return fail(err)
	}
	advance(HeaderEnsured)

	row, err := r.index.EnsureRow(ctx, id)
	if err != nil {
		return fail(err)
	}
	entry.Row = row
	advance(RowEnsured)

	col, err := r.index.EnsureColumn(ctx, now)
	if err != nil {
		return fail(err)
	}
	entry.Column = col
	entry.Cell = grid.CellName(col, row)
	advance(ColumnEnsured)

	if err := r.index.WriteCell(ctx, entry.Cell, entry.Time); err != nil {
		return fail(err)
	}
	advance(Written)

	stats := r.index.CacheStats()
	logger.WithFields(log.Fields{"hits": stats.Hits, "misses": stats.Misses}).Debug("grid cache")
	logger.WithFields(log.Fields{"cell": entry.Cell, "time": entry.Time}).Info("marked present")
	return entry, nil
}
