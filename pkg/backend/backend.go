// Package backend opens the grid a grid id names: a path ending in .xlsx is
// a local workbook, anything else a Google spreadsheet id.
package backend

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"muster/pkg/attendance"
	"muster/pkg/grid"
	"muster/pkg/sheets"
	"muster/pkg/workbook"
)

type Options struct {
	SheetName       string
	CredentialsFile string
	// RequestsPerMinute paces Sheets calls; zero disables pacing.
	RequestsPerMinute int
	// ClientOptions are passed to the Sheets service, e.g. a test endpoint.
	ClientOptions []option.ClientOption
}

// NewOpener returns an attendance.Opener. The Sheets service is only
// created the first time a spreadsheet is opened, so workbook-only kiosks
// need no Google credentials.
func NewOpener(opts Options) attendance.Opener {
	var (
		mu      sync.Mutex
		service *gsheets.Service
	)
	limiter := newLimiter(opts.RequestsPerMinute)

	return func(ctx context.Context, id string) (grid.Grid, error) {
		if workbook.IsWorkbookPath(id) {
			return workbook.Open(id, opts.SheetName)
		}

		mu.Lock()
		if service == nil {
			srv, err := sheets.NewService(ctx, opts.CredentialsFile, opts.ClientOptions...)
			if err != nil {
				mu.Unlock()
				return nil, err
			}
			service = srv
		}
		srv := service
		mu.Unlock()

		client := sheets.NewSheetClient(srv, id, opts.SheetName, limiter)
		if err := client.EnsureSheetExists(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	burst := perMinute
	if burst > 10 {
		burst = 10
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}
