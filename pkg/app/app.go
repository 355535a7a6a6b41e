// Package app assembles a Recorder from configuration, shared by the HTTP
// server and the muster command.
package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"muster/pkg/attendance"
	"muster/pkg/backend"
	"muster/pkg/config"
	"muster/pkg/settings"
)

type App struct {
	Config   config.Config
	Settings *settings.Store
	Recorder *attendance.Recorder

	// GridID is the id chosen at startup; GridErr is why it could not be
	// opened, if it could not.
	GridID  string
	GridErr error
}

// Open loads settings and connects the recorder to the configured grid. A
// grid id saved in the settings file wins over MUSTER_GRID_ID. A grid that
// fails to open leaves the recorder unconfigured, with the cause in GridErr,
// so a new id can still be set.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	store, err := settings.Open(cfg.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}

	gridID := cfg.GridID
	if saved := store.Get().GridID; saved != "" {
		gridID = saved
	}
	if gridID == "" {
		log.Warn("no grid configured, marks will fail until one is set")
	}

	open := backend.NewOpener(backend.Options{
		SheetName:         cfg.SheetName,
		CredentialsFile:   cfg.CredentialsFile,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	rec, err := attendance.NewRecorder(ctx, open, "", attendance.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Settings: store, Recorder: rec, GridID: gridID}
	if err := a.Reopen(ctx); err != nil {
		log.WithField("grid", gridID).WithError(err).Warn("grid not opened, set another one to continue")
	}
	return a, nil
}

// Reopen retries opening the startup grid while the recorder has none.
func (a *App) Reopen(ctx context.Context) error {
	if a.Recorder.GridID() != "" {
		a.GridErr = nil
		return nil
	}
	if a.GridID == "" {
		return nil
	}
	a.GridErr = a.Recorder.SetGridID(ctx, a.GridID)
	return a.GridErr
}
