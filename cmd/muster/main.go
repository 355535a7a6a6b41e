// Command muster marks attendance and manages the grid from a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"muster/pkg/api"
	"muster/pkg/app"
	"muster/pkg/attendance"
	"muster/pkg/config"
	"muster/pkg/grid"
	"muster/pkg/telemetry"
)

const maxBackoff = 60 * time.Second

var (
	verbose bool
	retries int

	// flushTracing is replaced by setupTracing once an exporter is running.
	flushTracing = func(context.Context) error { return nil }
)

func main() {
	err := newRootCmd().Execute()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if ferr := flushTracing(ctx); ferr != nil {
		log.WithError(ferr).Warn("flushing traces")
	}
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "muster",
		Short:         "Record attendance in a spreadsheet grid",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			log.SetFormatter(&log.TextFormatter{
				FullTimestamp: true,
			})
			return setupTracing(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	markCmd := &cobra.Command{
		Use:   "mark <identity>",
		Short: "Mark an identity present now",
		Args:  cobra.ExactArgs(1),
		RunE:  runMark,
	}
	markCmd.Flags().IntVar(&retries, "retries", 5, "Attempts when the grid is unavailable")

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "Show or change the grid marks are written to",
	}
	gridCmd.AddCommand(&cobra.Command{
		Use:   "set <id>",
		Short: "Point at a spreadsheet id or .xlsx path and save it",
		Args:  cobra.ExactArgs(1),
		RunE:  runGridSet,
	})
	gridCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the grid in use",
		Args:  cobra.NoArgs,
		RunE:  runGridShow,
	})

	rootCmd.AddCommand(markCmd, gridCmd)
	return rootCmd
}

func setupTracing(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	shutdown, err := telemetry.Setup(ctx, "muster", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	flushTracing = shutdown
	return nil
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), cfg)
}

func runMark(cmd *cobra.Command, args []string) error {
	identity := args[0]
	if !api.ValidIdentity(identity) {
		return fmt.Errorf("looks like %q isn't formatted correctly", identity)
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}

	var entry attendance.Entry
	err = withRetry(cmd.Context(), retries, time.Second, func(ctx context.Context) error {
		if err := a.Reopen(ctx); err != nil {
			return err
		}
		var markErr error
		entry, markErr = a.Recorder.Mark(ctx, identity)
		return markErr
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! Signed in at %s (%s)\n",
		api.DisplayName(entry.Identity), entry.Time, entry.Cell)
	return nil
}

func runGridSet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	if err := a.Recorder.SetGridID(cmd.Context(), args[0]); err != nil {
		return err
	}
	if err := a.Settings.SetGridID(a.Recorder.GridID()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), a.Recorder.GridID())
	return nil
}

func runGridShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	id := a.Recorder.GridID()
	if id == "" {
		if a.GridErr != nil {
			return fmt.Errorf("grid %q could not be opened: %w", a.GridID, a.GridErr)
		}
		return attendance.ErrNoGrid
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// withRetry runs fn until it succeeds, fails with something other than an
// unavailable grid, or attempts run out. The wait doubles from base up to
// maxBackoff.
func withRetry(ctx context.Context, attempts int, base time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, grid.ErrRemoteUnavailable) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * base
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		log.Warnf("Grid unavailable, retrying in %v...", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	log.Errorf("Giving up after %d attempts: %v", attempts, err)
	return err
}
