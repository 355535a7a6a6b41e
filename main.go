package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"muster/pkg/api"
	"muster/pkg/app"
	"muster/pkg/config"
	"muster/pkg/telemetry"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()
	if *verbose {
		// Set the log level to debug
		log.SetLevel(log.DebugLevel)
	}
	// Set the log format to include a leading timestamp in ISO8601 format
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, "muster", cfg.OTelEndpoint)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.WithError(err).Warn("flushing traces")
		}
	}()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open grid: %v", err)
	}

	handler := api.NewHandler(a.Recorder, a.Settings, cfg.RequestTimeout)
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           api.GetRouter(handler),
		ReadHeaderTimeout: 2 * time.Second,
	}
	go startServer(server)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	<-signalChan
	log.Info("Signalled, shutting down")
	sctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
}

func startServer(server *http.Server) {
	log.Infof("listening for HTTP on: %s", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("ListenAndServeError ", err)
	}
}
