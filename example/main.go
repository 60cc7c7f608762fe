package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"syscall"
	"time"

	keepalive "github.com/st-keller/keepalive-client"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting keep-alive example")

	// Stand-in for the local webgui server that shuts down when nobody pings it
	companion := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("companion received keep-alive", "path", r.URL.Path, "cache_control", r.Header.Get("Cache-Control"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"alive":true}`)
	}))
	defer companion.Close()

	client, err := keepalive.New(keepalive.Config{
		OriginURL: companion.URL + "/mythenquai?station=1",
		Interval:  2 * time.Second,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to create keep-alive client", "error", err)
		os.Exit(1)
	}

	// Arm once the "page" is ready, like a DOMContentLoaded handler would
	ready := make(chan struct{})
	time.AfterFunc(500*time.Millisecond, func() { close(ready) })

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.StartWhenReady(ctx, ready); err != nil {
		logger.Error("heartbeat never armed", "error", err)
		return
	}
	defer client.Stop()

	logger.Info("keep-alive running, press Ctrl+C to stop", "target", client.Target())
	<-ctx.Done()

	if snap, ok := client.Tracker().Snapshot(client.Target()); ok {
		logger.Info("keep-alive summary", "pings", snap.Total, "failures", snap.Failures, "status", snap.Status)
	}
	logger.Info("shutting down")
}
