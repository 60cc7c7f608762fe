// Package bootstrap wires configuration, logging, transport and metrics into a running heartbeat.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	keepalive "github.com/st-keller/keepalive-client"
	"github.com/st-keller/keepalive-client/config"
	"github.com/st-keller/keepalive-client/standard"
	"github.com/st-keller/keepalive-client/transport"
)

const shutdownTimeout = 5 * time.Second

// InitLogger installs a JSON slog handler on w as the default logger.
func InitLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// Deps holds the pieces Run assembles. Zero values are filled in by Run.
type Deps struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	// Listener overrides MetricsAddr (useful for tests).
	Listener net.Listener
	// Started, if set, receives the client once it is armed.
	Started func(*keepalive.Client)
}

// NewClient builds an unarmed keep-alive client from cfg.
func NewClient(cfg config.Config, logger *slog.Logger, metrics *standard.Metrics) (*keepalive.Client, error) {
	httpClient, err := transport.BuildHTTPClient(transport.Options{
		CertPath: cfg.TLS.CertPath,
		KeyPath:  cfg.TLS.KeyPath,
		CAPath:   cfg.TLS.CAPath,
	})
	if err != nil {
		return nil, fmt.Errorf("build http client: %w", err)
	}

	return keepalive.New(keepalive.Config{
		OriginURL:  cfg.Origin,
		Path:       cfg.Path,
		Interval:   cfg.Interval,
		HTTPClient: httpClient,
		Logger:     logger,
		Metrics:    metrics,
	})
}

// Run arms the heartbeat and blocks until ctx is done, serving /metrics if configured.
func Run(ctx context.Context, deps Deps) error {
	cfg := deps.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	metrics, err := standard.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	client, err := NewClient(cfg, logger, metrics)
	if err != nil {
		return err
	}
	if err := client.Start(); err != nil {
		return fmt.Errorf("start heartbeat: %w", err)
	}
	if deps.Started != nil {
		deps.Started(client)
	}

	g, gctx := errgroup.WithContext(ctx)

	ln := deps.Listener
	if ln == nil && cfg.MetricsAddr != "" {
		ln, err = net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			client.Stop()
			return fmt.Errorf("listen metrics %s: %w", cfg.MetricsAddr, err)
		}
	}

	if ln != nil {
		srv := newMetricsServer(reg, client)
		g.Go(func() error {
			logger.InfoContext(gctx, "serving metrics", "addr", ln.Addr().String())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		client.Stop()
		client.Wait()
		return nil
	})

	logger.InfoContext(ctx, "keep-alive running", "target", client.Target(), "interval", client.Interval().String())

	err = g.Wait()
	logger.InfoContext(context.Background(), "keep-alive shut down")
	return err
}

func newMetricsServer(reg *prometheus.Registry, client *keepalive.Client) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		writeStatus(w, client)
	})
	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
