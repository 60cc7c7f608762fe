package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/st-keller/keepalive-client/config"
	"github.com/st-keller/keepalive-client/internal/bootstrap"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [origin]",
		Short: "Ping the keep-alive endpoint until interrupted",
		Long: `
Ping the keep-alive endpoint every interval until SIGINT or SIGTERM.

Flags override KEEPALIVE_* environment variables, which override .env.

keepalive run http://localhost:5000
keepalive run --interval 5s --metrics-addr 127.0.0.1:9091 http://localhost:5000/home
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applyOverrides(cmd, args, &cfg); err != nil {
				return err
			}
			cfg.Sanitize()
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := bootstrap.InitLogger(os.Stdout, cfg.LogLevel.Level())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := bootstrap.Run(ctx, bootstrap.Deps{Config: cfg, Logger: logger}); err != nil {
				logger.ErrorContext(ctx, "fatal error", "error", err)
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Duration("interval", 0, "time between pings (default from KEEPALIVE_INTERVAL or 15s)")
	flags.String("path", "", "keep-alive route (default from KEEPALIVE_PATH or /flaskwebgui-keep-server-alive)")
	flags.String("metrics-addr", "", "serve /metrics and /status on this address")
	flags.String("log-level", "", "debug, info, warn or error")

	return cmd
}

// applyOverrides layers the positional origin and explicitly set flags over cfg.
func applyOverrides(cmd *cobra.Command, args []string, cfg *config.Config) error {
	if len(args) == 1 {
		cfg.Origin = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("interval") {
		v, err := flags.GetDuration("interval")
		if err != nil {
			return err
		}
		cfg.Interval = v
	}
	if flags.Changed("path") {
		v, err := flags.GetString("path")
		if err != nil {
			return err
		}
		cfg.Path = v
	}
	if flags.Changed("metrics-addr") {
		v, err := flags.GetString("metrics-addr")
		if err != nil {
			return err
		}
		cfg.MetricsAddr = v
	}
	if flags.Changed("log-level") {
		v, err := flags.GetString("log-level")
		if err != nil {
			return err
		}
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return err
		}
	}
	return nil
}
