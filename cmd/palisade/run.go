package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"palisade-hq/palisade/pkg/cli"
	"palisade-hq/palisade/pkg/config"
	"palisade-hq/palisade/pkg/gate"
	"palisade-hq/palisade/pkg/limits/ratelimit"
	"palisade-hq/palisade/pkg/moderation"
	"palisade-hq/palisade/pkg/server"
	"palisade-hq/palisade/pkg/telemetry/health"
	"palisade-hq/palisade/pkg/telemetry/logging"
	"palisade-hq/palisade/pkg/telemetry/metrics"
	"palisade-hq/palisade/pkg/usage"
	"palisade-hq/palisade/pkg/usage/recorder"
	"palisade-hq/palisade/pkg/usage/retention"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Palisade gateway",
	Long: `Start the Palisade gateway with the specified configuration.

The server authenticates moderation requests with API keys, enforces
per-key rate limits, forwards admitted requests to the moderation
backend, and appends a request log record for every decision.

Examples:
  # Start with default config
  palisade run

  # Start with custom config
  palisade run --config /etc/palisade/config.yaml

  # Override listen address
  palisade run --listen 0.0.0.0:8080

  # Validate config without starting server
  palisade run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

// instrumentedRecorder counts dropped request log records. Recording
// failures are still reported to the gate, which logs and swallows them.
type instrumentedRecorder struct {
	recorder *recorder.Recorder
	metrics  *metrics.Metrics
}

func (r *instrumentedRecorder) Record(ctx context.Context, record *usage.Record) error {
	err := r.recorder.Record(ctx, record)
	if err != nil && r.metrics != nil {
		r.metrics.RecordDroppedRecord()
	}
	return err
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(cfg.Telemetry.Logging, os.Stdout); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Palisade v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	// Credential store
	keyStore, err := openKeyStore(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer keyStore.Close()
	fmt.Printf("✓ Credential store initialized (%s)\n", cfg.Keys.Backend)

	// Request log storage, recorder, and retention
	usageStore, err := openUsageStorage(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer usageStore.Close()

	usageRecorder := recorder.NewRecorder(usageStore, &recorder.Config{
		Enabled:      cfg.Usage.Enabled,
		AsyncBuffer:  cfg.Usage.AsyncBuffer,
		WriteTimeout: cfg.Usage.WriteTimeout,
	})
	defer usageRecorder.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pruner *retention.Pruner
	if cfg.Usage.Enabled && cfg.Usage.Retention.Schedule != "" {
		pruner = retention.NewPruner(usageStore, &retention.Config{
			RetentionDays: cfg.Usage.Retention.Days,
			PruneSchedule: cfg.Usage.Retention.Schedule,
			MaxRecords:    cfg.Usage.Retention.MaxRecords,
		})
		if err := pruner.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				slog.Debug("retention scheduler started", "next_pruning", next)
			}
		}
	}
	fmt.Printf("✓ Request log initialized (%s)\n", cfg.Usage.Backend)

	// Metrics
	var m *metrics.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		m = metrics.New()
	}

	// Rate limiter and gate
	limiter := ratelimit.NewFixedWindow(ratelimit.Config{
		RequestsPerMinute: cfg.Limits.RequestsPerMinute,
		Window:            time.Minute,
	})
	requestGate := gate.New(keyStore, limiter, &instrumentedRecorder{
		recorder: usageRecorder,
		metrics:  m,
	})

	// Moderation backend client
	backend := moderation.NewClient(&moderation.Config{
		BaseURL:     cfg.Moderation.BaseURL,
		APIKey:      cfg.Moderation.APIKey,
		VisionModel: cfg.Moderation.VisionModel,
		Timeout:     cfg.Moderation.Timeout,
		MaxRetries:  cfg.Moderation.MaxRetries,
	})

	// Health checks
	checker := health.New(0)
	checker.Register("keys", func(ctx context.Context) error {
		_, err := keyStore.List(ctx)
		return err
	})
	checker.Register("usage", func(ctx context.Context) error {
		_, err := usageStore.Count(ctx, &usage.Query{Limit: 1})
		return err
	})

	srv, err := server.New(server.Options{
		Config:    cfg,
		Gate:      requestGate,
		Keys:      keyStore,
		Usage:     usageStore,
		Backend:   backend,
		Metrics:   m,
		Health:    checker,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	// Configuration hot reload: rate limit changes apply to the running
	// limiter, everything else takes effect on restart.
	watcher, err := config.NewWatcher(cfgFile)
	if err != nil {
		slog.Warn("configuration watcher unavailable", "error", err)
	} else {
		go func() {
			err := watcher.Watch(ctx, func() error {
				if err := config.ReloadConfig(cfgFile); err != nil {
					return err
				}
				reloaded := config.GetConfig()
				limiter.SetLimit(reloaded.Limits.RequestsPerMinute)
				slog.Info("configuration reloaded",
					"requests_per_minute", reloaded.Limits.RequestsPerMinute,
				)
				return nil
			})
			if err != nil {
				slog.Error("configuration watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Server stopped")
		return nil
	}
}
