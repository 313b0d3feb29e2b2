package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	litepcie "github.com/kevmo314/go-litepcie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath  string
	controlPath string
	verbose     bool
	metricsAddr string

	// Shared connection, opened before every subcommand
	conn          *litepcie.Connection
	metricsServer *http.Server
)

var (
	okFmt   = color.New(color.FgGreen).SprintFunc()
	warnFmt = color.New(color.FgYellow).SprintFunc()
	errFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
	dimFmt  = color.New(color.Faint).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "litepcie",
	Short: "Talk to a LitePCIe SDR board",
	Long: `litepcie drives the control and streaming endpoints of an FPGA radio
attached over PCIe through the LitePCIe driver.

It can send raw control commands, capture samples from one or more
endpoints, transmit a file to an endpoint and reset the DMA engine.`,
	Version:      litepcie.Version(),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Logger = logger

		if metricsAddr != "" {
			reg := prometheus.NewRegistry()
			cfg.Metrics = litepcie.NewMetrics(reg)
			metricsServer = serveMetrics(metricsAddr, reg, logger)
		}

		conn, err = litepcie.Open(cfg)
		if err != nil {
			return fmt.Errorf("failed to open connection: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if conn != nil {
			conn.Close()
		}
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			metricsServer.Shutdown(ctx)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default: built-in device paths)")
	rootCmd.PersistentFlags().StringVar(&controlPath, "control", "", "Control device path, overrides the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log DMA state changes")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
}

func loadConfig() (litepcie.Config, error) {
	cfg := litepcie.DefaultConfig()
	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config: %w", err)
		}
		defer f.Close()
		cfg, err = litepcie.LoadConfig(f)
		if err != nil {
			return cfg, err
		}
	}
	if controlPath != "" {
		cfg.ControlPath = controlPath
	}
	return cfg, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	return srv
}

// requireControl fails commands that need the control device.
func requireControl() error {
	if !conn.IsOpen() {
		return fmt.Errorf("control device: %w", litepcie.ErrNotConnected)
	}
	return nil
}
