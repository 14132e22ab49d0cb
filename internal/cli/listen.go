package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kgodden/udp-receive-rar/internal/config"
	"github.com/kgodden/udp-receive-rar/internal/logging"
	"github.com/kgodden/udp-receive-rar/internal/metrics"
	"github.com/kgodden/udp-receive-rar/internal/server"
	"github.com/kgodden/udp-receive-rar/receiver"
)

type listenFlags struct {
	configPath string
	address    string
	port       int
	mode       string
	interval   time.Duration
	count      int
}

func newListenCmd() *cobra.Command {
	var f listenFlags

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive datagrams and print them until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadListenConfig(cmd, f)
			if err != nil {
				return err
			}
			return runListen(cmd.Context(), cfg, f.count, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "path to YAML configuration file")
	cmd.Flags().StringVar(&f.address, "address", "", "IPv4 address to bind, overrides config")
	cmd.Flags().IntVar(&f.port, "port", 0, "UDP port to bind, overrides config")
	cmd.Flags().StringVar(&f.mode, "mode", "", "receive mode: blocking or polling, overrides config")
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "poll interval in polling mode, overrides config")
	cmd.Flags().IntVar(&f.count, "count", 0, "exit after this many datagrams, 0 for no limit")
	return cmd
}

// loadListenConfig loads the file, if any, and applies flag overrides.
func loadListenConfig(cmd *cobra.Command, f listenFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("address") {
		cfg.Receiver.BindAddress = f.address
	}
	if flags.Changed("port") {
		cfg.Receiver.Port = f.port
	}
	if flags.Changed("mode") {
		cfg.Receiver.Mode = f.mode
	}
	if flags.Changed("interval") {
		cfg.Receiver.PollIntervalMs = int(f.interval / time.Millisecond)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runListen(ctx context.Context, cfg *config.Config, count int, out io.Writer) error {
	logger, logCloser := logging.New(cfg.Logging)
	defer logCloser.Close()

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", version),
	)
	logger.Info("Configuration loaded",
		slog.String("udp_address", cfg.Receiver.Addr()),
		slog.String("mode", cfg.Receiver.Mode),
		slog.Duration("poll_interval", cfg.Receiver.GetPollInterval()),
		slog.Bool("http_enabled", cfg.HTTP.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)

	var (
		mu       sync.Mutex
		received int
		limitHit = make(chan struct{})
	)
	handler := func(data receiver.Datagram) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintln(out, formatDatagram(data))
		received++
		if count > 0 && received == count {
			close(limitHit)
		}
	}

	listener := server.NewListener(&cfg.Receiver, logger, appMetrics, handler)

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg, logger, listener, appMetrics, reg)
	}

	if err := listener.Start(); err != nil {
		logger.Error("Failed to start UDP listener", slog.String("error", err.Error()))
		return err
	}

	if httpServer != nil {
		if err := httpServer.Start(); err != nil {
			listener.Stop()
			return err
		}
	}

	logger.Info("Service started successfully, waiting for datagrams...",
		slog.String("udp_address", listener.LocalAddr().String()),
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case <-limitHit:
		logger.Info("Datagram count reached", slog.Int("count", count))
	case <-listener.Done():
		runErr = listener.Err()
	}

	logger.Info("Starting graceful shutdown...")

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := listener.Stop(); err != nil {
		logger.Error("Error stopping UDP listener", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
	return runErr
}

// formatDatagram renders printable UTF-8 payloads as text and anything else as hex.
func formatDatagram(data []byte) string {
	if utf8.Valid(data) {
		printable := true
		for _, r := range string(data) {
			if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
				printable = false
				break
			}
		}
		if printable {
			return string(data)
		}
	}
	return "hex:" + hex.EncodeToString(data)
}
