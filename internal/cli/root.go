package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/kafkaguard/internal/control"
	"github.com/vietddude/kafkaguard/internal/core/config"
	"github.com/vietddude/stylelog"
)

var (
	cfgPath     string
	isDebug     bool
	cooperative bool
)

var rootCmd = &cobra.Command{
	Use:   "kafkaguard",
	Short: "Kafka broker prober",
	Long:  `kafkaguard probes Kafka brokers with ApiVersions through a retrying client and records terminal failures.`,
	Run:   runWatch,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Probe brokers periodically and serve health and metrics",
	Run:   runWatch,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&cooperative, "cooperative", false, "run probes on the cooperative scheduler")
	rootCmd.AddCommand(watchCmd)
}

// loadConfig loads the configuration and installs the logger.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	if cooperative {
		cfg.Runtime.Cooperative = true
	}
	return cfg
}

func runWatch(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewGuard(cfg)
	if err != nil {
		slog.Error("Failed to initialize Guard", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start Guard", "error", err)
		os.Exit(1)
	}

	slog.Info("Guard started", "config", cfgPath, "port", cfg.Server.Port)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
