package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	serverrun "github.com/ddorjelama/KeyUsageProfiler/internal/cmd/server"
	cfgpkg "github.com/ddorjelama/KeyUsageProfiler/internal/config"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

func main() {
	level := os.Getenv("KUP_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "kup",
		Short: "Keystroke pipeline CLI",
		Long:  "kup runs the keystroke ingestion, liveness, and fan-out pipeline.",
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the pipeline server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfgpkg.FromEnv(&cfg)

			// Flags win over file and env.
			if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
				cfg.DataDir = v
			}
			if v, _ := cmd.Flags().GetString("http"); v != "" {
				cfg.HTTPAddr = v
			}
			if v, _ := cmd.Flags().GetString("redis"); v != "" {
				cfg.Redis.Addr = v
			}
			if v, _ := cmd.Flags().GetString("postgres-dsn"); v != "" {
				cfg.Postgres.DSN = v
			}
			if v, _ := cmd.Flags().GetString("kafka-brokers"); v != "" {
				cfg.Kafka.Brokers = strings.Split(v, ",")
			}
			if v, _ := cmd.Flags().GetString("kafka-topic"); v != "" {
				cfg.Kafka.Topic = v
			}
			if v, _ := cmd.Flags().GetString("kafka-group"); v != "" {
				cfg.Kafka.GroupID = v
			}
			if v, _ := cmd.Flags().GetInt("liveness-window-sec"); v > 0 {
				cfg.LivenessWindowSec = v
			}
			if v, _ := cmd.Flags().GetInt("flush-interval-sec"); v > 0 {
				cfg.FlushIntervalSec = v
			}
			if v, _ := cmd.Flags().GetString("log-level"); v != "" {
				cfg.LogLevel = v
			}
			if v, _ := cmd.Flags().GetString("log-format"); v != "" {
				cfg.LogFormat = v
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	serverStartCmd.Flags().String("config", "", "path to JSON config file")
	serverStartCmd.Flags().String("data-dir", "", "data directory for the keystroke archive")
	serverStartCmd.Flags().String("http", "", "HTTP listen address")
	serverStartCmd.Flags().String("redis", "", "redis address")
	serverStartCmd.Flags().String("postgres-dsn", "", "postgres DSN for the directory (empty selects in-memory)")
	serverStartCmd.Flags().String("kafka-brokers", "", "comma-separated kafka brokers")
	serverStartCmd.Flags().String("kafka-topic", "", "inbound keystroke topic")
	serverStartCmd.Flags().String("kafka-group", "", "kafka consumer group id")
	serverStartCmd.Flags().Int("liveness-window-sec", 0, "sliding inactivity window in seconds")
	serverStartCmd.Flags().Int("flush-interval-sec", 0, "buffer flush cadence in seconds")
	serverStartCmd.Flags().String("log-level", "", "log level (debug|info|warn|error)")
	serverStartCmd.Flags().String("log-format", "", "log format (text|json)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
