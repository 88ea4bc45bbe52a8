// Package main is the entry point for the string calculator.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/string-calculator/pkg/api"
	grpcapi "github.com/lemonberrylabs/string-calculator/pkg/api/grpc"
	"github.com/lemonberrylabs/string-calculator/web"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errFailed signals a non-zero exit after the command already reported why.
var errFailed = errors.New("one or more expressions failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "string-calculator",
		Short:         "Arithmetic expression calculator with REST, gRPC and web front ends",
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
	}
	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("string-calculator version {{.Version}}\n")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default info, env LOG_LEVEL)")
	addServeFlags(root)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP, gRPC and web UI servers",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addServeFlags(serve)

	root.AddCommand(serve, newEvalCmd(), newCheckCmd(), newBatchCmd())
	return root
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("port", 0, "HTTP server port (default 8080, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8081, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().String("sheets-dir", "", "Directory of expression sheets to preload (env SHEETS_DIR)")
	cmd.Flags().Int("max-length", 0, "Maximum accepted expression length (default 1000, env MAX_EXPRESSION_LENGTH)")
}

type config struct {
	Host      string
	Port      string
	GRPCPort  string
	SheetsDir string
	MaxLength int
}

func (c config) addr() string     { return fmt.Sprintf("%s:%s", c.Host, c.Port) }
func (c config) grpcAddr() string { return fmt.Sprintf("%s:%s", c.Host, c.GRPCPort) }

// loadConfig resolves serve settings. A flag beats its environment
// variable, which beats the default.
func loadConfig(cmd *cobra.Command) (config, error) {
	cfg := config{
		Port:      envOrDefault("PORT", "8080"),
		GRPCPort:  envOrDefault("GRPC_PORT", "8081"),
		Host:      envOrDefault("HOST", "0.0.0.0"),
		SheetsDir: os.Getenv("SHEETS_DIR"),
	}

	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Port = strconv.Itoa(v)
	}
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		cfg.GRPCPort = strconv.Itoa(v)
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Host = v
	}
	if v, _ := cmd.Flags().GetString("sheets-dir"); v != "" {
		cfg.SheetsDir = v
	}

	maxLength, err := strconv.Atoi(envOrDefault("MAX_EXPRESSION_LENGTH", strconv.Itoa(api.DefaultMaxLength)))
	if err != nil {
		return config{}, fmt.Errorf("invalid MAX_EXPRESSION_LENGTH: %w", err)
	}
	if v, _ := cmd.Flags().GetInt("max-length"); v != 0 {
		maxLength = v
	}
	if maxLength <= 0 {
		return config{}, fmt.Errorf("max length must be positive, got %d", maxLength)
	}
	cfg.MaxLength = maxLength

	return cfg, nil
}

func setupLogging(cmd *cobra.Command) error {
	level := envOrDefault("LOG_LEVEL", "info")
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		level = v
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	server := api.New(cfg.MaxLength)

	if cfg.SheetsDir != "" {
		if err := server.LoadDir(cfg.SheetsDir); err != nil {
			logrus.WithError(err).Warn("failed to load sheets directory")
		} else {
			logrus.WithFields(logrus.Fields{
				"dir":    cfg.SheetsDir,
				"sheets": len(server.Sheets()),
			}).Info("loaded sheets")
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.Warnf("web UI disabled due to template error: %v", r)
			}
		}()
		ui := web.New(cfg.MaxLength, server)
		ui.Register(server.App())
	}()

	grpcServer := grpcapi.New(cfg.MaxLength)
	go func() {
		logrus.Infof("gRPC server listening on %s", cfg.grpcAddr())
		if err := grpcServer.Serve(cfg.grpcAddr()); err != nil {
			logrus.Fatalf("gRPC server error: %v", err)
		}
	}()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logrus.Info("shutting down")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			logrus.WithError(err).Error("error during shutdown")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":       cfg.addr(),
		"max_length": cfg.MaxLength,
		"version":    version,
	}).Info("string calculator listening")
	return server.Listen(cfg.addr())
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
