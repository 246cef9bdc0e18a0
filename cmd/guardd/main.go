// Guardd is the content-safety guardrail daemon.
//
// It serves a registry of composable checks (PII detection, topic
// control, word filtering, secret detection) over HTTP, supporting
// validation and sequential transformation of single strings or batches.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start the server with defaults
//	guardd
//
//	# Configure via environment
//	SERVER_PORT=9090 ANALYZER_BASE_URL=http://localhost:5002 guardd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/guardd/internal/analyze"
	"github.com/fyrsmithlabs/guardd/internal/classify"
	"github.com/fyrsmithlabs/guardd/internal/config"
	"github.com/fyrsmithlabs/guardd/internal/guardrail"
	"github.com/fyrsmithlabs/guardd/internal/guardrail/pii"
	"github.com/fyrsmithlabs/guardd/internal/guardrail/secrets"
	"github.com/fyrsmithlabs/guardd/internal/guardrail/topic"
	"github.com/fyrsmithlabs/guardd/internal/guardrail/wordfilter"
	"github.com/fyrsmithlabs/guardd/internal/logging"
	"github.com/fyrsmithlabs/guardd/internal/orchestrator"
	"github.com/fyrsmithlabs/guardd/internal/server"
	"github.com/fyrsmithlabs/guardd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  guardd           Start the guardd daemon\n")
			fmt.Fprintf(os.Stderr, "  guardd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("guardd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the guardd server and blocks until the context is
// cancelled:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Creates the collaborator clients (PII engine, classifier)
//  4. Builds and registers the guardrails
//  5. Starts the HTTP server
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("Starting guardd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("service", cfg.Observability.ServiceName),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	meterProvider, err := telemetry.Init(cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx, meterProvider)
	}()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("failed to build guardrails: %w", err)
	}
	logger.Info("Guardrails registered", zap.Strings("ids", registry.IDs()))

	orch, err := orchestrator.New(registry, logger.Named("orchestrator"))
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	srv, err := server.New(orch, logger.Named("http"), &server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		MetricsEnabled: cfg.Observability.MetricsEnabled,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildRegistry wires the collaborator clients and registers every
// guardrail with its configured defaults.
func buildRegistry(cfg *config.Config) (*guardrail.Registry, error) {
	analyzer, err := analyze.New(cfg.Analyzer)
	if err != nil {
		return nil, err
	}
	classifier, err := classify.New(cfg.Classifier)
	if err != nil {
		return nil, err
	}

	piiGuard, err := pii.New(analyzer, cfg.Guardrails.PII)
	if err != nil {
		return nil, err
	}
	topicGuard, err := topic.New(classifier, cfg.Guardrails.Topic)
	if err != nil {
		return nil, err
	}
	wordGuard, err := wordfilter.New(cfg.Guardrails.Word)
	if err != nil {
		return nil, err
	}
	secretsGuard, err := secrets.New(cfg.Guardrails.Secrets)
	if err != nil {
		return nil, err
	}

	registry := guardrail.NewRegistry()
	registry.Register(piiGuard)
	registry.Register(topicGuard)
	registry.Register(wordGuard)
	registry.Register(secretsGuard)
	return registry, nil
}
