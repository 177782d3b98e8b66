// Package main provides the worldgen binary that drives a full generation
// run: it reads a world brief, talks to the configured model provider, and
// writes the validated world to the content store.
//
// The API credential is read from the environment (ANTHROPIC_API_KEY or
// OPENAI_API_KEY, matching the configured provider) and held in memory only;
// it never appears in configuration or in the persisted run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/config"
	"github.com/cory-johannsen/worldforge/internal/llm"
	"github.com/cory-johannsen/worldforge/internal/observability"
	"github.com/cory-johannsen/worldforge/internal/pipeline"
	"github.com/cory-johannsen/worldforge/internal/server"
	"github.com/cory-johannsen/worldforge/internal/store"
	"github.com/cory-johannsen/worldforge/internal/world"
)

func main() {
	configPath := flag.String("config", "configs/worldgen.yaml", "path to configuration file")
	briefPath := flag.String("brief", "", "path to the world brief YAML (required for a new run)")
	extendRun := flag.String("extend", "", "id of an existing run to extend instead of starting fresh")
	extendBy := flag.Int("chapters", 1, "number of chapters to add when extending")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	provider, err := buildProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("initializing provider", zap.Error(err))
	}

	opts := []llm.ClientOption{
		llm.WithStatusFunc(func(msg string) { fmt.Fprintln(os.Stderr, msg) }),
	}
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Addr != "" {
		opts = append(opts, llm.WithMetrics(observability.NewModelClientMetrics(registry)))
	}
	if estimator, err := llm.NewTokenEstimator(); err != nil {
		logger.Warn("token estimator unavailable, prompt budget guard disabled", zap.Error(err))
	} else {
		opts = append(opts, llm.WithEstimator(estimator))
	}

	client := llm.NewClient(provider, cfg.Provider, logger, opts...)
	defer client.Close()

	contentStore := store.NewStore(cfg.Store, logger)

	generator, err := buildGenerator(client, contentStore, logger, *briefPath, *extendRun)
	if err != nil {
		logger.Fatal("initializing generator", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var report *pipeline.Report
	var runErr error

	lifecycle := server.NewLifecycle(logger)
	if cfg.Metrics.Addr != "" {
		lifecycle.Add("metrics", metricsService(cfg.Metrics.Addr, registry, logger))
	}
	lifecycle.Add("generation", &server.FuncService{
		StartFn: func() error {
			if *extendRun != "" {
				report, runErr = generator.Extend(ctx, *extendBy)
			} else {
				report, runErr = generator.Run(ctx)
			}
			cancel()
			return nil
		},
		StopFn: generator.Cancel,
	})

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("lifecycle failed", zap.Error(err))
	}

	if report != nil {
		printReport(report)
	}
	if runErr != nil {
		logger.Error("generation failed", zap.Error(runErr))
		os.Exit(1)
	}
}

// buildProvider selects the provider implementation and reads its credential
// from the environment.
func buildProvider(cfg config.ProviderConfig) (llm.Provider, error) {
	switch cfg.Name {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		return llm.NewAnthropicProvider(key)
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return llm.NewOpenAIProvider(key, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

// buildGenerator constructs a fresh or resumed generator with progress
// reporting wired to stderr.
func buildGenerator(client *llm.Client, contentStore *store.Store, logger *zap.Logger,
	briefPath, extendRun string) (*pipeline.Generator, error) {
	events := pipeline.WithEvents(pipeline.Events{
		Status: func(msg string) { fmt.Fprintln(os.Stderr, msg) },
		Progress: func(chapter, total int, stage string) {
			fmt.Fprintf(os.Stderr, "chapter %d/%d: %s\n", chapter, total, stage)
		},
		ChapterDone: func(chapterID string, number int) {
			fmt.Fprintf(os.Stderr, "chapter %d done (%s)\n", number, chapterID)
		},
	})

	if extendRun != "" {
		return pipeline.ResumeGenerator(client, contentStore, logger, extendRun, events)
	}
	if briefPath == "" {
		return nil, fmt.Errorf("either -brief or -extend is required")
	}
	brief, settings, err := world.LoadBriefFromFile(briefPath)
	if err != nil {
		return nil, err
	}
	return pipeline.NewGenerator(client, contentStore, logger, brief, settings, events)
}

// metricsService wraps a Prometheus /metrics listener in the Service interface.
func metricsService(addr string, registry *prometheus.Registry, logger *zap.Logger) server.Service {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return &server.FuncService{
		StartFn: func() error {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics listener shutdown", zap.Error(err))
			}
		},
	}
}

// printReport writes the run summary to stdout.
func printReport(rep *pipeline.Report) {
	fmt.Printf("run %s: %d chapters, %d tokens\n", rep.RunID, len(rep.ChapterIDs), rep.TokensUsed)
	for _, issue := range rep.Issues {
		fmt.Printf("  issue [%s] %s %s: %s\n", issue.Kind, issue.Stage, issue.ArtifactID, issue.Message)
	}
	for _, msg := range rep.IntegrityErrors {
		fmt.Printf("  integrity error: %s\n", msg)
	}
	for _, msg := range rep.IntegrityWarnings {
		fmt.Printf("  integrity warning: %s\n", msg)
	}
}
