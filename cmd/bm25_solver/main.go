package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/gcbaptista/go-bm25-solver/api"
	"github.com/gcbaptista/go-bm25-solver/config"
	"github.com/gcbaptista/go-bm25-solver/internal/corpusfile"
	"github.com/gcbaptista/go-bm25-solver/internal/engine"
	"github.com/gcbaptista/go-bm25-solver/internal/jobs"
	"github.com/gcbaptista/go-bm25-solver/internal/logger"
	"github.com/gcbaptista/go-bm25-solver/internal/metrics"
	"github.com/gcbaptista/go-bm25-solver/internal/translate"
)

const version = "1.0.0"

func main() {
	// Define command-line flags
	var (
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
		configPath = flag.String("config", "", "Path to a YAML config file")
		port       = flag.Int("port", 0, "Port to run the server on (overrides config)")
	)

	flag.Parse()

	// Handle help flag
	if *help {
		fmt.Printf("Go BM25 Solver - BM25 retrieval and answer selection over HTTP\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                           # Start server on default port 8080\n", os.Args[0])
		fmt.Printf("  %s --port 9000               # Start server on port 9000\n", os.Args[0])
		fmt.Printf("  %s --config solvers.yaml     # Preload the solvers of a config file\n", os.Args[0])
		return
	}

	// Handle version flag
	if *showVer {
		fmt.Printf("Go BM25 Solver v%s\n", version)
		return
	}

	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ServerConfig) error {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	jobManager := jobs.NewManager(cfg.Jobs.Workers, m)
	jobManager.Start()
	defer jobManager.Stop()

	engineOpts := []engine.Option{engine.WithMetrics(m), engine.WithJobs(jobManager)}
	if cfg.Translation.Enabled {
		client, closeCache := newTranslator(cfg, m)
		defer closeCache()
		engineOpts = append(engineOpts, engine.WithTranslator(client))
	}

	solverEngine := engine.NewEngine(engineOpts...)
	if err := preloadSolvers(solverEngine, cfg.Solvers); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		api.RequestIDMiddleware(),
		api.LoggingMiddleware(),
		api.CORSMiddleware(),
		api.RequestSizeLimitMiddleware(cfg.HTTP.MaxBodyBytes),
	)
	if m != nil {
		router.Use(api.MetricsMiddleware(m))
	}
	api.SetupRoutes(router, solverEngine, m)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveDone := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", server.Addr, "solvers", len(cfg.Solvers))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}

// newTranslator builds the translation client. A Redis cache is shared
// across replicas; when Redis is disabled or unreachable an in-process
// cache is used instead.
func newTranslator(cfg *config.ServerConfig, m *metrics.Metrics) (*translate.Client, func()) {
	var cache translate.Cache = translate.NewMemoryCache(cfg.Translation.CacheSize, cfg.Translation.CacheTTL)
	closeCache := func() {}

	if cfg.Redis.Enabled {
		redisCache, err := translate.NewRedisCache(cfg.Redis, cfg.Translation.CacheTTL)
		if err != nil {
			slog.Warn("Redis unavailable, using in-memory translation cache", "addr", cfg.Redis.Addr, "error", err)
		} else {
			cache = redisCache
			closeCache = func() {
				if err := redisCache.Close(); err != nil {
					slog.Warn("Failed to close Redis cache", "error", err)
				}
			}
		}
	}

	client := translate.NewClient(cfg.Translation, translate.WithCache(cache), translate.WithMetrics(m))
	return client, closeCache
}

func preloadSolvers(e *engine.Engine, entries []config.SolverEntry) error {
	for _, entry := range entries {
		if err := e.CreateSolver(entry.SolverSettings); err != nil {
			return fmt.Errorf("creating solver %q: %w", entry.Name, err)
		}
		if entry.CorpusFile == "" {
			continue
		}

		corpus, err := corpusfile.Load(entry.CorpusFile)
		if err != nil {
			return err
		}
		if err := e.LoadCorpus(entry.Name, corpus); err != nil {
			return fmt.Errorf("loading corpus of solver %q: %w", entry.Name, err)
		}
	}
	return nil
}
