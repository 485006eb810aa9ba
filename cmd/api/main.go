// Command api runs the pitch session ingestion service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pitchstat-backend/internal/archive"
	"pitchstat-backend/internal/auth"
	"pitchstat-backend/internal/config"
	"pitchstat-backend/internal/contract"
	"pitchstat-backend/internal/handlers"
	appMiddleware "pitchstat-backend/internal/middleware"
	"pitchstat-backend/internal/observability"
	"pitchstat-backend/internal/ratelimit"
	"pitchstat-backend/internal/repository/ddb"
	"pitchstat-backend/internal/service/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("unable to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("unable to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := observability.NewCollector(cfg.MetricsNamespace)

	limiter := ratelimit.NewStore()
	go limiter.Run(ctx, cfg.RateLimitSweepInterval)

	provider := ddb.NewClientProvider(cfg.Region, cfg.DynamoEndpoint, cfg.SessionsTable, cfg.PitchesTable)
	repo := ddb.NewRepository(provider, cfg.SessionsTable, cfg.PitchesTable)

	processor := archive.NewProcessor(logger)
	validator := contract.NewValidator(cfg.SchemaPath)
	svc := session.NewService(repo, processor, validator, collector, logger)
	sessionHandler := handlers.NewSessionHandler(svc, logger)

	extractor, err := auth.NewExtractor(cfg.LocalDevUserID, cfg.Environment, logger)
	if err != nil {
		return err
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.PrincipalHeader},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(appMiddleware.RequestID)
	r.Use(appMiddleware.Recovery(logger))
	r.Use(collector.HTTPMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(appMiddleware.CircuitBreaker(appMiddleware.DefaultCircuitBreakerConfig("sessions-api"), logger))
		r.Use(extractor.Middleware)
		r.Use(appMiddleware.RateLimit(limiter, collector, logger))

		sessionHandler.Routes(r)
	})

	r.Handle("/metrics", collector.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.Int("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}
