package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	dapr "github.com/dapr/go-sdk/client"
	"go.opentelemetry.io/otel"

	"newsletter-go/internal/app"
	"newsletter-go/internal/config"
	"newsletter-go/internal/events"
	"newsletter-go/internal/logging"
	"newsletter-go/internal/repository"
	"newsletter-go/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLoggerWithOptions(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	tp, err := telemetry.InitTracing(cfg.ServiceName, cfg.ServiceVersion, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := telemetry.ShutdownTracing(context.Background(), tp); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	ctx := context.Background()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.StorageBackend, err)
	}

	publisher, err := openPublisher(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s publisher: %v", cfg.EventsBackend, err)
	}

	application := app.Build(&app.Config{
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    cfg.ServiceVersion,
		Port:              cfg.Port,
		Logger:            logger,
		TracerProvider:    otel.GetTracerProvider(),
		GinMode:           cfg.GinMode,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		Repository:        repo,
		Publisher:         publisher,
	})

	logger.WithField("storage", cfg.StorageBackend).WithField("events", cfg.EventsBackend).Info("Application configured")

	go func() {
		if err := application.Run(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.SubscriberRepository, error) {
	switch cfg.StorageBackend {
	case config.StorageMySQL:
		db, err := repository.OpenMySQL(ctx, repository.MySQLOptions{
			DSN:          cfg.MySQLDSN,
			MaxOpenConns: cfg.MySQLMaxOpenConns,
			MaxIdleConns: cfg.MySQLMaxIdleConns,
			ConnLifetime: cfg.MySQLConnLifetime,
		})
		if err != nil {
			return nil, err
		}
		repo := repository.NewMySQLSubscriberRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	case config.StorageDapr:
		client, err := dapr.NewClient()
		if err != nil {
			return nil, fmt.Errorf("connect to dapr sidecar: %w", err)
		}
		return repository.NewDaprSubscriberRepository(client, cfg.DaprStateStore), nil
	default:
		return repository.NewInMemorySubscriberRepository(), nil
	}
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.EventsBackend == config.EventsAMQP {
		return events.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue)
	}
	return events.NewNoopPublisher(), nil
}
