package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/events"
	"newsletter-go/internal/handlers"
	"newsletter-go/internal/logging"
	"newsletter-go/internal/metrics"
	"newsletter-go/internal/repository"
	"newsletter-go/internal/service"
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	Port           string
	Logger         *logging.ContextLogger
	TracerProvider trace.TracerProvider
	GinMode        string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// Nil values fall back to in-memory storage, a no-op publisher and a
	// fresh metrics registry.
	Repository repository.SubscriberRepository
	Publisher  events.Publisher
	Metrics    *metrics.Metrics
}

type Application struct {
	server    *http.Server
	config    *Config
	router    *gin.Engine
	repo      repository.SubscriberRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func Build(config *Config) *Application {
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}
	if config.Logger == nil {
		config.Logger = logging.NewLogger()
	}

	repo := config.Repository
	if repo == nil {
		repo = repository.NewInMemorySubscriberRepository()
	}
	publisher := config.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	m := config.Metrics
	if m == nil {
		m = metrics.New()
	}

	subscriptionService := service.NewSubscriptionService(repo, publisher, config.Logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, config.Logger, m)

	router := gin.New()
	router.Use(gin.Recovery())
	var otelOpts []otelgin.Option
	if config.TracerProvider != nil {
		otelOpts = append(otelOpts, otelgin.WithTracerProvider(config.TracerProvider))
	}
	router.Use(otelgin.Middleware(config.ServiceName, otelOpts...))
	router.Use(requestLogger(config.Logger, m))

	router.GET("/health_check", handlers.HealthCheck)
	router.POST("/subscriptions", subscriptionHandler.Subscribe)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	server := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}

	return &Application{
		server:    server,
		config:    config,
		router:    router,
		repo:      repo,
		publisher: publisher,
		metrics:   m,
	}
}

func requestLogger(logger *logging.ContextLogger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		m.ObserveRequest(method, c.FullPath(), status, latency)

		logger.WithTracing(c.Request.Context()).WithFields(map[string]interface{}{
			"method":     method,
			"path":       path,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}).Info("HTTP request completed")
	}
}

// Run binds the configured port and serves until Shutdown.
func (app *Application) Run() error {
	listener, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", app.server.Addr, err)
	}
	return app.Serve(listener)
}

// Serve handles requests on an already bound listener until Shutdown.
func (app *Application) Serve(listener net.Listener) error {
	app.config.Logger.Info("Starting server on " + listener.Addr().String())
	if err := app.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the publisher and repository.
func (app *Application) Shutdown(ctx context.Context) error {
	app.config.Logger.Info("Shutting down server...")
	err := app.server.Shutdown(ctx)
	if perr := app.publisher.Close(); perr != nil {
		err = errors.Join(err, fmt.Errorf("close publisher: %w", perr))
	}
	if rerr := app.repo.Close(); rerr != nil {
		err = errors.Join(err, fmt.Errorf("close repository: %w", rerr))
	}
	return err
}

func (app *Application) GetRepo() repository.SubscriberRepository {
	return app.repo
}

func (app *Application) GetMetrics() *metrics.Metrics {
	return app.metrics
}

func (app *Application) GetRouter() *gin.Engine {
	return app.router
}
