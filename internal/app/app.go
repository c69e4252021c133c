// v1
// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"projetbda/analytics/internal/cache"
	"projetbda/analytics/internal/circuitbreaker"
	"projetbda/analytics/internal/config"
	"projetbda/analytics/internal/dashboard"
	"projetbda/analytics/internal/httpapi"
	"projetbda/analytics/internal/ingest"
	"projetbda/analytics/internal/metrics"
	"projetbda/analytics/internal/planner"
)

// Application wires configuration, logging, the planner client, the
// dashboard service, the plan event sources and the HTTP server.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	logFile    *os.File
	server     *http.Server
	health     *httpapi.HealthState
	metrics    *metrics.Metrics
	dashboards *dashboard.Service
	cache      *cache.Cache[dashboard.Dashboard]
	events     *ingest.Consumer
	mqtt       *ingest.Subscriber
}

// eventSource is a plan event feed run alongside the HTTP server.
type eventSource interface {
	Run(ctx context.Context) error
	Close() error
}

// New prepares a fully wired service instance. It validates basic settings,
// ensures the log directory exists, and builds the router with middleware.
func New(cfg config.Config) (*Application, error) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return nil, errors.New("listen address cannot be empty")
	}
	logPath := filepath.Clean(cfg.LogFilePath)
	if logPath == "" || logPath == "." {
		return nil, errors.New("log file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	lf, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := newLogger(lf)
	a, err := build(cfg, logger)
	if err != nil {
		_ = lf.Close()
		return nil, err
	}
	a.logFile = lf
	return a, nil
}

func build(cfg config.Config, logger *slog.Logger) (*Application, error) {
	m := metrics.New()

	client := planner.New(planner.Options{
		BaseURL:     cfg.PlannerBaseURL,
		Timeout:     cfg.PlannerTimeout,
		MaxRetries:  cfg.PlannerMaxRetries,
		BackoffBase: cfg.PlannerBackoff,
		JitterMax:   cfg.PlannerJitter,
		Breaker:     cfg.Breaker,
		Logger:      logger,
		Observer:    m,
		StateHook:   m.SetBreakerState,
	})
	logger.Info("planner_client_config",
		slog.String("baseUrl", cfg.PlannerBaseURL),
		slog.Duration("timeout", cfg.PlannerTimeout),
		slog.Int("maxRetries", cfg.PlannerMaxRetries),
		slog.Int("cbMaxFailures", cfg.Breaker.MaxFailures),
		slog.Duration("cbReset", cfg.Breaker.ResetTimeout),
	)

	views := cache.New[dashboard.Dashboard]("dashboard", cfg.CacheTTL, m)
	svc, err := dashboard.NewService(client, views, m, logger)
	if err != nil {
		return nil, fmt.Errorf("dashboard service init: %w", err)
	}

	health := httpapi.NewHealthState()
	router, err := httpapi.NewRouter(httpapi.Deps{
		Logger:     logger,
		Health:     health,
		Planner:    client,
		Dashboards: svc,
		Metrics:    m,
	})
	if err != nil {
		return nil, fmt.Errorf("router init: %w", err)
	}
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           httpapi.Wrap(logger, cfg.CORSOrigins, router),
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPWriteTimeout,
	}

	a := &Application{
		cfg:        cfg,
		logger:     logger,
		server:     server,
		health:     health,
		metrics:    m,
		dashboards: svc,
		cache:      views,
	}

	if cfg.EventsEnabled {
		eventsLogger := logger.With(slog.String("component", "plan_events"))
		consumer, err := ingest.NewConsumer(ingest.ConsumerConfig{
			Brokers:     cfg.KafkaBrokers,
			Topic:       cfg.PlanEventsTopic,
			GroupID:     cfg.PlanEventsGroupID,
			PollTimeout: cfg.PlanEventsPoll,
			Breaker:     cfg.KafkaBreaker,
		}, a.onPlanEvent, eventsLogger, circuitbreaker.WithStateHook(m.SetBreakerState))
		if err != nil {
			return nil, fmt.Errorf("plan event consumer init: %w", err)
		}
		a.events = consumer
	} else {
		logger.Info("plan_events_disabled")
	}

	if cfg.MQTTEnabled {
		sub, err := ingest.NewSubscriber(ingest.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
			QoS:      cfg.MQTTQoS,
		}, a.onPlanEvent, logger)
		if err != nil {
			return nil, fmt.Errorf("plan event subscriber init: %w", err)
		}
		a.mqtt = sub
	}
	return a, nil
}

// onPlanEvent drops cached dashboards of the period whose planning changed.
func (a *Application) onPlanEvent(_ context.Context, ev ingest.PlanEvent) {
	a.metrics.PlanEvent(ev.Action)
	dropped := a.dashboards.Invalidate(ev.PeriodID)
	a.logger.Info("plan_event_applied",
		slog.Int64("periodId", ev.PeriodID),
		slog.String("action", ev.Action),
		slog.Int("invalidated", dropped),
	)
}

// Logger exposes the configured logger to main.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Run blocks until the context is cancelled or the HTTP server terminates
// unexpectedly, then shuts everything down. The server, each plan event
// source and the cache prune loop run on their own goroutines. A failing
// source is logged and the API keeps serving, since cached dashboards still
// expire by TTL. On shutdown readiness drops first, the server drains within
// ShutdownTimeout, and Run waits for every source before returning.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpCh := make(chan error, 1)
	go func() {
		a.health.SetReady(true)
		a.logger.Info("http_server_listen", slog.String("address", a.cfg.ListenAddress))
		httpCh <- a.server.ListenAndServe()
	}()

	sources := a.sources()
	eventsCh := make(chan sourceResult, len(sources))
	for name, src := range sources {
		go func() {
			eventsCh <- sourceResult{name: name, err: src.Run(ctx)}
		}()
	}
	pending := len(sources)

	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		a.pruneLoop(ctx)
	}()

	var httpErr error

	for {
		select {
		case err := <-httpCh:
			httpErr = err
			httpCh = nil
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("http_server_error", slog.Any("err", err))
			} else {
				a.logger.Info("server_closed")
			}
			cancel()
		case res := <-eventsCh:
			pending--
			// Cached dashboards keep expiring by TTL without the source.
			if res.err != nil && !errors.Is(res.err, context.Canceled) {
				a.logger.Error("plan_source_error", slog.String("source", res.name), slog.Any("err", res.err))
			} else {
				a.logger.Info("plan_source_completed", slog.String("source", res.name))
			}
		case <-ctx.Done():
			a.logger.Info("shutdown_signal")
			a.health.SetReady(false)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				if !errors.Is(err, context.Canceled) {
					a.logger.Error("server_shutdown_failed", slog.Any("err", err))
					if httpErr == nil {
						httpErr = fmt.Errorf("shutdown: %w", err)
					}
				}
			}
			shutdownCancel()

			if httpCh != nil {
				if err := <-httpCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("server_shutdown_error", slog.Any("err", err))
					if httpErr == nil {
						httpErr = err
					}
				}
			}
			for ; pending > 0; pending-- {
				if res := <-eventsCh; res.err != nil && !errors.Is(res.err, context.Canceled) {
					a.logger.Error("plan_source_shutdown_error", slog.String("source", res.name), slog.Any("err", res.err))
				}
			}
			<-janitorDone

			if httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
				return httpErr
			}
			a.logger.Info("shutdown_complete")
			return nil
		}
	}
}

type sourceResult struct {
	name string
	err  error
}

// sources lists the configured plan event feeds by name.
func (a *Application) sources() map[string]eventSource {
	out := make(map[string]eventSource, 2)
	if a.events != nil {
		out["kafka"] = a.events
	}
	if a.mqtt != nil {
		out["mqtt"] = a.mqtt
	}
	return out
}

// pruneLoop evicts expired dashboards once per TTL.
func (a *Application) pruneLoop(ctx context.Context) {
	every := a.cfg.CacheTTL
	if every <= 0 {
		return
	}
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.cache.Prune(); n > 0 {
				a.logger.Debug("dashboard_cache_pruned", slog.Int("entries", n))
			}
		}
	}
}

// Close flushes and closes resources owned by the application instance.
func (a *Application) Close() error {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			return err
		}
		a.events = nil
	}
	if a.mqtt != nil {
		if err := a.mqtt.Close(); err != nil {
			return err
		}
		a.mqtt = nil
	}
	if a.logFile == nil {
		return nil
	}
	if err := a.logFile.Close(); err != nil {
		return err
	}
	a.logFile = nil
	return nil
}
