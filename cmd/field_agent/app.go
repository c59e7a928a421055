package fieldagent

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"horizon-field/internal/field/handler"
	"horizon-field/internal/field/service"
	"horizon-field/internal/general/config"
	"horizon-field/internal/general/gpsd"
	"horizon-field/internal/general/horizonapi"
	"horizon-field/internal/general/logger"
	"horizon-field/internal/general/statefile"
	"horizon-field/internal/general/wsclient"
)

// Run wires the field agent and blocks until ctx is cancelled.
func Run(ctx context.Context, maxConcurrent int) error {
	// set up a new logger and context with a static request ID for startup logs
	log := logger.New("field-agent")
	ctx = log.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	// the token cell is shared by the store client and the telemetry channel
	creds := service.NewCredentials()

	// remote store of record (REST)
	store := horizonapi.NewClient(cfg.API.BaseURL, cfg.APITimeout(), log, creds.Token)

	// telemetry channel (lossy, auto-reconnecting)
	channel := wsclient.New(wsclient.Options{
		URL:         cfg.Telemetry.URL,
		Producer:    "field-agent",
		MaxAttempts: cfg.Telemetry.RetryAttempts,
		RetryDelay:  cfg.TelemetryRetryDelay(),
		AuthToken:   creds.Token,
	}, log)

	// device location source
	provider := gpsd.NewProvider(cfg.Tracking.GpsdAddr, log)

	// persisted session state
	state := statefile.NewStore(cfg.Agent.StateFile)

	// the coordinator itself
	svc := service.NewFieldService(log, cfg, store, channel, provider, state, creds)

	// set up the HTTP handler and its routes
	mux := http.NewServeMux()
	httpHandler := handler.NewFieldHTTPHandler(svc, log)
	httpHandler.RegisterRoutes(mux)

	// concurrency limiter (global) — blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	// the agent API serves the local presentation shell only
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Agent.Port),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("Field agent started on port %d", cfg.Agent.Port),
		map[string]any{"port": cfg.Agent.Port, "max_concurrent": maxConcurrent},
	)

	// start the server in a background goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// wait for context cancellation or server error
	select {
	case <-ctx.Done():
		// graceful HTTP shutdown on context cancel
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info(ctx, "shutdown_started", "Shutting down field agent", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
		channel.Disconnect()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Agent.Port})
			return err
		}
		return nil
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
