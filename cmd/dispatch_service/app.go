// Command dispatch_service wires the ride lifecycle: creation, the
// scoring-based matcher, offer accept/decline, progress updates, and the
// trip/fare pipeline once a driver starts a ride. Mirrors the teacher's
// cmd/ride_service wiring style, rebuilt against the real Redis/RabbitMQ
// adapters instead of the teacher's Postgres-only stack.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"ride-hail/internal/general/config"
	"ride-hail/internal/general/jwt"
	"ride-hail/internal/general/logger"
	"ride-hail/internal/general/postgres"
	"ride-hail/internal/general/rabbitmq"
	"ride-hail/internal/general/redis"
	"ride-hail/internal/general/websocket"
	dispatchhandler "ride-hail/internal/software/dispatch/handler"
	dispatchsvc "ride-hail/internal/software/dispatch/service"
	tripsvc "ride-hail/internal/software/trip/service"
)

// Run wires the dispatch service and blocks until ctx is cancelled.
func Run(ctx context.Context, maxConcurrent int) error {
	logger := logger.New("dispatch-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()
	bus := rabbitmq.NewEventBus(rmq)

	redisClient, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Error(ctx, "redis_connection_failed", "Failed to connect to Redis", err, nil)
		return err
	}
	geoIndex := redis.NewGeoIndex(redisClient)
	lock := redis.NewDistributedLock(redisClient)

	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)

	uow := postgres.NewUnitOfWork(pool)
	rideRepo := postgres.NewRideRepo()
	rideEventRepo := postgres.NewRideEventRepo()
	offerRepo := postgres.NewOfferRepo()
	driverRepo := postgres.NewDriverRepo()
	locHistoryRepo := postgres.NewLocationHistoryRepo()
	coordsRepo := postgres.NewCoordinatesRepo(locHistoryRepo)
	tripRepo := postgres.NewTripRepo()

	hub := websocket.NewHub(logger, jwtManager)
	go hub.RelayRideEvents(ctx, bus, "dispatch-ride-event-relay")
	go hub.RelayNotifications(ctx, bus, "dispatch-notification-relay")

	dispatchService := dispatchsvc.NewDispatchService(
		logger, uow, rideRepo, rideEventRepo, offerRepo, driverRepo, coordsRepo, geoIndex, lock, bus, hub,
	)
	dispatchService.RunBackgroundConsumers(ctx)

	tripService := tripsvc.NewTripService(logger, uow, rideRepo, tripRepo, driverRepo, coordsRepo, geoIndex, bus, hub)

	mux := http.NewServeMux()
	httpHandler := dispatchhandler.NewDispatchHTTPHandler(dispatchService, tripService, logger, jwtManager, hub)
	httpHandler.RegisterRoutes(mux)

	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.DispatchServicePort),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Dispatch Service started on port %d", cfg.Services.DispatchServicePort),
		map[string]any{"port": cfg.Services.DispatchServicePort, "max_concurrent": maxConcurrent},
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Services.DispatchServicePort})
			return err
		}
		return nil
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
