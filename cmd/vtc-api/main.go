// README: Entry point; loads config, wires services and serves the HTTP API until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"vtc/internal/config"
	httptransport "vtc/internal/http"
	"vtc/internal/infra"
	"vtc/internal/logging"
	"vtc/internal/maps"
	"vtc/internal/modules/booking"
	"vtc/internal/modules/dispatch"
	"vtc/internal/modules/driver"
	"vtc/internal/modules/pricing"
	"vtc/internal/ratelimit"
)

func main() {
	if err := run(); err != nil {
		slog.Error("vtc-api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Dispatch.Location()
	if err != nil {
		return err
	}

	var verifier infra.TokenVerifier
	if cfg.Firebase.ProjectID == "" {
		log.Warn("VTC_FIREBASE_PROJECT_ID not set, admin routes will reject every request")
		verifier = infra.NewDenyAllVerifier()
	} else {
		verifier, err = infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return err
		}
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)
	defer redisClient.Close()

	var routes pricing.RouteProvider
	var places *maps.PlacesService
	if cfg.Maps.APIKey == "" {
		log.Warn("VTC_MAPS_API_KEY not set, address quotes are disabled and price checks fail open")
	} else {
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		routes = maps.NewCachedRouter(routeSvc, redisClient, cfg.Maps.CacheTTL, log)
		places, err = maps.NewPlacesService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
	}

	var events booking.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		pub, err := infra.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer pub.Close()
		events = booking.NewBrokerPublisher(pub)
	}

	strategy, err := pricing.ParseRoundTripStrategy(cfg.Pricing.RoundTripStrategy)
	if err != nil {
		return err
	}
	pricingSvc := pricing.NewService(pricing.NewStore(dbPool), routes, pricing.Options{
		DefaultRatePerKm: cfg.Pricing.DefaultRatePerKm,
		Strategy:         strategy,
		Logger:           log,
	})

	bookingSvc := booking.NewService(booking.NewStore(dbPool), pricingSvc, booking.Options{
		Events:   events,
		Logger:   log,
		Location: loc,
	})

	driverSvc := driver.NewService(driver.NewStore(dbPool), log)

	dispatchSvc := dispatch.NewService(bookingSvc, driverSvc, dispatch.Options{
		Resolver: dispatch.NewResolver(cfg.Dispatch.BufferMinutes, cfg.Dispatch.DefaultDurationMinutes),
		Logger:   log,
	})

	deps := httptransport.RouterDeps{
		Quotes:   pricingSvc,
		Rates:    pricingSvc,
		Bookings: bookingSvc,
		Dispatch: dispatchSvc,
		Drivers:  driverSvc,
		Verifier: verifier,
		Limiter:  ratelimit.New(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window),
		Logger:   log,
	}
	if places != nil {
		deps.Places = places
	}

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: httptransport.NewRouter(deps)}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
