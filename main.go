package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-usermanager/config"
	"go-usermanager/directory"
	"go-usermanager/handlers"
	"go-usermanager/metrics"
	"go-usermanager/services"
	"go-usermanager/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := utils.NewLogger(utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	audit := utils.NewAuditLogger(logger, 10000)
	errs := utils.NewErrorReporter(logger, 1000)
	notifier := services.NewNotifier(logger, 10000)

	audit.Start(ctx)
	errs.Start(ctx)
	notifier.Start(ctx)

	dir := directory.NewClient(cfg.DirectoryURL, cfg.DirectoryTimeout)
	store := services.NewUserStore()
	userSvc := services.NewUserService(ctx, dir, store, logger, errs, cfg.PageSize)

	userHandler := handlers.NewUserHandler(userSvc, audit, notifier, errs)
	pageHandler, err := handlers.NewPageHandler(userHandler)
	if err != nil {
		return err
	}

	r := mux.NewRouter()

	// metrics wrap everything, the rate limit sits inside
	r.Use(metrics.Middleware())
	r.Use(utils.RequestLogger(logger))
	r.Use(utils.RateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))

	userHandler.RegisterRoutes(r)
	pageHandler.RegisterRoutes(r)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	r.HandleFunc("/healthz", handlers.Healthz).Methods(http.MethodGet).Name("healthz")

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.DirectoryTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "directory", cfg.DirectoryURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "err", err)
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
