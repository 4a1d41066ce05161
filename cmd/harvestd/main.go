// Command harvestd exposes the DEM harvester over HTTP for operator use.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agrefed/dem-harvester/internal/config"
	"github.com/agrefed/dem-harvester/internal/harvester"
	"github.com/agrefed/dem-harvester/internal/health"
	"github.com/agrefed/dem-harvester/internal/httpclient"
	"github.com/agrefed/dem-harvester/internal/logger"
	"github.com/agrefed/dem-harvester/internal/metrics"
	"github.com/agrefed/dem-harvester/internal/middleware"
	"github.com/agrefed/dem-harvester/internal/wcs"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "harvestd",
	}, os.Stdout)
	log := logger.NewSlog(&zl)
	log.Info("starting harvestd",
		"addr", cfg.Addr,
		"version", Version,
		"service", cfg.ServiceURL,
		"out_dir", cfg.OutDir)

	prov := metrics.Init(metrics.BuildInfo{
		Version:   Version,
		Revision:  os.Getenv("BUILD_REVISION"),
		BuildDate: os.Getenv("BUILD_DATE"),
	})

	client := wcs.NewClient(log, httpclient.NewOutbound(cfg.WCSTimeout))
	h := harvester.New(log, client).WithObserver(prov)

	a := &api{
		log:       log,
		cfg:       cfg,
		client:    client,
		harvester: h,
		metrics:   prov,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recover())

	r.Get("/healthz", health.Liveness())
	r.Method(http.MethodGet, cfg.MetricsPath, prov.Handler())
	r.Get("/v1/layers", a.handleLayers)
	r.Get("/v1/source", a.handleSource)
	r.Get("/v1/license", a.handleLicense)
	r.Post("/v1/dem", a.handleFetch)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// fetches block on the upstream service, which is slow for large boxes
		WriteTimeout: cfg.WCSTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		log.Info("http listen", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	shutdownSignalCh := make(chan os.Signal, 1)
	signal.Notify(shutdownSignalCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-shutdownSignalCh:
		log.Info("signal received, shutting down", "signal", sig.String())
	case err := <-serverErrCh:
		log.Error("server error", "err", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
	log.Info("server stopped")
	return 0
}
