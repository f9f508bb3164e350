package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"weather-ensemble/config"
	"weather-ensemble/internal/cache"
	v1 "weather-ensemble/internal/controllers/http/v1"
	"weather-ensemble/internal/providers"
	"weather-ensemble/internal/report"
	"weather-ensemble/internal/scheduler"
	"weather-ensemble/internal/services/weather"
	"weather-ensemble/pkg/httpserver"
	"weather-ensemble/pkg/observe"
)

// @title Weather Ensemble API
// @version 1.0.0
// @description Multi-source weather reconciliation service.
// @description Collects readings from several public weather providers, reconciles them into a single weighted view and renders a report.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @tag.name Weather
// @tag.description Weather analysis and forecast operations
// @tag.name Geo
// @tag.description Location resolution
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	_ = godotenv.Load()

	cnf, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot load configuration:", err)
		os.Exit(1)
	}

	writers := []io.Writer{os.Stdout}
	if cnf.Log.SentryDSN != "" {
		writers = append(writers, observe.NewSentryHook(cnf.App.Env, cnf.App.Name, cnf.App.Env != "production", cnf.Log.SentryDSN))
	}
	l := observe.NewZapLogger(cnf.App.Name, cnf.App.Env, writers...)

	httpClient := &http.Client{Timeout: cnf.Weather.ProviderTimeout}

	store := cache.New(cnf.Weather.CacheTTL, cnf.Weather.SweepInterval, cnf.Weather.CacheCapacity, clockwork.NewRealClock())

	geo := providers.NewOpenMeteoGeocoder(httpClient, l)
	adapters := providers.Build(cnf.Weather.APIs, httpClient, geo, l)
	if len(adapters) == 0 {
		l.Fatal("no weather providers configured")
	}

	var backend report.Backend
	if cnf.Report.BackendURL != "" {
		backend = report.NewHTTPBackend(cnf.Report.BackendURL, cnf.Report.Model, cnf.Report.Timeout)
	}
	renderer := report.NewRenderer(backend, l)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	service := weather.NewService(adapters, geo, renderer, cnf.Weather.ProviderTimeout, rng, l)

	refresher := scheduler.New(service, store, cnf.Weather.Locations, cnf.Weather.ProviderTimeout*2, l)
	if err := refresher.Start(cnf.Weather.RefreshInterval); err != nil {
		l.Fatal("cannot start warm-refresh scheduler", map[string]any{"err": err})
	}

	app := httpserver.InitFiberServer(
		cnf.App.Name,
		time.Duration(cnf.Server.ReadTimeout)*time.Second,
		time.Duration(cnf.Server.WriteTimeout)*time.Second,
	)

	v1.NewRouter(app, service, store, l)

	go func() {
		if err := app.Listen(":" + cnf.Server.Port); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err})
		}
	}()

	l.Info("application started successfully", map[string]any{
		"port":      cnf.Server.Port,
		"providers": len(adapters),
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = app.ShutdownWithContext(shutdownCtx)
		refresher.Stop()
		store.Close()
		_ = l.Stop()
		cancel()
	}()

	select {
	case <-sigCh:
		fmt.Println("received shutdown signal")
	case <-ctx.Done():
		fmt.Println("context cancelled")
	}
}
