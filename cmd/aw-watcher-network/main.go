package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/brayo-pip/aw-watcher-network/internal/api/http"
	"github.com/brayo-pip/aw-watcher-network/internal/awclient"
	"github.com/brayo-pip/aw-watcher-network/internal/config"
	"github.com/brayo-pip/aw-watcher-network/internal/eventstore"
	"github.com/brayo-pip/aw-watcher-network/internal/logging"
	"github.com/brayo-pip/aw-watcher-network/internal/metrics"
	"github.com/brayo-pip/aw-watcher-network/internal/scheduler"
	"github.com/brayo-pip/aw-watcher-network/internal/watcher"
	"github.com/brayo-pip/aw-watcher-network/internal/watcher/providers"
)

const (
	serviceName = "aw-watcher-network"

	registrationTimeout = 30 * time.Second
	reregisterEvery     = time.Minute
	stubMaxEvents       = 10_000
)

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	env, note := config.LoadEnv()
	log := logging.New(os.Stderr, serviceName, env.LogLevel, env.LogFormat)
	if note != "" {
		log.Info(note)
	}

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch opts.command {
	case commandServeStub:
		err = serveStub(ctx, opts, log)
	case commandLocate:
		err = locate(ctx, env, log)
	default:
		err = run(ctx, opts, env, log)
	}
	if err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func loadConfig(env config.Env, log *slog.Logger) (*config.Config, error) {
	path, err := env.Path()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, log.With("component", "config"))
	if err != nil {
		return nil, err
	}
	env.Apply(cfg)
	return cfg, nil
}

func newLocator(cfg *config.Config, log *slog.Logger) *providers.WifiLocator {
	// Shared HTTP client for outbound geolocation calls.
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return providers.NewWifiLocator(
		providers.NewNmcliScanner(),
		providers.NewGoogleGeolocator(httpClient, cfg.GoogleAPIKey),
		providers.NewGoogleReverseGeocoder(cfg.GoogleAPIKey),
		log,
	)
}

func run(ctx context.Context, opts options, env config.Env, log *slog.Logger) error {
	cfg, err := loadConfig(env, log)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := awclient.New(cfg.ServerHost, opts.port, watcher.ClientName, nil)
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	w := watcher.New(
		watcher.NewSampler(newLocator(cfg, log)),
		watcher.NewReporter(client, watcher.BucketID),
		cfg.Interval(),
		log,
		m,
	)
	sched := scheduler.New(w, cfg.Interval(), log)
	defer sched.Stop()

	registrar := watcher.NewRegistrar(client, hostname, registrationTimeout, log, m)
	if err := registrar.EnsureBucket(ctx, watcher.ClientName, watcher.BucketID); err != nil {
		if cfg.StrictRegistration {
			return err
		}
		log.Warn("starting without a registered bucket; retrying in the background", "error", err)
		retry := func(ctx context.Context) error {
			return registrar.EnsureBucket(ctx, watcher.ClientName, watcher.BucketID)
		}
		if err := sched.RetryUntil("register-bucket", reregisterEvery, retry); err != nil {
			return fmt.Errorf("schedule bucket registration: %w", err)
		}
	}

	if cfg.MetricsAddr != "" {
		app := httpapi.NewApp(serviceName)
		httpapi.RegisterOps(app, serviceName, reg)
		go func() {
			if err := app.Listen(cfg.MetricsAddr); err != nil {
				log.Warn("metrics server stopped", "error", err)
			}
		}()
		defer shutdown(app, log)
	}

	log.Info("watcher started",
		"server", fmt.Sprintf("%s:%d", cfg.ServerHost, opts.port),
		"polling_interval", cfg.PollingInterval)
	return sched.Run(ctx)
}

func locate(ctx context.Context, env config.Env, log *slog.Logger) error {
	cfg, err := loadConfig(env, log)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	s, err := watcher.Locate(ctx, watcher.NewSampler(newLocator(cfg, log)))
	if err != nil {
		return fmt.Errorf("locate: %w", err)
	}
	fmt.Printf("%s\t%s\n", s.Location(), s.Address)
	return nil
}

func serveStub(ctx context.Context, opts options, log *slog.Logger) error {
	reg := prometheus.NewRegistry()

	app := httpapi.NewApp(serviceName + "-stub")
	app.Use(logger.New())
	httpapi.RegisterOps(app, serviceName+"-stub", reg)
	httpapi.RegisterRoutes(app, eventstore.NewMemoryStore(stubMaxEvents), opts.testing)

	addr := "127.0.0.1:" + strconv.Itoa(int(opts.port))
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()
	log.Info("stub event-store listening", "component", "stub", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("stub server: %w", err)
	case <-ctx.Done():
	}
	shutdown(app, log)
	return nil
}

func shutdown(app *fiber.App, log *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("error during shutdown", "error", err)
	}
}
