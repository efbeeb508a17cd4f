package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Skotchmaster/mini_online_store/internal/activation"
	"github.com/Skotchmaster/mini_online_store/internal/blacklist"
	"github.com/Skotchmaster/mini_online_store/internal/config"
	"github.com/Skotchmaster/mini_online_store/internal/events"
	"github.com/Skotchmaster/mini_online_store/internal/httpserver"
	"github.com/Skotchmaster/mini_online_store/internal/metrics"
	"github.com/Skotchmaster/mini_online_store/internal/mykafka"
	"github.com/Skotchmaster/mini_online_store/internal/notify"
	"github.com/Skotchmaster/mini_online_store/internal/repo"
	"github.com/Skotchmaster/mini_online_store/internal/service"
	"github.com/Skotchmaster/mini_online_store/internal/tokens"
	"github.com/Skotchmaster/mini_online_store/pkg/db"
	"github.com/Skotchmaster/mini_online_store/pkg/logging"
	loggingmw "github.com/Skotchmaster/mini_online_store/pkg/middleware/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("users_exit", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db_close_failed", "error", err.Error())
		}
	}()

	store := repo.New(gdb)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	bl, closeBlacklist, err := buildBlacklist(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer closeBlacklist()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer func() {
			if err := prod.Close(); err != nil {
				logger.Error("kafka_close_failed", "error", err.Error())
			}
		}()
		publisher = prod
	} else {
		logger.Info("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.NotifierBackend == config.NotifierKafka {
		notifier = &notify.KafkaNotifier{Publisher: publisher, Topic: cfg.NotificationTopic}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ts := &tokens.Service{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Blacklist:     bl,
	}
	svc := &service.AuthService{
		Store:       store,
		Activation:  activation.NewGenerator(cfg.ActivationSecret, cfg.ActivationMaxAge),
		Tokens:      ts,
		Notifier:    notifier,
		Events:      publisher,
		Metrics:     m,
		PublicURL:   cfg.PublicURL,
		EventsTopic: cfg.UserEventsTopic,
		BcryptCost:  cfg.BcryptCost,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Secure(),
		middleware.BodyLimit("1M"),
		loggingmw.RequestLoggerWithConfig(loggingmw.Config{
			Base:         logger,
			SkipPrefixes: []string{"/health", "/metrics"},
		}),
	)

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		Tokens:      ts,
		Metrics:     m,
		Ready:       store.Ping,
	})

	if cfg.BlacklistBackend == config.BlacklistGorm {
		go blacklist.RunPurger(ctx, store, cfg.BlacklistPurgeInterval)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting_down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err.Error())
	}

	logger.Info("shutdown_complete")
	return nil
}

func buildBlacklist(ctx context.Context, cfg *config.Config, store *repo.GormRepo) (tokens.Blacklist, func(), error) {
	switch cfg.BlacklistBackend {
	case config.BlacklistRedis:
		r, err := blacklist.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	case config.BlacklistMemory:
		return blacklist.NewMemory(cfg.BlacklistPurgeInterval), func() {}, nil
	default:
		return store, func() {}, nil
	}
}
