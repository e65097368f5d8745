package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/mergington/internal/api"
	"example.com/mergington/internal/config"
	"example.com/mergington/internal/domain"
	"example.com/mergington/internal/events"
	"example.com/mergington/internal/observability"
	"example.com/mergington/internal/persistence/store"
	httptransport "example.com/mergington/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("activities service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	// Migrations and seeding finish before the listener accepts requests.
	if _, err := st.Initialize(ctx); err != nil {
		return err
	}

	var publisher interface {
		domain.EnrollmentPublisher
		io.Closer
	} = events.NopPublisher{}
	if cfg.EventsEnabled() {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEnrollmentTopic)
		logger.Info("publishing enrollment changes", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaEnrollmentTopic)
	}
	defer publisher.Close()

	service := domain.NewService(st,
		domain.WithPublisher(publisher),
		domain.WithLogger(logger),
	)

	handler := api.NewHandler(service,
		api.WithLogger(logger),
		api.WithStaticDir(cfg.StaticDir),
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, httptransport.Chain(mux,
		httptransport.RequestID(),
		httptransport.Logging(logger),
		httptransport.CORS(cfg.CORSAllowedOrigin),
	), logger)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("activities service listening", "address", cfg.HTTPAddress, "store", cfg.StoreDriver)
	if err := httptransport.Run(sigCtx, server, cfg.ShutdownTimeout); err != nil {
		return err
	}
	logger.Info("activities service stopped")
	return nil
}
