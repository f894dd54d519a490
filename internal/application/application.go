package application

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"item_requests/internal/config"
	"item_requests/internal/domain/service/request"
	"item_requests/internal/infrastructure/notifier"
	"item_requests/internal/infrastructure/persistence"
	"item_requests/internal/infrastructure/standing"
	"item_requests/internal/server"
	"item_requests/internal/worker"
	"item_requests/pkg/application/connectors"
	"item_requests/pkg/application/modules"
	"item_requests/pkg/contextx"
	"item_requests/pkg/logx"
	"item_requests/pkg/middlewarex"
	"item_requests/pkg/probe"
)

func Run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	log = log.With(
		slog.String(logx.FieldAppName, cfg.App.Name),
		slog.String(logx.FieldAppVersion, cfg.App.Version),
	)
	ctx = contextx.WithLogger(ctx, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	world, err := NewWorld(cfg.Colony)
	if err != nil {
		return fmt.Errorf("colony: %w", err)
	}

	registry := request.NewRegistry(request.RegistryOptions{
		IdleTTL: cfg.Registry.IdleTTL,
	})

	var (
		checks        []probe.Check
		bookkeeper    = worker.NewBookkeeper()
		historyServer = server.NewHistoryServer()
		publisher     request.TradePublisher
	)

	if cfg.Postgres.Enabled() {
		pg := &connectors.Postgres{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}
		ledger := persistence.NewTradeRepository(pg.Client(ctx))
		defer pg.Close(ctx)

		bookkeeper.WithLedger(ledger)
		historyServer = historyServer.WithLedger(ledger)
		checks = append(checks, probe.Check{Name: "postgres", Ready: pg.Ready})
	}

	if cfg.Bot.Enabled() {
		announcer, err := notifier.NewAnnouncer(cfg.Bot.Token, cfg.Bot.ChatID)
		if err != nil {
			return fmt.Errorf("notifier.NewAnnouncer: %w", err)
		}

		bookkeeper.WithAnnouncer(announcer)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Redis.Enabled() {
		rd := &connectors.Redis{
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			Address:            cfg.Redis.Address,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConnections,
			MaxIdleConnections: cfg.Redis.MaxIdleConnections,
		}
		standings := standing.NewStore(rd.Client(ctx))
		defer rd.Close(ctx)

		bookkeeper.WithStandings(standings)
		historyServer = historyServer.WithStandings(standings)
		checks = append(checks, probe.Check{Name: "redis", Ready: rd.Ready})

		queueClient := asynq.NewClient(rd.AsynqOpt())
		defer queueClient.Close()

		publisher = worker.NewQueuePublisher(queueClient, cfg.Queue.Name, cfg.Queue.MaxRetry)

		modules.AsynqServer{
			RedisUsername: cfg.Redis.Username,
			RedisPassword: cfg.Redis.Password,
			RedisAddress:  cfg.Redis.Address,
			RedisDB:       cfg.Redis.DatabaseNumber,
			Concurrency:   cfg.Queue.Concurrency,
		}.Run(ctx, g, modules.AsynqQueues{cfg.Queue.Name: 1}, modules.AsynqHandler{
			Pattern: worker.TaskTradeCompleted,
			Handle:  bookkeeper.HandleTask,
		})
	} else {
		publisher = worker.NewInlinePublisher(bookkeeper)
	}

	service := request.NewService(registry, world, world).
		WithPublisher(publisher).
		WithMetrics(request.NewMetrics(reg, registry))

	if cfg.Registry.IdleTTL > 0 {
		g.Go(func() error {
			return worker.RunSweeper(ctx, service, cfg.Registry.CleanupInterval)
		})
	}

	srv := server.NewServer(server.NewDealServer(service), historyServer)

	modules.HTTPServer{
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}.Run(ctx, g, newHTTPServer(ctx, cfg, srv))

	modules.MetricServer{
		ListenAddress: cfg.Metrics.ListenAddress,
		Gatherer:      reg,
	}.Run(ctx, g)

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.Probe.ListenAddress,
		Checks:        checks,
	}.Run(ctx, g)

	log.Info("application started",
		slog.Int("traders", len(cfg.Colony.Traders)),
		slog.Bool("ledger", cfg.Postgres.Enabled()),
		slog.Bool("queue", cfg.Redis.Enabled()),
		slog.Bool("announcer", cfg.Bot.Enabled()),
	)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("errgroup.Wait: %w", err)
	}

	return nil
}

func newHTTPServer(ctx context.Context, cfg config.Config, srv server.Server) *http.Server {
	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.PlayerID,
		middlewarex.Logger,
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, cfg.Log.FieldMaxLength),
		middlewarex.ResponseLogging(masker, cfg.Log.FieldMaxLength),
	)
	srv.RegisterRoutes(router)

	return &http.Server{
		//nolint:exhaustruct
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
