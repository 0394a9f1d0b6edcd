package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/tasktrail/internal/config"
	"github.com/mtlprog/tasktrail/internal/database"
	"github.com/mtlprog/tasktrail/internal/handler"
	"github.com/mtlprog/tasktrail/internal/live"
	"github.com/mtlprog/tasktrail/internal/logger"
	"github.com/mtlprog/tasktrail/internal/metrics"
	"github.com/mtlprog/tasktrail/internal/notify"
	"github.com/mtlprog/tasktrail/internal/repository"
	"github.com/mtlprog/tasktrail/internal/service"
)

// localBuffer is the per-consumer queue size of the in-process channel.
const localBuffer = 1024

func main() {
	app := &cli.App{
		Name:  "tasktrail",
		Usage: "Task tracker with an audit trail and notifications",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server and the in-process notification dispatcher",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
				},
				Action: runServe,
			},
			{
				Name:   "dispatch",
				Usage:  "Consume the Redis notification stream and store notification rows",
				Action: runDispatch,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and exit",
				Action: runMigrate,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// backend is the notification channel selected by configuration together
// with the source its consumers read from.
type backend struct {
	channel service.NotificationChannel
	source  notify.Source
	redis   *redis.Client
}

func (b *backend) ping(ctx context.Context) error {
	if b.redis == nil {
		return nil
	}
	return b.redis.Ping(ctx).Err()
}

func (b *backend) close() {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
}

// openBackend connects to Redis when configured and falls back to the
// in-process channel otherwise.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if !cfg.Redis.Enabled() {
		slog.Info("redis not configured, using in-process notification channel")
		local := notify.NewLocalChannel(localBuffer, notify.ConsumerStore, notify.ConsumerPush)
		return &backend{channel: local, source: local}, nil
	}

	rdb, err := notify.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "tasktrail"
	}

	slog.Info("redis notification channel enabled",
		"addr", cfg.Redis.Addr,
		"stream", cfg.Notify.Stream,
		"consumer", hostname,
	)
	return &backend{
		channel: notify.NewRedisChannel(rdb, cfg.Notify.Stream),
		source:  notify.NewRedisSource(rdb, cfg.Notify, hostname),
		redis:   rdb,
	}, nil
}

func openDatabase(c *cli.Context) (*database.DB, error) {
	db, err := database.New(c.Context, c.String("database-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := database.RunMigrations(c.Context, db.Pool()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func runServe(c *cli.Context) error {
	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open notification channel: %w", err)
	}
	defer be.close()

	reg := newRegistry()
	m := metrics.New(reg)
	pool := db.Pool()

	taskRepo := repository.NewTaskRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	hub := live.NewHub()
	dispatcher := notify.NewDispatcher(be.source,
		notify.NewStoreConsumer(notificationRepo, m),
		notify.NewPushConsumer(hub, m),
	)

	h := handler.New(handler.Deps{
		Tasks: service.NewTaskService(
			database.NewTxManager(pool), taskRepo, auditRepo, commentRepo, be.channel, m,
		),
		Reads:         service.NewReadService(taskRepo, auditRepo, commentRepo, cfg.History.PageSize),
		Notifications: notificationRepo,
		Users:         userRepo,
		Hub:           hub,
		Health: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if err := be.ping(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		PageSize: cfg.History.PageSize,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}

// runDispatch runs the store consumer as its own process. Live pushes need
// the WebSocket connections held by serve, so they stay there.
func runDispatch(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Redis.Enabled() {
		return errors.New("dispatch requires REDIS_ADDR or REDIS_URL")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open notification channel: %w", err)
	}
	defer be.close()

	m := metrics.New(newRegistry())
	dispatcher := notify.NewDispatcher(be.source,
		notify.NewStoreConsumer(repository.NewNotificationRepository(db.Pool()), m),
	)

	slog.Info("dispatcher started", "stream", cfg.Notify.Stream)
	if err := dispatcher.Run(ctx); err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}

	slog.Info("dispatcher stopped")
	return nil
}

func runMigrate(c *cli.Context) error {
	db, err := database.New(c.Context, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, err := database.RunMigrations(c.Context, db.Pool())
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	fmt.Printf("schema version %d\n", version)
	return nil
}
