package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ats/config"
	"ats/domain"
	"ats/infrastructure"
	"ats/interfaces"
	"ats/usecase"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the notification dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(parent context.Context, c *commandContext) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	log := c.log()

	db, err := c.openDatabase()
	if err != nil {
		return err
	}
	defer func() { _ = infrastructure.CloseDatabase(db) }()

	if cfg.Database.Seed {
		if err := infrastructure.Seed(parent, db, log); err != nil {
			return err
		}
	}

	sink, closeSink, err := newSink(cfg.Notifications, log)
	if err != nil {
		return err
	}
	defer closeSink()

	limiter, closeLimiter := newLimiter(cfg.RateLimit, log)
	defer closeLimiter()

	dispatcher := infrastructure.NewDispatcher(sink, cfg.Notifications.Workers, cfg.Notifications.Buffer, log)
	store := infrastructure.NewGormStore(db)
	engine := usecase.NewEngine(domain.NewStageGraph(), store, store, dispatcher, log)
	jobs := usecase.NewJobs(store, log)
	companies := usecase.NewCompanies(store, log)

	gin.SetMode(gin.ReleaseMode)
	router := interfaces.NewRouter(log)
	interfaces.NewHTTPHandler(router, engine, jobs, companies, store, limiter, log)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		// Close drains the queue; cancellation would abandon it.
		return dispatcher.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Std())
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		dispatcher.Close()
		return err
	})

	err = g.Wait()
	delivered, failed, dropped := dispatcher.Stats()
	log.WithFields(logrus.Fields{
		"delivered": delivered,
		"failed":    failed,
		"dropped":   dropped,
	}).Info("server stopped")
	return err
}

// newSink picks where dispatched notifications go.
func newSink(cfg config.Notifications, log logrus.FieldLogger) (infrastructure.Sink, func(), error) {
	switch cfg.Transport {
	case config.TransportRabbitMQ:
		rmq, err := infrastructure.NewRabbitMQ(cfg.RabbitMQURL, cfg.Queue, log)
		if err != nil {
			return nil, nil, err
		}
		return rmq, func() { _ = rmq.Close() }, nil
	default:
		return infrastructure.NewLogMailer(cfg.MailFrom, log), func() {}, nil
	}
}

func newLimiter(cfg config.RateLimit, log logrus.FieldLogger) (infrastructure.Limiter, func()) {
	if cfg.RedisAddr == "" {
		return infrastructure.NewLocalLimiter(cfg.Limit, cfg.Window.Std()), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	log.WithField("addr", cfg.RedisAddr).Info("using redis rate limiter")
	return infrastructure.NewRedisLimiter(client, cfg.Limit, cfg.Window.Std(), log), func() { _ = client.Close() }
}
