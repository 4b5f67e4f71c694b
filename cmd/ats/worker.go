package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ats/infrastructure"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume queued notifications and send them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), ctx)
		},
	}
}

func runWorker(parent context.Context, c *commandContext) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	log := c.log()

	rmq, err := infrastructure.NewRabbitMQ(cfg.Notifications.RabbitMQURL, cfg.Notifications.Queue, log)
	if err != nil {
		return err
	}
	defer func() { _ = rmq.Close() }()

	mailer := infrastructure.NewLogMailer(cfg.Notifications.MailFrom, log)

	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("queue", cfg.Notifications.Queue).Info("notification worker started")
	return rmq.ConsumeNotifications(sigCtx, mailer.Deliver)
}
