// Command checkout-events consumes checkout outcome events and appends them
// to a log file, one line per event.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/config"
	"github.com/iliyamo/cinema-web/internal/logger"
	"github.com/iliyamo/cinema-web/internal/queue"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := queue.NewConsumer(cfg.AMQPURL, cfg.EventsLogDir, log)
	log.Info("consuming checkout events", zap.String("queue", queue.CheckoutQueue), zap.String("dir", cfg.EventsLogDir))
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("consumer stopped", zap.Error(err))
	}
}
