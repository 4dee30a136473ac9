package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-rental-ledger/internal/audit"
	"github.com/ariefcatur/go-rental-ledger/internal/config"
	"github.com/ariefcatur/go-rental-ledger/internal/events"
	kafkax "github.com/ariefcatur/go-rental-ledger/internal/kafka"
	"github.com/ariefcatur/go-rental-ledger/internal/logger"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
	"github.com/ariefcatur/go-rental-ledger/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	service := cfg.ServiceName + "-auditor"
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: logger.JSON, Service: service})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect failed", "error", err)
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal("migration failed", "error", err)
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &audit.Service{
		Store:       &audit.Repo{DB: db},
		Redis:       rdb,
		ServiceName: service,
		Log:         log,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.AuditGroup, events.TopicBookings, cfg.AuditWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("audit consumer started", "group", cfg.AuditGroup, "topic", events.TopicBookings, "workers", cfg.AuditWorkers)
		if err := cons.Start(ctx, svc.HandleBookingEvent); err != nil {
			log.Error("consumer exit", "error", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down consumer")
	case <-ctx.Done():
	}
	cancel()
	<-done
}
