package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/audit"
	"github.com/ariefcatur/go-rental-ledger/internal/bookings"
	"github.com/ariefcatur/go-rental-ledger/internal/budget"
	"github.com/ariefcatur/go-rental-ledger/internal/catalog"
	"github.com/ariefcatur/go-rental-ledger/internal/config"
	"github.com/ariefcatur/go-rental-ledger/internal/events"
	"github.com/ariefcatur/go-rental-ledger/internal/httpx"
	kafkax "github.com/ariefcatur/go-rental-ledger/internal/kafka"
	"github.com/ariefcatur/go-rental-ledger/internal/logger"
	"github.com/ariefcatur/go-rental-ledger/internal/metrics"
	"github.com/ariefcatur/go-rental-ledger/internal/postgres"
	"github.com/ariefcatur/go-rental-ledger/internal/redisx"
	"github.com/ariefcatur/go-rental-ledger/internal/search"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: logger.JSON, Service: cfg.ServiceName})

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

	tx := postgres.NewTxRunner(db, cfg.TxMaxRetries)
	tx.OnRetry = func(attempt int, err error) {
		metrics.TxRetriesTotal.Inc()
		log.Warn("retrying transaction", "attempt", attempt, "error", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: one per topic
	bookingProd := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicBookings, 1024, log)
	bookingProd.Start(ctx)
	propertyProd := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicProperties, 1024, log)
	propertyProd.Start(ctx)

	// Core
	ledger := bookings.NewLedger(db, tx, &events.Emitter{Pub: bookingProd, Producer: cfg.ServiceName})
	cache := search.NewCache(rdb, cfg.SearchCacheTTL)
	repo := catalog.NewRepo(db, tx, ledger, cache, &events.Emitter{Pub: propertyProd, Producer: cfg.ServiceName})
	engine := search.NewEngine(db, cache)

	// Router & handlers
	router := httpx.NewRouter()
	(&httpx.PropertiesHandler{Catalog: repo, Search: engine, Log: log}).Register(router)
	(&httpx.BookingsHandler{Ledger: ledger, Audit: &audit.Repo{DB: db}, Log: log}).Register(router)
	(&httpx.RentersHandler{Budgets: &budget.Repo{DB: db}, Log: log}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", "error", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	bookingProd.Close()
	propertyProd.Close()
	cancel()
	bookingProd.WaitClosed()
	propertyProd.WaitClosed()
}
