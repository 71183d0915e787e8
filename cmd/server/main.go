package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"vigil/internal/address"
	"vigil/internal/email"
	"vigil/internal/phone"
	"vigil/internal/platform/config"
	"vigil/internal/platform/httpserver"
	"vigil/internal/platform/logger"
	"vigil/internal/platform/postgres"
	platformredis "vigil/internal/platform/redis"
	"vigil/internal/risk"
	riskmetrics "vigil/internal/risk/metrics"
	"vigil/internal/taxid"
	httptransport "vigil/internal/transport/http"
	"vigil/internal/validation"
	audit "vigil/pkg/platform/audit"
	auditkafka "vigil/pkg/platform/audit/kafka"
	auditmemory "vigil/pkg/platform/audit/store/memory"
	"vigil/pkg/platform/audit/publisher"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cache: Redis when configured, in-process otherwise.
	var cache validation.Cache
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis unavailable, using in-memory cache", "error", err)
	}
	if redisClient != nil {
		cache = validation.NewRedisCache(redisClient.Client)
		defer redisClient.Close()
	} else {
		cache = validation.NewMemoryCache()
	}

	store := validation.NewStore(cache, log, validation.NewMetrics(prometheus.DefaultRegisterer), cfg.Cache.WriteTimeout)

	// Reference database. Without it the dedupe and gazetteer stores run
	// on the in-memory seeds, which is fine for local development.
	var (
		gazetteer address.Gazetteer   = address.NewMemoryGazetteer()
		bounds    address.BoundsStore = address.SeededBounds()
		riskStore risk.Store          = risk.NewMemoryStore()
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		gazetteer = address.NewPostgresGazetteer(db)
		bounds = address.NewPostgresBounds(db)
		riskStore = risk.NewPostgresStore(db)
	}

	// Audit trail: Kafka when brokers are configured, memory otherwise.
	var auditSink audit.Store = auditmemory.NewInMemoryStore()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaStore, err := auditkafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("kafka audit store failed", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		auditSink = kafkaStore
	}
	emitter := publisher.NewPublisher(auditSink, publisher.WithAsyncBuffer(256), publisher.WithLogger(log))
	defer emitter.Close()

	// Validators.
	emails := email.NewService(store, nil, log, cfg.Email, cfg.Cache)

	var messenger phone.Messenger = phone.NewMemoryMessenger()
	if cfg.Phone.OTPBaseURL != "" {
		messenger = phone.NewHTTPMessenger(cfg.Phone.OTPBaseURL, cfg.Phone.OTPAPIKey, cfg.Phone.OTPTimeout)
	}
	phones := phone.NewService(store, messenger, emitter, log, cfg.Phone, cfg.Cache)

	taxIDs := taxid.NewService(store, taxid.NewVIESClient(cfg.TaxID.VIESURL, cfg.TaxID.VIESTimeout), emitter, log, cfg.TaxID, cfg.Cache)

	var parser address.Parser
	if cfg.Address.ParserURL != "" {
		parser = address.NewHTTPParser(cfg.Address.ParserURL, cfg.Address.ParserTimeout)
	}
	addresses := address.NewService(store, parser, gazetteer, bounds, address.NewCascade(log, cfg.Address), log, cfg.Address, cfg.Cache)

	risks := risk.NewService(riskStore, emails, phones, addresses, emitter,
		riskmetrics.New(prometheus.DefaultRegisterer), log, cfg.Risk)

	handler := httptransport.NewHandler(emails, phones, taxIDs, addresses, risks, log)
	srv := httpserver.New(cfg.Addr, handler.Routes())

	log.Info("starting vigil", "addr", cfg.Addr, "env", cfg.Env)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
