package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openmeet/ticketgate/config"
	authorityHTTP "github.com/openmeet/ticketgate/internal/authority/http"
	httpDelivery "github.com/openmeet/ticketgate/internal/delivery/http"
	"github.com/openmeet/ticketgate/internal/delivery/kafka/producer"
	repo "github.com/openmeet/ticketgate/internal/repository/redis"
	"github.com/openmeet/ticketgate/internal/service"
	pkgKafka "github.com/openmeet/ticketgate/pkg/kafka"
	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
	pkgRedis "github.com/openmeet/ticketgate/pkg/redis"
	"github.com/openmeet/ticketgate/pkg/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	redisCli, err := pkgRedis.Connect(ctx, pkgRedis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer pkgRedis.Disconnect(redisCli)

	gateRepo := repo.NewRedisGateSessionRepository(redisCli, l)
	scanRepo := repo.NewRedisScanLogRepository(redisCli, l)

	// Initialize Kafka producer
	prod := producer.NewNopProducer()
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kafkaSyncProd, l)
	}
	defer prod.Close()

	// Authority client doubles as the payment gateway port.
	authorityCli, err := authorityHTTP.NewClient(authorityHTTP.Config{
		BaseURL: cfg.Authority.BaseURL,
		Timeout: cfg.Authority.Timeout,
	}, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize authority client: %v", err)
	}

	rep := report.NewLogReporter(l)

	// Initialize services
	accessSvc := service.NewAccessService(authorityCli, gateRepo, cfg.Session.GateTTL, rep, l)
	checkinSvc := service.NewCheckinService(authorityCli, scanRepo, prod, rep, l, cfg.Session.ScanTTL)
	participationSvc := service.NewParticipationService(authorityCli, accessSvc, prod, rep, l, cfg.Roster.RemoveDebounce)
	checkoutSvc := service.NewCheckoutService(authorityCli, authorityCli, accessSvc, rep, l)

	// HTTP server
	handler := httpDelivery.NewHTTPHandler(
		checkinSvc,
		accessSvc,
		participationSvc,
		checkoutSvc,
		l,
		cfg.Checkout.SuccessPath,
		cfg.Checkout.CancelPath,
	)
	mw := httpDelivery.NewMiddleware(cfg.JWT.Secret, l)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpDelivery.NewRouter(handler, mw),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(gCtx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		l.Info(gCtx, "Server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Server error: %v", err)
	}

	l.Info(ctx, "Server exited")
}
