package main

import (
	"context"
	"fmt"
	"time"

	"github.com/BearBump/ParcelBox/config"
	"github.com/BearBump/ParcelBox/internal/broker/kafka"
	"github.com/BearBump/ParcelBox/internal/cache/rediscache"
	"github.com/BearBump/ParcelBox/internal/integrations/carrier"
	"github.com/BearBump/ParcelBox/internal/integrations/carrier/fake"
	"github.com/BearBump/ParcelBox/internal/integrations/carrier/opserver"
	"github.com/BearBump/ParcelBox/internal/services/poller"
	"github.com/BearBump/ParcelBox/internal/storage/pgparcel"
)

type workerFactories struct {
	newStorage       func(cfg *config.Config) (repo poller.Repository, closeFn func(), err error)
	newProducer      func(cfg *config.Config) poller.Producer
	newRateLimiter   func(cfg *config.Config) poller.RateLimiter
	newCarrierClient func(cfg *config.Config) carrier.Client
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (poller.Repository, func(), error) {
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgparcel.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newProducer: func(cfg *config.Config) poller.Producer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
		newRateLimiter: func(cfg *config.Config) poller.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
		newCarrierClient: func(cfg *config.Config) carrier.Client {
			// Если задан carrier-proxy сервер — ходим в него по HTTP.
			// Иначе — fallback на локальный fake (детерминированные payload'ы).
			if cfg.ParcelBox.CarrierServerBaseURL != "" && cfg.ParcelBox.CarrierServerMode == "http" {
				return opserver.New(cfg.ParcelBox.CarrierServerBaseURL, cfg.ParcelBox.CarrierServerAPIKey)
			}
			return fake.New()
		},
	}
}

func plannerConfigFrom(cfg *config.Config) poller.PlannerConfig {
	return poller.PlannerConfig{
		ActiveMinDelay: time.Duration(cfg.ParcelBox.WorkerNextCheckActiveMinSeconds) * time.Second,
		ActiveMaxDelay: time.Duration(cfg.ParcelBox.WorkerNextCheckActiveMaxSeconds) * time.Second,
		UnknownDelay:   time.Duration(cfg.ParcelBox.WorkerNextCheckUnknownSeconds) * time.Second,
		Backoff1:       time.Duration(cfg.ParcelBox.WorkerBackoff1Seconds) * time.Second,
		Backoff2:       time.Duration(cfg.ParcelBox.WorkerBackoff2Seconds) * time.Second,
		Backoff3:       time.Duration(cfg.ParcelBox.WorkerBackoff3Seconds) * time.Second,
		Backoff4:       time.Duration(cfg.ParcelBox.WorkerBackoff4Seconds) * time.Second,
	}
}

func buildPoller(cfg *config.Config, f workerFactories) (*poller.Poller, func(), error) {
	topic := cfg.Kafka.ParcelUpdatedTopicName
	if topic == "" {
		topic = "parcel.updated"
	}

	pollInterval := time.Duration(cfg.ParcelBox.WorkerPollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	batchSize := cfg.ParcelBox.WorkerBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	concurrency := cfg.ParcelBox.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	lease := time.Duration(cfg.ParcelBox.WorkerLeaseSeconds) * time.Second
	if lease <= 0 {
		lease = 120 * time.Second
	}
	rlPerMin := int64(cfg.ParcelBox.WorkerRateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 120
	}

	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return nil, nil, err
	}

	producer := f.newProducer(cfg)
	rl := f.newRateLimiter(cfg)
	carrierClient := f.newCarrierClient(cfg)

	p := poller.New(repo, carrierClient, producer, rl, topic).
		WithSettings(pollInterval, batchSize, concurrency, lease, rlPerMin).
		WithPlanner(plannerConfigFrom(cfg)).
		WithCarrierRateLimits(cfg.ParcelBox.WorkerCarrierRateLimitsPerMinute)

	return p, closeFn, nil
}

func RunParcelWorker(ctx context.Context, cfg *config.Config, f workerFactories, swaggerPath string) error {
	p, closeFn, err := buildPoller(cfg, f)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr:    cfg.ParcelBox.WorkerHTTPAddr,
			swaggerPath: swaggerPath,
			poller:      p,
			cfg:         cfg,
		})
	}()

	pollErr := make(chan error, 1)
	go func() {
		pollErr <- p.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	case err := <-pollErr:
		return err
	}
}
