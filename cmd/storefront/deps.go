package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"storefront-service/internal/config"
	"storefront-service/internal/stores/kafka"
	"storefront-service/internal/stores/postgres"
	"storefront-service/internal/stripecli"
	"storefront-service/pkg/logkey"
)

func openLedger(ctx context.Context, migrate bool) (*sql.DB, *postgres.Conf, error) {
	if err := cfg.Require(config.KeyDatabaseURL); err != nil {
		return nil, nil, err
	}
	db, err := postgres.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	store, err := postgres.NewConf(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, store, nil
}

func newStripeClient() (*stripecli.Client, error) {
	if err := cfg.Require(config.KeyStripeSecretKey); err != nil {
		return nil, err
	}
	return stripecli.New(stripecli.Config{
		SecretKey:         cfg.StripeSecretKey,
		PublishableKey:    cfg.StripePublishableKey,
		WebhookSecret:     cfg.StripeWebhookSecret,
		APIURL:            cfg.StripeAPIURL,
		MaxNetworkRetries: cfg.StripeMaxRetries,
	})
}

// newPublisher returns nil when no brokers are configured. An unreachable
// cluster is logged and kept; producing is best effort.
func newPublisher(ctx context.Context) (*kafka.Conf, error) {
	if len(cfg.KafkaBrokers) == 0 {
		slog.Info("kafka brokers not configured, events disabled")
		return nil, nil
	}
	k, err := kafka.NewConf(cfg.KafkaBrokers, cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := k.Ping(pingCtx); err != nil {
		slog.Warn("kafka not reachable at startup", slog.String(logkey.ERROR, err.Error()))
	}
	return k, nil
}
