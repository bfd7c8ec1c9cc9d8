package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"storefront-service/pkg/logkey"
)

const deliveryTimeout = 30 * time.Second

type Conf struct {
	client *kgo.Client
}

func NewConf(brokers []string, clientID string) (*Conf, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
		kgo.MaxBufferedRecords(1024),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Conf{client: client}, nil
}

// ProduceMessage hands one record to the client and returns without waiting
// for the broker. Failures, including a full buffer, are logged from the
// produce callback.
func (c *Conf) ProduceMessage(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	c.client.TryProduce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			slog.Error("failed to produce message", slog.String("Topic", r.Topic), slog.String(logkey.ERROR, err.Error()))
		}
	})
	return nil
}

// PublishJSON encodes v as JSON and produces it to topic keyed by key.
func (c *Conf) PublishJSON(ctx context.Context, topic, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", topic, err)
	}
	return c.ProduceMessage(ctx, topic, []byte(key), value)
}

func (c *Conf) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

// Flush waits for buffered records until ctx is done.
func (c *Conf) Flush(ctx context.Context) error {
	return c.client.Flush(ctx)
}

func (c *Conf) Close() {
	c.client.Close()
}
