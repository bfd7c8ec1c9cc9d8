package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfRequiresBrokers(t *testing.T) {
	_, err := NewConf(nil, "storefront")
	assert.Error(t, err)
}

func TestPublishJSONRejectsUnencodable(t *testing.T) {
	// the client dials lazily, so no broker is needed here
	c, err := NewConf([]string{"127.0.0.1:1"}, "storefront-test")
	require.NoError(t, err)
	defer c.Close()

	err = c.PublishJSON(context.Background(), TopicOrderCreated, "order-1", make(chan int))
	assert.ErrorContains(t, err, "failed to marshal event")
}

func TestPublishJSONDoesNotWaitForBroker(t *testing.T) {
	c, err := NewConf([]string{"127.0.0.1:1"}, "storefront-test")
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	err = c.PublishJSON(context.Background(), TopicOrderCreated, "order-1", OrderEvent{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
