//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpair/nodalpair/internal/domain/event"
	"github.com/nodalpair/nodalpair/internal/infrastructure/kafka"
	pkgkafka "github.com/nodalpair/nodalpair/pkg/kafka"
	"github.com/nodalpair/nodalpair/pkg/testutil"
)

func TestPublisher_Integration(t *testing.T) {
	ctx := context.Background()
	kc := testutil.NewKafkaContainer(ctx, t)
	defer kc.Cleanup(t)

	producer, err := pkgkafka.NewProducer(pkgkafka.Config{Brokers: kc.Brokers, ClientID: "nodalpair-test"})
	require.NoError(t, err)
	defer producer.Close()

	pub := kafka.NewPublisher(producer, "pairing.events", slog.New(slog.NewTextHandler(io.Discard, nil)))
	completed := event.NewPairingRunCompleted("run-it", "CONVERGED", 2, 1, 1, 1, "0.300")
	require.NoError(t, pub.Publish(ctx, completed))

	messages := kc.ReadMessages(t, "pairing.events", 1, 30*time.Second)
	require.Len(t, messages, 1)
	assert.Equal(t, "run-it", string(messages[0].Key))

	var got event.PairingRunCompleted
	require.NoError(t, json.Unmarshal(messages[0].Value, &got))
	assert.Equal(t, completed.EventID(), got.EventID())
	assert.Equal(t, 2, got.Pairs)
	assert.Equal(t, "0.300", got.TotalDifference)
}
