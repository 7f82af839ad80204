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
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"dossier/internal/audit"
	"dossier/internal/platform/config"
	"dossier/internal/platform/kafka"
	id "dossier/pkg/domain"
	"dossier/pkg/testutil/containers"
)

func TestAuditEventsReachTopic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetKafka(t).Broker
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	topic := "dossier.audit." + id.NewApplicantID().String()
	producer, err := kafka.NewProducer(ctx, config.KafkaConfig{Brokers: broker, AuditTopic: topic, Partitions: 2})
	require.NoError(t, err)
	t.Cleanup(producer.Close)

	details, err := kadm.NewClient(producer).ListTopics(ctx, topic)
	require.NoError(t, err)
	require.True(t, details.Has(topic))
	assert.Len(t, details[topic].Partitions, 2)

	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 2), "existing topic is not an error")

	applicant := id.NewApplicantID()
	pub := audit.NewPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)), audit.WithKafka(producer, topic))
	pub.Emit(ctx, audit.Event{Action: audit.ActionApplicationCreated, ActorID: applicant, ApplicantID: applicant})
	require.NoError(t, producer.Flush(ctx))

	consumer, err := kgo.NewClient(kgo.SeedBrokers(broker), kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()))
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.NotEmpty(t, records)
	assert.Equal(t, applicant.String(), string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, audit.ActionApplicationCreated, got.Action)
}
