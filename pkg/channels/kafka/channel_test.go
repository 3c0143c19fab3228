package kafka_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkatc "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkachannel "github.com/hookbridge/hookbridge/pkg/channels/kafka"
	"github.com/hookbridge/hookbridge/pkg/events"
)

var (
	kafkaContainer *kafkatc.KafkaContainer
	brokers        string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error

	kafkaContainer, err = kafkatc.Run(ctx, "confluentinc/confluent-local:7.7.0", testcontainers.WithEnv(map[string]string{
		"KAFKA_CREATE_TOPICS": "true",
	}))
	if err != nil {
		panic("Failed to start Kafka container: " + err.Error())
	}

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	if err != nil {
		panic("Failed to get Kafka brokers: " + err.Error())
	}

	brokers = kafkaBrokers[0]

	code := m.Run()

	if err := kafkaContainer.Terminate(ctx); err != nil {
		panic("Failed to terminate Kafka container: " + err.Error())
	}

	os.Exit(code)
}

func TestCreateChannel_MissingBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	pub, sub, err := kafkachannel.CreateChannel(watermill.NopLogger{}, "hookbridge-test")

	assert.Error(t, err)
	assert.Nil(t, pub)
	assert.Nil(t, sub)
}

func TestCreateChannel_PublishSubscribe(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", brokers)

	pub, sub, err := kafkachannel.CreateChannel(watermill.NopLogger{}, "hookbridge-test")
	require.NoError(t, err)

	defer func() {
		require.NoError(t, pub.Close())
		require.NoError(t, sub.Close())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	messages, err := sub.Subscribe(ctx, events.DeliveryTopic)
	require.NoError(t, err)

	// Give the consumer group time to join before publishing.
	time.Sleep(2 * time.Second)

	msg := message.NewMessage(watermill.NewULID(), []byte(`{"event":"lead.created"}`))
	msg.Metadata.Set(events.EventMetadataKey, "org-test")

	require.NoError(t, pub.Publish(events.DeliveryTopic, msg))

	select {
	case received := <-messages:
		assert.Equal(t, msg.UUID, received.UUID)
		assert.JSONEq(t, string(msg.Payload), string(received.Payload))
		assert.Equal(t, "org-test", received.Metadata.Get(events.EventMetadataKey))
		received.Ack()
	case <-time.After(30 * time.Second):
		t.Fatal("did not receive the published message within timeout")
	}
}

func TestCreateChannel_SeparateConsumerGroups(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", brokers)

	apiPub, apiSub, err := kafkachannel.CreateChannel(watermill.NopLogger{}, "hookbridge-api")
	require.NoError(t, err)

	_, workerSub, err := kafkachannel.CreateChannel(watermill.NopLogger{}, "hookbridge-worker")
	require.NoError(t, err)

	defer func() {
		require.NoError(t, apiPub.Close())
		require.NoError(t, apiSub.Close())
		require.NoError(t, workerSub.Close())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	apiMessages, err := apiSub.Subscribe(ctx, events.Topic)
	require.NoError(t, err)

	workerMessages, err := workerSub.Subscribe(ctx, events.Topic)
	require.NoError(t, err)

	time.Sleep(2 * time.Second)

	msg := message.NewMessage(watermill.NewULID(), []byte(`{"type":"integration.event.received"}`))
	require.NoError(t, apiPub.Publish(events.Topic, msg))

	// Both services run their own consumer group, so each one sees the event.
	for name, ch := range map[string]<-chan *message.Message{"api": apiMessages, "worker": workerMessages} {
		select {
		case received := <-ch:
			assert.Equal(t, msg.UUID, received.UUID, name)
			received.Ack()
		case <-time.After(30 * time.Second):
			t.Fatalf("%s consumer group did not receive the message", name)
		}
	}
}
