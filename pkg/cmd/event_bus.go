// Package cmd wires shared runtime collaborators for the hookbridge binaries.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/hookbridge/hookbridge/pkg/channels/gochannel"
	"github.com/hookbridge/hookbridge/pkg/channels/kafka"
	"github.com/hookbridge/hookbridge/pkg/eventbus"
)

// NewChannel creates the watermill publisher/subscriber pair for the given
// provider. The gochannel provider is in-process only and meant for local
// development and tests.
func NewChannel(provider, serviceName string, logger *slog.Logger) (message.Publisher, message.Subscriber) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return pub, sub
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			panic(fmt.Errorf("failed to create GoChannel pub/sub: %w", err))
		}

		return pub, sub
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}

func NewEventBus(provider, serviceName string, logger *slog.Logger) (eventbus.EventBus, message.Publisher, message.Subscriber) {
	pub, sub := NewChannel(provider, serviceName, logger)

	return eventbus.NewWatermillEventBus(pub, sub), pub, sub
}
