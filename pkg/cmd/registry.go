package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hookbridge/hookbridge/pkg/dispatch"
	"github.com/hookbridge/hookbridge/pkg/plugin"
	"github.com/hookbridge/hookbridge/pkg/plugins/mailchimp"
	makeplugin "github.com/hookbridge/hookbridge/pkg/plugins/make"
	"github.com/hookbridge/hookbridge/pkg/plugins/slack"
	"github.com/hookbridge/hookbridge/pkg/plugins/telegram"
)

// NewRegistry builds the plugin registry with every built-in integration
// registered against a shared provider HTTP client.
func NewRegistry(logger *slog.Logger, providerTimeout time.Duration) (*plugin.Registry, *dispatch.Client) {
	client := dispatch.NewClient(providerTimeout)
	registry := plugin.NewRegistry(logger)

	definitions := []*plugin.Definition{
		slack.Definition(client),
		telegram.Definition(client),
		mailchimp.Definition(client),
		makeplugin.Definition(client),
	}

	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			panic(fmt.Errorf("failed to register plugin '%s': %w", def.Slug, err))
		}
	}

	return registry, client
}
