package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hookbridge/hookbridge/pkg/models"
)

func TestInstallation_Subscribed(t *testing.T) {
	t.Parallel()

	// An empty event list means every event.
	all := models.Installation{}
	assert.True(t, all.Subscribed("lead.created"))
	assert.True(t, all.Subscribed("custom.event"))

	scoped := models.Installation{Events: []string{"lead.created", "submission.created"}}
	assert.True(t, scoped.Subscribed("lead.created"))
	assert.False(t, scoped.Subscribed("custom.event"))
}

func TestSubscription_Subscribed(t *testing.T) {
	t.Parallel()

	all := models.Subscription{}
	assert.True(t, all.Subscribed("anything.goes"))

	scoped := models.Subscription{Events: []string{"lead.created"}}
	assert.True(t, scoped.Subscribed("lead.created"))
	assert.False(t, scoped.Subscribed("submission.created"))
}
