package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/hookbridge/hookbridge/pkg/models"
	"github.com/hookbridge/hookbridge/pkg/persistence"
	"github.com/hookbridge/hookbridge/pkg/persistence/postgresql"
	"github.com/hookbridge/hookbridge/pkg/testutil"
)

var postgresContainer *postgres.PostgresContainer

func dropDB(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"delivery_records", "dispatch_records", "webhook_subscriptions", "installations", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("hookbridge_test"),
			postgres.WithUsername("hookbridge"),
			postgres.WithPassword("hookbridge"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDB(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDB(ctx, t, databaseURL)

		err = store.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return store, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	for _, table := range []string{"installations", "webhook_subscriptions", "dispatch_records", "delivery_records"} {
		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table+" table should exist")
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	err := store.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestInstallationRepository_SaveAndGet(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	installation := testutil.CreateTestInstallation(
		testutil.WithInstallationEvents("lead.created"),
	)

	err := store.Installations().Save(ctx, installation)
	require.NoError(t, err)

	retrieved, err := store.Installations().GetByID(ctx, installation.ID)
	require.NoError(t, err)

	assert.Equal(t, installation.ID, retrieved.ID)
	assert.Equal(t, installation.OrganizationID, retrieved.OrganizationID)
	assert.Equal(t, installation.PluginSlug, retrieved.PluginSlug)
	assert.Equal(t, installation.Config, retrieved.Config)
	assert.Equal(t, []string{"lead.created"}, retrieved.Events)
	assert.True(t, retrieved.Active)

	// Saving the same ID again updates in place.
	installation.Active = false
	installation.Config["webhook_url"] = "https://hooks.slack.com/services/updated"

	err = store.Installations().Save(ctx, installation)
	require.NoError(t, err)

	updated, err := store.Installations().GetByID(ctx, installation.ID)
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "https://hooks.slack.com/services/updated", updated.Config["webhook_url"])

	_, err = store.Installations().GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestInstallationRepository_ListByOrganization(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	first := testutil.CreateTestInstallation()
	second := testutil.CreateTestInstallation()
	other := testutil.CreateTestInstallation(testutil.WithOrganization("org-other"))

	for _, installation := range []*models.Installation{first, second, other} {
		require.NoError(t, store.Installations().Save(ctx, installation))
	}

	installations, err := store.Installations().ListByOrganization(ctx, first.OrganizationID)
	require.NoError(t, err)
	assert.Len(t, installations, 2)

	installations, err = store.Installations().ListByOrganization(ctx, "org-other")
	require.NoError(t, err)
	assert.Len(t, installations, 1)
}

func TestInstallationRepository_Delete(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	installation := testutil.CreateTestInstallation()
	require.NoError(t, store.Installations().Save(ctx, installation))

	err := store.Installations().Delete(ctx, installation.ID)
	require.NoError(t, err)

	_, err = store.Installations().GetByID(ctx, installation.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	err = store.Installations().Delete(ctx, installation.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSubscriptionRepository_SaveAndGet(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	subscription := testutil.CreateTestSubscription(
		testutil.WithSubscriptionEvents("lead.created", "submission.created"),
	)

	err := store.Subscriptions().Save(ctx, subscription)
	require.NoError(t, err)

	retrieved, err := store.Subscriptions().GetByID(ctx, subscription.ID)
	require.NoError(t, err)

	assert.Equal(t, subscription.ID, retrieved.ID)
	assert.Equal(t, subscription.URL, retrieved.URL)
	assert.Equal(t, subscription.Secret, retrieved.Secret)
	assert.Equal(t, []string{"lead.created", "submission.created"}, retrieved.Events)
	assert.True(t, retrieved.Active)

	_, err = store.Subscriptions().GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSubscriptionRepository_ListAndDelete(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	subscription := testutil.CreateTestSubscription()
	require.NoError(t, store.Subscriptions().Save(ctx, subscription))

	subscriptions, err := store.Subscriptions().ListByOrganization(ctx, subscription.OrganizationID)
	require.NoError(t, err)
	require.Len(t, subscriptions, 1)
	assert.Equal(t, subscription.ID, subscriptions[0].ID)

	err = store.Subscriptions().Delete(ctx, subscription.ID)
	require.NoError(t, err)

	err = store.Subscriptions().Delete(ctx, subscription.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestDispatchRepository_SaveListAndPrune(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	old := &models.DispatchRecord{
		ID:             uuid.NewString(),
		OrganizationID: "org-test",
		EventID:        uuid.NewString(),
		EventName:      "lead.created",
		PluginSlug:     "slack",
		InstallationID: uuid.NewString(),
		Success:        true,
		Action:         "sent",
		CreatedAt:      time.Now().UTC().Add(-48 * time.Hour),
	}
	recent := &models.DispatchRecord{
		ID:             uuid.NewString(),
		OrganizationID: "org-test",
		EventID:        uuid.NewString(),
		EventName:      "lead.created",
		PluginSlug:     "mailchimp",
		InstallationID: uuid.NewString(),
		Success:        false,
		Error:          "Missing email in lead payload",
		CreatedAt:      time.Now().UTC(),
	}

	require.NoError(t, store.Dispatches().Save(ctx, old))
	require.NoError(t, store.Dispatches().Save(ctx, recent))

	records, err := store.Dispatches().ListByOrganization(ctx, "org-test")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	deleted, err := store.Dispatches().DeleteOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	records, err = store.Dispatches().ListByOrganization(ctx, "org-test")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, recent.ID, records[0].ID)
	assert.Equal(t, "Missing email in lead payload", records[0].Error)
}

func TestDeliveryRepository_SaveListAndPrune(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	subscriptionID := uuid.NewString()

	old := &models.DeliveryRecord{
		ID:             uuid.NewString(),
		OrganizationID: "org-test",
		SubscriptionID: subscriptionID,
		EventName:      "lead.created",
		StatusCode:     200,
		Success:        true,
		CreatedAt:      time.Now().UTC().Add(-48 * time.Hour),
	}
	recent := &models.DeliveryRecord{
		ID:             uuid.NewString(),
		OrganizationID: "org-test",
		SubscriptionID: subscriptionID,
		EventName:      "lead.created",
		StatusCode:     502,
		Success:        false,
		Error:          "delivery failed with status 502",
		CreatedAt:      time.Now().UTC(),
	}
	otherSubscription := &models.DeliveryRecord{
		ID:             uuid.NewString(),
		OrganizationID: "org-test",
		SubscriptionID: uuid.NewString(),
		EventName:      "submission.created",
		StatusCode:     200,
		Success:        true,
		CreatedAt:      time.Now().UTC(),
	}

	for _, record := range []*models.DeliveryRecord{old, recent, otherSubscription} {
		require.NoError(t, store.Deliveries().Save(ctx, record))
	}

	records, err := store.Deliveries().ListBySubscription(ctx, subscriptionID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	deleted, err := store.Deliveries().DeleteOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	records, err = store.Deliveries().ListBySubscription(ctx, subscriptionID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, recent.ID, records[0].ID)
	assert.Equal(t, 502, records[0].StatusCode)
}
