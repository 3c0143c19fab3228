package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hookbridge/hookbridge/pkg/models"
	"github.com/hookbridge/hookbridge/pkg/persistence"
)

// SubscriptionRepository stores webhook subscriptions in the
// webhook_subscriptions table.
type SubscriptionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *SubscriptionRepository) Save(ctx context.Context, subscription *models.Subscription) error {
	events, err := json.Marshal(subscription.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription events: %w", err)
	}

	query := `
		INSERT INTO webhook_subscriptions (
			id, organization_id, url, secret, events, active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			url = EXCLUDED.url,
			secret = EXCLUDED.secret,
			events = EXCLUDED.events,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		subscription.ID,
		subscription.OrganizationID,
		subscription.URL,
		subscription.Secret,
		events,
		subscription.Active,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	query := `
		SELECT id, organization_id, url, secret, events, active, created_at, updated_at
		FROM webhook_subscriptions
		WHERE id = $1
	`

	subscription, err := scanSubscription(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}

	return subscription, nil
}

func (r *SubscriptionRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Subscription, error) {
	query := `
		SELECT id, organization_id, url, secret, events, active, created_at, updated_at
		FROM webhook_subscriptions
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	subscriptions := make([]*models.Subscription, 0)

	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}

		subscriptions = append(subscriptions, subscription)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subscriptions, nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM webhook_subscriptions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}

	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		subscription models.Subscription
		events       []byte
	)

	err := row.Scan(
		&subscription.ID,
		&subscription.OrganizationID,
		&subscription.URL,
		&subscription.Secret,
		&events,
		&subscription.Active,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(events, &subscription.Events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription events: %w", err)
	}

	return &subscription, nil
}
