package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hookbridge/hookbridge/pkg/models"
)

// DispatchRepository stores dispatch outcomes in the dispatch_records table.
type DispatchRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *DispatchRepository) Save(ctx context.Context, record *models.DispatchRecord) error {
	query := `
		INSERT INTO dispatch_records (
			id, organization_id, event_id, event_name, plugin_slug, installation_id,
			success, action, error, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.OrganizationID,
		record.EventID,
		record.EventName,
		record.PluginSlug,
		record.InstallationID,
		record.Success,
		record.Action,
		record.Error,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save dispatch record: %w", err)
	}

	return nil
}

func (r *DispatchRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*models.DispatchRecord, error) {
	query := `
		SELECT id, organization_id, event_id, event_name, plugin_slug, installation_id,
			success, action, error, created_at
		FROM dispatch_records
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatch records: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.DispatchRecord, 0)

	for rows.Next() {
		var record models.DispatchRecord

		err := rows.Scan(
			&record.ID,
			&record.OrganizationID,
			&record.EventID,
			&record.EventName,
			&record.PluginSlug,
			&record.InstallationID,
			&record.Success,
			&record.Action,
			&record.Error,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch record: %w", err)
		}

		records = append(records, &record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating dispatch records: %w", err)
	}

	return records, nil
}

func (r *DispatchRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return deleteOlderThan(ctx, r.db, "dispatch_records", cutoff)
}

// DeliveryRepository stores delivery attempt outcomes in the delivery_records
// table.
type DeliveryRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *DeliveryRepository) Save(ctx context.Context, record *models.DeliveryRecord) error {
	query := `
		INSERT INTO delivery_records (
			id, organization_id, subscription_id, event_name, status_code,
			success, error, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.OrganizationID,
		record.SubscriptionID,
		record.EventName,
		record.StatusCode,
		record.Success,
		record.Error,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save delivery record: %w", err)
	}

	return nil
}

func (r *DeliveryRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*models.DeliveryRecord, error) {
	query := `
		SELECT id, organization_id, subscription_id, event_name, status_code,
			success, error, created_at
		FROM delivery_records
		WHERE subscription_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery records: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.DeliveryRecord, 0)

	for rows.Next() {
		var record models.DeliveryRecord

		err := rows.Scan(
			&record.ID,
			&record.OrganizationID,
			&record.SubscriptionID,
			&record.EventName,
			&record.StatusCode,
			&record.Success,
			&record.Error,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery record: %w", err)
		}

		records = append(records, &record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating delivery records: %w", err)
	}

	return records, nil
}

func (r *DeliveryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return deleteOlderThan(ctx, r.db, "delivery_records", cutoff)
}

func deleteOlderThan(ctx context.Context, db *sql.DB, table string, cutoff time.Time) (int, error) {
	result, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune %s: %w", table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read prune result: %w", err)
	}

	return int(affected), nil
}
