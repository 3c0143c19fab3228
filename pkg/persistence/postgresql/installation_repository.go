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

// InstallationRepository stores plugin installations in the installations
// table. Config and event lists are kept as JSONB.
type InstallationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *InstallationRepository) Save(ctx context.Context, installation *models.Installation) error {
	config, err := json.Marshal(installation.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal installation config: %w", err)
	}

	events, err := json.Marshal(installation.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal installation events: %w", err)
	}

	query := `
		INSERT INTO installations (
			id, organization_id, plugin_slug, config, events, active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			plugin_slug = EXCLUDED.plugin_slug,
			config = EXCLUDED.config,
			events = EXCLUDED.events,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		installation.ID,
		installation.OrganizationID,
		installation.PluginSlug,
		config,
		events,
		installation.Active,
		installation.CreatedAt,
		installation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save installation: %w", err)
	}

	return nil
}

func (r *InstallationRepository) GetByID(ctx context.Context, id string) (*models.Installation, error) {
	query := `
		SELECT id, organization_id, plugin_slug, config, events, active, created_at, updated_at
		FROM installations
		WHERE id = $1
	`

	installation, err := scanInstallation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("failed to scan installation: %w", err)
	}

	return installation, nil
}

func (r *InstallationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Installation, error) {
	query := `
		SELECT id, organization_id, plugin_slug, config, events, active, created_at, updated_at
		FROM installations
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query installations: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	installations := make([]*models.Installation, 0)

	for rows.Next() {
		installation, err := scanInstallation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installation: %w", err)
		}

		installations = append(installations, installation)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating installations: %w", err)
	}

	return installations, nil
}

func (r *InstallationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM installations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete installation: %w", err)
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

func scanInstallation(row rowScanner) (*models.Installation, error) {
	var (
		installation models.Installation
		config       []byte
		events       []byte
	)

	err := row.Scan(
		&installation.ID,
		&installation.OrganizationID,
		&installation.PluginSlug,
		&config,
		&events,
		&installation.Active,
		&installation.CreatedAt,
		&installation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(config, &installation.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal installation config: %w", err)
	}

	if err := json.Unmarshal(events, &installation.Events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal installation events: %w", err)
	}

	return &installation, nil
}
