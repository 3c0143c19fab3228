// Package postgresql provides the PostgreSQL storage backend for
// installations, webhook subscriptions, and dispatch/delivery records.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/hookbridge/hookbridge/pkg/persistence"
	"github.com/hookbridge/hookbridge/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	installations *InstallationRepository
	subscriptions *SubscriptionRepository
	dispatches    *DispatchRepository
	deliveries    *DeliveryRepository
}

// NewPersistence connects to PostgreSQL and runs pending schema migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		installations: &InstallationRepository{db: database, logger: logger},
		subscriptions: &SubscriptionRepository{db: database, logger: logger},
		dispatches:    &DispatchRepository{db: database, logger: logger},
		deliveries:    &DeliveryRepository{db: database, logger: logger},
	}, nil
}

func (p *Persistence) Installations() persistence.InstallationRepository {
	return p.installations
}

func (p *Persistence) Subscriptions() persistence.SubscriptionRepository {
	return p.subscriptions
}

func (p *Persistence) Dispatches() persistence.DispatchRepository {
	return p.dispatches
}

func (p *Persistence) Deliveries() persistence.DeliveryRepository {
	return p.deliveries
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
