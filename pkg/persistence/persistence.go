// Package persistence defines the storage contracts for installations,
// webhook subscriptions, and dispatch/delivery records.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/hookbridge/hookbridge/pkg/models"
)

var ErrNotFound = errors.New("record not found")

// IsNotFound reports whether an error is the repository not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type InstallationRepository interface {
	Save(ctx context.Context, installation *models.Installation) error
	GetByID(ctx context.Context, id string) (*models.Installation, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*models.Installation, error)
	Delete(ctx context.Context, id string) error
}

type SubscriptionRepository interface {
	Save(ctx context.Context, subscription *models.Subscription) error
	GetByID(ctx context.Context, id string) (*models.Subscription, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*models.Subscription, error)
	Delete(ctx context.Context, id string) error
}

type DispatchRepository interface {
	Save(ctx context.Context, record *models.DispatchRecord) error
	ListByOrganization(ctx context.Context, organizationID string) ([]*models.DispatchRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type DeliveryRepository interface {
	Save(ctx context.Context, record *models.DeliveryRecord) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*models.DeliveryRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type Persistence interface {
	Installations() InstallationRepository
	Subscriptions() SubscriptionRepository
	Dispatches() DispatchRepository
	Deliveries() DeliveryRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
