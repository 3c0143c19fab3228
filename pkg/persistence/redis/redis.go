// Package redis provides Redis-backed persistence. Entities are JSON values
// keyed by ID, with per-organization index sets and time-ordered sorted sets
// used for retention pruning.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/hookbridge/hookbridge/pkg/models"
	"github.com/hookbridge/hookbridge/pkg/persistence"
)

const keyPrefix = "hookbridge"

// Persistence implements persistence.Persistence on Redis.
type Persistence struct {
	client        redis.UniversalClient
	installations *installationRepository
	subscriptions *subscriptionRepository
	dispatches    *recordRepository[*models.DispatchRecord]
	deliveries    *recordRepository[*models.DeliveryRecord]
}

// NewPersistence connects to the Redis instance named by a redis:// URL.
func NewPersistence(url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return NewPersistenceWithClient(redis.NewClient(opts)), nil
}

// NewPersistenceWithClient wraps an existing client. Used by tests.
func NewPersistenceWithClient(client redis.UniversalClient) *Persistence {
	return &Persistence{
		client:        client,
		installations: &installationRepository{client: client},
		subscriptions: &subscriptionRepository{client: client},
		dispatches: &recordRepository[*models.DispatchRecord]{
			client: client,
			kind:   "dispatch",
			indexOf: func(r *models.DispatchRecord) (string, string, time.Time) {
				return r.ID, r.OrganizationID, r.CreatedAt
			},
			scopeOf: func(r *models.DispatchRecord) string { return r.OrganizationID },
		},
		deliveries: &recordRepository[*models.DeliveryRecord]{
			client: client,
			kind:   "delivery",
			indexOf: func(r *models.DeliveryRecord) (string, string, time.Time) {
				return r.ID, r.OrganizationID, r.CreatedAt
			},
			scopeOf: func(r *models.DeliveryRecord) string { return r.SubscriptionID },
		},
	}
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

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func entityKey(kind, id string) string {
	return strings.Join([]string{keyPrefix, kind, id}, ":")
}

func scopeKey(kind, scope string) string {
	return strings.Join([]string{keyPrefix, kind, "scope", scope}, ":")
}

func timeIndexKey(kind string) string {
	return strings.Join([]string{keyPrefix, kind, "by_time"}, ":")
}

// Installations

type installationRepository struct {
	client redis.UniversalClient
}

func (r *installationRepository) Save(ctx context.Context, installation *models.Installation) error {
	data, err := json.Marshal(installation)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, entityKey("installation", installation.ID), data, 0)
	pipe.SAdd(ctx, scopeKey("installation", installation.OrganizationID), installation.ID)

	_, err = pipe.Exec(ctx)

	return err
}

func (r *installationRepository) GetByID(ctx context.Context, id string) (*models.Installation, error) {
	data, err := r.client.Get(ctx, entityKey("installation", id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrNotFound
		}

		return nil, err
	}

	installation := &models.Installation{}
	if err := json.Unmarshal(data, installation); err != nil {
		return nil, err
	}

	return installation, nil
}

func (r *installationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Installation, error) {
	ids, err := r.client.SMembers(ctx, scopeKey("installation", organizationID)).Result()
	if err != nil {
		return nil, err
	}

	installations := make([]*models.Installation, 0, len(ids))

	for _, id := range ids {
		installation, err := r.GetByID(ctx, id)
		if err != nil {
			if persistence.IsNotFound(err) {
				continue
			}

			return nil, err
		}

		installations = append(installations, installation)
	}

	return installations, nil
}

func (r *installationRepository) Delete(ctx context.Context, id string) error {
	installation, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, entityKey("installation", id))
	pipe.SRem(ctx, scopeKey("installation", installation.OrganizationID), id)

	_, err = pipe.Exec(ctx)

	return err
}

// Subscriptions

type subscriptionRepository struct {
	client redis.UniversalClient
}

func (r *subscriptionRepository) Save(ctx context.Context, subscription *models.Subscription) error {
	data, err := json.Marshal(subscription)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, entityKey("subscription", subscription.ID), data, 0)
	pipe.SAdd(ctx, scopeKey("subscription", subscription.OrganizationID), subscription.ID)

	_, err = pipe.Exec(ctx)

	return err
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	data, err := r.client.Get(ctx, entityKey("subscription", id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrNotFound
		}

		return nil, err
	}

	subscription := &models.Subscription{}
	if err := json.Unmarshal(data, subscription); err != nil {
		return nil, err
	}

	return subscription, nil
}

func (r *subscriptionRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Subscription, error) {
	ids, err := r.client.SMembers(ctx, scopeKey("subscription", organizationID)).Result()
	if err != nil {
		return nil, err
	}

	subscriptions := make([]*models.Subscription, 0, len(ids))

	for _, id := range ids {
		subscription, err := r.GetByID(ctx, id)
		if err != nil {
			if persistence.IsNotFound(err) {
				continue
			}

			return nil, err
		}

		subscriptions = append(subscriptions, subscription)
	}

	return subscriptions, nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, id string) error {
	subscription, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, entityKey("subscription", id))
	pipe.SRem(ctx, scopeKey("subscription", subscription.OrganizationID), id)

	_, err = pipe.Exec(ctx)

	return err
}

// Dispatch and delivery records share the same storage shape: the JSON value,
// a scope index set, and a time-ordered sorted set for pruning.

type recordRepository[T any] struct {
	client  redis.UniversalClient
	kind    string
	indexOf func(T) (id, organizationID string, createdAt time.Time)
	scopeOf func(T) string
}

func (r *recordRepository[T]) Save(ctx context.Context, record T) error {
	id, _, createdAt := r.indexOf(record)

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, entityKey(r.kind, id), data, 0)
	pipe.SAdd(ctx, scopeKey(r.kind, r.scopeOf(record)), id)
	pipe.ZAdd(ctx, timeIndexKey(r.kind), redis.Z{
		Score:  float64(createdAt.Unix()),
		Member: id,
	})

	_, err = pipe.Exec(ctx)

	return err
}

func (r *recordRepository[T]) get(ctx context.Context, id string) (T, error) {
	var record T

	data, err := r.client.Get(ctx, entityKey(r.kind, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return record, persistence.ErrNotFound
		}

		return record, err
	}

	if err := json.Unmarshal(data, &record); err != nil {
		return record, err
	}

	return record, nil
}

func (r *recordRepository[T]) listByScope(ctx context.Context, scope string) ([]T, error) {
	ids, err := r.client.SMembers(ctx, scopeKey(r.kind, scope)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]T, 0, len(ids))

	for _, id := range ids {
		record, err := r.get(ctx, id)
		if err != nil {
			if persistence.IsNotFound(err) {
				continue
			}

			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

func (r *recordRepository[T]) ListByOrganization(ctx context.Context, organizationID string) ([]T, error) {
	return r.listByScope(ctx, organizationID)
}

func (r *recordRepository[T]) ListBySubscription(ctx context.Context, subscriptionID string) ([]T, error) {
	return r.listByScope(ctx, subscriptionID)
}

func (r *recordRepository[T]) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	maxScore := strconv.FormatInt(cutoff.Unix()-1, 10)

	ids, err := r.client.ZRangeByScore(ctx, timeIndexKey(r.kind), &redis.ZRangeBy{
		Min: "-inf",
		Max: maxScore,
	}).Result()
	if err != nil {
		return 0, err
	}

	deleted := 0

	for _, id := range ids {
		record, err := r.get(ctx, id)
		if err != nil {
			if persistence.IsNotFound(err) {
				r.client.ZRem(ctx, timeIndexKey(r.kind), id)

				continue
			}

			return deleted, err
		}

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, entityKey(r.kind, id))
		pipe.SRem(ctx, scopeKey(r.kind, r.scopeOf(record)), id)
		pipe.ZRem(ctx, timeIndexKey(r.kind), id)

		if _, err := pipe.Exec(ctx); err != nil {
			return deleted, err
		}

		deleted++
	}

	return deleted, nil
}
