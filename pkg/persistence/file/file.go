// Package file provides file-based persistence for local development and
// tests. Each record is one JSON document under the root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hookbridge/hookbridge/pkg/models"
	"github.com/hookbridge/hookbridge/pkg/persistence"
)

const dirPerm = 0o755
const filePerm = 0o644

// Persistence implements persistence.Persistence on the local filesystem.
type Persistence struct {
	root          string
	installations *installationRepository
	subscriptions *subscriptionRepository
	dispatches    *dispatchRepository
	deliveries    *deliveryRepository
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		installations: &installationRepository{dir: filepath.Join(cleanRoot, "installations")},
		subscriptions: &subscriptionRepository{dir: filepath.Join(cleanRoot, "subscriptions")},
		dispatches:    &dispatchRepository{dir: filepath.Join(cleanRoot, "dispatches")},
		deliveries:    &deliveryRepository{dir: filepath.Join(cleanRoot, "deliveries")},
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

// Close performs any necessary cleanup. Nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Shared document helpers.

func writeDoc(dir, id string, doc any) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}

	return os.WriteFile(filepath.Join(dir, id+".json"), data, filePerm)
}

func readDoc(dir, id string, doc any) error {
	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.ErrNotFound
		}

		return fmt.Errorf("failed to read document %s: %w", id, err)
	}

	return json.Unmarshal(data, doc)
}

func deleteDoc(dir, id string) error {
	err := os.Remove(filepath.Join(dir, id+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return persistence.ErrNotFound
	}

	return err
}

func listDocs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}

	return ids, nil
}

// Installations

type installationRepository struct {
	dir string
}

func (r *installationRepository) Save(_ context.Context, installation *models.Installation) error {
	return writeDoc(r.dir, installation.ID, installation)
}

func (r *installationRepository) GetByID(_ context.Context, id string) (*models.Installation, error) {
	installation := &models.Installation{}
	if err := readDoc(r.dir, id, installation); err != nil {
		return nil, err
	}

	return installation, nil
}

func (r *installationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Installation, error) {
	ids, err := listDocs(r.dir)
	if err != nil {
		return nil, err
	}

	installations := make([]*models.Installation, 0, len(ids))

	for _, id := range ids {
		installation, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if installation.OrganizationID == organizationID {
			installations = append(installations, installation)
		}
	}

	return installations, nil
}

func (r *installationRepository) Delete(_ context.Context, id string) error {
	return deleteDoc(r.dir, id)
}

// Subscriptions

type subscriptionRepository struct {
	dir string
}

func (r *subscriptionRepository) Save(_ context.Context, subscription *models.Subscription) error {
	return writeDoc(r.dir, subscription.ID, subscription)
}

func (r *subscriptionRepository) GetByID(_ context.Context, id string) (*models.Subscription, error) {
	subscription := &models.Subscription{}
	if err := readDoc(r.dir, id, subscription); err != nil {
		return nil, err
	}

	return subscription, nil
}

func (r *subscriptionRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Subscription, error) {
	ids, err := listDocs(r.dir)
	if err != nil {
		return nil, err
	}

	subscriptions := make([]*models.Subscription, 0, len(ids))

	for _, id := range ids {
		subscription, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if subscription.OrganizationID == organizationID {
			subscriptions = append(subscriptions, subscription)
		}
	}

	return subscriptions, nil
}

func (r *subscriptionRepository) Delete(_ context.Context, id string) error {
	return deleteDoc(r.dir, id)
}

// Dispatch records

type dispatchRepository struct {
	dir string
}

func (r *dispatchRepository) Save(_ context.Context, record *models.DispatchRecord) error {
	return writeDoc(r.dir, record.ID, record)
}

func (r *dispatchRepository) ListByOrganization(_ context.Context, organizationID string) ([]*models.DispatchRecord, error) {
	ids, err := listDocs(r.dir)
	if err != nil {
		return nil, err
	}

	records := make([]*models.DispatchRecord, 0, len(ids))

	for _, id := range ids {
		record := &models.DispatchRecord{}
		if err := readDoc(r.dir, id, record); err != nil {
			return nil, err
		}

		if record.OrganizationID == organizationID {
			records = append(records, record)
		}
	}

	return records, nil
}

func (r *dispatchRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	return pruneDocs(r.dir, cutoff, func(id string) (time.Time, error) {
		record := &models.DispatchRecord{}
		if err := readDoc(r.dir, id, record); err != nil {
			return time.Time{}, err
		}

		return record.CreatedAt, nil
	})
}

// Delivery records

type deliveryRepository struct {
	dir string
}

func (r *deliveryRepository) Save(_ context.Context, record *models.DeliveryRecord) error {
	return writeDoc(r.dir, record.ID, record)
}

func (r *deliveryRepository) ListBySubscription(_ context.Context, subscriptionID string) ([]*models.DeliveryRecord, error) {
	ids, err := listDocs(r.dir)
	if err != nil {
		return nil, err
	}

	records := make([]*models.DeliveryRecord, 0, len(ids))

	for _, id := range ids {
		record := &models.DeliveryRecord{}
		if err := readDoc(r.dir, id, record); err != nil {
			return nil, err
		}

		if record.SubscriptionID == subscriptionID {
			records = append(records, record)
		}
	}

	return records, nil
}

func (r *deliveryRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	return pruneDocs(r.dir, cutoff, func(id string) (time.Time, error) {
		record := &models.DeliveryRecord{}
		if err := readDoc(r.dir, id, record); err != nil {
			return time.Time{}, err
		}

		return record.CreatedAt, nil
	})
}

func pruneDocs(dir string, cutoff time.Time, createdAt func(id string) (time.Time, error)) (int, error) {
	ids, err := listDocs(dir)
	if err != nil {
		return 0, err
	}

	deleted := 0

	for _, id := range ids {
		created, err := createdAt(id)
		if err != nil {
			return deleted, err
		}

		if created.Before(cutoff) {
			if err := deleteDoc(dir, id); err != nil {
				return deleted, err
			}

			deleted++
		}
	}

	return deleted, nil
}
