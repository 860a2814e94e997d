package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pos-engine/internal/adapters/storage"
	"pos-engine/internal/events"
	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
)

// BackupPrefix is the key prefix snapshots are stored under
const BackupPrefix = "backups/"

// backupService implements the BackupService interface
type backupService struct {
	repos     repositories.RepositoryManager
	store     storage.SnapshotStore
	retention int
	publisher events.Publisher
	logger    *logrus.Logger
}

// NewBackupService creates a new backup service. retention is the number of
// snapshots kept after each export; zero keeps all of them.
func NewBackupService(repos repositories.RepositoryManager, store storage.SnapshotStore, retention int, publisher events.Publisher, logger *logrus.Logger) BackupService {
	if logger == nil {
		logger = logrus.New()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &backupService{
		repos:     repos,
		store:     store,
		retention: retention,
		publisher: publisher,
		logger:    logger,
	}
}

// Export writes a snapshot of every table to the store
func (s *backupService) Export(ctx context.Context) (*BackupResult, error) {
	data, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	key := BackupPrefix + "pos-" + data.ExportedAt.UTC().Format("20060102T150405.000Z") + "-" + uuid.New().String()[:8] + ".json"
	if err := s.store.Put(ctx, key, payload); err != nil {
		return nil, fmt.Errorf("failed to store backup: %w", err)
	}

	result := &BackupResult{Key: key, Size: int64(len(payload)), Counts: data.Counts()}

	s.logger.WithFields(logrus.Fields{
		"key":  key,
		"size": result.Size,
	}).Info("Backup exported")

	if err := s.prune(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to prune old backups")
	}

	s.publisher.Publish(events.New(events.BackupExported, "backup", 0, result))
	return result, nil
}

// Snapshot reads every table into a BackupData. Reads run in one transaction
// so the snapshot is consistent.
func (s *backupService) Snapshot(ctx context.Context) (*models.BackupData, error) {
	data := &models.BackupData{
		Version:    models.BackupFormatVersion,
		ExportedAt: time.Now(),
	}

	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		shop, err := s.repos.ShopInfo().Get(txCtx)
		if err != nil && !repositories.IsNotFound(err) {
			return fmt.Errorf("failed to read shop info: %w", err)
		}
		data.ShopInfo = shop

		users, err := s.repos.Users().List(txCtx, nil)
		if err != nil {
			return fmt.Errorf("failed to read users: %w", err)
		}
		data.Users = make([]models.UserBackup, len(users))
		for i, u := range users {
			data.Users[i] = models.UserBackup{User: *u, PINHash: u.PINHash}
		}

		if data.Categories, err = collect(s.repos.Categories().List(txCtx, nil)); err != nil {
			return fmt.Errorf("failed to read categories: %w", err)
		}
		if data.Addons, err = collect(s.repos.Addons().List(txCtx, nil)); err != nil {
			return fmt.Errorf("failed to read addons: %w", err)
		}
		if data.AddonGroups, err = collect(s.repos.AddonGroups().List(txCtx, nil)); err != nil {
			return fmt.Errorf("failed to read addon groups: %w", err)
		}
		if data.Products, err = collect(s.repos.Products().List(txCtx, nil)); err != nil {
			return fmt.Errorf("failed to read products: %w", err)
		}
		if data.Recipes, err = collect(s.repos.Recipes().List(txCtx, nil)); err != nil {
			return fmt.Errorf("failed to read recipes: %w", err)
		}
		if data.Customers, err = collect(s.repos.Customers().List(txCtx, nil)); err != nil {
			return fmt.Errorf("failed to read customers: %w", err)
		}
		if data.Suppliers, err = collect(s.repos.Suppliers().List(txCtx, nil)); err != nil {
			return fmt.Errorf("failed to read suppliers: %w", err)
		}

		if data.Shifts, err = readPages(func(limit, offset int) ([]*models.Shift, error) {
			filters := models.ShiftFilters{}
			filters.Limit, filters.Offset = limit, offset
			return s.repos.Shifts().List(txCtx, filters)
		}); err != nil {
			return fmt.Errorf("failed to read shifts: %w", err)
		}
		if data.Sales, err = readPages(func(limit, offset int) ([]*models.Sale, error) {
			filters := models.SaleFilters{}
			filters.Limit, filters.Offset = limit, offset
			return s.repos.Sales().List(txCtx, filters)
		}); err != nil {
			return fmt.Errorf("failed to read sales: %w", err)
		}

		if data.Expenses, err = collect(s.repos.Expenses().List(txCtx)); err != nil {
			return fmt.Errorf("failed to read expenses: %w", err)
		}
		if data.Payments, err = collect(s.repos.Payments().List(txCtx, nil, nil)); err != nil {
			return fmt.Errorf("failed to read payments: %w", err)
		}
		if data.PurchaseInvoices, err = collect(s.repos.Purchases().List(txCtx, nil)); err != nil {
			return fmt.Errorf("failed to read purchase invoices: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// Import replaces every table with the snapshot in one transaction. Rows
// keep their IDs. No business rules are applied.
func (s *backupService) Import(ctx context.Context, data *models.BackupData) error {
	if data == nil {
		return fmt.Errorf("backup data cannot be nil")
	}
	if err := data.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repos.Snapshot().Wipe(txCtx); err != nil {
			return fmt.Errorf("failed to clear tables: %w", err)
		}

		if data.ShopInfo != nil {
			shop := *data.ShopInfo
			if err := s.repos.ShopInfo().Save(txCtx, &shop); err != nil {
				return fmt.Errorf("failed to restore shop info: %w", err)
			}
		}

		for i := range data.Users {
			user := data.Users[i].User
			user.PINHash = data.Users[i].PINHash
			if err := s.repos.Users().Create(txCtx, &user); err != nil {
				return fmt.Errorf("failed to restore user %d: %w", user.ID, err)
			}
		}

		if err := restore(txCtx, "category", data.Categories, s.repos.Categories().Create); err != nil {
			return err
		}
		if err := restore(txCtx, "addon", data.Addons, s.repos.Addons().Create); err != nil {
			return err
		}
		if err := restore(txCtx, "addon group", data.AddonGroups, s.repos.AddonGroups().Create); err != nil {
			return err
		}
		if err := restore(txCtx, "product", data.Products, s.repos.Products().Create); err != nil {
			return err
		}
		if err := restore(txCtx, "recipe", data.Recipes, s.repos.Recipes().Create); err != nil {
			return err
		}
		if err := restore(txCtx, "customer", data.Customers, s.repos.Customers().Create); err != nil {
			return err
		}
		if err := restore(txCtx, "supplier", data.Suppliers, s.repos.Suppliers().Create); err != nil {
			return err
		}
		if err := restore(txCtx, "shift", data.Shifts, s.repos.Shifts().Create); err != nil {
			return err
		}
		if err := restore(txCtx, "sale", data.Sales, s.repos.Sales().Create); err != nil {
			return err
		}
		if err := restore(txCtx, "expense", data.Expenses, s.repos.Expenses().Create); err != nil {
			return err
		}
		if err := restore(txCtx, "payment", data.Payments, s.repos.Payments().Create); err != nil {
			return err
		}
		return restore(txCtx, "purchase invoice", data.PurchaseInvoices, s.repos.Purchases().Create)
	})
	if err != nil {
		s.logger.WithError(err).Error("Backup import failed")
		return err
	}

	s.logger.WithField("counts", data.Counts()).Info("Backup imported")
	s.publisher.Publish(events.New(events.BackupRestored, "backup", 0, data.Counts()))
	return nil
}

// List returns the stored snapshots, newest first
func (s *backupService) List(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, BackupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	out := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		out = append(out, BackupInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// Download streams a stored snapshot
func (s *backupService) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if !strings.HasPrefix(key, BackupPrefix) {
		key = BackupPrefix + key
	}

	rc, err := s.store.Open(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, repositories.NotFoundByError("backup", "key", key)
		}
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	return rc, nil
}

// prune deletes the oldest snapshots beyond the retention count
func (s *backupService) prune(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}

	objects, err := s.store.List(ctx, BackupPrefix)
	if err != nil {
		return err
	}

	for i := s.retention; i < len(objects); i++ {
		if err := s.store.Delete(ctx, objects[i].Key); err != nil && !storage.IsNotFound(err) {
			return err
		}
		s.logger.WithField("key", objects[i].Key).Debug("Old backup pruned")
	}
	return nil
}

// collect dereferences a repository result list
func collect[T any](items []*T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out, nil
}

// readPages walks a paginated listing until a short page comes back. Rows are
// returned oldest first so a restore replays them in insertion order.
func readPages[T any](page func(limit, offset int) ([]*T, error)) ([]T, error) {
	var out []T
	for offset := 0; ; offset += models.MaxPageSize {
		items, err := page(models.MaxPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			out = append(out, *item)
		}
		if len(items) < models.MaxPageSize {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// restore inserts each row with its original ID
func restore[T any](ctx context.Context, entity string, items []T, create func(context.Context, *T) error) error {
	for i := range items {
		if err := create(ctx, &items[i]); err != nil {
			return fmt.Errorf("failed to restore %s: %w", entity, err)
		}
	}
	return nil
}
