package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

// wipeOrder deletes children before the rows they reference
var wipeOrder = []string{
	"stock_movements",
	"expenses",
	"sales",
	"shifts",
	"payments",
	"purchase_invoices",
	"recipes",
	"products",
	"addon_groups",
	"addons",
	"categories",
	"customers",
	"suppliers",
	"users",
	"shop_info",
}

// SnapshotRepository implements the SnapshotRepository interface for SQLite
type SnapshotRepository struct {
	*BaseRepository[struct{}]
}

// NewSnapshotRepository creates a new SQLite snapshot repository
func NewSnapshotRepository(db *sql.DB, logger *logrus.Logger) repositories.SnapshotRepository {
	return &SnapshotRepository{
		BaseRepository: NewBaseRepository[struct{}](db, "", "snapshot", logger),
	}
}

// Wipe deletes every row of every table. Call it inside a transaction.
func (r *SnapshotRepository) Wipe(ctx context.Context) error {
	for _, table := range wipeOrder {
		if _, err := r.executeExec(ctx, "wipe", fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to wipe %s: %w", table, err)
		}
	}
	r.logger.WithField("tables", len(wipeOrder)).Info("Store wiped")
	return nil
}
