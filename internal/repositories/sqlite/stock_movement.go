package sqlite

import (
	"context"
	"database/sql"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

const stockMovementColumns = `id, product_id, delta, reason, reference_id, created_at`

// StockMovementRepository implements the StockMovementRepository interface for SQLite
type StockMovementRepository struct {
	*BaseRepository[models.StockMovement]
}

// NewStockMovementRepository creates a new SQLite stock movement repository
func NewStockMovementRepository(db *sql.DB, logger *logrus.Logger) repositories.StockMovementRepository {
	return &StockMovementRepository{
		BaseRepository: NewBaseRepository[models.StockMovement](db, "stock_movements", "stock_movement", logger),
	}
}

// Create persists a movement
func (r *StockMovementRepository) Create(ctx context.Context, movement *models.StockMovement) error {
	if movement.ProductID <= 0 {
		return repositories.ValidationError("stock_movement", movement.ID, repositories.ErrInvalidID)
	}

	id, err := r.insert(ctx, `INSERT INTO stock_movements (`+stockMovementColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(movement.ID),
		movement.ProductID,
		movement.Delta,
		movement.Reason,
		movement.ReferenceID,
		movement.CreatedAt,
	)
	if err != nil {
		return err
	}

	movement.ID = id
	return nil
}

// GetByProduct retrieves a product's movements, newest first
func (r *StockMovementRepository) GetByProduct(ctx context.Context, productID int64, limit int) ([]*models.StockMovement, error) {
	if limit <= 0 {
		limit = models.DefaultPageSize
	}
	query := `SELECT ` + stockMovementColumns + ` FROM stock_movements
		WHERE product_id = ?
		ORDER BY id DESC
		LIMIT ?`
	return r.queryMovements(ctx, "get_by_product", query, productID, limit)
}

// GetByReference retrieves movements written for one sale or invoice
func (r *StockMovementRepository) GetByReference(ctx context.Context, reason models.MovementReason, referenceID int64) ([]*models.StockMovement, error) {
	query := `SELECT ` + stockMovementColumns + ` FROM stock_movements
		WHERE reason = ? AND reference_id = ?
		ORDER BY id ASC`
	return r.queryMovements(ctx, "get_by_reference", query, reason, referenceID)
}

func (r *StockMovementRepository) queryMovements(ctx context.Context, operation, query string, args ...interface{}) ([]*models.StockMovement, error) {
	rows, err := r.executeQuery(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := []*models.StockMovement{}
	for rows.Next() {
		m := &models.StockMovement{}
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &m.Reason, &m.ReferenceID, &m.CreatedAt); err != nil {
			return nil, repositories.NewRepositoryError(operation, "stock_movement", 0, err)
		}
		movements = append(movements, m)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, "stock_movement", 0, err)
	}

	return movements, nil
}
