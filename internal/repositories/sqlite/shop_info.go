package sqlite

import (
	"context"
	"database/sql"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

const shopInfoColumns = `id, name, address, phone, tax_enabled, tax_rate, loyalty_enabled,
	points_per_currency_unit, currency_per_point, created_at, updated_at`

// ShopInfoRepository implements the ShopInfoRepository interface for SQLite
type ShopInfoRepository struct {
	*BaseRepository[models.ShopInfo]
}

// NewShopInfoRepository creates a new SQLite shop info repository
func NewShopInfoRepository(db *sql.DB, logger *logrus.Logger) repositories.ShopInfoRepository {
	return &ShopInfoRepository{
		BaseRepository: NewBaseRepository[models.ShopInfo](db, "shop_info", "shop_info", logger),
	}
}

// Get retrieves the shop info
func (r *ShopInfoRepository) Get(ctx context.Context) (*models.ShopInfo, error) {
	info := &models.ShopInfo{}
	err := r.executeQueryRow(ctx, "get", `SELECT `+shopInfoColumns+` FROM shop_info WHERE id = ?`, models.ShopInfoID).Scan(
		&info.ID,
		&info.Name,
		&info.Address,
		&info.Phone,
		&info.TaxEnabled,
		&info.TaxRate,
		&info.LoyaltyEnabled,
		&info.PointsPerCurrencyUnit,
		&info.CurrencyPerPoint,
		&info.CreatedAt,
		&info.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("shop_info", models.ShopInfoID)
		}
		return nil, repositories.NewRepositoryError("get", "shop_info", models.ShopInfoID, err)
	}

	return info, nil
}

// Save creates or replaces the singleton row
func (r *ShopInfoRepository) Save(ctx context.Context, info *models.ShopInfo) error {
	if err := info.Validate(); err != nil {
		return repositories.ValidationError("shop_info", models.ShopInfoID, err)
	}

	info.ID = models.ShopInfoID
	info.UpdateTimestamp()
	if info.CreatedAt.IsZero() {
		info.CreatedAt = info.UpdatedAt
	}

	query := `
		INSERT INTO shop_info (` + shopInfoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			phone = excluded.phone,
			tax_enabled = excluded.tax_enabled,
			tax_rate = excluded.tax_rate,
			loyalty_enabled = excluded.loyalty_enabled,
			points_per_currency_unit = excluded.points_per_currency_unit,
			currency_per_point = excluded.currency_per_point,
			updated_at = excluded.updated_at`

	_, err := r.executeExec(ctx, "save", query,
		info.ID,
		info.Name,
		info.Address,
		info.Phone,
		info.TaxEnabled,
		info.TaxRate,
		info.LoyaltyEnabled,
		info.PointsPerCurrencyUnit,
		info.CurrencyPerPoint,
		info.CreatedAt,
		info.UpdatedAt,
	)
	return err
}

// Exists checks if the shop has been configured
func (r *ShopInfoRepository) Exists(ctx context.Context) (bool, error) {
	return r.BaseRepository.Exists(ctx, models.ShopInfoID)
}
