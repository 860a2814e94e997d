package models

import "time"

// MovementReason explains why a product's stock changed
type MovementReason string

const (
	MovementSale       MovementReason = "sale"
	MovementSaleCancel MovementReason = "sale_cancel"
	MovementPurchase   MovementReason = "purchase"
	MovementAdjustment MovementReason = "adjustment"
	MovementRestore    MovementReason = "restore"
)

// StockMovement is an audit row for one net stock adjustment
type StockMovement struct {
	ID          int64          `json:"id" db:"id"`
	ProductID   int64          `json:"product_id" db:"product_id"`
	Delta       float64        `json:"delta" db:"delta"`
	Reason      MovementReason `json:"reason" db:"reason"`
	ReferenceID *int64         `json:"reference_id,omitempty" db:"reference_id"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// StockChange reports a product's stock after an adjustment
type StockChange struct {
	ProductID int64   `json:"product_id"`
	Delta     float64 `json:"delta"`
	Stock     float64 `json:"stock"`
}
