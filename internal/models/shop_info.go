package models

import (
	"fmt"
	"strings"
	"time"
)

// ShopInfoID is the id of the singleton shop configuration row
const ShopInfoID = 1

// ShopInfo holds the shop identity plus tax and loyalty configuration
type ShopInfo struct {
	ID                    int64     `json:"id" db:"id"`
	Name                  string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Address               string    `json:"address" db:"address"`
	Phone                 string    `json:"phone" db:"phone"`
	TaxEnabled            bool      `json:"tax_enabled" db:"tax_enabled"`
	TaxRate               float64   `json:"tax_rate" db:"tax_rate" validate:"gte=0,lte=100"`
	LoyaltyEnabled        bool      `json:"loyalty_enabled" db:"loyalty_enabled"`
	PointsPerCurrencyUnit float64   `json:"points_per_currency_unit" db:"points_per_currency_unit" validate:"gte=0"`
	CurrencyPerPoint      float64   `json:"currency_per_point" db:"currency_per_point" validate:"gte=0"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// NewShopInfo creates the shop configuration with tax and loyalty disabled
func NewShopInfo(name string) *ShopInfo {
	now := time.Now()
	return &ShopInfo{
		ID:        ShopInfoID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate validates the shop configuration
func (s *ShopInfo) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("shop name is required")
	}
	if s.TaxRate < 0 || s.TaxRate > 100 {
		return fmt.Errorf("tax rate must be between 0 and 100")
	}
	if s.PointsPerCurrencyUnit < 0 {
		return fmt.Errorf("points per currency unit cannot be negative")
	}
	if s.CurrencyPerPoint < 0 {
		return fmt.Errorf("currency per point cannot be negative")
	}
	if s.LoyaltyEnabled && s.CurrencyPerPoint == 0 && s.PointsPerCurrencyUnit == 0 {
		return fmt.Errorf("loyalty requires an earn or redeem rate")
	}
	if !IsValidPhone(s.Phone) {
		return fmt.Errorf("invalid phone number: %s", s.Phone)
	}
	return nil
}

// ChargesTax returns true if tax is added at checkout
func (s *ShopInfo) ChargesTax() bool {
	return s.TaxEnabled && s.TaxRate > 0
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (s *ShopInfo) UpdateTimestamp() {
	s.UpdatedAt = time.Now()
}
