package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DiscountType is the kind of general discount applied to a sale
type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

// SaleStatus represents the lifecycle state of a sale
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleCanceled  SaleStatus = "canceled"
)

// Discount is a manually applied general discount
type Discount struct {
	Type  DiscountType `json:"type" validate:"omitempty,oneof=none fixed percentage"`
	Value float64      `json:"value" validate:"gte=0"`
}

// Label renders the discount the way receipts show it
func (d Discount) Label() string {
	switch d.Type {
	case DiscountPercentage:
		return fmt.Sprintf("%s%%", FormatMoney(d.Value))
	case DiscountFixed:
		return FormatMoney(d.Value)
	default:
		return ""
	}
}

// PaymentDetails splits a sale total across tenders
type PaymentDetails struct {
	Cash   float64 `json:"cash" validate:"gte=0"`
	Card   float64 `json:"card" validate:"gte=0"`
	Credit float64 `json:"credit" validate:"gte=0"`
}

// Total returns the sum of all tenders
func (p PaymentDetails) Total() float64 {
	return p.Cash + p.Card + p.Credit
}

// CartItem is a transient cart line with price and cost frozen at add time
type CartItem struct {
	CartItemID     string   `json:"cart_item_id"`
	ItemID         int64    `json:"id"`
	Type           ItemType `json:"type"`
	Name           string   `json:"name"`
	UnitPrice      float64  `json:"unit_price"`
	UnitCost       float64  `json:"unit_cost"`
	Quantity       float64  `json:"quantity"`
	SelectedAddons []Addon  `json:"selected_addons"`
	Notes          string   `json:"notes,omitempty"`
}

// NewCartItem creates a cart line with a fresh cart-scoped id
func NewCartItem(itemType ItemType, itemID int64, name string, unitPrice, unitCost, quantity float64) *CartItem {
	return &CartItem{
		CartItemID:     uuid.New().String(),
		ItemID:         itemID,
		Type:           itemType,
		Name:           name,
		UnitPrice:      unitPrice,
		UnitCost:       unitCost,
		Quantity:       quantity,
		SelectedAddons: []Addon{},
	}
}

// AddonsTotal returns the per-unit price of the selected addons
func (ci *CartItem) AddonsTotal() float64 {
	var total float64
	for _, a := range ci.SelectedAddons {
		total += a.Price
	}
	return total
}

// LineTotal returns (unit price + addons) * quantity
func (ci *CartItem) LineTotal() float64 {
	return (ci.UnitPrice + ci.AddonsTotal()) * ci.Quantity
}

// Clone returns a deep copy so later cart edits cannot reach sale history
func (ci CartItem) Clone() CartItem {
	addons := make([]Addon, len(ci.SelectedAddons))
	copy(addons, ci.SelectedAddons)
	ci.SelectedAddons = addons
	return ci
}

// CloneCartItems deep copies a list of cart lines
func CloneCartItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// Sale is an immutable record of a checkout. Only Status and CanceledAt change after creation.
type Sale struct {
	ID              int64          `json:"id" db:"id"`
	Date            time.Time      `json:"date" db:"date"`
	Items           []CartItem     `json:"items" db:"items"`
	SubTotal        float64        `json:"sub_total" db:"sub_total"`
	Discount        Discount       `json:"discount" db:"discount"`
	DiscountAmount  float64        `json:"discount_amount" db:"discount_amount"`
	LoyaltyDiscount float64        `json:"loyalty_discount" db:"loyalty_discount"`
	TaxAmount       float64        `json:"tax_amount" db:"tax_amount"`
	DeliveryFee     float64        `json:"delivery_fee" db:"delivery_fee"`
	TotalAmount     float64        `json:"total_amount" db:"total_amount"`
	TotalCost       float64        `json:"total_cost" db:"total_cost"`
	CustomerID      *int64         `json:"customer_id,omitempty" db:"customer_id"`
	UserID          int64          `json:"user_id" db:"user_id"`
	UserName        string         `json:"user_name" db:"user_name"`
	PaymentDetails  PaymentDetails `json:"payment_details" db:"payment_details"`
	PointsRedeemed  int64          `json:"points_redeemed" db:"points_redeemed"`
	PointsEarned    int64          `json:"points_earned" db:"points_earned"`
	Status          SaleStatus     `json:"status" db:"status"`
	ShiftID         *int64         `json:"shift_id,omitempty" db:"shift_id"`
	CanceledAt      *time.Time     `json:"canceled_at,omitempty" db:"canceled_at"`
}

// Validate validates the sale data
func (s *Sale) Validate() error {
	if len(s.Items) == 0 {
		return fmt.Errorf("sale must contain at least one item")
	}

	for i, item := range s.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive", i+1)
		}
		if item.Type != ItemTypeProduct && item.Type != ItemTypeRecipe {
			return fmt.Errorf("item %d: invalid item type: %s", i+1, item.Type)
		}
	}

	if s.Status != SaleCompleted && s.Status != SaleCanceled {
		return fmt.Errorf("invalid sale status: %s", s.Status)
	}

	if s.UserID <= 0 {
		return fmt.Errorf("sale user ID is required")
	}

	if s.PaymentDetails.Credit > 0 && s.CustomerID == nil {
		return fmt.Errorf("credit payment requires a customer")
	}

	return nil
}

// TaxableAmount returns max(0, subTotal - general discount - loyalty discount)
func (s *Sale) TaxableAmount() float64 {
	taxable := s.SubTotal - s.DiscountAmount - s.LoyaltyDiscount
	if taxable < 0 {
		return 0
	}
	return taxable
}

// IsCanceled returns true if the sale has been reversed
func (s *Sale) IsCanceled() bool {
	return s.Status == SaleCanceled
}

// Profit returns revenue before tax and delivery minus cost of goods
func (s *Sale) Profit() float64 {
	return s.TaxableAmount() - s.TotalCost
}

// HasRecipeItems returns true if any line needs a kitchen ticket
func (s *Sale) HasRecipeItems() bool {
	for _, item := range s.Items {
		if item.Type == ItemTypeRecipe {
			return true
		}
	}
	return false
}
