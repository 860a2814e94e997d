package models

import (
	"fmt"
	"time"
)

// PurchaseItem is a line of a supplier invoice
type PurchaseItem struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Cost      float64 `json:"cost" validate:"gte=0"`
}

// PurchaseInvoice records stock bought from a supplier on account
type PurchaseInvoice struct {
	ID         int64          `json:"id" db:"id"`
	SupplierID int64          `json:"supplier_id" db:"supplier_id" validate:"required,gt=0"`
	Date       time.Time      `json:"date" db:"date"`
	Items      []PurchaseItem `json:"items" db:"items" validate:"required,min=1,dive"`
	Total      float64        `json:"total" db:"total"`
}

// NewPurchaseInvoice creates an invoice and computes its total
func NewPurchaseInvoice(supplierID int64, items []PurchaseItem) *PurchaseInvoice {
	inv := &PurchaseInvoice{
		SupplierID: supplierID,
		Date:       time.Now(),
		Items:      items,
	}
	inv.CalculateTotal()
	return inv
}

// CalculateTotal sets Total to the sum of quantity * cost
func (p *PurchaseInvoice) CalculateTotal() {
	var total float64
	for _, item := range p.Items {
		total += item.Quantity * item.Cost
	}
	p.Total = total
}

// Validate validates the invoice data
func (p *PurchaseInvoice) Validate() error {
	if p.SupplierID <= 0 {
		return fmt.Errorf("supplier ID is required")
	}
	if len(p.Items) == 0 {
		return fmt.Errorf("purchase invoice must contain at least one item")
	}
	for i, item := range p.Items {
		if item.ProductID <= 0 {
			return fmt.Errorf("item %d: product ID is required", i+1)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive", i+1)
		}
		if item.Cost < 0 {
			return fmt.Errorf("item %d: cost cannot be negative", i+1)
		}
	}
	return nil
}
