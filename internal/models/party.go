package models

import (
	"fmt"
	"strings"
	"time"
)

// PartyType identifies the counterparty of a payment
type PartyType string

const (
	PartyCustomer PartyType = "customer"
	PartySupplier PartyType = "supplier"
)

// Customer represents a customer with a running balance.
// A negative balance means the customer owes the shop.
type Customer struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Phone         string    `json:"phone" db:"phone"`
	Address       string    `json:"address" db:"address"`
	Balance       float64   `json:"balance" db:"balance"`
	LoyaltyPoints int64     `json:"loyalty_points" db:"loyalty_points"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// NewCustomer creates a new customer with timestamps
func NewCustomer(name, phone, address string) *Customer {
	now := time.Now()
	return &Customer{
		Name:      name,
		Phone:     phone,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate validates the customer data
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("customer name is required")
	}
	if !IsValidPhone(c.Phone) {
		return fmt.Errorf("invalid phone number: %s", c.Phone)
	}
	return nil
}

// Owes returns true if the customer has an outstanding debt to the shop
func (c *Customer) Owes() bool {
	return c.Balance < 0
}

// GetSearchableText returns text that can be used for searching
func (c *Customer) GetSearchableText() string {
	return strings.TrimSpace(strings.Join([]string{c.Name, c.Phone, c.Address}, " "))
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (c *Customer) UpdateTimestamp() {
	c.UpdatedAt = time.Now()
}

// Supplier represents a supplier. A negative balance means the shop owes the supplier.
type Supplier struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Phone     string    `json:"phone" db:"phone"`
	Address   string    `json:"address" db:"address"`
	Balance   float64   `json:"balance" db:"balance"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewSupplier creates a new supplier with timestamps
func NewSupplier(name, phone, address string) *Supplier {
	now := time.Now()
	return &Supplier{
		Name:      name,
		Phone:     phone,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate validates the supplier data
func (s *Supplier) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("supplier name is required")
	}
	if !IsValidPhone(s.Phone) {
		return fmt.Errorf("invalid phone number: %s", s.Phone)
	}
	return nil
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (s *Supplier) UpdateTimestamp() {
	s.UpdatedAt = time.Now()
}

// Payment is a standalone ledger entry that settles a customer or supplier balance
type Payment struct {
	ID       int64     `json:"id" db:"id"`
	Date     time.Time `json:"date" db:"date"`
	Type     PartyType `json:"type" db:"type" validate:"required,oneof=customer supplier"`
	EntityID int64     `json:"entity_id" db:"entity_id" validate:"required,gt=0"`
	Amount   float64   `json:"amount" db:"amount" validate:"required"`
	Notes    string    `json:"notes,omitempty" db:"notes"`
}

// NewPayment creates a payment dated now
func NewPayment(partyType PartyType, entityID int64, amount float64) *Payment {
	return &Payment{
		Date:     time.Now(),
		Type:     partyType,
		EntityID: entityID,
		Amount:   amount,
	}
}

// Validate validates the payment data
func (p *Payment) Validate() error {
	if p.Type != PartyCustomer && p.Type != PartySupplier {
		return fmt.Errorf("invalid payment type: %s", p.Type)
	}
	if p.EntityID <= 0 {
		return fmt.Errorf("payment entity ID is required")
	}
	if p.Amount == 0 {
		return fmt.Errorf("payment amount cannot be zero")
	}
	return nil
}
