package models

import (
	"fmt"
	"time"
)

// BackupFormatVersion is bumped when the snapshot layout changes
const BackupFormatVersion = 1

// BackupData is a full snapshot of the store used for backup and restore
type BackupData struct {
	Version          int               `json:"version"`
	ExportedAt       time.Time         `json:"exported_at"`
	ShopInfo         *ShopInfo         `json:"shop_info,omitempty"`
	Users            []UserBackup      `json:"users"`
	Categories       []Category        `json:"categories"`
	Addons           []Addon           `json:"addons"`
	AddonGroups      []AddonGroup      `json:"addon_groups"`
	Products         []Product         `json:"products"`
	Recipes          []Recipe          `json:"recipes"`
	Customers        []Customer        `json:"customers"`
	Suppliers        []Supplier        `json:"suppliers"`
	Shifts           []Shift           `json:"shifts"`
	Sales            []Sale            `json:"sales"`
	Expenses         []Expense         `json:"expenses"`
	Payments         []Payment         `json:"payments"`
	PurchaseInvoices []PurchaseInvoice `json:"purchase_invoices"`
}

// UserBackup carries the PIN hash that User hides from JSON
type UserBackup struct {
	User
	PINHash string `json:"pin_hash"`
}

// Validate checks the snapshot can be restored
func (b *BackupData) Validate() error {
	if b.Version <= 0 || b.Version > BackupFormatVersion {
		return fmt.Errorf("unsupported backup version: %d", b.Version)
	}
	return nil
}

// Counts returns the number of records per table for logging
func (b *BackupData) Counts() map[string]int {
	return map[string]int{
		"users":             len(b.Users),
		"categories":        len(b.Categories),
		"addons":            len(b.Addons),
		"addon_groups":      len(b.AddonGroups),
		"products":          len(b.Products),
		"recipes":           len(b.Recipes),
		"customers":         len(b.Customers),
		"suppliers":         len(b.Suppliers),
		"shifts":            len(b.Shifts),
		"sales":             len(b.Sales),
		"expenses":          len(b.Expenses),
		"payments":          len(b.Payments),
		"purchase_invoices": len(b.PurchaseInvoices),
	}
}
