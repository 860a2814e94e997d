package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Role is a coarse user role
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

// Permission names a capability checked before calling core operations
type Permission string

const (
	PermSell            Permission = "sell"
	PermCancelSale      Permission = "cancel_sale"
	PermManageShift     Permission = "manage_shift"
	PermManageCatalog   Permission = "manage_catalog"
	PermManageParties   Permission = "manage_parties"
	PermManagePurchases Permission = "manage_purchases"
	PermViewReports     Permission = "view_reports"
	PermManageUsers     Permission = "manage_users"
	PermManageSettings  Permission = "manage_settings"
	PermBackup          Permission = "backup"
)

// AllPermissions lists every known capability
var AllPermissions = []Permission{
	PermSell, PermCancelSale, PermManageShift, PermManageCatalog, PermManageParties,
	PermManagePurchases, PermViewReports, PermManageUsers, PermManageSettings, PermBackup,
}

// DefaultCashierPermissions is granted to new cashiers
var DefaultCashierPermissions = []Permission{PermSell, PermManageShift}

// User is a cashier or administrator who logs in with a PIN
type User struct {
	ID          int64        `json:"id" db:"id"`
	Name        string       `json:"name" db:"name" validate:"required,min=1,max=100"`
	PINHash     string       `json:"-" db:"pin_hash"`
	Role        Role         `json:"role" db:"role" validate:"required,oneof=admin cashier"`
	Permissions []Permission `json:"permissions" db:"permissions"`
	Active      bool         `json:"active" db:"active"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// NewUser creates an active user with the default permissions for its role
func NewUser(name string, role Role) *User {
	now := time.Now()
	perms := DefaultCashierPermissions
	if role == RoleAdmin {
		perms = AllPermissions
	}
	return &User{
		Name:        name,
		Role:        role,
		Permissions: append([]Permission(nil), perms...),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate validates the user data
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("user name is required")
	}
	if u.Role != RoleAdmin && u.Role != RoleCashier {
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	if u.PINHash == "" {
		return fmt.Errorf("user PIN is required")
	}
	for _, p := range u.Permissions {
		if !IsKnownPermission(p) {
			return fmt.Errorf("unknown permission: %s", p)
		}
	}
	return nil
}

// Can returns true if the user holds the permission. Admins hold all of them.
func (u *User) Can(p Permission) bool {
	if u.Role == RoleAdmin {
		return true
	}
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// PermissionStrings returns the permission set as sorted strings
func (u *User) PermissionStrings() []string {
	out := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (u *User) UpdateTimestamp() {
	u.UpdatedAt = time.Now()
}

// IsKnownPermission returns true for permissions listed in AllPermissions
func IsKnownPermission(p Permission) bool {
	for _, known := range AllPermissions {
		if known == p {
			return true
		}
	}
	return false
}

// IsValidPIN checks that a PIN is 4 to 8 digits
func IsValidPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
