package repositories

import (
	"context"
	"time"

	"pos-engine/internal/models"
)

// BaseRepository defines common CRUD operations for all repositories
type BaseRepository[T any] interface {
	// Create creates a new entity. A preset non-zero ID is kept, otherwise one is assigned.
	Create(ctx context.Context, entity *T) error

	// GetByID retrieves an entity by its ID
	GetByID(ctx context.Context, id int64) (*T, error)

	// Update updates an existing entity
	Update(ctx context.Context, entity *T) error

	// Delete deletes an entity by its ID
	Delete(ctx context.Context, id int64) error

	// List retrieves entities with optional equality filters
	List(ctx context.Context, filters map[string]interface{}) ([]*T, error)

	// Count returns the total number of entities matching the filters
	Count(ctx context.Context, filters map[string]interface{}) (int64, error)

	// Exists checks if an entity with the given ID exists
	Exists(ctx context.Context, id int64) (bool, error)
}

// ProductRepository defines operations specific to product management
type ProductRepository interface {
	BaseRepository[models.Product]

	// GetByBarcode retrieves a product by its barcode
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)

	// GetByIDs retrieves the products that exist among ids, keyed by ID
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error)

	// Search performs a name search on products
	Search(ctx context.Context, query string, limit int) ([]*models.Product, error)

	// GetLowStock retrieves products at or below their low stock threshold
	GetLowStock(ctx context.Context) ([]*models.Product, error)

	// AdjustStock adds delta to a product's stock and returns the new level
	AdjustStock(ctx context.Context, id int64, delta float64) (float64, error)
}

// RecipeRepository defines operations specific to recipe management
type RecipeRepository interface {
	BaseRepository[models.Recipe]

	// GetByIDs retrieves the recipes that exist among ids, keyed by ID
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Recipe, error)

	// GetUsingProduct retrieves recipes that list the product as an ingredient
	GetUsingProduct(ctx context.Context, productID int64) ([]*models.Recipe, error)
}

// CategoryRepository defines operations specific to category management
type CategoryRepository interface {
	BaseRepository[models.Category]

	// GetByName retrieves a category by name
	GetByName(ctx context.Context, name string) (*models.Category, error)
}

// AddonRepository defines operations specific to addon management
type AddonRepository interface {
	BaseRepository[models.Addon]

	// GetByIDs retrieves the addons that exist among ids, keyed by ID
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Addon, error)
}

// AddonGroupRepository defines operations specific to addon group management
type AddonGroupRepository interface {
	BaseRepository[models.AddonGroup]

	// GetByIDs retrieves the groups that exist among ids, keyed by ID
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.AddonGroup, error)

	// GetContainingAddon retrieves groups that include the addon
	GetContainingAddon(ctx context.Context, addonID int64) ([]*models.AddonGroup, error)
}

// CustomerRepository defines operations specific to customer management
type CustomerRepository interface {
	BaseRepository[models.Customer]

	// Search performs a search on name, phone and address
	Search(ctx context.Context, query string, limit int) ([]*models.Customer, error)

	// GetByPhone retrieves customers by phone number
	GetByPhone(ctx context.Context, phone string) ([]*models.Customer, error)

	// GetDebtors retrieves customers with a negative balance
	GetDebtors(ctx context.Context) ([]*models.Customer, error)

	// ApplyDelta adds to the balance and loyalty points in one statement
	ApplyDelta(ctx context.Context, id int64, balanceDelta float64, pointsDelta int64) (*models.Customer, error)
}

// SupplierRepository defines operations specific to supplier management
type SupplierRepository interface {
	BaseRepository[models.Supplier]

	// Search performs a search on name, phone and address
	Search(ctx context.Context, query string, limit int) ([]*models.Supplier, error)

	// ApplyBalanceDelta adds to the supplier balance in one statement
	ApplyBalanceDelta(ctx context.Context, id int64, delta float64) (*models.Supplier, error)
}

// SaleRepository stores sales. Sales are append-only, so only status can change.
type SaleRepository interface {
	// Create persists a new sale and assigns its ID
	Create(ctx context.Context, sale *models.Sale) error

	// GetByID retrieves a sale by its ID
	GetByID(ctx context.Context, id int64) (*models.Sale, error)

	// List retrieves sales matching the filters, newest first
	List(ctx context.Context, filters models.SaleFilters) ([]*models.Sale, error)

	// Count returns the number of sales matching the filters
	Count(ctx context.Context, filters models.SaleFilters) (int64, error)

	// MarkCanceled moves a completed sale to canceled
	MarkCanceled(ctx context.Context, id int64, at time.Time) error

	// ShiftTotals aggregates completed sales of a shift
	ShiftTotals(ctx context.Context, shiftID int64) (*SaleTotals, error)

	// ExistsWithProduct reports whether any sale line sells the product directly
	ExistsWithProduct(ctx context.Context, productID int64) (bool, error)

	// ExistsWithRecipe reports whether any sale line sells one of the recipes
	ExistsWithRecipe(ctx context.Context, recipeIDs ...int64) (bool, error)

	// ExistsWithCustomer reports whether the customer has any sale
	ExistsWithCustomer(ctx context.Context, customerID int64) (bool, error)
}

// ShiftRepository stores cash shifts
type ShiftRepository interface {
	// Create persists a new shift and assigns its ID
	Create(ctx context.Context, shift *models.Shift) error

	// GetByID retrieves a shift by its ID
	GetByID(ctx context.Context, id int64) (*models.Shift, error)

	// GetActiveByUser retrieves the user's active shift
	GetActiveByUser(ctx context.Context, userID int64) (*models.Shift, error)

	// Close persists the closing snapshot of an active shift
	Close(ctx context.Context, shift *models.Shift) error

	// List retrieves shifts matching the filters, newest first
	List(ctx context.Context, filters models.ShiftFilters) ([]*models.Shift, error)
}

// ExpenseRepository stores shift expenses
type ExpenseRepository interface {
	// Create persists a new expense and assigns its ID
	Create(ctx context.Context, expense *models.Expense) error

	// GetByShift retrieves a shift's expenses in insertion order
	GetByShift(ctx context.Context, shiftID int64) ([]*models.Expense, error)

	// SumByShift totals a shift's expenses
	SumByShift(ctx context.Context, shiftID int64) (float64, error)

	// List retrieves all expenses
	List(ctx context.Context) ([]*models.Expense, error)
}

// PaymentRepository stores standalone ledger payments
type PaymentRepository interface {
	// Create persists a new payment and assigns its ID
	Create(ctx context.Context, payment *models.Payment) error

	// GetByID retrieves a payment by its ID
	GetByID(ctx context.Context, id int64) (*models.Payment, error)

	// List retrieves payments, optionally for one party
	List(ctx context.Context, partyType *models.PartyType, entityID *int64) ([]*models.Payment, error)
}

// PurchaseRepository stores supplier purchase invoices
type PurchaseRepository interface {
	// Create persists a new invoice and assigns its ID
	Create(ctx context.Context, invoice *models.PurchaseInvoice) error

	// GetByID retrieves an invoice by its ID
	GetByID(ctx context.Context, id int64) (*models.PurchaseInvoice, error)

	// List retrieves invoices, optionally for one supplier
	List(ctx context.Context, supplierID *int64) ([]*models.PurchaseInvoice, error)

	// ExistsForSupplier reports whether the supplier has any invoice
	ExistsForSupplier(ctx context.Context, supplierID int64) (bool, error)

	// ExistsWithProduct reports whether any invoice line references the product
	ExistsWithProduct(ctx context.Context, productID int64) (bool, error)
}

// StockMovementRepository stores stock adjustment audit rows
type StockMovementRepository interface {
	// Create persists a movement
	Create(ctx context.Context, movement *models.StockMovement) error

	// GetByProduct retrieves a product's movements, newest first
	GetByProduct(ctx context.Context, productID int64, limit int) ([]*models.StockMovement, error)

	// GetByReference retrieves movements written for one sale or invoice
	GetByReference(ctx context.Context, reason models.MovementReason, referenceID int64) ([]*models.StockMovement, error)
}

// ShopInfoRepository defines operations for the singleton shop configuration
type ShopInfoRepository interface {
	// Get retrieves the shop info
	Get(ctx context.Context) (*models.ShopInfo, error)

	// Save creates or replaces the shop info
	Save(ctx context.Context, info *models.ShopInfo) error

	// Exists checks if the shop info has been configured
	Exists(ctx context.Context) (bool, error)
}

// UserRepository defines operations specific to user management
type UserRepository interface {
	BaseRepository[models.User]

	// GetByName retrieves a user by name
	GetByName(ctx context.Context, name string) (*models.User, error)

	// CountActiveAdmins returns the number of active admins
	CountActiveAdmins(ctx context.Context) (int64, error)
}

// SnapshotRepository supports full restores
type SnapshotRepository interface {
	// Wipe deletes every row of every table
	Wipe(ctx context.Context) error
}

// SaleTotals are the completed sale aggregates of a shift
type SaleTotals struct {
	Count       int64   `json:"count"`
	CashSales   float64 `json:"cash_sales"`
	CardSales   float64 `json:"card_sales"`
	CreditSales float64 `json:"credit_sales"`
	TotalSales  float64 `json:"total_sales"`
}
