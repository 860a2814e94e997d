package services

import (
	"context"
	"io"

	"pos-engine/internal/models"
)

// Actor identifies the signed-in user an operation runs for
type Actor struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
}

// CatalogService defines the interface for catalog business logic operations
type CatalogService interface {
	// Products
	CreateProduct(ctx context.Context, req *ProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *ProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, filters *ProductFilters) ([]*models.Product, error)
	AdjustStock(ctx context.Context, id int64, delta float64) (*models.StockChange, error)
	GetLowStock(ctx context.Context) ([]*models.Product, error)

	// Recipes
	CreateRecipe(ctx context.Context, req *RecipeRequest) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, id int64, req *RecipeRequest) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) error
	ListRecipes(ctx context.Context) ([]*models.Recipe, error)
	RecipeCost(ctx context.Context, recipe *models.Recipe) (float64, error)

	// Categories
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]*models.Category, error)

	// Addons and groups
	CreateAddon(ctx context.Context, req *AddonRequest) (*models.Addon, error)
	UpdateAddon(ctx context.Context, id int64, req *AddonRequest) (*models.Addon, error)
	DeleteAddon(ctx context.Context, id int64) error
	ListAddons(ctx context.Context) ([]*models.Addon, error)
	CreateAddonGroup(ctx context.Context, req *AddonGroupRequest) (*models.AddonGroup, error)
	UpdateAddonGroup(ctx context.Context, id int64, req *AddonGroupRequest) (*models.AddonGroup, error)
	DeleteAddonGroup(ctx context.Context, id int64) error
	ListAddonGroups(ctx context.Context) ([]*models.AddonGroup, error)
}

// PartyService defines the interface for customers, suppliers, payments and purchases
type PartyService interface {
	CreateCustomer(ctx context.Context, req *PartyRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, req *PartyRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	ListCustomers(ctx context.Context, filters *PartyFilters) ([]*models.Customer, error)
	ApplyCustomerDelta(ctx context.Context, id int64, balanceDelta float64, pointsDelta int64) (*models.Customer, error)

	CreateSupplier(ctx context.Context, req *PartyRequest) (*models.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	UpdateSupplier(ctx context.Context, id int64, req *PartyRequest) (*models.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error
	ListSuppliers(ctx context.Context, filters *PartyFilters) ([]*models.Supplier, error)
	ApplySupplierDelta(ctx context.Context, id int64, balanceDelta float64) (*models.Supplier, error)

	AddPayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error)
	ListPayments(ctx context.Context, partyType *models.PartyType, entityID *int64) ([]*models.Payment, error)

	AddPurchaseInvoice(ctx context.Context, req *PurchaseRequest) (*PurchaseResult, error)
	GetPurchase(ctx context.Context, id int64) (*models.PurchaseInvoice, error)
	ListPurchases(ctx context.Context, supplierID *int64) ([]*models.PurchaseInvoice, error)
}

// CartService defines the interface for per-user carts
type CartService interface {
	AddToCart(ctx context.Context, userID int64, req *AddItemRequest) (*models.Cart, error)
	UpdateCartItem(ctx context.Context, userID int64, cartItemID string, req *UpdateItemRequest) (*models.Cart, error)
	RemoveFromCart(userID int64, cartItemID string) *models.Cart
	ClearCart(userID int64)
	ClearSold(userID int64, sold []models.CartItem)
	GetCart(userID int64) *models.Cart
	SetCheckout(userID int64, state models.CheckoutState) (*models.Cart, error)
}

// SaleService defines the interface for committing and reversing sales
type SaleService interface {
	ProcessSale(ctx context.Context, actor Actor, req *ProcessSaleRequest) (*SaleResult, error)
	CancelSale(ctx context.Context, actor Actor, saleID int64) (*CancelResult, error)
	PreviewSale(ctx context.Context, actor Actor) (*PricingBreakdown, error)
	GetSale(ctx context.Context, id int64) (*models.Sale, error)
	ListSales(ctx context.Context, filters models.SaleFilters) (*SaleList, error)
}

// ShiftService defines the interface for shift lifecycle and cash reconciliation
type ShiftService interface {
	StartShift(ctx context.Context, actor Actor, startingCash float64) (*models.Shift, error)
	EndShift(ctx context.Context, actor Actor, countedCash float64) (*ShiftReport, error)
	AddExpense(ctx context.Context, actor Actor, description string, amount float64) (*models.Expense, error)
	GetActiveShift(ctx context.Context, userID int64) (*models.Shift, error)
	GetShift(ctx context.Context, id int64) (*models.Shift, error)
	ListShifts(ctx context.Context, filters models.ShiftFilters) ([]*models.Shift, error)
	GetShiftReport(ctx context.Context, shiftID int64) (*ShiftReport, error)
}

// ShopService defines the interface for the singleton shop configuration
type ShopService interface {
	GetShopInfo(ctx context.Context) (*models.ShopInfo, error)
	SaveShopInfo(ctx context.Context, req *ShopInfoRequest) (*models.ShopInfo, error)
	EnsureDefaults(ctx context.Context, defaults *models.ShopInfo) error
}

// UserService defines the interface for cashier accounts
type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, req *UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	Authenticate(ctx context.Context, userID int64, pin string) (*models.User, error)
	EnsureAdmin(ctx context.Context, name, pin string) (*models.User, error)
}

// BackupService defines the interface for snapshot export and restore
type BackupService interface {
	Export(ctx context.Context) (*BackupResult, error)
	Snapshot(ctx context.Context) (*models.BackupData, error)
	Import(ctx context.Context, data *models.BackupData) error
	List(ctx context.Context) ([]BackupInfo, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// Request and response types

// ProductRequest represents a request to create or replace a product
type ProductRequest struct {
	Name              string   `json:"name" validate:"required,min=1,max=255"`
	Price             float64  `json:"price" validate:"gte=0"`
	WholesalePrice    *float64 `json:"wholesale_price,omitempty" validate:"omitempty,gte=0"`
	Cost              float64  `json:"cost" validate:"gte=0"`
	Stock             float64  `json:"stock"`
	Unit              string   `json:"unit" validate:"max=20"`
	IsRawMaterial     bool     `json:"is_raw_material"`
	LowStockThreshold *float64 `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
	Barcode           *string  `json:"barcode,omitempty" validate:"omitempty,max=64"`
	CategoryID        *int64   `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	AddonGroupIDs     []int64  `json:"addon_group_ids" validate:"dive,gt=0"`
}

// ProductFilters represents filters for product queries
type ProductFilters struct {
	Query         string `json:"query,omitempty"`
	CategoryID    *int64 `json:"category_id,omitempty"`
	IsRawMaterial *bool  `json:"is_raw_material,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// RecipeRequest represents a request to create or replace a recipe
type RecipeRequest struct {
	Name          string              `json:"name" validate:"required,min=1,max=255"`
	Price         float64             `json:"price" validate:"gte=0"`
	CategoryID    *int64              `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	Ingredients   []models.Ingredient `json:"ingredients" validate:"dive"`
	AddonGroupIDs []int64             `json:"addon_group_ids" validate:"dive,gt=0"`
}

// AddonRequest represents a request to create or replace an addon
type AddonRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=100"`
	Price float64 `json:"price" validate:"gte=0"`
}

// AddonGroupRequest represents a request to create or replace an addon group
type AddonGroupRequest struct {
	Name          string               `json:"name" validate:"required,min=1,max=100"`
	SelectionType models.SelectionType `json:"selection_type" validate:"required,oneof=single multiple"`
	AddonIDs      []int64              `json:"addon_ids" validate:"dive,gt=0"`
}

// PartyRequest represents a request to create or update a customer or supplier
type PartyRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=255"`
	Phone   string `json:"phone" validate:"max=20"`
	Address string `json:"address" validate:"max=500"`
}

// PartyFilters represents filters for customer and supplier queries
type PartyFilters struct {
	Query       string `json:"query,omitempty"`
	DebtorsOnly bool   `json:"debtors_only,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// PaymentRequest represents a standalone payment posted to a party
type PaymentRequest struct {
	Type     models.PartyType `json:"type" validate:"required,oneof=customer supplier"`
	EntityID int64            `json:"entity_id" validate:"required,gt=0"`
	Amount   float64          `json:"amount" validate:"required"`
	Notes    string           `json:"notes,omitempty" validate:"max=500"`
}

// PaymentResult is the stored payment with the resulting party balance
type PaymentResult struct {
	Payment  *models.Payment  `json:"payment"`
	Customer *models.Customer `json:"customer,omitempty"`
	Supplier *models.Supplier `json:"supplier,omitempty"`
}

// PurchaseRequest represents a supplier purchase invoice
type PurchaseRequest struct {
	SupplierID int64                 `json:"supplier_id" validate:"required,gt=0"`
	Items      []models.PurchaseItem `json:"items" validate:"required,min=1,dive"`
}

// PurchaseResult is the stored invoice with its effects
type PurchaseResult struct {
	Invoice      *models.PurchaseInvoice `json:"invoice"`
	Supplier     *models.Supplier        `json:"supplier"`
	StockChanges []models.StockChange    `json:"stock_changes"`
}

// AddItemRequest represents a catalog item added to a cart
type AddItemRequest struct {
	Type     models.ItemType `json:"type" validate:"required,oneof=product recipe"`
	ItemID   int64           `json:"id" validate:"required,gt=0"`
	Quantity float64         `json:"quantity" validate:"required,gte=1"`
	AddonIDs []int64         `json:"addon_ids" validate:"dive,gt=0"`
	Notes    string          `json:"notes,omitempty" validate:"max=500"`
}

// UpdateItemRequest changes a cart line. A quantity below one removes it.
type UpdateItemRequest struct {
	Quantity float64  `json:"quantity"`
	Notes    *string  `json:"notes,omitempty" validate:"omitempty,max=500"`
	AddonIDs *[]int64 `json:"addon_ids,omitempty"`
}

// ProcessSaleRequest carries the tender for the current cart
type ProcessSaleRequest struct {
	PaymentDetails models.PaymentDetails `json:"payment_details"`
}

// SaleResult is returned by ProcessSale
type SaleResult struct {
	Sale         *models.Sale         `json:"sale"`
	Customer     *models.Customer     `json:"customer,omitempty"`
	StockChanges []models.StockChange `json:"stock_changes"`
	Change       float64              `json:"change"`
}

// CancelResult is returned by CancelSale. Changed is false when the sale was
// missing or already canceled.
type CancelResult struct {
	Changed      bool                 `json:"changed"`
	Sale         *models.Sale         `json:"sale,omitempty"`
	Customer     *models.Customer     `json:"customer,omitempty"`
	StockChanges []models.StockChange `json:"stock_changes,omitempty"`
}

// SaleList is a page of sales
type SaleList struct {
	Sales      []*models.Sale           `json:"sales"`
	Pagination *models.PaginationResult `json:"pagination"`
}

// ShiftReport is a shift with everything tagged to it
type ShiftReport struct {
	Shift    *models.Shift     `json:"shift"`
	Expenses []*models.Expense `json:"expenses"`
	Sales    []*models.Sale    `json:"sales"`
}

// ShopInfoRequest represents the shop configuration form
type ShopInfoRequest struct {
	Name                  string  `json:"name" validate:"required,min=1,max=255"`
	Address               string  `json:"address" validate:"max=500"`
	Phone                 string  `json:"phone" validate:"max=20"`
	TaxEnabled            bool    `json:"tax_enabled"`
	TaxRate               float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	LoyaltyEnabled        bool    `json:"loyalty_enabled"`
	PointsPerCurrencyUnit float64 `json:"points_per_currency_unit" validate:"gte=0"`
	CurrencyPerPoint      float64 `json:"currency_per_point" validate:"gte=0"`
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Name        string              `json:"name" validate:"required,min=1,max=100"`
	PIN         string              `json:"pin" validate:"required,numeric,min=4,max=8"`
	Role        models.Role         `json:"role" validate:"required,oneof=admin cashier"`
	Permissions []models.Permission `json:"permissions,omitempty"`
}

// UpdateUserRequest represents a partial update of a user
type UpdateUserRequest struct {
	Name        *string              `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	PIN         *string              `json:"pin,omitempty" validate:"omitempty,numeric,min=4,max=8"`
	Role        *models.Role         `json:"role,omitempty" validate:"omitempty,oneof=admin cashier"`
	Permissions *[]models.Permission `json:"permissions,omitempty"`
	Active      *bool                `json:"active,omitempty"`
}

// BackupResult describes a stored snapshot
type BackupResult struct {
	Key    string         `json:"key"`
	Size   int64          `json:"size"`
	Counts map[string]int `json:"counts"`
}

// BackupInfo describes a snapshot in the store
type BackupInfo struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}
