package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

// SQLiteRepositoryManager implements the RepositoryManager interface for SQLite
type SQLiteRepositoryManager struct {
	db                 *sql.DB
	logger             *logrus.Logger
	productRepo        repositories.ProductRepository
	recipeRepo         repositories.RecipeRepository
	categoryRepo       repositories.CategoryRepository
	addonRepo          repositories.AddonRepository
	addonGroupRepo     repositories.AddonGroupRepository
	customerRepo       repositories.CustomerRepository
	supplierRepo       repositories.SupplierRepository
	saleRepo           repositories.SaleRepository
	shiftRepo          repositories.ShiftRepository
	expenseRepo        repositories.ExpenseRepository
	paymentRepo        repositories.PaymentRepository
	purchaseRepo       repositories.PurchaseRepository
	stockMovementRepo  repositories.StockMovementRepository
	shopInfoRepo       repositories.ShopInfoRepository
	userRepo           repositories.UserRepository
	snapshotRepo       repositories.SnapshotRepository
	transactionManager repositories.TransactionManager
}

// NewSQLiteRepositoryManager creates a repository manager over an open database
func NewSQLiteRepositoryManager(db *sql.DB, logger *logrus.Logger) *SQLiteRepositoryManager {
	if logger == nil {
		logger = logrus.New()
	}

	return &SQLiteRepositoryManager{
		db:                 db,
		logger:             logger,
		productRepo:        NewProductRepository(db, logger),
		recipeRepo:         NewRecipeRepository(db, logger),
		categoryRepo:       NewCategoryRepository(db, logger),
		addonRepo:          NewAddonRepository(db, logger),
		addonGroupRepo:     NewAddonGroupRepository(db, logger),
		customerRepo:       NewCustomerRepository(db, logger),
		supplierRepo:       NewSupplierRepository(db, logger),
		saleRepo:           NewSaleRepository(db, logger),
		shiftRepo:          NewShiftRepository(db, logger),
		expenseRepo:        NewExpenseRepository(db, logger),
		paymentRepo:        NewPaymentRepository(db, logger),
		purchaseRepo:       NewPurchaseRepository(db, logger),
		stockMovementRepo:  NewStockMovementRepository(db, logger),
		shopInfoRepo:       NewShopInfoRepository(db, logger),
		userRepo:           NewUserRepository(db, logger),
		snapshotRepo:       NewSnapshotRepository(db, logger),
		transactionManager: NewSQLiteTransactionManager(db, logger),
	}
}

// BeginTransaction starts a new transaction
func (m *SQLiteRepositoryManager) BeginTransaction(ctx context.Context) (repositories.Transaction, error) {
	return m.transactionManager.BeginTransaction(ctx)
}

// WithTransaction executes a function within a transaction
func (m *SQLiteRepositoryManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.transactionManager.WithTransaction(ctx, fn)
}

// Products returns the product repository
func (m *SQLiteRepositoryManager) Products() repositories.ProductRepository { return m.productRepo }

// Recipes returns the recipe repository
func (m *SQLiteRepositoryManager) Recipes() repositories.RecipeRepository { return m.recipeRepo }

// Categories returns the category repository
func (m *SQLiteRepositoryManager) Categories() repositories.CategoryRepository { return m.categoryRepo }

// Addons returns the addon repository
func (m *SQLiteRepositoryManager) Addons() repositories.AddonRepository { return m.addonRepo }

// AddonGroups returns the addon group repository
func (m *SQLiteRepositoryManager) AddonGroups() repositories.AddonGroupRepository {
	return m.addonGroupRepo
}

// Customers returns the customer repository
func (m *SQLiteRepositoryManager) Customers() repositories.CustomerRepository { return m.customerRepo }

// Suppliers returns the supplier repository
func (m *SQLiteRepositoryManager) Suppliers() repositories.SupplierRepository { return m.supplierRepo }

// Sales returns the sale repository
func (m *SQLiteRepositoryManager) Sales() repositories.SaleRepository { return m.saleRepo }

// Shifts returns the shift repository
func (m *SQLiteRepositoryManager) Shifts() repositories.ShiftRepository { return m.shiftRepo }

// Expenses returns the expense repository
func (m *SQLiteRepositoryManager) Expenses() repositories.ExpenseRepository { return m.expenseRepo }

// Payments returns the payment repository
func (m *SQLiteRepositoryManager) Payments() repositories.PaymentRepository { return m.paymentRepo }

// Purchases returns the purchase invoice repository
func (m *SQLiteRepositoryManager) Purchases() repositories.PurchaseRepository { return m.purchaseRepo }

// StockMovements returns the stock movement repository
func (m *SQLiteRepositoryManager) StockMovements() repositories.StockMovementRepository {
	return m.stockMovementRepo
}

// ShopInfo returns the shop info repository
func (m *SQLiteRepositoryManager) ShopInfo() repositories.ShopInfoRepository { return m.shopInfoRepo }

// Users returns the user repository
func (m *SQLiteRepositoryManager) Users() repositories.UserRepository { return m.userRepo }

// Snapshot returns the snapshot repository used by restores
func (m *SQLiteRepositoryManager) Snapshot() repositories.SnapshotRepository { return m.snapshotRepo }

// Close closes all repository connections
func (m *SQLiteRepositoryManager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Health checks the health of the repository connections
func (m *SQLiteRepositoryManager) Health(ctx context.Context) error {
	if m.db == nil {
		return repositories.ConnectionError(errors.New("database is not open"))
	}

	if err := m.db.PingContext(ctx); err != nil {
		return repositories.ConnectionError(err)
	}

	var result int
	if err := m.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return repositories.ConnectionError(err)
	}

	return nil
}

var _ repositories.RepositoryManager = (*SQLiteRepositoryManager)(nil)
