package repositories

import (
	"context"
)

// Transaction represents a database transaction that can be used across multiple repositories
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context. Repositories called with it join the transaction.
	Context() context.Context
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// BeginTransaction starts a new transaction
	BeginTransaction(ctx context.Context) (Transaction, error)

	// WithTransaction executes fn within a transaction. A ctx that already
	// carries a transaction joins it instead of starting a new one.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories provides access to all repositories
type Repositories interface {
	Products() ProductRepository
	Recipes() RecipeRepository
	Categories() CategoryRepository
	Addons() AddonRepository
	AddonGroups() AddonGroupRepository
	Customers() CustomerRepository
	Suppliers() SupplierRepository
	Sales() SaleRepository
	Shifts() ShiftRepository
	Expenses() ExpenseRepository
	Payments() PaymentRepository
	Purchases() PurchaseRepository
	StockMovements() StockMovementRepository
	ShopInfo() ShopInfoRepository
	Users() UserRepository
	Snapshot() SnapshotRepository
}

// RepositoryManager provides access to all repositories and transaction management
type RepositoryManager interface {
	TransactionManager
	Repositories

	// Close closes all repository connections
	Close() error

	// Health checks the health of the repository connections
	Health(ctx context.Context) error
}
