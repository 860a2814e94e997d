package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"pos-engine/internal/adapters/storage"
	"pos-engine/internal/events"
	"pos-engine/internal/repositories"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	Catalog CatalogService
	Party   PartyService
	Cart    CartService
	Sale    SaleService
	Shift   ShiftService
	Shop    ShopService
	User    UserService
	Backup  BackupService
	Ledger  *StockLedger
}

// ServiceConfig holds configuration for services
type ServiceConfig struct {
	// BackupRetention is the number of snapshots kept after an export
	BackupRetention int
}

// NewServiceContainer creates a new service container with all services
func NewServiceContainer(repos repositories.RepositoryManager, store storage.SnapshotStore, publisher events.Publisher, config *ServiceConfig, logger *logrus.Logger) (*ServiceContainer, error) {
	if repos == nil {
		return nil, fmt.Errorf("repository manager cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("snapshot store cannot be nil")
	}
	if config == nil {
		config = &ServiceConfig{BackupRetention: 30}
	}
	if logger == nil {
		logger = logrus.New()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}

	ledger := NewStockLedger(repos, logger)
	carts := NewCartService(repos, logger)

	return &ServiceContainer{
		Catalog: NewCatalogService(repos, ledger, publisher, logger),
		Party:   NewPartyService(repos, ledger, publisher, logger),
		Cart:    carts,
		Sale:    NewSaleService(repos, carts, ledger, publisher, logger),
		Shift:   NewShiftService(repos, publisher, logger),
		Shop:    NewShopService(repos, publisher, logger),
		User:    NewUserService(repos, logger),
		Backup:  NewBackupService(repos, store, config.BackupRetention, publisher, logger),
		Ledger:  ledger,
	}, nil
}

// Validate validates that all services are properly initialized
func (sc *ServiceContainer) Validate() error {
	if sc.Catalog == nil {
		return fmt.Errorf("catalog service is nil")
	}
	if sc.Party == nil {
		return fmt.Errorf("party service is nil")
	}
	if sc.Cart == nil {
		return fmt.Errorf("cart service is nil")
	}
	if sc.Sale == nil {
		return fmt.Errorf("sale service is nil")
	}
	if sc.Shift == nil {
		return fmt.Errorf("shift service is nil")
	}
	if sc.Shop == nil {
		return fmt.Errorf("shop service is nil")
	}
	if sc.User == nil {
		return fmt.Errorf("user service is nil")
	}
	if sc.Backup == nil {
		return fmt.Errorf("backup service is nil")
	}
	if sc.Ledger == nil {
		return fmt.Errorf("stock ledger is nil")
	}
	return nil
}
