package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"pos-engine/internal/database"
	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	tempDir, err := os.MkdirTemp("", "sqlite_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	if err := database.NewMigrationManager(db, logger).RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestCustomerRepository_Create(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCustomerRepository(db, testLogger())
	ctx := context.Background()

	customer := models.NewCustomer("John Doe", "0412345678", "1 Main St")

	if err := repo.Create(ctx, customer); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if customer.ID == 0 {
		t.Fatal("Create() did not assign an ID")
	}

	retrieved, err := repo.GetByID(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if retrieved.Name != customer.Name {
		t.Errorf("Expected name %s, got %s", customer.Name, retrieved.Name)
	}
	if retrieved.Balance != 0 || retrieved.LoyaltyPoints != 0 {
		t.Errorf("Expected zero balance and points, got %.2f / %d", retrieved.Balance, retrieved.LoyaltyPoints)
	}
}

func TestCustomerRepository_CreateWithPresetID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCustomerRepository(db, testLogger())
	ctx := context.Background()

	customer := models.NewCustomer("Restored", "", "")
	customer.ID = 42
	if err := repo.Create(ctx, customer); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if customer.ID != 42 {
		t.Errorf("Expected preset ID 42 to be kept, got %d", customer.ID)
	}

	dup := models.NewCustomer("Other", "", "")
	dup.ID = 42
	if err := repo.Create(ctx, dup); !repositories.IsDuplicate(err) {
		t.Errorf("Expected duplicate error, got %v", err)
	}
}

func TestCustomerRepository_GetByID_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCustomerRepository(db, testLogger())

	_, err := repo.GetByID(context.Background(), 999)
	if !repositories.IsNotFound(err) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestCustomerRepository_ApplyDelta(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCustomerRepository(db, testLogger())
	ctx := context.Background()

	customer := models.NewCustomer("Jane", "", "")
	if err := repo.Create(ctx, customer); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	updated, err := repo.ApplyDelta(ctx, customer.ID, -30, 12)
	if err != nil {
		t.Fatalf("ApplyDelta() failed: %v", err)
	}
	if updated.Balance != -30 || updated.LoyaltyPoints != 12 {
		t.Errorf("Expected -30 / 12, got %.2f / %d", updated.Balance, updated.LoyaltyPoints)
	}

	updated, err = repo.ApplyDelta(ctx, customer.ID, 10, -2)
	if err != nil {
		t.Fatalf("ApplyDelta() failed: %v", err)
	}
	if updated.Balance != -20 || updated.LoyaltyPoints != 10 {
		t.Errorf("Expected -20 / 10, got %.2f / %d", updated.Balance, updated.LoyaltyPoints)
	}

	if _, err := repo.ApplyDelta(ctx, 999, 1, 0); !repositories.IsNotFound(err) {
		t.Errorf("Expected not found for unknown customer, got %v", err)
	}
}

func TestCustomerRepository_UpdateKeepsBalance(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCustomerRepository(db, testLogger())
	ctx := context.Background()

	customer := models.NewCustomer("Jane", "", "")
	if err := repo.Create(ctx, customer); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err := repo.ApplyDelta(ctx, customer.ID, -15, 0); err != nil {
		t.Fatalf("ApplyDelta() failed: %v", err)
	}

	customer.Name = "Jane Smith"
	customer.Balance = 500
	if err := repo.Update(ctx, customer); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if retrieved.Name != "Jane Smith" {
		t.Errorf("Expected updated name, got %s", retrieved.Name)
	}
	if retrieved.Balance != -15 {
		t.Errorf("Expected balance to be untouched by Update, got %.2f", retrieved.Balance)
	}
}

func TestCustomerRepository_SearchAndDebtors(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCustomerRepository(db, testLogger())
	ctx := context.Background()

	customers := []*models.Customer{
		models.NewCustomer("Alice Brown", "0400000001", "Harbour Rd"),
		models.NewCustomer("Bob Green", "0400000002", "Hill St"),
		models.NewCustomer("Carol Brown", "0400000003", "Hill St"),
	}
	for _, c := range customers {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}
	if _, err := repo.ApplyDelta(ctx, customers[1].ID, -40, 0); err != nil {
		t.Fatalf("ApplyDelta() failed: %v", err)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"Brown", 2},
		{"Hill", 2},
		{"0400000001", 1},
		{"nobody", 0},
		{"", 0},
	}
	for _, tt := range tests {
		results, err := repo.Search(ctx, tt.query, 10)
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", tt.query, err)
		}
		if len(results) != tt.want {
			t.Errorf("Search(%q) returned %d results, want %d", tt.query, len(results), tt.want)
		}
	}

	debtors, err := repo.GetDebtors(ctx)
	if err != nil {
		t.Fatalf("GetDebtors() failed: %v", err)
	}
	if len(debtors) != 1 || debtors[0].ID != customers[1].ID {
		t.Errorf("Expected Bob as the only debtor, got %v", debtors)
	}
}

func TestCustomerRepository_DeleteReferencedBySale(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := testLogger()
	customers := NewCustomerRepository(db, logger)
	sales := NewSaleRepository(db, logger)
	ctx := context.Background()

	customer := models.NewCustomer("Jane", "", "")
	if err := customers.Create(ctx, customer); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	sale := testSale(1)
	sale.CustomerID = &customer.ID
	if err := sales.Create(ctx, sale); err != nil {
		t.Fatalf("Create sale failed: %v", err)
	}

	if err := customers.Delete(ctx, customer.ID); !repositories.IsConstraint(err) {
		t.Errorf("Expected constraint error when deleting a customer with sales, got %v", err)
	}
}
