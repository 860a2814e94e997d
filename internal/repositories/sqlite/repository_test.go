package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
)

func testSale(productID int64) *models.Sale {
	item := models.NewCartItem(models.ItemTypeProduct, productID, "Cola", 10, 6, 2)
	return &models.Sale{
		Date:           time.Now(),
		Items:          []models.CartItem{*item},
		SubTotal:       20,
		TotalAmount:    20,
		TotalCost:      12,
		UserID:         1,
		UserName:       "Alice",
		PaymentDetails: models.PaymentDetails{Cash: 20},
		Status:         models.SaleCompleted,
	}
}

func TestProductRepository_AdjustStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(db, testLogger())
	ctx := context.Background()

	product := models.NewProduct("Cola", 10, 6, "can")
	product.Stock = 5
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	stock, err := repo.AdjustStock(ctx, product.ID, -7)
	if err != nil {
		t.Fatalf("AdjustStock() failed: %v", err)
	}
	if stock != -2 {
		t.Errorf("Expected stock to go negative to -2, got %v", stock)
	}

	if _, err := repo.AdjustStock(ctx, 999, 1); !repositories.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestProductRepository_BarcodeUnique(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(db, testLogger())
	ctx := context.Background()

	code := "4006381333931"
	first := models.NewProduct("Pen", 2, 1, "pcs")
	first.Barcode = &code
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	second := models.NewProduct("Pencil", 1, 0.5, "pcs")
	second.Barcode = &code
	if err := repo.Create(ctx, second); !repositories.IsDuplicate(err) {
		t.Errorf("Expected duplicate barcode error, got %v", err)
	}

	found, err := repo.GetByBarcode(ctx, code)
	if err != nil {
		t.Fatalf("GetByBarcode() failed: %v", err)
	}
	if found.ID != first.ID {
		t.Errorf("Expected product %d, got %d", first.ID, found.ID)
	}

	// Products without a barcode never collide
	for i := 0; i < 2; i++ {
		if err := repo.Create(ctx, models.NewProduct("Loose", 1, 0, "pcs")); err != nil {
			t.Fatalf("Create() without barcode failed: %v", err)
		}
	}
}

func TestProductRepository_LowStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(db, testLogger())
	ctx := context.Background()

	threshold := 3.0
	low := models.NewProduct("Milk", 3, 2, "l")
	low.Stock = 2
	low.LowStockThreshold = &threshold
	ok := models.NewProduct("Tea", 3, 2, "box")
	ok.Stock = 50
	ok.LowStockThreshold = &threshold

	for _, p := range []*models.Product{low, ok} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	products, err := repo.GetLowStock(ctx)
	if err != nil {
		t.Fatalf("GetLowStock() failed: %v", err)
	}
	if len(products) != 1 || products[0].ID != low.ID {
		t.Errorf("Expected only Milk to be low stock, got %d products", len(products))
	}
}

func TestRecipeRepository_GetUsingProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := testLogger()
	products := NewProductRepository(db, logger)
	recipes := NewRecipeRepository(db, logger)
	ctx := context.Background()

	flour := models.NewRawMaterial("Flour", 2, "kg")
	cheese := models.NewRawMaterial("Cheese", 8, "kg")
	for _, p := range []*models.Product{flour, cheese} {
		if err := products.Create(ctx, p); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	pizza := models.NewRecipe("Pizza", 50,
		models.Ingredient{ProductID: flour.ID, Quantity: 0.2},
		models.Ingredient{ProductID: cheese.ID, Quantity: 0.1},
	)
	bread := models.NewRecipe("Bread", 5, models.Ingredient{ProductID: flour.ID, Quantity: 0.5})
	for _, r := range []*models.Recipe{pizza, bread} {
		if err := recipes.Create(ctx, r); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	using, err := recipes.GetUsingProduct(ctx, flour.ID)
	if err != nil {
		t.Fatalf("GetUsingProduct() failed: %v", err)
	}
	if len(using) != 2 {
		t.Errorf("Expected 2 recipes using flour, got %d", len(using))
	}

	using, err = recipes.GetUsingProduct(ctx, cheese.ID)
	if err != nil {
		t.Fatalf("GetUsingProduct() failed: %v", err)
	}
	if len(using) != 1 || using[0].Name != "Pizza" {
		t.Errorf("Expected only Pizza to use cheese, got %v", using)
	}

	retrieved, err := recipes.GetByID(ctx, pizza.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if len(retrieved.Ingredients) != 2 || retrieved.Ingredients[1].Quantity != 0.1 {
		t.Errorf("Ingredients did not round trip: %+v", retrieved.Ingredients)
	}
}

func TestAddonGroupRepository_GetContainingAddon(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := testLogger()
	addons := NewAddonRepository(db, logger)
	groups := NewAddonGroupRepository(db, logger)
	ctx := context.Background()

	cheese := &models.Addon{Name: "Cheese", Price: 5}
	if err := addons.Create(ctx, cheese); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	group := &models.AddonGroup{Name: "Toppings", SelectionType: models.SelectionMultiple, AddonIDs: []int64{cheese.ID}}
	if err := groups.Create(ctx, group); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	containing, err := groups.GetContainingAddon(ctx, cheese.ID)
	if err != nil {
		t.Fatalf("GetContainingAddon() failed: %v", err)
	}
	if len(containing) != 1 || containing[0].ID != group.ID {
		t.Errorf("Expected Toppings to contain cheese, got %v", containing)
	}
}

func TestSaleRepository_CreateAndGuards(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSaleRepository(db, testLogger())
	ctx := context.Background()

	sale := testSale(7)
	sale.Discount = models.Discount{Type: models.DiscountPercentage, Value: 10}
	sale.Items[0].SelectedAddons = []models.Addon{{ID: 1, Name: "Ice", Price: 0}}
	if err := repo.Create(ctx, sale); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, sale.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if retrieved.Discount.Type != models.DiscountPercentage || retrieved.Discount.Value != 10 {
		t.Errorf("Discount did not round trip: %+v", retrieved.Discount)
	}
	if len(retrieved.Items) != 1 || len(retrieved.Items[0].SelectedAddons) != 1 {
		t.Errorf("Items did not round trip: %+v", retrieved.Items)
	}

	used, err := repo.ExistsWithProduct(ctx, 7)
	if err != nil {
		t.Fatalf("ExistsWithProduct() failed: %v", err)
	}
	if !used {
		t.Error("Expected product 7 to be referenced by a sale")
	}

	used, err = repo.ExistsWithProduct(ctx, 8)
	if err != nil {
		t.Fatalf("ExistsWithProduct() failed: %v", err)
	}
	if used {
		t.Error("Expected product 8 not to be referenced")
	}

	used, err = repo.ExistsWithRecipe(ctx, 7)
	if err != nil {
		t.Fatalf("ExistsWithRecipe() failed: %v", err)
	}
	if used {
		t.Error("A product line must not match a recipe with the same id")
	}
}

func TestSaleRepository_MarkCanceledAndTotals(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := testLogger()
	shifts := NewShiftRepository(db, logger)
	sales := NewSaleRepository(db, logger)
	ctx := context.Background()

	shift := models.NewShift(1, "Alice", 100)
	if err := shifts.Create(ctx, shift); err != nil {
		t.Fatalf("Create shift failed: %v", err)
	}

	cash := testSale(1)
	cash.ShiftID = &shift.ID
	card := testSale(1)
	card.ShiftID = &shift.ID
	card.PaymentDetails = models.PaymentDetails{Card: 20}
	for _, s := range []*models.Sale{cash, card} {
		if err := sales.Create(ctx, s); err != nil {
			t.Fatalf("Create sale failed: %v", err)
		}
	}

	if err := sales.MarkCanceled(ctx, card.ID, time.Now()); err != nil {
		t.Fatalf("MarkCanceled() failed: %v", err)
	}
	if err := sales.MarkCanceled(ctx, card.ID, time.Now()); !repositories.IsNotFound(err) {
		t.Errorf("Expected second cancel to match no completed sale, got %v", err)
	}

	totals, err := sales.ShiftTotals(ctx, shift.ID)
	if err != nil {
		t.Fatalf("ShiftTotals() failed: %v", err)
	}
	if totals.Count != 1 || totals.CashSales != 20 || totals.CardSales != 0 || totals.TotalSales != 20 {
		t.Errorf("Unexpected totals: %+v", totals)
	}

	status := models.SaleCanceled
	canceled, err := sales.List(ctx, models.SaleFilters{Status: &status})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(canceled) != 1 || canceled[0].CanceledAt == nil {
		t.Errorf("Expected one canceled sale with a timestamp, got %v", canceled)
	}

	count, err := sales.Count(ctx, models.SaleFilters{ShiftID: &shift.ID})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 sales in shift, got %d", count)
	}
}

func TestShiftRepository_ActiveAndClose(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewShiftRepository(db, testLogger())
	ctx := context.Background()

	if _, err := repo.GetActiveByUser(ctx, 1); !repositories.IsNotFound(err) {
		t.Errorf("Expected no active shift, got %v", err)
	}

	shift := models.NewShift(1, "Alice", 50)
	if err := repo.Create(ctx, shift); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	active, err := repo.GetActiveByUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetActiveByUser() failed: %v", err)
	}
	if active.ID != shift.ID {
		t.Errorf("Expected active shift %d, got %d", shift.ID, active.ID)
	}

	shift.Close(70, models.ShiftTotals{CashSales: 25, TotalSales: 25, TotalExpenses: 5}, time.Now())
	if err := repo.Close(ctx, shift); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := repo.Close(ctx, shift); !repositories.IsNotFound(err) {
		t.Errorf("Expected closing a closed shift to fail, got %v", err)
	}

	closed, err := repo.GetByID(ctx, shift.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if closed.ExpectedCash != 70 || closed.Difference != 0 || closed.EndTime == nil {
		t.Errorf("Unexpected closed shift: %+v", closed)
	}
}

func TestExpenseRepository_SumByShift(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := testLogger()
	shifts := NewShiftRepository(db, logger)
	expenses := NewExpenseRepository(db, logger)
	ctx := context.Background()

	shift := models.NewShift(1, "Alice", 0)
	if err := shifts.Create(ctx, shift); err != nil {
		t.Fatalf("Create shift failed: %v", err)
	}

	for _, amount := range []float64{4.5, 10} {
		if err := expenses.Create(ctx, models.NewExpense(shift.ID, "Supplies", amount)); err != nil {
			t.Fatalf("Create expense failed: %v", err)
		}
	}

	total, err := expenses.SumByShift(ctx, shift.ID)
	if err != nil {
		t.Fatalf("SumByShift() failed: %v", err)
	}
	if total != 14.5 {
		t.Errorf("Expected 14.5, got %v", total)
	}

	if err := expenses.Create(ctx, models.NewExpense(999, "Ghost", 1)); !repositories.IsConstraint(err) {
		t.Errorf("Expected constraint error for unknown shift, got %v", err)
	}
}

func TestPurchaseRepository_ExistsGuards(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	logger := testLogger()
	suppliers := NewSupplierRepository(db, logger)
	purchases := NewPurchaseRepository(db, logger)
	ctx := context.Background()

	supplier := models.NewSupplier("Mill Co", "", "")
	if err := suppliers.Create(ctx, supplier); err != nil {
		t.Fatalf("Create supplier failed: %v", err)
	}

	invoice := models.NewPurchaseInvoice(supplier.ID, []models.PurchaseItem{{ProductID: 3, Quantity: 10, Cost: 2}})
	if err := purchases.Create(ctx, invoice); err != nil {
		t.Fatalf("Create invoice failed: %v", err)
	}

	if ok, err := purchases.ExistsForSupplier(ctx, supplier.ID); err != nil || !ok {
		t.Errorf("ExistsForSupplier() = %v, %v", ok, err)
	}
	if ok, err := purchases.ExistsWithProduct(ctx, 3); err != nil || !ok {
		t.Errorf("ExistsWithProduct(3) = %v, %v", ok, err)
	}
	if ok, err := purchases.ExistsWithProduct(ctx, 4); err != nil || ok {
		t.Errorf("ExistsWithProduct(4) = %v, %v", ok, err)
	}
}

func TestShopInfoRepository_SaveUpserts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewShopInfoRepository(db, testLogger())
	ctx := context.Background()

	if ok, err := repo.Exists(ctx); err != nil || ok {
		t.Fatalf("Expected no shop info yet, got %v, %v", ok, err)
	}

	info := models.NewShopInfo("Corner Cafe")
	if err := repo.Save(ctx, info); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	info.TaxEnabled = true
	info.TaxRate = 14
	if err := repo.Save(ctx, info); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	retrieved, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !retrieved.ChargesTax() || retrieved.TaxRate != 14 {
		t.Errorf("Expected tax to be enabled at 14%%, got %+v", retrieved)
	}
}

func TestUserRepository_Permissions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(db, testLogger())
	ctx := context.Background()

	user := models.NewUser("bob", models.RoleCashier)
	user.PINHash = "hash"
	user.Permissions = append(user.Permissions, models.PermCancelSale)
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	retrieved, err := repo.GetByName(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByName() failed: %v", err)
	}
	if !retrieved.Can(models.PermCancelSale) || retrieved.Can(models.PermManageUsers) {
		t.Errorf("Permissions did not round trip: %v", retrieved.Permissions)
	}
	if retrieved.PINHash != "hash" {
		t.Error("Expected PIN hash to be stored")
	}

	admins, err := repo.CountActiveAdmins(ctx)
	if err != nil {
		t.Fatalf("CountActiveAdmins() failed: %v", err)
	}
	if admins != 0 {
		t.Errorf("Expected 0 admins, got %d", admins)
	}
}

func TestTransactionManager_RollbackOnError(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	manager := NewSQLiteRepositoryManager(db, testLogger())
	ctx := context.Background()

	product := models.NewProduct("Cola", 10, 6, "can")
	product.Stock = 10
	if err := manager.Products().Create(ctx, product); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	boom := errors.New("boom")
	err := manager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := manager.Products().AdjustStock(txCtx, product.ID, -3); err != nil {
			return err
		}
		// Nested calls join the outer transaction
		return manager.WithTransaction(txCtx, func(inner context.Context) error {
			if _, err := manager.Products().AdjustStock(inner, product.ID, -3); err != nil {
				return err
			}
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	retrieved, err := manager.Products().GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if retrieved.Stock != 10 {
		t.Errorf("Expected rollback to restore stock 10, got %v", retrieved.Stock)
	}
}

func TestSnapshotRepository_Wipe(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	manager := NewSQLiteRepositoryManager(db, testLogger())
	ctx := context.Background()

	shift := models.NewShift(1, "Alice", 0)
	if err := manager.Shifts().Create(ctx, shift); err != nil {
		t.Fatalf("Create shift failed: %v", err)
	}
	sale := testSale(1)
	sale.ShiftID = &shift.ID
	if err := manager.Sales().Create(ctx, sale); err != nil {
		t.Fatalf("Create sale failed: %v", err)
	}

	err := manager.WithTransaction(ctx, func(txCtx context.Context) error {
		return manager.Snapshot().Wipe(txCtx)
	})
	if err != nil {
		t.Fatalf("Wipe() failed: %v", err)
	}

	count, err := manager.Sales().Count(ctx, models.SaleFilters{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no sales after wipe, got %d", count)
	}
}
