package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"pos-engine/internal/adapters/storage"
	"pos-engine/internal/database"
	"pos-engine/internal/events"
	"pos-engine/internal/middleware"
	"pos-engine/internal/models"
	"pos-engine/internal/repositories/sqlite"
	"pos-engine/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiEnv struct {
	router   *gin.Engine
	services *services.ServiceContainer
	admin    *models.User
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "handlers_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(tempDir, "test.db")+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	if err := database.NewMigrationManager(db, logger).RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repos := sqlite.NewSQLiteRepositoryManager(db, logger)
	container, err := services.NewServiceContainer(repos, storage.NewMemoryStore(), &events.Recorder{}, nil, logger)
	if err != nil {
		t.Fatalf("Failed to create services: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(tempDir)
	})

	ctx := context.Background()
	if err := container.Shop.EnsureDefaults(ctx, models.NewShopInfo("Test Shop")); err != nil {
		t.Fatalf("Failed to seed shop: %v", err)
	}
	admin, err := container.User.EnsureAdmin(ctx, "Admin", "2468")
	if err != nil {
		t.Fatalf("Failed to seed admin: %v", err)
	}

	router := NewRouter(&RouterConfig{
		Services:    container,
		AuthService: middleware.NewAuthService(&middleware.AuthConfig{JWTSecret: "test-secret", TokenDuration: time.Hour}),
		Logger:      logger,
		HealthCheck: repos.Health,
	})

	return &apiEnv{router: router, services: container, admin: admin}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) login(t *testing.T, userID int64, pin string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{UserID: userID, PIN: pin})
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	if resp.Token == "" {
		t.Fatal("Expected a token")
	}
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	decode(t, w, &resp)
	return resp
}

func TestHealth(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var health models.HealthCheck
	decode(t, w, &health)
	if health.Status != "healthy" || health.Version != Version {
		t.Errorf("Unexpected health body: %+v", health)
	}
}

func TestAuth_LoginAndMe(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{UserID: env.admin.ID, PIN: "0000"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong PIN, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{"pin": "2468"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing user_id, got %d", w.Code)
	}
	if resp := decodeError(t, w); len(resp.ValidationErrors) == 0 {
		t.Error("Expected field level validation errors")
	}

	w = env.do(t, http.MethodGet, "/api/v1/auth/users", "", nil)
	var users []LoginUser
	decode(t, w, &users)
	if len(users) != 1 || users[0].Name != "Admin" {
		t.Errorf("Unexpected login users: %+v", users)
	}

	token := env.login(t, env.admin.ID, "2468")

	w = env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /auth/me, got %d", w.Code)
	}
	var me models.User
	decode(t, w, &me)
	if me.ID != env.admin.ID || me.Role != models.RoleAdmin {
		t.Errorf("Unexpected identity: %+v", me)
	}

	w = env.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}

func TestPermissions_CashierForbidden(t *testing.T) {
	env := setupAPI(t)
	adminToken := env.login(t, env.admin.ID, "2468")

	w := env.do(t, http.MethodPost, "/api/v1/users", adminToken, services.CreateUserRequest{
		Name: "Bob",
		PIN:  "1111",
		Role: models.RoleCashier,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create cashier: %d %s", w.Code, w.Body.String())
	}
	var cashier models.User
	decode(t, w, &cashier)

	token := env.login(t, cashier.ID, "1111")

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"read catalog", http.MethodGet, "/api/v1/products", http.StatusOK},
		{"own cart", http.MethodGet, "/api/v1/cart", http.StatusOK},
		{"create product", http.MethodPost, "/api/v1/products", http.StatusForbidden},
		{"export backup", http.MethodPost, "/api/v1/backups", http.StatusForbidden},
		{"list users", http.MethodGet, "/api/v1/users", http.StatusForbidden},
		{"cancel sale", http.MethodPost, "/api/v1/sales/1/cancel", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body interface{}
			if tt.method == http.MethodPost {
				body = map[string]string{}
			}
			w := env.do(t, tt.method, tt.path, token, body)
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestErrors_StatusMapping(t *testing.T) {
	env := setupAPI(t)
	token := env.login(t, env.admin.ID, "2468")

	// Precondition: no shift is open
	w := env.do(t, http.MethodPost, "/api/v1/expenses", token, ExpenseRequest{Description: "Ice", Amount: 5})
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeError(t, w)
	if resp.Error != CodePreconditionFailed || resp.Code != "no_active_shift" {
		t.Errorf("Unexpected precondition body: %+v", resp)
	}

	// Validation
	w = env.do(t, http.MethodPost, "/api/v1/products", token, services.ProductRequest{Name: "", Price: 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty product name, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/products/abc", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non numeric id, got %d", w.Code)
	}

	// Not found
	w = env.do(t, http.MethodGet, "/api/v1/products/999", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Error != CodeNotFound {
		t.Errorf("Expected not_found, got %q", resp.Error)
	}

	// Malformed body
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shifts/start", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestSaleFlow(t *testing.T) {
	env := setupAPI(t)
	token := env.login(t, env.admin.ID, "2468")

	w := env.do(t, http.MethodPost, "/api/v1/products", token, services.ProductRequest{
		Name:  "Cola",
		Price: 10,
		Cost:  6,
		Stock: 5,
		Unit:  "can",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create product: %d %s", w.Code, w.Body.String())
	}
	var cola models.Product
	decode(t, w, &cola)

	// Selling without a shift is rejected
	w = env.do(t, http.MethodPost, "/api/v1/cart/items", token, services.AddItemRequest{Type: models.ItemTypeProduct, ItemID: cola.ID, Quantity: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to add to cart: %d %s", w.Code, w.Body.String())
	}
	w = env.do(t, http.MethodPost, "/api/v1/sales", token, services.ProcessSaleRequest{PaymentDetails: models.PaymentDetails{Cash: 20}})
	if w.Code != http.StatusConflict || decodeError(t, w).Code != "no_active_shift" {
		t.Fatalf("Expected no_active_shift, got %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/v1/shifts/start", token, StartShiftRequest{StartingCash: 50})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to start shift: %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/sales/preview", token, nil)
	var preview services.PricingBreakdown
	decode(t, w, &preview)
	if preview.TotalAmount != 20 {
		t.Errorf("Expected preview total 20, got %.2f", preview.TotalAmount)
	}

	w = env.do(t, http.MethodPost, "/api/v1/sales", token, services.ProcessSaleRequest{PaymentDetails: models.PaymentDetails{Cash: 15}})
	if w.Code != http.StatusConflict || decodeError(t, w).Code != "insufficient_payment" {
		t.Fatalf("Expected insufficient_payment, got %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/v1/sales", token, services.ProcessSaleRequest{PaymentDetails: models.PaymentDetails{Cash: 25}})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to process sale: %d %s", w.Code, w.Body.String())
	}
	var result services.SaleResult
	decode(t, w, &result)
	if result.Sale.TotalAmount != 20 || result.Change != 5 {
		t.Errorf("Expected total 20 and change 5, got %.2f and %.2f", result.Sale.TotalAmount, result.Change)
	}
	if result.Sale.PaymentDetails.Cash != 20 {
		t.Errorf("Expected cash kept net of change, got %.2f", result.Sale.PaymentDetails.Cash)
	}

	w = env.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	var cart models.Cart
	decode(t, w, &cart)
	if !cart.IsEmpty() {
		t.Error("Expected cart to be cleared after the sale")
	}

	w = env.do(t, http.MethodGet, "/api/v1/products/barcode/none", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown barcode, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/v1/sales?limit=10", token, nil)
	var list services.SaleList
	decode(t, w, &list)
	if len(list.Sales) != 1 {
		t.Errorf("Expected 1 sale, got %d", len(list.Sales))
	}

	w = env.do(t, http.MethodGet, "/api/v1/sales?status=pending", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", w.Code)
	}

	cancelPath := "/api/v1/sales/" + jsonID(result.Sale.ID) + "/cancel"
	w = env.do(t, http.MethodPost, cancelPath, token, nil)
	var cancel services.CancelResult
	decode(t, w, &cancel)
	if !cancel.Changed {
		t.Error("Expected first cancel to change the sale")
	}
	w = env.do(t, http.MethodPost, cancelPath, token, nil)
	decode(t, w, &cancel)
	if cancel.Changed {
		t.Error("Expected second cancel to be a no-op")
	}

	w = env.do(t, http.MethodGet, "/api/v1/products/"+jsonID(cola.ID), token, nil)
	decode(t, w, &cola)
	if cola.Stock != 5 {
		t.Errorf("Expected stock restored to 5, got %.2f", cola.Stock)
	}

	w = env.do(t, http.MethodPost, "/api/v1/shifts/end", token, EndShiftRequest{CountedCash: 50})
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to end shift: %d %s", w.Code, w.Body.String())
	}
	var report services.ShiftReport
	decode(t, w, &report)
	if report.Shift.Status != models.ShiftClosed || report.Shift.ExpectedCash != 50 {
		t.Errorf("Unexpected shift report: %+v", report.Shift)
	}
}

func TestBackupDownload(t *testing.T) {
	env := setupAPI(t)
	token := env.login(t, env.admin.ID, "2468")

	w := env.do(t, http.MethodPost, "/api/v1/backups", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to export: %d %s", w.Code, w.Body.String())
	}
	var result services.BackupResult
	decode(t, w, &result)

	w = env.do(t, http.MethodGet, "/api/v1/backups/"+filepath.Base(result.Key), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to download: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Disposition") == "" {
		t.Error("Expected attachment header")
	}
	var data models.BackupData
	decode(t, w, &data)
	if data.Version != models.BackupFormatVersion {
		t.Errorf("Expected version %d, got %d", models.BackupFormatVersion, data.Version)
	}

	w = env.do(t, http.MethodPost, "/api/v1/backups/import", token, data)
	if w.Code != http.StatusOK {
		t.Errorf("Failed to import: %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/backups/missing.json", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing backup, got %d", w.Code)
	}
}

func jsonID(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}

func TestRecipeCostResponse(t *testing.T) {
	env := setupAPI(t)
	token := env.login(t, env.admin.ID, "2468")

	w := env.do(t, http.MethodPost, "/api/v1/products", token, services.ProductRequest{
		Name:          "Flour",
		Cost:          4,
		Stock:         10,
		Unit:          "kg",
		IsRawMaterial: true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create raw material: %d %s", w.Code, w.Body.String())
	}
	var flour models.Product
	decode(t, w, &flour)

	w = env.do(t, http.MethodPost, "/api/v1/recipes", token, services.RecipeRequest{
		Name:        "Bread",
		Price:       5,
		Ingredients: []models.Ingredient{{ProductID: flour.ID, Quantity: 0.5}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create recipe: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		ID       int64   `json:"id"`
		Name     string  `json:"name"`
		UnitCost float64 `json:"unit_cost"`
	}
	decode(t, w, &created)
	if created.ID == 0 || created.Name != "Bread" || created.UnitCost != 2 {
		t.Errorf("Unexpected recipe response: %+v", created)
	}

	w = env.do(t, http.MethodGet, "/api/v1/recipes/"+jsonID(created.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to get recipe: %d %s", w.Code, w.Body.String())
	}
	decode(t, w, &created)
	if created.UnitCost != 2 {
		t.Errorf("Expected unit cost 2, got %.2f", created.UnitCost)
	}
}
