package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos-engine/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func newAuthService() *AuthService {
	return NewAuthService(&AuthConfig{JWTSecret: "test-secret", TokenDuration: time.Hour})
}

func cashier() *models.User {
	user := models.NewUser("Bob", models.RoleCashier)
	user.ID = 7
	return user
}

func protectedRouter(auth *AuthService, perms ...models.Permission) *gin.Engine {
	router := gin.New()
	logger := testLogger()
	router.Use(RequestID())
	router.GET("/resource", Authentication(auth, logger), RequirePermission(logger, perms...), func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		c.JSON(http.StatusOK, actor)
	})
	return router
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	auth := newAuthService()

	token, expiresAt, err := auth.GenerateToken(cashier())
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("Expected expiry in the future")
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() failed: %v", err)
	}
	if claims.UserID != 7 || claims.Name != "Bob" || !claims.Can(models.PermSell) || claims.Can(models.PermBackup) {
		t.Errorf("Unexpected claims: %+v", claims)
	}

	other := NewAuthService(&AuthConfig{JWTSecret: "other-secret"})
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("Expected token signed with another secret to be rejected")
	}
}

func TestAuthentication(t *testing.T) {
	auth := newAuthService()
	token, _, err := auth.GenerateToken(cashier())
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"query token", "", "?access_token=" + token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
	}

	router := protectedRouter(auth)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/resource"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusUnauthorized && decodeError(t, w).Error != "unauthorized" {
				t.Error("Expected unauthorized error code")
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	auth := newAuthService()
	token, _, err := auth.GenerateToken(cashier())
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	allowed := protectedRouter(auth, models.PermSell)
	denied := protectedRouter(auth, models.PermSell, models.PermCancelSale)

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	allowed.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected cashier to sell, got %d", w.Code)
	}
	var actor struct {
		UserID   int64  `json:"user_id"`
		UserName string `json:"user_name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &actor); err != nil || actor.UserID != 7 || actor.UserName != "Bob" {
		t.Errorf("Expected actor from claims, got %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	denied.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", w.Code)
	}
	if body := decodeError(t, w); body.Error != "forbidden" || body.RequestID == "" {
		t.Errorf("Unexpected error body: %+v", body)
	}
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"http://till.local"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://till.local")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "http://till.local" {
		t.Error("Expected allowed origin to be echoed")
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("Expected unknown origin to get no CORS headers")
	}

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected preflight to return 204, got %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	router := gin.New()
	router.Use(RateLimiter(1, 2, testLogger()))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected burst of 2 then 429, got %v", codes)
	}

	// Another client has its own budget
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected second client to pass, got %d", w.Code)
	}
}

func TestRequestValidation(t *testing.T) {
	router := gin.New()
	router.Use(RequestValidation())
	router.GET("/sales", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		query      string
		wantStatus int
	}{
		{"?limit=10&offset=20", http.StatusOK},
		{"?from=2026-01-01T00:00:00Z", http.StatusOK},
		{"?limit=-1", http.StatusBadRequest},
		{"?offset=abc", http.StatusBadRequest},
		{"?to=yesterday", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sales"+tt.query, nil))
		if w.Code != tt.wantStatus {
			t.Errorf("%s: expected %d, got %d", tt.query, tt.wantStatus, w.Code)
		}
	}
}

func TestResourceType(t *testing.T) {
	if got := resourceType("/api/v1/sales/:id/cancel"); got != "sales" {
		t.Errorf("resourceType() = %q, want sales", got)
	}
	if got := resourceType("/api/v1/shop"); got != "shop" {
		t.Errorf("resourceType() = %q, want shop", got)
	}
}
