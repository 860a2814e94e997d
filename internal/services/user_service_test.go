package services

import (
	"errors"
	"testing"

	"pos-engine/internal/models"
)

func TestUserService_CreateAndAuthenticate(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.services.User.CreateUser(env.ctx, &CreateUserRequest{Name: "Bob", PIN: "4321", Role: models.RoleCashier})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if user.PINHash == "4321" || user.PINHash == "" {
		t.Error("Expected PIN to be stored hashed")
	}
	if !user.Can(models.PermSell) {
		t.Error("Expected cashier defaults to include selling")
	}

	if _, err := env.services.User.Authenticate(env.ctx, user.ID, "4321"); err != nil {
		t.Errorf("Authenticate() with correct PIN failed: %v", err)
	}

	tests := []struct {
		name   string
		userID int64
		pin    string
	}{
		{"wrong pin", user.ID, "0000"},
		{"unknown user", 999, "4321"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.services.User.Authenticate(env.ctx, tt.userID, tt.pin); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Expected ErrInvalidCredentials, got %v", err)
			}
		})
	}

	inactive := false
	if _, err := env.services.User.UpdateUser(env.ctx, user.ID, &UpdateUserRequest{Active: &inactive}); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}
	if _, err := env.services.User.Authenticate(env.ctx, user.ID, "4321"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected inactive user to be rejected, got %v", err)
	}
}

func TestUserService_RejectsBadPIN(t *testing.T) {
	env := setupTestEnv(t)
	for _, pin := range []string{"12", "123456789", "12ab"} {
		if _, err := env.services.User.CreateUser(env.ctx, &CreateUserRequest{Name: "Eve", PIN: pin, Role: models.RoleCashier}); err == nil {
			t.Errorf("Expected PIN %q to be rejected", pin)
		}
	}
}

func TestUserService_UpdatePIN(t *testing.T) {
	env := setupTestEnv(t)
	user, err := env.services.User.CreateUser(env.ctx, &CreateUserRequest{Name: "Dan", PIN: "1111", Role: models.RoleCashier})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	pin := "2222"
	if _, err := env.services.User.UpdateUser(env.ctx, user.ID, &UpdateUserRequest{PIN: &pin}); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}
	if _, err := env.services.User.Authenticate(env.ctx, user.ID, "1111"); err == nil {
		t.Error("Expected old PIN to stop working")
	}
	if _, err := env.services.User.Authenticate(env.ctx, user.ID, "2222"); err != nil {
		t.Errorf("Expected new PIN to work, got %v", err)
	}
}

func TestUserService_LastAdminGuard(t *testing.T) {
	env := setupTestEnv(t)
	admin, err := env.services.User.EnsureAdmin(env.ctx, "Owner", "9999")
	if err != nil {
		t.Fatalf("EnsureAdmin() failed: %v", err)
	}
	if admin == nil || admin.Role != models.RoleAdmin {
		t.Fatalf("Expected an admin to be seeded, got %+v", admin)
	}

	again, err := env.services.User.EnsureAdmin(env.ctx, "Owner", "9999")
	if err != nil || again != nil {
		t.Errorf("Expected EnsureAdmin to be a no-op once users exist, got %+v, %v", again, err)
	}

	cashier := models.RoleCashier
	_, err = env.services.User.UpdateUser(env.ctx, admin.ID, &UpdateUserRequest{Role: &cashier})
	expectPrecondition(t, err, ErrLastAdmin)

	inactive := false
	_, err = env.services.User.UpdateUser(env.ctx, admin.ID, &UpdateUserRequest{Active: &inactive})
	expectPrecondition(t, err, ErrLastAdmin)

	expectPrecondition(t, env.services.User.DeleteUser(env.ctx, admin.ID), ErrLastAdmin)

	second, err := env.services.User.CreateUser(env.ctx, &CreateUserRequest{Name: "Partner", PIN: "8888", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if err := env.services.User.DeleteUser(env.ctx, admin.ID); err != nil {
		t.Errorf("Expected delete to succeed with another admin, got %v", err)
	}

	users, err := env.services.User.ListUsers(env.ctx)
	if err != nil {
		t.Fatalf("ListUsers() failed: %v", err)
	}
	if len(users) != 1 || users[0].ID != second.ID {
		t.Errorf("Expected only the second admin to remain, got %+v", users)
	}
}

func TestShopService_SaveAndDefaults(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := env.services.Shop.GetShopInfo(env.ctx); !errors.Is(err, ErrShopNotConfigured) {
		t.Fatalf("Expected ErrShopNotConfigured, got %v", err)
	}

	if err := env.services.Shop.EnsureDefaults(env.ctx, models.NewShopInfo("Default Cafe")); err != nil {
		t.Fatalf("EnsureDefaults() failed: %v", err)
	}
	seeded, err := env.services.Shop.GetShopInfo(env.ctx)
	if err != nil {
		t.Fatalf("GetShopInfo() failed: %v", err)
	}

	saved, err := env.services.Shop.SaveShopInfo(env.ctx, &ShopInfoRequest{
		Name: "  Corner   Cafe ", TaxEnabled: true, TaxRate: 15, LoyaltyEnabled: true, PointsPerCurrencyUnit: 1, CurrencyPerPoint: 0.1,
	})
	if err != nil {
		t.Fatalf("SaveShopInfo() failed: %v", err)
	}
	if saved.Name != "Corner Cafe" {
		t.Errorf("Expected sanitized name, got %q", saved.Name)
	}
	if !saved.CreatedAt.Equal(seeded.CreatedAt) {
		t.Error("Expected creation time to survive a save")
	}

	// Defaults never overwrite a configured shop
	if err := env.services.Shop.EnsureDefaults(env.ctx, models.NewShopInfo("Other")); err != nil {
		t.Fatalf("EnsureDefaults() failed: %v", err)
	}
	current, err := env.services.Shop.GetShopInfo(env.ctx)
	if err != nil {
		t.Fatalf("GetShopInfo() failed: %v", err)
	}
	if current.Name != "Corner Cafe" || current.TaxRate != 15 {
		t.Errorf("Expected saved settings to be kept, got %+v", current)
	}

	if _, err := env.services.Shop.SaveShopInfo(env.ctx, &ShopInfoRequest{Name: "Bad", TaxRate: 150}); err == nil {
		t.Error("Expected tax rate above 100 to be rejected")
	}
}
