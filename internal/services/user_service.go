package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
)

// userService implements the UserService interface
type userService struct {
	repos     repositories.RepositoryManager
	logger    *logrus.Logger
	validator *validator.Validate
	cost      int
}

// NewUserService creates a new user service. PINs are hashed with bcrypt.
func NewUserService(repos repositories.RepositoryManager, logger *logrus.Logger) UserService {
	if logger == nil {
		logger = logrus.New()
	}
	return &userService{
		repos:     repos,
		logger:    logger,
		validator: validator.New(),
		cost:      bcrypt.DefaultCost,
	}
}

// CreateUser creates a user with a hashed PIN
func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if req == nil {
		return nil, fmt.Errorf("user request cannot be nil")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !models.IsValidPIN(req.PIN) {
		return nil, fmt.Errorf("validation failed: PIN must be 4 to 8 digits")
	}

	user := models.NewUser(models.SanitizeString(req.Name), req.Role)
	if req.Permissions != nil {
		user.Permissions = append([]models.Permission(nil), req.Permissions...)
	}

	hash, err := s.hashPIN(req.PIN)
	if err != nil {
		return nil, err
	}
	user.PINHash = hash

	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repos.Users().Create(ctx, user); err != nil {
		s.logger.WithError(err).WithField("name", user.Name).Error("Failed to create user")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User created")
	return user, nil
}

// GetUser retrieves a user by ID
func (s *userService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repos.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUser applies a partial update. The last active admin cannot be
// demoted or deactivated.
func (s *userService) UpdateUser(ctx context.Context, id int64, req *UpdateUserRequest) (*models.User, error) {
	if req == nil {
		return nil, fmt.Errorf("user request cannot be nil")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user *models.User
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.repos.Users().GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		wasAdmin := user.Role == models.RoleAdmin && user.Active

		if req.Name != nil {
			user.Name = models.SanitizeString(*req.Name)
		}
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.Permissions != nil {
			user.Permissions = append([]models.Permission(nil), (*req.Permissions)...)
		}
		if req.Active != nil {
			user.Active = *req.Active
		}
		if req.PIN != nil {
			if !models.IsValidPIN(*req.PIN) {
				return fmt.Errorf("validation failed: PIN must be 4 to 8 digits")
			}
			hash, err := s.hashPIN(*req.PIN)
			if err != nil {
				return err
			}
			user.PINHash = hash
		}

		if wasAdmin && (user.Role != models.RoleAdmin || !user.Active) {
			if err := s.guardLastAdmin(txCtx); err != nil {
				return err
			}
		}

		if err := user.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if err := s.repos.Users().Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User updated")
	return user, nil
}

// DeleteUser removes a user. The last active admin cannot be removed.
func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		user, err := s.repos.Users().GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		if user.Role == models.RoleAdmin && user.Active {
			if err := s.guardLastAdmin(txCtx); err != nil {
				return err
			}
		}

		if err := s.repos.Users().Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WithField("user_id", id).Info("User deleted")
	return nil
}

// ListUsers returns every user
func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repos.Users().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Authenticate checks a PIN. Unknown users, inactive users and wrong PINs all
// return ErrInvalidCredentials.
func (s *userService) Authenticate(ctx context.Context, userID int64, pin string) (*models.User, error) {
	user, err := s.repos.Users().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.Active {
		s.logger.WithField("user_id", userID).Warn("Login attempt for inactive user")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(pin)); err != nil {
		s.logger.WithField("user_id", userID).Warn("Login attempt with wrong PIN")
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// EnsureAdmin seeds an admin account when no user exists yet. It returns nil
// when users are already present.
func (s *userService) EnsureAdmin(ctx context.Context, name, pin string) (*models.User, error) {
	count, err := s.repos.Users().Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil, nil
	}

	user, err := s.CreateUser(ctx, &CreateUserRequest{Name: name, PIN: pin, Role: models.RoleAdmin})
	if err != nil {
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Warn("Seeded default admin user, change its PIN")
	return user, nil
}

func (s *userService) guardLastAdmin(ctx context.Context) error {
	admins, err := s.repos.Users().CountActiveAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func (s *userService) hashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}
