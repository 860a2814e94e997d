package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

const userColumns = `id, name, pin_hash, role, permissions, active, created_at, updated_at`

// UserRepository implements the UserRepository interface for SQLite
type UserRepository struct {
	*BaseRepository[models.User]
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(db *sql.DB, logger *logrus.Logger) repositories.UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository[models.User](db, "users", "user", logger),
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return repositories.ValidationError("user", user.ID, err)
	}

	perms, err := toJSON(user.PermissionStrings())
	if err != nil {
		return repositories.NewRepositoryError("create", "user", user.ID, err)
	}

	id, err := r.insert(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(user.ID),
		user.Name,
		user.PINHash,
		user.Role,
		perms,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("user", "name", user.Name)
		}
		return err
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	user, err := scanUser(r.executeQueryRow(ctx, "get_by_id", `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("user", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "user", id, err)
	}

	return user, nil
}

// GetByName retrieves a user by name
func (r *UserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	user, err := scanUser(r.executeQueryRow(ctx, "get_by_name", `SELECT `+userColumns+` FROM users WHERE name = ?`, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundByError("user", "name", name)
		}
		return nil, repositories.NewRepositoryError("get_by_name", "user", 0, err)
	}

	return user, nil
}

// Update updates an existing user including its PIN hash
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return repositories.ValidationError("user", user.ID, err)
	}

	perms, err := toJSON(user.PermissionStrings())
	if err != nil {
		return repositories.NewRepositoryError("update", "user", user.ID, err)
	}

	user.UpdateTimestamp()

	result, err := r.executeExec(ctx, "update",
		`UPDATE users SET name = ?, pin_hash = ?, role = ?, permissions = ?, active = ?, updated_at = ? WHERE id = ?`,
		user.Name, user.PINHash, user.Role, perms, user.Active, user.UpdatedAt, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("user", "name", user.Name)
		}
		return err
	}

	return r.checkRowsAffected(result, "update", user.ID)
}

// List retrieves users with optional filters
func (r *UserRepository) List(ctx context.Context, filters map[string]interface{}) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`

	whereClause, args := r.buildWhereClause(filters)
	if whereClause != "" {
		query += " " + whereClause
	}
	query += " ORDER BY name ASC"

	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError("list", "user", 0, err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list", "user", 0, err)
	}

	return users, nil
}

// CountActiveAdmins returns the number of active admins
func (r *UserRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	return r.Count(ctx, map[string]interface{}{"role": models.RoleAdmin, "active": true})
}

func scanUser(s scanner) (*models.User, error) {
	user := &models.User{}
	var perms string
	err := s.Scan(
		&user.ID,
		&user.Name,
		&user.PINHash,
		&user.Role,
		&perms,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Permissions = []models.Permission{}
	if err := fromJSON(perms, &user.Permissions); err != nil {
		return nil, err
	}
	return user, nil
}
