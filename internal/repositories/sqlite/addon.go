package sqlite

import (
	"context"
	"database/sql"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

// AddonRepository implements the AddonRepository interface for SQLite
type AddonRepository struct {
	*BaseRepository[models.Addon]
}

// NewAddonRepository creates a new SQLite addon repository
func NewAddonRepository(db *sql.DB, logger *logrus.Logger) repositories.AddonRepository {
	return &AddonRepository{
		BaseRepository: NewBaseRepository[models.Addon](db, "addons", "addon", logger),
	}
}

// Create creates a new addon
func (r *AddonRepository) Create(ctx context.Context, addon *models.Addon) error {
	if err := addon.Validate(); err != nil {
		return repositories.ValidationError("addon", addon.ID, err)
	}

	id, err := r.insert(ctx, `INSERT INTO addons (id, name, price) VALUES (?, ?, ?)`,
		nullableID(addon.ID), addon.Name, addon.Price)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("addon", "id", formatID(addon.ID))
		}
		return err
	}

	addon.ID = id
	return nil
}

// GetByID retrieves an addon by ID
func (r *AddonRepository) GetByID(ctx context.Context, id int64) (*models.Addon, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	addon := &models.Addon{}
	err := r.executeQueryRow(ctx, "get_by_id", `SELECT id, name, price FROM addons WHERE id = ?`, id).
		Scan(&addon.ID, &addon.Name, &addon.Price)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("addon", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "addon", id, err)
	}

	return addon, nil
}

// GetByIDs retrieves the addons that exist among ids
func (r *AddonRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Addon, error) {
	result := make(map[int64]*models.Addon, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, name, price FROM addons WHERE id IN (` + placeholders(len(ids)) + `)`
	addons, err := r.queryAddons(ctx, "get_by_ids", query, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	for _, a := range addons {
		result[a.ID] = a
	}
	return result, nil
}

// Update updates an existing addon
func (r *AddonRepository) Update(ctx context.Context, addon *models.Addon) error {
	if err := addon.Validate(); err != nil {
		return repositories.ValidationError("addon", addon.ID, err)
	}

	result, err := r.executeExec(ctx, "update", `UPDATE addons SET name = ?, price = ? WHERE id = ?`,
		addon.Name, addon.Price, addon.ID)
	if err != nil {
		return err
	}

	return r.checkRowsAffected(result, "update", addon.ID)
}

// List retrieves addons ordered by name
func (r *AddonRepository) List(ctx context.Context, filters map[string]interface{}) ([]*models.Addon, error) {
	query := `SELECT id, name, price FROM addons`

	whereClause, args := r.buildWhereClause(filters)
	if whereClause != "" {
		query += " " + whereClause
	}
	query += " ORDER BY name ASC"

	return r.queryAddons(ctx, "list", query, args...)
}

func (r *AddonRepository) queryAddons(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Addon, error) {
	rows, err := r.executeQuery(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addons := []*models.Addon{}
	for rows.Next() {
		addon := &models.Addon{}
		if err := rows.Scan(&addon.ID, &addon.Name, &addon.Price); err != nil {
			return nil, repositories.NewRepositoryError(operation, "addon", 0, err)
		}
		addons = append(addons, addon)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, "addon", 0, err)
	}

	return addons, nil
}

// AddonGroupRepository implements the AddonGroupRepository interface for SQLite
type AddonGroupRepository struct {
	*BaseRepository[models.AddonGroup]
}

// NewAddonGroupRepository creates a new SQLite addon group repository
func NewAddonGroupRepository(db *sql.DB, logger *logrus.Logger) repositories.AddonGroupRepository {
	return &AddonGroupRepository{
		BaseRepository: NewBaseRepository[models.AddonGroup](db, "addon_groups", "addon_group", logger),
	}
}

// Create creates a new addon group
func (r *AddonGroupRepository) Create(ctx context.Context, group *models.AddonGroup) error {
	if err := group.Validate(); err != nil {
		return repositories.ValidationError("addon_group", group.ID, err)
	}

	addonIDs, err := toJSON(nonNilIDs(group.AddonIDs))
	if err != nil {
		return repositories.NewRepositoryError("create", "addon_group", group.ID, err)
	}

	id, err := r.insert(ctx, `INSERT INTO addon_groups (id, name, selection_type, addon_ids) VALUES (?, ?, ?, ?)`,
		nullableID(group.ID), group.Name, group.SelectionType, addonIDs)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("addon_group", "id", formatID(group.ID))
		}
		return err
	}

	group.ID = id
	return nil
}

// GetByID retrieves an addon group by ID
func (r *AddonGroupRepository) GetByID(ctx context.Context, id int64) (*models.AddonGroup, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	group, err := scanAddonGroup(r.executeQueryRow(ctx, "get_by_id",
		`SELECT id, name, selection_type, addon_ids FROM addon_groups WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("addon_group", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "addon_group", id, err)
	}

	return group, nil
}

// GetByIDs retrieves the addon groups that exist among ids
func (r *AddonGroupRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.AddonGroup, error) {
	result := make(map[int64]*models.AddonGroup, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, name, selection_type, addon_ids FROM addon_groups WHERE id IN (` + placeholders(len(ids)) + `)`
	groups, err := r.queryGroups(ctx, "get_by_ids", query, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		result[g.ID] = g
	}
	return result, nil
}

// GetContainingAddon retrieves groups that include the addon
func (r *AddonGroupRepository) GetContainingAddon(ctx context.Context, addonID int64) ([]*models.AddonGroup, error) {
	query := `SELECT id, name, selection_type, addon_ids FROM addon_groups
		WHERE EXISTS (SELECT 1 FROM json_each(addon_groups.addon_ids) AS a WHERE a.value = ?)
		ORDER BY name ASC`

	return r.queryGroups(ctx, "get_containing_addon", query, addonID)
}

// Update updates an existing addon group
func (r *AddonGroupRepository) Update(ctx context.Context, group *models.AddonGroup) error {
	if err := group.Validate(); err != nil {
		return repositories.ValidationError("addon_group", group.ID, err)
	}

	addonIDs, err := toJSON(nonNilIDs(group.AddonIDs))
	if err != nil {
		return repositories.NewRepositoryError("update", "addon_group", group.ID, err)
	}

	result, err := r.executeExec(ctx, "update",
		`UPDATE addon_groups SET name = ?, selection_type = ?, addon_ids = ? WHERE id = ?`,
		group.Name, group.SelectionType, addonIDs, group.ID)
	if err != nil {
		return err
	}

	return r.checkRowsAffected(result, "update", group.ID)
}

// List retrieves addon groups ordered by name
func (r *AddonGroupRepository) List(ctx context.Context, filters map[string]interface{}) ([]*models.AddonGroup, error) {
	query := `SELECT id, name, selection_type, addon_ids FROM addon_groups`

	whereClause, args := r.buildWhereClause(filters)
	if whereClause != "" {
		query += " " + whereClause
	}
	query += " ORDER BY name ASC"

	return r.queryGroups(ctx, "list", query, args...)
}

func (r *AddonGroupRepository) queryGroups(ctx context.Context, operation, query string, args ...interface{}) ([]*models.AddonGroup, error) {
	rows, err := r.executeQuery(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []*models.AddonGroup{}
	for rows.Next() {
		group, err := scanAddonGroup(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError(operation, "addon_group", 0, err)
		}
		groups = append(groups, group)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, "addon_group", 0, err)
	}

	return groups, nil
}

func scanAddonGroup(s scanner) (*models.AddonGroup, error) {
	group := &models.AddonGroup{}
	var addonIDs string
	if err := s.Scan(&group.ID, &group.Name, &group.SelectionType, &addonIDs); err != nil {
		return nil, err
	}
	group.AddonIDs = []int64{}
	if err := fromJSON(addonIDs, &group.AddonIDs); err != nil {
		return nil, err
	}
	return group, nil
}
