package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"pos-engine/internal/repositories"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

type txKey struct{}

// contextWithTx returns a context that makes repositories run on tx
func contextWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// txFromContext returns the transaction carried by ctx, if any
func txFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok && tx != nil
}

// BaseRepository provides common functionality for all SQLite repositories
type BaseRepository[T any] struct {
	db     *sql.DB
	table  string
	entity string
	logger *logrus.Logger
}

// NewBaseRepository creates a new base repository
func NewBaseRepository[T any](db *sql.DB, table, entity string, logger *logrus.Logger) *BaseRepository[T] {
	if logger == nil {
		logger = logrus.New()
	}
	return &BaseRepository[T]{
		db:     db,
		table:  table,
		entity: entity,
		logger: logger,
	}
}

// conn returns the transaction from ctx when present, otherwise the pool
func (r *BaseRepository[T]) conn(ctx context.Context) dbtx {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// Exists checks if an entity with the given ID exists
func (r *BaseRepository[T]) Exists(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = ? LIMIT 1", r.table)
	return r.exists(ctx, "exists", query, id)
}

// Count returns the total number of entities matching the filters
func (r *BaseRepository[T]) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)

	whereClause, args := r.buildWhereClause(filters)
	if whereClause != "" {
		query += " " + whereClause
	}

	var count int64
	if err := r.executeQueryRow(ctx, "count", query, args...).Scan(&count); err != nil {
		return 0, repositories.NewRepositoryError("count", r.entity, 0, err)
	}
	return count, nil
}

// Delete deletes an entity by its ID
func (r *BaseRepository[T]) Delete(ctx context.Context, id int64) error {
	if err := r.validateID(id); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table)
	result, err := r.executeExec(ctx, "delete", query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repositories.ConstraintError(r.entity, "foreign key", err)
		}
		return err
	}

	return r.checkRowsAffected(result, "delete", id)
}

// exists runs a query that selects a single constant row when a match exists
func (r *BaseRepository[T]) exists(ctx context.Context, operation, query string, args ...interface{}) (bool, error) {
	var exists int
	err := r.executeQueryRow(ctx, operation, query, args...).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, repositories.NewRepositoryError(operation, r.entity, 0, err)
	}
	return exists == 1, nil
}

// insert runs an INSERT and returns the row id. A zero id is bound as NULL so
// SQLite assigns the next rowid.
func (r *BaseRepository[T]) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := r.executeExec(ctx, "create", query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, repositories.NewRepositoryError("create", r.entity, 0, err)
	}
	return id, nil
}

// buildWhereClause builds a WHERE clause from filters. Keys are sorted so the
// generated SQL is stable.
func (r *BaseRepository[T]) buildWhereClause(filters map[string]interface{}) (string, []interface{}) {
	if len(filters) == 0 {
		return "", nil
	}

	fields := make([]string, 0, len(filters))
	for field := range filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	conditions := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields))
	for _, field := range fields {
		conditions = append(conditions, fmt.Sprintf("%s = ?", field))
		args = append(args, filters[field])
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// logQuery logs a query with its execution time
func (r *BaseRepository[T]) logQuery(operation string, query string, args []interface{}, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": operation,
		"table":     r.table,
		"query":     query,
		"args":      args,
		"duration":  duration,
	}

	if err != nil {
		fields["error"] = err.Error()
		r.logger.WithFields(fields).Error("Query failed")
	} else {
		r.logger.WithFields(fields).Debug("Query executed")
	}
}

// executeQuery executes a query and logs the result
func (r *BaseRepository[T]) executeQuery(ctx context.Context, operation, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	duration := time.Since(start)

	r.logQuery(operation, query, args, duration, err)

	if err != nil {
		return nil, repositories.NewRepositoryError(operation, r.entity, 0, err)
	}

	return rows, nil
}

// executeQueryRow executes a single-row query and logs the result
func (r *BaseRepository[T]) executeQueryRow(ctx context.Context, operation, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := r.conn(ctx).QueryRowContext(ctx, query, args...)
	duration := time.Since(start)

	r.logQuery(operation, query, args, duration, row.Err())

	return row
}

// executeExec executes a non-query statement and logs the result
func (r *BaseRepository[T]) executeExec(ctx context.Context, operation, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	duration := time.Since(start)

	r.logQuery(operation, query, args, duration, err)

	if err != nil {
		return nil, repositories.NewRepositoryError(operation, r.entity, 0, err)
	}

	return result, nil
}

// checkRowsAffected checks if the expected number of rows were affected
func (r *BaseRepository[T]) checkRowsAffected(result sql.Result, operation string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return repositories.NewRepositoryError(operation, r.entity, id, err)
	}

	if rowsAffected == 0 {
		return repositories.NotFoundError(r.entity, id)
	}

	return nil
}

// validateID validates that an ID is positive
func (r *BaseRepository[T]) validateID(id int64) error {
	if id <= 0 {
		return repositories.NewRepositoryError("validate", r.entity, id, repositories.ErrInvalidID)
	}
	return nil
}

// nullableID binds zero ids as NULL
func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

// placeholders returns "?, ?, ?" for n arguments
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// int64Args converts ids to query arguments
func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// nonNilIDs keeps JSON id lists encoded as [] rather than null
func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// formatID renders an id for error messages
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// toJSON encodes a value for a TEXT column
func toJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode json column: %w", err)
	}
	return string(data), nil
}

// fromJSON decodes a TEXT column. Empty columns leave v untouched.
func fromJSON(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}

// isUniqueViolation reports a UNIQUE or PRIMARY KEY constraint failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports a FOREIGN KEY constraint failure. A parent
// delete blocked by ON DELETE RESTRICT is reported by SQLite with the trigger
// extended code, so the message is checked for any constraint error.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return true
		}
		if sqliteErr.Code != sqlite3.ErrConstraint {
			return false
		}
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
