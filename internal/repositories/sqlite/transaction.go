package sqlite

import (
	"context"
	"database/sql"
	"sync"

	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

// SQLiteTransaction implements the Transaction interface for SQLite
type SQLiteTransaction struct {
	tx      *sql.Tx
	ctx     context.Context
	logger  *logrus.Logger
	release func()
	done    bool
}

// NewSQLiteTransaction creates a new SQLite transaction. release is called once
// the transaction is committed or rolled back.
func NewSQLiteTransaction(ctx context.Context, tx *sql.Tx, logger *logrus.Logger, release func()) repositories.Transaction {
	if logger == nil {
		logger = logrus.New()
	}
	if release == nil {
		release = func() {}
	}
	return &SQLiteTransaction{
		tx:      tx,
		ctx:     contextWithTx(ctx, tx),
		logger:  logger,
		release: release,
	}
}

// Commit commits the transaction
func (t *SQLiteTransaction) Commit() error {
	defer t.finish()
	err := t.tx.Commit()
	if err != nil {
		t.logger.WithError(err).Error("Failed to commit transaction")
		return repositories.TransactionError("commit", err)
	}
	t.logger.Debug("Transaction committed successfully")
	return nil
}

// Rollback rolls back the transaction
func (t *SQLiteTransaction) Rollback() error {
	defer t.finish()
	err := t.tx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		t.logger.WithError(err).Error("Failed to rollback transaction")
		return repositories.TransactionError("rollback", err)
	}
	t.logger.Debug("Transaction rolled back successfully")
	return nil
}

// Context returns the transaction context
func (t *SQLiteTransaction) Context() context.Context {
	return t.ctx
}

func (t *SQLiteTransaction) finish() {
	if !t.done {
		t.done = true
		t.release()
	}
}

// SQLiteTransactionManager implements the TransactionManager interface for SQLite.
// Write transactions are serialized so multi-step operations never interleave.
type SQLiteTransactionManager struct {
	db     *sql.DB
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewSQLiteTransactionManager creates a new SQLite transaction manager
func NewSQLiteTransactionManager(db *sql.DB, logger *logrus.Logger) *SQLiteTransactionManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &SQLiteTransactionManager{
		db:     db,
		logger: logger,
	}
}

// BeginTransaction starts a new transaction. It holds the writer lock until
// Commit or Rollback.
func (tm *SQLiteTransactionManager) BeginTransaction(ctx context.Context) (repositories.Transaction, error) {
	tm.mu.Lock()
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		tm.mu.Unlock()
		tm.logger.WithError(err).Error("Failed to begin transaction")
		return nil, repositories.TransactionError("begin", err)
	}

	tm.logger.Debug("Transaction started successfully")
	return NewSQLiteTransaction(ctx, tx, tm.logger, tm.mu.Unlock), nil
}

// WithTransaction executes a function within a transaction
func (tm *SQLiteTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := tm.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	// Ensure transaction is cleaned up
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r) // Re-throw panic after cleanup
		}
	}()

	// Execute the function
	if err := fn(tx.Context()); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			tm.logger.WithError(rollbackErr).Error("Failed to rollback transaction after error")
		}
		return err
	}

	// Commit the transaction
	return tx.Commit()
}
