package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

const paymentColumns = `id, date, type, entity_id, amount, notes`

// PaymentRepository implements the PaymentRepository interface for SQLite
type PaymentRepository struct {
	*BaseRepository[models.Payment]
}

// NewPaymentRepository creates a new SQLite payment repository
func NewPaymentRepository(db *sql.DB, logger *logrus.Logger) repositories.PaymentRepository {
	return &PaymentRepository{
		BaseRepository: NewBaseRepository[models.Payment](db, "payments", "payment", logger),
	}
}

// Create persists a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := payment.Validate(); err != nil {
		return repositories.ValidationError("payment", payment.ID, err)
	}

	id, err := r.insert(ctx, `INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(payment.ID),
		payment.Date,
		payment.Type,
		payment.EntityID,
		payment.Amount,
		payment.Notes,
	)
	if err != nil {
		return err
	}

	payment.ID = id
	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	payment, err := scanPayment(r.executeQueryRow(ctx, "get_by_id",
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("payment", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "payment", id, err)
	}

	return payment, nil
}

// List retrieves payments, optionally for one party, newest first
func (r *PaymentRepository) List(ctx context.Context, partyType *models.PartyType, entityID *int64) ([]*models.Payment, error) {
	var conditions []string
	var args []interface{}
	if partyType != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *partyType)
	}
	if entityID != nil {
		conditions = append(conditions, "entity_id = ?")
		args = append(args, *entityID)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError("list", "payment", 0, err)
		}
		payments = append(payments, payment)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list", "payment", 0, err)
	}

	return payments, nil
}

func scanPayment(s scanner) (*models.Payment, error) {
	payment := &models.Payment{}
	err := s.Scan(
		&payment.ID,
		&payment.Date,
		&payment.Type,
		&payment.EntityID,
		&payment.Amount,
		&payment.Notes,
	)
	if err != nil {
		return nil, err
	}
	return payment, nil
}
