package sqlite

import (
	"context"
	"database/sql"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

const purchaseColumns = `id, supplier_id, date, items, total`

// PurchaseRepository implements the PurchaseRepository interface for SQLite
type PurchaseRepository struct {
	*BaseRepository[models.PurchaseInvoice]
}

// NewPurchaseRepository creates a new SQLite purchase invoice repository
func NewPurchaseRepository(db *sql.DB, logger *logrus.Logger) repositories.PurchaseRepository {
	return &PurchaseRepository{
		BaseRepository: NewBaseRepository[models.PurchaseInvoice](db, "purchase_invoices", "purchase_invoice", logger),
	}
}

// Create persists a new purchase invoice
func (r *PurchaseRepository) Create(ctx context.Context, invoice *models.PurchaseInvoice) error {
	if err := invoice.Validate(); err != nil {
		return repositories.ValidationError("purchase_invoice", invoice.ID, err)
	}

	items, err := toJSON(invoice.Items)
	if err != nil {
		return repositories.NewRepositoryError("create", "purchase_invoice", invoice.ID, err)
	}

	id, err := r.insert(ctx, `INSERT INTO purchase_invoices (`+purchaseColumns+`) VALUES (?, ?, ?, ?, ?)`,
		nullableID(invoice.ID),
		invoice.SupplierID,
		invoice.Date,
		items,
		invoice.Total,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repositories.ConstraintError("purchase_invoice", "supplier", err)
		}
		return err
	}

	invoice.ID = id
	return nil
}

// GetByID retrieves a purchase invoice by ID
func (r *PurchaseRepository) GetByID(ctx context.Context, id int64) (*models.PurchaseInvoice, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	invoice, err := scanPurchase(r.executeQueryRow(ctx, "get_by_id",
		`SELECT `+purchaseColumns+` FROM purchase_invoices WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("purchase_invoice", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "purchase_invoice", id, err)
	}

	return invoice, nil
}

// List retrieves invoices, optionally for one supplier, newest first
func (r *PurchaseRepository) List(ctx context.Context, supplierID *int64) ([]*models.PurchaseInvoice, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchase_invoices`
	var args []interface{}
	if supplierID != nil {
		query += " WHERE supplier_id = ?"
		args = append(args, *supplierID)
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []*models.PurchaseInvoice{}
	for rows.Next() {
		invoice, err := scanPurchase(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError("list", "purchase_invoice", 0, err)
		}
		invoices = append(invoices, invoice)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list", "purchase_invoice", 0, err)
	}

	return invoices, nil
}

// ExistsForSupplier reports whether the supplier has any invoice
func (r *PurchaseRepository) ExistsForSupplier(ctx context.Context, supplierID int64) (bool, error) {
	return r.exists(ctx, "exists_for_supplier",
		`SELECT 1 FROM purchase_invoices WHERE supplier_id = ? LIMIT 1`, supplierID)
}

// ExistsWithProduct reports whether any invoice line references the product
func (r *PurchaseRepository) ExistsWithProduct(ctx context.Context, productID int64) (bool, error) {
	query := `SELECT 1 FROM purchase_invoices, json_each(purchase_invoices.items) AS item
		WHERE json_extract(item.value, '$.product_id') = ?
		LIMIT 1`
	return r.exists(ctx, "exists_with_product", query, productID)
}

func scanPurchase(s scanner) (*models.PurchaseInvoice, error) {
	invoice := &models.PurchaseInvoice{}
	var items string
	if err := s.Scan(&invoice.ID, &invoice.SupplierID, &invoice.Date, &items, &invoice.Total); err != nil {
		return nil, err
	}

	invoice.Items = []models.PurchaseItem{}
	if err := fromJSON(items, &invoice.Items); err != nil {
		return nil, err
	}
	return invoice, nil
}
