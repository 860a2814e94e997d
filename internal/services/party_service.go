package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"pos-engine/internal/events"
	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
)

// partyService implements the PartyService interface
type partyService struct {
	repos     repositories.RepositoryManager
	ledger    *StockLedger
	publisher events.Publisher
	logger    *logrus.Logger
	validator *validator.Validate
}

// NewPartyService creates a new party service instance
func NewPartyService(repos repositories.RepositoryManager, ledger *StockLedger, publisher events.Publisher, logger *logrus.Logger) PartyService {
	if logger == nil {
		logger = logrus.New()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &partyService{
		repos:     repos,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		validator: validator.New(),
	}
}

// CreateCustomer creates a new customer with a zero balance
func (s *partyService) CreateCustomer(ctx context.Context, req *PartyRequest) (*models.Customer, error) {
	if err := s.validateParty(req); err != nil {
		return nil, err
	}

	customer := models.NewCustomer(models.SanitizeString(req.Name), strings.TrimSpace(req.Phone), strings.TrimSpace(req.Address))
	if err := customer.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repos.Customers().Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.publisher.Publish(events.New(events.CustomerChanged, "customer", customer.ID, customer))
	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *partyService) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	if id <= 0 {
		return nil, fmt.Errorf("validation failed: customer ID must be positive")
	}

	customer, err := s.repos.Customers().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

// UpdateCustomer changes contact details. Balance and points only move
// through ledger operations.
func (s *partyService) UpdateCustomer(ctx context.Context, id int64, req *PartyRequest) (*models.Customer, error) {
	if err := s.validateParty(req); err != nil {
		return nil, err
	}

	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.Name = models.SanitizeString(req.Name)
	customer.Phone = strings.TrimSpace(req.Phone)
	customer.Address = strings.TrimSpace(req.Address)

	if err := customer.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repos.Customers().Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	s.publisher.Publish(events.New(events.CustomerChanged, "customer", customer.ID, customer))
	return customer, nil
}

// DeleteCustomer removes a customer that has no sales or payments
func (s *partyService) DeleteCustomer(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("validation failed: customer ID must be positive")
	}

	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		hasSales, err := s.repos.Sales().ExistsWithCustomer(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to check customer sales: %w", err)
		}
		if hasSales {
			return preconditionf(ErrReferencedByHistory, "customer %d has sales", id)
		}

		partyType := models.PartyCustomer
		payments, err := s.repos.Payments().List(txCtx, &partyType, &id)
		if err != nil {
			return fmt.Errorf("failed to check customer payments: %w", err)
		}
		if len(payments) > 0 {
			return preconditionf(ErrReferencedByHistory, "customer %d has payments", id)
		}

		if err := s.repos.Customers().Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(events.New(events.CustomerChanged, "customer", id, nil))
	return nil
}

// ListCustomers retrieves customers, optionally searched or limited to debtors
func (s *partyService) ListCustomers(ctx context.Context, filters *PartyFilters) ([]*models.Customer, error) {
	if filters == nil {
		filters = &PartyFilters{}
	}

	var (
		customers []*models.Customer
		err       error
	)
	switch {
	case filters.DebtorsOnly:
		customers, err = s.repos.Customers().GetDebtors(ctx)
	case strings.TrimSpace(filters.Query) != "":
		customers, err = s.repos.Customers().Search(ctx, filters.Query, filters.Limit)
	default:
		customers, err = s.repos.Customers().List(ctx, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	return customers, nil
}

// ApplyCustomerDelta adjusts balance and points relative to their stored values
func (s *partyService) ApplyCustomerDelta(ctx context.Context, id int64, balanceDelta float64, pointsDelta int64) (*models.Customer, error) {
	customer, err := s.repos.Customers().ApplyDelta(ctx, id, balanceDelta, pointsDelta)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer balance: %w", err)
	}

	s.publisher.Publish(events.New(events.CustomerChanged, "customer", customer.ID, customer))
	return customer, nil
}

// CreateSupplier creates a new supplier with a zero balance
func (s *partyService) CreateSupplier(ctx context.Context, req *PartyRequest) (*models.Supplier, error) {
	if err := s.validateParty(req); err != nil {
		return nil, err
	}

	supplier := models.NewSupplier(models.SanitizeString(req.Name), strings.TrimSpace(req.Phone), strings.TrimSpace(req.Address))
	if err := supplier.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repos.Suppliers().Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	s.publisher.Publish(events.New(events.SupplierChanged, "supplier", supplier.ID, supplier))
	return supplier, nil
}

// GetSupplier retrieves a supplier by ID
func (s *partyService) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	if id <= 0 {
		return nil, fmt.Errorf("validation failed: supplier ID must be positive")
	}

	supplier, err := s.repos.Suppliers().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return supplier, nil
}

// UpdateSupplier changes contact details
func (s *partyService) UpdateSupplier(ctx context.Context, id int64, req *PartyRequest) (*models.Supplier, error) {
	if err := s.validateParty(req); err != nil {
		return nil, err
	}

	supplier, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.Name = models.SanitizeString(req.Name)
	supplier.Phone = strings.TrimSpace(req.Phone)
	supplier.Address = strings.TrimSpace(req.Address)

	if err := supplier.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repos.Suppliers().Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}

	s.publisher.Publish(events.New(events.SupplierChanged, "supplier", supplier.ID, supplier))
	return supplier, nil
}

// DeleteSupplier removes a supplier that has no invoices or payments
func (s *partyService) DeleteSupplier(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("validation failed: supplier ID must be positive")
	}

	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		hasInvoices, err := s.repos.Purchases().ExistsForSupplier(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to check supplier invoices: %w", err)
		}
		if hasInvoices {
			return preconditionf(ErrReferencedByHistory, "supplier %d has purchase invoices", id)
		}

		partyType := models.PartySupplier
		payments, err := s.repos.Payments().List(txCtx, &partyType, &id)
		if err != nil {
			return fmt.Errorf("failed to check supplier payments: %w", err)
		}
		if len(payments) > 0 {
			return preconditionf(ErrReferencedByHistory, "supplier %d has payments", id)
		}

		if err := s.repos.Suppliers().Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete supplier: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(events.New(events.SupplierChanged, "supplier", id, nil))
	return nil
}

// ListSuppliers retrieves suppliers, optionally searched
func (s *partyService) ListSuppliers(ctx context.Context, filters *PartyFilters) ([]*models.Supplier, error) {
	if filters == nil {
		filters = &PartyFilters{}
	}

	var (
		suppliers []*models.Supplier
		err       error
	)
	if strings.TrimSpace(filters.Query) != "" {
		suppliers, err = s.repos.Suppliers().Search(ctx, filters.Query, filters.Limit)
	} else {
		suppliers, err = s.repos.Suppliers().List(ctx, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	return suppliers, nil
}

// ApplySupplierDelta adjusts a supplier balance relative to its stored value
func (s *partyService) ApplySupplierDelta(ctx context.Context, id int64, balanceDelta float64) (*models.Supplier, error) {
	supplier, err := s.repos.Suppliers().ApplyBalanceDelta(ctx, id, balanceDelta)
	if err != nil {
		return nil, fmt.Errorf("failed to update supplier balance: %w", err)
	}

	s.publisher.Publish(events.New(events.SupplierChanged, "supplier", supplier.ID, supplier))
	return supplier, nil
}

// AddPayment records a payment and adds its amount to the party balance
func (s *partyService) AddPayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	if req == nil {
		return nil, fmt.Errorf("payment request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	payment := models.NewPayment(req.Type, req.EntityID, req.Amount)
	payment.Notes = strings.TrimSpace(req.Notes)

	result := &PaymentResult{Payment: payment}
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		switch req.Type {
		case models.PartyCustomer:
			result.Customer, err = s.repos.Customers().ApplyDelta(txCtx, req.EntityID, req.Amount, 0)
		case models.PartySupplier:
			result.Supplier, err = s.repos.Suppliers().ApplyBalanceDelta(txCtx, req.EntityID, req.Amount)
		}
		if err != nil {
			return fmt.Errorf("failed to update %s balance: %w", req.Type, err)
		}

		if err := s.repos.Payments().Create(txCtx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"type":       payment.Type,
		"entity_id":  payment.EntityID,
		"amount":     models.FormatMoney(payment.Amount),
	}).Info("Payment recorded")

	s.publisher.Publish(events.New(events.PaymentAdded, "payment", payment.ID, payment))
	if result.Customer != nil {
		s.publisher.Publish(events.New(events.CustomerChanged, "customer", result.Customer.ID, result.Customer))
	}
	if result.Supplier != nil {
		s.publisher.Publish(events.New(events.SupplierChanged, "supplier", result.Supplier.ID, result.Supplier))
	}

	return result, nil
}

// ListPayments retrieves payments, optionally for one party
func (s *partyService) ListPayments(ctx context.Context, partyType *models.PartyType, entityID *int64) ([]*models.Payment, error) {
	payments, err := s.repos.Payments().List(ctx, partyType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// AddPurchaseInvoice records goods received. The supplier balance drops by the
// invoice total and every item's stock rises by its quantity.
func (s *partyService) AddPurchaseInvoice(ctx context.Context, req *PurchaseRequest) (*PurchaseResult, error) {
	if req == nil {
		return nil, fmt.Errorf("purchase request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	invoice := models.NewPurchaseInvoice(req.SupplierID, req.Items)
	if err := invoice.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	result := &PurchaseResult{Invoice: invoice}
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		deltas := make(map[int64]float64, len(invoice.Items))
		ids := make([]int64, 0, len(invoice.Items))
		for _, item := range invoice.Items {
			if _, ok := deltas[item.ProductID]; !ok {
				ids = append(ids, item.ProductID)
			}
			deltas[item.ProductID] += item.Quantity
		}

		products, err := s.repos.Products().GetByIDs(txCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to load purchased products: %w", err)
		}
		for _, id := range ids {
			if _, ok := products[id]; !ok {
				return repositories.NotFoundError("product", id)
			}
		}

		if err := s.repos.Purchases().Create(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to create purchase invoice: %w", err)
		}

		result.Supplier, err = s.repos.Suppliers().ApplyBalanceDelta(txCtx, invoice.SupplierID, -invoice.Total)
		if err != nil {
			return fmt.Errorf("failed to update supplier balance: %w", err)
		}

		result.StockChanges, err = s.ledger.ApplyDeltas(txCtx, deltas, models.MovementPurchase, &invoice.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id":  invoice.ID,
		"supplier_id": invoice.SupplierID,
		"total":       models.FormatMoney(invoice.Total),
	}).Info("Purchase invoice recorded")

	s.publisher.Publish(events.New(events.PurchaseAdded, "purchase_invoice", invoice.ID, invoice))
	s.publisher.Publish(events.New(events.SupplierChanged, "supplier", result.Supplier.ID, result.Supplier))
	s.publisher.Publish(events.New(events.StockChanged, "product", 0, result.StockChanges))

	return result, nil
}

// GetPurchase retrieves a purchase invoice by ID
func (s *partyService) GetPurchase(ctx context.Context, id int64) (*models.PurchaseInvoice, error) {
	if id <= 0 {
		return nil, fmt.Errorf("validation failed: purchase ID must be positive")
	}

	invoice, err := s.repos.Purchases().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase invoice: %w", err)
	}
	return invoice, nil
}

// ListPurchases retrieves purchase invoices, optionally for one supplier
func (s *partyService) ListPurchases(ctx context.Context, supplierID *int64) ([]*models.PurchaseInvoice, error) {
	invoices, err := s.repos.Purchases().List(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase invoices: %w", err)
	}
	return invoices, nil
}

func (s *partyService) validateParty(req *PartyRequest) error {
	if req == nil {
		return fmt.Errorf("party request cannot be nil")
	}
	if err := s.validator.Struct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
