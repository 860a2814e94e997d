package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"pos-engine/internal/events"
	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
)

// saleService implements the SaleService interface
type saleService struct {
	repos     repositories.RepositoryManager
	carts     CartService
	ledger    *StockLedger
	publisher events.Publisher
	logger    *logrus.Logger
	validator *validator.Validate
}

// NewSaleService creates a new sale service instance
func NewSaleService(repos repositories.RepositoryManager, carts CartService, ledger *StockLedger, publisher events.Publisher, logger *logrus.Logger) SaleService {
	if logger == nil {
		logger = logrus.New()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &saleService{
		repos:     repos,
		carts:     carts,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		validator: validator.New(),
	}
}

// ProcessSale commits the actor's cart as a completed sale. Persisting the
// sale, depleting stock and posting to the customer run in one transaction.
// The sold lines are only removed from the cart once that transaction has
// committed.
func (s *saleService) ProcessSale(ctx context.Context, actor Actor, req *ProcessSaleRequest) (*SaleResult, error) {
	if req == nil {
		return nil, fmt.Errorf("process sale request cannot be nil")
	}

	if actor.UserID <= 0 {
		return nil, fmt.Errorf("validation failed: actor user ID is required")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	cart := s.carts.GetCart(actor.UserID)

	var result *SaleResult
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		shift, err := s.activeShift(txCtx, actor.UserID)
		if err != nil {
			return err
		}

		shop, err := loadShopInfo(txCtx, s.repos.ShopInfo())
		if err != nil {
			return err
		}

		if cart.IsEmpty() {
			return ErrEmptyCart
		}

		customer, err := s.checkoutCustomer(txCtx, cart.Checkout.CustomerID)
		if err != nil {
			return err
		}

		if customer == nil && (req.PaymentDetails.Credit > 0 || cart.Checkout.PointsToRedeem > 0) {
			return ErrCustomerRequired
		}

		pricing := priceCheckout(cart.Items, cart.Checkout, shop, customer)

		paid := req.PaymentDetails.Total()
		if !models.MoneyCovers(paid, pricing.TotalAmount) {
			return preconditionf(ErrInsufficientPayment, "paid %s of %s",
				models.FormatMoney(paid), models.FormatMoney(pricing.TotalAmount))
		}

		payment, change, err := SettlePayment(req.PaymentDetails, pricing.TotalAmount)
		if err != nil {
			return err
		}

		sale := newSale(actor, shift, customer, cart, pricing, payment)
		if err := s.repos.Sales().Create(txCtx, sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		changes, err := s.ledger.Apply(txCtx, sale.Items, StockCommit, models.MovementSale, &sale.ID)
		if err != nil {
			return err
		}

		if customer != nil {
			customer, err = s.postToCustomer(txCtx, customer.ID, -sale.PaymentDetails.Credit, sale.PointsEarned-sale.PointsRedeemed)
			if err != nil {
				return err
			}
		}

		result = &SaleResult{
			Sale:         sale,
			Customer:     customer,
			StockChanges: changes,
			Change:       change,
		}
		return nil
	})
	if err != nil {
		s.logFailure(err, "process_sale", actor, 0)
		return nil, err
	}

	s.carts.ClearSold(actor.UserID, cart.Items)

	s.logger.WithFields(logrus.Fields{
		"sale_id":  result.Sale.ID,
		"user_id":  actor.UserID,
		"shift_id": *result.Sale.ShiftID,
		"total":    models.FormatMoney(result.Sale.TotalAmount),
	}).Info("Sale completed")

	s.publisher.Publish(events.New(events.SaleCompleted, "sale", result.Sale.ID, result.Sale))
	s.publishEffects(result.Customer, result.StockChanges)

	return result, nil
}

// CancelSale reverses a completed sale. A missing or already canceled sale is
// a no-op reported with Changed false.
func (s *saleService) CancelSale(ctx context.Context, actor Actor, saleID int64) (*CancelResult, error) {
	if saleID <= 0 {
		return nil, fmt.Errorf("validation failed: sale ID must be positive")
	}

	result := &CancelResult{}
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		sale, err := s.repos.Sales().GetByID(txCtx, saleID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("failed to get sale: %w", err)
		}

		if sale.IsCanceled() {
			result.Sale = sale
			return nil
		}

		if sale.ShiftID != nil {
			shift, err := s.repos.Shifts().GetByID(txCtx, *sale.ShiftID)
			if err != nil && !repositories.IsNotFound(err) {
				return fmt.Errorf("failed to get shift: %w", err)
			}
			if shift != nil && !shift.IsActive() {
				return preconditionf(ErrShiftClosed, "sale %d belongs to shift %d", sale.ID, shift.ID)
			}
		}

		changes, err := s.ledger.Apply(txCtx, sale.Items, StockReverse, models.MovementSaleCancel, &sale.ID)
		if err != nil {
			return err
		}

		var customer *models.Customer
		if sale.CustomerID != nil {
			customer, err = s.postToCustomer(txCtx, *sale.CustomerID, sale.PaymentDetails.Credit, sale.PointsRedeemed-sale.PointsEarned)
			if err != nil {
				return err
			}
		}

		now := time.Now()
		if err := s.repos.Sales().MarkCanceled(txCtx, sale.ID, now); err != nil {
			return fmt.Errorf("failed to cancel sale: %w", err)
		}
		sale.Status = models.SaleCanceled
		sale.CanceledAt = &now

		result.Changed = true
		result.Sale = sale
		result.Customer = customer
		result.StockChanges = changes
		return nil
	})
	if err != nil {
		s.logFailure(err, "cancel_sale", actor, saleID)
		return nil, err
	}

	if !result.Changed {
		s.logger.WithField("sale_id", saleID).Debug("Sale already canceled or missing, nothing to do")
		return result, nil
	}

	s.logger.WithFields(logrus.Fields{
		"sale_id": saleID,
		"user_id": actor.UserID,
	}).Info("Sale canceled")

	s.publisher.Publish(events.New(events.SaleCanceled, "sale", saleID, result.Sale))
	s.publishEffects(result.Customer, result.StockChanges)

	return result, nil
}

// PreviewSale prices the actor's cart without side effects
func (s *saleService) PreviewSale(ctx context.Context, actor Actor) (*PricingBreakdown, error) {
	cart := s.carts.GetCart(actor.UserID)

	shop, err := loadShopInfo(ctx, s.repos.ShopInfo())
	if err != nil {
		return nil, err
	}

	customer, err := s.checkoutCustomer(ctx, cart.Checkout.CustomerID)
	if err != nil {
		return nil, err
	}

	pricing := priceCheckout(cart.Items, cart.Checkout, shop, customer)
	return &pricing, nil
}

// GetSale retrieves a sale by ID
func (s *saleService) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	if id <= 0 {
		return nil, fmt.Errorf("validation failed: sale ID must be positive")
	}

	sale, err := s.repos.Sales().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}

	return sale, nil
}

// ListSales retrieves a page of sales
func (s *saleService) ListSales(ctx context.Context, filters models.SaleFilters) (*SaleList, error) {
	filters.Normalize()

	sales, err := s.repos.Sales().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	total, err := s.repos.Sales().Count(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	return &SaleList{
		Sales:      sales,
		Pagination: models.NewPaginationResult(int(total), filters.Limit, filters.Offset),
	}, nil
}

func (s *saleService) activeShift(ctx context.Context, userID int64) (*models.Shift, error) {
	shift, err := s.repos.Shifts().GetActiveByUser(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrNoActiveShift
		}
		return nil, fmt.Errorf("failed to get active shift: %w", err)
	}
	return shift, nil
}

func (s *saleService) checkoutCustomer(ctx context.Context, customerID *int64) (*models.Customer, error) {
	if customerID == nil {
		return nil, nil
	}
	customer, err := s.repos.Customers().GetByID(ctx, *customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout customer: %w", err)
	}
	return customer, nil
}

// postToCustomer applies a sale's balance and points effect. A customer that
// no longer exists is skipped.
func (s *saleService) postToCustomer(ctx context.Context, customerID int64, balanceDelta float64, pointsDelta int64) (*models.Customer, error) {
	if balanceDelta == 0 && pointsDelta == 0 {
		customer, err := s.repos.Customers().GetByID(ctx, customerID)
		if err != nil && !repositories.IsNotFound(err) {
			return nil, fmt.Errorf("failed to get customer: %w", err)
		}
		return customer, nil
	}

	customer, err := s.repos.Customers().ApplyDelta(ctx, customerID, balanceDelta, pointsDelta)
	if err != nil {
		if repositories.IsNotFound(err) {
			s.logger.WithField("customer_id", customerID).Warn("Customer no longer exists, skipping balance update")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *saleService) publishEffects(customer *models.Customer, changes []models.StockChange) {
	if customer != nil {
		s.publisher.Publish(events.New(events.CustomerChanged, "customer", customer.ID, customer))
	}
	if len(changes) > 0 {
		s.publisher.Publish(events.New(events.StockChanged, "product", 0, changes))
	}
}

func (s *saleService) logFailure(err error, operation string, actor Actor, saleID int64) {
	entry := s.logger.WithFields(logrus.Fields{
		"operation": operation,
		"user_id":   actor.UserID,
	})
	if saleID > 0 {
		entry = entry.WithField("sale_id", saleID)
	}

	var pe *PreconditionError
	if errors.As(err, &pe) {
		entry.WithField("code", pe.Code).Info("Sale operation rejected")
		return
	}
	entry.WithError(err).Error("Sale operation failed")
}

func newSale(actor Actor, shift *models.Shift, customer *models.Customer, cart *models.Cart, pricing PricingBreakdown, payment models.PaymentDetails) *models.Sale {
	shiftID := shift.ID
	sale := &models.Sale{
		Date:            time.Now(),
		Items:           models.CloneCartItems(cart.Items),
		SubTotal:        pricing.SubTotal,
		Discount:        pricing.Discount,
		DiscountAmount:  pricing.DiscountAmount,
		LoyaltyDiscount: pricing.LoyaltyDiscount,
		TaxAmount:       pricing.TaxAmount,
		DeliveryFee:     pricing.DeliveryFee,
		TotalAmount:     pricing.TotalAmount,
		TotalCost:       pricing.TotalCost,
		UserID:          actor.UserID,
		UserName:        actor.UserName,
		PaymentDetails:  payment,
		PointsRedeemed:  pricing.PointsRedeemed,
		PointsEarned:    pricing.PointsEarned,
		Status:          models.SaleCompleted,
		ShiftID:         &shiftID,
	}
	if sale.Discount.Type == "" {
		sale.Discount.Type = models.DiscountNone
	}
	if customer != nil {
		id := customer.ID
		sale.CustomerID = &id
	}
	return sale
}

// loadShopInfo maps a missing shop row to ErrShopNotConfigured
func loadShopInfo(ctx context.Context, repo repositories.ShopInfoRepository) (*models.ShopInfo, error) {
	shop, err := repo.Get(ctx)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrShopNotConfigured
		}
		return nil, fmt.Errorf("failed to get shop info: %w", err)
	}
	return shop, nil
}
