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

// shopService implements the ShopService interface
type shopService struct {
	repos     repositories.RepositoryManager
	publisher events.Publisher
	logger    *logrus.Logger
	validator *validator.Validate
}

// NewShopService creates a new shop configuration service
func NewShopService(repos repositories.RepositoryManager, publisher events.Publisher, logger *logrus.Logger) ShopService {
	if logger == nil {
		logger = logrus.New()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &shopService{
		repos:     repos,
		publisher: publisher,
		logger:    logger,
		validator: validator.New(),
	}
}

// GetShopInfo returns the shop configuration or ErrShopNotConfigured
func (s *shopService) GetShopInfo(ctx context.Context) (*models.ShopInfo, error) {
	return loadShopInfo(ctx, s.repos.ShopInfo())
}

// SaveShopInfo creates or replaces the shop configuration
func (s *shopService) SaveShopInfo(ctx context.Context, req *ShopInfoRequest) (*models.ShopInfo, error) {
	if req == nil {
		return nil, fmt.Errorf("shop info request cannot be nil")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	info := models.NewShopInfo(models.SanitizeString(req.Name))
	info.Address = strings.TrimSpace(req.Address)
	info.Phone = strings.TrimSpace(req.Phone)
	info.TaxEnabled = req.TaxEnabled
	info.TaxRate = req.TaxRate
	info.LoyaltyEnabled = req.LoyaltyEnabled
	info.PointsPerCurrencyUnit = req.PointsPerCurrencyUnit
	info.CurrencyPerPoint = req.CurrencyPerPoint

	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if existing, err := s.repos.ShopInfo().Get(ctx); err == nil {
		info.CreatedAt = existing.CreatedAt
	} else if !repositories.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get shop info: %w", err)
	}

	if err := s.repos.ShopInfo().Save(ctx, info); err != nil {
		s.logger.WithError(err).Error("Failed to save shop info")
		return nil, fmt.Errorf("failed to save shop info: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"name":        info.Name,
		"tax_enabled": info.TaxEnabled,
		"loyalty":     info.LoyaltyEnabled,
	}).Info("Shop info saved")

	s.publisher.Publish(events.New(events.ShopInfoChanged, "shop_info", info.ID, info))
	return info, nil
}

// EnsureDefaults saves defaults when the shop has never been configured
func (s *shopService) EnsureDefaults(ctx context.Context, defaults *models.ShopInfo) error {
	if defaults == nil {
		return nil
	}

	exists, err := s.repos.ShopInfo().Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check shop info: %w", err)
	}
	if exists {
		return nil
	}

	if err := defaults.Validate(); err != nil {
		return fmt.Errorf("invalid default shop info: %w", err)
	}
	if err := s.repos.ShopInfo().Save(ctx, defaults); err != nil {
		return fmt.Errorf("failed to seed shop info: %w", err)
	}

	s.logger.WithField("name", defaults.Name).Info("Seeded default shop info")
	return nil
}
