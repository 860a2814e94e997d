package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
)

// StockMode selects whether cart lines deplete or restore stock
type StockMode int

const (
	// StockCommit depletes stock for a completed sale
	StockCommit StockMode = iota
	// StockReverse restores stock for a canceled sale
	StockReverse
)

func (m StockMode) sign() float64 {
	if m == StockReverse {
		return 1
	}
	return -1
}

// ResolveStockDeltas turns cart lines into one net delta per product. A recipe
// missing from recipes contributes nothing.
func ResolveStockDeltas(items []models.CartItem, recipes map[int64]*models.Recipe, mode StockMode) map[int64]float64 {
	sign := mode.sign()
	deltas := make(map[int64]float64)

	for _, item := range items {
		switch item.Type {
		case models.ItemTypeProduct:
			deltas[item.ItemID] += sign * item.Quantity
		case models.ItemTypeRecipe:
			recipe, ok := recipes[item.ItemID]
			if !ok {
				continue
			}
			for _, ing := range recipe.Ingredients {
				deltas[ing.ProductID] += sign * ing.Quantity * item.Quantity
			}
		}
	}

	return deltas
}

// StockLedger applies stock deltas and records a movement for each one. It
// runs on whatever transaction the context carries.
type StockLedger struct {
	repos  repositories.Repositories
	logger *logrus.Logger
}

// NewStockLedger creates a new stock ledger
func NewStockLedger(repos repositories.Repositories, logger *logrus.Logger) *StockLedger {
	if logger == nil {
		logger = logrus.New()
	}
	return &StockLedger{repos: repos, logger: logger}
}

// Apply resolves the lines against the recipes they reference and applies the
// resulting deltas
func (l *StockLedger) Apply(ctx context.Context, items []models.CartItem, mode StockMode, reason models.MovementReason, referenceID *int64) ([]models.StockChange, error) {
	recipeIDs := make([]int64, 0)
	seen := make(map[int64]bool)
	for _, item := range items {
		if item.Type == models.ItemTypeRecipe && !seen[item.ItemID] {
			seen[item.ItemID] = true
			recipeIDs = append(recipeIDs, item.ItemID)
		}
	}

	recipes, err := l.repos.Recipes().GetByIDs(ctx, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	for _, id := range recipeIDs {
		if _, ok := recipes[id]; !ok {
			l.logger.WithFields(logrus.Fields{
				"recipe_id": id,
				"reason":    reason,
			}).Warn("Recipe no longer exists, skipping its ingredients")
		}
	}

	return l.ApplyDeltas(ctx, ResolveStockDeltas(items, recipes, mode), reason, referenceID)
}

// ApplyDeltas adds each delta to its product's stock. Products that no longer
// exist are skipped and logged.
func (l *StockLedger) ApplyDeltas(ctx context.Context, deltas map[int64]float64, reason models.MovementReason, referenceID *int64) ([]models.StockChange, error) {
	ids := make([]int64, 0, len(deltas))
	for id, delta := range deltas {
		if delta != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	changes := make([]models.StockChange, 0, len(ids))
	now := time.Now()

	for _, id := range ids {
		delta := deltas[id]

		stock, err := l.repos.Products().AdjustStock(ctx, id, delta)
		if err != nil {
			if repositories.IsNotFound(err) {
				l.logger.WithFields(logrus.Fields{
					"product_id": id,
					"delta":      delta,
					"reason":     reason,
				}).Warn("Product no longer exists, skipping stock adjustment")
				continue
			}
			return nil, fmt.Errorf("failed to adjust stock for product %d: %w", id, err)
		}

		movement := &models.StockMovement{
			ProductID:   id,
			Delta:       delta,
			Reason:      reason,
			ReferenceID: referenceID,
			CreatedAt:   now,
		}
		if err := l.repos.StockMovements().Create(ctx, movement); err != nil {
			return nil, fmt.Errorf("failed to record stock movement: %w", err)
		}

		changes = append(changes, models.StockChange{ProductID: id, Delta: delta, Stock: stock})
	}

	return changes, nil
}
