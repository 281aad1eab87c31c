package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stockcart/internal/domain"
	apperrors "stockcart/internal/errors"
)

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type StockRepository interface {
	Append(ctx context.Context, tx *sql.Tx, receipt domain.StockReceipt) (int64, error)
	TotalReceived(ctx context.Context, tx *sql.Tx, productID int64) (int, error)
	TotalReserved(ctx context.Context, tx *sql.Tx, productID int64) (int, error)
	Totals(ctx context.Context, productIDs []int64) (map[int64]domain.StockTotals, error)
}

type ProductLocker interface {
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error)
}

// StockService owns the stock ledger and is the single availability calculator.
type StockService struct {
	txm      Transactor
	repo     StockRepository
	products ProductLocker
	logger   *zap.Logger
	now      func() time.Time
}

func NewStockService(txm Transactor, repo StockRepository, products ProductLocker, logger *zap.Logger) *StockService {
	return &StockService{
		txm:      txm,
		repo:     repo,
		products: products,
		logger:   logger,
		now:      time.Now,
	}
}

// AvailableQuantity is computed fresh on every call. Pass the caller's
// transaction to read inside an atomic section, or nil to use the pool.
func (s *StockService) AvailableQuantity(ctx context.Context, tx *sql.Tx, productID int64) (int, error) {
	received, err := s.repo.TotalReceived(ctx, tx, productID)
	if err != nil {
		return 0, err
	}

	reserved, err := s.repo.TotalReserved(ctx, tx, productID)
	if err != nil {
		return 0, err
	}

	return domain.AvailableQuantity(received, reserved), nil
}

func (s *StockService) AvailableQuantities(ctx context.Context, productIDs []int64) (map[int64]int, error) {
	totals, err := s.repo.Totals(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	available := make(map[int64]int, len(totals))
	for id, t := range totals {
		available[id] = t.Available()
	}
	return available, nil
}

// Restock appends a receipt and returns it with the product's new availability.
// The product row is locked so the receipt serializes with cart reservations.
func (s *StockService) Restock(ctx context.Context, productID int64, quantity int) (*domain.StockReceipt, int, error) {
	if quantity < 1 {
		return nil, 0, apperrors.NewInvalidQuantityError(quantity)
	}

	var receipt domain.StockReceipt
	var available int

	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.products.FindByIDForUpdate(ctx, tx, productID); err != nil {
			return err
		}

		receipt = domain.StockReceipt{
			ProductID:     productID,
			AddedQuantity: quantity,
			CreatedAt:     s.now().UTC(),
		}

		id, err := s.repo.Append(ctx, tx, receipt)
		if err != nil {
			return err
		}
		receipt.ID = id

		available, err = s.AvailableQuantity(ctx, tx, productID)
		return err
	})
	if err != nil {
		if apperrors.IsBusinessError(err) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("restocking product %d: %w", productID, err)
	}

	s.logger.Info("stock received",
		zap.Int64("productId", productID),
		zap.Int("addedQuantity", quantity),
		zap.Int("availableQuantity", available),
	)

	return &receipt, available, nil
}
