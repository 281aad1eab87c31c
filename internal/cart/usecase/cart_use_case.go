package usecase

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"stockcart/internal/cart/service"
	"stockcart/internal/domain"
	apperrors "stockcart/internal/errors"
	"stockcart/internal/infrastructure/metrics"
	"stockcart/internal/infrastructure/mysql"
)

const (
	opAdd            = "add"
	opUpdateQuantity = "update_quantity"
	opRemove         = "remove"
	opFinishOrder    = "finish_order"
)

type ReservationService interface {
	Add(ctx context.Context, userID, productID int64, quantity int) (*service.Mutation, error)
	UpdateQuantity(ctx context.Context, userID, lineID int64, newQuantity int) (*service.Mutation, error)
	Remove(ctx context.Context, userID, lineID int64) (*service.Mutation, error)
	FinishOrder(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
	GetActiveCart(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
}

// LowStockNotifier is told about every product whose reservations changed.
type LowStockNotifier interface {
	Enqueue(productID int64)
}

type CartUseCase struct {
	reservations     ReservationService
	notifier         LowStockNotifier
	metrics          *metrics.Metrics
	logger           *zap.Logger
	maxRetryAttempts int
	sleep            func(ctx context.Context, d time.Duration) error
}

func NewCartUseCase(
	reservations ReservationService,
	notifier LowStockNotifier,
	m *metrics.Metrics,
	logger *zap.Logger,
	maxRetryAttempts int,
) *CartUseCase {
	if maxRetryAttempts < 1 {
		maxRetryAttempts = 1
	}
	return &CartUseCase{
		reservations:     reservations,
		notifier:         notifier,
		metrics:          m,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		sleep:            sleepContext,
	}
}

func (uc *CartUseCase) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*service.Mutation, error) {
	m, err := withRetry(ctx, uc, opAdd, apperrors.OpReserve, func() (*service.Mutation, error) {
		return uc.reservations.Add(ctx, userID, productID, quantity)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Enqueue(m.ProductID)
	return m, nil
}

func (uc *CartUseCase) UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int) (*service.Mutation, error) {
	m, err := withRetry(ctx, uc, opUpdateQuantity, apperrors.OpReserve, func() (*service.Mutation, error) {
		return uc.reservations.UpdateQuantity(ctx, userID, lineID, quantity)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Enqueue(m.ProductID)
	return m, nil
}

func (uc *CartUseCase) RemoveProduct(ctx context.Context, userID, lineID int64) (*service.Mutation, error) {
	m, err := withRetry(ctx, uc, opRemove, apperrors.OpReserve, func() (*service.Mutation, error) {
		return uc.reservations.Remove(ctx, userID, lineID)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Enqueue(m.ProductID)
	return m, nil
}

func (uc *CartUseCase) FinishOrder(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	return withRetry(ctx, uc, opFinishOrder, apperrors.OpFinishOrder, func() (*domain.CartSnapshot, error) {
		return uc.reservations.FinishOrder(ctx, userID)
	})
}

func (uc *CartUseCase) GetActiveCart(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	return uc.reservations.GetActiveCart(ctx, userID)
}

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// runs out of attempts. Deadlocks, lock wait timeouts and the duplicate key
// raised by two concurrent first adds are retried; business rejections are
// returned as-is and anything else becomes a TransactionError.
func withRetry[T any](ctx context.Context, uc *CartUseCase, op string, txOp apperrors.TransactionOp, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= uc.maxRetryAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			uc.metrics.CartOperations.WithLabelValues(op, metrics.OutcomeSuccess).Inc()
			return result, nil
		}

		if apperrors.IsBusinessError(err) {
			uc.metrics.CartOperations.WithLabelValues(op, metrics.OutcomeRejected).Inc()
			return zero, err
		}

		if !isRetryable(err) {
			uc.metrics.CartOperations.WithLabelValues(op, metrics.OutcomeFailed).Inc()
			uc.logger.Error("cart transaction failed", zap.String("operation", op), zap.Error(err))
			return zero, apperrors.NewTransactionError(txOp, err)
		}

		lastErr = err
		if attempt == uc.maxRetryAttempts {
			break
		}

		uc.metrics.CartRetries.WithLabelValues(op).Inc()
		uc.logger.Warn("transaction conflict, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", uc.maxRetryAttempts),
			zap.Error(err),
		)

		if err := uc.sleep(ctx, backoff(attempt)); err != nil {
			lastErr = err
			break
		}
	}

	uc.metrics.CartOperations.WithLabelValues(op, metrics.OutcomeFailed).Inc()
	uc.logger.Error("cart transaction retries exhausted", zap.String("operation", op), zap.Error(lastErr))
	return zero, apperrors.NewTransactionError(txOp, lastErr)
}

func isRetryable(err error) bool {
	return mysql.IsDeadlockError(err) || mysql.IsDuplicateKeyError(err)
}

// backoff grows by 100ms per attempt with +/-20% jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(attempt) * 100 * time.Millisecond
	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(base) * jitter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
