package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockcart/internal/domain"
	apperrors "stockcart/internal/errors"
)

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type ProductLocker interface {
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error)
}

type AvailabilityCalculator interface {
	AvailableQuantity(ctx context.Context, tx *sql.Tx, productID int64) (int, error)
}

type CartRepository interface {
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Cart, error)
	FindActiveByUser(ctx context.Context, tx *sql.Tx, userID int64) (*domain.Cart, error)
	FindActiveByUserForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*domain.Cart, error)
	Create(ctx context.Context, tx *sql.Tx, cart domain.Cart) (int64, error)
	UpdateSum(ctx context.Context, tx *sql.Tx, id int64, sum decimal.Decimal, updatedAt time.Time) error
	UpdateState(ctx context.Context, tx *sql.Tx, id int64, state domain.CartState, updatedAt time.Time) error
}

type CartLineRepository interface {
	FindByID(ctx context.Context, tx *sql.Tx, id int64) (*domain.CartLine, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.CartLine, error)
	FindByCartAndProduct(ctx context.Context, tx *sql.Tx, cartID, productID int64) (*domain.CartLine, error)
	Insert(ctx context.Context, tx *sql.Tx, line domain.CartLine) (int64, error)
	UpdateQuantity(ctx context.Context, tx *sql.Tx, id int64, quantity int, updatedAt time.Time) error
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
	ListByCart(ctx context.Context, tx *sql.Tx, cartID int64) ([]domain.CartLineDetail, error)
}

// Mutation is the outcome of a committed cart change: the cart as it was
// committed and the touched product's availability at commit time.
type Mutation struct {
	Snapshot          domain.CartSnapshot
	ProductID         int64
	AvailableQuantity int
}

// ReservationService applies cart mutations. Each call is one transaction that
// locks the product row before reading availability, so every writer on a
// product is serialized on that lock.
type ReservationService struct {
	txm      Transactor
	products ProductLocker
	stock    AvailabilityCalculator
	carts    CartRepository
	lines    CartLineRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewReservationService(
	txm Transactor,
	products ProductLocker,
	stock AvailabilityCalculator,
	carts CartRepository,
	lines CartLineRepository,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		txm:      txm,
		products: products,
		stock:    stock,
		carts:    carts,
		lines:    lines,
		logger:   logger,
		now:      time.Now,
	}
}

// Add reserves quantity more units of productID in the user's active cart,
// creating the cart on first use.
func (s *ReservationService) Add(ctx context.Context, userID, productID int64, quantity int) (*Mutation, error) {
	if quantity < 1 {
		return nil, apperrors.NewInvalidQuantityError(quantity)
	}

	var result *Mutation
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.products.FindByIDForUpdate(ctx, tx, productID); err != nil {
			return err
		}

		available, err := s.stock.AvailableQuantity(ctx, tx, productID)
		if err != nil {
			return err
		}
		if available == 0 {
			return apperrors.NewOutOfStockError(productID)
		}
		if available < quantity {
			return apperrors.NewInsufficientStockError(productID, quantity, available)
		}

		cart, err := s.activeCartForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		existing, err := s.lines.FindByCartAndProduct(ctx, tx, cart.ID, productID)
		switch {
		case err == nil:
			// The line's own units count towards what this cart may hold.
			ceiling := available + existing.Quantity
			if ceiling < existing.Quantity+quantity {
				return apperrors.NewInsufficientStockError(productID, existing.Quantity+quantity, available)
			}
			if err := s.lines.UpdateQuantity(ctx, tx, existing.ID, existing.Quantity+quantity, now); err != nil {
				return err
			}
		case isNotFound(err):
			if _, err := s.lines.Insert(ctx, tx, domain.CartLine{
				CartID:    cart.ID,
				UserID:    userID,
				ProductID: productID,
				Quantity:  quantity,
				UpdatedAt: now,
			}); err != nil {
				return err
			}
		default:
			return err
		}

		result, err = s.commitMutation(ctx, tx, *cart, productID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product added to cart",
		zap.Int64("userId", userID),
		zap.Int64("cartId", result.Snapshot.Cart.ID),
		zap.Int64("productId", productID),
		zap.Int("quantity", quantity),
		zap.Int("availableQuantity", result.AvailableQuantity),
	)
	return result, nil
}

// UpdateQuantity sets a line to newQuantity. Growing a line needs the extra
// units to be available; shrinking always succeeds.
func (s *ReservationService) UpdateQuantity(ctx context.Context, userID, lineID int64, newQuantity int) (*Mutation, error) {
	if newQuantity < 1 {
		return nil, apperrors.NewInvalidQuantityError(newQuantity)
	}

	var result *Mutation
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		line, cart, err := s.lockOwnedLine(ctx, tx, userID, lineID)
		if err != nil {
			return err
		}

		if newQuantity > line.Quantity {
			available, err := s.stock.AvailableQuantity(ctx, tx, line.ProductID)
			if err != nil {
				return err
			}
			if available+line.Quantity < newQuantity {
				return apperrors.NewInsufficientStockError(line.ProductID, newQuantity, available)
			}
		}

		now := s.now().UTC()
		if err := s.lines.UpdateQuantity(ctx, tx, line.ID, newQuantity, now); err != nil {
			return err
		}

		result, err = s.commitMutation(ctx, tx, *cart, line.ProductID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart line quantity updated",
		zap.Int64("userId", userID),
		zap.Int64("cartLineId", lineID),
		zap.Int64("productId", result.ProductID),
		zap.Int("quantity", newQuantity),
		zap.Int("availableQuantity", result.AvailableQuantity),
	)
	return result, nil
}

// Remove deletes a line, returning its units to the product's availability.
func (s *ReservationService) Remove(ctx context.Context, userID, lineID int64) (*Mutation, error) {
	var result *Mutation
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		line, cart, err := s.lockOwnedLine(ctx, tx, userID, lineID)
		if err != nil {
			return err
		}

		if err := s.lines.Delete(ctx, tx, line.ID); err != nil {
			return err
		}

		result, err = s.commitMutation(ctx, tx, *cart, line.ProductID, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart line removed",
		zap.Int64("userId", userID),
		zap.Int64("cartLineId", lineID),
		zap.Int64("productId", result.ProductID),
		zap.Int("availableQuantity", result.AvailableQuantity),
	)
	return result, nil
}

// FinishOrder moves the user's active cart to ordered. Its lines keep their
// units reserved.
func (s *ReservationService) FinishOrder(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	var snapshot *domain.CartSnapshot
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cart, err := s.carts.FindActiveByUserForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !cart.State.CanTransitionTo(domain.CartStateOrdered) {
			return apperrors.NewConflictError(fmt.Sprintf("cart %d cannot be ordered from state %s", cart.ID, cart.State))
		}

		now := s.now().UTC()
		if err := s.carts.UpdateState(ctx, tx, cart.ID, domain.CartStateOrdered, now); err != nil {
			return err
		}
		cart.State = domain.CartStateOrdered
		cart.UpdatedAt = now

		lines, err := s.lines.ListByCart(ctx, tx, cart.ID)
		if err != nil {
			return err
		}
		snapshot = &domain.CartSnapshot{Cart: *cart, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order finished",
		zap.Int64("userId", userID),
		zap.Int64("cartId", snapshot.Cart.ID),
		zap.String("sum", snapshot.Cart.Sum.StringFixed(2)),
		zap.Int("lineCount", len(snapshot.Lines)),
	)
	return snapshot, nil
}

// GetActiveCart returns the user's active cart. A user without one gets an
// empty unsaved cart; carts are only persisted by Add.
func (s *ReservationService) GetActiveCart(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	cart, err := s.carts.FindActiveByUser(ctx, nil, userID)
	if isNotFound(err) {
		return &domain.CartSnapshot{
			Cart: domain.Cart{
				UserID:    userID,
				State:     domain.CartStateActive,
				Sum:       decimal.Zero,
				UpdatedAt: s.now().UTC(),
			},
			Lines: []domain.CartLineDetail{},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	lines, err := s.lines.ListByCart(ctx, nil, cart.ID)
	if err != nil {
		return nil, err
	}
	return &domain.CartSnapshot{Cart: *cart, Lines: lines}, nil
}

func (s *ReservationService) activeCartForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*domain.Cart, error) {
	cart, err := s.carts.FindActiveByUserForUpdate(ctx, tx, userID)
	if err == nil {
		return cart, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	created := domain.Cart{
		UserID:    userID,
		State:     domain.CartStateActive,
		Sum:       decimal.Zero,
		UpdatedAt: s.now().UTC(),
	}
	id, err := s.carts.Create(ctx, tx, created)
	if err != nil {
		return nil, err
	}
	created.ID = id

	s.logger.Debug("active cart created", zap.Int64("userId", userID), zap.Int64("cartId", id))
	return &created, nil
}

// lockOwnedLine locks the line's product, then its cart, then the line. Lines
// owned by someone else are reported as missing.
func (s *ReservationService) lockOwnedLine(ctx context.Context, tx *sql.Tx, userID, lineID int64) (*domain.CartLine, *domain.Cart, error) {
	peek, err := s.lines.FindByID(ctx, tx, lineID)
	if err != nil {
		return nil, nil, err
	}
	if peek.UserID != userID {
		return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("cart line with id %d not found", lineID))
	}

	if _, err := s.products.FindByIDForUpdate(ctx, tx, peek.ProductID); err != nil {
		return nil, nil, err
	}

	cart, err := s.carts.FindByIDForUpdate(ctx, tx, peek.CartID)
	if err != nil {
		return nil, nil, err
	}
	if !cart.IsActive() {
		return nil, nil, apperrors.NewConflictError("cart is not active")
	}

	// Re-read under lock; a concurrent remove may have won.
	line, err := s.lines.FindByIDForUpdate(ctx, tx, lineID)
	if err != nil {
		return nil, nil, err
	}

	return line, cart, nil
}

// commitMutation recomputes the cached sum from the cart's lines and reads the
// product's availability while the product lock is still held.
func (s *ReservationService) commitMutation(ctx context.Context, tx *sql.Tx, cart domain.Cart, productID int64, now time.Time) (*Mutation, error) {
	lines, err := s.lines.ListByCart(ctx, tx, cart.ID)
	if err != nil {
		return nil, err
	}

	sum := domain.ComputeCartSum(lines)
	if err := s.carts.UpdateSum(ctx, tx, cart.ID, sum, now); err != nil {
		return nil, err
	}
	cart.Sum = sum
	cart.UpdatedAt = now

	available, err := s.stock.AvailableQuantity(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	return &Mutation{
		Snapshot:          domain.CartSnapshot{Cart: cart, Lines: lines},
		ProductID:         productID,
		AvailableQuantity: available,
	}, nil
}

func isNotFound(err error) bool {
	_, ok := apperrors.IsNotFoundError(err)
	return ok
}
