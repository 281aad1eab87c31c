package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockcart/internal/domain"
	apperrors "stockcart/internal/errors"
	"stockcart/internal/infrastructure/mysql"
)

const cartColumns = `id, userId, state, sum, updatedAt`

type MySQLCartRepository struct {
	db *sql.DB
}

func NewMySQLCartRepository(db *sql.DB) *MySQLCartRepository {
	return &MySQLCartRepository{db: db}
}

func (r *MySQLCartRepository) FindByID(ctx context.Context, tx *sql.Tx, id int64) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM shoppingCarts WHERE id = ?`
	return r.findOne(ctx, mysql.Conn(r.db, tx), fmt.Sprintf("cart with id %d not found", id), query, id)
}

func (r *MySQLCartRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM shoppingCarts WHERE id = ? FOR UPDATE`
	return r.findOne(ctx, tx, fmt.Sprintf("cart with id %d not found", id), query, id)
}

func (r *MySQLCartRepository) FindActiveByUser(ctx context.Context, tx *sql.Tx, userID int64) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM shoppingCarts WHERE userId = ? AND state = 'active'`
	return r.findOne(ctx, mysql.Conn(r.db, tx), "no active cart", query, userID)
}

// FindActiveByUserForUpdate locks the user's active cart row. When no row
// exists the gap stays unlocked; the unique active-user index catches a
// concurrent create.
func (r *MySQLCartRepository) FindActiveByUserForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM shoppingCarts WHERE userId = ? AND state = 'active' FOR UPDATE`
	return r.findOne(ctx, tx, "no active cart", query, userID)
}

// Create inserts a cart. A second active cart for the same user fails with
// MySQL error 1062.
func (r *MySQLCartRepository) Create(ctx context.Context, tx *sql.Tx, cart domain.Cart) (int64, error) {
	query := `INSERT INTO shoppingCarts (userId, state, sum, updatedAt) VALUES (?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query, cart.UserID, string(cart.State), cart.Sum, cart.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting cart: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return id, nil
}

func (r *MySQLCartRepository) UpdateSum(ctx context.Context, tx *sql.Tx, id int64, sum decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE shoppingCarts SET sum = ?, updatedAt = ? WHERE id = ?`
	return r.update(ctx, tx, id, "updating cart sum", query, sum, updatedAt, id)
}

func (r *MySQLCartRepository) UpdateState(ctx context.Context, tx *sql.Tx, id int64, state domain.CartState, updatedAt time.Time) error {
	query := `UPDATE shoppingCarts SET state = ?, updatedAt = ? WHERE id = ?`
	return r.update(ctx, tx, id, "updating cart state", query, string(state), updatedAt, id)
}

func (r *MySQLCartRepository) update(ctx context.Context, tx *sql.Tx, id int64, what, query string, args ...any) error {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("cart with id %d not found", id))
	}

	return nil
}

func (r *MySQLCartRepository) findOne(ctx context.Context, q mysql.Querier, notFound, query string, arg int64) (*domain.Cart, error) {
	var cart domain.Cart
	var state string

	err := q.QueryRowContext(ctx, query, arg).Scan(&cart.ID, &cart.UserID, &state, &cart.Sum, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying cart: %w", err)
	}

	cart.State, err = domain.ParseCartState(state)
	if err != nil {
		return nil, fmt.Errorf("loading cart %d: %w", cart.ID, err)
	}

	return &cart, nil
}
