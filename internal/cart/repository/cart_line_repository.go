package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stockcart/internal/domain"
	apperrors "stockcart/internal/errors"
	"stockcart/internal/infrastructure/mysql"
)

const lineColumns = `id, shoppingCartId, userId, productId, quantity, updatedAt`

type MySQLCartLineRepository struct {
	db *sql.DB
}

func NewMySQLCartLineRepository(db *sql.DB) *MySQLCartLineRepository {
	return &MySQLCartLineRepository{db: db}
}

func (r *MySQLCartLineRepository) FindByID(ctx context.Context, tx *sql.Tx, id int64) (*domain.CartLine, error) {
	query := `SELECT ` + lineColumns + ` FROM shoppingCartProducts WHERE id = ?`
	return r.findOne(ctx, mysql.Conn(r.db, tx), fmt.Sprintf("cart line with id %d not found", id), query, id)
}

func (r *MySQLCartLineRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.CartLine, error) {
	query := `SELECT ` + lineColumns + ` FROM shoppingCartProducts WHERE id = ? FOR UPDATE`
	return r.findOne(ctx, tx, fmt.Sprintf("cart line with id %d not found", id), query, id)
}

func (r *MySQLCartLineRepository) FindByCartAndProduct(ctx context.Context, tx *sql.Tx, cartID, productID int64) (*domain.CartLine, error) {
	query := `SELECT ` + lineColumns + ` FROM shoppingCartProducts WHERE shoppingCartId = ? AND productId = ? FOR UPDATE`
	notFound := fmt.Sprintf("product %d is not in cart %d", productID, cartID)
	return r.findOne(ctx, tx, notFound, query, cartID, productID)
}

func (r *MySQLCartLineRepository) Insert(ctx context.Context, tx *sql.Tx, line domain.CartLine) (int64, error) {
	query := `INSERT INTO shoppingCartProducts (shoppingCartId, userId, productId, quantity, updatedAt) VALUES (?, ?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query, line.CartID, line.UserID, line.ProductID, line.Quantity, line.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting cart line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return id, nil
}

func (r *MySQLCartLineRepository) UpdateQuantity(ctx context.Context, tx *sql.Tx, id int64, quantity int, updatedAt time.Time) error {
	query := `UPDATE shoppingCartProducts SET quantity = ?, updatedAt = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, quantity, updatedAt, id)
	if err != nil {
		return fmt.Errorf("updating cart line quantity: %w", err)
	}
	return expectRow(result, id)
}

func (r *MySQLCartLineRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM shoppingCartProducts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting cart line: %w", err)
	}
	return expectRow(result, id)
}

// ListByCart returns the cart's lines joined with their product, oldest first.
func (r *MySQLCartLineRepository) ListByCart(ctx context.Context, tx *sql.Tx, cartID int64) ([]domain.CartLineDetail, error) {
	query := `
		SELECT l.id, l.shoppingCartId, l.userId, l.productId, l.quantity, l.updatedAt,
		       p.name, p.price, p.unit
		FROM shoppingCartProducts l
		JOIN products p ON p.id = l.productId
		WHERE l.shoppingCartId = ?
		ORDER BY l.id
	`

	rows, err := mysql.Conn(r.db, tx).QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("querying cart lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLineDetail{}
	for rows.Next() {
		var l domain.CartLineDetail
		if err := rows.Scan(
			&l.ID, &l.CartID, &l.UserID, &l.ProductID, &l.Quantity, &l.UpdatedAt,
			&l.ProductName, &l.ProductPrice, &l.ProductUnit,
		); err != nil {
			return nil, fmt.Errorf("scanning cart line row: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cart line rows: %w", err)
	}

	return lines, nil
}

func (r *MySQLCartLineRepository) findOne(ctx context.Context, q mysql.Querier, notFound, query string, args ...any) (*domain.CartLine, error) {
	var l domain.CartLine
	err := q.QueryRowContext(ctx, query, args...).Scan(&l.ID, &l.CartID, &l.UserID, &l.ProductID, &l.Quantity, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying cart line: %w", err)
	}
	return &l, nil
}

func expectRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("cart line with id %d not found", id))
	}

	return nil
}
