package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"stockcart/internal/domain"
)

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// OrderedBetween returns carts in state ordered whose updatedAt lies in
// [from, to), each with its lines.
func (r *MySQLRepository) OrderedBetween(ctx context.Context, from, to time.Time) ([]domain.CartSnapshot, error) {
	query := `
		SELECT id, userId, state, sum, updatedAt
		FROM shoppingCarts
		WHERE state = 'ordered' AND updatedAt >= ? AND updatedAt < ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying ordered carts: %w", err)
	}
	defer rows.Close()

	var carts []domain.CartSnapshot
	byID := make(map[int64]int)
	for rows.Next() {
		var c domain.Cart
		var state string
		if err := rows.Scan(&c.ID, &c.UserID, &state, &c.Sum, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning cart row: %w", err)
		}
		c.State = domain.CartState(state)
		byID[c.ID] = len(carts)
		carts = append(carts, domain.CartSnapshot{Cart: c, Lines: []domain.CartLineDetail{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cart rows: %w", err)
	}

	if len(carts) == 0 {
		return carts, nil
	}

	placeholders := make([]string, len(carts))
	args := make([]interface{}, len(carts))
	for i, c := range carts {
		placeholders[i] = "?"
		args[i] = c.Cart.ID
	}

	lineQuery := fmt.Sprintf(`
		SELECT l.id, l.shoppingCartId, l.userId, l.productId, l.quantity, l.updatedAt,
		       p.name, p.price, p.unit
		FROM shoppingCartProducts l
		JOIN products p ON p.id = l.productId
		WHERE l.shoppingCartId IN (%s)
		ORDER BY l.shoppingCartId, l.id
	`, strings.Join(placeholders, ", "))

	lineRows, err := r.db.QueryContext(ctx, lineQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ordered cart lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var l domain.CartLineDetail
		if err := lineRows.Scan(
			&l.ID, &l.CartID, &l.UserID, &l.ProductID, &l.Quantity, &l.UpdatedAt,
			&l.ProductName, &l.ProductPrice, &l.ProductUnit,
		); err != nil {
			return nil, fmt.Errorf("scanning cart line row: %w", err)
		}
		i := byID[l.CartID]
		carts[i].Lines = append(carts[i].Lines, l)
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cart line rows: %w", err)
	}

	return carts, nil
}
