package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stockcart/internal/domain"
	"stockcart/internal/infrastructure/mysql"
)

type MySQLStockRepository struct {
	db *sql.DB
}

func NewMySQLStockRepository(db *sql.DB) *MySQLStockRepository {
	return &MySQLStockRepository{db: db}
}

// Append records a stock receipt. Receipts are never updated or deleted.
func (r *MySQLStockRepository) Append(ctx context.Context, tx *sql.Tx, receipt domain.StockReceipt) (int64, error) {
	query := `INSERT INTO productInputs (productId, addedQuantity, createdAt) VALUES (?, ?, ?)`

	result, err := mysql.Conn(r.db, tx).ExecContext(ctx, query, receipt.ProductID, receipt.AddedQuantity, receipt.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting stock receipt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return id, nil
}

func (r *MySQLStockRepository) TotalReceived(ctx context.Context, tx *sql.Tx, productID int64) (int, error) {
	query := `SELECT COALESCE(SUM(addedQuantity), 0) FROM productInputs WHERE productId = ?`

	var total int
	if err := mysql.Conn(r.db, tx).QueryRowContext(ctx, query, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing received stock: %w", err)
	}
	return total, nil
}

// TotalReserved sums cart line quantities across carts in every state.
func (r *MySQLStockRepository) TotalReserved(ctx context.Context, tx *sql.Tx, productID int64) (int, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM shoppingCartProducts WHERE productId = ?`

	var total int
	if err := mysql.Conn(r.db, tx).QueryRowContext(ctx, query, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing reserved stock: %w", err)
	}
	return total, nil
}

// Totals loads received and reserved sums for several products in two queries.
// Products without receipts or lines are reported with zero totals.
func (r *MySQLStockRepository) Totals(ctx context.Context, productIDs []int64) (map[int64]domain.StockTotals, error) {
	totals := make(map[int64]domain.StockTotals, len(productIDs))
	if len(productIDs) == 0 {
		return totals, nil
	}

	placeholders := make([]string, len(productIDs))
	args := make([]interface{}, len(productIDs))
	for i, id := range productIDs {
		placeholders[i] = "?"
		args[i] = id
		totals[id] = domain.StockTotals{}
	}
	in := strings.Join(placeholders, ", ")

	received, err := r.sumBy(ctx, fmt.Sprintf(
		`SELECT productId, SUM(addedQuantity) FROM productInputs WHERE productId IN (%s) GROUP BY productId`, in,
	), args)
	if err != nil {
		return nil, fmt.Errorf("summing received stock: %w", err)
	}

	reserved, err := r.sumBy(ctx, fmt.Sprintf(
		`SELECT productId, SUM(quantity) FROM shoppingCartProducts WHERE productId IN (%s) GROUP BY productId`, in,
	), args)
	if err != nil {
		return nil, fmt.Errorf("summing reserved stock: %w", err)
	}

	for id := range totals {
		totals[id] = domain.StockTotals{Received: received[id], Reserved: reserved[id]}
	}
	return totals, nil
}

func (r *MySQLStockRepository) sumBy(ctx context.Context, query string, args []interface{}) (map[int64]int, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[int64]int)
	for rows.Next() {
		var id int64
		var sum int
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		sums[id] = sum
	}
	return sums, rows.Err()
}
