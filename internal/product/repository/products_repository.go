package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stockcart/internal/domain"
	apperrors "stockcart/internal/errors"
	"stockcart/internal/infrastructure/mysql"
)

const productColumns = `id, name, price, unit, minStockQuantity, updatedAt`

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

func (r *MySQLRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

// FindByID reads a product inside tx, or from the pool when tx is nil.
func (r *MySQLRepository) FindByID(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	return r.findOne(ctx, mysql.Conn(r.db, tx), query, id)
}

// FindByIDForUpdate locks the product row until tx ends. Every operation that
// changes a product's reservations takes this lock first.
func (r *MySQLRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ? FOR UPDATE`
	return r.findOne(ctx, tx, query, id)
}

func (r *MySQLRepository) Create(ctx context.Context, product domain.Product) (int64, error) {
	query := `INSERT INTO products (name, price, unit, minStockQuantity, updatedAt) VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		product.Name, product.Price, product.Unit, product.MinStockQuantity, product.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return id, nil
}

func (r *MySQLRepository) findOne(ctx context.Context, q mysql.Querier, query string, id int64) (*domain.Product, error) {
	p, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by id: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var p domain.Product
	if err := s.Scan(&p.ID, &p.Name, &p.Price, &p.Unit, &p.MinStockQuantity, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
