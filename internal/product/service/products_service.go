package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockcart/internal/domain"
	apperrors "stockcart/internal/errors"
)

type Repository interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error)
	Create(ctx context.Context, product domain.Product) (int64, error)
}

type StockCalculator interface {
	AvailableQuantity(ctx context.Context, tx *sql.Tx, productID int64) (int, error)
	AvailableQuantities(ctx context.Context, productIDs []int64) (map[int64]int, error)
}

type CreateProductInput struct {
	Name             string
	Price            decimal.Decimal
	Unit             string
	MinStockQuantity int
}

type ProductService struct {
	repo   Repository
	stock  StockCalculator
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, stock StockCalculator, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		stock:  stock,
		logger: logger,
		now:    time.Now,
	}
}

// List returns every product ordered by name with its current availability.
func (s *ProductService) List(ctx context.Context) ([]domain.ProductStock, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	available, err := s.stock.AvailableQuantities(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]domain.ProductStock, 0, len(products))
	for _, p := range products {
		result = append(result, domain.ProductStock{Product: p, AvailableQuantity: available[p.ID]})
	}
	return result, nil
}

// GetProductStock loads one product and computes its availability.
func (s *ProductService) GetProductStock(ctx context.Context, id int64) (*domain.ProductStock, error) {
	product, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	available, err := s.stock.AvailableQuantity(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	return &domain.ProductStock{Product: *product, AvailableQuantity: available}, nil
}

func (s *ProductService) AvailableQuantity(ctx context.Context, id int64) (int, error) {
	ps, err := s.GetProductStock(ctx, id)
	if err != nil {
		return 0, err
	}
	return ps.AvailableQuantity, nil
}

// Create adds a product with no stock; stock arrives through receipts.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*domain.ProductStock, error) {
	var details []apperrors.ValidationDetail
	if strings.TrimSpace(in.Name) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name is required"})
	}
	if in.Price.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "price", Message: "price must be non-negative"})
	}
	if strings.TrimSpace(in.Unit) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "unit", Message: "unit is required"})
	}
	if in.MinStockQuantity < 0 {
		details = append(details, apperrors.ValidationDetail{Field: "minStockQuantity", Message: "minStockQuantity must be non-negative"})
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	product := domain.Product{
		Name:             strings.TrimSpace(in.Name),
		Price:            in.Price.Round(2),
		Unit:             strings.TrimSpace(in.Unit),
		MinStockQuantity: in.MinStockQuantity,
		UpdatedAt:        s.now().UTC(),
	}

	id, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, err
	}
	product.ID = id

	s.logger.Info("product created", zap.Int64("productId", id), zap.String("name", product.Name))

	return &domain.ProductStock{Product: product}, nil
}
