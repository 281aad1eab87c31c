package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockcart/internal/domain"
	apperrors "stockcart/internal/errors"
)

type mockRepository struct {
	FindAllFunc  func(ctx context.Context) ([]domain.Product, error)
	FindByIDFunc func(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error)
	CreateFunc   func(ctx context.Context, product domain.Product) (int64, error)
}

func (m *mockRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	return m.FindAllFunc(ctx)
}

func (m *mockRepository) FindByID(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error) {
	return m.FindByIDFunc(ctx, tx, id)
}

func (m *mockRepository) Create(ctx context.Context, product domain.Product) (int64, error) {
	return m.CreateFunc(ctx, product)
}

type mockStockCalculator struct {
	AvailableQuantityFunc   func(ctx context.Context, tx *sql.Tx, productID int64) (int, error)
	AvailableQuantitiesFunc func(ctx context.Context, productIDs []int64) (map[int64]int, error)
}

func (m *mockStockCalculator) AvailableQuantity(ctx context.Context, tx *sql.Tx, productID int64) (int, error) {
	return m.AvailableQuantityFunc(ctx, tx, productID)
}

func (m *mockStockCalculator) AvailableQuantities(ctx context.Context, productIDs []int64) (map[int64]int, error) {
	return m.AvailableQuantitiesFunc(ctx, productIDs)
}

func TestList_AttachesAvailability(t *testing.T) {
	repo := &mockRepository{
		FindAllFunc: func(ctx context.Context) ([]domain.Product, error) {
			return []domain.Product{
				{ID: 1, Name: "Bread", Price: decimal.RequireFromString("1.80")},
				{ID: 2, Name: "Milk", Price: decimal.RequireFromString("2.50")},
			}, nil
		},
	}
	stock := &mockStockCalculator{
		AvailableQuantitiesFunc: func(ctx context.Context, productIDs []int64) (map[int64]int, error) {
			assert.Equal(t, []int64{1, 2}, productIDs)
			return map[int64]int{1: 50, 2: 0}, nil
		},
	}

	svc := NewService(repo, stock, zap.NewNop())
	products, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 50, products[0].AvailableQuantity)
	assert.Equal(t, 0, products[1].AvailableQuantity)
}

func TestList_StockError(t *testing.T) {
	repo := &mockRepository{
		FindAllFunc: func(ctx context.Context) ([]domain.Product, error) {
			return []domain.Product{{ID: 1}}, nil
		},
	}
	stock := &mockStockCalculator{
		AvailableQuantitiesFunc: func(ctx context.Context, productIDs []int64) (map[int64]int, error) {
			return nil, errors.New("timeout")
		},
	}

	svc := NewService(repo, stock, zap.NewNop())
	_, err := svc.List(context.Background())
	assert.Error(t, err)
}

func TestGetProductStock(t *testing.T) {
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error) {
			assert.Nil(t, tx)
			return &domain.Product{ID: id, Name: "Coffee", Unit: "kg", MinStockQuantity: 5}, nil
		},
	}
	stock := &mockStockCalculator{
		AvailableQuantityFunc: func(ctx context.Context, tx *sql.Tx, productID int64) (int, error) {
			return 12, nil
		},
	}

	svc := NewService(repo, stock, zap.NewNop())
	ps, err := svc.GetProductStock(context.Background(), 18)
	require.NoError(t, err)
	assert.Equal(t, int64(18), ps.ID)
	assert.Equal(t, "Coffee", ps.Name)
	assert.Equal(t, 12, ps.AvailableQuantity)
}

func TestAvailableQuantity_ProductNotFound(t *testing.T) {
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error) {
			return nil, apperrors.NewNotFoundError("product with id 9 not found")
		},
	}

	svc := NewService(repo, &mockStockCalculator{}, zap.NewNop())
	_, err := svc.AvailableQuantity(context.Background(), 9)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestCreate_Success(t *testing.T) {
	var created domain.Product
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, product domain.Product) (int64, error) {
			created = product
			return 3, nil
		},
	}

	svc := NewService(repo, &mockStockCalculator{}, zap.NewNop())
	ps, err := svc.Create(context.Background(), CreateProductInput{
		Name:             "  Eggs ",
		Price:            decimal.RequireFromString("3.204"),
		Unit:             "pcs",
		MinStockQuantity: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), ps.ID)
	assert.Equal(t, "Eggs", created.Name)
	assert.Equal(t, "3.2", created.Price.String())
	assert.Equal(t, 0, ps.AvailableQuantity)
}

func TestCreate_ValidationFailed(t *testing.T) {
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, product domain.Product) (int64, error) {
			t.Fatal("create must not be called")
			return 0, nil
		},
	}

	svc := NewService(repo, &mockStockCalculator{}, zap.NewNop())
	_, err := svc.Create(context.Background(), CreateProductInput{
		Price:            decimal.NewFromInt(-1),
		MinStockQuantity: -2,
	})

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Len(t, ve.Details, 4)
}
