package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockcart/internal/domain"
	"stockcart/internal/dto"
	apperrors "stockcart/internal/errors"
	"stockcart/internal/product/service"
	"stockcart/internal/validation"
)

type mockProductService struct {
	ListFunc              func(ctx context.Context) ([]domain.ProductStock, error)
	GetProductStockFunc   func(ctx context.Context, id int64) (*domain.ProductStock, error)
	AvailableQuantityFunc func(ctx context.Context, id int64) (int, error)
	CreateFunc            func(ctx context.Context, in service.CreateProductInput) (*domain.ProductStock, error)
}

func (m *mockProductService) List(ctx context.Context) ([]domain.ProductStock, error) {
	return m.ListFunc(ctx)
}

func (m *mockProductService) GetProductStock(ctx context.Context, id int64) (*domain.ProductStock, error) {
	return m.GetProductStockFunc(ctx, id)
}

func (m *mockProductService) AvailableQuantity(ctx context.Context, id int64) (int, error) {
	return m.AvailableQuantityFunc(ctx, id)
}

func (m *mockProductService) Create(ctx context.Context, in service.CreateProductInput) (*domain.ProductStock, error) {
	return m.CreateFunc(ctx, in)
}

type mockStockService struct {
	RestockFunc func(ctx context.Context, productID int64, quantity int) (*domain.StockReceipt, int, error)
}

func (m *mockStockService) Restock(ctx context.Context, productID int64, quantity int) (*domain.StockReceipt, int, error) {
	return m.RestockFunc(ctx, productID, quantity)
}

func newRouter(products ProductService, stock StockService) http.Handler {
	c := NewController(products, stock, validation.New(), zap.NewNop())
	r := chi.NewRouter()
	r.Get("/api/products", c.HandleList)
	r.Post("/api/products", c.HandleCreate)
	r.Get("/api/products/{id}", c.HandleGet)
	r.Get("/api/products/{id}/available-quantity", c.HandleAvailableQuantity)
	r.Post("/api/products/{id}/receipts", c.HandleRestock)
	return r
}

func TestHandleList(t *testing.T) {
	products := &mockProductService{
		ListFunc: func(ctx context.Context) ([]domain.ProductStock, error) {
			return []domain.ProductStock{{
				Product: domain.Product{
					ID: 1, Name: "Milk", Price: decimal.RequireFromString("2.50"),
					Unit: "l", MinStockQuantity: 20, UpdatedAt: time.Now(),
				},
				AvailableQuantity: 100,
			}}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(products, &mockStockService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body []dto.ProductDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Milk", body[0].Name)
	assert.Equal(t, 100, body[0].StockQuantity)
	assert.True(t, decimal.RequireFromString("2.5").Equal(body[0].Price))
}

func TestHandleAvailableQuantity(t *testing.T) {
	products := &mockProductService{
		AvailableQuantityFunc: func(ctx context.Context, id int64) (int, error) {
			assert.Equal(t, int64(7), id)
			return 15, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(products, &mockStockService{}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/products/7/available-quantity", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body dto.AvailableQuantityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.ProductID)
	assert.Equal(t, 15, body.AvailableQuantity)
}

func TestHandleGet_NotFound(t *testing.T) {
	products := &mockProductService{
		GetProductStockFunc: func(ctx context.Context, id int64) (*domain.ProductStock, error) {
			return nil, apperrors.NewNotFoundError("product with id 9 not found")
		},
	}

	rec := httptest.NewRecorder()
	newRouter(products, &mockStockService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/9", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGet_InvalidID(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&mockProductService{}, &mockStockService{}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/products/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreate(t *testing.T) {
	products := &mockProductService{
		CreateFunc: func(ctx context.Context, in service.CreateProductInput) (*domain.ProductStock, error) {
			assert.Equal(t, "Bread", in.Name)
			assert.True(t, decimal.RequireFromString("1.80").Equal(in.Price))
			return &domain.ProductStock{Product: domain.Product{ID: 2, Name: in.Name, Price: in.Price, Unit: in.Unit}}, nil
		},
	}

	body := `{"name":"Bread","price":1.80,"unit":"pcs","minStockQuantity":10}`
	rec := httptest.NewRecorder()
	newRouter(products, &mockStockService{}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleCreate_ValidationFailed(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&mockProductService{}, &mockStockService{}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"price":1}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Len(t, body.Details, 2)
}

func TestHandleRestock(t *testing.T) {
	stock := &mockStockService{
		RestockFunc: func(ctx context.Context, productID int64, quantity int) (*domain.StockReceipt, int, error) {
			return &domain.StockReceipt{ID: 5, ProductID: productID, AddedQuantity: quantity}, 35, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(&mockProductService{}, stock).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/products/3/receipts", strings.NewReader(`{"quantity":20}`)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body dto.StockReceiptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.ProductID)
	assert.Equal(t, 20, body.AddedQuantity)
	assert.Equal(t, 35, body.AvailableQuantity)
}

func TestHandleRestock_QuantityBelowOne(t *testing.T) {
	for _, quantity := range []string{"0", "-3"} {
		t.Run(quantity, func(t *testing.T) {
			var called bool
			stock := &mockStockService{
				RestockFunc: func(ctx context.Context, productID int64, quantity int) (*domain.StockReceipt, int, error) {
					called = true
					return nil, 0, apperrors.NewInvalidQuantityError(quantity)
				},
			}

			rec := httptest.NewRecorder()
			newRouter(&mockProductService{}, stock).ServeHTTP(rec,
				httptest.NewRequest(http.MethodPost, "/api/products/3/receipts",
					strings.NewReader(`{"quantity":`+quantity+`}`)))

			assert.True(t, called)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "INVALID_QUANTITY", body.Code)
		})
	}
}

func TestHandleRestock_InvalidJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&mockProductService{}, &mockStockService{}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/products/3/receipts", strings.NewReader(`{`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
