package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockcart/internal/domain"
	"stockcart/internal/dto"
	apperrors "stockcart/internal/errors"
	"stockcart/internal/product/service"
	"stockcart/internal/response"
	"stockcart/internal/validation"
)

type ProductService interface {
	List(ctx context.Context) ([]domain.ProductStock, error)
	GetProductStock(ctx context.Context, id int64) (*domain.ProductStock, error)
	AvailableQuantity(ctx context.Context, id int64) (int, error)
	Create(ctx context.Context, in service.CreateProductInput) (*domain.ProductStock, error)
}

type StockService interface {
	Restock(ctx context.Context, productID int64, quantity int) (*domain.StockReceipt, int, error)
}

type Controller struct {
	products  ProductService
	stock     StockService
	validator *validation.Validator
	logger    *zap.Logger
}

func NewController(products ProductService, stock StockService, validator *validation.Validator, logger *zap.Logger) *Controller {
	return &Controller{
		products:  products,
		stock:     stock,
		validator: validator,
		logger:    logger,
	}
}

func (c *Controller) HandleList(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	products, err := c.products.List(r.Context())
	if err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}

	out := make([]dto.ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	response.WriteJSON(w, logger, http.StatusOK, out)
}

func (c *Controller) HandleGet(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.productID(w, r, traceID, logger)
	if !ok {
		return
	}

	product, err := c.products.GetProductStock(r.Context(), id)
	if err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}
	response.WriteJSON(w, logger, http.StatusOK, toProductDTO(*product))
}

func (c *Controller) HandleAvailableQuantity(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.productID(w, r, traceID, logger)
	if !ok {
		return
	}

	available, err := c.products.AvailableQuantity(r.Context(), id)
	if err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}
	response.WriteJSON(w, logger, http.StatusOK, dto.AvailableQuantityResponse{
		ProductID:         id,
		AvailableQuantity: available,
	})
}

func (c *Controller) HandleCreate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		response.WriteValidationError(w, logger, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := c.validator.Struct(req); err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}

	product, err := c.products.Create(r.Context(), service.CreateProductInput{
		Name:             req.Name,
		Price:            req.Price,
		Unit:             req.Unit,
		MinStockQuantity: req.MinStockQuantity,
	})
	if err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}
	response.WriteJSON(w, logger, http.StatusCreated, toProductDTO(*product))
}

func (c *Controller) HandleRestock(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.productID(w, r, traceID, logger)
	if !ok {
		return
	}

	var req dto.RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		response.WriteValidationError(w, logger, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := c.validator.Struct(req); err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}

	receipt, available, err := c.stock.Restock(r.Context(), id, req.Quantity)
	if err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}
	response.WriteJSON(w, logger, http.StatusCreated, dto.StockReceiptResponse{
		ID:                receipt.ID,
		ProductID:         receipt.ProductID,
		AddedQuantity:     receipt.AddedQuantity,
		CreatedAt:         receipt.CreatedAt,
		AvailableQuantity: available,
	})
}

func (c *Controller) productID(w http.ResponseWriter, r *http.Request, traceID string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.WriteValidationError(w, logger, traceID, "invalid product id", apperrors.ValidationDetail{
			Field:   "id",
			Message: "id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func toProductDTO(p domain.ProductStock) dto.ProductDTO {
	return dto.ProductDTO{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		StockQuantity:    p.AvailableQuantity,
		MinStockQuantity: p.MinStockQuantity,
		Unit:             p.Unit,
		UpdatedAt:        p.UpdatedAt,
	}
}
