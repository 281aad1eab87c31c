package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockcart/internal/cart/service"
	"stockcart/internal/domain"
	"stockcart/internal/dto"
	apperrors "stockcart/internal/errors"
	"stockcart/internal/identity"
	"stockcart/internal/response"
	"stockcart/internal/validation"
)

type CartUseCase interface {
	AddToCart(ctx context.Context, userID, productID int64, quantity int) (*service.Mutation, error)
	UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int) (*service.Mutation, error)
	RemoveProduct(ctx context.Context, userID, lineID int64) (*service.Mutation, error)
	FinishOrder(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
	GetActiveCart(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
}

// CartController serves /api/cart. Routes are mounted behind the identity
// middleware, so the user id is always present in the request context.
type CartController struct {
	useCase   CartUseCase
	validator *validation.Validator
	logger    *zap.Logger
}

func NewCartController(useCase CartUseCase, validator *validation.Validator, logger *zap.Logger) *CartController {
	return &CartController{
		useCase:   useCase,
		validator: validator,
		logger:    logger,
	}
}

func (c *CartController) GetActiveCart(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	userID, _ := identity.UserIDFromContext(r.Context())
	logger := c.logger.With(zap.String("traceId", traceID), zap.Int64("userId", userID))

	snapshot, err := c.useCase.GetActiveCart(r.Context(), userID)
	if err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}
	response.WriteJSON(w, logger, http.StatusOK, toCartDTO(*snapshot))
}

func (c *CartController) AddProduct(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	userID, _ := identity.UserIDFromContext(r.Context())
	logger := c.logger.With(zap.String("traceId", traceID), zap.Int64("userId", userID))

	var req dto.AddToCartRequest
	if !c.decode(w, r, traceID, logger, &req) {
		return
	}

	result, err := c.useCase.AddToCart(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}
	c.writeMutation(w, logger, traceID, result)
}

func (c *CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	userID, _ := identity.UserIDFromContext(r.Context())
	logger := c.logger.With(zap.String("traceId", traceID), zap.Int64("userId", userID))

	lineID, ok := c.lineID(w, r, traceID, logger)
	if !ok {
		return
	}

	var req dto.UpdateQuantityRequest
	if !c.decode(w, r, traceID, logger, &req) {
		return
	}

	result, err := c.useCase.UpdateQuantity(r.Context(), userID, lineID, req.Quantity)
	if err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}
	c.writeMutation(w, logger, traceID, result)
}

func (c *CartController) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	userID, _ := identity.UserIDFromContext(r.Context())
	logger := c.logger.With(zap.String("traceId", traceID), zap.Int64("userId", userID))

	lineID, ok := c.lineID(w, r, traceID, logger)
	if !ok {
		return
	}

	result, err := c.useCase.RemoveProduct(r.Context(), userID, lineID)
	if err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}
	c.writeMutation(w, logger, traceID, result)
}

func (c *CartController) FinishOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	userID, _ := identity.UserIDFromContext(r.Context())
	logger := c.logger.With(zap.String("traceId", traceID), zap.Int64("userId", userID))

	snapshot, err := c.useCase.FinishOrder(r.Context(), userID)
	if err != nil {
		response.WriteError(w, logger, traceID, err)
		return
	}
	response.WriteJSON(w, logger, http.StatusOK, dto.CartMutationResponse{
		TraceID: traceID,
		Success: true,
		Cart:    toCartDTO(*snapshot),
	})
}

func (c *CartController) decode(w http.ResponseWriter, r *http.Request, traceID string, logger *zap.Logger, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		response.WriteValidationError(w, logger, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}

	if err := c.validator.Struct(req); err != nil {
		response.WriteError(w, logger, traceID, err)
		return false
	}
	return true
}

func (c *CartController) lineID(w http.ResponseWriter, r *http.Request, traceID string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cartLineId"), 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("invalid cartLineId in path", zap.String("cartLineId", chi.URLParam(r, "cartLineId")))
		response.WriteValidationError(w, logger, traceID, "invalid cartLineId", apperrors.ValidationDetail{
			Field:   "cartLineId",
			Message: "cartLineId must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (c *CartController) writeMutation(w http.ResponseWriter, logger *zap.Logger, traceID string, m *service.Mutation) {
	response.WriteJSON(w, logger, http.StatusOK, dto.CartMutationResponse{
		TraceID: traceID,
		Success: true,
		Cart:    toCartDTO(m.Snapshot),
		UpdatedProduct: &dto.UpdatedProductDTO{
			ID:            m.ProductID,
			StockQuantity: m.AvailableQuantity,
		},
	})
}

func toCartDTO(s domain.CartSnapshot) dto.CartDTO {
	products := make([]dto.CartLineDTO, 0, len(s.Lines))
	for _, l := range s.Lines {
		products = append(products, dto.CartLineDTO{
			ID:             l.ID,
			ShoppingCartID: l.CartID,
			UserID:         l.UserID,
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			Product: dto.CartLineProductDTO{
				ID:    l.ProductID,
				Name:  l.ProductName,
				Price: l.ProductPrice,
				Unit:  l.ProductUnit,
			},
		})
	}

	return dto.CartDTO{
		ID:        s.Cart.ID,
		UserID:    s.Cart.UserID,
		Sum:       s.Cart.Sum,
		State:     string(s.Cart.State),
		UpdatedAt: s.Cart.UpdatedAt,
		Products:  products,
	}
}
