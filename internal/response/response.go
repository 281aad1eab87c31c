package response

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"stockcart/internal/dto"
	apperrors "stockcart/internal/errors"
)

func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func WriteValidationError(w http.ResponseWriter, logger *zap.Logger, traceID, message string, details ...apperrors.ValidationDetail) {
	WriteJSON(w, logger, http.StatusBadRequest, dto.ErrorResponse{
		TraceID:   traceID,
		Success:   false,
		Status:    http.StatusBadRequest,
		Code:      "VALIDATION_ERROR",
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

// WriteStatus writes an error body with an explicit status and code.
func WriteStatus(w http.ResponseWriter, logger *zap.Logger, traceID string, status int, code, message string) {
	writeError(w, logger, traceID, status, code, message, nil)
}

// WriteError maps a typed application error to its HTTP status and code.
// Unknown errors are logged and reported as INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, logger *zap.Logger, traceID string, err error) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteValidationError(w, logger, traceID, ve.Message, ve.Details...)
		return
	}

	if _, ok := apperrors.IsInvalidQuantityError(err); ok {
		writeError(w, logger, traceID, http.StatusBadRequest, "INVALID_QUANTITY", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		writeError(w, logger, traceID, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsOutOfStockError(err); ok {
		zero := 0
		writeError(w, logger, traceID, http.StatusConflict, "OUT_OF_STOCK", "Product is no longer available.", &zero)
		return
	}

	if ie, ok := apperrors.IsInsufficientStockError(err); ok {
		available := ie.Available
		writeError(w, logger, traceID, http.StatusConflict, "INSUFFICIENT_STOCK", "Product is not available in the requested quantity.", &available)
		return
	}

	if _, ok := apperrors.IsConflictError(err); ok {
		writeError(w, logger, traceID, http.StatusConflict, "CONFLICT", err.Error(), nil)
		return
	}

	if te, ok := apperrors.IsTransactionError(err); ok {
		logger.Error("transaction failed", zap.String("op", string(te.Op)), zap.Error(err))
		code, message := "TRANSACTION_FAILED", "The operation could not be completed."
		if te.Op == apperrors.OpFinishOrder {
			code, message = "ORDER_FINISH_FAILED", "Failed to finish order."
		}
		writeError(w, logger, traceID, http.StatusInternalServerError, code, message, nil)
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	writeError(w, logger, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
}

func writeError(w http.ResponseWriter, logger *zap.Logger, traceID string, status int, code, message string, available *int) {
	WriteJSON(w, logger, status, dto.ErrorResponse{
		TraceID:           traceID,
		Success:           false,
		Status:            status,
		Code:              code,
		Message:           message,
		AvailableQuantity: available,
		Timestamp:         time.Now().UTC(),
	})
}
