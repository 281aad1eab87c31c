package dto

import (
	"time"

	apperrors "stockcart/internal/errors"
)

type ErrorResponse struct {
	TraceID           string                       `json:"traceId"`
	Success           bool                         `json:"success"`
	Status            int                          `json:"status"`
	Code              string                       `json:"code"`
	Message           string                       `json:"message"`
	AvailableQuantity *int                         `json:"availableQuantity,omitempty"`
	Details           []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp         time.Time                    `json:"timestamp"`
}
