package errors

import (
	stderrors "errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// InvalidQuantityError rejects a requested quantity below one.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1, got %d", e.Quantity)
}

func NewInvalidQuantityError(quantity int) *InvalidQuantityError {
	return &InvalidQuantityError{Quantity: quantity}
}

func IsInvalidQuantityError(err error) (*InvalidQuantityError, bool) {
	var qe *InvalidQuantityError
	if stderrors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if stderrors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// OutOfStockError is returned when nothing of the product is left to reserve.
type OutOfStockError struct {
	ProductID int64
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %d is out of stock", e.ProductID)
}

func NewOutOfStockError(productID int64) *OutOfStockError {
	return &OutOfStockError{ProductID: productID}
}

func IsOutOfStockError(err error) (*OutOfStockError, bool) {
	var oe *OutOfStockError
	if stderrors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// InsufficientStockError carries the quantity that is still available so the
// caller can clamp and retry.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func NewInsufficientStockError(productID int64, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}

func IsInsufficientStockError(err error) (*InsufficientStockError, bool) {
	var ie *InsufficientStockError
	if stderrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

type TransactionOp string

const (
	OpReserve     TransactionOp = "reserve"
	OpFinishOrder TransactionOp = "finish_order"
)

// TransactionError reports that an atomic section could not commit. Nothing
// from the operation was applied.
type TransactionError struct {
	Op    TransactionOp
	Cause error
}

func (e *TransactionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s transaction failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s transaction failed", e.Op)
}

func (e *TransactionError) Unwrap() error {
	return e.Cause
}

func NewTransactionError(op TransactionOp, cause error) *TransactionError {
	return &TransactionError{Op: op, Cause: cause}
}

func IsTransactionError(err error) (*TransactionError, bool) {
	var te *TransactionError
	if stderrors.As(err, &te) {
		return te, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

// IsBusinessError reports whether err is one of the expected rejections that
// must not be retried or wrapped as a transaction failure.
func IsBusinessError(err error) bool {
	if _, ok := IsValidationError(err); ok {
		return true
	}
	if _, ok := IsInvalidQuantityError(err); ok {
		return true
	}
	if _, ok := IsNotFoundError(err); ok {
		return true
	}
	if _, ok := IsConflictError(err); ok {
		return true
	}
	if _, ok := IsOutOfStockError(err); ok {
		return true
	}
	if _, ok := IsInsufficientStockError(err); ok {
		return true
	}
	return false
}
