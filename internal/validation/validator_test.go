package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stockcart/internal/errors"
)

type addRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(addRequest{ProductID: 1, Quantity: 5}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Struct(addRequest{ProductID: 0, Quantity: 0})
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	require.Len(t, ve.Details, 2)
	assert.Equal(t, "productId", ve.Details[0].Field)
	assert.Equal(t, "productId is required", ve.Details[0].Message)
	assert.Equal(t, "quantity", ve.Details[1].Field)
}

func TestStruct_MinViolation(t *testing.T) {
	v := New()

	err := v.Struct(addRequest{ProductID: 3, Quantity: -1})
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	require.Len(t, ve.Details, 1)
	assert.Equal(t, "quantity must be at least 1", ve.Details[0].Message)
}
