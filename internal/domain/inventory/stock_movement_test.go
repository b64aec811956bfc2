package inventory

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verone/backoffice/internal/domain/shared"
)

var testActor = shared.NewActor(uuid.New())

func mustMovement(t *testing.T, prev *StockMovement, in MovementInput) *StockMovement {
	t.Helper()
	m, err := NewStockMovement(prev, in, testActor)
	require.NoError(t, err)
	return m
}

func TestMovementType_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		mt       MovementType
		expected bool
	}{
		{"IN is valid", MovementTypeIn, true},
		{"OUT is valid", MovementTypeOut, true},
		{"ADJUST is valid", MovementTypeAdjust, true},
		{"TRANSFER is valid", MovementTypeTransfer, true},
		{"lowercase is not valid", MovementType("in"), false},
		{"empty is not valid", MovementType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.mt.IsValid())
		})
	}
}

func TestReferenceType_Origin(t *testing.T) {
	tests := []struct {
		ref      ReferenceType
		expected OriginBucket
	}{
		{ReferenceManualAdjustment, OriginManual},
		{ReferenceInventoryCount, OriginManual},
		{ReferencePurchaseOrder, OriginOrder},
		{ReferenceSalesOrder, OriginOrder},
		{ReferenceSalesFulfillment, OriginOrder},
		{ReferenceCustomerReturn, OriginOrder},
		{ReferenceSupplierReturn, OriginOrder},
		{ReferenceTransfer, OriginOther},
		{ReferenceOther, OriginOther},
		{ReferenceType("legacy_import"), OriginOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.ref), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ref.Origin())
		})
	}
}

func TestNewStockMovement(t *testing.T) {
	productID := uuid.New()

	t.Run("first entry starts from zero", func(t *testing.T) {
		m := mustMovement(t, nil, MovementInput{
			ProductID:     productID,
			MovementType:  MovementTypeIn,
			Change:        decimal.NewFromInt(10),
			ReferenceType: ReferencePurchaseOrder,
		})

		assert.Equal(t, int64(1), m.Sequence)
		assert.True(t, m.QuantityBefore.IsZero())
		assert.True(t, m.QuantityAfter.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, testActor.UserID, m.PerformedBy)
		assert.False(t, m.PerformedAt.IsZero())
		assert.Equal(t, OriginOrder, m.Origin())
	})

	t.Run("chains on the previous entry", func(t *testing.T) {
		first := mustMovement(t, nil, MovementInput{
			ProductID:    productID,
			MovementType: MovementTypeIn,
			Change:       decimal.NewFromInt(10),
		})
		second := mustMovement(t, first, MovementInput{
			ProductID:    productID,
			MovementType: MovementTypeOut,
			Change:       decimal.NewFromInt(-4),
		})

		assert.Equal(t, int64(2), second.Sequence)
		assert.True(t, second.QuantityBefore.Equal(first.QuantityAfter))
		assert.True(t, second.QuantityAfter.Equal(decimal.NewFromInt(6)))
		assert.Equal(t, ReferenceOther, second.ReferenceType)
	})

	t.Run("adjust accepts either sign", func(t *testing.T) {
		first := mustMovement(t, nil, MovementInput{
			ProductID:    productID,
			MovementType: MovementTypeAdjust,
			Change:       decimal.NewFromInt(3),
		})
		second := mustMovement(t, first, MovementInput{
			ProductID:    productID,
			MovementType: MovementTypeAdjust,
			Change:       decimal.NewFromInt(-1),
		})
		assert.True(t, second.QuantityAfter.Equal(decimal.NewFromInt(2)))
	})

	t.Run("rejects below zero", func(t *testing.T) {
		_, err := NewStockMovement(nil, MovementInput{
			ProductID:    productID,
			MovementType: MovementTypeOut,
			Change:       decimal.NewFromInt(-1),
		}, testActor)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	})

	t.Run("rejects missing actor", func(t *testing.T) {
		_, err := NewStockMovement(nil, MovementInput{
			ProductID:    productID,
			MovementType: MovementTypeIn,
			Change:       decimal.NewFromInt(1),
		}, shared.Actor{})
		assert.ErrorIs(t, err, shared.ErrMissingActor)
	})

	t.Run("rejects previous of another product", func(t *testing.T) {
		other := mustMovement(t, nil, MovementInput{
			ProductID:    uuid.New(),
			MovementType: MovementTypeIn,
			Change:       decimal.NewFromInt(1),
		})
		_, err := NewStockMovement(other, MovementInput{
			ProductID:    productID,
			MovementType: MovementTypeIn,
			Change:       decimal.NewFromInt(1),
		}, testActor)
		assert.Error(t, err)
	})

	signTests := []struct {
		name   string
		mt     MovementType
		change int64
	}{
		{"IN with negative change", MovementTypeIn, -1},
		{"IN with zero change", MovementTypeIn, 0},
		{"OUT with positive change", MovementTypeOut, 1},
		{"ADJUST with zero change", MovementTypeAdjust, 0},
		{"TRANSFER with zero change", MovementTypeTransfer, 0},
	}
	for _, tt := range signTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStockMovement(nil, MovementInput{
				ProductID:    productID,
				MovementType: tt.mt,
				Change:       decimal.NewFromInt(tt.change),
			}, testActor)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "INVALID_QUANTITY", de.Code)
		})
	}

	t.Run("rejects negative unit cost", func(t *testing.T) {
		cost := decimal.NewFromInt(-5)
		_, err := NewStockMovement(nil, MovementInput{
			ProductID:    productID,
			MovementType: MovementTypeIn,
			Change:       decimal.NewFromInt(1),
			UnitCost:     &cost,
		}, testActor)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_COST", de.Code)
	})

	t.Run("rejects unknown reference type", func(t *testing.T) {
		_, err := NewStockMovement(nil, MovementInput{
			ProductID:     productID,
			MovementType:  MovementTypeIn,
			Change:        decimal.NewFromInt(1),
			ReferenceType: ReferenceType("mystery"),
		}, testActor)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_REFERENCE_TYPE", de.Code)
	})
}

func TestCurrentQuantity(t *testing.T) {
	assert.True(t, CurrentQuantity(nil).IsZero())

	m := mustMovement(t, nil, MovementInput{
		ProductID:    uuid.New(),
		MovementType: MovementTypeIn,
		Change:       decimal.NewFromFloat(2.5),
	})
	assert.True(t, CurrentQuantity(m).Equal(decimal.NewFromFloat(2.5)))
}
