//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/verone/backoffice/internal/application/inventory"
	"github.com/verone/backoffice/internal/domain/inventory"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/infrastructure/persistence"
)

func newLedgerService(tdb *TestDB) *appinventory.LedgerService {
	return appinventory.NewLedgerService(
		persistence.NewGormStockMovementRepository(tdb.DB),
		persistence.NewGormTransactionScope(tdb.DB),
		tdb.Logger,
	)
}

func TestLedger_ConcurrentAdjustmentsSerialize(t *testing.T) {
	tdb := NewTestDB(t)
	ledger := newLedgerService(tdb)
	ctx := context.Background()
	actor := shared.Actor{UserID: uuid.New(), Email: "stock@verone.fr"}
	productID := uuid.New()

	_, err := ledger.Adjust(ctx, productID, decimal.NewFromInt(100), "opening balance", actor)
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Adjust(ctx, productID, decimal.NewFromInt(-1), "picked", actor)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	level, err := ledger.CurrentQuantity(ctx, productID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(80).Equal(level.Quantity), "quantity %s", level.Quantity)
	assert.EqualValues(t, writers+1, level.LastSequence)

	report, err := ledger.Verify(ctx, productID)
	require.NoError(t, err)
	assert.True(t, report.Valid, report.Problem)
	assert.Equal(t, writers+1, report.Entries)
}

func TestLedger_StaleExpectedQuantityRejected(t *testing.T) {
	tdb := NewTestDB(t)
	ledger := newLedgerService(tdb)
	ctx := context.Background()
	actor := shared.Actor{UserID: uuid.New()}
	productID := uuid.New()

	_, err := ledger.Adjust(ctx, productID, decimal.NewFromInt(5), "opening balance", actor)
	require.NoError(t, err)

	stale := decimal.NewFromInt(4)
	_, err = ledger.Record(ctx, appinventory.RecordInput{
		MovementInput:  adjustInput(productID, decimal.NewFromInt(1)),
		ExpectedBefore: &stale,
		Actor:          actor,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func adjustInput(productID uuid.UUID, change decimal.Decimal) inventory.MovementInput {
	return inventory.MovementInput{
		ProductID:     productID,
		MovementType:  inventory.MovementTypeAdjust,
		Change:        change,
		ReferenceType: inventory.ReferenceManualAdjustment,
		Reason:        "manual correction",
	}
}
