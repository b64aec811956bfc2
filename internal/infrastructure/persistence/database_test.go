package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appshared "github.com/verone/backoffice/internal/application/shared"
	"github.com/verone/backoffice/internal/domain/inventory"
	"gorm.io/gorm"
)

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()
	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error { return assert.AnError })
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commits on success", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		assert.NoError(t, db.Transaction(func(tx *gorm.DB) error { return nil }))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionScope_RollsBackEveryRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()
	productID := uuid.New()
	order := newTestOrder(t, "SO-2026-00500")

	err := scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if err := repos.SalesOrderRepo().Create(ctx, order); err != nil {
			return err
		}
		m, err := inventory.NewStockMovement(nil, inventory.MovementInput{
			ProductID: productID, MovementType: inventory.MovementTypeIn, Change: dec("4"),
		}, testActor())
		if err != nil {
			return err
		}
		if err := repos.LedgerRepo().Append(ctx, m); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	latest, err := NewGormStockMovementRepository(db).LatestForProduct(ctx, productID, false)
	require.NoError(t, err)
	assert.Nil(t, latest)

	var count int64
	require.NoError(t, db.Table("sales_orders").Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormTransactionScope_Commits(t *testing.T) {
	db := setupSQLiteDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()
	order := newTestOrder(t, "SO-2026-00501")

	require.NoError(t, scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		return repos.SalesOrderRepo().Create(ctx, order)
	}))

	found, err := NewGormSalesOrderRepository(db).FindByID(ctx, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, found.OrderNumber)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(sqlmock.ErrCancelled))
}
