package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/domain/shared/valueobject"
	"github.com/verone/backoffice/internal/domain/trade"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupSQLiteDB opens an in-memory database with every table migrated.
// A single connection keeps the in-memory schema visible to all queries.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open("file::memory:?_foreign_keys=on"), nil)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate())
	return db.DB
}

// newMockDatabase creates a Database on a postgres dialect backed by sqlmock
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), nil)
	require.NoError(t, err)
	return db, mock, mockDB
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testActor() shared.Actor { return shared.NewActor(uuid.New()) }

func newTestOrder(t *testing.T, number string) *trade.SalesOrder {
	t.Helper()
	customer := trade.OrganisationCustomer{ID: uuid.New(), LegalName: "Maison Dupont SAS", Email: "achats@dupont.fr"}
	order, err := trade.NewSalesOrder(number, customer, testActor())
	require.NoError(t, err)
	for _, line := range []struct {
		desc  string
		qty   string
		price string
	}{{"Fauteuil Milo", "2", "100"}, {"Table basse Oslo", "1", "250.50"}} {
		_, err := order.AddItem(trade.SalesOrderItemInput{
			ProductID:   uuid.New(),
			Description: line.desc,
			Quantity:    dec(line.qty),
			UnitPriceHT: dec(line.price),
			TaxRate:     dec("0.2"),
		})
		require.NoError(t, err)
	}
	order.SetAddresses(valueobject.NewAddress("12 rue du Bac", "Paris", "75007", ""), valueobject.Address{})
	order.ClearDomainEvents()
	return order
}
