package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/inventory"
	"github.com/verone/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockMovementRepository stores the append-only stock ledger
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// LatestForProduct returns the highest-sequence entry of a product, nil when
// it has none. forUpdate takes a transaction-scoped advisory lock on the
// product so concurrent writers queue behind it, including the very first
// entry.
func (r *GormStockMovementRepository) LatestForProduct(ctx context.Context, productID uuid.UUID, forUpdate bool) (*inventory.StockMovement, error) {
	db := r.db.WithContext(ctx)
	if forUpdate && db.Dialector.Name() == "postgres" {
		if err := db.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", productID.String()).Error; err != nil {
			return nil, wrapErr("lock product ledger", err)
		}
	}

	var m models.StockMovementModel
	err := db.
		Where("product_id = ?", productID).
		Order("sequence DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("find latest stock movement", err)
	}
	out := m.ToDomain()
	return &out, nil
}

// Append inserts one entry. The (product_id, sequence) unique index turns a
// lost race into ErrConcurrencyConflict.
func (r *GormStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	if err := r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error; err != nil {
		return wrapErr("append stock movement", err)
	}
	return nil
}

// History pages through a product's entries by sequence
func (r *GormStockMovementRepository) History(ctx context.Context, productID uuid.UUID, afterSequence int64, limit int) ([]inventory.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Where("product_id = ? AND sequence > ?", productID, afterSequence).
		Order("sequence ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.StockMovementModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapErr("load stock history", err)
	}
	return toMovements(rows), nil
}

// FindByBatch returns the entries of one batch in insertion order
func (r *GormStockMovementRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, product_id ASC").
		Find(&rows).Error; err != nil {
		return nil, wrapErr("find stock movements by batch", err)
	}
	return toMovements(rows), nil
}

// SumByReference sums QuantityChange per reference line. Summing happens here
// rather than in SQL so the result keeps exact decimal precision on every dialect.
func (r *GormStockMovementRepository) SumByReference(ctx context.Context, refType inventory.ReferenceType, refID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Select("reference_line_id", "quantity_change").
		Where("reference_type = ? AND reference_id = ? AND reference_line_id IS NOT NULL", refType, refID).
		Find(&rows).Error; err != nil {
		return nil, wrapErr("sum stock movements by reference", err)
	}
	sums := make(map[uuid.UUID]decimal.Decimal)
	for _, row := range rows {
		line := *row.ReferenceLineID
		sums[line] = sums[line].Add(row.QuantityChange)
	}
	return sums, nil
}

func toMovements(rows []models.StockMovementModel) []inventory.StockMovement {
	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
