package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/verone/backoffice/internal/domain/trade"
	"github.com/verone/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID loads a purchase order with its lines
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*trade.PurchaseOrder, error) {
	var m models.PurchaseOrderModel
	if err := lockForUpdate(r.db.WithContext(ctx), forUpdate).First(&m, "id = ?", id).Error; err != nil {
		return nil, wrapErr("find purchase order", err)
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Scopes(orderedItems).Find(&m.Items).Error; err != nil {
		return nil, wrapErr("load purchase order items", err)
	}
	return m.ToDomain(), nil
}

// Save writes the header and the received quantity of each line
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	m := models.PurchaseOrderModelFromDomain(order)
	db := r.db.WithContext(ctx)

	result := db.Model(m).
		Select("status", "notes", "validated_at", "received_at", "received_by", "version", "updated_at").
		Omit(clause.Associations).
		Updates(m)
	if result.Error != nil {
		return wrapErr("save purchase order", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapErr("save purchase order", gorm.ErrRecordNotFound)
	}

	for i := range m.Items {
		item := &m.Items[i]
		if err := db.Model(&models.PurchaseOrderItemModel{}).
			Where("id = ? AND order_id = ?", item.ID, order.ID).
			Updates(map[string]any{
				"quantity_received": item.QuantityReceived,
				"updated_at":        gorm.Expr("CURRENT_TIMESTAMP"),
			}).Error; err != nil {
			return wrapErr("save purchase order item", err)
		}
	}
	return nil
}

// Create inserts a purchase order with its lines. Purchase orders are authored
// upstream; this serves seeding and tests.
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *trade.PurchaseOrder) error {
	m := models.PurchaseOrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return wrapErr("create purchase order", err)
	}
	return nil
}

var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
