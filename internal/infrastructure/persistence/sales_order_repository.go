package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/verone/backoffice/internal/domain/trade"
	"github.com/verone/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID loads an order with its lines in position order
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*trade.SalesOrder, error) {
	var m models.SalesOrderModel
	query := lockForUpdate(r.db.WithContext(ctx), forUpdate)
	if err := query.First(&m, "id = ?", id).Error; err != nil {
		return nil, wrapErr("find sales order", err)
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Scopes(orderedItems).Find(&m.Items).Error; err != nil {
		return nil, wrapErr("load sales order items", err)
	}
	return m.ToDomain()
}

// Create inserts the header and its lines
func (r *GormSalesOrderRepository) Create(ctx context.Context, order *trade.SalesOrder) error {
	m := models.SalesOrderModelFromDomain(order)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(m).Error; err != nil {
		return wrapErr("create sales order", err)
	}
	items := models.SalesOrderItemModelsFromDomain(order.ID, order.Items)
	if len(items) == 0 {
		return nil
	}
	if err := db.Create(&items).Error; err != nil {
		return wrapErr("create sales order items", err)
	}
	return nil
}

// Save overwrites the header columns. Lines are left untouched.
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	m := models.SalesOrderModelFromDomain(order)
	result := r.db.WithContext(ctx).Model(m).
		Select("*").
		Omit(clause.Associations, "id", "created_at", "created_by").
		Updates(m)
	if result.Error != nil {
		return wrapErr("save sales order", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapErr("save sales order", gorm.ErrRecordNotFound)
	}
	return nil
}

// ReplaceItems deletes every line of the order and inserts items in their place
func (r *GormSalesOrderRepository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []trade.SalesOrderItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.SalesOrderItemModel{}).Error; err != nil {
		return wrapErr("delete sales order items", err)
	}
	rows := models.SalesOrderItemModelsFromDomain(orderID, items)
	if len(rows) == 0 {
		return nil
	}
	if err := db.Create(&rows).Error; err != nil {
		return wrapErr("insert sales order items", err)
	}
	return nil
}

// Delete removes the order; lines go with it
func (r *GormSalesOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.SalesOrderItemModel{}).Error; err != nil {
		return wrapErr("delete sales order items", err)
	}
	result := db.Delete(&models.SalesOrderModel{}, "id = ?", id)
	if result.Error != nil {
		return wrapErr("delete sales order", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapErr("delete sales order", gorm.ErrRecordNotFound)
	}
	return nil
}

// List returns one page of orders and the total match count
func (r *GormSalesOrderRepository) List(ctx context.Context, filter trade.SalesOrderFilter) ([]trade.SalesOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SalesOrderModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapErr("count sales orders", err)
	}

	query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, SalesOrderSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.SalesOrderModel
	if err := query.Preload("Items", orderedItems).Find(&rows).Error; err != nil {
		return nil, 0, wrapErr("list sales orders", err)
	}

	orders := make([]trade.SalesOrder, 0, len(rows))
	for i := range rows {
		order, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	return orders, total, nil
}

// GenerateOrderNumber returns the next number of the current year.
// Format: SO-YYYY-NNNNN (e.g., SO-2026-00001)
func (r *GormSalesOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("SO-%d-", time.Now().UTC().Year())

	var last models.SalesOrderModel
	err := r.db.WithContext(ctx).
		Select("order_number").
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", wrapErr("generate order number", err)
	}

	next := 1
	if err == nil {
		if n, convErr := strconv.Atoi(strings.TrimPrefix(last.OrderNumber, prefix)); convErr == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%05d", prefix, next), nil
}

var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
