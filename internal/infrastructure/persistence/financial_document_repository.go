package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/verone/backoffice/internal/domain/finance"
	"github.com/verone/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFinancialDocumentRepository stores local mirrors of provider documents
type GormFinancialDocumentRepository struct {
	db *gorm.DB
}

// NewGormFinancialDocumentRepository creates a new GormFinancialDocumentRepository
func NewGormFinancialDocumentRepository(db *gorm.DB) *GormFinancialDocumentRepository {
	return &GormFinancialDocumentRepository{db: db}
}

func (r *GormFinancialDocumentRepository) findOne(ctx context.Context, op string, query any, args ...any) (*finance.FinancialDocument, error) {
	var m models.FinancialDocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where(query, args...).
		First(&m).Error; err != nil {
		return nil, wrapErr(op, err)
	}
	return m.ToDomain(), nil
}

// FindByID loads a document with its items
func (r *GormFinancialDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.FinancialDocument, error) {
	return r.findOne(ctx, "find financial document", "id = ?", id)
}

// FindByProviderID loads the mirror of a provider document
func (r *GormFinancialDocumentRepository) FindByProviderID(ctx context.Context, providerID string) (*finance.FinancialDocument, error) {
	return r.findOne(ctx, "find financial document by provider id", "provider_id = ?", providerID)
}

// FindBySalesOrder returns the documents linked to an order, newest first
func (r *GormFinancialDocumentRepository) FindBySalesOrder(ctx context.Context, orderID uuid.UUID) ([]finance.FinancialDocument, error) {
	var rows []models.FinancialDocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("sales_order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, wrapErr("find financial documents by order", err)
	}
	out := make([]finance.FinancialDocument, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts the document and its items
func (r *GormFinancialDocumentRepository) Create(ctx context.Context, doc *finance.FinancialDocument) error {
	m := models.FinancialDocumentModelFromDomain(doc)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(m).Error; err != nil {
		return wrapErr("create financial document", err)
	}
	if len(m.Items) == 0 {
		return nil
	}
	if err := db.Create(&m.Items).Error; err != nil {
		return wrapErr("create financial document items", err)
	}
	return nil
}

// Save overwrites the header and replaces every item
func (r *GormFinancialDocumentRepository) Save(ctx context.Context, doc *finance.FinancialDocument) error {
	m := models.FinancialDocumentModelFromDomain(doc)
	db := r.db.WithContext(ctx)

	result := db.Model(m).
		Select("*").
		Omit(clause.Associations, "id", "created_at", "created_by").
		Updates(m)
	if result.Error != nil {
		return wrapErr("save financial document", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapErr("save financial document", gorm.ErrRecordNotFound)
	}

	if err := db.Where("document_id = ?", doc.ID).Delete(&models.FinancialDocumentItemModel{}).Error; err != nil {
		return wrapErr("delete financial document items", err)
	}
	if len(m.Items) == 0 {
		return nil
	}
	if err := db.Create(&m.Items).Error; err != nil {
		return wrapErr("insert financial document items", err)
	}
	return nil
}

// UpdateArchiveKey records the archive location of the document PDF. It
// touches the header row only.
func (r *GormFinancialDocumentRepository) UpdateArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	result := r.db.WithContext(ctx).
		Model(&models.FinancialDocumentModel{}).
		Where("id = ?", id).
		Update("archive_key", key)
	if result.Error != nil {
		return wrapErr("update archive key", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapErr("update archive key", gorm.ErrRecordNotFound)
	}
	return nil
}

var _ finance.FinancialDocumentRepository = (*GormFinancialDocumentRepository)(nil)
