package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verone/backoffice/internal/domain/finance"
	"github.com/verone/backoffice/internal/domain/shared"
)

func newTestDocument(t *testing.T, providerID string) *finance.FinancialDocument {
	t.Helper()
	order := newTestOrder(t, "SO-2026-00100")
	doc, err := finance.NewInvoiceMirror(order, providerID, "F-2026-0001", []finance.FinancialDocumentItem{
		{Description: "Fauteuil Milo", Quantity: dec("2"), UnitPriceHT: dec("100"), TVARate: dec("20")},
		{Kind: finance.ItemKindServiceFee, Description: "Frais de livraison", Quantity: dec("1"), UnitPriceHT: dec("15"), TVARate: dec("20")},
	}, testActor())
	require.NoError(t, err)
	return doc
}

func TestGormFinancialDocumentRepository_CreateAndFind(t *testing.T) {
	repo := NewGormFinancialDocumentRepository(setupSQLiteDB(t))
	ctx := context.Background()

	doc := newTestDocument(t, "inv_abc")
	require.NoError(t, repo.Create(ctx, doc))

	byID, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "F-2026-0001", byID.DocumentNumber)
	assert.Equal(t, finance.WorkflowSynchronized, byID.WorkflowStatus)
	assert.Equal(t, doc.Customer, byID.Customer)
	require.Len(t, byID.Items, 2)
	assert.Equal(t, finance.ItemKindServiceFee, byID.Items[1].Kind)
	assert.True(t, byID.TotalTTC.Equal(doc.TotalTTC))

	byProvider, err := repo.FindByProviderID(ctx, "inv_abc")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byProvider.ID)

	linked, err := repo.FindBySalesOrder(ctx, *doc.SalesOrderID)
	require.NoError(t, err)
	assert.Len(t, linked, 1)

	_, err = repo.FindByProviderID(ctx, "inv_missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormFinancialDocumentRepository_SaveReplacesItems(t *testing.T) {
	repo := NewGormFinancialDocumentRepository(setupSQLiteDB(t))
	ctx := context.Background()

	doc := newTestDocument(t, "inv_edit")
	require.NoError(t, repo.Create(ctx, doc))

	doc.Items = []finance.FinancialDocumentItem{{
		ID: uuid.New(), DocumentID: doc.ID, Kind: finance.ItemKindProduct,
		Description: "Lampe Arc", Quantity: dec("3"), UnitPriceHT: dec("80"), TVARate: dec("5.5"),
	}}
	doc.WorkflowStatus = finance.WorkflowDraftValidated
	doc.RecalculateTotals()
	require.NoError(t, repo.Save(ctx, doc))

	found, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.WorkflowDraftValidated, found.WorkflowStatus)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Lampe Arc", found.Items[0].Description)
	assert.True(t, found.Items[0].TVARate.Equal(dec("5.5")))
}

func TestGormFinancialDocumentRepository_DuplicateProviderID(t *testing.T) {
	repo := NewGormFinancialDocumentRepository(setupSQLiteDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestDocument(t, "inv_dup")))
	assert.ErrorIs(t, repo.Create(ctx, newTestDocument(t, "inv_dup")), shared.ErrConcurrencyConflict)
}

func TestGormFinancialDocumentRepository_UpdateArchiveKey(t *testing.T) {
	repo := NewGormFinancialDocumentRepository(setupSQLiteDB(t))
	ctx := context.Background()

	doc := newTestDocument(t, "inv_archive")
	require.NoError(t, repo.Create(ctx, doc))

	require.NoError(t, repo.UpdateArchiveKey(ctx, doc.ID, "invoices/2026/F-2026-0001.pdf"))

	got, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "invoices/2026/F-2026-0001.pdf", got.ArchiveKey)
	assert.Len(t, got.Items, 2)

	err = repo.UpdateArchiveKey(ctx, uuid.New(), "invoices/2026/missing.pdf")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
