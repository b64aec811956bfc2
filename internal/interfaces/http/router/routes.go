package router

import (
	"github.com/verone/backoffice/internal/interfaces/http/handler"
)

// Handlers are the API handlers mounted under /api/<version>
type Handlers struct {
	SalesOrders        *handler.SalesOrderHandler
	PurchaseOrders     *handler.PurchaseOrderHandler
	Stock              *handler.StockHandler
	FinancialDocuments *handler.FinancialDocumentHandler
}

// DomainGroups returns one route group per domain
func (h Handlers) DomainGroups() []*DomainGroup {
	salesOrders := NewDomainGroup("sales-orders", "/sales-orders").
		POST("", h.SalesOrders.Create).
		GET("", h.SalesOrders.List).
		GET("/:id", h.SalesOrders.GetByID).
		POST("/:id/status", h.SalesOrders.Transition).
		DELETE("/:id", h.SalesOrders.Delete).
		POST("/:id/invoice", h.SalesOrders.IssueInvoice)

	purchaseOrders := NewDomainGroup("purchase-orders", "/purchase-orders").
		GET("/:id", h.PurchaseOrders.GetByID).
		POST("/:id/receptions", h.PurchaseOrders.Receive)

	stock := NewDomainGroup("stock", "/stock").
		POST("/adjustments", h.Stock.Adjust).
		POST("/counts", h.Stock.Count).
		POST("/transfers", h.Stock.Transfer)
	stock.Group("stock-products", "/products/:id").
		GET("", h.Stock.GetQuantity).
		GET("/movements", h.Stock.ListMovements).
		GET("/verify", h.Stock.Verify)

	documents := NewDomainGroup("financial-documents", "/financial-documents").
		GET("/:id", h.FinancialDocuments.GetByID).
		PATCH("/:id", h.FinancialDocuments.Update).
		POST("/:id/finalize", h.FinancialDocuments.Finalize).
		POST("/:id/sync-order", h.FinancialDocuments.SyncOrder)

	return []*DomainGroup{salesOrders, purchaseOrders, stock, documents}
}
