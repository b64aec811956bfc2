package handler

import (
	"github.com/gin-gonic/gin"

	appfinance "github.com/verone/backoffice/internal/application/finance"
)

// FinancialDocumentHandler handles provider invoices mirrored as financial documents
type FinancialDocumentHandler struct {
	BaseHandler
	invoicingService *appfinance.InvoicingService
	syncService      *appfinance.DocumentSyncService
}

// NewFinancialDocumentHandler creates a new FinancialDocumentHandler
func NewFinancialDocumentHandler(invoicingService *appfinance.InvoicingService, syncService *appfinance.DocumentSyncService) *FinancialDocumentHandler {
	return &FinancialDocumentHandler{
		invoicingService: invoicingService,
		syncService:      syncService,
	}
}

// GetByID godoc
// @Summary      Get a financial document
// @Tags         financial-documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfinance.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /financial-documents/{id} [get]
func (h *FinancialDocumentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.invoicingService.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, doc)
}

// Update godoc
// @Summary      Edit a draft invoice
// @Description  Pushes the edit to the invoicing provider, then rewrites the local mirror. Only draft documents can be edited.
// @Tags         financial-documents
// @Accept       json
// @Produce      json
// @Param        id      path string true "Document ID" format(uuid)
// @Param        request body appfinance.UpdateDocumentRequest true "New content"
// @Success      200 {object} dto.Response{data=appfinance.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /financial-documents/{id} [patch]
func (h *FinancialDocumentHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req appfinance.UpdateDocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.invoicingService.UpdateDocument(c.Request.Context(), id, req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, doc)
}

// Finalize godoc
// @Summary      Finalize an invoice
// @Description  Finalizes the invoice at the provider. The PDF is archived when storage is configured.
// @Tags         financial-documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfinance.DocumentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /financial-documents/{id}/finalize [post]
func (h *FinancialDocumentHandler) Finalize(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.invoicingService.FinalizeDocument(c.Request.Context(), id, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, doc)
}

// SyncOrder godoc
// @Summary      Copy invoice content back onto its sales order
// @Description  Rewrites the linked order's lines, fees and addresses from the document in one transaction
// @Tags         financial-documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=appfinance.SyncResultResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /financial-documents/{id}/sync-order [post]
func (h *FinancialDocumentHandler) SyncOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.syncService.SyncToOrder(c.Request.Context(), id, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
