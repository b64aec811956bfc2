package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appinventory "github.com/verone/backoffice/internal/application/inventory"
	"github.com/verone/backoffice/internal/domain/inventory"
)

// StockHandler exposes the stock ledger
type StockHandler struct {
	BaseHandler
	ledgerService *appinventory.LedgerService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(ledgerService *appinventory.LedgerService) *StockHandler {
	return &StockHandler{ledgerService: ledgerService}
}

// GetQuantity godoc
// @Summary      Current quantity of a product
// @Tags         stock
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinventory.StockLevelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/products/{id} [get]
func (h *StockHandler) GetQuantity(c *gin.Context) {
	productID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	level, err := h.ledgerService.CurrentQuantity(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, level)
}

// ListMovements godoc
// @Summary      Ledger history of a product
// @Description  Entries in sequence order. Pass next_after from the previous page as after to continue.
// @Tags         stock
// @Produce      json
// @Param        id    path  string true  "Product ID" format(uuid)
// @Param        after query int    false "Return entries with a greater sequence" default(0)
// @Param        limit query int    false "Page size"
// @Success      200 {object} dto.Response{data=appinventory.StockHistoryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/products/{id}/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	productID, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil || after < 0 {
		h.BadRequest(c, "after must be a non-negative integer")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		h.BadRequest(c, "limit must be a non-negative integer")
		return
	}

	page, err := h.ledgerService.HistoryPage(c.Request.Context(), productID, after, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, page)
}

// Verify godoc
// @Summary      Verify the ledger chain of a product
// @Description  Walks the full history and checks sequence continuity and quantity chaining
// @Tags         stock
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinventory.VerifyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/products/{id}/verify [get]
func (h *StockHandler) Verify(c *gin.Context) {
	productID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.ledgerService.Verify(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Adjust godoc
// @Summary      Manual stock adjustment
// @Description  Appends a signed correction. When expected_before is set and no longer matches the ledger the request fails with 409.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body appinventory.AdjustStockRequest true "Adjustment"
// @Success      201 {object} dto.Response{data=appinventory.StockMovementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/adjustments [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	var req appinventory.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movement, err := h.ledgerService.Record(c.Request.Context(), appinventory.RecordInput{
		MovementInput: inventory.MovementInput{
			ProductID:     req.ProductID,
			MovementType:  inventory.MovementTypeAdjust,
			Change:        req.Change,
			ReferenceType: inventory.ReferenceManualAdjustment,
			Location:      req.Location,
			Reason:        req.Reason,
		},
		ExpectedBefore: req.ExpectedBefore,
		Actor:          actor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, appinventory.ToStockMovementResponse(movement))
}

// Count godoc
// @Summary      Record an inventory count
// @Description  Writes the adjustment that brings the ledger to the counted quantity
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body appinventory.CountStockRequest true "Count"
// @Success      201 {object} dto.Response{data=appinventory.StockMovementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/counts [post]
func (h *StockHandler) Count(c *gin.Context) {
	var req appinventory.CountStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movement, err := h.ledgerService.CountTo(c.Request.Context(), req.ProductID, req.Counted, req.Reason, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, appinventory.ToStockMovementResponse(movement))
}

// Transfer godoc
// @Summary      Transfer stock between locations
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body appinventory.TransferStockRequest true "Transfer"
// @Success      201 {object} dto.Response{data=[]appinventory.StockMovementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/transfers [post]
func (h *StockHandler) Transfer(c *gin.Context) {
	var req appinventory.TransferStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	legs, err := h.ledgerService.Transfer(c.Request.Context(), inventory.TransferInput{
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
		Reason:       req.Reason,
	}, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, appinventory.ToStockMovementResponses(legs))
}
