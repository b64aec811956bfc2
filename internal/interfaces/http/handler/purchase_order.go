package handler

import (
	"github.com/gin-gonic/gin"

	apptrade "github.com/verone/backoffice/internal/application/trade"
)

// PurchaseOrderHandler handles purchase order lookups and receptions
type PurchaseOrderHandler struct {
	BaseHandler
	receptionService *apptrade.ReceptionService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(receptionService *apptrade.ReceptionService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{receptionService: receptionService}
}

// GetByID godoc
// @Summary      Get a purchase order
// @Description  Returns the order with ordered, received and remaining quantity per line
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=apptrade.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.receptionService.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Receive godoc
// @Summary      Record a reception
// @Description  Receives goods against a purchase order. Each line updates the order and writes one stock movement in the same transaction.
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id              path   string true  "Purchase order ID" format(uuid)
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request         body   apptrade.ReceivePurchaseOrderRequest true "Reception lines"
// @Success      201 {object} dto.Response{data=apptrade.ReceptionResultResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/receptions [post]
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	key, ok := h.idempotencyKey(c)
	if !ok {
		return
	}
	var req apptrade.ReceivePurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.receptionService.Receive(c.Request.Context(), id, req, actor(c), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}
