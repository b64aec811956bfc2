package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appfinance "github.com/verone/backoffice/internal/application/finance"
	apptrade "github.com/verone/backoffice/internal/application/trade"
	"github.com/verone/backoffice/internal/domain/shared"
)

// SalesOrderHandler handles sales order endpoints
type SalesOrderHandler struct {
	BaseHandler
	orderService     *apptrade.SalesOrderService
	invoicingService *appfinance.InvoicingService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orderService *apptrade.SalesOrderService, invoicingService *appfinance.InvoicingService) *SalesOrderHandler {
	return &SalesOrderHandler{
		orderService:     orderService,
		invoicingService: invoicingService,
	}
}

// Create godoc
// @Summary      Create a sales order
// @Description  Creates a draft order with its lines and fees. The order number is assigned by the server.
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        request body apptrade.CreateSalesOrderRequest true "Sales order creation request"
// @Success      201 {object} dto.Response{data=apptrade.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders [post]
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req apptrade.CreateSalesOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// List godoc
// @Summary      List sales orders
// @Tags         sales-orders
// @Produce      json
// @Param        status         query string false "Order status"
// @Param        payment_status query string false "Payment status"
// @Param        customer_id    query string false "Customer ID" format(uuid)
// @Param        page           query int    false "Page number" default(1)
// @Param        page_size      query int    false "Page size" default(20) maximum(100)
// @Param        order_by       query string false "Sort field" Enums(created_at, order_number, total_ttc)
// @Param        order_dir      query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]apptrade.SalesOrderListItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders [get]
func (h *SalesOrderHandler) List(c *gin.Context) {
	var filter apptrade.SalesOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid customer_id format")
			return
		}
		filter.CustomerID = &id
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	defaults := shared.DefaultFilter()
	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = defaults.Page
	}
	if pageSize <= 0 {
		pageSize = defaults.PageSize
	}
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// GetByID godoc
// @Summary      Get a sales order
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=apptrade.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id} [get]
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Transition godoc
// @Summary      Change the status of a sales order
// @Description  Applies one transition of the order workflow. Illegal moves are rejected with 422.
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        id      path string true "Sales order ID" format(uuid)
// @Param        request body apptrade.TransitionSalesOrderRequest true "Target status"
// @Success      200 {object} dto.Response{data=apptrade.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/status [post]
func (h *SalesOrderHandler) Transition(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req apptrade.TransitionSalesOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Transition(c.Request.Context(), id, req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Delete godoc
// @Summary      Delete a sales order
// @Description  Only draft and cancelled orders can be deleted
// @Tags         sales-orders
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id} [delete]
func (h *SalesOrderHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), id, actor(c)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// IssueInvoice godoc
// @Summary      Issue the provider invoice of an order
// @Description  Creates the draft invoice at the invoicing provider and mirrors it as a financial document.
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        id              path   string true  "Sales order ID" format(uuid)
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request         body   appfinance.IssueInvoiceRequest false "Invoice options"
// @Success      201 {object} dto.Response{data=appfinance.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/invoice [post]
func (h *SalesOrderHandler) IssueInvoice(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	key, ok := h.idempotencyKey(c)
	if !ok {
		return
	}
	var req appfinance.IssueInvoiceRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.invoicingService.IssueInvoice(c.Request.Context(), id, req, actor(c), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, doc)
}
