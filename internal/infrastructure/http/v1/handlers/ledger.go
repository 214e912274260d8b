package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// LedgerHandler exposes item and movement endpoints.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: base,
		service:     service,
	}
}

// CreateItem handles POST /items.
func (h *LedgerHandler) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.service.CreateItem(c.Request.Context(), item)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromItem(created))
}

// GetItem handles GET /items/:id.
func (h *LedgerHandler) GetItem(c *gin.Context) {
	itemID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromItem(item))
}

// ListItems handles GET /items.
func (h *LedgerHandler) ListItems(c *gin.Context) {
	filter := ledger.ItemFilter{
		SKU:    c.Query("sku"),
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if warehouseID := c.Query("warehouseId"); warehouseID != "" {
		parsed, err := id.Parse(warehouseID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouseId").WithDetail("value", warehouseID))
			return
		}
		filter.WarehouseID = &parsed
	}
	if status := c.Query("status"); status != "" {
		itemStatus := ledger.ItemStatus(status)
		filter.Status = &itemStatus
	}

	result, err := h.service.ListItems(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.ItemResponse, len(result.Items))
	for i := range result.Items {
		items[i] = dto.FromItem(&result.Items[i])
	}

	h.OK(c, dto.NewListResponse(items, result.TotalCount, result.Limit, result.Offset))
}

// RecordInbound handles POST /transactions/inbound.
func (h *LedgerHandler) RecordInbound(c *gin.Context) {
	var req dto.InboundRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.RecordInbound(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromMovementResult(result))
}

// RecordOutbound handles POST /transactions/outbound.
func (h *LedgerHandler) RecordOutbound(c *gin.Context) {
	var req dto.OutboundRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.RecordOutbound(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromMovementResult(result))
}

// RecordAdjustment handles POST /transactions/adjustment.
func (h *LedgerHandler) RecordAdjustment(c *gin.Context) {
	var req dto.AdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.RecordAdjustment(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromMovementResult(result))
}

// GetTransaction handles GET /transactions/:id.
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	txID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	tx, err := h.service.GetTransaction(c.Request.Context(), txID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransaction(tx))
}

// GetTransactionByNumber handles GET /transactions/number/:number.
func (h *LedgerHandler) GetTransactionByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.Error(c, apperror.NewValidation("number is required"))
		return
	}

	tx, err := h.service.GetTransactionByNumber(c.Request.Context(), number)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransaction(tx))
}

// CancelTransaction handles POST /transactions/:id/cancel.
func (h *LedgerHandler) CancelTransaction(c *gin.Context) {
	txID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CancelTransaction(c.Request.Context(), txID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovementResult(result))
}
