package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/reports"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// ReportsHandler exposes journal reporting endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ListTransactions handles GET /reports/transactions.
func (h *ReportsHandler) ListTransactions(c *gin.Context) {
	var req dto.TransactionListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.TransactionResponse, len(result.Items))
	for i := range result.Items {
		items[i] = dto.FromTransaction(&result.Items[i])
	}

	h.OK(c, dto.NewListResponse(items, result.TotalCount, result.Limit, result.Offset))
}

// Summarize handles GET /reports/summary.
func (h *ReportsHandler) Summarize(c *gin.Context) {
	var req dto.SummaryRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSummary(summary))
}

// RebuildItemCache handles POST /reports/items/:id/rebuild.
// Replays the applied journal and rewrites the item's cached quantities.
func (h *ReportsHandler) RebuildItemCache(c *gin.Context) {
	itemID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.service.RebuildItemCache(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromItem(item))
}
