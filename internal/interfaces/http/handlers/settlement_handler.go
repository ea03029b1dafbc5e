package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/interfaces/http/middleware"
	"settleline.backend/internal/interfaces/http/response"
	"settleline.backend/pkg/utils"
)

type SettlementService interface {
	GetSettlement(ctx context.Context, id uuid.UUID) (*entities.Settlement, error)
	ListSettlements(ctx context.Context, filter entities.SettlementFilter) ([]*entities.Settlement, int, error)
	ExportCSV(ctx context.Context, filter entities.SettlementFilter, w io.Writer) error
	Approve(ctx context.Context, id uuid.UUID, actor, note string) error
	Hold(ctx context.Context, id uuid.UUID, actor, note string) error
	Reject(ctx context.Context, id uuid.UUID, actor, note string) error
	Retry(ctx context.Context, id uuid.UUID, actor, note string) error
}

// SettlementHandler exposes the admin override surface over settlements
type SettlementHandler struct {
	settlementUsecase SettlementService
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(settlementUsecase SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementUsecase: settlementUsecase}
}

type overrideInput struct {
	Note string `json:"note"`
}

// GetSettlement gets a settlement with orders and audit trail
// GET /api/v1/settlements/:id
func (h *SettlementHandler) GetSettlement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid settlement ID"))
		return
	}

	settlement, err := h.settlementUsecase.GetSettlement(c.Request.Context(), id)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			response.Error(c, domainerrors.NotFound("settlement not found"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"settlement": settlement})
}

// ListSettlements lists settlements matching query filters
// GET /api/v1/settlements
func (h *SettlementHandler) ListSettlements(c *gin.Context) {
	filter, err := parseSettlementFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	params := utils.GetPaginationParams(page, limit)
	filter.Limit = params.Limit
	filter.Offset = params.CalculateOffset()

	settlements, total, err := h.settlementUsecase.ListSettlements(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"settlements": settlements,
		"pagination":  utils.CalculateMeta(int64(total), params.Page, params.Limit),
	})
}

// ExportSettlements streams settlements matching query filters as CSV
// GET /api/v1/settlements/export
func (h *SettlementHandler) ExportSettlements(c *gin.Context) {
	filter, err := parseSettlementFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="settlements.csv"`)
	if err := h.settlementUsecase.ExportCSV(c.Request.Context(), filter, c.Writer); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// ApproveSettlement approves a pending or held settlement
// POST /api/v1/settlements/:id/approve
func (h *SettlementHandler) ApproveSettlement(c *gin.Context) {
	h.override(c, h.settlementUsecase.Approve)
}

// HoldSettlement parks a pending settlement for review
// POST /api/v1/settlements/:id/hold
func (h *SettlementHandler) HoldSettlement(c *gin.Context) {
	h.override(c, h.settlementUsecase.Hold)
}

// RejectSettlement permanently fails a held settlement
// POST /api/v1/settlements/:id/reject
func (h *SettlementHandler) RejectSettlement(c *gin.Context) {
	h.override(c, h.settlementUsecase.Reject)
}

// RetrySettlement re-queues a failed settlement for dispatch
// POST /api/v1/settlements/:id/retry
func (h *SettlementHandler) RetrySettlement(c *gin.Context) {
	h.override(c, h.settlementUsecase.Retry)
}

func (h *SettlementHandler) override(c *gin.Context, action func(ctx context.Context, id uuid.UUID, actor, note string) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid settlement ID"))
		return
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("admin identity required"))
		return
	}

	var input overrideInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, domainerrors.BadRequest(err.Error()))
			return
		}
	}

	if err := action(c.Request.Context(), id, actor, input.Note); err != nil {
		if err == domainerrors.ErrNotFound {
			response.Error(c, domainerrors.NotFound("settlement not found"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

func parseSettlementFilter(c *gin.Context) (entities.SettlementFilter, error) {
	var filter entities.SettlementFilter

	if v := c.Query("vendorId"); v != "" {
		vendorID, err := uuid.Parse(v)
		if err != nil {
			return filter, domainerrors.BadRequest("invalid vendor ID")
		}
		filter.VendorID = &vendorID
	}
	if s := c.Query("status"); s != "" {
		status := entities.SettlementStatus(s)
		filter.Status = &status
	}
	if f := c.Query("from"); f != "" {
		from, err := time.Parse(time.RFC3339, f)
		if err != nil {
			return filter, domainerrors.BadRequest("invalid from timestamp")
		}
		filter.From = &from
	}
	if t := c.Query("to"); t != "" {
		to, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return filter, domainerrors.BadRequest("invalid to timestamp")
		}
		filter.To = &to
	}

	return filter, nil
}
