package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/interfaces/http/response"
	"settleline.backend/internal/usecases"
)

type FeedService interface {
	IngestOrder(ctx context.Context, event *entities.OrderFeedEvent) error
	IngestDispute(ctx context.Context, event *entities.DisputeFeedEvent) error
}

type PayoutCallbackService interface {
	ConfirmByID(ctx context.Context, id uuid.UUID, state usecases.PayoutState, source string) error
}

// WebhookHandler ingests the external event feeds: order completions,
// dispute updates and payout rail callbacks.
type WebhookHandler struct {
	feedUsecase     FeedService
	dispatchUsecase PayoutCallbackService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(feedUsecase FeedService, dispatchUsecase PayoutCallbackService) *WebhookHandler {
	return &WebhookHandler{feedUsecase: feedUsecase, dispatchUsecase: dispatchUsecase}
}

// IngestOrder accepts one order completion event
// POST /api/v1/webhooks/orders
func (h *WebhookHandler) IngestOrder(c *gin.Context) {
	var event entities.OrderFeedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.feedUsecase.IngestOrder(c.Request.Context(), &event); err != nil {
		if err == domainerrors.ErrNotFound {
			response.Error(c, domainerrors.UnprocessableEntity("vendor not registered", err))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"status": "accepted"})
}

// IngestDispute accepts one dispute feed event
// POST /api/v1/webhooks/disputes
func (h *WebhookHandler) IngestDispute(c *gin.Context) {
	var event entities.DisputeFeedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.feedUsecase.IngestDispute(c.Request.Context(), &event); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"status": "accepted"})
}

type payoutCallbackInput struct {
	SettlementID string `json:"settlementId" binding:"required"`
	Status       string `json:"status" binding:"required"`
}

// PayoutCallback accepts an asynchronous outcome notification from the
// payout rail. The rail also answers polling, so a missed callback is
// recovered on the next poll tick.
// POST /api/v1/webhooks/payouts
func (h *WebhookHandler) PayoutCallback(c *gin.Context) {
	var input payoutCallbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	id, err := uuid.Parse(input.SettlementID)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid settlement ID"))
		return
	}

	var state usecases.PayoutState
	switch input.Status {
	case "settled":
		state = usecases.PayoutStateSettled
	case "failed":
		state = usecases.PayoutStateFailed
	case "pending":
		state = usecases.PayoutStatePending
	default:
		response.Error(c, domainerrors.BadRequest("unknown payout status"))
		return
	}

	if err := h.dispatchUsecase.ConfirmByID(c.Request.Context(), id, state, "rail callback"); err != nil {
		if err == domainerrors.ErrNotFound {
			response.Error(c, domainerrors.NotFound("settlement not found"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
