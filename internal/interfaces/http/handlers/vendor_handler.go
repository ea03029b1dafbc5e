package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/interfaces/http/response"
	"settleline.backend/pkg/utils"
)

type VendorService interface {
	CreateVendor(ctx context.Context, input *entities.CreateVendorInput) (*entities.Vendor, error)
	GetVendor(ctx context.Context, id uuid.UUID) (*entities.Vendor, error)
	ListVendors(ctx context.Context, limit, offset int) ([]*entities.Vendor, int, error)
	SetCommissionOverride(ctx context.Context, vendorID uuid.UUID, input *entities.UpsertOverrideInput) error
	SetFraudFlag(ctx context.Context, id uuid.UUID, flagged bool) error
}

// VendorHandler exposes vendor onboarding and commission configuration
type VendorHandler struct {
	vendorUsecase VendorService
}

// NewVendorHandler creates a new vendor handler
func NewVendorHandler(vendorUsecase VendorService) *VendorHandler {
	return &VendorHandler{vendorUsecase: vendorUsecase}
}

// CreateVendor registers a new vendor
// POST /api/v1/vendors
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	var input entities.CreateVendorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	vendor, err := h.vendorUsecase.CreateVendor(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"vendor": vendor})
}

// GetVendor gets a vendor with its commission overrides
// GET /api/v1/vendors/:id
func (h *VendorHandler) GetVendor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid vendor ID"))
		return
	}

	vendor, err := h.vendorUsecase.GetVendor(c.Request.Context(), id)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			response.Error(c, domainerrors.NotFound("vendor not found"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"vendor": vendor})
}

// ListVendors lists vendors with pagination
// GET /api/v1/vendors
func (h *VendorHandler) ListVendors(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	params := utils.GetPaginationParams(page, limit)

	vendors, total, err := h.vendorUsecase.ListVendors(c.Request.Context(), params.Limit, params.CalculateOffset())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"vendors":    vendors,
		"pagination": utils.CalculateMeta(int64(total), params.Page, params.Limit),
	})
}

// SetCommissionOverride upserts a per-category commission rate
// PUT /api/v1/vendors/:id/overrides
func (h *VendorHandler) SetCommissionOverride(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid vendor ID"))
		return
	}

	var input entities.UpsertOverrideInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.vendorUsecase.SetCommissionOverride(c.Request.Context(), id, &input); err != nil {
		if err == domainerrors.ErrNotFound {
			response.Error(c, domainerrors.NotFound("vendor not found"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

type fraudFlagInput struct {
	Flagged *bool `json:"flagged" binding:"required"`
}

// SetFraudFlag flags or clears a vendor for fraud review
// PUT /api/v1/vendors/:id/fraud-flag
func (h *VendorHandler) SetFraudFlag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid vendor ID"))
		return
	}

	var input fraudFlagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.vendorUsecase.SetFraudFlag(c.Request.Context(), id, *input.Flagged); err != nil {
		if err == domainerrors.ErrNotFound {
			response.Error(c, domainerrors.NotFound("vendor not found"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
