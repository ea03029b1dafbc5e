package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
)

type fakeVendorService struct {
	vendor *entities.Vendor
	list   []*entities.Vendor
	total  int
	err    error

	lastCreate   *entities.CreateVendorInput
	lastOverride *entities.UpsertOverrideInput
	lastFlag     *bool
}

func (f *fakeVendorService) CreateVendor(_ context.Context, input *entities.CreateVendorInput) (*entities.Vendor, error) {
	f.lastCreate = input
	if f.err != nil {
		return nil, f.err
	}
	return f.vendor, nil
}

func (f *fakeVendorService) GetVendor(_ context.Context, id uuid.UUID) (*entities.Vendor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vendor, nil
}

func (f *fakeVendorService) ListVendors(_ context.Context, limit, offset int) ([]*entities.Vendor, int, error) {
	return f.list, f.total, f.err
}

func (f *fakeVendorService) SetCommissionOverride(_ context.Context, vendorID uuid.UUID, input *entities.UpsertOverrideInput) error {
	f.lastOverride = input
	return f.err
}

func (f *fakeVendorService) SetFraudFlag(_ context.Context, id uuid.UUID, flagged bool) error {
	f.lastFlag = &flagged
	return f.err
}

func vendorRouter(svc VendorService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewVendorHandler(svc)
	r := gin.New()
	r.POST("/vendors", h.CreateVendor)
	r.GET("/vendors", h.ListVendors)
	r.GET("/vendors/:id", h.GetVendor)
	r.PUT("/vendors/:id/overrides", h.SetCommissionOverride)
	r.PUT("/vendors/:id/fraud-flag", h.SetFraudFlag)
	return r
}

func TestCreateVendorEndpoint(t *testing.T) {
	svc := &fakeVendorService{vendor: &entities.Vendor{ID: uuid.New(), DisplayName: "Acme Traders"}}
	router := vendorRouter(svc)

	body := `{
		"kind": "SHOP",
		"displayName": "Acme Traders",
		"commissionRateBps": 1200,
		"payoutMethod": "BANK_TRANSFER",
		"payoutDestination": "0011223344",
		"settlementCycle": "DAILY"
	}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/vendors", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.lastCreate)
	assert.Equal(t, entities.VendorKindShop, svc.lastCreate.Kind)
	assert.Equal(t, int64(1200), svc.lastCreate.CommissionRateBps)
}

func TestCreateVendorEndpoint_MissingFields(t *testing.T) {
	svc := &fakeVendorService{}
	router := vendorRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/vendors", strings.NewReader(`{"kind":"SHOP"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.lastCreate)
}

func TestGetVendorEndpoint_NotFound(t *testing.T) {
	router := vendorRouter(&fakeVendorService{err: domainerrors.ErrNotFound})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/vendors/"+uuid.New().String(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListVendorsEndpoint(t *testing.T) {
	svc := &fakeVendorService{
		list:  []*entities.Vendor{{ID: uuid.New()}, {ID: uuid.New()}},
		total: 2,
	}
	router := vendorRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/vendors", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Vendors    []entities.Vendor      `json:"vendors"`
		Pagination map[string]interface{} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Vendors, 2)
	assert.EqualValues(t, 2, body.Pagination["totalCount"])
}

func TestSetCommissionOverrideEndpoint(t *testing.T) {
	svc := &fakeVendorService{}
	router := vendorRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/vendors/"+uuid.New().String()+"/overrides",
		strings.NewReader(`{"category":"electronics","rateBps":800}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastOverride)
	assert.Equal(t, "electronics", svc.lastOverride.Category)
	assert.Equal(t, int64(800), svc.lastOverride.RateBps)
}

func TestSetFraudFlagEndpoint(t *testing.T) {
	svc := &fakeVendorService{}
	router := vendorRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/vendors/"+uuid.New().String()+"/fraud-flag",
		strings.NewReader(`{"flagged":true}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastFlag)
	assert.True(t, *svc.lastFlag)
}

func TestSetFraudFlagEndpoint_RequiresBody(t *testing.T) {
	svc := &fakeVendorService{}
	router := vendorRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/vendors/"+uuid.New().String()+"/fraud-flag",
		strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.lastFlag)
}
