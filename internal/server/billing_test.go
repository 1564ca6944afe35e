package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	trustdomain "github.com/apexmarket/vendora/internal/trust/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type fakeBillingService struct {
	confirmCalls  int
	lastReference string
	result        *billingdomain.ConfirmResult
	err           error
}

func (f *fakeBillingService) ConfirmSubscription(ctx context.Context, reference string) (*billingdomain.ConfirmResult, error) {
	f.confirmCalls++
	f.lastReference = reference
	_ = ctx
	return f.result, f.err
}

func (f *fakeBillingService) ConfirmAddon(ctx context.Context, reference string) (*billingdomain.ConfirmResult, error) {
	f.confirmCalls++
	f.lastReference = reference
	_ = ctx
	return f.result, f.err
}

func (f *fakeBillingService) ConfirmPromotion(ctx context.Context, reference string) (*billingdomain.ConfirmResult, error) {
	f.confirmCalls++
	f.lastReference = reference
	_ = ctx
	return f.result, f.err
}

func (f *fakeBillingService) CreateCampaign(ctx context.Context, req billingdomain.CreateCampaignRequest) (*billingdomain.Campaign, error) {
	_ = ctx
	return &billingdomain.Campaign{
		ID:         snowflake.ID(1),
		BusinessID: req.BusinessID,
		Name:       req.Name,
		AmountKobo: req.AmountKobo,
		Status:     billingdomain.CampaignStatusPendingPayment,
	}, nil
}

func (f *fakeBillingService) GetCampaign(ctx context.Context, id snowflake.ID) (*billingdomain.Campaign, error) {
	_ = ctx
	_ = id
	return nil, billingdomain.ErrCampaignNotFound
}

type fakeTrustService struct {
	businessCalls int
	planCalls     int
	lastPlan      string
}

func (f *fakeTrustService) RecomputeBusiness(ctx context.Context, businessID snowflake.ID) (*trustdomain.Result, error) {
	f.businessCalls++
	_ = ctx
	return &trustdomain.Result{BusinessID: businessID, OK: true}, nil
}

func (f *fakeTrustService) RecomputePlan(ctx context.Context, planKey string) ([]trustdomain.Result, error) {
	f.planCalls++
	f.lastPlan = planKey
	_ = ctx
	return []trustdomain.Result{{OK: true}, {OK: true}}, nil
}

func newBillingRouter(svc *fakeBillingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := &Server{billingSvc: svc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/billing/subscription/confirm", srv.ConfirmSubscription)
	router.GET("/billing/campaigns/:id", srv.GetCampaign)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestConfirmHandlerPassesReferenceThrough(t *testing.T) {
	svc := &fakeBillingService{
		result: &billingdomain.ConfirmResult{
			Purpose:   billingdomain.PurposeSubscription,
			Reference: "ref_123",
		},
	}
	router := newBillingRouter(svc)

	resp := postJSON(router, "/billing/subscription/confirm", `{"reference":"ref_123"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.confirmCalls != 1 {
		t.Fatalf("expected one confirm call, got %d", svc.confirmCalls)
	}
	if svc.lastReference != "ref_123" {
		t.Fatalf("expected reference ref_123, got %q", svc.lastReference)
	}

	var result billingdomain.ConfirmResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Reference != "ref_123" {
		t.Fatalf("expected echoed reference, got %q", result.Reference)
	}
}

func TestConfirmHandlerRejectsBlankReference(t *testing.T) {
	svc := &fakeBillingService{}
	router := newBillingRouter(svc)

	resp := postJSON(router, "/billing/subscription/confirm", `{"reference":"   "}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if svc.confirmCalls != 0 {
		t.Fatal("expected confirm service not to be called")
	}
}

func TestConfirmHandlerMapsLockedVendorToConflict(t *testing.T) {
	svc := &fakeBillingService{err: businessdomain.ErrBusinessLocked}
	router := newBillingRouter(svc)

	resp := postJSON(router, "/billing/subscription/confirm", `{"reference":"ref_locked"}`)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestGetCampaignMapsNotFound(t *testing.T) {
	router := newBillingRouter(&fakeBillingService{})

	req := httptest.NewRequest(http.MethodGet, "/billing/campaigns/123", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestTrustRecomputeQueryValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeTrustService{}
	srv := &Server{trustSvc: svc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/trust/recompute", srv.TrustRecompute)

	resp := postJSON(router, "/trust/recompute?business_id=42&plan=starter", ``)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for mutually exclusive params, got %d", resp.Code)
	}

	resp = postJSON(router, "/trust/recompute", ``)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing params, got %d", resp.Code)
	}

	resp = postJSON(router, "/trust/recompute?plan=starter", ``)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.planCalls != 1 || svc.lastPlan != "starter" {
		t.Fatalf("expected one plan recompute for starter, got %d calls for %q", svc.planCalls, svc.lastPlan)
	}

	resp = postJSON(router, "/trust/recompute?business_id=42", ``)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.businessCalls != 1 {
		t.Fatalf("expected one business recompute, got %d", svc.businessCalls)
	}
}
