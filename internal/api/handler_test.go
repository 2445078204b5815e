package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/avaldez96/rescue-dispatch/internal/alerts"
	"github.com/avaldez96/rescue-dispatch/internal/apperr"
	"github.com/avaldez96/rescue-dispatch/internal/auth"
	"github.com/avaldez96/rescue-dispatch/internal/models"
	"github.com/avaldez96/rescue-dispatch/internal/repository"
)

// stubAlertService implements AlertService for testing
type stubAlertService struct {
	lastCaller auth.Identity
	lastFilter repository.AlertFilter
	lastID     int64
	lastStatus string
	lastCreate alerts.CreateInput
	result     *models.AlertDetail
	list       []models.AlertDetail
	err        error
}

func (s *stubAlertService) List(ctx context.Context, caller auth.Identity, f repository.AlertFilter) ([]models.AlertDetail, error) {
	s.lastCaller, s.lastFilter = caller, f
	return s.list, s.err
}

func (s *stubAlertService) Get(ctx context.Context, caller auth.Identity, id int64) (*models.AlertDetail, error) {
	s.lastCaller, s.lastID = caller, id
	return s.result, s.err
}

func (s *stubAlertService) Create(ctx context.Context, caller auth.Identity, in alerts.CreateInput) (*models.AlertDetail, error) {
	s.lastCaller, s.lastCreate = caller, in
	return s.result, s.err
}

func (s *stubAlertService) Update(ctx context.Context, caller auth.Identity, id int64, in alerts.UpdateInput) (*models.AlertDetail, error) {
	s.lastCaller, s.lastID = caller, id
	return s.result, s.err
}

func (s *stubAlertService) SetStatus(ctx context.Context, caller auth.Identity, id int64, status string) (*models.AlertDetail, error) {
	s.lastCaller, s.lastID, s.lastStatus = caller, id, status
	return s.result, s.err
}

func (s *stubAlertService) Delete(ctx context.Context, caller auth.Identity, id int64) error {
	s.lastCaller, s.lastID = caller, id
	return s.err
}

// stubDispatcher implements Dispatcher for testing
type stubDispatcher struct {
	lastAlertID     int64
	lastVehicleID   *int64
	lastResponderID *int64
	result          *models.AlertDetail
	err             error
}

func (s *stubDispatcher) Assign(ctx context.Context, caller auth.Identity, alertID int64, vehicleID, responderID *int64) (*models.AlertDetail, error) {
	s.lastAlertID, s.lastVehicleID, s.lastResponderID = alertID, vehicleID, responderID
	return s.result, s.err
}

func setupTestRouter(svc *stubAlertService, disp *stubDispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(svc, disp)
	handler.RegisterRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path string, body any, asRole string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if asRole != "" {
		req.Header.Set(auth.HeaderUserID, "3")
		req.Header.Set(auth.HeaderUserRole, asRole)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleDetail() *models.AlertDetail {
	return &models.AlertDetail{
		Alert: models.Alert{
			ID:       1,
			Type:     models.AlertTypeFire,
			Severity: models.SeverityHigh,
			Title:    "Apartment fire",
			Location: "12 Oak St",
			Status:   models.AlertStatusPending,
			UserID:   7,
		},
	}
}

func TestRoutes_RequireIdentity(t *testing.T) {
	router := setupTestRouter(&stubAlertService{}, &stubDispatcher{})

	w := doRequest(router, http.MethodGet, "/api/alerts", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without identity, got %d", w.Code)
	}
}

func TestHealth_NoIdentityNeeded(t *testing.T) {
	router := setupTestRouter(&stubAlertService{}, &stubDispatcher{})

	w := doRequest(router, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestListAlerts_FilterParsing(t *testing.T) {
	svc := &stubAlertService{}
	router := setupTestRouter(svc, &stubDispatcher{})

	w := doRequest(router, http.MethodGet, "/api/alerts?status=responding&alert_type=bogus&user_id=9", nil, "dispatcher")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if svc.lastFilter.Status == nil || *svc.lastFilter.Status != models.AlertStatusResponding {
		t.Errorf("expected status filter responding, got %v", svc.lastFilter.Status)
	}
	// invalid enum values are dropped, not applied
	if svc.lastFilter.Type != nil {
		t.Errorf("expected invalid alert_type dropped, got %v", svc.lastFilter.Type)
	}
	if svc.lastFilter.UserID == nil || *svc.lastFilter.UserID != 9 {
		t.Errorf("expected user_id 9, got %v", svc.lastFilter.UserID)
	}
	if svc.lastCaller.ID != 3 || svc.lastCaller.Role != models.RoleDispatcher {
		t.Errorf("unexpected caller %+v", svc.lastCaller)
	}
}

func TestListAlerts_EmptyIsArray(t *testing.T) {
	router := setupTestRouter(&stubAlertService{}, &stubDispatcher{})

	w := doRequest(router, http.MethodGet, "/api/alerts", nil, "user")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "[]" {
		t.Errorf("expected empty JSON array, got %s", got)
	}
}

func TestGetAlert_InvalidID(t *testing.T) {
	router := setupTestRouter(&stubAlertService{}, &stubDispatcher{})

	w := doRequest(router, http.MethodGet, "/api/alerts/abc", nil, "user")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", w.Code)
	}
}

func TestCreateAlert(t *testing.T) {
	svc := &stubAlertService{result: sampleDetail()}
	router := setupTestRouter(svc, &stubDispatcher{})

	body := map[string]any{
		"alert_type": "fire",
		"severity":   "high",
		"title":      "Apartment fire",
		"location":   "12 Oak St",
		"latitude":   40.71,
	}
	w := doRequest(router, http.MethodPost, "/api/alerts", body, "user")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if svc.lastCreate.AlertType != "fire" || svc.lastCreate.Latitude == nil {
		t.Errorf("unexpected bound input %+v", svc.lastCreate)
	}
}

func TestErrorRendering(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"bad request", apperr.BadRequest("title is required"), http.StatusBadRequest},
		{"forbidden", apperr.Forbidden("not allowed"), http.StatusForbidden},
		{"not found", apperr.NotFound("alert not found"), http.StatusNotFound},
		{"internal", apperr.Internal("failed to create alert", errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubAlertService{err: tc.err}
			router := setupTestRouter(svc, &stubDispatcher{})

			w := doRequest(router, http.MethodPost, "/api/alerts", map[string]any{}, "user")
			if w.Code != tc.code {
				t.Errorf("expected %d, got %d", tc.code, w.Code)
			}

			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if resp["message"] == "" {
				t.Error("expected message in error body")
			}
			// the wrapped cause never leaks
			if tc.name == "internal" && resp["message"] != "failed to create alert" {
				t.Errorf("unexpected internal message %q", resp["message"])
			}
		})
	}
}

func TestSetAlertStatus(t *testing.T) {
	svc := &stubAlertService{result: sampleDetail()}
	router := setupTestRouter(svc, &stubDispatcher{})

	w := doRequest(router, http.MethodPatch, "/api/alerts/1/status", map[string]string{"status": "responding"}, "rescuer")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.lastID != 1 || svc.lastStatus != "responding" {
		t.Errorf("expected SetStatus(1, responding), got (%d, %s)", svc.lastID, svc.lastStatus)
	}
}

func TestAssignAlert(t *testing.T) {
	disp := &stubDispatcher{result: sampleDetail()}
	router := setupTestRouter(&stubAlertService{}, disp)

	body := map[string]any{"vehicle_id": 20, "responder_id": nil}
	w := doRequest(router, http.MethodPost, "/api/alerts/1/assign", body, "dispatcher")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if disp.lastAlertID != 1 {
		t.Errorf("expected alert id 1, got %d", disp.lastAlertID)
	}
	if disp.lastVehicleID == nil || *disp.lastVehicleID != 20 {
		t.Errorf("expected vehicle id 20, got %v", disp.lastVehicleID)
	}
	if disp.lastResponderID != nil {
		t.Errorf("expected nil responder, got %v", disp.lastResponderID)
	}
}

func TestDeleteAlert(t *testing.T) {
	svc := &stubAlertService{}
	router := setupTestRouter(svc, &stubDispatcher{})

	w := doRequest(router, http.MethodDelete, "/api/alerts/1", nil, "admin")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["message"] != "alert deleted" {
		t.Errorf("expected confirmation message, got %q", resp["message"])
	}
}

func TestUpdateAlert_InvalidBody(t *testing.T) {
	router := setupTestRouter(&stubAlertService{}, &stubDispatcher{})

	req := httptest.NewRequest(http.MethodPatch, "/api/alerts/1", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.HeaderUserID, "3")
	req.Header.Set(auth.HeaderUserRole, "admin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
