package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avaldez96/rescue-dispatch/internal/alerts"
	"github.com/avaldez96/rescue-dispatch/internal/apperr"
	"github.com/avaldez96/rescue-dispatch/internal/auth"
	"github.com/avaldez96/rescue-dispatch/internal/models"
	"github.com/avaldez96/rescue-dispatch/internal/repository"
)

// AlertService is the lifecycle boundary the handlers call into.
type AlertService interface {
	List(ctx context.Context, caller auth.Identity, f repository.AlertFilter) ([]models.AlertDetail, error)
	Get(ctx context.Context, caller auth.Identity, id int64) (*models.AlertDetail, error)
	Create(ctx context.Context, caller auth.Identity, in alerts.CreateInput) (*models.AlertDetail, error)
	Update(ctx context.Context, caller auth.Identity, id int64, in alerts.UpdateInput) (*models.AlertDetail, error)
	SetStatus(ctx context.Context, caller auth.Identity, id int64, status string) (*models.AlertDetail, error)
	Delete(ctx context.Context, caller auth.Identity, id int64) error
}

// Dispatcher is the assignment boundary the handlers call into.
type Dispatcher interface {
	Assign(ctx context.Context, caller auth.Identity, alertID int64, vehicleID, responderID *int64) (*models.AlertDetail, error)
}

type Handler struct {
	alerts   AlertService
	dispatch Dispatcher
}

func NewHandler(alertSvc AlertService, dispatcher Dispatcher) *Handler {
	return &Handler{
		alerts:   alertSvc,
		dispatch: dispatcher,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	grp := r.Group("/api", auth.IdentityRequired())
	grp.GET("/alerts", h.listAlerts)
	grp.POST("/alerts", h.createAlert)
	grp.GET("/alerts/:id", h.getAlert)
	grp.PATCH("/alerts/:id", h.updateAlert)
	grp.PATCH("/alerts/:id/status", h.setAlertStatus)
	grp.POST("/alerts/:id/assign", h.assignAlert)
	grp.DELETE("/alerts/:id", h.deleteAlert)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listAlerts(c *gin.Context) {
	caller, ok := auth.Caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing caller identity"})
		return
	}

	var filter repository.AlertFilter
	if s := c.Query("status"); s != "" {
		if st := models.AlertStatus(s); st.Valid() {
			filter.Status = &st
		}
	}
	if t := c.Query("alert_type"); t != "" {
		if at := models.AlertType(t); at.Valid() {
			filter.Type = &at
		}
	}
	if u := c.Query("user_id"); u != "" {
		if uid, err := strconv.ParseInt(u, 10, 64); err == nil && uid > 0 {
			filter.UserID = &uid
		}
	}

	out, err := h.alerts.List(c.Request.Context(), caller, filter)
	if err != nil {
		renderError(c, err)
		return
	}
	if out == nil {
		out = []models.AlertDetail{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getAlert(c *gin.Context) {
	caller, ok := auth.Caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing caller identity"})
		return
	}
	id, ok := alertID(c)
	if !ok {
		return
	}

	d, err := h.alerts.Get(c.Request.Context(), caller, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) createAlert(c *gin.Context) {
	caller, ok := auth.Caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing caller identity"})
		return
	}

	var in alerts.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	d, err := h.alerts.Create(c.Request.Context(), caller, in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) updateAlert(c *gin.Context) {
	caller, ok := auth.Caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing caller identity"})
		return
	}
	id, ok := alertID(c)
	if !ok {
		return
	}

	var in alerts.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	d, err := h.alerts.Update(c.Request.Context(), caller, id, in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) setAlertStatus(c *gin.Context) {
	caller, ok := auth.Caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing caller identity"})
		return
	}
	id, ok := alertID(c)
	if !ok {
		return
	}

	var in struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	d, err := h.alerts.SetStatus(c.Request.Context(), caller, id, in.Status)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) assignAlert(c *gin.Context) {
	caller, ok := auth.Caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing caller identity"})
		return
	}
	id, ok := alertID(c)
	if !ok {
		return
	}

	var in struct {
		VehicleID   *int64 `json:"vehicle_id"`
		ResponderID *int64 `json:"responder_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	d, err := h.dispatch.Assign(c.Request.Context(), caller, id, in.VehicleID, in.ResponderID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) deleteAlert(c *gin.Context) {
	caller, ok := auth.Caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing caller identity"})
		return
	}
	id, ok := alertID(c)
	if !ok {
		return
	}

	if err := h.alerts.Delete(c.Request.Context(), caller, id); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "alert deleted"})
}

func alertID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid alert id"})
		return 0, false
	}
	return id, true
}

func renderError(c *gin.Context, err error) {
	ae := apperr.From(err)
	if ae.Kind == apperr.KindInternal {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(ae.HTTPStatus(), gin.H{"message": ae.Message})
}
