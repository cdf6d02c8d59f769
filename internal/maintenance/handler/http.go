// Package handler exposes the maintenance status probe and the admin toggle over HTTP.
package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"libmanage/backend/internal/httpapi"
	"libmanage/backend/internal/logger"
	"libmanage/backend/internal/maintenance/domain"
)

// Maintenance reads and flips the flag.
type Maintenance interface {
	Status(ctx context.Context) (domain.Status, error)
	Set(ctx context.Context, enabled bool) (domain.Status, error)
}

// Handler serves /config/maintenance/status and /admin/config/maintenance/:status.
type Handler struct {
	svc    Maintenance
	logger *zap.Logger
}

// NewHandler returns a Handler.
func NewHandler(svc Maintenance, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// StatusResponse is the body of the status probe.
type StatusResponse struct {
	MaintenanceMode bool       `json:"maintenanceMode"`
	Since           *time.Time `json:"since,omitempty"`
	UpdatedBy       string     `json:"updatedBy,omitempty"`
}

func toResponse(st domain.Status) StatusResponse {
	res := StatusResponse{MaintenanceMode: st.Enabled, UpdatedBy: st.UpdatedBy}
	if !st.Since.IsZero() {
		since := st.Since
		res.Since = &since
	}
	return res
}

// Status handles GET /config/maintenance/status. It always answers 200; when the flag
// cannot be read it reports maintenance on, matching what the gate enforces.
func (h *Handler) Status(c *gin.Context) {
	st, err := h.svc.Status(c.Request.Context())
	if err != nil {
		logger.FromGin(c, h.logger).Error("maintenance status read failed", zap.Error(err))
		httpapi.OK(c, "", StatusResponse{MaintenanceMode: true})
		return
	}
	httpapi.OK(c, "", toResponse(st))
}

// Set handles POST /admin/config/maintenance/:status with enable/disable (or true/false).
func (h *Handler) Set(c *gin.Context) {
	enabled, ok := parseToggle(c.Param("status"))
	if !ok {
		httpapi.BadRequest(c)
		return
	}
	st, err := h.svc.Set(c.Request.Context(), enabled)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	msg := "Maintenance mode disabled."
	if enabled {
		msg = "Maintenance mode enabled."
	}
	httpapi.OK(c, msg, toResponse(st))
}

func parseToggle(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enable", "enabled", "true", "on":
		return true, true
	case "disable", "disabled", "false", "off":
		return false, true
	default:
		return false, false
	}
}
