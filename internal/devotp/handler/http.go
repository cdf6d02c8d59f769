package handler

import (
	"github.com/gin-gonic/gin"

	"libmanage/backend/internal/devotp"
	"libmanage/backend/internal/httpapi"
	otpdomain "libmanage/backend/internal/otp/domain"
)

// Handler exposes codes captured by the dev sender. Register only when OTP_RETURN_TO_CLIENT is enabled.
type Handler struct {
	store devotp.Store
}

// NewHandler returns a dev OTP handler reading from store.
func NewHandler(store devotp.Store) *Handler {
	return &Handler{store: store}
}

// GetOTP handles GET /dev/otp?contact=&purpose=.
func (h *Handler) GetOTP(c *gin.Context) {
	contact := otpdomain.NormalizeContact(c.Query("contact"))
	purpose, err := otpdomain.ParsePurpose(c.Query("purpose"))
	if contact == "" || err != nil {
		httpapi.BadRequest(c)
		return
	}
	code, ok := h.store.Get(c.Request.Context(), contact, string(purpose))
	if !ok {
		httpapi.Fail(c, otpdomain.ErrNotFound)
		return
	}
	httpapi.OK(c, "", gin.H{"contact": contact, "purpose": purpose, "otp": code})
}
