package handler

import (
	"github.com/gin-gonic/gin"

	"libmanage/backend/internal/httpapi"
	sessiondomain "libmanage/backend/internal/session/domain"
)

// HTTPHandler serves the HTTP form of the session lookup.
type HTTPHandler struct {
	lookup Lookup
}

// NewHTTPHandler returns an HTTPHandler.
func NewHTTPHandler(lookup Lookup) *HTTPHandler {
	return &HTTPHandler{lookup: lookup}
}

// Get handles GET /internal/sessions/:id. Non-admin callers only see their own sessions.
func (h *HTTPHandler) Get(c *gin.Context) {
	p, err := httpapi.Principal(c)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	id := c.Param("id")
	if id == "" {
		httpapi.BadRequest(c)
		return
	}
	res, err := h.lookup.Get(c.Request.Context(), id)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	if !visibleTo(p, res) {
		httpapi.Fail(c, sessiondomain.ErrNotFound)
		return
	}
	httpapi.OK(c, "", res)
}
