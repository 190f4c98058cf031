package handlers

import (
	"net/http"
	"strings"

	"github.com/Kvazar-213452/Voxta-mobile/internal/api/middleware"
	"github.com/Kvazar-213452/Voxta-mobile/shared/wire"
	"github.com/gin-gonic/gin"
)

// PresenceReader is the read side of the session registry.
type PresenceReader interface {
	IsOnline(userID string) bool
	OnlineCount() int
}

// PresenceHandler serves the HTTP view of the presence directory.
type PresenceHandler struct {
	presence PresenceReader
}

func NewPresenceHandler(presence PresenceReader) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// Health handles GET /healthz
func (h *PresenceHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, wire.HealthResponse{
		Status: "ok",
		Online: h.presence.OnlineCount(),
	})
}

// GetStatus handles GET /v1/status/:userId. It must run behind
// middleware.AuthMiddleware.
func (h *PresenceHandler) GetStatus(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, wire.StatusError(wire.ErrNotAuthenticated, nil))
		return
	}

	target := c.Param("userId")
	if strings.TrimSpace(target) == "" {
		c.JSON(http.StatusBadRequest, wire.StatusError(wire.ErrInvalidUserID, nil))
		return
	}

	c.JSON(http.StatusOK, wire.StatusOK(h.presence.IsOnline(target), nil))
}
