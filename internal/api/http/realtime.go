package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentscout/backend/internal/api/middleware"
	"github.com/talentscout/backend/internal/realtime"
	"github.com/talentscout/backend/internal/shared/id"
	"github.com/talentscout/backend/internal/shared/utils"
)

type claimRequest struct {
	ConnectionID string `json:"connectionId" binding:"required"`
}

// ClaimConnection tags a socket opened before the session was known with
// the caller's user id.
func (h *Handlers) ClaimConnection(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "connectionId is required"})
		return
	}
	if err := utils.ValidateID(req.ConnectionID, "connectionId", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.registry.Tag(id.ConnectionID(req.ConnectionID), middleware.UserID(c))
	switch {
	case errors.Is(err, realtime.ErrConnectionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Connection not found"})
	case errors.Is(err, realtime.ErrAlreadyTagged):
		c.JSON(http.StatusConflict, gin.H{"error": "Connection belongs to another user"})
	case err != nil:
		h.internalError(c, "failed to claim connection", err)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Connection claimed"})
	}
}

// Connections lists the caller's open sockets on this instance.
func (h *Handlers) Connections(c *gin.Context) {
	infos := h.registry.ConnectionInfo(middleware.UserID(c))
	if infos == nil {
		infos = []realtime.ConnectionInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"data": infos})
}
