package handlers

import (
	"errors"
	"io"
	"net/http"

	"bey-cash/internal/utils"

	"github.com/gin-gonic/gin"
)

type heartbeatRequest struct {
	DeviceID string `json:"device_id"`
}

// --- POST: /api/heartbeat ---
// The cashier terminal pings this while logged in.
func (h *Handler) Heartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request")
		return
	}
	if req.DeviceID == "" {
		req.DeviceID = utils.GetDeviceID()
	}
	hb, err := h.Store.RecordHeartbeat(c.Request.Context(), currentUser(c), c.GetString("username"), req.DeviceID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hb)
}

// GetSystemStatus reports the server device and who is online.
func (h *Handler) GetSystemStatus(c *gin.Context) {
	online, err := h.Store.OnlineUsers(c.Request.Context(), OnlineWindow)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"device_id":    utils.GetDeviceID(),
		"online_users": online,
	})
}
