package emergency

import (
	"errors"
	"net/http"

	"carecall-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Service *Service
}

func (h Handlers) Trigger(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" {
		req.UserID = "demo-user"
	}

	ctx := logger.With(c.Request.Context(), logger.FromGin(c))
	res, err := h.Service.Trigger(ctx, req)
	if err != nil {
		logger.FromGin(c).Error("emergency trigger failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "emergency trigger failed"})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h Handlers) Cancel(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.EmergencyID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "emergencyId is required"})
		return
	}

	ctx := logger.With(c.Request.Context(), logger.FromGin(c))
	res, err := h.Service.Cancel(ctx, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "emergency not found"})
			return
		}
		logger.FromGin(c).Error("emergency cancel failed", "emergency_id", req.EmergencyID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "emergency cancel failed"})
		return
	}

	c.JSON(http.StatusOK, res)
}
