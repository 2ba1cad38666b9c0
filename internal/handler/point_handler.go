package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moralgraph/moralgraph-backend-go/internal/service"
	"github.com/moralgraph/moralgraph-backend-go/pkg/response"
)

// PointHandler handles HTTP requests for the point store
type PointHandler struct {
	service *service.PointService
}

// NewPointHandler creates a new point handler
func NewPointHandler(service *service.PointService) *PointHandler {
	return &PointHandler{service: service}
}

// List returns all plotted points in insertion order
// GET /api/v1/points
func (h *PointHandler) List(c *gin.Context) {
	points, err := h.service.List()
	if err != nil {
		response.InternalError(c, "Failed to list points")
		return
	}

	response.Success(c, gin.H{
		"points": points,
		"count":  len(points),
	})
}

// Summary returns the most recent points first plus aggregate figures
// GET /api/v1/points/summary
func (h *PointHandler) Summary(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 10
	}

	summary, err := h.service.Summary(limit)
	if err != nil {
		response.InternalError(c, "Failed to build summary")
		return
	}

	response.Success(c, summary)
}

// Remove deletes one point by ID
// DELETE /api/v1/points/:id
func (h *PointHandler) Remove(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.Remove(id); err != nil {
		if errors.Is(err, service.ErrPointNotFound) {
			response.NotFound(c, "Point not found")
			return
		}
		response.InternalError(c, "Failed to remove point")
		return
	}

	response.Success(c, gin.H{"removed": id})
}

// Clear removes every plotted point
// DELETE /api/v1/points
func (h *PointHandler) Clear(c *gin.Context) {
	removed, err := h.service.Clear()
	if err != nil {
		response.InternalError(c, "Failed to clear points")
		return
	}

	response.Success(c, gin.H{"removed": removed})
}

// ToggleUncertainty flips one point's uncertainty-display flag
// POST /api/v1/points/:id/uncertainty
func (h *PointHandler) ToggleUncertainty(c *gin.Context) {
	id := c.Param("id")

	point, err := h.service.ToggleUncertainty(id)
	if err != nil {
		if errors.Is(err, service.ErrPointNotFound) {
			response.NotFound(c, "Point not found")
			return
		}
		response.InternalError(c, "Failed to toggle uncertainty")
		return
	}

	response.Success(c, point)
}
