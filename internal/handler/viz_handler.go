package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/moralgraph/moralgraph-backend-go/internal/service"
	"github.com/moralgraph/moralgraph-backend-go/internal/viz"
	"github.com/moralgraph/moralgraph-backend-go/pkg/response"
)

// VizHandler handles HTTP requests for render metadata
type VizHandler struct {
	points *service.PointService
}

// NewVizHandler creates a new viz handler
func NewVizHandler(points *service.PointService) *VizHandler {
	return &VizHandler{points: points}
}

// Render returns the scene for the current point store
// GET /api/v1/viz/render
func (h *VizHandler) Render(c *gin.Context) {
	points, err := h.points.List()
	if err != nil {
		response.InternalError(c, "Failed to load points")
		return
	}

	response.Success(c, viz.BuildScene(points))
}
