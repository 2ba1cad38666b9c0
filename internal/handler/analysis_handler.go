package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moralgraph/moralgraph-backend-go/internal/llm"
	"github.com/moralgraph/moralgraph-backend-go/internal/models"
	"github.com/moralgraph/moralgraph-backend-go/internal/service"
	"github.com/moralgraph/moralgraph-backend-go/pkg/response"
)

// analysisFailedMessage is the single user-visible message for an exhausted
// retry loop, whatever the underlying cause was.
const analysisFailedMessage = "Analysis failed. Please try again."

// AnalysisHandler handles HTTP requests for scenario analysis
type AnalysisHandler struct {
	service *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// AnalyzeRequest represents the request body for submitting a scenario
type AnalyzeRequest struct {
	Action string `json:"action" binding:"required"`
	Intent string `json:"intent" binding:"required"`
	Mode   string `json:"mode" binding:"required"` // deontic or utilitarian
}

// Analyze judges a scenario and appends the plotted point
// POST /api/v1/analysis
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if !models.IsValidMode(req.Mode) {
		response.BadRequest(c, "Unknown mode: "+req.Mode)
		return
	}

	point, err := h.service.Analyze(c.Request.Context(), req.Action, req.Intent, req.Mode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAnalysisInFlight):
			response.Conflict(c, err.Error())
		case errors.Is(err, llm.ErrAnalysisFailed):
			response.BadGateway(c, analysisFailedMessage)
		default:
			response.InternalError(c, analysisFailedMessage)
		}
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Code:    0,
		Message: "success",
		Data:    point,
	})
}

// GetCacheStats returns judgement cache statistics
// GET /api/v1/analysis/cache
func (h *AnalysisHandler) GetCacheStats(c *gin.Context) {
	count, keys, err := h.service.CacheStats()
	if err != nil {
		response.InternalError(c, "Failed to read cache")
		return
	}

	response.Success(c, gin.H{
		"count": count,
		"keys":  keys,
	})
}

// ClearCache empties the judgement cache
// DELETE /api/v1/analysis/cache
func (h *AnalysisHandler) ClearCache(c *gin.Context) {
	removed, err := h.service.ClearCache()
	if err != nil {
		response.InternalError(c, "Failed to clear cache")
		return
	}

	response.Success(c, gin.H{"removed": removed})
}
