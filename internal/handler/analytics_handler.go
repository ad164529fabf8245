package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumilearn/assess-backend/internal/middleware"
	"github.com/lumilearn/assess-backend/internal/response"
	"github.com/lumilearn/assess-backend/internal/service"
)

// AnalyticsHandler exposes the analytics engine to creators.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// Summary godoc
// GET /api/v1/manage/assessments/:assessmentId/analytics
// Score distribution, completion rate, average/median and pass rate.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	summary, err := h.analyticsService.Summary(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"analytics": summary})
}

// QuestionStats godoc
// GET /api/v1/manage/assessments/:assessmentId/analytics/questions
// Per-question difficulty and discrimination indices.
func (h *AnalyticsHandler) QuestionStats(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	stats, err := h.analyticsService.QuestionStats(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": stats})
}

// Trend godoc
// GET /api/v1/manage/assessments/:assessmentId/analytics/trend
// Average score by attempt number across candidates.
func (h *AnalyticsHandler) Trend(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	trend, err := h.analyticsService.Trend(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trend": trend})
}
