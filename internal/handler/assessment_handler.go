package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumilearn/assess-backend/internal/middleware"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/lumilearn/assess-backend/internal/response"
	"github.com/lumilearn/assess-backend/internal/service"
	"github.com/lumilearn/assess-backend/internal/validator"
)

// AssessmentHandler handles assessment management for creators, plus the
// admin-only session reset.
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
	sessionService    *service.SessionService
	proctorService    *service.ProctorService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(
	assessmentService *service.AssessmentService,
	sessionService *service.SessionService,
	proctorService *service.ProctorService,
) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
		sessionService:    sessionService,
		proctorService:    proctorService,
	}
}

// Create godoc
// POST /api/v1/manage/assessments
func (h *AssessmentHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a, err := h.assessmentService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"assessment": a})
}

// List godoc
// GET /api/v1/manage/assessments
func (h *AssessmentHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, perPage := paginationParams(c)

	assessments, total, err := h.assessmentService.List(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		failService(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"assessments": assessments}, buildPagination(page, perPage, total))
}

// Get godoc
// GET /api/v1/manage/assessments/:assessmentId
func (h *AssessmentHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	a, err := h.assessmentService.Get(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assessment": a})
}

// Update godoc
// PUT /api/v1/manage/assessments/:assessmentId
// Drafts only; published assessments are immutable.
func (h *AssessmentHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	var req model.UpdateAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a, err := h.assessmentService.Update(c.Request.Context(), id, claims.UserID, &req)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assessment": a})
}

// Publish godoc
// POST /api/v1/manage/assessments/:assessmentId/publish
func (h *AssessmentHandler) Publish(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	a, err := h.assessmentService.Publish(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assessment": a})
}

// Archive godoc
// POST /api/v1/manage/assessments/:assessmentId/archive
func (h *AssessmentHandler) Archive(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	a, err := h.assessmentService.Archive(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assessment": a})
}

// Delete godoc
// DELETE /api/v1/manage/assessments/:assessmentId
func (h *AssessmentHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	if err := h.assessmentService.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Results godoc
// GET /api/v1/manage/assessments/:assessmentId/results
// Paginated session outcomes joined with candidate names.
func (h *AssessmentHandler) Results(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}
	page, perPage := paginationParams(c)

	results, total, err := h.assessmentService.Results(c.Request.Context(), id, claims.UserID, page, perPage)
	if err != nil {
		failService(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"results": results}, buildPagination(page, perPage, total))
}

// ProctorLog godoc
// GET /api/v1/manage/sessions/:sessionId/proctor-log
// The ordered tab-switch log of one session, for post-hoc review.
func (h *AssessmentHandler) ProctorLog(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "sessionId")
	if !ok {
		return
	}

	if _, err := h.assessmentService.VerifySessionAccess(c.Request.Context(), sessionID, claims.UserID); err != nil {
		failService(c, err)
		return
	}

	count, events, err := h.proctorService.GetLog(c.Request.Context(), sessionID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"tab_switch_count": count,
		"events":           events,
	})
}

// ResetSessions godoc
// DELETE /api/v1/manage/assessments/:assessmentId/sessions
// Admin-only destructive reset of all sessions and answers.
func (h *AssessmentHandler) ResetSessions(c *gin.Context) {
	id, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	deleted, err := h.sessionService.ResetSessions(c.Request.Context(), id)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sessions_deleted": deleted})
}
