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

// SessionHandler is the candidate portal: the lobby, starting and running
// an attempt, and reviewing results.
type SessionHandler struct {
	sessionService *service.SessionService
	proctorService *service.ProctorService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, proctorService *service.ProctorService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		proctorService: proctorService,
	}
}

// Lobby godoc
// GET /api/v1/assessments
// Published assessments with the candidate's own session status overlaid.
func (h *SessionHandler) Lobby(c *gin.Context) {
	claims := middleware.GetClaims(c)

	lobby, err := h.sessionService.GetLobby(c.Request.Context(), claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assessments": lobby})
}

// Start godoc
// POST /api/v1/assessments/:assessmentId/sessions
// Starts a new attempt or resumes the in-progress one. Eligibility denials
// come back with a reason-specific error code.
func (h *SessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	assessmentID, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), assessmentID, claims.UserID, req.AccessCode)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// State godoc
// GET /api/v1/sessions/:sessionId
// Full reconnect state: questions in order, answers so far, remaining time.
func (h *SessionHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "sessionId")
	if !ok {
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// SubmitAnswer godoc
// POST /api/v1/sessions/:sessionId/answers
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "sessionId")
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	answer, err := h.sessionService.SubmitAnswer(c.Request.Context(), sessionID, claims.UserID, &req)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"answer": answer})
}

// Complete godoc
// POST /api/v1/sessions/:sessionId/complete
// Explicit completion; grades and finalizes the session.
func (h *SessionHandler) Complete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "sessionId")
	if !ok {
		return
	}

	session, err := h.sessionService.Complete(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// TabSwitch godoc
// POST /api/v1/sessions/:sessionId/tab-switches
// Reports that the exam tab lost visibility. Returns the running count.
func (h *SessionHandler) TabSwitch(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "sessionId")
	if !ok {
		return
	}

	count, err := h.proctorService.RecordTabSwitch(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tab_switch_count": count})
}

// Result godoc
// GET /api/v1/sessions/:sessionId/result
// Finalized outcome with percentile rank. Gated by the assessment's
// allow_review flag.
func (h *SessionHandler) Result(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseUUIDParam(c, "sessionId")
	if !ok {
		return
	}

	result, err := h.sessionService.Result(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}
