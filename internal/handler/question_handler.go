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

// QuestionHandler handles question pool management for creators.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// CreatePool godoc
// POST /api/v1/manage/pools
func (h *QuestionHandler) CreatePool(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreatePoolRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pool, err := h.questionService.CreatePool(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"pool": pool})
}

// ListPools godoc
// GET /api/v1/manage/pools
func (h *QuestionHandler) ListPools(c *gin.Context) {
	claims := middleware.GetClaims(c)

	pools, err := h.questionService.ListPools(c.Request.Context(), claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"pools": pools})
}

// GetPool godoc
// GET /api/v1/manage/pools/:poolId
// Returns the pool with its full question list, correct indices included.
func (h *QuestionHandler) GetPool(c *gin.Context) {
	claims := middleware.GetClaims(c)
	poolID, ok := parseUUIDParam(c, "poolId")
	if !ok {
		return
	}

	pool, questions, err := h.questionService.GetPool(c.Request.Context(), poolID, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"pool":      pool,
		"questions": questions,
	})
}

// DeletePool godoc
// DELETE /api/v1/manage/pools/:poolId
func (h *QuestionHandler) DeletePool(c *gin.Context) {
	claims := middleware.GetClaims(c)
	poolID, ok := parseUUIDParam(c, "poolId")
	if !ok {
		return
	}

	if err := h.questionService.DeletePool(c.Request.Context(), poolID, claims.UserID); err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// AddQuestion godoc
// POST /api/v1/manage/pools/:poolId/questions
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	poolID, ok := parseUUIDParam(c, "poolId")
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.AddQuestion(c.Request.Context(), poolID, claims.UserID, &req)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// DeleteQuestion godoc
// DELETE /api/v1/manage/pools/:poolId/questions/:questionId
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	poolID, ok := parseUUIDParam(c, "poolId")
	if !ok {
		return
	}
	questionID, ok := parseUUIDParam(c, "questionId")
	if !ok {
		return
	}

	if err := h.questionService.DeleteQuestion(c.Request.Context(), poolID, questionID, claims.UserID); err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
