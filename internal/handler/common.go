package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lumilearn/assess-backend/internal/response"
	"github.com/lumilearn/assess-backend/internal/service"
)

// parseUUIDParam parses a UUID path parameter, sending INVALID_ID on failure.
// The boolean reports whether parsing succeeded.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// paginationParams reads page/per_page query params with sane bounds.
func paginationParams(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

// buildPagination assembles the pagination block from totals.
func buildPagination(page, perPage int, total int64) *response.Pagination {
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	}
}

// failService maps service-layer errors onto the response envelope. Every
// handler funnels unrecognized errors through the 500 default.
func failService(c *gin.Context, err error) {
	var notEligible *service.NotEligibleError
	if errors.As(err, &notEligible) {
		failNotEligible(c, notEligible)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrSessionNotActive):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
	case errors.Is(err, service.ErrSessionStillActive):
		response.Fail(c, http.StatusConflict, response.ErrSessionStillActive)
	case errors.Is(err, service.ErrQuestionNotInSession):
		response.Fail(c, http.StatusConflict, response.ErrQuestionNotInSession)
	case errors.Is(err, service.ErrInsufficientPool):
		response.Fail(c, http.StatusConflict, response.ErrInsufficientPool)
	case errors.Is(err, service.ErrAssessmentNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrAssessmentNotDraft)
	case errors.Is(err, service.ErrAssessmentNotLive):
		response.Fail(c, http.StatusConflict, response.ErrAssessmentNotPublished)
	case errors.Is(err, service.ErrReviewNotAllowed):
		response.Fail(c, http.StatusForbidden, response.ErrReviewNotAllowed)
	case errors.Is(err, service.ErrInvalidQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// failNotEligible translates an attempt governor denial. Cooldown denials
// carry the remaining wait in the message.
func failNotEligible(c *gin.Context, e *service.NotEligibleError) {
	switch e.Reason {
	case service.DenyNotPublished:
		response.Fail(c, http.StatusConflict, response.ErrAssessmentNotPublished)
	case service.DenyNotYetOpen:
		response.Fail(c, http.StatusConflict, response.ErrAssessmentNotYetOpen)
	case service.DenyClosed:
		response.Fail(c, http.StatusConflict, response.ErrAssessmentClosed)
	case service.DenyInvalidCode:
		response.Fail(c, http.StatusForbidden, response.ErrInvalidAccessCode)
	case service.DenyMaxAttemptsReached:
		response.Fail(c, http.StatusConflict, response.ErrMaxAttemptsReached)
	case service.DenyCooldownActive:
		response.FailWithMessage(c, http.StatusConflict, response.ErrCooldownActive,
			fmt.Sprintf("You must wait %d more minute(s) before starting a new attempt.", e.CooldownMinutes))
	default:
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	}
}
