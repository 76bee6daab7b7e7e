package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ihubtech/testportal-backend/internal/repository"
	"github.com/ihubtech/testportal-backend/internal/response"
	"github.com/ihubtech/testportal-backend/internal/service"
)

// failFromService maps service-layer errors onto HTTP status + error codes.
// Anything unmapped is an internal error; transient store exhaustion gets
// its own 503 so clients know a retry is worthwhile.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrContestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrContestNotFound)
	case errors.Is(err, service.ErrContestExists):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrNotContestOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrContestClosed):
		response.Fail(c, http.StatusConflict, response.ErrContestClosed)
	case errors.Is(err, service.ErrRegistrationOver):
		response.Fail(c, http.StatusForbidden, response.ErrRegistrationWindowOver)
	case errors.Is(err, service.ErrInvalidQuestion):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"questions": err.Error()})
	case errors.Is(err, service.ErrNoQuestionsAvailable):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestionsAvailable)
	case errors.Is(err, service.ErrInsufficientQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInsufficientQuestions)
	case errors.Is(err, service.ErrCandidateNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrCandidateNotFound)
	case errors.Is(err, service.ErrReportNotPublished):
		response.Fail(c, http.StatusForbidden, response.ErrReportNotPublished)
	case errors.Is(err, repository.ErrConflict):
		response.Fail(c, http.StatusConflict, response.ErrStoreConflict)
	case errors.Is(err, repository.ErrStoreUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
