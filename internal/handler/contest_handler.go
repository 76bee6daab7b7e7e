package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ihubtech/testportal-backend/internal/middleware"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/response"
	"github.com/ihubtech/testportal-backend/internal/service"
	"github.com/ihubtech/testportal-backend/internal/validator"
)

// ContestHandler handles staff-side contest management endpoints.
type ContestHandler struct {
	contestService *service.ContestService
	reportService  *service.ReportService
}

// NewContestHandler creates a new ContestHandler.
func NewContestHandler(contestService *service.ContestService, reportService *service.ReportService) *ContestHandler {
	return &ContestHandler{
		contestService: contestService,
		reportService:  reportService,
	}
}

// ListContests godoc
// GET /api/v1/staff/contests
func (h *ContestHandler) ListContests(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	contests, pagination, err := h.contestService.List(c.Request.Context(), claims.PrincipalID, page, perPage)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"contests": contests}, pagination)
}

// CreateContest godoc
// POST /api/v1/staff/contests
func (h *ContestHandler) CreateContest(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateContestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	contest, err := h.contestService.Create(c.Request.Context(), claims.PrincipalID, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"contest": contest})
}

// GetContest godoc
// GET /api/v1/staff/contests/:contest_id
func (h *ContestHandler) GetContest(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	contest, err := h.contestService.GetOwned(c.Request.Context(), claims.PrincipalID, c.Param("contest_id"))
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contest": contest})
}

// UpdateContest godoc
// PATCH /api/v1/staff/contests/:contest_id
func (h *ContestHandler) UpdateContest(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.UpdateContestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	contest, err := h.contestService.Update(c.Request.Context(), claims.PrincipalID, c.Param("contest_id"), &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contest": contest})
}

// DeleteContest godoc
// DELETE /api/v1/staff/contests/:contest_id
func (h *ContestHandler) DeleteContest(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.contestService.Delete(c.Request.Context(), claims.PrincipalID, c.Param("contest_id")); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// CloseContest godoc
// POST /api/v1/staff/contests/:contest_id/close
func (h *ContestHandler) CloseContest(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.contestService.Close(c.Request.Context(), claims.PrincipalID, c.Param("contest_id")); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "closed"})
}

// ListQuestions godoc
// GET /api/v1/staff/contests/:contest_id/questions
// Returns the full bank, correct answers included.
func (h *ContestHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questions, err := h.contestService.ListQuestions(c.Request.Context(), claims.PrincipalID, c.Param("contest_id"))
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AddQuestions godoc
// POST /api/v1/staff/contests/:contest_id/questions
// Appends to the bank; entries with an already-present question_id are skipped.
func (h *ContestHandler) AddQuestions(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AddQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	added, skipped, err := h.contestService.AddQuestions(c.Request.Context(), claims.PrincipalID, c.Param("contest_id"), req.Questions)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"added":   added,
		"skipped": skipped,
	})
}

// ReplaceQuestions godoc
// PUT /api/v1/staff/contests/:contest_id/questions
func (h *ContestHandler) ReplaceQuestions(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.contestService.ReplaceQuestions(c.Request.Context(), claims.PrincipalID, c.Param("contest_id"), req.Questions); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": len(req.Questions)})
}

// IssueEntryToken godoc
// POST /api/v1/staff/contests/:contest_id/token
// Mints a contest entry token on behalf of staff; skips the window check.
func (h *ContestHandler) IssueEntryToken(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	contestID := c.Param("contest_id")
	if _, err := h.contestService.GetOwned(c.Request.Context(), claims.PrincipalID, contestID); err != nil {
		failFromService(c, err)
		return
	}

	signed, err := h.contestService.IssueEntryToken(c.Request.Context(), contestID, false)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contest_token": signed})
}

// PublishReport godoc
// POST /api/v1/staff/contests/:contest_id/publish
// Flips the report gate; idempotent.
func (h *ContestHandler) PublishReport(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.reportService.Publish(c.Request.Context(), claims.PrincipalID, c.Param("contest_id")); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "published"})
}

// StaffCandidateReport godoc
// GET /api/v1/staff/contests/:contest_id/report/:candidate_id
// One candidate's projected report, publish gate not applied.
func (h *ContestHandler) StaffCandidateReport(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.reportService.StaffCandidateReport(c.Request.Context(),
		claims.PrincipalID, c.Param("contest_id"), c.Param("candidate_id"))
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": view})
}

// StaffReport godoc
// GET /api/v1/staff/contests/:contest_id/report
// Full ledger for the contest; not gated on publication.
func (h *ContestHandler) StaffReport(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	ledger, err := h.reportService.StaffReport(c.Request.Context(), claims.PrincipalID, c.Param("contest_id"))
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": ledger})
}
