package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ihubtech/testportal-backend/internal/middleware"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/response"
	"github.com/ihubtech/testportal-backend/internal/service"
	"github.com/ihubtech/testportal-backend/internal/validator"
)

// DeliveryHandler handles the candidate-side attempt flow: contest entry,
// paper retrieval, submission and the post-publication report.
type DeliveryHandler struct {
	contestService *service.ContestService
	paperService   *service.PaperService
	reportService  *service.ReportService
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(contestService *service.ContestService, paperService *service.PaperService, reportService *service.ReportService) *DeliveryHandler {
	return &DeliveryHandler{
		contestService: contestService,
		paperService:   paperService,
		reportService:  reportService,
	}
}

// EnterContest godoc
// POST /api/v1/candidate/contests/:contest_id/enter
// Exchanges a candidate login for a contest-scoped entry token. The
// registration window is enforced here; staff use their own issuance route.
func (h *DeliveryHandler) EnterContest(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	signed, err := h.contestService.IssueEntryToken(c.Request.Context(), c.Param("contest_id"), true)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contest_token": signed})
}

// GetPaper godoc
// GET /api/v1/candidate/delivery/paper
// Serves the candidate's question paper for the contest named by the entry
// token. The first successful call pins the attempt start time.
func (h *DeliveryHandler) GetPaper(c *gin.Context) {
	login := middleware.GetLoginClaims(c)
	contest := middleware.GetContestClaims(c)
	if login == nil || contest == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	paper, err := h.paperService.BuildPaper(c.Request.Context(), contest.ContestID, login.PrincipalID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// Submit godoc
// POST /api/v1/candidate/delivery/submit
// Grades the answer set and upserts the candidate's grade record.
func (h *DeliveryHandler) Submit(c *gin.Context) {
	login := middleware.GetLoginClaims(c)
	contest := middleware.GetContestClaims(c)
	if login == nil || contest == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.reportService.RecordSubmission(c.Request.Context(), contest.ContestID, login.PrincipalID, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// CandidateReport godoc
// GET /api/v1/candidate/contests/:contest_id/report
// Only available once staff publish the contest's report.
func (h *DeliveryHandler) CandidateReport(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.reportService.CandidateReport(c.Request.Context(), c.Param("contest_id"), claims.PrincipalID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": view})
}
