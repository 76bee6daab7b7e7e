package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ihubtech/testportal-backend/internal/middleware"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/response"
	"github.com/ihubtech/testportal-backend/internal/service"
	"github.com/ihubtech/testportal-backend/internal/validator"
)

// AuthHandler handles staff and candidate authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// StaffLogin godoc
// POST /api/v1/auth/staff/login
func (h *AuthHandler) StaffLogin(c *gin.Context) {
	var req model.StaffLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	signed, staff, err := h.authService.LoginStaff(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": signed,
		"staff": staff,
	})
}

// CandidateLogin godoc
// POST /api/v1/auth/candidate/login
func (h *AuthHandler) CandidateLogin(c *gin.Context) {
	var req model.CandidateLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	signed, cand, err := h.authService.LoginCandidate(c.Request.Context(), req.CandidateID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		case errors.Is(err, service.ErrSessionAlreadyActive):
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":     signed,
		"candidate": cand,
	})
}

// CandidateLogout godoc
// POST /api/v1/auth/candidate/logout
// Releases the candidate's own pinned session.
func (h *AuthHandler) CandidateLogout(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.LogoutCandidate(c.Request.Context(), claims.PrincipalID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "logged out"})
}

// GetStaffProfile godoc
// GET /api/v1/auth/staff/me
func (h *AuthHandler) GetStaffProfile(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	staff, err := h.authService.StaffProfile(c.Request.Context(), claims.PrincipalID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"staff": staff})
}

// GetCandidateProfile godoc
// GET /api/v1/auth/candidate/me
func (h *AuthHandler) GetCandidateProfile(c *gin.Context) {
	claims := middleware.GetLoginClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	cand, err := h.authService.CandidateProfile(c.Request.Context(), claims.PrincipalID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": cand})
}

// ResetCandidateSession godoc
// DELETE /api/v1/staff/candidates/:candidate_id/session
// Staff-side escape hatch when a candidate is locked out by a stale session.
func (h *AuthHandler) ResetCandidateSession(c *gin.Context) {
	candidateID := c.Param("candidate_id")
	if candidateID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.authService.ResetCandidateSession(c.Request.Context(), candidateID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "session reset"})
}
