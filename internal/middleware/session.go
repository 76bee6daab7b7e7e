package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ihubtech/testportal-backend/internal/response"
	"github.com/ihubtech/testportal-backend/internal/service"
	"github.com/ihubtech/testportal-backend/internal/token"
)

// CheckSingleDeviceSession validates the login token's JTI against the
// session pinned in Redis. A mismatch means the session was reset (or a
// newer login won), and the request is rejected.
func CheckSingleDeviceSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetLoginClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		// Only candidates are pinned to a single device.
		if claims.Kind != token.PrincipalCandidate {
			c.Next()
			return
		}

		if err := authService.ValidateCandidateSession(c.Request.Context(), claims.PrincipalID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
