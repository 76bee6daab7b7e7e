package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ihubtech/testportal-backend/internal/response"
	"github.com/ihubtech/testportal-backend/internal/token"
)

const (
	// ContextKeyLoginClaims is the Gin context key for login token claims.
	ContextKeyLoginClaims = "login_claims"
	// ContextKeyContestClaims is the Gin context key for contest token claims.
	ContextKeyContestClaims = "contest_claims"
)

// RequireStaffJWT validates a staff login token from the Authorization header.
func RequireStaffJWT(tokens *token.Service) gin.HandlerFunc {
	return requireLoginJWT(tokens, token.PrincipalStaff, response.ErrStaffAccessOnly)
}

// RequireCandidateJWT validates a candidate login token from the
// Authorization header.
func RequireCandidateJWT(tokens *token.Service) gin.HandlerFunc {
	return requireLoginJWT(tokens, token.PrincipalCandidate, response.ErrCandidateAccessOnly)
}

func requireLoginJWT(tokens *token.Service, kind token.PrincipalKind, kindErr response.ErrCode) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := tokens.ValidateLoginToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, tokenErrCode(err))
			return
		}
		if claims.Kind != kind {
			response.AbortFail(c, http.StatusForbidden, kindErr)
			return
		}

		c.Set(ContextKeyLoginClaims, claims)
		c.Next()
	}
}

// RequireContestToken validates a contest-scoped delivery token. The token
// arrives in the X-Contest-Token header, or ?contest_token= for WebSocket
// upgrades that cannot set headers.
func RequireContestToken(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.GetHeader("X-Contest-Token")
		if tokenStr == "" {
			tokenStr = c.Query("contest_token")
		}
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := tokens.ValidateContestToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, tokenErrCode(err))
			return
		}

		c.Set(ContextKeyContestClaims, claims)
		c.Next()
	}
}

// RequireCandidateWSAuth validates a candidate login token from the query
// param ?token=... Used for WebSocket upgrade requests.
func RequireCandidateWSAuth(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := tokens.ValidateLoginToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, tokenErrCode(err))
			return
		}
		if claims.Kind != token.PrincipalCandidate {
			response.AbortFail(c, http.StatusForbidden, response.ErrCandidateAccessOnly)
			return
		}

		c.Set(ContextKeyLoginClaims, claims)
		c.Next()
	}
}

// GetLoginClaims retrieves login claims from the Gin context.
func GetLoginClaims(c *gin.Context) *token.LoginClaims {
	val, exists := c.Get(ContextKeyLoginClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*token.LoginClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetContestClaims retrieves contest claims from the Gin context.
func GetContestClaims(c *gin.Context) *token.ContestClaims {
	val, exists := c.Get(ContextKeyContestClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*token.ContestClaims)
	if !ok {
		return nil
	}
	return claims
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	// Fallback for clients that cannot send headers.
	return c.Query("token")
}

func tokenErrCode(err error) response.ErrCode {
	var cm *token.ClaimMissingError
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return response.ErrTokenExpired
	case errors.As(err, &cm):
		return response.ErrClaimMissing
	default:
		return response.ErrTokenInvalid
	}
}
