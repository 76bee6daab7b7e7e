package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ihubtech/testportal-backend/internal/config"
	"github.com/ihubtech/testportal-backend/internal/handler"
	"github.com/ihubtech/testportal-backend/internal/middleware"
	"github.com/ihubtech/testportal-backend/internal/response"
	"github.com/ihubtech/testportal-backend/internal/service"
	"github.com/ihubtech/testportal-backend/internal/token"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Contest  *handler.ContestHandler
	Delivery *handler.DeliveryHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokens *token.Service,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Contest-Token"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/staff/login", handlers.Auth.StaffLogin)
		auth.POST("/candidate/login", handlers.Auth.CandidateLogin)

		// Authenticated profile routes
		auth.POST("/candidate/logout", middleware.RequireCandidateJWT(tokens), handlers.Auth.CandidateLogout)
		auth.GET("/candidate/me", middleware.RequireCandidateJWT(tokens), handlers.Auth.GetCandidateProfile)
		auth.GET("/staff/me", middleware.RequireStaffJWT(tokens), handlers.Auth.GetStaffProfile)
	}

	// ─── 2. Staff Group (JWT) ──────────────────────────────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(middleware.RequireStaffJWT(tokens))
	{
		staffAPI.GET("/contests", handlers.Contest.ListContests)
		staffAPI.POST("/contests", handlers.Contest.CreateContest)
		staffAPI.GET("/contests/:contest_id", handlers.Contest.GetContest)
		staffAPI.PATCH("/contests/:contest_id", handlers.Contest.UpdateContest)
		staffAPI.DELETE("/contests/:contest_id", handlers.Contest.DeleteContest)
		staffAPI.POST("/contests/:contest_id/close", handlers.Contest.CloseContest)

		staffAPI.GET("/contests/:contest_id/questions", handlers.Contest.ListQuestions)
		staffAPI.POST("/contests/:contest_id/questions", handlers.Contest.AddQuestions)
		staffAPI.PUT("/contests/:contest_id/questions", handlers.Contest.ReplaceQuestions)

		staffAPI.POST("/contests/:contest_id/token", handlers.Contest.IssueEntryToken)
		staffAPI.POST("/contests/:contest_id/publish", handlers.Contest.PublishReport)
		staffAPI.GET("/contests/:contest_id/report", handlers.Contest.StaffReport)
		staffAPI.GET("/contests/:contest_id/report/:candidate_id", handlers.Contest.StaffCandidateReport)

		staffAPI.DELETE("/candidates/:candidate_id/session", handlers.Auth.ResetCandidateSession)
	}

	// ─── 3. Candidate Group (JWT + Single Device) ──────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(tokens),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		candidateAPI.POST("/contests/:contest_id/enter", handlers.Delivery.EnterContest)
		candidateAPI.GET("/contests/:contest_id/report", handlers.Delivery.CandidateReport)

		// Delivery routes additionally require the contest entry token.
		delivery := candidateAPI.Group("/delivery")
		delivery.Use(middleware.RequireContestToken(tokens))
		{
			delivery.GET("/paper", handlers.Delivery.GetPaper)
			delivery.POST("/submit", handlers.Delivery.Submit)
		}
	}

	// ─── 4. WebSocket Group (Candidate WS Auth + Contest Token) ────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireCandidateWSAuth(tokens),
		middleware.CheckSingleDeviceSession(authService),
		middleware.RequireContestToken(tokens),
	)
	{
		ws.GET("/candidate/proctor", handlers.WS.ProctorStream)
	}

	return router
}
