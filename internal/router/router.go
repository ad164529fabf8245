package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lumilearn/assess-backend/internal/config"
	"github.com/lumilearn/assess-backend/internal/handler"
	"github.com/lumilearn/assess-backend/internal/middleware"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/lumilearn/assess-backend/internal/response"
	"github.com/lumilearn/assess-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Session    *handler.SessionHandler
	Question   *handler.QuestionHandler
	Assessment *handler.AssessmentHandler
	Analytics  *handler.AnalyticsHandler
	Monitor    *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
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
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Compress large JSON payloads; skips WebSocket upgrades itself.
	router.Use(middleware.Compress())

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
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Candidate Group (JWT + Single Device) ──────────────────────
	candidateAPI := router.Group("/api/v1")
	candidateAPI.Use(
		middleware.RequireJWT(authService),
		middleware.RequireRole(model.RoleCandidate),
		middleware.CheckSingleDeviceLogin(authService),
	)
	{
		candidateAPI.GET("/assessments", handlers.Session.Lobby)
		candidateAPI.POST("/assessments/:assessmentId/sessions", handlers.Session.Start)
		candidateAPI.GET("/sessions/:sessionId", handlers.Session.State)
		candidateAPI.POST("/sessions/:sessionId/answers", handlers.Session.SubmitAnswer)
		candidateAPI.POST("/sessions/:sessionId/complete", handlers.Session.Complete)
		candidateAPI.POST("/sessions/:sessionId/tab-switches", handlers.Session.TabSwitch)
		candidateAPI.GET("/sessions/:sessionId/result", handlers.Session.Result)
	}

	// ─── 3. Manage Group (Creators & Admins) ───────────────────────────
	manageAPI := router.Group("/api/v1/manage")
	manageAPI.Use(
		middleware.RequireJWT(authService),
		middleware.RequireRole(model.RoleCreator, model.RoleAdmin),
	)
	{
		// Question pools
		manageAPI.POST("/pools", handlers.Question.CreatePool)
		manageAPI.GET("/pools", handlers.Question.ListPools)
		manageAPI.GET("/pools/:poolId", handlers.Question.GetPool)
		manageAPI.DELETE("/pools/:poolId", handlers.Question.DeletePool)
		manageAPI.POST("/pools/:poolId/questions", handlers.Question.AddQuestion)
		manageAPI.DELETE("/pools/:poolId/questions/:questionId", handlers.Question.DeleteQuestion)

		// Assessments
		manageAPI.POST("/assessments", handlers.Assessment.Create)
		manageAPI.GET("/assessments", handlers.Assessment.List)
		manageAPI.GET("/assessments/:assessmentId", handlers.Assessment.Get)
		manageAPI.PUT("/assessments/:assessmentId", handlers.Assessment.Update)
		manageAPI.DELETE("/assessments/:assessmentId", handlers.Assessment.Delete)
		manageAPI.POST("/assessments/:assessmentId/publish", handlers.Assessment.Publish)
		manageAPI.POST("/assessments/:assessmentId/archive", handlers.Assessment.Archive)
		manageAPI.GET("/assessments/:assessmentId/results", handlers.Assessment.Results)

		// Analytics
		manageAPI.GET("/assessments/:assessmentId/analytics", handlers.Analytics.Summary)
		manageAPI.GET("/assessments/:assessmentId/analytics/questions", handlers.Analytics.QuestionStats)
		manageAPI.GET("/assessments/:assessmentId/analytics/trend", handlers.Analytics.Trend)

		// Proctoring review
		manageAPI.GET("/sessions/:sessionId/proctor-log", handlers.Assessment.ProctorLog)

		// Admin-only destructive reset
		manageAPI.DELETE("/assessments/:assessmentId/sessions",
			middleware.RequireRole(model.RoleAdmin),
			handlers.Assessment.ResetSessions,
		)
	}

	// ─── 4. WebSocket Group (Creator WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(authService),
		middleware.RequireRole(model.RoleCreator, model.RoleAdmin),
	)
	{
		ws.GET("/manage/assessments/:assessmentId/monitor", handlers.Monitor.MonitorStream)
	}

	return router
}
