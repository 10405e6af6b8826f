package router

import (
	"net/http"
	"time"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/handler"
	"github.com/examhall/examhall-backend/internal/middleware"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Organization *handler.OrganizationHandler
	User         *handler.UserHandler
	Exam         *handler.ExamHandler
	Question     *handler.QuestionHandler
	Taker        *handler.TakerHandler
	WS           *handler.WSHandler
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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for login (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Taker Group (JWT + Single Device) ──────────────────────────
	takerAPI := router.Group("/api/v1/taker")
	takerAPI.Use(
		middleware.RequireJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
		middleware.RequireRoles(model.RoleTaker),
	)
	{
		takerAPI.GET("/exams", handlers.Taker.ListExams)
		takerAPI.POST("/exams/:examID/start", handlers.Taker.Start)
		takerAPI.GET("/exams/:examID/paper", handlers.Taker.Paper)
		takerAPI.GET("/exams/:examID/state", handlers.Taker.State)
		takerAPI.POST("/exams/:examID/answer", handlers.Taker.SelectAnswer)
		takerAPI.POST("/exams/:examID/navigate", handlers.Taker.Navigate)
		takerAPI.POST("/exams/:examID/submit", handlers.Taker.Submit)
		takerAPI.GET("/exams/:examID/result", handlers.Taker.Result)
	}

	// ─── 3. WebSocket Group (Taker WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(authService),
		middleware.CheckSingleDeviceLogin(authService),
		middleware.RequireRoles(model.RoleTaker),
	)
	{
		ws.GET("/taker/exams/:examID/stream", handlers.WS.Stream)
	}

	// ─── 4. Org Admin Group ────────────────────────────────────────────
	orgAPI := router.Group("/api/v1/org")
	orgAPI.Use(
		middleware.RequireJWT(authService),
		middleware.RequireRoles(model.RoleOrgAdmin),
	)
	{
		// Taker accounts inside the caller's organization.
		orgAPI.GET("/users", handlers.User.ListOrgTakers)
		orgAPI.POST("/users", handlers.User.CreateOrgTaker)
		orgAPI.PUT("/users/:id", handlers.User.UpdateOrgTaker)
		orgAPI.DELETE("/users/:id", handlers.User.DeleteOrgTaker)
		orgAPI.POST("/users/:id/reset-login", handlers.User.ResetTakerLogin)

		// Exam lifecycle.
		orgAPI.GET("/exams", handlers.Exam.List)
		orgAPI.POST("/exams", handlers.Exam.Create)
		orgAPI.GET("/exams/:examID", handlers.Exam.Get)
		orgAPI.PUT("/exams/:examID", handlers.Exam.Update)
		orgAPI.DELETE("/exams/:examID", handlers.Exam.Delete)
		orgAPI.POST("/exams/:examID/publish", handlers.Exam.Publish)
		orgAPI.POST("/exams/:examID/archive", handlers.Exam.Archive)

		// Question authoring.
		orgAPI.GET("/exams/:examID/questions", handlers.Question.List)
		orgAPI.POST("/exams/:examID/questions", handlers.Question.Add)
		orgAPI.PUT("/exams/:examID/questions", handlers.Question.ReplaceAll)
		orgAPI.DELETE("/exams/:examID/questions/:questionID", handlers.Question.Delete)

		// Assignments and results.
		orgAPI.GET("/exams/:examID/assignments", handlers.Exam.ListAssignments)
		orgAPI.POST("/exams/:examID/assignments", handlers.Exam.Assign)
		orgAPI.DELETE("/exams/:examID/assignments/:userID", handlers.Exam.Unassign)
		orgAPI.GET("/exams/:examID/results", handlers.Exam.ListResults)
	}

	// ─── 5. Super Admin Group ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireJWT(authService),
		middleware.RequireRoles(model.RoleSuperAdmin),
	)
	{
		adminAPI.GET("/orgs", handlers.Organization.List)
		adminAPI.POST("/orgs", handlers.Organization.Create)
		adminAPI.GET("/orgs/:id", handlers.Organization.Get)
		adminAPI.PUT("/orgs/:id", handlers.Organization.Update)
		adminAPI.DELETE("/orgs/:id", handlers.Organization.Delete)

		adminAPI.GET("/users", handlers.User.List)
		adminAPI.POST("/users", handlers.User.Create)
		adminAPI.PUT("/users/:id", handlers.User.Update)
		adminAPI.DELETE("/users/:id", handlers.User.Delete)
	}

	return router
}
