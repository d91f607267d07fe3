package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/internal/handlers"
	"github.com/launchdeck/launchdeck/backend/internal/middleware"
	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	db := models.GetDB()

	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())
	r.Use(middleware.AuditLog())

	healthHandler := handlers.NewHealthHandler(db, svc.taskQueue, svc.llm)
	r.GET("/health", healthHandler.CheckHealth)

	// Locally stored uploads are served straight from disk
	if svc.cfg.Storage.Driver == "local" && strings.HasPrefix(svc.cfg.Storage.PublicBaseURL, "/") {
		r.Static(svc.cfg.Storage.PublicBaseURL, svc.cfg.Storage.LocalDir)
	}

	authHandler := handlers.NewAuthHandler(db, svc.cfg, svc.views)
	projectHandler := handlers.NewProjectHandler(db, svc.views, svc.blobs)
	memberHandler := handlers.NewMemberHandler(db)
	teamMemberHandler := handlers.NewTeamMemberHandler(db, svc.views)
	contentHandler := handlers.NewContentHandler(db, svc.blobs, svc.taskQueue, svc.views)
	scoringHandler := handlers.NewScoringHandler(db, svc.llm, svc.scoreTimeout)
	systemLogHandler := handlers.NewSystemLogHandler(db)

	scoringLimiter := middleware.NewRateLimiter(svc.cfg.RateLimit.ScoringRPS, svc.cfg.RateLimit.ScoringBurst)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/config", authHandler.GetAuthConfig)
		}

		// Public reads; private projects still resolve for members
		public := api.Group("")
		public.Use(middleware.OptionalAuth())
		{
			public.GET("/projects", projectHandler.List)
			public.GET("/projects/:id", projectHandler.Get)
			public.GET("/projects/:id/team-members", teamMemberHandler.List)
			public.GET("/projects/:id/contents", contentHandler.List)
			public.GET("/projects/:id/contents/:contentID", contentHandler.Get)
			public.GET("/projects/:id/scoring", scoringHandler.Latest)
			public.GET("/users/:id/profile", projectHandler.Profile)
		}

		// Scoring resolves the session itself so that body validation comes first
		scoring := api.Group("/projects/:id/scoring")
		scoring.Use(middleware.OptionalAuth(), scoringLimiter.Middleware())
		{
			scoring.POST("", scoringHandler.Generate)
			scoring.OPTIONS("", scoringHandler.Preflight)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", authHandler.GetCurrentUser)
			protected.POST("/auth/logout", authHandler.Logout)
			protected.POST("/auth/change-password", authHandler.ChangePassword)
			protected.PUT("/profile", authHandler.UpdateProfile)

			// Projects
			protected.GET("/projects/mine", projectHandler.ListMine)
			protected.POST("/projects", projectHandler.Create)
			protected.PUT("/projects/:id", projectHandler.Update)
			protected.DELETE("/projects/:id", projectHandler.Delete)
			protected.GET("/projects/:id/snapshots", projectHandler.Versions)

			// Publication
			protected.POST("/projects/:id/publication", projectHandler.TogglePublication)
			protected.POST("/projects/:id/publish", projectHandler.PublishDraft)

			// Permissions
			protected.GET("/projects/:id/permissions", memberHandler.List)
			protected.POST("/projects/:id/permissions", memberHandler.Invite)
			protected.PUT("/projects/:id/permissions/:userID", memberHandler.UpdateRole)
			protected.DELETE("/projects/:id/permissions/:userID", memberHandler.Remove)
			protected.POST("/projects/:id/transfer-ownership", memberHandler.TransferOwnership)

			// Team members
			protected.POST("/projects/:id/team-members", teamMemberHandler.Create)
			protected.PUT("/projects/:id/team-members/:memberID", teamMemberHandler.Update)
			protected.DELETE("/projects/:id/team-members/:memberID", teamMemberHandler.Delete)

			// Documents
			protected.POST("/projects/:id/contents", contentHandler.Create)
			protected.PUT("/projects/:id/contents/:contentID", contentHandler.Update)
			protected.DELETE("/projects/:id/contents/:contentID", contentHandler.Delete)

			// Activity
			protected.GET("/projects/:id/activity", systemLogHandler.List)
		}
	}
}
