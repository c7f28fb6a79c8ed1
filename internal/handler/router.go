package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/hirestack/ats-api/internal/middleware"
	"github.com/hirestack/ats-api/internal/models"
	"github.com/hirestack/ats-api/internal/repository"
	"github.com/hirestack/ats-api/internal/service"
	"github.com/hirestack/ats-api/pkg/config"
	"github.com/hirestack/ats-api/pkg/logger"
	corsmiddleware "github.com/hirestack/ats-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hirestack/ats-api/pkg/middleware/requestid"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Cfg    *config.Config
	Logger *zap.Logger

	AuthService *service.AuthService
	Permissions middleware.PermissionChecker
	Metrics     *service.MetricsService
	AuditRepo   *repository.UserRepository

	Auth           *AuthHandler
	Users          *UserHandler
	Jobs           *JobHandler
	Candidates     *CandidateHandler
	Interviews     *InterviewHandler
	Assignments    *AssignmentHandler
	Tasks          *TaskHandler
	Communications *CommunicationHandler
	Templates      *TemplateHandler
	Analytics      *AnalyticsHandler
}

// NewRouter assembles the gin engine: global middleware, health probes, and
// every API route behind JWT plus the module:action permission gate.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	if deps.Cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.Cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/refresh", deps.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.AuthService))

	authed := protected.Group("/auth")
	{
		authed.POST("/logout", deps.Auth.Logout)
		authed.POST("/change-password", deps.Auth.ChangePassword)
		authed.GET("/me", deps.Auth.Me)
	}

	perm := func(module, action string) gin.HandlerFunc {
		return middleware.RequirePermission(deps.Permissions, module, action)
	}

	users := protected.Group("/users")
	{
		users.GET("", perm(models.ModuleUsers, models.ActionView), deps.Users.List)
		users.GET("/:id", perm(models.ModuleUsers, models.ActionView), deps.Users.Get)
		users.POST("", perm(models.ModuleUsers, models.ActionCreate), deps.Users.Create)
		users.PUT("/:id", perm(models.ModuleUsers, models.ActionEdit), deps.Users.Update)
		users.DELETE("/:id", perm(models.ModuleUsers, models.ActionDelete), deps.Users.Delete)

		// Permission administration is role-shaped: Admins only.
		admin := middleware.RequireRoles(models.RoleAdmin)
		audit := middleware.Audit(deps.AuditRepo, models.AuditActionPermissionChange, "permissions")
		users.GET("/:id/permissions", admin, deps.Users.ListPermissions)
		users.PUT("/:id/permissions", admin, audit, deps.Users.ReplacePermissions)
	}

	jobs := protected.Group("/jobs")
	{
		jobs.GET("", perm(models.ModuleJobs, models.ActionView), deps.Jobs.List)
		jobs.GET("/:id", perm(models.ModuleJobs, models.ActionView), deps.Jobs.Get)
		jobs.POST("", perm(models.ModuleJobs, models.ActionCreate), deps.Jobs.Create)
		jobs.PUT("/:id", perm(models.ModuleJobs, models.ActionEdit), deps.Jobs.Update)
		jobs.DELETE("/:id", perm(models.ModuleJobs, models.ActionDelete), deps.Jobs.Delete)
	}

	candidates := protected.Group("/candidates")
	{
		view := perm(models.ModuleCandidates, models.ActionView)
		edit := perm(models.ModuleCandidates, models.ActionEdit)

		candidates.GET("", view, deps.Candidates.List)
		candidates.GET("/:id", view, deps.Candidates.Get)
		candidates.POST("", perm(models.ModuleCandidates, models.ActionCreate), deps.Candidates.Create)
		candidates.PUT("/:id", edit, deps.Candidates.Update)
		candidates.PUT("/:id/stage", edit, deps.Candidates.UpdateStage)
		candidates.DELETE("/:id", perm(models.ModuleCandidates, models.ActionDelete), deps.Candidates.Delete)

		candidates.POST("/:id/resume", edit, deps.Candidates.UploadResume)
		candidates.GET("/:id/resume", view, deps.Candidates.DownloadResume)

		// Note and rating ownership is enforced in the service layer.
		candidates.GET("/:id/notes", view, deps.Candidates.ListNotes)
		candidates.POST("/:id/notes", edit, deps.Candidates.CreateNote)
		candidates.PUT("/:id/notes/:noteId", edit, deps.Candidates.UpdateNote)
		candidates.DELETE("/:id/notes/:noteId", edit, deps.Candidates.DeleteNote)

		candidates.GET("/:id/ratings", view, deps.Candidates.ListRatings)
		candidates.POST("/:id/ratings", edit, deps.Candidates.CreateRating)
		candidates.PUT("/:id/ratings/:ratingId", edit, deps.Candidates.UpdateRating)
		candidates.DELETE("/:id/ratings/:ratingId", edit, deps.Candidates.DeleteRating)
	}

	interviews := protected.Group("/interviews")
	{
		interviews.GET("", perm(models.ModuleInterviews, models.ActionView), deps.Interviews.List)
		interviews.GET("/:id", perm(models.ModuleInterviews, models.ActionView), deps.Interviews.Get)
		interviews.POST("", perm(models.ModuleInterviews, models.ActionCreate), deps.Interviews.Schedule)
		interviews.PUT("/:id", perm(models.ModuleInterviews, models.ActionEdit), deps.Interviews.Update)
		interviews.PUT("/:id/status", perm(models.ModuleInterviews, models.ActionEdit), deps.Interviews.UpdateStatus)
		interviews.DELETE("/:id", perm(models.ModuleInterviews, models.ActionDelete), deps.Interviews.Delete)
		interviews.GET("/:id/feedback", perm(models.ModuleInterviews, models.ActionView), deps.Interviews.GetFeedback)
		interviews.POST("/:id/feedback", perm(models.ModuleInterviews, models.ActionEdit), deps.Interviews.CreateFeedback)
	}

	assignments := protected.Group("/assignments")
	{
		assignments.GET("", perm(models.ModuleAssignments, models.ActionView), deps.Assignments.List)
		assignments.GET("/:id", perm(models.ModuleAssignments, models.ActionView), deps.Assignments.Get)
		assignments.POST("", perm(models.ModuleAssignments, models.ActionCreate), deps.Assignments.Create)
		assignments.PUT("/:id", perm(models.ModuleAssignments, models.ActionEdit), deps.Assignments.Update)
		assignments.PUT("/:id/status", perm(models.ModuleAssignments, models.ActionEdit), deps.Assignments.UpdateStatus)
		assignments.POST("/:id/send", perm(models.ModuleAssignments, models.ActionEdit), deps.Assignments.Send)
		assignments.POST("/:id/attachments", perm(models.ModuleAssignments, models.ActionEdit), deps.Assignments.UploadAttachment)
		assignments.DELETE("/:id", perm(models.ModuleAssignments, models.ActionDelete), deps.Assignments.Delete)
	}

	tasks := protected.Group("/tasks")
	{
		tasks.GET("", perm(models.ModuleTasks, models.ActionView), deps.Tasks.List)
		tasks.GET("/:id", perm(models.ModuleTasks, models.ActionView), deps.Tasks.Get)
		tasks.POST("", perm(models.ModuleTasks, models.ActionCreate), deps.Tasks.Create)
		tasks.PUT("/:id", perm(models.ModuleTasks, models.ActionEdit), deps.Tasks.Update)
		tasks.DELETE("/:id", perm(models.ModuleTasks, models.ActionDelete), deps.Tasks.Delete)
	}

	comms := protected.Group("/communications")
	{
		comms.GET("", perm(models.ModuleCommunications, models.ActionView), deps.Communications.List)
		comms.GET("/:id", perm(models.ModuleCommunications, models.ActionView), deps.Communications.Get)
		comms.POST("", perm(models.ModuleCommunications, models.ActionCreate), deps.Communications.Create)
		comms.PUT("/:id", perm(models.ModuleCommunications, models.ActionEdit), deps.Communications.Update)
		comms.DELETE("/:id", perm(models.ModuleCommunications, models.ActionDelete), deps.Communications.Delete)
	}

	templates := protected.Group("/templates")
	{
		templates.GET("", perm(models.ModuleTemplates, models.ActionView), deps.Templates.List)
		templates.GET("/:id", perm(models.ModuleTemplates, models.ActionView), deps.Templates.Get)
		templates.POST("", perm(models.ModuleTemplates, models.ActionCreate), deps.Templates.Create)
		templates.PUT("/:id", perm(models.ModuleTemplates, models.ActionEdit), deps.Templates.Update)
		templates.DELETE("/:id", perm(models.ModuleTemplates, models.ActionDelete), deps.Templates.Delete)
		templates.POST("/:id/preview", perm(models.ModuleTemplates, models.ActionView), deps.Templates.Preview)
		templates.POST("/:id/send", perm(models.ModuleTemplates, models.ActionEdit), deps.Templates.Send)
	}

	analytics := protected.Group("/analytics")
	analytics.Use(perm(models.ModuleAnalytics, models.ActionView))
	{
		analytics.GET("/pipeline", deps.Analytics.Pipeline)
		analytics.GET("/funnel", deps.Analytics.Funnel)
		analytics.GET("/time-to-hire", deps.Analytics.TimeToHire)
		analytics.GET("/sources", deps.Analytics.Sources)
		analytics.GET("/jobs", deps.Analytics.Jobs)
		analytics.GET("/system", deps.Analytics.System)
		analytics.GET("/export/csv", deps.Analytics.ExportCSV)
		analytics.GET("/export/pdf", deps.Analytics.ExportPDF)
	}

	return r
}
