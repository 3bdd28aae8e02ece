package router

import (
	"net/http"

	"Volunteer_Hub/internal/handler"
	"Volunteer_Hub/internal/metrics"
	"Volunteer_Hub/internal/middleware"
	"Volunteer_Hub/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Opportunity  *handler.OpportunityHandler
	Application  *handler.ApplicationHandler
	Review       *handler.ReviewHandler
	Notification *handler.NotificationHandler
	User         *handler.UserHandler
	Admin        *handler.AdminHandler
}

type Options struct {
	Log  *zap.Logger
	Auth middleware.Authenticator
	// Limiter 为 nil 时不限流
	Limiter *middleware.RateLimiter
}

func InitRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(opts.Log), middleware.Recovery(opts.Log), metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"msg": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	limit := func(c *gin.Context) { c.Next() }
	if opts.Limiter != nil {
		limit = opts.Limiter.Handler()
	}
	auth := middleware.AuthMiddleware(opts.Auth)
	volunteer := middleware.RequireRole(model.RoleVolunteer)
	organization := middleware.RequireRole(model.RoleOrganization)
	admin := middleware.RequireRole(model.RoleAdmin)

	api := r.Group("/api")

	// 认证相关接口
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", limit, h.Auth.Register)
		authGroup.POST("/login", limit, h.Auth.Login)
		authGroup.POST("/refresh", limit, h.Auth.Refresh)
		authGroup.POST("/logout", auth, h.Auth.Logout)
		authGroup.GET("/me", auth, h.Auth.Me)
		authGroup.POST("/change-password", auth, limit, h.Auth.ChangePassword)
	}

	// 活动相关接口
	oppGroup := api.Group("/opportunities")
	{
		oppGroup.GET("", h.Opportunity.List)
		oppGroup.GET("/:id", h.Opportunity.Get)
		oppGroup.GET("/my", auth, organization, h.Opportunity.Mine)
		oppGroup.POST("", auth, organization, limit, h.Opportunity.Create)
		oppGroup.PUT("/:id", auth, organization, limit, h.Opportunity.Update)
		oppGroup.DELETE("/:id", auth, limit, h.Opportunity.Delete)
		oppGroup.GET("/:id/applications", auth, h.Application.ListForOpportunity)
	}

	// 申请相关接口
	appGroup := api.Group("/applications")
	appGroup.Use(auth)
	{
		appGroup.POST("", volunteer, limit, h.Application.Create)
		appGroup.GET("/check/:opportunity_id", h.Application.Check)
		appGroup.GET("/:id", h.Application.Get)
		appGroup.PUT("/:id/status", organization, limit, h.Application.UpdateStatus)
		appGroup.PUT("/:id/withdraw", volunteer, limit, h.Application.Withdraw)
	}

	// 评价相关接口
	reviewGroup := api.Group("/reviews")
	{
		reviewGroup.POST("", auth, limit, h.Review.Create)
		reviewGroup.GET("/:id", h.Review.Get)
		reviewGroup.GET("/user/:user_id", h.Review.ListForUser)
	}

	// 通知相关接口
	notifyGroup := api.Group("/notifications")
	notifyGroup.Use(auth)
	{
		notifyGroup.GET("", h.Notification.List)
		notifyGroup.GET("/unread-count", h.Notification.UnreadCount)
		notifyGroup.PUT("/read-all", h.Notification.MarkAllRead)
		notifyGroup.PUT("/:id/read", h.Notification.MarkRead)
		notifyGroup.DELETE("/:id", h.Notification.Delete)
	}

	// 用户相关接口
	userGroup := api.Group("/users")
	{
		userGroup.GET("/:id", h.User.Profile)
		userGroup.PUT("/profile", auth, limit, h.User.UpdateProfile)
		userGroup.GET("/me/applications", auth, h.Application.ListMine)
		userGroup.GET("/me/history", auth, volunteer, h.User.History)
	}

	// 管理端接口
	adminGroup := api.Group("/admin")
	adminGroup.Use(auth, admin)
	{
		adminGroup.GET("/stats", h.Admin.Stats)
		adminGroup.GET("/dashboard", h.Admin.Stats)
		adminGroup.GET("/organizations", h.Admin.Organizations)
		adminGroup.PUT("/users/:id/status", limit, h.Admin.SetUserStatus)
		adminGroup.PUT("/organizations/:id/verify", limit, h.Admin.VerifyOrganization)
		adminGroup.PUT("/opportunities/:id/feature", limit, h.Admin.FeatureOpportunity)
	}

	return r
}
