package api

import (
	"net/http"

	authdelivery "ticktask-backend/internal/auth/delivery"
	"ticktask-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	requireAuth := authdelivery.AuthMiddleware(h.app.Auth, h.logger)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			sqlDB, err := h.app.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.authHandler.Login)
			auth.POST("/register", h.authHandler.Register)
			auth.POST("/refresh", h.authHandler.Refresh)
			auth.POST("/logout", h.authHandler.Logout)
			auth.GET("/me", requireAuth, h.authHandler.Me)
		}

		protected := api.Group("")
		protected.Use(requireAuth)
		{
			protected.GET("/me", h.authHandler.Me)
			protected.GET("/users", h.authHandler.ListUsers)
			protected.PUT("/users/:id/role", h.identityHandler.SetUserRole)

			// FCM routes
			protected.POST("/fcm/register", h.authHandler.RegisterFCMToken)
			protected.DELETE("/fcm/unregister", h.authHandler.UnregisterFCMToken)

			// Group routes
			protected.GET("/groups", h.identityHandler.ListGroups)
			protected.POST("/groups", h.identityHandler.CreateGroup)
			protected.GET("/groups/:id/members", h.identityHandler.ListMembers)
			protected.PUT("/groups/:id/members", h.identityHandler.SetMembership)
			protected.DELETE("/groups/:id/members/:user_id", h.identityHandler.RemoveMembership)

			// Task routes
			tasks := protected.Group("/tasks")
			{
				tasks.GET("", h.taskHandler.GetTasks)
				tasks.POST("", h.taskHandler.CreateTask)
				tasks.GET("/:id", h.taskHandler.GetTaskByID)
				tasks.PUT("/:id", h.taskHandler.UpdateTask)
				tasks.PATCH("/:id", h.taskHandler.UpdateTask)
				tasks.DELETE("/:id", h.taskHandler.DeleteTask)
				tasks.PATCH("/:id/status", h.taskHandler.UpdateTaskStatus)
				tasks.PUT("/:id/attachment", h.taskHandler.UploadAttachment)
				tasks.DELETE("/:id/attachment", h.taskHandler.RemoveAttachment)
				tasks.GET("/:id/comments", h.taskHandler.GetComments)
				tasks.POST("/:id/comments", h.taskHandler.AddComment)
			}
			protected.GET("/tasks-stats", h.taskHandler.GetStats)
			protected.GET("/summary-tasks", h.taskHandler.GetSummary)

			protected.GET("/activities", h.activityHandler.GetActivities)

			// Personal planner routes
			protected.GET("/notes", h.scheduleHandler.ListNotes)
			protected.POST("/notes", h.scheduleHandler.CreateNote)
			protected.DELETE("/notes/delete/:id", h.scheduleHandler.DeleteNote)
			schedules := protected.Group("/schedules")
			{
				schedules.GET("", h.scheduleHandler.ListSchedules)
				schedules.POST("", h.scheduleHandler.CreateSchedule)
				schedules.GET("/:id", h.scheduleHandler.GetSchedule)
				schedules.PUT("/:id", h.scheduleHandler.UpdateSchedule)
				schedules.PATCH("/:id", h.scheduleHandler.UpdateSchedule)
				schedules.DELETE("/:id", h.scheduleHandler.DeleteSchedule)
			}
			protected.GET("/dashboard-stats", h.scheduleHandler.GetDashboardStats)

			// Chat routes
			chat := protected.Group("/chat/:id")
			{
				chat.GET("", h.chatHandler.Messages)
				chat.GET("/messages", h.chatHandler.Messages)
				chat.POST("/send", h.chatHandler.Send)
				chat.POST("/seen", h.chatHandler.MarkSeen)
				chat.GET("/unread", h.chatHandler.Unread)
			}
			conversations := protected.Group("/conversations")
			{
				conversations.GET("", h.chatHandler.ListConversations)
				conversations.POST("/get_or_create", h.chatHandler.GetOrCreate)
				conversations.GET("/groups", h.chatHandler.ListGroups)
			}
		}
	}
}
