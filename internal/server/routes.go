package server

import (
	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventboard/internal/handlers"
)

type routeDeps struct {
	auth          gin.HandlerFunc
	authHandler   *handlers.AuthHandler
	events        *handlers.EventHandler
	participants  *handlers.ParticipantHandler
	profiles      *handlers.ProfileHandler
	health        *handlers.HealthHandler
	metricsHandle gin.HandlerFunc
}

func setupRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/healthz", d.health.Healthz)
	r.GET("/readyz", d.health.Readyz)
	r.GET("/metrics", d.metricsHandle)

	public := r.Group("")
	{
		authPublic := public.Group("/auth")
		{
			authPublic.POST("/register", d.authHandler.Register)
			authPublic.POST("/login", d.authHandler.Login)
		}

		public.GET("/public/events", d.events.ListEvents)
		public.GET("/public/categories", handlers.ListCategories)
	}

	protected := r.Group("")
	protected.Use(d.auth)
	{
		protected.POST("/auth/logout", d.authHandler.Logout)

		events := protected.Group("/events")
		{
			events.GET("", d.events.ListEvents)
			events.POST("", d.events.CreateEvent)
			events.GET("/user/:userId", d.events.ListUserEvents)
			events.GET("/:id", d.events.GetEvent)
			events.PUT("/:id", d.events.UpdateEvent)
			events.DELETE("/:id", d.events.DeleteEvent)

			events.POST("/:id/participate", d.participants.Join)
			events.POST("/:id/participants", d.participants.Join)
			events.DELETE("/:id/participants", d.participants.Leave)
			events.DELETE("/:id/participants/:userId", d.participants.LeaveUser)
			events.GET("/:id/participants", d.participants.List)
			events.GET("/:id/participants/count", d.participants.Count)
			events.GET("/:id/participants/check", d.participants.Check)
		}

		users := protected.Group("/users")
		{
			users.GET("", d.profiles.ListUsers)
			users.POST("", d.profiles.CreateUser)
			users.GET("/me", d.profiles.GetProfile)
			users.PUT("/me", d.profiles.UpdateProfile)
			users.GET("/me/participations", d.profiles.MyParticipations)
			users.GET("/:id", d.profiles.GetUser)
		}
	}
}
