package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"bookmytime/handlers"
	"bookmytime/middleware"
	"bookmytime/models"
)

// RegisterAppointmentRoutes registers the booking lifecycle endpoints.
func RegisterAppointmentRoutes(r *gin.Engine) {
	api := r.Group("/api/appointments")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", middleware.RequireRole(models.RoleClient), handlers.CreateAppointment)
		api.GET("/me", handlers.ListMyAppointments)
		api.GET("/:id", handlers.GetAppointment)
		api.POST("/:id/confirm", middleware.RequireRole(models.RoleProvider), handlers.ConfirmAppointment)
		api.POST("/:id/cancel", handlers.CancelAppointment)
		api.POST("/:id/complete", middleware.RequireRole(models.RoleProvider), handlers.CompleteAppointment)
		api.POST("/:id/no-show", middleware.RequireRole(models.RoleProvider), handlers.MarkNoShow)
		api.POST("/:id/reviews", handlers.CreateReview)
	}
}

// RegisterProviderRoutes registers profile, catalog, and availability
// management endpoints. Reads are public; writes require the owner.
func RegisterProviderRoutes(r *gin.Engine) {
	api := r.Group("/api/providers")
	{
		api.GET("/:id", handlers.GetProviderProfile)
		api.GET("/:id/services", handlers.ListProviderServices)
		api.GET("/:id/availability", handlers.GetProviderAvailability)
		api.GET("/:id/reviews", handlers.ListProviderReviews)

		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole(models.RoleProvider))
		protected.POST("/:id/services", handlers.CreateService)
		protected.POST("/:id/availability", handlers.CreateAvailability)
		protected.DELETE("/:id/availability/:slotId", handlers.RetireAvailability)
	}
}

// RegisterSearchRoutes registers the public discovery endpoints.
func RegisterSearchRoutes(r *gin.Engine) {
	api := r.Group("/api/search")
	{
		api.GET("/providers", handlers.SearchProviders)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm BookMyTime"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterSearchRoutes(r)
	RegisterProviderRoutes(r)
	RegisterAppointmentRoutes(r)
}
