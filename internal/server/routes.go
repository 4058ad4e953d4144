package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) routes(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(), gin.Recovery(), corsMiddleware(allowedOrigins))

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		public := api.Group("", s.rateLimit())
		public.POST("/register", s.handleRegister)
		public.POST("/login", s.handleLogin)
	}

	protected := api.Group("", s.requireAuth())
	{
		protected.POST("/profile", s.handleCreateProfile)
		protected.GET("/profile", s.handleGetProfile)
		protected.PUT("/profile", s.handleUpdateProfile)

		protected.POST("/goals", s.handleCreateGoal)
		protected.GET("/goals", s.handleListGoals)
		protected.GET("/goals/:id", s.handleGetGoal)

		protected.POST("/workout-plan", s.handleUpsertWorkoutPlan)
		protected.GET("/workout-plan", s.handleGetWorkoutPlan)
		protected.GET("/generate-new-workout", s.handleRegenerateWorkoutPlan)
		protected.POST("/generate-new-workout", s.handleRegenerateWorkoutPlan)

		protected.POST("/meal-plan", s.handleUpsertMealPlan)
		protected.GET("/meal-plan", s.handleGetMealPlan)

		protected.POST("/progress", s.handleCreateProgress)
		protected.GET("/progress", s.handleGetProgress)
		protected.PUT("/progress", s.handleUpdateProgress)

		protected.GET("/dashboard", s.handleDashboard)
	}

	return r
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	}
	return cors.New(config)
}
