package routes

import (
	"github.com/gin-gonic/gin"

	"medsim/controllers"
	"medsim/middleware"
)

func SetupRoutes(
	router *gin.RouterGroup,
	users *controllers.UserController,
	ai *controllers.AIController,
	progress *controllers.ProgressController,
	scenarios *controllers.ScenarioController,
	sessions *controllers.SessionController,
) {
	router.POST("/signup", users.Signup())
	router.POST("/login", users.Login())

	protected := router.Group("/")
	protected.Use(middleware.Authenticate())
	{
		protected.GET("/me", users.GetMe())

		protected.POST("/ai/dialogue", ai.Dialogue())
		protected.POST("/ai/feedback", ai.Feedback())
		protected.POST("/ai/analyze", ai.Analyze())

		protected.POST("/progress/attempt", progress.RecordAttempt())
		protected.GET("/progress/:userId", progress.GetProgress())
		protected.GET("/progress/:userId/predict/:scenarioId", progress.Predict())

		protected.GET("/scenarios", scenarios.List())
		protected.POST("/scenarios", scenarios.Create())
		protected.GET("/scenarios/:id", scenarios.GetByID())
		protected.GET("/scenarios/:id/stats", scenarios.Stats())

		protected.POST("/sessions", sessions.Create())
		protected.GET("/sessions/:id", sessions.Get())
		protected.DELETE("/sessions/:id", sessions.End())
	}
}
