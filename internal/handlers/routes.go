package handlers

import (
	"github.com/sang1833/EnglishPractice-sub000/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the attempt and statistics API under /protected/exam.
func RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc, attemptHandler *AttemptHandler, statisticsHandler *StatisticsHandler) {
	protected := r.Group("/protected/exam", middleware.RequestLogger("EXAM"), auth)

	attempts := protected.Group("/attempts")
	{
		attempts.POST("/start", attemptHandler.StartTest)
		attempts.GET("", attemptHandler.ListAttempts)
		attempts.GET("/:id", attemptHandler.GetAttempt)
		attempts.GET("/:id/exam", attemptHandler.GetAttemptExam)
		attempts.GET("/:id/answers", attemptHandler.GetAttemptAnswers)
		attempts.GET("/:id/result", attemptHandler.GetResult)
		attempts.POST("/:id/pause", attemptHandler.PauseTest)
		attempts.POST("/:id/submit", attemptHandler.SubmitTest)
		attempts.POST("/:id/abandon", attemptHandler.AbandonTest)
	}

	statistics := protected.Group("/statistics")
	{
		statistics.GET("/summary", statisticsHandler.Summary)
		statistics.GET("/chart", statisticsHandler.Chart)
	}
}
