package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studentbridge-backend/internal/handlers"
)

func wireRouter(student *handlers.StudentHandler, intervention *handlers.InterventionHandler) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", handlers.HealthCheck)

	api := router.Group("/api")
	{
		students := api.Group("/students")
		students.POST("/:id/signals", student.RecordSignal)
		students.POST("/:id/assess", student.Assess)
		students.POST("/:id/plan", student.Plan)
		students.GET("/:id/assessments", student.AssessmentHistory)
		students.GET("/:id/interventions", intervention.ListByStudent)
		students.POST("/:id/rescale", student.Rescale)
		students.GET("/:id/level", student.CurrentLevel)

		interventions := api.Group("/interventions")
		interventions.POST("/:id/track", intervention.Track)
		interventions.POST("/:id/metrics", intervention.RecordMetric)
		interventions.GET("/:id/effectiveness", intervention.Effectiveness)
	}

	return router
}
