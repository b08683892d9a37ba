package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-datagen-service/http/controller"
	middlewares "github.com/tnqbao/gau-datagen-service/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}
	r.Use(middles.CORSMiddleware)

	apiRoutes := r.Group("/api/v1/datagen")
	{
		apiRoutes.POST("/generate", ctrl.CreateGenerateJob)
		apiRoutes.POST("/preview", ctrl.PreviewRecords)

		jobRoutes := apiRoutes.Group("/jobs")
		{
			jobRoutes.GET("/", ctrl.ListJobs)
			jobRoutes.GET("/:id", ctrl.GetJob)
			jobRoutes.GET("/:id/details", ctrl.GetJobDetails)
			jobRoutes.GET("/:id/download", ctrl.DownloadArtifact)
			jobRoutes.POST("/:id/cancel", ctrl.CancelJob)
			jobRoutes.DELETE("/:id", ctrl.DeleteJob)
		}

		templateRoutes := apiRoutes.Group("/templates")
		{
			templateRoutes.POST("/", ctrl.CreateTemplate)
			templateRoutes.GET("/", ctrl.ListTemplates)
			templateRoutes.GET("/:id", ctrl.GetTemplate)
			templateRoutes.PUT("/:id", ctrl.UpdateTemplate)
			templateRoutes.DELETE("/:id", ctrl.DeleteTemplate)
		}

		apiRoutes.GET("/data-types", ctrl.ListDataTypes)
		apiRoutes.GET("/stats", ctrl.GetStats)
	}
	return r
}
