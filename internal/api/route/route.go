package route

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/proto_cache/internal/app"
)

func SetupRoutes(r *gin.Engine, appCtx *app.App) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})

	publicRouter := r.Group("")

	// All Public APIs
	NewSnapshotRouter(appCtx, publicRouter)
	NewPrototypeRouter(appCtx, publicRouter)
	NewConfigurationRouter(appCtx, publicRouter)
}
