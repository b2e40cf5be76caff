package route

import (
	"github.com/gin-gonic/gin"

	"github.com/bassista/proto_cache/internal/api/controller"
	"github.com/bassista/proto_cache/internal/api/middleware"
	"github.com/bassista/proto_cache/internal/app"
)

// NewConfigurationRouter sets up configuration-related routes.
func NewConfigurationRouter(appCtx *app.App, group *gin.RouterGroup) {
	cc := controller.NewConfigurationController(appCtx.Config)
	timeoutMiddleware := middleware.RequestTimeout(appCtx.Config.Server.RequestTimeout)

	group.GET("configuration", timeoutMiddleware, cc.GetConfiguration)
}
