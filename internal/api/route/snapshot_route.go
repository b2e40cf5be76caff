package route

import (
	"github.com/gin-gonic/gin"

	"github.com/bassista/proto_cache/internal/api/controller"
	"github.com/bassista/proto_cache/internal/api/middleware"
	"github.com/bassista/proto_cache/internal/app"
)

func NewSnapshotRouter(appCtx *app.App, group *gin.RouterGroup) {
	sc := controller.NewSnapshotController(appCtx.Repo, appCtx.Store, appCtx.Store)
	timeoutMiddleware := middleware.RequestTimeout(appCtx.Config.Server.RequestTimeout)

	group.POST("snapshot/setup", timeoutMiddleware, sc.Setup)
	group.POST("snapshot/refresh", timeoutMiddleware, sc.Refresh)
	group.GET("snapshot/stats", timeoutMiddleware, sc.Stats)
	group.DELETE("snapshot", timeoutMiddleware, sc.Clear)
}
