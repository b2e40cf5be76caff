package route

import (
	"github.com/gin-gonic/gin"

	"github.com/bassista/proto_cache/internal/api/controller"
	"github.com/bassista/proto_cache/internal/api/middleware"
	"github.com/bassista/proto_cache/internal/app"
)

func NewPrototypeRouter(appCtx *app.App, group *gin.RouterGroup) {
	pc := controller.NewPrototypeController(appCtx.Repo)
	timeoutMiddleware := middleware.RequestTimeout(appCtx.Config.Server.RequestTimeout)

	group.GET("prototypes", timeoutMiddleware, pc.All)
	group.GET("prototypes/ids", timeoutMiddleware, pc.IDs)
	group.GET("prototypes/sample", timeoutMiddleware, pc.Sample)
	group.GET("prototypes/random", timeoutMiddleware, pc.Random)
	group.GET("prototype/:id", timeoutMiddleware, pc.ByID)
}
