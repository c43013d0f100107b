package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/forbearing/jvspatial/config"
	"github.com/forbearing/jvspatial/middleware"
	"github.com/forbearing/jvspatial/storage"
)

// Mount wires every registered endpoint.Registration plus the
// built-in auth/health/log routes onto engine, in the order the
// ancestor project's router.Init mounts controller handlers onto a
// gin.RouterGroup: global middlewares first, then the request-scoped
// storage binder, then the deny-by-default auth pipeline, then routes.
func Mount(engine *gin.Engine, app config.AppInfo, a storage.Adapter) {
	for _, m := range middleware.CommonMiddlewares {
		engine.Use(m)
	}
	engine.Use(BindStorage(a))
	engine.Use(AuthPipeline(a))

	RegisterBuiltins(&engine.RouterGroup, app, a)

	api := engine.Group("/api")
	for _, reg := range All() {
		for _, method := range reg.Methods {
			handlers := []gin.HandlerFunc{}
			if reg.Auth {
				handlers = append(handlers, middleware.AuthMiddlewares...)
			}
			api.Handle(method, reg.Path, append(handlers, reg.handler())...)
		}
		if middleware.RouteManager != nil {
			middleware.RouteManager.Add("/api" + reg.Path)
		}
	}
}
