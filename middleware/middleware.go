// Package middleware assembles the gin.Engine handler chain: global
// middlewares that run on every route and auth middlewares that run
// only on routes endpoint.Register marks auth=true, directly adapted
// from the teacher's CommonMiddlewares/AuthMiddlewares registration
// pattern (middleware/middleware.go).
package middleware

import (
	"github.com/gin-gonic/gin"
)

var (
	RouteManager      *routeParamsManager
	CommonMiddlewares = []gin.HandlerFunc{}
	AuthMiddlewares   = []gin.HandlerFunc{}
)

// Register adds global middlewares that apply to all routes. Must be
// called before the gin.Engine is built.
func Register(middlewares ...gin.HandlerFunc) {
	for _, m := range middlewares {
		if m != nil {
			CommonMiddlewares = append(CommonMiddlewares, m)
		}
	}
}

// RegisterAuth adds middlewares that apply only to authenticated
// routes, run after CommonMiddlewares and before the route handler.
func RegisterAuth(middlewares ...gin.HandlerFunc) {
	for _, m := range middlewares {
		if m != nil {
			AuthMiddlewares = append(AuthMiddlewares, m)
		}
	}
}

func Init() error {
	RouteManager = NewRouteParamsManager()
	return nil
}
