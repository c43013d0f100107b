package middleware

import (
	pkgzap "github.com/forbearing/jvspatial/logger/zap"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
)

// Recovery returns a gin.HandlerFunc that recovers from panics and
// logs them via the zap-backed access logger, directly adapted from
// the teacher's Recovery (gin-contrib/zap's RecoveryWithZap).
func Recovery(filename string) gin.HandlerFunc {
	return ginzap.RecoveryWithZap(pkgzap.NewGin(filename), true)
}
