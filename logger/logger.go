// Package logger exposes one zap-backed Logger per subsystem, wired
// up by logger/zap.Init from config.Logger. Packages log through
// these package-level vars rather than constructing their own
// *zap.Logger, so every subsystem shares rotation/level/format policy
// and can be redirected (e.g. in tests) by swapping the var.
package logger

import (
	gormlogger "gorm.io/gorm/logger"

	casbinlogger "github.com/casbin/casbin/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface every subsystem var satisfies.
// Standard/structured/zap-field methods mirror the teacher's
// three-tier logging style; With/WithWalkerContext/WithEndpointContext
// attach request- or walk-scoped fields without callers needing to
// know they're holding a *zap.Logger underneath.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)

	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	Fatalw(msg string, keysAndValues ...any)

	Debugz(msg string, fields ...zap.Field)
	Infoz(msg string, fields ...zap.Field)
	Warnz(msg string, fields ...zap.Field)
	Errorz(msg string, fields ...zap.Field)
	Fatalz(msg string, fields ...zap.Field)

	ZapLogger() *zap.Logger
	With(fields ...string) Logger
	WithObject(name string, obj zapcore.ObjectMarshaler) Logger

	// WithWalkerContext attaches the walk's class and current depth,
	// grounded on the teacher's WithControllerContext/WithServiceContext
	// pattern (logger/zap/logger.go) generalized from HTTP request
	// scope to graph-traversal scope.
	WithWalkerContext(walkerClass string, depth int) Logger

	// WithEndpointContext attaches the route and request id, the
	// HTTP-facing analogue of WithWalkerContext.
	WithEndpointContext(route, requestID string) Logger
}

// Subsystem loggers, wired by logger/zap.Init. Until Init runs they
// are nil; callers only reach them after config.Init + logger
// initialization during server bootstrap.
var (
	Engine    Logger // walker dispatch loop
	Storage   Logger // storage.Adapter implementations
	Endpoint  Logger // HTTP dispatcher
	Webhook   Logger // webhook verification/idempotency/dispatch
	RateLimit Logger
	Authn     Logger
	Authz     Logger
	Graph     Logger
	Cron      Logger // background sweeps
	Audit     Logger // audit/access log persistence

	// Gin, Gorm, and Casbin are the third-party-interface loggers that
	// gin's access log, storage/sqlstore's GORM instance, and
	// authz/rbac's casbin enforcer each expect directly, rather than
	// the Logger interface above.
	Gin    *zap.Logger
	Gorm   gormlogger.Interface
	Casbin casbinlogger.Logger
)
