// Command jvspatiald is the HTTP server entrypoint: it loads
// configuration, wires logging/metrics/storage/RBAC, publishes the
// endpoint registry onto a gin.Engine, and serves until signalled,
// directly adapted from the ancestor project's cmd/<binary>/main.go
// bootstrap sequence (config.Init -> logger.Init -> database.Init ->
// router.Init -> graceful http.Server shutdown).
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/forbearing/jvspatial/audit"
	"github.com/forbearing/jvspatial/authn/jwt"
	"github.com/forbearing/jvspatial/authz/rbac"
	"github.com/forbearing/jvspatial/config"
	"github.com/forbearing/jvspatial/endpoint"
	"github.com/forbearing/jvspatial/graph"
	loggerzap "github.com/forbearing/jvspatial/logger/zap"
	"github.com/forbearing/jvspatial/metrics"
	"github.com/forbearing/jvspatial/middleware"
	"github.com/forbearing/jvspatial/ratelimit"
	"github.com/forbearing/jvspatial/storage"
	"github.com/forbearing/jvspatial/storage/mongostore"
	_ "github.com/forbearing/jvspatial/storage/memstore"
	"github.com/forbearing/jvspatial/storage/sqlstore"
	"github.com/forbearing/jvspatial/webhook"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config init failed: %v\n", err)
		os.Exit(1)
	}
	defer config.Clean()

	if err := loggerzap.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer loggerzap.Clean()

	if config.App.Metrics.Enable {
		if err := metrics.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "metrics init failed: %v\n", err)
			os.Exit(1)
		}
	}

	jwt.Configure(config.App.Auth.JWTSecret, config.App.Auth.JWTIssuer,
		parseDuration(config.App.Auth.AccessTokenTTL, 15*time.Minute),
		parseDuration(config.App.Auth.RefreshTokenTTL, 168*time.Hour))

	if v := os.Getenv(storage.DefaultBackendEnv); v != "" {
		config.App.Storage.Backend = v
	}
	backend, err := storage.Open(config.App.Storage.Backend, storageConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage open failed: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	rootCtx := graph.WithContext(context.Background(), backend)
	if _, err := graph.EnsureRoot(rootCtx); err != nil {
		fmt.Fprintf(os.Stderr, "root node init failed: %v\n", err)
		os.Exit(1)
	}

	if config.App.Auth.RBACEnable {
		if sqlBackend, ok := backend.(*sqlstore.Backend); ok {
			if err := rbac.Init(sqlBackend.DB(), config.Tempdir()); err != nil {
				fmt.Fprintf(os.Stderr, "rbac init failed: %v\n", err)
				os.Exit(1)
			}
		}
	}

	audit.Init(&config.App.Audit, backend)

	endpoint.InitRateLimit(ratelimit.Config{
		Requests: config.App.RateLimit.Requests,
		Window:   parseDuration(config.App.RateLimit.Window, time.Minute),
	})

	idem := webhook.NewIdempotency(backend)
	var redisClient *redis.Client
	if config.App.Redis.Enable {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.App.Redis.Addr,
			Password: config.App.Redis.Password,
			DB:       config.App.Redis.DB,
		})
		defer redisClient.Close()
		idem = idem.WithCache(redisClient)
	}
	dispatcher, err := webhook.NewDispatcher(config.App.Webhook.AsyncPoolSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "webhook dispatcher init failed: %v\n", err)
		os.Exit(1)
	}
	defer dispatcher.Release()
	endpoint.InitWebhooks(idem, dispatcher)

	sweeper := cron.New()
	sweepSpec := parseDuration(config.App.Cron.IdempotencySweep, 10*time.Minute)
	_, _ = sweeper.AddFunc(fmt.Sprintf("@every %s", sweepSpec), func() {
		if n, err := idem.Sweep(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "idempotency sweep failed: %v\n", err)
		} else if n > 0 {
			fmt.Fprintf(os.Stdout, "idempotency sweep removed %d expired entries\n", n)
		}
	})
	sweeper.Start()
	defer sweeper.Stop()

	if err := middleware.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "middleware init failed: %v\n", err)
		os.Exit(1)
	}
	middleware.Register(
		middleware.Recovery("panic.log"),
		middleware.RequestID(),
		middleware.Logger("access.log"),
		middleware.Timeout(parseDuration(config.App.Engine.DefaultTimeout, 30*time.Second)),
		middleware.RequestSizeLimit(10<<20),
		middleware.CORS(&middleware.CORSConfig{
			AllowOrigins: config.App.Server.CORSOrigins,
			AllowMethods: config.App.Server.CORSMethods,
			AllowHeaders: config.App.Server.CORSHeaders,
		}),
		middleware.SecurityHeaders(nil),
		middleware.RouteParams(),
	)

	if config.App.Mode == config.ModeDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	if config.App.Debug.Pprof {
		registerPprof(engine)
	}
	if config.App.Metrics.Enable {
		engine.GET(config.App.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	endpoint.Mount(engine, config.App.AppInfo, backend)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.App.Server.Host, config.App.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(config.App.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(config.App.Server.WriteTimeout) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(config.App.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// registerPprof mounts the stdlib net/http/pprof handlers; no pack
// example wires a gin-specific pprof adapter, so this stays on the
// standard library rather than adding an unwired dependency.
func registerPprof(engine *gin.Engine) {
	grp := engine.Group("/debug/pprof")
	grp.GET("/", gin.WrapF(pprof.Index))
	grp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	grp.GET("/profile", gin.WrapF(pprof.Profile))
	grp.POST("/symbol", gin.WrapF(pprof.Symbol))
	grp.GET("/symbol", gin.WrapF(pprof.Symbol))
	grp.GET("/trace", gin.WrapF(pprof.Trace))
	grp.GET("/:name", gin.WrapH(http.DefaultServeMux))
}

func storageConfig() any {
	switch config.App.Storage.Backend {
	case "sqlite":
		return sqlstore.Config{DSN: config.App.Storage.Sqlite.Path}
	case "postgres":
		return sqlstore.Config{
			DSN: fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				config.App.Storage.Postgres.Host, config.App.Storage.Postgres.Port,
				config.App.Storage.Postgres.User, config.App.Storage.Postgres.Password,
				config.App.Storage.Postgres.DBName, config.App.Storage.Postgres.SSLMode),
		}
	case "mongodb":
		return mongostore.Config{URI: config.App.Storage.Mongo.URI, Database: config.App.Storage.Mongo.Database}
	default:
		return nil
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
