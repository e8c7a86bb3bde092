package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/classtrack/classtrack-backend/internal/config"
	"github.com/classtrack/classtrack-backend/internal/handler"
	"github.com/classtrack/classtrack-backend/internal/middleware"
	"github.com/classtrack/classtrack-backend/internal/response"
	"github.com/classtrack/classtrack-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Session    *handler.SessionHandler
	Attendance *handler.AttendanceHandler
	Live       *handler.LiveHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	pool *pgxpool.Pool,
	rdb *redis.Client,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID and response compression apply globally.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	// Health check reporting dependency reachability.
	router.GET("/health", func(c *gin.Context) {
		ctx := c.Request.Context()
		dbOK := pool != nil && pool.Ping(ctx) == nil
		redisOK := rdb != nil && rdb.Ping(ctx).Err() == nil

		status := http.StatusOK
		if !dbOK || !redisOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbOK, "redis": redisOK})
	})

	// Prometheus metrics.
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ─── Auth Group ────────────────────────────────────────────────────
	auth := router.Group("/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/validate", middleware.RequireAuth(authService), handlers.Auth.Validate)
	}

	// ─── Session Group (teacher-facing) ────────────────────────────────
	sessions := router.Group("/attendanceSession", middleware.RequireAuth(authService))
	{
		sessions.POST("/sessions", handlers.Session.Create)
		sessions.GET("/sessions", handlers.Session.List)
		sessions.PATCH("/sessions/:id", handlers.Session.UpdateStatus)
		sessions.GET("/sessions/:id/attendance", handlers.Session.ListAttendance)
		sessions.GET("/sessions/:id/live", handlers.Live.SessionFeed)
	}

	// ─── Attendance Group (student-facing) ─────────────────────────────
	attendance := router.Group("/attendance", middleware.RequireAuth(authService))
	{
		attendance.POST("/mark", handlers.Attendance.Mark)
		attendance.GET("/history", handlers.Attendance.History)
	}

	return router
}
