package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessCheck returns nil when a dependency is ready.
type ReadinessCheck func(ctx context.Context) error

type RouterDeps struct {
	Routing    *RoutingHandler
	Onboarding *OnboardingHandler
	JWTSecret  string
	JWTIssuer  string
	Logger     *zap.Logger
	// Readiness checks run on /readyz, keyed by name.
	Readiness map[string]ReadinessCheck
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogger(d.Logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for name, check := range d.Readiness {
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": name + "_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 鉴权在解析 action 之前完成
	fn := r.Group("/functions")
	fn.Use(AuthMiddleware(d.JWTSecret, d.JWTIssuer))
	{
		fn.POST("/route-message", d.Routing.Handle)
		fn.POST("/onboarding", d.Onboarding.Handle)
	}

	return r
}
