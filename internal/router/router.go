package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/hms-api/internal/middleware"
)

// Handler mounts routes on a single group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// SplitHandler mounts some routes publicly and the rest behind auth.
type SplitHandler interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

// MetricsHandler is the HTTP metrics collector; see handler/prometheus.
type MetricsHandler interface {
	Middleware() gin.HandlerFunc
}

type Router struct {
	engine    *gin.Engine
	auth      *middleware.AuthMiddleware
	rbac      *middleware.RBAC
	health    Handler
	split     []SplitHandler
	protected []Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	Timeout          time.Duration
	MaxBodySize      int64
}

type Handlers struct {
	Health    Handler
	Metrics   MetricsHandler
	Auth      SplitHandler
	Doctor    SplitHandler
	Protected []Handler
}

func NewRouter(auth *middleware.AuthMiddleware, rbac *middleware.RBAC, h Handlers, config RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine:    engine,
		auth:      auth,
		rbac:      rbac,
		health:    h.Health,
		split:     []SplitHandler{h.Auth, h.Doctor},
		protected: h.Protected,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)
	if h.Metrics != nil {
		engine.Use(h.Metrics.Middleware())
	}
	if config.MaxBodySize > 0 {
		engine.Use(middleware.SizeLimit(config.MaxBodySize))
	}
	engine.Use(middleware.Timeout(config.Timeout))

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	if r.health != nil {
		r.health.RegisterRoutes(api)
	}

	protected := api.Group("")
	protected.Use(
		r.auth.Authenticate(),
		r.rbac.Authorize(),
	)

	for _, h := range r.split {
		if h != nil {
			h.RegisterRoutes(api, protected)
		}
	}
	for _, h := range r.protected {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
