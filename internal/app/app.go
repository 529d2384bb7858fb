// Package app assembles services, handlers and the router from a Config and
// a repository Store.
package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/hms-api/internal/config"
	"github.com/jwalitptl/hms-api/internal/email"
	adminh "github.com/jwalitptl/hms-api/internal/handler/admin"
	appointmenth "github.com/jwalitptl/hms-api/internal/handler/appointment"
	authh "github.com/jwalitptl/hms-api/internal/handler/auth"
	doctorh "github.com/jwalitptl/hms-api/internal/handler/doctor"
	"github.com/jwalitptl/hms-api/internal/handler/health"
	historyh "github.com/jwalitptl/hms-api/internal/handler/history"
	patienth "github.com/jwalitptl/hms-api/internal/handler/patient"
	promh "github.com/jwalitptl/hms-api/internal/handler/prometheus"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/router"
	"github.com/jwalitptl/hms-api/internal/service/appointment"
	authsvc "github.com/jwalitptl/hms-api/internal/service/auth"
	"github.com/jwalitptl/hms-api/internal/service/history"
	"github.com/jwalitptl/hms-api/internal/service/notification"
	"github.com/jwalitptl/hms-api/internal/service/patient"
	"github.com/jwalitptl/hms-api/internal/service/slot"
	"github.com/jwalitptl/hms-api/internal/service/stats"
	"github.com/jwalitptl/hms-api/internal/service/user"
	"github.com/jwalitptl/hms-api/pkg/auth"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/security"
)

const metricsNamespace = "hms"

// Deps are the outside resources. Broker, Email and DB may be nil.
type Deps struct {
	Store  *repository.Store
	DB     health.Pinger
	Broker messaging.Broker
	Email  email.Service
	Log    *logger.Logger
	// BcryptCost overrides bcrypt.DefaultCost; tests use bcrypt.MinCost.
	BcryptCost int
	// Now overrides the clock for slot windows and history checks.
	Now func() time.Time
}

// Services are exposed for the CLI, which seeds users through them.
type Services struct {
	Auth         *authsvc.Service
	Users        *user.Service
	Patients     *patient.Service
	Appointments *appointment.Service
	Slots        *slot.Service
	History      *history.Service
	Stats        *stats.Service
	Hasher       security.PasswordHasher
}

type App struct {
	Services *Services
	Registry *prometheus.Registry
	router   *router.Router
}

func New(cfg *config.Config, deps Deps) (*App, error) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	domainMetrics := metrics.NewMetrics(registry, metricsNamespace)

	store := deps.Store
	hasher := security.NewBcryptHasher(cost)
	jwtSvc := auth.NewJWTService(cfg.AuthConfig())

	notifier := notification.NewService(store.Users, deps.Email, deps.Broker, cfg.Redis.Channel, log)
	authz := history.NewAuthorizer(store.Relations, store.Appointments, history.AuthorizerConfig{
		StrictUpdates: cfg.History.StrictUpdates,
		Location:      loc,
	}, log)

	historySvc := history.NewService(store.History, store.Appointments, authz, domainMetrics)
	historySvc.SetClock(now)

	appointmentSvc := appointment.NewService(store.Users, store.Appointments, notifier, domainMetrics, log)
	appointmentSvc.SetClock(now)

	svcs := &Services{
		Auth:         authsvc.NewService(store.Users, jwtSvc, hasher, log),
		Users:        user.NewService(store.Users, store.Blacklist, hasher, cfg.UserCacheConfig(), log),
		Patients:     patient.NewService(store.Users, store.Relations, hasher),
		Appointments: appointmentSvc,
		Slots:        slot.NewService(store.Users, store.Appointments, slot.WithClock(now), slot.WithLocation(loc)),
		History:      historySvc,
		Stats:        stats.NewService(store.Stats),
		Hasher:       hasher,
	}

	rbac, err := middleware.NewRBAC(middleware.DefaultPolicies("/api/v1"))
	if err != nil {
		return nil, fmt.Errorf("failed to build rbac: %w", err)
	}
	if err := middleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	httpMetrics := promh.New(registry, metricsNamespace)
	r := router.NewRouter(middleware.NewAuthMiddleware(svcs.Auth), rbac, router.Handlers{
		Health:  health.NewHandler(deps.DB, httpMetrics.Handler()),
		Metrics: httpMetrics,
		Auth:    authh.NewHandler(svcs.Auth),
		Doctor:  doctorh.NewHandler(svcs.Users, svcs.Slots),
		Protected: []router.Handler{
			appointmenth.NewHandler(svcs.Appointments),
			historyh.NewHandler(svcs.History),
			patienth.NewHandler(svcs.Patients),
			adminh.NewHandler(svcs.Users, svcs.Patients, svcs.Appointments, svcs.Stats),
		},
	}, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       middleware.DefaultCORSConfig(),
		Timeout:          time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		MaxBodySize:      middleware.DefaultMaxBodySize,
	})
	r.Setup()

	return &App{Services: svcs, Registry: registry, router: r}, nil
}

func (a *App) Engine() *gin.Engine {
	return a.router.Engine()
}
