package router

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/conductor/internal/auth"
	"github.com/iliyamo/conductor/internal/config"
	"github.com/iliyamo/conductor/internal/handler"
	"github.com/iliyamo/conductor/internal/lock"
	"github.com/iliyamo/conductor/internal/middleware"
	"github.com/iliyamo/conductor/internal/queue"
	"github.com/iliyamo/conductor/internal/repository"
	"github.com/iliyamo/conductor/internal/service"
)

const lockTTL = 10 * time.Second

// Deps are the process-wide resources the API is built from. Redis and Events
// may be nil; the server then uses in-process locks, skips rate limiting and
// drops events.
type Deps struct {
	Config   config.Config
	DB       *sql.DB
	Redis    *redis.Client
	Events   queue.Publisher
	Log      *zap.Logger
	Registry *prometheus.Registry
	// Now overrides the clock in tests.
	Now func() time.Time
}

// New wires repositories, services and handlers and returns a ready echo
// instance with every route registered.
func New(d Deps) *echo.Echo {
	cfg := d.Config
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = queue.NopPublisher{}
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	now := service.Clock(d.Now)

	var locker lock.Locker = lock.NewLocalLocker()
	if d.Redis != nil {
		locker = lock.NewRedisLocker(d.Redis, "conductor:lock", lockTTL)
	}

	// ---- repositories ----
	users := repository.NewUserRepo(d.DB)
	tokens := repository.NewTokenRepo(d.DB)
	clients := repository.NewClientRepo(d.DB)
	projects := repository.NewProjectRepo(d.DB)
	tasks := repository.NewTaskRepo(d.DB)
	hours := repository.NewWorkHourRepo(d.DB)
	payments := repository.NewPaymentRepo(d.DB)

	// ---- services ----
	issuer := auth.NewIssuer(auth.Config{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
		Now:        d.Now,
	})
	sessions := service.NewSessionService(users, tokens, issuer, locker, d.Events, log, now)
	userSvc := service.NewUserService(users, cfg.BcryptCost, now)
	taskSvc := service.NewTaskService(tasks, hours, now)
	hourSvc := service.NewWorkHourService(hours, now)
	projectSvc := service.NewProjectService(projects, clients, tasks)
	paymentSvc := service.NewPaymentService(payments)
	invoiceSvc := service.NewInvoiceService(service.NewInvoiceStore(payments), locker, d.Events, log)
	dashboards := service.NewDashboardService(users, projects, tasks, hours, payments, now)

	// ---- echo ----
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	metrics := middleware.NewMetrics(d.Registry)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log.Named("http")))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, d.Redis, log))

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	authHandler := handler.NewAuthHandler(sessions, userSvc, handler.CookieConfig{
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
		TTL:      cfg.RefreshTTL(),
	}, metrics, log)

	RegisterRoutes(e)
	RegisterAuth(e, authHandler, sessions, middleware.NewTokenBucket(cfg.LoginRateLimit, d.Redis, log))
	RegisterAPI(e, Handlers{
		Users:      handler.NewUserHandler(userSvc, taskSvc, hourSvc),
		Tasks:      handler.NewTaskHandler(taskSvc, d.Now),
		Projects:   handler.NewProjectHandler(projectSvc),
		WorkHours:  handler.NewWorkHourHandler(hourSvc),
		Payments:   handler.NewPaymentHandler(paymentSvc, invoiceSvc),
		Dashboards: handler.NewDashboardHandler(dashboards),
	}, sessions)
	return e
}
