package httpserver

import (
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	customMiddleware "github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/httpserver/middleware"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	ProjectName    string
}

type ServerDeps struct {
	EmailVerification ports.EmailVerificationService
	Subscriptions     ports.SubscriptionService
	Sessions          ports.SessionService
	Reconciler        ports.BillingReconciler
	WebhookDecoder    ports.BillingWebhookDecoder
	TokenValidator    ports.TokenValidator
	Users             ports.UserRepository
	HealthCheckers    []ports.HealthChecker
	// RateLimiter throttles verification email submissions; nil disables it.
	RateLimiter ports.RateLimiter
}

type Server struct {
	echo              *echo.Echo
	config            *ServerConfig
	logger            *logrus.Logger
	emailVerification ports.EmailVerificationService
	subscriptions     ports.SubscriptionService
	sessions          ports.SessionService
	reconciler        ports.BillingReconciler
	webhookDecoder    ports.BillingWebhookDecoder
	middleware        *customMiddleware.MiddlewareCollection
	healthCheckers    []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewRequestValidator()

	server := &Server{
		echo:              e,
		config:            serverConfig,
		logger:            logger,
		emailVerification: deps.EmailVerification,
		subscriptions:     deps.Subscriptions,
		sessions:          deps.Sessions,
		reconciler:        deps.Reconciler,
		webhookDecoder:    deps.WebhookDecoder,
		healthCheckers:    deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.TokenValidator,
			deps.Users,
			deps.RateLimiter,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
