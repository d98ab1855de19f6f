package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	config "github.com/deathnote2501/consultant-ia-generative/configs"
	"github.com/deathnote2501/consultant-ia-generative/internal/application/services"
	"github.com/deathnote2501/consultant-ia-generative/internal/core/ports"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/db"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/email"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/health"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/httpserver"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/messaging"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/payment"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/redis"
	"github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/repositories"
	"github.com/deathnote2501/consultant-ia-generative/internal/utils"
	"github.com/sirupsen/logrus"
)

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := newLogger(cfg.Log)
	logger.Info("Starting course subscription service...")

	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()
	logger.Info("Connected to database successfully")

	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations:", err)
	}

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis successfully")

	hcSlice := []ports.HealthChecker{health.NewDBHealthChecker(database), health.NewRedisHealthChecker(redisClient)}

	var publisher ports.EventPublisher = messaging.NewNoopPublisher(logger)
	if cfg.AMQP.Enabled {
		conn, err := messaging.Connect(cfg.AMQP.URL, 5, 2*time.Second)
		if err != nil {
			logger.Fatal("Failed to connect to AMQP broker:", err)
		}
		amqpPublisher, err := messaging.NewAMQPPublisher(conn, cfg.AMQP.Exchange, logger)
		if err != nil {
			logger.Fatal("Failed to set up AMQP publisher:", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		hcSlice = append(hcSlice, health.NewAMQPHealthChecker(amqpPublisher.Connection()))
		logger.WithField("exchange", cfg.AMQP.Exchange).Info("Publishing domain events to AMQP")
	}

	redisCache := redis.NewRedisCache(redisClient, cfg.Cache.Prefix)
	userRepo := repositories.NewCachingUserRepository(repositories.NewUserRepository(database, logger), redisCache, cfg.Cache.UserTTL)
	subscriptionRepo := repositories.NewCachingSubscriptionRepository(repositories.NewSubscriptionRepository(database, logger), redisCache, cfg.Cache.EntitlementTTL)
	refreshTokens := repositories.NewRefreshTokenRedisRepository(redisClient, logger)
	clock := utils.SystemClock{}
	rateLimiter := services.NewRateLimiterService(repositories.NewRateLimitRedisRepository(redisClient, clock, logger), &services.RateLimiterConfig{
		RequestsPerWindow: cfg.RateLimit.SubmitEmailPerWindow,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         cfg.RateLimit.KeyPrefix,
	}, logger)

	authService := services.NewAuthService(refreshTokens, &cfg.JWT, clock, logger)

	dispatcher := email.NewSendGridDispatcher(&email.EmailConfig{
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		FromEmail:      cfg.Email.FromEmail,
		FromName:       cfg.Email.FromName,
	}, logger)

	emailVerification := services.NewEmailVerificationService(
		userRepo,
		dispatcher,
		authService,
		publisher,
		utils.URLSafeTokenGenerator{Bytes: utils.VerificationTokenBytes},
		clock,
		services.EmailVerificationConfig{
			ProjectName: cfg.Email.ProjectName,
			BaseURL:     cfg.Email.BaseURL,
			VerifyPath:  cfg.Email.VerifyPath,
			TokenTTL:    cfg.Email.VerificationTTL,
		},
		logger,
	)

	subscriptionService := services.NewSubscriptionService(
		subscriptionRepo,
		payment.NewStripeCheckoutGateway(cfg.Billing.StripeSecretKey, logger),
		publisher,
		clock,
		services.SubscriptionConfig{FrontendURL: cfg.Billing.FrontendURL},
		logger,
	)
	if cfg.Billing.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET is not set; billing webhooks will be rejected")
	}
	reconciler := services.NewBillingReconciler(subscriptionService, cfg.Billing.Plans, logger)

	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowOrigins,
		ProjectName:    cfg.Email.ProjectName,
	}

	deps := httpserver.ServerDeps{
		EmailVerification: emailVerification,
		Subscriptions:     subscriptionService,
		Sessions:          services.NewSessionService(authService, refreshTokens, userRepo, logger),
		Reconciler:        reconciler,
		WebhookDecoder:    payment.NewStripeWebhookDecoder(cfg.Billing.StripeWebhookSecret),
		TokenValidator:    authService,
		Users:             userRepo,
		HealthCheckers:    hcSlice,
		RateLimiter:       rateLimiter,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, 10*time.Second); err != nil {
		logger.WithError(err).Error("server stopped with error")
	}

	logger.Info("Server exited")
}
