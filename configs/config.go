package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/deathnote2501/consultant-ia-generative/internal/core/domain/subscription"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Email     EmailConfig
	Billing   BillingConfig
	Redis     RedisConfig
	AMQP      AMQPConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
	AllowOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	ProjectName    string
	BaseURL        string
	VerifyPath     string
	// VerificationTTL bounds how long a submitted email can be confirmed.
	VerificationTTL time.Duration
}

type BillingConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	FrontendURL         string
	Plans               PlanCatalog
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type AMQPConfig struct {
	URL      string
	Exchange string
	Enabled  bool
}

type CacheConfig struct {
	Prefix         string
	UserTTL        time.Duration
	EntitlementTTL time.Duration
}

// RateLimitConfig throttles verification email submissions per user.
type RateLimitConfig struct {
	SubmitEmailPerWindow int
	Window               time.Duration
	KeyPrefix            string
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	plans, err := ParsePlanCatalog(getEnv("PLAN_CATALOG", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8000"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:  getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:   getEnv("TLS_KEY_FILE", ""),
			AllowOrigins: getListEnv("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "courses_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		JWT: JWTConfig{
			Secret:          getEnvRequired("JWT_SECRET"),
			Issuer:          getEnv("JWT_ISSUER", "consultant-ia-generative"),
			AccessTokenTTL:  getDurationEnv("JWT_ACCESS_TTL", 30*time.Minute),
			RefreshTokenTTL: getDurationEnv("JWT_REFRESH_TTL", 24*7*time.Hour),
		},
		Email: EmailConfig{
			SendGridAPIKey:  getEnvRequired("SENDGRID_API_KEY"),
			FromEmail:       getEnv("FROM_EMAIL", "noreply@example.com"),
			FromName:        getEnv("FROM_NAME", "Consultant IA"),
			ProjectName:     getEnv("PROJECT_NAME", "Consultant IA Generative"),
			BaseURL:         strings.TrimRight(getEnvRequired("BASE_URL"), "/"),
			VerifyPath:      getEnv("EMAIL_VERIFY_PATH", "/auth/verify-submitted-email"),
			VerificationTTL: getDurationEnv("EMAIL_VERIFICATION_TTL", 24*time.Hour),
		},
		Billing: BillingConfig{
			StripeSecretKey:     getEnvRequired("STRIPE_SECRET_KEY"),
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			FrontendURL:         strings.TrimRight(getEnvRequired("FRONTEND_URL"), "/"),
			Plans:               plans,
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "courses.events"),
		},
		Cache: CacheConfig{
			Prefix:         getEnv("CACHE_PREFIX", "courses_cache"),
			UserTTL:        getDurationEnv("CACHE_USER_TTL", 5*time.Minute),
			EntitlementTTL: getDurationEnv("CACHE_ENTITLEMENT_TTL", time.Minute),
		},
		RateLimit: RateLimitConfig{
			SubmitEmailPerWindow: getIntEnv("RATE_LIMIT_SUBMIT_EMAIL", 5),
			Window:               getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
			KeyPrefix:            getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit:submit_email"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
	cfg.AMQP.Enabled = cfg.AMQP.URL != ""

	// Build database DSN
	cfg.Database.DSN = fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	return cfg, nil
}

// PlanCatalog maps provider price ids to the course and plan tag they sell.
type PlanCatalog map[string]subscription.Plan

func (c PlanCatalog) Lookup(priceID string) (subscription.Plan, bool) {
	p, ok := c[priceID]
	return p, ok
}

// ParsePlanCatalog reads entries of the form "price_id=course_id:plan_type",
// separated by commas. An empty string yields an empty catalog.
func ParsePlanCatalog(raw string) (PlanCatalog, error) {
	catalog := PlanCatalog{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		priceID, rest, ok := strings.Cut(entry, "=")
		if !ok || priceID == "" {
			return nil, fmt.Errorf("invalid plan catalog entry %q", entry)
		}
		courseRaw, planType, _ := strings.Cut(rest, ":")
		courseID, err := strconv.ParseInt(strings.TrimSpace(courseRaw), 10, 64)
		if err != nil || courseID <= 0 {
			return nil, fmt.Errorf("invalid course id in plan catalog entry %q", entry)
		}
		catalog[strings.TrimSpace(priceID)] = subscription.Plan{
			PriceID:  strings.TrimSpace(priceID),
			CourseID: courseID,
			PlanType: strings.TrimSpace(planType),
		}
	}
	return catalog, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
