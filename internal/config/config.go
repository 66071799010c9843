package config // package config loads application configuration from environment variables

import (
	"log"      // log is used to report configuration errors and halt execution
	"net/http" // http.SameSite for the refresh cookie
	"os"       // os provides access to environment variables
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  It is built once in main and passed explicitly to
// the components that need it; nothing reads the environment later.
type Config struct {
	Env            string // application environment (development, production, test)
	Port           string // HTTP port to listen on
	DBDriver       string // mysql or sqlite3
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBPath         string // sqlite file path
	JWTSecret      string // secret used to sign JWTs
	JWTIssuer      string // iss claim
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	CORSAllowedOrigins []string
	CookieSecure       bool
	CookieSameSite     http.SameSite

	RabbitMQURL          string // empty disables event publishing
	AuditConsumerEnabled bool

	Redis          RedisConfig
	Logger         LoggerConfig
	RateLimit      RateLimitConfig
	LoginRateLimit RateLimitConfig
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout or file
	FilePath   string
	MaxSize    int // megabytes per file before rotation
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	Stacktrace bool
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	env := envStr("APP_ENV", "development")
	cfg := Config{
		Env:            env,
		Port:           envStr("APP_PORT", "8080"),
		DBDriver:       strings.ToLower(envStr("DB_DRIVER", "mysql")),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBPath:         envStr("DB_PATH", "conductor.db"),
		JWTSecret:      must("JWT_SECRET"),
		JWTIssuer:      envStr("JWT_ISSUER", "conductor-api"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 14),
		BcryptCost:     envInt("BCRYPT_COST", 12),

		CORSAllowedOrigins: splitCSV(envStr("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		CookieSecure:       envBool("COOKIE_SECURE", env == "production"),
		CookieSameSite:     parseSameSite(envStr("COOKIE_SAMESITE", "lax")),

		RabbitMQURL:          envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		AuditConsumerEnabled: envBool("AUDIT_CONSUMER_ENABLED", false),

		Redis:          LoadRedisConfig(),
		Logger:         LoadLoggerConfig(),
		RateLimit:      LoadRateLimitConfig("RATE_LIMIT", DefaultRateLimit),
		LoginRateLimit: LoadRateLimitConfig("LOGIN_RATE_LIMIT", DefaultLoginRateLimit),
	}
	switch cfg.DBDriver {
	case "mysql":
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	case "sqlite3", "sqlite":
		cfg.DBDriver = "sqlite3"
	default:
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}
	return cfg
}

// LoadLoggerConfig reads LOG_* variables.
func LoadLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      envStr("LOG_LEVEL", "info"),
		Format:     envStr("LOG_FORMAT", "json"),
		Output:     envStr("LOG_OUTPUT", "stdout"),
		FilePath:   envStr("LOG_FILE", "logs/conductor.log"),
		MaxSize:    envInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: envInt("LOG_MAX_BACKUPS", 3),
		MaxAge:     envInt("LOG_MAX_AGE_DAYS", 7),
		Compress:   envBool("LOG_COMPRESS", false),
		Stacktrace: envBool("LOG_STACKTRACE", true),
	}
}

// AccessTTL is the access token lifetime.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL is the refresh token lifetime.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
