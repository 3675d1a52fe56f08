package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. It is built once at
// startup and passed into the constructors that need it; nothing reads
// the environment after Load returns.
type Config struct {
	Env  string // application environment (development, production)
	Port string // HTTP port to listen on

	DBUser      string // database username
	DBPass      string // database password (optional)
	DBHost      string // database host address
	DBPort      string // database port number
	DBName      string // database name
	AutoMigrate bool   // apply the embedded schema on startup

	JWTSecret     string        // secret used to sign JWTs
	TokenTTL      time.Duration // lifetime of the session token and its cookie
	CookieSecure  bool          // mark the session cookie Secure
	BcryptCost    int           // bcrypt cost for password hashing
	ResetTokenTTL time.Duration // lifetime of an admin password reset token
	ClientURL     string        // frontend base URL used to build reset links

	CORSOrigins []string // origins allowed to send credentialed requests
	BodyLimit   string   // max request body, echo size syntax ("1M")

	Redis RedisConfig

	AMQPURL         string // broker URL; empty disables order events
	ConsumerEnabled bool   // run the order event consumer in-process
	OrderLogPath    string // file the consumer appends order lines to
}

// RedisConfig describes the optional Redis connection used for the
// logout denylist.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// IsProduction reports whether the app runs with production settings.
func (c Config) IsProduction() bool { return c.Env == "production" }

// Load reads an optional .env file and then the process environment.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, using process environment")
	}

	env := envStr("APP_ENV", "development")
	cfg := Config{
		Env:  env,
		Port: envStr("APP_PORT", "5000"),

		DBUser:      must("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"),
		DBHost:      must("DB_HOST"),
		DBPort:      envStr("DB_PORT", "3306"),
		DBName:      must("DB_NAME"),
		AutoMigrate: envBool("DB_AUTO_MIGRATE", true),

		JWTSecret:     must("JWT_SECRET"),
		TokenTTL:      envDur("JWT_TTL", 7*24*time.Hour),
		CookieSecure:  envBool("COOKIE_SECURE", env == "production"),
		BcryptCost:    envInt("BCRYPT_COST", 12),
		ResetTokenTTL: envDur("RESET_TOKEN_TTL", 10*time.Minute),
		ClientURL:     envStr("CLIENT_URL", "http://localhost:5173"),

		CORSOrigins: envList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		BodyLimit:   envStr("BODY_LIMIT", "1M"),

		Redis: RedisConfig{
			Enabled:  envBool("REDIS_ENABLED", true),
			Addr:     redisAddr(),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
			TLS:      envBool("REDIS_TLS", false),
		},

		AMQPURL:         amqpURL(),
		ConsumerEnabled: envBool("ORDER_CONSUMER_ENABLED", true),
		OrderLogPath:    envStr("ORDER_LOG_PATH", "logs/orders.log"),
	}
	if len(cfg.JWTSecret) < 16 {
		log.Println("warning: JWT_SECRET is shorter than 16 characters")
	}
	return cfg
}

// REDIS_HOST/REDIS_PORT win over REDIS_ADDR when both are set.
func redisAddr() string {
	host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")
	if host != "" && port != "" {
		return host + ":" + port
	}
	return envStr("REDIS_ADDR", "localhost:6379")
}

func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
