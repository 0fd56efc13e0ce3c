package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Mail providers accepted by MAIL_PROVIDER.
const (
	MailProviderLog      = "log"
	MailProviderSendGrid = "sendgrid"
)

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	RunMigrations     bool
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int
	StoragePath       string

	MailProvider    string
	SendGridAPIKey  string
	MailFromAddress string
	MailFromName    string

	RunJobs          bool
	JobInterval      time.Duration
	ReminderLeadTime time.Duration
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := &Config{}
	var err error

	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.StoragePath = getEnv("STORAGE_PATH", "./data")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	cfg.RunMigrations, err = getEnvAsBool("RUN_MIGRATIONS", true)
	if err != nil {
		return nil, err
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}

	cfg.MailProvider = getEnv("MAIL_PROVIDER", MailProviderLog)
	switch cfg.MailProvider {
	case MailProviderLog:
	case MailProviderSendGrid:
		cfg.SendGridAPIKey = os.Getenv("SENDGRID_API_KEY")
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required when MAIL_PROVIDER=%s", MailProviderSendGrid)
		}
	default:
		return nil, fmt.Errorf("invalid MAIL_PROVIDER %q", cfg.MailProvider)
	}
	cfg.MailFromAddress = getEnv("MAIL_FROM_ADDRESS", "no-reply@mentorship.local")
	cfg.MailFromName = getEnv("MAIL_FROM_NAME", "Mentorship Platform")

	cfg.RunJobs, err = getEnvAsBool("RUN_JOBS", true)
	if err != nil {
		return nil, err
	}

	cfg.JobInterval, err = getEnvAsDuration("JOB_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	if cfg.JobInterval <= 0 {
		return nil, fmt.Errorf("JOB_INTERVAL must be positive")
	}

	cfg.ReminderLeadTime, err = getEnvAsDuration("REMINDER_LEAD_TIME", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}
	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid bool: %w", key, valStr, err)
	}
	return val, nil
}

// getEnvAsDuration parses values such as "15m" or "1h".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}
