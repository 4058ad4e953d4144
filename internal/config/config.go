package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the configuration for the application.
type Config struct {
	Port      string
	JWTSecret string
	TokenTTL  time.Duration

	// Model provider
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string

	// Plan generation
	PlanMaxRetries    int
	GenerationTimeout time.Duration

	// Storage
	DatabaseDriver string
	DatabaseURL    string

	// HTTP
	CORSAllowedOrigins []string
	AuthRatePerMinute  int

	LogLevel  string
	LogFormat string
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable not set")
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: jwtSecret,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}
	if err := loadModel(cfg); err != nil {
		return nil, err
	}
	if err := loadDatabase(cfg); err != nil {
		return nil, err
	}

	tokenTTL, err := getInt("TOKEN_TTL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	timeout, err := getInt("GENERATION_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	rate, err := getInt("AUTH_RATE_LIMIT_PER_MINUTE", 10)
	if err != nil {
		return nil, err
	}
	cfg.TokenTTL = time.Duration(tokenTTL) * time.Minute
	cfg.GenerationTimeout = time.Duration(timeout) * time.Second
	cfg.AuthRatePerMinute = rate

	for _, o := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}
	return cfg, nil
}

// DatabaseFromEnv loads only the storage settings, for tools that never
// serve HTTP or call a model.
func DatabaseFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{LogLevel: getEnv("LOG_LEVEL", "info")}
	if err := loadDatabase(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ModelFromEnv loads only the model provider and retry settings.
func ModelFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{LogLevel: getEnv("LOG_LEVEL", "info")}
	if err := loadModel(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadModel(cfg *Config) error {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini))

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		geminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	}
	groqAPIKey := os.Getenv("GROQ_API_KEY")

	switch provider {
	case ProviderGemini:
		if geminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if groqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	maxRetries, err := getInt("PLAN_MAX_RETRIES", 3)
	if err != nil {
		return err
	}
	if maxRetries < 1 {
		return fmt.Errorf("invalid PLAN_MAX_RETRIES: must be at least 1")
	}

	cfg.LLMProvider = provider
	cfg.GeminiAPIKey = geminiAPIKey
	cfg.GeminiModel = getEnv("GEMINI_MODEL", "gemini-2.0-flash-lite")
	cfg.GroqAPIKey = groqAPIKey
	cfg.GroqModel = getEnv("GROQ_MODEL", "llama-3.3-70b-versatile")
	cfg.PlanMaxRetries = maxRetries
	return nil
}

func loadDatabase(cfg *Config) error {
	driver := strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite))
	if driver != DriverSQLite && driver != DriverPostgres {
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		if driver == DriverPostgres {
			return fmt.Errorf("DATABASE_URL environment variable not set")
		}
		databaseURL = "data/fitmate.db"
	}

	cfg.DatabaseDriver = driver
	cfg.DatabaseURL = databaseURL
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
