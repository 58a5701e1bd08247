package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Auth      AuthConfig
	Firebase  FirebaseConfig
	Store     StoreConfig
	Redis     RedisConfig
	Assistant AssistantConfig
	Cleanup   CleanupConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

// AuthConfig controls how requests are authenticated.
// Mode "firebase" verifies ID tokens and session cookies, "dev" trusts X-User-Id.
type AuthConfig struct {
	Mode       string
	SessionTTL time.Duration
	CookieName string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
}

// StoreConfig selects the project document store: firestore, postgres or memory.
type StoreConfig struct {
	Backend string
	DSN     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AssistantConfig struct {
	Provider     string
	Model        string
	GeminiAPIKey string
	OpenAIAPIKey string
	RatePerMin   int
	Timeout      time.Duration
}

type CleanupConfig struct {
	Schedule         string
	TemporaryProjTTL time.Duration
}

const (
	AuthModeFirebase = "firebase"
	AuthModeDev      = "dev"

	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Auth: AuthConfig{
			Mode:       getEnv("AUTH_MODE", AuthModeFirebase),
			SessionTTL: getEnvAsDuration("SESSION_TTL", 5*24*time.Hour),
			CookieName: getEnv("SESSION_COOKIE_NAME", "qc_session"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", StoreFirestore),
			DSN:     getEnv("DB_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Assistant: AssistantConfig{
			Provider:     getEnv("AI_PROVIDER", ProviderGemini),
			Model:        getEnv("AI_MODEL", ""),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			RatePerMin:   getEnvAsInt("AI_RATE_PER_MIN", 20),
			Timeout:      getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		},
		Cleanup: CleanupConfig{
			Schedule:         getEnv("CLEANUP_SCHEDULE", "0 0 * * * *"),
			TemporaryProjTTL: getEnvAsDuration("TEMP_PROJECT_TTL", 24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Auth.Mode {
	case AuthModeFirebase, AuthModeDev:
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q", AuthModeFirebase, AuthModeDev)
	}

	switch c.Store.Backend {
	case StoreFirestore:
		if c.Firebase.ProjectID == "" && c.Firebase.CredentialsPath == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID or FIREBASE_CREDENTIALS_PATH is required for the firestore store")
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("DB_DSN is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	if c.Auth.Mode == AuthModeFirebase && c.Firebase.ProjectID == "" && c.Firebase.CredentialsPath == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID or FIREBASE_CREDENTIALS_PATH is required when AUTH_MODE=firebase")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	switch c.Assistant.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.Assistant.Provider)
	}

	if c.Assistant.RatePerMin <= 0 {
		return fmt.Errorf("AI_RATE_PER_MIN must be positive")
	}

	return nil
}

// NeedsFirebase reports whether a Firebase app has to be initialised.
func (c *Config) NeedsFirebase() bool {
	return c.Auth.Mode == AuthModeFirebase || c.Store.Backend == StoreFirestore
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	out := make([]string, 0, 4)
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
