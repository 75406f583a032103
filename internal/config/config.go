package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string
	Environment   string
	LogFilePath   string
}

// ClientConfig configures the data access layer talking to a store over HTTP.
type ClientConfig struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads the server configuration. A .env file in the working directory
// is applied first when present; real environment variables win.
func Load() Config {
	loadDotEnv()
	return Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "./data/studytracker.db"),
		JWTSecret:     getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:      getEnvDuration("TOKEN_TTL_HOURS", time.Hour, 72*time.Hour),
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		Environment:   getEnv("APP_ENV", "development"),
		LogFilePath:   getEnv("LOG_FILE_PATH", "./data/studytracker.log"),
	}
}

func LoadClient() ClientConfig {
	loadDotEnv()
	return ClientConfig{
		BaseURL:  strings.TrimRight(getEnv("STUDY_API_URL", "http://localhost:8080"), "/"),
		Token:    getEnv("STUDY_API_TOKEN", ""),
		Timeout:  getEnvDuration("STUDY_API_TIMEOUT_SECONDS", time.Second, 10*time.Second),
		CacheTTL: getEnvDuration("STUDY_CACHE_TTL_SECONDS", time.Second, 5*time.Minute),
	}
}

func loadDotEnv() {
	// godotenv.Load never overrides variables that are already set.
	_ = godotenv.Load()
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// getEnvDuration reads a positive whole number of units; anything else
// yields fallback.
func getEnvDuration(key string, unit, fallback time.Duration) time.Duration {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * unit
}

func getEnvList(key string, fallback []string) []string {
	items := strings.FieldsFunc(os.Getenv(key), func(r rune) bool { return r == ',' })
	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
