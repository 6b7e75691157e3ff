// Package config loads environment settings and the YAML scan
// configuration.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env holds process-level settings sourced from the environment.
type Env struct {
	LogLevel   string
	DataDir    string
	SQLitePath string

	Alpaca struct {
		APIKey    string
		APISecret string
	}

	Monitoring struct {
		PrometheusPort int
		HealthPort     int
	}
}

// LoadEnv reads an optional .env file and then the environment. envFile may
// be empty to skip the file.
func LoadEnv(envFile string) *Env {
	if envFile != "" {
		// Missing file is fine; real deployments set the environment
		// directly.
		_ = godotenv.Load(envFile)
	}

	env := &Env{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DataDir:    getEnv("DATA_DIR", "data"),
		SQLitePath: getEnv("SQLITE_PATH", "data/screener.db"),
	}
	env.Alpaca.APIKey = getEnv("ALPACA_API_KEY", "")
	env.Alpaca.APISecret = getEnv("ALPACA_API_SECRET", "")
	env.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 9090)
	env.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 9091)
	return env
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
