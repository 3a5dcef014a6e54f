// internal/config/config.go
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds everything settlersd reads from the environment. A .env file
// in the working directory is loaded first when present.
type Config struct {
	ListenAddr  string // SETTLERS_LISTEN
	DatabaseURL string // SETTLERS_DATABASE_URL (postgres; empty selects sqlite)
	SQLitePath  string // SETTLERS_SQLITE_PATH
	RedisAddr   string // SETTLERS_REDIS_ADDR (empty disables the cache)
	JWTSecret   string // SETTLERS_JWT_SECRET
	LogLevel    string // SETTLERS_LOG_LEVEL
	LogJSON     bool   // SETTLERS_LOG_JSON
}

// Load reads .env (if any) and the environment, applying defaults.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		logrus.Debug("loaded .env")
	}
	return Config{
		ListenAddr:  getenv("SETTLERS_LISTEN", ":8080"),
		DatabaseURL: os.Getenv("SETTLERS_DATABASE_URL"),
		SQLitePath:  getenv("SETTLERS_SQLITE_PATH", "settlers.db"),
		RedisAddr:   os.Getenv("SETTLERS_REDIS_ADDR"),
		JWTSecret:   getenv("SETTLERS_JWT_SECRET", "dev-secret-change-me"),
		LogLevel:    getenv("SETTLERS_LOG_LEVEL", "info"),
		LogJSON:     os.Getenv("SETTLERS_LOG_JSON") == "true",
	}
}

// ConfigureLogging applies the log settings to the global logrus logger.
func (c Config) ConfigureLogging() {
	if c.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		logrus.WithField("value", c.LogLevel).Warn("bad log level, using info")
	}
	logrus.SetLevel(level)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
