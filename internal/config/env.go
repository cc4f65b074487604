package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// Environment fallbacks for the configuration file.
const (
	EnvEnabled    = "ENABLED"
	EnvHost       = "CONFLUENCE_HOST"
	EnvSpace      = "CONFLUENCE_SPACE"
	EnvUsername   = "CONFLUENCE_USERNAME"
	EnvPassword   = "CONFLUENCE_PASSWORD"
	EnvParentPage = "CONFLUENCE_PARENT_PAGE"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local from the working directory when
// present. Variables already set in the process are never overridden.
func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load environment file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment file", logfields.Path(path))
	}
}

// firstNonEmpty returns the configured value, else the environment variable.
func firstNonEmpty(value, envKey string) string {
	if value != "" {
		return value
	}
	return os.Getenv(envKey)
}
