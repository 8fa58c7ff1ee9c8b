package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a .env file from the working directory, if present.
// Variables already set in the environment are left untouched.
func LoadDotEnv(files ...string) bool {
	if err := godotenv.Load(files...); err != nil {
		slog.Info("No .env file found, using environment variables")
		return false
	}
	return true
}
