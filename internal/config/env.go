package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// APIKeys holds the external service credentials loaded from environment.
type APIKeys struct {
	Tripo        string
	Meshy        string
	OpenAI       string
	Gemini       string
	PrintService string
}

// LoadEnv loads environment variables from a .env file if one exists. Missing
// files are not an error; system-wide environment variables still apply.
func LoadEnv() error {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
		"../../.env",
	}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			break
		}
	}
	return nil
}

// GetAPIKeys retrieves and sanity-checks API keys from the environment.
func GetAPIKeys() (*APIKeys, error) {
	keys := &APIKeys{
		Tripo:        strings.TrimSpace(os.Getenv("TRIPO_API_KEY")),
		Meshy:        strings.TrimSpace(os.Getenv("MESHY_API_KEY")),
		OpenAI:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Gemini:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		PrintService: strings.TrimSpace(os.Getenv("PRINT_SERVICE_API_KEY")),
	}

	if keys.OpenAI != "" {
		if !strings.HasPrefix(keys.OpenAI, "sk-") {
			return nil, fmt.Errorf("invalid OPENAI_API_KEY format: must start with 'sk-'")
		}
		if len(keys.OpenAI) < 20 {
			return nil, fmt.Errorf("invalid OPENAI_API_KEY format: too short")
		}
	}
	if keys.Gemini != "" {
		if !strings.HasPrefix(keys.Gemini, "AIza") {
			return nil, fmt.Errorf("invalid GEMINI_API_KEY format: must start with 'AIza'")
		}
		if len(keys.Gemini) < 30 {
			return nil, fmt.Errorf("invalid GEMINI_API_KEY format: too short")
		}
	}
	return keys, nil
}

// RequireConversionKeys enforces that at least one conversion provider is
// configured. Fail-fast for the serve and convert entry points.
func RequireConversionKeys(keys *APIKeys) error {
	if keys.Tripo == "" && keys.Meshy == "" {
		return fmt.Errorf("conversion requires at least one provider key - set TRIPO_API_KEY or MESHY_API_KEY in environment or .env file")
	}
	return nil
}

// GetProjectRoot finds the project root directory by looking for go.mod.
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("could not find project root (go.mod not found)")
}

// InitializeConfig loads the environment and returns the validated keys.
func InitializeConfig() (*APIKeys, error) {
	if err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	keys, err := GetAPIKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to get API keys: %w", err)
	}
	return keys, nil
}
