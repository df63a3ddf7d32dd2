package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeys(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TRIPO_API_KEY", "MESHY_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "PRINT_SERVICE_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestGetAPIKeysReadsEnvironment(t *testing.T) {
	clearKeys(t)
	t.Setenv("TRIPO_API_KEY", "  tripo-key  ")
	t.Setenv("PRINT_SERVICE_API_KEY", "ps-key")

	keys, err := GetAPIKeys()
	require.NoError(t, err)
	assert.Equal(t, "tripo-key", keys.Tripo, "keys are trimmed")
	assert.Equal(t, "ps-key", keys.PrintService)
	assert.Empty(t, keys.Meshy)
}

func TestGetAPIKeysValidatesFormats(t *testing.T) {
	tests := []struct {
		name    string
		envKey  string
		value   string
		wantErr bool
	}{
		{"valid openai", "OPENAI_API_KEY", "sk-0123456789abcdefghij", false},
		{"openai wrong prefix", "OPENAI_API_KEY", "key-0123456789abcdefghij", true},
		{"openai too short", "OPENAI_API_KEY", "sk-short", true},
		{"valid gemini", "GEMINI_API_KEY", "AIzaSyA0123456789abcdefghijklmnopq", false},
		{"gemini wrong prefix", "GEMINI_API_KEY", "GOOG-0123456789abcdefghijklmnopq", true},
		{"gemini too short", "GEMINI_API_KEY", "AIzaShort", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearKeys(t)
			t.Setenv(tt.envKey, tt.value)
			_, err := GetAPIKeys()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequireConversionKeys(t *testing.T) {
	assert.Error(t, RequireConversionKeys(&APIKeys{}))
	assert.NoError(t, RequireConversionKeys(&APIKeys{Tripo: "t"}))
	assert.NoError(t, RequireConversionKeys(&APIKeys{Meshy: "m"}))
}

func TestValidateTimeout(t *testing.T) {
	assert.NoError(t, ValidateTimeout(30*time.Second, "request"))
	assert.Error(t, ValidateTimeout(0, "request"))
	assert.Error(t, ValidateTimeout(-time.Second, "request"))
	assert.Error(t, ValidateTimeout(time.Hour, "request"))
}

func TestValidateRetries(t *testing.T) {
	assert.NoError(t, ValidateRetries(0, "provider"))
	assert.NoError(t, ValidateRetries(3, "provider"))
	assert.Error(t, ValidateRetries(-1, "provider"))
	assert.Error(t, ValidateRetries(11, "provider"))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://print.example.com", "print service"))
	assert.NoError(t, ValidateURL("http://localhost:9090", "print service"))
	assert.Error(t, ValidateURL("", "print service"))
	assert.Error(t, ValidateURL("print.example.com", "print service"))
}

func TestValidatePollInterval(t *testing.T) {
	assert.NoError(t, ValidatePollInterval(15*time.Second))
	assert.Error(t, ValidatePollInterval(500*time.Millisecond))
	assert.Error(t, ValidatePollInterval(time.Hour))
}
