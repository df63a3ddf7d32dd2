package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidateTimeout validates a timeout duration.
func ValidateTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s timeout must be positive", name)
	}
	if timeout > 30*time.Minute {
		return fmt.Errorf("%s timeout too large (max 30 minutes)", name)
	}
	return nil
}

// ValidateRetries validates a retry count.
func ValidateRetries(retries int, name string) error {
	if retries < 0 {
		return fmt.Errorf("%s retries cannot be negative", name)
	}
	if retries > 10 {
		return fmt.Errorf("%s retries too high (max 10)", name)
	}
	return nil
}

// ValidateURL validates a URL has an http scheme.
func ValidateURL(url string, name string) error {
	if url == "" {
		return fmt.Errorf("%s URL is required", name)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("%s URL must start with http:// or https://", name)
	}
	return nil
}

// ValidatePollInterval validates the synchronizer interval.
func ValidatePollInterval(interval time.Duration) error {
	if interval < time.Second {
		return fmt.Errorf("sync interval must be at least 1 second")
	}
	if interval > 10*time.Minute {
		return fmt.Errorf("sync interval too large (max 10 minutes)")
	}
	return nil
}
