package gateway

import "errors"

// Config holds configuration for the storefront backend gateway
type Config struct {
	// BaseURL is the base URL of the commerce gateway
	BaseURL string
	// APIKey authenticates this service against the gateway
	APIKey string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for gateway configuration
var (
	ErrConfigMissingBaseURL = errors.New("gateway: base URL is required")
	ErrConfigMissingAPIKey  = errors.New("gateway: API key is required")
)

// NewConfig creates a gateway configuration with defaults
func NewConfig(baseURL, apiKey string) *Config {
	return &Config{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		TimeoutSeconds: 30,
	}
}

// Validate validates the gateway configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
