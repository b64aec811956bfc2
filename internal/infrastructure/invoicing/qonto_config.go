package invoicing

import (
	"errors"
	"time"
)

// AuthMode selects how requests authenticate against Qonto
type AuthMode string

const (
	AuthModeOAuth  AuthMode = "oauth"
	AuthModeAPIKey AuthMode = "api_key"
)

const (
	// QontoProductionURL is the third-party API endpoint
	QontoProductionURL = "https://thirdparty.qonto.com"

	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = time.Second
)

// Errors for Qonto configuration
var (
	ErrQontoConfigMissingToken  = errors.New("qonto: access token is required in oauth mode")
	ErrQontoConfigMissingAPIKey = errors.New("qonto: organization id and api key are required in api_key mode")
	ErrQontoConfigBadAuthMode   = errors.New("qonto: auth mode must be oauth or api_key")
)

// QontoConfig holds configuration for the Qonto invoicing API
type QontoConfig struct {
	// BaseURL is the API root, production by default
	BaseURL string
	// AuthMode is oauth (bearer token) or api_key (organization:secret)
	AuthMode AuthMode
	// OrganizationID is the organization slug used in api_key mode
	OrganizationID string
	// APIKey is the secret key used in api_key mode
	APIKey string
	// AccessToken is the OAuth bearer token
	AccessToken string
	// Timeout bounds each HTTP attempt
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt. Only GET
	// requests and requests carrying an idempotency key are retried; zero
	// disables retries.
	MaxRetries int
	// RetryDelay is the first backoff interval; it doubles on each retry
	RetryDelay time.Duration
}

// WithDefaults fills unset fields
func (c QontoConfig) WithDefaults() QontoConfig {
	if c.BaseURL == "" {
		c.BaseURL = QontoProductionURL
	}
	if c.AuthMode == "" {
		c.AuthMode = AuthModeOAuth
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	return c
}

// Validate checks that the credentials required by the auth mode are present
func (c QontoConfig) Validate() error {
	switch c.AuthMode {
	case AuthModeOAuth:
		if c.AccessToken == "" {
			return ErrQontoConfigMissingToken
		}
	case AuthModeAPIKey:
		if c.OrganizationID == "" || c.APIKey == "" {
			return ErrQontoConfigMissingAPIKey
		}
	default:
		return ErrQontoConfigBadAuthMode
	}
	return nil
}

func (c QontoConfig) authorization() string {
	if c.AuthMode == AuthModeAPIKey {
		return c.OrganizationID + ":" + c.APIKey
	}
	return "Bearer " + c.AccessToken
}
