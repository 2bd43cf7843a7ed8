package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GatewayConfig holds all configuration for the gateway.
// Tags use mapstructure for Viper unmarshalling and env variable binding.
type GatewayConfig struct {
	HTTPPort        string `mapstructure:"HTTP_PORT"`
	BackendBaseURL  string `mapstructure:"BACKEND_BASE_URL"`
	FrontendBaseURL string `mapstructure:"FRONTEND_BASE_URL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	// SessionBackend selects the session store: "memory" or "redis".
	SessionBackend string `mapstructure:"SESSION_BACKEND"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`

	MongoURI     string `mapstructure:"MONGO_URI"`
	MongoDBName  string `mapstructure:"MONGO_DB_NAME"`
	AuditEnabled bool   `mapstructure:"AUDIT_ENABLED"`

	SessionTimeoutSec    int `mapstructure:"SESSION_TIMEOUT_SEC"`
	RateLimitMaxAttempts int `mapstructure:"RATE_LIMIT_MAX_ATTEMPTS"`
	RateLimitWindowMin   int `mapstructure:"RATE_LIMIT_WINDOW_MIN"`
	OAuthStateTTLMin     int `mapstructure:"OAUTH_STATE_TTL_MIN"`
	BackendTimeoutSec    int `mapstructure:"BACKEND_TIMEOUT_SEC"`
	SubmitTimeoutSec     int `mapstructure:"SUBMIT_TIMEOUT_SEC"`

	// OAuthMode selects who builds the authorization URL: "backend" asks
	// the crowdfunding backend for it, "direct" builds it locally from the
	// configured client IDs.
	OAuthMode        string `mapstructure:"OAUTH_MODE"`
	GoogleClientID   string `mapstructure:"GOOGLE_CLIENT_ID"`
	FacebookClientID string `mapstructure:"FACEBOOK_APP_ID"`
	OAuthRedirectURL string `mapstructure:"OAUTH_REDIRECT_URL"`

	// OAuthClaimsKey is the HMAC key the backend signs callback identity
	// tokens with. Claims are never trusted without verification.
	OAuthClaimsKey string `mapstructure:"OAUTH_CLAIMS_KEY"`

	OAuthEnabled       bool `mapstructure:"FEATURES_OAUTH_ENABLED"`
	TranslationEnabled bool `mapstructure:"FEATURES_TRANSLATION_ENABLED"`
}

func (c *GatewayConfig) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSec) * time.Second
}

func (c *GatewayConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowMin) * time.Minute
}

func (c *GatewayConfig) OAuthStateTTL() time.Duration {
	return time.Duration(c.OAuthStateTTLMin) * time.Minute
}

func (c *GatewayConfig) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSec) * time.Second
}

func (c *GatewayConfig) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutSec) * time.Second
}

// LoadConfig reads configuration from file, environment variables, and
// defaults.
func LoadConfig() (*GatewayConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/haven-gateway/")
	v.AddConfigPath("$HOME/.haven-gateway")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8000")
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:8501")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("SESSION_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/haven_gateway_dev")
	v.SetDefault("MONGO_DB_NAME", "haven_gateway_dev")
	v.SetDefault("AUDIT_ENABLED", false)
	v.SetDefault("SESSION_TIMEOUT_SEC", 3600)
	v.SetDefault("RATE_LIMIT_MAX_ATTEMPTS", 5)
	v.SetDefault("RATE_LIMIT_WINDOW_MIN", 5)
	v.SetDefault("OAUTH_STATE_TTL_MIN", 10)
	v.SetDefault("BACKEND_TIMEOUT_SEC", 10)
	v.SetDefault("SUBMIT_TIMEOUT_SEC", 15)
	v.SetDefault("OAUTH_MODE", "backend")
	v.SetDefault("OAUTH_CLAIMS_KEY", "a_very_secret_claims_key_change_me") // CHANGE IN PRODUCTION
	v.SetDefault("FEATURES_OAUTH_ENABLED", true)
	v.SetDefault("FEATURES_TRANSLATION_ENABLED", true)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, we fall back to env vars and
		// defaults. Anything else (permissions, malformed yaml) is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg GatewayConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if cfg.OAuthRedirectURL == "" {
		cfg.OAuthRedirectURL = cfg.FrontendBaseURL + "/auth/oauth/callback"
	}

	return &cfg, nil
}
