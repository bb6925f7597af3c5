package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the portal's process-wide, read-only configuration. It is
// loaded once before the server starts; there is no runtime reload.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Backend  BackendConfig
	Stripe   StripeConfig
	Plaid    PlaidConfig
	Identity IdentityConfig
}

// ServerConfig holds HTTP listener and asset settings.
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	TemplateDir  string `mapstructure:"template_dir"`
	StaticDir    string `mapstructure:"static_dir"`
	SecureCookie bool   `mapstructure:"secure_cookie"`
}

// DatabaseConfig holds sqlite settings for the portal session store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// BackendConfig points at the backend gateway.
type BackendConfig struct {
	URL string `mapstructure:"url"`
}

// StripeConfig holds the payment processor's browser-side key.
type StripeConfig struct {
	PublishableKey string `mapstructure:"publishable_key"`
}

// PlaidConfig holds bank-aggregator widget settings.
type PlaidConfig struct {
	Env string `mapstructure:"env"`
}

// IdentityConfig holds identity-provider project settings. AuthURL and
// TokenURL default to the hosted provider and are overridden in development
// to point at a local stand-in.
type IdentityConfig struct {
	APIKey   string `mapstructure:"api_key"`
	AuthURL  string `mapstructure:"auth_url"`
	TokenURL string `mapstructure:"token_url"`
}

// Load reads configuration from the environment. Variables use the PORTAL_
// prefix with underscores, e.g. PORTAL_BACKEND_URL, PORTAL_IDENTITY_API_KEY.
// A missing required value fails the load so startup can stop with a visible
// message before anything is served.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.template_dir", "web/templates")
	v.SetDefault("server.static_dir", "web/static")
	v.SetDefault("server.secure_cookie", false)
	v.SetDefault("database.path", "portal.db")
	v.SetDefault("backend.url", "")
	v.SetDefault("stripe.publishable_key", "")
	v.SetDefault("plaid.env", "")
	v.SetDefault("identity.api_key", "")
	v.SetDefault("identity.auth_url", "https://identitytoolkit.googleapis.com")
	v.SetDefault("identity.token_url", "https://securetoken.googleapis.com")

	v.SetEnvPrefix("PORTAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	var missing []string
	for _, req := range []struct{ key, val string }{
		{"PORTAL_BACKEND_URL", c.Backend.URL},
		{"PORTAL_STRIPE_PUBLISHABLE_KEY", c.Stripe.PublishableKey},
		{"PORTAL_PLAID_ENV", c.Plaid.Env},
		{"PORTAL_IDENTITY_API_KEY", c.Identity.APIKey},
	} {
		if req.val == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Plaid.Env {
	case "sandbox", "development", "production":
	default:
		return Config{}, fmt.Errorf("PORTAL_PLAID_ENV must be one of sandbox, development, production (got %q)", c.Plaid.Env)
	}

	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	c.Identity.AuthURL = strings.TrimRight(c.Identity.AuthURL, "/")
	c.Identity.TokenURL = strings.TrimRight(c.Identity.TokenURL, "/")
	return c, nil
}
