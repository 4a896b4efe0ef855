package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Session  SessionConfig  `env:",prefix=SESSION_"`
	Reddit   ProviderConfig `env:",prefix=REDDIT_"`
	Discord  ProviderConfig `env:",prefix=DISCORD_"`
	Security SecurityConfig `env:",prefix=SECURITY_"`

	// ProviderHTTPTimeout bounds every outbound identity provider call.
	ProviderHTTPTimeout Duration `env:"PROVIDER_HTTP_TIMEOUT,default=10s"`
	Env                 string   `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=risk"`
	Password string `env:"PASSWORD,default=risk_password"`
	DBName   string `env:"DB,default=risk_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// SessionConfig holds the process-wide session secret and cookie policy.
type SessionConfig struct {
	Secret       string `env:"SECRET,required"`
	CookieDomain string `env:"COOKIE_DOMAIN,default="`
	CookieSecure bool   `env:"COOKIE_SECURE,default=false"`
	HomeURL      string `env:"HOME_URL,default=/"`
}

// ProviderConfig configures one OAuth2 identity provider. A provider with an
// empty ClientID is not registered.
type ProviderConfig struct {
	ClientID        string   `env:"CLIENT_ID,default="`
	ClientSecret    string   `env:"CLIENT_SECRET,default="`
	RedirectURL     string   `env:"REDIRECT_URL,default="`
	UserAgent       string   `env:"USER_AGENT,default=RiskAuth/1.0"`
	Scopes          []string `env:"SCOPES"`
	SessionDuration Duration `env:"SESSION_DURATION"`

	// Endpoint overrides, for staging mocks. Empty means the provider's public endpoint.
	AuthURL    string `env:"AUTH_URL"`
	TokenURL   string `env:"TOKEN_URL"`
	ProfileURL string `env:"PROFILE_URL"`
}

// Enabled reports whether the provider has client credentials configured.
func (p ProviderConfig) Enabled() bool {
	return p.ClientID != ""
}

type SecurityConfig struct {
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=20"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
	ClientIPHeader    string   `env:"CLIENT_IP_HEADER,default=CF-Connecting-IP"`
	BanCheck          bool     `env:"BAN_CHECK,default=false"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// URL returns the PostgreSQL connection URL used by the migrator
func (p PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var config Config

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &config,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	applyProviderDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyProviderDefaults fills the provider-specific values that differ
// between Reddit and Discord and so cannot live in the shared struct tags.
func applyProviderDefaults(cfg *Config) {
	if len(cfg.Reddit.Scopes) == 0 {
		cfg.Reddit.Scopes = []string{"identity"}
	}
	if cfg.Reddit.SessionDuration.Duration == 0 {
		cfg.Reddit.SessionDuration.Duration = DefaultRedditSession
	}
	if len(cfg.Discord.Scopes) == 0 {
		cfg.Discord.Scopes = []string{"identify"}
	}
	if cfg.Discord.SessionDuration.Duration == 0 {
		cfg.Discord.SessionDuration.Duration = DefaultDiscordSession
	}
}

// Validate checks invariants that struct tags cannot express
func (c *Config) Validate() error {
	if len(c.Session.Secret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters long")
	}

	if !c.Reddit.Enabled() && !c.Discord.Enabled() {
		return errors.New("at least one identity provider must be configured (REDDIT_CLIENT_ID or DISCORD_CLIENT_ID)")
	}

	for name, p := range map[string]ProviderConfig{"REDDIT": c.Reddit, "DISCORD": c.Discord} {
		if !p.Enabled() {
			continue
		}
		if p.ClientSecret == "" || p.RedirectURL == "" {
			return fmt.Errorf("%s_CLIENT_SECRET and %s_REDIRECT_URL are required when %s_CLIENT_ID is set", name, name, name)
		}
	}

	if c.Security.RateLimitRequests <= 0 {
		return errors.New("SECURITY_RATE_LIMIT_REQUESTS must be positive")
	}

	return nil
}
