// Package config provides configuration loading and parsing for transit-gate.
package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/cache"
	"github.com/omarluq/transit-gate/internal/health"
)

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Trust backends.
const (
	BackendStatic = "static"
	BackendRemote = "remote"
)

// Remote trust backend request signing.
const (
	RemoteAuthNone   = "none"
	RemoteAuthOAuth2 = "oauth2"
	RemoteAuthSigV4  = "sigv4"
)

// Demo credentials used when a config file omits them.
const (
	DemoBasicUsername = "admin"
	DemoBasicPassword = "admin-password"
	DemoBearerToken   = "demo-bearer-token"
	DemoHeaderAPIKey  = "demo-header-api-key"
	DemoSessionToken  = "demo-session-token"
	DemoOAuthUsername = "oauth-user"
	DemoOAuthPassword = "oauth-password"
	DemoOAuthToken    = "demo-oauth-token"
)

// Config represents the complete transit-gate configuration.
type Config struct {
	Auth    AuthConfig    `yaml:"auth" toml:"auth"`
	Trust   TrustConfig   `yaml:"trust" toml:"trust"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Server  ServerConfig  `yaml:"server" toml:"server"`
}

// ServerConfig defines server-level settings.
type ServerConfig struct {
	Listen       string `yaml:"listen" toml:"listen"`
	MetricsPath  string `yaml:"metrics_path" toml:"metrics_path"`
	TimeoutMS    int    `yaml:"timeout_ms" toml:"timeout_ms"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" toml:"max_body_bytes"`
	EnableHTTP2  bool   `yaml:"enable_http2" toml:"enable_http2"` // Enable HTTP/2 cleartext (h2c) support
}

// AuthConfig holds the trust material and challenge options of every scheme.
// Secret fields support ${ENV_VAR} expansion.
type AuthConfig struct {
	Realm            string             `yaml:"realm" toml:"realm"`
	Basic            PairConfig         `yaml:"basic" toml:"basic"`
	OAuth2           OAuth2Config       `yaml:"oauth2" toml:"oauth2"`
	Bearer           TokenConfig        `yaml:"bearer" toml:"bearer"`
	APIKeyHeader     ChannelTokenConfig `yaml:"api_key_header" toml:"api_key_header"`
	Session          ChannelTokenConfig `yaml:"session" toml:"session"`
	Hybrid           HybridConfig       `yaml:"hybrid" toml:"hybrid"`
	BearerErrorCodes bool               `yaml:"bearer_error_codes" toml:"bearer_error_codes"`
}

// PairConfig is a username and password. Subject defaults to the username.
type PairConfig struct {
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	Subject  string `yaml:"subject" toml:"subject"`
}

// GetSubject returns Subject or the username.
func (p *PairConfig) GetSubject() string {
	if p.Subject == "" {
		return p.Username
	}
	return p.Subject
}

// TokenConfig is a single accepted token.
type TokenConfig struct {
	Token   string `yaml:"token" toml:"token"`
	Subject string `yaml:"subject" toml:"subject"`
}

// ChannelTokenConfig is a token read from a named header or cookie.
type ChannelTokenConfig struct {
	Name    string `yaml:"name" toml:"name"`
	Token   string `yaml:"token" toml:"token"`
	Subject string `yaml:"subject" toml:"subject"`
}

// OAuth2Config is the password-grant login and the token it issues.
type OAuth2Config struct {
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	Token    string `yaml:"token" toml:"token"`
	Subject  string `yaml:"subject" toml:"subject"`
}

// HybridConfig orders the schemes tried by the hybrid combinator.
type HybridConfig struct {
	Policy string   `yaml:"policy" toml:"policy"` // first (default), last
	Order  []string `yaml:"order" toml:"order"`
}

// DefaultHybridOrder is used when hybrid.order is empty.
var DefaultHybridOrder = []string{string(auth.SchemeBearer), string(auth.SchemeAPIKeyHeader)}

// GetOrder returns the configured order or the default.
func (h *HybridConfig) GetOrder() []auth.Scheme {
	order := h.Order
	if len(order) == 0 {
		order = DefaultHybridOrder
	}
	return lo.Map(order, func(s string, _ int) auth.Scheme {
		return auth.Scheme(strings.TrimSpace(s))
	})
}

// GetPolicy returns the configured policy, defaulting to first.
func (h *HybridConfig) GetPolicy() auth.FailurePolicy {
	if h.Policy == "" {
		return auth.PolicyFirst
	}
	return auth.FailurePolicy(h.Policy)
}

// TrustConfig selects where verifiers look up trust entries.
type TrustConfig struct {
	Backend    string        `yaml:"backend" toml:"backend"` // static (default), remote
	Remote     RemoteConfig  `yaml:"remote" toml:"remote"`
	Cache      cache.Config  `yaml:"cache" toml:"cache"`
	Health     health.Config `yaml:"health" toml:"health"`
	CacheTTLMS int           `yaml:"cache_ttl_ms" toml:"cache_ttl_ms"`
}

// GetBackend returns the backend with default fallback.
func (t *TrustConfig) GetBackend() string {
	if t.Backend == "" {
		return BackendStatic
	}
	return t.Backend
}

// IsRemote reports whether lookups go to the remote trust service.
func (t *TrustConfig) IsRemote() bool {
	return t.GetBackend() == BackendRemote
}

// GetCacheTTL returns the trust entry cache TTL. Default: 30s.
func (t *TrustConfig) GetCacheTTL() time.Duration {
	if t.CacheTTLMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(t.CacheTTLMS) * time.Millisecond
}

// RemoteConfig configures the HTTP trust service.
type RemoteConfig struct {
	URL               string           `yaml:"url" toml:"url"`
	Auth              RemoteAuthConfig `yaml:"auth" toml:"auth"`
	TimeoutMS         int              `yaml:"timeout_ms" toml:"timeout_ms"`
	RequestsPerSecond float64          `yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int              `yaml:"burst" toml:"burst"`
}

// GetTimeout returns the per-lookup timeout. Default: 2s.
func (r *RemoteConfig) GetTimeout() time.Duration {
	if r.TimeoutMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// GetRequestsPerSecondOption returns the outbound lookup budget.
// Returns None if unthrottled.
func (r *RemoteConfig) GetRequestsPerSecondOption() mo.Option[float64] {
	if r.RequestsPerSecond <= 0 {
		return mo.None[float64]()
	}
	return mo.Some(r.RequestsPerSecond)
}

// GetBurst returns the burst size, at least 1.
func (r *RemoteConfig) GetBurst() int {
	if r.Burst <= 0 {
		return 1
	}
	return r.Burst
}

// RemoteAuthConfig configures how lookups to the trust service are signed.
type RemoteAuthConfig struct {
	Type         string   `yaml:"type" toml:"type"` // none (default), oauth2, sigv4
	TokenURL     string   `yaml:"token_url" toml:"token_url"`
	ClientID     string   `yaml:"client_id" toml:"client_id"`
	ClientSecret string   `yaml:"client_secret" toml:"client_secret"`
	Region       string   `yaml:"region" toml:"region"`
	Service      string   `yaml:"service" toml:"service"`
	Scopes       []string `yaml:"scopes" toml:"scopes"`
}

// GetType returns the signing type with default fallback.
func (r *RemoteAuthConfig) GetType() string {
	if r.Type == "" {
		return RemoteAuthNone
	}
	return r.Type
}

// GetService returns the SigV4 service name. Default: execute-api.
func (r *RemoteAuthConfig) GetService() string {
	if r.Service == "" {
		return "execute-api"
	}
	return r.Service
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console
	Output string `yaml:"output" toml:"output"` // stdout, stderr, or file path
	Pretty bool   `yaml:"pretty" toml:"pretty"` // enable colored console output
}

// ParseLevel converts a string log level to zerolog.Level.
// Returns zerolog.InfoLevel if the level string is invalid.
func (l *LoggingConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// GetTimeoutOption returns the timeout as an Option.
// Returns None if TimeoutMS is zero (use default).
func (s *ServerConfig) GetTimeoutOption() mo.Option[time.Duration] {
	if s.TimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(s.TimeoutMS) * time.Millisecond)
}

// GetMaxBodyBytesOption returns the request body limit as an Option.
// Returns None if MaxBodyBytes is zero (unlimited).
func (s *ServerConfig) GetMaxBodyBytesOption() mo.Option[int64] {
	if s.MaxBodyBytes <= 0 {
		return mo.None[int64]()
	}
	return mo.Some(s.MaxBodyBytes)
}

// GetMetricsPath returns the metrics endpoint path. Default: /metrics.
func (s *ServerConfig) GetMetricsPath() string {
	if s.MetricsPath == "" {
		return "/metrics"
	}
	return s.MetricsPath
}

// Default returns a configuration carrying the demo credentials of the
// City Transit Control API. Loaded files are decoded on top of it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       "127.0.0.1:8787",
			TimeoutMS:    60000,
			MaxBodyBytes: 1 << 20,
		},
		Logging: LoggingConfig{
			Level:  LevelInfo,
			Format: "json",
			Output: "stdout",
		},
		Auth: AuthConfig{
			Basic: PairConfig{
				Username: DemoBasicUsername,
				Password: DemoBasicPassword,
			},
			Bearer: TokenConfig{
				Token:   DemoBearerToken,
				Subject: "operator-41",
			},
			APIKeyHeader: ChannelTokenConfig{
				Name:    auth.DefaultAPIKeyHeader,
				Token:   DemoHeaderAPIKey,
				Subject: "metrics-agent",
			},
			Session: ChannelTokenConfig{
				Name:    auth.DefaultSessionCookie,
				Token:   DemoSessionToken,
				Subject: DemoBasicUsername,
			},
			OAuth2: OAuth2Config{
				Username: DemoOAuthUsername,
				Password: DemoOAuthPassword,
				Token:    DemoOAuthToken,
				Subject:  "dispatcher-7",
			},
			Hybrid: HybridConfig{
				Policy: string(auth.PolicyFirst),
			},
		},
		Trust: TrustConfig{
			Backend: BackendStatic,
			Cache: cache.Config{
				Mode:      cache.ModeSingle,
				Ristretto: cache.DefaultRistrettoConfig(),
				Olric:     cache.DefaultOlricConfig(),
			},
		},
	}
}
