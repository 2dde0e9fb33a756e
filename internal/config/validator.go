package config

import (
	"net"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/omarluq/transit-gate/internal/auth"
)

// Valid logging levels.
var validLogLevels = map[string]bool{
	"":      true, // Empty defaults to info
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid logging formats.
var validLogFormats = map[string]bool{
	"":        true, // Empty defaults to json
	"json":    true,
	"console": true,
	"text":    true, // Alias for console
	"pretty":  true,
}

var validBackends = map[string]bool{
	"":            true, // Empty defaults to static
	BackendStatic: true,
	BackendRemote: true,
}

var validRemoteAuth = map[string]bool{
	"":               true, // Empty defaults to none
	RemoteAuthNone:   true,
	RemoteAuthOAuth2: true,
	RemoteAuthSigV4:  true,
}

// Validate checks the configuration for errors.
// It validates all required fields, valid values, and cross-field constraints.
// Returns a ValidationError containing all errors found, or nil if valid.
func (c *Config) Validate() error {
	errs := &ValidationError{}

	validateServer(c, errs)
	validateLogging(c, errs)
	validateAuth(c, errs)
	validateTrust(c, errs)

	return errs.Err()
}

// validateServer validates the server configuration section.
func validateServer(c *Config, errs *ValidationError) {
	if c.Server.Listen == "" {
		errs.Reject("server.listen", "is required")
	} else {
		validateListenAddress(c.Server.Listen, errs)
	}

	if c.Server.TimeoutMS < 0 {
		errs.Reject("server.timeout_ms", "must be >= 0")
	}

	if c.Server.MaxBodyBytes < 0 {
		errs.Reject("server.max_body_bytes", "must be >= 0")
	}

	if c.Server.MetricsPath != "" && !strings.HasPrefix(c.Server.MetricsPath, "/") {
		errs.Rejectf("server.metrics_path", "must start with / (got %q)", c.Server.MetricsPath)
	}
}

// validateListenAddress validates a listen address in host:port format.
func validateListenAddress(addr string, errs *ValidationError) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		errs.Rejectf("server.listen", "must be in host:port format (got %q)", addr)
		return
	}

	// Host can be empty (listen on all interfaces) or a valid IP/hostname
	if host != "" && net.ParseIP(host) == nil && strings.ContainsAny(host, " \t\n") {
		errs.Reject("server.listen", "host contains invalid characters")
	}

	if port == "" {
		errs.Reject("server.listen", "port is required")
	}
}

// validateLogging validates the logging configuration section.
func validateLogging(c *Config, errs *ValidationError) {
	if !validLogLevels[c.Logging.Level] {
		errs.Rejectf("logging.level", "is invalid (got %q, valid: debug, info, warn, error)",
			c.Logging.Level)
	}

	if !validLogFormats[c.Logging.Format] {
		errs.Rejectf("logging.format", "is invalid (got %q, valid: json, console, text, pretty)",
			c.Logging.Format)
	}
}

// validateAuth validates trust material and the hybrid order.
func validateAuth(c *Config, errs *ValidationError) {
	a := &c.Auth

	requireField := func(value, field string) {
		if strings.TrimSpace(value) == "" {
			errs.Reject("auth."+field, "is required")
		}
	}

	requireField(a.Basic.Username, "basic.username")
	requireField(a.Basic.Password, "basic.password")
	requireField(a.Bearer.Token, "bearer.token")
	requireField(a.APIKeyHeader.Token, "api_key_header.token")
	requireField(a.Session.Token, "session.token")
	requireField(a.OAuth2.Username, "oauth2.username")
	requireField(a.OAuth2.Password, "oauth2.password")
	requireField(a.OAuth2.Token, "oauth2.token")

	if strings.ContainsAny(a.Basic.Username, ":") {
		errs.Reject("auth.basic.username", "must not contain ':'")
	}

	if a.OAuth2.Token != "" && a.OAuth2.Token == a.Bearer.Token {
		errs.Reject("auth.oauth2.token", "must differ from auth.bearer.token")
	}

	if strings.ContainsAny(a.Realm, `"\`) {
		errs.Reject("auth.realm", "must not contain quotes or backslashes")
	}

	validateHybrid(&a.Hybrid, errs)
}

func validateHybrid(h *HybridConfig, errs *ValidationError) {
	if !h.GetPolicy().Valid() {
		errs.Rejectf("auth.hybrid.policy", "is invalid (got %q, valid: first, last)", h.Policy)
	}

	order := h.GetOrder()
	for _, scheme := range order {
		if !scheme.Valid() {
			errs.Rejectf("auth.hybrid.order", "contains unknown scheme %q (valid: %s)",
				scheme, strings.Join(lo.Map(auth.Schemes(), func(s auth.Scheme, _ int) string {
					return string(s)
				}), ", "))
		}
	}

	if dups := lo.FindDuplicates(order); len(dups) > 0 {
		errs.Rejectf("auth.hybrid.order", "contains duplicate schemes: %v", dups)
	}
}

// validateTrust validates the trust backend, its cache and health settings.
func validateTrust(c *Config, errs *ValidationError) {
	t := &c.Trust

	if !validBackends[t.Backend] {
		errs.Rejectf("trust.backend", "is invalid (got %q, valid: static, remote)", t.Backend)
	}

	if t.CacheTTLMS < 0 {
		errs.Reject("trust.cache_ttl_ms", "must be >= 0")
	}

	if t.IsRemote() {
		validateRemote(&t.Remote, errs)
		if err := t.Cache.Validate(); err != nil {
			errs.Reject("trust.cache", "is invalid: "+strings.TrimPrefix(err.Error(), "cache: "))
		}
	}
}

func validateRemote(r *RemoteConfig, errs *ValidationError) {
	if r.URL == "" {
		errs.Reject("trust.remote.url", "is required when backend is remote")
	} else if u, err := url.Parse(r.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs.Rejectf("trust.remote.url", "must be an absolute URL (got %q)", r.URL)
	}

	if r.TimeoutMS < 0 {
		errs.Reject("trust.remote.timeout_ms", "must be >= 0")
	}
	if r.RequestsPerSecond < 0 {
		errs.Reject("trust.remote.requests_per_second", "must be >= 0")
	}
	if r.Burst < 0 {
		errs.Reject("trust.remote.burst", "must be >= 0")
	}

	if !validRemoteAuth[r.Auth.Type] {
		errs.Rejectf("trust.remote.auth.type", "is invalid (got %q, valid: none, oauth2, sigv4)", r.Auth.Type)
		return
	}

	switch r.Auth.GetType() {
	case RemoteAuthOAuth2:
		if r.Auth.TokenURL == "" {
			errs.Reject("trust.remote.auth.token_url", "is required for oauth2")
		}
		if r.Auth.ClientID == "" {
			errs.Reject("trust.remote.auth.client_id", "is required for oauth2")
		}
	case RemoteAuthSigV4:
		if r.Auth.Region == "" {
			errs.Reject("trust.remote.auth.region", "is required for sigv4")
		}
	}
}
