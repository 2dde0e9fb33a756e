package trust

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/omarluq/transit-gate/internal/auth"
	"github.com/omarluq/transit-gate/internal/config"
	"github.com/omarluq/transit-gate/internal/version"
)

const (
	// maxEntryBytes caps a trust service response body.
	maxEntryBytes = 64 << 10

	// emptyPayloadHash is the hex SHA-256 of an empty body, signed into GETs.
	emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// ErrBackendStatus is returned when the trust service answers with an
// unexpected status.
var ErrBackendStatus = errors.New("trust: unexpected trust service status")

// Remote looks trust entries up from an HTTP trust service at
// GET {base}/v1/trust/{key}. A 404 is auth.ErrEntryNotFound.
type Remote struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	signer  *v4.Signer
	creds   aws.CredentialsProvider
	log     zerolog.Logger
	region  string
	service string
}

// RemoteOption customizes a Remote.
type RemoteOption func(*Remote)

// WithHTTPClient replaces the transport client. For oauth2 signing it is
// also used to fetch tokens.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) {
		r.client = c
	}
}

// WithCredentials supplies SigV4 credentials instead of the default AWS chain.
func WithCredentials(p aws.CredentialsProvider) RemoteOption {
	return func(r *Remote) {
		r.creds = p
	}
}

// WithLogger sets the logger used for lookup diagnostics.
func WithLogger(l zerolog.Logger) RemoteOption {
	return func(r *Remote) {
		r.log = l
	}
}

// NewRemote creates a Remote from cfg. ctx scopes credential loading and the
// oauth2 token source, so it should outlive the store.
func NewRemote(ctx context.Context, cfg *config.RemoteConfig, opts ...RemoteOption) (*Remote, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("trust: parse remote url: %w", err)
	}

	r := &Remote{
		base:    base,
		client:  &http.Client{Timeout: cfg.GetTimeout()},
		limiter: rate.NewLimiter(rate.Inf, 1),
		log:     zerolog.Nop(),
	}
	if rps, ok := cfg.GetRequestsPerSecondOption().Get(); ok {
		r.limiter = rate.NewLimiter(rate.Limit(rps), cfg.GetBurst())
	}
	for _, opt := range opts {
		opt(r)
	}

	switch cfg.Auth.GetType() {
	case config.RemoteAuthOAuth2:
		r.client = clientCredentialsClient(ctx, &cfg.Auth, r.client)
	case config.RemoteAuthSigV4:
		if r.creds == nil {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Auth.Region))
			if err != nil {
				return nil, fmt.Errorf("trust: load aws config: %w", err)
			}
			r.creds = awsCfg.Credentials
		}
		r.signer = v4.NewSigner()
		r.region = cfg.Auth.Region
		r.service = cfg.Auth.GetService()
	}

	r.log.Info().
		Str("url", base.Redacted()).
		Str("signing", cfg.Auth.GetType()).
		Msg("remote trust backend configured")
	return r, nil
}

func clientCredentialsClient(ctx context.Context, a *config.RemoteAuthConfig, base *http.Client) *http.Client {
	cc := &clientcredentials.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		TokenURL:     a.TokenURL,
		Scopes:       a.Scopes,
	}
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, base)
	client := cc.Client(tokenCtx)
	client.Timeout = base.Timeout
	return client
}

// Lookup fetches the entry for key.
func (r *Remote) Lookup(ctx context.Context, key string) (auth.TrustEntry, error) {
	body, status, err := r.get(ctx, r.base.JoinPath("v1", "trust", key))
	if err != nil {
		return auth.TrustEntry{}, err
	}

	switch {
	case status == http.StatusNotFound:
		return auth.TrustEntry{}, auth.ErrEntryNotFound
	case status < 200 || status >= 300:
		return auth.TrustEntry{}, fmt.Errorf("%w: %d for %s", ErrBackendStatus, status, key)
	}
	return DecodeEntry(body)
}

// Ping checks GET {base}/v1/health answers 2xx.
func (r *Remote) Ping(ctx context.Context) error {
	_, status, err := r.get(ctx, r.base.JoinPath("v1", "health"))
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: %d for health", ErrBackendStatus, status)
	}
	return nil
}

func (r *Remote) get(ctx context.Context, u *url.URL) ([]byte, int, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("trust: waiting for lookup budget: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("trust: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	if err := r.sign(ctx, req); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("trust: remote lookup: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			r.log.Debug().Err(closeErr).Msg("failed to close trust service response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEntryBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("trust: read response: %w", err)
	}

	r.log.Debug().
		Str("path", u.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("trust service request")
	return body, resp.StatusCode, nil
}

func (r *Remote) sign(ctx context.Context, req *http.Request) error {
	if r.signer == nil {
		return nil
	}
	creds, err := r.creds.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("trust: retrieve aws credentials: %w", err)
	}
	if err := r.signer.SignHTTP(ctx, creds, req, emptyPayloadHash, r.service, r.region, time.Now()); err != nil {
		return fmt.Errorf("trust: sign request: %w", err)
	}
	return nil
}
