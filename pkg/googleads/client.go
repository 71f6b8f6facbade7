// Package googleads is a small REST client for the two Google Ads API calls
// keyword research needs: geo-target suggestions and keyword ideas.
package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/sells-group/keyword-cli/internal/metrics"
	"github.com/sells-group/keyword-cli/internal/resilience"
)

const (
	defaultBaseURL    = "https://googleads.googleapis.com"
	defaultAPIVersion = "v20"
	serviceName       = "googleads"
)

// Endpoint is Google's OAuth2 endpoint used to refresh access tokens.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Client performs Google Ads API operations.
type Client interface {
	SuggestGeoTargets(ctx context.Context, locale, name string) ([]GeoTargetSuggestion, error)
	GenerateKeywordIdeas(ctx context.Context, req KeywordIdeasRequest) (*KeywordIdeasResponse, error)
}

// Credentials are the OAuth2 and developer credentials for the API.
type Credentials struct {
	DeveloperToken string
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	// LoginCustomerID is the manager account, if any. Values that are not
	// 10 digits after removing dashes are ignored.
	LoginCustomerID string
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API host.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithAPIVersion overrides the API version path segment, e.g. "v20".
func WithAPIVersion(v string) Option {
	return func(c *httpClient) {
		if v != "" {
			c.version = v
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTokenSource replaces the refresh-token flow with ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *httpClient) {
		c.tokens = ts
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables it.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBackoff overrides the retry policy for transient failures.
func WithBackoff(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.backoff = cfg
	}
}

type httpClient struct {
	baseURL         string
	version         string
	developerToken  string
	loginCustomerID string
	http            *http.Client
	tokens          oauth2.TokenSource
	limiter         *rate.Limiter
	backoff         resilience.RetryConfig
}

// NewClient creates a Google Ads REST client. Unless WithTokenSource is
// given, ClientID, ClientSecret and RefreshToken are required.
func NewClient(creds Credentials, opts ...Option) (Client, error) {
	if strings.TrimSpace(creds.DeveloperToken) == "" {
		return nil, eris.Wrap(ErrMissingCredentials, "googleads: developer token is required")
	}

	c := &httpClient{
		baseURL:         defaultBaseURL,
		version:         defaultAPIVersion,
		developerToken:  creds.DeveloperToken,
		loginCustomerID: LoginCustomerID(creds.LoginCustomerID),
		http:            &http.Client{Timeout: 60 * time.Second},
		limiter:         rate.NewLimiter(5, 5),
		backoff:         resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}

	if c.tokens == nil {
		if creds.ClientID == "" || creds.ClientSecret == "" || creds.RefreshToken == "" {
			return nil, eris.Wrap(ErrMissingCredentials, "googleads: client id, client secret and refresh token are required")
		}
		conf := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     Endpoint,
			Scopes:       []string{"https://www.googleapis.com/auth/adwords"},
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
		c.tokens = conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
	}
	return c, nil
}

// LoginCustomerID normalizes a manager account id, returning "" when the
// value is not 10 digits after removing dashes.
func LoginCustomerID(raw string) string {
	id := strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
	if len(id) != 10 || !isDigits(id) {
		return ""
	}
	return id
}

// post sends body to path and decodes a 200 reply into out, retrying
// transient failures.
func (c *httpClient) post(ctx context.Context, operation, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrapf(err, "googleads: marshal %s request", operation)
	}

	retry := c.backoff
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.LogRetries(serviceName, operation)
	}

	err = resilience.Do(ctx, retry, func(ctx context.Context) error {
		return c.send(ctx, operation, path, payload, out)
	})
	metrics.RemoteCalls.WithLabelValues(serviceName, operation, metrics.Result(err)).Inc()
	return err
}

func (c *httpClient) send(ctx context.Context, operation, path string, payload []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "googleads: rate limit wait")
		}
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return eris.Wrap(err, "googleads: obtain access token")
	}

	url := c.baseURL + "/" + c.version + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "googleads: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", c.developerToken)
	if c.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.loginCustomerID)
	}
	tok.SetAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "googleads: %s", operation)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "googleads: read %s response", operation)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := parseAPIError(operation, resp.StatusCode, respBody)
		if resilience.RetryableStatus(resp.StatusCode) {
			return resilience.Transient(apiErr, resp.StatusCode)
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrapf(err, "googleads: decode %s response", operation)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
