// Package confluence is a small client for the Confluence Cloud REST API
// covering what a docs sync needs: space and page lookup, page create and
// update, attachment upload.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// DefaultTimeout applies when no http.Client is supplied.
const DefaultTimeout = 60 * time.Second

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// Client talks to one Confluence site with one set of credentials. It is
// built once per run and handed to every component that needs the API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	username   string
	password   string
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New returns a client for host, e.g. https://example.atlassian.net/wiki/.
func New(host, username, password string, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(host, "/") {
		host += "/"
	}
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("invalid confluence host").
			WithCause(err).
			WithContext("host", host).
			Build()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    u,
		username:   username,
		password:   password,
		userAgent:  "docsync",
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the normalized host URL, always ending in a slash.
func (c *Client) BaseURL() string { return c.baseURL.String() }

func (c *Client) endpoint(p string, query url.Values) string {
	u := *c.baseURL
	u.Path = path.Join(strings.TrimSuffix(u.Path, "/"), p)
	u.RawQuery = query.Encode()
	return u.String()
}

// newRequest builds an authenticated request. A non-nil body is sent as JSON.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errors.InternalError("failed to marshal request body").WithCause(err).Build()
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.InternalError("failed to create request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", endpoint).
			Build()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)
	return req, nil
}

func (c *Client) authorize(req *http.Request) {
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("User-Agent", c.userAgent)
}

// do executes req. Anything but 200 OK is a fatal remote error carrying the
// start of the response body. result, when non-nil, receives the decoded
// JSON response.
func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NetworkError("confluence request failed").
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")
		return errors.RemoteError(fmt.Sprintf("confluence API error: %s", resp.Status)).
			WithContext("status", resp.StatusCode).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			WithContext("response", bodyStr).
			Build()
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return errors.RemoteError("failed to decode confluence response").
				WithCause(err).
				WithContext("url", req.URL.String()).
				Build()
		}
	}
	return nil
}
