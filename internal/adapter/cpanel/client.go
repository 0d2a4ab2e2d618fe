package cpanel

import (
	"crypto/tls"
	"net/http"
	"time"
)

const (
	loginPath     = "/login/?login_only=1"
	sessionCookie = "cpsession"
)

type Config struct {
	BaseURL  string
	Username string
	Password string

	// LoginURL replaces BaseURL + "/login/?login_only=1" when set.
	LoginURL string

	// InsecureSkipVerify disables TLS certificate checks against the panel.
	InsecureSkipVerify bool

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
}

// Client talks to a cPanel account over its web login and the
// getsqlbackup download endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Client)

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient(cfg)
	}
	return c
}

func newHTTPClient(cfg Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via cpanel.insecure_skip_verify
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		// The backup endpoint redirects to the login page when the session is
		// not accepted; following it would save HTML as the archive.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (c *Client) loginURL() string {
	if c.cfg.LoginURL != "" {
		return c.cfg.LoginURL
	}
	return c.cfg.BaseURL + loginPath
}
