package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/igraph100/DW-Spectrum/internal/auth"
	"github.com/igraph100/DW-Spectrum/internal/log"
)

// APIPrefix is the versioned base path of the REST surface.
const APIPrefix = "/rest/v3"

const (
	loginTimeout   = 20 * time.Second
	requestTimeout = 25 * time.Second
	logoutTimeout  = 15 * time.Second
	maxRedirects   = 10
)

type SpectrumClient struct {
	HTTP   *resty.Client
	Config ClientConfig

	log *logrus.Entry

	mu    sync.Mutex
	token string
}

type ClientConfig struct {
	Host      string
	Port      int
	SSL       bool
	VerifySSL bool
	Username  string
	Password  string
	ClientID  string // sent as x-runtime-guid, generated when empty
}

// BaseURL is scheme://host:port without a trailing slash.
func (c ClientConfig) BaseURL() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)))
}

// noFollowKey marks requests whose redirects must be returned, not followed.
type noFollowKey struct{}

func New(cfg ClientConfig) *SpectrumClient {
	cfg.ClientID = auth.EnsureClientID(cfg.ClientID)
	logger := log.WithComponent("client").WithField("host", cfg.Host)

	r := resty.New()
	r.SetBaseURL(cfg.BaseURL())
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")
	r.SetHeader(auth.ClientIDHeader, cfg.ClientID)
	r.SetLogger(logger)
	r.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) > 0 && via[0].Context().Value(noFollowKey{}) != nil {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}))

	if cfg.SSL {
		// On-prem servers commonly run with self-signed certificates.
		r.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: !cfg.VerifySSL})
	}

	return &SpectrumClient{
		HTTP:   r,
		Config: cfg,
		log:    logger,
	}
}

// Token returns the current session token, empty when logged out.
func (c *SpectrumClient) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *SpectrumClient) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// takeToken clears the current token and returns what it was.
func (c *SpectrumClient) takeToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	token := c.token
	c.token = ""
	return token
}

// Login opens a new session and makes its token current.
func (c *SpectrumClient) Login(ctx context.Context) (string, error) {
	const path = APIPrefix + "/login/sessions"

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	resp, err := c.HTTP.R().
		SetContext(context.WithValue(ctx, noFollowKey{}, true)).
		SetBody(auth.NewLoginPayload(c.Config.Username, c.Config.Password)).
		Post(path)
	if err != nil {
		return "", &RequestError{Method: http.MethodPost, Path: path, Err: err}
	}

	status := resp.StatusCode()
	switch {
	case status >= 300 && status < 400:
		// Never follow: the target may be a different host.
		loc := resp.Header().Get("Location")
		if loc == "" {
			loc = "unknown"
		}
		return "", &RequestError{Method: http.MethodPost, Path: path, Status: status,
			Err: fmt.Errorf("redirect (%d) to %s", status, loc)}
	case isAuthStatus(status):
		return "", &AuthError{Status: status}
	case status >= 400:
		return "", &RequestError{Method: http.MethodPost, Path: path, Status: status,
			Body: strings.TrimSpace(resp.String())}
	}

	token, err := ParseToken(resp.Body())
	if err != nil {
		return "", &RequestError{Method: http.MethodPost, Path: path, Status: status, Err: err}
	}

	c.setToken(token)
	c.log.Debug("session opened")
	return token, nil
}

// ParseToken extracts the session token from a login response body. It tries
// a JSON object's "token" field, then a bare JSON string, then the raw text
// with surrounding quotes removed. Content-Type is not trusted.
func ParseToken(body []byte) (string, error) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", errNoToken
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		switch t := v.(type) {
		case map[string]any:
			if t["token"] != nil {
				if token := strings.TrimSpace(cast.ToString(t["token"])); token != "" {
					return token, nil
				}
			}
			return "", errNoToken
		case string:
			if token := strings.TrimSpace(t); token != "" {
				return token, nil
			}
			return "", errNoToken
		}
	}

	token := strings.TrimSpace(strings.Trim(text, `"`))
	if token == "" {
		return "", errNoToken
	}
	return token, nil
}

// EnsureToken returns the current token, logging in only when there is none.
func (c *SpectrumClient) EnsureToken(ctx context.Context) (string, error) {
	if token := c.Token(); token != "" {
		return token, nil
	}
	return c.Login(ctx)
}

// Logout ends the current session. It is best effort: the local token is
// dropped first and every server-side failure is ignored.
func (c *SpectrumClient) Logout(ctx context.Context) {
	token := c.takeToken()
	if token == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, logoutTimeout)
	defer cancel()

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetHeader("Authorization", auth.BearerHeader(token)).
		SetPathParam("token", token).
		Delete(APIPrefix + "/login/sessions/{token}")
	if err != nil {
		c.log.WithError(err).Debug("logout failed")
		return
	}
	c.log.WithField("status", resp.StatusCode()).Debug("session closed")
}

// Validate checks the credentials with one login and an immediate logout.
func (c *SpectrumClient) Validate(ctx context.Context) error {
	if _, err := c.Login(ctx); err != nil {
		return err
	}
	c.Logout(ctx)
	return nil
}
