package cpanel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/semmidev/cpbackup/internal/domain"
)

type loginResponse struct {
	Status        truthy `json:"status"`
	SecurityToken string `json:"security_token"`
	Message       string `json:"message"`
}

// truthy accepts the loosely typed status cPanel returns: 1/0, true/false
// or their string forms.
type truthy bool

func (t *truthy) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch x := v.(type) {
	case nil:
		*t = false
	case bool:
		*t = truthy(x)
	case float64:
		*t = x != 0
	case string:
		if n, err := strconv.ParseFloat(x, 64); err == nil {
			*t = n != 0
		} else if b, err := strconv.ParseBool(x); err == nil {
			*t = truthy(b)
		} else {
			*t = x != ""
		}
	default:
		return fmt.Errorf("unsupported status value %s", b)
	}
	return nil
}

func (c *Client) Login(ctx context.Context) (*domain.Session, error) {
	form := url.Values{
		"user":     {c.cfg.Username},
		"pass":     {c.cfg.Password},
		"goto_uri": {"/"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.NewError(domain.ErrorTypeAuthentication, "failed to build login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.ErrorTypeAuthentication, "login request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewError(domain.ErrorTypeAuthentication, "failed to read login response", err)
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, domain.NewError(domain.ErrorTypeAuthentication,
			fmt.Sprintf("malformed login response (HTTP %d)", resp.StatusCode), err)
	}

	if !lr.Status {
		msg := "login rejected"
		if lr.Message != "" {
			msg += ": " + lr.Message
		}
		return nil, domain.NewError(domain.ErrorTypeAuthentication, msg, nil)
	}
	if lr.SecurityToken == "" {
		return nil, domain.NewError(domain.ErrorTypeAuthentication, "login response has no security token", nil)
	}

	cookie := findCookie(resp.Cookies(), sessionCookie)
	if cookie == "" {
		return nil, domain.NewError(domain.ErrorTypeAuthentication, "login response has no cpsession cookie", nil)
	}

	return &domain.Session{
		SecurityToken: lr.SecurityToken,
		Cookie:        cookie,
	}, nil
}

func findCookie(cookies []*http.Cookie, name string) string {
	for _, ck := range cookies {
		if strings.EqualFold(ck.Name, name) && ck.Value != "" {
			return ck.Value
		}
	}
	return ""
}
