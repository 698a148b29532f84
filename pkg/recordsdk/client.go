package recordsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to a labrecords service. It serves unauthenticated calls and
// creates authenticated Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a labrecords client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates with first-party credentials and returns a Session
// wrapping the issued bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// NewSessionFromToken builds a Session from a previously stored token, e.g.
// after an application restart. The identity info is whatever the caller
// persisted alongside it.
func (c *Client) NewSessionFromToken(token string, identity IdentityInfo) *Session {
	return &Session{
		client:   c,
		token:    token,
		identity: identity,
		monitor:  newSessionMonitor(),
	}
}
