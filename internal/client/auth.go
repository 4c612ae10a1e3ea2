package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/iliyamo/event-ops/internal/model"
)

// Login exchanges operator credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (Credential, error) {
	var tok model.Token
	if err := c.do(ctx, nil, http.MethodPost, "/v1/auth/token", nil, model.Login{Email: email, Password: password}, &tok); err != nil {
		return Credential{}, err
	}
	if tok.AccessToken == "" {
		return Credential{}, malformed("decode /v1/auth/token", errors.New("empty access_token"))
	}
	return Credential{Token: tok.AccessToken, ExpiresAt: tok.ExpiresAt}, nil
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, nil, http.MethodGet, "/healthz", nil, nil, nil)
}
