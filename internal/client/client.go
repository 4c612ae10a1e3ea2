// Package client talks to the event-ops server over its JSON API.  Every
// payload is validated on the way in, and the server's error envelope is
// decoded back into *model.Error so callers can use errors.Is on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ops/internal/model"
)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Credential authenticates one operator.  It is passed explicitly to every
// call instead of living in the client.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Bearer wraps an access token obtained elsewhere.
func Bearer(token string) Credential { return Credential{Token: token} }

// Expired reports whether the token is past its expiry.  A zero expiry is
// never considered expired.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the server at baseURL.  A nil hc uses a client
// with a 15 second timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

type validator interface{ Validate() error }

func malformed(msg string, err error) error {
	return &model.Error{Code: model.CodeMalformedPayload, Message: msg, Err: err}
}

func unavailable(msg string, err error) error {
	return &model.Error{Code: model.CodeUnavailable, Message: msg, Err: err}
}

// do sends one request.  in is JSON encoded when non-nil; out, when
// non-nil, receives the decoded 2xx body and is validated if it can be.
func (c *Client) do(ctx context.Context, cred *Credential, method, path string, query url.Values, in, out any) error {
	if cred != nil && cred.Token == "" {
		return &model.Error{Code: model.CodeUnauthorized, Message: "no credential"}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred != nil {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return unavailable(method+" "+path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return unavailable("read "+path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return malformed("decode "+path, err)
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return malformed("validate "+path, err)
		}
	}
	return nil
}

// decodeError turns a non-2xx response into a *model.Error.  5xx and 429
// are always reported as unavailable; other statuses carry the server's own
// code when the envelope can be read.
func decodeError(status int, raw []byte) error {
	var env model.Error
	_ = json.Unmarshal(raw, &env)

	if status >= 500 || status == http.StatusTooManyRequests {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &model.Error{Code: model.CodeUnavailable, Message: msg}
	}
	if env.Code != "" {
		return &env
	}
	switch status {
	case http.StatusUnauthorized:
		return &model.Error{Code: model.CodeUnauthorized, Message: http.StatusText(status)}
	case http.StatusForbidden:
		return &model.Error{Code: model.CodeForbidden, Message: http.StatusText(status)}
	case http.StatusNotFound:
		return &model.Error{Code: model.CodeNotFound, Message: http.StatusText(status)}
	}
	return malformed(fmt.Sprintf("status %d without error envelope", status), errors.New(strings.TrimSpace(string(raw))))
}

// list fetches a JSON array and validates each element.
func list[T validator](ctx context.Context, c *Client, cred Credential, path string) ([]T, error) {
	var out []T
	if err := c.do(ctx, &cred, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	for _, v := range out {
		if err := v.Validate(); err != nil {
			return nil, malformed("validate "+path, err)
		}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func idPath(format string, ids ...uint64) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, args...)
}
