package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ops/internal/config"
	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/utils"
)

const secret = "test-secret"

func protected(roles ...string) *echo.Echo {
	e := echo.New()
	g := e.Group("/v1", JWTAuth(secret), RequireRole(roles...))
	g.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get("user_id"), "role": c.Get("role")})
	})
	return e
}

func call(e *echo.Echo, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	staff, err := utils.NewAccessToken(secret, 7, model.RoleStaff, 5)
	require.NoError(t, err)
	admin, err := utils.NewAccessToken(secret, 1, model.RoleAdmin, 5)
	require.NoError(t, err)
	forged, err := utils.NewAccessToken("other", 1, model.RoleAdmin, 5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		roles  []string
		auth   string
		status int
		code   model.Code
	}{
		{name: "no header", roles: []string{model.RoleStaff}, status: http.StatusUnauthorized, code: model.CodeUnauthorized},
		{name: "not bearer", roles: []string{model.RoleStaff}, auth: "Basic abc", status: http.StatusUnauthorized, code: model.CodeUnauthorized},
		{name: "forged", roles: []string{model.RoleAdmin}, auth: "Bearer " + forged.Token, status: http.StatusUnauthorized, code: model.CodeUnauthorized},
		{name: "wrong role", roles: []string{model.RoleAdmin}, auth: "Bearer " + staff.Token, status: http.StatusForbidden, code: model.CodeForbidden},
		{name: "staff allowed", roles: []string{model.RoleStaff, model.RoleAdmin}, auth: "Bearer " + staff.Token, status: http.StatusOK},
		{name: "admin allowed", roles: []string{model.RoleAdmin}, auth: "Bearer " + admin.Token, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(protected(tt.roles...), tt.auth)
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				var body model.Error
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.code, body.Code)
			}
		})
	}

	rec := call(protected(model.RoleStaff), "Bearer "+staff.Token)
	assert.JSONEq(t, `{"user_id":"7","role":"STAFF"}`, rec.Body.String())
}

func keyFor(cfg config.CacheConfig, method, target string) string {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(method, target, nil), httptest.NewRecorder())
	return cacheKeyFrom(cfg, c)
}

func TestCacheKey(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "eventops:cache", KeyStrategy: "route_query"}

	a := keyFor(cfg, http.MethodGet, "/v1/lodges/1")
	b := keyFor(cfg, http.MethodGet, "/v1/lodges/2")
	assert.NotEqual(t, a, b, "path ids are part of the key")
	assert.True(t, strings.HasPrefix(a, "eventops:cache:"))

	assert.NotEqual(t,
		keyFor(cfg, http.MethodGet, "/v1/profiles?offset=0"),
		keyFor(cfg, http.MethodGet, "/v1/profiles?offset=12"))

	cfg.KeyStrategy = "route"
	assert.Equal(t,
		keyFor(cfg, http.MethodGet, "/v1/profiles?offset=0"),
		keyFor(cfg, http.MethodGet, "/v1/profiles?offset=12"))

	cfg.KeyStrategy = "bogus"
	assert.Equal(t,
		keyFor(cfg, http.MethodGet, "/v1/profiles?offset=0"),
		keyFor(config.CacheConfig{Prefix: "eventops:cache", KeyStrategy: "route_query"}, http.MethodGet, "/v1/profiles?offset=0"))

	cfg.KeyStrategy = "method_route"
	assert.NotEqual(t,
		keyFor(cfg, http.MethodGet, "/v1/lodges"),
		keyFor(cfg, http.MethodHead, "/v1/lodges"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	cr, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, cr.Status)
	assert.Equal(t, "application/json", cr.Header.Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, string(cr.Body))

	_, ok = decodePayload(bs[:5])
	assert.False(t, ok)
	_, ok = decodePayload([]byte(`{"s":0}`))
	assert.False(t, ok, "status out of range")
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.overflow)
	_, _ = cw.Write([]byte("de"))
	assert.True(t, cw.overflow)
	assert.Zero(t, cw.buf.Len())
	assert.Equal(t, "abcde", rec.Body.String(), "the client still gets everything")
}

func TestMiddlewaresPassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true, TTL: time.Second}, nil))
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "x") })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/lodges/1/participants", nil)
	req.Header.Set("X-Real-IP", "10.0.0.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/lodges/:id/participants")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.9", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, c))

	c.Set("user_id", "42")
	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:42:route:POST /v1/lodges/:id/participants", buildRateKey(cfg, c))
}

func TestIsWrite(t *testing.T) {
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		assert.True(t, isWrite(m), m)
	}
	assert.False(t, isWrite(http.MethodGet))
	assert.False(t, isWrite(http.MethodHead))
}

func TestRateKeyDefaultsToEveryPart(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/lodges", nil)
	req.Header.Set("X-Real-IP", "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/lodges")

	for _, s := range []string{"", "nonsense"} {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: s}
		assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:GET /v1/lodges", buildRateKey(cfg, c), s)
	}
}

func TestParseBucket(t *testing.T) {
	res, ok := parseBucket([]any{int64(0), int64(2), int64(1500)})
	require.True(t, ok)
	assert.False(t, res.allowed)
	assert.Equal(t, int64(2), res.remaining)
	assert.Equal(t, 1500*time.Millisecond, res.retry)

	res, ok = parseBucket([]any{int64(1), "7", int64(0)})
	require.True(t, ok)
	assert.True(t, res.allowed)
	assert.Equal(t, int64(7), res.remaining)

	_, ok = parseBucket("OK")
	assert.False(t, ok)
	_, ok = parseBucket([]any{int64(1)})
	assert.False(t, ok)
}
