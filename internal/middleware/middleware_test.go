package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-crypto-reservation/internal/config"
	"github.com/iliyamo/hotel-crypto-reservation/internal/utils"
)

const secret = "test-secret"

func serve(t *testing.T, h echo.HandlerFunc, token string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/x", h, mw...)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func whoami(c echo.Context) error {
	id, _ := UserID(c)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": Role(c)})
}

func TestJWTAuth(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, 42, RoleCustomer, 5)
	require.NoError(t, err)

	rec := serve(t, whoami, tok.Token, JWTAuth(secret))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42,"role":"CUSTOMER"}`, rec.Body.String())

	rec = serve(t, whoami, "", JWTAuth(secret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, whoami, tok.Token, JWTAuth("other-secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := utils.NewAccessToken(secret, 42, RoleCustomer, -5)
	require.NoError(t, err)
	rec = serve(t, whoami, expired.Token, JWTAuth(secret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsBadSubject(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice", "role": RoleCustomer}).
		SignedString([]byte(secret))
	require.NoError(t, err)
	rec := serve(t, whoami, signed, JWTAuth(secret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Numeric subjects decode as float64.
	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 7, "role": "relay"}).
		SignedString([]byte(secret))
	require.NoError(t, err)
	rec = serve(t, whoami, signed, JWTAuth(secret))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"role":"RELAY"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, 1, RoleCustomer, 5)
	require.NoError(t, err)

	rec := serve(t, whoami, tok.Token, JWTAuth(secret), RequireRole(RoleOperator))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, whoami, tok.Token, JWTAuth(secret), RequireRole(RoleCustomer, RoleOperator))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	rec := serve(t, ok, "", NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(t, ok, "", NewRedisCache(config.CacheConfig{Enabled: true}, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/relay/transfers", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/relay/transfers")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:POST /v1/relay/transfers", buildRateKey(cfg, c))

	c.Set(ctxUserID, uint64(9))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:9", buildRateKey(cfg, c))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}
