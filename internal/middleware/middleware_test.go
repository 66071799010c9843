package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/auth"
	"github.com/iliyamo/conductor/internal/config"
	"github.com/iliyamo/conductor/internal/model"
)

type stubAuth struct {
	user model.User
	err  error
	seen string
}

func (s *stubAuth) Authenticate(_ context.Context, raw string) (model.User, *auth.Claims, error) {
	s.seen = raw
	if s.err != nil {
		return model.User{}, nil, s.err
	}
	return s.user, &auth.Claims{Role: s.user.Role}, nil
}

func newContext(e *echo.Echo, header string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestJWTAuthRequiresHeader(t *testing.T) {
	e := echo.New()
	a := &stubAuth{user: model.User{ID: 3}}
	c, _ := newContext(e, "")
	err := JWTAuth(a)(ok)(c)
	e2, isApp := apperr.From(err)
	require.True(t, isApp)
	assert.Equal(t, apperr.Authentication, e2.Kind)
	assert.Equal(t, MsgAuthHeaderMissing, e2.Message)

	c, _ = newContext(e, "Basic abc")
	assert.ErrorIs(t, JWTAuth(a)(ok)(c), apperr.ErrAuthentication)
}

func TestJWTAuthStoresIdentity(t *testing.T) {
	e := echo.New()
	a := &stubAuth{user: model.User{ID: 3, Role: model.RoleAdmin}}
	c, rec := newContext(e, "Bearer tok-123")
	require.NoError(t, JWTAuth(a)(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-123", a.seen)

	u, found := CurrentUser(c)
	require.True(t, found)
	assert.Equal(t, uint64(3), u.ID)
	assert.True(t, Actor(c).Role.IsAdmin())
	_, found = CurrentClaims(c)
	assert.True(t, found)
}

func TestJWTAuthPassesServiceError(t *testing.T) {
	e := echo.New()
	a := &stubAuth{err: apperr.Unauthorized("Token has expired")}
	c, _ := newContext(e, "Bearer stale")
	err := JWTAuth(a)(ok)(c)
	got, _ := apperr.From(err)
	require.NotNil(t, got)
	assert.Equal(t, "Token has expired", got.Message)
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	c, _ := newContext(e, "")
	assert.ErrorIs(t, RequireAdmin()(ok)(c), apperr.ErrAuthentication)

	SetIdentity(c, model.User{ID: 1, Role: model.RoleStandard}, nil)
	assert.ErrorIs(t, RequireAdmin()(ok)(c), apperr.ErrAuthorization)

	SetIdentity(c, model.User{ID: 1, Role: model.RoleAdmin}, nil)
	assert.NoError(t, RequireAdmin()(ok)(c))
}

func TestTokenBucketLimitsPerIP(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   2,
		RefillInterval: time.Minute,
		TTL:            2 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl:test",
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, zap.NewNop()))
	e.GET("/ping", ok)

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	rec := do("10.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), MsgRateLimited)

	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)
	assert.True(t, mr.Exists("rl:test:ip:10.0.0.1"))
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	cfg := config.DefaultRateLimit
	cfg.TTL = time.Hour
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, zap.NewNop()))
	e.GET("/ping", ok)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucketDisabledWithoutRedis(t *testing.T) {
	mw := NewTokenBucket(config.DefaultRateLimit, nil, nil)
	e := echo.New()
	c, rec := newContext(e, "")
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLoggerAndMetrics(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.JSON(apperr.KindOf(err).Status(), map[string]string{"error": err.Error()})
	}
	e.Use(RequestLogger(zap.New(core)), m.Middleware())
	e.GET("/tasks/:id", func(c echo.Context) error { return apperr.NotFoundf("Task") })

	req := httptest.NewRequest(http.MethodGet, "/tasks/42", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[0].ContextMap()["status"])
	assert.Equal(t, "/tasks/:id", entries[0].ContextMap()["path"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/tasks/:id", "404")))
}
