package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabus/transit-admin/internal/config"
)

// bucketStub answers every script invocation with a fixed
// {allowed, remaining, retry_after_ms} triple.
type bucketStub struct {
	result []interface{}
	err    error
}

func (s bucketStub) cmd() *redis.Cmd {
	if s.err != nil {
		return redis.NewCmdResult(nil, s.err)
	}
	return redis.NewCmdResult(s.result, nil)
}

func (s bucketStub) Eval(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return s.cmd()
}

func (s bucketStub) EvalSha(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return s.cmd()
}

func (s bucketStub) EvalRO(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return s.cmd()
}

func (s bucketStub) EvalShaRO(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return s.cmd()
}

func (s bucketStub) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (s bucketStub) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func runLimiter(t *testing.T, stub bucketStub) *httptest.ResponseRecorder {
	t.Helper()
	cfg := config.RateLimitConfig{
		Enabled:     true,
		Capacity:    5,
		RefillEvery: 3 * time.Second,
		TTL:         time.Minute,
		Prefix:      "rl",
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/auth/sign-in")

	h := rateLimitWith(cfg, stub)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec
}

func TestRateLimitAllowsWhileTokensRemain(t *testing.T) {
	rec := runLimiter(t, bucketStub{result: []interface{}{int64(1), int64(4), int64(0)}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitDrainedBucketIs429WithRetryAfter(t *testing.T) {
	rec := runLimiter(t, bucketStub{result: []interface{}{int64(0), int64(0), int64(1500)}})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Muitas tentativas")
}

func TestRateLimitRedisErrorLetsRequestThrough(t *testing.T) {
	rec := runLimiter(t, bucketStub{err: assert.AnError})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitDisabledIsPassThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RateLimit(config.RateLimitConfig{Enabled: false}, nil)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Remaining"))
}
