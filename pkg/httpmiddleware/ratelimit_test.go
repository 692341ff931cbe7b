package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func get(h http.Handler, remote string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := range 5 {
		w := get(h, "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, get(h, "10.0.0.1:9999", nil).Code)
	}
	w := get(h, "10.0.0.1:9999", nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(429), body["statusCode"])
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimit_PerClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RateLimitConfig
		first   map[string]string
		firstIP string
		other   map[string]string
		otherIP string
	}{
		{
			name:    "remote addr",
			firstIP: "10.0.0.1:1234",
			otherIP: "10.0.0.2:1234",
		},
		{
			name:    "forwarded for",
			first:   map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"},
			firstIP: "192.168.1.1:1",
			other:   map[string]string{"X-Forwarded-For": "203.0.113.51"},
			otherIP: "192.168.1.1:1",
		},
		{
			name: "custom key",
			cfg: RateLimitConfig{KeyFunc: func(r *http.Request) string {
				return r.Header.Get("Authorization")
			}},
			first:   map[string]string{"Authorization": "Bearer a"},
			firstIP: "10.0.0.1:1",
			other:   map[string]string{"Authorization": "Bearer b"},
			otherIP: "10.0.0.1:1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Max, cfg.Window = 1, time.Minute
			h := RateLimit(cfg)(okHandler())

			assert.Equal(t, http.StatusOK, get(h, tt.firstIP, tt.first).Code)
			assert.Equal(t, http.StatusOK, get(h, tt.otherIP, tt.other).Code)
			assert.Equal(t, http.StatusTooManyRequests, get(h, tt.firstIP, tt.first).Code)
		})
	}
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 4, Window: time.Minute})
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	for range 4 {
		_, _, ok := l.take("k", start)
		require.True(t, ok)
	}
	_, _, ok := l.take("k", start.Add(30*time.Second))
	assert.False(t, ok, "same window is exhausted")

	// Half of the previous window still overlaps: estimate is 4*0.5 = 2.
	remaining, _, ok := l.take("k", start.Add(90*time.Second))
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	// Two windows later the history is gone.
	remaining, _, ok = l.take("k", start.Add(5*time.Minute))
	assert.True(t, ok)
	assert.Equal(t, 3, remaining)
}

func TestLimiter_Evict(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Second})
	now := time.Now()
	l.take("a", now)
	l.take("b", now.Add(3*time.Second))

	l.evict(now.Add(3 * time.Second))

	assert.NotContains(t, l.byKey, "a")
	assert.Contains(t, l.byKey, "b")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "remote", remote: "10.1.1.1:80", want: "10.1.1.1"},
		{name: "xff first hop", remote: "10.1.1.1:80", headers: map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8"}, want: "1.2.3.4"},
		{name: "real ip", remote: "10.1.1.1:80", headers: map[string]string{"X-Real-IP": "9.9.9.9"}, want: "9.9.9.9"},
		{name: "no port", remote: "unix", want: "unix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
