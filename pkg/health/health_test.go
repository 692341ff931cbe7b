package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func checkOK(context.Context) error { return nil }

func checkErr(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func serve(t *testing.T, fn http.HandlerFunc) (int, body) {
	t.Helper()
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var b body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return w.Code, b
}

func failTimes(p *checker, n int) {
	for range n {
		p.run(context.Background())
	}
}

func TestLiveEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		runs       int
		wantStatus int
		wantChecks map[string]string
	}{
		{name: "unchecked is healthy", runs: 0, wantStatus: http.StatusOK},
		{name: "below threshold", runs: FailureThreshold - 1, wantStatus: http.StatusOK},
		{
			name:       "at threshold",
			runs:       FailureThreshold,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"postgres": "connection refused"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			h.AddLivenessCheck("ok", time.Second, checkOK)
			h.AddLivenessCheck("postgres", time.Second, checkErr("connection refused"))
			failTimes(h.liveness[1], tt.runs)

			code, b := serve(t, h.LiveEndpoint)
			assert.Equal(t, tt.wantStatus, code)
			if tt.wantChecks == nil {
				assert.Equal(t, "ok", b.Status)
				assert.Empty(t, b.Checks)
				return
			}
			assert.Equal(t, "unhealthy", b.Status)
			assert.Equal(t, tt.wantChecks, b.Checks)
		})
	}
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, checkOK)

	code, b := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "service is not ready", b.Checks["_readiness"])
	assert.False(t, h.IsReady())

	h.SetReady(true)
	code, b = serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", b.Status)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	code, _ = serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadyEndpoint_FailingDependency(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, checkErr("timeout"))
	h.AddReadinessCheck("other", time.Second, checkOK)
	h.SetReady(true)
	failTimes(h.readiness[0], FailureThreshold)

	code, b := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, map[string]string{"postgres": "timeout"}, b.Checks)
	assert.False(t, h.IsReady())
}

func TestChecker_Recovers(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	p := newChecker("db", time.Second, func(context.Context) error {
		if failing.Load() {
			return errors.New("down")
		}
		return nil
	})

	failTimes(p, FailureThreshold)
	assert.Equal(t, "down", p.failure())

	failing.Store(false)
	p.run(context.Background())
	assert.Empty(t, p.failure())
}

func TestChecker_Timeout(t *testing.T) {
	p := newChecker("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	failTimes(p, FailureThreshold)
	assert.Equal(t, context.DeadlineExceeded.Error(), p.failure())
}

func TestStartStop(t *testing.T) {
	var calls atomic.Int32
	h := New()
	h.AddReadinessCheck("count", time.Second, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	h.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("live", time.Second, checkOK)
	h.AddReadinessCheck("ready", time.Second, checkOK)
	h.SetReady(true)
	h.Start(context.Background(), time.Millisecond)
	defer h.Stop()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
			h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			_ = h.IsReady()
		}()
	}
	wg.Wait()
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheckers(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, PingCheck(pinger{})(ctx))
	assert.ErrorContains(t, PingCheck(pinger{err: errors.New("refused")})(ctx), "ping: refused")

	assert.NoError(t, GoroutineCountCheck(1_000_000)(ctx))
	assert.ErrorContains(t, GoroutineCountCheck(0)(ctx), "exceeds threshold")

	assert.NoError(t, GCMaxPauseCheck(time.Hour)(ctx))
}
