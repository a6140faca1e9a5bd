package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func call(t *testing.T, endpoint http.HandlerFunc) (int, statusBody) {
	t.Helper()

	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body statusBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func runN(p *probe, n int) {
	for range n {
		p.run(context.Background())
	}
}

func TestLiveEndpoint_NoChecks(t *testing.T) {
	code, body := call(t, New().LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)
}

func TestLiveEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing)
	h.AddLivenessCheck("db", time.Second, failing("connection refused"))
	runN(h.liveness[1], failureThreshold)

	code, body := call(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]string{"db": "connection refused"}, body.Checks)
}

func TestLiveEndpoint_BelowThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("flaky", time.Second, failing("temporary"))
	runN(h.liveness[0], failureThreshold-1)

	code, _ := call(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)

	code, body := call(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "_readiness")

	h.SetReady(true)
	code, body = call(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	h.SetReady(false)
	code, _ = call(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadyEndpoint_OneFailing(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, failing("ping timeout"))
	h.AddReadinessCheck("memory", time.Second, passing)
	h.SetReady(true)
	runN(h.readiness[0], failureThreshold)

	code, body := call(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "ping timeout", body.Checks["postgres"])
	assert.NotContains(t, body.Checks, "memory")
	assert.False(t, h.IsReady())
}

func TestProbe_Recovers(t *testing.T) {
	down := true
	p := newProbe("flaky", time.Second, func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})

	assert.Empty(t, p.failure())
	runN(p, failureThreshold)
	assert.Equal(t, "down", p.failure())

	down = false
	runN(p, successThreshold)
	assert.Empty(t, p.failure())
}

func TestProbe_Timeout(t *testing.T) {
	p := newProbe("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	runN(p, failureThreshold)
	assert.Contains(t, p.failure(), "deadline exceeded")
}

func TestStartStop(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failing("down"))
	h.AddReadinessCheck("db", time.Second, passing)
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
		return w.Code == http.StatusServiceUnavailable
	}, time.Second, 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				h.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()

	h.Stop()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
