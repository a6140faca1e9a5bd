// Package health serves liveness and readiness probes.
//
// Every registered check runs periodically in its own goroutine. A check turns
// unhealthy after three consecutive failures and healthy again after one
// success, so a single slow ping does not flip the probe.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

const (
	failureThreshold = 3
	successThreshold = 1
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// probe is a registered check. fails and oks are touched only by the goroutine
// running the check; healthy and lastErr are read concurrently by endpoints.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, check: check}
	p.healthy.Store(true)
	return p
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)
	if err != nil {
		p.oks = 0
		if p.fails++; p.fails >= failureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.fails = 0
	if p.oks++; p.oks >= successThreshold {
		p.healthy.Store(true)
	}
}

// failure returns the reason p is unhealthy, or "" when it is healthy.
func (p *probe) failure() string {
	if p.healthy.Load() {
		return ""
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error()
	}
	return "check is unhealthy"
}

// Health holds the liveness and readiness checks of a service. A new Health
// is not ready until SetReady(true).
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New creates a Health with no checks.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check that tells whether the process works.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a check that tells whether the service can take
// traffic, e.g. a database ping.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check))
}

// Start runs every registered check now and then every interval until Stop
// is called or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := append(append([]*probe(nil), h.liveness...), h.readiness...)
	h.mu.Unlock()

	for _, p := range probes {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.run(ctx)
				}
			}
		}()
	}
}

// Stop cancels the background checks. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady marks the service ready or, during shutdown, not ready.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether SetReady(true) was called and every readiness
// check passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	return len(h.failures(&h.readiness)) == 0
}

func (h *Health) failures(list *[]*probe) map[string]string {
	h.mu.RLock()
	probes := *list
	h.mu.RUnlock()

	out := make(map[string]string)
	for _, p := range probes {
		if reason := p.failure(); reason != "" {
			out[p.name] = reason
		}
	}
	return out
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} or 503 listing the failing
// checks.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(&h.liveness))
}

// ReadyEndpoint serves /readyz. It fails while the service is not marked ready
// or any readiness check fails.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := h.failures(&h.readiness)
	if !h.ready.Load() {
		failed["_readiness"] = "service is not ready"
	}
	writeStatus(w, failed)
}

func writeStatus(w http.ResponseWriter, failed map[string]string) {
	status, text := http.StatusOK, "ok"
	if len(failed) > 0 {
		status, text = http.StatusServiceUnavailable, "unhealthy"
	}

	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(text) })
		if len(names) == 0 {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(failed[name]) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
