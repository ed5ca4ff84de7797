// Package health serves the liveness and readiness endpoints of the
// diagnostics listener.
//
// /healthz answers 200 whenever the process can serve HTTP at all. /readyz
// runs every registered probe (lexicon validity, driver presence) and answers
// 503 as soon as one fails, with a JSON body naming the culprit.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Probe inspects one dependency and returns nil when it is usable. Probes
// must respect ctx cancellation.
type Probe func(ctx context.Context) error

// report is the JSON body of both endpoints.
type report struct {
	Status string            `json:"status"`
	Probes map[string]string `json:"probes,omitempty"`
}

// Handler answers the health endpoints. Probes may be added after
// construction and while the handler is serving.
type Handler struct {
	timeout time.Duration

	mu     sync.RWMutex
	order  []string
	probes map[string]Probe
}

// Option configures a [Handler].
type Option func(*Handler)

// WithProbeTimeout bounds each probe run. The default is 5 seconds.
func WithProbeTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewHandler returns a Handler with no probes registered.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		timeout: 5 * time.Second,
		probes:  map[string]Probe{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Add registers a named readiness probe. Registering a name twice replaces
// the earlier probe and keeps its position.
func (h *Handler) Add(name string, p Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.probes[name]; !exists {
		h.order = append(h.order, name)
	}
	h.probes[name] = p
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /readyz", h.readyz)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, report{Status: "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	names := make([]string, len(h.order))
	copy(names, h.order)
	probes := make(map[string]Probe, len(h.probes))
	for name, p := range h.probes {
		probes[name] = p
	}
	h.mu.RUnlock()

	rep := report{Status: "ok", Probes: make(map[string]string, len(names))}
	code := http.StatusOK

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := probes[name](ctx)
		cancel()

		if err != nil {
			rep.Probes[name] = "fail: " + err.Error()
			rep.Status = "fail"
			code = http.StatusServiceUnavailable
		} else {
			rep.Probes[name] = "ok"
		}
	}

	respond(w, code, rep)
}

func respond(w http.ResponseWriter, code int, rep report) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
