package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwyatt92/muninn/internal/health"
)

func serve(t *testing.T, h *health.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec, body
}

func TestHealthz_AlwaysOK(t *testing.T) {
	t.Parallel()

	h := health.NewHandler()
	h.Add("lexicon", func(context.Context) error { return errors.New("broken") })

	rec, body := serve(t, h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 regardless of probes", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("body status = %v, want ok", body["status"])
	}
}

func TestReadyz_AllProbesPass(t *testing.T) {
	t.Parallel()

	h := health.NewHandler()
	h.Add("lexicon", func(context.Context) error { return nil })
	h.Add("recordings", func(context.Context) error { return nil })

	rec, body := serve(t, h, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	probes := body["probes"].(map[string]any)
	for _, name := range []string{"lexicon", "recordings"} {
		if probes[name] != "ok" {
			t.Errorf("probe %q = %v, want ok", name, probes[name])
		}
	}
}

func TestReadyz_FailingProbeNamesCulprit(t *testing.T) {
	t.Parallel()

	h := health.NewHandler()
	h.Add("lexicon", func(context.Context) error { return nil })
	h.Add("recordings", func(context.Context) error { return errors.New("directory missing") })

	rec, body := serve(t, h, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if body["status"] != "fail" {
		t.Errorf("body status = %v, want fail", body["status"])
	}
	probes := body["probes"].(map[string]any)
	if got, _ := probes["recordings"].(string); !strings.Contains(got, "directory missing") {
		t.Errorf("probe recordings = %q, want the failure reason", got)
	}
	if probes["lexicon"] != "ok" {
		t.Errorf("probe lexicon = %v, want ok alongside the failure", probes["lexicon"])
	}
}

func TestReadyz_SlowProbeTimesOut(t *testing.T) {
	t.Parallel()

	h := health.NewHandler(health.WithProbeTimeout(20 * time.Millisecond))
	h.Add("speech", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	rec, _ := serve(t, h, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when the probe exceeds its deadline", rec.Code)
	}
}

func TestReadyz_NoProbes(t *testing.T) {
	t.Parallel()

	rec, body := serve(t, health.NewHandler(), "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with nothing registered", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("body status = %v, want ok", body["status"])
	}
}

func TestAdd_ReplacesByName(t *testing.T) {
	t.Parallel()

	h := health.NewHandler()
	h.Add("lexicon", func(context.Context) error { return errors.New("stale tables") })
	h.Add("lexicon", func(context.Context) error { return nil })

	rec, body := serve(t, h, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 after the probe was replaced", rec.Code)
	}
	probes := body["probes"].(map[string]any)
	if len(probes) != 1 {
		t.Errorf("probe count = %d, want 1", len(probes))
	}
}

func TestEndpoints_RejectNonGET(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	health.NewHandler().Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/readyz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
