package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func scrape(t *testing.T) []byte {
	t.Helper()
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	return mrr.Body.Bytes()
}

// TestMetrics_UsesRoutePattern ensures requests are labelled by the chi route
// pattern rather than the raw URL path.
func TestMetrics_UsesRoutePattern(t *testing.T) {
	h := NewMux(newMock())
	if w := do(t, h, http.MethodPut, "/selection", `{"path":"/m/gemma.gguf"}`); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body := scrape(t)
	if !bytes.Contains(body, []byte("localqa_http_requests_total")) || !bytes.Contains(body, []byte(`path="/selection"`)) {
		t.Fatalf("expected localqa_http_requests_total with /selection")
	}
	if bytes.Contains(body, []byte("/m/gemma.gguf")) {
		t.Fatalf("request body leaked into labels")
	}
}

func TestMetrics_AskRejectionCounted(t *testing.T) {
	svc := newMock()
	h := NewMux(svc)
	if w := do(t, h, http.MethodPost, "/ask", `{"question":"hi"}`); w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
	if !bytes.Contains(scrape(t), []byte(`localqa_http_ask_rejections_total{reason="no_model"}`)) {
		t.Fatalf("expected no_model rejection to be counted")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	w := do(t, NewMux(newMock()), http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestIncrementAskRejected_DefaultsReason(t *testing.T) {
	IncrementAskRejected("")
	if !bytes.Contains(scrape(t), []byte(`reason="unspecified"`)) {
		t.Fatalf("expected unspecified reason")
	}
}
