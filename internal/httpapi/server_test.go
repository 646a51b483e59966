package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"localqa/internal/orchestrator"
	"localqa/pkg/types"
)

type mockService struct {
	models      []types.ModelDescriptor
	selected    *types.ModelDescriptor
	status      types.StateResponse
	question    string
	accept      bool
	submitted   []string
	asked       int
	cancelOK    bool
	answer      string
	addMsg      string
	added       []string
	refreshes   int
	cancelLoads int
	refreshCtx  context.Context
}

func (m *mockService) Models() []types.ModelDescriptor {
	return append([]types.ModelDescriptor(nil), m.models...)
}

func (m *mockService) Selected() (types.ModelDescriptor, bool) {
	if m.selected == nil {
		return types.ModelDescriptor{}, false
	}
	return *m.selected, true
}

func (m *mockService) Select(path string) error {
	for i := range m.models {
		if m.models[i].FilePath == path {
			m.selected = &m.models[i]
			return nil
		}
	}
	return orchestrator.ErrModelNotFound(path)
}

func (m *mockService) AddModelPath(path string) string {
	m.added = append(m.added, path)
	return m.addMsg
}

func (m *mockService) RefreshModels(ctx context.Context) []types.ModelDescriptor {
	m.refreshes++
	m.refreshCtx = ctx
	return nil
}

func (m *mockService) CancelLoading()              { m.cancelLoads++ }
func (m *mockService) Status() types.StateResponse { return m.status }
func (m *mockService) SetQuestion(q string)        { m.question = q }
func (m *mockService) ClearQuestion()              { m.question = "" }
func (m *mockService) CancelAsk() bool             { return m.cancelOK }
func (m *mockService) Ready() bool                 { return m.selected != nil }
func (m *mockService) CopyAnswer() (string, bool)  { return m.answer, strings.TrimSpace(m.answer) != "" }
func (m *mockService) Submit(question string) bool {
	m.submitted = append(m.submitted, question)
	return m.accept
}

func (m *mockService) Ask() bool {
	m.asked++
	return m.accept
}

func newMock() *mockService {
	return &mockService{
		models: []types.ModelDescriptor{
			{Name: "Gemma 2B", FilePath: "/m/gemma.gguf"},
			{Name: "phi-2", FilePath: "/m/phi-2.gguf", IsUserAdded: true},
		},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestModelsHandler(t *testing.T) {
	svc := newMock()
	svc.selected = &svc.models[1]
	w := do(t, NewMux(svc), http.MethodGet, "/models", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 || body.Selected != "/m/phi-2.gguf" || !body.Models[1].IsUserAdded {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAddModelHandler(t *testing.T) {
	svc := newMock()
	svc.addMsg = "Model added: tiny"
	h := NewMux(svc)

	w := do(t, h, http.MethodPost, "/models", `{"path":"/m/tiny.gguf"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.MessageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Message != "Model added: tiny" || len(svc.added) != 1 {
		t.Fatalf("unexpected: %+v added=%v", body, svc.added)
	}

	if w := do(t, h, http.MethodPost, "/models", `{"path":"  "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank path status=%d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/models", `{"path":`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json status=%d", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/models", strings.NewReader(`{"path":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("content-type status=%d", rr.Code)
	}
}

func TestRefreshHandlers(t *testing.T) {
	svc := newMock()
	h := NewMux(svc)
	if w := do(t, h, http.MethodPost, "/models/refresh", ""); w.Code != http.StatusOK || svc.refreshes != 1 {
		t.Fatalf("refresh status=%d refreshes=%d", w.Code, svc.refreshes)
	}
	if svc.refreshCtx.Err() == nil {
		t.Fatalf("refresh context must be released when the handler returns")
	}
	if w := do(t, h, http.MethodPost, "/models/refresh/cancel", ""); w.Code != http.StatusNoContent || svc.cancelLoads != 1 {
		t.Fatalf("cancel status=%d cancels=%d", w.Code, svc.cancelLoads)
	}
}

func TestSelectionHandler(t *testing.T) {
	svc := newMock()
	h := NewMux(svc)
	if w := do(t, h, http.MethodPut, "/selection", `{"path":"/m/gemma.gguf"}`); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.selected == nil || svc.selected.Name != "Gemma 2B" {
		t.Fatalf("selection not applied")
	}
	w := do(t, h, http.MethodPut, "/selection", `{"path":"/m/none.gguf"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown model status=%d", w.Code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Code != http.StatusNotFound {
		t.Fatalf("error body=%s", w.Body.String())
	}
}

func TestQuestionHandlers(t *testing.T) {
	svc := newMock()
	h := NewMux(svc)
	if w := do(t, h, http.MethodPut, "/question", `{"question":"why?"}`); w.Code != http.StatusNoContent || svc.question != "why?" {
		t.Fatalf("put status=%d question=%q", w.Code, svc.question)
	}
	if w := do(t, h, http.MethodDelete, "/question", ""); w.Code != http.StatusNoContent || svc.question != "" {
		t.Fatalf("delete status=%d question=%q", w.Code, svc.question)
	}
}

func TestAskHandler(t *testing.T) {
	svc := newMock()
	svc.selected = &svc.models[0]
	svc.accept = true
	svc.status = types.StateResponse{State: "loading", IsProcessing: true}
	h := NewMux(svc)

	w := do(t, h, http.MethodPost, "/ask", `{"question":"2+2?"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.AskResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if !body.Accepted || body.State != "loading" || len(svc.submitted) != 1 || svc.submitted[0] != "2+2?" {
		t.Fatalf("unexpected: %+v submitted=%v", body, svc.submitted)
	}

	// No body submits the pending question.
	if w := do(t, h, http.MethodPost, "/ask", ""); w.Code != http.StatusAccepted || svc.asked != 1 {
		t.Fatalf("ask pending status=%d asked=%d", w.Code, svc.asked)
	}

	svc.accept = false
	w = do(t, h, http.MethodPost, "/ask", `{"question":"again"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("rejected status=%d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Accepted {
		t.Fatalf("rejected ask reported accepted")
	}
}

func TestAskCancelHandler(t *testing.T) {
	svc := newMock()
	h := NewMux(svc)
	if w := do(t, h, http.MethodPost, "/ask/cancel", ""); w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
	svc.cancelOK = true
	if w := do(t, h, http.MethodPost, "/ask/cancel", ""); w.Code != http.StatusAccepted {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestAnswerHandler(t *testing.T) {
	svc := newMock()
	h := NewMux(svc)
	if w := do(t, h, http.MethodGet, "/answer", ""); w.Code != http.StatusNoContent {
		t.Fatalf("blank answer status=%d", w.Code)
	}
	svc.answer = "Paris."
	w := do(t, h, http.MethodGet, "/answer", "")
	if w.Code != http.StatusOK || w.Body.String() != "Paris." {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%s", ct)
	}
}

func TestStateHandler(t *testing.T) {
	svc := newMock()
	svc.status = types.StateResponse{State: "idle", LastOutcome: "model_changed", Answer: "Model changed during processing. Please try again.", ModelCount: 2}
	w := do(t, NewMux(svc), http.MethodGet, "/state", "")
	var body types.StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.LastOutcome != "model_changed" || body.ModelCount != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := newMock()
	h := NewMux(svc)
	if w := do(t, h, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz status=%d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/readyz", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz without selection status=%d", w.Code)
	}
	svc.selected = &svc.models[0]
	if w := do(t, h, http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", w.Code)
	}
}

func TestSecurityHeaderAndRequestID(t *testing.T) {
	w := do(t, NewMux(newMock()), http.MethodGet, "/state", "")
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

func TestBodyLimit(t *testing.T) {
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	w := do(t, NewMux(newMock()), http.MethodPut, "/question", `{"question":"`+strings.Repeat("x", 64)+`"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d", w.Code)
	}
}
