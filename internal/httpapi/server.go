// Package httpapi exposes the orchestrator's observable fields and commands
// as a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"localqa/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *orchestrator.Orchestrator satisfies it.
type Service interface {
	Models() []types.ModelDescriptor
	Selected() (types.ModelDescriptor, bool)
	Select(path string) error
	AddModelPath(path string) string
	RefreshModels(ctx context.Context) []types.ModelDescriptor
	CancelLoading()
	Status() types.StateResponse
	SetQuestion(q string)
	ClearQuestion()
	Submit(question string) bool
	Ask() bool
	CancelAsk() bool
	CopyAnswer() (string, bool)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Recoverer)
	if c := corsMiddleware(); c != nil {
		r.Use(c)
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(inflightMiddleware)
		r.Use(middleware.Compress(5, "application/json"))

		r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, modelsResponse(svc))
		})

		r.Post("/models", func(w http.ResponseWriter, r *http.Request) {
			var req types.PathRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if strings.TrimSpace(req.Path) == "" {
				writeJSONError(w, http.StatusBadRequest, "path is required")
				return
			}
			writeJSON(w, http.StatusOK, types.MessageResponse{Message: svc.AddModelPath(req.Path)})
		})

		r.Post("/models/refresh", func(w http.ResponseWriter, r *http.Request) {
			// Join server base context with request context so shutdown cancels work too.
			ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
			defer cancel()
			svc.RefreshModels(ctx)
			writeJSON(w, http.StatusOK, modelsResponse(svc))
		})

		r.Post("/models/refresh/cancel", func(w http.ResponseWriter, r *http.Request) {
			svc.CancelLoading()
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.Status())
		})

		r.Put("/selection", func(w http.ResponseWriter, r *http.Request) {
			var req types.PathRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if strings.TrimSpace(req.Path) == "" {
				writeJSONError(w, http.StatusBadRequest, "path is required")
				return
			}
			if err := svc.Select(req.Path); err != nil {
				writeJSONError(w, statusForError(err), err.Error())
				return
			}
			writeJSON(w, http.StatusOK, svc.Status())
		})

		r.Put("/question", func(w http.ResponseWriter, r *http.Request) {
			var req types.QuestionRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			svc.SetQuestion(req.Question)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Delete("/question", func(w http.ResponseWriter, r *http.Request) {
			svc.ClearQuestion()
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/ask", func(w http.ResponseWriter, r *http.Request) {
			var req types.QuestionRequest
			if hasBody(r) && !decodeJSON(w, r, &req) {
				return
			}
			var accepted bool
			if strings.TrimSpace(req.Question) != "" {
				accepted = svc.Submit(req.Question)
			} else {
				accepted = svc.Ask()
			}
			st := svc.Status()
			if !accepted {
				IncrementAskRejected(rejectReason(st, req.Question))
				writeJSON(w, http.StatusConflict, types.AskResponse{Accepted: false, State: st.State})
				return
			}
			writeJSON(w, http.StatusAccepted, types.AskResponse{Accepted: true, State: st.State})
		})

		r.Post("/ask/cancel", func(w http.ResponseWriter, r *http.Request) {
			if !svc.CancelAsk() {
				writeJSONError(w, http.StatusConflict, "no request in flight")
				return
			}
			writeJSON(w, http.StatusAccepted, types.MessageResponse{Message: "cancellation requested"})
		})

		r.Get("/answer", func(w http.ResponseWriter, r *http.Request) {
			text, ok := svc.CopyAnswer()
			if !ok {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, text)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("no model selected"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func modelsResponse(svc Service) types.ModelsResponse {
	resp := types.ModelsResponse{Models: svc.Models()}
	if d, ok := svc.Selected(); ok {
		resp.Selected = d.FilePath
	}
	return resp
}

// decodeJSON enforces a JSON content type and body limit and decodes into v.
// It writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func hasBody(r *http.Request) bool {
	return r.ContentLength > 0 || r.Header.Get("Content-Type") != ""
}

// rejectReason explains a 409 on POST /ask for the rejection metric.
func rejectReason(st types.StateResponse, question string) string {
	switch {
	case st.Selected == nil:
		return "no_model"
	case st.IsProcessing:
		return "busy"
	case strings.TrimSpace(question) == "" && strings.TrimSpace(st.Question) == "":
		return "blank_question"
	default:
		return "unspecified"
	}
}
