package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llamadesk/internal/manager"
	"llamadesk/pkg/types"
)

// Service defines the commands exposed to the front-end.
type Service interface {
	ShowWindow() error
	RequestCancel()
	LoadModel(ctx context.Context, path string) error
	// StartLoad begins a load in the background and returns its operation id.
	StartLoad(path string) string
	RunInference(ctx context.Context, prompt string, params types.InferenceParameters) error
	ListModels() []types.Model
	Status() types.StatusResponse
	Ready() bool
	Subscribe() (<-chan manager.Event, func())
}

// NewMux builds the command router.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/window/show", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if err := svc.ShowWindow(); err != nil {
			status := writeCommandError(w, err)
			logCommand(r, requestLogLevel(r), "show_window", start, status, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/cancel", func(w http.ResponseWriter, r *http.Request) {
		svc.RequestCancel()
		logCommand(r, requestLogLevel(r), "request_cancel", time.Now(), http.StatusNoContent, nil)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/models/load", func(w http.ResponseWriter, r *http.Request) {
		var req types.LoadModelRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Path) == "" {
			writeJSONError(w, http.StatusBadRequest, "path is required")
			return
		}
		lvl := requestLogLevel(r)
		start := time.Now()
		if isTruthy(r.URL.Query().Get("async")) {
			opID := svc.StartLoad(req.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]string{"op_id": opID})
			logCommand(r, lvl, "load_model", start, http.StatusAccepted, nil)
			return
		}
		ctx, cancel := commandContext(r)
		defer cancel()
		if err := svc.LoadModel(ctx, req.Path); err != nil {
			status := writeCommandError(w, err)
			if status == http.StatusConflict && manager.IsInvalidState(err) {
				IncrementRejected("load_model")
			}
			logCommand(r, lvl, "load_model", start, status, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		logCommand(r, lvl, "load_model", start, http.StatusNoContent, nil)
	})

	r.Get("/inference/defaults", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.DefaultInferenceParameters())
	})

	r.Post("/inference", func(w http.ResponseWriter, r *http.Request) {
		var req types.RunInferenceRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		// Basic validation
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		params := types.DefaultInferenceParameters()
		if req.Params != nil {
			params = *req.Params
		}
		if err := params.Validate(); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		lvl := requestLogLevel(r)
		start := time.Now()
		ctx, cancel := commandContext(r)
		defer cancel()
		if err := svc.RunInference(ctx, req.Prompt, params); err != nil {
			// If the client went away there is nobody to answer.
			if r.Context().Err() != nil {
				logCommand(r, lvl, "run_inference", start, 499, err)
				return
			}
			status := writeCommandError(w, err)
			if manager.IsInvalidState(err) {
				IncrementRejected("run_inference")
			}
			logCommand(r, lvl, "run_inference", start, status, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		logCommand(r, lvl, "run_inference", start, http.StatusNoContent, nil)
	})

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		serveEvents(w, r, svc)
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ModelsResponse{Models: svc.ListModels()})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no model"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// decodeJSON enforces the content type and body limit, writing 4xx on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// MaxBytesReader errors are reported as 400 as well
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}
