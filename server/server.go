// Package server exposes the assistant over HTTP: a blocking invoke endpoint,
// a server-sent-events stream of execution progress, a health probe and the
// Prometheus metrics endpoint.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/metrics"
	"github.com/hupe1980/supportmesh/stream"
	"github.com/hupe1980/supportmesh/supervisor"
)

// Options holds configuration overrides passed to NewHandler().
type Options struct {
	// Logger receives structured request logs.
	Logger logging.Logger
}

// Server routes HTTP requests to the supervisor.
type Server struct {
	sup    *supervisor.Supervisor
	logger logging.Logger
}

// ChatRequest is the body of both chat endpoints. An empty ThreadID starts a
// new conversation thread.
type ChatRequest struct {
	Query    string `json:"query"`
	ThreadID string `json:"thread_id,omitempty"`
}

// ChatResponse is the invoke endpoint's reply.
type ChatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

// NewHandler builds the HTTP handler for the assistant.
func NewHandler(sup *supervisor.Supervisor, optFns ...func(o *Options)) http.Handler {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	s := &Server{sup: sup, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(enableCORS)

	r.Post("/chat/invoke", s.Invoke)
	r.Post("/chat/stream", s.Stream)
	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Invoke handles POST /chat/invoke: one blocking supervisor turn.
func (s *Server) Invoke(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	metrics.InvocationsStarted.WithLabelValues("invoke").Inc()
	start := time.Now()
	answer, err := s.sup.Invoke(r.Context(), threadID, req.Query)
	metrics.InvocationDuration.WithLabelValues("invoke").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.InvocationsCompleted.WithLabelValues("invoke", "error").Inc()
		s.logger.Error("server.invoke.failed", "thread_id", threadID, "error", err.Error())
		http.Error(w, fmt.Sprintf("Invoke error: %v", err), http.StatusInternalServerError)
		return
	}
	metrics.InvocationsCompleted.WithLabelValues("invoke", "ok").Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ChatResponse{Response: answer, ThreadID: threadID}); err != nil {
		s.logger.Error("server.invoke.encode_failed", "error", err.Error())
	}
}

// Stream handles POST /chat/stream: the same turn as Invoke, but execution
// progress is pushed as server-sent events. The first event names the thread;
// failures after the stream has started are delivered as a terminal error
// event, never as an HTTP error status.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	metrics.InvocationsStarted.WithLabelValues("stream").Inc()
	metrics.ActiveStreams.Inc()
	start := time.Now()
	defer func() {
		metrics.ActiveStreams.Dec()
		metrics.InvocationDuration.WithLabelValues("stream").Observe(time.Since(start).Seconds())
	}()

	writeEvent(w, stream.Event{Type: stream.EventNewThread, ThreadID: threadID})
	flusher.Flush()

	snapshots, errCh := s.sup.Stream(r.Context(), threadID, req.Query)
	status := "ok"
	for ev := range stream.Consume(snapshots, errCh) {
		if ev.Type == stream.EventError {
			status = "error"
			s.logger.Error("server.stream.failed", "thread_id", threadID, "error", ev.Error)
		}
		writeEvent(w, ev)
		flusher.Flush()
	}
	metrics.InvocationsCompleted.WithLabelValues("stream", status).Inc()
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("server.request.invalid_body", "error", err.Error())
		return ChatRequest{}, false
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "Field 'query' is required", http.StatusBadRequest)
		return ChatRequest{}, false
	}
	return req, true
}

func writeEvent(w http.ResponseWriter, ev stream.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		data = []byte(`{}`)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}
