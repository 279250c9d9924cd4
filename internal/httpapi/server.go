package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/brmartins/sabia/internal/config"
	"github.com/brmartins/sabia/internal/memory"
	"github.com/brmartins/sabia/internal/observability"
	"github.com/brmartins/sabia/internal/resolver"
	"github.com/brmartins/sabia/internal/session"
	"github.com/brmartins/sabia/internal/transcript"
)

// Resolver is the answer pipeline as seen by the API layer.
type Resolver interface {
	Resolve(ctx context.Context, req resolver.Request) resolver.Result
}

type Server struct {
	cfg         config.Config
	sessions    *session.Manager
	resolver    Resolver
	buffers     *memory.BufferStore
	transcripts transcript.Store
	metrics     *observability.Metrics
	upgrader    websocket.Upgrader
}

func New(
	cfg config.Config,
	sessions *session.Manager,
	res Resolver,
	buffers *memory.BufferStore,
	transcripts transcript.Store,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		cfg:         cfg,
		sessions:    sessions,
		resolver:    res,
		buffers:     buffers,
		transcripts: transcripts,
		metrics:     metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other sites cannot drive a user's chat if
				// the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Post("/v1/chat/session", s.handleCreateSession)
	r.Post("/v1/chat/session/{id}/end", s.handleEndSession)
	r.Post("/v1/chat/message", s.handleMessage)
	r.Get("/v1/chat/sessions", s.handleListSessions)
	r.Get("/v1/chat/session/{id}/history", s.handleSessionHistory)
	r.Get("/v1/chat/ws", s.handleChatWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"generated_at": "",
			"window_size":  0,
			"stages":       []any{},
		})
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.SnapshotResolveStages())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	sess := s.sessions.Create(req.UserID, strings.TrimSpace(req.Title))

	// A new chat starts from a clean conversational context; persisted
	// knowledge and past transcripts are unaffected.
	s.buffers.Reset(req.UserID)

	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	respondJSON(w, http.StatusCreated, session.CreateResponse{
		SessionID:       sess.ID,
		UserID:          sess.UserID,
		Status:          sess.Status,
		Title:           sess.Title,
		StartedAt:       sess.StartedAt,
		LastActivityAt:  sess.LastActivityAt,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	respondJSON(w, http.StatusOK, sess)
}

type messageRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
}

type messageResponse struct {
	SessionID string `json:"session_id"`
	TurnID    string `json:"turn_id"`
	Answer    string `json:"answer"`
	Source    string `json:"source"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id and session_id are required")
		return
	}

	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if sess.UserID != req.UserID {
		// Absence and foreign ownership look the same from outside.
		respondError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if sess.Status != session.StatusActive {
		respondError(w, http.StatusConflict, "session_ended", "session is no longer active")
		return
	}

	res := s.resolver.Resolve(r.Context(), resolver.Request{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Text:      req.Message,
	})
	if res.Source != resolver.SourceInvalid {
		_ = s.sessions.RecordTurn(req.SessionID, strings.TrimSpace(req.Message))
	}

	respondJSON(w, http.StatusOK, messageResponse{
		SessionID: req.SessionID,
		TurnID:    res.TurnID,
		Answer:    res.Answer,
		Source:    string(res.Source),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	summaries, err := s.transcripts.ListSessions(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", "could not list sessions")
		return
	}
	if summaries == nil {
		summaries = []transcript.SessionSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	turns, err := s.transcripts.LoadSession(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, transcript.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "storage_error", "could not load session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "turns": turns})
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": code, "message": message})
}
