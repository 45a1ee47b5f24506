package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bankbot/internal/convo"
	"bankbot/internal/metrics"
	"bankbot/internal/nlu"
	"bankbot/internal/repo"

	"github.com/go-chi/chi/v5"
)

const maxMessageLen = 2000

// Sessions runs turns against per-session contexts.
type Sessions interface {
	Turn(ctx context.Context, sessionID, account, text string) (convo.Result, error)
	Reset(ctx context.Context, sessionID string) error
}

// ChatLog persists processed turns.
type ChatLog interface {
	SaveChat(ctx context.Context, rec repo.ChatRecord) error
}

// Limiter admits or rejects one hit against a key within a window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// TransactionLister reads an account's recent transfers, newest first.
type TransactionLister interface {
	ListTransactions(ctx context.Context, account string, limit int) ([]repo.Transaction, error)
}

// ModelReloader rebuilds the fallback classifier.
type ModelReloader interface {
	Reload(ctx context.Context) (*nlu.Model, error)
}

// Handler serves the chat API.
type Handler struct {
	sessions Sessions
	chatLog  ChatLog
	models   ModelReloader
	history  TransactionLister
	limiter  Limiter
	limit    int64
	window   time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Options carries the optional collaborators of a Handler. Nil fields disable
// the matching feature.
type Options struct {
	ChatLog   ChatLog
	Models    ModelReloader
	History   TransactionLister
	Limiter   Limiter
	RateLimit int
}

// NewHandler constructs the chat handler.
func NewHandler(sessions Sessions, opts Options, metrics *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		chatLog:  opts.ChatLog,
		models:   opts.Models,
		history:  opts.History,
		limiter:  opts.Limiter,
		limit:    int64(opts.RateLimit),
		window:   time.Minute,
		metrics:  metrics,
		logger:   logger.With("component", "http"),
	}
}

type turnRequest struct {
	Account string `json:"account"`
	Message string `json:"message"`
}

type reloadResponse struct {
	Version   string    `json:"version"`
	Backend   string    `json:"backend"`
	TrainedAt time.Time `json:"trained_at"`
}

// HandleTurn processes one user message for the session in the URL.
func (h *Handler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.Account = strings.TrimSpace(req.Account)
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if len(req.Message) > maxMessageLen {
		http.Error(w, "message too long", http.StatusRequestEntityTooLarge)
		return
	}

	ctx := r.Context()
	if !h.admit(ctx, sessionID) {
		h.metrics.RateLimited.Inc()
		http.Error(w, "too many messages, slow down", http.StatusTooManyRequests)
		return
	}

	res, err := h.sessions.Turn(ctx, sessionID, req.Account, req.Message)
	if err != nil {
		h.logger.Error("turn failed", "session", sessionID, "error", err)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}
	h.record(ctx, req, res)
	writeJSON(w, http.StatusOK, res)
}

// HandleReset drops the session context.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	if err := h.sessions.Reset(r.Context(), sessionID); err != nil {
		h.logger.Error("reset failed", "session", sessionID, "error", err)
		http.Error(w, "failed to reset session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReload retrains the classifier and swaps it in.
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if h.models == nil {
		http.Error(w, "classifier reload not configured", http.StatusNotImplemented)
		return
	}
	m, err := h.models.Reload(r.Context())
	if err != nil {
		h.metrics.Errors.WithLabelValues("classifier_reload").Inc()
		h.logger.Error("classifier reload failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, nlu.ErrNoBuilder) {
			status = http.StatusNotImplemented
		}
		http.Error(w, "classifier reload failed", status)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{Version: m.Version, Backend: m.Backend, TrainedAt: m.TrainedAt})
}

// admit fails open when the limiter is unreachable.
func (h *Handler) admit(ctx context.Context, sessionID string) bool {
	if h.limiter == nil || h.limit <= 0 {
		return true
	}
	ok, err := h.limiter.Allow(ctx, "bankbot:ratelimit:"+sessionID, h.limit, h.window)
	if err != nil {
		h.metrics.Errors.WithLabelValues("rate_limit").Inc()
		h.logger.Warn("rate limiter unavailable", "session", sessionID, "error", err)
		return true
	}
	return ok
}

func (h *Handler) record(ctx context.Context, req turnRequest, res convo.Result) {
	if h.chatLog == nil {
		return
	}
	rec := repo.ChatRecord{
		Account:     req.Account,
		UserMessage: req.Message,
		BotResponse: res.Reply,
		Intent:      res.Label,
		Confidence:  res.Confidence,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.chatLog.SaveChat(ctx, rec); err != nil {
		h.metrics.Errors.WithLabelValues("chat_log").Inc()
		h.logger.Warn("failed saving chat", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
