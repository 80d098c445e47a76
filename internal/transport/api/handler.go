package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/pkg/log"
)

type Pipeline interface {
	Answer(ctx context.Context, userID, scope, question string) string
	ClearHistory(userID string)
	History(userID string) string
}

type Store interface {
	core.RecordBrowser
	Ping(ctx context.Context) error
}

type Handler struct {
	pipeline Pipeline
	store    Store
}

func NewHandler(pipeline Pipeline, store Store) *Handler {
	return &Handler{pipeline: pipeline, store: store}
}

func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Store   string `json:"store"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Version: core.AppVersion, Store: "pass"}
	if err := h.store.Ping(ctx); err != nil {
		log.FromCtx(r.Context()).Warn().Err(err).Msg("store health check failed")
		resp.Status, resp.Store = "degraded", "fail"
		h.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	h.JSON(w, http.StatusOK, resp)
}

type AskRequest struct {
	User     string `json:"user"`
	Scope    string `json:"scope"`
	Question string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.User = strings.TrimSpace(req.User)
	if req.User == "" {
		h.Error(w, http.StatusBadRequest, "user is required")
		return
	}

	// Empty questions still get the pipeline's canned reply.
	h.JSON(w, http.StatusOK, AskResponse{
		Answer: h.pipeline.Answer(r.Context(), req.User, req.Scope, req.Question),
	})
}

type HistoryResponse struct {
	User    string `json:"user"`
	History string `json:"history"`
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	h.JSON(w, http.StatusOK, HistoryResponse{User: user, History: h.pipeline.History(user)})
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.pipeline.ClearHistory(chi.URLParam(r, "user"))
	w.WriteHeader(http.StatusNoContent)
}

type RecordView struct {
	ID        string `json:"id"`
	Channel   string `json:"channel"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type SearchResponse struct {
	Records []RecordView `json:"records"`
	Total   int          `json:"total"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 10
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = min(l, 100)
	}

	records, err := h.store.FindByContent(r.Context(), r.URL.Query().Get("scope"), q, limit)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("search failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	views := make([]RecordView, len(records))
	for i, rec := range records {
		views[i] = RecordView{
			ID:        rec.ID,
			Channel:   rec.ChannelName,
			Author:    rec.AuthorName,
			Content:   rec.Content,
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	h.JSON(w, http.StatusOK, SearchResponse{Records: views, Total: len(views)})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("stats failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	h.JSON(w, http.StatusOK, stats)
}
