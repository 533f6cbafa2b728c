// Package api exposes the assistant over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rowandev/apilot/internal/agent"
	"github.com/rowandev/apilot/internal/cache"
	"github.com/rowandev/apilot/internal/catalog"
	"github.com/rowandev/apilot/internal/provider"
	"github.com/rowandev/apilot/internal/similarity"
	"go.uber.org/zap"
)

// BypassHeader forces a cache miss for the request carrying it.
const BypassHeader = "X-Cache-Bypass"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	assistant *agent.Assistant
	cache     *cache.ResponseCache
	matcher   *similarity.Matcher
	catalog   *catalog.Catalog
	router    *provider.Router
	logger    *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	assistant *agent.Assistant,
	rc *cache.ResponseCache,
	matcher *similarity.Matcher,
	cat *catalog.Catalog,
	router *provider.Router,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		assistant: assistant,
		cache:     rc,
		matcher:   matcher,
		catalog:   cat,
		router:    router,
		logger:    logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", BypassHeader},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		r.Post("/ask", h.ask)
		r.Post("/similarity", h.similarityCheck)

		r.Get("/cache/{owner}", h.listCache)

		r.Get("/catalog", h.listOperations)
		r.Post("/catalog", h.registerOperation)

		r.Get("/providers", h.listProviders)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "apilot"})
}

type askRequest struct {
	Text    string            `json:"text"`
	OwnerID string            `json:"owner_id"`
	Context map[string]string `json:"context,omitempty"`
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Text == "" || req.OwnerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text and owner_id are required"})
		return
	}

	result, err := h.assistant.Ask(r.Context(), agent.AskRequest{
		Text:    req.Text,
		OwnerID: req.OwnerID,
		Context: req.Context,
		Bypass:  r.Header.Get(BypassHeader) != "",
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type similarityRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type similarityResponse struct {
	Score   float64 `json:"score"`
	Tier    string  `json:"tier"`
	Similar bool    `json:"similar"`
}

func (h *Handler) similarityCheck(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	score := h.matcher.Similarity(req.A, req.B)
	writeJSON(w, http.StatusOK, similarityResponse{
		Score:   score,
		Tier:    string(h.matcher.Tier(score)),
		Similar: score >= h.matcher.Options().HighThreshold,
	})
}

func (h *Handler) listCache(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter q is required"})
		return
	}

	scored, err := h.cache.FindSimilar(r.Context(), query, owner)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			writeJSON(w, http.StatusOK, []cache.ScoredEntry{})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, scored)
}

func (h *Handler) listOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

func (h *Handler) registerOperation(w http.ResponseWriter, r *http.Request) {
	var op catalog.Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.catalog.Register(op); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, op)
}

type providerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) listProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.router.ListProviders()
	infos := make([]providerInfo, len(providers))
	for i, p := range providers {
		infos[i] = providerInfo{ID: p.ID(), Name: p.Name()}
	}
	writeJSON(w, http.StatusOK, infos)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
