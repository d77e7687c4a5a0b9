// Package api serves the novel search and retrieval endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/metcalfc/storyreader/internal/novel"
	"github.com/metcalfc/storyreader/internal/store"
)

// NovelStore is the subset of the store the handlers need.
type NovelStore interface {
	ListNovels(ctx context.Context) ([]*novel.Novel, error)
	GetNovel(ctx context.Context, id string) (*novel.Novel, error)
	SearchNovels(ctx context.Context, query string) ([]*novel.Novel, error)
}

// Handler holds the dependencies of the HTTP endpoints.
type Handler struct {
	store  NovelStore
	logger *zap.Logger
}

// NewHandler creates a Handler. A nil logger discards logs.
func NewHandler(s NovelStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: s, logger: logger}
}

// RegisterHTTP registers the endpoints on r.
func (h *Handler) RegisterHTTP(r chi.Router) {
	r.Get("/api/get-novels", h.handleList)
	r.Get("/api/get-novel/{id}", h.handleGet)
	r.Get("/api/search-novel", h.handleSearch)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// novelBody wraps a single novel response.
type novelBody struct {
	Novel *novel.Novel `json:"novel"`
}

// GET /api/get-novels
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	novels, err := h.store.ListNovels(r.Context())
	if err != nil {
		h.logger.Error("list novels", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{"Error fetching novels"})
		return
	}
	writeJSON(w, http.StatusOK, nonNil(novels))
}

// GET /api/get-novel/{id}
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := h.store.GetNovel(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{"Novel not found"})
		return
	}
	if err != nil {
		h.logger.Error("get novel", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{"Error fetching novel"})
		return
	}
	writeJSON(w, http.StatusOK, novelBody{Novel: n})
}

// GET /api/search-novel?query=...
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()["query"]
	if len(values) != 1 || values[0] == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{"Invalid search query"})
		return
	}

	novels, err := h.store.SearchNovels(r.Context(), values[0])
	if err != nil {
		h.logger.Error("search novels", zap.String("query", values[0]), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{"Error searching novels"})
		return
	}
	writeJSON(w, http.StatusOK, nonNil(novels))
}

// methodNotAllowed answers non-GET requests; every route is read-only.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	w.WriteHeader(http.StatusMethodNotAllowed)
	fmt.Fprintf(w, "Method %s Not Allowed", r.Method)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{"Not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func nonNil(novels []*novel.Novel) []*novel.Novel {
	if novels == nil {
		return []*novel.Novel{}
	}
	return novels
}
