package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/leonardcser/mcp-remote/internal/logger"
	"github.com/leonardcser/mcp-remote/internal/memory"
	"github.com/leonardcser/mcp-remote/internal/web"
)

const maxRequestBody = 1 << 20

// Fetcher is the outbound side of the /fetch route.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, format web.Format) (*web.Result, error)
}

// Handler serves the memory, fetch and health routes over one store.
type Handler struct {
	store   memory.Store
	fetcher Fetcher
	now     func() time.Time
}

func NewHandler(store memory.Store, fetcher Fetcher) *Handler {
	return &Handler{store: store, fetcher: fetcher, now: time.Now}
}

// RegisterRoutes adds the canonical routes and their legacy aliases.
// /memory/list must precede /memory/{key}. The router matches on the escaped
// path, so {key} arrives percent-encoded.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Health).Methods(http.MethodGet)

	router.HandleFunc("/memory", h.StoreMemory).Methods(http.MethodPost)
	router.HandleFunc("/memory/store", h.StoreMemory).Methods(http.MethodPost)
	router.HandleFunc("/memory/list", h.ListMemories).Methods(http.MethodGet)
	router.HandleFunc("/memory/retrieve/{key}", h.GetMemory).Methods(http.MethodGet)
	router.HandleFunc("/memory/{key}", h.GetMemory).Methods(http.MethodGet)

	router.HandleFunc("/fetch", h.Fetch).Methods(http.MethodPost)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"message":   "MCP Remote Server is running!",
		"endpoints": []string{"/memory", "/memory/list", "/fetch", "/mcp"},
		"timestamp": Timestamp(h.now()),
	})
}

func (h *Handler) StoreMemory(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: KindValidation, Message: err.Error()})
		return
	}

	rec, err := h.store.Put(req.Key, req.Value)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	logger.Debugf("stored memory %q (%d bytes)", req.Key, len(rec.Value))
	writeJSON(w, http.StatusOK, NewStoreResponse(req.Key, rec))
}

func (h *Handler) GetMemory(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(mux.Vars(r)["key"])
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: KindValidation, Message: "malformed key: " + err.Error()})
		return
	}
	rec, err := h.store.Get(key)
	if errors.Is(err, memory.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrorResponse{
			Error:   KindNotFound,
			Message: fmt.Sprintf("no memory stored for key %q", key),
		})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewMemoryItem(key, rec))
}

func (h *Handler) ListMemories(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewListResponse(entries))
}

func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: KindValidation, Message: err.Error()})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: KindValidation, Message: "url is required"})
		return
	}

	res, err := h.fetcher.Fetch(r.Context(), req.URL, web.Format(req.Format))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	logger.Infof("fetched %s: status %d, %d chars (truncated=%v)", res.URL, res.Status, res.Length, res.Truncated)
	writeJSON(w, http.StatusOK, NewFetchResponse(res))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := Classify(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warnf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, body ErrorResponse) {
	writeJSON(w, statusCode, body)
}
