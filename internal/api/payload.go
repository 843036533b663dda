package api

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/leonardcser/mcp-remote/internal/memory"
	"github.com/leonardcser/mcp-remote/internal/web"
)

// TimeFormat is RFC 3339 in UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

func Timestamp(t time.Time) string { return t.UTC().Format(TimeFormat) }

type StoreRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type StoreResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Key       string `json:"key"`
	Timestamp string `json:"timestamp"`
}

type MemoryItem struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	Timestamp string          `json:"timestamp"`
}

type ListResponse struct {
	Total    int          `json:"total"`
	Memories []MemoryItem `json:"memories"`
}

type FetchRequest struct {
	URL    string `json:"url"`
	Format string `json:"format,omitempty"`
}

type FetchResponse struct {
	URL         string `json:"url"`
	FinalURL    string `json:"finalUrl"`
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content"`
	Truncated   bool   `json:"truncated"`
	Length      int    `json:"length"`
	Timestamp   string `json:"timestamp"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewStoreResponse(key string, rec memory.Record) StoreResponse {
	return StoreResponse{
		Success:   true,
		Message:   "Memory stored",
		Key:       key,
		Timestamp: Timestamp(rec.StoredAt),
	}
}

func NewMemoryItem(key string, rec memory.Record) MemoryItem {
	return MemoryItem{Key: key, Value: rec.Value, Timestamp: Timestamp(rec.StoredAt)}
}

func NewListResponse(entries []memory.Entry) ListResponse {
	items := lo.Map(entries, func(e memory.Entry, _ int) MemoryItem {
		return NewMemoryItem(e.Key, e.Record)
	})
	return ListResponse{Total: len(items), Memories: items}
}

func NewFetchResponse(res *web.Result) FetchResponse {
	return FetchResponse{
		URL:         res.URL,
		FinalURL:    res.FinalURL,
		Status:      res.Status,
		ContentType: res.ContentType,
		Title:       res.Title,
		Content:     res.Content,
		Truncated:   res.Truncated,
		Length:      res.Length,
		Timestamp:   Timestamp(res.FetchedAt),
	}
}
