package api

import (
	"errors"
	"net/http"

	"github.com/leonardcser/mcp-remote/internal/memory"
	"github.com/leonardcser/mcp-remote/internal/web"
)

// Error kinds reported in ErrorResponse.Error.
const (
	KindValidation  = "validation error"
	KindNotFound    = "not found"
	KindFetchFailed = "fetch failed"
	KindInternal    = "internal error"
)

// Classify maps a store or fetcher error to an HTTP status and error kind.
func Classify(err error) (int, ErrorResponse) {
	var fe *web.FetchError
	switch {
	case errors.Is(err, memory.ErrInvalid),
		errors.Is(err, web.ErrInvalidURL),
		errors.Is(err, web.ErrInvalidFormat):
		return http.StatusBadRequest, ErrorResponse{Error: KindValidation, Message: err.Error()}
	case errors.Is(err, memory.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: KindNotFound, Message: err.Error()}
	case errors.As(err, &fe):
		return http.StatusInternalServerError, ErrorResponse{Error: KindFetchFailed, Message: fe.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: KindInternal}
	}
}
