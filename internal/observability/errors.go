package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/baxromumarov/job-extractor/internal/browser"
	"github.com/baxromumarov/job-extractor/internal/httpx"
)

const (
	ErrorNetwork     = "network"
	ErrorRateLimit   = "rate_limit"
	ErrorNotFound    = "not_found"
	ErrorHTTPStatus  = "http_status"
	ErrorRender      = "render"
	ErrorTranslation = "translation"
	ErrorStore       = "store"
	ErrorUnknown     = "unknown"
)

// ClassifyFetchError buckets a retrieval failure for counters and logs.
func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.Status == http.StatusTooManyRequests:
			return ErrorRateLimit
		case fe.Status == http.StatusNotFound, fe.Status == http.StatusGone:
			return ErrorNotFound
		case fe.Status >= 400:
			return ErrorHTTPStatus
		default:
			return ErrorNetwork
		}
	}
	var re *browser.RenderError
	if errors.As(err, &re) {
		return ErrorRender
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ErrorNetwork
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return ErrorNetwork
	}
	return ErrorUnknown
}
