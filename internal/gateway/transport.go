package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terramo-esg/terramo/internal/logging"
)

const maxBodyBytes = 8 << 20

// Request is one call against the API. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Transport executes requests and returns the raw response body.
type Transport interface {
	Do(ctx context.Context, req Request) ([]byte, error)
}

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

// HTTPTransport talks JSON over HTTP.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	locale  string
	logger  *zap.Logger
	newID   func() string
}

// NewHTTPTransport builds a transport rooted at baseURL.
func NewHTTPTransport(baseURL string, timeout time.Duration, tokens TokenSource, locale string, logger *zap.Logger) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
		locale:  locale,
		logger:  logging.OrNop(logger),
		newID:   uuid.NewString,
	}
}

func (t *HTTPTransport) Do(ctx context.Context, req Request) ([]byte, error) {
	op := req.Method + " " + req.Path
	u := t.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", op, err)
	}
	hreq.Header.Set("Accept", "application/json")
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if t.locale != "" {
		hreq.Header.Set("Accept-Language", t.locale)
	}
	if t.tokens != nil {
		if tok := t.tokens.Token(); tok != "" {
			hreq.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	reqID := ""
	if req.Method != http.MethodGet {
		reqID = t.newID()
		hreq.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := t.client.Do(hreq)
	if err != nil {
		t.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	t.logger.Debug("request completed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", reqID),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, data)
	}
	return data, nil
}
