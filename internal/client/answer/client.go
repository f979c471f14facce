// Package answer is the HTTP transport to the remote question-answering service.
package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrMalformedResponse is returned when the service answers with a 2xx status
// but the body carries no usable answer.
var ErrMalformedResponse = errors.New("malformed answer response")

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// APIError describes a non-2xx reply from the answer service.
type APIError struct {
	StatusCode int
	// Detail is the FastAPI-style "detail" field, empty when the body had none.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("answer service returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("answer service returned %d", e.StatusCode)
}

// Request is one question sent to the answer service.
type Request struct {
	Query     string
	SessionID string
}

// Response is a successful answer.
type Response struct {
	Query     string `json:"query,omitempty"`
	Answer    string `json:"answer"`
	SessionID string `json:"session_id,omitempty"`
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger attaches a logger for per-request debug lines.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client issues GET /chat requests against a fixed base URL.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClient builds a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", baseURL)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(parsed.String(), "/"),
		http:    http.DefaultClient,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ask sends one query. The session id is attached only when non-empty.
func (c *Client) Ask(ctx context.Context, req Request) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("query", req.Query)
	if req.SessionID != "" {
		params.Set("session_id", req.SessionID)
	}
	endpoint := c.baseURL + "/chat?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, errors.Wrap(err, "build answer request")
	}
	httpReq.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).Int("query_len", len(req.Query)).Msg("answer request failed")
		return Response{}, errors.Wrap(err, "send answer request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, errors.Wrap(err, "read answer response")
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("query_len", len(req.Query)).
		Str("session_id", req.SessionID).
		Dur("latency", time.Since(started)).
		Msg("answer request settled")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(body)}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return Response{}, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	if out.Answer == "" {
		return Response{}, ErrMalformedResponse
	}
	return out, nil
}

// parseDetail extracts "detail" from an error body. FastAPI sends a string for
// HTTPException and a list of objects for validation errors; the latter is kept
// as raw JSON.
func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(eb.Detail, &detail); err == nil {
		return strings.TrimSpace(detail)
	}
	if string(eb.Detail) == "null" {
		return ""
	}
	return string(eb.Detail)
}

// DetailOf returns the server-provided detail carried by err, if any.
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}
