// Package notify sends processing requests to the external video-processing
// service.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ProcessPath is the service route that starts pose processing for a folder.
const ProcessPath = "/process-video"

// RequestIDHeader carries the dispatch correlation id to the service.
const RequestIDHeader = "X-Request-ID"

// MaxResponseBytes caps how much of a reply is read and logged. Longer bodies
// are truncated.
const MaxResponseBytes = 64 << 10

// Request is the JSON payload of a processing request.
type Request struct {
	FolderID string `json:"folder_id"`
}

// Response is a successful reply from the processing service. The body shape
// belongs to the service and is kept verbatim.
type Response struct {
	StatusCode int
	Body       []byte
}

// HTTPDoer abstracts http.Client.Do so that tests can inject a stub.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier posts processing requests to a single service endpoint.
type Notifier struct {
	BaseURL string
	Client  HTTPDoer
}

// New constructs a Notifier for the service at baseURL. A nil client falls
// back to http.DefaultClient.
func New(baseURL string, client HTTPDoer) *Notifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Notifier{BaseURL: baseURL, Client: client}
}

// Endpoint returns the absolute URL requests are posted to.
func (n *Notifier) Endpoint() string {
	return strings.TrimRight(n.BaseURL, "/") + ProcessPath
}

// Notify performs exactly one POST of req to the processing endpoint. The
// deadline of ctx bounds the whole exchange. Any transport failure or
// non-2xx status is returned as *Error.
func (n *Notifier) Notify(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal process request: %w", err)
	}

	url := n.Endpoint()
	fail := func(status int, respBody []byte, cause error) error {
		return &Error{
			URL:          url,
			Method:       http.MethodPost,
			Body:         string(payload),
			StatusCode:   status,
			ResponseBody: string(respBody),
			Err:          cause,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fail(0, nil, fmt.Errorf("build process request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if id := RequestIDFromContext(ctx); id != "" {
		httpReq.Header.Set(RequestIDHeader, id)
	}

	resp, err := n.Client.Do(httpReq)
	if err != nil {
		return Response{}, fail(0, nil, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return Response{}, fail(resp.StatusCode, nil, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fail(resp.StatusCode, body, fmt.Errorf("processing service returned %d", resp.StatusCode))
	}
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the correlation id sent in the
// X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the correlation id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
