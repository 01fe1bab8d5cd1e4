package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/api/idtoken"
)

// ClientConfig controls the production HTTP client.
type ClientConfig struct {
	// Timeout caps a single request including reading the response body.
	Timeout time.Duration
	// Audience, when set, makes the client attach a Google-signed ID token
	// for that audience (Cloud Run service-to-service authentication).
	Audience string
}

// NewHTTPClient builds the client used to reach the processing service.
// Outbound requests are traced with otelhttp.
func NewHTTPClient(ctx context.Context, cfg ClientConfig) (*http.Client, error) {
	var client *http.Client
	if cfg.Audience != "" {
		c, err := idtoken.NewClient(ctx, cfg.Audience)
		if err != nil {
			return nil, fmt.Errorf("id token client for %s: %w", cfg.Audience, err)
		}
		client = c
	} else {
		client = &http.Client{}
	}

	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = otelhttp.NewTransport(base)
	client.Timeout = cfg.Timeout
	return client, nil
}
