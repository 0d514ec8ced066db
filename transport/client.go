package transport

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type ClientConfig struct {
	Timeout time.Duration
	// Tracing wraps the round tripper with otelhttp client spans.
	Tracing   bool
	Transport http.RoundTripper
}

func NewHTTPClient(cfg ClientConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRESTClientTimeout
	}
	roundTripper := cfg.Transport
	if roundTripper == nil {
		roundTripper = http.DefaultTransport
	}
	if cfg.Tracing {
		roundTripper = otelhttp.NewTransport(roundTripper)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: roundTripper,
	}
}
