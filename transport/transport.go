package transport

import (
	"context"
	"net/http"
	"time"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request is a single outbound call. Body is sent verbatim; a nil body sends none.
type Request struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

// Response is returned for every status code the remote answers with.
// Callers decide which statuses count as failures.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

// MetadataBodyTruncated is set on Response.Metadata when Body was cut at the
// response size limit.
const MetadataBodyTruncated = "body_truncated"

func (r Response) BodyTruncated() bool {
	truncated, _ := r.Metadata[MetadataBodyTruncated].(bool)
	return truncated
}

type Adapter interface {
	Kind() string
	Do(ctx context.Context, req Request) (Response, error)
}
