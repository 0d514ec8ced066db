package core

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// WebhookListener forwards flag lifecycle events to remote HTTP endpoints.
//
// Every category has its own EndpointOptions. A category that was not given
// options at construction is derived from the base options the first time it
// is read and then kept, so later changes to the base do not reach it.
type WebhookListener struct {
	mu      sync.Mutex
	options [categoryCount]*EndpointOptions

	config         Config
	transport      TransportAdapter
	logger         Logger
	loggerProvider LoggerProvider
	metrics        MetricsRecorder
	enqueuer       JobEnqueuer
	newID          func() string
	now            func() time.Time
}

func NewWebhookListener(opts ...Option) *WebhookListener {
	builder := newListenerBuilder(opts)
	return builder.build()
}

// NewWebhookListenerWithURL is shorthand for a base endpoint with a URL only.
func NewWebhookListenerWithURL(url string, opts ...Option) *WebhookListener {
	return NewWebhookListener(append([]Option{WithBaseURL(url)}, opts...)...)
}

// NewFromConfig layers cfg over the loaded and default configuration and
// builds a listener from the result. Explicit options win over configuration.
func NewFromConfig(cfg Config, opts ...Option) (*WebhookListener, error) {
	builder := newListenerBuilder(opts)
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, err
	}
	final, err := builder.optionsResolver.Resolve(defaults, loaded, cfg)
	if err != nil {
		return nil, err
	}
	if err := builder.applyConfig(final); err != nil {
		return nil, err
	}
	return builder.build(), nil
}

// Config returns the configuration the listener was built from.
func (l *WebhookListener) Config() Config {
	return l.config
}

func (l *WebhookListener) BaseOptions() *EndpointOptions {
	return l.Options(CategoryBase)
}

func (l *WebhookListener) CreationOptions() *EndpointOptions {
	return l.Options(CategoryCreate)
}

func (l *WebhookListener) ChangeOptions() *EndpointOptions {
	return l.Options(CategoryUpdate)
}

func (l *WebhookListener) RemovalOptions() *EndpointOptions {
	return l.Options(CategoryDelete)
}

// Options returns the live options of category, resolving them on first use.
// It returns nil for an unknown category.
func (l *WebhookListener) Options(category Category) *EndpointOptions {
	if !category.Valid() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolveLocked(category)
}

func (l *WebhookListener) resolveLocked(category Category) *EndpointOptions {
	if existing := l.options[category]; existing != nil {
		return existing
	}
	var resolved *EndpointOptions
	if base := l.options[CategoryBase]; category != CategoryBase && base != nil {
		resolved = base.Clone()
	} else {
		resolved = NewEndpointOptions()
	}
	l.options[category] = resolved
	return resolved
}

// Notify implements FlagListener. Events other than "change" and "removal"
// are ignored.
func (l *WebhookListener) Notify(ctx context.Context, event string, flag Flag) error {
	category, ok := CategoryForEvent(event, flag)
	if !ok {
		l.logDebug(ctx, "flag event ignored", map[string]any{
			"event":    event,
			"flag_key": flag.Key,
		})
		return nil
	}
	_, err := l.Dispatch(ctx, category, flag)
	return err
}

func (l *WebhookListener) NotifyCreated(ctx context.Context, flag Flag) error {
	_, err := l.Dispatch(ctx, CategoryCreate, flag)
	return err
}

func (l *WebhookListener) NotifyChanged(ctx context.Context, flag Flag) error {
	_, err := l.Dispatch(ctx, CategoryUpdate, flag)
	return err
}

func (l *WebhookListener) NotifyRemoved(ctx context.Context, flag Flag) error {
	_, err := l.Dispatch(ctx, CategoryDelete, flag)
	return err
}

// CategoryForEvent maps a flag event to the category that handles it.
func CategoryForEvent(event string, flag Flag) (Category, bool) {
	switch event {
	case EventChange:
		if flag.Persisted() {
			return CategoryUpdate, true
		}
		return CategoryCreate, true
	case EventRemoval:
		return CategoryDelete, true
	default:
		return CategoryBase, false
	}
}

// Dispatch sends the notification of category for flag. Transport failures
// are returned as produced by the transport; a 4xx or 5xx answer becomes a
// FLAG_NOTIFICATION_REJECTED error.
func (l *WebhookListener) Dispatch(ctx context.Context, category Category, flag Flag) (DeliveryResult, error) {
	if category == CategoryBase || !category.Valid() {
		return DeliveryResult{}, badInputError("core: notifications require the create, update or delete category")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	own := l.Options(category)
	base := l.Options(CategoryBase)
	req, err := buildRequest(category, own, base, flag)
	if err != nil {
		return DeliveryResult{}, err
	}

	result := DeliveryResult{
		DeliveryID: l.newID(),
		Category:   category,
		Method:     req.Method,
		URL:        req.URL,
	}
	startedAt := l.now()
	if own.Async() && l.enqueuer != nil {
		err = l.enqueue(ctx, result.DeliveryID, category, req)
		result.Queued = err == nil
	} else {
		result.StatusCode, err = l.send(ctx, category, req)
	}
	result.Duration = l.now().Sub(startedAt)
	l.observeDelivery(ctx, result, err)
	return result, err
}

func (l *WebhookListener) send(ctx context.Context, category Category, req TransportRequest) (int, error) {
	res, err := l.transport.Do(ctx, req)
	if err != nil {
		return 0, err
	}
	if isRejectedStatus(res.StatusCode) {
		return res.StatusCode, newRejectionError(category, req, res)
	}
	return res.StatusCode, nil
}

func buildRequest(category Category, own *EndpointOptions, base *EndpointOptions, flag Flag) (TransportRequest, error) {
	target := resolveURL(own, base)
	if category != CategoryCreate {
		target = target + "/" + strconv.FormatInt(flag.Metadata.ID, 10)
	}

	headers := resolveHeaders(own, base)
	req := TransportRequest{
		Method:  category.Method(),
		URL:     target,
		Headers: map[string]string{},
		Metadata: map[string]any{
			"category": category.String(),
			"flag_key": flag.Key,
		},
	}
	if category != CategoryDelete {
		body, err := json.Marshal(flag)
		if err != nil {
			return TransportRequest{}, internalError(err, "core: encode flag payload")
		}
		req.Body = body
		if !hasHeader(headers, headerContentType) {
			req.Headers[headerContentType] = contentTypeJSON
		}
	}
	for key, value := range headers {
		req.Headers[key] = value
	}
	return req, nil
}

// resolveURL prefers the category URL, then the base URL, then "".
func resolveURL(own *EndpointOptions, base *EndpointOptions) string {
	if url, ok := own.URL(); ok {
		return url
	}
	if url, ok := base.URL(); ok {
		return url
	}
	return ""
}

// resolveHeaders prefers the category headers, then the base headers, then
// an empty set. The result is never nil.
func resolveHeaders(own *EndpointOptions, base *EndpointOptions) map[string]string {
	if headers := own.Headers(); headers != nil {
		return headers
	}
	if headers := base.Headers(); headers != nil {
		return headers
	}
	return map[string]string{}
}

func hasHeader(headers map[string]string, name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for key := range headers {
		if http.CanonicalHeaderKey(strings.TrimSpace(key)) == canonical {
			return true
		}
	}
	return false
}
