package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
	"github.com/google/uuid"

	"github.com/goliatone/go-flaghooks/transport"
)

const loggerName = "flaghooks"

type listenerBuilder struct {
	config          Config
	base            *EndpointOptions
	categories      [categoryCount]*EndpointOptions
	transport       TransportAdapter
	httpClient      transport.HTTPDoer
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	enqueuer        JobEnqueuer
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	idGenerator     func() string
	clock           func() time.Time
}

type Option func(*listenerBuilder)

// WithBaseURL sets the base endpoint to a plain URL with no headers and
// synchronous delivery.
func WithBaseURL(url string) Option {
	return func(b *listenerBuilder) {
		b.base = NewEndpointOptionsWithURL(url)
	}
}

// WithBaseOptions installs options as the base endpoint. The pointer is kept,
// so later mutations through it remain visible to the listener.
func WithBaseOptions(options *EndpointOptions) Option {
	return func(b *listenerBuilder) {
		b.base = options
	}
}

// WithCategoryOptions pins the options of a single category so it does not
// derive from the base endpoint.
func WithCategoryOptions(category Category, options *EndpointOptions) Option {
	return func(b *listenerBuilder) {
		if !category.Valid() {
			return
		}
		if category == CategoryBase {
			b.base = options
			return
		}
		b.categories[category] = options
	}
}

func WithTransport(adapter TransportAdapter) Option {
	return func(b *listenerBuilder) {
		b.transport = adapter
	}
}

// WithHTTPClient keeps the default REST adapter but sends through client.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(b *listenerBuilder) {
		b.httpClient = client
	}
}

func WithLogger(logger Logger) Option {
	return func(b *listenerBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *listenerBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *listenerBuilder) {
		b.metricsRecorder = recorder
	}
}

// WithAsyncEnqueuer makes categories flagged async hand their requests to
// enqueuer instead of sending inline.
func WithAsyncEnqueuer(enqueuer JobEnqueuer) Option {
	return func(b *listenerBuilder) {
		b.enqueuer = enqueuer
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *listenerBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *listenerBuilder) {
		b.optionsResolver = resolver
	}
}

func WithDeliveryIDGenerator(generator func() string) Option {
	return func(b *listenerBuilder) {
		b.idGenerator = generator
	}
}

func WithClock(clock func() time.Time) Option {
	return func(b *listenerBuilder) {
		b.clock = clock
	}
}

func defaultListenerBuilder() listenerBuilder {
	return listenerBuilder{
		config:          DefaultConfig(),
		metricsRecorder: NopMetricsRecorder{},
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		idGenerator:     uuid.NewString,
		clock:           time.Now,
	}
}

func newListenerBuilder(options []Option) listenerBuilder {
	builder := defaultListenerBuilder()
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}
	return builder
}

// applyConfig fills everything the options left unset from cfg.
func (b *listenerBuilder) applyConfig(cfg Config) error {
	b.config = cfg
	if b.base == nil {
		b.base = cfg.Base.Options()
	}
	for _, category := range []Category{CategoryCreate, CategoryUpdate, CategoryDelete} {
		if b.categories[category] != nil {
			continue
		}
		if endpoint := cfg.Endpoint(category); endpoint != nil {
			b.categories[category] = endpoint.Options()
		}
	}
	if b.transport != nil {
		return nil
	}
	timeout, err := cfg.Transport.TimeoutDuration()
	if err != nil {
		return validationError("transport.timeout", err.Error())
	}
	client := b.httpClient
	if client == nil {
		client = transport.NewHTTPClient(transport.ClientConfig{
			Timeout: timeout,
			Tracing: cfg.Transport.Tracing,
		})
	}
	adapter := transport.NewRESTAdapter(client)
	adapter.MaxResponseBodyBytes = cfg.Transport.MaxResponseBodyBytes
	b.transport = adapter
	return nil
}

// build resolves the logger as provider, then explicit logger, then nop.
func (b *listenerBuilder) build() *WebhookListener {
	provider, logger := glog.Resolve(loggerName, b.loggerProvider, b.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(loggerName); named != nil {
			logger = glog.Ensure(named)
		}
	}
	if b.metricsRecorder == nil {
		b.metricsRecorder = NopMetricsRecorder{}
	}
	if b.idGenerator == nil {
		b.idGenerator = uuid.NewString
	}
	if b.clock == nil {
		b.clock = time.Now
	}
	if b.transport == nil {
		b.transport = transport.NewRESTAdapter(b.httpClient)
	}

	listener := &WebhookListener{
		config:         b.config,
		transport:      b.transport,
		logger:         logger,
		loggerProvider: provider,
		metrics:        b.metricsRecorder,
		enqueuer:       b.enqueuer,
		newID:          b.idGenerator,
		now:            b.clock,
	}
	listener.options[CategoryBase] = b.base
	for _, category := range []Category{CategoryCreate, CategoryUpdate, CategoryDelete} {
		listener.options[category] = b.categories[category]
	}
	return listener
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// NewStaticRawConfigLoader serves a fixed map, typically decoded from a file.
func NewStaticRawConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver merges defaults, loaded and runtime configuration with
// runtime values taking precedence.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if base := endpointToLayerMap(cfg.Base, includeZero); len(base) > 0 {
		layer["base"] = base
	}
	for key, endpoint := range map[string]*EndpointConfig{
		"creation": cfg.Creation,
		"change":   cfg.Change,
		"removal":  cfg.Removal,
	} {
		if endpoint == nil {
			continue
		}
		layer[key] = endpointToLayerMap(*endpoint, true)
	}

	transportLayer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Transport.Timeout) != "" {
		transportLayer["timeout"] = cfg.Transport.Timeout
	}
	if includeZero || cfg.Transport.MaxResponseBodyBytes != 0 {
		transportLayer["max_response_body_bytes"] = cfg.Transport.MaxResponseBodyBytes
	}
	if includeZero || cfg.Transport.Tracing {
		transportLayer["tracing"] = cfg.Transport.Tracing
	}
	if len(transportLayer) > 0 {
		layer["transport"] = transportLayer
	}
	return layer
}

func endpointToLayerMap(endpoint EndpointConfig, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(endpoint.URL) != "" {
		layer["url"] = endpoint.URL
	}
	if endpoint.Headers != nil {
		headers := make(map[string]any, len(endpoint.Headers))
		for key, value := range endpoint.Headers {
			headers[key] = value
		}
		layer["headers"] = headers
	}
	if includeZero || endpoint.Async {
		layer["async"] = endpoint.Async
	}
	return layer
}
