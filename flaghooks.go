package flaghooks

import (
	"fmt"

	"github.com/goliatone/go-flaghooks/command"
	"github.com/goliatone/go-flaghooks/core"
)

type Config = core.Config
type EndpointConfig = core.EndpointConfig
type TransportConfig = core.TransportConfig

type Option = core.Option

type Category = core.Category
type EndpointOptions = core.EndpointOptions
type Flag = core.Flag
type FlagMetadata = core.FlagMetadata
type FlagListener = core.FlagListener
type WebhookListener = core.WebhookListener
type DeliveryResult = core.DeliveryResult
type DeliveryWorker = core.DeliveryWorker

const (
	CategoryBase   = core.CategoryBase
	CategoryCreate = core.CategoryCreate
	CategoryUpdate = core.CategoryUpdate
	CategoryDelete = core.CategoryDelete

	EventChange  = core.EventChange
	EventRemoval = core.EventRemoval
)

var (
	WithBaseURL               = core.WithBaseURL
	WithBaseOptions           = core.WithBaseOptions
	WithCategoryOptions       = core.WithCategoryOptions
	WithTransport             = core.WithTransport
	WithHTTPClient            = core.WithHTTPClient
	WithLogger                = core.WithLogger
	WithLoggerProvider        = core.WithLoggerProvider
	WithMetricsRecorder       = core.WithMetricsRecorder
	WithAsyncEnqueuer         = core.WithAsyncEnqueuer
	WithConfigProvider        = core.WithConfigProvider
	WithOptionsResolver       = core.WithOptionsResolver
	WithDeliveryIDGenerator   = core.WithDeliveryIDGenerator
	WithClock                 = core.WithClock
	NewEndpointOptions        = core.NewEndpointOptions
	NewEndpointOptionsWithURL = core.NewEndpointOptionsWithURL
	NewFlag                   = core.NewFlag
	ParseCategory             = core.ParseCategory
	IsNotificationRejected    = core.IsNotificationRejected
	RejectionDetails          = core.RejectionDetails
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func New(opts ...Option) *WebhookListener {
	return core.NewWebhookListener(opts...)
}

func NewWithURL(url string, opts ...Option) *WebhookListener {
	return core.NewWebhookListenerWithURL(url, opts...)
}

func NewFromConfig(cfg Config, opts ...Option) (*WebhookListener, error) {
	return core.NewFromConfig(cfg, opts...)
}

type Commands struct {
	Notify          *command.NotifyCommand
	Dispatch        *command.DispatchCommand
	ProcessDelivery *command.ProcessDeliveryCommand
}

// Facade bundles a listener with the command handlers that drive it.
type Facade struct {
	listener *WebhookListener
	worker   *DeliveryWorker
	commands Commands
}

func NewFacade(listener *WebhookListener) (*Facade, error) {
	if listener == nil {
		return nil, fmt.Errorf("flaghooks: listener is required")
	}
	worker, err := core.NewDeliveryWorker(listener)
	if err != nil {
		return nil, err
	}
	return &Facade{
		listener: listener,
		worker:   worker,
		commands: Commands{
			Notify:          command.NewNotifyCommand(listener),
			Dispatch:        command.NewDispatchCommand(listener),
			ProcessDelivery: command.NewProcessDeliveryCommand(worker),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Listener() *WebhookListener {
	if f == nil {
		return nil
	}
	return f.listener
}

func (f *Facade) Worker() *DeliveryWorker {
	if f == nil {
		return nil
	}
	return f.worker
}
