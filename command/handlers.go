package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-flaghooks/core"
)

type Notifier interface {
	Notify(ctx context.Context, event string, flag core.Flag) error
	Dispatch(ctx context.Context, category core.Category, flag core.Flag) (core.DeliveryResult, error)
}

type DeliveryProcessor interface {
	Process(ctx context.Context, delivery core.JobDelivery) error
}

type NotifyCommand struct {
	notifier Notifier
}

func NewNotifyCommand(notifier Notifier) *NotifyCommand {
	return &NotifyCommand{notifier: notifier}
}

func (c *NotifyCommand) Execute(ctx context.Context, msg NotifyMessage) error {
	if c == nil || c.notifier == nil {
		return commandDependencyError("command: notifier is required")
	}
	if err := validateMessage(msg); err != nil {
		return commandWrapValidation(err, "command: invalid notify message")
	}
	return c.notifier.Notify(ctx, msg.Event, msg.Flag)
}

// DispatchCommand sends a notification for an explicit category and stores
// the core.DeliveryResult in the context result collector, if any.
type DispatchCommand struct {
	notifier Notifier
}

func NewDispatchCommand(notifier Notifier) *DispatchCommand {
	return &DispatchCommand{notifier: notifier}
}

func (c *DispatchCommand) Execute(ctx context.Context, msg DispatchMessage) error {
	if c == nil || c.notifier == nil {
		return commandDependencyError("command: notifier is required")
	}
	if err := validateMessage(msg); err != nil {
		return commandWrapValidation(err, "command: invalid dispatch message")
	}
	out, err := c.notifier.Dispatch(ctx, msg.Category, msg.Flag)
	storeResult(ctx, out)
	return err
}

type ProcessDeliveryCommand struct {
	processor DeliveryProcessor
}

func NewProcessDeliveryCommand(processor DeliveryProcessor) *ProcessDeliveryCommand {
	return &ProcessDeliveryCommand{processor: processor}
}

func (c *ProcessDeliveryCommand) Execute(ctx context.Context, msg ProcessDeliveryMessage) error {
	if c == nil || c.processor == nil {
		return commandDependencyError("command: delivery processor is required")
	}
	if err := validateMessage(msg); err != nil {
		return commandWrapValidation(err, "command: invalid delivery message")
	}
	return c.processor.Process(ctx, msg.Delivery)
}

// validateMessage runs the optional Validate contract so direct Execute
// callers get the same checks as the dispatcher.
func validateMessage(msg any) error {
	validator, ok := msg.(interface{ Validate() error })
	if !ok {
		return nil
	}
	return validator.Validate()
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
