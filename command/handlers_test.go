package command

import (
	"context"
	"errors"
	"net/http"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-flaghooks/core"
)

type stubNotifier struct {
	notifyFn   func(ctx context.Context, event string, flag core.Flag) error
	dispatchFn func(ctx context.Context, category core.Category, flag core.Flag) (core.DeliveryResult, error)
}

func (s stubNotifier) Notify(ctx context.Context, event string, flag core.Flag) error {
	if s.notifyFn == nil {
		return nil
	}
	return s.notifyFn(ctx, event, flag)
}

func (s stubNotifier) Dispatch(ctx context.Context, category core.Category, flag core.Flag) (core.DeliveryResult, error) {
	if s.dispatchFn == nil {
		return core.DeliveryResult{}, nil
	}
	return s.dispatchFn(ctx, category, flag)
}

type stubProcessor struct {
	processed []core.JobDelivery
	err       error
}

func (s *stubProcessor) Process(_ context.Context, delivery core.JobDelivery) error {
	s.processed = append(s.processed, delivery)
	return s.err
}

type stubDelivery struct {
	msg *core.JobExecutionMessage
}

func (d stubDelivery) Message() *core.JobExecutionMessage { return d.msg }

func (stubDelivery) Ack(context.Context) error { return nil }

func TestNotifyCommand_ExecuteDelegates(t *testing.T) {
	called := false
	svc := stubNotifier{
		notifyFn: func(_ context.Context, event string, flag core.Flag) error {
			called = true
			if event != core.EventRemoval || flag.Key != "beta" {
				t.Fatalf("unexpected notify payload: %q %#v", event, flag)
			}
			return nil
		},
	}
	flag := core.NewFlag("beta", true)
	flag.Metadata.ID = 3
	if err := NewNotifyCommand(svc).Execute(context.Background(), NotifyMessage{Event: core.EventRemoval, Flag: flag}); err != nil {
		t.Fatalf("execute notify: %v", err)
	}
	if !called {
		t.Fatalf("expected notifier invocation")
	}
}

func TestNotifyCommand_PropagatesRejection(t *testing.T) {
	sentinel := errors.New("rejected")
	svc := stubNotifier{notifyFn: func(context.Context, string, core.Flag) error { return sentinel }}
	err := NewNotifyCommand(svc).Execute(context.Background(), NotifyMessage{Event: core.EventChange})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected notifier error, got %v", err)
	}
}

func TestDispatchCommand_StoresResult(t *testing.T) {
	expected := core.DeliveryResult{DeliveryID: "d1", Category: core.CategoryUpdate, Method: http.MethodPut, StatusCode: http.StatusOK}
	svc := stubNotifier{
		dispatchFn: func(_ context.Context, category core.Category, flag core.Flag) (core.DeliveryResult, error) {
			if category != core.CategoryUpdate || flag.Metadata.ID != 5 {
				t.Fatalf("unexpected dispatch payload: %s %#v", category, flag)
			}
			return expected, nil
		},
	}
	collector := gocmd.NewResult[core.DeliveryResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	flag := core.NewFlag("beta", false)
	flag.Metadata.ID = 5
	if err := NewDispatchCommand(svc).Execute(ctx, DispatchMessage{Category: core.CategoryUpdate, Flag: flag}); err != nil {
		t.Fatalf("execute dispatch: %v", err)
	}
	stored, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if stored.DeliveryID != expected.DeliveryID || stored.StatusCode != expected.StatusCode {
		t.Fatalf("unexpected stored result: %#v", stored)
	}
}

func TestDispatchCommand_ValidatesMessage(t *testing.T) {
	called := false
	svc := stubNotifier{
		dispatchFn: func(context.Context, core.Category, core.Flag) (core.DeliveryResult, error) {
			called = true
			return core.DeliveryResult{}, nil
		},
	}
	cmd := NewDispatchCommand(svc)

	for name, msg := range map[string]DispatchMessage{
		"base category":     {Category: core.CategoryBase},
		"unknown category":  {Category: core.Category(12)},
		"update without id": {Category: core.CategoryUpdate, Flag: core.NewFlag("a", true)},
		"delete without id": {Category: core.CategoryDelete, Flag: core.NewFlag("a", true)},
	} {
		err := cmd.Execute(context.Background(), msg)
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorBadInput {
			t.Fatalf("%s: expected bad input envelope, got %v", name, err)
		}
	}
	if called {
		t.Fatalf("expected invalid messages to stop before dispatch")
	}

	if err := (DispatchMessage{Category: core.CategoryCreate}).Validate(); err != nil {
		t.Fatalf("expected create without id to validate: %v", err)
	}
}

func TestProcessDeliveryCommand(t *testing.T) {
	processor := &stubProcessor{}
	cmd := NewProcessDeliveryCommand(processor)
	delivery := stubDelivery{msg: &core.JobExecutionMessage{JobID: core.JobIDDeliver}}

	msg := ProcessDeliveryMessage{Delivery: delivery}
	if err := msg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(processor.processed) != 1 {
		t.Fatalf("expected one processed delivery")
	}

	if err := (ProcessDeliveryMessage{}).Validate(); err == nil {
		t.Fatalf("expected missing delivery validation error")
	}
	if err := (ProcessDeliveryMessage{Delivery: stubDelivery{}}).Validate(); err == nil {
		t.Fatalf("expected missing message validation error")
	}
	err := cmd.Execute(context.Background(), ProcessDeliveryMessage{Delivery: stubDelivery{}})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorBadInput {
		t.Fatalf("expected bad input envelope for delivery without message, got %v", err)
	}
	if len(processor.processed) != 1 {
		t.Fatalf("expected invalid delivery to stop before processing")
	}
	if err := NewProcessDeliveryCommand(nil).Execute(context.Background(), msg); err == nil {
		t.Fatalf("expected dependency error")
	}
}

func TestCommandsAgainstWebhookListener(t *testing.T) {
	listener := core.NewWebhookListenerWithURL("http://hooks.local", core.WithTransport(okTransport{}))
	for _, event := range []string{"unknown", ""} {
		if err := NewNotifyCommand(listener).Execute(context.Background(), NotifyMessage{Event: event}); err != nil {
			t.Fatalf("expected event %q to be ignored: %v", event, err)
		}
	}

	collector := gocmd.NewResult[core.DeliveryResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := NewDispatchCommand(listener).Execute(ctx, DispatchMessage{Category: core.CategoryCreate, Flag: core.NewFlag("a", true)}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	stored, ok := collector.Load()
	if !ok || stored.URL != "http://hooks.local" || stored.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected stored result %#v", stored)
	}
}

type okTransport struct{}

func (okTransport) Kind() string { return "ok" }

func (okTransport) Do(context.Context, core.TransportRequest) (core.TransportResponse, error) {
	return core.TransportResponse{StatusCode: http.StatusCreated}, nil
}
