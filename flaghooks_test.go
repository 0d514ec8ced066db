package flaghooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-flaghooks/command"
)

func TestFacade_WiresCommandsToListener(t *testing.T) {
	var method, path, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		method, path, body = r.Method, r.URL.Path, string(payload)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	facade, err := NewFacade(NewWithURL(server.URL))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	commands := facade.Commands()
	if commands.Notify == nil || commands.Dispatch == nil || commands.ProcessDelivery == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	if facade.Listener() == nil || facade.Worker() == nil {
		t.Fatalf("expected listener and worker")
	}

	if err := commands.Notify.Execute(context.Background(), command.NotifyMessage{
		Event: EventChange,
		Flag:  NewFlag("beta", true),
	}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if method != http.MethodPost || path != "/" && path != "" {
		t.Fatalf("expected create POST to base url, got %s %s", method, path)
	}
	if body == "" {
		t.Fatalf("expected serialized flag body")
	}
}

func TestNewFacade_RequiresListener(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected missing listener error")
	}
	var facade *Facade
	if facade.Listener() != nil || facade.Commands().Notify != nil {
		t.Fatalf("expected nil facade accessors to be safe")
	}
}

func TestNewFromConfig_UsesEndpointSections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Base.URL = "http://hooks.local"
	cfg.Removal = &EndpointConfig{URL: "http://hooks.local/removed"}

	listener, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("new from config: %v", err)
	}
	url, ok := listener.RemovalOptions().URL()
	if !ok || url != "http://hooks.local/removed" {
		t.Fatalf("expected removal url from config, got %q", url)
	}
	category, err := ParseCategory("put")
	if err != nil || category != CategoryUpdate {
		t.Fatalf("expected put to parse as update, got %v %v", category, err)
	}
}
