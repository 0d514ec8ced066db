package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-flaghooks/core"
	sqlstore "github.com/goliatone/go-flaghooks/store/sql"
)

var errNoEndpointStore = errors.New("no endpoint store configured (set store.driver and store.dsn)")

type globalFlags struct {
	configPath string
	baseURL    string
	headers    []string
}

type fileConfig struct {
	raw   map[string]any
	store sqlstore.Config
}

type commandContext struct {
	flags *globalFlags

	fileOnce sync.Once
	file     fileConfig
	fileErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) loadFile() (fileConfig, error) {
	c.fileOnce.Do(func() {
		path := ""
		if c.flags != nil {
			path = strings.TrimSpace(c.flags.configPath)
		}
		if path == "" {
			c.file = fileConfig{raw: map[string]any{}}
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			c.fileErr = fmt.Errorf("read config %s: %w", path, err)
			return
		}
		raw := map[string]any{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			c.fileErr = fmt.Errorf("parse config %s: %w", path, err)
			return
		}
		var sections struct {
			Store sqlstore.Config `yaml:"store"`
		}
		if err := yaml.Unmarshal(data, &sections); err != nil {
			c.fileErr = fmt.Errorf("parse store config %s: %w", path, err)
			return
		}
		delete(raw, "store")
		c.file = fileConfig{raw: raw, store: sections.Store}
	})
	return c.file, c.fileErr
}

// session is what a command runs against. close releases the endpoint store.
type session struct {
	listener *core.WebhookListener
	registry sqlstore.EndpointRegistry
	close    func()
}

func (c *commandContext) open(ctx context.Context) (*session, error) {
	file, err := c.loadFile()
	if err != nil {
		return nil, err
	}
	options := []core.Option{
		core.WithConfigProvider(core.NewCfgxConfigProvider(core.NewStaticRawConfigLoader(file.raw))),
	}

	s := &session{close: func() {}}
	if file.store.Enabled() {
		client, err := sqlstore.Open(ctx, file.store)
		if err != nil {
			return nil, err
		}
		s.close = func() { _ = client.Close() }
		store, err := sqlstore.NewEndpointStoreFromPersistence(client)
		if err != nil {
			s.close()
			return nil, err
		}
		seeded, err := sqlstore.LoadListenerOptions(ctx, store)
		if err != nil {
			s.close()
			return nil, err
		}
		s.registry = store
		options = append(options, seeded...)
	}

	listener, err := core.NewFromConfig(core.Config{}, options...)
	if err != nil {
		s.close()
		return nil, err
	}
	if err := c.applyFlagOverrides(listener.BaseOptions()); err != nil {
		s.close()
		return nil, err
	}
	s.listener = listener
	return s, nil
}

func (c *commandContext) applyFlagOverrides(base *core.EndpointOptions) error {
	if c.flags == nil {
		return nil
	}
	if url := strings.TrimSpace(c.flags.baseURL); url != "" {
		base.WithURL(url)
	}
	headers, err := parseHeaderFlags(c.flags.headers)
	if err != nil {
		return err
	}
	for key, value := range headers {
		base.WithHeader(key, value)
	}
	return nil
}

// parseHeaderFlags accepts key=value or "key: value".
func parseHeaderFlags(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")
		if !ok {
			key, val, ok = strings.Cut(value, ":")
		}
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q (expected key=value)", value)
		}
		out[key] = strings.TrimSpace(val)
	}
	return out, nil
}

func formatHeaders(headers map[string]string) string {
	if len(headers) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+headers[key])
	}
	return strings.Join(parts, ", ")
}
