package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-flaghooks/core"
)

type stubEndpointRegistry struct {
	mu           sync.Mutex
	endpoints    map[core.Category]Endpoint
	loadCalls    int
	loadAllCalls int
	saveCalls    int
	loadErr      error
}

func newStubEndpointRegistry() *stubEndpointRegistry {
	return &stubEndpointRegistry{endpoints: map[core.Category]Endpoint{}}
}

func (s *stubEndpointRegistry) Save(_ context.Context, category core.Category, options *core.EndpointOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	s.endpoints[category] = EndpointFromOptions(category, options)
	return nil
}

func (s *stubEndpointRegistry) Load(_ context.Context, category core.Category) (Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadCalls++
	if s.loadErr != nil {
		return Endpoint{}, s.loadErr
	}
	endpoint, ok := s.endpoints[category]
	if !ok {
		return Endpoint{}, ErrEndpointNotFound
	}
	return endpoint.clone(), nil
}

func (s *stubEndpointRegistry) LoadAll(context.Context) (EndpointSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadAllCalls++
	out := EndpointSet{}
	for _, category := range core.Categories() {
		if endpoint, ok := s.endpoints[category]; ok {
			out = append(out, endpoint.clone())
		}
	}
	return out, nil
}

func (s *stubEndpointRegistry) Delete(_ context.Context, category core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.endpoints, category)
	return nil
}

func TestCachedEndpointStore_Load_MissFetchThenHit(t *testing.T) {
	base := newStubEndpointRegistry()
	base.endpoints[core.CategoryUpdate] = EndpointFromOptions(core.CategoryUpdate, core.NewEndpointOptionsWithURL("http://hooks.local/u"))

	store, err := NewCachedEndpointStore(base, newTestEndpointCacheService(t))
	if err != nil {
		t.Fatalf("new cached endpoint store: %v", err)
	}

	for i := 0; i < 2; i++ {
		endpoint, err := store.Load(context.Background(), core.CategoryUpdate)
		if err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
		if endpoint.URL == nil || *endpoint.URL != "http://hooks.local/u" {
			t.Fatalf("unexpected endpoint %#v", endpoint)
		}
	}
	if base.loadCalls != 1 {
		t.Fatalf("expected second load to be a cache hit, base load calls=%d", base.loadCalls)
	}
}

func TestCachedEndpointStore_Save_InvalidatesCategoryAndSet(t *testing.T) {
	base := newStubEndpointRegistry()
	base.endpoints[core.CategoryBase] = EndpointFromOptions(core.CategoryBase, core.NewEndpointOptionsWithURL("http://old"))

	store, err := NewCachedEndpointStore(base, newTestEndpointCacheService(t))
	if err != nil {
		t.Fatalf("new cached endpoint store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Load(ctx, core.CategoryBase); err != nil {
		t.Fatalf("prime load: %v", err)
	}
	if _, err := store.LoadAll(ctx); err != nil {
		t.Fatalf("prime load all: %v", err)
	}

	if err := store.Save(ctx, core.CategoryBase, core.NewEndpointOptionsWithURL("http://new")); err != nil {
		t.Fatalf("save: %v", err)
	}

	endpoint, err := store.Load(ctx, core.CategoryBase)
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if base.loadCalls != 2 || *endpoint.URL != "http://new" {
		t.Fatalf("expected refreshed endpoint, calls=%d endpoint=%#v", base.loadCalls, endpoint)
	}
	set, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all after save: %v", err)
	}
	if base.loadAllCalls != 2 || len(set) != 1 || *set[0].URL != "http://new" {
		t.Fatalf("expected refreshed set, calls=%d set=%#v", base.loadAllCalls, set)
	}
}

func TestCachedEndpointStore_ReturnsCopies(t *testing.T) {
	base := newStubEndpointRegistry()
	base.endpoints[core.CategoryCreate] = EndpointFromOptions(core.CategoryCreate, core.NewEndpointOptions().WithHeader("X-Key", "1"))

	store, err := NewCachedEndpointStore(base, newTestEndpointCacheService(t))
	if err != nil {
		t.Fatalf("new cached endpoint store: %v", err)
	}
	first, err := store.Load(context.Background(), core.CategoryCreate)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	first.Headers["X-Key"] = "mutated"

	second, err := store.Load(context.Background(), core.CategoryCreate)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if second.Headers["X-Key"] != "1" {
		t.Fatalf("expected cached endpoint to be isolated from caller mutation, got %q", second.Headers["X-Key"])
	}
}

func TestCachedEndpointStore_PropagatesBaseErrors(t *testing.T) {
	base := newStubEndpointRegistry()
	store, err := NewCachedEndpointStore(base, newTestEndpointCacheService(t))
	if err != nil {
		t.Fatalf("new cached endpoint store: %v", err)
	}
	if _, err := store.Load(context.Background(), core.CategoryDelete); !errors.Is(err, ErrEndpointNotFound) {
		t.Fatalf("expected not found propagation, got %v", err)
	}
	if _, err := store.Load(context.Background(), core.Category(-1)); err == nil {
		t.Fatalf("expected invalid category error")
	}
}

func TestEndpointCacheKey_Contract(t *testing.T) {
	key, err := EndpointCacheKey(core.CategoryUpdate)
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if key != "go-flaghooks::endpoint::v1::update" {
		t.Fatalf("unexpected cache key %q", key)
	}
	if _, err := NewCachedEndpointStore(nil, newTestEndpointCacheService(t)); err == nil {
		t.Fatalf("expected missing base error")
	}
	if _, err := NewCachedEndpointStore(newStubEndpointRegistry(), nil); err == nil {
		t.Fatalf("expected missing cache error")
	}
}

func TestEndpointSet_ListenerOptions(t *testing.T) {
	url := "http://hooks.local"
	set := EndpointSet{
		{Category: core.CategoryBase, URL: &url, Headers: map[string]string{"X-Key": "b"}},
		{Category: core.CategoryDelete, Headers: map[string]string{}},
	}
	listener := core.NewWebhookListener(set.ListenerOptions()...)

	baseURL, ok := listener.BaseOptions().URL()
	if !ok || baseURL != url {
		t.Fatalf("expected base url from set, got %q", baseURL)
	}
	removal := listener.RemovalOptions()
	if _, ok := removal.URL(); ok {
		t.Fatalf("expected removal url to inherit")
	}
	if headers := removal.Headers(); headers == nil || len(headers) != 0 {
		t.Fatalf("expected explicit empty removal headers, got %v", headers)
	}
}

func newTestEndpointCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
