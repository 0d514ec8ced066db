package sqlstore

import (
	"context"
	"fmt"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-flaghooks/core"
)

const (
	endpointCacheKeyPrefix = "go-flaghooks::endpoint::v1"
	endpointCacheAllKey    = endpointCacheKeyPrefix + "::_all"
)

// CachedEndpointStore serves reads through a go-repository-cache service and
// evicts the touched category plus the full set on every write.
type CachedEndpointStore struct {
	base  EndpointRegistry
	cache repositorycache.CacheService
}

func NewCachedEndpointStore(base EndpointRegistry, cacheService repositorycache.CacheService) (*CachedEndpointStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base endpoint registry is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: endpoint cache service is required")
	}
	return &CachedEndpointStore{base: base, cache: cacheService}, nil
}

// EndpointCacheKey is go-flaghooks::endpoint::v1::<category>.
func EndpointCacheKey(category core.Category) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("sqlstore: invalid endpoint category %s", category)
	}
	return strings.Join([]string{endpointCacheKeyPrefix, category.String()}, "::"), nil
}

func (s *CachedEndpointStore) Save(ctx context.Context, category core.Category, options *core.EndpointOptions) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached endpoint store is not configured")
	}
	if err := s.base.Save(ctx, category, options); err != nil {
		return err
	}
	return s.evict(ctx, category)
}

func (s *CachedEndpointStore) Load(ctx context.Context, category core.Category) (Endpoint, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return Endpoint{}, fmt.Errorf("sqlstore: cached endpoint store is not configured")
	}
	key, err := EndpointCacheKey(category)
	if err != nil {
		return Endpoint{}, err
	}
	endpoint, err := repositorycache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (Endpoint, error) {
		fetched, fetchErr := s.base.Load(ctx, category)
		if fetchErr != nil {
			return Endpoint{}, fetchErr
		}
		return fetched.clone(), nil
	})
	if err != nil {
		return Endpoint{}, err
	}
	return endpoint.clone(), nil
}

func (s *CachedEndpointStore) LoadAll(ctx context.Context) (EndpointSet, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached endpoint store is not configured")
	}
	set, err := repositorycache.GetOrFetch(ctx, s.cache, endpointCacheAllKey, func(ctx context.Context) (EndpointSet, error) {
		fetched, fetchErr := s.base.LoadAll(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return fetched.clone(), nil
	})
	if err != nil {
		return nil, err
	}
	return set.clone(), nil
}

func (s *CachedEndpointStore) Delete(ctx context.Context, category core.Category) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached endpoint store is not configured")
	}
	if err := s.base.Delete(ctx, category); err != nil {
		return err
	}
	return s.evict(ctx, category)
}

func (s *CachedEndpointStore) evict(ctx context.Context, category core.Category) error {
	key, err := EndpointCacheKey(category)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		return err
	}
	return s.cache.Delete(ctx, endpointCacheAllKey)
}
