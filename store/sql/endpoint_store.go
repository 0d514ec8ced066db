package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-flaghooks/core"
)

var ErrEndpointNotFound = errors.New("sqlstore: endpoint not found")

// EndpointRegistry persists one endpoint configuration per category.
type EndpointRegistry interface {
	Save(ctx context.Context, category core.Category, options *core.EndpointOptions) error
	Load(ctx context.Context, category core.Category) (Endpoint, error)
	LoadAll(ctx context.Context) (EndpointSet, error)
	Delete(ctx context.Context, category core.Category) error
}

// Endpoint is the stored form of a category's EndpointOptions. A nil URL or
// nil Headers keeps the inherit-from-base meaning.
type Endpoint struct {
	Category  core.Category
	URL       *string
	Headers   map[string]string
	Async     bool
	UpdatedAt time.Time
}

func EndpointFromOptions(category core.Category, options *core.EndpointOptions) Endpoint {
	endpoint := Endpoint{Category: category}
	if options == nil {
		return endpoint
	}
	if url, ok := options.URL(); ok {
		endpoint.URL = &url
	}
	endpoint.Headers = options.Headers()
	endpoint.Async = options.Async()
	return endpoint
}

func (e Endpoint) Options() *core.EndpointOptions {
	options := core.NewEndpointOptions()
	if e.URL != nil {
		options.WithURL(*e.URL)
	}
	if e.Headers != nil {
		options.WithHeaders(e.Headers)
	}
	return options.WithAsync(e.Async)
}

func (e Endpoint) clone() Endpoint {
	out := e
	if e.URL != nil {
		url := *e.URL
		out.URL = &url
	}
	if e.Headers != nil {
		out.Headers = make(map[string]string, len(e.Headers))
		for key, value := range e.Headers {
			out.Headers[key] = value
		}
	}
	return out
}

// EndpointSet is ordered by category.
type EndpointSet []Endpoint

func (s EndpointSet) Lookup(category core.Category) (Endpoint, bool) {
	for _, endpoint := range s {
		if endpoint.Category == category {
			return endpoint, true
		}
	}
	return Endpoint{}, false
}

// ListenerOptions seeds a WebhookListener with the stored endpoints. Options
// passed after these still win.
func (s EndpointSet) ListenerOptions() []core.Option {
	out := make([]core.Option, 0, len(s))
	for _, endpoint := range s {
		out = append(out, core.WithCategoryOptions(endpoint.Category, endpoint.Options()))
	}
	return out
}

func (s EndpointSet) clone() EndpointSet {
	if s == nil {
		return nil
	}
	out := make(EndpointSet, 0, len(s))
	for _, endpoint := range s {
		out = append(out, endpoint.clone())
	}
	return out
}

type EndpointStore struct {
	db   *bun.DB
	repo repository.Repository[*endpointRecord]
	now  func() time.Time
}

func NewEndpointStore(db *bun.DB) (*EndpointStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*endpointRecord](db, endpointHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid endpoint repository wiring: %w", err)
		}
	}
	return &EndpointStore{
		db:   db,
		repo: repo,
		now:  time.Now,
	}, nil
}

// Save inserts or replaces the configuration stored for category.
func (s *EndpointStore) Save(ctx context.Context, category core.Category, options *core.EndpointOptions) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	if !category.Valid() {
		return fmt.Errorf("sqlstore: invalid endpoint category %s", category)
	}
	if options == nil {
		return fmt.Errorf("sqlstore: endpoint options are required")
	}
	endpoint := EndpointFromOptions(category, options)
	now := s.now().UTC()

	current, err := s.find(ctx, category)
	if err != nil {
		return err
	}
	if current == nil {
		record := &endpointRecord{
			ID:        uuid.NewString(),
			Category:  category.String(),
			CreatedAt: now,
		}
		endpoint.applyTo(record, now)
		_, err = s.repo.Create(ctx, record)
		return err
	}
	endpoint.applyTo(current, now)
	_, err = s.repo.Update(ctx, current, repository.UpdateByID(current.ID))
	return err
}

func (s *EndpointStore) Load(ctx context.Context, category core.Category) (Endpoint, error) {
	if s == nil || s.db == nil {
		return Endpoint{}, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	if !category.Valid() {
		return Endpoint{}, fmt.Errorf("sqlstore: invalid endpoint category %s", category)
	}
	record := &endpointRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.category = ?", category.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Endpoint{}, ErrEndpointNotFound
		}
		return Endpoint{}, err
	}
	return record.toDomain()
}

func (s *EndpointStore) LoadAll(ctx context.Context) (EndpointSet, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("created_at ASC"))
	if err != nil {
		return nil, err
	}
	out := make(EndpointSet, 0, len(records))
	for _, record := range records {
		endpoint, convErr := record.toDomain()
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, endpoint)
	}
	slices.SortFunc(out, func(a, b Endpoint) int {
		return int(a.Category) - int(b.Category)
	})
	return out, nil
}

// Delete removes the stored configuration. Deleting a missing category is
// not an error.
func (s *EndpointStore) Delete(ctx context.Context, category core.Category) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	if !category.Valid() {
		return fmt.Errorf("sqlstore: invalid endpoint category %s", category)
	}
	_, err := s.db.NewDelete().
		Model((*endpointRecord)(nil)).
		Where("category = ?", category.String()).
		Exec(ctx)
	return err
}

func (s *EndpointStore) find(ctx context.Context, category core.Category) (*endpointRecord, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("category", "=", category.String()),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (e Endpoint) applyTo(record *endpointRecord, now time.Time) {
	cloned := e.clone()
	record.URL = cloned.URL
	record.Headers = cloned.Headers
	record.InheritHeaders = cloned.Headers == nil
	record.Async = cloned.Async
	record.UpdatedAt = now
}

func (r *endpointRecord) toDomain() (Endpoint, error) {
	category, err := core.ParseCategory(r.Category)
	if err != nil {
		return Endpoint{}, fmt.Errorf("sqlstore: endpoint %s: %w", r.ID, err)
	}
	endpoint := Endpoint{
		Category:  category,
		URL:       r.URL,
		Async:     r.Async,
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if !r.InheritHeaders {
		endpoint.Headers = r.Headers
		if endpoint.Headers == nil {
			endpoint.Headers = map[string]string{}
		}
	}
	return endpoint.clone(), nil
}
