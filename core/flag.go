package core

import (
	"context"
	"time"
)

const (
	EventChange  = "change"
	EventRemoval = "removal"
)

// FlagMetadata carries the persistence identity of a flag. ID 0 means the
// flag has not been stored yet.
type FlagMetadata struct {
	ID          int64      `json:"id"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type Flag struct {
	Key      string       `json:"key"`
	Value    bool         `json:"value"`
	Metadata FlagMetadata `json:"metadata"`
}

func NewFlag(key string, value bool) Flag {
	return Flag{Key: key, Value: value}
}

func (f Flag) Persisted() bool {
	return f.Metadata.ID != 0
}

// FlagListener receives flag lifecycle events from a flag source.
type FlagListener interface {
	Notify(ctx context.Context, event string, flag Flag) error
}
