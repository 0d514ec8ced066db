package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type endpointRecord struct {
	bun.BaseModel `bun:"table:flag_webhook_endpoints,alias:fwe"`

	ID             string            `bun:"id,pk"`
	Category       string            `bun:"category,notnull"`
	URL            *string           `bun:"url"`
	Headers        map[string]string `bun:"headers,type:jsonb,nullzero"`
	InheritHeaders bool              `bun:"inherit_headers,notnull"`
	Async          bool              `bun:"async,notnull"`
	CreatedAt      time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
