package store

import (
	"context"
	"time"
)

// RowSource is the full port over the Portal Estiba tables. Consumers
// declare the narrower slice they need; this union exists so the
// binaries can wire either backend interchangeably.
type RowSource interface {
	Events(ctx context.Context, since *time.Time, limit, offset int) ([]EventRow, error)
	EventChapas(ctx context.Context, since *time.Time, limit, offset int) ([]EventUserRow, error)
	EventCount(ctx context.Context, since *time.Time) (int64, error)
	HomeEventCount(ctx context.Context, since *time.Time) (int64, error)
	Users(ctx context.Context, limit, offset int) ([]UserRow, error)
	UserCount(ctx context.Context) (int64, error)
	Subscriptions(ctx context.Context, status string, limit, offset int) ([]SubscriptionRow, error)
	SubscriptionCount(ctx context.Context, status string) (int64, error)
	InsertEvent(ctx context.Context, page, chapa string, ts time.Time) error
}

var (
	_ RowSource = (*PostgREST)(nil)
	_ RowSource = (*Postgres)(nil)
)
