package store

import (
	"context"
	"fmt"
	"time"

	"github.com/portal-estiba/admin-api/pkg/supabase"
	"go.uber.org/zap"
)

const (
	tableEvents        = "page_events"
	tableUsers         = "usuarios"
	tableSubscriptions = "usuarios_premium"
)

// homePages are the variants the portal has historically recorded for
// the landing page.
var homePages = []string{"/", "/home", ""}

// PostgREST reads the Portal Estiba tables through the hosted Supabase
// REST API.
type PostgREST struct {
	client *supabase.Client
	logger *zap.Logger
}

func NewPostgREST(client *supabase.Client, logger *zap.Logger) *PostgREST {
	return &PostgREST{
		client: client,
		logger: logger,
	}
}

func (s *PostgREST) Events(ctx context.Context, since *time.Time, limit, offset int) ([]EventRow, error) {
	raw, err := s.client.Select(ctx, supabase.Query{
		Table:   tableEvents,
		Order:   "ts.desc",
		Filters: sinceFilter("ts", since),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return DecodeRows[EventRow](raw, tableEvents, s.logger), nil
}

func (s *PostgREST) EventChapas(ctx context.Context, since *time.Time, limit, offset int) ([]EventUserRow, error) {
	raw, err := s.client.Select(ctx, supabase.Query{
		Table:   tableEvents,
		Select:  "chapa",
		Order:   "ts.desc",
		Filters: sinceFilter("ts", since),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event chapas: %w", err)
	}
	return DecodeRows[EventUserRow](raw, tableEvents, s.logger), nil
}

func (s *PostgREST) EventCount(ctx context.Context, since *time.Time) (int64, error) {
	return s.client.Count(ctx, tableEvents, sinceFilter("ts", since)...)
}

func (s *PostgREST) HomeEventCount(ctx context.Context, since *time.Time) (int64, error) {
	filters := append(sinceFilter("ts", since), supabase.Filter{
		Column: "page",
		Op:     "in",
		Value:  supabase.InList(homePages...),
	})
	return s.client.Count(ctx, tableEvents, filters...)
}

func (s *PostgREST) Users(ctx context.Context, limit, offset int) ([]UserRow, error) {
	raw, err := s.client.Select(ctx, supabase.Query{
		Table:  tableUsers,
		Order:  "created_at.desc",
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return DecodeRows[UserRow](raw, tableUsers, s.logger), nil
}

func (s *PostgREST) UserCount(ctx context.Context) (int64, error) {
	return s.client.Count(ctx, tableUsers)
}

func (s *PostgREST) Subscriptions(ctx context.Context, status string, limit, offset int) ([]SubscriptionRow, error) {
	q := supabase.Query{
		Table:  tableSubscriptions,
		Order:  "created_at.desc",
		Limit:  limit,
		Offset: offset,
	}
	if status != "" {
		q.Filters = []supabase.Filter{{Column: "estado", Op: "eq", Value: status}}
	}

	raw, err := s.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}
	return DecodeRows[SubscriptionRow](raw, tableSubscriptions, s.logger), nil
}

func (s *PostgREST) SubscriptionCount(ctx context.Context, status string) (int64, error) {
	var filters []supabase.Filter
	if status != "" {
		filters = []supabase.Filter{{Column: "estado", Op: "eq", Value: status}}
	}
	return s.client.Count(ctx, tableSubscriptions, filters...)
}

func (s *PostgREST) InsertEvent(ctx context.Context, page, chapa string, ts time.Time) error {
	record := map[string]any{
		"page": page,
		"ts":   ts.UTC().Format(time.RFC3339Nano),
	}
	if chapa != "" {
		record["chapa"] = chapa
	}

	if err := s.client.Insert(ctx, tableEvents, record); err != nil {
		return fmt.Errorf("failed to insert page event: %w", err)
	}
	return nil
}

func sinceFilter(column string, since *time.Time) []supabase.Filter {
	if since == nil {
		return nil
	}
	return []supabase.Filter{{
		Column: column,
		Op:     "gte",
		Value:  since.UTC().Format(time.RFC3339),
	}}
}
