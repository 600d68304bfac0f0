package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Postgres reads the same tables over a direct database connection,
// for deployments that bypass the hosted REST API. Timestamp columns
// are cast to text so both backends hand the normalizer the same row
// shape.
type Postgres struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPostgres(db *sqlx.DB, logger *zap.Logger) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger,
	}
}

func (s *Postgres) Events(ctx context.Context, since *time.Time, limit, offset int) ([]EventRow, error) {
	query := `
		SELECT id::text AS id,
		       COALESCE(page, '') AS page,
		       COALESCE(chapa::text, '') AS chapa,
		       COALESCE(ts::text, '') AS ts
		FROM page_events
	`
	args := []any{}
	if since != nil {
		query += " WHERE ts >= $1"
		args = append(args, since.UTC())
	}
	query += fmt.Sprintf(" ORDER BY ts DESC NULLS LAST LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var events []EventRow
	if err := s.db.SelectContext(ctx, &events, query, args...); err != nil {
		s.logger.Error("Failed to fetch events", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	return events, nil
}

func (s *Postgres) EventChapas(ctx context.Context, since *time.Time, limit, offset int) ([]EventUserRow, error) {
	query := `SELECT COALESCE(chapa::text, '') AS chapa FROM page_events`
	args := []any{}
	if since != nil {
		query += " WHERE ts >= $1"
		args = append(args, since.UTC())
	}
	query += fmt.Sprintf(" ORDER BY ts DESC NULLS LAST LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var rows []EventUserRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		s.logger.Error("Failed to fetch event chapas", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch event chapas: %w", err)
	}

	return rows, nil
}

func (s *Postgres) EventCount(ctx context.Context, since *time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM page_events`
	args := []any{}
	if since != nil {
		query += " WHERE ts >= $1"
		args = append(args, since.UTC())
	}

	var count int64
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (s *Postgres) HomeEventCount(ctx context.Context, since *time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM page_events WHERE page IN ('/', '/home', '')`
	args := []any{}
	if since != nil {
		query += " AND ts >= $1"
		args = append(args, since.UTC())
	}

	var count int64
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count home events: %w", err)
	}
	return count, nil
}

func (s *Postgres) Users(ctx context.Context, limit, offset int) ([]UserRow, error) {
	query := `
		SELECT id::text AS id,
		       COALESCE(chapa::text, '') AS chapa,
		       COALESCE(nombre, '') AS nombre,
		       COALESCE(full_name, '') AS full_name,
		       COALESCE(email, '') AS email,
		       COALESCE(rol, '') AS rol,
		       COALESCE(estado, '') AS estado,
		       COALESCE(ultimo_acceso::text, '') AS ultimo_acceso,
		       COALESCE(last_sign_in_at::text, '') AS last_sign_in_at,
		       COALESCE(created_at::text, '') AS created_at,
		       COALESCE(updated_at::text, '') AS updated_at
		FROM usuarios
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var users []UserRow
	if err := s.db.SelectContext(ctx, &users, query, limit, offset); err != nil {
		s.logger.Error("Failed to fetch users", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, nil
}

func (s *Postgres) UserCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM usuarios`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (s *Postgres) Subscriptions(ctx context.Context, status string, limit, offset int) ([]SubscriptionRow, error) {
	query := `
		SELECT id::text AS id,
		       COALESCE(chapa::text, '') AS chapa,
		       COALESCE(estado, '') AS estado,
		       COALESCE(periodo_inicio::text, '') AS periodo_inicio,
		       COALESCE(periodo_fin::text, '') AS periodo_fin,
		       COALESCE(created_at::text, '') AS created_at
		FROM usuarios_premium
	`
	args := []any{}
	if status != "" {
		query += " WHERE estado = $1"
		args = append(args, status)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var subs []SubscriptionRow
	if err := s.db.SelectContext(ctx, &subs, query, args...); err != nil {
		s.logger.Error("Failed to fetch subscriptions", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}

	return subs, nil
}

func (s *Postgres) SubscriptionCount(ctx context.Context, status string) (int64, error) {
	query := `SELECT COUNT(*) FROM usuarios_premium`
	args := []any{}
	if status != "" {
		query += " WHERE estado = $1"
		args = append(args, status)
	}

	var count int64
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return count, nil
}

func (s *Postgres) InsertEvent(ctx context.Context, page, chapa string, ts time.Time) error {
	query := `INSERT INTO page_events (page, chapa, ts) VALUES ($1, NULLIF($2, ''), $3)`

	if _, err := s.db.ExecContext(ctx, query, page, chapa, ts.UTC()); err != nil {
		s.logger.Error("Failed to insert page event", zap.Error(err))
		return fmt.Errorf("failed to insert page event: %w", err)
	}

	return nil
}
