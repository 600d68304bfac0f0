package roster

import (
	"context"
	"math"
	"time"

	"github.com/portal-estiba/admin-api/internal/store"
	"go.uber.org/zap"
)

// annualThresholdDays separates monthly from annual periods.
const annualThresholdDays = 45

// Source is the slice of the row store the roster reads.
type Source interface {
	Users(ctx context.Context, limit, offset int) ([]store.UserRow, error)
	Subscriptions(ctx context.Context, status string, limit, offset int) ([]store.SubscriptionRow, error)
}

type Service struct {
	source   Source
	logger   *zap.Logger
	pageSize int
}

func NewService(source Source, pageSize int, logger *zap.Logger) *Service {
	return &Service{
		source:   source,
		logger:   logger,
		pageSize: pageSize,
	}
}

// ListUsers returns the full roster ordered by creation date, each
// profile flagged premium when its chapa holds an active subscription.
// Fetch failures degrade to whatever was gathered.
func (s *Service) ListUsers(ctx context.Context) ([]UserProfile, error) {
	users, err := store.FetchAll(ctx, s.pageSize, 0, "usuarios", s.logger,
		func(ctx context.Context, limit, offset int) ([]store.UserRow, error) {
			return s.source.Users(ctx, limit, offset)
		})
	if err != nil && len(users) == 0 {
		s.logger.Warn("User scan failed, returning empty roster", zap.Error(err))
		return []UserProfile{}, nil
	}

	premium := s.premiumChapas(ctx)

	profiles := make([]UserProfile, 0, len(users))
	for _, u := range users {
		chapa := string(u.Chapa)
		_, isPremium := premium[chapa]

		profiles = append(profiles, UserProfile{
			ID:        string(u.ID),
			Chapa:     firstNonEmpty(chapa, "N/A"),
			Nombre:    firstNonEmpty(u.Nombre, u.FullName, "Sin Nombre"),
			Email:     firstNonEmpty(u.Email, "No Email"),
			Rol:       firstNonEmpty(u.Rol, "USER"),
			Estado:    firstNonEmpty(u.Estado, "ACTIVO"),
			Premium:   chapa != "" && isPremium,
			LastSeen:  firstNonEmpty(u.UltimoAcceso, u.LastSignInAt, u.CreatedAt),
			CreatedAt: u.CreatedAt,
			UpdatedAt: firstNonEmpty(u.UpdatedAt, u.CreatedAt),
		})
	}

	s.logger.Debug("User roster assembled",
		zap.Int("users", len(profiles)),
		zap.Int("premium_chapas", len(premium)),
	)

	return profiles, nil
}

// ListActiveSubscriptions returns the active subscriptions joined to
// user identity by chapa, newest first.
func (s *Service) ListActiveSubscriptions(ctx context.Context) ([]Subscription, error) {
	subs, err := store.FetchAll(ctx, s.pageSize, 0, "usuarios_premium", s.logger,
		func(ctx context.Context, limit, offset int) ([]store.SubscriptionRow, error) {
			return s.source.Subscriptions(ctx, "active", limit, offset)
		})
	if err != nil && len(subs) == 0 {
		s.logger.Warn("Subscription scan failed, returning empty list", zap.Error(err))
		return []Subscription{}, nil
	}

	users, err := store.FetchAll(ctx, s.pageSize, 0, "usuarios", s.logger,
		func(ctx context.Context, limit, offset int) ([]store.UserRow, error) {
			return s.source.Users(ctx, limit, offset)
		})
	if err != nil && len(users) == 0 {
		s.logger.Warn("User scan failed, subscriptions will carry no identity", zap.Error(err))
	}

	byChapa := userIndex(users)

	result := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		chapa := string(sub.Chapa)
		user, found := byChapa[chapa]

		entry := Subscription{
			ID:            string(sub.ID),
			Chapa:         firstNonEmpty(chapa, "?"),
			Status:        sub.Estado,
			PlanInterval:  planInterval(sub.PeriodoInicio, sub.PeriodoFin),
			PeriodoInicio: sub.PeriodoInicio,
			PeriodoFin:    sub.PeriodoFin,
			CreatedAt:     sub.CreatedAt,
			UserEmail:     "Desconocido",
			UserName:      "Usuario",
		}
		if found {
			entry.UserID = string(user.ID)
			entry.UserEmail = firstNonEmpty(user.Email, "Desconocido")
			entry.UserName = firstNonEmpty(user.Nombre, "Usuario")
			if entry.Chapa == "?" {
				entry.Chapa = firstNonEmpty(string(user.Chapa), "?")
			}
		}

		result = append(result, entry)
	}

	return result, nil
}

// premiumChapas builds the active-subscription chapa set, empty on
// failure so the roster still renders.
func (s *Service) premiumChapas(ctx context.Context) map[string]struct{} {
	subs, err := store.FetchAll(ctx, s.pageSize, 0, "usuarios_premium", s.logger,
		func(ctx context.Context, limit, offset int) ([]store.SubscriptionRow, error) {
			return s.source.Subscriptions(ctx, "active", limit, offset)
		})
	if err != nil && len(subs) == 0 {
		s.logger.Warn("Premium scan failed, roster premium flags default to false", zap.Error(err))
		return map[string]struct{}{}
	}

	set := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		if sub.Chapa != "" {
			set[string(sub.Chapa)] = struct{}{}
		}
	}
	return set
}

// userIndex maps users by chapa, last write wins on duplicate badges.
func userIndex(users []store.UserRow) map[string]store.UserRow {
	index := make(map[string]store.UserRow, len(users))
	for _, u := range users {
		if u.Chapa != "" {
			index[string(u.Chapa)] = u
		}
	}
	return index
}

// planInterval derives the billing interval from the subscription
// period. Unparseable or missing bounds default to monthly.
func planInterval(start, end string) string {
	startAt, err1 := parseDate(start)
	endAt, err2 := parseDate(end)
	if err1 != nil || err2 != nil {
		return PlanMonthly
	}

	days := math.Ceil(math.Abs(endAt.Sub(startAt).Hours()) / 24)
	if days > annualThresholdDays {
		return PlanAnnual
	}
	return PlanMonthly
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
