package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/portal-estiba/admin-api/internal/store"
	"go.uber.org/zap"
)

type fakeSource struct {
	UsersFn         func(ctx context.Context, limit, offset int) ([]store.UserRow, error)
	SubscriptionsFn func(ctx context.Context, status string, limit, offset int) ([]store.SubscriptionRow, error)
}

func (f *fakeSource) Users(ctx context.Context, limit, offset int) ([]store.UserRow, error) {
	if f.UsersFn != nil {
		return f.UsersFn(ctx, limit, offset)
	}
	return nil, nil
}

func (f *fakeSource) Subscriptions(ctx context.Context, status string, limit, offset int) ([]store.SubscriptionRow, error) {
	if f.SubscriptionsFn != nil {
		return f.SubscriptionsFn(ctx, status, limit, offset)
	}
	return nil, nil
}

func usersOnce(rows []store.UserRow) func(ctx context.Context, limit, offset int) ([]store.UserRow, error) {
	return func(_ context.Context, _ int, offset int) ([]store.UserRow, error) {
		if offset > 0 {
			return nil, nil
		}
		return rows, nil
	}
}

func subsOnce(rows []store.SubscriptionRow) func(ctx context.Context, status string, limit, offset int) ([]store.SubscriptionRow, error) {
	return func(_ context.Context, _ string, _ int, offset int) ([]store.SubscriptionRow, error) {
		if offset > 0 {
			return nil, nil
		}
		return rows, nil
	}
}

func TestListUsers_PremiumCrossReference(t *testing.T) {
	source := &fakeSource{
		UsersFn: usersOnce([]store.UserRow{
			{ID: "u1", Chapa: "A7", Nombre: "Ana", Email: "ana@puerto.es", CreatedAt: "2026-01-01T00:00:00Z"},
			{ID: "u2", Chapa: "B2", Nombre: "Bruno", Email: "bruno@puerto.es", CreatedAt: "2026-01-02T00:00:00Z"},
		}),
		SubscriptionsFn: subsOnce([]store.SubscriptionRow{
			{ID: "s1", Chapa: "A7", Estado: "active"},
		}),
	}

	svc := NewService(source, 1000, zap.NewNop())
	profiles, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	if !profiles[0].Premium {
		t.Fatal("A7 holds an active subscription and must be premium")
	}
	if profiles[1].Premium {
		t.Fatal("B2 has no subscription and must not be premium")
	}
}

func TestListUsers_DisplayFallbacks(t *testing.T) {
	source := &fakeSource{
		UsersFn: usersOnce([]store.UserRow{
			{ID: "u1", CreatedAt: "2026-01-01T00:00:00Z"},
			{ID: "u2", Chapa: "C3", FullName: "Carla Diaz", CreatedAt: "2026-01-02T00:00:00Z"},
		}),
	}

	svc := NewService(source, 1000, zap.NewNop())
	profiles, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	empty := profiles[0]
	if empty.Chapa != "N/A" {
		t.Fatalf("expected chapa fallback N/A, got %q", empty.Chapa)
	}
	if empty.Nombre != "Sin Nombre" {
		t.Fatalf("expected name fallback Sin Nombre, got %q", empty.Nombre)
	}
	if empty.Email != "No Email" {
		t.Fatalf("expected email fallback No Email, got %q", empty.Email)
	}
	if empty.Rol != "USER" || empty.Estado != "ACTIVO" {
		t.Fatalf("expected role/state fallbacks, got %+v", empty)
	}
	if empty.LastSeen != "2026-01-01T00:00:00Z" {
		t.Fatalf("expected last seen to fall back to created_at, got %q", empty.LastSeen)
	}

	if profiles[1].Nombre != "Carla Diaz" {
		t.Fatalf("expected full_name fallback before Sin Nombre, got %q", profiles[1].Nombre)
	}
}

func TestListUsers_DegradesToEmptyRoster(t *testing.T) {
	source := &fakeSource{
		UsersFn: func(context.Context, int, int) ([]store.UserRow, error) {
			return nil, errors.New("store unreachable")
		},
	}

	svc := NewService(source, 1000, zap.NewNop())
	profiles, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("roster must degrade, not fail: %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("expected empty roster, got %+v", profiles)
	}
}

func TestListActiveSubscriptions_JoinsUserIdentity(t *testing.T) {
	source := &fakeSource{
		SubscriptionsFn: subsOnce([]store.SubscriptionRow{
			{ID: "s1", Chapa: "A7", Estado: "active", PeriodoInicio: "2026-01-01", PeriodoFin: "2026-02-01", CreatedAt: "2026-01-01T00:00:00Z"},
			{ID: "s2", Chapa: "Z9", Estado: "active", CreatedAt: "2026-01-02T00:00:00Z"},
		}),
		UsersFn: usersOnce([]store.UserRow{
			{ID: "u1", Chapa: "A7", Nombre: "Ana", Email: "ana@puerto.es"},
		}),
	}

	svc := NewService(source, 1000, zap.NewNop())
	subs, err := svc.ListActiveSubscriptions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}

	joined := subs[0]
	if joined.UserID != "u1" || joined.UserName != "Ana" || joined.UserEmail != "ana@puerto.es" {
		t.Fatalf("expected identity join for A7, got %+v", joined)
	}

	orphan := subs[1]
	if orphan.UserEmail != "Desconocido" || orphan.UserName != "Usuario" {
		t.Fatalf("expected identity fallbacks for unmatched chapa, got %+v", orphan)
	}
}

func TestListActiveSubscriptions_LastWriteWinsOnDuplicateChapa(t *testing.T) {
	source := &fakeSource{
		SubscriptionsFn: subsOnce([]store.SubscriptionRow{
			{ID: "s1", Chapa: "A7", Estado: "active"},
		}),
		UsersFn: usersOnce([]store.UserRow{
			{ID: "u1", Chapa: "A7", Nombre: "Stale"},
			{ID: "u2", Chapa: "A7", Nombre: "Current"},
		}),
	}

	svc := NewService(source, 1000, zap.NewNop())
	subs, err := svc.ListActiveSubscriptions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subs[0].UserName != "Current" {
		t.Fatalf("expected the later user row to win, got %q", subs[0].UserName)
	}
}

func TestPlanInterval(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		want  string
	}{
		{name: "one month", start: "2026-01-01", end: "2026-02-01", want: PlanMonthly},
		{name: "exactly 45 days", start: "2026-01-01", end: "2026-02-15", want: PlanMonthly},
		{name: "one year", start: "2026-01-01", end: "2027-01-01", want: PlanAnnual},
		{name: "reversed bounds", start: "2027-01-01", end: "2026-01-01", want: PlanAnnual},
		{name: "missing start", start: "", end: "2026-02-01", want: PlanMonthly},
		{name: "missing end", start: "2026-01-01", end: "", want: PlanMonthly},
		{name: "unparseable", start: "next week", end: "later", want: PlanMonthly},
		{name: "timestamp bounds", start: "2026-01-01T00:00:00Z", end: "2026-06-01T00:00:00Z", want: PlanAnnual},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := planInterval(tc.start, tc.end); got != tc.want {
				t.Fatalf("planInterval(%q, %q) = %q, want %q", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "c"); got != "c" {
		t.Fatalf("expected c, got %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
