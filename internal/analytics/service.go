package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/portal-estiba/admin-api/internal/store"
	"go.uber.org/zap"
)

// Source is the slice of the row store the dashboard reads.
type Source interface {
	Events(ctx context.Context, since *time.Time, limit, offset int) ([]store.EventRow, error)
	EventChapas(ctx context.Context, since *time.Time, limit, offset int) ([]store.EventUserRow, error)
	EventCount(ctx context.Context, since *time.Time) (int64, error)
	HomeEventCount(ctx context.Context, since *time.Time) (int64, error)
	UserCount(ctx context.Context) (int64, error)
	SubscriptionCount(ctx context.Context, status string) (int64, error)
	Subscriptions(ctx context.Context, status string, limit, offset int) ([]store.SubscriptionRow, error)
}

type Service struct {
	source       Source
	logger       *zap.Logger
	pageSize     int
	maxEventRows int

	now func() time.Time
}

func NewService(source Source, pageSize, maxEventRows int, logger *zap.Logger) *Service {
	return &Service{
		source:       source,
		logger:       logger,
		pageSize:     pageSize,
		maxEventRows: maxEventRows,
		now:          time.Now,
	}
}

// GetDashboardData assembles the full dashboard payload for one window.
// Auxiliary queries degrade to zeros or locally recomputed fallbacks;
// only a primary event fetch that yields nothing at all is fatal.
func (s *Service) GetDashboardData(ctx context.Context, window Window) (*DashboardData, error) {
	now := s.now()
	since := window.Since(now)

	var (
		wg sync.WaitGroup

		rawEvents []store.EventRow
		eventsErr error

		chapaRows []store.EventUserRow
		chapasErr error

		totalViews   int64
		totalViewsOK bool

		homeViews   int64
		homeViewsOK bool

		totalUsers   int64
		premiumCount int64

		activeSubs []store.SubscriptionRow
	)

	// The sub-queries are independent reads against the same store, so
	// they fan out. The primary scan is capped; the chapa scan is not,
	// because uniqueness must see every row in the window.
	wg.Add(7)

	go func() {
		defer wg.Done()
		rawEvents, eventsErr = store.FetchAll(ctx, s.pageSize, s.maxEventRows, "page_events", s.logger,
			func(ctx context.Context, limit, offset int) ([]store.EventRow, error) {
				return s.source.Events(ctx, since, limit, offset)
			})
	}()

	go func() {
		defer wg.Done()
		chapaRows, chapasErr = store.FetchAll(ctx, s.pageSize, 0, "page_events(chapa)", s.logger,
			func(ctx context.Context, limit, offset int) ([]store.EventUserRow, error) {
				return s.source.EventChapas(ctx, since, limit, offset)
			})
	}()

	go func() {
		defer wg.Done()
		count, err := s.source.EventCount(ctx, since)
		if err != nil {
			s.logger.Warn("Total view count query failed", zap.Error(err))
			return
		}
		totalViews, totalViewsOK = count, true
	}()

	go func() {
		defer wg.Done()
		count, err := s.source.HomeEventCount(ctx, since)
		if err != nil {
			s.logger.Warn("Home view count query failed", zap.Error(err))
			return
		}
		homeViews, homeViewsOK = count, true
	}()

	go func() {
		defer wg.Done()
		count, err := s.source.UserCount(ctx)
		if err != nil {
			s.logger.Warn("User count query failed", zap.Error(err))
			return
		}
		totalUsers = count
	}()

	go func() {
		defer wg.Done()
		count, err := s.source.SubscriptionCount(ctx, "active")
		if err != nil {
			s.logger.Warn("Premium count query failed", zap.Error(err))
			return
		}
		premiumCount = count
	}()

	go func() {
		defer wg.Done()
		subs, err := store.FetchAll(ctx, s.pageSize, 0, "usuarios_premium", s.logger,
			func(ctx context.Context, limit, offset int) ([]store.SubscriptionRow, error) {
				return s.source.Subscriptions(ctx, "active", limit, offset)
			})
		if err != nil && len(subs) == 0 {
			s.logger.Warn("Premium subscription scan failed", zap.Error(err))
			return
		}
		activeSubs = subs
	}()

	wg.Wait()

	if eventsErr != nil && len(rawEvents) == 0 {
		s.logger.Error("Primary event fetch failed",
			zap.String("window", string(window)),
			zap.Error(eventsErr),
		)
		return nil, fmt.Errorf("%w: %v", ErrEventFetchFailed, eventsErr)
	}

	events := normalizeEvents(rawEvents)
	premium := premiumSet(activeSubs)

	if !totalViewsOK {
		totalViews = int64(len(events))
	}

	uniqueUsers := uniqueUserCount(chapaRows)
	if chapasErr != nil && len(chapaRows) == 0 {
		// Degrade to the capped in-memory list rather than report zero.
		uniqueUsers = inMemoryUniqueUsers(events)
	}

	stats := computeHourlyStats(events)
	start := now
	if since != nil {
		start = *since
	} else if earliest, ok := earliestEvent(events); ok {
		start = earliest
	}

	data := &DashboardData{
		KPI: KPI{
			TotalUsers:      totalUsers,
			PremiumUsers:    premiumCount,
			UniqueUsers:     uniqueUsers,
			TotalViews:      totalViews,
			PeakHourlyUsers: stats.peakUsers,
			PeakHourlyViews: stats.peakViews,
			AvgHourlyUsers:  averageHourlyUsers(stats.userHours, start, now),
		},
		TopPages:       rankPages(events, homeViews, homeViewsOK),
		TopUsers:       rankTopUsers(events, premium),
		ActivityData:   bucketActivity(events, window.FineGrained()),
		TimelineEvents: buildTimeline(events, premium, now),
	}

	s.logger.Info("Dashboard data assembled",
		zap.String("window", string(window)),
		zap.Int("events", len(events)),
		zap.Int64("unique_users", uniqueUsers),
		zap.Int("timeline_events", len(data.TimelineEvents)),
	)

	return data, nil
}

func inMemoryUniqueUsers(events []Event) int64 {
	seen := make(map[string]struct{})
	for _, e := range events {
		if e.UserID != AnonUser {
			seen[e.UserID] = struct{}{}
		}
	}
	return int64(len(seen))
}

func earliestEvent(events []Event) (time.Time, bool) {
	if len(events) == 0 {
		return time.Time{}, false
	}
	earliest := events[0].CreatedAt
	for _, e := range events[1:] {
		if e.CreatedAt.Before(earliest) {
			earliest = e.CreatedAt
		}
	}
	return earliest, true
}
