package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/portal-estiba/admin-api/internal/store"
)

// anonDisplay is what the timeline shows for badge-less events.
const anonDisplay = "Anonimo"

// premiumSet collects the chapas holding an active subscription.
func premiumSet(subs []store.SubscriptionRow) map[string]struct{} {
	set := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		if sub.Estado == "active" && sub.Chapa != "" {
			set[string(sub.Chapa)] = struct{}{}
		}
	}
	return set
}

// rankPages counts views per canonical path. When the exact home-page
// count is known it overrides the in-memory "/" count: the event list
// backing this ranking is capped, the count query is not.
func rankPages(events []Event, homeViews int64, homeViewsKnown bool) []PageCount {
	counts := make(map[string]int64)
	for _, e := range events {
		counts[canonicalPath(e.Path)]++
	}

	if homeViewsKnown {
		counts["/"] = homeViews
	}

	pages := make([]PageCount, 0, len(counts))
	for name, value := range counts {
		pages = append(pages, PageCount{Name: name, Value: value})
	}
	sortRanking(pages, func(p PageCount) (string, int64) { return p.Name, p.Value })

	return pages
}

// rankTopUsers ranks non-anonymous users by activity, keeps the top 10
// and flags premium membership.
func rankTopUsers(events []Event, premium map[string]struct{}) []UserCount {
	counts := make(map[string]int64)
	for _, e := range events {
		if e.UserID != AnonUser {
			counts[e.UserID]++
		}
	}

	users := make([]UserCount, 0, len(counts))
	for name, value := range counts {
		_, isPremium := premium[name]
		users = append(users, UserCount{Name: name, Value: value, Premium: isPremium})
	}
	sortRanking(users, func(u UserCount) (string, int64) { return u.Name, u.Value })

	if len(users) > 10 {
		users = users[:10]
	}
	return users
}

// sortRanking orders by count descending; equal counts order by name
// ascending so the ranking is deterministic.
func sortRanking[T any](items []T, key func(T) (string, int64)) {
	sort.Slice(items, func(i, j int) bool {
		ni, vi := key(items[i])
		nj, vj := key(items[j])
		if vi != vj {
			return vi > vj
		}
		return ni < nj
	})
}

// uniqueUserCount counts distinct non-anonymous chapas. Fed by the
// exhaustive chapa scan, not by the capped event list.
func uniqueUserCount(rows []store.EventUserRow) int64 {
	seen := make(map[string]struct{})
	for _, row := range rows {
		if id := normalizeUserID(string(row.Chapa)); id != AnonUser {
			seen[id] = struct{}{}
		}
	}
	return int64(len(seen))
}

type hourlyStats struct {
	peakUsers int64
	peakViews int64
	// userHours is the sum of per-hour unique-user counts, the
	// numerator of the hourly average.
	userHours int64
}

func computeHourlyStats(events []Event) hourlyStats {
	type hourBucket struct {
		users map[string]struct{}
		views int64
	}

	buckets := make(map[int64]*hourBucket)
	for _, e := range events {
		key := e.CreatedAt.UTC().Truncate(time.Hour).Unix()
		b := buckets[key]
		if b == nil {
			b = &hourBucket{users: make(map[string]struct{})}
			buckets[key] = b
		}
		b.views++
		if e.UserID != AnonUser {
			b.users[e.UserID] = struct{}{}
		}
	}

	var stats hourlyStats
	for _, b := range buckets {
		users := int64(len(b.users))
		stats.userHours += users
		if users > stats.peakUsers {
			stats.peakUsers = users
		}
		if b.views > stats.peakViews {
			stats.peakViews = b.views
		}
	}
	return stats
}

// averageHourlyUsers divides the summed per-hour unique counts by the
// whole hours between the window start and now, never fewer than one.
func averageHourlyUsers(userHours int64, start, now time.Time) float64 {
	hours := int64(now.Sub(start).Hours())
	if hours < 1 {
		hours = 1
	}
	return math.Round(float64(userHours)/float64(hours)*10) / 10
}

// bucketActivity builds the chronological activity series: hourly
// buckets for the 24h window, daily otherwise.
func bucketActivity(events []Event, fineGrained bool) []ActivityPoint {
	type bucket struct {
		sortKey int64
		label   string
		users   map[string]struct{}
		views   int
	}

	buckets := make(map[int64]*bucket)
	for _, e := range events {
		t := e.CreatedAt.UTC()
		var truncated time.Time
		var label string
		if fineGrained {
			truncated = t.Truncate(time.Hour)
			label = truncated.Format("15:04")
		} else {
			truncated = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			label = truncated.Format("02/01")
		}

		key := truncated.UnixMilli()
		b := buckets[key]
		if b == nil {
			b = &bucket{sortKey: key, label: label, users: make(map[string]struct{})}
			buckets[key] = b
		}
		b.views++
		if e.UserID != AnonUser {
			b.users[e.UserID] = struct{}{}
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].sortKey < ordered[j].sortKey })

	points := make([]ActivityPoint, len(ordered))
	for i, b := range ordered {
		points[i] = ActivityPoint{Name: b.label, Usuarios: len(b.users), Vistas: b.views}
	}
	return points
}

// buildTimeline keeps the trailing 24 hours of events, whatever window
// the caller selected, preserving the fetch order.
func buildTimeline(events []Event, premium map[string]struct{}, now time.Time) []TimelineEvent {
	threshold := now.Add(-24 * time.Hour)

	timeline := make([]TimelineEvent, 0)
	for _, e := range events {
		if e.CreatedAt.Before(threshold) {
			continue
		}

		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		details := e.UserID
		if details == AnonUser {
			details = anonDisplay
		}
		_, isPremium := premium[e.UserID]

		timeline = append(timeline, TimelineEvent{
			ID:      id,
			Type:    "page_view",
			Date:    e.CreatedAt.UTC().Format(time.RFC3339),
			Details: details,
			Meta:    e.Path,
			Premium: isPremium,
		})
	}
	return timeline
}
