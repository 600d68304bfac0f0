package analytics

import (
	"time"
)

// AnonUser marks events that carry no resolvable chapa.
const AnonUser = "anon"

// Window is the caller-selected reporting period.
type Window string

const (
	WindowDay     Window = "1d"
	Window3Days   Window = "3d"
	WindowWeek    Window = "7d"
	WindowMonth   Window = "30d"
	WindowAllTime Window = "all"
)

// ParseWindow validates a range string coming off the query string.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case WindowDay, Window3Days, WindowWeek, WindowMonth, WindowAllTime:
		return Window(s), nil
	}
	return "", ErrInvalidWindow
}

// Since returns the window's lower time bound, nil for all time.
func (w Window) Since(now time.Time) *time.Time {
	var days int
	switch w {
	case WindowDay:
		days = 1
	case Window3Days:
		days = 3
	case WindowWeek:
		days = 7
	case WindowMonth:
		days = 30
	default:
		return nil
	}
	t := now.AddDate(0, 0, -days)
	return &t
}

// FineGrained reports whether the activity series buckets by hour
// instead of by day.
func (w Window) FineGrained() bool {
	return w == WindowDay
}

// Event is a cleaned page event. Rows without a resolvable timestamp
// never make it this far.
type Event struct {
	ID        string
	Path      string
	UserID    string
	CreatedAt time.Time
}

// PageCount is one entry of the page ranking.
type PageCount struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// UserCount is one entry of the top-user ranking.
type UserCount struct {
	Name    string `json:"name"`
	Value   int64  `json:"value"`
	Premium bool   `json:"premium"`
}

// ActivityPoint is one bucket of the activity series. Field names match
// what the dashboard charts already bind to.
type ActivityPoint struct {
	Name     string `json:"name"`
	Usuarios int    `json:"usuarios"`
	Vistas   int    `json:"vistas"`
}

// TimelineEvent is one row of the last-24h activity feed.
type TimelineEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Date    string `json:"date"`
	Details string `json:"details"`
	Meta    string `json:"meta,omitempty"`
	Premium bool   `json:"premium"`
}

// KPI carries the dashboard headline numbers.
type KPI struct {
	TotalUsers      int64   `json:"totalUsers"`
	PremiumUsers    int64   `json:"premiumUsers"`
	UniqueUsers     int64   `json:"monthlyActiveUsers"`
	TotalViews      int64   `json:"totalViews"`
	PeakHourlyUsers int64   `json:"peakHourlyUsers"`
	PeakHourlyViews int64   `json:"peakHourlyViews"`
	AvgHourlyUsers  float64 `json:"avgHourlyUsers"`
}

// DashboardData is the full payload for one window selection.
type DashboardData struct {
	KPI            KPI             `json:"kpi"`
	TopPages       []PageCount     `json:"topPages"`
	TopUsers       []UserCount     `json:"topUsers"`
	ActivityData   []ActivityPoint `json:"activityData"`
	TimelineEvents []TimelineEvent `json:"timelineEvents"`
}
