package analytics

import (
	"strings"
	"time"

	"github.com/portal-estiba/admin-api/internal/store"
)

// timestampLayouts covers what the portal has written into page_events
// over time: RFC3339 from the web client, Postgres text timestamps from
// the direct backend.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeEvent maps a raw row into an Event. The timestamp resolves
// from the first parseable of ts, created_at, inserted_at; a row with
// none of them is dropped outright rather than zero-filled.
func normalizeEvent(row store.EventRow) (Event, bool) {
	var createdAt time.Time
	var ok bool
	for _, candidate := range []string{row.TS, row.CreatedAt, row.InsertedAt} {
		if createdAt, ok = parseTimestamp(candidate); ok {
			break
		}
	}
	if !ok {
		return Event{}, false
	}

	path := row.Page
	if path == "" {
		path = "/"
	}

	return Event{
		ID:        string(row.ID),
		Path:      path,
		UserID:    normalizeUserID(string(row.Chapa)),
		CreatedAt: createdAt,
	}, true
}

func normalizeEvents(rows []store.EventRow) []Event {
	events := make([]Event, 0, len(rows))
	for _, row := range rows {
		if event, ok := normalizeEvent(row); ok {
			events = append(events, event)
		}
	}
	return events
}

// normalizeUserID coerces a chapa to its canonical form; empty and the
// literal "anon" both mean anonymous.
func normalizeUserID(chapa string) string {
	if chapa == "" || chapa == AnonUser {
		return AnonUser
	}
	return chapa
}

// canonicalPath strips any query-string suffix and folds the home-page
// variants (/home, empty) into "/".
func canonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "/home" || path == "" {
		path = "/"
	}
	return path
}
