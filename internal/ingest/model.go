package ingest

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PageView is the tracking payload published to Kafka and later written
// into page_events.
type PageView struct {
	ID    string    `json:"id"`
	Page  string    `json:"page"`
	Chapa string    `json:"chapa,omitempty"`
	TS    time.Time `json:"ts"`
}

func NewPageView(page, chapa string, ts *time.Time) *PageView {
	at := time.Now().UTC()
	if ts != nil && !ts.IsZero() {
		at = ts.UTC()
	}

	return &PageView{
		ID:    uuid.NewString(),
		Page:  page,
		Chapa: strings.TrimSpace(chapa),
		TS:    at,
	}
}

func (p *PageView) Validate() error {
	if p.Page == "" || !strings.HasPrefix(p.Page, "/") {
		return ErrInvalidPage
	}
	if p.TS.IsZero() {
		return ErrInvalidTimestamp
	}
	return nil
}

// PartitionKey keeps one user's views in a single partition so their
// order survives the trip through Kafka.
func (p *PageView) PartitionKey() string {
	if p.Chapa == "" {
		return "anon"
	}
	return p.Chapa
}
