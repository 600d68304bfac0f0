package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeProducer struct {
	SendMessageFn func(ctx context.Context, key string, value any) error
}

func (f *fakeProducer) SendMessage(ctx context.Context, key string, value any) error {
	if f.SendMessageFn != nil {
		return f.SendMessageFn(ctx, key, value)
	}
	return nil
}

type fakeWriter struct {
	InsertEventFn func(ctx context.Context, page, chapa string, ts time.Time) error
}

func (f *fakeWriter) InsertEvent(ctx context.Context, page, chapa string, ts time.Time) error {
	if f.InsertEventFn != nil {
		return f.InsertEventFn(ctx, page, chapa, ts)
	}
	return nil
}

func TestNewPageView(t *testing.T) {
	view := NewPageView("/docs", "  A7  ", nil)
	if view.ID == "" {
		t.Fatal("expected a generated id")
	}
	if view.Chapa != "A7" {
		t.Fatalf("expected trimmed chapa, got %q", view.Chapa)
	}
	if view.TS.IsZero() {
		t.Fatal("expected a default timestamp")
	}

	at := time.Date(2026, 8, 29, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	view = NewPageView("/", "", &at)
	if !view.TS.Equal(at) || view.TS.Location() != time.UTC {
		t.Fatalf("expected explicit timestamp in UTC, got %v", view.TS)
	}
}

func TestPageView_Validate(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		view PageView
		want error
	}{
		{name: "valid", view: PageView{Page: "/", TS: now}},
		{name: "empty page", view: PageView{TS: now}, want: ErrInvalidPage},
		{name: "relative page", view: PageView{Page: "docs", TS: now}, want: ErrInvalidPage},
		{name: "zero timestamp", view: PageView{Page: "/"}, want: ErrInvalidTimestamp},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.view.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPageView_PartitionKey(t *testing.T) {
	if got := (&PageView{Chapa: "A7"}).PartitionKey(); got != "A7" {
		t.Fatalf("expected A7, got %q", got)
	}
	if got := (&PageView{}).PartitionKey(); got != "anon" {
		t.Fatalf("expected anon, got %q", got)
	}
}

func TestTrackPageView_Publishes(t *testing.T) {
	var gotKey string
	producer := &fakeProducer{
		SendMessageFn: func(_ context.Context, key string, value any) error {
			gotKey = key
			if _, ok := value.(*PageView); !ok {
				t.Errorf("expected *PageView payload, got %T", value)
			}
			return nil
		},
	}

	svc := NewService(producer, nil, zap.NewNop())
	view := NewPageView("/docs", "A7", nil)
	if err := svc.TrackPageView(context.Background(), view); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "A7" {
		t.Fatalf("expected partition key A7, got %q", gotKey)
	}
}

func TestTrackPageView_RejectsInvalid(t *testing.T) {
	published := false
	producer := &fakeProducer{
		SendMessageFn: func(context.Context, string, any) error {
			published = true
			return nil
		},
	}

	svc := NewService(producer, nil, zap.NewNop())
	err := svc.TrackPageView(context.Background(), NewPageView("docs", "", nil))
	if !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
	if published {
		t.Fatal("invalid views must never reach the producer")
	}
}

func TestTrackPageView_ProducerFailure(t *testing.T) {
	producer := &fakeProducer{
		SendMessageFn: func(context.Context, string, any) error {
			return errors.New("broker unavailable")
		},
	}

	svc := NewService(producer, nil, zap.NewNop())
	if err := svc.TrackPageView(context.Background(), NewPageView("/", "", nil)); err == nil {
		t.Fatal("expected producer failure to propagate")
	}
}

func TestMessageHandler_PersistsValidView(t *testing.T) {
	var gotPage, gotChapa string
	writer := &fakeWriter{
		InsertEventFn: func(_ context.Context, page, chapa string, _ time.Time) error {
			gotPage, gotChapa = page, chapa
			return nil
		},
	}

	svc := NewService(nil, writer, zap.NewNop())
	handler := svc.CreateMessageHandler()

	payload, _ := json.Marshal(NewPageView("/docs", "A7", nil))
	if err := handler(context.Background(), []byte("A7"), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPage != "/docs" || gotChapa != "A7" {
		t.Fatalf("unexpected insert: page=%q chapa=%q", gotPage, gotChapa)
	}
}

func TestMessageHandler_SkipsMalformedMessage(t *testing.T) {
	inserted := false
	writer := &fakeWriter{
		InsertEventFn: func(context.Context, string, string, time.Time) error {
			inserted = true
			return nil
		},
	}

	svc := NewService(nil, writer, zap.NewNop())
	handler := svc.CreateMessageHandler()

	// A poison message must be dropped without an error so the
	// partition keeps moving.
	if err := handler(context.Background(), []byte("A7"), []byte("{not json")); err != nil {
		t.Fatalf("malformed messages must not return an error: %v", err)
	}
	if inserted {
		t.Fatal("malformed messages must not be persisted")
	}

	payload, _ := json.Marshal(&PageView{ID: "x", Page: "docs", TS: time.Now()})
	if err := handler(context.Background(), []byte("A7"), payload); err != nil {
		t.Fatalf("invalid views must be skipped, not retried: %v", err)
	}
	if inserted {
		t.Fatal("invalid views must not be persisted")
	}
}

func TestMessageHandler_InsertFailurePropagates(t *testing.T) {
	writer := &fakeWriter{
		InsertEventFn: func(context.Context, string, string, time.Time) error {
			return errors.New("connection reset")
		},
	}

	svc := NewService(nil, writer, zap.NewNop())
	handler := svc.CreateMessageHandler()

	payload, _ := json.Marshal(NewPageView("/", "", nil))
	if err := handler(context.Background(), []byte("anon"), payload); err == nil {
		t.Fatal("insert failures must surface to the consumer loop")
	}
}
