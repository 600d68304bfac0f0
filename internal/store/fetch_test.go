package store

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// pagedSource serves pages out of a fixed slice, like an ordered table
// scan would.
type pagedSource struct {
	rows  []int
	calls int
	// failAt makes the n-th call (1-based) fail.
	failAt int
}

func (p *pagedSource) page(_ context.Context, limit, offset int) ([]int, error) {
	p.calls++
	if p.failAt > 0 && p.calls == p.failAt {
		return nil, errors.New("connection reset")
	}
	if offset >= len(p.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(p.rows) {
		end = len(p.rows)
	}
	return p.rows[offset:end], nil
}

func makeRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func TestFetchAll_StopsOnShortPage(t *testing.T) {
	src := &pagedSource{rows: makeRows(25)}

	got, err := FetchAll(context.Background(), 10, 0, "events", zap.NewNop(), src.page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 25 {
		t.Fatalf("expected 25 rows, got %d", len(got))
	}
	// The final short page (5 rows) terminates the loop.
	if src.calls != 3 {
		t.Fatalf("expected 3 page calls, got %d", src.calls)
	}
}

func TestFetchAll_ExactMultipleNeedsEmptyPage(t *testing.T) {
	src := &pagedSource{rows: makeRows(20)}

	got, err := FetchAll(context.Background(), 10, 0, "events", zap.NewNop(), src.page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(got))
	}
	// Row count is a multiple of the page size, so exhaustion only
	// shows up as an empty third page.
	if src.calls != 3 {
		t.Fatalf("expected 3 page calls, got %d", src.calls)
	}
}

func TestFetchAll_PartialResultOnPageError(t *testing.T) {
	src := &pagedSource{rows: makeRows(30), failAt: 2}

	got, err := FetchAll(context.Background(), 10, 0, "events", zap.NewNop(), src.page)
	if err == nil {
		t.Fatal("expected the page error to surface")
	}
	if len(got) != 10 {
		t.Fatalf("expected the 10 rows gathered before the failure, got %d", len(got))
	}
}

func TestFetchAll_RespectsRowCap(t *testing.T) {
	src := &pagedSource{rows: makeRows(100)}

	got, err := FetchAll(context.Background(), 10, 15, "events", zap.NewNop(), src.page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The cap check runs after appending a whole page.
	if len(got) != 20 {
		t.Fatalf("expected 20 rows under a cap of 15, got %d", len(got))
	}
	if src.calls != 2 {
		t.Fatalf("expected 2 page calls, got %d", src.calls)
	}
}

func TestFetchAll_EmptyTable(t *testing.T) {
	src := &pagedSource{}

	got, err := FetchAll(context.Background(), 10, 0, "events", zap.NewNop(), src.page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
	if src.calls != 1 {
		t.Fatalf("expected a single page call, got %d", src.calls)
	}
}
