package store

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func TestIdent_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    Ident
		wantErr bool
	}{
		{name: "string", input: `"A7"`, want: "A7"},
		{name: "integer", input: `1234`, want: "1234"},
		{name: "decimal", input: `12.5`, want: "12.5"},
		{name: "null", input: `null`, want: ""},
		{name: "empty string", input: `""`, want: ""},
		{name: "object", input: `{"x":1}`, wantErr: true},
		{name: "array", input: `[1]`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got Ident
			err := json.Unmarshal([]byte(tc.input), &got)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDecodeRows_DropsMalformedRows(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"id": 1, "page": "/", "chapa": "A7", "ts": "2026-08-01T10:00:00Z"}`),
		json.RawMessage(`{"id": {"nested": true}}`),
		json.RawMessage(`"not an object"`),
		json.RawMessage(`{"id": "2", "page": "/docs", "chapa": 42}`),
	}

	rows := DecodeRows[EventRow](raw, "page_events", zap.NewNop())
	if len(rows) != 2 {
		t.Fatalf("expected 2 decoded rows, got %d", len(rows))
	}

	if rows[0].ID != "1" || rows[0].Chapa != "A7" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].ID != "2" || rows[1].Chapa != "42" {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestDecodeRows_NullColumns(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"id": 7, "page": null, "chapa": null, "ts": null}`),
	}

	rows := DecodeRows[EventRow](raw, "page_events", zap.NewNop())
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Page != "" || rows[0].Chapa != "" || rows[0].TS != "" {
		t.Fatalf("null columns should decode to empty strings: %+v", rows[0])
	}
}
