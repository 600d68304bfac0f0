// Package supabase is a minimal PostgREST client covering what the
// admin dashboard needs: ordered selects with filters and limit/offset
// paging, exact row counts, and single-row inserts.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// Filter is a PostgREST column filter, e.g. {Column: "estado", Op: "eq", Value: "active"}.
type Filter struct {
	Column string
	Op     string
	Value  string
}

// Query describes a select against one table.
type Query struct {
	Table   string
	Select  string // column list, defaults to *
	Order   string // e.g. "ts.desc"
	Filters []Filter
	Limit   int
	Offset  int
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase url and anon key are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	logger.Info("Supabase client initialized",
		zap.String("url", cfg.URL),
		zap.Duration("timeout", timeout),
	)

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.AnonKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Select runs the query and returns one raw JSON document per row.
// Decoding into typed records is the caller's job.
func (c *Client) Select(ctx context.Context, q Query) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build select request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("select %s failed: %w", q.Table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("select %s: unexpected status %d: %s", q.Table, resp.StatusCode, body)
	}

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("select %s: failed to decode response: %w", q.Table, err)
	}

	c.logger.Debug("Rows selected",
		zap.String("table", q.Table),
		zap.Int("rows", len(rows)),
		zap.Int("offset", q.Offset),
	)

	return rows, nil
}

// Count returns the exact row count for the table under the given
// filters, without transferring rows (HEAD + Prefer: count=exact).
func (c *Client) Count(ctx context.Context, table string, filters ...Filter) (int64, error) {
	q := Query{Table: table, Select: "id", Filters: filters}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.queryURL(q), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build count request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("count %s failed: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent &&
		resp.StatusCode != http.StatusNoContent {
		return 0, fmt.Errorf("count %s: unexpected status %d", table, resp.StatusCode)
	}

	count, err := parseContentRangeTotal(resp.Header.Get("Content-Range"))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}

	return count, nil
}

// Insert writes one record into the table.
func (c *Client) Insert(ctx context.Context, table string, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	endpoint := c.baseURL + "/rest/v1/" + url.PathEscape(table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build insert request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("insert into %s failed: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("insert into %s: unexpected status %d: %s", table, resp.StatusCode, body)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) queryURL(q Query) string {
	values := url.Values{}

	sel := q.Select
	if sel == "" {
		sel = "*"
	}
	values.Set("select", sel)

	if q.Order != "" {
		values.Set("order", q.Order)
	}
	for _, f := range q.Filters {
		values.Set(f.Column, f.Op+"."+f.Value)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}

	return c.baseURL + "/rest/v1/" + url.PathEscape(q.Table) + "?" + values.Encode()
}

// InList quotes values for a PostgREST "in" filter, e.g. in.("/","/home","").
func InList(values ...string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "(" + strings.Join(quoted, ",") + ")"
}

// parseContentRangeTotal extracts the total from a Content-Range header
// shaped like "0-24/3573" or "*/0".
func parseContentRangeTotal(header string) (int64, error) {
	if header == "" {
		return 0, fmt.Errorf("missing Content-Range header")
	}
	idx := strings.LastIndex(header, "/")
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("malformed Content-Range header %q", header)
	}
	total := header[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("Content-Range total is unknown")
	}
	count, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range total %q", total)
	}
	return count, nil
}
