// Package supabase provides the Supabase client backend over the PostgREST
// HTTP API. Every typed operation maps to a /rest/v1/{table} request with
// eq. filters; there is no session, so Connect only verifies reachability.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

func init() {
	adapter.Register(dbcapabilities.Supabase, NewClient)
}

// Client is a Supabase adapter.Client.
type Client struct {
	id      string
	baseURL string
	apiKey  string
	config  adapter.ConnectionConfig

	httpc *http.Client
	state int32
}

// NewClient validates config and returns an unconnected Supabase client.
func NewClient(config adapter.ConnectionConfig) (adapter.Client, error) {
	if config.URL == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.Supabase, "url", "project url is required")
	}
	if config.APIKey == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.Supabase, "api_key", "api key is required")
	}

	id := config.Name
	if id == "" {
		id = uuid.NewString()
	}

	return &Client{
		id:      id,
		baseURL: strings.TrimRight(config.URL, "/"),
		apiKey:  config.APIKey,
		config:  config,
	}, nil
}

func (c *Client) Type() dbcapabilities.DatabaseID  { return dbcapabilities.Supabase }
func (c *Client) ID() string                       { return c.id }
func (c *Client) State() adapter.State             { return adapter.State(atomic.LoadInt32(&c.state)) }
func (c *Client) IsConnected() bool                { return c.State() == adapter.StateConnected }
func (c *Client) Config() adapter.ConnectionConfig { return c.config }

// Raw returns the underlying *http.Client, or nil before Connect.
func (c *Client) Raw() any { return c.httpc }

// Connect verifies the REST endpoint answers with the configured key.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	httpc := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(dbcapabilities.Supabase, "connect", err)
	}
	c.authorize(req)

	resp, err := httpc.Do(req)
	if err != nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(dbcapabilities.Supabase, "connect", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(dbcapabilities.Supabase, "connect",
			fmt.Errorf("endpoint rejected api key: %s", resp.Status))
	}

	c.httpc = httpc
	atomic.StoreInt32(&c.state, int32(adapter.StateConnected))
	lgr.Printf("DEBUG supabase client %s connected", c.id)
	return nil
}

// Disconnect drops the HTTP client. Safe on an already disconnected client.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.httpc != nil {
		c.httpc.CloseIdleConnections()
		c.httpc = nil
	}
	atomic.StoreInt32(&c.state, int32(adapter.StateDisconnected))
	return nil
}

// Ping re-probes the REST endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return adapter.NewConnectionError(dbcapabilities.Supabase, "ping", adapter.ErrNotConnected)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return adapter.NewConnectionError(dbcapabilities.Supabase, "ping", err)
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(dbcapabilities.Supabase, "ping", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) guard(operation string) error {
	if !c.IsConnected() {
		return adapter.NewConnectionError(dbcapabilities.Supabase, operation, adapter.ErrNotConnected)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// tableURL builds the PostgREST URL for a table with eq. filters from the
// condition. Keys are sorted so requests are deterministic.
func (c *Client) tableURL(table string, condition adapter.Condition, extra url.Values) string {
	q := url.Values{}
	keys := make([]string, 0, len(condition))
	for k := range condition {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, fmt.Sprintf("eq.%v", condition[k]))
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u := c.baseURL + "/rest/v1/" + table
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// do issues a PostgREST request and decodes the JSON array response. A nil
// body is allowed for GET and DELETE.
func (c *Client) do(ctx context.Context, method, rawURL string, body any, prefer string) ([]adapter.Record, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", adapter.ErrTableNotFound, strings.TrimSpace(string(data)))
		}
		return nil, fmt.Errorf("postgrest %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []adapter.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return records, nil
}

// Execute is not supported: PostgREST exposes no textual statement endpoint.
func (c *Client) Execute(ctx context.Context, statement string, args ...any) (adapter.Result, error) {
	return adapter.Result{}, adapter.NewQueryError(dbcapabilities.Supabase, "execute", "", adapter.ErrOperationNotSupported)
}

// Insert stores one row and returns its id when the representation carries
// one.
func (c *Client) Insert(ctx context.Context, table string, record adapter.Record) (any, error) {
	if err := c.guard("insert"); err != nil {
		return nil, err
	}

	rows, err := c.do(ctx, http.MethodPost, c.tableURL(table, nil, nil), record, "return=representation")
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.Supabase, "insert", table, err)
	}
	if len(rows) > 0 {
		if id, ok := rows[0]["id"]; ok {
			return id, nil
		}
	}
	return nil, nil
}

// InsertMany stores all rows in one request; PostgREST takes an array body.
// The returned ids follow input order and are nil for rows whose
// representation carries no id column.
func (c *Client) InsertMany(ctx context.Context, table string, records []adapter.Record) ([]any, error) {
	if err := c.guard("insert_many"); err != nil {
		return nil, err
	}

	rows, err := c.do(ctx, http.MethodPost, c.tableURL(table, nil, nil), records, "return=representation")
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.Supabase, "insert_many", table, err)
	}
	ids := make([]any, len(rows))
	for i, row := range rows {
		ids[i] = row["id"]
	}
	return ids, nil
}

// Update applies patch to every row matching condition.
func (c *Client) Update(ctx context.Context, table string, patch adapter.Record, condition adapter.Condition) (int64, error) {
	if err := c.guard("update"); err != nil {
		return 0, err
	}

	rows, err := c.do(ctx, http.MethodPatch, c.tableURL(table, condition, nil), patch, "return=representation")
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.Supabase, "update", table, err)
	}
	return int64(len(rows)), nil
}

// Delete removes every row matching condition.
func (c *Client) Delete(ctx context.Context, table string, condition adapter.Condition) (int64, error) {
	if err := c.guard("delete"); err != nil {
		return 0, err
	}

	rows, err := c.do(ctx, http.MethodDelete, c.tableURL(table, condition, nil), nil, "return=representation")
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.Supabase, "delete", table, err)
	}
	return int64(len(rows)), nil
}

// Select returns rows matching the options.
func (c *Client) Select(ctx context.Context, table string, opts adapter.SelectOptions) ([]adapter.Record, error) {
	if err := c.guard("select"); err != nil {
		return nil, err
	}

	extra := url.Values{}
	if len(opts.Fields) > 0 {
		extra.Set("select", strings.Join(opts.Fields, ","))
	}
	if len(opts.OrderBy) > 0 {
		parts := make([]string, 0, len(opts.OrderBy))
		for _, ob := range opts.OrderBy {
			dir := "asc"
			if ob.Desc {
				dir = "desc"
			}
			parts = append(parts, ob.Field+"."+dir)
		}
		extra.Set("order", strings.Join(parts, ","))
	}
	if opts.Limit > 0 {
		extra.Set("limit", fmt.Sprint(opts.Limit))
	}
	if opts.Offset > 0 {
		extra.Set("offset", fmt.Sprint(opts.Offset))
	}

	rows, err := c.do(ctx, http.MethodGet, c.tableURL(table, opts.Condition, extra), nil, "")
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.Supabase, "select", table, err)
	}
	if rows == nil {
		rows = []adapter.Record{}
	}
	return rows, nil
}

// Count returns the number of rows matching condition using a head request
// with an exact count preference.
func (c *Client) Count(ctx context.Context, table string, condition adapter.Condition) (int64, error) {
	if err := c.guard("count"); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.tableURL(table, condition, nil), nil)
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.Supabase, "count", table, err)
	}
	c.authorize(req)
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.Supabase, "count", table, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return 0, adapter.NewQueryError(dbcapabilities.Supabase, "count", table,
			fmt.Errorf("postgrest %s", resp.Status))
	}

	// Content-Range is "0-24/3573"; the total follows the slash.
	cr := resp.Header.Get("Content-Range")
	if idx := strings.LastIndex(cr, "/"); idx >= 0 {
		var n int64
		if _, err := fmt.Sscan(cr[idx+1:], &n); err == nil {
			return n, nil
		}
	}
	return 0, adapter.NewQueryError(dbcapabilities.Supabase, "count", table,
		fmt.Errorf("unparseable content range %q", cr))
}

// Exists reports whether at least one row matches condition.
func (c *Client) Exists(ctx context.Context, table string, condition adapter.Condition) (bool, error) {
	n, err := c.Count(ctx, table, condition)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
