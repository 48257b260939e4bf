// Package redis provides the Redis client backend. Records are stored as
// hashes under "table:id" keys with a per-table sequence at "table:_seq" for
// generated ids. Field values round-trip through JSON so numbers and nested
// structures survive the string-only hash encoding.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

func init() {
	adapter.Register(dbcapabilities.Redis, NewClient)
}

// Client is a Redis adapter.Client.
type Client struct {
	id     string
	opts   *redis.Options
	config adapter.ConnectionConfig

	rdb   *redis.Client
	state int32
}

// NewClient validates config and returns an unconnected Redis client. The
// database number is carried in config.DatabaseName when set.
func NewClient(config adapter.ConnectionConfig) (adapter.Client, error) {
	if config.Host == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.Redis, "host", "host is required")
	}

	port := config.Port
	if port == 0 {
		port = 6379
	}
	db := 0
	if config.DatabaseName != "" {
		n, err := strconv.Atoi(config.DatabaseName)
		if err != nil {
			return nil, adapter.NewConfigurationError(dbcapabilities.Redis, "database_name", "must be a numeric database index")
		}
		db = n
	}

	id := config.Name
	if id == "" {
		id = uuid.NewString()
	}

	return &Client{
		id: id,
		opts: &redis.Options{
			Addr:     fmt.Sprintf("%s:%d", config.Host, port),
			Username: config.Username,
			Password: config.Password,
			DB:       db,
		},
		config: config,
	}, nil
}

func (c *Client) Type() dbcapabilities.DatabaseID  { return dbcapabilities.Redis }
func (c *Client) ID() string                       { return c.id }
func (c *Client) State() adapter.State             { return adapter.State(atomic.LoadInt32(&c.state)) }
func (c *Client) IsConnected() bool                { return c.State() == adapter.StateConnected }
func (c *Client) Config() adapter.ConnectionConfig { return c.config }

// Raw returns the underlying *redis.Client, or nil before Connect.
func (c *Client) Raw() any { return c.rdb }

// Connect establishes the connection and verifies it with a ping.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	rdb := redis.NewClient(c.opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(dbcapabilities.Redis, "connect", err)
	}

	c.rdb = rdb
	atomic.StoreInt32(&c.state, int32(adapter.StateConnected))
	lgr.Printf("DEBUG redis client %s connected", c.id)
	return nil
}

// Disconnect releases the connection. Safe on an already disconnected client.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.rdb == nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateDisconnected))
		return nil
	}

	err := c.rdb.Close()
	c.rdb = nil
	atomic.StoreInt32(&c.state, int32(adapter.StateDisconnected))
	if err != nil {
		return adapter.NewConnectionError(dbcapabilities.Redis, "disconnect", err)
	}
	return nil
}

// Ping probes the server.
func (c *Client) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return adapter.NewConnectionError(dbcapabilities.Redis, "ping", adapter.ErrNotConnected)
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(dbcapabilities.Redis, "ping", err)
	}
	return nil
}

func (c *Client) guard(operation string) error {
	if !c.IsConnected() {
		return adapter.NewConnectionError(dbcapabilities.Redis, operation, adapter.ErrNotConnected)
	}
	return nil
}

func recordKey(table string, id any) string { return fmt.Sprintf("%s:%v", table, id) }
func seqKey(table string) string            { return table + ":_seq" }
func patternKey(table string) string        { return table + ":*" }

// encodeField JSON-encodes a hash field value. Plain strings are stored
// verbatim so they stay readable from redis-cli.
func encodeField(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeField reverses encodeField. Anything that fails to parse as JSON is
// treated as a plain string.
func decodeField(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func encodeRecord(record adapter.Record) (map[string]string, error) {
	fields := make(map[string]string, len(record))
	for k, v := range record {
		s, err := encodeField(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = s
	}
	return fields, nil
}

func decodeRecord(fields map[string]string) adapter.Record {
	record := make(adapter.Record, len(fields))
	for k, v := range fields {
		record[k] = decodeField(v)
	}
	return record
}

// matches applies the equality condition to a decoded record. Values are
// compared through their string forms since hash storage erases Go types.
func matches(record adapter.Record, condition adapter.Condition) bool {
	for k, want := range condition {
		got, ok := record[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// Execute dispatches a raw Redis command, e.g. Execute(ctx, "SET", "k", "v").
// Args extend the command verb in statement.
func (c *Client) Execute(ctx context.Context, statement string, args ...any) (adapter.Result, error) {
	if err := c.guard("execute"); err != nil {
		return adapter.Result{}, err
	}

	cmdArgs := make([]any, 0, len(args)+1)
	cmdArgs = append(cmdArgs, statement)
	cmdArgs = append(cmdArgs, args...)

	val, err := c.rdb.Do(ctx, cmdArgs...).Result()
	if err != nil && err != redis.Nil {
		return adapter.Result{}, adapter.NewQueryError(dbcapabilities.Redis, "execute", "", err)
	}
	if err == redis.Nil {
		return adapter.Result{}, nil
	}
	return adapter.Result{Rows: []adapter.Record{{"result": val}}}, nil
}

// Insert stores one record as a hash. When the record carries no "id" field
// the per-table sequence allocates one.
func (c *Client) Insert(ctx context.Context, table string, record adapter.Record) (any, error) {
	if err := c.guard("insert"); err != nil {
		return nil, err
	}

	id, ok := record["id"]
	if !ok {
		seq, err := c.rdb.Incr(ctx, seqKey(table)).Result()
		if err != nil {
			return nil, adapter.NewQueryError(dbcapabilities.Redis, "insert", table, err)
		}
		id = seq
	}

	stored := make(adapter.Record, len(record)+1)
	for k, v := range record {
		stored[k] = v
	}
	stored["id"] = id

	fields, err := encodeRecord(stored)
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.Redis, "insert", table, err)
	}
	if err := c.rdb.HSet(ctx, recordKey(table, id), fields).Err(); err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.Redis, "insert", table, err)
	}
	return id, nil
}

// scan walks every record key of a table. The sequence key is skipped.
func (c *Client) scan(ctx context.Context, table string, visit func(key string, record adapter.Record) error) error {
	iter := c.rdb.Scan(ctx, 0, patternKey(table), 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if key == seqKey(table) {
			continue
		}
		fields, err := c.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			continue
		}
		if err := visit(key, decodeRecord(fields)); err != nil {
			return err
		}
	}
	return iter.Err()
}

// tableExists reports whether any key, record or sequence, lives under the
// table's prefix.
func (c *Client) tableExists(ctx context.Context, table string) (bool, error) {
	iter := c.rdb.Scan(ctx, 0, patternKey(table), 1).Iterator()
	if iter.Next(ctx) {
		return true, nil
	}
	return false, iter.Err()
}

// Update applies patch to every record matching condition.
func (c *Client) Update(ctx context.Context, table string, patch adapter.Record, condition adapter.Condition) (int64, error) {
	if err := c.guard("update"); err != nil {
		return 0, err
	}

	encoded, err := encodeRecord(patch)
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.Redis, "update", table, err)
	}

	var updated int64
	err = c.scan(ctx, table, func(key string, record adapter.Record) error {
		if !matches(record, condition) {
			return nil
		}
		if err := c.rdb.HSet(ctx, key, encoded).Err(); err != nil {
			return err
		}
		updated++
		return nil
	})
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.Redis, "update", table, err)
	}
	return updated, nil
}

// Delete removes every record matching condition.
func (c *Client) Delete(ctx context.Context, table string, condition adapter.Condition) (int64, error) {
	if err := c.guard("delete"); err != nil {
		return 0, err
	}

	var deleted int64
	err := c.scan(ctx, table, func(key string, record adapter.Record) error {
		if !matches(record, condition) {
			return nil
		}
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			return err
		}
		deleted++
		return nil
	})
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.Redis, "delete", table, err)
	}
	return deleted, nil
}

// Select returns records matching the options. A table with no keys at all
// fails with ErrTableNotFound, matching the SQL backends. Conditions
// carrying an "id" take the direct key path; everything else scans the
// table's key space. Field projection, ordering and paging are applied
// client side.
func (c *Client) Select(ctx context.Context, table string, opts adapter.SelectOptions) ([]adapter.Record, error) {
	if err := c.guard("select"); err != nil {
		return nil, err
	}

	ok, err := c.tableExists(ctx, table)
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.Redis, "select", table, err)
	}
	if !ok {
		return nil, adapter.NewQueryError(dbcapabilities.Redis, "select", table, adapter.ErrTableNotFound)
	}

	var records []adapter.Record
	if id, ok := opts.Condition["id"]; ok && len(opts.Condition) == 1 {
		fields, err := c.rdb.HGetAll(ctx, recordKey(table, id)).Result()
		if err != nil {
			return nil, adapter.NewQueryError(dbcapabilities.Redis, "select", table, err)
		}
		if len(fields) > 0 {
			records = append(records, decodeRecord(fields))
		}
	} else {
		err := c.scan(ctx, table, func(key string, record adapter.Record) error {
			if matches(record, opts.Condition) {
				records = append(records, record)
			}
			return nil
		})
		if err != nil {
			return nil, adapter.NewQueryError(dbcapabilities.Redis, "select", table, err)
		}
	}

	if len(opts.OrderBy) > 0 {
		sortRecords(records, opts.OrderBy)
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(records) {
			records = nil
		} else {
			records = records[opts.Offset:]
		}
	}
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	if len(opts.Fields) > 0 {
		for i, r := range records {
			projected := make(adapter.Record, len(opts.Fields))
			for _, f := range opts.Fields {
				if v, ok := r[f]; ok {
					projected[f] = v
				}
			}
			records[i] = projected
		}
	}
	if records == nil {
		records = []adapter.Record{}
	}
	return records, nil
}

// Count returns the number of records matching condition.
func (c *Client) Count(ctx context.Context, table string, condition adapter.Condition) (int64, error) {
	if err := c.guard("count"); err != nil {
		return 0, err
	}

	var n int64
	err := c.scan(ctx, table, func(key string, record adapter.Record) error {
		if matches(record, condition) {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.Redis, "count", table, err)
	}
	return n, nil
}

// Exists reports whether at least one record matches condition.
func (c *Client) Exists(ctx context.Context, table string, condition adapter.Condition) (bool, error) {
	n, err := c.Count(ctx, table, condition)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
