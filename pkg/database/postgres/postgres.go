// Package postgres provides the PostgreSQL client backend on pgx.
package postgres

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/database/sqlutil"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

func init() {
	adapter.Register(dbcapabilities.PostgreSQL, NewClient)
}

// Client is a PostgreSQL adapter.Client over a single pgx connection.
type Client struct {
	id     string
	dsn    string
	config adapter.ConnectionConfig

	conn  *pgx.Conn
	state int32
}

// NewClient validates config and returns an unconnected PostgreSQL client.
func NewClient(config adapter.ConnectionConfig) (adapter.Client, error) {
	if config.Host == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.PostgreSQL, "host", "host is required")
	}
	if config.Username == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.PostgreSQL, "username", "username is required")
	}
	if config.DatabaseName == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.PostgreSQL, "database_name", "database name is required")
	}

	port := config.Port
	if port == 0 {
		port = 5432
	}
	sslMode := config.SSLMode
	if sslMode == "" {
		if config.SSL {
			sslMode = "require"
		} else {
			sslMode = "prefer"
		}
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		config.Username, config.Password, config.Host, port, config.DatabaseName, sslMode)

	id := config.Name
	if id == "" {
		id = uuid.NewString()
	}

	return &Client{id: id, dsn: dsn, config: config}, nil
}

func (c *Client) Type() dbcapabilities.DatabaseID  { return dbcapabilities.PostgreSQL }
func (c *Client) ID() string                       { return c.id }
func (c *Client) State() adapter.State             { return adapter.State(atomic.LoadInt32(&c.state)) }
func (c *Client) IsConnected() bool                { return c.State() == adapter.StateConnected }
func (c *Client) Config() adapter.ConnectionConfig { return c.config }

// Raw returns the underlying *pgx.Conn, or nil before Connect.
func (c *Client) Raw() any { return c.conn }

// Connect establishes the session. Idempotent when already connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	conn, err := pgx.Connect(ctx, c.dsn)
	if err != nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(dbcapabilities.PostgreSQL, "connect", err)
	}

	c.conn = conn
	atomic.StoreInt32(&c.state, int32(adapter.StateConnected))
	lgr.Printf("DEBUG postgres client %s connected", c.id)
	return nil
}

// Disconnect closes the session. Safe on an already disconnected client.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.conn == nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateDisconnected))
		return nil
	}

	err := c.conn.Close(ctx)
	c.conn = nil
	atomic.StoreInt32(&c.state, int32(adapter.StateDisconnected))
	if err != nil {
		return adapter.NewConnectionError(dbcapabilities.PostgreSQL, "disconnect", err)
	}
	return nil
}

// Ping probes the session.
func (c *Client) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return adapter.NewConnectionError(dbcapabilities.PostgreSQL, "ping", adapter.ErrNotConnected)
	}
	if err := c.conn.Ping(ctx); err != nil {
		c.markFailed()
		return adapter.NewConnectionError(dbcapabilities.PostgreSQL, "ping", err)
	}
	return nil
}

func (c *Client) guard(operation string) error {
	if !c.IsConnected() {
		return adapter.NewConnectionError(dbcapabilities.PostgreSQL, operation, adapter.ErrNotConnected)
	}
	return nil
}

func (c *Client) markFailed() {
	if c.conn != nil && c.conn.IsClosed() {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
	}
}

// scanRows drains pgx rows into generic records.
func scanRows(rows pgx.Rows) ([]adapter.Record, error) {
	fields := rows.FieldDescriptions()
	records := []adapter.Record{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		record := make(adapter.Record, len(fields))
		for i, fd := range fields {
			record[fd.Name] = values[i]
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Execute runs a native SQL statement with $n placeholders.
func (c *Client) Execute(ctx context.Context, statement string, args ...any) (adapter.Result, error) {
	if err := c.guard("execute"); err != nil {
		return adapter.Result{}, err
	}

	if sqlutil.IsSelect(statement) {
		rows, err := c.conn.Query(ctx, statement, args...)
		if err != nil {
			c.markFailed()
			return adapter.Result{}, adapter.NewQueryError(dbcapabilities.PostgreSQL, "execute", "", err)
		}
		defer rows.Close()

		records, err := scanRows(rows)
		if err != nil {
			return adapter.Result{}, adapter.NewQueryError(dbcapabilities.PostgreSQL, "execute", "", err)
		}
		return adapter.Result{Rows: records}, nil
	}

	tag, err := c.conn.Exec(ctx, statement, args...)
	if err != nil {
		c.markFailed()
		return adapter.Result{}, adapter.NewQueryError(dbcapabilities.PostgreSQL, "execute", "", err)
	}
	return adapter.Result{RowsAffected: tag.RowsAffected()}, nil
}

// Insert stores one record and returns the generated id. The table must have
// an "id" column for the RETURNING clause; tables without one should be
// written to through Execute.
func (c *Client) Insert(ctx context.Context, table string, record adapter.Record) (any, error) {
	if err := c.guard("insert"); err != nil {
		return nil, err
	}

	query, args := sqlutil.BuildInsert(sqlutil.Dollar, table, record)
	query += " RETURNING id"

	var id any
	if err := c.conn.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		c.markFailed()
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "insert", table, err)
	}
	return id, nil
}

// Update applies patch to every row matching condition.
func (c *Client) Update(ctx context.Context, table string, patch adapter.Record, condition adapter.Condition) (int64, error) {
	if err := c.guard("update"); err != nil {
		return 0, err
	}

	query, args := sqlutil.BuildUpdate(sqlutil.Dollar, table, patch, condition)
	tag, err := c.conn.Exec(ctx, query, args...)
	if err != nil {
		c.markFailed()
		return 0, adapter.NewQueryError(dbcapabilities.PostgreSQL, "update", table, err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes every row matching condition.
func (c *Client) Delete(ctx context.Context, table string, condition adapter.Condition) (int64, error) {
	if err := c.guard("delete"); err != nil {
		return 0, err
	}

	query, args := sqlutil.BuildDelete(sqlutil.Dollar, table, condition)
	tag, err := c.conn.Exec(ctx, query, args...)
	if err != nil {
		c.markFailed()
		return 0, adapter.NewQueryError(dbcapabilities.PostgreSQL, "delete", table, err)
	}
	return tag.RowsAffected(), nil
}

// Select returns rows matching the options.
func (c *Client) Select(ctx context.Context, table string, opts adapter.SelectOptions) ([]adapter.Record, error) {
	if err := c.guard("select"); err != nil {
		return nil, err
	}

	query, args := sqlutil.BuildSelect(sqlutil.Dollar, table, opts)
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		c.markFailed()
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "select", table, err)
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.PostgreSQL, "select", table, err)
	}
	return records, nil
}

// Count returns the number of rows matching condition.
func (c *Client) Count(ctx context.Context, table string, condition adapter.Condition) (int64, error) {
	if err := c.guard("count"); err != nil {
		return 0, err
	}

	query, args := sqlutil.BuildCount(sqlutil.Dollar, table, condition)
	var n int64
	if err := c.conn.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		c.markFailed()
		return 0, adapter.NewQueryError(dbcapabilities.PostgreSQL, "count", table, err)
	}
	return n, nil
}

// Exists reports whether at least one row matches condition.
func (c *Client) Exists(ctx context.Context, table string, condition adapter.Condition) (bool, error) {
	n, err := c.Count(ctx, table, condition)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
