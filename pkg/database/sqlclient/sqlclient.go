// Package sqlclient implements the adapter.Client contract on top of
// database/sql for backends whose driver registers with the standard library
// (MySQL, SQLite). The client pins a single *sql.Conn for its whole lifetime
// so session state such as BEGIN/SAVEPOINT issued through Execute stays on
// one backend session, matching the one-connection-per-client resource model.
package sqlclient

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync/atomic"

	"github.com/go-pkgz/lgr"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/database/sqlutil"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

// Client is a database/sql backed adapter.Client.
type Client struct {
	id         string
	dbType     dbcapabilities.DatabaseID
	driverName string
	dsn        string
	style      sqlutil.Style
	config     adapter.ConnectionConfig

	db    *sql.DB
	conn  *sql.Conn
	state int32
}

// New builds an unconnected client. The DSN is assembled by the backend
// package; this layer never inspects it.
func New(id string, dbType dbcapabilities.DatabaseID, driverName, dsn string, style sqlutil.Style, config adapter.ConnectionConfig) *Client {
	return &Client{
		id:         id,
		dbType:     dbType,
		driverName: driverName,
		dsn:        dsn,
		style:      style,
		config:     config,
	}
}

// Type returns the canonical database type identifier.
func (c *Client) Type() dbcapabilities.DatabaseID { return c.dbType }

// ID returns the client instance identifier.
func (c *Client) ID() string { return c.id }

// State returns the current connection state.
func (c *Client) State() adapter.State { return adapter.State(atomic.LoadInt32(&c.state)) }

// IsConnected is a pure state read.
func (c *Client) IsConnected() bool { return c.State() == adapter.StateConnected }

// Config returns the construction config.
func (c *Client) Config() adapter.ConnectionConfig { return c.config }

// Raw returns the pinned *sql.Conn, or nil before Connect.
func (c *Client) Raw() any { return c.conn }

// Connect opens the database and pins one connection. Idempotent when
// already connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	db, err := sql.Open(c.driverName, c.dsn)
	if err != nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(c.dbType, "connect", err)
	}
	// The client owns exactly one backend session.
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(c.dbType, "connect", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(c.dbType, "connect", err)
	}

	c.db = db
	c.conn = conn
	atomic.StoreInt32(&c.state, int32(adapter.StateConnected))
	lgr.Printf("DEBUG %s client %s connected", c.dbType, c.id)
	return nil
}

// Disconnect releases the session. Safe on an already disconnected client.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.db == nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateDisconnected))
		return nil
	}

	var errs []error
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, err)
		}
		c.conn = nil
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, err)
	}
	c.db = nil
	atomic.StoreInt32(&c.state, int32(adapter.StateDisconnected))

	if len(errs) > 0 {
		return adapter.NewConnectionError(c.dbType, "disconnect", errors.Join(errs...))
	}
	lgr.Printf("DEBUG %s client %s disconnected", c.dbType, c.id)
	return nil
}

// Ping probes the pinned connection.
func (c *Client) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return adapter.NewConnectionError(c.dbType, "ping", adapter.ErrNotConnected)
	}
	if err := c.conn.PingContext(ctx); err != nil {
		c.markFailed(err)
		return adapter.NewConnectionError(c.dbType, "ping", err)
	}
	return nil
}

// guard rejects operations while the client is not connected.
func (c *Client) guard(operation string) error {
	if !c.IsConnected() {
		return adapter.NewConnectionError(c.dbType, operation, adapter.ErrNotConnected)
	}
	return nil
}

// markFailed moves the client to the failed state on unrecoverable
// connection-level errors.
func (c *Client) markFailed(err error) {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
	}
}

// Execute runs a native SQL statement. Statements that produce rows return
// them; everything else returns the affected-row count.
func (c *Client) Execute(ctx context.Context, statement string, args ...any) (adapter.Result, error) {
	if err := c.guard("execute"); err != nil {
		return adapter.Result{}, err
	}

	if sqlutil.IsSelect(statement) {
		rows, err := c.conn.QueryContext(ctx, statement, args...)
		if err != nil {
			c.markFailed(err)
			return adapter.Result{}, adapter.NewQueryError(c.dbType, "execute", "", err)
		}
		defer rows.Close()

		records, err := sqlutil.ScanRows(rows)
		if err != nil {
			return adapter.Result{}, adapter.NewQueryError(c.dbType, "execute", "", err)
		}
		return adapter.Result{Rows: records}, nil
	}

	res, err := c.conn.ExecContext(ctx, statement, args...)
	if err != nil {
		c.markFailed(err)
		return adapter.Result{}, adapter.NewQueryError(c.dbType, "execute", "", err)
	}
	affected, _ := res.RowsAffected()
	return adapter.Result{RowsAffected: affected}, nil
}

// Insert stores one record and returns the driver's auto-generated id.
func (c *Client) Insert(ctx context.Context, table string, record adapter.Record) (any, error) {
	if err := c.guard("insert"); err != nil {
		return nil, err
	}

	query, args := sqlutil.BuildInsert(c.style, table, record)
	res, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		c.markFailed(err)
		return nil, adapter.NewQueryError(c.dbType, "insert", table, err)
	}

	lastID, err := res.LastInsertId()
	if err != nil {
		return nil, adapter.NewQueryError(c.dbType, "insert", table, err)
	}
	return lastID, nil
}

// Update applies patch to every row matching condition.
func (c *Client) Update(ctx context.Context, table string, patch adapter.Record, condition adapter.Condition) (int64, error) {
	if err := c.guard("update"); err != nil {
		return 0, err
	}

	query, args := sqlutil.BuildUpdate(c.style, table, patch, condition)
	res, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		c.markFailed(err)
		return 0, adapter.NewQueryError(c.dbType, "update", table, err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// Delete removes every row matching condition.
func (c *Client) Delete(ctx context.Context, table string, condition adapter.Condition) (int64, error) {
	if err := c.guard("delete"); err != nil {
		return 0, err
	}

	query, args := sqlutil.BuildDelete(c.style, table, condition)
	res, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		c.markFailed(err)
		return 0, adapter.NewQueryError(c.dbType, "delete", table, err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// Select returns rows matching the options. A missing table surfaces as the
// driver's error wrapped in a QueryError, never as an empty result.
func (c *Client) Select(ctx context.Context, table string, opts adapter.SelectOptions) ([]adapter.Record, error) {
	if err := c.guard("select"); err != nil {
		return nil, err
	}

	query, args := sqlutil.BuildSelect(c.style, table, opts)
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		c.markFailed(err)
		return nil, adapter.NewQueryError(c.dbType, "select", table, err)
	}
	defer rows.Close()

	records, err := sqlutil.ScanRows(rows)
	if err != nil {
		return nil, adapter.NewQueryError(c.dbType, "select", table, err)
	}
	return records, nil
}

// Count returns the number of rows matching condition.
func (c *Client) Count(ctx context.Context, table string, condition adapter.Condition) (int64, error) {
	if err := c.guard("count"); err != nil {
		return 0, err
	}

	query, args := sqlutil.BuildCount(c.style, table, condition)
	var n int64
	if err := c.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		c.markFailed(err)
		return 0, adapter.NewQueryError(c.dbType, "count", table, err)
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
