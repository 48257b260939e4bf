// Package sqlite provides the SQLite client backend. The driver is pure Go
// (modernc.org/sqlite), so the backend works without cgo.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/google/uuid"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/database/sqlclient"
	"github.com/redbco/unidb/pkg/database/sqlutil"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

func init() {
	adapter.Register(dbcapabilities.SQLite, NewClient)
}

// Client wraps the shared SQL client with SQLite-only helpers.
type Client struct {
	*sqlclient.Client
}

// NewClient validates config and returns an unconnected SQLite client. The
// special path ":memory:" opens an in-memory database that lives as long as
// the client's connection.
func NewClient(config adapter.ConnectionConfig) (adapter.Client, error) {
	if config.FilePath == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.SQLite, "file_path", "database file path is required")
	}

	id := config.Name
	if id == "" {
		id = uuid.NewString()
	}

	dsn := config.FilePath
	if dsn != ":memory:" {
		// Foreign keys are off by default in SQLite.
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", dsn)
	}

	return &Client{sqlclient.New(id, dbcapabilities.SQLite, "sqlite", dsn, sqlutil.Question, config)}, nil
}

// ExecScript runs a multi-statement SQL script, splitting on semicolons.
// Useful for schema setup. Statement bodies must not themselves contain
// semicolons (no triggers).
func (c *Client) ExecScript(ctx context.Context, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := c.Execute(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
