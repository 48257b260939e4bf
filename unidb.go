// Package unidb is a polymorphic database client toolkit. One contract
// (adapter.Client) covers relational, document, key-value and REST backends;
// this package wires in every built-in backend and re-exports the factory.
//
// Minimal use:
//
//	client, err := unidb.New("sqlite", adapter.ConnectionConfig{FilePath: ":memory:"})
//	if err != nil { ... }
//	err = adapter.WithClient(ctx, client, func(ctx context.Context, c adapter.Client) error {
//		_, err := c.Insert(ctx, "users", adapter.Record{"name": "alice"})
//		return err
//	})
package unidb

import (
	"github.com/redbco/unidb/pkg/adapter"

	// Built-in backends register themselves with the global registry.
	_ "github.com/redbco/unidb/pkg/database/mongodb"
	_ "github.com/redbco/unidb/pkg/database/mysql"
	_ "github.com/redbco/unidb/pkg/database/postgres"
	_ "github.com/redbco/unidb/pkg/database/redis"
	_ "github.com/redbco/unidb/pkg/database/sqlite"
	_ "github.com/redbco/unidb/pkg/database/supabase"
)

// New builds an unconnected client for dbType, which accepts canonical ids
// and their aliases ("postgres", "postgresql", "sqlite3", "mongo", ...).
func New(dbType string, config adapter.ConnectionConfig) (adapter.Client, error) {
	return adapter.Create(dbType, config)
}

// SupportedTypes lists the registered backend identifiers.
func SupportedTypes() []string {
	ids := adapter.ListRegistered()
	types := make([]string, 0, len(ids))
	for _, id := range ids {
		types = append(types, string(id))
	}
	return types
}
