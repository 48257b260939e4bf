// Package adapter defines the unified client contract for all database backends.
// This package holds the contracts that database-specific implementations must
// follow: the Client capability interface, the connection configuration, the
// shared error taxonomy, and the process-wide registry that maps backend
// identifiers to client constructors.
//
// Backends register themselves with the global registry from their package
// init, so importing a backend package is all it takes to make it creatable:
//
//	import (
//	    "github.com/redbco/unidb/pkg/adapter"
//	    _ "github.com/redbco/unidb/pkg/database/sqlite"
//	)
//
//	client, err := adapter.Create("sqlite", adapter.ConnectionConfig{FilePath: ":memory:"})
//
// Clients come back unconnected; call Connect explicitly or use WithClient for
// a scoped lifetime that guarantees Disconnect on every exit path.
package adapter
